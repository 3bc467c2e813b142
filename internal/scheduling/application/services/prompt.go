package services

import (
	"fmt"
	"strings"
	"time"
)

const systemPrompt = `You are a flight school scheduling assistant. A training flight has a weather conflict.
Propose alternative departure times that are likely to meet the student's weather minimums.
Reply with JSON only, in this shape:
{"options":[{"date":"2006-01-02T15:04:05Z07:00","reasoning":"...","weatherForecast":"...","score":0-100}],"overallReasoning":"..."}
Offer one to three options, all after the original date, during daylight hours.`

// Prompts renders the system and user prompts for rc.
func Prompts(rc RescheduleContext) (system, user string) {
	var b strings.Builder
	fmt.Fprintf(&b, "Booking: %s\n", rc.BookingID)
	fmt.Fprintf(&b, "Training level: %s\n", rc.TrainingLevel)
	fmt.Fprintf(&b, "Original date: %s\n", rc.OriginalDate.Format(time.RFC3339))
	fmt.Fprintf(&b, "Departure: %s\n", rc.Departure)
	if rc.Destination != nil {
		fmt.Fprintf(&b, "Destination: %s\n", rc.Destination)
	}
	if rc.WeatherSummary != "" {
		fmt.Fprintf(&b, "Current weather: %s\n", rc.WeatherSummary)
	}
	fmt.Fprintf(&b, "Severity: %s\n", rc.Severity)
	b.WriteString("Violations:\n")
	for _, v := range rc.Violations {
		fmt.Fprintf(&b, "- %s\n", v)
	}
	return systemPrompt, b.String()
}

// Package services holds the reschedule generation strategy chain.
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/flightwatch/internal/scheduling/domain"
	weather "github.com/felixgeelhaar/flightwatch/internal/weather/domain"
)

// DefaultConfidence is used when a provider omits a score.
const DefaultConfidence = 80

// RescheduleContext is what a provider knows about a conflicted booking.
type RescheduleContext struct {
	BookingID      uuid.UUID
	TrainingLevel  weather.TrainingLevel
	OriginalDate   time.Time
	Departure      weather.Location
	Destination    *weather.Location
	Violations     []string
	Severity       weather.Severity
	WeatherSummary string
}

// Suggestion is a validated provider answer.
type Suggestion struct {
	Provider  string
	Options   []domain.RescheduleOption
	Reasoning string
}

// SuggestionProvider proposes alternative slots for a booking.
type SuggestionProvider interface {
	Name() string
	Suggest(ctx context.Context, rc RescheduleContext) (*Suggestion, error)
}

// configurable is implemented by providers that need credentials.
type configurable interface {
	Configured() bool
}

type rawSuggestion struct {
	Options []struct {
		Date            string   `json:"date"`
		Reasoning       string   `json:"reasoning"`
		WeatherForecast string   `json:"weatherForecast"`
		Score           *float64 `json:"score"`
	} `json:"options"`
	OverallReasoning string `json:"overallReasoning"`
}

var suggestionDateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
}

// ParseSuggestion decodes and validates the JSON a reasoning service returns.
// Naive dates are read in loc. Every failure wraps domain.ErrMalformedSuggestion.
func ParseSuggestion(provider, content string, loc *time.Location) (*Suggestion, error) {
	var raw rawSuggestion
	if err := json.Unmarshal([]byte(stripFences(content)), &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedSuggestion, err)
	}
	if len(raw.Options) == 0 {
		return nil, fmt.Errorf("%w: no options", domain.ErrMalformedSuggestion)
	}
	if loc == nil {
		loc = time.UTC
	}

	options := make([]domain.RescheduleOption, 0, len(raw.Options))
	for i, o := range raw.Options {
		at, err := parseSuggestionDate(o.Date, loc)
		if err != nil {
			return nil, fmt.Errorf("%w: option %d: %v", domain.ErrMalformedSuggestion, i, err)
		}
		reasoning := strings.TrimSpace(o.Reasoning)
		if reasoning == "" {
			return nil, fmt.Errorf("%w: option %d has no reasoning", domain.ErrMalformedSuggestion, i)
		}
		score := DefaultConfidence
		if o.Score != nil {
			score = int(min(max(math.Round(*o.Score), 0), 100))
		}
		options = append(options, domain.RescheduleOption{
			DateTime:       at.UTC(),
			Reasoning:      reasoning,
			WeatherSummary: strings.TrimSpace(o.WeatherForecast),
			Confidence:     score,
		})
	}

	return &Suggestion{
		Provider:  provider,
		Options:   options,
		Reasoning: strings.TrimSpace(raw.OverallReasoning),
	}, nil
}

func parseSuggestionDate(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("missing date")
	}
	for _, layout := range suggestionDateLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable date %q", s)
}

// stripFences removes a surrounding ```json ... ``` block.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

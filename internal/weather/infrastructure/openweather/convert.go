package openweather

import (
	"math"
	"strings"
	"time"
	"unicode"

	"github.com/felixgeelhaar/flightwatch/internal/weather/domain"
)

const (
	metersPerStatuteMile = 1609.344
	knotsPerMeterPerSec  = 1.943844
	kelvinOffset         = 273.15

	// OpenWeatherMap reports 51% and more as broken clouds, which is the
	// first layer that counts as a ceiling.
	brokenCloudCover = 51
	// Cloud base rises about 400 ft per °C of temperature/dew point spread.
	feetPerDegreeSpread = 400
	// Reported when the API omits visibility, which it does for unlimited.
	defaultVisibilityMeters = 10000
)

// currentWeather is the subset of /data/2.5/weather flightwatch reads.
type currentWeather struct {
	Dt      int64 `json:"dt"`
	Weather []struct {
		ID          int    `json:"id"`
		Main        string `json:"main"`
		Description string `json:"description"`
	} `json:"weather"`
	Main struct {
		Temp     float64 `json:"temp"`
		Humidity float64 `json:"humidity"`
	} `json:"main"`
	Visibility *float64 `json:"visibility"`
	Wind       struct {
		Speed float64  `json:"speed"`
		Deg   *float64 `json:"deg"`
	} `json:"wind"`
	Clouds struct {
		All float64 `json:"all"`
	} `json:"clouds"`
}

func (w currentWeather) toObservation(loc domain.Location, now time.Time, ttl time.Duration) *domain.Observation {
	tempC := w.Main.Temp - kelvinOffset

	visMeters := float64(defaultVisibilityMeters)
	if w.Visibility != nil {
		visMeters = *w.Visibility
	}

	var observedAt time.Time
	if w.Dt > 0 {
		observedAt = time.Unix(w.Dt, 0).UTC()
	}

	in := domain.ObservationInput{
		Location:         loc,
		ObservedAt:       observedAt,
		VisibilityMi:     round1(visMeters / metersPerStatuteMile),
		CeilingFt:        w.ceiling(tempC),
		WindSpeedKt:      math.Round(w.Wind.Speed * knotsPerMeterPerSec),
		WindDirectionDeg: w.Wind.Deg,
		TemperatureC:     round1(tempC),
		Conditions:       w.conditions(),
		Thunderstorms:    w.hasCondition(isThunderstorm),
		Icing:            w.icing(tempC, visMeters),
	}
	return domain.NewObservation(in, now, ttl)
}

// ceiling estimates the cloud base from the temperature/dew point spread.
// Below broken coverage there is no ceiling.
func (w currentWeather) ceiling(tempC float64) *float64 {
	if w.Clouds.All < brokenCloudCover {
		return nil
	}
	spread := tempC - dewPoint(tempC, w.Main.Humidity)
	if spread < 0 {
		spread = 0
	}
	ft := math.Max(100, math.Round(spread*feetPerDegreeSpread/100)*100)
	return &ft
}

// icing: freezing precipitation, or at or below freezing with visible
// moisture (precipitation, fog or a cloud layer).
func (w currentWeather) icing(tempC, visMeters float64) bool {
	if w.hasCondition(isFreezingPrecipitation) {
		return true
	}
	if tempC > 0 {
		return false
	}
	return w.hasCondition(isPrecipitation) || w.Clouds.All >= brokenCloudCover || visMeters < metersPerStatuteMile
}

func (w currentWeather) hasCondition(match func(id int) bool) bool {
	for _, c := range w.Weather {
		if match(c.ID) {
			return true
		}
	}
	return false
}

func (w currentWeather) conditions() string {
	if len(w.Weather) == 0 {
		return "Unknown"
	}
	desc := w.Weather[0].Description
	if desc == "" {
		desc = w.Weather[0].Main
	}
	return capitalize(desc)
}

func isThunderstorm(id int) bool { return id >= 200 && id < 300 }

func isFreezingPrecipitation(id int) bool { return id == 511 || (id >= 611 && id <= 616) }

// drizzle, rain and snow groups
func isPrecipitation(id int) bool { return id >= 300 && id < 700 }

// dewPoint uses the Magnus approximation.
func dewPoint(tempC, humidity float64) float64 {
	if humidity <= 0 {
		return tempC - 30
	}
	const a, b = 17.62, 243.12
	gamma := math.Log(humidity/100) + a*tempC/(b+tempC)
	return b * gamma / (a - gamma)
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }

func capitalize(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

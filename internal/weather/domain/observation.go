package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Observation is an immutable weather snapshot for a location. Newer
// observations supersede older ones; nothing is updated in place.
type Observation struct {
	ID               uuid.UUID `json:"id"`
	Location         Location  `json:"location"`
	ObservedAt       time.Time `json:"observed_at"`
	FetchedAt        time.Time `json:"fetched_at"`
	ExpiresAt        time.Time `json:"expires_at"`
	VisibilityMi     float64   `json:"visibility_mi"`
	CeilingFt        *float64  `json:"ceiling_ft,omitempty"`
	WindSpeedKt      float64   `json:"wind_speed_kt"`
	WindDirectionDeg *float64  `json:"wind_direction_deg,omitempty"`
	TemperatureC     float64   `json:"temperature_c"`
	Conditions       string    `json:"conditions"`
	Thunderstorms    bool      `json:"thunderstorms"`
	Icing            bool      `json:"icing"`
}

// ObservationInput carries the measured values of a new observation.
type ObservationInput struct {
	Location         Location
	ObservedAt       time.Time
	VisibilityMi     float64
	CeilingFt        *float64
	WindSpeedKt      float64
	WindDirectionDeg *float64
	TemperatureC     float64
	Conditions       string
	Thunderstorms    bool
	Icing            bool
}

// NewObservation stamps an observation fetched at fetchedAt that stays
// valid for ttl.
func NewObservation(in ObservationInput, fetchedAt time.Time, ttl time.Duration) *Observation {
	observedAt := in.ObservedAt
	if observedAt.IsZero() {
		observedAt = fetchedAt
	}
	return &Observation{
		ID:               uuid.New(),
		Location:         in.Location,
		ObservedAt:       observedAt.UTC(),
		FetchedAt:        fetchedAt.UTC(),
		ExpiresAt:        fetchedAt.Add(ttl).UTC(),
		VisibilityMi:     in.VisibilityMi,
		CeilingFt:        in.CeilingFt,
		WindSpeedKt:      in.WindSpeedKt,
		WindDirectionDeg: in.WindDirectionDeg,
		TemperatureC:     in.TemperatureC,
		Conditions:       in.Conditions,
		Thunderstorms:    in.Thunderstorms,
		Icing:            in.Icing,
	}
}

// IsExpired reports whether the observation may no longer be served at now.
func (o *Observation) IsExpired(now time.Time) bool {
	return !o.ExpiresAt.After(now)
}

// Summary renders a one-line description for prompts and notifications,
// e.g. "Overcast, visibility 4.0 mi, ceiling 1200 ft, wind 240° at 14 kt, 12°C".
func (o *Observation) Summary() string {
	parts := make([]string, 0, 6)
	if o.Conditions != "" {
		parts = append(parts, o.Conditions)
	}
	parts = append(parts, fmt.Sprintf("visibility %.1f mi", o.VisibilityMi))
	if o.CeilingFt != nil {
		parts = append(parts, fmt.Sprintf("ceiling %.0f ft", *o.CeilingFt))
	} else {
		parts = append(parts, "no ceiling")
	}
	if o.WindDirectionDeg != nil {
		parts = append(parts, fmt.Sprintf("wind %.0f° at %.0f kt", *o.WindDirectionDeg, o.WindSpeedKt))
	} else {
		parts = append(parts, fmt.Sprintf("wind %.0f kt", o.WindSpeedKt))
	}
	parts = append(parts, fmt.Sprintf("%.0f°C", o.TemperatureC))
	if o.Thunderstorms {
		parts = append(parts, "thunderstorms")
	}
	if o.Icing {
		parts = append(parts, "icing")
	}
	return strings.Join(parts, ", ")
}

// Package queries serves read models of conflicts and option sets.
package queries

import (
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/flightwatch/internal/scheduling/domain"
)

// ConflictDTO is the read model of a conflict.
type ConflictDTO struct {
	ID             uuid.UUID  `json:"id"`
	BookingID      uuid.UUID  `json:"booking_id"`
	ObservationID  *uuid.UUID `json:"observation_id,omitempty"`
	TrainingLevel  string     `json:"training_level"`
	Violations     []string   `json:"violations"`
	Severity       string     `json:"severity"`
	DetectedAt     time.Time  `json:"detected_at"`
	Resolved       bool       `json:"resolved"`
	ResolvedAt     *time.Time `json:"resolved_at,omitempty"`
	ResolutionNote string     `json:"resolution_note,omitempty"`
	Weather        string     `json:"weather,omitempty"`
}

// OptionDTO is one proposed slot.
type OptionDTO struct {
	Index          int       `json:"index"`
	DateTime       time.Time `json:"date_time"`
	Reasoning      string    `json:"reasoning"`
	WeatherSummary string    `json:"weather_summary,omitempty"`
	Confidence     int       `json:"confidence"`
}

// OptionSetDTO is the read model of a reschedule option set.
type OptionSetDTO struct {
	ID              uuid.UUID   `json:"id"`
	BookingID       uuid.UUID   `json:"booking_id"`
	ConflictID      uuid.UUID   `json:"conflict_id"`
	Provider        string      `json:"provider"`
	Reasoning       string      `json:"reasoning"`
	GeneratedAt     time.Time   `json:"generated_at"`
	Status          string      `json:"status"`
	SelectedIndex   *int        `json:"selected_index,omitempty"`
	RejectionReason string      `json:"rejection_reason,omitempty"`
	Options         []OptionDTO `json:"options"`
}

func toConflictDTO(c *domain.Conflict) ConflictDTO {
	dto := ConflictDTO{
		ID:             c.ID(),
		BookingID:      c.BookingID(),
		TrainingLevel:  string(c.TrainingLevel()),
		Violations:     c.Violations(),
		Severity:       string(c.Severity()),
		DetectedAt:     c.DetectedAt(),
		Resolved:       c.IsResolved(),
		ResolvedAt:     c.ResolvedAt(),
		ResolutionNote: c.ResolutionNote(),
	}
	if id := c.ObservationID(); id != uuid.Nil {
		dto.ObservationID = &id
	}
	return dto
}

// ToOptionSetDTO converts a set for callers that already hold the aggregate.
func ToOptionSetDTO(s *domain.RescheduleOptionSet) OptionSetDTO {
	dto := OptionSetDTO{
		ID:              s.ID(),
		BookingID:       s.BookingID(),
		ConflictID:      s.ConflictID(),
		Provider:        s.Provider(),
		Reasoning:       s.Reasoning(),
		GeneratedAt:     s.GeneratedAt(),
		Status:          string(s.Status()),
		SelectedIndex:   s.SelectedIndex(),
		RejectionReason: s.RejectionReason(),
	}
	for i, o := range s.Options() {
		dto.Options = append(dto.Options, OptionDTO{
			Index:          i,
			DateTime:       o.DateTime,
			Reasoning:      o.Reasoning,
			WeatherSummary: o.WeatherSummary,
			Confidence:     o.Confidence,
		})
	}
	return dto
}

package domain

import (
	"time"

	"github.com/google/uuid"

	sharedDomain "github.com/felixgeelhaar/flightwatch/internal/shared/domain"
	weather "github.com/felixgeelhaar/flightwatch/internal/weather/domain"
)

// ResolutionRescheduled is the note recorded when an accepted reschedule
// closes a conflict.
const ResolutionRescheduled = "rescheduled"

// ResolutionWeatherCleared is recorded when a later check finds no violations.
const ResolutionWeatherCleared = "weather cleared"

// Conflict is a weather violation raised against a booking. A booking has
// at most one unresolved conflict at a time.
type Conflict struct {
	sharedDomain.BaseAggregateRoot
	bookingID      uuid.UUID
	observationID  uuid.UUID
	trainingLevel  weather.TrainingLevel
	violations     []string
	severity       weather.Severity
	detectedAt     time.Time
	resolved       bool
	resolvedAt     *time.Time
	resolutionNote string
}

// NewConflict creates an unresolved conflict. observationID may be uuid.Nil.
func NewConflict(
	bookingID, observationID uuid.UUID,
	level weather.TrainingLevel,
	violations []string,
	severity weather.Severity,
	now time.Time,
) (*Conflict, error) {
	if len(violations) == 0 {
		return nil, ErrNoViolations
	}
	return &Conflict{
		BaseAggregateRoot: sharedDomain.NewBaseAggregateRoot(now),
		bookingID:         bookingID,
		observationID:     observationID,
		trainingLevel:     level,
		violations:        append([]string(nil), violations...),
		severity:          severity,
		detectedAt:        now,
	}, nil
}

// RehydrateConflict recreates a conflict from persisted state.
func RehydrateConflict(
	id, bookingID, observationID uuid.UUID,
	level weather.TrainingLevel,
	violations []string,
	severity weather.Severity,
	detectedAt time.Time,
	resolved bool,
	resolvedAt *time.Time,
	resolutionNote string,
	createdAt, updatedAt time.Time,
) *Conflict {
	return &Conflict{
		BaseAggregateRoot: sharedDomain.RehydrateBaseAggregateRoot(id, createdAt, updatedAt),
		bookingID:         bookingID,
		observationID:     observationID,
		trainingLevel:     level,
		violations:        violations,
		severity:          severity,
		detectedAt:        detectedAt,
		resolved:          resolved,
		resolvedAt:        resolvedAt,
		resolutionNote:    resolutionNote,
	}
}

// Getters
func (c *Conflict) BookingID() uuid.UUID                 { return c.bookingID }
func (c *Conflict) ObservationID() uuid.UUID             { return c.observationID }
func (c *Conflict) TrainingLevel() weather.TrainingLevel { return c.trainingLevel }
func (c *Conflict) Violations() []string                 { return append([]string(nil), c.violations...) }
func (c *Conflict) Severity() weather.Severity           { return c.severity }
func (c *Conflict) DetectedAt() time.Time                { return c.detectedAt }
func (c *Conflict) IsResolved() bool                     { return c.resolved }
func (c *Conflict) ResolvedAt() *time.Time               { return c.resolvedAt }
func (c *Conflict) ResolutionNote() string               { return c.resolutionNote }

// AnnounceDetected records the ConflictDetected event. Call it only when the
// conflict was newly created, not when an open one was refreshed.
func (c *Conflict) AnnounceDetected(b *Booking) {
	c.AddDomainEvent(NewConflictDetected(c, b))
}

// Resolve closes the conflict. Resolving a resolved conflict changes nothing
// and reports false. b supplies the notification recipients and may be nil.
func (c *Conflict) Resolve(b *Booking, note string, automatic bool, now time.Time) bool {
	if c.resolved {
		return false
	}
	c.resolved = true
	c.resolvedAt = &now
	c.resolutionNote = note
	c.Touch(now)
	c.AddDomainEvent(NewConflictResolved(c, b, automatic))
	return true
}

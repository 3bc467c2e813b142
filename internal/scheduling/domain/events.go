package domain

import (
	"time"

	"github.com/google/uuid"

	sharedDomain "github.com/felixgeelhaar/flightwatch/internal/shared/domain"
)

const (
	AggregateTypeConflict  = "Conflict"
	AggregateTypeOptionSet = "RescheduleOptionSet"

	RoutingKeyConflictDetected    = "scheduling.conflict.detected"
	RoutingKeyConflictResolved    = "scheduling.conflict.resolved"
	RoutingKeyRescheduleSuggested = "scheduling.reschedule.suggested"
	RoutingKeyRescheduleAccepted  = "scheduling.reschedule.accepted"
	RoutingKeyRescheduleRejected  = "scheduling.reschedule.rejected"
)

// Recipients names who hears about a booking.
type Recipients struct {
	StudentID    uuid.UUID `json:"student_id"`
	InstructorID uuid.UUID `json:"instructor_id,omitempty"`
}

func recipientsOf(b *Booking) Recipients {
	if b == nil {
		return Recipients{}
	}
	return Recipients{StudentID: b.StudentID, InstructorID: b.InstructorID}
}

// ConflictDetected is emitted when a booking gets a new weather conflict.
type ConflictDetected struct {
	sharedDomain.BaseEvent
	Recipients
	ConflictID    uuid.UUID `json:"conflict_id"`
	BookingID     uuid.UUID `json:"booking_id"`
	ScheduledAt   time.Time `json:"scheduled_at"`
	Location      string    `json:"location"`
	TrainingLevel string    `json:"training_level"`
	Violations    []string  `json:"violations"`
	Severity      string    `json:"severity"`
}

// NewConflictDetected creates a ConflictDetected event.
func NewConflictDetected(c *Conflict, b *Booking) *ConflictDetected {
	return &ConflictDetected{
		BaseEvent:     sharedDomain.NewBaseEvent(c.ID(), AggregateTypeConflict, RoutingKeyConflictDetected, c.DetectedAt()),
		Recipients:    recipientsOf(b),
		ConflictID:    c.ID(),
		BookingID:     c.BookingID(),
		ScheduledAt:   b.ScheduledAt,
		Location:      b.Departure.String(),
		TrainingLevel: string(c.TrainingLevel()),
		Violations:    c.Violations(),
		Severity:      string(c.Severity()),
	}
}

// ConflictResolved is emitted when a conflict closes, either because the
// weather cleared, the booking was rescheduled or an operator resolved it.
type ConflictResolved struct {
	sharedDomain.BaseEvent
	Recipients
	ConflictID uuid.UUID `json:"conflict_id"`
	BookingID  uuid.UUID `json:"booking_id"`
	Note       string    `json:"note,omitempty"`
	Automatic  bool      `json:"automatic"`
}

// NewConflictResolved creates a ConflictResolved event.
func NewConflictResolved(c *Conflict, b *Booking, automatic bool) *ConflictResolved {
	at := c.UpdatedAt()
	if c.ResolvedAt() != nil {
		at = *c.ResolvedAt()
	}
	return &ConflictResolved{
		BaseEvent:  sharedDomain.NewBaseEvent(c.ID(), AggregateTypeConflict, RoutingKeyConflictResolved, at),
		Recipients: recipientsOf(b),
		ConflictID: c.ID(),
		BookingID:  c.BookingID(),
		Note:       c.ResolutionNote(),
		Automatic:  automatic,
	}
}

// RescheduleSuggested is emitted when a new option set is offered.
type RescheduleSuggested struct {
	sharedDomain.BaseEvent
	Recipients
	OptionSetID uuid.UUID `json:"option_set_id"`
	BookingID   uuid.UUID `json:"booking_id"`
	ConflictID  uuid.UUID `json:"conflict_id"`
	Provider    string    `json:"provider"`
	OptionCount int       `json:"option_count"`
}

// NewRescheduleSuggested creates a RescheduleSuggested event.
func NewRescheduleSuggested(s *RescheduleOptionSet, b *Booking) *RescheduleSuggested {
	return &RescheduleSuggested{
		BaseEvent:   sharedDomain.NewBaseEvent(s.ID(), AggregateTypeOptionSet, RoutingKeyRescheduleSuggested, s.GeneratedAt()),
		Recipients:  recipientsOf(b),
		OptionSetID: s.ID(),
		BookingID:   s.BookingID(),
		ConflictID:  s.ConflictID(),
		Provider:    s.Provider(),
		OptionCount: len(s.options),
	}
}

// RescheduleAccepted is emitted when an option is accepted and the booking
// moves to the new date.
type RescheduleAccepted struct {
	sharedDomain.BaseEvent
	Recipients
	OptionSetID   uuid.UUID `json:"option_set_id"`
	BookingID     uuid.UUID `json:"booking_id"`
	SelectedIndex int       `json:"selected_index"`
	OldDate       time.Time `json:"old_date"`
	NewDate       time.Time `json:"new_date"`
}

// NewRescheduleAccepted creates a RescheduleAccepted event.
func NewRescheduleAccepted(s *RescheduleOptionSet, b *Booking, index int, oldDate, newDate time.Time) *RescheduleAccepted {
	return &RescheduleAccepted{
		BaseEvent:     sharedDomain.NewBaseEvent(s.ID(), AggregateTypeOptionSet, RoutingKeyRescheduleAccepted, s.UpdatedAt()),
		Recipients:    recipientsOf(b),
		OptionSetID:   s.ID(),
		BookingID:     s.BookingID(),
		SelectedIndex: index,
		OldDate:       oldDate,
		NewDate:       newDate,
	}
}

// RescheduleRejected is emitted when every option of a set is declined.
type RescheduleRejected struct {
	sharedDomain.BaseEvent
	Recipients
	OptionSetID uuid.UUID `json:"option_set_id"`
	BookingID   uuid.UUID `json:"booking_id"`
	Reason      string    `json:"reason,omitempty"`
}

// NewRescheduleRejected creates a RescheduleRejected event.
func NewRescheduleRejected(s *RescheduleOptionSet, b *Booking, reason string) *RescheduleRejected {
	return &RescheduleRejected{
		BaseEvent:   sharedDomain.NewBaseEvent(s.ID(), AggregateTypeOptionSet, RoutingKeyRescheduleRejected, s.UpdatedAt()),
		Recipients:  recipientsOf(b),
		OptionSetID: s.ID(),
		BookingID:   s.BookingID(),
		Reason:      reason,
	}
}

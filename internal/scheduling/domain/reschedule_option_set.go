package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	sharedDomain "github.com/felixgeelhaar/flightwatch/internal/shared/domain"
)

// OptionSetStatus is the lifecycle state of a reschedule option set.
type OptionSetStatus string

const (
	OptionSetPending  OptionSetStatus = "pending"
	OptionSetAccepted OptionSetStatus = "accepted"
	OptionSetRejected OptionSetStatus = "rejected"
	OptionSetExpired  OptionSetStatus = "expired"
)

// Provider ids.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderRuleBased = "rule-based"
)

// RescheduleOption is one proposed new slot.
type RescheduleOption struct {
	DateTime       time.Time `json:"date_time"`
	Reasoning      string    `json:"reasoning"`
	WeatherSummary string    `json:"weather_summary,omitempty"`
	Confidence     int       `json:"confidence"`
}

// RescheduleOptionSet is the set of alternatives offered for a conflicted
// booking. Only a pending set can be accepted or rejected.
type RescheduleOptionSet struct {
	sharedDomain.BaseAggregateRoot
	bookingID       uuid.UUID
	conflictID      uuid.UUID
	options         []RescheduleOption
	provider        string
	reasoning       string
	generatedAt     time.Time
	status          OptionSetStatus
	selectedIndex   *int
	rejectionReason string
}

// NewRescheduleOptionSet creates a pending set.
func NewRescheduleOptionSet(
	bookingID, conflictID uuid.UUID,
	options []RescheduleOption,
	provider, reasoning string,
	now time.Time,
) (*RescheduleOptionSet, error) {
	if len(options) == 0 {
		return nil, ErrNoOptions
	}
	return &RescheduleOptionSet{
		BaseAggregateRoot: sharedDomain.NewBaseAggregateRoot(now),
		bookingID:         bookingID,
		conflictID:        conflictID,
		options:           append([]RescheduleOption(nil), options...),
		provider:          provider,
		reasoning:         reasoning,
		generatedAt:       now,
		status:            OptionSetPending,
	}, nil
}

// RehydrateRescheduleOptionSet recreates a set from persisted state.
func RehydrateRescheduleOptionSet(
	id, bookingID, conflictID uuid.UUID,
	options []RescheduleOption,
	provider, reasoning string,
	generatedAt time.Time,
	status OptionSetStatus,
	selectedIndex *int,
	rejectionReason string,
	createdAt, updatedAt time.Time,
) *RescheduleOptionSet {
	return &RescheduleOptionSet{
		BaseAggregateRoot: sharedDomain.RehydrateBaseAggregateRoot(id, createdAt, updatedAt),
		bookingID:         bookingID,
		conflictID:        conflictID,
		options:           options,
		provider:          provider,
		reasoning:         reasoning,
		generatedAt:       generatedAt,
		status:            status,
		selectedIndex:     selectedIndex,
		rejectionReason:   rejectionReason,
	}
}

// Getters
func (s *RescheduleOptionSet) BookingID() uuid.UUID        { return s.bookingID }
func (s *RescheduleOptionSet) ConflictID() uuid.UUID       { return s.conflictID }
func (s *RescheduleOptionSet) Options() []RescheduleOption { return append([]RescheduleOption(nil), s.options...) }
func (s *RescheduleOptionSet) Provider() string            { return s.provider }
func (s *RescheduleOptionSet) Reasoning() string           { return s.reasoning }
func (s *RescheduleOptionSet) GeneratedAt() time.Time      { return s.generatedAt }
func (s *RescheduleOptionSet) Status() OptionSetStatus     { return s.status }
func (s *RescheduleOptionSet) SelectedIndex() *int         { return s.selectedIndex }
func (s *RescheduleOptionSet) RejectionReason() string     { return s.rejectionReason }
func (s *RescheduleOptionSet) IsPending() bool             { return s.status == OptionSetPending }

// AnnounceSuggested records the RescheduleSuggested event for a newly
// created set.
func (s *RescheduleOptionSet) AnnounceSuggested(b *Booking) {
	s.AddDomainEvent(NewRescheduleSuggested(s, b))
}

// Accept selects option index and returns it. The index is checked before
// the status so that a bad index never touches the set.
func (s *RescheduleOptionSet) Accept(index int, b *Booking, now time.Time) (RescheduleOption, error) {
	if index < 0 || index >= len(s.options) {
		return RescheduleOption{}, fmt.Errorf("%w: %d not in [0, %d)", ErrInvalidOptionIndex, index, len(s.options))
	}
	if s.status != OptionSetPending {
		return RescheduleOption{}, fmt.Errorf("%w: status is %s", ErrAlreadyFinalized, s.status)
	}

	option := s.options[index]
	oldDate := b.ScheduledAt
	s.status = OptionSetAccepted
	s.selectedIndex = &index
	s.Touch(now)
	s.AddDomainEvent(NewRescheduleAccepted(s, b, index, oldDate, option.DateTime))
	return option, nil
}

// Reject declines every option.
func (s *RescheduleOptionSet) Reject(reason string, b *Booking, now time.Time) error {
	if s.status != OptionSetPending {
		return fmt.Errorf("%w: status is %s", ErrAlreadyFinalized, s.status)
	}
	s.status = OptionSetRejected
	s.rejectionReason = reason
	s.Touch(now)
	s.AddDomainEvent(NewRescheduleRejected(s, b, reason))
	return nil
}

// Expire retires a pending set whose booking date has passed.
func (s *RescheduleOptionSet) Expire(now time.Time) error {
	if s.status != OptionSetPending {
		return fmt.Errorf("%w: status is %s", ErrAlreadyFinalized, s.status)
	}
	s.status = OptionSetExpired
	s.Touch(now)
	return nil
}

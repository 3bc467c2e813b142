package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	weather "github.com/felixgeelhaar/flightwatch/internal/weather/domain"
)

// BookingStatus is the lifecycle state of a booking.
type BookingStatus string

const (
	BookingScheduled       BookingStatus = "scheduled"
	BookingWeatherConflict BookingStatus = "weather-conflict"
	BookingRescheduled     BookingStatus = "rescheduled"
	BookingCompleted       BookingStatus = "completed"
	BookingCancelled       BookingStatus = "cancelled"
)

// ParseBookingStatus validates a stored or user-supplied status.
func ParseBookingStatus(s string) (BookingStatus, error) {
	switch status := BookingStatus(s); status {
	case BookingScheduled, BookingWeatherConflict, BookingRescheduled, BookingCompleted, BookingCancelled:
		return status, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidBookingStatus, s)
}

// IsActive reports whether weather checks apply to the booking.
func (s BookingStatus) IsActive() bool {
	return s == BookingScheduled || s == BookingWeatherConflict
}

// ActiveStatuses lists the statuses the batch driver checks.
func ActiveStatuses() []BookingStatus {
	return []BookingStatus{BookingScheduled, BookingWeatherConflict}
}

// Booking is a training flight. The booking system owns it; flightwatch only
// moves it between scheduled, weather-conflict and rescheduled.
type Booking struct {
	ID           uuid.UUID
	StudentID    uuid.UUID
	InstructorID uuid.UUID
	AircraftID   string
	ScheduledAt  time.Time
	Departure    weather.Location
	Destination  *weather.Location
	Status       BookingStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// FlagConflict moves a scheduled booking to weather-conflict. It reports
// whether the status changed.
func (b *Booking) FlagConflict(now time.Time) bool {
	if b.Status != BookingScheduled {
		return false
	}
	b.Status = BookingWeatherConflict
	b.UpdatedAt = now
	return true
}

// ClearConflict reverts weather-conflict to scheduled. It reports whether
// the status changed.
func (b *Booking) ClearConflict(now time.Time) bool {
	if b.Status != BookingWeatherConflict {
		return false
	}
	b.Status = BookingScheduled
	b.UpdatedAt = now
	return true
}

// Reschedule moves the booking to newDate and marks it rescheduled.
func (b *Booking) Reschedule(newDate, now time.Time) {
	b.ScheduledAt = newDate.UTC()
	b.Status = BookingRescheduled
	b.UpdatedAt = now
}

// Student is the pilot a booking belongs to.
type Student struct {
	ID            uuid.UUID
	Name          string
	TrainingLevel weather.TrainingLevel
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

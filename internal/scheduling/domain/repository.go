package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// BookingRepository reads and mutates bookings owned by the booking system.
type BookingRepository interface {
	// FindByID returns ErrBookingNotFound when the booking does not exist.
	FindByID(ctx context.Context, id uuid.UUID) (*Booking, error)

	// ListActive returns scheduled and weather-conflict bookings with
	// scheduled_at in [start, end], ordered by scheduled_at.
	ListActive(ctx context.Context, start, end time.Time) ([]*Booking, error)

	// UpdateSchedule moves a booking and sets its status.
	UpdateSchedule(ctx context.Context, id uuid.UUID, scheduledAt time.Time, status BookingStatus, now time.Time) error

	// UpdateStatus changes only the status.
	UpdateStatus(ctx context.Context, id uuid.UUID, status BookingStatus, now time.Time) error

	// Save inserts or replaces a booking. The booking system's import path
	// and fixtures use it.
	Save(ctx context.Context, b *Booking) error
}

// StudentRepository reads students.
type StudentRepository interface {
	// FindByID returns ErrStudentNotFound when the student does not exist.
	FindByID(ctx context.Context, id uuid.UUID) (*Student, error)

	// Save inserts or replaces a student.
	Save(ctx context.Context, s *Student) error
}

// ConflictRepository persists conflicts.
type ConflictRepository interface {
	// UpsertOpen inserts c unless the booking already has an unresolved
	// conflict, in which case that row is refreshed with c's violations.
	// c's ID is set to the stored row; created reports which case applied.
	UpsertOpen(ctx context.Context, c *Conflict) (created bool, err error)

	// Save updates the resolution state of an existing conflict.
	Save(ctx context.Context, c *Conflict) error

	// FindByID returns ErrConflictNotFound when the conflict does not exist.
	FindByID(ctx context.Context, id uuid.UUID) (*Conflict, error)

	// FindOpenByBooking returns nil, nil when the booking has no open conflict.
	FindOpenByBooking(ctx context.Context, bookingID uuid.UUID) (*Conflict, error)

	// ListOpen returns unresolved conflicts, newest first.
	ListOpen(ctx context.Context, limit int) ([]*Conflict, error)
}

// OptionSetRepository persists reschedule option sets.
type OptionSetRepository interface {
	// UpsertPending inserts s unless the booking already has a pending set,
	// in which case that row is overwritten with s's options. s's ID is set
	// to the stored row; created reports which case applied.
	UpsertPending(ctx context.Context, s *RescheduleOptionSet) (created bool, err error)

	// Save updates status, selection and rejection reason.
	Save(ctx context.Context, s *RescheduleOptionSet) error

	// FindByID returns ErrOptionSetNotFound when the set does not exist.
	FindByID(ctx context.Context, id uuid.UUID) (*RescheduleOptionSet, error)

	// FindPendingByBooking returns nil, nil when there is no pending set.
	FindPendingByBooking(ctx context.Context, bookingID uuid.UUID) (*RescheduleOptionSet, error)

	// ListStalePending returns pending sets whose booking was scheduled
	// before now.
	ListStalePending(ctx context.Context, now time.Time) ([]*RescheduleOptionSet, error)
}

package domain

import "errors"

var (
	ErrBookingNotFound   = errors.New("booking not found")
	ErrStudentNotFound   = errors.New("student not found")
	ErrConflictNotFound  = errors.New("conflict not found")
	ErrOptionSetNotFound = errors.New("reschedule option set not found")

	ErrInvalidOptionIndex      = errors.New("option index out of range")
	ErrConflictBookingMismatch = errors.New("conflict belongs to a different booking")
	ErrMalformedSuggestion     = errors.New("malformed reschedule suggestion")
	ErrNoViolations            = errors.New("conflict needs at least one violation")
	ErrNoOptions               = errors.New("option set needs at least one option")
	ErrInvalidBookingStatus    = errors.New("invalid booking status")

	ErrAlreadyFinalized = errors.New("reschedule option set already finalized")
)

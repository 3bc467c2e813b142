package domain

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrFetchFailed wraps every failure of the upstream weather service.
	ErrFetchFailed = errors.New("weather fetch failed")
	// ErrObservationNotFound is returned by FindByID.
	ErrObservationNotFound = errors.New("weather observation not found")
)

// Cache stores observations append-only and serves the freshest unexpired
// one per location. Implementations do no network I/O towards the weather
// provider.
type Cache interface {
	// Lookup returns the unexpired observation for loc with the latest
	// observed_at, or nil, nil when there is none.
	Lookup(ctx context.Context, loc Location, now time.Time) (*Observation, error)
	// Store inserts obs.
	Store(ctx context.Context, obs *Observation) error
	// FindByID loads an observation regardless of expiry, as long as the
	// backend still holds it.
	FindByID(ctx context.Context, id uuid.UUID) (*Observation, error)
	// Sweep deletes expired observations and reports how many went away.
	Sweep(ctx context.Context, now time.Time) (int64, error)
}

// Fetcher retrieves a current observation from an external provider.
type Fetcher interface {
	FetchObservation(ctx context.Context, loc Location) (*Observation, error)
}

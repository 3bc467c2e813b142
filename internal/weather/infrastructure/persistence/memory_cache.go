package persistence

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/flightwatch/internal/weather/domain"
)

// InMemoryCache keeps observations in process memory. It backs tests and
// one-shot CLI runs that have no database.
type InMemoryCache struct {
	mu           sync.RWMutex
	observations map[uuid.UUID]domain.Observation
}

// NewInMemoryCache creates an empty cache.
func NewInMemoryCache() *InMemoryCache {
	return &InMemoryCache{observations: make(map[uuid.UUID]domain.Observation)}
}

func (c *InMemoryCache) Lookup(_ context.Context, loc domain.Location, now time.Time) (*domain.Observation, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var best *domain.Observation
	for _, obs := range c.observations {
		if !obs.Location.SameAs(loc) || obs.IsExpired(now) {
			continue
		}
		if best == nil || obs.ObservedAt.After(best.ObservedAt) {
			o := obs
			best = &o
		}
	}
	return best, nil
}

func (c *InMemoryCache) Store(_ context.Context, obs *domain.Observation) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observations[obs.ID] = *obs
	return nil
}

func (c *InMemoryCache) FindByID(_ context.Context, id uuid.UUID) (*domain.Observation, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	obs, ok := c.observations[id]
	if !ok {
		return nil, domain.ErrObservationNotFound
	}
	return &obs, nil
}

func (c *InMemoryCache) Sweep(_ context.Context, now time.Time) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var removed int64
	for id, obs := range c.observations {
		if obs.IsExpired(now) {
			delete(c.observations, id)
			removed++
		}
	}
	return removed, nil
}

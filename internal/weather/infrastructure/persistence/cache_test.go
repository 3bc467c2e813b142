package persistence_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sharedDomain "github.com/felixgeelhaar/flightwatch/internal/shared/domain"
	"github.com/felixgeelhaar/flightwatch/internal/shared/infrastructure/database/dbtest"
	"github.com/felixgeelhaar/flightwatch/internal/weather/domain"
	"github.com/felixgeelhaar/flightwatch/internal/weather/infrastructure/persistence"
)

var (
	base = time.Date(2026, 6, 1, 14, 0, 0, 0, time.UTC)
	kpao = domain.Location{Name: "KPAO", Latitude: 37.4611, Longitude: -122.1150}
)

func observation(loc domain.Location, fetchedAt time.Time, ttl time.Duration, mutate func(*domain.ObservationInput)) *domain.Observation {
	ceiling := 4500.0
	in := domain.ObservationInput{
		Location:     loc,
		ObservedAt:   fetchedAt,
		VisibilityMi: 10,
		CeilingFt:    &ceiling,
		WindSpeedKt:  8,
		TemperatureC: 17,
		Conditions:   "Broken clouds",
	}
	if mutate != nil {
		mutate(&in)
	}
	return domain.NewObservation(in, fetchedAt, ttl)
}

func cacheBackends(t *testing.T) map[string]func(t *testing.T) domain.Cache {
	backends := map[string]func(t *testing.T) domain.Cache{
		"sqlite": func(t *testing.T) domain.Cache {
			return persistence.NewSQLiteCache(dbtest.NewSQLite(t))
		},
		"memory": func(t *testing.T) domain.Cache {
			return persistence.NewInMemoryCache()
		},
	}
	if url := os.Getenv("TEST_REDIS_URL"); url != "" {
		backends["redis"] = func(t *testing.T) domain.Cache {
			opts, err := redis.ParseURL(url)
			require.NoError(t, err)
			client := redis.NewClient(opts)
			t.Cleanup(func() { _ = client.Close() })
			// the TTL is computed against the fixed test clock
			return persistence.NewRedisCache(client, sharedDomain.FixedClock{At: base}).
				WithPrefix("flightwatch:test:" + uuid.NewString() + ":")
		}
	}
	return backends
}

func TestCache_Contract(t *testing.T) {
	for name, newCache := range cacheBackends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			t.Run("miss on empty cache", func(t *testing.T) {
				cache := newCache(t)
				obs, err := cache.Lookup(ctx, kpao, base)
				require.NoError(t, err)
				assert.Nil(t, obs)
			})

			t.Run("hit within ttl and miss after", func(t *testing.T) {
				cache := newCache(t)
				stored := observation(kpao, base, 30*time.Minute, nil)
				require.NoError(t, cache.Store(ctx, stored))

				got, err := cache.Lookup(ctx, kpao, base.Add(29*time.Minute))
				require.NoError(t, err)
				require.NotNil(t, got)
				assert.Equal(t, stored.ID, got.ID)
				assert.Equal(t, stored.ExpiresAt, got.ExpiresAt)
				require.NotNil(t, got.CeilingFt)
				assert.Equal(t, 4500.0, *got.CeilingFt)
				assert.Nil(t, got.WindDirectionDeg)

				got, err = cache.Lookup(ctx, kpao, base.Add(31*time.Minute))
				require.NoError(t, err)
				assert.Nil(t, got)
			})

			t.Run("latest observation wins", func(t *testing.T) {
				cache := newCache(t)
				older := observation(kpao, base, time.Hour, nil)
				newer := observation(kpao, base.Add(10*time.Minute), time.Hour, func(in *domain.ObservationInput) {
					in.Thunderstorms = true
				})
				require.NoError(t, cache.Store(ctx, newer))
				require.NoError(t, cache.Store(ctx, older))

				got, err := cache.Lookup(ctx, kpao, base.Add(15*time.Minute))
				require.NoError(t, err)
				require.NotNil(t, got)
				assert.Equal(t, newer.ID, got.ID)
				assert.True(t, got.Thunderstorms)
			})

			t.Run("location matches on rounded coordinates", func(t *testing.T) {
				cache := newCache(t)
				require.NoError(t, cache.Store(ctx, observation(kpao, base, time.Hour, nil)))

				nearby := domain.Location{Latitude: 37.46112, Longitude: -122.11498}
				got, err := cache.Lookup(ctx, nearby, base)
				require.NoError(t, err)
				assert.NotNil(t, got)

				elsewhere := domain.Location{Latitude: 37.5, Longitude: -122.1150}
				got, err = cache.Lookup(ctx, elsewhere, base)
				require.NoError(t, err)
				assert.Nil(t, got)
			})

			t.Run("find by id", func(t *testing.T) {
				cache := newCache(t)
				stored := observation(kpao, base, time.Hour, nil)
				require.NoError(t, cache.Store(ctx, stored))

				got, err := cache.FindByID(ctx, stored.ID)
				require.NoError(t, err)
				assert.Equal(t, stored.Conditions, got.Conditions)

				_, err = cache.FindByID(ctx, uuid.New())
				assert.ErrorIs(t, err, domain.ErrObservationNotFound)
			})

			t.Run("sweep removes expired entries", func(t *testing.T) {
				cache := newCache(t)
				require.NoError(t, cache.Store(ctx, observation(kpao, base, 10*time.Minute, nil)))
				fresh := observation(kpao, base, 2*time.Hour, nil)
				require.NoError(t, cache.Store(ctx, fresh))

				removed, err := cache.Sweep(ctx, base.Add(time.Hour))
				require.NoError(t, err)
				assert.Equal(t, int64(1), removed)

				got, err := cache.Lookup(ctx, kpao, base.Add(time.Hour))
				require.NoError(t, err)
				require.NotNil(t, got)
				assert.Equal(t, fresh.ID, got.ID)
			})
		})
	}
}

func TestRedisCache_StoreRejectsObservationPastRetention(t *testing.T) {
	// the check runs before any command reaches the server
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	t.Cleanup(func() { _ = client.Close() })
	cache := persistence.NewRedisCache(client, sharedDomain.FixedClock{At: base})

	stale := observation(kpao, base.Add(-persistence.DefaultRedisRetention-time.Hour), 30*time.Minute, nil)
	err := cache.Store(context.Background(), stale)
	assert.ErrorIs(t, err, persistence.ErrPastRetention)
}

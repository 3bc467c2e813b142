package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	sharedDomain "github.com/felixgeelhaar/flightwatch/internal/shared/domain"
	"github.com/felixgeelhaar/flightwatch/internal/weather/domain"
)

// DefaultRedisRetention keeps expired observations readable by FindByID so
// that conflicts can still describe the weather they were raised for.
const DefaultRedisRetention = 24 * time.Hour

// ErrPastRetention is returned by RedisCache.Store for an observation that
// expired longer ago than the retention window; Redis cannot hold it.
var ErrPastRetention = errors.New("weather observation is past the cache retention window")

// RedisCache shares observations between processes.
// Keys are namespaced: {prefix}obs:{id} holds the JSON document,
// {prefix}loc:{location_key} indexes ids by observed_at and
// {prefix}expiry indexes "{location_key}|{id}" by expires_at for Sweep.
type RedisCache struct {
	client    *redis.Client
	prefix    string
	retention time.Duration
	clock     sharedDomain.Clock
}

// NewRedisCache creates a cache under the "flightwatch:weather:" namespace.
func NewRedisCache(client *redis.Client, clock sharedDomain.Clock) *RedisCache {
	if clock == nil {
		clock = sharedDomain.SystemClock{}
	}
	return &RedisCache{
		client:    client,
		prefix:    "flightwatch:weather:",
		retention: DefaultRedisRetention,
		clock:     clock,
	}
}

// WithPrefix replaces the key namespace, for tests sharing one server.
func (c *RedisCache) WithPrefix(prefix string) *RedisCache {
	c.prefix = prefix
	return c
}

func (c *RedisCache) obsKey(id string) string  { return c.prefix + "obs:" + id }
func (c *RedisCache) locKey(key string) string { return c.prefix + "loc:" + key }
func (c *RedisCache) expiryKey() string        { return c.prefix + "expiry" }
func expiryMember(locKey, id string) string    { return locKey + "|" + id }

func (c *RedisCache) Lookup(ctx context.Context, loc domain.Location, now time.Time) (*domain.Observation, error) {
	ids, err := c.client.ZRevRange(ctx, c.locKey(loc.Key()), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("lookup weather for %s: %w", loc.Key(), err)
	}

	for _, id := range ids {
		obs, err := c.get(ctx, id)
		if errors.Is(err, domain.ErrObservationNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("lookup weather for %s: %w", loc.Key(), err)
		}
		if !obs.IsExpired(now) {
			return obs, nil
		}
	}
	return nil, nil
}

// Store inserts obs. The document lives until its expiry plus the retention
// window; an observation already beyond that fails with ErrPastRetention.
func (c *RedisCache) Store(ctx context.Context, obs *domain.Observation) error {
	ttl := obs.ExpiresAt.Sub(c.clock.Now()) + c.retention
	if ttl <= 0 {
		return fmt.Errorf("store weather observation %s: %w", obs.ID, ErrPastRetention)
	}

	data, err := json.Marshal(obs)
	if err != nil {
		return fmt.Errorf("encode weather observation: %w", err)
	}

	id := obs.ID.String()
	locKey := obs.Location.Key()
	_, err = c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, c.obsKey(id), data, ttl)
		pipe.ZAdd(ctx, c.locKey(locKey), redis.Z{Score: float64(obs.ObservedAt.UnixMilli()), Member: id})
		pipe.ZAdd(ctx, c.expiryKey(), redis.Z{Score: float64(obs.ExpiresAt.UnixMilli()), Member: expiryMember(locKey, id)})
		return nil
	})
	if err != nil {
		return fmt.Errorf("store weather observation: %w", err)
	}
	return nil
}

func (c *RedisCache) FindByID(ctx context.Context, id uuid.UUID) (*domain.Observation, error) {
	return c.get(ctx, id.String())
}

// Sweep drops index entries of expired observations. The documents
// themselves age out through their Redis TTL.
func (c *RedisCache) Sweep(ctx context.Context, now time.Time) (int64, error) {
	members, err := c.client.ZRangeByScore(ctx, c.expiryKey(), &redis.ZRangeBy{
		Min: "-inf",
		Max: strconv.FormatInt(now.UnixMilli(), 10),
	}).Result()
	if err != nil {
		return 0, fmt.Errorf("sweep weather observations: %w", err)
	}
	if len(members) == 0 {
		return 0, nil
	}

	_, err = c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, m := range members {
			locKey, id, ok := splitExpiryMember(m)
			if !ok {
				continue
			}
			pipe.ZRem(ctx, c.locKey(locKey), id)
		}
		args := make([]any, len(members))
		for i, m := range members {
			args[i] = m
		}
		pipe.ZRem(ctx, c.expiryKey(), args...)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("sweep weather observations: %w", err)
	}
	return int64(len(members)), nil
}

// Ping reports whether the Redis server is reachable.
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisCache) get(ctx context.Context, id string) (*domain.Observation, error) {
	data, err := c.client.Get(ctx, c.obsKey(id)).Bytes()
	if err == redis.Nil {
		return nil, domain.ErrObservationNotFound
	}
	if err != nil {
		return nil, err
	}

	var obs domain.Observation
	if err := json.Unmarshal(data, &obs); err != nil {
		return nil, fmt.Errorf("decode weather observation %s: %w", id, err)
	}
	return &obs, nil
}

func splitExpiryMember(m string) (string, string, bool) {
	i := strings.LastIndex(m, "|")
	if i < 0 {
		return "", "", false
	}
	return m[:i], m[i+1:], true
}

// Package services orchestrates the weather cache and the upstream fetcher.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	sharedDomain "github.com/felixgeelhaar/flightwatch/internal/shared/domain"
	"github.com/felixgeelhaar/flightwatch/internal/shared/infrastructure/resilience"
	"github.com/felixgeelhaar/flightwatch/internal/weather/domain"
	"github.com/felixgeelhaar/flightwatch/pkg/observability"
)

// ObservationService serves cached observations and refreshes them from the
// fetcher on a miss.
type ObservationService struct {
	cache   domain.Cache
	fetcher domain.Fetcher
	breaker *resilience.Breaker[*domain.Observation]
	timeout time.Duration
	clock   sharedDomain.Clock
	metrics observability.Metrics
	logger  *slog.Logger
}

// NewObservationService creates the service. A nil fetcher makes every miss
// final, which is how the CLI behaves without an OpenWeatherMap key.
func NewObservationService(
	cache domain.Cache,
	fetcher domain.Fetcher,
	fetchTimeout time.Duration,
	clock sharedDomain.Clock,
	metrics observability.Metrics,
	logger *slog.Logger,
) *ObservationService {
	if clock == nil {
		clock = sharedDomain.SystemClock{}
	}
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	if fetchTimeout <= 0 {
		fetchTimeout = 10 * time.Second
	}
	return &ObservationService{
		cache:   cache,
		fetcher: fetcher,
		breaker: resilience.NewBreaker[*domain.Observation]("openweather", resilience.DefaultBreakerConfig(), logger, metrics),
		timeout: fetchTimeout,
		clock:   clock,
		metrics: metrics,
		logger:  logger,
	}
}

// Current returns the cached observation for loc or fetches and stores a new
// one. It returns nil, nil when nothing is cached and no fetcher is set.
func (s *ObservationService) Current(ctx context.Context, loc domain.Location) (*domain.Observation, error) {
	obs, err := s.cache.Lookup(ctx, loc, s.clock.Now())
	if err != nil {
		return nil, err
	}
	if obs != nil {
		s.metrics.Counter(observability.MetricWeatherCacheLookups, 1, observability.T("result", "hit"))
		return obs, nil
	}
	s.metrics.Counter(observability.MetricWeatherCacheLookups, 1, observability.T("result", "miss"))

	if s.fetcher == nil {
		return nil, nil
	}

	obs, err = s.fetch(ctx, loc)
	if err != nil {
		s.metrics.Counter(observability.MetricWeatherFetches, 1, observability.T("result", "error"))
		return nil, err
	}
	s.metrics.Counter(observability.MetricWeatherFetches, 1, observability.T("result", "ok"))

	if err := s.cache.Store(ctx, obs); err != nil {
		return nil, err
	}
	return obs, nil
}

// Sweep deletes expired observations.
func (s *ObservationService) Sweep(ctx context.Context) (int64, error) {
	removed, err := s.cache.Sweep(ctx, s.clock.Now())
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		s.logger.InfoContext(ctx, "swept expired weather observations", "count", removed)
	}
	return removed, nil
}

func (s *ObservationService) fetch(ctx context.Context, loc domain.Location) (*domain.Observation, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	obs, err := s.breaker.Execute(func() (*domain.Observation, error) {
		return s.fetcher.FetchObservation(fetchCtx, loc)
	})
	switch {
	case err == nil:
		return obs, nil
	case errors.Is(err, domain.ErrFetchFailed):
		return nil, err
	default:
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrFetchFailed, loc, err)
	}
}

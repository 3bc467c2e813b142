package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/felixgeelhaar/flightwatch/internal/scheduling/domain"
	"github.com/felixgeelhaar/flightwatch/internal/shared/infrastructure/resilience"
	"github.com/felixgeelhaar/flightwatch/pkg/observability"
)

type chainLink struct {
	provider SuggestionProvider
	breaker  *resilience.Breaker[*Suggestion]
}

// ProviderChain tries each provider in order and ends with the rule-based
// fallback, so Suggest always produces options.
type ProviderChain struct {
	links    []chainLink
	fallback FallbackProvider
	timeout  time.Duration
	metrics  observability.Metrics
	logger   *slog.Logger
}

// NewProviderChain creates a chain. Each provider gets its own breaker and
// every call runs under timeout.
func NewProviderChain(providers []SuggestionProvider, timeout time.Duration, metrics observability.Metrics, logger *slog.Logger) *ProviderChain {
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	links := make([]chainLink, 0, len(providers))
	for _, p := range providers {
		if p == nil {
			continue
		}
		links = append(links, chainLink{
			provider: p,
			breaker:  resilience.NewBreaker[*Suggestion](p.Name(), resilience.DefaultBreakerConfig(), logger, metrics),
		})
	}

	return &ProviderChain{
		links:   links,
		timeout: timeout,
		metrics: metrics,
		logger:  logger,
	}
}

// Providers lists the names of the external providers in call order.
func (c *ProviderChain) Providers() []string {
	names := make([]string, 0, len(c.links))
	for _, l := range c.links {
		names = append(names, l.provider.Name())
	}
	return names
}

// Suggest returns the first valid suggestion.
func (c *ProviderChain) Suggest(ctx context.Context, rc RescheduleContext) *Suggestion {
	for _, link := range c.links {
		name := link.provider.Name()
		if cfg, ok := link.provider.(configurable); ok && !cfg.Configured() {
			c.metrics.Counter(observability.MetricProviderCalls, 1,
				observability.T("provider", name), observability.T("result", "skipped"))
			continue
		}

		s, err := c.call(ctx, link, rc)
		if err != nil {
			c.logger.WarnContext(ctx, "reschedule provider failed, trying next",
				"provider", name, "booking_id", rc.BookingID, "error", err)
			c.metrics.Counter(observability.MetricProviderCalls, 1,
				observability.T("provider", name), observability.T("result", resultOf(err)))
			continue
		}

		c.metrics.Counter(observability.MetricProviderCalls, 1,
			observability.T("provider", name), observability.T("result", "ok"))
		return s
	}

	c.metrics.Counter(observability.MetricProviderCalls, 1,
		observability.T("provider", domain.ProviderRuleBased), observability.T("result", "ok"))
	return c.fallback.suggest(rc)
}

func (c *ProviderChain) call(ctx context.Context, link chainLink, rc RescheduleContext) (*Suggestion, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	s, err := link.breaker.Execute(func() (*Suggestion, error) {
		return link.provider.Suggest(callCtx, rc)
	})
	if err != nil {
		return nil, err
	}
	if s == nil || len(s.Options) == 0 {
		return nil, fmt.Errorf("%w: empty suggestion", domain.ErrMalformedSuggestion)
	}
	if s.Provider == "" {
		s.Provider = link.provider.Name()
	}
	return s, nil
}

func resultOf(err error) string {
	switch {
	case errors.Is(err, resilience.ErrCircuitOpen):
		return "circuit_open"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, domain.ErrMalformedSuggestion):
		return "malformed"
	default:
		return "error"
	}
}

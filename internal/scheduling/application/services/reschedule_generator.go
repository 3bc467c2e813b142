package services

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/flightwatch/internal/scheduling/domain"
	weather "github.com/felixgeelhaar/flightwatch/internal/weather/domain"
)

// RescheduleGenerator assembles the context for a conflicted booking and
// asks the provider chain for options.
type RescheduleGenerator struct {
	chain        *ProviderChain
	observations weather.Cache
	logger       *slog.Logger
}

// NewRescheduleGenerator creates a generator. observations may be nil, in
// which case the prompt carries no weather summary.
func NewRescheduleGenerator(chain *ProviderChain, observations weather.Cache, logger *slog.Logger) *RescheduleGenerator {
	if logger == nil {
		logger = slog.Default()
	}
	return &RescheduleGenerator{chain: chain, observations: observations, logger: logger}
}

// BuildContext collects what the providers need. level is the student's
// current training level; empty falls back to the level at detection.
func (g *RescheduleGenerator) BuildContext(ctx context.Context, b *domain.Booking, c *domain.Conflict, level weather.TrainingLevel) RescheduleContext {
	if level == "" {
		level = c.TrainingLevel()
	}
	rc := RescheduleContext{
		BookingID:     b.ID,
		TrainingLevel: level,
		OriginalDate:  b.ScheduledAt,
		Departure:     b.Departure,
		Destination:   b.Destination,
		Violations:    c.Violations(),
		Severity:      c.Severity(),
	}

	if g.observations != nil && c.ObservationID() != uuid.Nil {
		obs, err := g.observations.FindByID(ctx, c.ObservationID())
		if err != nil {
			g.logger.DebugContext(ctx, "conflict observation unavailable", "observation_id", c.ObservationID(), "error", err)
		} else {
			rc.WeatherSummary = obs.Summary()
		}
	}
	return rc
}

// Generate returns options for rc. It always succeeds.
func (g *RescheduleGenerator) Generate(ctx context.Context, rc RescheduleContext) *Suggestion {
	return g.chain.Suggest(ctx, rc)
}

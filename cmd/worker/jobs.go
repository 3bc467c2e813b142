package main

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/felixgeelhaar/flightwatch/internal/app"
	"github.com/felixgeelhaar/flightwatch/internal/scheduling/application/commands"
	"github.com/felixgeelhaar/flightwatch/pkg/observability"
)

const workerActor = "worker"

// job runs fn every interval until ctx is done. A failed run is logged and
// the next tick runs it again.
type job struct {
	name     string
	interval time.Duration
	run      func(ctx context.Context) error
}

// runJobs starts each job with a positive interval, running it once
// immediately, and blocks until ctx is done and every job has returned.
func runJobs(ctx context.Context, logger *slog.Logger, metrics observability.Metrics, jobs []job) {
	var wg sync.WaitGroup
	for _, j := range jobs {
		if j.interval <= 0 {
			logger.Info("job disabled", "job", j.name)
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			ticker := time.NewTicker(j.interval)
			defer ticker.Stop()
			for {
				runOnce(ctx, logger, metrics, j)
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
				}
			}
		}()
	}
	wg.Wait()
}

func runOnce(ctx context.Context, logger *slog.Logger, metrics observability.Metrics, j job) {
	if ctx.Err() != nil {
		return
	}
	ctx = observability.WithCorrelationID(ctx, "")
	_ = observability.TimeOperation(ctx, logger, metrics, "worker."+j.name, j.run)
}

// workerJobs lists the periodic work of the worker process.
func workerJobs(c *app.Container, logger *slog.Logger) []job {
	cfg := c.Config
	return []job{
		{
			name:     "check_bookings",
			interval: cfg.CheckInterval,
			run: func(ctx context.Context) error {
				start := c.Clock.Now().UTC()
				res, err := c.CheckAllActiveHandler.Handle(ctx, commands.CheckAllActiveCommand{
					Start: start,
					End:   start.Add(cfg.CheckWindow),
					Actor: workerActor,
				})
				if err != nil {
					return err
				}
				logger.InfoContext(ctx, "booking check completed",
					"total", res.Total,
					"conflicts", res.Conflicts,
					"created", res.Created,
					"resolved", res.Resolved,
					"errors", res.Errors,
					"generated", res.Generated,
					"generation_errors", res.GenerationErrors,
				)
				return nil
			},
		},
		{
			name:     "weather_sweep",
			interval: cfg.SweepInterval,
			run: func(ctx context.Context) error {
				removed, err := c.WeatherService.Sweep(ctx)
				if err != nil {
					return err
				}
				if removed > 0 {
					logger.InfoContext(ctx, "expired observations removed", "count", removed)
				}
				return nil
			},
		},
		{
			name:     "expire_option_sets",
			interval: cfg.SweepInterval,
			run: func(ctx context.Context) error {
				expired, err := c.ExpireOptionSetsHandler.Handle(ctx)
				if err != nil {
					return err
				}
				if expired > 0 {
					logger.InfoContext(ctx, "stale option sets expired", "count", expired)
				}
				return nil
			},
		},
		{
			name:     "outbox_cleanup",
			interval: cfg.OutboxCleanupInterval,
			run: func(ctx context.Context) error {
				deleted, err := c.OutboxProcessor.Prune(ctx)
				if err != nil {
					return err
				}
				if deleted > 0 {
					logger.InfoContext(ctx, "outbox cleanup completed", "deleted", deleted, "retention_days", cfg.OutboxRetentionDays)
				}
				return nil
			},
		},
	}
}

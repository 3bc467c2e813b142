package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/felixgeelhaar/flightwatch/internal/scheduling/domain"
	weather "github.com/felixgeelhaar/flightwatch/internal/weather/domain"
	"github.com/felixgeelhaar/flightwatch/pkg/observability"
)

// DefaultCheckConcurrency bounds the per-booking pipelines of a batch.
const DefaultCheckConcurrency = 4

// ObservationSource returns current weather, fetching it on a cache miss.
type ObservationSource interface {
	Current(ctx context.Context, loc weather.Location) (*weather.Observation, error)
}

// CheckAllActiveCommand checks every active booking scheduled in [Start, End].
type CheckAllActiveCommand struct {
	Start time.Time
	End   time.Time
	Actor string
}

// CheckAllActiveResult counts outcomes. Conflicts counts bookings that are
// in conflict after the check, Created the subset that is new. Errors counts
// bookings whose check failed; a conflict whose option generation failed is
// counted in GenerationErrors instead.
type CheckAllActiveResult struct {
	Total            int
	Conflicts        int
	Created          int
	Resolved         int
	Clear            int
	Errors           int
	NoData           int
	Skipped          int
	Generated        int
	GenerationErrors int
}

// CheckAllActiveOptions tunes the batch.
type CheckAllActiveOptions struct {
	Concurrency int
	// AutoGenerate requests reschedule options for every newly created conflict.
	AutoGenerate bool
}

// CheckAllActiveHandler runs the batch.
type CheckAllActiveHandler struct {
	bookings     domain.BookingRepository
	observations ObservationSource
	check        *CheckBookingHandler
	generate     *GenerateRescheduleOptionsHandler
	opts         CheckAllActiveOptions
	metrics      observability.Metrics
	logger       *slog.Logger
}

// NewCheckAllActiveHandler creates a new CheckAllActiveHandler. generate may
// be nil, which disables auto-generation.
func NewCheckAllActiveHandler(
	bookings domain.BookingRepository,
	observations ObservationSource,
	check *CheckBookingHandler,
	generate *GenerateRescheduleOptionsHandler,
	opts CheckAllActiveOptions,
	metrics observability.Metrics,
	logger *slog.Logger,
) *CheckAllActiveHandler {
	if opts.Concurrency < 1 {
		opts.Concurrency = DefaultCheckConcurrency
	}
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CheckAllActiveHandler{
		bookings:     bookings,
		observations: observations,
		check:        check,
		generate:     generate,
		opts:         opts,
		metrics:      metrics,
		logger:       logger,
	}
}

// Handle checks the bookings concurrently. A failing booking is counted in
// Errors and never stops the batch.
func (h *CheckAllActiveHandler) Handle(ctx context.Context, cmd CheckAllActiveCommand) (*CheckAllActiveResult, error) {
	start := time.Now()

	bookings, err := h.bookings.ListActive(ctx, cmd.Start, cmd.End)
	if err != nil {
		return nil, fmt.Errorf("list active bookings: %w", err)
	}

	var (
		mu     sync.Mutex
		wg     sync.WaitGroup
		result = &CheckAllActiveResult{Total: len(bookings)}
		sem    = make(chan struct{}, h.opts.Concurrency)
	)

	for _, b := range bookings {
		select {
		case <-ctx.Done():
			wg.Wait()
			return result, ctx.Err()
		case sem <- struct{}{}:
		}

		wg.Add(1)
		go func(b *domain.Booking) {
			defer wg.Done()
			defer func() { <-sem }()

			outcome := h.pipeline(ctx, b, cmd.Actor)

			mu.Lock()
			outcome.addTo(result)
			mu.Unlock()
		}(b)
	}
	wg.Wait()

	h.metrics.Timing(observability.MetricBatchDuration, time.Since(start))
	h.logger.InfoContext(ctx, "batch check complete",
		"total", result.Total,
		"conflicts", result.Conflicts,
		"created", result.Created,
		"resolved", result.Resolved,
		"no_data", result.NoData,
		"errors", result.Errors,
		"generated", result.Generated,
		"generation_errors", result.GenerationErrors,
	)
	return result, nil
}

// CheckOne refreshes the weather at one booking's departure and checks it.
// A missing booking or an unavailable observation yields CheckStatusNoData;
// only storage failures are returned as errors.
func (h *CheckAllActiveHandler) CheckOne(ctx context.Context, cmd CheckBookingCommand) (*CheckBookingResult, error) {
	b, err := h.bookings.FindByID(ctx, cmd.BookingID)
	if errors.Is(err, domain.ErrBookingNotFound) {
		return &CheckBookingResult{BookingID: cmd.BookingID, Status: CheckStatusNoData}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("check booking %s: %w", cmd.BookingID, err)
	}
	if _, err := h.observations.Current(ctx, b.Departure); err != nil {
		h.logger.WarnContext(ctx, "weather unavailable, checking against the cache",
			"booking_id", b.ID, "location", b.Departure.String(), "error", err)
	}
	return h.check.Handle(ctx, cmd)
}

type bookingOutcome struct {
	check            *CheckBookingResult
	failed           bool
	generated        bool
	generationFailed bool
}

func (o bookingOutcome) addTo(r *CheckAllActiveResult) {
	if o.failed {
		r.Errors++
	}
	if o.generated {
		r.Generated++
	}
	if o.generationFailed {
		r.GenerationErrors++
	}
	if o.check == nil {
		return
	}
	switch o.check.Status {
	case CheckStatusConflict:
		r.Conflicts++
		if o.check.Created {
			r.Created++
		}
	case CheckStatusClear:
		r.Clear++
		if o.check.Resolved {
			r.Resolved++
		}
	case CheckStatusNoData:
		r.NoData++
	case CheckStatusSkipped:
		r.Skipped++
	}
}

// pipeline is weather lookup or fetch, then the check, then optional
// generation.
func (h *CheckAllActiveHandler) pipeline(ctx context.Context, b *domain.Booking, actor string) bookingOutcome {
	if _, err := h.observations.Current(ctx, b.Departure); err != nil {
		h.logger.WarnContext(ctx, "weather unavailable, booking skipped this pass",
			"booking_id", b.ID, "location", b.Departure.String(), "error", err)
		return bookingOutcome{failed: true}
	}

	res, err := h.check.Handle(ctx, CheckBookingCommand{BookingID: b.ID, Actor: actor})
	if err != nil {
		h.logger.ErrorContext(ctx, "booking check failed", "booking_id", b.ID, "error", err)
		return bookingOutcome{failed: true}
	}
	outcome := bookingOutcome{check: res}

	if res.Created && h.opts.AutoGenerate && h.generate != nil {
		_, err := h.generate.Handle(ctx, GenerateRescheduleOptionsCommand{
			BookingID:  b.ID,
			ConflictID: res.ConflictID,
			Actor:      actor,
		})
		if err != nil {
			h.logger.ErrorContext(ctx, "auto-generation failed", "booking_id", b.ID, "error", err)
			outcome.generationFailed = true
		} else {
			outcome.generated = true
		}
	}
	return outcome
}

package commands

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/flightwatch/internal/scheduling/domain"
	sharedApplication "github.com/felixgeelhaar/flightwatch/internal/shared/application"
	sharedDomain "github.com/felixgeelhaar/flightwatch/internal/shared/domain"
	"github.com/felixgeelhaar/flightwatch/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/flightwatch/pkg/observability"
)

// AcceptOptionCommand picks one option of a pending set.
type AcceptOptionCommand struct {
	OptionSetID uuid.UUID
	Index       int
	Actor       string
}

// AcceptOptionResult carries the booking's new date.
type AcceptOptionResult struct {
	OptionSetID uuid.UUID
	BookingID   uuid.UUID
	ConflictID  uuid.UUID
	OldDate     time.Time
	NewDate     time.Time
}

// AcceptOptionHandler handles AcceptOptionCommand.
type AcceptOptionHandler struct {
	optionSets domain.OptionSetRepository
	bookings   domain.BookingRepository
	conflicts  domain.ConflictRepository
	outboxRepo outbox.Repository
	uow        sharedApplication.UnitOfWork
	clock      sharedDomain.Clock
	metrics    observability.Metrics
	logger     *slog.Logger
}

// NewAcceptOptionHandler creates a new AcceptOptionHandler.
func NewAcceptOptionHandler(
	optionSets domain.OptionSetRepository,
	bookings domain.BookingRepository,
	conflicts domain.ConflictRepository,
	outboxRepo outbox.Repository,
	uow sharedApplication.UnitOfWork,
	clock sharedDomain.Clock,
	metrics observability.Metrics,
	logger *slog.Logger,
) *AcceptOptionHandler {
	if clock == nil {
		clock = sharedDomain.SystemClock{}
	}
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &AcceptOptionHandler{
		optionSets: optionSets,
		bookings:   bookings,
		conflicts:  conflicts,
		outboxRepo: outboxRepo,
		uow:        uow,
		clock:      clock,
		metrics:    metrics,
		logger:     logger,
	}
}

// Handle accepts the option, moves the booking and resolves the conflict in
// one transaction.
func (h *AcceptOptionHandler) Handle(ctx context.Context, cmd AcceptOptionCommand) (*AcceptOptionResult, error) {
	var result *AcceptOptionResult

	err := sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		now := h.clock.Now()

		set, err := h.optionSets.FindByID(txCtx, cmd.OptionSetID)
		if err != nil {
			return err
		}
		b, err := h.bookings.FindByID(txCtx, set.BookingID())
		if err != nil {
			return err
		}

		oldDate := b.ScheduledAt
		option, err := set.Accept(cmd.Index, b, now)
		if err != nil {
			return err
		}
		b.Reschedule(option.DateTime, now)

		if err := h.optionSets.Save(txCtx, set); err != nil {
			return err
		}
		if err := h.bookings.UpdateSchedule(txCtx, b.ID, b.ScheduledAt, b.Status, now); err != nil {
			return err
		}

		sources := []eventSource{set}
		c, err := h.conflicts.FindByID(txCtx, set.ConflictID())
		if err != nil {
			return err
		}
		if c.Resolve(b, domain.ResolutionRescheduled, false, now) {
			if err := h.conflicts.Save(txCtx, c); err != nil {
				return err
			}
			sources = append(sources, c)
		}
		if err := enqueue(txCtx, h.outboxRepo, actorOr(cmd.Actor), sources...); err != nil {
			return err
		}

		result = &AcceptOptionResult{
			OptionSetID: set.ID(),
			BookingID:   b.ID,
			ConflictID:  c.ID(),
			OldDate:     oldDate,
			NewDate:     b.ScheduledAt,
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("accept option %d of set %s: %w", cmd.Index, cmd.OptionSetID, err)
	}

	h.metrics.Counter(observability.MetricConflictsResolved, 1, observability.T("reason", "rescheduled"))
	h.logger.InfoContext(ctx, "booking rescheduled",
		"booking_id", result.BookingID, "option_set_id", result.OptionSetID,
		"old_date", result.OldDate, "new_date", result.NewDate)
	return result, nil
}

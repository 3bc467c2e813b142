package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/flightwatch/internal/scheduling/domain"
	sharedApplication "github.com/felixgeelhaar/flightwatch/internal/shared/application"
	sharedDomain "github.com/felixgeelhaar/flightwatch/internal/shared/domain"
	"github.com/felixgeelhaar/flightwatch/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/flightwatch/pkg/observability"
)

const defaultResolutionNote = "resolved manually"

// ResolveConflictCommand force-resolves a conflict regardless of weather.
type ResolveConflictCommand struct {
	ConflictID uuid.UUID
	Reason     string
	Actor      string
}

// ResolveConflictResult reports the conflict's final state.
type ResolveConflictResult struct {
	ConflictID      uuid.UUID
	BookingID       uuid.UUID
	ResolvedAt      time.Time
	Note            string
	AlreadyResolved bool
}

// ResolveConflictHandler handles ResolveConflictCommand. The booking is not
// modified.
type ResolveConflictHandler struct {
	conflicts  domain.ConflictRepository
	bookings   domain.BookingRepository
	outboxRepo outbox.Repository
	uow        sharedApplication.UnitOfWork
	clock      sharedDomain.Clock
	metrics    observability.Metrics
	logger     *slog.Logger
}

// NewResolveConflictHandler creates a new ResolveConflictHandler.
func NewResolveConflictHandler(
	conflicts domain.ConflictRepository,
	bookings domain.BookingRepository,
	outboxRepo outbox.Repository,
	uow sharedApplication.UnitOfWork,
	clock sharedDomain.Clock,
	metrics observability.Metrics,
	logger *slog.Logger,
) *ResolveConflictHandler {
	if clock == nil {
		clock = sharedDomain.SystemClock{}
	}
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ResolveConflictHandler{
		conflicts:  conflicts,
		bookings:   bookings,
		outboxRepo: outboxRepo,
		uow:        uow,
		clock:      clock,
		metrics:    metrics,
		logger:     logger,
	}
}

// Handle resolves the conflict. Resolving an already resolved conflict
// succeeds without writing anything.
func (h *ResolveConflictHandler) Handle(ctx context.Context, cmd ResolveConflictCommand) (*ResolveConflictResult, error) {
	var result *ResolveConflictResult

	err := sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		c, err := h.conflicts.FindByID(txCtx, cmd.ConflictID)
		if err != nil {
			return err
		}

		result = &ResolveConflictResult{ConflictID: c.ID(), BookingID: c.BookingID()}
		if c.IsResolved() {
			result.AlreadyResolved = true
			result.Note = c.ResolutionNote()
			if at := c.ResolvedAt(); at != nil {
				result.ResolvedAt = *at
			}
			return nil
		}

		b, err := h.bookings.FindByID(txCtx, c.BookingID())
		if err != nil && !errors.Is(err, domain.ErrBookingNotFound) {
			return err
		}

		note := strings.TrimSpace(cmd.Reason)
		if note == "" {
			note = defaultResolutionNote
		}
		now := h.clock.Now()
		c.Resolve(b, note, false, now)
		if err := h.conflicts.Save(txCtx, c); err != nil {
			return err
		}
		if err := enqueue(txCtx, h.outboxRepo, actorOr(cmd.Actor), c); err != nil {
			return err
		}

		result.ResolvedAt = now
		result.Note = note
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("resolve conflict %s: %w", cmd.ConflictID, err)
	}

	if !result.AlreadyResolved {
		h.metrics.Counter(observability.MetricConflictsResolved, 1, observability.T("reason", "manual"))
		h.logger.InfoContext(ctx, "conflict resolved manually", "conflict_id", result.ConflictID, "note", result.Note)
	}
	return result, nil
}

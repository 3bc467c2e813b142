package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/flightwatch/internal/scheduling/domain"
	sharedApplication "github.com/felixgeelhaar/flightwatch/internal/shared/application"
	sharedDomain "github.com/felixgeelhaar/flightwatch/internal/shared/domain"
	"github.com/felixgeelhaar/flightwatch/internal/shared/infrastructure/outbox"
)

// RejectOptionsCommand declines every option of a pending set.
type RejectOptionsCommand struct {
	OptionSetID uuid.UUID
	Reason      string
	Actor       string
}

// RejectOptionsHandler handles RejectOptionsCommand. The booking is not
// modified.
type RejectOptionsHandler struct {
	optionSets domain.OptionSetRepository
	bookings   domain.BookingRepository
	outboxRepo outbox.Repository
	uow        sharedApplication.UnitOfWork
	clock      sharedDomain.Clock
	logger     *slog.Logger
}

// NewRejectOptionsHandler creates a new RejectOptionsHandler.
func NewRejectOptionsHandler(
	optionSets domain.OptionSetRepository,
	bookings domain.BookingRepository,
	outboxRepo outbox.Repository,
	uow sharedApplication.UnitOfWork,
	clock sharedDomain.Clock,
	logger *slog.Logger,
) *RejectOptionsHandler {
	if clock == nil {
		clock = sharedDomain.SystemClock{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &RejectOptionsHandler{
		optionSets: optionSets,
		bookings:   bookings,
		outboxRepo: outboxRepo,
		uow:        uow,
		clock:      clock,
		logger:     logger,
	}
}

// Handle rejects the set.
func (h *RejectOptionsHandler) Handle(ctx context.Context, cmd RejectOptionsCommand) error {
	err := sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		set, err := h.optionSets.FindByID(txCtx, cmd.OptionSetID)
		if err != nil {
			return err
		}
		b, err := h.bookings.FindByID(txCtx, set.BookingID())
		if err != nil && !errors.Is(err, domain.ErrBookingNotFound) {
			return err
		}

		if err := set.Reject(cmd.Reason, b, h.clock.Now()); err != nil {
			return err
		}
		if err := h.optionSets.Save(txCtx, set); err != nil {
			return err
		}
		return enqueue(txCtx, h.outboxRepo, actorOr(cmd.Actor), set)
	})
	if err != nil {
		return fmt.Errorf("reject option set %s: %w", cmd.OptionSetID, err)
	}

	h.logger.InfoContext(ctx, "reschedule options rejected", "option_set_id", cmd.OptionSetID, "reason", cmd.Reason)
	return nil
}

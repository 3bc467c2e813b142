package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/felixgeelhaar/flightwatch/internal/scheduling/domain"
	sharedApplication "github.com/felixgeelhaar/flightwatch/internal/shared/application"
	sharedDomain "github.com/felixgeelhaar/flightwatch/internal/shared/domain"
)

// ExpireOptionSetsHandler retires pending sets whose booking date has passed.
type ExpireOptionSetsHandler struct {
	optionSets domain.OptionSetRepository
	uow        sharedApplication.UnitOfWork
	clock      sharedDomain.Clock
	logger     *slog.Logger
}

// NewExpireOptionSetsHandler creates a new ExpireOptionSetsHandler.
func NewExpireOptionSetsHandler(
	optionSets domain.OptionSetRepository,
	uow sharedApplication.UnitOfWork,
	clock sharedDomain.Clock,
	logger *slog.Logger,
) *ExpireOptionSetsHandler {
	if clock == nil {
		clock = sharedDomain.SystemClock{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ExpireOptionSetsHandler{optionSets: optionSets, uow: uow, clock: clock, logger: logger}
}

// Handle expires every stale set and reports how many changed.
func (h *ExpireOptionSetsHandler) Handle(ctx context.Context) (int, error) {
	expired := 0
	err := sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		now := h.clock.Now()
		stale, err := h.optionSets.ListStalePending(txCtx, now)
		if err != nil {
			return err
		}
		for _, set := range stale {
			if err := set.Expire(now); err != nil {
				return err
			}
			if err := h.optionSets.Save(txCtx, set); err != nil {
				return err
			}
			expired++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("expire option sets: %w", err)
	}

	if expired > 0 {
		h.logger.InfoContext(ctx, "expired stale option sets", "count", expired)
	}
	return expired, nil
}

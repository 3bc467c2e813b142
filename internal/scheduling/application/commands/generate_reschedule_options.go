package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/felixgeelhaar/flightwatch/internal/scheduling/application/services"
	"github.com/felixgeelhaar/flightwatch/internal/scheduling/domain"
	sharedApplication "github.com/felixgeelhaar/flightwatch/internal/shared/application"
	sharedDomain "github.com/felixgeelhaar/flightwatch/internal/shared/domain"
	"github.com/felixgeelhaar/flightwatch/internal/shared/infrastructure/outbox"
	weather "github.com/felixgeelhaar/flightwatch/internal/weather/domain"
)

// GenerateRescheduleOptionsCommand asks for alternatives to a conflicted booking.
type GenerateRescheduleOptionsCommand struct {
	BookingID  uuid.UUID
	ConflictID uuid.UUID
	Actor      string
}

// GenerateRescheduleOptionsResult is the stored pending option set.
type GenerateRescheduleOptionsResult struct {
	OptionSetID uuid.UUID
	Options     []domain.RescheduleOption
	Reasoning   string
	Provider    string
	// Created is false when an existing pending set was overwritten.
	Created bool
}

// GenerateRescheduleOptionsHandler handles GenerateRescheduleOptionsCommand.
type GenerateRescheduleOptionsHandler struct {
	bookings   domain.BookingRepository
	students   domain.StudentRepository
	conflicts  domain.ConflictRepository
	optionSets domain.OptionSetRepository
	generator  *services.RescheduleGenerator
	outboxRepo outbox.Repository
	uow        sharedApplication.UnitOfWork
	clock      sharedDomain.Clock
	logger     *slog.Logger
}

// NewGenerateRescheduleOptionsHandler creates a new GenerateRescheduleOptionsHandler.
func NewGenerateRescheduleOptionsHandler(
	bookings domain.BookingRepository,
	students domain.StudentRepository,
	conflicts domain.ConflictRepository,
	optionSets domain.OptionSetRepository,
	generator *services.RescheduleGenerator,
	outboxRepo outbox.Repository,
	uow sharedApplication.UnitOfWork,
	clock sharedDomain.Clock,
	logger *slog.Logger,
) *GenerateRescheduleOptionsHandler {
	if clock == nil {
		clock = sharedDomain.SystemClock{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &GenerateRescheduleOptionsHandler{
		bookings:   bookings,
		students:   students,
		conflicts:  conflicts,
		optionSets: optionSets,
		generator:  generator,
		outboxRepo: outboxRepo,
		uow:        uow,
		clock:      clock,
		logger:     logger,
	}
}

// Handle generates and stores options. Provider calls happen before the
// unit of work opens so no transaction waits on the network.
func (h *GenerateRescheduleOptionsHandler) Handle(ctx context.Context, cmd GenerateRescheduleOptionsCommand) (*GenerateRescheduleOptionsResult, error) {
	b, err := h.bookings.FindByID(ctx, cmd.BookingID)
	if err != nil {
		return nil, fmt.Errorf("generate options for booking %s: %w", cmd.BookingID, err)
	}
	c, err := h.conflictFor(ctx, cmd)
	if err != nil {
		return nil, fmt.Errorf("generate options for booking %s: %w", cmd.BookingID, err)
	}
	if c.BookingID() != b.ID {
		return nil, fmt.Errorf("%w: conflict %s belongs to booking %s", domain.ErrConflictBookingMismatch, c.ID(), c.BookingID())
	}

	var level weather.TrainingLevel
	s, err := h.students.FindByID(ctx, b.StudentID)
	switch {
	case err == nil:
		level = s.TrainingLevel
	case !errors.Is(err, domain.ErrStudentNotFound):
		return nil, fmt.Errorf("generate options for booking %s: %w", cmd.BookingID, err)
	}

	rc := h.generator.BuildContext(ctx, b, c, level)
	suggestion := h.generator.Generate(ctx, rc)

	var result *GenerateRescheduleOptionsResult
	err = sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		set, err := domain.NewRescheduleOptionSet(b.ID, c.ID(), suggestion.Options, suggestion.Provider, suggestion.Reasoning, h.clock.Now())
		if err != nil {
			return err
		}
		created, err := h.optionSets.UpsertPending(txCtx, set)
		if err != nil {
			return err
		}
		if created {
			set.AnnounceSuggested(b)
		}
		if err := enqueue(txCtx, h.outboxRepo, actorOr(cmd.Actor), set); err != nil {
			return err
		}

		result = &GenerateRescheduleOptionsResult{
			OptionSetID: set.ID(),
			Options:     set.Options(),
			Reasoning:   set.Reasoning(),
			Provider:    set.Provider(),
			Created:     created,
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("store options for booking %s: %w", cmd.BookingID, err)
	}

	h.logger.InfoContext(ctx, "reschedule options generated",
		"booking_id", b.ID, "option_set_id", result.OptionSetID,
		"provider", result.Provider, "options", len(result.Options), "created", result.Created)
	return result, nil
}

// conflictFor loads the named conflict, or the booking's open one when no
// conflict id is given.
func (h *GenerateRescheduleOptionsHandler) conflictFor(ctx context.Context, cmd GenerateRescheduleOptionsCommand) (*domain.Conflict, error) {
	if cmd.ConflictID != uuid.Nil {
		return h.conflicts.FindByID(ctx, cmd.ConflictID)
	}
	c, err := h.conflicts.FindOpenByBooking(ctx, cmd.BookingID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, domain.ErrConflictNotFound
	}
	return c, nil
}

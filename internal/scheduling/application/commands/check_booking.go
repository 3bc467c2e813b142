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
	weather "github.com/felixgeelhaar/flightwatch/internal/weather/domain"
	"github.com/felixgeelhaar/flightwatch/pkg/observability"
)

// CheckStatus is the outcome of a single booking check.
type CheckStatus string

const (
	CheckStatusConflict CheckStatus = "conflict"
	CheckStatusClear    CheckStatus = "clear"
	CheckStatusSkipped  CheckStatus = "skipped"
	CheckStatusNoData   CheckStatus = "no-data"
)

// CheckBookingCommand evaluates one booking against cached weather.
type CheckBookingCommand struct {
	BookingID uuid.UUID
	Actor     string
}

// CheckBookingResult describes what the check found and changed.
type CheckBookingResult struct {
	BookingID   uuid.UUID
	Status      CheckStatus
	HasConflict bool
	ConflictID  uuid.UUID
	Violations  []string
	Severity    weather.Severity
	// Created is true when this check opened a new conflict.
	Created bool
	// Resolved is true when this check closed an open conflict.
	Resolved bool
}

// CheckBookingHandler handles CheckBookingCommand.
type CheckBookingHandler struct {
	bookings   domain.BookingRepository
	students   domain.StudentRepository
	conflicts  domain.ConflictRepository
	cache      weather.Cache
	minimums   *weather.MinimumsTable
	outboxRepo outbox.Repository
	uow        sharedApplication.UnitOfWork
	clock      sharedDomain.Clock
	metrics    observability.Metrics
	logger     *slog.Logger
}

// NewCheckBookingHandler creates a new CheckBookingHandler.
func NewCheckBookingHandler(
	bookings domain.BookingRepository,
	students domain.StudentRepository,
	conflicts domain.ConflictRepository,
	cache weather.Cache,
	minimums *weather.MinimumsTable,
	outboxRepo outbox.Repository,
	uow sharedApplication.UnitOfWork,
	clock sharedDomain.Clock,
	metrics observability.Metrics,
	logger *slog.Logger,
) *CheckBookingHandler {
	if minimums == nil {
		minimums = weather.DefaultMinimums()
	}
	if clock == nil {
		clock = sharedDomain.SystemClock{}
	}
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &CheckBookingHandler{
		bookings:   bookings,
		students:   students,
		conflicts:  conflicts,
		cache:      cache,
		minimums:   minimums,
		outboxRepo: outboxRepo,
		uow:        uow,
		clock:      clock,
		metrics:    metrics,
		logger:     logger,
	}
}

// Handle runs the check. A missing booking or observation is reported as
// CheckStatusNoData rather than an error.
func (h *CheckBookingHandler) Handle(ctx context.Context, cmd CheckBookingCommand) (*CheckBookingResult, error) {
	result := &CheckBookingResult{BookingID: cmd.BookingID}

	err := sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		now := h.clock.Now()

		b, err := h.bookings.FindByID(txCtx, cmd.BookingID)
		if errors.Is(err, domain.ErrBookingNotFound) {
			result.Status = CheckStatusNoData
			return nil
		}
		if err != nil {
			return err
		}
		if !b.Status.IsActive() {
			result.Status = CheckStatusSkipped
			return nil
		}

		obs, err := h.cache.Lookup(txCtx, b.Departure, now)
		if err != nil {
			return err
		}
		if obs == nil {
			result.Status = CheckStatusNoData
			return nil
		}

		level, err := h.trainingLevel(txCtx, b)
		if err != nil {
			return err
		}

		violations, severity := h.minimums.Evaluate(obs, level)
		if len(violations) > 0 {
			return h.flag(txCtx, cmd, b, obs, level, violations, severity, result)
		}
		return h.clear(txCtx, cmd, b, result)
	})
	if err != nil {
		return nil, fmt.Errorf("check booking %s: %w", cmd.BookingID, err)
	}

	h.metrics.Counter(observability.MetricBookingsChecked, 1, observability.T("status", string(result.Status)))
	if result.Created {
		h.metrics.Counter(observability.MetricConflictsDetected, 1, observability.T("severity", string(result.Severity)))
	}
	if result.Resolved {
		h.metrics.Counter(observability.MetricConflictsResolved, 1, observability.T("reason", "weather_cleared"))
	}
	return result, nil
}

func (h *CheckBookingHandler) flag(
	ctx context.Context,
	cmd CheckBookingCommand,
	b *domain.Booking,
	obs *weather.Observation,
	level weather.TrainingLevel,
	violations []string,
	severity weather.Severity,
	result *CheckBookingResult,
) error {
	now := h.clock.Now()

	c, err := domain.NewConflict(b.ID, obs.ID, level, violations, severity, now)
	if err != nil {
		return err
	}
	created, err := h.conflicts.UpsertOpen(ctx, c)
	if err != nil {
		return err
	}
	if created {
		c.AnnounceDetected(b)
	}

	if b.FlagConflict(now) {
		if err := h.bookings.UpdateStatus(ctx, b.ID, b.Status, now); err != nil {
			return err
		}
	}
	if err := enqueue(ctx, h.outboxRepo, actorOr(cmd.Actor), c); err != nil {
		return err
	}

	result.Status = CheckStatusConflict
	result.HasConflict = true
	result.ConflictID = c.ID()
	result.Violations = violations
	result.Severity = severity
	result.Created = created

	if created {
		h.logger.InfoContext(ctx, "weather conflict detected",
			"booking_id", b.ID, "conflict_id", c.ID(), "severity", severity, "violations", len(violations))
	}
	return nil
}

func (h *CheckBookingHandler) clear(ctx context.Context, cmd CheckBookingCommand, b *domain.Booking, result *CheckBookingResult) error {
	now := h.clock.Now()
	result.Status = CheckStatusClear

	open, err := h.conflicts.FindOpenByBooking(ctx, b.ID)
	if err != nil {
		return err
	}
	if open != nil && open.Resolve(b, domain.ResolutionWeatherCleared, true, now) {
		if err := h.conflicts.Save(ctx, open); err != nil {
			return err
		}
		if err := enqueue(ctx, h.outboxRepo, actorOr(cmd.Actor), open); err != nil {
			return err
		}
		result.ConflictID = open.ID()
		result.Resolved = true
		h.logger.InfoContext(ctx, "weather conflict cleared", "booking_id", b.ID, "conflict_id", open.ID())
	}

	if b.ClearConflict(now) {
		return h.bookings.UpdateStatus(ctx, b.ID, b.Status, now)
	}
	return nil
}

// trainingLevel returns the student's level. A booking whose student is
// unknown is held to student-pilot minimums.
func (h *CheckBookingHandler) trainingLevel(ctx context.Context, b *domain.Booking) (weather.TrainingLevel, error) {
	s, err := h.students.FindByID(ctx, b.StudentID)
	if errors.Is(err, domain.ErrStudentNotFound) {
		h.logger.WarnContext(ctx, "student not found, applying student-pilot minimums",
			"booking_id", b.ID, "student_id", b.StudentID)
		return weather.TrainingLevelStudent, nil
	}
	if err != nil {
		return "", err
	}
	return s.TrainingLevel, nil
}

package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/flightwatch/internal/scheduling/domain"
	"github.com/felixgeelhaar/flightwatch/internal/shared/infrastructure/database"
	"github.com/felixgeelhaar/flightwatch/internal/shared/infrastructure/database/dbtest"
	weather "github.com/felixgeelhaar/flightwatch/internal/weather/domain"
)

var now = time.Date(2026, 8, 12, 10, 0, 0, 0, time.UTC)

func seedBooking(t *testing.T, conn database.Connection, at time.Time, status domain.BookingStatus) *domain.Booking {
	t.Helper()
	ctx := context.Background()

	student := &domain.Student{
		ID:            uuid.New(),
		Name:          "Avery Chen",
		TrainingLevel: weather.TrainingLevelStudent,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	require.NoError(t, NewSQLiteStudentRepository(conn).Save(ctx, student))

	b := &domain.Booking{
		ID:          uuid.New(),
		StudentID:   student.ID,
		AircraftID:  "N172SP",
		ScheduledAt: at,
		Departure:   weather.Location{Name: "KPAO", Latitude: 37.4611, Longitude: -122.115},
		Status:      status,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	require.NoError(t, NewSQLiteBookingRepository(conn).Save(ctx, b))
	return b
}

func TestSQLiteBookingRepository_RoundTrip(t *testing.T) {
	conn := dbtest.NewSQLite(t)
	repo := NewSQLiteBookingRepository(conn)
	ctx := context.Background()

	b := seedBooking(t, conn, now.Add(24*time.Hour), domain.BookingScheduled)
	b.Destination = &weather.Location{Name: "KSQL", Latitude: 37.5119, Longitude: -122.2495}
	b.InstructorID = uuid.New()
	require.NoError(t, repo.Save(ctx, b))

	got, err := repo.FindByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, b.ScheduledAt, got.ScheduledAt)
	assert.Equal(t, b.InstructorID, got.InstructorID)
	assert.Equal(t, "N172SP", got.AircraftID)
	require.NotNil(t, got.Destination)
	assert.Equal(t, "KSQL", got.Destination.Name)

	_, err = repo.FindByID(ctx, uuid.New())
	assert.ErrorIs(t, err, domain.ErrBookingNotFound)

	student, err := NewSQLiteStudentRepository(conn).FindByID(ctx, b.StudentID)
	require.NoError(t, err)
	assert.Equal(t, weather.TrainingLevelStudent, student.TrainingLevel)
}

func TestSQLiteBookingRepository_ListActive(t *testing.T) {
	conn := dbtest.NewSQLite(t)
	repo := NewSQLiteBookingRepository(conn)
	ctx := context.Background()

	later := seedBooking(t, conn, now.Add(30*time.Hour), domain.BookingWeatherConflict)
	sooner := seedBooking(t, conn, now.Add(2*time.Hour), domain.BookingScheduled)
	seedBooking(t, conn, now.Add(5*time.Hour), domain.BookingCancelled)
	seedBooking(t, conn, now.Add(72*time.Hour), domain.BookingScheduled)
	seedBooking(t, conn, now.Add(-time.Hour), domain.BookingScheduled)

	got, err := repo.ListActive(ctx, now, now.Add(48*time.Hour))
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, sooner.ID, got[0].ID)
	assert.Equal(t, later.ID, got[1].ID)
}

func TestSQLiteBookingRepository_Updates(t *testing.T) {
	conn := dbtest.NewSQLite(t)
	repo := NewSQLiteBookingRepository(conn)
	ctx := context.Background()
	b := seedBooking(t, conn, now.Add(24*time.Hour), domain.BookingScheduled)

	require.NoError(t, repo.UpdateStatus(ctx, b.ID, domain.BookingWeatherConflict, now))
	newDate := now.Add(96 * time.Hour)
	require.NoError(t, repo.UpdateSchedule(ctx, b.ID, newDate, domain.BookingRescheduled, now))

	got, err := repo.FindByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.BookingRescheduled, got.Status)
	assert.Equal(t, newDate, got.ScheduledAt)

	err = repo.UpdateStatus(ctx, uuid.New(), domain.BookingScheduled, now)
	assert.ErrorIs(t, err, domain.ErrBookingNotFound)
}

func TestSQLiteConflictRepository_SingleOpenConflictPerBooking(t *testing.T) {
	conn := dbtest.NewSQLite(t)
	repo := NewSQLiteConflictRepository(conn)
	ctx := context.Background()
	b := seedBooking(t, conn, now.Add(24*time.Hour), domain.BookingScheduled)

	first, err := domain.NewConflict(b.ID, uuid.Nil, weather.TrainingLevelStudent,
		[]string{"Visibility 2.0 mi below minimum 5.0 mi"}, weather.SeverityLow, now)
	require.NoError(t, err)
	created, err := repo.UpsertOpen(ctx, first)
	require.NoError(t, err)
	assert.True(t, created)

	second, err := domain.NewConflict(b.ID, uuid.New(), weather.TrainingLevelStudent,
		[]string{"Thunderstorms present", "Wind 30 kt exceeds maximum 12 kt"}, weather.SeverityHigh, now.Add(time.Hour))
	require.NoError(t, err)
	created, err = repo.UpsertOpen(ctx, second)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID(), second.ID())

	open, err := repo.FindOpenByBooking(ctx, b.ID)
	require.NoError(t, err)
	require.NotNil(t, open)
	assert.Equal(t, weather.SeverityHigh, open.Severity())
	assert.Len(t, open.Violations(), 2)
	assert.Equal(t, now, open.DetectedAt())

	list, err := repo.ListOpen(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.True(t, open.Resolve(b, domain.ResolutionWeatherCleared, true, now.Add(2*time.Hour)))
	require.NoError(t, repo.Save(ctx, open))

	none, err := repo.FindOpenByBooking(ctx, b.ID)
	require.NoError(t, err)
	assert.Nil(t, none)

	resolved, err := repo.FindByID(ctx, open.ID())
	require.NoError(t, err)
	assert.True(t, resolved.IsResolved())
	assert.Equal(t, domain.ResolutionWeatherCleared, resolved.ResolutionNote())

	third, err := domain.NewConflict(b.ID, uuid.Nil, weather.TrainingLevelStudent,
		[]string{"Icing conditions present"}, weather.SeverityHigh, now.Add(3*time.Hour))
	require.NoError(t, err)
	created, err = repo.UpsertOpen(ctx, third)
	require.NoError(t, err)
	assert.True(t, created)
}

func TestSQLiteOptionSetRepository_PendingLifecycle(t *testing.T) {
	conn := dbtest.NewSQLite(t)
	conflicts := NewSQLiteConflictRepository(conn)
	repo := NewSQLiteOptionSetRepository(conn)
	ctx := context.Background()
	b := seedBooking(t, conn, now.Add(24*time.Hour), domain.BookingWeatherConflict)

	c, err := domain.NewConflict(b.ID, uuid.Nil, weather.TrainingLevelStudent,
		[]string{"Thunderstorms present"}, weather.SeverityHigh, now)
	require.NoError(t, err)
	_, err = conflicts.UpsertOpen(ctx, c)
	require.NoError(t, err)

	option := func(d time.Duration) domain.RescheduleOption {
		return domain.RescheduleOption{DateTime: b.ScheduledAt.Add(d), Reasoning: "clear skies", Confidence: 80}
	}

	first, err := domain.NewRescheduleOptionSet(b.ID, c.ID(), []domain.RescheduleOption{option(24 * time.Hour)},
		domain.ProviderRuleBased, "fallback", now)
	require.NoError(t, err)
	created, err := repo.UpsertPending(ctx, first)
	require.NoError(t, err)
	assert.True(t, created)

	second, err := domain.NewRescheduleOptionSet(b.ID, c.ID(),
		[]domain.RescheduleOption{option(48 * time.Hour), option(72 * time.Hour)},
		domain.ProviderOpenAI, "better weather midweek", now.Add(time.Minute))
	require.NoError(t, err)
	created, err = repo.UpsertPending(ctx, second)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID(), second.ID())

	pending, err := repo.FindPendingByBooking(ctx, b.ID)
	require.NoError(t, err)
	require.NotNil(t, pending)
	assert.Equal(t, domain.ProviderOpenAI, pending.Provider())
	require.Len(t, pending.Options(), 2)
	assert.Equal(t, b.ScheduledAt.Add(48*time.Hour), pending.Options()[0].DateTime)

	_, err = pending.Accept(1, b, now)
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, pending))

	got, err := repo.FindByID(ctx, pending.ID())
	require.NoError(t, err)
	assert.Equal(t, domain.OptionSetAccepted, got.Status())
	require.NotNil(t, got.SelectedIndex())
	assert.Equal(t, 1, *got.SelectedIndex())

	none, err := repo.FindPendingByBooking(ctx, b.ID)
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestSQLiteOptionSetRepository_ListStalePending(t *testing.T) {
	conn := dbtest.NewSQLite(t)
	conflicts := NewSQLiteConflictRepository(conn)
	repo := NewSQLiteOptionSetRepository(conn)
	ctx := context.Background()

	past := seedBooking(t, conn, now.Add(-2*time.Hour), domain.BookingWeatherConflict)
	future := seedBooking(t, conn, now.Add(48*time.Hour), domain.BookingWeatherConflict)

	for _, b := range []*domain.Booking{past, future} {
		c, err := domain.NewConflict(b.ID, uuid.Nil, weather.TrainingLevelStudent,
			[]string{"Thunderstorms present"}, weather.SeverityHigh, now)
		require.NoError(t, err)
		_, err = conflicts.UpsertOpen(ctx, c)
		require.NoError(t, err)

		set, err := domain.NewRescheduleOptionSet(b.ID, c.ID(),
			[]domain.RescheduleOption{{DateTime: now.Add(72 * time.Hour), Confidence: 75}},
			domain.ProviderRuleBased, "fallback", now)
		require.NoError(t, err)
		_, err = repo.UpsertPending(ctx, set)
		require.NoError(t, err)
	}

	stale, err := repo.ListStalePending(ctx, now)
	require.NoError(t, err)
	require.Len(t, stale, 1)
	assert.Equal(t, past.ID, stale[0].BookingID())
}

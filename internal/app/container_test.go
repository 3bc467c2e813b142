package app

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/flightwatch/internal/audit"
	"github.com/felixgeelhaar/flightwatch/internal/notification"
	"github.com/felixgeelhaar/flightwatch/internal/scheduling/application/commands"
	"github.com/felixgeelhaar/flightwatch/internal/scheduling/domain"
	"github.com/felixgeelhaar/flightwatch/internal/shared/infrastructure/database"
	"github.com/felixgeelhaar/flightwatch/internal/shared/infrastructure/database/dbtest"
	weather "github.com/felixgeelhaar/flightwatch/internal/weather/domain"
	"github.com/felixgeelhaar/flightwatch/pkg/config"
	"github.com/felixgeelhaar/flightwatch/pkg/observability"
)

type fixedClock struct{ at time.Time }

func (c fixedClock) Now() time.Time { return c.at }

var now = time.Date(2026, 8, 12, 10, 0, 0, 0, time.UTC)

func newTestContainer(t *testing.T) (*Container, *notification.MemoryNotifier, *audit.MemoryRecorder) {
	t.Helper()
	notifier := notification.NewMemoryNotifier()
	recorder := audit.NewMemoryRecorder()
	c, err := NewContainerWithConnection(dbtest.NewSQLite(t), &config.Config{
		AppEnv:              "test",
		WeatherCacheTTL:     30 * time.Minute,
		CheckConcurrency:    2,
		AutoGenerateOptions: true,
		ReasoningTimeout:    time.Second,
	}, nil, Options{
		Metrics:  observability.NewInMemoryMetrics(),
		Clock:    fixedClock{at: now},
		Notifier: notifier,
		Recorder: recorder,
	})
	require.NoError(t, err)
	return c, notifier, recorder
}

func TestRepositoryFactory_SQLite(t *testing.T) {
	f := NewRepositoryFactory(dbtest.NewSQLite(t))
	assert.Equal(t, database.DriverSQLite, f.Driver())

	bookings, err := f.BookingRepository()
	require.NoError(t, err)
	assert.NotNil(t, bookings)
	cache, err := f.WeatherCache()
	require.NoError(t, err)
	assert.NotNil(t, cache)
	ob, err := f.OutboxRepository()
	require.NoError(t, err)
	assert.NotNil(t, ob)
}

func TestContainer_WiresHandlers(t *testing.T) {
	c, _, _ := newTestContainer(t)

	assert.NotNil(t, c.CheckBookingHandler)
	assert.NotNil(t, c.CheckAllActiveHandler)
	assert.NotNil(t, c.ResolveConflictHandler)
	assert.NotNil(t, c.GenerateOptionsHandler)
	assert.NotNil(t, c.AcceptOptionHandler)
	assert.NotNil(t, c.RejectOptionsHandler)
	assert.NotNil(t, c.GetConflictHandler)
	assert.NotNil(t, c.GetOptionSetHandler)
	assert.NotNil(t, c.InProcessEventBus)
	assert.Equal(t, []string{"openai", "anthropic"}, c.ProviderChain.Providers())
}

func TestContainer_ConflictFlowNotifiesRecipients(t *testing.T) {
	c, notifier, recorder := newTestContainer(t)
	ctx := context.Background()
	kpao := weather.Location{Name: "KPAO", Latitude: 37.4611, Longitude: -122.115}

	student := &domain.Student{ID: uuid.New(), Name: "Sam Ortiz", TrainingLevel: weather.TrainingLevelStudent, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, c.StudentRepo.Save(ctx, student))
	b := &domain.Booking{
		ID:           uuid.New(),
		StudentID:    student.ID,
		InstructorID: uuid.New(),
		AircraftID:   "N734FW",
		ScheduledAt:  now.Add(24 * time.Hour),
		Departure:    kpao,
		Status:       domain.BookingScheduled,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, c.BookingRepo.Save(ctx, b))
	require.NoError(t, c.WeatherCache.Store(ctx, weather.NewObservation(weather.ObservationInput{
		Location: kpao, VisibilityMi: 2, WindSpeedKt: 12, TemperatureC: 15, Conditions: "Mist",
	}, now, 30*time.Minute)))

	res, err := c.CheckAllActiveHandler.Handle(ctx, commands.CheckAllActiveCommand{Start: now, End: now.Add(48 * time.Hour)})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Conflicts)
	assert.Equal(t, 1, res.Generated)

	c.FlushOutbox(ctx)

	var types []notification.Type
	for _, sent := range notifier.Sent() {
		types = append(types, sent.Type)
	}
	assert.Equal(t, []notification.Type{
		notification.TypeConflictDetected, notification.TypeConflictDetected,
		notification.TypeRescheduleSuggested, notification.TypeRescheduleSuggested,
	}, types)
	assert.Len(t, recorder.Entries(), 2)
}

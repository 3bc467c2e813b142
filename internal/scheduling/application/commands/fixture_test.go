package commands

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/flightwatch/internal/scheduling/application/services"
	"github.com/felixgeelhaar/flightwatch/internal/scheduling/domain"
	"github.com/felixgeelhaar/flightwatch/internal/scheduling/infrastructure/persistence"
	"github.com/felixgeelhaar/flightwatch/internal/shared/infrastructure/database"
	"github.com/felixgeelhaar/flightwatch/internal/shared/infrastructure/database/dbtest"
	"github.com/felixgeelhaar/flightwatch/internal/shared/infrastructure/outbox"
	weather "github.com/felixgeelhaar/flightwatch/internal/weather/domain"
	weatherPersistence "github.com/felixgeelhaar/flightwatch/internal/weather/infrastructure/persistence"
	"github.com/felixgeelhaar/flightwatch/pkg/observability"
)

var (
	now  = time.Date(2026, 8, 12, 10, 0, 0, 0, time.UTC)
	kpao = weather.Location{Name: "KPAO", Latitude: 37.4611, Longitude: -122.115}
)

type testClock struct{ at time.Time }

func (c *testClock) Now() time.Time { return c.at }

type fixture struct {
	t          *testing.T
	conn       database.Connection
	clock      *testClock
	bookings   *persistence.SQLiteBookingRepository
	students   *persistence.SQLiteStudentRepository
	conflicts  *persistence.SQLiteConflictRepository
	optionSets *persistence.SQLiteOptionSetRepository
	cache      *weatherPersistence.SQLiteCache
	outbox     *outbox.InMemoryRepository
	metrics    *observability.InMemoryMetrics

	check    *CheckBookingHandler
	resolve  *ResolveConflictHandler
	generate *GenerateRescheduleOptionsHandler
	accept   *AcceptOptionHandler
	reject   *RejectOptionsHandler
	expire   *ExpireOptionSetsHandler
}

func newFixture(t *testing.T, providers ...services.SuggestionProvider) *fixture {
	t.Helper()
	conn := dbtest.NewSQLite(t)
	f := &fixture{
		t:          t,
		conn:       conn,
		clock:      &testClock{at: now},
		bookings:   persistence.NewSQLiteBookingRepository(conn),
		students:   persistence.NewSQLiteStudentRepository(conn),
		conflicts:  persistence.NewSQLiteConflictRepository(conn),
		optionSets: persistence.NewSQLiteOptionSetRepository(conn),
		cache:      weatherPersistence.NewSQLiteCache(conn),
		outbox:     outbox.NewInMemoryRepository(),
		metrics:    observability.NewInMemoryMetrics(),
	}
	uow := database.NewUnitOfWork(conn)

	chain := services.NewProviderChain(providers, time.Second, f.metrics, nil)
	generator := services.NewRescheduleGenerator(chain, f.cache, nil)

	f.check = NewCheckBookingHandler(f.bookings, f.students, f.conflicts, f.cache, weather.DefaultMinimums(),
		f.outbox, uow, f.clock, f.metrics, nil)
	f.resolve = NewResolveConflictHandler(f.conflicts, f.bookings, f.outbox, uow, f.clock, f.metrics, nil)
	f.generate = NewGenerateRescheduleOptionsHandler(f.bookings, f.students, f.conflicts, f.optionSets,
		generator, f.outbox, uow, f.clock, nil)
	f.accept = NewAcceptOptionHandler(f.optionSets, f.bookings, f.conflicts, f.outbox, uow, f.clock, f.metrics, nil)
	f.reject = NewRejectOptionsHandler(f.optionSets, f.bookings, f.outbox, uow, f.clock, nil)
	f.expire = NewExpireOptionSetsHandler(f.optionSets, uow, f.clock, nil)
	return f
}

func (f *fixture) seedBooking(level weather.TrainingLevel, at time.Time, status domain.BookingStatus) *domain.Booking {
	f.t.Helper()
	ctx := context.Background()

	student := &domain.Student{ID: uuid.New(), Name: "Jordan Reyes", TrainingLevel: level, CreatedAt: now, UpdatedAt: now}
	require.NoError(f.t, f.students.Save(ctx, student))

	b := &domain.Booking{
		ID:           uuid.New(),
		StudentID:    student.ID,
		InstructorID: uuid.New(),
		AircraftID:   "N52FW",
		ScheduledAt:  at,
		Departure:    kpao,
		Status:       status,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(f.t, f.bookings.Save(ctx, b))
	return b
}

func (f *fixture) storeWeather(in weather.ObservationInput) *weather.Observation {
	f.t.Helper()
	in.Location = kpao
	obs := weather.NewObservation(in, f.clock.Now(), 30*time.Minute)
	require.NoError(f.t, f.cache.Store(context.Background(), obs))
	return obs
}

func (f *fixture) routingKeys() []string {
	var keys []string
	for _, msg := range f.outbox.Messages() {
		keys = append(keys, msg.RoutingKey)
	}
	return keys
}

func (f *fixture) booking(id uuid.UUID) *domain.Booking {
	f.t.Helper()
	b, err := f.bookings.FindByID(context.Background(), id)
	require.NoError(f.t, err)
	return b
}

func ptr(v float64) *float64 { return &v }

var (
	stormy = weather.ObservationInput{
		VisibilityMi: 3, CeilingFt: ptr(2500), WindSpeedKt: 25, TemperatureC: 18,
		Conditions: "Thunderstorm", Thunderstorms: true,
	}
	clearDay = weather.ObservationInput{
		VisibilityMi: 10, WindSpeedKt: 6, TemperatureC: 20, Conditions: "Clear sky",
	}
)

package commands

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/flightwatch/internal/scheduling/domain"
	weather "github.com/felixgeelhaar/flightwatch/internal/weather/domain"
	"github.com/felixgeelhaar/flightwatch/pkg/observability"
)

func TestCheckBooking_DetectsConflict(t *testing.T) {
	f := newFixture(t)
	b := f.seedBooking(weather.TrainingLevelStudent, now.Add(24*time.Hour), domain.BookingScheduled)
	obs := f.storeWeather(stormy)

	res, err := f.check.Handle(context.Background(), CheckBookingCommand{BookingID: b.ID})
	require.NoError(t, err)

	assert.Equal(t, CheckStatusConflict, res.Status)
	assert.True(t, res.HasConflict)
	assert.True(t, res.Created)
	assert.Equal(t, weather.SeverityHigh, res.Severity)
	assert.Contains(t, res.Violations, "Thunderstorms present")
	assert.Equal(t, domain.BookingWeatherConflict, f.booking(b.ID).Status)

	c, err := f.conflicts.FindByID(context.Background(), res.ConflictID)
	require.NoError(t, err)
	assert.Equal(t, obs.ID, c.ObservationID())
	assert.Equal(t, []string{domain.RoutingKeyConflictDetected}, f.routingKeys())
	assert.Equal(t, int64(1), f.metrics.GetCounter(observability.MetricConflictsDetected, observability.T("severity", "high")))
}

func TestCheckBooking_RepeatedChecksKeepOneOpenConflict(t *testing.T) {
	f := newFixture(t)
	b := f.seedBooking(weather.TrainingLevelStudent, now.Add(24*time.Hour), domain.BookingScheduled)
	f.storeWeather(stormy)

	first, err := f.check.Handle(context.Background(), CheckBookingCommand{BookingID: b.ID})
	require.NoError(t, err)

	f.clock.at = now.Add(20 * time.Minute)
	iced := f.storeWeather(weather.ObservationInput{
		VisibilityMi: 10, WindSpeedKt: 5, TemperatureC: -2, Conditions: "Freezing rain", Icing: true,
	})
	second, err := f.check.Handle(context.Background(), CheckBookingCommand{BookingID: b.ID})
	require.NoError(t, err)

	assert.True(t, first.Created)
	assert.False(t, second.Created)
	assert.Equal(t, first.ConflictID, second.ConflictID)

	open, err := f.conflicts.ListOpen(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, iced.ID, open[0].ObservationID())
	assert.Equal(t, now.Add(20*time.Minute), open[0].DetectedAt())
	assert.Equal(t, []string{"Icing conditions present"}, open[0].Violations())
	assert.Equal(t, []string{domain.RoutingKeyConflictDetected}, f.routingKeys())
}

func TestCheckBooking_ConcurrentChecksKeepOneOpenConflict(t *testing.T) {
	f := newFixture(t)
	b := f.seedBooking(weather.TrainingLevelStudent, now.Add(24*time.Hour), domain.BookingScheduled)
	f.storeWeather(stormy)

	var wg sync.WaitGroup
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.check.Handle(context.Background(), CheckBookingCommand{BookingID: b.ID})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	open, err := f.conflicts.ListOpen(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, open, 1)
}

func TestCheckBooking_WeatherClears(t *testing.T) {
	f := newFixture(t)
	b := f.seedBooking(weather.TrainingLevelStudent, now.Add(24*time.Hour), domain.BookingScheduled)
	f.storeWeather(stormy)

	detected, err := f.check.Handle(context.Background(), CheckBookingCommand{BookingID: b.ID})
	require.NoError(t, err)

	f.clock.at = now.Add(time.Hour)
	f.storeWeather(clearDay)

	res, err := f.check.Handle(context.Background(), CheckBookingCommand{BookingID: b.ID})
	require.NoError(t, err)
	assert.Equal(t, CheckStatusClear, res.Status)
	assert.True(t, res.Resolved)
	assert.Equal(t, detected.ConflictID, res.ConflictID)
	assert.Equal(t, domain.BookingScheduled, f.booking(b.ID).Status)

	c, err := f.conflicts.FindByID(context.Background(), detected.ConflictID)
	require.NoError(t, err)
	assert.True(t, c.IsResolved())
	require.NotNil(t, c.ResolvedAt())
	assert.Equal(t, now.Add(time.Hour), *c.ResolvedAt())
	assert.Equal(t, []string{domain.RoutingKeyConflictDetected, domain.RoutingKeyConflictResolved}, f.routingKeys())
}

func TestCheckBooking_ClearWithoutConflict(t *testing.T) {
	f := newFixture(t)
	b := f.seedBooking(weather.TrainingLevelStudent, now.Add(24*time.Hour), domain.BookingScheduled)
	f.storeWeather(clearDay)

	res, err := f.check.Handle(context.Background(), CheckBookingCommand{BookingID: b.ID})
	require.NoError(t, err)
	assert.Equal(t, CheckStatusClear, res.Status)
	assert.False(t, res.Resolved)
	assert.Empty(t, f.routingKeys())
}

func TestCheckBooking_NoDataAndSkipped(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.check.Handle(ctx, CheckBookingCommand{BookingID: uuid.New()})
	require.NoError(t, err)
	assert.Equal(t, CheckStatusNoData, res.Status)

	b := f.seedBooking(weather.TrainingLevelStudent, now.Add(24*time.Hour), domain.BookingScheduled)
	res, err = f.check.Handle(ctx, CheckBookingCommand{BookingID: b.ID})
	require.NoError(t, err)
	assert.Equal(t, CheckStatusNoData, res.Status)

	cancelled := f.seedBooking(weather.TrainingLevelStudent, now.Add(24*time.Hour), domain.BookingCancelled)
	f.storeWeather(stormy)
	res, err = f.check.Handle(ctx, CheckBookingCommand{BookingID: cancelled.ID})
	require.NoError(t, err)
	assert.Equal(t, CheckStatusSkipped, res.Status)
	assert.Equal(t, domain.BookingCancelled, f.booking(cancelled.ID).Status)
}

func TestCheckBooking_ExpiredObservationIsNoData(t *testing.T) {
	f := newFixture(t)
	b := f.seedBooking(weather.TrainingLevelStudent, now.Add(24*time.Hour), domain.BookingScheduled)
	f.storeWeather(stormy)

	f.clock.at = now.Add(29 * time.Minute)
	res, err := f.check.Handle(context.Background(), CheckBookingCommand{BookingID: b.ID})
	require.NoError(t, err)
	assert.Equal(t, CheckStatusConflict, res.Status)

	f.clock.at = now.Add(31 * time.Minute)
	res, err = f.check.Handle(context.Background(), CheckBookingCommand{BookingID: b.ID})
	require.NoError(t, err)
	assert.Equal(t, CheckStatusNoData, res.Status)
}

func TestCheckBooking_LevelDecidesOutcome(t *testing.T) {
	f := newFixture(t)
	gusty := weather.ObservationInput{VisibilityMi: 10, CeilingFt: ptr(8000), WindSpeedKt: 18, TemperatureC: 15, Conditions: "Broken clouds"}
	f.storeWeather(gusty)

	student := f.seedBooking(weather.TrainingLevelStudent, now.Add(24*time.Hour), domain.BookingScheduled)
	private := f.seedBooking(weather.TrainingLevelPrivate, now.Add(24*time.Hour), domain.BookingScheduled)

	res, err := f.check.Handle(context.Background(), CheckBookingCommand{BookingID: student.ID})
	require.NoError(t, err)
	assert.Equal(t, CheckStatusConflict, res.Status)

	res, err = f.check.Handle(context.Background(), CheckBookingCommand{BookingID: private.ID})
	require.NoError(t, err)
	assert.Equal(t, CheckStatusClear, res.Status)
}

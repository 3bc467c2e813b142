package commands

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/flightwatch/internal/scheduling/application/services"
	"github.com/felixgeelhaar/flightwatch/internal/scheduling/domain"
	"github.com/felixgeelhaar/flightwatch/internal/shared/infrastructure/database"
	weather "github.com/felixgeelhaar/flightwatch/internal/weather/domain"
)

type mockObservations struct {
	mock.Mock
}

func (m *mockObservations) Current(ctx context.Context, loc weather.Location) (*weather.Observation, error) {
	args := m.Called(ctx, loc)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*weather.Observation), args.Error(1)
}

func TestCheckAllActive_CountsOutcomes(t *testing.T) {
	f := newFixture(t)
	f.storeWeather(stormy)

	for range 3 {
		f.seedBooking(weather.TrainingLevelStudent, now.Add(6*time.Hour), domain.BookingScheduled)
	}
	f.seedBooking(weather.TrainingLevelInstrument, now.Add(12*time.Hour), domain.BookingScheduled)
	f.seedBooking(weather.TrainingLevelStudent, now.Add(12*time.Hour), domain.BookingCompleted)
	f.seedBooking(weather.TrainingLevelStudent, now.Add(96*time.Hour), domain.BookingScheduled)

	observations := &mockObservations{}
	observations.On("Current", mock.Anything, kpao).Return(nil, nil)

	h := NewCheckAllActiveHandler(f.bookings, observations, f.check, f.generate,
		CheckAllActiveOptions{Concurrency: 2, AutoGenerate: true}, f.metrics, nil)
	res, err := h.Handle(context.Background(), CheckAllActiveCommand{Start: now, End: now.Add(48 * time.Hour)})
	require.NoError(t, err)

	assert.Equal(t, 4, res.Total)
	assert.Equal(t, 4, res.Conflicts)
	assert.Equal(t, 4, res.Created)
	assert.Equal(t, 4, res.Generated)
	assert.Zero(t, res.Errors)
	observations.AssertNumberOfCalls(t, "Current", 4)

	open, err := f.conflicts.ListOpen(context.Background(), 10)
	require.NoError(t, err)
	assert.Len(t, open, 4)
}

type failingOptionSets struct {
	domain.OptionSetRepository
}

func (failingOptionSets) UpsertPending(context.Context, *domain.RescheduleOptionSet) (bool, error) {
	return false, errors.New("disk full")
}

func TestCheckAllActive_GenerationFailureCountedSeparately(t *testing.T) {
	f := newFixture(t)
	f.storeWeather(stormy)
	f.seedBooking(weather.TrainingLevelStudent, now.Add(6*time.Hour), domain.BookingScheduled)

	generator := services.NewRescheduleGenerator(services.NewProviderChain(nil, time.Second, nil, nil), f.cache, nil)
	generate := NewGenerateRescheduleOptionsHandler(f.bookings, f.students, f.conflicts, failingOptionSets{f.optionSets},
		generator, f.outbox, database.NewUnitOfWork(f.conn), f.clock, nil)

	observations := &mockObservations{}
	observations.On("Current", mock.Anything, kpao).Return(nil, nil)

	h := NewCheckAllActiveHandler(f.bookings, observations, f.check, generate,
		CheckAllActiveOptions{AutoGenerate: true}, nil, nil)
	res, err := h.Handle(context.Background(), CheckAllActiveCommand{Start: now, End: now.Add(48 * time.Hour)})
	require.NoError(t, err)

	assert.Equal(t, 1, res.Conflicts)
	assert.Equal(t, 1, res.Created)
	assert.Equal(t, 1, res.GenerationErrors)
	assert.Zero(t, res.Generated)
	assert.Zero(t, res.Errors)
}

func TestCheckAllActive_WeatherFailureCountsAsError(t *testing.T) {
	f := newFixture(t)
	f.seedBooking(weather.TrainingLevelStudent, now.Add(6*time.Hour), domain.BookingScheduled)
	f.seedBooking(weather.TrainingLevelStudent, now.Add(7*time.Hour), domain.BookingScheduled)

	observations := &mockObservations{}
	observations.On("Current", mock.Anything, kpao).Return(nil, weather.ErrFetchFailed).Once()
	observations.On("Current", mock.Anything, kpao).Return(nil, nil)

	h := NewCheckAllActiveHandler(f.bookings, observations, f.check, nil, CheckAllActiveOptions{Concurrency: 1}, nil, nil)
	res, err := h.Handle(context.Background(), CheckAllActiveCommand{Start: now, End: now.Add(48 * time.Hour)})
	require.NoError(t, err)

	assert.Equal(t, 2, res.Total)
	assert.Equal(t, 1, res.Errors)
	assert.Equal(t, 1, res.NoData)
}

func TestCheckAllActive_ContextCancelled(t *testing.T) {
	f := newFixture(t)
	f.seedBooking(weather.TrainingLevelStudent, now.Add(6*time.Hour), domain.BookingScheduled)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	h := NewCheckAllActiveHandler(f.bookings, &mockObservations{}, f.check, nil, CheckAllActiveOptions{}, nil, nil)
	_, err := h.Handle(ctx, CheckAllActiveCommand{Start: now, End: now.Add(48 * time.Hour)})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCheckAllActive_CheckOne(t *testing.T) {
	f := newFixture(t)
	b := f.seedBooking(weather.TrainingLevelStudent, now.Add(6*time.Hour), domain.BookingScheduled)
	f.storeWeather(stormy)

	observations := &mockObservations{}
	observations.On("Current", mock.Anything, kpao).Return(nil, nil).Once()
	h := NewCheckAllActiveHandler(f.bookings, observations, f.check, f.generate, CheckAllActiveOptions{}, f.metrics, nil)

	res, err := h.CheckOne(context.Background(), CheckBookingCommand{BookingID: b.ID})
	require.NoError(t, err)
	assert.Equal(t, CheckStatusConflict, res.Status)
	observations.AssertExpectations(t)

	missing := uuid.New()
	res, err = h.CheckOne(context.Background(), CheckBookingCommand{BookingID: missing})
	require.NoError(t, err)
	assert.Equal(t, CheckStatusNoData, res.Status)
	assert.Equal(t, missing, res.BookingID)
}

func TestCheckAllActive_CheckOneWeatherFailureIsNoData(t *testing.T) {
	f := newFixture(t)
	b := f.seedBooking(weather.TrainingLevelStudent, now.Add(6*time.Hour), domain.BookingScheduled)

	observations := &mockObservations{}
	observations.On("Current", mock.Anything, kpao).Return(nil, weather.ErrFetchFailed)
	h := NewCheckAllActiveHandler(f.bookings, observations, f.check, f.generate, CheckAllActiveOptions{}, f.metrics, nil)

	res, err := h.CheckOne(context.Background(), CheckBookingCommand{BookingID: b.ID})
	require.NoError(t, err)
	assert.Equal(t, CheckStatusNoData, res.Status)
	assert.False(t, res.HasConflict)
}

func TestCheckAllActive_CheckOneWeatherFailureUsesCachedObservation(t *testing.T) {
	f := newFixture(t)
	b := f.seedBooking(weather.TrainingLevelStudent, now.Add(6*time.Hour), domain.BookingScheduled)
	f.storeWeather(stormy)

	observations := &mockObservations{}
	observations.On("Current", mock.Anything, kpao).Return(nil, weather.ErrFetchFailed)
	h := NewCheckAllActiveHandler(f.bookings, observations, f.check, f.generate, CheckAllActiveOptions{}, f.metrics, nil)

	res, err := h.CheckOne(context.Background(), CheckBookingCommand{BookingID: b.ID})
	require.NoError(t, err)
	assert.Equal(t, CheckStatusConflict, res.Status)
}

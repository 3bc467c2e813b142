// Package clitest builds a CLI app over a migrated SQLite database for
// command tests.
package clitest

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/flightwatch/adapter/cli"
	internalApp "github.com/felixgeelhaar/flightwatch/internal/app"
	"github.com/felixgeelhaar/flightwatch/internal/audit"
	"github.com/felixgeelhaar/flightwatch/internal/notification"
	"github.com/felixgeelhaar/flightwatch/internal/scheduling/domain"
	"github.com/felixgeelhaar/flightwatch/internal/shared/infrastructure/database/dbtest"
	weather "github.com/felixgeelhaar/flightwatch/internal/weather/domain"
	"github.com/felixgeelhaar/flightwatch/pkg/config"
)

// Now is the fixed time every test container runs at.
var Now = time.Date(2026, 8, 12, 10, 0, 0, 0, time.UTC)

// KPAO is the departure of seeded bookings.
var KPAO = weather.Location{Name: "KPAO", Latitude: 37.4611, Longitude: -122.115}

type fixedClock struct{}

func (fixedClock) Now() time.Time { return Now }

// Env is a wired container installed as the global CLI app.
type Env struct {
	T         *testing.T
	Container *internalApp.Container
	Notifier  *notification.MemoryNotifier
}

// Setup installs a fresh app and removes it when the test ends.
func Setup(t *testing.T) *Env {
	t.Helper()
	notifier := notification.NewMemoryNotifier()
	c, err := internalApp.NewContainerWithConnection(dbtest.NewSQLite(t), &config.Config{
		AppEnv:           "test",
		WeatherCacheTTL:  30 * time.Minute,
		CheckConcurrency: 2,
		ReasoningTimeout: time.Second,
	}, nil, internalApp.Options{
		Clock:    fixedClock{},
		Notifier: notifier,
		Recorder: audit.NewMemoryRecorder(),
	})
	require.NoError(t, err)

	cli.SetApp(cli.NewApp(c))
	t.Cleanup(func() {
		cli.SetApp(nil)
		cli.SetJSONOutput(false)
	})
	return &Env{T: t, Container: c, Notifier: notifier}
}

// SeedBooking stores a student and a scheduled booking departing KPAO.
func (e *Env) SeedBooking(at time.Time) *domain.Booking {
	e.T.Helper()
	ctx := context.Background()
	student := &domain.Student{ID: uuid.New(), Name: "Alex Kim", TrainingLevel: weather.TrainingLevelStudent, CreatedAt: Now, UpdatedAt: Now}
	require.NoError(e.T, e.Container.StudentRepo.Save(ctx, student))
	b := &domain.Booking{
		ID:           uuid.New(),
		StudentID:    student.ID,
		InstructorID: uuid.New(),
		AircraftID:   "N172FW",
		ScheduledAt:  at,
		Departure:    KPAO,
		Status:       domain.BookingScheduled,
		CreatedAt:    Now,
		UpdatedAt:    Now,
	}
	require.NoError(e.T, e.Container.BookingRepo.Save(ctx, b))
	return b
}

// StoreWeather caches an observation at KPAO.
func (e *Env) StoreWeather(in weather.ObservationInput) {
	e.T.Helper()
	in.Location = KPAO
	require.NoError(e.T, e.Container.WeatherCache.Store(context.Background(), weather.NewObservation(in, Now, 30*time.Minute)))
}

// LowVisibility violates student minimums without thunderstorms.
var LowVisibility = weather.ObservationInput{VisibilityMi: 2, WindSpeedKt: 8, TemperatureC: 14, Conditions: "Mist"}

// Run executes cmd's RunE with args and returns what it printed.
func Run(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetContext(context.Background())
	t.Cleanup(func() { cmd.SetOut(nil) })
	err := cmd.RunE(cmd, args)
	return out.String(), err
}

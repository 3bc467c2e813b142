package main

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/flightwatch/adapter/cli/clitest"
	"github.com/felixgeelhaar/flightwatch/pkg/observability"
)

func TestRunJobs_RunsImmediatelyAndOnTicks(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	var calls atomic.Int32
	metrics := observability.NewInMemoryMetrics()

	done := make(chan struct{})
	go func() {
		runJobs(ctx, slog.Default(), metrics, []job{{
			name:     "tick",
			interval: 10 * time.Millisecond,
			run: func(context.Context) error {
				calls.Add(1)
				return nil
			},
		}})
		close(done)
	}()

	require.Eventually(t, func() bool { return calls.Load() >= 3 }, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("runJobs did not return after cancel")
	}
	assert.GreaterOrEqual(t, metrics.GetCounter(observability.MetricOperationTotal, observability.T("operation", "worker.tick")), int64(3))
}

func TestRunJobs_FailureDoesNotStopJob(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()
	var calls atomic.Int32
	metrics := observability.NewInMemoryMetrics()

	go runJobs(ctx, slog.Default(), metrics, []job{{
		name:     "flaky",
		interval: 10 * time.Millisecond,
		run: func(context.Context) error {
			calls.Add(1)
			return errors.New("weather service down")
		},
	}})

	require.Eventually(t, func() bool { return calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
	assert.GreaterOrEqual(t, metrics.GetCounter(observability.MetricOperationErrors, observability.T("operation", "worker.flaky")), int64(1))
}

func TestRunJobs_SkipsDisabledJobs(t *testing.T) {
	called := false
	runJobs(t.Context(), slog.Default(), observability.NoopMetrics{}, []job{{
		name: "disabled",
		run: func(context.Context) error {
			called = true
			return nil
		},
	}})
	assert.False(t, called)
}

func TestWorkerJobs_AgainstContainer(t *testing.T) {
	env := clitest.Setup(t)
	env.Container.Config.CheckWindow = 48 * time.Hour
	b := env.SeedBooking(clitest.Now.Add(24 * time.Hour))
	env.StoreWeather(clitest.LowVisibility)

	jobs := workerJobs(env.Container, slog.Default())
	require.Len(t, jobs, 4)
	for _, j := range jobs {
		require.NoError(t, j.run(t.Context()), j.name)
	}

	conflict, err := env.Container.ConflictRepo.FindOpenByBooking(t.Context(), b.ID)
	require.NoError(t, err)
	require.NotNil(t, conflict)
	assert.Equal(t, b.ID, conflict.BookingID())
}

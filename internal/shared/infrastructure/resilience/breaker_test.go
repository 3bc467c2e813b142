package resilience

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/flightwatch/pkg/observability"
)

func TestBreaker_TripsAfterConsecutiveFailures(t *testing.T) {
	metrics := observability.NewInMemoryMetrics()
	b := NewBreaker[int]("openweather", BreakerConfig{
		MaxRequests:      1,
		Timeout:          time.Minute,
		FailureThreshold: 2,
	}, nil, metrics)

	boom := errors.New("boom")
	for i := 0; i < 2; i++ {
		_, err := b.Execute(func() (int, error) { return 0, boom })
		require.ErrorIs(t, err, boom)
	}
	assert.Equal(t, "open", b.State())

	called := false
	_, err := b.Execute(func() (int, error) {
		called = true
		return 1, nil
	})
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, called)
	assert.Equal(t, int64(1), metrics.GetCounter(observability.MetricBreakerChanges,
		observability.T("dependency", "openweather"), observability.T("state", "open")))
}

func TestBreaker_PassesResults(t *testing.T) {
	b := NewBreaker[string]("anthropic", DefaultBreakerConfig(), nil, nil)

	got, err := b.Execute(func() (string, error) { return "ok", nil })
	require.NoError(t, err)
	assert.Equal(t, "ok", got)
	assert.Equal(t, "closed", b.State())
}

package observability

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusMetrics_Counter(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewPrometheusMetrics(reg, nil)

	m.Counter(MetricBookingsChecked, 1, T("status", "conflict"))
	m.Counter(MetricBookingsChecked, 2, T("status", "conflict"))
	m.Counter(MetricBookingsChecked, 1, T("status", "clear"))

	vec := m.counters[MetricBookingsChecked]
	require.NotNil(t, vec)
	assert.Equal(t, 3.0, testutil.ToFloat64(vec.WithLabelValues("conflict")))
	assert.Equal(t, 1.0, testutil.ToFloat64(vec.WithLabelValues("clear")))
}

func TestPrometheusMetrics_GaugeAndTiming(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewPrometheusMetrics(reg, nil)

	m.Gauge("flightwatch_open_conflicts", 4)
	m.Timing(MetricBatchDuration, 250*time.Millisecond)

	assert.Equal(t, 4.0, testutil.ToFloat64(m.gauges["flightwatch_open_conflicts"].WithLabelValues()))
	assert.Equal(t, 1, testutil.CollectAndCount(m.histograms[MetricBatchDuration]))
}

func TestPrometheusMetrics_MismatchedLabelsAreDropped(t *testing.T) {
	m := NewPrometheusMetrics(nil, nil)

	m.Counter(MetricProviderCalls, 1, T("provider", "openai"))
	assert.NotPanics(t, func() {
		m.Counter(MetricProviderCalls, 1, T("provider", "openai"), T("outcome", "ok"))
	})
	assert.Equal(t, 1.0, testutil.ToFloat64(m.counters[MetricProviderCalls].WithLabelValues("openai")))
}

func TestPrometheusMetrics_SharedRegistryReusesCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	first := NewPrometheusMetrics(reg, nil)
	second := NewPrometheusMetrics(reg, nil)

	first.Counter(MetricEventsPublished, 1)
	second.Counter(MetricEventsPublished, 1)

	assert.Equal(t, 2.0, testutil.ToFloat64(first.counters[MetricEventsPublished].WithLabelValues()))
}

func TestPrometheusMetrics_Handler(t *testing.T) {
	m := NewPrometheusMetrics(nil, nil)
	m.Counter(MetricConflictsResolved, 1)

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), MetricConflictsResolved+" 1")
}

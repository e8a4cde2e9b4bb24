package telemetry

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	m := New()
	m.ObserveRun("health", 3*time.Millisecond)
	m.ObserveRun("health", time.Millisecond)
	m.ObserveRun("cohesion", time.Millisecond)
	m.Fallback("health")
	m.ReportDone()
	m.SetScore("sq1", "health", 75)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.runs.WithLabelValues("health")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("cohesion")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.fallbacks.WithLabelValues("health")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.reports))
	assert.Equal(t, 75.0, testutil.ToFloat64(m.scores.WithLabelValues("sq1", "health")))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveRun("x", time.Second)
		m.Fallback("x")
		m.ReportDone()
		m.SetScore("sq", "health", 1)
	})
	assert.Nil(t, m.Registry())
	assert.Error(t, m.WriteTextfile(filepath.Join(t.TempDir(), "m.prom")))
}

func TestMetrics_WriteTextfile(t *testing.T) {
	m := New()
	m.Fallback("coverage")

	path := filepath.Join(t.TempDir(), "squadpulse.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `squadpulse_analyzer_fallbacks_total{analyzer="coverage"} 1`)
}

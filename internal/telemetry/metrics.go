// Package telemetry holds the Prometheus collectors for analyzer runs.
package telemetry

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "squadpulse"

// Metrics is a private registry of analyzer collectors. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	runs      *prometheus.CounterVec
	fallbacks *prometheus.CounterVec
	duration  *prometheus.HistogramVec
	reports   prometheus.Counter
	scores    *prometheus.GaugeVec
}

// New creates and registers the analyzer collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analyzer_runs_total",
			Help:      "Analyzer invocations by analyzer name.",
		}, []string{"analyzer"}),
		fallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analyzer_fallbacks_total",
			Help:      "Analyzer invocations that returned a default because data could not be fetched.",
		}, []string{"analyzer"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "analyzer_duration_seconds",
			Help:      "Wall time per analyzer invocation, fetch included.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 8),
		}, []string{"analyzer"}),
		reports: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reports_total",
			Help:      "Full squad reports produced.",
		}),
		scores: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "squad_score",
			Help:      "Latest 0-100 score per squad and kind (health, cohesion, confidence, coverage).",
		}, []string{"squad", "kind"}),
	}
	m.registry.MustRegister(m.runs, m.fallbacks, m.duration, m.reports, m.scores)
	return m
}

// Registry exposes the underlying registry for gathering.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveRun records one analyzer invocation.
func (m *Metrics) ObserveRun(analyzer string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(analyzer).Inc()
	m.duration.WithLabelValues(analyzer).Observe(elapsed.Seconds())
}

// Fallback records an analyzer that returned its default.
func (m *Metrics) Fallback(analyzer string) {
	if m == nil {
		return
	}
	m.fallbacks.WithLabelValues(analyzer).Inc()
}

// ReportDone counts a completed squad report.
func (m *Metrics) ReportDone() {
	if m == nil {
		return
	}
	m.reports.Inc()
}

// SetScore stores the latest score of the given kind for a squad.
func (m *Metrics) SetScore(squadID, kind string, value int) {
	if m == nil {
		return
	}
	m.scores.WithLabelValues(squadID, kind).Set(float64(value))
}

// WriteTextfile writes the registry in the node_exporter textfile format.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil {
		return fmt.Errorf("write metrics: telemetry disabled")
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics %s: %w", path, err)
	}
	return nil
}

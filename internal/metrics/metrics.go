// Package metrics holds the Prometheus collectors for generation and render runs.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Unit outcomes
const (
	OutcomeSuccess        = "success"
	OutcomeGenerateFailed = "generate_failed"
	OutcomeRenderFailed   = "render_failed"
	OutcomeStoreFailed    = "store_failed"
	OutcomeCanceled       = "canceled"
)

var (
	// UnitsTotal counts batch units by outcome.
	UnitsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reel_units_total",
		Help: "Total number of batch units, by outcome.",
	}, []string{"outcome"})

	// SolverFailuresTotal counts duration solver failures by timing mode.
	SolverFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reel_solver_failures_total",
		Help: "Total number of duration solver failures, by timing mode.",
	}, []string{"mode"})

	// RenderDuration observes wall time spent in the renderer.
	RenderDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "reel_render_duration_seconds",
		Help:    "Wall time of one render.",
		Buckets: []float64{0.5, 1, 2, 5, 10, 20, 40, 80, 160},
	})

	// ComposedDuration observes the output length of composed videos.
	ComposedDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "reel_composed_duration_seconds",
		Help:    "Output duration of composed videos.",
		Buckets: prometheus.LinearBuckets(5, 5, 12),
	})
)

func RecordUnit(outcome string) {
	UnitsTotal.WithLabelValues(outcome).Inc()
}

func RecordSolverFailure(mode string) {
	SolverFailuresTotal.WithLabelValues(mode).Inc()
}

func ObserveRender(d time.Duration) {
	RenderDuration.Observe(d.Seconds())
}

func ObserveComposed(seconds float64) {
	ComposedDuration.Observe(seconds)
}

// WriteTextfile dumps the default registry in the node_exporter textfile format
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}

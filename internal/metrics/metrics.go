// Package metrics exposes Prometheus collectors for the lifecycle service.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	lifecycleActionsTotal        *prometheus.CounterVec
	lifecyclePassesTotal         *prometheus.CounterVec
	lifecyclePassDurationSeconds prometheus.Histogram
	lifecycleLiveBatches         prometheus.Gauge

	once sync.Once
)

// Init initializes the Prometheus metrics collectors.
// It is safe to call this function multiple times.
func Init() {
	once.Do(func() {
		lifecycleActionsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "promokeeper_actions_total",
				Help: "Total lifecycle actions applied, labeled by action and outcome.",
			},
			[]string{"action", "outcome"},
		)

		lifecyclePassesTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "promokeeper_passes_total",
				Help: "Total lifecycle passes executed, labeled by status.",
			},
			[]string{"status"},
		)

		lifecyclePassDurationSeconds = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "promokeeper_pass_duration_seconds",
				Help:    "Histogram of full lifecycle pass durations.",
				Buckets: []float64{0.1, 0.5, 1, 5, 15, 60, 300},
			},
		)

		lifecycleLiveBatches = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "promokeeper_live_batches",
				Help: "Number of live batch directories under the output root.",
			},
		)
	})
}

// ObserveAction records one applied (or attempted) lifecycle action.
func ObserveAction(action, outcome string) {
	if lifecycleActionsTotal == nil {
		return
	}
	lifecycleActionsTotal.WithLabelValues(action, outcome).Inc()
}

// ObservePass records the completion of a full lifecycle pass.
func ObservePass(status string, d time.Duration) {
	if lifecyclePassesTotal == nil {
		return
	}
	lifecyclePassesTotal.WithLabelValues(status).Inc()
	lifecyclePassDurationSeconds.Observe(d.Seconds())
}

// SetLiveBatches updates the live batch gauge.
func SetLiveBatches(n int) {
	if lifecycleLiveBatches == nil {
		return
	}
	lifecycleLiveBatches.Set(float64(n))
}

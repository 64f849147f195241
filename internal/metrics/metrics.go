package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// metricsOnce ensures metrics are registered only once
	metricsOnce sync.Once

	// scoresTotal counts successfully scored records by band
	scoresTotal *prometheus.CounterVec

	// scoreErrorsTotal counts failed scoring calls by error kind
	scoreErrorsTotal *prometheus.CounterVec

	// scoreDuration tracks latency of scoring calls
	scoreDuration prometheus.Histogram

	// reloadsTotal counts scorecard reload attempts by status
	reloadsTotal *prometheus.CounterVec

	// scorecardVersion is the version of the live scorecard
	scorecardVersion prometheus.Gauge
)

// Init registers all metrics with the default registry.
// This should be called once at application startup; later calls are no-ops.
func Init() {
	metricsOnce.Do(func() {
		scoresTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "changerisk_scores_total",
				Help: "Total number of scored change records by risk band",
			},
			[]string{"band"},
		)

		scoreErrorsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "changerisk_score_errors_total",
				Help: "Total number of failed scoring calls by error kind",
			},
			[]string{"kind"},
		)

		scoreDuration = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "changerisk_score_duration_seconds",
				Help:    "Duration of scoring calls in seconds",
				Buckets: []float64{0.00005, 0.0001, 0.00025, 0.0005, 0.001, 0.005, 0.01},
			},
		)

		reloadsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "changerisk_scorecard_reloads_total",
				Help: "Total number of scorecard reload attempts by status",
			},
			[]string{"status"},
		)

		scorecardVersion = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "changerisk_scorecard_version",
				Help: "Version of the live scorecard",
			},
		)
	})
}

// RecordScore records a successful scoring call.
func RecordScore(band string, duration time.Duration) {
	if scoresTotal == nil {
		return
	}
	scoresTotal.WithLabelValues(band).Inc()
	scoreDuration.Observe(duration.Seconds())
}

// RecordScoreError records a failed scoring call.
func RecordScoreError(kind string) {
	if scoreErrorsTotal == nil {
		return
	}
	scoreErrorsTotal.WithLabelValues(kind).Inc()
}

// RecordReload records a reload attempt; version is only applied on success.
func RecordReload(version int, success bool) {
	if reloadsTotal == nil {
		return
	}
	if !success {
		reloadsTotal.WithLabelValues("failure").Inc()
		return
	}
	reloadsTotal.WithLabelValues("success").Inc()
	scorecardVersion.Set(float64(version))
}

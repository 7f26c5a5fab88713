package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain repository.Metrics using Prometheus.
type Recorder struct {
	refineRuns     *prometheus.CounterVec
	rowsRefined    *prometheus.CounterVec
	limitUpEvents  *prometheus.CounterVec
	rowsDropped    *prometheus.CounterVec
	errorsTotal    *prometheus.CounterVec
	refineDuration *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		refineRuns: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "refinery_refine_runs_total",
				Help: "Refine runs by market and terminal status",
			},
			[]string{"market", "status"},
		),
		rowsRefined: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "refinery_rows_refined_total",
				Help: "Enriched rows written per market",
			},
			[]string{"market"},
		),
		limitUpEvents: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "refinery_limit_up_events_total",
				Help: "Qualifying limit-up rows per market",
			},
			[]string{"market"},
		),
		rowsDropped: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "refinery_rows_dropped_total",
				Help: "Raw rows dropped during normalization per market",
			},
			[]string{"market"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "refinery_errors_total",
				Help: "Errors by kind",
			},
			[]string{"type"},
		),
		refineDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "refinery_refine_duration_seconds",
				Help:    "Wall time of a full market refine",
				Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
			},
			[]string{"market"},
		),
	}
}

// RecordRefine records the outcome of one refine run.
func (r *Recorder) RecordRefine(market, status string, rows, limitUps, dropped int) {
	r.refineRuns.WithLabelValues(market, status).Inc()
	r.rowsRefined.WithLabelValues(market).Add(float64(rows))
	r.limitUpEvents.WithLabelValues(market).Add(float64(limitUps))
	r.rowsDropped.WithLabelValues(market).Add(float64(dropped))
}

// RecordRefineDuration records the wall time of a refine run.
func (r *Recorder) RecordRefineDuration(market string, seconds float64) {
	r.refineDuration.WithLabelValues(market).Observe(seconds)
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

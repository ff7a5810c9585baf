// Package metrics provides Prometheus metrics for HTTP serving and the
// retrieval pipeline:
//   - http_request_total / http_request_duration_seconds / http_request_in_flight
//   - queries_total: queries by terminal state and source/reason
//   - shortcut_hits_total: queries answered without the ranker
//   - embedding_duration_seconds: provider latency at index build and query time
//   - corpus_medicines: size of the currently served corpus
//
// All metrics register with the Prometheus default registry at package init.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	HTTPRequestTotals = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_request_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"method", "path"},
	)

	HTTPRequestInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_request_in_flight",
			Help: "Current in-flight requests",
		},
	)

	QueriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "queries_total",
			Help: "Questions processed, by terminal state and source or reason",
		},
		[]string{"state", "detail"},
	)

	ShortcutHitsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "shortcut_hits_total",
			Help: "Questions answered by the field-rule table without ranking",
		},
	)

	EmbeddingDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "embedding_duration_seconds",
			Help:    "Embedding provider call latency",
			Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
		},
	)

	CorpusMedicines = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "corpus_medicines",
			Help: "Medicines in the currently served corpus",
		},
	)
)

func init() {
	prometheus.MustRegister(HTTPRequestTotals)
	prometheus.MustRegister(HTTPRequestDuration)
	prometheus.MustRegister(HTTPRequestInFlight)
	prometheus.MustRegister(QueriesTotal)
	prometheus.MustRegister(ShortcutHitsTotal)
	prometheus.MustRegister(EmbeddingDuration)
	prometheus.MustRegister(CorpusMedicines)
}

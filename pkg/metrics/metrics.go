// Package metrics defines the Prometheus collectors used by the search
// service and exposes an HTTP handler for scraping.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus collectors for the service.
type Metrics struct {
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge
	SearchQueriesTotal   *prometheus.CounterVec
	SearchLatency        *prometheus.HistogramVec
	SearchResultsCount   prometheus.Histogram
	SearchCandidates     prometheus.Histogram
	CacheHitsTotal       prometheus.Counter
	CacheMissesTotal     prometheus.Counter
	DocsIndexed          prometheus.Gauge
	VocabularySize       prometheus.Gauge
	FitDuration          prometheus.Gauge
	HistoryErrorsTotal   prometheus.Counter
}

// New creates the collectors and registers them on reg. Pass
// prometheus.DefaultRegisterer in production and prometheus.NewRegistry()
// in tests so several instances can coexist.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests by method, path, and status.",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds.",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed.",
			},
		),
		SearchQueriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "search_queries_total",
				Help: "Total search queries by result type (hit, miss, zero_result, error).",
			},
			[]string{"result_type"},
		),
		SearchLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "search_latency_seconds",
				Help:    "Search query latency in seconds.",
				Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
			},
			[]string{"cache_status"},
		),
		SearchResultsCount: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "search_results_count",
				Help:    "Number of results returned per search query.",
				Buckets: []float64{0, 1, 2, 3, 5, 10, 25, 50, 100},
			},
		),
		SearchCandidates: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "search_candidates_count",
				Help:    "Size of the candidate set gathered from posting lists per query.",
				Buckets: prometheus.ExponentialBuckets(1, 4, 9),
			},
		),
		CacheHitsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "cache_hits_total",
				Help: "Total number of cache hits.",
			},
		),
		CacheMissesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "cache_misses_total",
				Help: "Total number of cache misses.",
			},
		),
		DocsIndexed: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "index_documents",
				Help: "Documents in the fitted index.",
			},
		),
		VocabularySize: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "index_vocabulary_size",
				Help: "Distinct terms in the fitted vocabulary.",
			},
		),
		FitDuration: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "index_fit_duration_seconds",
				Help: "Wall time spent building the fitted index at startup.",
			},
		),
		HistoryErrorsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "history_record_errors_total",
				Help: "Search history entries that could not be recorded.",
			},
		),
	}

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPRequestsInFlight,
		m.SearchQueriesTotal,
		m.SearchLatency,
		m.SearchResultsCount,
		m.SearchCandidates,
		m.CacheHitsTotal,
		m.CacheMissesTotal,
		m.DocsIndexed,
		m.VocabularySize,
		m.FitDuration,
		m.HistoryErrorsTotal,
	)

	return m
}

// Handler returns the Prometheus scrape HTTP handler for g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

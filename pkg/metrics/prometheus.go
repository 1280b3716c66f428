// Package metrics provides Prometheus metrics for the crema advisor service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the advisor.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Optimizer metrics
	observationsIngested prometheus.Counter
	observationsRejected prometheus.Counter
	suggestionsServed    prometheus.Counter
	suggestionFailures   prometheus.Counter
	curveRequests        prometheus.Counter
	fitDuration          prometheus.Histogram
	statesTracked        prometheus.Gauge

	// Storage metrics
	storeErrors prometheus.Counter

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid default Go metrics.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithRegistry(customRegistry))
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "crema",
		subsystem:        "advisor",
		histogramBuckets: prometheus.DefBuckets,
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()

	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.observationsIngested = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "observations_ingested_total",
		Help:      "Total number of rated runs encoded into optimizer observations",
	})

	m.observationsRejected = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "observations_rejected_total",
		Help:      "Total number of runs rejected for missing or invalid parameter values",
	})

	m.suggestionsServed = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "suggestions_served_total",
		Help:      "Total number of parameter suggestions returned to callers",
	})

	m.suggestionFailures = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "suggestion_failures_total",
		Help:      "Total number of suggestion attempts swallowed as unavailable",
	})

	m.curveRequests = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "curve_requests_total",
		Help:      "Total number of prediction curve extractions",
	})

	m.fitDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "fit_duration_milliseconds",
		Help:      "Histogram of Gaussian process fit duration in milliseconds",
		Buckets:   m.histogramBuckets,
	})

	m.statesTracked = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "states_tracked",
		Help:      "Current number of per-pair optimizer states in the store",
	})

	m.storeErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "store_errors_total",
		Help:      "Total number of durable store failures",
	})

	m.httpRequests = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests by endpoint and method",
		},
		[]string{"endpoint", "method", "status_code"},
	)

	m.httpRequestDuration = auto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "http_request_duration_milliseconds",
			Help:      "HTTP request duration in milliseconds",
			Buckets:   m.histogramBuckets,
		},
		[]string{"endpoint", "method", "status_code"},
	)
}

// Registry returns the gatherer backing the global manager, for /metrics.
func Registry() *prometheus.Registry {
	return customRegistry
}

// Package-level helpers against the global manager.

func RecordObservationIngested() {
	globalManager.observationsIngested.Inc()
}

func RecordObservationRejected() {
	globalManager.observationsRejected.Inc()
}

func RecordSuggestionServed() {
	globalManager.suggestionsServed.Inc()
}

func RecordSuggestionFailure() {
	globalManager.suggestionFailures.Inc()
}

func RecordCurveRequest() {
	globalManager.curveRequests.Inc()
}

func RecordFitDuration(latencyMs float64) {
	globalManager.fitDuration.Observe(latencyMs)
}

func UpdateStatesTracked(count int) {
	globalManager.statesTracked.Set(float64(count))
}

func RecordStoreError() {
	globalManager.storeErrors.Inc()
}

func RecordHTTPRequest(endpoint, method, statusCode string) {
	globalManager.httpRequests.WithLabelValues(endpoint, method, statusCode).Inc()
}

func RecordHTTPRequestDuration(endpoint, method, statusCode string, durationMs float64) {
	globalManager.httpRequestDuration.WithLabelValues(endpoint, method, statusCode).Observe(durationMs)
}

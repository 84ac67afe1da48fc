// Package metrics provides Prometheus metrics for the RFP pipeline and its HTTP API.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Manager owns the pipeline metrics and the registry they live on.
type Manager struct {
	namespace        string
	histogramBuckets []float64
	registry         *prometheus.Registry

	runs            *prometheus.CounterVec
	stageDuration   *prometheus.HistogramVec
	vendorsDropped  *prometheus.CounterVec
	escalations     *prometheus.CounterVec
	winProbability  prometheus.Histogram
	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
	extractorSource *prometheus.CounterVec
}

// NewManager registers every metric on a fresh registry unless one is supplied.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "rfp_agent",
		histogramBuckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
		registry:         prometheus.NewRegistry(),
	}
	for _, opt := range opts {
		opt(m)
	}
	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.registry.MustRegister(collectors.NewGoCollector())

	m.runs = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "runs_total",
		Help:      "Pipeline runs by final status",
	}, []string{"status"})

	m.stageDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Name:      "stage_duration_milliseconds",
		Help:      "Duration of each pipeline stage in milliseconds",
		Buckets:   m.histogramBuckets,
	}, []string{"stage"})

	m.vendorsDropped = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "vendors_dropped_total",
		Help:      "Vendors excluded from quoting, by reason",
	}, []string{"reason"})

	m.escalations = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "escalations_total",
		Help:      "Runs flagged for human review, by priority",
	}, []string{"priority"})

	m.winProbability = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Name:      "win_probability_percent",
		Help:      "Estimated win probability of completed runs",
		Buckets:   prometheus.LinearBuckets(10, 10, 9),
	})

	m.extractorSource = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "extraction_source_total",
		Help:      "Where extracted requirement figures came from",
	}, []string{"source"})

	m.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: m.namespace,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests by endpoint and method",
	}, []string{"endpoint", "method", "status_code"})

	m.httpDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Name:      "http_request_duration_milliseconds",
		Help:      "HTTP request duration in milliseconds",
		Buckets:   m.histogramBuckets,
	}, []string{"endpoint", "method", "status_code"})
}

// RecordRun counts a finished run.
func (m *Manager) RecordRun(status string) {
	m.runs.WithLabelValues(status).Inc()
}

// ObserveStage records how long a stage took.
func (m *Manager) ObserveStage(stage string, d time.Duration) {
	m.stageDuration.WithLabelValues(stage).Observe(float64(d.Microseconds()) / 1000)
}

// RecordVendorDropped counts a vendor excluded from quoting.
func (m *Manager) RecordVendorDropped(reason string) {
	m.vendorsDropped.WithLabelValues(reason).Inc()
}

// RecordEscalation counts a run sent for review.
func (m *Manager) RecordEscalation(priority string) {
	m.escalations.WithLabelValues(priority).Inc()
}

// ObserveWinProbability records a run's estimate.
func (m *Manager) ObserveWinProbability(p int) {
	m.winProbability.Observe(float64(p))
}

// RecordExtractionSource counts where extraction found its figures.
func (m *Manager) RecordExtractionSource(source string) {
	m.extractorSource.WithLabelValues(source).Inc()
}

// RecordHTTPRequest counts a request and its latency.
func (m *Manager) RecordHTTPRequest(endpoint, method string, status int, d time.Duration) {
	code := strconv.Itoa(status)
	m.httpRequests.WithLabelValues(endpoint, method, code).Inc()
	m.httpDuration.WithLabelValues(endpoint, method, code).Observe(float64(d.Microseconds()) / 1000)
}

// Registry exposes the underlying registry.
func (m *Manager) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Manager) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics collects application metrics for the dashboard service:
//   - HTTP API request rates and latencies
//   - Upstream agent-invocation performance
//   - Record store operation rates and latencies
//   - Evaluations recorded
type Metrics struct {
	// HTTPRequestCounter counts HTTP requests.
	// Labels: method, path, status_code
	HTTPRequestCounter *prometheus.CounterVec

	// HTTPRequestDuration measures HTTP request latency in seconds.
	// Labels: method, path
	HTTPRequestDuration *prometheus.HistogramVec

	// UpstreamRequestCounter counts agent-invocation calls by outcome.
	// Labels: status (HTTP status code or "unavailable")
	UpstreamRequestCounter *prometheus.CounterVec

	// UpstreamRequestDuration measures agent-invocation round trips in
	// seconds. Generation calls are slow; buckets reach two minutes.
	UpstreamRequestDuration prometheus.Histogram

	// StoreOperationCounter counts record store calls.
	// Labels: operation (put|get|scan), status (success|error)
	StoreOperationCounter *prometheus.CounterVec

	// StoreOperationDuration measures store call latency in seconds.
	// Labels: operation
	StoreOperationDuration *prometheus.HistogramVec

	// EvaluationsRecorded counts persisted evaluation records.
	EvaluationsRecorded prometheus.Counter
}

// NewMetrics creates and registers all Prometheus metrics. A nil
// registerer uses the default registry; tests pass their own to stay
// isolated.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		HTTPRequestCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "evaldeck_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status_code"},
		),

		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "evaldeck_http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
			},
			[]string{"method", "path"},
		),

		UpstreamRequestCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "evaldeck_upstream_requests_total",
				Help: "Total number of agent-invocation requests by status",
			},
			[]string{"status"},
		),

		UpstreamRequestDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "evaldeck_upstream_request_duration_seconds",
				Help:    "Duration of agent-invocation round trips in seconds",
				Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 120},
			},
		),

		StoreOperationCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "evaldeck_store_operations_total",
				Help: "Total number of record store operations",
			},
			[]string{"operation", "status"},
		),

		StoreOperationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "evaldeck_store_operation_duration_seconds",
				Help:    "Duration of record store operations in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
			},
			[]string{"operation"},
		),

		EvaluationsRecorded: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "evaldeck_evaluations_recorded_total",
				Help: "Total number of evaluation records written",
			},
		),
	}
}

// RecordHTTPRequest records one served HTTP request.
func (m *Metrics) RecordHTTPRequest(method, path, statusCode string, duration time.Duration) {
	m.HTTPRequestCounter.WithLabelValues(method, path, statusCode).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// UpstreamRequest records one agent-invocation round trip.
func (m *Metrics) UpstreamRequest(status string, duration time.Duration) {
	m.UpstreamRequestCounter.WithLabelValues(status).Inc()
	m.UpstreamRequestDuration.Observe(duration.Seconds())
}

// StoreOperation records one record store call.
func (m *Metrics) StoreOperation(operation string, err error, duration time.Duration) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.StoreOperationCounter.WithLabelValues(operation, status).Inc()
	m.StoreOperationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// EvaluationRecorded counts one persisted evaluation.
func (m *Metrics) EvaluationRecorded() {
	m.EvaluationsRecorded.Inc()
}

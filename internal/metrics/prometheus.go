package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusMetrics contains all Prometheus metrics for YieldForge
type PrometheusMetrics struct {
	// Operation metrics
	OperationsTotal   *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec
	ApprovalsTotal    prometheus.Counter
	ApprovalDuration  prometheus.Histogram

	// Transaction submission metrics
	SubmissionRetriesTotal *prometheus.CounterVec
	GasEstimationFallbacks prometheus.Counter
	TxConfirmationDuration prometheus.Histogram

	// Connection and error metrics
	ConnectionErrorsTotal *prometheus.CounterVec
	RPCRequestsTotal      *prometheus.CounterVec
	RPCRequestDuration    *prometheus.HistogramVec

	// Journal metrics
	JournalEntriesTotal   *prometheus.CounterVec
	JournalEntriesCurrent prometheus.Gauge
	JournalTruncations    prometheus.Counter
	StoreOperationsTotal  *prometheus.CounterVec

	// API metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Recommendation service metrics
	RecommenderRequestsTotal   *prometheus.CounterVec
	RecommenderRequestDuration *prometheus.HistogramVec

	// Application health metrics
	ApplicationUptime prometheus.Gauge
	ComponentHealth   *prometheus.GaugeVec
	MemoryUsage       prometheus.Gauge
	GoroutineCount    prometheus.Gauge
}

// NewPrometheusMetrics creates and registers all Prometheus metrics
func NewPrometheusMetrics() *PrometheusMetrics {
	return &PrometheusMetrics{
		// Operation metrics
		OperationsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "yieldforge_operations_total",
				Help: "Total number of orchestrated operations",
			},
			[]string{"kind", "status"},
		),

		OperationDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "yieldforge_operation_duration_seconds",
				Help:    "End-to-end duration of approve-then-execute sequences",
				Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 120},
			},
			[]string{"kind"},
		),

		ApprovalsTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "yieldforge_approvals_total",
				Help: "Total number of token approvals submitted",
			},
		),

		ApprovalDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "yieldforge_approval_duration_seconds",
				Help:    "Duration of the approval step including settle",
				Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60},
			},
		),

		// Transaction submission metrics
		SubmissionRetriesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "yieldforge_submission_retries_total",
				Help: "Total number of transaction submission retries",
			},
			[]string{"reason"},
		),

		GasEstimationFallbacks: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "yieldforge_gas_estimation_fallbacks_total",
				Help: "Total number of submissions that fell back to the fixed gas limit",
			},
		),

		TxConfirmationDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "yieldforge_tx_confirmation_duration_seconds",
				Help:    "Time from submission to receipt availability",
				Buckets: []float64{1, 3, 5, 10, 30, 60, 120, 300},
			},
		),

		// Connection and error metrics
		ConnectionErrorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "yieldforge_connection_errors_total",
				Help: "Total number of connection errors to chain nodes",
			},
			[]string{"endpoint", "error_type"},
		),

		RPCRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "yieldforge_rpc_requests_total",
				Help: "Total number of RPC requests made to chain nodes",
			},
			[]string{"method", "status"},
		),

		RPCRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "yieldforge_rpc_request_duration_seconds",
				Help:    "Duration of RPC requests to chain nodes",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method"},
		),

		// Journal metrics
		JournalEntriesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "yieldforge_journal_entries_total",
				Help: "Total number of journal entries recorded",
			},
			[]string{"kind", "status"},
		),

		JournalEntriesCurrent: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "yieldforge_journal_entries_current",
				Help: "Number of entries currently held by the journal",
			},
		),

		JournalTruncations: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "yieldforge_journal_truncations_total",
				Help: "Total number of times the journal dropped entries past its cap",
			},
		),

		StoreOperationsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "yieldforge_store_operations_total",
				Help: "Total number of journal store operations",
			},
			[]string{"operation", "status"},
		),

		// API metrics
		HTTPRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "yieldforge_http_requests_total",
				Help: "Total number of HTTP requests received",
			},
			[]string{"method", "path", "status"},
		),

		HTTPRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "yieldforge_http_request_duration_seconds",
				Help:    "Duration of HTTP requests",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		// Recommendation service metrics
		RecommenderRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "yieldforge_recommender_requests_total",
				Help: "Total number of requests to the recommendation service",
			},
			[]string{"endpoint", "status"},
		),

		RecommenderRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "yieldforge_recommender_request_duration_seconds",
				Help:    "Duration of recommendation service requests",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"endpoint"},
		),

		// Application health metrics
		ApplicationUptime: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "yieldforge_application_uptime_seconds",
				Help: "Application uptime in seconds",
			},
		),

		ComponentHealth: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "yieldforge_component_health",
				Help: "Health status of application components (1=healthy, 0=unhealthy)",
			},
			[]string{"component"},
		),

		MemoryUsage: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "yieldforge_memory_usage_bytes",
				Help: "Current memory usage in bytes",
			},
		),

		GoroutineCount: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "yieldforge_goroutines",
				Help: "Number of running goroutines",
			},
		),
	}
}

// RecordOperation records a completed orchestrated operation
func (m *PrometheusMetrics) RecordOperation(kind, status string, duration time.Duration) {
	m.OperationsTotal.WithLabelValues(kind, status).Inc()
	m.OperationDuration.WithLabelValues(kind).Observe(duration.Seconds())
}

// RecordApproval records a completed approval step
func (m *PrometheusMetrics) RecordApproval(duration time.Duration) {
	m.ApprovalsTotal.Inc()
	m.ApprovalDuration.Observe(duration.Seconds())
}

// RecordSubmissionRetry records a transaction submission retry
func (m *PrometheusMetrics) RecordSubmissionRetry(reason string) {
	m.SubmissionRetriesTotal.WithLabelValues(reason).Inc()
}

// RecordGasEstimationFallback records a submission that used the fixed gas limit
func (m *PrometheusMetrics) RecordGasEstimationFallback() {
	m.GasEstimationFallbacks.Inc()
}

// RecordTxConfirmation records the time a transaction took to confirm
func (m *PrometheusMetrics) RecordTxConfirmation(duration time.Duration) {
	m.TxConfirmationDuration.Observe(duration.Seconds())
}

// RecordConnectionError records a connection error
func (m *PrometheusMetrics) RecordConnectionError(endpoint, errorType string) {
	m.ConnectionErrorsTotal.WithLabelValues(endpoint, errorType).Inc()
}

// RecordRPCRequest records an RPC request by JSON-RPC method name
func (m *PrometheusMetrics) RecordRPCRequest(method, status string, duration time.Duration) {
	m.RPCRequestsTotal.WithLabelValues(method, status).Inc()
	m.RPCRequestDuration.WithLabelValues(method).Observe(duration.Seconds())
}

// RecordJournalEntry records a journal entry reaching a status
func (m *PrometheusMetrics) RecordJournalEntry(kind, status string) {
	m.JournalEntriesTotal.WithLabelValues(kind, status).Inc()
}

// UpdateJournalSize updates the current journal entry count
func (m *PrometheusMetrics) UpdateJournalSize(count int) {
	m.JournalEntriesCurrent.Set(float64(count))
}

// RecordJournalTruncation records entries being dropped past the cap
func (m *PrometheusMetrics) RecordJournalTruncation() {
	m.JournalTruncations.Inc()
}

// RecordStoreOperation records a journal store operation
func (m *PrometheusMetrics) RecordStoreOperation(operation, status string) {
	m.StoreOperationsTotal.WithLabelValues(operation, status).Inc()
}

// RecordHTTPRequest records an HTTP request
func (m *PrometheusMetrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordRecommenderRequest records a recommendation service request
func (m *PrometheusMetrics) RecordRecommenderRequest(endpoint, status string, duration time.Duration) {
	m.RecommenderRequestsTotal.WithLabelValues(endpoint, status).Inc()
	m.RecommenderRequestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

// UpdateApplicationUptime updates the application uptime metric
func (m *PrometheusMetrics) UpdateApplicationUptime(startTime time.Time) {
	m.ApplicationUptime.Set(time.Since(startTime).Seconds())
}

// UpdateComponentHealth updates the health status of a component
func (m *PrometheusMetrics) UpdateComponentHealth(component string, healthy bool) {
	value := 0.0
	if healthy {
		value = 1.0
	}
	m.ComponentHealth.WithLabelValues(component).Set(value)
}

// UpdateMemoryUsage updates the memory usage metric
func (m *PrometheusMetrics) UpdateMemoryUsage(bytes uint64) {
	m.MemoryUsage.Set(float64(bytes))
}

// UpdateGoroutineCount updates the goroutine count metric
func (m *PrometheusMetrics) UpdateGoroutineCount(count int) {
	m.GoroutineCount.Set(float64(count))
}

package metrics

import (
	"runtime"
	"time"

	"github.com/sirupsen/logrus"
)

// Manager handles all application metrics
type Manager struct {
	prometheus *PrometheusMetrics
	logger     *logrus.Entry
	startTime  time.Time
}

// NewManager creates a new metrics manager
func NewManager() *Manager {
	return &Manager{
		prometheus: NewPrometheusMetrics(),
		logger:     logrus.WithField("component", "metrics"),
		startTime:  time.Now(),
	}
}

// GetPrometheusMetrics returns the Prometheus metrics instance
func (m *Manager) GetPrometheusMetrics() *PrometheusMetrics {
	return m.prometheus
}

// RecordOperation records a completed orchestrated operation
func (m *Manager) RecordOperation(kind, status string, duration time.Duration) {
	m.prometheus.RecordOperation(kind, status, duration)
}

// RecordApproval records a completed approval step
func (m *Manager) RecordApproval(duration time.Duration) {
	m.prometheus.RecordApproval(duration)
}

// RecordHTTPRequest records an HTTP request
func (m *Manager) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	m.prometheus.RecordHTTPRequest(method, path, status, duration)
}

// UpdateSystemMetrics updates system-level metrics like memory and goroutines
func (m *Manager) UpdateSystemMetrics() {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	m.prometheus.UpdateMemoryUsage(memStats.Alloc)
	m.prometheus.UpdateGoroutineCount(runtime.NumGoroutine())
	m.prometheus.UpdateApplicationUptime(m.startTime)
}

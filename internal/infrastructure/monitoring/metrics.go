package monitoring

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	RequestSize     *prometheus.HistogramVec
	ResponseSize    *prometheus.HistogramVec

	// Operation metrics
	OperationCalls    *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec
	OperationErrors   *prometheus.CounterVec
	PathRejections    *prometheus.CounterVec

	// Archive metrics
	ArchiveBytes *prometheus.CounterVec

	startTime time.Time

	snapshot Snapshot
	mu       sync.RWMutex
}

// Snapshot holds running totals for the JSON health endpoint
type Snapshot struct {
	UptimeSeconds   float64 `json:"uptime_seconds"`
	Operations      int64   `json:"operations"`
	OperationErrors int64   `json:"operation_errors"`
	PathRejections  int64   `json:"path_rejections"`
}

// NewMetrics registers all collectors with reg. Pass a fresh
// prometheus.NewRegistry() in tests.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	m := &Metrics{
		startTime: time.Now(),

		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "homefs_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "homefs_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		RequestSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "homefs_http_request_size_bytes",
				Help:    "HTTP request size in bytes",
				Buckets: []float64{100, 1000, 10000, 100000, 1000000, 10000000},
			},
			[]string{"method", "path"},
		),
		ResponseSize: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "homefs_http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: []float64{100, 1000, 10000, 100000, 1000000, 10000000},
			},
			[]string{"method", "path"},
		),

		OperationCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "homefs_operation_calls_total",
				Help: "Total number of dispatched filesystem operations",
			},
			[]string{"tool", "status"},
		),
		OperationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "homefs_operation_duration_seconds",
				Help:    "Filesystem operation duration in seconds",
				Buckets: []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"tool"},
		),
		OperationErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "homefs_operation_errors_total",
				Help: "Total number of failed operations by error kind",
			},
			[]string{"tool", "kind"},
		),
		PathRejections: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "homefs_path_rejections_total",
				Help: "Paths rejected by the sandbox",
			},
			[]string{"tool"},
		),

		ArchiveBytes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "homefs_archive_bytes_total",
				Help: "Uncompressed bytes written into or out of archives",
			},
			[]string{"direction"},
		),
	}

	factory.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "homefs_uptime_seconds",
			Help: "Process uptime in seconds",
		},
		func() float64 { return time.Since(m.startTime).Seconds() },
	)

	return m
}

// RecordHTTPRequest records an HTTP request
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration, reqSize, respSize int64) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	m.RequestSize.WithLabelValues(method, path).Observe(float64(reqSize))
	m.ResponseSize.WithLabelValues(method, path).Observe(float64(respSize))
}

// RecordOperation records one dispatched operation. kind is empty on success.
func (m *Metrics) RecordOperation(tool, kind string, duration time.Duration) {
	status := "success"
	if kind != "" {
		status = "error"
		m.OperationErrors.WithLabelValues(tool, kind).Inc()
	}
	m.OperationCalls.WithLabelValues(tool, status).Inc()
	m.OperationDuration.WithLabelValues(tool).Observe(duration.Seconds())

	m.mu.Lock()
	m.snapshot.Operations++
	if kind != "" {
		m.snapshot.OperationErrors++
	}
	m.mu.Unlock()
}

// RecordPathRejection counts a sandbox rejection
func (m *Metrics) RecordPathRejection(tool string) {
	m.PathRejections.WithLabelValues(tool).Inc()

	m.mu.Lock()
	m.snapshot.PathRejections++
	m.mu.Unlock()
}

// RecordArchiveBytes adds to the archive byte counter; direction is
// "compress" or "extract".
func (m *Metrics) RecordArchiveBytes(direction string, n int64) {
	if n > 0 {
		m.ArchiveBytes.WithLabelValues(direction).Add(float64(n))
	}
}

// GetSnapshot returns the running totals
func (m *Metrics) GetSnapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s := m.snapshot
	s.UptimeSeconds = time.Since(m.startTime).Seconds()
	return s
}

package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/GriffinCanCode/homefs/internal/infrastructure/monitoring"
)

// MetricsHandlers exposes collected metrics in Prometheus and JSON form
type MetricsHandlers struct {
	metrics  *monitoring.Metrics
	gatherer prometheus.Gatherer
}

// NewMetricsHandlers creates metrics handlers over the registry the
// collectors were registered with.
func NewMetricsHandlers(metrics *monitoring.Metrics, gatherer prometheus.Gatherer) *MetricsHandlers {
	return &MetricsHandlers{metrics: metrics, gatherer: gatherer}
}

// Prometheus serves the text exposition format
func (m *MetricsHandlers) Prometheus() gin.HandlerFunc {
	return gin.WrapH(promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{}))
}

// MetricsSummary provides high-level metrics
type MetricsSummary struct {
	Timestamp time.Time           `json:"timestamp"`
	Totals    monitoring.Snapshot `json:"totals"`
	ErrorRate float64             `json:"error_rate"`
}

// Summary returns running totals as JSON
func (m *MetricsHandlers) Summary(c *gin.Context) {
	snap := m.metrics.GetSnapshot()

	summary := MetricsSummary{
		Timestamp: time.Now(),
		Totals:    snap,
	}
	if snap.Operations > 0 {
		summary.ErrorRate = float64(snap.OperationErrors) / float64(snap.Operations)
	}
	c.JSON(http.StatusOK, summary)
}

package monitoring

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordOperation(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.RecordOperation("filesystem.read", "", 5*time.Millisecond)
	m.RecordOperation("filesystem.read", "not_found", time.Millisecond)
	m.RecordOperation("filesystem.read", "not_found", time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.OperationCalls.WithLabelValues("filesystem.read", "success")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.OperationCalls.WithLabelValues("filesystem.read", "error")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.OperationErrors.WithLabelValues("filesystem.read", "not_found")))

	snap := m.GetSnapshot()
	assert.Equal(t, int64(3), snap.Operations)
	assert.Equal(t, int64(2), snap.OperationErrors)
}

func TestRecordPathRejectionAndArchiveBytes(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.RecordPathRejection("filesystem.delete")
	m.RecordArchiveBytes("extract", 1024)
	m.RecordArchiveBytes("extract", 0)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.PathRejections.WithLabelValues("filesystem.delete")))
	assert.Equal(t, 1024.0, testutil.ToFloat64(m.ArchiveBytes.WithLabelValues("extract")))
	assert.Equal(t, int64(1), m.GetSnapshot().PathRejections)
}

func TestSeparateRegistries(t *testing.T) {
	assert.NotPanics(t, func() {
		NewMetrics(prometheus.NewRegistry())
		NewMetrics(prometheus.NewRegistry())
	})
}

func TestMiddlewareUsesRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := NewMetrics(prometheus.NewRegistry())

	router := gin.New()
	router.Use(Middleware(m))
	router.POST("/tools/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, id := range []string{"filesystem.read", "filesystem.list"} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/tools/"+id, nil)
		router.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code)
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("POST", "/tools/:id", "200")))
}

func TestTimer(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	timer := NewTimer(m, "filesystem.stat")
	d := timer.Stop("")
	assert.GreaterOrEqual(t, d, time.Duration(0))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.OperationCalls.WithLabelValues("filesystem.stat", "success")))

	assert.NotPanics(t, func() { NewTimer(nil, "x").Stop("io_error") })
}

package tracing

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/GriffinCanCode/homefs/internal/shared/id"
)

func newObservedTracer() (*Tracer, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return New("homefs", zap.New(core)), logs
}

func TestStartSpanContinuesTrace(t *testing.T) {
	tracer, _ := newObservedTracer()
	defer tracer.Close()

	parent, ctx := tracer.StartSpan(context.Background(), "parent")
	assert.True(t, id.IsValidPrefixed(string(parent.TraceID), tracePrefix))
	assert.True(t, id.IsValidPrefixed(string(parent.SpanID), spanPrefix))
	assert.Empty(t, parent.ParentID)

	child, childCtx := tracer.StartSpan(ctx, "child")
	assert.Equal(t, parent.TraceID, child.TraceID)
	assert.Equal(t, parent.SpanID, child.ParentID)
	assert.Equal(t, child.SpanID, GetSpanID(childCtx))
	assert.Equal(t, parent.TraceID, GetTraceID(childCtx))
}

func TestCloseDrainsSpans(t *testing.T) {
	tracer, logs := newObservedTracer()

	for i := 0; i < 3; i++ {
		span, _ := tracer.StartSpan(context.Background(), "op")
		span.Finish()
		tracer.Submit(span)
	}
	tracer.Close()
	tracer.Close()

	assert.Equal(t, 3, logs.FilterMessage("Span completed").Len())

	// Submitting after Close is a no-op.
	span, _ := tracer.StartSpan(context.Background(), "late")
	tracer.Submit(span)
}

func TestTraceRecordsErrors(t *testing.T) {
	tracer, logs := newObservedTracer()

	boom := errors.New("boom")
	err := Trace(context.Background(), tracer, "filesystem.read", func(ctx context.Context) error {
		assert.NotEmpty(t, GetSpanID(ctx))
		return boom
	})
	assert.ErrorIs(t, err, boom)
	tracer.Close()

	entries := logs.FilterMessage("Span completed with error").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "filesystem.read", entries[0].ContextMap()["operation"])
}

func TestNilTracer(t *testing.T) {
	var tracer *Tracer

	called := false
	err := Trace(context.Background(), tracer, "op", func(ctx context.Context) error {
		called = true
		assert.NotEmpty(t, GetTraceID(ctx))
		return nil
	})
	assert.NoError(t, err)
	assert.True(t, called)
	tracer.Close()
}

func TestHTTPMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tracer, logs := newObservedTracer()

	router := gin.New()
	router.Use(HTTPMiddleware(tracer))
	var seen TraceID
	router.GET("/tools/:id", func(c *gin.Context) {
		seen = GetTraceID(c.Request.Context())
		c.Status(http.StatusTeapot)
	})

	t.Run("starts a trace", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/tools/x", nil))

		assert.Equal(t, string(seen), w.Header().Get(TraceHeader))
		assert.NotEmpty(t, w.Header().Get(SpanHeader))
	})

	t.Run("continues a valid inbound trace", func(t *testing.T) {
		inbound := id.Default().GenerateWithPrefix(tracePrefix)
		req := httptest.NewRequest(http.MethodGet, "/tools/x", nil)
		req.Header.Set(TraceHeader, inbound)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, inbound, w.Header().Get(TraceHeader))
	})

	t.Run("ignores a forged trace", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/tools/x", nil)
		req.Header.Set(TraceHeader, "../../etc")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.NotEqual(t, "../../etc", w.Header().Get(TraceHeader))
		assert.True(t, id.IsValidPrefixed(w.Header().Get(TraceHeader), tracePrefix))
	})

	tracer.Close()
	entries := logs.FilterMessage("Span completed").All()
	require.Len(t, entries, 3)
	fields := entries[0].ContextMap()
	assert.Equal(t, "GET /tools/:id", fields["operation"])
	assert.Equal(t, "418", fields["http.status"])
	assert.EqualValues(t, 418, fields["status"])
}

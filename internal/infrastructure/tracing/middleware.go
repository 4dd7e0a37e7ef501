package tracing

import (
	"context"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/GriffinCanCode/homefs/internal/shared/id"
)

// HTTPMiddleware opens one span per request. Inbound trace headers are only
// continued when they look like IDs this service issues.
func HTTPMiddleware(tracer *Tracer) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := WithTrace(c.Request.Context(),
			validTrace(c.GetHeader(TraceHeader)),
			validSpan(c.GetHeader(SpanHeader)))

		name := c.FullPath()
		if name == "" {
			name = "unmatched"
		}

		span, ctx := tracer.StartSpan(ctx, c.Request.Method+" "+name)
		span.SetTag("http.method", c.Request.Method)
		span.SetTag("http.path", c.Request.URL.Path)

		c.Request = c.Request.WithContext(ctx)
		c.Header(TraceHeader, string(span.TraceID))
		c.Header(SpanHeader, string(span.SpanID))

		c.Next()

		span.SetStatus(c.Writer.Status())
		span.SetTag("http.status", strconv.Itoa(c.Writer.Status()))
		if len(c.Errors) > 0 {
			span.SetError(c.Errors.Last())
		}

		span.Finish()
		tracer.Submit(span)
	}
}

// Trace runs fn inside a child span named name
func Trace(ctx context.Context, tracer *Tracer, name string, fn func(ctx context.Context) error) error {
	span, ctx := tracer.StartSpan(ctx, name)
	err := fn(ctx)
	if err != nil {
		span.SetError(err)
	}
	span.Finish()
	tracer.Submit(span)
	return err
}

func validTrace(s string) TraceID {
	if id.IsValidPrefixed(s, tracePrefix) {
		return TraceID(s)
	}
	return ""
}

func validSpan(s string) SpanID {
	if id.IsValidPrefixed(s, spanPrefix) {
		return SpanID(s)
	}
	return ""
}

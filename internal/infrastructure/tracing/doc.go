/*
Package tracing records lightweight request spans and logs them through zap.

Spans are created per HTTP request by HTTPMiddleware and per tool call on the
MCP transport. Trace and span IDs are prefixed ULIDs ("trace_...",
"span_...") and propagate over HTTP through the X-Trace-ID and X-Span-ID
headers; inbound headers that do not parse as such IDs start a fresh trace.

# Usage

	tracer := tracing.New("homefs", logger)
	defer tracer.Close()

	router.Use(tracing.HTTPMiddleware(tracer))

	err := tracing.Trace(ctx, tracer, "filesystem.read", func(ctx context.Context) error {
		...
	})

A nil *Tracer is valid: spans are still created so IDs propagate, but
nothing is logged. Finished spans go through a buffered channel; when the
buffer is full the span is dropped with a warning.
*/
package tracing

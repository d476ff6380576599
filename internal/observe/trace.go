package observe

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// tracerName is the instrumentation scope name for the pricing tracer.
const tracerName = "github.com/opentariff/ocipricer"

// Span attribute keys for pricing operations.
var (
	toolKey       = attribute.Key("pricing.tool")
	partNumberKey = attribute.Key("pricing.part_number")
	queryKey      = attribute.Key("pricing.query")
	kindKey       = attribute.Key("pricing.result_kind")
)

// PartNumber returns a span attribute carrying the looked-up part number.
func PartNumber(pn string) attribute.KeyValue { return partNumberKey.String(pn) }

// Query returns a span attribute carrying the free-form search query.
func Query(q string) attribute.KeyValue { return queryKey.String(q) }

// Tracer returns the package-level [trace.Tracer]. It uses the globally
// registered [trace.TracerProvider].
func Tracer() trace.Tracer {
	return otel.Tracer(tracerName)
}

// StartSpan starts a new span and returns the updated context and span. The
// caller must call span.End() when done.
func StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return Tracer().Start(ctx, name, opts...)
}

// ToolSpan starts a span covering one pricing tool invocation. The returned
// end func records the result kind on the span before ending it.
func ToolSpan(ctx context.Context, tool string, attrs ...attribute.KeyValue) (context.Context, func(kind string)) {
	ctx, span := StartSpan(ctx, "tool "+tool,
		trace.WithAttributes(toolKey.String(tool)),
		trace.WithAttributes(attrs...))
	return ctx, func(kind string) {
		span.SetAttributes(kindKey.String(kind))
		span.End()
	}
}

// CorrelationID extracts the trace ID from the OTel span context in ctx.
// Returns the empty string when no active span with a valid trace ID exists.
func CorrelationID(ctx context.Context) string {
	sc := trace.SpanContextFromContext(ctx)
	if sc.HasTraceID() {
		return sc.TraceID().String()
	}
	return ""
}

// Logger returns an [slog.Logger] enriched with trace_id and span_id from
// the OTel span context in ctx. When no active span is present, the returned
// logger is the default slog logger without extra attributes.
func Logger(ctx context.Context) *slog.Logger {
	l := slog.Default()
	sc := trace.SpanContextFromContext(ctx)
	if sc.HasTraceID() {
		l = l.With(
			slog.String("trace_id", sc.TraceID().String()),
			slog.String("span_id", sc.SpanID().String()),
		)
	}
	return l
}

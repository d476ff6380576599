// Package observe provides observability primitives for the pricing server:
// OpenTelemetry metrics, tracing helpers, and HTTP middleware for the ops
// listener.
//
// Metrics are recorded through the OpenTelemetry Metrics API and exported via
// the Prometheus bridge registered by [InitProvider], so they remain scrapable
// from the standard /metrics endpoint. A package-level default [Metrics]
// instance ([DefaultMetrics]) is provided for convenience; tests should use
// [NewMetrics] with a custom [metric.MeterProvider] to avoid cross-test
// pollution.
package observe

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope name used for all pricing metrics.
const meterName = "github.com/opentariff/ocipricer"

// Metrics holds all OpenTelemetry metric instruments for the server.
// All fields are safe for concurrent use — the underlying OTel types handle
// their own synchronisation.
type Metrics struct {
	// ToolDuration tracks end-to-end MCP tool invocation latency.
	ToolDuration metric.Float64Histogram

	// FetchDuration tracks upstream price-list HTTP request latency,
	// including time spent in the retry loop.
	FetchDuration metric.Float64Histogram

	// ToolCalls counts tool invocations. Use with attributes:
	//   attribute.String("tool", ...), attribute.String("kind", ...)
	ToolCalls metric.Int64Counter

	// FetchRetries counts retried upstream requests.
	FetchRetries metric.Int64Counter

	// UpstreamErrors counts failed upstream requests after retry exhaustion.
	// Use with attribute: attribute.String("reason", ...)
	UpstreamErrors metric.Int64Counter

	// HTTPRequestDuration tracks ops-listener HTTP request time. Use with
	// attributes: attribute.String("method", ...), attribute.String("path", ...)
	HTTPRequestDuration metric.Float64Histogram
}

// latencyBuckets defines histogram bucket boundaries (in seconds) sized for
// upstream catalogue fetches, which may page and back off for several seconds.
var latencyBuckets = []float64{
	0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25, 60,
}

// NewMetrics creates a fully initialised [Metrics] struct using the given
// [metric.MeterProvider]. Returns an error if any instrument creation fails.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.ToolDuration, err = m.Float64Histogram("ocipricer.tool.duration",
		metric.WithDescription("Latency of MCP tool invocations."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.FetchDuration, err = m.Float64Histogram("ocipricer.fetch.duration",
		metric.WithDescription("Latency of upstream price-list requests."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}

	if met.ToolCalls, err = m.Int64Counter("ocipricer.tool.calls",
		metric.WithDescription("Total tool invocations by tool name and result kind."),
	); err != nil {
		return nil, err
	}
	if met.FetchRetries, err = m.Int64Counter("ocipricer.fetch.retries",
		metric.WithDescription("Total retried upstream price-list requests."),
	); err != nil {
		return nil, err
	}
	if met.UpstreamErrors, err = m.Int64Counter("ocipricer.upstream.errors",
		metric.WithDescription("Total upstream failures after retry exhaustion, by reason."),
	); err != nil {
		return nil, err
	}

	if met.HTTPRequestDuration, err = m.Float64Histogram("ocipricer.http.request.duration",
		metric.WithDescription("Ops-listener HTTP request latency by method and path."),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}

	return met, nil
}

// defaultMetrics is the lazily-initialised package-level Metrics instance.
var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics] instance, creating it on
// first call using [otel.GetMeterProvider]. Subsequent calls return the same
// pointer. Panics if instrument creation fails (should not happen with the
// global provider).
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// RecordToolCall records a tool invocation with its result kind
// ("sku", "search", or "error") and duration in seconds.
func (m *Metrics) RecordToolCall(ctx context.Context, tool, kind string, seconds float64) {
	attrs := metric.WithAttributes(
		attribute.String("tool", tool),
		attribute.String("kind", kind),
	)
	m.ToolCalls.Add(ctx, 1, attrs)
	m.ToolDuration.Record(ctx, seconds, attrs)
}

// RecordFetch records the duration of one upstream request (including its
// internal retries) with a terminal status of "ok" or "error".
func (m *Metrics) RecordFetch(ctx context.Context, seconds float64, status string) {
	m.FetchDuration.Record(ctx, seconds,
		metric.WithAttributes(attribute.String("status", status)),
	)
}

// RecordRetry records one retried upstream request.
func (m *Metrics) RecordRetry(ctx context.Context) {
	m.FetchRetries.Add(ctx, 1)
}

// RecordUpstreamError records an upstream failure that exhausted the retry
// budget, tagged with a short reason ("status" or "network").
func (m *Metrics) RecordUpstreamError(ctx context.Context, reason string) {
	m.UpstreamErrors.Add(ctx, 1,
		metric.WithAttributes(attribute.String("reason", reason)),
	)
}

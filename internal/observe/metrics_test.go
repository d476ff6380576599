package observe

import (
	"context"
	"testing"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// newTestMetrics returns a Metrics instance backed by a ManualReader for
// programmatic metric inspection.
func newTestMetrics(t *testing.T) (*Metrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	m, err := NewMetrics(mp)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	return m, reader
}

// collect gathers all metric data from the reader.
func collect(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}
	return rm
}

// findMetric searches for a metric by name across all scope metrics.
func findMetric(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

func TestNewMetrics_CreatesWithoutError(t *testing.T) {
	m, _ := newTestMetrics(t)
	if m == nil {
		t.Fatal("NewMetrics returned nil")
	}
}

func TestRecordToolCall(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordToolCall(ctx, "pricing_get_sku", "sku", 0.2)
	m.RecordToolCall(ctx, "pricing_get_sku", "sku", 0.3)
	m.RecordToolCall(ctx, "pricing_get_sku", "error", 0.1)

	rm := collect(t, reader)

	met := findMetric(rm, "ocipricer.tool.calls")
	if met == nil {
		t.Fatal("tool.calls metric not found")
	}
	sum, ok := met.Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatal("tool.calls is not a sum")
	}
	for _, dp := range sum.DataPoints {
		for _, kv := range dp.Attributes.ToSlice() {
			if string(kv.Key) == "kind" && kv.Value.AsString() == "sku" {
				if dp.Value != 2 {
					t.Errorf("sku counter = %d, want 2", dp.Value)
				}
			}
		}
	}

	dur := findMetric(rm, "ocipricer.tool.duration")
	if dur == nil {
		t.Fatal("tool.duration metric not found")
	}
	hist, ok := dur.Data.(metricdata.Histogram[float64])
	if !ok {
		t.Fatal("tool.duration is not a histogram")
	}
	if len(hist.DataPoints) == 0 {
		t.Fatal("tool.duration has no data points")
	}
}

func TestRecordFetch(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordFetch(ctx, 0.5, "ok")
	m.RecordFetch(ctx, 2.5, "error")

	rm := collect(t, reader)
	met := findMetric(rm, "ocipricer.fetch.duration")
	if met == nil {
		t.Fatal("fetch.duration metric not found")
	}
	hist, ok := met.Data.(metricdata.Histogram[float64])
	if !ok {
		t.Fatal("fetch.duration is not a histogram")
	}
	var total uint64
	for _, dp := range hist.DataPoints {
		total += dp.Count
	}
	if total != 2 {
		t.Errorf("sample count = %d, want 2", total)
	}
}

func TestRecordRetryAndUpstreamError(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordRetry(ctx)
	m.RecordRetry(ctx)
	m.RecordUpstreamError(ctx, "status")

	rm := collect(t, reader)

	retries := findMetric(rm, "ocipricer.fetch.retries")
	if retries == nil {
		t.Fatal("fetch.retries metric not found")
	}
	sum, ok := retries.Data.(metricdata.Sum[int64])
	if !ok || len(sum.DataPoints) == 0 {
		t.Fatal("fetch.retries has no data points")
	}
	if sum.DataPoints[0].Value != 2 {
		t.Errorf("retry counter = %d, want 2", sum.DataPoints[0].Value)
	}

	errs := findMetric(rm, "ocipricer.upstream.errors")
	if errs == nil {
		t.Fatal("upstream.errors metric not found")
	}
	esum, ok := errs.Data.(metricdata.Sum[int64])
	if !ok || len(esum.DataPoints) == 0 {
		t.Fatal("upstream.errors has no data points")
	}
	if esum.DataPoints[0].Value != 1 {
		t.Errorf("error counter = %d, want 1", esum.DataPoints[0].Value)
	}
}

func TestDefaultMetrics_ReturnsSameInstance(t *testing.T) {
	// DefaultMetrics uses the global OTel provider so we just check
	// that repeated calls return the same pointer.
	a := DefaultMetrics()
	b := DefaultMetrics()
	if a != b {
		t.Error("DefaultMetrics returned different pointers")
	}
}

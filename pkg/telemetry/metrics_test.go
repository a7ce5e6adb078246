package telemetry

import (
	"context"
	"testing"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestCatalogMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer mp.Shutdown(context.Background()) //nolint:errcheck

	m, err := NewCatalogMetrics(mp.Meter("test"))
	if err != nil {
		t.Fatalf("NewCatalogMetrics: %v", err)
	}
	ctx := context.Background()
	m.ItemCreated(ctx)
	m.ItemCreated(ctx)
	m.ItemsSold(ctx, 3)
	m.ItemsSold(ctx, 0)
	m.MediaCleanupFailed(ctx, "update")

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(ctx, &rm); err != nil {
		t.Fatalf("collect: %v", err)
	}

	got := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, md := range sm.Metrics {
			sum, ok := md.Data.(metricdata.Sum[int64])
			if !ok {
				continue
			}
			for _, dp := range sum.DataPoints {
				got[md.Name] += dp.Value
			}
		}
	}

	want := map[string]int64{
		"catalog.items.created":          2,
		"catalog.items.sold":             3,
		"catalog.media.cleanup_failures": 1,
	}
	for name, v := range want {
		if got[name] != v {
			t.Errorf("%s: got %d, want %d", name, got[name], v)
		}
	}
}

func TestCatalogMetrics_NilIsNoop(t *testing.T) {
	var m *CatalogMetrics
	m.ItemCreated(context.Background())
	m.ItemsSold(context.Background(), 2)
	m.MediaCleanupFailed(context.Background(), "delete")
}

package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/ghuser/storefront/catalog"

// CatalogMetrics holds the catalog's business counters. A nil *CatalogMetrics
// is valid and records nothing.
type CatalogMetrics struct {
	itemsCreated    metric.Int64Counter
	itemsSold       metric.Int64Counter
	cleanupFailures metric.Int64Counter
}

// NewCatalogMetrics registers the catalog counters on meter. Pass nil to use
// the global meter provider installed by Setup.
func NewCatalogMetrics(meter metric.Meter) (*CatalogMetrics, error) {
	if meter == nil {
		meter = otel.Meter(meterName)
	}

	created, err := meter.Int64Counter("catalog.items.created",
		metric.WithDescription("Items added to the catalog"))
	if err != nil {
		return nil, fmt.Errorf("catalog.items.created counter: %w", err)
	}
	sold, err := meter.Int64Counter("catalog.items.sold",
		metric.WithDescription("Items marked unavailable by order submissions"))
	if err != nil {
		return nil, fmt.Errorf("catalog.items.sold counter: %w", err)
	}
	failures, err := meter.Int64Counter("catalog.media.cleanup_failures",
		metric.WithDescription("Media objects that could not be deleted inline"))
	if err != nil {
		return nil, fmt.Errorf("catalog.media.cleanup_failures counter: %w", err)
	}

	return &CatalogMetrics{itemsCreated: created, itemsSold: sold, cleanupFailures: failures}, nil
}

func (m *CatalogMetrics) ItemCreated(ctx context.Context) {
	if m == nil {
		return
	}
	m.itemsCreated.Add(ctx, 1)
}

func (m *CatalogMetrics) ItemsSold(ctx context.Context, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.itemsSold.Add(ctx, int64(n))
}

// MediaCleanupFailed counts a failed inline media delete; reason is "update" or "delete".
func (m *CatalogMetrics) MediaCleanupFailed(ctx context.Context, reason string) {
	if m == nil {
		return
	}
	m.cleanupFailures.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}

package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/possync/backend/internal/domain/integration"
)

// SyncMetrics tracks order and catalog sync activity per platform
type SyncMetrics struct {
	ordersProcessed  *Counter
	orderDuration    *Histogram
	itemsUnmapped    *Counter
	catalogPublishes *Counter
}

// NewSyncMetrics creates the sync engine's instruments on the given meter
func NewSyncMetrics(meter metric.Meter) (*SyncMetrics, error) {
	ordersProcessed, err := NewCounter(meter,
		"possync_orders_processed_total",
		"Total number of inbound orders processed",
		"{orders}")
	if err != nil {
		return nil, err
	}

	orderDuration, err := NewHistogram(meter,
		"possync_order_transform_duration_seconds",
		"Duration of order transformation including POS submission",
		"s")
	if err != nil {
		return nil, err
	}

	itemsUnmapped, err := NewCounter(meter,
		"possync_order_items_unmapped_total",
		"Total number of order items that could not be mapped",
		"{items}")
	if err != nil {
		return nil, err
	}

	catalogPublishes, err := NewCounter(meter,
		"possync_catalog_publishes_total",
		"Total number of catalog publish attempts",
		"{publishes}")
	if err != nil {
		return nil, err
	}

	return &SyncMetrics{
		ordersProcessed:  ordersProcessed,
		orderDuration:    orderDuration,
		itemsUnmapped:    itemsUnmapped,
		catalogPublishes: catalogPublishes,
	}, nil
}

// RecordOrder records one processed order with its outcome status
func (m *SyncMetrics) RecordOrder(ctx context.Context, platform integration.PlatformCode, status integration.SyncStatus, duration time.Duration) {
	if m == nil {
		return
	}
	attrs := []attribute.KeyValue{
		attribute.String("platform", string(platform)),
		attribute.String("status", string(status)),
	}
	m.ordersProcessed.Inc(ctx, attrs...)
	m.orderDuration.RecordDuration(ctx, duration, attrs...)
}

// RecordUnmappedItems records order items that resolved to no mapping
func (m *SyncMetrics) RecordUnmappedItems(ctx context.Context, platform integration.PlatformCode, count int) {
	if m == nil || count == 0 {
		return
	}
	m.itemsUnmapped.Add(ctx, int64(count),
		attribute.String("platform", string(platform)))
}

// RecordCatalogPublish records one catalog publish attempt per platform
func (m *SyncMetrics) RecordCatalogPublish(ctx context.Context, platform integration.PlatformCode, success bool) {
	if m == nil {
		return
	}
	m.catalogPublishes.Inc(ctx,
		attribute.String("platform", string(platform)),
		attribute.Bool("success", success))
}

package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/freshmart/orderflow/internal/ports/outbound"
)

// Compile-time check that Metrics implements outbound.MetricsRecorder
var _ outbound.MetricsRecorder = (*Metrics)(nil)

// Metrics implements the MetricsRecorder interface using OpenTelemetry.
// Every placement is counted once with a status attribute, so success
// rates and failure breakdowns come from the same series.
type Metrics struct {
	placementLatency metric.Float64Histogram
	ordersPlaced     metric.Int64Counter
}

// NewMetrics creates a new OpenTelemetry metrics recorder.
// meterName should typically be the package name or service name.
func NewMetrics(meterName string) (*Metrics, error) {
	meter := otel.Meter(meterName)

	latency, err := meter.Float64Histogram(
		"order_placement_duration_seconds",
		metric.WithDescription("Time taken to run an order placement transaction"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create order_placement_duration_seconds histogram: %w", err)
	}

	orders, err := meter.Int64Counter(
		"orders_placed_total",
		metric.WithDescription("Total number of order placement attempts by status"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create orders_placed_total counter: %w", err)
	}

	return &Metrics{
		placementLatency: latency,
		ordersPlaced:     orders,
	}, nil
}

// RecordPlacementLatency records the duration of a placement attempt.
func (m *Metrics) RecordPlacementLatency(ctx context.Context, duration time.Duration, status string) {
	m.placementLatency.Record(ctx, duration.Seconds(), metric.WithAttributes(attribute.String("status", status)))
}

// RecordOrderPlaced increments the placement counter.
func (m *Metrics) RecordOrderPlaced(ctx context.Context, status string) {
	m.ordersPlaced.Add(ctx, 1, metric.WithAttributes(attribute.String("status", status)))
}

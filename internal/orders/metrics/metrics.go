package metrics

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Outcome labels orders_created_total.
type Outcome string

const (
	OutcomeCreated Outcome = "created"
	// OutcomeRejected is a checkout refused because of the request itself.
	OutcomeRejected Outcome = "rejected"
	OutcomeFailed   Outcome = "failed"
)

type Metrics struct {
	ordersCreated     metric.Int64Counter
	creationDuration  metric.Float64Histogram
	itemsPerOrder     metric.Int64Histogram
	statusTransitions metric.Int64Counter
}

func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}

	var err error

	m.ordersCreated, err = meter.Int64Counter(
		"orders_created_total",
		metric.WithDescription("Checkout attempts by outcome"),
		metric.WithUnit("{order}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create orders_created_total counter: %w", err)
	}

	m.creationDuration, err = meter.Float64Histogram(
		"order_creation_duration_seconds",
		metric.WithDescription("Duration of order creation operations"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("create order_creation_duration_seconds histogram: %w", err)
	}

	m.itemsPerOrder, err = meter.Int64Histogram(
		"order_items",
		metric.WithDescription("Number of line items in created orders"),
		metric.WithUnit("{item}"),
		metric.WithExplicitBucketBoundaries(1, 2, 3, 5, 10, 20),
	)
	if err != nil {
		return nil, fmt.Errorf("create order_items histogram: %w", err)
	}

	m.statusTransitions, err = meter.Int64Counter(
		"order_status_transitions_total",
		metric.WithDescription("Total number of order status changes"),
		metric.WithUnit("{transition}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create order_status_transitions_total counter: %w", err)
	}

	return m, nil
}

func (m *Metrics) RecordOrderCreated(ctx context.Context, outcome Outcome) {
	m.ordersCreated.Add(ctx, 1, metric.WithAttributes(
		attribute.String("outcome", string(outcome)),
	))
}

func (m *Metrics) RecordOrderCreationDuration(ctx context.Context, durationSeconds float64) {
	m.creationDuration.Record(ctx, durationSeconds)
}

func (m *Metrics) RecordOrderItems(ctx context.Context, count int) {
	m.itemsPerOrder.Record(ctx, int64(count))
}

func (m *Metrics) RecordStatusTransition(ctx context.Context, from, to string) {
	m.statusTransitions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("from", from),
		attribute.String("to", to),
	))
}

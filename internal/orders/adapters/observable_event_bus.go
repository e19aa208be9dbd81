package adapters

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/dejobratic/storefront/internal/kafka"
	"github.com/dejobratic/storefront/internal/orders/domain"
	"github.com/dejobratic/storefront/internal/orders/ports"
	"github.com/dejobratic/storefront/internal/telemetry"
)

// ObservableEventBus records a span and publish metrics for every order event.
type ObservableEventBus struct {
	bus     ports.EventBus
	metrics *kafka.Metrics
}

func NewObservableEventBus(bus ports.EventBus, metrics *kafka.Metrics) *ObservableEventBus {
	return &ObservableEventBus{bus: bus, metrics: metrics}
}

func (e *ObservableEventBus) PublishOrderCreated(ctx context.Context, order domain.Order) error {
	return e.publish(ctx, kafka.EventOrderCreated, func(ctx context.Context) error {
		return e.bus.PublishOrderCreated(ctx, order)
	},
		attribute.String("order.id", order.ID),
		attribute.Int("order.item_count", len(order.Items)),
	)
}

func (e *ObservableEventBus) PublishOrderStatusChanged(ctx context.Context, orderID string, from, to domain.OrderStatus) error {
	return e.publish(ctx, kafka.EventOrderStatusChanged, func(ctx context.Context) error {
		return e.bus.PublishOrderStatusChanged(ctx, orderID, from, to)
	},
		attribute.String("order.id", orderID),
		attribute.String("order.from_status", string(from)),
		attribute.String("order.to_status", string(to)),
	)
}

func (e *ObservableEventBus) publish(ctx context.Context, eventType string, fn func(context.Context) error, attrs ...attribute.KeyValue) error {
	start := time.Now()
	attrs = append(attrs, attribute.String("messaging.event_type", eventType))

	err := telemetry.Observe(ctx, "EventBus.Publish "+eventType, fn, attrs...)
	e.metrics.RecordPublish(ctx, eventType, time.Since(start).Seconds(), err)
	return err
}

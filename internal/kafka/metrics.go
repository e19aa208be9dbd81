package kafka

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

type Metrics struct {
	publishDuration metric.Float64Histogram
	published       metric.Int64Counter
}

func NewMetrics(meter metric.Meter) (*Metrics, error) {
	duration, err := meter.Float64Histogram(
		"kafka_publish_duration_seconds",
		metric.WithDescription("Time spent writing one order event to Kafka"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka_publish_duration_seconds histogram: %w", err)
	}

	published, err := meter.Int64Counter(
		"kafka_messages_published_total",
		metric.WithDescription("Order event publish attempts by event type and result"),
		metric.WithUnit("{message}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka_messages_published_total counter: %w", err)
	}

	return &Metrics{publishDuration: duration, published: published}, nil
}

// RecordPublish records one publish attempt of eventType. A nil err counts as "ok".
func (m *Metrics) RecordPublish(ctx context.Context, eventType string, durationSeconds float64, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	attrs := metric.WithAttributes(
		attribute.String("event_type", eventType),
		attribute.String("result", result),
	)
	m.publishDuration.Record(ctx, durationSeconds, attrs)
	m.published.Add(ctx, 1, attrs)
}

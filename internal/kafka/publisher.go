// Package kafka publishes order lifecycle events.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dejobratic/storefront/internal/orders/domain"
	kafkago "github.com/segmentio/kafka-go"
)

const (
	EventOrderCreated       = "order.created"
	EventOrderStatusChanged = "order.status_changed"
)

// Event is the JSON value of every message. Messages are keyed by order id so one order's
// events stay in a single partition.
type Event struct {
	Type        string          `json:"type"`
	OrderID     string          `json:"order_id"`
	Status      string          `json:"status,omitempty"`
	From        string          `json:"from,omitempty"`
	To          string          `json:"to,omitempty"`
	ItemCount   int             `json:"item_count,omitempty"`
	TotalAmount string          `json:"total_amount,omitempty"`
	OccurredAt  time.Time       `json:"occurred_at"`
	Order       json.RawMessage `json:"order,omitempty"`
}

// MessageWriter is the part of *kafkago.Writer the publisher uses.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

type Publisher struct {
	writer MessageWriter
	now    func() time.Time
}

// writeBatchTimeout caps how long a synchronous write waits for more messages before
// flushing. Events are written one per request.
const writeBatchTimeout = 5 * time.Millisecond

// NewWriter returns a writer for topic that balances by message key.
func NewWriter(brokers []string, topic string) *kafkago.Writer {
	return &kafkago.Writer{
		Addr:                   kafkago.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireOne,
		BatchTimeout:           writeBatchTimeout,
		AllowAutoTopicCreation: true,
	}
}

func NewPublisher(writer MessageWriter) *Publisher {
	return &Publisher{writer: writer, now: time.Now}
}

func (p *Publisher) PublishOrderCreated(ctx context.Context, order domain.Order) error {
	snapshot, err := json.Marshal(order)
	if err != nil {
		return fmt.Errorf("marshal order %s: %w", order.ID, err)
	}

	return p.publish(ctx, Event{
		Type:        EventOrderCreated,
		OrderID:     order.ID,
		Status:      string(order.Status),
		ItemCount:   len(order.Items),
		TotalAmount: order.TotalAmount.String(),
		Order:       snapshot,
	})
}

func (p *Publisher) PublishOrderStatusChanged(ctx context.Context, orderID string, from, to domain.OrderStatus) error {
	return p.publish(ctx, Event{
		Type:    EventOrderStatusChanged,
		OrderID: orderID,
		Status:  string(to),
		From:    string(from),
		To:      string(to),
	})
}

func (p *Publisher) publish(ctx context.Context, event Event) error {
	event.OccurredAt = p.now().UTC()

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", event.Type, err)
	}

	err = p.writer.WriteMessages(ctx, kafkago.Message{
		Key:   []byte(event.OrderID),
		Value: payload,
		Headers: []kafkago.Header{
			{Key: "event_type", Value: []byte(event.Type)},
		},
	})
	if err != nil {
		return fmt.Errorf("write %s event: %w", event.Type, err)
	}
	return nil
}

// Close flushes pending messages and closes the writer.
func (p *Publisher) Close() error {
	return p.writer.Close()
}

package commands

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/dejobratic/storefront/internal/apperror"
	"github.com/dejobratic/storefront/internal/orders/domain"
	"github.com/dejobratic/storefront/internal/orders/metrics"
	"github.com/dejobratic/storefront/internal/telemetry"
)

// ObservableCreateOrderHandler traces, logs and measures every checkout handled by the
// wrapped handler.
type ObservableCreateOrderHandler struct {
	next    CommandHandler
	logger  *slog.Logger
	metrics *metrics.Metrics
}

func NewObservableCreateOrderHandler(next CommandHandler, logger *slog.Logger, metrics *metrics.Metrics) *ObservableCreateOrderHandler {
	return &ObservableCreateOrderHandler{next: next, logger: logger, metrics: metrics}
}

func (o *ObservableCreateOrderHandler) Handle(ctx context.Context, cmd CreateOrderCommand) (*domain.Order, error) {
	ctx, span := telemetry.StartSpan(ctx, "CreateOrderCommand.Handle",
		trace.WithAttributes(attribute.Int("order.requested_items", len(cmd.Items))),
	)
	defer span.End()

	start := time.Now()
	order, err := o.next.Handle(ctx, cmd)
	o.metrics.RecordOrderCreationDuration(ctx, time.Since(start).Seconds())

	if err != nil {
		telemetry.RecordSpanError(span, err)
		outcome := metrics.OutcomeFailed
		if apperror.KindOf(err) == apperror.KindValidation {
			outcome = metrics.OutcomeRejected
		}
		o.metrics.RecordOrderCreated(ctx, outcome)
		o.logger.WarnContext(ctx, "checkout failed",
			"error", err,
			"outcome", string(outcome),
			"item_count", len(cmd.Items),
		)
		return nil, err
	}

	o.metrics.RecordOrderCreated(ctx, metrics.OutcomeCreated)
	o.metrics.RecordOrderItems(ctx, len(order.Items))

	telemetry.AddSpanAttributes(span,
		attribute.String("order.id", order.ID),
		attribute.Int("order.item_count", len(order.Items)),
		attribute.String("order.total_amount", order.TotalAmount.String()),
	)
	telemetry.SetSpanSuccess(span)

	o.logger.InfoContext(ctx, "checkout completed",
		"order_id", order.ID,
		"item_count", len(order.Items),
		"total_amount", order.TotalAmount.String(),
	)
	return order, nil
}

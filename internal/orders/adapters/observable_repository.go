package adapters

import (
	"context"
	"errors"
	"time"

	"github.com/dejobratic/storefront/internal/database"
	"github.com/dejobratic/storefront/internal/orders/domain"
	"github.com/dejobratic/storefront/internal/orders/ports"
	"github.com/dejobratic/storefront/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type ObservableRepository struct {
	repo    ports.OrderRepository
	metrics *database.Metrics
}

func NewObservableRepository(repo ports.OrderRepository, metrics *database.Metrics) *ObservableRepository {
	return &ObservableRepository{
		repo:    repo,
		metrics: metrics,
	}
}

func (r *ObservableRepository) Create(ctx context.Context, order domain.Order) error {
	ctx, span := telemetry.StartSpan(ctx, "OrderRepository.Create")
	defer span.End()

	telemetry.AddSpanAttributes(span,
		attribute.String("order.id", order.ID),
		attribute.Int("order.item_count", len(order.Items)),
		attribute.String("operation", "create"),
	)

	start := time.Now()
	err := r.repo.Create(ctx, order)
	r.finish(ctx, span, "create_order", start, err)
	return err
}

func (r *ObservableRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	ctx, span := telemetry.StartSpan(ctx, "OrderRepository.GetByID")
	defer span.End()

	telemetry.AddSpanAttributes(span,
		attribute.String("order.id", id),
		attribute.String("operation", "get_by_id"),
	)

	start := time.Now()
	order, err := r.repo.GetByID(ctx, id)
	r.finish(ctx, span, "get_order_by_id", start, err)
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (r *ObservableRepository) List(ctx context.Context, filter ports.ListFilter) (*ports.ListResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "OrderRepository.List")
	defer span.End()

	attrs := []attribute.KeyValue{
		attribute.String("operation", "list"),
		attribute.Int("page", filter.Page),
		attribute.Int("page_size", filter.PageSize),
		attribute.Bool("filter.search", filter.Search != ""),
	}
	if filter.Status != "" {
		attrs = append(attrs, attribute.String("filter.status", string(filter.Status)))
	}
	telemetry.AddSpanAttributes(span, attrs...)

	start := time.Now()
	result, err := r.repo.List(ctx, filter)
	r.finish(ctx, span, "list_orders", start, err)
	if err != nil {
		return nil, err
	}

	telemetry.AddSpanAttributes(span,
		attribute.Int("result.count", len(result.Orders)),
		attribute.Int("result.total", result.Total),
	)
	return result, nil
}

func (r *ObservableRepository) UpdateStatus(ctx context.Context, id string, status domain.OrderStatus, updatedAt time.Time) error {
	ctx, span := telemetry.StartSpan(ctx, "OrderRepository.UpdateStatus")
	defer span.End()

	telemetry.AddSpanAttributes(span,
		attribute.String("order.id", id),
		attribute.String("order.new_status", string(status)),
		attribute.String("operation", "update_status"),
	)

	start := time.Now()
	err := r.repo.UpdateStatus(ctx, id, status, updatedAt)
	r.finish(ctx, span, "update_order_status", start, err)
	return err
}

func (r *ObservableRepository) UpdateCourier(ctx context.Context, id string, company, tracking *string, updatedAt time.Time) error {
	ctx, span := telemetry.StartSpan(ctx, "OrderRepository.UpdateCourier")
	defer span.End()

	telemetry.AddSpanAttributes(span,
		attribute.String("order.id", id),
		attribute.Bool("courier.company_set", company != nil),
		attribute.Bool("courier.tracking_set", tracking != nil),
		attribute.String("operation", "update_courier"),
	)

	start := time.Now()
	err := r.repo.UpdateCourier(ctx, id, company, tracking, updatedAt)
	r.finish(ctx, span, "update_order_courier", start, err)
	return err
}

func (r *ObservableRepository) CountByStatus(ctx context.Context) (map[string]int, error) {
	ctx, span := telemetry.StartSpan(ctx, "OrderRepository.CountByStatus")
	defer span.End()

	telemetry.AddSpanAttributes(span, attribute.String("operation", "count_by_status"))

	start := time.Now()
	counts, err := r.repo.CountByStatus(ctx)
	r.finish(ctx, span, "count_orders_by_status", start, err)
	if err != nil {
		return nil, err
	}
	return counts, nil
}

// finish records the query metric and span outcome. A missing order is not a query error.
func (r *ObservableRepository) finish(ctx context.Context, span trace.Span, operation string, start time.Time, err error) {
	duration := time.Since(start).Seconds()

	if errors.Is(err, ports.ErrNotFound) {
		r.metrics.RecordQuery(ctx, operation, duration, nil)
		telemetry.AddSpanAttributes(span, attribute.Bool("order.found", false))
		telemetry.SetSpanSuccess(span)
		return
	}

	r.metrics.RecordQuery(ctx, operation, duration, err)
	if err != nil {
		telemetry.RecordSpanError(span, err)
		return
	}
	telemetry.SetSpanSuccess(span)
}

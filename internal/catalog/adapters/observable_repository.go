package adapters

import (
	"context"
	"errors"
	"time"

	"github.com/dejobratic/storefront/internal/catalog/domain"
	"github.com/dejobratic/storefront/internal/catalog/ports"
	"github.com/dejobratic/storefront/internal/database"
	"github.com/dejobratic/storefront/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
)

// ObservableRepository traces and times every product repository call.
type ObservableRepository struct {
	repo    ports.ProductRepository
	metrics *database.Metrics
}

func NewObservableRepository(repo ports.ProductRepository, metrics *database.Metrics) *ObservableRepository {
	return &ObservableRepository{repo: repo, metrics: metrics}
}

func (r *ObservableRepository) Create(ctx context.Context, product domain.Product) error {
	return r.observe(ctx, "ProductRepository.Create", "create_product", func(ctx context.Context) error {
		return r.repo.Create(ctx, product)
	}, attribute.String("product.id", product.ID), attribute.String("seller.id", product.SellerID))
}

func (r *ObservableRepository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	var product *domain.Product
	err := r.observe(ctx, "ProductRepository.GetByID", "get_product_by_id", func(ctx context.Context) error {
		var err error
		product, err = r.repo.GetByID(ctx, id)
		return err
	}, attribute.String("product.id", id))
	return product, err
}

func (r *ObservableRepository) List(ctx context.Context, filter ports.ListFilter) (*ports.ListResult, error) {
	var result *ports.ListResult
	err := r.observe(ctx, "ProductRepository.List", "list_products", func(ctx context.Context) error {
		var err error
		result, err = r.repo.List(ctx, filter)
		return err
	},
		attribute.Int("page", filter.Page),
		attribute.Int("page_size", filter.PageSize),
		attribute.Bool("filter.search", filter.Search != ""),
		attribute.String("filter.category", filter.Category),
		attribute.String("filter.seller_id", filter.SellerID),
	)
	return result, err
}

func (r *ObservableRepository) Update(ctx context.Context, id string, patch domain.ProductPatch, updatedAt time.Time) (*domain.Product, error) {
	var product *domain.Product
	err := r.observe(ctx, "ProductRepository.Update", "update_product", func(ctx context.Context) error {
		var err error
		product, err = r.repo.Update(ctx, id, patch, updatedAt)
		return err
	}, attribute.String("product.id", id))
	return product, err
}

func (r *ObservableRepository) Delete(ctx context.Context, id string) error {
	return r.observe(ctx, "ProductRepository.Delete", "delete_product", func(ctx context.Context) error {
		return r.repo.Delete(ctx, id)
	}, attribute.String("product.id", id))
}

func (r *ObservableRepository) ProductNames(ctx context.Context, ids []string) (map[string]string, error) {
	var names map[string]string
	err := r.observe(ctx, "ProductRepository.ProductNames", "product_names", func(ctx context.Context) error {
		var err error
		names, err = r.repo.ProductNames(ctx, ids)
		return err
	}, attribute.Int("product.count", len(ids)))
	return names, err
}

// observe wraps fn in a span and records its duration. A missing product is an answer,
// not a failure, so it is not counted as an error.
func (r *ObservableRepository) observe(ctx context.Context, spanName, operation string, fn func(context.Context) error, attrs ...attribute.KeyValue) error {
	ctx, span := telemetry.StartSpan(ctx, spanName)
	defer span.End()

	telemetry.AddSpanAttributes(span, append(attrs, attribute.String("operation", operation))...)

	start := time.Now()
	err := fn(ctx)
	duration := time.Since(start).Seconds()

	if errors.Is(err, ports.ErrNotFound) {
		r.metrics.RecordQuery(ctx, operation, duration, nil)
		telemetry.AddSpanAttributes(span, attribute.Bool("product.found", false))
		telemetry.SetSpanSuccess(span)
		return err
	}

	r.metrics.RecordQuery(ctx, operation, duration, err)
	if err != nil {
		telemetry.RecordSpanError(span, err)
		return err
	}

	telemetry.SetSpanSuccess(span)
	return nil
}

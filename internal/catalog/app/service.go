package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dejobratic/storefront/internal/apperror"
	"github.com/dejobratic/storefront/internal/catalog/domain"
	"github.com/dejobratic/storefront/internal/catalog/ports"
	"github.com/dejobratic/storefront/internal/validation"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CreateProductInput struct {
	Name        string          `json:"name" validate:"notblank"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category" validate:"notblank"`
	ImageURL    string          `json:"image_url"`
	GalleryURLs []string        `json:"gallery_urls"`
	Sizes       []string        `json:"sizes"`
	Colors      []string        `json:"colors"`
	InStock     *bool           `json:"in_stock"`
}

const productFieldsRequired = "Name, price, and category are required"

func (in CreateProductInput) Validate() error {
	if err := validation.Struct(in, validation.Static(productFieldsRequired)); err != nil {
		return err
	}
	if in.Price.IsZero() {
		return apperror.Validation(productFieldsRequired).
			WithDetails([]validation.FieldError{{Field: "price", Rule: "nonzero"}})
	}
	return nil
}

// Page describes a requested page of a list. Page is 1-based.
type Page struct {
	Number int
	Size   int
}

type ListInput struct {
	Search   string
	Category string
	Page     Page
}

// Service implements the product catalog use cases. Every mutation goes through owned.
type Service struct {
	repo   ports.ProductRepository
	logger *slog.Logger
	now    func() time.Time
}

func NewService(repo ports.ProductRepository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger, now: time.Now}
}

func (s *Service) List(ctx context.Context, input ListInput) (*ports.ListResult, error) {
	result, err := s.repo.List(ctx, ports.ListFilter{
		Search:   input.Search,
		Category: input.Category,
		Page:     input.Page.Number,
		PageSize: input.Page.Size,
	})
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return result, nil
}

func (s *Service) ListBySeller(ctx context.Context, sellerID string, page Page) (*ports.ListResult, error) {
	result, err := s.repo.List(ctx, ports.ListFilter{
		SellerID: sellerID,
		Page:     page.Number,
		PageSize: page.Size,
	})
	if err != nil {
		return nil, fmt.Errorf("list seller products: %w", err)
	}
	return result, nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Product, error) {
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return nil, apperror.NotFound("Product")
		}
		return nil, fmt.Errorf("get product: %w", err)
	}
	return product, nil
}

func (s *Service) Create(ctx context.Context, sellerID string, input CreateProductInput) (*domain.Product, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	inStock := true
	if input.InStock != nil {
		inStock = *input.InStock
	}

	now := s.now().UTC()
	product := domain.Product{
		ID:          uuid.NewString(),
		SellerID:    sellerID,
		Name:        input.Name,
		Description: input.Description,
		Price:       input.Price,
		Category:    input.Category,
		ImageURL:    input.ImageURL,
		GalleryURLs: domain.NonNil(input.GalleryURLs),
		Sizes:       domain.NonNil(input.Sizes),
		Colors:      domain.NonNil(input.Colors),
		InStock:     inStock,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Create(ctx, product); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}

	s.logger.InfoContext(ctx, "product created", "product_id", product.ID, "seller_id", sellerID)
	return &product, nil
}

// Update applies patch to a product owned by sellerID. An empty patch returns the stored
// product without writing.
func (s *Service) Update(ctx context.Context, id, sellerID string, patch domain.ProductPatch) (*domain.Product, error) {
	var updated *domain.Product
	err := s.owned(ctx, id, sellerID, "edit", func(current *domain.Product) error {
		if patch.Empty() {
			updated = current
			return nil
		}

		product, err := s.repo.Update(ctx, id, patch, s.now().UTC())
		if err != nil {
			return err
		}
		updated = product
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *Service) Delete(ctx context.Context, id, sellerID string) error {
	err := s.owned(ctx, id, sellerID, "delete", func(*domain.Product) error {
		return s.repo.Delete(ctx, id)
	})
	if err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "product deleted", "product_id", id, "seller_id", sellerID)
	return nil
}

// owned loads the product and runs fn only when sellerID owns it.
func (s *Service) owned(ctx context.Context, id, sellerID, action string, fn func(*domain.Product) error) error {
	product, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	if product.SellerID != sellerID {
		s.logger.WarnContext(ctx, "product ownership check failed",
			"product_id", id,
			"seller_id", sellerID,
			"action", action,
		)
		return apperror.Authorization(fmt.Sprintf("You can only %s your own products", action))
	}

	if err := fn(product); err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return apperror.NotFound("Product")
		}
		return fmt.Errorf("%s product: %w", action, err)
	}
	return nil
}

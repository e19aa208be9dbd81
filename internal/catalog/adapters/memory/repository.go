package memory

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dejobratic/storefront/internal/catalog/domain"
	"github.com/dejobratic/storefront/internal/catalog/ports"
)

// Repository keeps products in memory for local development and tests.
type Repository struct {
	mu       sync.RWMutex
	products map[string]domain.Product
}

func NewRepository() *Repository {
	return &Repository{products: make(map[string]domain.Product)}
}

func (r *Repository) Create(_ context.Context, product domain.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.products[product.ID] = clone(product)
	return nil
}

func (r *Repository) GetByID(_ context.Context, id string) (*domain.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	product, ok := r.products[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	product = clone(product)
	return &product, nil
}

func (r *Repository) List(_ context.Context, filter ports.ListFilter) (*ports.ListResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	search := strings.ToLower(filter.Search)
	var matched []domain.Product
	for _, product := range r.products {
		if filter.SellerID != "" && product.SellerID != filter.SellerID {
			continue
		}
		if filter.Category != "" && product.Category != filter.Category {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(product.Name), search) &&
			!strings.Contains(strings.ToLower(product.Description), search) {
			continue
		}
		matched = append(matched, product)
	}

	slices.SortFunc(matched, func(a, b domain.Product) int {
		return cmp.Or(b.CreatedAt.Compare(a.CreatedAt), strings.Compare(b.ID, a.ID))
	})

	result := &ports.ListResult{Products: []domain.Product{}, Total: len(matched)}
	start := filter.Offset()
	if start >= len(matched) {
		return result, nil
	}
	end := min(start+filter.PageSize, len(matched))
	for _, product := range matched[start:end] {
		result.Products = append(result.Products, clone(product))
	}
	return result, nil
}

func (r *Repository) Update(_ context.Context, id string, patch domain.ProductPatch, updatedAt time.Time) (*domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	product, ok := r.products[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	patch.Apply(&product)
	product.UpdatedAt = updatedAt
	r.products[id] = clone(product)

	product = clone(product)
	return &product, nil
}

func (r *Repository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.products[id]; !ok {
		return ports.ErrNotFound
	}
	delete(r.products, id)
	return nil
}

func (r *Repository) ProductNames(_ context.Context, ids []string) (map[string]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make(map[string]string, len(ids))
	for _, id := range ids {
		parsed, err := uuid.Parse(id)
		if err != nil {
			continue
		}
		if product, ok := r.products[parsed.String()]; ok {
			names[id] = product.Name
		}
	}
	return names, nil
}

func clone(p domain.Product) domain.Product {
	p.GalleryURLs = slices.Clone(domain.NonNil(p.GalleryURLs))
	p.Sizes = slices.Clone(domain.NonNil(p.Sizes))
	p.Colors = slices.Clone(domain.NonNil(p.Colors))
	return p
}

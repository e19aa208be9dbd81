package ports

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/dejobratic/storefront/internal/catalog/domain"
)

// ProductRepository is the product persistence port.
type ProductRepository interface {
	Create(ctx context.Context, product domain.Product) error
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	List(ctx context.Context, filter ListFilter) (*ListResult, error)
	Update(ctx context.Context, id string, patch domain.ProductPatch, updatedAt time.Time) (*domain.Product, error)
	Delete(ctx context.Context, id string) error
	// ProductNames returns the names of the products that exist, keyed by id.
	ProductNames(ctx context.Context, ids []string) (map[string]string, error)
}

// ListFilter narrows product lists. Empty strings mean no filter. Page is 1-based.
type ListFilter struct {
	Search   string
	Category string
	SellerID string
	Page     int
	PageSize int
}

// MaxOffset bounds the row offset of any list query.
const MaxOffset = math.MaxInt32

// Offset is the number of rows before the requested page. It saturates at MaxOffset, so
// a page far past the last row reads as empty.
func (f ListFilter) Offset() int {
	if f.Page <= 1 || f.PageSize <= 0 {
		return 0
	}
	if f.Page-1 > MaxOffset/f.PageSize {
		return MaxOffset
	}
	return (f.Page - 1) * f.PageSize
}

// ListResult is one page of products plus the total number of matches.
type ListResult struct {
	Products []domain.Product
	Total    int
}

var ErrNotFound = errors.New("product not found")

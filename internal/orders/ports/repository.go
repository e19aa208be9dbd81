package ports

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/dejobratic/storefront/internal/orders/domain"
)

// OrderRepository exposes persistence operations required by the application layer.
type OrderRepository interface {
	// Create stores the order and all of its items atomically.
	Create(ctx context.Context, order domain.Order) error
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	List(ctx context.Context, filter ListFilter) (*ListResult, error)
	UpdateStatus(ctx context.Context, id string, status domain.OrderStatus, updatedAt time.Time) error
	UpdateCourier(ctx context.Context, id string, company, tracking *string, updatedAt time.Time) error
	CountByStatus(ctx context.Context) (map[string]int, error)
}

// ListFilter narrows list queries. Search matches the order id or customer name.
type ListFilter struct {
	Status   domain.OrderStatus
	Search   string
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

type ListResult struct {
	Orders []domain.Order
	Total  int
}

// ProductLookup resolves product names for order snapshots. Unknown ids are absent from
// the result.
type ProductLookup interface {
	ProductNames(ctx context.Context, ids []string) (map[string]string, error)
}

var (
	// ErrNotFound is returned when the requested order does not exist.
	ErrNotFound = errors.New("order not found")

	// ErrDuplicateID is returned when an order id is already taken.
	ErrDuplicateID = errors.New("order id already exists")
)

package memory

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/dejobratic/storefront/internal/orders/domain"
	"github.com/dejobratic/storefront/internal/orders/ports"
)

// Repository provides an in-memory store useful for local development and tests.
type Repository struct {
	mu     sync.RWMutex
	orders map[string]domain.Order
}

func NewRepository() *Repository {
	return &Repository{orders: make(map[string]domain.Order)}
}

func (r *Repository) Create(_ context.Context, order domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.orders[order.ID]; exists {
		return ports.ErrDuplicateID
	}
	r.orders[order.ID] = clone(order)
	return nil
}

func (r *Repository) GetByID(_ context.Context, id string) (*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	order, ok := r.orders[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	order = clone(order)
	return &order, nil
}

// List returns orders newest first. Pagination is 1-based.
func (r *Repository) List(_ context.Context, filter ports.ListFilter) (*ports.ListResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	search := strings.ToLower(filter.Search)
	var matched []domain.Order
	for _, order := range r.orders {
		if filter.Status != "" && order.Status != filter.Status {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(order.ID), search) &&
			!strings.Contains(strings.ToLower(order.CustomerName), search) {
			continue
		}
		matched = append(matched, order)
	}

	slices.SortFunc(matched, func(a, b domain.Order) int {
		return cmp.Or(b.CreatedAt.Compare(a.CreatedAt), strings.Compare(b.ID, a.ID))
	})

	result := &ports.ListResult{Orders: []domain.Order{}, Total: len(matched)}
	start := filter.Offset()
	if start >= len(matched) {
		return result, nil
	}
	end := min(start+filter.PageSize, len(matched))
	for _, order := range matched[start:end] {
		result.Orders = append(result.Orders, clone(order))
	}
	return result, nil
}

func (r *Repository) UpdateStatus(_ context.Context, id string, status domain.OrderStatus, updatedAt time.Time) error {
	return r.update(id, func(order *domain.Order) {
		order.Status = status
		order.UpdatedAt = updatedAt
	})
}

func (r *Repository) UpdateCourier(_ context.Context, id string, company, tracking *string, updatedAt time.Time) error {
	return r.update(id, func(order *domain.Order) {
		order.CourierCompany = company
		order.CourierTracking = tracking
		order.UpdatedAt = updatedAt
	})
}

func (r *Repository) CountByStatus(_ context.Context) (map[string]int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	counts := make(map[string]int)
	for _, order := range r.orders {
		counts[string(order.Status)]++
	}
	return counts, nil
}

func (r *Repository) update(id string, mutate func(*domain.Order)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.orders[id]
	if !ok {
		return ports.ErrNotFound
	}
	mutate(&order)
	r.orders[id] = order
	return nil
}

func clone(order domain.Order) domain.Order {
	order.Items = slices.Clone(order.Items)
	if order.Items == nil {
		order.Items = []domain.OrderItem{}
	}
	return order
}

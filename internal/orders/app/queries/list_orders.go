package queries

import (
	"context"
	"fmt"
	"strings"

	"github.com/dejobratic/storefront/internal/apperror"
	"github.com/dejobratic/storefront/internal/orders/domain"
	"github.com/dejobratic/storefront/internal/orders/ports"
)

// ListOrdersQuery pages through orders, newest first. An empty Status or Search does not
// filter.
type ListOrdersQuery struct {
	Status string
	Search string
	Page   int
	Limit  int
}

type ListOrdersResult struct {
	Orders []domain.Order
	Page   int
	Limit  int
	Total  int
}

type ListOrdersQueryHandler struct {
	repo ports.OrderRepository
}

func NewListOrdersQueryHandler(repo ports.OrderRepository) *ListOrdersQueryHandler {
	return &ListOrdersQueryHandler{repo: repo}
}

func (h *ListOrdersQueryHandler) Handle(ctx context.Context, query ListOrdersQuery) (*ListOrdersResult, error) {
	filter := ports.ListFilter{
		Search:   strings.TrimSpace(query.Search),
		Page:     query.Page,
		PageSize: query.Limit,
	}

	if query.Status != "" {
		status, ok := domain.ParseStatus(query.Status)
		if !ok {
			return nil, apperror.Validation("Invalid status filter").
				WithDetails(map[string]string{"status": query.Status})
		}
		filter.Status = status
	}

	result, err := h.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}

	orders := result.Orders
	if orders == nil {
		orders = []domain.Order{}
	}

	return &ListOrdersResult{
		Orders: orders,
		Page:   query.Page,
		Limit:  query.Limit,
		Total:  result.Total,
	}, nil
}

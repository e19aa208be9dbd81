package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dejobratic/storefront/internal/apperror"
	"github.com/dejobratic/storefront/internal/orders/domain"
	"github.com/dejobratic/storefront/internal/orders/ports"
	"github.com/dejobratic/storefront/internal/validation"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CreateOrderItem struct {
	ProductID string          `json:"product_id" validate:"notblank"`
	Quantity  int             `json:"quantity" validate:"min=1"`
	Size      *string         `json:"size"`
	Color     *string         `json:"color"`
	Price     decimal.Decimal `json:"price"`
}

type CreateOrderCommand struct {
	CustomerName    string            `json:"customer_name" validate:"notblank"`
	CustomerPhone   string            `json:"customer_phone" validate:"notblank"`
	DeliveryAddress string            `json:"delivery_address" validate:"notblank"`
	DeliveryNotes   *string           `json:"delivery_notes"`
	Items           []CreateOrderItem `json:"items" validate:"notblank,dive"`
	TotalAmount     decimal.Decimal   `json:"total_amount"`
	PaymentProofURL *string           `json:"payment_proof_url"`
}

func (c CreateOrderCommand) Validate() error {
	return validation.Struct(c, createOrderMessage)
}

func createOrderMessage(failed []validation.FieldError) string {
	for _, fe := range failed {
		switch fe.Field {
		case "customer_name", "customer_phone", "delivery_address", "items":
			return "Missing required order fields"
		}
	}
	for _, fe := range failed {
		if fe.Field == "product_id" {
			return "Product ID is required for each item"
		}
	}
	return "Quantity must be at least 1"
}

type CommandHandler interface {
	Handle(ctx context.Context, cmd CreateOrderCommand) (*domain.Order, error)
}

// MissingProductPolicy decides what happens to an item whose product does not exist.
type MissingProductPolicy struct {
	Reject          bool
	PlaceholderName string
}

type CreateOrderCommandHandler struct {
	repo     ports.OrderRepository
	products ports.ProductLookup
	events   ports.EventBus
	policy   MissingProductPolicy
	logger   *slog.Logger
	now      func() time.Time
}

func NewCreateOrderCommandHandler(
	repo ports.OrderRepository,
	products ports.ProductLookup,
	events ports.EventBus,
	policy MissingProductPolicy,
	logger *slog.Logger,
	now func() time.Time,
) *CreateOrderCommandHandler {
	if now == nil {
		now = time.Now
	}
	return &CreateOrderCommandHandler{
		repo:     repo,
		products: products,
		events:   events,
		policy:   policy,
		logger:   logger,
		now:      now,
	}
}

func (h *CreateOrderCommandHandler) Handle(ctx context.Context, cmd CreateOrderCommand) (*domain.Order, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(cmd.Items))
	for _, item := range cmd.Items {
		ids = append(ids, item.ProductID)
	}
	names, err := h.products.ProductNames(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("look up product names: %w", err)
	}

	now := h.now().UTC()
	order := domain.Order{
		ID:              domain.NewOrderID(now),
		CustomerName:    cmd.CustomerName,
		CustomerPhone:   cmd.CustomerPhone,
		DeliveryAddress: cmd.DeliveryAddress,
		DeliveryNotes:   optional(cmd.DeliveryNotes),
		TotalAmount:     cmd.TotalAmount,
		PaymentProofURL: optional(cmd.PaymentProofURL),
		Status:          domain.StatusPending,
		CreatedAt:       now,
		UpdatedAt:       now,
		Items:           make([]domain.OrderItem, 0, len(cmd.Items)),
	}

	for _, item := range cmd.Items {
		name, found := names[item.ProductID]
		if !found {
			if h.policy.Reject {
				return nil, apperror.Validation("Product not found: " + item.ProductID).
					WithDetails(map[string]string{"product_id": item.ProductID})
			}
			h.logger.WarnContext(ctx, "product not found, using placeholder name",
				"product_id", item.ProductID,
				"placeholder", h.policy.PlaceholderName,
			)
			name = h.policy.PlaceholderName
		}

		order.Items = append(order.Items, domain.OrderItem{
			ID:          uuid.NewString(),
			OrderID:     order.ID,
			ProductID:   item.ProductID,
			ProductName: name,
			Quantity:    item.Quantity,
			Size:        optional(item.Size),
			Color:       optional(item.Color),
			Price:       item.Price,
			CreatedAt:   now,
		})
	}

	if err := h.repo.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	created, err := h.repo.GetByID(ctx, order.ID)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return nil, fmt.Errorf("created order %s vanished: %w", order.ID, err)
		}
		return nil, fmt.Errorf("reload order: %w", err)
	}

	if err := h.events.PublishOrderCreated(ctx, *created); err != nil {
		h.logger.WarnContext(ctx, "order saved but failed to publish event",
			"order_id", created.ID,
			"error", err,
		)
	}

	return created, nil
}

// optional maps blank strings to NULL.
func optional(value *string) *string {
	if value == nil || strings.TrimSpace(*value) == "" {
		return nil
	}
	return value
}

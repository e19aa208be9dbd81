package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dejobratic/storefront/internal/apperror"
	"github.com/dejobratic/storefront/internal/orders/domain"
	"github.com/dejobratic/storefront/internal/orders/ports"
)

// UpdateCourierCommand overwrites both courier fields; a nil field clears it.
type UpdateCourierCommand struct {
	OrderID         string  `json:"-"`
	CourierCompany  *string `json:"courierCompany"`
	CourierTracking *string `json:"courierTracking"`
}

type UpdateCourierCommandHandler struct {
	repo   ports.OrderRepository
	logger *slog.Logger
	now    func() time.Time
}

func NewUpdateCourierCommandHandler(repo ports.OrderRepository, logger *slog.Logger, now func() time.Time) *UpdateCourierCommandHandler {
	if now == nil {
		now = time.Now
	}
	return &UpdateCourierCommandHandler{repo: repo, logger: logger, now: now}
}

func (h *UpdateCourierCommandHandler) Handle(ctx context.Context, cmd UpdateCourierCommand) (*domain.Order, error) {
	order, err := loadOrder(ctx, h.repo, cmd.OrderID)
	if err != nil {
		return nil, err
	}

	err = h.repo.UpdateCourier(ctx, order.ID, cmd.CourierCompany, cmd.CourierTracking, h.now().UTC())
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return nil, apperror.NotFound("Order")
		}
		return nil, fmt.Errorf("update order courier: %w", err)
	}

	h.logger.InfoContext(ctx, "order courier updated", "order_id", order.ID)

	return loadOrder(ctx, h.repo, order.ID)
}

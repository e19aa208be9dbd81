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
	"github.com/dejobratic/storefront/internal/orders/metrics"
	"github.com/dejobratic/storefront/internal/orders/ports"
)

type UpdateStatusCommand struct {
	OrderID string
	Status  string
}

type UpdateStatusCommandHandler struct {
	repo    ports.OrderRepository
	events  ports.EventBus
	metrics *metrics.Metrics
	logger  *slog.Logger
	now     func() time.Time
}

func NewUpdateStatusCommandHandler(
	repo ports.OrderRepository,
	events ports.EventBus,
	metrics *metrics.Metrics,
	logger *slog.Logger,
	now func() time.Time,
) *UpdateStatusCommandHandler {
	if now == nil {
		now = time.Now
	}
	return &UpdateStatusCommandHandler{
		repo:    repo,
		events:  events,
		metrics: metrics,
		logger:  logger,
		now:     now,
	}
}

func invalidStatusMessage() string {
	names := make([]string, len(domain.Statuses))
	for i, status := range domain.Statuses {
		names[i] = string(status)
	}
	return "Invalid status. Must be one of: " + strings.Join(names, ", ")
}

// Handle moves the order forward. Requesting the current status is accepted and still
// persisted.
func (h *UpdateStatusCommandHandler) Handle(ctx context.Context, cmd UpdateStatusCommand) (*domain.Order, error) {
	next, ok := domain.ParseStatus(cmd.Status)
	if !ok {
		return nil, apperror.Validation(invalidStatusMessage())
	}

	order, err := loadOrder(ctx, h.repo, cmd.OrderID)
	if err != nil {
		return nil, err
	}

	current := order.Status
	if !current.CanAdvanceTo(next) {
		return nil, apperror.Validation("Cannot revert order status to a previous state").
			WithDetails(map[string]string{"current": string(current), "requested": string(next)})
	}

	if err := h.repo.UpdateStatus(ctx, order.ID, next, h.now().UTC()); err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return nil, apperror.NotFound("Order")
		}
		return nil, fmt.Errorf("update order status: %w", err)
	}

	h.metrics.RecordStatusTransition(ctx, string(current), string(next))
	h.logger.InfoContext(ctx, "order status updated",
		"order_id", order.ID,
		"from", current,
		"to", next,
	)

	if err := h.events.PublishOrderStatusChanged(ctx, order.ID, current, next); err != nil {
		h.logger.WarnContext(ctx, "status updated but failed to publish event",
			"order_id", order.ID,
			"error", err,
		)
	}

	return loadOrder(ctx, h.repo, order.ID)
}

func loadOrder(ctx context.Context, repo ports.OrderRepository, id string) (*domain.Order, error) {
	order, err := repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return nil, apperror.NotFound("Order")
		}
		return nil, fmt.Errorf("get order: %w", err)
	}
	return order, nil
}

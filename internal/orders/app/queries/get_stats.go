package queries

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dejobratic/storefront/internal/orders/domain"
	"github.com/dejobratic/storefront/internal/orders/ports"
)

type GetStatsQueryHandler struct {
	repo   ports.OrderRepository
	logger *slog.Logger
}

func NewGetStatsQueryHandler(repo ports.OrderRepository, logger *slog.Logger) *GetStatsQueryHandler {
	return &GetStatsQueryHandler{repo: repo, logger: logger}
}

func (h *GetStatsQueryHandler) Handle(ctx context.Context) (domain.Stats, error) {
	counts, err := h.repo.CountByStatus(ctx)
	if err != nil {
		return domain.Stats{}, fmt.Errorf("count orders by status: %w", err)
	}

	var stats domain.Stats
	for status, n := range counts {
		if !stats.Add(status, n) {
			h.logger.WarnContext(ctx, "orders with unknown status", "status", status, "count", n)
		}
	}

	return stats, nil
}

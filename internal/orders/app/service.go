package app

import (
	"context"
	"log/slog"
	"time"

	"github.com/dejobratic/storefront/internal/orders/app/commands"
	"github.com/dejobratic/storefront/internal/orders/app/queries"
	"github.com/dejobratic/storefront/internal/orders/domain"
	"github.com/dejobratic/storefront/internal/orders/metrics"
	"github.com/dejobratic/storefront/internal/orders/ports"
)

// Service bundles use cases for handling orders via the API.
type Service struct {
	idemStore ports.IdempotencyStore

	createOrder   commands.CommandHandler
	updateStatus  *commands.UpdateStatusCommandHandler
	updateCourier *commands.UpdateCourierCommandHandler
	getOrder      *queries.GetOrderQueryHandler
	listOrders    *queries.ListOrdersQueryHandler
	getStats      *queries.GetStatsQueryHandler
}

type Dependencies struct {
	Repo     ports.OrderRepository
	Products ports.ProductLookup
	Events   ports.EventBus
	Idem     ports.IdempotencyStore
	Policy   commands.MissingProductPolicy
	Logger   *slog.Logger
	Metrics  *metrics.Metrics
	// Now defaults to time.Now.
	Now func() time.Time
}

// NewService wires required dependencies.
func NewService(deps Dependencies) *Service {
	coreHandler := commands.NewCreateOrderCommandHandler(
		deps.Repo, deps.Products, deps.Events, deps.Policy, deps.Logger, deps.Now,
	)

	return &Service{
		idemStore:     deps.Idem,
		createOrder:   commands.NewObservableCreateOrderHandler(coreHandler, deps.Logger, deps.Metrics),
		updateStatus:  commands.NewUpdateStatusCommandHandler(deps.Repo, deps.Events, deps.Metrics, deps.Logger, deps.Now),
		updateCourier: commands.NewUpdateCourierCommandHandler(deps.Repo, deps.Logger, deps.Now),
		getOrder:      queries.NewGetOrderQueryHandler(deps.Repo),
		listOrders:    queries.NewListOrdersQueryHandler(deps.Repo),
		getStats:      queries.NewGetStatsQueryHandler(deps.Repo, deps.Logger),
	}
}

// CreateOrder validates the checkout, stores the order with its items and announces it.
func (s *Service) CreateOrder(ctx context.Context, cmd commands.CreateOrderCommand) (*domain.Order, error) {
	return s.createOrder.Handle(ctx, cmd)
}

func (s *Service) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	return s.getOrder.Handle(ctx, queries.GetOrderQuery{OrderID: id})
}

func (s *Service) ListOrders(ctx context.Context, query queries.ListOrdersQuery) (*queries.ListOrdersResult, error) {
	return s.listOrders.Handle(ctx, query)
}

func (s *Service) UpdateStatus(ctx context.Context, id, status string) (*domain.Order, error) {
	return s.updateStatus.Handle(ctx, commands.UpdateStatusCommand{OrderID: id, Status: status})
}

func (s *Service) UpdateCourier(ctx context.Context, cmd commands.UpdateCourierCommand) (*domain.Order, error) {
	return s.updateCourier.Handle(ctx, cmd)
}

func (s *Service) Stats(ctx context.Context) (domain.Stats, error) {
	return s.getStats.Handle(ctx)
}

// SaveIdempotentResponse writes response details for a key.
func (s *Service) SaveIdempotentResponse(ctx context.Context, key string, response ports.StoredResponse) error {
	return s.idemStore.Save(ctx, key, response)
}

// GetIdempotentResponse retrieves previously stored response data.
func (s *Service) GetIdempotentResponse(ctx context.Context, key string) (*ports.StoredResponse, error) {
	return s.idemStore.Get(ctx, key)
}

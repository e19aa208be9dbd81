package commands_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dejobratic/storefront/internal/apperror"
	"github.com/dejobratic/storefront/internal/orders/adapters/memory"
	"github.com/dejobratic/storefront/internal/orders/app/commands"
	"github.com/dejobratic/storefront/internal/orders/domain"
	"github.com/dejobratic/storefront/internal/orders/metrics"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
)

func noopMetrics(t *testing.T) *metrics.Metrics {
	t.Helper()
	m, err := metrics.NewMetrics(metricnoop.NewMeterProvider().Meter("test"))
	if err != nil {
		t.Fatalf("NewMetrics() failed: %v", err)
	}
	return m
}

func seedOrder(t *testing.T, repo *memory.Repository, status domain.OrderStatus) domain.Order {
	t.Helper()
	order := domain.Order{
		ID:        "ORD-100000001",
		Status:    status,
		CreatedAt: fixedNow.Add(-time.Hour),
		UpdatedAt: fixedNow.Add(-time.Hour),
		Items:     []domain.OrderItem{{ID: "item-1", OrderID: "ORD-100000001", ProductID: "p-1", Quantity: 1}},
	}
	if err := repo.Create(context.Background(), order); err != nil {
		t.Fatalf("seed order: %v", err)
	}
	return order
}

func TestUpdateStatusTransitions(t *testing.T) {
	for _, current := range domain.Statuses {
		for _, requested := range domain.Statuses {
			allowed := requested.Ordinal() >= current.Ordinal()
			t.Run(string(current)+" to "+string(requested), func(t *testing.T) {
				repo := memory.NewRepository()
				seeded := seedOrder(t, repo, current)
				events := &mockEventBus{}
				handler := commands.NewUpdateStatusCommandHandler(repo, events, noopMetrics(t), discardLogger(), clock)

				order, err := handler.Handle(context.Background(), commands.UpdateStatusCommand{
					OrderID: seeded.ID,
					Status:  string(requested),
				})

				if !allowed {
					if !apperror.Is(err, apperror.KindValidation) {
						t.Fatalf("expected validation error, got %v", err)
					}
					if err.Error() != "Cannot revert order status to a previous state" {
						t.Errorf("unexpected message %q", err.Error())
					}
					stored, _ := repo.GetByID(context.Background(), seeded.ID)
					if stored.Status != current {
						t.Errorf("expected status to stay %s, got %s", current, stored.Status)
					}
					if len(events.changed) != 0 {
						t.Error("expected no event for a rejected transition")
					}
					return
				}

				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				if order.Status != requested {
					t.Errorf("expected status %s, got %s", requested, order.Status)
				}
				if !order.UpdatedAt.Equal(fixedNow) {
					t.Errorf("expected updated_at %v, got %v", fixedNow, order.UpdatedAt)
				}
				if len(order.Items) != 1 {
					t.Errorf("expected re-fetched order with items, got %d", len(order.Items))
				}
				want := seeded.ID + ":" + string(current) + "->" + string(requested)
				if len(events.changed) != 1 || events.changed[0] != want {
					t.Errorf("expected event %s, got %v", want, events.changed)
				}
			})
		}
	}
}

func TestUpdateStatusErrors(t *testing.T) {
	t.Run("unknown status", func(t *testing.T) {
		repo := memory.NewRepository()
		seeded := seedOrder(t, repo, domain.StatusPending)
		handler := commands.NewUpdateStatusCommandHandler(repo, &mockEventBus{}, noopMetrics(t), discardLogger(), clock)

		_, err := handler.Handle(context.Background(), commands.UpdateStatusCommand{OrderID: seeded.ID, Status: "cancelled"})
		if !apperror.Is(err, apperror.KindValidation) {
			t.Fatalf("expected validation error, got %v", err)
		}
		want := "Invalid status. Must be one of: pending, processing, shipped, delivered"
		if err.Error() != want {
			t.Errorf("expected %q, got %q", want, err.Error())
		}
	})

	t.Run("missing order", func(t *testing.T) {
		handler := commands.NewUpdateStatusCommandHandler(memory.NewRepository(), &mockEventBus{}, noopMetrics(t), discardLogger(), clock)

		_, err := handler.Handle(context.Background(), commands.UpdateStatusCommand{OrderID: "ORD-404", Status: "shipped"})
		if !apperror.Is(err, apperror.KindNotFound) {
			t.Fatalf("expected not found, got %v", err)
		}
		if err.Error() != "Order not found" {
			t.Errorf("unexpected message %q", err.Error())
		}
	})

	t.Run("event failure does not fail the update", func(t *testing.T) {
		repo := memory.NewRepository()
		seeded := seedOrder(t, repo, domain.StatusPending)
		events := &mockEventBus{err: errors.New("broker down")}
		handler := commands.NewUpdateStatusCommandHandler(repo, events, noopMetrics(t), discardLogger(), clock)

		order, err := handler.Handle(context.Background(), commands.UpdateStatusCommand{OrderID: seeded.ID, Status: "processing"})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if order.Status != domain.StatusProcessing {
			t.Errorf("expected processing, got %s", order.Status)
		}
	})
}

func TestUpdateCourier(t *testing.T) {
	t.Run("overwrites both fields", func(t *testing.T) {
		repo := memory.NewRepository()
		seeded := seedOrder(t, repo, domain.StatusShipped)
		handler := commands.NewUpdateCourierCommandHandler(repo, discardLogger(), clock)

		order, err := handler.Handle(context.Background(), commands.UpdateCourierCommand{
			OrderID:         seeded.ID,
			CourierCompany:  ptr("DHL"),
			CourierTracking: ptr("JD014600006281234567"),
		})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if order.CourierCompany == nil || *order.CourierCompany != "DHL" {
			t.Errorf("unexpected courier company %v", order.CourierCompany)
		}

		order, err = handler.Handle(context.Background(), commands.UpdateCourierCommand{
			OrderID:        seeded.ID,
			CourierCompany: ptr("UPS"),
		})
		if err != nil {
			t.Fatalf("second update failed: %v", err)
		}
		if *order.CourierCompany != "UPS" {
			t.Errorf("expected UPS, got %s", *order.CourierCompany)
		}
		if order.CourierTracking != nil {
			t.Errorf("expected tracking to be cleared, got %s", *order.CourierTracking)
		}
		if !order.UpdatedAt.Equal(fixedNow) {
			t.Errorf("expected updated_at %v, got %v", fixedNow, order.UpdatedAt)
		}
	})

	t.Run("missing order", func(t *testing.T) {
		handler := commands.NewUpdateCourierCommandHandler(memory.NewRepository(), discardLogger(), clock)

		_, err := handler.Handle(context.Background(), commands.UpdateCourierCommand{OrderID: "ORD-404"})
		if !apperror.Is(err, apperror.KindNotFound) {
			t.Fatalf("expected not found, got %v", err)
		}
	})
}

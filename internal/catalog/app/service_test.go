package app_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/dejobratic/storefront/internal/apperror"
	"github.com/dejobratic/storefront/internal/catalog/adapters/memory"
	"github.com/dejobratic/storefront/internal/catalog/app"
	"github.com/dejobratic/storefront/internal/catalog/domain"
	"github.com/dejobratic/storefront/internal/catalog/ports"
	"github.com/shopspring/decimal"
)

const (
	sellerA = "11111111-1111-4111-8111-111111111111"
	sellerB = "22222222-2222-4222-8222-222222222222"
)

// countingRepository records writes so tests can assert none happened.
type countingRepository struct {
	*memory.Repository
	updates int
	deletes int
}

func (r *countingRepository) Update(ctx context.Context, id string, patch domain.ProductPatch, at time.Time) (*domain.Product, error) {
	r.updates++
	return r.Repository.Update(ctx, id, patch, at)
}

func (r *countingRepository) Delete(ctx context.Context, id string) error {
	r.deletes++
	return r.Repository.Delete(ctx, id)
}

func newService() (*app.Service, *countingRepository) {
	repo := &countingRepository{Repository: memory.NewRepository()}
	return app.NewService(repo, slog.New(slog.NewTextHandler(io.Discard, nil))), repo
}

func validInput() app.CreateProductInput {
	return app.CreateProductInput{
		Name:     "Silk scarf",
		Price:    decimal.RequireFromString("35.00"),
		Category: "accessories",
	}
}

func assertKind(t *testing.T, err error, kind apperror.Kind, message string) {
	t.Helper()
	var appErr *apperror.Error
	if !errors.As(err, &appErr) {
		t.Fatalf("expected *apperror.Error, got %v", err)
	}
	if appErr.Kind != kind || appErr.Message != message {
		t.Errorf("expected %s %q, got %s %q", kind.Code(), message, appErr.Kind.Code(), appErr.Message)
	}
}

func TestCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("defaults", func(t *testing.T) {
		svc, _ := newService()
		product, err := svc.Create(ctx, sellerA, validInput())
		if err != nil {
			t.Fatalf("Create() failed: %v", err)
		}
		if product.SellerID != sellerA || !product.InStock {
			t.Errorf("unexpected product %+v", product)
		}
		if product.GalleryURLs == nil || product.Sizes == nil || product.Colors == nil {
			t.Error("expected empty, non-nil list fields")
		}

		stored, err := svc.Get(ctx, product.ID)
		if err != nil {
			t.Fatalf("Get() failed: %v", err)
		}
		if stored.Name != "Silk scarf" {
			t.Errorf("expected stored product, got %+v", stored)
		}
	})

	invalid := []struct {
		name   string
		mutate func(*app.CreateProductInput)
	}{
		{"blank name", func(in *app.CreateProductInput) { in.Name = " " }},
		{"missing category", func(in *app.CreateProductInput) { in.Category = "" }},
		{"zero price", func(in *app.CreateProductInput) { in.Price = decimal.Zero }},
	}
	for _, tc := range invalid {
		t.Run(tc.name, func(t *testing.T) {
			svc, _ := newService()
			input := validInput()
			tc.mutate(&input)
			_, err := svc.Create(ctx, sellerA, input)
			assertKind(t, err, apperror.KindValidation, "Name, price, and category are required")
		})
	}
}

func TestGetMissing(t *testing.T) {
	svc, _ := newService()
	_, err := svc.Get(context.Background(), "does-not-exist")
	assertKind(t, err, apperror.KindNotFound, "Product not found")
}

func TestUpdate(t *testing.T) {
	ctx := context.Background()

	t.Run("owner can patch", func(t *testing.T) {
		svc, repo := newService()
		product, _ := svc.Create(ctx, sellerA, validInput())

		price := decimal.RequireFromString("40.00")
		updated, err := svc.Update(ctx, product.ID, sellerA, domain.ProductPatch{Price: &price})
		if err != nil {
			t.Fatalf("Update() failed: %v", err)
		}
		if !updated.Price.Equal(price) || updated.Name != product.Name {
			t.Errorf("unexpected updated product %+v", updated)
		}
		if repo.updates != 1 {
			t.Errorf("expected 1 write, got %d", repo.updates)
		}
	})

	t.Run("ownership mismatch leaves row untouched", func(t *testing.T) {
		svc, repo := newService()
		product, _ := svc.Create(ctx, sellerA, validInput())

		name := "Stolen"
		_, err := svc.Update(ctx, product.ID, sellerB, domain.ProductPatch{Name: &name})
		assertKind(t, err, apperror.KindAuthorization, "You can only edit your own products")

		stored, _ := svc.Get(ctx, product.ID)
		if stored.Name != "Silk scarf" {
			t.Errorf("row was modified: %+v", stored)
		}
		if repo.updates != 0 {
			t.Errorf("expected no writes, got %d", repo.updates)
		}
	})

	t.Run("empty patch returns row without writing", func(t *testing.T) {
		svc, repo := newService()
		product, _ := svc.Create(ctx, sellerA, validInput())

		got, err := svc.Update(ctx, product.ID, sellerA, domain.ProductPatch{})
		if err != nil {
			t.Fatalf("Update() failed: %v", err)
		}
		if got.ID != product.ID || !got.UpdatedAt.Equal(product.UpdatedAt) {
			t.Errorf("expected unchanged product, got %+v", got)
		}
		if repo.updates != 0 {
			t.Errorf("expected no writes, got %d", repo.updates)
		}
	})

	t.Run("missing product", func(t *testing.T) {
		svc, _ := newService()
		_, err := svc.Update(ctx, "nope", sellerA, domain.ProductPatch{})
		assertKind(t, err, apperror.KindNotFound, "Product not found")
	})
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	svc, repo := newService()
	product, _ := svc.Create(ctx, sellerA, validInput())

	err := svc.Delete(ctx, product.ID, sellerB)
	assertKind(t, err, apperror.KindAuthorization, "You can only delete your own products")
	if repo.deletes != 0 {
		t.Errorf("expected no deletes, got %d", repo.deletes)
	}

	if err := svc.Delete(ctx, product.ID, sellerA); err != nil {
		t.Fatalf("Delete() failed: %v", err)
	}
	_, err = svc.Get(ctx, product.ID)
	assertKind(t, err, apperror.KindNotFound, "Product not found")
}

func TestListPagination(t *testing.T) {
	ctx := context.Background()
	svc, repo := newService()

	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	for i := range 5 {
		category := "dresses"
		if i%2 == 1 {
			category = "shoes"
		}
		_ = repo.Create(ctx, domain.Product{
			ID:          fmt.Sprintf("p-%d", i),
			SellerID:    sellerA,
			Name:        fmt.Sprintf("Item %d", i),
			Description: "cotton",
			Price:       decimal.NewFromInt(10),
			Category:    category,
			CreatedAt:   base.Add(time.Duration(i) * time.Hour),
		})
	}

	tests := []struct {
		name      string
		input     app.ListInput
		wantIDs   []string
		wantTotal int
	}{
		{"first page newest first", app.ListInput{Page: app.Page{Number: 1, Size: 2}}, []string{"p-4", "p-3"}, 5},
		{"last partial page", app.ListInput{Page: app.Page{Number: 3, Size: 2}}, []string{"p-0"}, 5},
		{"beyond range", app.ListInput{Page: app.Page{Number: 9, Size: 2}}, []string{}, 5},
		{"category filter", app.ListInput{Category: "shoes", Page: app.Page{Number: 1, Size: 20}}, []string{"p-3", "p-1"}, 2},
		{"search matches description", app.ListInput{Search: "COTTON", Page: app.Page{Number: 2, Size: 4}}, []string{"p-0"}, 5},
		{"search no match", app.ListInput{Search: "wool", Page: app.Page{Number: 1, Size: 20}}, []string{}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := svc.List(ctx, tt.input)
			if err != nil {
				t.Fatalf("List() failed: %v", err)
			}
			assertPage(t, result, tt.wantIDs, tt.wantTotal)
		})
	}

	t.Run("by seller", func(t *testing.T) {
		result, err := svc.ListBySeller(ctx, sellerB, app.Page{Number: 1, Size: 20})
		if err != nil {
			t.Fatalf("ListBySeller() failed: %v", err)
		}
		assertPage(t, result, []string{}, 0)

		result, _ = svc.ListBySeller(ctx, sellerA, app.Page{Number: 2, Size: 3})
		assertPage(t, result, []string{"p-1", "p-0"}, 5)
	})
}

func assertPage(t *testing.T, result *ports.ListResult, wantIDs []string, wantTotal int) {
	t.Helper()
	if result.Total != wantTotal {
		t.Errorf("expected total %d, got %d", wantTotal, result.Total)
	}
	if result.Products == nil {
		t.Fatal("expected non-nil product slice")
	}
	if len(result.Products) != len(wantIDs) {
		t.Fatalf("expected %d products, got %d", len(wantIDs), len(result.Products))
	}
	for i, id := range wantIDs {
		if result.Products[i].ID != id {
			t.Errorf("position %d: expected %s, got %s", i, id, result.Products[i].ID)
		}
	}
}

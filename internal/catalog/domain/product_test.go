package domain

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
)

func TestProductPatchDecoding(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantEmpty bool
	}{
		{"empty object", `{}`, true},
		{"only unknown keys", `{"seller_id":"x","id":"y","created_at":"2020-01-01T00:00:00Z"}`, true},
		{"null values", `{"name":null,"price":null,"sizes":null}`, true},
		{"one field", `{"in_stock":false}`, false},
		{"price as number", `{"price":12.5}`, false},
		{"price as string", `{"price":"12.50"}`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var patch ProductPatch
			if err := json.Unmarshal([]byte(tt.body), &patch); err != nil {
				t.Fatalf("unmarshal failed: %v", err)
			}
			if patch.Empty() != tt.wantEmpty {
				t.Errorf("Empty() = %v, want %v", patch.Empty(), tt.wantEmpty)
			}
		})
	}
}

func TestProductPatchApply(t *testing.T) {
	product := Product{
		Name:     "Dress",
		Price:    decimal.RequireFromString("10.00"),
		Category: "dresses",
		Sizes:    []string{"S"},
		InStock:  true,
	}

	name := "Evening dress"
	price := decimal.RequireFromString("49.99")
	outOfStock := false
	var noSizes []string

	ProductPatch{Name: &name, Price: &price, InStock: &outOfStock, Sizes: &noSizes}.Apply(&product)

	if product.Name != name {
		t.Errorf("expected name %q, got %q", name, product.Name)
	}
	if !product.Price.Equal(price) {
		t.Errorf("expected price %s, got %s", price, product.Price)
	}
	if product.InStock {
		t.Error("expected in_stock false")
	}
	if product.Sizes == nil || len(product.Sizes) != 0 {
		t.Errorf("expected empty non-nil sizes, got %#v", product.Sizes)
	}
	if product.Category != "dresses" {
		t.Errorf("untouched field changed: %q", product.Category)
	}
}

func TestProductPriceEncodesAsString(t *testing.T) {
	body, err := json.Marshal(Product{Price: decimal.RequireFromString("29.90")})
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var decoded map[string]any
	_ = json.Unmarshal(body, &decoded)
	if decoded["price"] != "29.9" {
		t.Errorf("expected price \"29.9\", got %#v", decoded["price"])
	}
}

package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID          string          `json:"id"`
	SellerID    string          `json:"seller_id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category"`
	ImageURL    string          `json:"image_url"`
	GalleryURLs []string        `json:"gallery_urls"`
	Sizes       []string        `json:"sizes"`
	Colors      []string        `json:"colors"`
	InStock     bool            `json:"in_stock"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// ProductPatch lists the fields a seller may change. Nil fields are left alone, so JSON
// nulls and absent keys behave the same.
type ProductPatch struct {
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	Category    *string          `json:"category"`
	ImageURL    *string          `json:"image_url"`
	GalleryURLs *[]string        `json:"gallery_urls"`
	Sizes       *[]string        `json:"sizes"`
	Colors      *[]string        `json:"colors"`
	InStock     *bool            `json:"in_stock"`
}

func (p ProductPatch) Empty() bool {
	return p.Name == nil &&
		p.Description == nil &&
		p.Price == nil &&
		p.Category == nil &&
		p.ImageURL == nil &&
		p.GalleryURLs == nil &&
		p.Sizes == nil &&
		p.Colors == nil &&
		p.InStock == nil
}

// Apply copies the set fields onto product.
func (p ProductPatch) Apply(product *Product) {
	if p.Name != nil {
		product.Name = *p.Name
	}
	if p.Description != nil {
		product.Description = *p.Description
	}
	if p.Price != nil {
		product.Price = *p.Price
	}
	if p.Category != nil {
		product.Category = *p.Category
	}
	if p.ImageURL != nil {
		product.ImageURL = *p.ImageURL
	}
	if p.GalleryURLs != nil {
		product.GalleryURLs = NonNil(*p.GalleryURLs)
	}
	if p.Sizes != nil {
		product.Sizes = NonNil(*p.Sizes)
	}
	if p.Colors != nil {
		product.Colors = NonNil(*p.Colors)
	}
	if p.InStock != nil {
		product.InStock = *p.InStock
	}
}

// NonNil turns a nil slice into an empty one so it encodes as [] and stores as '{}'.
func NonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PriceScale and MaxPrice mirror the products.price NUMERIC(10,2) column.
const PriceScale = 2

var MaxPrice = decimal.RequireFromString("99999999.99")

// Product is a catalog entry with an optional image stored in the blob store.
type Product struct {
	ID          uuid.UUID       `json:"id" db:"id"`
	Title       string          `json:"title" db:"title"`
	Description string          `json:"description" db:"description"`
	Price       decimal.Decimal `json:"price" db:"price"`
	Image       *string         `json:"image" db:"image"` // relative blob path, nil when no image
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at" db:"updated_at"`
}

// MarshalJSON renders price with exactly PriceScale fractional digits ("2.00").
func (p Product) MarshalJSON() ([]byte, error) {
	type product Product
	return json.Marshal(struct {
		product
		Price string `json:"price"`
	}{product(p), p.Price.StringFixed(PriceScale)})
}

// HasImage reports whether the product references a stored blob.
func (p *Product) HasImage() bool {
	return p.Image != nil && *p.Image != ""
}

// ProductChanges holds validated field values for create and update.
// A nil field means the caller did not supply it.
type ProductChanges struct {
	Title       *string
	Description *string
	Price       *decimal.Decimal
	Image       *ImageUpload
}

// Apply copies every supplied field onto the product. Image is handled by the service.
func (c *ProductChanges) Apply(p *Product) {
	if c.Title != nil {
		p.Title = *c.Title
	}
	if c.Description != nil {
		p.Description = *c.Description
	}
	if c.Price != nil {
		p.Price = *c.Price
	}
}

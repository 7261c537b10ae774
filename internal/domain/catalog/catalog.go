// Package catalog defines the read-side contract the engine consumes from
// the product catalog. The engine never writes to the catalog; products and
// variants are inputs to pricing and stock resolution.
package catalog

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Sentinel errors for catalog lookups.
var (
	ErrProductNotFound = errors.New("product not found")
	ErrVariantNotFound = errors.New("product variant not found")
)

// Product represents a catalog item available for purchase.
type Product struct {
	ID       string
	Name     string
	Price    decimal.Decimal
	Quantity int
	InStock  bool
}

// Variant is an optional sellable variation of a product (size, color, ...).
// When Price is non-nil it overrides the parent product's price. A variant
// tracks its own stock count.
type Variant struct {
	ID        string
	ProductID string
	Name      string
	Price     *decimal.Decimal
	Quantity  int
}

// EffectivePrice resolves the unit price for a product/variant pair. The
// variant may be nil when the line references the bare product.
func EffectivePrice(p *Product, v *Variant) decimal.Decimal {
	if v != nil && v.Price != nil {
		return *v.Price
	}
	return p.Price
}

// Repository defines read operations against the catalog.
type Repository interface {
	GetProduct(ctx context.Context, id string) (*Product, error)
	GetProductsByIDs(ctx context.Context, ids []string) ([]Product, error)
	GetVariant(ctx context.Context, id string) (*Variant, error)
	GetVariantsByIDs(ctx context.Context, ids []string) ([]Variant, error)
}

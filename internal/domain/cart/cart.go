// Package cart implements the shopping cart aggregate: the mutable set of
// selected lines an order is later created from.
package cart

import (
	"context"
	"time"

	"github.com/go-faster/errors"
)

// Sentinel errors for cart operations.
var (
	ErrNotFound        = errors.New("cart not found")
	ErrLineNotFound    = errors.New("cart line not found")
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
)

// Line is a single (product, variant, quantity, options) entry within a cart.
// VariantID is empty when the line references the bare product.
type Line struct {
	ID        string
	ProductID string
	VariantID string
	Quantity  int
	Size      string
	Color     string
}

// Cart belongs to exactly one customer or one anonymous session, never both.
// Version increments on every mutation and guards the cart-drain race during
// order creation.
type Cart struct {
	ID           string
	CustomerID   string
	SessionToken string
	Version      int64
	Lines        []Line
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// FindLine returns the line with the given ID, or nil.
func (c *Cart) FindLine(lineID string) *Line {
	for i := range c.Lines {
		if c.Lines[i].ID == lineID {
			return &c.Lines[i]
		}
	}
	return nil
}

// findMatch returns the line matching the (product, variant) pair, or nil.
// At most one such line exists; AddLine merges instead of duplicating.
func (c *Cart) findMatch(productID, variantID string) *Line {
	for i := range c.Lines {
		if c.Lines[i].ProductID == productID && c.Lines[i].VariantID == variantID {
			return &c.Lines[i]
		}
	}
	return nil
}

// Repository defines persistence operations for carts. SaveLine upserts a
// line by its ID and bumps the cart version; implementations must keep the
// (cart_id, product_id, variant_id) pair unique.
type Repository interface {
	Create(ctx context.Context, c *Cart) error
	Get(ctx context.Context, id string) (*Cart, error)
	SaveLine(ctx context.Context, cartID string, line Line) error
	DeleteLine(ctx context.Context, cartID, lineID string) error
	DeleteAllLines(ctx context.Context, cartID string) error
}

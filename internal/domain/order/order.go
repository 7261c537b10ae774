// Package order implements the durable order aggregate: creation from a
// cart, the status state machine, and the domain events fired on lifecycle
// transitions.
package order

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Sentinel errors for order operations.
var (
	// ErrNotFound is returned when the requested order does not exist.
	ErrNotFound = errors.New("order not found")

	// ErrEmptyCart rejects order creation from a cart with no lines.
	ErrEmptyCart = errors.New("cart is empty")

	// ErrConflict is returned when a concurrent modification won: another
	// request drained the cart or transitioned the order first.
	ErrConflict = errors.New("concurrent modification conflict")

	// ErrPaymentMethodRequired rejects creation without a payment method.
	ErrPaymentMethodRequired = errors.New("payment method is required")
)

// InvalidTransitionError indicates a status change the state machine forbids.
// It matches ErrConflict in errors.Is checks: an illegal transition is a
// business-rule conflict, not malformed input.
type InvalidTransitionError struct {
	From Status
	To   Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot transition order from %s to %s", e.From, e.To)
}

func (e *InvalidTransitionError) Is(target error) bool {
	return target == ErrConflict
}

// Item is an immutable copy of a cart line frozen into the order at creation
// time. UnitPrice is the effective price resolved then; later catalog price
// changes never alter it.
type Item struct {
	ProductID string
	VariantID string
	Quantity  int
	UnitPrice decimal.Decimal
	Size      string
	Color     string
}

// Order is the durable record created from a cart. Total is always stored as
// Subtotal + Tax + ShippingCost, never derived ad hoc by callers.
type Order struct {
	ID                string
	Number            string
	CustomerID        string
	Status            Status
	Subtotal          decimal.Decimal
	Tax               decimal.Decimal
	ShippingCost      decimal.Decimal
	Total             decimal.Decimal
	PaymentMethod     string
	ShippingAddress   string
	TrackingNumber    string
	TrackingURL       string
	EstimatedDelivery *time.Time
	Notes             string
	Items             []Item
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Tracking holds a shipment tracking update for an order header.
type Tracking struct {
	Number            string
	URL               string
	EstimatedDelivery *time.Time
}

// Repository defines persistence operations for orders.
//
// CreateFromCart must be atomic: the order header, its items, and the drain
// of the source cart's lines commit together or not at all. The cart version
// passed by the caller guards the drain; when it no longer matches,
// implementations return ErrConflict and roll back.
//
// UpdateStatus is a compare-and-set: the write applies only while the stored
// status still equals prev, otherwise ErrConflict is returned and the order
// keeps its prior status.
type Repository interface {
	Get(ctx context.Context, id string) (*Order, error)
	CreateFromCart(ctx context.Context, o *Order, cartID string, cartVersion int64) error
	UpdateStatus(ctx context.Context, id string, prev, next Status, notes string) error
	UpdateNotes(ctx context.Context, id, notes string) error
	UpdateTracking(ctx context.Context, id string, t Tracking) error
}

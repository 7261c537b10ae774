package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/corvinae/shopengine/internal/domain/cart"
	"github.com/corvinae/shopengine/internal/domain/catalog"
	"github.com/corvinae/shopengine/internal/domain/pricing"
	"github.com/corvinae/shopengine/internal/hooks"
)

// CreateRequest holds the input for creating an order from a cart.
type CreateRequest struct {
	CartID          string
	CustomerID      string
	PaymentMethod   string
	ShippingAddress string
}

// Service encapsulates order creation and lifecycle business logic.
type Service struct {
	orders     Repository
	carts      cart.Repository
	catalog    catalog.Repository
	dispatcher *hooks.Dispatcher
	taxRate    decimal.Decimal
	shipping   pricing.ShippingPolicy
	now        func() time.Time
}

// NewService creates an order Service. The dispatcher receives the lifecycle
// events; pass a dispatcher with no registrations to disable side effects.
func NewService(
	orders Repository,
	carts cart.Repository,
	cat catalog.Repository,
	dispatcher *hooks.Dispatcher,
	taxRate decimal.Decimal,
	shipping pricing.ShippingPolicy,
) *Service {
	return &Service{
		orders:     orders,
		carts:      carts,
		catalog:    cat,
		dispatcher: dispatcher,
		taxRate:    taxRate,
		shipping:   shipping,
		now:        time.Now,
	}
}

// Get returns the order with the given ID.
func (s *Service) Get(ctx context.Context, id string) (*Order, error) {
	return s.orders.Get(ctx, id)
}

// CreateFromCart converts a non-empty cart into an order. Each line's
// effective unit price is resolved against the current catalog and frozen
// into the order items; totals come from the pricing calculator. The order
// insert and the cart drain commit in one transaction, guarded by the cart
// version read here. After commit the CreatedEvent fires; hook failures do
// not affect the created order.
func (s *Service) CreateFromCart(ctx context.Context, req CreateRequest) (*Order, error) {
	if req.PaymentMethod == "" {
		return nil, ErrPaymentMethodRequired
	}

	c, err := s.carts.Get(ctx, req.CartID)
	if err != nil {
		return nil, err
	}
	if len(c.Lines) == 0 {
		return nil, ErrEmptyCart
	}

	items, lineItems, err := s.freezeLines(ctx, c)
	if err != nil {
		return nil, err
	}

	quote := pricing.Calculate(lineItems, s.taxRate, s.shipping)
	now := s.now()

	o := &Order{
		ID:              uuid.New().String(),
		Number:          NewNumber(now),
		CustomerID:      req.CustomerID,
		Status:          StatusPending,
		Subtotal:        quote.Subtotal,
		Tax:             quote.Tax,
		ShippingCost:    quote.Shipping,
		Total:           quote.Total,
		PaymentMethod:   req.PaymentMethod,
		ShippingAddress: req.ShippingAddress,
		Items:           items,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.orders.CreateFromCart(ctx, o, c.ID, c.Version); err != nil {
		return nil, errors.Wrap(err, "create order")
	}

	s.dispatcher.Dispatch(ctx, CreatedEvent{Order: o})
	return o, nil
}

// freezeLines resolves every cart line to its current effective price and
// builds the immutable order items.
func (s *Service) freezeLines(ctx context.Context, c *cart.Cart) ([]Item, []pricing.LineItem, error) {
	productIDs := make([]string, len(c.Lines))
	variantIDs := make([]string, 0, len(c.Lines))
	for i, l := range c.Lines {
		productIDs[i] = l.ProductID
		if l.VariantID != "" {
			variantIDs = append(variantIDs, l.VariantID)
		}
	}

	products, err := s.catalog.GetProductsByIDs(ctx, productIDs)
	if err != nil {
		return nil, nil, errors.Wrap(err, "get products")
	}
	productMap := make(map[string]*catalog.Product, len(products))
	for i := range products {
		productMap[products[i].ID] = &products[i]
	}

	variantMap := make(map[string]*catalog.Variant)
	if len(variantIDs) > 0 {
		variants, err := s.catalog.GetVariantsByIDs(ctx, variantIDs)
		if err != nil {
			return nil, nil, errors.Wrap(err, "get variants")
		}
		for i := range variants {
			variantMap[variants[i].ID] = &variants[i]
		}
	}

	items := make([]Item, 0, len(c.Lines))
	lineItems := make([]pricing.LineItem, 0, len(c.Lines))
	for _, l := range c.Lines {
		p, ok := productMap[l.ProductID]
		if !ok {
			return nil, nil, errors.Wrapf(catalog.ErrProductNotFound, "product %q", l.ProductID)
		}
		var v *catalog.Variant
		if l.VariantID != "" {
			if v, ok = variantMap[l.VariantID]; !ok {
				return nil, nil, errors.Wrapf(catalog.ErrVariantNotFound, "variant %q", l.VariantID)
			}
		}

		price := catalog.EffectivePrice(p, v)
		items = append(items, Item{
			ProductID: l.ProductID,
			VariantID: l.VariantID,
			Quantity:  l.Quantity,
			UnitPrice: price,
			Size:      l.Size,
			Color:     l.Color,
		})
		lineItems = append(lineItems, pricing.LineItem{UnitPrice: price, Quantity: l.Quantity})
	}
	return items, lineItems, nil
}

// Transition moves an order to a new status under the state machine rules.
//
// Requesting the status the order already holds is a no-op that only updates
// notes and the timestamp; it fires no event. An accepted change is persisted
// with a compare-and-set on the previous status, so two concurrent admin
// actions cannot silently overwrite each other; the loser gets ErrConflict.
// The single event for the transition dispatches only after the write
// commits, so hook failures never roll back the status.
func (s *Service) Transition(ctx context.Context, orderID string, next Status, notes string) (*Order, error) {
	if !next.Valid() {
		return nil, errors.Wrapf(ErrUnknownStatus, "%q", next)
	}

	o, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	prev := o.Status

	if next == prev {
		if err := s.orders.UpdateNotes(ctx, orderID, notes); err != nil {
			return nil, errors.Wrap(err, "update notes")
		}
		o.Notes = notes
		o.UpdatedAt = s.now()
		return o, nil
	}

	if !prev.CanTransitionTo(next) {
		return nil, &InvalidTransitionError{From: prev, To: next}
	}

	if err := s.orders.UpdateStatus(ctx, orderID, prev, next, notes); err != nil {
		return nil, err
	}

	o.Status = next
	o.Notes = notes
	o.UpdatedAt = s.now()

	s.dispatcher.Dispatch(ctx, eventFor(o, prev))
	return o, nil
}

// UpdateTracking sets shipment tracking details on the order header. This is
// a header edit, not a lifecycle transition: no event fires.
func (s *Service) UpdateTracking(ctx context.Context, orderID string, t Tracking) (*Order, error) {
	o, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if err := s.orders.UpdateTracking(ctx, orderID, t); err != nil {
		return nil, errors.Wrap(err, "update tracking")
	}

	o.TrackingNumber = t.Number
	o.TrackingURL = t.URL
	o.EstimatedDelivery = t.EstimatedDelivery
	o.UpdatedAt = s.now()
	return o, nil
}

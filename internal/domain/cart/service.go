package cart

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/corvinae/shopengine/internal/domain/catalog"
	"github.com/corvinae/shopengine/internal/domain/pricing"
)

// SnapshotLine is a cart line joined with resolved catalog data.
type SnapshotLine struct {
	Line
	ProductName string
	UnitPrice   decimal.Decimal
}

// Snapshot is the materialized view of a cart used for the live price
// preview. Unlike an order, it reflects current catalog prices on every call.
type Snapshot struct {
	CartID string
	Lines  []SnapshotLine
	Quote  pricing.Quote
}

// Service implements cart operations on top of a Repository and the catalog.
type Service struct {
	carts    Repository
	catalog  catalog.Repository
	taxRate  decimal.Decimal
	shipping pricing.ShippingPolicy
}

// NewService creates a cart Service. The tax rate and shipping policy are
// used only for snapshot price previews.
func NewService(carts Repository, cat catalog.Repository, taxRate decimal.Decimal, shipping pricing.ShippingPolicy) *Service {
	return &Service{
		carts:    carts,
		catalog:  cat,
		taxRate:  taxRate,
		shipping: shipping,
	}
}

// Create starts a new cart for a customer or an anonymous session.
func (s *Service) Create(ctx context.Context, customerID, sessionToken string) (*Cart, error) {
	c := &Cart{
		ID:           uuid.New().String(),
		CustomerID:   customerID,
		SessionToken: sessionToken,
	}
	if err := s.carts.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Get returns the cart with the given ID.
func (s *Service) Get(ctx context.Context, cartID string) (*Cart, error) {
	return s.carts.Get(ctx, cartID)
}

// AddLine adds a product to the cart. When a line for the same
// (product, variant) pair already exists the quantities are summed into it;
// carts never hold duplicate lines for one pair.
func (s *Service) AddLine(ctx context.Context, cartID, productID, variantID string, quantity int, size, color string) (*Cart, error) {
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}

	c, err := s.carts.Get(ctx, cartID)
	if err != nil {
		return nil, err
	}

	// Verify the product (and variant, when given) still exists before
	// putting it in the cart.
	if _, err := s.catalog.GetProduct(ctx, productID); err != nil {
		return nil, err
	}
	if variantID != "" {
		if _, err := s.catalog.GetVariant(ctx, variantID); err != nil {
			return nil, err
		}
	}

	line := c.findMatch(productID, variantID)
	if line != nil {
		line.Quantity += quantity
	} else {
		c.Lines = append(c.Lines, Line{
			ID:        uuid.New().String(),
			ProductID: productID,
			VariantID: variantID,
			Quantity:  quantity,
			Size:      size,
			Color:     color,
		})
		line = &c.Lines[len(c.Lines)-1]
	}

	if err := s.carts.SaveLine(ctx, cartID, *line); err != nil {
		return nil, err
	}
	return c, nil
}

// SetLineQuantity replaces a line's quantity. Removal is a distinct
// operation; quantity zero is rejected.
func (s *Service) SetLineQuantity(ctx context.Context, cartID, lineID string, quantity int) (*Cart, error) {
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}

	c, err := s.carts.Get(ctx, cartID)
	if err != nil {
		return nil, err
	}

	line := c.FindLine(lineID)
	if line == nil {
		return nil, ErrLineNotFound
	}
	line.Quantity = quantity

	if err := s.carts.SaveLine(ctx, cartID, *line); err != nil {
		return nil, err
	}
	return c, nil
}

// RemoveLine deletes a single line from the cart.
func (s *Service) RemoveLine(ctx context.Context, cartID, lineID string) error {
	c, err := s.carts.Get(ctx, cartID)
	if err != nil {
		return err
	}
	if c.FindLine(lineID) == nil {
		return ErrLineNotFound
	}
	return s.carts.DeleteLine(ctx, cartID, lineID)
}

// Clear removes every line from the cart.
func (s *Service) Clear(ctx context.Context, cartID string) error {
	if _, err := s.carts.Get(ctx, cartID); err != nil {
		return err
	}
	return s.carts.DeleteAllLines(ctx, cartID)
}

// Snapshot materializes the cart against the current catalog: each line is
// resolved to its present effective price and the quote is recomputed. This
// is a preview; order totals are frozen separately at creation time.
func (s *Service) Snapshot(ctx context.Context, cartID string) (*Snapshot, error) {
	c, err := s.carts.Get(ctx, cartID)
	if err != nil {
		return nil, err
	}

	lines, err := s.resolve(ctx, c)
	if err != nil {
		return nil, err
	}

	items := make([]pricing.LineItem, len(lines))
	for i, l := range lines {
		items[i] = pricing.LineItem{UnitPrice: l.UnitPrice, Quantity: l.Quantity}
	}

	return &Snapshot{
		CartID: c.ID,
		Lines:  lines,
		Quote:  pricing.Calculate(items, s.taxRate, s.shipping),
	}, nil
}

// resolve joins cart lines with current catalog products and variants.
func (s *Service) resolve(ctx context.Context, c *Cart) ([]SnapshotLine, error) {
	if len(c.Lines) == 0 {
		return nil, nil
	}

	productIDs := make([]string, 0, len(c.Lines))
	variantIDs := make([]string, 0, len(c.Lines))
	for _, l := range c.Lines {
		productIDs = append(productIDs, l.ProductID)
		if l.VariantID != "" {
			variantIDs = append(variantIDs, l.VariantID)
		}
	}

	products, err := s.catalog.GetProductsByIDs(ctx, productIDs)
	if err != nil {
		return nil, err
	}
	productMap := make(map[string]*catalog.Product, len(products))
	for i := range products {
		productMap[products[i].ID] = &products[i]
	}

	variantMap := make(map[string]*catalog.Variant)
	if len(variantIDs) > 0 {
		variants, err := s.catalog.GetVariantsByIDs(ctx, variantIDs)
		if err != nil {
			return nil, err
		}
		for i := range variants {
			variantMap[variants[i].ID] = &variants[i]
		}
	}

	lines := make([]SnapshotLine, 0, len(c.Lines))
	for _, l := range c.Lines {
		p, ok := productMap[l.ProductID]
		if !ok {
			return nil, catalog.ErrProductNotFound
		}
		var v *catalog.Variant
		if l.VariantID != "" {
			if v, ok = variantMap[l.VariantID]; !ok {
				return nil, catalog.ErrVariantNotFound
			}
		}
		lines = append(lines, SnapshotLine{
			Line:        l,
			ProductName: p.Name,
			UnitPrice:   catalog.EffectivePrice(p, v),
		})
	}
	return lines, nil
}

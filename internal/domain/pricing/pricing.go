// Package pricing computes order totals. Calculate is a pure function: the
// same inputs always produce the same quote, and nothing is persisted here.
package pricing

import "github.com/shopspring/decimal"

// LineItem is a priced quantity, the only thing the calculator needs to know
// about a cart or order line.
type LineItem struct {
	UnitPrice decimal.Decimal
	Quantity  int
}

// ShippingPolicy describes how shipping cost is derived from the subtotal:
// a flat fee, waived when the subtotal reaches FreeAbove. A zero FreeAbove
// means shipping is never free.
type ShippingPolicy struct {
	FlatFee   decimal.Decimal
	FreeAbove decimal.Decimal
}

// Cost returns the shipping cost for the given subtotal.
func (p ShippingPolicy) Cost(subtotal decimal.Decimal) decimal.Decimal {
	if p.FreeAbove.IsPositive() && subtotal.GreaterThanOrEqual(p.FreeAbove) {
		return decimal.Zero
	}
	return p.FlatFee
}

// Quote holds the computed money breakdown for a set of line items.
// Total is always Subtotal + Tax + Shipping.
type Quote struct {
	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	Shipping decimal.Decimal
	Total    decimal.Decimal
}

// Calculate computes the quote for the given items. Tax is subtotal * rate,
// rounded half-up to two decimal places. An empty item list yields an
// all-zero quote; rejecting empty orders is the caller's responsibility.
func Calculate(items []LineItem, taxRate decimal.Decimal, shipping ShippingPolicy) Quote {
	if len(items) == 0 {
		return Quote{
			Subtotal: decimal.Zero,
			Tax:      decimal.Zero,
			Shipping: decimal.Zero,
			Total:    decimal.Zero,
		}
	}

	subtotal := decimal.Zero
	for _, it := range items {
		qty := decimal.NewFromInt(int64(it.Quantity))
		subtotal = subtotal.Add(it.UnitPrice.Mul(qty))
	}

	tax := subtotal.Mul(taxRate).Round(2)
	cost := shipping.Cost(subtotal)

	return Quote{
		Subtotal: subtotal,
		Tax:      tax,
		Shipping: cost,
		Total:    subtotal.Add(tax).Add(cost),
	}
}

package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestCalculate_FlatShippingUnderThreshold(t *testing.T) {
	// 2 x 100 at 5% tax, flat 20 shipping below 500.
	q := Calculate(
		[]LineItem{{UnitPrice: d("100"), Quantity: 2}},
		d("0.05"),
		ShippingPolicy{FlatFee: d("20"), FreeAbove: d("500")},
	)

	assert.True(t, d("200").Equal(q.Subtotal), "subtotal: %s", q.Subtotal)
	assert.True(t, d("10").Equal(q.Tax), "tax: %s", q.Tax)
	assert.True(t, d("20").Equal(q.Shipping), "shipping: %s", q.Shipping)
	assert.True(t, d("230").Equal(q.Total), "total: %s", q.Total)
}

func TestCalculate_FreeShippingAtThreshold(t *testing.T) {
	q := Calculate(
		[]LineItem{{UnitPrice: d("250"), Quantity: 2}},
		d("0.05"),
		ShippingPolicy{FlatFee: d("20"), FreeAbove: d("500")},
	)

	assert.True(t, q.Shipping.IsZero())
	assert.True(t, d("525").Equal(q.Total))
}

func TestCalculate_ZeroFreeAboveNeverFree(t *testing.T) {
	q := Calculate(
		[]LineItem{{UnitPrice: d("10000"), Quantity: 1}},
		decimal.Zero,
		ShippingPolicy{FlatFee: d("20")},
	)

	assert.True(t, d("20").Equal(q.Shipping))
}

func TestCalculate_TaxRoundsHalfUp(t *testing.T) {
	// 10.01 * 0.075 = 0.75075 -> 0.75; 10.10 * 0.075 = 0.7575 -> 0.76.
	q := Calculate(
		[]LineItem{{UnitPrice: d("10.01"), Quantity: 1}},
		d("0.075"),
		ShippingPolicy{},
	)
	assert.True(t, d("0.75").Equal(q.Tax), "tax: %s", q.Tax)

	q = Calculate(
		[]LineItem{{UnitPrice: d("10.10"), Quantity: 1}},
		d("0.075"),
		ShippingPolicy{},
	)
	assert.True(t, d("0.76").Equal(q.Tax), "tax: %s", q.Tax)
}

func TestCalculate_TotalIsSumOfParts(t *testing.T) {
	items := []LineItem{
		{UnitPrice: d("19.99"), Quantity: 3},
		{UnitPrice: d("5.25"), Quantity: 1},
		{UnitPrice: d("120"), Quantity: 2},
	}
	q := Calculate(items, d("0.08"), ShippingPolicy{FlatFee: d("15"), FreeAbove: d("1000")})

	assert.True(t, q.Total.Equal(q.Subtotal.Add(q.Tax).Add(q.Shipping)))
}

func TestCalculate_EmptyItems(t *testing.T) {
	q := Calculate(nil, d("0.05"), ShippingPolicy{FlatFee: d("20")})

	assert.True(t, q.Subtotal.IsZero())
	assert.True(t, q.Tax.IsZero())
	assert.True(t, q.Shipping.IsZero())
	assert.True(t, q.Total.IsZero())
}

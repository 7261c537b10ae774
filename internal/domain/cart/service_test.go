package cart

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/corvinae/shopengine/internal/domain/catalog"
	"github.com/corvinae/shopengine/internal/domain/pricing"
)

// --- Mock implementations ---

type mockCartRepo struct {
	carts map[string]*Cart
}

func newMockCartRepo(carts ...*Cart) *mockCartRepo {
	m := &mockCartRepo{carts: make(map[string]*Cart)}
	for _, c := range carts {
		m.carts[c.ID] = c
	}
	return m
}

func (m *mockCartRepo) Create(_ context.Context, c *Cart) error {
	m.carts[c.ID] = c
	return nil
}

func (m *mockCartRepo) Get(_ context.Context, id string) (*Cart, error) {
	c, ok := m.carts[id]
	if !ok {
		return nil, ErrNotFound
	}
	// Return a shallow copy so services mutate their own view.
	cp := *c
	cp.Lines = append([]Line(nil), c.Lines...)
	return &cp, nil
}

func (m *mockCartRepo) SaveLine(_ context.Context, cartID string, line Line) error {
	c := m.carts[cartID]
	for i := range c.Lines {
		if c.Lines[i].ID == line.ID {
			c.Lines[i] = line
			return nil
		}
	}
	c.Lines = append(c.Lines, line)
	return nil
}

func (m *mockCartRepo) DeleteLine(_ context.Context, cartID, lineID string) error {
	c := m.carts[cartID]
	for i := range c.Lines {
		if c.Lines[i].ID == lineID {
			c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
			return nil
		}
	}
	return ErrLineNotFound
}

func (m *mockCartRepo) DeleteAllLines(_ context.Context, cartID string) error {
	m.carts[cartID].Lines = nil
	return nil
}

type mockCatalog struct {
	products map[string]catalog.Product
	variants map[string]catalog.Variant
}

func (m *mockCatalog) GetProduct(_ context.Context, id string) (*catalog.Product, error) {
	p, ok := m.products[id]
	if !ok {
		return nil, catalog.ErrProductNotFound
	}
	return &p, nil
}

func (m *mockCatalog) GetProductsByIDs(_ context.Context, ids []string) ([]catalog.Product, error) {
	var out []catalog.Product
	for _, id := range ids {
		if p, ok := m.products[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *mockCatalog) GetVariant(_ context.Context, id string) (*catalog.Variant, error) {
	v, ok := m.variants[id]
	if !ok {
		return nil, catalog.ErrVariantNotFound
	}
	return &v, nil
}

func (m *mockCatalog) GetVariantsByIDs(_ context.Context, ids []string) ([]catalog.Variant, error) {
	var out []catalog.Variant
	for _, id := range ids {
		if v, ok := m.variants[id]; ok {
			out = append(out, v)
		}
	}
	return out, nil
}

// --- Helpers ---

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func testCatalog() *mockCatalog {
	v1Price := d("15.00")
	return &mockCatalog{
		products: map[string]catalog.Product{
			"p1": {ID: "p1", Name: "Widget", Price: d("10.00"), Quantity: 5, InStock: true},
			"p2": {ID: "p2", Name: "Gadget", Price: d("20.00"), Quantity: 3, InStock: true},
		},
		variants: map[string]catalog.Variant{
			"v1": {ID: "v1", ProductID: "p1", Name: "Widget XL", Price: &v1Price, Quantity: 2},
		},
	}
}

func newTestService(carts ...*Cart) (*Service, *mockCartRepo) {
	repo := newMockCartRepo(carts...)
	svc := NewService(repo, testCatalog(), d("0.05"), pricing.ShippingPolicy{
		FlatFee:   d("20"),
		FreeAbove: d("500"),
	})
	return svc, repo
}

// --- Tests ---

func TestAddLine_New(t *testing.T) {
	svc, repo := newTestService(&Cart{ID: "c1", CustomerID: "u1"})

	c, err := svc.AddLine(context.Background(), "c1", "p1", "", 2, "", "")
	require.NoError(t, err)
	require.Len(t, c.Lines, 1)
	assert.Equal(t, 2, c.Lines[0].Quantity)
	assert.Len(t, repo.carts["c1"].Lines, 1)
}

func TestAddLine_MergesSamePair(t *testing.T) {
	svc, repo := newTestService(&Cart{ID: "c1"})

	_, err := svc.AddLine(context.Background(), "c1", "p1", "v1", 2, "XL", "red")
	require.NoError(t, err)
	c, err := svc.AddLine(context.Background(), "c1", "p1", "v1", 3, "XL", "red")
	require.NoError(t, err)

	require.Len(t, c.Lines, 1, "duplicate (product, variant) lines must merge")
	assert.Equal(t, 5, c.Lines[0].Quantity)
	assert.Len(t, repo.carts["c1"].Lines, 1)
}

func TestAddLine_SameProductDifferentVariant(t *testing.T) {
	svc, _ := newTestService(&Cart{ID: "c1"})

	_, err := svc.AddLine(context.Background(), "c1", "p1", "", 1, "", "")
	require.NoError(t, err)
	c, err := svc.AddLine(context.Background(), "c1", "p1", "v1", 1, "", "")
	require.NoError(t, err)

	assert.Len(t, c.Lines, 2)
}

func TestAddLine_InvalidQuantity(t *testing.T) {
	svc, _ := newTestService(&Cart{ID: "c1"})

	_, err := svc.AddLine(context.Background(), "c1", "p1", "", 0, "", "")
	require.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = svc.AddLine(context.Background(), "c1", "p1", "", -3, "", "")
	require.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestAddLine_UnknownProduct(t *testing.T) {
	svc, _ := newTestService(&Cart{ID: "c1"})

	_, err := svc.AddLine(context.Background(), "c1", "nope", "", 1, "", "")
	require.ErrorIs(t, err, catalog.ErrProductNotFound)
}

func TestSetLineQuantity(t *testing.T) {
	svc, _ := newTestService(&Cart{ID: "c1", Lines: []Line{
		{ID: "l1", ProductID: "p1", Quantity: 1},
	}})

	c, err := svc.SetLineQuantity(context.Background(), "c1", "l1", 7)
	require.NoError(t, err)
	assert.Equal(t, 7, c.Lines[0].Quantity)
}

func TestSetLineQuantity_Errors(t *testing.T) {
	svc, _ := newTestService(&Cart{ID: "c1", Lines: []Line{
		{ID: "l1", ProductID: "p1", Quantity: 1},
	}})

	_, err := svc.SetLineQuantity(context.Background(), "c1", "l1", 0)
	require.ErrorIs(t, err, ErrInvalidQuantity, "removal is not quantity zero")

	_, err = svc.SetLineQuantity(context.Background(), "c1", "other", 2)
	require.ErrorIs(t, err, ErrLineNotFound)

	_, err = svc.SetLineQuantity(context.Background(), "missing", "l1", 2)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestRemoveLineAndClear(t *testing.T) {
	svc, repo := newTestService(&Cart{ID: "c1", Lines: []Line{
		{ID: "l1", ProductID: "p1", Quantity: 1},
		{ID: "l2", ProductID: "p2", Quantity: 2},
	}})

	require.NoError(t, svc.RemoveLine(context.Background(), "c1", "l1"))
	assert.Len(t, repo.carts["c1"].Lines, 1)

	require.ErrorIs(t, svc.RemoveLine(context.Background(), "c1", "l1"), ErrLineNotFound)

	require.NoError(t, svc.Clear(context.Background(), "c1"))
	assert.Empty(t, repo.carts["c1"].Lines)
}

func TestSnapshot_LivePrices(t *testing.T) {
	svc, _ := newTestService(&Cart{ID: "c1", Lines: []Line{
		{ID: "l1", ProductID: "p1", Quantity: 2},
		{ID: "l2", ProductID: "p1", VariantID: "v1", Quantity: 1},
	}})

	snap, err := svc.Snapshot(context.Background(), "c1")
	require.NoError(t, err)
	require.Len(t, snap.Lines, 2)

	// Bare product uses the product price, variant line uses its override.
	assert.True(t, d("10.00").Equal(snap.Lines[0].UnitPrice))
	assert.True(t, d("15.00").Equal(snap.Lines[1].UnitPrice))

	// 2*10 + 15 = 35, tax 1.75, shipping 20 (below 500).
	assert.True(t, d("35.00").Equal(snap.Quote.Subtotal))
	assert.True(t, d("1.75").Equal(snap.Quote.Tax))
	assert.True(t, d("20").Equal(snap.Quote.Shipping))
	assert.True(t, d("56.75").Equal(snap.Quote.Total))
}

func TestSnapshot_DeletedProduct(t *testing.T) {
	svc, _ := newTestService(&Cart{ID: "c1", Lines: []Line{
		{ID: "l1", ProductID: "ghost", Quantity: 1},
	}})

	_, err := svc.Snapshot(context.Background(), "c1")
	require.ErrorIs(t, err, catalog.ErrProductNotFound)
}

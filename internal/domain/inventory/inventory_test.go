package inventory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/corvinae/shopengine/internal/domain/audit"
)

type mockRepo struct {
	entries map[string]int // "product:variant" -> quantity
}

func newMockRepo() *mockRepo {
	return &mockRepo{entries: make(map[string]int)}
}

func key(productID, variantID string) string { return productID + "|" + variantID }

func (m *mockRepo) Get(_ context.Context, productID, variantID string) (*Entry, error) {
	q, ok := m.entries[key(productID, variantID)]
	if !ok {
		return nil, ErrNotFound
	}
	return &Entry{ProductID: productID, VariantID: variantID, Quantity: q, InStock: q > 0}, nil
}

func (m *mockRepo) Apply(_ context.Context, productID, variantID string, delta int) (int, int, error) {
	k := key(productID, variantID)
	before := m.entries[k]
	after := before + delta
	if after < 0 {
		after = 0
	}
	m.entries[k] = after
	return before, after, nil
}

type recordingStore struct {
	entries []*audit.Entry
}

func (s *recordingStore) Append(_ context.Context, e *audit.Entry) error {
	s.entries = append(s.entries, e)
	return nil
}

func newLedger() (*Ledger, *mockRepo, *recordingStore, *observer.ObservedLogs) {
	repo := newMockRepo()
	store := &recordingStore{}
	core, logs := observer.New(zap.WarnLevel)
	lg := zap.New(core)
	rec := audit.NewRecorder(store, lg, 1, time.Millisecond)
	return NewLedger(repo, rec, lg), repo, store, logs
}

func TestAdjust_IncrementAndDecrement(t *testing.T) {
	ledger, _, _, logs := newLedger()
	ctx := context.Background()

	q, err := ledger.Adjust(ctx, "p1", "", 10, "restock")
	require.NoError(t, err)
	assert.Equal(t, 10, q)

	q, err = ledger.Adjust(ctx, "p1", "", -4, "order ORD-1")
	require.NoError(t, err)
	assert.Equal(t, 6, q)

	e, err := ledger.Get(ctx, "p1", "")
	require.NoError(t, err)
	assert.True(t, e.InStock)
	assert.Zero(t, logs.FilterMessage("stock adjustment clamped at zero").Len())
}

func TestAdjust_ClampsAtZero(t *testing.T) {
	ledger, _, _, logs := newLedger()
	ctx := context.Background()

	_, err := ledger.Adjust(ctx, "p1", "", 10, "restock")
	require.NoError(t, err)

	// Driving 10 down by 15 yields 0, not -5.
	q, err := ledger.Adjust(ctx, "p1", "", -15, "oversold")
	require.NoError(t, err)
	assert.Equal(t, 0, q)

	e, err := ledger.Get(ctx, "p1", "")
	require.NoError(t, err)
	assert.Equal(t, 0, e.Quantity)
	assert.False(t, e.InStock, "inStock must be quantity > 0")

	assert.Equal(t, 1, logs.FilterMessage("stock adjustment clamped at zero").Len(),
		"clamping is a documented policy, not a silent one")
}

func TestAdjust_VariantTrackedSeparately(t *testing.T) {
	ledger, _, _, _ := newLedger()
	ctx := context.Background()

	_, err := ledger.Adjust(ctx, "p1", "", 5, "restock")
	require.NoError(t, err)
	q, err := ledger.Adjust(ctx, "p1", "v1", 2, "restock")
	require.NoError(t, err)
	assert.Equal(t, 2, q)

	e, err := ledger.Get(ctx, "p1", "")
	require.NoError(t, err)
	assert.Equal(t, 5, e.Quantity)
}

func TestAdjust_WritesAuditWithBeforeAfter(t *testing.T) {
	ledger, _, store, _ := newLedger()

	_, err := ledger.Adjust(context.Background(), "p1", "", 7, "restock")
	require.NoError(t, err)

	require.Len(t, store.entries, 1)
	e := store.entries[0]
	assert.Equal(t, audit.ActionUpdate, e.Action)
	assert.Equal(t, "inventory", e.EntityType)
	assert.Equal(t, "p1", e.EntityID)
	assert.JSONEq(t, `{"quantity":{"before":0,"after":7},"delta":7,"reason":"restock"}`, string(e.Changes))
}

func TestBulkAdjust_OneAuditEntryPerProduct(t *testing.T) {
	ledger, repo, store, _ := newLedger()

	err := ledger.BulkAdjust(context.Background(), "admin1", []Adjustment{
		{ProductID: "p1", Delta: 5, Reason: "batch restock"},
		{ProductID: "p2", Delta: -3, Reason: "batch restock"},
		{ProductID: "p3", VariantID: "v1", Delta: 2, Reason: "batch restock"},
	})
	require.NoError(t, err)

	assert.Equal(t, 5, repo.entries[key("p1", "")])
	assert.Equal(t, 0, repo.entries[key("p2", "")], "clamped per product")
	assert.Equal(t, 2, repo.entries[key("p3", "v1")])

	require.Len(t, store.entries, 3, "one audit entry per affected product")
	for _, e := range store.entries {
		assert.Equal(t, "admin1", e.AdminID)
	}
	assert.Equal(t, "p3:v1", store.entries[2].EntityID)
}

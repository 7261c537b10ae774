// Package inventory implements the stock ledger. Adjust is the only
// sanctioned way to change quantity-on-hand outside direct catalog edits.
package inventory

import (
	"context"

	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"github.com/corvinae/shopengine/internal/domain/audit"
)

// ErrNotFound is returned when no ledger entry exists for the product.
var ErrNotFound = errors.New("inventory entry not found")

// Entry is the per-product (or per-variant) stock record. InStock is always
// derived as Quantity > 0, never set independently.
type Entry struct {
	ProductID string
	VariantID string
	Quantity  int
	InStock   bool
}

// Repository applies ledger deltas. Apply must be atomic per entry and clamp
// the resulting quantity at zero, returning the quantity before and after.
// A missing entry is created with max(0, delta).
type Repository interface {
	Get(ctx context.Context, productID, variantID string) (*Entry, error)
	Apply(ctx context.Context, productID, variantID string, delta int) (before, after int, err error)
}

// Adjustment is one item of a bulk stock operation.
type Adjustment struct {
	ProductID string
	VariantID string
	Delta     int
	Reason    string
}

// Ledger wraps the repository with the clamping policy, audit trail, and
// clamp visibility logging.
type Ledger struct {
	repo  Repository
	audit *audit.Recorder
	lg    *zap.Logger
}

// NewLedger creates a Ledger that audits every adjustment.
func NewLedger(repo Repository, rec *audit.Recorder, lg *zap.Logger) *Ledger {
	return &Ledger{repo: repo, audit: rec, lg: lg}
}

// Get returns the current ledger entry for the product/variant pair.
func (l *Ledger) Get(ctx context.Context, productID, variantID string) (*Entry, error) {
	return l.repo.Get(ctx, productID, variantID)
}

// Adjust applies a delta to the product's quantity. The new quantity is
// max(0, current+delta): an adjustment that would go negative clamps at zero
// and is logged, not silently ignored. Returns the new quantity.
func (l *Ledger) Adjust(ctx context.Context, productID, variantID string, delta int, reason string) (int, error) {
	return l.adjustAs(ctx, "", productID, variantID, delta, reason)
}

// AdjustFor is Adjust with the acting admin recorded on the audit entry.
func (l *Ledger) AdjustFor(ctx context.Context, adminID, productID, variantID string, delta int, reason string) (int, error) {
	return l.adjustAs(ctx, adminID, productID, variantID, delta, reason)
}

// BulkAdjust applies each adjustment independently under the same clamping
// policy and writes one audit entry per affected product, so individual
// before/after values stay recoverable. The first persistence error aborts
// the remainder.
func (l *Ledger) BulkAdjust(ctx context.Context, adminID string, adjs []Adjustment) error {
	for _, a := range adjs {
		if _, err := l.adjustAs(ctx, adminID, a.ProductID, a.VariantID, a.Delta, a.Reason); err != nil {
			return errors.Wrapf(err, "adjust product %q", a.ProductID)
		}
	}
	return nil
}

func (l *Ledger) adjustAs(ctx context.Context, adminID, productID, variantID string, delta int, reason string) (int, error) {
	before, after, err := l.repo.Apply(ctx, productID, variantID, delta)
	if err != nil {
		return 0, err
	}

	if after != before+delta {
		l.lg.Warn("stock adjustment clamped at zero",
			zap.String("product_id", productID),
			zap.String("variant_id", variantID),
			zap.Int("before", before),
			zap.Int("delta", delta),
			zap.String("reason", reason),
		)
	}

	l.audit.Record(ctx, adminID, audit.ActionUpdate, "inventory", ledgerEntityID(productID, variantID), map[string]any{
		"quantity": map[string]int{"before": before, "after": after},
		"delta":    delta,
		"reason":   reason,
	})

	return after, nil
}

func ledgerEntityID(productID, variantID string) string {
	if variantID == "" {
		return productID
	}
	return productID + ":" + variantID
}

package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/corvinae/shopengine/internal/domain/inventory"
)

const (
	getInventorySQL = `SELECT product_id, variant_id, quantity
		FROM inventory WHERE product_id = $1 AND variant_id = $2`

	lockInventorySQL = `SELECT quantity FROM inventory
		WHERE product_id = $1 AND variant_id = $2 FOR UPDATE`

	upsertInventorySQL = `INSERT INTO inventory (product_id, variant_id, quantity, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (product_id, variant_id)
		DO UPDATE SET quantity = EXCLUDED.quantity, updated_at = now()`
)

var _ inventory.Repository = (*InventoryRepository)(nil)

// InventoryRepository implements inventory.Repository backed by PostgreSQL.
type InventoryRepository struct {
	pool *pgxpool.Pool
}

// NewInventoryRepository returns an InventoryRepository using the given pool.
func NewInventoryRepository(pool *pgxpool.Pool) *InventoryRepository {
	return &InventoryRepository{pool: pool}
}

// Get returns the ledger entry for the product/variant pair.
func (r *InventoryRepository) Get(ctx context.Context, productID, variantID string) (*inventory.Entry, error) {
	var e inventory.Entry
	err := r.pool.QueryRow(ctx, getInventorySQL, productID, variantID).
		Scan(&e.ProductID, &e.VariantID, &e.Quantity)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, inventory.ErrNotFound
		}
		return nil, fmt.Errorf("getting inventory for %q: %w", productID, err)
	}
	e.InStock = e.Quantity > 0
	return &e, nil
}

// Apply adjusts the quantity under a row lock so concurrent deltas serialize
// instead of clobbering each other. The result clamps at zero; a missing
// entry starts from zero.
func (r *InventoryRepository) Apply(ctx context.Context, productID, variantID string, delta int) (before, after int, err error) {
	err = pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, lockInventorySQL, productID, variantID).Scan(&before)
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return err
		}

		after = before + delta
		if after < 0 {
			after = 0
		}

		_, err = tx.Exec(ctx, upsertInventorySQL, productID, variantID, after)
		return err
	})
	if err != nil {
		return 0, 0, fmt.Errorf("adjusting inventory for %q: %w", productID, err)
	}
	return before, after, nil
}

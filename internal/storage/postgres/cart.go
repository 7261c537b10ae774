package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/corvinae/shopengine/internal/domain/cart"
)

const (
	createCartSQL = `INSERT INTO carts (id, customer_id, session_token)
		VALUES ($1, NULLIF($2, ''), NULLIF($3, ''))`

	getCartSQL = `SELECT id, COALESCE(customer_id, ''), COALESCE(session_token, ''), version, created_at, updated_at
		FROM carts WHERE id = $1`

	getCartLinesSQL = `SELECT id, product_id, variant_id, quantity, size, color
		FROM cart_lines WHERE cart_id = $1 ORDER BY id`

	saveLineSQL = `INSERT INTO cart_lines (id, cart_id, product_id, variant_id, quantity, size, color)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (cart_id, product_id, variant_id)
		DO UPDATE SET quantity = EXCLUDED.quantity, size = EXCLUDED.size, color = EXCLUDED.color`

	deleteLineSQL = `DELETE FROM cart_lines WHERE cart_id = $1 AND id = $2`

	deleteAllLinesSQL = `DELETE FROM cart_lines WHERE cart_id = $1`

	touchCartSQL = `UPDATE carts SET version = version + 1, updated_at = now() WHERE id = $1`
)

var _ cart.Repository = (*CartRepository)(nil)

// CartRepository implements cart.Repository backed by PostgreSQL. Every line
// mutation bumps the cart version, which order creation later uses as its
// optimistic drain guard.
type CartRepository struct {
	pool *pgxpool.Pool
}

// NewCartRepository returns a CartRepository that uses the given pool.
func NewCartRepository(pool *pgxpool.Pool) *CartRepository {
	return &CartRepository{pool: pool}
}

// Create persists a new empty cart.
func (r *CartRepository) Create(ctx context.Context, c *cart.Cart) error {
	_, err := r.pool.Exec(ctx, createCartSQL, c.ID, c.CustomerID, c.SessionToken)
	if err != nil {
		return fmt.Errorf("creating cart %q: %w", c.ID, err)
	}
	return nil
}

// Get returns the cart with its lines.
func (r *CartRepository) Get(ctx context.Context, id string) (*cart.Cart, error) {
	var c cart.Cart
	err := r.pool.QueryRow(ctx, getCartSQL, id).Scan(
		&c.ID, &c.CustomerID, &c.SessionToken, &c.Version, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, cart.ErrNotFound
		}
		return nil, fmt.Errorf("getting cart %q: %w", id, err)
	}

	rows, err := r.pool.Query(ctx, getCartLinesSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting cart lines for %q: %w", id, err)
	}
	c.Lines, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (cart.Line, error) {
		var l cart.Line
		err := row.Scan(&l.ID, &l.ProductID, &l.VariantID, &l.Quantity, &l.Size, &l.Color)
		return l, err
	})
	if err != nil {
		return nil, fmt.Errorf("scanning cart lines for %q: %w", id, err)
	}
	return &c, nil
}

// SaveLine upserts a line and bumps the cart version. The unique
// (cart_id, product_id, variant_id) constraint keeps pairs merged even if
// two adds race: the loser's insert turns into a quantity update.
func (r *CartRepository) SaveLine(ctx context.Context, cartID string, l cart.Line) error {
	return r.mutate(ctx, cartID, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, saveLineSQL, l.ID, cartID, l.ProductID, l.VariantID, l.Quantity, l.Size, l.Color)
		return err
	})
}

// DeleteLine removes a single line and bumps the cart version.
func (r *CartRepository) DeleteLine(ctx context.Context, cartID, lineID string) error {
	return r.mutate(ctx, cartID, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, deleteLineSQL, cartID, lineID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return cart.ErrLineNotFound
		}
		return nil
	})
}

// DeleteAllLines clears the cart and bumps its version.
func (r *CartRepository) DeleteAllLines(ctx context.Context, cartID string) error {
	return r.mutate(ctx, cartID, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, deleteAllLinesSQL, cartID)
		return err
	})
}

// mutate runs fn and the version bump in one transaction.
func (r *CartRepository) mutate(ctx context.Context, cartID string, fn func(tx pgx.Tx) error) error {
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if err := fn(tx); err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, touchCartSQL, cartID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return cart.ErrNotFound
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, cart.ErrNotFound) || errors.Is(err, cart.ErrLineNotFound) {
			return err
		}
		return fmt.Errorf("mutating cart %q: %w", cartID, err)
	}
	return nil
}

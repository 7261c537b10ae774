package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/corvinae/shopengine/internal/domain/order"
)

const (
	insertOrderSQL = `INSERT INTO orders (
			id, number, customer_id, status, subtotal, tax, shipping_cost, total,
			payment_method, shipping_address, notes, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	insertOrderItemSQL = `INSERT INTO order_items (order_id, product_id, variant_id, quantity, unit_price, size, color)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	drainCartLinesSQL = `DELETE FROM cart_lines WHERE cart_id = $1`

	bumpCartVersionSQL = `UPDATE carts SET version = version + 1, updated_at = now()
		WHERE id = $1 AND version = $2`

	getOrderSQL = `SELECT id, number, customer_id, status, subtotal, tax, shipping_cost, total,
			payment_method, shipping_address, tracking_number, tracking_url,
			estimated_delivery, notes, created_at, updated_at
		FROM orders WHERE id = $1`

	getOrderItemsSQL = `SELECT product_id, variant_id, quantity, unit_price, size, color
		FROM order_items WHERE order_id = $1 ORDER BY id`

	updateStatusSQL = `UPDATE orders SET status = $3, notes = $4, updated_at = now()
		WHERE id = $1 AND status = $2`

	updateNotesSQL = `UPDATE orders SET notes = $2, updated_at = now() WHERE id = $1`

	updateTrackingSQL = `UPDATE orders SET tracking_number = $2, tracking_url = $3,
			estimated_delivery = $4, updated_at = now()
		WHERE id = $1`
)

// uniqueViolation is the PostgreSQL error code for unique constraint breaks.
const uniqueViolation = "23505"

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// CreateFromCart persists the order header and items and drains the source
// cart atomically. The cart version check makes concurrent submits of the
// same cart mutually exclusive: whichever transaction bumps the version
// first wins, the other sees zero rows updated and rolls back with
// order.ErrConflict.
func (r *OrderRepository) CreateFromCart(ctx context.Context, o *order.Order, cartID string, cartVersion int64) error {
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, insertOrderSQL,
			o.ID, o.Number, o.CustomerID, string(o.Status),
			o.Subtotal, o.Tax, o.ShippingCost, o.Total,
			o.PaymentMethod, o.ShippingAddress, o.Notes, o.CreatedAt, o.UpdatedAt,
		)
		if err != nil {
			return err
		}

		for _, it := range o.Items {
			_, err := tx.Exec(ctx, insertOrderItemSQL,
				o.ID, it.ProductID, it.VariantID, it.Quantity, it.UnitPrice, it.Size, it.Color,
			)
			if err != nil {
				return err
			}
		}

		if _, err := tx.Exec(ctx, drainCartLinesSQL, cartID); err != nil {
			return err
		}

		tag, err := tx.Exec(ctx, bumpCartVersionSQL, cartID, cartVersion)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return order.ErrConflict
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, order.ErrConflict) {
			return order.ErrConflict
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return order.ErrConflict
		}
		return fmt.Errorf("creating order %q: %w", o.Number, err)
	}
	return nil
}

// Get returns the order with its items.
func (r *OrderRepository) Get(ctx context.Context, id string) (*order.Order, error) {
	var (
		o      order.Order
		status string
	)
	err := r.pool.QueryRow(ctx, getOrderSQL, id).Scan(
		&o.ID, &o.Number, &o.CustomerID, &status,
		&o.Subtotal, &o.Tax, &o.ShippingCost, &o.Total,
		&o.PaymentMethod, &o.ShippingAddress, &o.TrackingNumber, &o.TrackingURL,
		&o.EstimatedDelivery, &o.Notes, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, fmt.Errorf("getting order %q: %w", id, err)
	}
	o.Status = order.Status(status)

	rows, err := r.pool.Query(ctx, getOrderItemsSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting order items for %q: %w", id, err)
	}
	o.Items, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (order.Item, error) {
		var it order.Item
		err := row.Scan(&it.ProductID, &it.VariantID, &it.Quantity, &it.UnitPrice, &it.Size, &it.Color)
		return it, err
	})
	if err != nil {
		return nil, fmt.Errorf("scanning order items for %q: %w", id, err)
	}
	return &o, nil
}

// UpdateStatus applies the transition with a compare-and-set on the previous
// status. Zero rows affected means another writer got there first.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id string, prev, next order.Status, notes string) error {
	tag, err := r.pool.Exec(ctx, updateStatusSQL, id, string(prev), string(next), notes)
	if err != nil {
		return fmt.Errorf("updating status of order %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return order.ErrConflict
	}
	return nil
}

// UpdateNotes replaces the free-form notes without touching status.
func (r *OrderRepository) UpdateNotes(ctx context.Context, id, notes string) error {
	tag, err := r.pool.Exec(ctx, updateNotesSQL, id, notes)
	if err != nil {
		return fmt.Errorf("updating notes of order %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return order.ErrNotFound
	}
	return nil
}

// UpdateTracking sets the shipment tracking fields on the order header.
func (r *OrderRepository) UpdateTracking(ctx context.Context, id string, t order.Tracking) error {
	tag, err := r.pool.Exec(ctx, updateTrackingSQL, id, t.Number, t.URL, t.EstimatedDelivery)
	if err != nil {
		return fmt.Errorf("updating tracking of order %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return order.ErrNotFound
	}
	return nil
}

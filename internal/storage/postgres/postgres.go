// Package postgres implements the engine's repositories on PostgreSQL via
// pgx. Order creation is the only multi-statement transaction; everything
// else is single-statement and relies on row-level atomicity.
package postgres

import (
	"context"
	"fmt"
	"strconv"
	"time"

	pgxdecimal "github.com/jackc/pgx-shopspring-decimal"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/corvinae/shopengine/db"
)

// defaultStatementTimeout bounds every statement server-side so a wedged
// query cannot hold a connection forever. NewPool applies it unless the
// caller overrides via WithStatementTimeout.
const defaultStatementTimeout = 5 * time.Second

// PoolOption adjusts pool construction.
type PoolOption func(*pgxpool.Config)

// WithStatementTimeout overrides the server-side statement timeout. Zero
// disables the bound.
func WithStatementTimeout(d time.Duration) PoolOption {
	return func(cfg *pgxpool.Config) {
		if d <= 0 {
			delete(cfg.ConnConfig.RuntimeParams, "statement_timeout")
			return
		}
		cfg.ConnConfig.RuntimeParams["statement_timeout"] = strconv.FormatInt(d.Milliseconds(), 10)
	}
}

// NewPool creates a pgxpool.Pool configured with shopspring/decimal support
// for NUMERIC columns and a bounded statement timeout.
func NewPool(ctx context.Context, databaseURL string, opts ...PoolOption) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing database config: %w", err)
	}

	cfg.ConnConfig.RuntimeParams["statement_timeout"] = strconv.FormatInt(defaultStatementTimeout.Milliseconds(), 10)
	cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		pgxdecimal.Register(conn.TypeMap())
		return nil
	}
	for _, opt := range opts {
		opt(cfg)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	return pool, nil
}

// RunMigrations executes the embedded DDL schema against the pool.
func RunMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, db.Schema)
	if err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	return nil
}

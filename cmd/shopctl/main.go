// Command shopctl is the operator tool for the shop engine: it seeds the
// catalog and inventory, and adjusts stock levels with an audit trail.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/corvinae/shopengine/internal/domain/audit"
	"github.com/corvinae/shopengine/internal/domain/inventory"
	"github.com/corvinae/shopengine/internal/storage/postgres"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := rootCmd().ExecuteContext(ctx); err != nil {
		slog.Error("command failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var databaseURL string

	root := &cobra.Command{
		Use:           "shopctl",
		Short:         "Operator tool for the shop engine",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")

	connect := func(ctx context.Context) (*pgxpool.Pool, error) {
		url := databaseURL
		if url == "" {
			url = os.Getenv("DATABASE_URL")
		}
		if url == "" {
			return nil, errors.New("database URL is required: set --database-url or DATABASE_URL")
		}
		pool, err := postgres.NewPool(ctx, url)
		if err != nil {
			return nil, errors.Wrap(err, "connect to database")
		}
		if err := postgres.RunMigrations(ctx, pool); err != nil {
			pool.Close()
			return nil, errors.Wrap(err, "run migrations")
		}
		return pool, nil
	}

	root.AddCommand(seedCmd(connect), stockCmd(connect))
	return root
}

type connectFunc func(context.Context) (*pgxpool.Pool, error)

// catalogEntry is one product in the seed file, with its variants and
// initial stock levels.
type catalogEntry struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
	Variants []struct {
		ID       string           `json:"id"`
		Name     string           `json:"name"`
		Price    *decimal.Decimal `json:"price"`
		Quantity int              `json:"quantity"`
	} `json:"variants"`
}

func seedCmd(connect connectFunc) *cobra.Command {
	var catalogFile string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Upsert the catalog and initial inventory from a JSON file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			data, err := os.ReadFile(catalogFile)
			if err != nil {
				return errors.Wrap(err, "read catalog file")
			}
			var entries []catalogEntry
			if err := json.Unmarshal(data, &entries); err != nil {
				return errors.Wrap(err, "parse catalog JSON")
			}

			pool, err := connect(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			slog.Info("seeding catalog", slog.Int("products", len(entries)))
			for _, e := range entries {
				if err := seedProduct(ctx, pool, e); err != nil {
					return errors.Wrapf(err, "seed product %s", e.ID)
				}
				slog.Info("upserted product", slog.String("id", e.ID), slog.String("name", e.Name))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&catalogFile, "catalog-file", "db/seed/catalog.json", "path to catalog JSON file")
	return cmd
}

func seedProduct(ctx context.Context, pool *pgxpool.Pool, e catalogEntry) error {
	_, err := pool.Exec(ctx, `
		INSERT INTO products (id, name, price, quantity)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name, price = EXCLUDED.price, quantity = EXCLUDED.quantity`,
		e.ID, e.Name, e.Price, e.Quantity,
	)
	if err != nil {
		return errors.Wrap(err, "upsert product")
	}
	if err := setStock(ctx, pool, e.ID, "", e.Quantity); err != nil {
		return err
	}

	for _, v := range e.Variants {
		_, err := pool.Exec(ctx, `
			INSERT INTO product_variants (id, product_id, name, price, quantity)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (id) DO UPDATE
			SET name = EXCLUDED.name, price = EXCLUDED.price, quantity = EXCLUDED.quantity`,
			v.ID, e.ID, v.Name, v.Price, v.Quantity,
		)
		if err != nil {
			return errors.Wrapf(err, "upsert variant %s", v.ID)
		}
		if err := setStock(ctx, pool, e.ID, v.ID, v.Quantity); err != nil {
			return err
		}
	}
	return nil
}

func setStock(ctx context.Context, pool *pgxpool.Pool, productID, variantID string, quantity int) error {
	_, err := pool.Exec(ctx, `
		INSERT INTO inventory (product_id, variant_id, quantity)
		VALUES ($1, $2, $3)
		ON CONFLICT (product_id, variant_id) DO UPDATE
		SET quantity = EXCLUDED.quantity, updated_at = now()`,
		productID, variantID, quantity,
	)
	return errors.Wrap(err, "set stock")
}

func stockCmd(connect connectFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stock",
		Short: "Inspect and adjust inventory levels",
	}
	cmd.AddCommand(stockShowCmd(connect), stockAdjustCmd(connect))
	return cmd
}

func stockShowCmd(connect connectFunc) *cobra.Command {
	var productID, variantID string

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the current stock level for a product or variant",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			pool, err := connect(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			entry, err := postgres.NewInventoryRepository(pool).Get(ctx, productID, variantID)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d\n", entry.ProductID, entry.Quantity)
			return nil
		},
	}
	cmd.Flags().StringVar(&productID, "product", "", "product ID")
	cmd.Flags().StringVar(&variantID, "variant", "", "variant ID (optional)")
	_ = cmd.MarkFlagRequired("product")
	return cmd
}

func stockAdjustCmd(connect connectFunc) *cobra.Command {
	var (
		productID, variantID string
		delta                int
		reason, adminID      string
	)

	cmd := &cobra.Command{
		Use:   "adjust",
		Short: "Adjust a stock level; negative deltas clamp at zero",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			pool, err := connect(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			lg, err := zap.NewProduction()
			if err != nil {
				return errors.Wrap(err, "create logger")
			}
			defer func() { _ = lg.Sync() }()

			recorder := audit.NewRecorder(postgres.NewAuditStore(pool), lg.Named("audit"), 3, 0)
			ledger := inventory.NewLedger(postgres.NewInventoryRepository(pool), recorder, lg.Named("inventory"))

			after, err := ledger.AdjustFor(ctx, adminID, productID, variantID, delta, reason)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d\n", productID, after)
			return nil
		},
	}
	cmd.Flags().StringVar(&productID, "product", "", "product ID")
	cmd.Flags().StringVar(&variantID, "variant", "", "variant ID (optional)")
	cmd.Flags().IntVar(&delta, "delta", 0, "quantity change, e.g. 10 or -5")
	cmd.Flags().StringVar(&reason, "reason", "manual adjustment", "reason recorded in the audit trail")
	cmd.Flags().StringVar(&adminID, "admin", "", "acting admin ID for the audit trail")
	_ = cmd.MarkFlagRequired("product")
	_ = cmd.MarkFlagRequired("delta")
	return cmd
}

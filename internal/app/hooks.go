package app

import (
	"context"

	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/corvinae/shopengine/internal/domain/audit"
	"github.com/corvinae/shopengine/internal/domain/inventory"
	"github.com/corvinae/shopengine/internal/domain/order"
	"github.com/corvinae/shopengine/internal/hooks"
)

// registerHooks wires the built-in side effects onto the dispatcher:
// inventory movements, audit trail entries, and notification logging. All of
// them are best effort; a failing hook is logged by the dispatcher and never
// fails the order operation that fired it.
func registerHooks(d *hooks.Dispatcher, stock *inventory.Ledger, rec *audit.Recorder) {
	// Stock leaves the shelf when an order is accepted and returns when the
	// order is cancelled. Deductions clamp at zero instead of failing.
	hooks.On(d, "inventory-deduct", func(ctx context.Context, e order.CreatedEvent) error {
		return stock.BulkAdjust(ctx, "", movements(e.Order, -1, "order "+e.Order.Number+" created"))
	})
	hooks.On(d, "inventory-restore", func(ctx context.Context, e order.CancelledEvent) error {
		return stock.BulkAdjust(ctx, "", movements(e.Order, 1, "order "+e.Order.Number+" cancelled"))
	})

	// Audit trail. Order mutations are system-initiated from the hook's
	// point of view; the acting admin is attributed on inventory
	// adjustments by the ledger itself.
	hooks.On(d, "audit-created", func(ctx context.Context, e order.CreatedEvent) error {
		rec.Record(ctx, "", audit.ActionCreate, "order", e.Order.ID, map[string]any{
			"number": e.Order.Number,
			"status": string(e.Order.Status),
			"total":  e.Order.Total.String(),
		})
		return nil
	})
	hooks.On(d, "audit-updated", func(ctx context.Context, e order.UpdatedEvent) error {
		recordStatusChange(ctx, rec, e.Order, e.Previous)
		return nil
	})
	hooks.On(d, "audit-shipped", func(ctx context.Context, e order.ShippedEvent) error {
		recordStatusChange(ctx, rec, e.Order, "")
		return nil
	})
	hooks.On(d, "audit-delivered", func(ctx context.Context, e order.DeliveredEvent) error {
		recordStatusChange(ctx, rec, e.Order, "")
		return nil
	})
	hooks.On(d, "audit-cancelled", func(ctx context.Context, e order.CancelledEvent) error {
		recordStatusChange(ctx, rec, e.Order, e.Previous)
		return nil
	})

	// Notification placeholder: until a real provider is wired in, customer
	// notifications surface as structured log lines.
	hooks.On(d, "notify-shipped", func(ctx context.Context, e order.ShippedEvent) error {
		zctx.From(ctx).Info("order shipped notification",
			zap.String("order", e.Order.Number),
			zap.String("customer", e.Order.CustomerID),
			zap.String("tracking_number", e.Order.TrackingNumber),
		)
		return nil
	})
	hooks.On(d, "notify-delivered", func(ctx context.Context, e order.DeliveredEvent) error {
		zctx.From(ctx).Info("order delivered notification",
			zap.String("order", e.Order.Number),
			zap.String("customer", e.Order.CustomerID),
		)
		return nil
	})
}

// movements converts order items into inventory adjustments with the given
// sign (-1 deducts, +1 restores).
func movements(o *order.Order, sign int, reason string) []inventory.Adjustment {
	adjs := make([]inventory.Adjustment, 0, len(o.Items))
	for _, it := range o.Items {
		adjs = append(adjs, inventory.Adjustment{
			ProductID: it.ProductID,
			VariantID: it.VariantID,
			Delta:     sign * it.Quantity,
			Reason:    reason,
		})
	}
	return adjs
}

func recordStatusChange(ctx context.Context, rec *audit.Recorder, o *order.Order, prev order.Status) {
	changes := map[string]any{"status": string(o.Status)}
	if prev != "" {
		changes["previous"] = string(prev)
	}
	rec.Record(ctx, "", audit.ActionUpdate, "order", o.ID, changes)
}

package handler

import (
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/corvinae/shopengine/internal/domain/cart"
	"github.com/corvinae/shopengine/internal/domain/catalog"
	"github.com/corvinae/shopengine/internal/domain/inventory"
	"github.com/corvinae/shopengine/internal/domain/order"
)

// writeJSON encodes the object built by fn and writes it with the status.
func writeJSON(w http.ResponseWriter, status int, fn func(e *jx.Encoder)) {
	var e jx.Encoder
	fn(&e)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}

// writeError maps a domain error to an HTTP status and a {code, message}
// body. Unrecognized errors become opaque 500s; the detail goes to the log,
// not the client.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	msg := "internal error"

	switch {
	case errors.Is(err, cart.ErrInvalidQuantity),
		errors.Is(err, order.ErrPaymentMethodRequired),
		errors.Is(err, order.ErrUnknownStatus),
		errors.Is(err, errBadRequest):
		status = http.StatusBadRequest
		msg = err.Error()
	case errors.Is(err, order.ErrEmptyCart):
		status = http.StatusUnprocessableEntity
		msg = err.Error()
	case errors.Is(err, cart.ErrNotFound),
		errors.Is(err, cart.ErrLineNotFound),
		errors.Is(err, order.ErrNotFound),
		errors.Is(err, catalog.ErrProductNotFound),
		errors.Is(err, catalog.ErrVariantNotFound),
		errors.Is(err, inventory.ErrNotFound):
		status = http.StatusNotFound
		msg = err.Error()
	case errors.Is(err, order.ErrConflict):
		status = http.StatusConflict
		msg = err.Error()
	default:
		zctx.From(r.Context()).Error("request failed",
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
	}

	writeJSON(w, status, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("code", func(e *jx.Encoder) { e.Int(status) })
			e.Field("message", func(e *jx.Encoder) { e.Str(msg) })
		})
	})
}

// errBadRequest classifies request decoding failures.
var errBadRequest = errors.New("malformed request body")

func encMoney(e *jx.Encoder, d decimal.Decimal) {
	// Decimal renders as a plain JSON number without float drift.
	e.Raw([]byte(d.String()))
}

func encTime(e *jx.Encoder, t time.Time) {
	e.Str(t.UTC().Format(time.RFC3339))
}

func encOrder(e *jx.Encoder, o *order.Order) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Str(o.ID) })
		e.Field("number", func(e *jx.Encoder) { e.Str(o.Number) })
		e.Field("customerId", func(e *jx.Encoder) { e.Str(o.CustomerID) })
		e.Field("status", func(e *jx.Encoder) { e.Str(string(o.Status)) })
		e.Field("subtotal", func(e *jx.Encoder) { encMoney(e, o.Subtotal) })
		e.Field("tax", func(e *jx.Encoder) { encMoney(e, o.Tax) })
		e.Field("shippingCost", func(e *jx.Encoder) { encMoney(e, o.ShippingCost) })
		e.Field("total", func(e *jx.Encoder) { encMoney(e, o.Total) })
		e.Field("paymentMethod", func(e *jx.Encoder) { e.Str(o.PaymentMethod) })
		if o.ShippingAddress != "" {
			e.Field("shippingAddress", func(e *jx.Encoder) { e.Str(o.ShippingAddress) })
		}
		if o.TrackingNumber != "" {
			e.Field("trackingNumber", func(e *jx.Encoder) { e.Str(o.TrackingNumber) })
		}
		if o.TrackingURL != "" {
			e.Field("trackingUrl", func(e *jx.Encoder) { e.Str(o.TrackingURL) })
		}
		if o.EstimatedDelivery != nil {
			e.Field("estimatedDelivery", func(e *jx.Encoder) { encTime(e, *o.EstimatedDelivery) })
		}
		if o.Notes != "" {
			e.Field("notes", func(e *jx.Encoder) { e.Str(o.Notes) })
		}
		e.Field("items", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, it := range o.Items {
					encOrderItem(e, it)
				}
			})
		})
		e.Field("createdAt", func(e *jx.Encoder) { encTime(e, o.CreatedAt) })
		e.Field("updatedAt", func(e *jx.Encoder) { encTime(e, o.UpdatedAt) })
	})
}

func encOrderItem(e *jx.Encoder, it order.Item) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("productId", func(e *jx.Encoder) { e.Str(it.ProductID) })
		if it.VariantID != "" {
			e.Field("variantId", func(e *jx.Encoder) { e.Str(it.VariantID) })
		}
		e.Field("quantity", func(e *jx.Encoder) { e.Int(it.Quantity) })
		e.Field("unitPrice", func(e *jx.Encoder) { encMoney(e, it.UnitPrice) })
		if it.Size != "" {
			e.Field("size", func(e *jx.Encoder) { e.Str(it.Size) })
		}
		if it.Color != "" {
			e.Field("color", func(e *jx.Encoder) { e.Str(it.Color) })
		}
	})
}

func encCart(e *jx.Encoder, c *cart.Cart) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Str(c.ID) })
		if c.CustomerID != "" {
			e.Field("customerId", func(e *jx.Encoder) { e.Str(c.CustomerID) })
		}
		if c.SessionToken != "" {
			e.Field("sessionToken", func(e *jx.Encoder) { e.Str(c.SessionToken) })
		}
		e.Field("lines", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, l := range c.Lines {
					encCartLine(e, l)
				}
			})
		})
	})
}

func encCartLine(e *jx.Encoder, l cart.Line) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Str(l.ID) })
		e.Field("productId", func(e *jx.Encoder) { e.Str(l.ProductID) })
		if l.VariantID != "" {
			e.Field("variantId", func(e *jx.Encoder) { e.Str(l.VariantID) })
		}
		e.Field("quantity", func(e *jx.Encoder) { e.Int(l.Quantity) })
		if l.Size != "" {
			e.Field("size", func(e *jx.Encoder) { e.Str(l.Size) })
		}
		if l.Color != "" {
			e.Field("color", func(e *jx.Encoder) { e.Str(l.Color) })
		}
	})
}

func encSnapshot(e *jx.Encoder, s *cart.Snapshot) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("cartId", func(e *jx.Encoder) { e.Str(s.CartID) })
		e.Field("lines", func(e *jx.Encoder) {
			e.Arr(func(e *jx.Encoder) {
				for _, l := range s.Lines {
					e.Obj(func(e *jx.Encoder) {
						e.Field("id", func(e *jx.Encoder) { e.Str(l.ID) })
						e.Field("productId", func(e *jx.Encoder) { e.Str(l.ProductID) })
						if l.VariantID != "" {
							e.Field("variantId", func(e *jx.Encoder) { e.Str(l.VariantID) })
						}
						e.Field("productName", func(e *jx.Encoder) { e.Str(l.ProductName) })
						e.Field("quantity", func(e *jx.Encoder) { e.Int(l.Quantity) })
						e.Field("unitPrice", func(e *jx.Encoder) { encMoney(e, l.UnitPrice) })
					})
				}
			})
		})
		e.Field("subtotal", func(e *jx.Encoder) { encMoney(e, s.Quote.Subtotal) })
		e.Field("tax", func(e *jx.Encoder) { encMoney(e, s.Quote.Tax) })
		e.Field("shippingCost", func(e *jx.Encoder) { encMoney(e, s.Quote.Shipping) })
		e.Field("total", func(e *jx.Encoder) { encMoney(e, s.Quote.Total) })
	})
}

// Package handler exposes the engine's operations over HTTP. It is a thin
// adapter: request decoding, error-to-status mapping, and delegation to the
// domain services. No business rules live here.
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/corvinae/shopengine/internal/domain/cart"
	"github.com/corvinae/shopengine/internal/domain/inventory"
	"github.com/corvinae/shopengine/internal/domain/order"
)

// adminIDHeader carries the acting admin identity. The engine trusts it;
// authentication happens upstream.
const adminIDHeader = "X-Admin-ID"

// Handler routes API requests to the domain services.
type Handler struct {
	carts  *cart.Service
	orders *order.Service
	stock  *inventory.Ledger
}

// New constructs a Handler with the required domain dependencies.
func New(carts *cart.Service, orders *order.Service, stock *inventory.Ledger) *Handler {
	return &Handler{
		carts:  carts,
		orders: orders,
		stock:  stock,
	}
}

// Routes returns the API router.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Route("/carts", func(r chi.Router) {
		r.Post("/", h.createCart)
		r.Route("/{cartID}", func(r chi.Router) {
			r.Get("/", h.getCartSnapshot)
			r.Post("/lines", h.addLine)
			r.Put("/lines/{lineID}", h.setLineQuantity)
			r.Delete("/lines/{lineID}", h.removeLine)
			r.Delete("/lines", h.clearCart)
			r.Post("/order", h.createOrder)
		})
	})

	r.Route("/orders", func(r chi.Router) {
		r.Get("/{orderID}", h.getOrder)
		r.Post("/{orderID}/status", h.transitionOrder)
		r.Put("/{orderID}/tracking", h.updateTracking)
	})

	r.Post("/inventory/{productID}/adjust", h.adjustStock)

	return r
}

func adminID(r *http.Request) string {
	return r.Header.Get(adminIDHeader)
}

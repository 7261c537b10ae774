package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/jx"

	"github.com/corvinae/shopengine/internal/domain/order"
)

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	var paymentMethod, shippingAddress, customerID string
	err := decodeBody(r, func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "paymentMethod":
			paymentMethod, err = d.Str()
		case "shippingAddress":
			shippingAddress, err = d.Str()
		case "customerId":
			customerID, err = d.Str()
		default:
			err = d.Skip()
		}
		return err
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	o, err := h.orders.CreateFromCart(r.Context(), order.CreateRequest{
		CartID:          chi.URLParam(r, "cartID"),
		CustomerID:      customerID,
		PaymentMethod:   paymentMethod,
		ShippingAddress: shippingAddress,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, func(e *jx.Encoder) { encOrder(e, o) })
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.orders.Get(r.Context(), chi.URLParam(r, "orderID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encOrder(e, o) })
}

func (h *Handler) transitionOrder(w http.ResponseWriter, r *http.Request) {
	var status, notes string
	err := decodeBody(r, func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "status":
			status, err = d.Str()
		case "notes":
			notes, err = d.Str()
		default:
			err = d.Skip()
		}
		return err
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	next, err := order.ParseStatus(status)
	if err != nil {
		writeError(w, r, err)
		return
	}

	o, err := h.orders.Transition(r.Context(), chi.URLParam(r, "orderID"), next, notes)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encOrder(e, o) })
}

func (h *Handler) updateTracking(w http.ResponseWriter, r *http.Request) {
	var t order.Tracking
	err := decodeBody(r, func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "trackingNumber":
			t.Number, err = d.Str()
		case "trackingUrl":
			t.URL, err = d.Str()
		case "estimatedDelivery":
			raw, err := d.Str()
			if err != nil {
				return err
			}
			ts, err := time.Parse(time.RFC3339, raw)
			if err != nil {
				return err
			}
			t.EstimatedDelivery = &ts
			return nil
		default:
			err = d.Skip()
		}
		return err
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	o, err := h.orders.UpdateTracking(r.Context(), chi.URLParam(r, "orderID"), t)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encOrder(e, o) })
}

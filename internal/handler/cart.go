package handler

import (
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/jx"
)

// decodeBody reads a bounded request body and decodes its top-level object.
func decodeBody(r *http.Request, fn func(d *jx.Decoder, key string) error) error {
	data, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		return errBadRequest
	}
	if err := jx.DecodeBytes(data).Obj(fn); err != nil {
		return errBadRequest
	}
	return nil
}

func (h *Handler) createCart(w http.ResponseWriter, r *http.Request) {
	var customerID, sessionToken string
	err := decodeBody(r, func(d *jx.Decoder, key string) error {
		switch key {
		case "customerId":
			v, err := d.Str()
			customerID = v
			return err
		case "sessionToken":
			v, err := d.Str()
			sessionToken = v
			return err
		default:
			return d.Skip()
		}
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	c, err := h.carts.Create(r.Context(), customerID, sessionToken)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, func(e *jx.Encoder) { encCart(e, c) })
}

func (h *Handler) getCartSnapshot(w http.ResponseWriter, r *http.Request) {
	snap, err := h.carts.Snapshot(r.Context(), chi.URLParam(r, "cartID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encSnapshot(e, snap) })
}

func (h *Handler) addLine(w http.ResponseWriter, r *http.Request) {
	var (
		productID, variantID string
		size, color          string
		quantity             int
	)
	err := decodeBody(r, func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "productId":
			productID, err = d.Str()
		case "variantId":
			variantID, err = d.Str()
		case "quantity":
			quantity, err = d.Int()
		case "size":
			size, err = d.Str()
		case "color":
			color, err = d.Str()
		default:
			err = d.Skip()
		}
		return err
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	c, err := h.carts.AddLine(r.Context(), chi.URLParam(r, "cartID"), productID, variantID, quantity, size, color)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encCart(e, c) })
}

func (h *Handler) setLineQuantity(w http.ResponseWriter, r *http.Request) {
	var quantity int
	err := decodeBody(r, func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "quantity":
			quantity, err = d.Int()
		default:
			err = d.Skip()
		}
		return err
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	c, err := h.carts.SetLineQuantity(r.Context(), chi.URLParam(r, "cartID"), chi.URLParam(r, "lineID"), quantity)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encCart(e, c) })
}

func (h *Handler) removeLine(w http.ResponseWriter, r *http.Request) {
	err := h.carts.RemoveLine(r.Context(), chi.URLParam(r, "cartID"), chi.URLParam(r, "lineID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) clearCart(w http.ResponseWriter, r *http.Request) {
	if err := h.carts.Clear(r.Context(), chi.URLParam(r, "cartID")); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

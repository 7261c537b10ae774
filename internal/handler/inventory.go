package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/jx"
)

func (h *Handler) adjustStock(w http.ResponseWriter, r *http.Request) {
	var (
		variantID, reason string
		delta             int
	)
	err := decodeBody(r, func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "variantId":
			variantID, err = d.Str()
		case "delta":
			delta, err = d.Int()
		case "reason":
			reason, err = d.Str()
		default:
			err = d.Skip()
		}
		return err
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	quantity, err := h.stock.AdjustFor(r.Context(), adminID(r), chi.URLParam(r, "productID"), variantID, delta, reason)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("quantity", func(e *jx.Encoder) { e.Int(quantity) })
			e.Field("inStock", func(e *jx.Encoder) { e.Bool(quantity > 0) })
		})
	})
}

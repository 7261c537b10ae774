//go:build integration

package integration

import (
	"net/http"
	"testing"
)

func TestCartSnapshotTotals(t *testing.T) {
	cartID := newCart(t)

	resp := doPost(t, "/api/carts/"+cartID+"/lines",
		map[string]any{"productId": "prod-canvas-tote", "quantity": 2})
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("add line: expected 200, got %d", resp.StatusCode)
	}

	resp = doGet(t, "/api/carts/"+cartID)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("snapshot: expected 200, got %d", resp.StatusCode)
	}

	// 2 x $18.00 tote at 8% tax and $5 flat shipping.
	snap := decodeJSON[snapshotResponse](t, resp)
	if snap.Subtotal != 36 {
		t.Errorf("subtotal: got %v, want 36", snap.Subtotal)
	}
	if snap.Tax != 2.88 {
		t.Errorf("tax: got %v, want 2.88", snap.Tax)
	}
	if snap.ShippingCost != 5 {
		t.Errorf("shipping: got %v, want 5", snap.ShippingCost)
	}
	if snap.Total != 43.88 {
		t.Errorf("total: got %v, want 43.88", snap.Total)
	}
}

func TestCartFreeShippingThreshold(t *testing.T) {
	cartID := newCart(t)

	resp := doPost(t, "/api/carts/"+cartID+"/lines",
		map[string]any{"productId": "prod-hoodie", "quantity": 2})
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("add line: expected 200, got %d", resp.StatusCode)
	}

	resp = doGet(t, "/api/carts/"+cartID)
	defer resp.Body.Close()

	// 2 x $69.00 crosses the $100 free shipping threshold.
	snap := decodeJSON[snapshotResponse](t, resp)
	if snap.Subtotal != 138 {
		t.Errorf("subtotal: got %v, want 138", snap.Subtotal)
	}
	if snap.ShippingCost != 0 {
		t.Errorf("shipping: got %v, want 0", snap.ShippingCost)
	}
}

func TestCartMergesDuplicateLines(t *testing.T) {
	cartID := newCart(t)

	for range 2 {
		resp := doPost(t, "/api/carts/"+cartID+"/lines",
			map[string]any{"productId": "prod-classic-tee", "variantId": "tee-black-m", "quantity": 1})
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("add line: expected 200, got %d", resp.StatusCode)
		}
	}

	resp := doGet(t, "/api/carts/"+cartID)
	defer resp.Body.Close()

	snap := decodeJSON[snapshotResponse](t, resp)
	if len(snap.Lines) != 1 {
		t.Fatalf("lines: got %d, want 1 merged line", len(snap.Lines))
	}
	if snap.Lines[0].Quantity != 2 {
		t.Errorf("quantity: got %d, want 2", snap.Lines[0].Quantity)
	}
}

func TestCartErrors(t *testing.T) {
	cartID := newCart(t)

	t.Run("missing cart", func(t *testing.T) {
		resp := doPost(t, "/api/carts/does-not-exist/lines",
			map[string]any{"productId": "prod-classic-tee", "quantity": 1})
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", resp.StatusCode)
		}
	})

	t.Run("unknown product", func(t *testing.T) {
		resp := doPost(t, "/api/carts/"+cartID+"/lines",
			map[string]any{"productId": "prod-unknown", "quantity": 1})
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", resp.StatusCode)
		}
	})

	t.Run("zero quantity", func(t *testing.T) {
		resp := doPost(t, "/api/carts/"+cartID+"/lines",
			map[string]any{"productId": "prod-classic-tee", "quantity": 0})
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", resp.StatusCode)
		}
		body := decodeJSON[errorResponse](t, resp)
		if body.Code != http.StatusBadRequest {
			t.Errorf("error code: got %d, want 400", body.Code)
		}
	})
}

package handler

import (
	"log/slog"
	"net/http"
	"strconv"
)

type checkoutResponse struct {
	CheckoutURL string `json:"checkout_url"`
}

// handleCheckout reconciles the remote cart with the mirror and hands out
// the checkout URL, or redirects to it with ?redirect=true.
// POST /api/checkout
func (h *Handler) handleCheckout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	page, notices := h.openPage(r)

	h.logger.InfoContext(ctx, "starting checkout",
		slog.String("profile", page.Profile()),
		slog.Int("mirror_quantity", page.Mirror().TotalQuantity()))

	checkoutURL, err := page.Checkout(ctx)
	if err != nil {
		h.writeError(w, err, notices.Notices()...)
		return
	}

	if redirect, _ := strconv.ParseBool(r.URL.Query().Get("redirect")); redirect {
		http.Redirect(w, r, checkoutURL, http.StatusSeeOther)
		return
	}
	h.writeJSON(w, http.StatusOK, checkoutResponse{CheckoutURL: checkoutURL})
}

package handler

import (
	"log/slog"
	"net/http"

	"storefront/internal/cart"
	"storefront/internal/model"
	"storefront/internal/profile"
)

// cartResponse is returned by every cart operation. Lines is the local
// mirror; Cart is the remote cart when it is known. SyncError reports a
// failed remote phase; the local phase was applied regardless.
type cartResponse struct {
	Profile   string        `json:"profile"`
	Lines     []cart.Line   `json:"lines"`
	Cart      *model.Cart   `json:"cart,omitempty"`
	Notices   []cart.Notice `json:"notices"`
	SyncError *errorBody    `json:"sync_error,omitempty"`
}

type countResponse struct {
	Count  int    `json:"count"`
	Source string `json:"source"` // "remote" or "local"
}

type addItemRequest struct {
	VariantID string `json:"variant_id"`
	Quantity  *int   `json:"quantity,omitempty"` // default 1
}

type updateLineRequest struct {
	LineID   string `json:"line_id"`
	Quantity *int   `json:"quantity"`
}

type removeLineRequest struct {
	LineID string `json:"line_id"`
}

// openPage starts a page context for the request's profile. Notices raised
// by the page are collected in the returned buffer.
func (h *Handler) openPage(r *http.Request) (*cart.Page, *cart.NoticeBuffer) {
	notices := &cart.NoticeBuffer{}
	return h.svc.Open(r.Context(), profile.FromContext(r.Context()), h.store, notices), notices
}

func (h *Handler) cartResult(page *cart.Page, res cart.SyncResult, notices *cart.NoticeBuffer) cartResponse {
	resp := cartResponse{
		Profile: page.Profile(),
		Lines:   res.Lines,
		Cart:    res.Cart,
		Notices: notices.Notices(),
	}
	if resp.Lines == nil {
		resp.Lines = []cart.Line{}
	}
	if res.Err != nil {
		apiErr := h.toAPIError(res.Err)
		resp.SyncError = &errorBody{Code: apiErr.Code, Message: apiErr.Message, Field: apiErr.Field}
	}
	return resp
}

// handleGetCart returns the mirror and the remote cart. A profile without a
// remote cart gets an empty one.
// GET /api/cart
func (h *Handler) handleGetCart(w http.ResponseWriter, r *http.Request) {
	page, notices := h.openPage(r)

	res := page.LoadCart(r.Context())
	if model.IsNotFound(res.Err) {
		res.Err = nil
	}
	h.writeJSON(w, http.StatusOK, h.cartResult(page, res, notices))
}

// handleCartCount returns the header badge count.
// GET /api/cart/count
func (h *Handler) handleCartCount(w http.ResponseWriter, r *http.Request) {
	page, _ := h.openPage(r)

	count, remote := page.CartCount(r.Context())
	source := "local"
	if remote {
		source = "remote"
	}
	h.writeJSON(w, http.StatusOK, countResponse{Count: count, Source: source})
}

// handleAddItem is the product page add.
// POST /api/cart/items {variant_id, quantity}
func (h *Handler) handleAddItem(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	quantity := 1
	if req.Quantity != nil {
		quantity = *req.Quantity
	}

	page, notices := h.openPage(r)
	res, err := page.AddItem(r.Context(), req.VariantID, quantity)
	if err != nil {
		h.writeError(w, err, notices.Notices()...)
		return
	}

	h.logger.InfoContext(r.Context(), "added to cart",
		slog.String("profile", page.Profile()),
		slog.String("variant_id", req.VariantID),
		slog.Int("quantity", quantity),
		slog.Bool("synced", res.Err == nil))

	h.writeJSON(w, http.StatusOK, h.cartResult(page, res, notices))
}

// handleQuickAdd is the listing page add of one unit.
// POST /api/cart/quick-add {variant_id}
func (h *Handler) handleQuickAdd(w http.ResponseWriter, r *http.Request) {
	var req addItemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	page, notices := h.openPage(r)
	res, err := page.QuickAdd(r.Context(), req.VariantID)
	if err != nil {
		h.writeError(w, err, notices.Notices()...)
		return
	}
	h.writeJSON(w, http.StatusOK, h.cartResult(page, res, notices))
}

// handleUpdateLine sets the quantity of a remote line; below 1 removes it.
// POST /api/cart/lines/update {line_id, quantity}
func (h *Handler) handleUpdateLine(w http.ResponseWriter, r *http.Request) {
	var req updateLineRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	if req.Quantity == nil {
		h.writeError(w, model.NewValidationError("quantity", "is required"))
		return
	}

	page, notices := h.openPage(r)
	res, err := page.UpdateQuantity(r.Context(), req.LineID, *req.Quantity)
	if err != nil {
		h.writeError(w, err, notices.Notices()...)
		return
	}
	h.writeJSON(w, http.StatusOK, h.cartResult(page, res, notices))
}

// handleRemoveLine removes a remote line.
// POST /api/cart/lines/remove {line_id}
func (h *Handler) handleRemoveLine(w http.ResponseWriter, r *http.Request) {
	var req removeLineRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	page, notices := h.openPage(r)
	res, err := page.RemoveItem(r.Context(), req.LineID)
	if err != nil {
		h.writeError(w, err, notices.Notices()...)
		return
	}
	h.writeJSON(w, http.StatusOK, h.cartResult(page, res, notices))
}

// handleReset forgets the profile's mirror and remote session.
// POST /api/cart/reset
func (h *Handler) handleReset(w http.ResponseWriter, r *http.Request) {
	page, notices := h.openPage(r)
	if err := page.Reset(r.Context()); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, h.cartResult(page, cart.SyncResult{Lines: page.Mirror().Lines()}, notices))
}

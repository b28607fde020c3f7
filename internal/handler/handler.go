// Package handler provides the storefront HTTP API and its MCP twin.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"storefront/internal/cart"
	"storefront/internal/model"
	"storefront/internal/profile"
	"storefront/internal/storage"
)

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	svc    *cart.Service
	store  storage.Store
	logger *slog.Logger
}

// New creates a Handler. store is the process-wide state store; each request
// sees it scoped to the caller's browser profile.
func New(svc *cart.Service, store storage.Store, logger *slog.Logger) *Handler {
	return &Handler{
		svc:    svc,
		store:  store,
		logger: logger,
	}
}

// RegisterRoutes registers all HTTP routes with the given ServeMux.
// Uses Go 1.22+ method routing patterns.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	withProfile := profile.Middleware(h.logger)
	api := func(pattern string, fn http.HandlerFunc) {
		mux.Handle(pattern, withProfile(fn))
	}

	// Catalog
	api("GET /api/products", h.handleListProducts)
	api("GET /api/collections/{handle}/products", h.handleCollectionProducts)
	api("GET /api/product", h.handleGetProduct)

	// Cart
	api("GET /api/cart", h.handleGetCart)
	api("GET /api/cart/count", h.handleCartCount)
	api("POST /api/cart/items", h.handleAddItem)
	api("POST /api/cart/quick-add", h.handleQuickAdd)
	api("POST /api/cart/lines/update", h.handleUpdateLine)
	api("POST /api/cart/lines/remove", h.handleRemoveLine)
	api("POST /api/cart/reset", h.handleReset)
	api("POST /api/checkout", h.handleCheckout)

	// MCP transport; the profile travels as a tool argument
	mux.Handle("/mcp", h.NewMCPHandler())

	mux.HandleFunc("GET /health", h.handleHealth)
	mux.HandleFunc("GET /healthz", h.handleHealth)
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, healthResponse{Status: "ok"})
}

type healthResponse struct {
	Status string `json:"status"`
}

// === Response Helpers ===

// writeJSON sends a JSON response with the given status code.
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", slog.String("error", err.Error()))
	}
}

// writeError sends an error response, extracting status/code from APIError if present.
// Notices raised before the failure are passed along.
func (h *Handler) writeError(w http.ResponseWriter, err error, notices ...cart.Notice) {
	apiErr := h.toAPIError(err)
	h.writeJSON(w, apiErr.StatusCode, errorResponse{
		Error:   errorBody{Code: apiErr.Code, Message: apiErr.Message, Field: apiErr.Field},
		Notices: notices,
	})
}

// toAPIError finds the APIError in err's chain; anything else is an
// internal error whose details stay in the log.
func (h *Handler) toAPIError(err error) *model.APIError {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	h.logger.Error("internal error", slog.String("error", err.Error()))
	return &model.APIError{
		Code:       "INTERNAL_ERROR",
		Message:    "an internal error occurred",
		StatusCode: http.StatusInternalServerError,
	}
}

// errorResponse is the JSON structure for error responses.
type errorResponse struct {
	Error   errorBody     `json:"error"`
	Notices []cart.Notice `json:"notices,omitempty"`
}

type errorBody struct {
	Code    string   `json:"code"`
	Message string   `json:"message"`
	Field   []string `json:"field,omitempty"`
}

// MaxRequestBodySize limits JSON request bodies to 1MB.
const MaxRequestBodySize = 1 << 20

// decodeJSON reads JSON from request body into v.
// Returns an APIError if decoding fails.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, MaxRequestBodySize)

	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return model.NewValidationError("body", "invalid JSON")
	}
	return nil
}

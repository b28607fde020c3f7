package handler

import (
	"net/http"
	"strconv"
	"strings"

	"storefront/internal/model"
)

// optionPrefix marks query parameters that pick a variant option,
// e.g. ?option.Size=M
const optionPrefix = "option."

type productResponse struct {
	Product         *model.Product `json:"product"`
	SelectedVariant *model.Variant `json:"selected_variant"`
}

// handleListProducts returns one page of the catalog.
// GET /api/products?first=&after=
func (h *Handler) handleListProducts(w http.ResponseWriter, r *http.Request) {
	req, err := listRequest(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	page, err := h.svc.Products(r.Context(), req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, page)
}

// handleCollectionProducts returns one page of a collection.
// GET /api/collections/{handle}/products?first=&after=
func (h *Handler) handleCollectionProducts(w http.ResponseWriter, r *http.Request) {
	req, err := listRequest(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	page, err := h.svc.CollectionProducts(r.Context(), r.PathValue("handle"), req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, page)
}

// handleGetProduct returns a product by id or handle together with the
// variant picked by the option.* parameters (the default variant when none).
// GET /api/product?id=|handle=
func (h *Handler) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	product, err := h.svc.Product(r.Context(), q.Get("id"), q.Get("handle"))
	if err != nil {
		h.writeError(w, err)
		return
	}

	selected := make(map[string]string)
	for key, values := range q {
		if name, ok := strings.CutPrefix(key, optionPrefix); ok && name != "" && len(values) > 0 {
			selected[name] = values[0]
		}
	}

	h.writeJSON(w, http.StatusOK, productResponse{
		Product:         product,
		SelectedVariant: product.FindVariant(selected),
	})
}

func listRequest(r *http.Request) (model.ListRequest, error) {
	q := r.URL.Query()
	req := model.ListRequest{After: q.Get("after")}
	if raw := q.Get("first"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return req, model.NewValidationError("first", "must be a positive integer")
		}
		req.First = n
	}
	return req, nil
}

// MCP transport for the storefront using the official MCP Go SDK.
// Exposes catalog and cart operations as tools; cart tools name the browser
// profile they act for in their arguments.
package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"storefront/internal/cart"
	"storefront/internal/model"
	"storefront/internal/profile"
)

// === MCP Tool Input Types ===

// ListProductsInput is the input schema for list_products.
type ListProductsInput struct {
	Collection string `json:"collection,omitempty" jsonschema:"collection handle; omit for the whole catalog"`
	First      int    `json:"first,omitempty" jsonschema:"page size, default 20, max 100"`
	After      string `json:"after,omitempty" jsonschema:"cursor from a previous page"`
}

// GetProductInput is the input schema for get_product.
type GetProductInput struct {
	ID      string            `json:"id,omitempty" jsonschema:"product ID"`
	Handle  string            `json:"handle,omitempty" jsonschema:"product handle; wins over id"`
	Options map[string]string `json:"options,omitempty" jsonschema:"selected option values by option name"`
}

// ProfileInput identifies the browser profile a cart tool acts for.
type ProfileInput struct {
	Profile string `json:"profile" jsonschema:"browser profile ID"`
}

// AddToCartInput is the input schema for add_to_cart.
type AddToCartInput struct {
	Profile   string `json:"profile" jsonschema:"browser profile ID"`
	VariantID string `json:"variant_id" jsonschema:"variant to add"`
	Quantity  int    `json:"quantity" jsonschema:"units to add, at least 1"`
}

// QuickAddInput is the input schema for quick_add.
type QuickAddInput struct {
	Profile   string `json:"profile" jsonschema:"browser profile ID"`
	VariantID string `json:"variant_id" jsonschema:"variant to add one unit of"`
}

// UpdateCartLineInput is the input schema for update_cart_line.
type UpdateCartLineInput struct {
	Profile  string `json:"profile" jsonschema:"browser profile ID"`
	LineID   string `json:"line_id" jsonschema:"remote cart line ID"`
	Quantity int    `json:"quantity" jsonschema:"new quantity; below 1 removes the line"`
}

// RemoveCartLineInput is the input schema for remove_cart_line.
type RemoveCartLineInput struct {
	Profile string `json:"profile" jsonschema:"browser profile ID"`
	LineID  string `json:"line_id" jsonschema:"remote cart line ID"`
}

// === MCP Tool Output Types ===
// Amounts are rendered as strings ("19.99 USD") so outputs stay plain JSON.

// ProductSummary is one product of a listing.
type ProductSummary struct {
	ID               string `json:"id"`
	Handle           string `json:"handle"`
	Title            string `json:"title"`
	DefaultVariantID string `json:"default_variant_id,omitempty"`
	Price            string `json:"price,omitempty"`
	AvailableForSale bool   `json:"available_for_sale"`
}

// ProductList is one page of a listing.
type ProductList struct {
	Products    []ProductSummary `json:"products"`
	HasNextPage bool             `json:"has_next_page"`
	EndCursor   string           `json:"end_cursor,omitempty"`
}

// VariantView is a purchasable variant.
type VariantView struct {
	ID               string            `json:"id"`
	Title            string            `json:"title"`
	Price            string            `json:"price"`
	AvailableForSale bool              `json:"available_for_sale"`
	Options          map[string]string `json:"options,omitempty"`
}

// ProductDetail is a product with its variants and the selected one.
type ProductDetail struct {
	ID                string        `json:"id"`
	Handle            string        `json:"handle"`
	Title             string        `json:"title"`
	Description       string        `json:"description,omitempty"`
	Variants          []VariantView `json:"variants"`
	SelectedVariantID string        `json:"selected_variant_id,omitempty"`
}

// LineView is one line of the remote cart.
type LineView struct {
	LineID       string `json:"line_id"`
	VariantID    string `json:"variant_id"`
	ProductTitle string `json:"product_title,omitempty"`
	VariantTitle string `json:"variant_title,omitempty"`
	Quantity     int    `json:"quantity"`
	Total        string `json:"total"`
}

// MirrorLine is one line of the local cart mirror.
type MirrorLine struct {
	VariantID string `json:"variant_id"`
	Quantity  int    `json:"quantity"`
}

// CartOutput is returned by every cart tool.
type CartOutput struct {
	Profile       string       `json:"profile"`
	Local         []MirrorLine `json:"local"`
	CartID        string       `json:"cart_id,omitempty"`
	RemoteLines   []LineView   `json:"remote_lines"`
	TotalQuantity int          `json:"total_quantity"`
	Subtotal      string       `json:"subtotal,omitempty"`
	Notices       []string     `json:"notices"`
	SyncError     string       `json:"sync_error,omitempty"`
}

// CheckoutOutput is returned by checkout.
type CheckoutOutput struct {
	CheckoutURL string `json:"checkout_url"`
}

// NewMCPServer creates an MCP server with catalog and cart tools registered.
// The server exposes the same operations as the REST API.
func (h *Handler) NewMCPServer() *mcp.Server {
	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    "storefront",
			Version: "1.0.0",
		},
		&mcp.ServerOptions{
			Instructions: "Storefront catalog and cart. Browse with list_products and get_product, " +
				"then manage a shopper's cart by passing the same profile to every cart tool. " +
				"checkout returns the hosted checkout URL.",
		},
	)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_products",
		Description: "List catalog products, optionally within a collection. Paginate with the returned cursor.",
	}, h.mcpListProducts)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_product",
		Description: "Get a product by id or handle with its variants. Options select a variant.",
	}, h.mcpGetProduct)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "add_to_cart",
		Description: "Add a quantity of a variant to the profile's cart.",
	}, h.mcpAddToCart)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "quick_add",
		Description: "Add one unit of a variant to the profile's cart.",
	}, h.mcpQuickAdd)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_cart",
		Description: "Get the profile's cart, both the local lines and the remote cart.",
	}, h.mcpGetCart)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "update_cart_line",
		Description: "Set the quantity of a remote cart line. A quantity below 1 removes it.",
	}, h.mcpUpdateCartLine)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "remove_cart_line",
		Description: "Remove a remote cart line.",
	}, h.mcpRemoveCartLine)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "checkout",
		Description: "Reconcile the remote cart with the local lines and return the checkout URL.",
	}, h.mcpCheckout)

	return server
}

// NewMCPHandler returns an HTTP handler for the MCP endpoint.
// Mount this at /mcp on your mux.
func (h *Handler) NewMCPHandler() http.Handler {
	server := h.NewMCPServer()
	return mcp.NewStreamableHTTPHandler(
		func(r *http.Request) *mcp.Server { return server },
		nil,
	)
}

// === Tool Handlers ===

func (h *Handler) mcpListProducts(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input ListProductsInput,
) (*mcp.CallToolResult, *ProductList, error) {
	list := model.ListRequest{First: input.First, After: input.After}

	var (
		page *model.ProductConnection
		err  error
	)
	if input.Collection != "" {
		page, err = h.svc.CollectionProducts(ctx, input.Collection, list)
	} else {
		page, err = h.svc.Products(ctx, list)
	}
	if err != nil {
		return nil, nil, h.mcpError(err)
	}

	out := &ProductList{
		Products:    make([]ProductSummary, 0, len(page.Products)),
		HasNextPage: page.PageInfo.HasNextPage,
		EndCursor:   page.PageInfo.EndCursor,
	}
	for i := range page.Products {
		p := &page.Products[i]
		s := ProductSummary{ID: p.ID, Handle: p.Handle, Title: p.Title}
		if v := p.DefaultVariant(); v != nil {
			s.DefaultVariantID = v.ID
			s.Price = v.Price.String()
			s.AvailableForSale = v.AvailableForSale
		}
		out.Products = append(out.Products, s)
	}
	return nil, out, nil
}

func (h *Handler) mcpGetProduct(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input GetProductInput,
) (*mcp.CallToolResult, *ProductDetail, error) {
	p, err := h.svc.Product(ctx, input.ID, input.Handle)
	if err != nil {
		return nil, nil, h.mcpError(err)
	}

	out := &ProductDetail{
		ID:          p.ID,
		Handle:      p.Handle,
		Title:       p.Title,
		Description: p.Description,
		Variants:    make([]VariantView, 0, len(p.Variants)),
	}
	for _, v := range p.Variants {
		view := VariantView{ID: v.ID, Title: v.Title, Price: v.Price.String(), AvailableForSale: v.AvailableForSale}
		if len(v.SelectedOptions) > 0 {
			view.Options = make(map[string]string, len(v.SelectedOptions))
			for _, o := range v.SelectedOptions {
				view.Options[o.Name] = o.Value
			}
		}
		out.Variants = append(out.Variants, view)
	}
	if v := p.FindVariant(input.Options); v != nil {
		out.SelectedVariantID = v.ID
	}
	return nil, out, nil
}

func (h *Handler) mcpAddToCart(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input AddToCartInput,
) (*mcp.CallToolResult, *CartOutput, error) {
	return h.mcpCartOp(ctx, input.Profile, func(page *cart.Page) (cart.SyncResult, error) {
		return page.AddItem(ctx, input.VariantID, input.Quantity)
	})
}

func (h *Handler) mcpQuickAdd(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input QuickAddInput,
) (*mcp.CallToolResult, *CartOutput, error) {
	return h.mcpCartOp(ctx, input.Profile, func(page *cart.Page) (cart.SyncResult, error) {
		return page.QuickAdd(ctx, input.VariantID)
	})
}

func (h *Handler) mcpGetCart(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input ProfileInput,
) (*mcp.CallToolResult, *CartOutput, error) {
	return h.mcpCartOp(ctx, input.Profile, func(page *cart.Page) (cart.SyncResult, error) {
		res := page.LoadCart(ctx)
		if model.IsNotFound(res.Err) {
			res.Err = nil
		}
		return res, nil
	})
}

func (h *Handler) mcpUpdateCartLine(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input UpdateCartLineInput,
) (*mcp.CallToolResult, *CartOutput, error) {
	return h.mcpCartOp(ctx, input.Profile, func(page *cart.Page) (cart.SyncResult, error) {
		return page.UpdateQuantity(ctx, input.LineID, input.Quantity)
	})
}

func (h *Handler) mcpRemoveCartLine(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input RemoveCartLineInput,
) (*mcp.CallToolResult, *CartOutput, error) {
	return h.mcpCartOp(ctx, input.Profile, func(page *cart.Page) (cart.SyncResult, error) {
		return page.RemoveItem(ctx, input.LineID)
	})
}

func (h *Handler) mcpCheckout(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input ProfileInput,
) (*mcp.CallToolResult, *CheckoutOutput, error) {
	page, _, err := h.mcpOpen(ctx, input.Profile)
	if err != nil {
		return nil, nil, err
	}
	checkoutURL, err := page.Checkout(ctx)
	if err != nil {
		return nil, nil, h.mcpError(err)
	}
	return nil, &CheckoutOutput{CheckoutURL: checkoutURL}, nil
}

// mcpOpen validates the profile argument and opens a page for it.
func (h *Handler) mcpOpen(ctx context.Context, profileID string) (*cart.Page, *cart.NoticeBuffer, error) {
	if err := profile.Validate(profileID); err != nil {
		return nil, nil, fmt.Errorf("INVALID_PROFILE: %v", err)
	}
	notices := &cart.NoticeBuffer{}
	return h.svc.Open(ctx, profileID, h.store, notices), notices, nil
}

func (h *Handler) mcpCartOp(
	ctx context.Context,
	profileID string,
	op func(*cart.Page) (cart.SyncResult, error),
) (*mcp.CallToolResult, *CartOutput, error) {
	page, notices, err := h.mcpOpen(ctx, profileID)
	if err != nil {
		return nil, nil, err
	}
	res, err := op(page)
	if err != nil {
		return nil, nil, h.mcpError(err)
	}
	return nil, h.cartOutput(page, res, notices), nil
}

func (h *Handler) cartOutput(page *cart.Page, res cart.SyncResult, notices *cart.NoticeBuffer) *CartOutput {
	out := &CartOutput{
		Profile:     page.Profile(),
		Local:       make([]MirrorLine, 0, len(res.Lines)),
		RemoteLines: []LineView{},
		Notices:     []string{},
	}
	for _, l := range res.Lines {
		out.Local = append(out.Local, MirrorLine{VariantID: l.VariantID, Quantity: l.Quantity})
	}
	if c := res.Cart; c != nil {
		out.CartID = c.ID
		out.TotalQuantity = c.TotalQuantity
		if !c.Subtotal.IsZero() || c.Subtotal.CurrencyCode != "" {
			out.Subtotal = c.Subtotal.String()
		}
		for _, l := range c.Lines {
			out.RemoteLines = append(out.RemoteLines, LineView{
				LineID:       l.ID,
				VariantID:    l.Merchandise.VariantID,
				ProductTitle: l.Merchandise.ProductTitle,
				VariantTitle: l.Merchandise.VariantTitle,
				Quantity:     l.Quantity,
				Total:        l.Total.String(),
			})
		}
	}
	for _, n := range notices.Notices() {
		out.Notices = append(out.Notices, string(n.Level)+": "+n.Message)
	}
	if res.Err != nil {
		out.SyncError = h.mcpError(res.Err).Error()
	}
	return out
}

// mcpError converts service errors to MCP-friendly errors.
func (h *Handler) mcpError(err error) error {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("%s: %s", apiErr.Code, apiErr.Message)
	}
	// Don't leak internal error details
	h.logger.Error("mcp internal error", "error", err.Error())
	return fmt.Errorf("internal error")
}

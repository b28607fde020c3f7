package shopify

import (
	"context"
	"fmt"

	"storefront/internal/adapter"
	"storefront/internal/model"
)

// defaultPageSize matches the storefront listing page.
const defaultPageSize = 20

// Verify Client implements Adapter at compile time.
var _ adapter.Adapter = (*Client)(nil)

// === Catalog ===

// ListProducts returns one page of the catalog.
func (c *Client) ListProducts(ctx context.Context, req model.ListRequest) (*model.ProductConnection, error) {
	var data productsQueryData
	if err := c.Query(ctx, queryProducts, pageVars(req), &data); err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}
	return toProductConnection(&data.Products), nil
}

// ListCollectionProducts returns one page of the collection with the given handle.
func (c *Client) ListCollectionProducts(ctx context.Context, handle string, req model.ListRequest) (*model.ProductConnection, error) {
	vars := pageVars(req)
	vars["handle"] = handle

	var data collectionQueryData
	if err := c.Query(ctx, queryCollectionProducts, vars, &data); err != nil {
		return nil, fmt.Errorf("listing collection %s: %w", handle, err)
	}
	if data.Collection == nil {
		return nil, model.NewNotFoundError("collection")
	}

	conn := toProductConnection(&data.Collection.Products)
	conn.Collection = &model.CollectionRef{
		ID:     data.Collection.ID,
		Handle: data.Collection.Handle,
		Title:  data.Collection.Title,
	}
	return conn, nil
}

// GetProduct fetches a product by ID.
func (c *Client) GetProduct(ctx context.Context, id string) (*model.Product, error) {
	return c.getProduct(ctx, queryProductByID, map[string]any{"id": id})
}

// GetProductByHandle fetches a product by handle.
func (c *Client) GetProductByHandle(ctx context.Context, handle string) (*model.Product, error) {
	return c.getProduct(ctx, queryProductByHandle, map[string]any{"handle": handle})
}

func (c *Client) getProduct(ctx context.Context, query string, vars map[string]any) (*model.Product, error) {
	var data productQueryData
	if err := c.Query(ctx, query, vars, &data); err != nil {
		return nil, fmt.Errorf("fetching product: %w", err)
	}
	if data.Product == nil {
		return nil, model.NewNotFoundError("product")
	}
	return toProduct(data.Product), nil
}

func pageVars(req model.ListRequest) map[string]any {
	first := req.First
	if first <= 0 {
		first = defaultPageSize
	}
	vars := map[string]any{"first": first}
	if req.After != "" {
		vars["after"] = req.After
	}
	return vars
}

// === Cart ===

// GetCart fetches a cart. A cart the API no longer knows returns ErrNotFound.
func (c *Client) GetCart(ctx context.Context, cartID string) (*model.Cart, error) {
	var data cartQueryData
	if err := c.Query(ctx, queryCart, map[string]any{"cartId": cartID}, &data); err != nil {
		return nil, fmt.Errorf("fetching cart: %w", err)
	}
	if data.Cart == nil {
		return nil, model.NewNotFoundError("cart")
	}
	return toCart(data.Cart), nil
}

// CreateCart creates a cart seeded with lines.
func (c *Client) CreateCart(ctx context.Context, lines []model.LineInput) (*model.Cart, error) {
	vars := map[string]any{
		"input": map[string]any{"lines": lineInputs(lines)},
	}

	var data cartCreateData
	if err := c.Query(ctx, mutationCartCreate, vars, &data); err != nil {
		return nil, fmt.Errorf("creating cart: %w", err)
	}
	cart, err := data.CartCreate.result()
	if err != nil {
		return nil, fmt.Errorf("creating cart: %w", err)
	}
	return cart, nil
}

// AddCartLines adds lines to a cart.
func (c *Client) AddCartLines(ctx context.Context, cartID string, lines []model.LineInput) (*model.Cart, error) {
	vars := map[string]any{
		"cartId": cartID,
		"lines":  lineInputs(lines),
	}

	var data cartLinesAddData
	if err := c.Query(ctx, mutationCartLinesAdd, vars, &data); err != nil {
		return nil, fmt.Errorf("adding cart lines: %w", err)
	}
	cart, err := data.CartLinesAdd.result()
	if err != nil {
		return nil, fmt.Errorf("adding cart lines: %w", err)
	}
	return cart, nil
}

// UpdateCartLines sets line quantities.
func (c *Client) UpdateCartLines(ctx context.Context, cartID string, updates []model.LineUpdate) (*model.Cart, error) {
	vars := map[string]any{
		"cartId": cartID,
		"lines":  lineUpdates(updates),
	}

	var data cartLinesUpdateData
	if err := c.Query(ctx, mutationCartLinesUpdate, vars, &data); err != nil {
		return nil, fmt.Errorf("updating cart lines: %w", err)
	}
	cart, err := data.CartLinesUpdate.result()
	if err != nil {
		return nil, fmt.Errorf("updating cart lines: %w", err)
	}
	return cart, nil
}

// RemoveCartLines removes lines by ID.
func (c *Client) RemoveCartLines(ctx context.Context, cartID string, lineIDs []string) (*model.Cart, error) {
	vars := map[string]any{
		"cartId":  cartID,
		"lineIds": lineIDs,
	}

	var data cartLinesRemoveData
	if err := c.Query(ctx, mutationCartLinesRemove, vars, &data); err != nil {
		return nil, fmt.Errorf("removing cart lines: %w", err)
	}
	cart, err := data.CartLinesRemove.result()
	if err != nil {
		return nil, fmt.Errorf("removing cart lines: %w", err)
	}
	return cart, nil
}

// Package adapter defines the contract with the remote commerce platform.
// The cart core and catalog depend only on this interface; the Shopify
// Storefront GraphQL client is the production implementation.
package adapter

import (
	"context"

	"storefront/internal/model"
)

// Adapter abstracts the remote commerce operations the storefront consumes.
//
// Error contract (all methods):
//   - transport and non-2xx failures return *model.APIError wrapping ErrUpstreamError,
//     ErrUnauthorized or ErrRateLimited
//   - top-level GraphQL errors wrap ErrGraphQL and are fatal for the call
//   - mutation user errors wrap ErrUserError and carry the first field/message
//   - a missing cart, product or collection wraps ErrNotFound
type Adapter interface {
	// ListProducts returns one page of the catalog.
	ListProducts(ctx context.Context, req model.ListRequest) (*model.ProductConnection, error)

	// ListCollectionProducts returns one page of a collection identified by handle.
	ListCollectionProducts(ctx context.Context, handle string, req model.ListRequest) (*model.ProductConnection, error)

	// GetProduct fetches a product by its remote ID.
	GetProduct(ctx context.Context, id string) (*model.Product, error)

	// GetProductByHandle fetches a product by its URL handle.
	GetProductByHandle(ctx context.Context, handle string) (*model.Product, error)

	// GetCart fetches lines, totals and the checkout URL of a cart.
	GetCart(ctx context.Context, cartID string) (*model.Cart, error)

	// CreateCart creates a cart seeded with lines. lines may be empty.
	CreateCart(ctx context.Context, lines []model.LineInput) (*model.Cart, error)

	// AddCartLines adds lines to an existing cart.
	AddCartLines(ctx context.Context, cartID string, lines []model.LineInput) (*model.Cart, error)

	// UpdateCartLines sets quantities of existing lines by remote line ID.
	UpdateCartLines(ctx context.Context, cartID string, updates []model.LineUpdate) (*model.Cart, error)

	// RemoveCartLines removes lines by remote line ID.
	RemoveCartLines(ctx context.Context, cartID string, lineIDs []string) (*model.Cart, error)
}

package adapter

import (
	"context"

	"storefront/internal/model"
)

// Mock implements Adapter for testing.
// Each method can be configured via function fields.
type Mock struct {
	ListProductsFunc           func(ctx context.Context, req model.ListRequest) (*model.ProductConnection, error)
	ListCollectionProductsFunc func(ctx context.Context, handle string, req model.ListRequest) (*model.ProductConnection, error)
	GetProductFunc             func(ctx context.Context, id string) (*model.Product, error)
	GetProductByHandleFunc     func(ctx context.Context, handle string) (*model.Product, error)
	GetCartFunc                func(ctx context.Context, cartID string) (*model.Cart, error)
	CreateCartFunc             func(ctx context.Context, lines []model.LineInput) (*model.Cart, error)
	AddCartLinesFunc           func(ctx context.Context, cartID string, lines []model.LineInput) (*model.Cart, error)
	UpdateCartLinesFunc        func(ctx context.Context, cartID string, updates []model.LineUpdate) (*model.Cart, error)
	RemoveCartLinesFunc        func(ctx context.Context, cartID string, lineIDs []string) (*model.Cart, error)
}

// ListProducts calls the configured ListProductsFunc or returns an empty page.
func (m *Mock) ListProducts(ctx context.Context, req model.ListRequest) (*model.ProductConnection, error) {
	if m.ListProductsFunc != nil {
		return m.ListProductsFunc(ctx, req)
	}
	return &model.ProductConnection{}, nil
}

// ListCollectionProducts calls the configured ListCollectionProductsFunc or returns an error.
func (m *Mock) ListCollectionProducts(ctx context.Context, handle string, req model.ListRequest) (*model.ProductConnection, error) {
	if m.ListCollectionProductsFunc != nil {
		return m.ListCollectionProductsFunc(ctx, handle, req)
	}
	return nil, model.NewNotFoundError("collection")
}

// GetProduct calls the configured GetProductFunc or returns an error.
func (m *Mock) GetProduct(ctx context.Context, id string) (*model.Product, error) {
	if m.GetProductFunc != nil {
		return m.GetProductFunc(ctx, id)
	}
	return nil, model.NewNotFoundError("product")
}

// GetProductByHandle calls the configured GetProductByHandleFunc or returns an error.
func (m *Mock) GetProductByHandle(ctx context.Context, handle string) (*model.Product, error) {
	if m.GetProductByHandleFunc != nil {
		return m.GetProductByHandleFunc(ctx, handle)
	}
	return nil, model.NewNotFoundError("product")
}

// GetCart calls the configured GetCartFunc or returns an error.
func (m *Mock) GetCart(ctx context.Context, cartID string) (*model.Cart, error) {
	if m.GetCartFunc != nil {
		return m.GetCartFunc(ctx, cartID)
	}
	return nil, model.NewNotFoundError("cart")
}

// CreateCart calls the configured CreateCartFunc or returns an error.
func (m *Mock) CreateCart(ctx context.Context, lines []model.LineInput) (*model.Cart, error) {
	if m.CreateCartFunc != nil {
		return m.CreateCartFunc(ctx, lines)
	}
	return nil, model.NewInternalError(nil)
}

// AddCartLines calls the configured AddCartLinesFunc or returns an error.
func (m *Mock) AddCartLines(ctx context.Context, cartID string, lines []model.LineInput) (*model.Cart, error) {
	if m.AddCartLinesFunc != nil {
		return m.AddCartLinesFunc(ctx, cartID, lines)
	}
	return nil, model.NewNotFoundError("cart")
}

// UpdateCartLines calls the configured UpdateCartLinesFunc or returns an error.
func (m *Mock) UpdateCartLines(ctx context.Context, cartID string, updates []model.LineUpdate) (*model.Cart, error) {
	if m.UpdateCartLinesFunc != nil {
		return m.UpdateCartLinesFunc(ctx, cartID, updates)
	}
	return nil, model.NewNotFoundError("cart")
}

// RemoveCartLines calls the configured RemoveCartLinesFunc or returns an error.
func (m *Mock) RemoveCartLines(ctx context.Context, cartID string, lineIDs []string) (*model.Cart, error) {
	if m.RemoveCartLinesFunc != nil {
		return m.RemoveCartLinesFunc(ctx, cartID, lineIDs)
	}
	return nil, model.NewNotFoundError("cart")
}

// Verify Mock implements Adapter at compile time.
var _ Adapter = (*Mock)(nil)

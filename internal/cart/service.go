// Package cart keeps the local cart mirror and the remote cart session of a
// browser profile consistent across page contexts.
//
// A page context (one HTTP request, one CLI invocation) opens a Page, which
// loads the mirror once, applies one or more operations and persists. Every
// mutation is two-phase: the local change is applied and persisted first,
// then the remote cart is synchronized. A remote failure never rolls back
// local state; checkout reconciliation repairs the drift later.
package cart

import (
	"context"
	"log/slog"
	"strings"

	"golang.org/x/sync/singleflight"

	"storefront/internal/adapter"
	"storefront/internal/model"
	"storefront/internal/storage"
)

// Catalog page sizes.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Options configures a Service.
type Options struct {
	// CheckoutHost is the canonical storefront host checkout URLs are
	// rewritten to. Empty disables rewriting.
	CheckoutHost string

	Logger *slog.Logger
}

// Service is the application context shared by all page contexts of a process.
type Service struct {
	adapter      adapter.Adapter
	logger       *slog.Logger
	checkoutHost string
	sessions     singleflight.Group
}

// NewService creates a Service over the remote commerce adapter.
func NewService(a adapter.Adapter, opts Options) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		adapter:      a,
		logger:       logger,
		checkoutHost: strings.TrimSpace(opts.CheckoutHost),
	}
}

// Open starts a page context for profileID. store is the shared backend; the
// page sees only the profile's namespace. notifier may be nil.
func (s *Service) Open(ctx context.Context, profileID string, store storage.Store, notifier Notifier) *Page {
	if notifier == nil {
		notifier = discardNotifier{}
	}
	ns := storage.Namespace(store, profileID)
	logger := s.logger.With(slog.String("profile", profileID))

	return &Page{
		svc:      s,
		profile:  profileID,
		mirror:   LoadMirror(ctx, ns, logger),
		session:  &Session{store: ns, adapter: s.adapter, group: &s.sessions, key: profileID, logger: logger},
		notifier: notifier,
		logger:   logger,
	}
}

// === Catalog ===

// Products returns one page of the catalog.
func (s *Service) Products(ctx context.Context, req model.ListRequest) (*model.ProductConnection, error) {
	return s.adapter.ListProducts(ctx, clampPage(req))
}

// CollectionProducts returns one page of a collection.
func (s *Service) CollectionProducts(ctx context.Context, handle string, req model.ListRequest) (*model.ProductConnection, error) {
	if handle == "" {
		return nil, model.NewValidationError("handle", "is required")
	}
	return s.adapter.ListCollectionProducts(ctx, handle, clampPage(req))
}

// Product fetches a product by handle or ID. The handle wins when both are given.
func (s *Service) Product(ctx context.Context, id, handle string) (*model.Product, error) {
	switch {
	case handle != "":
		return s.adapter.GetProductByHandle(ctx, handle)
	case id != "":
		return s.adapter.GetProduct(ctx, id)
	default:
		return nil, model.NewValidationError("product", "id or handle is required")
	}
}

func clampPage(req model.ListRequest) model.ListRequest {
	switch {
	case req.First <= 0:
		req.First = DefaultPageSize
	case req.First > MaxPageSize:
		req.First = MaxPageSize
	}
	return req
}

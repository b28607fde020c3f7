package cart

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"storefront/internal/adapter"
	"storefront/internal/model"
	"storefront/internal/storage"
)

// fakeRemote is an in-memory commerce backend behind adapter.Mock.
// Lines merge by variant on add, like the real cart API.
type fakeRemote struct {
	mu       sync.Mutex
	carts    map[string]*model.Cart
	nextCart int
	nextLine int
	calls    map[string]int

	failCreate error
	failAdd    error
	failUpdate error
	failRemove error
	failGet    error
	noURL      bool // carts come back without a checkout URL

	// When createGate is set, CreateCart signals createStarted and blocks
	// until the gate is closed or its context is done.
	createGate    chan struct{}
	createStarted chan struct{}
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{carts: make(map[string]*model.Cart), calls: make(map[string]int)}
}

// holdCreates makes CreateCart block until the returned release is called.
func (f *fakeRemote) holdCreates() (release func()) {
	f.createGate = make(chan struct{})
	f.createStarted = make(chan struct{}, 1)
	return func() { close(f.createGate) }
}

func (f *fakeRemote) count(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

// seedCart creates a cart directly, bypassing call counting.
func (f *fakeRemote) seedCart(lines ...model.LineInput) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	c := f.newCartLocked()
	f.addLocked(c, lines)
	return c.ID
}

// quantities returns per-variant quantities of a cart.
func (f *fakeRemote) quantities(cartID string) map[string]int {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.carts[cartID]
	if !ok {
		return nil
	}
	return c.QuantitiesByVariant()
}

func (f *fakeRemote) deleteCart(cartID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.carts, cartID)
}

func (f *fakeRemote) newCartLocked() *model.Cart {
	f.nextCart++
	id := fmt.Sprintf("gid://shopify/Cart/c%d", f.nextCart)
	c := &model.Cart{ID: id, Lines: []model.CartLine{}}
	if !f.noURL {
		c.CheckoutURL = fmt.Sprintf("https://old.example.com/cart/c/c%d?key=k%d", f.nextCart, f.nextCart)
	}
	f.carts[id] = c
	return c
}

func (f *fakeRemote) addLocked(c *model.Cart, lines []model.LineInput) {
	for _, in := range lines {
		merged := false
		for i := range c.Lines {
			if c.Lines[i].Merchandise.VariantID == in.VariantID {
				c.Lines[i].Quantity += in.Quantity
				merged = true
				break
			}
		}
		if !merged {
			f.nextLine++
			c.Lines = append(c.Lines, model.CartLine{
				ID:          fmt.Sprintf("line-%d", f.nextLine),
				Quantity:    in.Quantity,
				Merchandise: model.Merchandise{VariantID: in.VariantID},
			})
		}
	}
	f.totalLocked(c)
}

func (f *fakeRemote) totalLocked(c *model.Cart) {
	c.TotalQuantity = 0
	for _, l := range c.Lines {
		c.TotalQuantity += l.Quantity
	}
}

func snapshotCart(c *model.Cart) *model.Cart {
	out := *c
	out.Lines = append([]model.CartLine{}, c.Lines...)
	return &out
}

func (f *fakeRemote) adapter() *adapter.Mock {
	return &adapter.Mock{
		GetCartFunc: func(ctx context.Context, cartID string) (*model.Cart, error) {
			f.mu.Lock()
			defer f.mu.Unlock()
			f.calls["get"]++
			if f.failGet != nil {
				return nil, f.failGet
			}
			c, ok := f.carts[cartID]
			if !ok {
				return nil, model.NewNotFoundError("cart")
			}
			return snapshotCart(c), nil
		},
		CreateCartFunc: func(ctx context.Context, lines []model.LineInput) (*model.Cart, error) {
			if f.createGate != nil {
				select {
				case f.createStarted <- struct{}{}:
				default:
				}
				select {
				case <-f.createGate:
				case <-ctx.Done():
					return nil, ctx.Err()
				}
			}
			f.mu.Lock()
			defer f.mu.Unlock()
			f.calls["create"]++
			if f.failCreate != nil {
				return nil, f.failCreate
			}
			c := f.newCartLocked()
			f.addLocked(c, lines)
			return snapshotCart(c), nil
		},
		AddCartLinesFunc: func(ctx context.Context, cartID string, lines []model.LineInput) (*model.Cart, error) {
			f.mu.Lock()
			defer f.mu.Unlock()
			f.calls["add"]++
			if f.failAdd != nil {
				return nil, f.failAdd
			}
			c, ok := f.carts[cartID]
			if !ok {
				return nil, model.NewNotFoundError("cart")
			}
			f.addLocked(c, lines)
			return snapshotCart(c), nil
		},
		UpdateCartLinesFunc: func(ctx context.Context, cartID string, updates []model.LineUpdate) (*model.Cart, error) {
			f.mu.Lock()
			defer f.mu.Unlock()
			f.calls["update"]++
			if f.failUpdate != nil {
				return nil, f.failUpdate
			}
			c, ok := f.carts[cartID]
			if !ok {
				return nil, model.NewNotFoundError("cart")
			}
			for _, u := range updates {
				if l := c.Line(u.LineID); l != nil {
					l.Quantity = u.Quantity
				}
			}
			f.totalLocked(c)
			return snapshotCart(c), nil
		},
		RemoveCartLinesFunc: func(ctx context.Context, cartID string, lineIDs []string) (*model.Cart, error) {
			f.mu.Lock()
			defer f.mu.Unlock()
			f.calls["remove"]++
			if f.failRemove != nil {
				return nil, f.failRemove
			}
			c, ok := f.carts[cartID]
			if !ok {
				return nil, model.NewNotFoundError("cart")
			}
			kept := c.Lines[:0]
			for _, l := range c.Lines {
				remove := false
				for _, id := range lineIDs {
					if l.ID == id {
						remove = true
					}
				}
				if !remove {
					kept = append(kept, l)
				}
			}
			c.Lines = kept
			f.totalLocked(c)
			return snapshotCart(c), nil
		},
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// harness wires a Service over a fake remote and a shared memory store.
type harness struct {
	remote  *fakeRemote
	svc     *Service
	store   *storage.MemoryStore
	notices *NoticeBuffer
}

func newHarness() *harness {
	remote := newFakeRemote()
	return &harness{
		remote: remote,
		svc: NewService(remote.adapter(), Options{
			CheckoutHost: "shop.example.com",
			Logger:       discardLogger(),
		}),
		store:   storage.NewMemoryStore(),
		notices: &NoticeBuffer{},
	}
}

// open starts a new page context for profile "p1", like a fresh page load.
func (h *harness) open() *Page {
	return h.svc.Open(context.Background(), "p1", h.store, h.notices)
}

// sessionID reads the persisted session ID of profile "p1".
func (h *harness) sessionID() string {
	id, _, _ := h.store.Get(context.Background(), "p1/"+KeySessionID)
	return id
}

func (h *harness) setSessionID(id string) {
	h.store.Set(context.Background(), "p1/"+KeySessionID, id)
}

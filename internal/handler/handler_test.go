package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"storefront/internal/adapter"
	"storefront/internal/cart"
	"storefront/internal/model"
	"storefront/internal/profile"
	"storefront/internal/storage"
)

// testRemote is a small stateful cart backend behind adapter.Mock.
type testRemote struct {
	mu     sync.Mutex
	carts  map[string]*model.Cart
	n      int
	addErr error
	getErr error
}

func (r *testRemote) addLocked(c *model.Cart, lines []model.LineInput) {
	for _, in := range lines {
		found := false
		for i := range c.Lines {
			if c.Lines[i].Merchandise.VariantID == in.VariantID {
				c.Lines[i].Quantity += in.Quantity
				found = true
			}
		}
		if !found {
			r.n++
			c.Lines = append(c.Lines, model.CartLine{
				ID:          fmt.Sprintf("line-%d", r.n),
				Quantity:    in.Quantity,
				Total:       model.ParseMoney("10.00", "USD").Times(in.Quantity),
				Merchandise: model.Merchandise{VariantID: in.VariantID, ProductTitle: "Tee"},
			})
		}
	}
	r.totalLocked(c)
}

func (r *testRemote) totalLocked(c *model.Cart) {
	c.TotalQuantity = 0
	for _, l := range c.Lines {
		c.TotalQuantity += l.Quantity
	}
}

func (r *testRemote) copyOf(c *model.Cart) *model.Cart {
	out := *c
	out.Lines = append([]model.CartLine{}, c.Lines...)
	return &out
}

func (r *testRemote) mock() *adapter.Mock {
	r.carts = make(map[string]*model.Cart)
	return &adapter.Mock{
		ListProductsFunc: func(ctx context.Context, req model.ListRequest) (*model.ProductConnection, error) {
			return &model.ProductConnection{
				Products: []model.Product{*testProduct()},
				PageInfo: model.PageInfo{HasNextPage: true, EndCursor: fmt.Sprintf("after-%d", req.First)},
			}, nil
		},
		GetProductByHandleFunc: func(ctx context.Context, handle string) (*model.Product, error) {
			if handle != "tee" {
				return nil, model.NewNotFoundError("product")
			}
			return testProduct(), nil
		},
		CreateCartFunc: func(ctx context.Context, lines []model.LineInput) (*model.Cart, error) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.n++
			id := fmt.Sprintf("gid://shopify/Cart/%d", r.n)
			c := &model.Cart{
				ID:          id,
				CheckoutURL: fmt.Sprintf("https://demo.myshopify.com/cart/c/%d?key=abc", r.n),
				Lines:       []model.CartLine{},
			}
			r.addLocked(c, lines)
			r.carts[id] = c
			return r.copyOf(c), nil
		},
		GetCartFunc: func(ctx context.Context, id string) (*model.Cart, error) {
			r.mu.Lock()
			defer r.mu.Unlock()
			if r.getErr != nil {
				return nil, r.getErr
			}
			c, ok := r.carts[id]
			if !ok {
				return nil, model.NewNotFoundError("cart")
			}
			return r.copyOf(c), nil
		},
		AddCartLinesFunc: func(ctx context.Context, id string, lines []model.LineInput) (*model.Cart, error) {
			r.mu.Lock()
			defer r.mu.Unlock()
			if r.addErr != nil {
				return nil, r.addErr
			}
			c, ok := r.carts[id]
			if !ok {
				return nil, model.NewNotFoundError("cart")
			}
			r.addLocked(c, lines)
			return r.copyOf(c), nil
		},
		UpdateCartLinesFunc: func(ctx context.Context, id string, updates []model.LineUpdate) (*model.Cart, error) {
			r.mu.Lock()
			defer r.mu.Unlock()
			c := r.carts[id]
			for _, u := range updates {
				if l := c.Line(u.LineID); l != nil {
					l.Quantity = u.Quantity
				}
			}
			r.totalLocked(c)
			return r.copyOf(c), nil
		},
		RemoveCartLinesFunc: func(ctx context.Context, id string, lineIDs []string) (*model.Cart, error) {
			r.mu.Lock()
			defer r.mu.Unlock()
			c := r.carts[id]
			kept := []model.CartLine{}
			for _, l := range c.Lines {
				if l.ID != lineIDs[0] {
					kept = append(kept, l)
				}
			}
			c.Lines = kept
			r.totalLocked(c)
			return r.copyOf(c), nil
		},
	}
}

func testProduct() *model.Product {
	return &model.Product{
		ID:     "gid://shopify/Product/1",
		Handle: "tee",
		Title:  "Tee",
		Variants: []model.Variant{
			{
				ID: "v-s", Title: "S", AvailableForSale: true,
				Price:           model.ParseMoney("10.00", "USD"),
				SelectedOptions: []model.SelectedOption{{Name: "Size", Value: "S"}},
			},
			{
				ID: "v-m", Title: "M", AvailableForSale: true,
				Price:           model.ParseMoney("12.50", "USD"),
				SelectedOptions: []model.SelectedOption{{Name: "Size", Value: "M"}},
			},
		},
	}
}

type testEnv struct {
	remote *testRemote
	store  *storage.MemoryStore
	h      *Handler
	mux    *http.ServeMux
}

func newTestEnv() *testEnv {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	remote := &testRemote{}
	svc := cart.NewService(remote.mock(), cart.Options{CheckoutHost: "shop.example.com", Logger: logger})
	store := storage.NewMemoryStore()
	h := New(svc, store, logger)
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)
	return &testEnv{remote: remote, store: store, h: h, mux: mux}
}

// do sends a request as the given profile ("" sends no profile).
func (e *testEnv) do(t *testing.T, method, target, profileID string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != nil {
		switch b := body.(type) {
		case string:
			rd = strings.NewReader(b)
		default:
			data, err := json.Marshal(b)
			if err != nil {
				t.Fatal(err)
			}
			rd = bytes.NewReader(data)
		}
	}
	req := httptest.NewRequest(method, target, rd)
	if profileID != "" {
		header, err := profile.FormatHeader(profileID)
		if err != nil {
			t.Fatal(err)
		}
		req.Header.Set(profile.HeaderName, header)
	}
	w := httptest.NewRecorder()
	e.mux.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decoding %s: %v", w.Body.String(), err)
	}
	return v
}

func TestHandleHealth(t *testing.T) {
	e := newTestEnv()

	for _, path := range []string{"/health", "/healthz"} {
		w := e.do(t, "GET", path, "", nil)
		if w.Code != http.StatusOK {
			t.Errorf("%s status = %d, want 200", path, w.Code)
		}
		if resp := decode[healthResponse](t, w); resp.Status != "ok" {
			t.Errorf("%s Status = %s, want ok", path, resp.Status)
		}
		if len(w.Result().Cookies()) != 0 {
			t.Errorf("%s should not assign a profile", path)
		}
	}
}

func TestProfileAssignment(t *testing.T) {
	e := newTestEnv()

	w := e.do(t, "POST", "/api/cart/items", "", map[string]any{"variant_id": "v-s"})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}

	var cookie *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == profile.CookieName {
			cookie = c
		}
	}
	if cookie == nil {
		t.Fatal("expected a profile cookie on first visit")
	}
	if resp := decode[cartResponse](t, w); resp.Profile != cookie.Value {
		t.Errorf("response profile = %q, cookie = %q", resp.Profile, cookie.Value)
	}

	// The cookie brings the same cart back.
	req := httptest.NewRequest("GET", "/api/cart/count", nil)
	req.AddCookie(&http.Cookie{Name: profile.CookieName, Value: cookie.Value})
	w = httptest.NewRecorder()
	e.mux.ServeHTTP(w, req)

	if got := decode[countResponse](t, w); got.Count != 1 || got.Source != "remote" {
		t.Errorf("count = %+v, want 1 from remote", got)
	}
}

func TestInvalidProfileRejected(t *testing.T) {
	e := newTestEnv()

	req := httptest.NewRequest("GET", "/api/cart", nil)
	req.Header.Set(profile.HeaderName, `profile="../etc"`)
	w := httptest.NewRecorder()
	e.mux.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
	if resp := decode[errorResponse](t, w); resp.Error.Code != "INVALID_PROFILE" {
		t.Errorf("code = %q, want INVALID_PROFILE", resp.Error.Code)
	}
}

func TestAddItemAndGetCart(t *testing.T) {
	e := newTestEnv()

	w := e.do(t, "POST", "/api/cart/items", "alice", map[string]any{"variant_id": "v-s", "quantity": 2})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	resp := decode[cartResponse](t, w)
	if len(resp.Lines) != 1 || resp.Lines[0].Quantity != 2 {
		t.Errorf("lines = %+v, want v-s:2", resp.Lines)
	}
	if resp.Cart == nil || resp.Cart.TotalQuantity != 2 {
		t.Errorf("cart = %+v, want remote total 2", resp.Cart)
	}
	if len(resp.Notices) != 1 || resp.Notices[0].Message != "Added to cart" {
		t.Errorf("notices = %+v", resp.Notices)
	}

	w = e.do(t, "GET", "/api/cart", "alice", nil)
	got := decode[cartResponse](t, w)
	if got.Cart == nil || len(got.Cart.Lines) != 1 || got.Cart.Lines[0].Quantity != 2 {
		t.Errorf("GET /api/cart = %+v", got.Cart)
	}
	if got.SyncError != nil {
		t.Errorf("sync_error = %+v", got.SyncError)
	}

	// A profile that never added anything sees an empty cart, not an error.
	w = e.do(t, "GET", "/api/cart", "bob", nil)
	empty := decode[cartResponse](t, w)
	if w.Code != http.StatusOK || empty.SyncError != nil || len(empty.Lines) != 0 {
		t.Errorf("bob's cart = %d %+v", w.Code, empty)
	}
}

func TestAddItemRemoteFailure(t *testing.T) {
	e := newTestEnv()
	e.do(t, "POST", "/api/cart/items", "alice", map[string]any{"variant_id": "v-s"})
	e.remote.addErr = model.NewUserError([]string{"lines"}, "Sold out")

	w := e.do(t, "POST", "/api/cart/items", "alice", map[string]any{"variant_id": "v-m"})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (local phase applied)", w.Code)
	}
	resp := decode[cartResponse](t, w)
	if len(resp.Lines) != 2 {
		t.Errorf("lines = %+v, want both variants kept locally", resp.Lines)
	}
	if resp.SyncError == nil || resp.SyncError.Code != "USER_ERROR" {
		t.Errorf("sync_error = %+v, want USER_ERROR", resp.SyncError)
	}
	if len(resp.Notices) != 1 || resp.Notices[0].Level != cart.LevelError {
		t.Errorf("notices = %+v, want one error", resp.Notices)
	}
}

func TestCartRequestValidation(t *testing.T) {
	e := newTestEnv()

	tests := []struct {
		name   string
		target string
		body   any
	}{
		{"invalid json", "/api/cart/items", "{not json"},
		{"zero quantity", "/api/cart/items", map[string]any{"variant_id": "v-s", "quantity": 0}},
		{"missing variant", "/api/cart/quick-add", map[string]any{}},
		{"update without quantity", "/api/cart/lines/update", map[string]any{"line_id": "line-1"}},
		{"remove without line", "/api/cart/lines/remove", map[string]any{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := e.do(t, "POST", tt.target, "alice", tt.body)
			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400: %s", w.Code, w.Body.String())
			}
			if resp := decode[errorResponse](t, w); resp.Error.Code != "VALIDATION_ERROR" {
				t.Errorf("code = %q, want VALIDATION_ERROR", resp.Error.Code)
			}
		})
	}
}

func TestUpdateAndRemoveLine(t *testing.T) {
	e := newTestEnv()
	added := decode[cartResponse](t, e.do(t, "POST", "/api/cart/items", "alice", map[string]any{"variant_id": "v-s", "quantity": 1}))
	lineID := added.Cart.Lines[0].ID

	w := e.do(t, "POST", "/api/cart/lines/update", "alice", map[string]any{"line_id": lineID, "quantity": 4})
	resp := decode[cartResponse](t, w)
	if resp.Lines[0].Quantity != 4 || resp.Cart.Lines[0].Quantity != 4 {
		t.Errorf("after update: local %+v remote %+v", resp.Lines, resp.Cart.Lines)
	}
	if len(resp.Notices) != 1 || resp.Notices[0].Message != "Cart updated" {
		t.Errorf("notices = %+v", resp.Notices)
	}

	w = e.do(t, "POST", "/api/cart/lines/remove", "alice", map[string]any{"line_id": lineID})
	resp = decode[cartResponse](t, w)
	if len(resp.Lines) != 0 || len(resp.Cart.Lines) != 0 {
		t.Errorf("after remove: local %+v remote %+v", resp.Lines, resp.Cart.Lines)
	}

	w = e.do(t, "POST", "/api/cart/lines/remove", "alice", map[string]any{"line_id": "line-404"})
	resp = decode[cartResponse](t, w)
	if resp.SyncError == nil || resp.SyncError.Code != "NOT_FOUND" {
		t.Errorf("unknown line sync_error = %+v", resp.SyncError)
	}
}

func TestCartCountFallsBackToLocal(t *testing.T) {
	e := newTestEnv()
	e.do(t, "POST", "/api/cart/items", "alice", map[string]any{"variant_id": "v-s", "quantity": 3})
	e.remote.getErr = model.NewUpstreamError("Shopify", errors.New("down"))

	got := decode[countResponse](t, e.do(t, "GET", "/api/cart/count", "alice", nil))
	if got.Count != 3 || got.Source != "local" {
		t.Errorf("count = %+v, want 3 from local", got)
	}
}

func TestReset(t *testing.T) {
	e := newTestEnv()
	e.do(t, "POST", "/api/cart/items", "alice", map[string]any{"variant_id": "v-s"})

	w := e.do(t, "POST", "/api/cart/reset", "alice", nil)
	if w.Code != http.StatusOK || len(decode[cartResponse](t, w).Lines) != 0 {
		t.Fatalf("reset = %d %s", w.Code, w.Body.String())
	}

	got := decode[countResponse](t, e.do(t, "GET", "/api/cart/count", "alice", nil))
	if got.Count != 0 || got.Source != "local" {
		t.Errorf("count after reset = %+v, want 0 local", got)
	}
}

func TestHandleCheckout(t *testing.T) {
	e := newTestEnv()
	e.do(t, "POST", "/api/cart/items", "alice", map[string]any{"variant_id": "v-s", "quantity": 2})

	w := e.do(t, "POST", "/api/checkout", "alice", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	if got := decode[checkoutResponse](t, w); got.CheckoutURL != "https://shop.example.com/cart/c/1?key=abc" {
		t.Errorf("checkout_url = %q", got.CheckoutURL)
	}

	w = e.do(t, "POST", "/api/checkout?redirect=true", "alice", nil)
	if w.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303", w.Code)
	}
	if loc := w.Header().Get("Location"); loc != "https://shop.example.com/cart/c/1?key=abc" {
		t.Errorf("Location = %q", loc)
	}
}

func TestHandleCheckoutFailure(t *testing.T) {
	e := newTestEnv()
	e.do(t, "POST", "/api/cart/items", "alice", map[string]any{"variant_id": "v-s"})
	e.remote.getErr = model.NewUpstreamError("Shopify", errors.New("down"))

	w := e.do(t, "POST", "/api/checkout", "alice", nil)
	if w.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", w.Code)
	}
	resp := decode[errorResponse](t, w)
	if resp.Error.Code != "UPSTREAM_ERROR" {
		t.Errorf("code = %q", resp.Error.Code)
	}
	if len(resp.Notices) != 1 || resp.Notices[0].Level != cart.LevelError {
		t.Errorf("notices = %+v, want the checkout failure notice", resp.Notices)
	}
}

func TestHandleCatalog(t *testing.T) {
	e := newTestEnv()

	t.Run("list", func(t *testing.T) {
		w := e.do(t, "GET", "/api/products?first=500", "alice", nil)
		page := decode[model.ProductConnection](t, w)
		if len(page.Products) != 1 || page.PageInfo.EndCursor != "after-100" {
			t.Errorf("page = %+v, want clamped first=100", page.PageInfo)
		}
	})

	t.Run("bad first", func(t *testing.T) {
		if w := e.do(t, "GET", "/api/products?first=abc", "alice", nil); w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", w.Code)
		}
	})

	t.Run("unknown collection", func(t *testing.T) {
		if w := e.do(t, "GET", "/api/collections/nope/products", "alice", nil); w.Code != http.StatusNotFound {
			t.Errorf("status = %d, want 404", w.Code)
		}
	})

	t.Run("product with option", func(t *testing.T) {
		w := e.do(t, "GET", "/api/product?handle=tee&option.Size=M", "alice", nil)
		resp := decode[productResponse](t, w)
		if resp.Product == nil || resp.SelectedVariant == nil || resp.SelectedVariant.ID != "v-m" {
			t.Errorf("selected = %+v, want v-m", resp.SelectedVariant)
		}
	})

	t.Run("product without id or handle", func(t *testing.T) {
		if w := e.do(t, "GET", "/api/product", "alice", nil); w.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", w.Code)
		}
	})
}

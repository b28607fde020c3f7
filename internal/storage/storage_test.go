package storage

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func backends(t *testing.T) map[string]Backend {
	t.Helper()
	dir := t.TempDir()

	file, err := NewFileStore(filepath.Join(dir, "nested", "store.json"), discardLogger())
	if err != nil {
		t.Fatalf("NewFileStore() error = %v", err)
	}
	sqlite, err := NewSQLiteStore(filepath.Join(dir, "store.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore() error = %v", err)
	}
	t.Cleanup(func() { sqlite.Close() })

	return map[string]Backend{
		"memory": NewMemoryStore(),
		"file":   file,
		"sqlite": sqlite,
	}
}

func TestStoreContract(t *testing.T) {
	ctx := context.Background()

	for name, store := range backends(t) {
		t.Run(name, func(t *testing.T) {
			if _, ok, err := store.Get(ctx, "cart"); err != nil || ok {
				t.Fatalf("Get(absent) = ok %v, err %v; want false, nil", ok, err)
			}

			if err := store.Set(ctx, "cart", `[{"variantId":"A","quantity":1}]`); err != nil {
				t.Fatalf("Set() error = %v", err)
			}
			if err := store.Set(ctx, "cart", `[{"variantId":"A","quantity":2}]`); err != nil {
				t.Fatalf("Set() overwrite error = %v", err)
			}

			got, ok, err := store.Get(ctx, "cart")
			if err != nil || !ok {
				t.Fatalf("Get() = ok %v, err %v", ok, err)
			}
			if got != `[{"variantId":"A","quantity":2}]` {
				t.Errorf("Get() = %q, want overwritten value", got)
			}

			if err := store.Remove(ctx, "cart"); err != nil {
				t.Fatalf("Remove() error = %v", err)
			}
			if err := store.Remove(ctx, "cart"); err != nil {
				t.Errorf("Remove(absent) error = %v, want nil", err)
			}
			if _, ok, _ := store.Get(ctx, "cart"); ok {
				t.Error("Get() after Remove found the key")
			}
		})
	}
}

func TestNamespaceIsolation(t *testing.T) {
	ctx := context.Background()
	root := NewMemoryStore()
	alice := Namespace(root, "alice")
	bob := Namespace(root, "bob")

	if err := alice.Set(ctx, "cart_id", "gid://shopify/Cart/1"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	if _, ok, _ := bob.Get(ctx, "cart_id"); ok {
		t.Error("bob sees alice's cart_id")
	}
	if v, ok, _ := root.Get(ctx, "alice/cart_id"); !ok || v != "gid://shopify/Cart/1" {
		t.Errorf("root key alice/cart_id = %q, %v", v, ok)
	}
}

func TestFileStoreSharedAcrossInstances(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "store.json")

	a, _ := NewFileStore(path, discardLogger())
	b, _ := NewFileStore(path, discardLogger())

	if err := a.Set(ctx, "cart_id", "c1"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if v, ok, err := b.Get(ctx, "cart_id"); err != nil || !ok || v != "c1" {
		t.Errorf("second instance Get() = %q, %v, %v; want c1", v, ok, err)
	}
}

func TestFileStoreCorruptDocument(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "store.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	var logs bytes.Buffer
	s, _ := NewFileStore(path, slog.New(slog.NewTextHandler(&logs, nil)))

	if v, ok, err := s.Get(ctx, "cart_id"); err != nil || ok {
		t.Fatalf("Get() on corrupt document = %q, %v, %v; want miss without error", v, ok, err)
	}

	if err := s.Set(ctx, "cart_id", "c1"); err != nil {
		t.Fatalf("Set() on corrupt document error = %v, want recovery", err)
	}
	if v, ok, err := s.Get(ctx, "cart_id"); err != nil || !ok || v != "c1" {
		t.Errorf("Get() after recovery = %q, %v, %v; want c1", v, ok, err)
	}

	backup, err := os.ReadFile(path + ".corrupt")
	if err != nil {
		t.Fatalf("corrupt document was not kept aside: %v", err)
	}
	if string(backup) != "{not json" {
		t.Errorf("backup = %q, want original content", backup)
	}
	if !strings.Contains(logs.String(), "corrupt store file moved aside") {
		t.Errorf("expected a warning about the corrupt file, got logs:\n%s", logs.String())
	}
}

func TestFileStoreRemoveOnCorruptDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "store.json")
	if err := os.WriteFile(path, []byte("[]garbage"), 0o644); err != nil {
		t.Fatal(err)
	}
	s, _ := NewFileStore(path, discardLogger())

	if err := s.Remove(context.Background(), "cart_id"); err != nil {
		t.Errorf("Remove() on corrupt document error = %v, want nil", err)
	}
	if _, err := os.Stat(path + ".corrupt"); err != nil {
		t.Errorf("corrupt document was not moved aside: %v", err)
	}
}

func TestMemoryStoreConcurrentWriters(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Set(ctx, "cart", "x")
			s.Get(ctx, "cart")
		}()
	}
	wg.Wait()

	if v, ok, _ := s.Get(ctx, "cart"); !ok || v != "x" {
		t.Errorf("Get() = %q, %v", v, ok)
	}
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		backend string
		path    string
		wantErr bool
	}{
		{"", "", false},
		{"memory", "", false},
		{"file", filepath.Join(dir, "s.json"), false},
		{"sqlite", filepath.Join(dir, "s.db"), false},
		{"file", "", true},
		{"sqlite", "", true},
		{"redis", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.backend+"/"+tt.path, func(t *testing.T) {
			b, err := Open(tt.backend, tt.path, discardLogger())
			if (err != nil) != tt.wantErr {
				t.Fatalf("Open(%q) error = %v, wantErr %v", tt.backend, err, tt.wantErr)
			}
			if b != nil {
				b.Close()
			}
		})
	}
}

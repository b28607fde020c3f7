// Package storage provides the string-keyed key-value stores that hold a
// browser profile's local cart state.
package storage

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// Store is a string-keyed key-value store.
// Implementations must be safe for concurrent use; concurrent writers to the
// same key resolve as last writer wins.
type Store interface {
	// Get returns the value for key. ok is false when the key is absent.
	Get(ctx context.Context, key string) (value string, ok bool, err error)

	// Set stores value under key, overwriting any previous value.
	Set(ctx context.Context, key, value string) error

	// Remove deletes key. Removing an absent key is not an error.
	Remove(ctx context.Context, key string) error
}

// Backend is a Store that owns resources.
type Backend interface {
	Store
	Close() error
}

// Backend names accepted by Open.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// Open selects a backend by name. path is the file or database location
// for the file and sqlite backends and is ignored for memory.
func Open(backend, path string, logger *slog.Logger) (Backend, error) {
	switch strings.ToLower(backend) {
	case "", BackendMemory:
		return NewMemoryStore(), nil
	case BackendFile:
		if path == "" {
			return nil, fmt.Errorf("file backend requires a path")
		}
		s, err := NewFileStore(path, logger)
		if err != nil {
			return nil, err
		}
		return s, nil
	case BackendSQLite:
		if path == "" {
			return nil, fmt.Errorf("sqlite backend requires a path")
		}
		s, err := NewSQLiteStore(path)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", backend)
	}
}

// Namespace scopes store to keys prefixed with "<prefix>/".
// Each browser profile gets its own namespace over a shared backend.
func Namespace(store Store, prefix string) Store {
	return &namespaced{store: store, prefix: prefix + "/"}
}

type namespaced struct {
	store  Store
	prefix string
}

func (n *namespaced) Get(ctx context.Context, key string) (string, bool, error) {
	return n.store.Get(ctx, n.prefix+key)
}

func (n *namespaced) Set(ctx context.Context, key, value string) error {
	return n.store.Set(ctx, n.prefix+key, value)
}

func (n *namespaced) Remove(ctx context.Context, key string) error {
	return n.store.Remove(ctx, n.prefix+key)
}

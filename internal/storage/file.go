package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// ErrCorrupt reports a store file that exists but cannot be decoded.
var ErrCorrupt = errors.New("store file is corrupt")

// FileStore keeps all keys in one JSON document on disk.
// The document is re-read on every operation so separate processes sharing
// the file observe each other's writes. Writes replace the file atomically.
//
// Every operation holds an advisory lock on "<path>.lock" across its
// read-modify-write, so processes sharing the file never drop each other's
// keys. Concurrent writes to the same key are still last writer wins.
//
// A corrupt document reads as empty. The first write moves it aside to
// "<path>.corrupt" and starts a fresh document.
type FileStore struct {
	mu     sync.Mutex
	path   string
	logger *slog.Logger
}

// NewFileStore creates a store backed by the JSON file at path.
// The parent directory is created if missing; the file itself is created on first write.
func NewFileStore(path string, logger *slog.Logger) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating store directory: %w", err)
	}
	return &FileStore{path: path, logger: logger}, nil
}

func (f *FileStore) Get(_ context.Context, key string) (string, bool, error) {
	unlock, err := f.lock()
	if err != nil {
		return "", false, err
	}
	defer unlock()

	values, err := f.read()
	if errors.Is(err, ErrCorrupt) {
		f.logger.Warn("ignoring corrupt store file", slog.String("path", f.path), slog.String("error", err.Error()))
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	v, ok := values[key]
	return v, ok, nil
}

func (f *FileStore) Set(_ context.Context, key, value string) error {
	unlock, err := f.lock()
	if err != nil {
		return err
	}
	defer unlock()

	values, err := f.readForWrite()
	if err != nil {
		return err
	}
	values[key] = value
	return f.write(values)
}

func (f *FileStore) Remove(_ context.Context, key string) error {
	unlock, err := f.lock()
	if err != nil {
		return err
	}
	defer unlock()

	values, err := f.readForWrite()
	if err != nil {
		return err
	}
	if _, ok := values[key]; !ok {
		return nil
	}
	delete(values, key)
	return f.write(values)
}

// Close is a no-op; nothing is held open between operations.
func (f *FileStore) Close() error { return nil }

// lock takes the in-process mutex and then the file lock.
func (f *FileStore) lock() (func(), error) {
	f.mu.Lock()
	release, err := lockFile(f.path + ".lock")
	if err != nil {
		f.mu.Unlock()
		return nil, err
	}
	return func() {
		release()
		f.mu.Unlock()
	}, nil
}

// read loads the document. A missing or empty file is an empty store.
func (f *FileStore) read() (map[string]string, error) {
	values := make(map[string]string)
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return values, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading store file: %w", err)
	}
	if len(data) == 0 {
		return values, nil
	}
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, f.path, err)
	}
	return values, nil
}

// readForWrite is read, except that a corrupt document is moved aside and
// replaced by an empty one.
func (f *FileStore) readForWrite() (map[string]string, error) {
	values, err := f.read()
	if !errors.Is(err, ErrCorrupt) {
		return values, err
	}
	backup := f.path + ".corrupt"
	if err := os.Rename(f.path, backup); err != nil {
		return nil, fmt.Errorf("moving corrupt store file aside: %w", err)
	}
	f.logger.Warn("corrupt store file moved aside, starting empty",
		slog.String("path", f.path),
		slog.String("backup", backup),
		slog.String("error", err.Error()))
	return make(map[string]string), nil
}

func (f *FileStore) write(values map[string]string) error {
	data, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding store file: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(f.path), filepath.Base(f.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing store file: %w", err)
	}
	return nil
}

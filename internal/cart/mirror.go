package cart

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/mod/semver"

	"storefront/internal/model"
	"storefront/internal/storage"
)

// Fixed storage keys, relative to the profile namespace.
const (
	KeyCart      = "cart"
	KeySessionID = "cart_id"
)

// SchemaVersion is written into every snapshot. Snapshots with a different
// major version are ignored on load.
const SchemaVersion = "v1.0.0"

// Line is one local cart line. Lines are unique by VariantID.
type Line struct {
	VariantID string `json:"variantId"`
	Quantity  int    `json:"quantity"`
}

// snapshot is the persisted form of the mirror.
type snapshot struct {
	Schema    string    `json:"schema"`
	Revision  int64     `json:"revision"`
	UpdatedAt time.Time `json:"updated_at"`
	Lines     []Line    `json:"lines"`
}

// Mirror is the local cart mirror of one page context: the buyer's desired
// quantities, persisted under KeyCart. It is not safe for concurrent use.
type Mirror struct {
	store    storage.Store
	logger   *slog.Logger
	lines    []Line
	revision int64 // revision last read or written by this context
}

// LoadMirror reads the persisted snapshot. Absent, unreadable, malformed or
// incompatible snapshots yield an empty mirror; loading never fails.
func LoadMirror(ctx context.Context, store storage.Store, logger *slog.Logger) *Mirror {
	m := &Mirror{store: store, logger: logger}

	raw, ok, err := store.Get(ctx, KeyCart)
	if err != nil {
		logger.Warn("reading cart mirror failed, starting empty", slog.String("error", err.Error()))
		return m
	}
	if !ok {
		return m
	}

	snap, err := decodeSnapshot(raw)
	if err != nil {
		logger.Warn("discarding unreadable cart mirror", slog.String("error", err.Error()))
		return m
	}
	m.lines = normalize(snap.Lines)
	m.revision = snap.Revision
	return m
}

// decodeSnapshot accepts the versioned envelope and the legacy bare array.
func decodeSnapshot(raw string) (snapshot, error) {
	data := bytes.TrimSpace([]byte(raw))
	if len(data) == 0 {
		return snapshot{}, fmt.Errorf("empty snapshot")
	}

	if data[0] == '[' {
		var lines []Line
		if err := json.Unmarshal(data, &lines); err != nil {
			return snapshot{}, fmt.Errorf("decoding legacy snapshot: %w", err)
		}
		return snapshot{Lines: lines}, nil
	}

	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return snapshot{}, fmt.Errorf("decoding snapshot: %w", err)
	}
	if !semver.IsValid(snap.Schema) || semver.Major(snap.Schema) != semver.Major(SchemaVersion) {
		return snapshot{}, fmt.Errorf("incompatible snapshot schema %q", snap.Schema)
	}
	return snap, nil
}

// normalize merges duplicate variants by summing, keeping first-seen order,
// and drops lines without a variant or with a non-positive quantity.
func normalize(lines []Line) []Line {
	out := make([]Line, 0, len(lines))
	index := make(map[string]int, len(lines))
	for _, l := range lines {
		if l.VariantID == "" {
			continue
		}
		if i, ok := index[l.VariantID]; ok {
			out[i].Quantity += l.Quantity
			continue
		}
		index[l.VariantID] = len(out)
		out = append(out, l)
	}

	kept := out[:0]
	for _, l := range out {
		if l.Quantity > 0 {
			kept = append(kept, l)
		}
	}
	return kept
}

// AddItem accumulates quantity onto the variant's line, creating it if
// absent, and persists.
func (m *Mirror) AddItem(ctx context.Context, variantID string, quantity int) error {
	if variantID == "" {
		return model.NewValidationError("variant_id", "is required")
	}
	if quantity < 1 {
		return model.NewValidationError("quantity", "must be at least 1")
	}

	if i := m.find(variantID); i >= 0 {
		m.lines[i].Quantity += quantity
	} else {
		m.lines = append(m.lines, Line{VariantID: variantID, Quantity: quantity})
	}
	return m.Persist(ctx)
}

// SetQuantity sets the variant's quantity and persists. A quantity of zero
// or less removes the line.
func (m *Mirror) SetQuantity(ctx context.Context, variantID string, quantity int) error {
	if quantity <= 0 {
		return m.RemoveLine(ctx, variantID)
	}
	if i := m.find(variantID); i >= 0 {
		m.lines[i].Quantity = quantity
	} else {
		m.lines = append(m.lines, Line{VariantID: variantID, Quantity: quantity})
	}
	return m.Persist(ctx)
}

// RemoveLine deletes the variant's line if present and persists.
func (m *Mirror) RemoveLine(ctx context.Context, variantID string) error {
	i := m.find(variantID)
	if i < 0 {
		return nil
	}
	m.lines = append(m.lines[:i], m.lines[i+1:]...)
	return m.Persist(ctx)
}

// Reset empties the mirror and deletes the snapshot.
func (m *Mirror) Reset(ctx context.Context) error {
	m.lines = nil
	if err := m.store.Remove(ctx, KeyCart); err != nil {
		return fmt.Errorf("removing cart mirror: %w", err)
	}
	return nil
}

// Persist writes the full line collection under KeyCart, overwriting.
// If another page context wrote since this one last read, the divergence is
// logged and this write still wins.
func (m *Mirror) Persist(ctx context.Context) error {
	next := m.revision + 1

	if raw, ok, err := m.store.Get(ctx, KeyCart); err == nil && ok {
		if stored, err := decodeSnapshot(raw); err == nil && stored.Revision != m.revision {
			m.logger.Warn("cart mirror changed by another context, overwriting",
				slog.Int64("loaded_revision", m.revision),
				slog.Int64("stored_revision", stored.Revision))
			if stored.Revision >= next {
				next = stored.Revision + 1
			}
		}
	}

	data, err := json.Marshal(snapshot{
		Schema:    SchemaVersion,
		Revision:  next,
		UpdatedAt: time.Now().UTC(),
		Lines:     m.Lines(),
	})
	if err != nil {
		return fmt.Errorf("encoding cart mirror: %w", err)
	}
	if err := m.store.Set(ctx, KeyCart, string(data)); err != nil {
		return fmt.Errorf("persisting cart mirror: %w", err)
	}
	m.revision = next
	return nil
}

// Lines returns a copy of the lines in insertion order.
func (m *Mirror) Lines() []Line {
	out := make([]Line, len(m.lines))
	copy(out, m.lines)
	return out
}

// Quantity returns the local quantity of a variant.
func (m *Mirror) Quantity(variantID string) int {
	if i := m.find(variantID); i >= 0 {
		return m.lines[i].Quantity
	}
	return 0
}

// TotalQuantity sums all line quantities.
func (m *Mirror) TotalQuantity() int {
	total := 0
	for _, l := range m.lines {
		total += l.Quantity
	}
	return total
}

// Desired aggregates desired quantity per variant.
func (m *Mirror) Desired() map[string]int {
	out := make(map[string]int, len(m.lines))
	for _, l := range m.lines {
		out[l.VariantID] += l.Quantity
	}
	return out
}

// Inputs converts the lines to remote line inputs, e.g. to seed a new cart.
func (m *Mirror) Inputs() []model.LineInput {
	out := make([]model.LineInput, 0, len(m.lines))
	for _, l := range m.lines {
		out = append(out, model.LineInput{VariantID: l.VariantID, Quantity: l.Quantity})
	}
	return out
}

// Revision returns the snapshot revision this context last read or wrote.
func (m *Mirror) Revision() int64 {
	return m.revision
}

func (m *Mirror) find(variantID string) int {
	for i, l := range m.lines {
		if l.VariantID == variantID {
			return i
		}
	}
	return -1
}

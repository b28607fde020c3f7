// Package reconcile computes the line additions that bring a remote cart up
// to the quantities held in the local cart mirror.
//
// Reconciliation only ever grows the remote cart: a variant whose remote
// quantity already meets or exceeds the desired quantity produces no action.
// Decreases are synced by the explicit update/remove operations instead.
package reconcile

import "sort"

// Delta describes the additions needed to reconcile a remote cart.
type Delta struct {
	ToAdd []ItemToAdd // Variants whose desired quantity exceeds the remote quantity
}

// ItemToAdd specifies a quantity to add for one variant.
type ItemToAdd struct {
	VariantID string // Remote variant identifier
	Quantity  int    // Missing quantity, always > 0
}

// IsEmpty returns true if no additions are needed.
func (d *Delta) IsEmpty() bool {
	return len(d.ToAdd) == 0
}

// CurrentItem is a line of the remote cart, matched by the variant in its
// merchandise reference rather than by the remote line ID.
type CurrentItem struct {
	VariantID string
	Quantity  int
}

// DesiredItem is a line of the local cart mirror.
type DesiredItem struct {
	VariantID string
	Quantity  int
}

// AggregateCurrent sums remote quantities per variant.
func AggregateCurrent(items []CurrentItem) map[string]int {
	out := make(map[string]int, len(items))
	for _, item := range items {
		out[item.VariantID] += item.Quantity
	}
	return out
}

// AggregateDesired sums desired quantities per variant. Duplicates are not
// expected in the mirror but are tolerated.
func AggregateDesired(items []DesiredItem) map[string]int {
	out := make(map[string]int, len(items))
	for _, item := range items {
		out[item.VariantID] += item.Quantity
	}
	return out
}

// PositiveDelta computes max(0, desired-actual) per variant.
// Variants with desired <= actual get no entry. Results are sorted by variant ID.
func PositiveDelta(actual, desired map[string]int) *Delta {
	delta := &Delta{}
	for variantID, want := range desired {
		if missing := want - actual[variantID]; missing > 0 {
			delta.ToAdd = append(delta.ToAdd, ItemToAdd{VariantID: variantID, Quantity: missing})
		}
	}
	sort.Slice(delta.ToAdd, func(i, j int) bool {
		return delta.ToAdd[i].VariantID < delta.ToAdd[j].VariantID
	})
	return delta
}

// DiffLineItems aggregates both sides and returns their positive delta.
func DiffLineItems(current []CurrentItem, desired []DesiredItem) *Delta {
	return PositiveDelta(AggregateCurrent(current), AggregateDesired(desired))
}

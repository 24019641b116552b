package capacity

import (
	"intraday-welfare/internal/model"
)

// Ledger is the mutable per-day running remainder of a Table.
//
// Every operation addresses slots by delivery window: a slot takes part when
// it lies fully inside the window (half-open containment, not overlap).
// A window containing no slot has no capacity.
//
// Ledger is not safe for concurrent use; the allocation engine is sequential.
type Ledger struct {
	name  string
	slots []Slot
}

func (l *Ledger) Name() string { return l.name }

func (l *Ledger) Len() int { return len(l.slots) }

// Available returns the remaining value of every contained slot in time order.
func (l *Ledger) Available(dir model.Direction, w model.Window) []float64 {
	idx := containedIndexes(l.slots, w)
	out := make([]float64, len(idx))
	for k, i := range idx {
		out[k] = l.slots[i].Remaining[dir]
	}
	return out
}

// Consume decrements every contained slot by amount, or nothing at all.
// It reports false, leaving the ledger untouched, when a contained slot holds
// less than amount, when the window contains no slot, or when amount is not
// positive.
func (l *Ledger) Consume(dir model.Direction, w model.Window, amount float64) bool {
	if !(amount > 0) {
		return false
	}
	idx := containedIndexes(l.slots, w)
	if len(idx) == 0 {
		return false
	}
	for _, i := range idx {
		if l.slots[i].Remaining[dir] < amount {
			return false
		}
	}
	for _, i := range idx {
		l.slots[i].Remaining[dir] -= amount
	}
	return true
}

// Pin zeroes the remainder of every contained slot and returns how many slots
// were affected.
func (l *Ledger) Pin(dir model.Direction, w model.Window) int {
	idx := containedIndexes(l.slots, w)
	for _, i := range idx {
		l.slots[i].Remaining[dir] = 0
	}
	return len(idx)
}

// Snapshot returns a copy of the ledger's slots.
func (l *Ledger) Snapshot() []Slot {
	out := make([]Slot, len(l.slots))
	copy(out, l.slots)
	return out
}

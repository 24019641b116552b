// Package capacity holds the per-slot resource ledgers the allocation engine
// draws from: cross-border transfer capacity and plant ramp potential.
package capacity

import (
	"fmt"
	"sort"
	"time"

	"intraday-welfare/internal/model"
)

// RampResolution is the slot length ramp potential is resampled to.
const RampResolution = 15 * time.Minute

// Slot is one half-open time slot [Start, End) with an original and a running
// remaining value per flow direction, indexed by model.Direction.
type Slot struct {
	Start time.Time
	End   time.Time

	Original  [2]float64
	Remaining [2]float64
}

// Table is the immutable yearly source for a ledger. Slots are sorted by Start.
// A Table is safe for concurrent use; per-day state lives in Ledgers cut from it.
type Table struct {
	name  string
	slots []Slot
}

// NewTable validates and sorts slots. Remaining values are reset to Original.
func NewTable(name string, slots []Slot) (*Table, error) {
	out := make([]Slot, len(slots))
	copy(out, slots)
	for i := range out {
		s := &out[i]
		if !s.End.After(s.Start) {
			return nil, fmt.Errorf("%s slot %d: end %s not after start %s", name, i, s.End, s.Start)
		}
		for d := range s.Original {
			if !(s.Original[d] >= 0) {
				return nil, fmt.Errorf("%s slot %d: capacity %v is negative", name, i, s.Original[d])
			}
		}
		s.Remaining = s.Original
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return &Table{name: name, slots: out}, nil
}

// NewTransferTable builds the transfer capacity table. Selling draws on A->B,
// pumping on B->A.
func NewTransferTable(rows []model.TransferRow) (*Table, error) {
	slots := make([]Slot, 0, len(rows))
	for _, r := range rows {
		var s Slot
		s.Start, s.End = r.Start, r.End
		s.Original[model.Selling] = r.AToB
		s.Original[model.Pumping] = r.BToA
		slots = append(slots, s)
	}
	return NewTable("transfer", slots)
}

// NewRampTable builds the ramp table from samples already at RampResolution.
// Selling draws on upscale potential, pumping on downscale potential.
func NewRampTable(rows []model.RampRow) (*Table, error) {
	slots := make([]Slot, 0, len(rows))
	for _, r := range rows {
		var s Slot
		s.Start = r.Time
		s.End = r.Time.Add(RampResolution)
		s.Original[model.Selling] = r.Upscale
		s.Original[model.Pumping] = r.Downscale
		slots = append(slots, s)
	}
	return NewTable("ramp", slots)
}

func (t *Table) Name() string { return t.name }

func (t *Table) Len() int { return len(t.slots) }

// Span returns the start of the first slot and the end of the last one.
func (t *Table) Span() (time.Time, time.Time) {
	if len(t.slots) == 0 {
		return time.Time{}, time.Time{}
	}
	end := t.slots[0].End
	for _, s := range t.slots {
		if s.End.After(end) {
			end = s.End
		}
	}
	return t.slots[0].Start, end
}

// Ledger returns a fresh ledger holding copies of every slot contained in
// [from, to). Mutating the ledger never affects the table.
func (t *Table) Ledger(from, to time.Time) *Ledger {
	w := model.Window{Start: from, End: to}
	idx := containedIndexes(t.slots, w)
	slots := make([]Slot, 0, len(idx))
	for _, i := range idx {
		s := t.slots[i]
		s.Remaining = s.Original
		slots = append(slots, s)
	}
	return &Ledger{name: t.name, slots: slots}
}

// containedIndexes returns the indexes of slots lying fully inside w.
// slots must be sorted by Start.
func containedIndexes(slots []Slot, w model.Window) []int {
	lo := sort.Search(len(slots), func(i int) bool { return !slots[i].Start.Before(w.Start) })
	var out []int
	for i := lo; i < len(slots) && slots[i].Start.Before(w.End); i++ {
		if w.Contains(slots[i].Start, slots[i].End) {
			out = append(out, i)
		}
	}
	return out
}

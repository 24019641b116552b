package extract

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"intraday-welfare/internal/model"
)

// Mode selects how groups that cannot be paired are handled.
type Mode string

const (
	// ModeLenient drops unpairable groups and keeps the rest of the day.
	ModeLenient Mode = "lenient"
	// ModeStrict rejects the whole day on the first unpairable group.
	ModeStrict Mode = "strict"
)

func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeLenient:
		return ModeLenient, nil
	case ModeStrict:
		return ModeStrict, nil
	}
	return "", fmt.Errorf("unknown extraction mode %q", s)
}

// GroupKey identifies orders that can only match each other.
type GroupKey struct {
	EndValidity    time.Time
	ExecutionPrice float64
	ExecutedVolume float64
	DeliveryStart  time.Time
	Instrument     model.Instrument
}

func (k GroupKey) String() string {
	return fmt.Sprintf("%s %.2f@%.3f delivery %s %s",
		k.EndValidity.Format(time.RFC3339Nano), k.ExecutionPrice, k.ExecutedVolume,
		k.DeliveryStart.Format(time.RFC3339), k.Instrument)
}

// Report summarises what extraction kept and dropped.
type Report struct {
	EligibleRows  int
	Unbounded     bool
	Groups        int
	PairedGroups  int
	DroppedGroups int
	DroppedRows   int
	Transactions  int
}

// UnbalancedDayError is returned in strict mode when a group's buy and sell
// rows do not pair up one to one.
type UnbalancedDayError struct {
	Group GroupKey
	Buys  int
	Sells int
}

func (e *UnbalancedDayError) Error() string {
	return fmt.Sprintf("unbalanced group %s: %d buy vs %d sell rows", e.Group, e.Buys, e.Sells)
}

// mapKey is GroupKey with instants reduced to integers so equal instants in
// different locations land in the same group.
type mapKey struct {
	endValidity   int64
	price, volume float64
	deliveryStart int64
	instrument    model.Instrument
}

func (k GroupKey) mapKey() mapKey {
	return mapKey{
		endValidity:   k.EndValidity.UnixNano(),
		price:         k.ExecutionPrice,
		volume:        k.ExecutedVolume,
		deliveryStart: k.DeliveryStart.UnixNano(),
		instrument:    k.Instrument,
	}
}

type group struct {
	key   GroupKey
	buys  []model.OrderEvent
	sells []model.OrderEvent
}

// Extract pairs eligible orders into transactions.
//
// Orders are grouped by end of validity, execution price, executed volume,
// delivery start and instrument. A group whose buy and sell counts match is
// paired one to one in row order; on an unbounded day only groups with
// exactly one buy and one sell are kept. Any other group is dropped
// (ModeLenient) or fails the day (ModeStrict).
func Extract(eligible []model.OrderEvent, unbounded bool, mode Mode) ([]model.Transaction, Report, error) {
	rep := Report{EligibleRows: len(eligible), Unbounded: unbounded}

	byKey := make(map[mapKey]*group)
	var groups []*group
	for _, o := range eligible {
		k := GroupKey{
			EndValidity:    o.EndValidity,
			ExecutionPrice: o.ExecutionPrice,
			ExecutedVolume: o.ExecutedVolume,
			DeliveryStart:  o.DeliveryStart,
			Instrument:     o.Instrument,
		}
		g, ok := byKey[k.mapKey()]
		if !ok {
			g = &group{key: k}
			byKey[k.mapKey()] = g
			groups = append(groups, g)
		}
		if o.Side == model.SideBuy {
			g.buys = append(g.buys, o)
		} else {
			g.sells = append(g.sells, o)
		}
	}
	rep.Groups = len(groups)

	sort.Slice(groups, func(i, j int) bool { return lessKey(groups[i].key, groups[j].key) })

	var out []model.Transaction
	for _, g := range groups {
		if !pairable(g, unbounded) {
			if mode == ModeStrict {
				return nil, rep, &UnbalancedDayError{Group: g.key, Buys: len(g.buys), Sells: len(g.sells)}
			}
			rep.DroppedGroups++
			rep.DroppedRows += len(g.buys) + len(g.sells)
			continue
		}
		rep.PairedGroups++
		sortByRow(g.buys)
		sortByRow(g.sells)
		for i := range g.buys {
			out = append(out, pair(g.buys[i], g.sells[i]))
		}
	}
	rep.Transactions = len(out)
	return out, rep, nil
}

func pairable(g *group, unbounded bool) bool {
	if len(g.buys) == 0 || len(g.sells) == 0 {
		return false
	}
	if len(g.buys) != len(g.sells) {
		return false
	}
	if unbounded && len(g.buys) != 1 {
		return false
	}
	return true
}

func pair(b, s model.OrderEvent) model.Transaction {
	return model.Transaction{
		TransactionTime: b.EndValidity,
		DeliveryStart:   b.DeliveryStart,
		Instrument:      b.Instrument,
		ExecutionPrice:  b.ExecutionPrice,
		ExecutedVolume:  b.ExecutedVolume,
		LeadTime:        b.LeadTime(),
		BuyRowID:        b.RowID,
		SellRowID:       s.RowID,
		BuyOrderID:      b.OrderID,
		SellOrderID:     s.OrderID,
	}
}

func sortByRow(orders []model.OrderEvent) {
	sort.Slice(orders, func(i, j int) bool { return orders[i].RowID < orders[j].RowID })
}

func lessKey(a, b GroupKey) bool {
	if !a.EndValidity.Equal(b.EndValidity) {
		return a.EndValidity.Before(b.EndValidity)
	}
	if a.ExecutionPrice != b.ExecutionPrice {
		return a.ExecutionPrice < b.ExecutionPrice
	}
	if a.ExecutedVolume != b.ExecutedVolume {
		return a.ExecutedVolume < b.ExecutedVolume
	}
	if !a.DeliveryStart.Equal(b.DeliveryStart) {
		return a.DeliveryStart.Before(b.DeliveryStart)
	}
	return a.Instrument < b.Instrument
}

package backtest

import (
	"fmt"
	"sort"
	"time"

	"intraday-welfare/internal/capacity"
	"intraday-welfare/internal/model"
	"intraday-welfare/internal/pricing"
)

// Day is everything one allocation run needs. The ledgers are mutated by Run
// and must not be shared with another day.
type Day struct {
	Date         time.Time
	Transactions []model.Transaction
	Transfer     *capacity.Ledger
	Ramp         *capacity.Ledger
	Reference    pricing.Reference
}

type Engine struct{}

func New() *Engine { return &Engine{} }

// Run allocates a day's transactions against the transfer and ramp ledgers.
//
// The pumping pass runs first over transactions in ascending price order, then
// the selling pass in descending price order, both on the same ledgers. Rows
// come back in transaction time order.
func (e *Engine) Run(day Day) (*Result, error) {
	if day.Transfer == nil {
		return nil, fmt.Errorf("transfer ledger is nil")
	}
	if day.Ramp == nil {
		return nil, fmt.Errorf("ramp ledger is nil")
	}

	rows := make([]OutcomeRow, len(day.Transactions))
	for i, tx := range day.Transactions {
		if tx.Instrument.Multiplier() == 0 {
			return nil, fmt.Errorf("transaction %d: unknown instrument %q", i, tx.Instrument)
		}
		if !(tx.ExecutedVolume > 0) {
			return nil, fmt.Errorf("transaction %d: executed volume %v is not positive", i, tx.ExecutedVolume)
		}
		rows[i] = OutcomeRow{
			Transaction:      tx,
			SellingReference: day.Reference.Selling,
			PumpingReference: day.Reference.Pumping,
		}
	}

	res := &Result{Date: day.Date, Reference: day.Reference}
	for _, dir := range model.Directions {
		order := passOrder(rows, dir)
		for _, i := range order {
			e.allocate(&rows[i], dir, day, &res.Totals[dir])
		}
	}

	for i := range rows {
		r := &rows[i]
		r.APosterioriPrice = pricing.APosterioriPrice(
			r.Binary(model.Selling), r.Binary(model.Pumping),
			day.Reference, r.Transaction.ExecutionPrice)
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Transaction.TransactionTime.Before(rows[j].Transaction.TransactionTime)
	})
	for i := range rows {
		rows[i].Index = i
	}

	res.Rows = rows
	res.Transfer = day.Transfer.Snapshot()
	res.Ramp = day.Ramp.Snapshot()
	return res, nil
}

func (e *Engine) allocate(r *OutcomeRow, dir model.Direction, day Day, tot *DirectionTotals) {
	tx := r.Transaction
	if !day.Reference.Eligible(dir, tx.ExecutionPrice) {
		r.Code[dir] = model.OutcomeIneligible
		tot.ByCode[model.OutcomeIneligible]++
		return
	}
	r.Possible[dir] = true
	tot.Eligible++

	w := tx.Window()
	amount := tx.RequestedMW()
	transferOK := day.Transfer.Consume(dir, w, amount)
	rampOK := day.Ramp.Consume(dir, w, amount)
	if !transferOK {
		day.Transfer.Pin(dir, w)
	}
	if !rampOK {
		day.Ramp.Pin(dir, w)
	}

	code := model.ClassifyOutcome(transferOK, rampOK)
	r.Code[dir] = code
	tot.ByCode[code]++
	if code == model.OutcomeMatched {
		tot.Matched++
		tot.MatchedVolume += tx.ExecutedVolume
	}
}

// passOrder returns row indexes sorted by execution price, ascending for
// pumping and descending for selling. Ties keep their input order.
func passOrder(rows []OutcomeRow, dir model.Direction) []int {
	idx := make([]int, len(rows))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		pa, pb := rows[idx[a]].Transaction.ExecutionPrice, rows[idx[b]].Transaction.ExecutionPrice
		if dir == model.Pumping {
			return pa < pb
		}
		return pa > pb
	})
	return idx
}

package backtest

import (
	"time"

	"intraday-welfare/internal/capacity"
	"intraday-welfare/internal/model"
	"intraday-welfare/internal/pricing"
)

// OutcomeRow is one allocated transaction. Per-direction arrays are indexed by
// model.Direction.
type OutcomeRow struct {
	Index int

	Transaction model.Transaction

	SellingReference float64
	PumpingReference float64

	// Possible is true when the price cleared the direction's reference.
	Possible [2]bool
	Code     [2]model.Outcome

	APosterioriPrice float64
}

func (r OutcomeRow) Binary(dir model.Direction) int {
	return r.Code[dir].Binary()
}

// DirectionTotals counts one direction's pass.
type DirectionTotals struct {
	Eligible      int
	Matched       int
	MatchedVolume float64 // MWh
	ByCode        [5]int
}

type Result struct {
	Date      time.Time
	Reference pricing.Reference
	Rows      []OutcomeRow

	Totals [2]DirectionTotals

	// Final ledger state after both passes.
	Transfer []capacity.Slot
	Ramp     []capacity.Slot
}

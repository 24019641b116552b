// Package extract derives closed buy/sell transactions from a day's order book.
package extract

import (
	"math"
	"time"

	"intraday-welfare/internal/model"
)

// volumeTolerance absorbs float summation noise when comparing side volumes.
const volumeTolerance = 1e-6

// LeadTimeWindow bounds the lead time of eligible orders, both ends inclusive.
type LeadTimeWindow struct {
	Min time.Duration
	Max time.Duration
}

func DefaultLeadTimeWindow() LeadTimeWindow {
	return LeadTimeWindow{Min: 30 * time.Minute, Max: 60 * time.Minute}
}

func (w LeadTimeWindow) Includes(lead time.Duration) bool {
	return lead >= w.Min && lead <= w.Max
}

// FilterLeadTime keeps executed orders whose lead time falls in w.
// unbounded reports whether the kept buy and sell executed volumes differ.
func FilterLeadTime(orders []model.OrderEvent, w LeadTimeWindow) (eligible []model.OrderEvent, unbounded bool) {
	var buy, sell float64
	for _, o := range orders {
		if !o.IsExecuted || !(o.ExecutedVolume > 0) {
			continue
		}
		if !w.Includes(o.LeadTime()) {
			continue
		}
		eligible = append(eligible, o)
		switch o.Side {
		case model.SideBuy:
			buy += o.ExecutedVolume
		case model.SideSell:
			sell += o.ExecutedVolume
		}
	}
	return eligible, math.Abs(buy-sell) > volumeTolerance
}

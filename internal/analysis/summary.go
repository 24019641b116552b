// Package analysis summarises allocated days for reporting and ranking.
package analysis

import (
	"math"
	"sort"
	"time"

	"intraday-welfare/internal/backtest"
	"intraday-welfare/internal/model"
)

// FlowSummary is one direction's share of a day. Revenue bounds are seen from
// the plant side: the maximum at execution prices, the minimum at the
// reference the transaction was settled at.
type FlowSummary struct {
	AvgPrice float64
	MaxPrice float64

	MatchedVolume       float64 // MWh
	AdditionalContracts int

	RevenueMax float64 // EUR
	RevenueMin float64 // EUR

	// HourVolume is matched volume by delivery start hour (UTC).
	HourVolume [24]float64
}

// DaySummary is the per-day statistics row.
type DaySummary struct {
	Date time.Time

	Contracts   int
	TotalVolume float64

	AvgHistoricalPrice float64
	MaxHistoricalPrice float64
	P05Price           float64
	P95Price           float64

	AvgAPosterioriPrice float64
	MaxAPosterioriPrice float64

	Flows [2]FlowSummary // indexed by model.Direction

	HoursCount      [24]int
	HoursMatchCount [24]int
}

// AdditionalRevenue is the revenue at execution prices of every transaction
// matched in either direction.
func (s DaySummary) AdditionalRevenue() float64 {
	return s.Flows[model.Selling].RevenueMax + s.Flows[model.Pumping].RevenueMax
}

func (s DaySummary) AdditionalContracts() int {
	return s.Flows[model.Selling].AdditionalContracts + s.Flows[model.Pumping].AdditionalContracts
}

// Summarize computes a day's statistics from its allocated rows. A day with no
// rows summarises to zeros.
func Summarize(date time.Time, rows []backtest.OutcomeRow) DaySummary {
	s := DaySummary{Date: date, Contracts: len(rows)}
	if len(rows) == 0 {
		return s
	}

	hist := make([]float64, 0, len(rows))
	post := make([]float64, 0, len(rows))
	var flowPrices [2][]float64
	for _, r := range rows {
		tx := r.Transaction
		hist = append(hist, tx.ExecutionPrice)
		post = append(post, r.APosterioriPrice)
		s.TotalVolume += tx.ExecutedVolume

		hour := tx.DeliveryStart.UTC().Hour()
		s.HoursCount[hour]++
		matched := false
		for _, dir := range model.Directions {
			f := &s.Flows[dir]
			if r.Binary(dir) != 1 {
				flowPrices[dir] = append(flowPrices[dir], tx.ExecutionPrice)
				continue
			}
			matched = true
			flowPrices[dir] = append(flowPrices[dir], r.APosterioriPrice)
			f.MatchedVolume += tx.ExecutedVolume
			f.AdditionalContracts++
			f.RevenueMax += tx.ExecutedVolume * tx.ExecutionPrice
			f.RevenueMin += tx.ExecutedVolume * r.APosterioriPrice
			f.HourVolume[hour] += tx.ExecutedVolume
		}
		if matched {
			s.HoursMatchCount[hour]++
		}
	}

	s.AvgHistoricalPrice, s.MaxHistoricalPrice = meanMax(hist)
	s.AvgAPosterioriPrice, s.MaxAPosterioriPrice = meanMax(post)
	for _, dir := range model.Directions {
		s.Flows[dir].AvgPrice, s.Flows[dir].MaxPrice = meanMax(flowPrices[dir])
	}

	sort.Float64s(hist)
	s.P05Price = percentileSorted(hist, 0.05)
	s.P95Price = percentileSorted(hist, 0.95)
	return s
}

func meanMax(vals []float64) (mean, hi float64) {
	if len(vals) == 0 {
		return 0, 0
	}
	hi = math.Inf(-1)
	sum := 0.0
	for _, v := range vals {
		sum += v
		if v > hi {
			hi = v
		}
	}
	return sum / float64(len(vals)), hi
}

func percentileSorted(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	// Linear interpolation between order stats.
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

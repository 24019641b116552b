package analysis

import (
	"sort"
)

type RankedDay struct {
	Rank int
	DaySummary
}

// RankDays sorts days descending by additional revenue. Ties go to the
// earlier day.
func RankDays(days []DaySummary) []RankedDay {
	out := make([]RankedDay, 0, len(days))
	for _, d := range days {
		out = append(out, RankedDay{DaySummary: d})
	}
	sort.SliceStable(out, func(i, j int) bool {
		ri, rj := out[i].AdditionalRevenue(), out[j].AdditionalRevenue()
		if ri != rj {
			return ri > rj
		}
		return out[i].Date.Before(out[j].Date)
	})
	for i := range out {
		out[i].Rank = i + 1
	}
	return out
}

// Totals aggregates summaries over a period.
type Totals struct {
	Days                int
	Contracts           int
	AdditionalContracts [2]int
	MatchedVolume       [2]float64
	RevenueMax          [2]float64
	RevenueMin          [2]float64
}

func Aggregate(days []DaySummary) Totals {
	t := Totals{Days: len(days)}
	for _, d := range days {
		t.Contracts += d.Contracts
		for dir := range d.Flows {
			f := d.Flows[dir]
			t.AdditionalContracts[dir] += f.AdditionalContracts
			t.MatchedVolume[dir] += f.MatchedVolume
			t.RevenueMax[dir] += f.RevenueMax
			t.RevenueMin[dir] += f.RevenueMin
		}
	}
	return t
}

// Package report renders day summaries as terminal tables and CSV files.
package report

import (
	"fmt"
	"io"

	"intraday-welfare/internal/analysis"
	"intraday-welfare/internal/model"

	"github.com/olekukonko/tablewriter"
)

const dateLayout = "2006-01-02"

// RenderSummary prints one row per day.
func RenderSummary(w io.Writer, days []analysis.DaySummary) error {
	table := tablewriter.NewWriter(w)
	table.Header("Day", "Contracts", "Volume", "Avg Price", "Avg Post",
		model.Selling.Flow()+" #", model.Selling.Flow()+" MWh",
		model.Pumping.Flow()+" #", model.Pumping.Flow()+" MWh", "Revenue Max")

	for _, d := range days {
		sell, pump := d.Flows[model.Selling], d.Flows[model.Pumping]
		table.Append(
			d.Date.Format(dateLayout),
			fmt.Sprintf("%d", d.Contracts),
			fmt.Sprintf("%.1f", d.TotalVolume),
			fmt.Sprintf("%.2f", d.AvgHistoricalPrice),
			fmt.Sprintf("%.2f", d.AvgAPosterioriPrice),
			fmt.Sprintf("%d", sell.AdditionalContracts),
			fmt.Sprintf("%.1f", sell.MatchedVolume),
			fmt.Sprintf("%d", pump.AdditionalContracts),
			fmt.Sprintf("%.1f", pump.MatchedVolume),
			fmt.Sprintf("%.0f", d.AdditionalRevenue()),
		)
	}
	if err := table.Render(); err != nil {
		return err
	}

	tot := analysis.Aggregate(days)
	fmt.Fprintf(w, "  %d days, %d contracts | %s %d (%.1f MWh) | %s %d (%.1f MWh)\n",
		tot.Days, tot.Contracts,
		model.Selling.Flow(), tot.AdditionalContracts[model.Selling], tot.MatchedVolume[model.Selling],
		model.Pumping.Flow(), tot.AdditionalContracts[model.Pumping], tot.MatchedVolume[model.Pumping])
	return nil
}

// RenderRanking prints the top n ranked days; n <= 0 prints all.
func RenderRanking(w io.Writer, ranked []analysis.RankedDay, n int) error {
	if n > 0 && n < len(ranked) {
		ranked = ranked[:n]
	}
	table := tablewriter.NewWriter(w)
	table.Header("#", "Day", "Revenue Max", "Revenue Min", "Additional", "P05", "P95")
	for _, r := range ranked {
		revMin := r.Flows[model.Selling].RevenueMin + r.Flows[model.Pumping].RevenueMin
		table.Append(
			fmt.Sprintf("%d", r.Rank),
			r.Date.Format(dateLayout),
			fmt.Sprintf("%.0f", r.AdditionalRevenue()),
			fmt.Sprintf("%.0f", revMin),
			fmt.Sprintf("%d", r.AdditionalContracts()),
			fmt.Sprintf("%.2f", r.P05Price),
			fmt.Sprintf("%.2f", r.P95Price),
		)
	}
	return table.Render()
}

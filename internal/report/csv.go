package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"intraday-welfare/internal/analysis"
	"intraday-welfare/internal/data"
	"intraday-welfare/internal/model"
)

// SummaryColumns is the header of the summary file, one row per day.
var SummaryColumns = []string{
	"time",
	"Avg Historical Price",
	"Max Historical Price",
	"Avg a Posteriori Price",
	"Max a Posteriori Price",
	"Avg a Posteriori Price CH-DE",
	"Max a Posteriori Price CH-DE",
	"Avg a Posteriori Price DE-CH",
	"Max a Posteriori Price DE-CH",
	"Total Volume Traded",
	"Total Volume Traded CH-DE",
	"Total Volume Traded DE-CH",
	"CH-DE Revenue Max",
	"CH-DE Revenue Min",
	"DE-CH Revenue Max",
	"DE-CH Revenue Min",
	"Number of Contracts Closed",
	"CH-DE Additional Contracts Closed",
	"DE-CH Additional Contracts Closed",
	"Hours Count",
	"Hours Match Count",
	"Hours Volume CH-DE",
	"Hours Volume DE-CH",
}

func WriteSummary(w io.Writer, days []analysis.DaySummary) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(SummaryColumns); err != nil {
		return err
	}
	for _, d := range days {
		sell, pump := d.Flows[model.Selling], d.Flows[model.Pumping]
		rec := []string{
			d.Date.Format(dateLayout),
			data.FormatFloat(d.AvgHistoricalPrice),
			data.FormatFloat(d.MaxHistoricalPrice),
			data.FormatFloat(d.AvgAPosterioriPrice),
			data.FormatFloat(d.MaxAPosterioriPrice),
			data.FormatFloat(sell.AvgPrice),
			data.FormatFloat(sell.MaxPrice),
			data.FormatFloat(pump.AvgPrice),
			data.FormatFloat(pump.MaxPrice),
			data.FormatFloat(d.TotalVolume),
			data.FormatFloat(sell.MatchedVolume),
			data.FormatFloat(pump.MatchedVolume),
			data.FormatFloat(sell.RevenueMax),
			data.FormatFloat(sell.RevenueMin),
			data.FormatFloat(pump.RevenueMax),
			data.FormatFloat(pump.RevenueMin),
			strconv.Itoa(d.Contracts),
			strconv.Itoa(sell.AdditionalContracts),
			strconv.Itoa(pump.AdditionalContracts),
			hourCounts(d.HoursCount),
			hourCounts(d.HoursMatchCount),
			hourVolumes(sell.HourVolume),
			hourVolumes(pump.HourVolume),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteSummaryCSV atomically writes the summary file.
func WriteSummaryCSV(path string, days []analysis.DaySummary) error {
	return data.WriteFileAtomic(path, func(w io.Writer) error { return WriteSummary(w, days) })
}

// hourCounts renders non-zero hours as {h: n, ...}.
func hourCounts(h [24]int) string {
	var parts []string
	for hour, n := range h {
		if n != 0 {
			parts = append(parts, fmt.Sprintf("%d: %d", hour, n))
		}
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

func hourVolumes(h [24]float64) string {
	var parts []string
	for hour, v := range h {
		if v != 0 {
			parts = append(parts, fmt.Sprintf("%d: %s", hour, strconv.FormatFloat(v, 'f', -1, 64)))
		}
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

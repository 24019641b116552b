package pipeline

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"intraday-welfare/internal/analysis"
	"intraday-welfare/internal/backtest"
)

// updatedDirName is the per-month folder holding allocated outcome files.
const updatedDirName = "Updated Transactions"

// SummarizeDir reads every outcome file under root's "Updated Transactions"
// folders and summarises it. Days are returned in date order.
func SummarizeDir(root string) ([]analysis.DaySummary, error) {
	var out []analysis.DaySummary
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || filepath.Base(filepath.Dir(path)) != updatedDirName || !strings.HasSuffix(d.Name(), ".csv") {
			return nil
		}
		date, err := DateFromName(d.Name())
		if err != nil {
			return err
		}
		rows, err := backtest.ReadOutcomeCSV(path)
		if err != nil {
			return err
		}
		out = append(out, analysis.Summarize(date, rows))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("pipeline.SummarizeDir: %w", err)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

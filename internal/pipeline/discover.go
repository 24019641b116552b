package pipeline

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"intraday-welfare/internal/data"
	"intraday-welfare/internal/extract"
	"intraday-welfare/internal/model"
)

type SourceKind string

const (
	// SourceOrderBook is one day of raw order-book events.
	SourceOrderBook SourceKind = "order_book"
	// SourceTradeList is a multi-day file of already paired trades.
	SourceTradeList SourceKind = "trade_list"
)

// DayInput is one delivery day to process. Transactions is set for trade
// list days; order-book days are read when processed.
type DayInput struct {
	Date   time.Time
	Source string
	Kind   SourceKind

	Transactions []model.Transaction
}

var (
	orderBookName = regexp.MustCompile(`(\d{8})\.csv$`)
	tradeListName = regexp.MustCompile(`^ID_GDM_.*\.csv$`)
)

// Discover walks root for order-book files (any CSV whose base name ends in
// an 8-digit YYYYMMDD date) and trade-list files (ID_GDM_*.csv). Trade lists
// are read and split per delivery day. Results are sorted by date.
func Discover(root string, window extract.LeadTimeWindow) ([]DayInput, error) {
	var out []DayInput
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		name := d.Name()
		switch {
		case tradeListName.MatchString(name):
			days, err := data.ReadTradeList(path, window)
			if err != nil {
				return err
			}
			for _, td := range days {
				out = append(out, DayInput{Date: td.Date, Source: path, Kind: SourceTradeList, Transactions: td.Transactions})
			}
		case orderBookName.MatchString(name):
			date, err := DateFromName(name)
			if err != nil {
				return err
			}
			out = append(out, DayInput{Date: date, Source: path, Kind: SourceOrderBook})
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("pipeline.Discover: %w", err)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].Source < out[j].Source
	})
	return out, nil
}

// DateFromName reads the trailing YYYYMMDD of a file name.
func DateFromName(name string) (time.Time, error) {
	m := orderBookName.FindStringSubmatch(filepath.Base(name))
	if m == nil {
		return time.Time{}, fmt.Errorf("no date in file name %q", name)
	}
	return time.ParseInLocation("20060102", m[1], time.UTC)
}

// FilterRange keeps inputs with from <= Date <= to. A zero bound is open.
func FilterRange(in []DayInput, from, to time.Time) []DayInput {
	var out []DayInput
	for _, d := range in {
		if !from.IsZero() && d.Date.Before(from) {
			continue
		}
		if !to.IsZero() && d.Date.After(to) {
			continue
		}
		out = append(out, d)
	}
	return out
}

// OutputPaths returns the extracted and allocated file paths of a day.
func OutputPaths(outDir, prefix string, date time.Time) (transactions, updated string) {
	month := date.Format("2006-01")
	name := strings.TrimSuffix(prefix, "_") + "_" + date.Format("20060102") + ".csv"
	return filepath.Join(outDir, month, "Transactions", name),
		filepath.Join(outDir, month, "Updated Transactions", name)
}

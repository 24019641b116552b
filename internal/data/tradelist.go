package data

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"intraday-welfare/internal/extract"
	"intraday-welfare/internal/model"
)

// Trade list timestamps are month/day/year with unpadded fields.
const tradeListTimeLayout = "1/2/06 15:4"

const (
	colTradeTimestamp = "TIMESTAMP"
	colTradeFrom      = "FROM_TIME"
	colTradeTo        = "TO_TIME"
	colTradePrice     = "PRICE"
	colTradeVolume    = "VOLUME"
	colTradeDuration  = "DURATION"
)

// TradeDay is one delivery day of already paired trades.
type TradeDay struct {
	Date         time.Time
	Transactions []model.Transaction
}

// ReadTradeList loads a trade list file and returns its lead-time eligible
// trades split per delivery day.
func ReadTradeList(path string, window extract.LeadTimeWindow) ([]TradeDay, error) {
	f, err := OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseTradeList(f, path, window)
}

// ParseTradeList reads a comma separated trade list. Each row is a closed
// trade. Rows whose TIMESTAMP is not a full timestamp are dropped. A FROM_TIME
// holding only a date is rebuilt from TO_TIME and DURATION.
// The row index stands in for both the buy and sell identity.
func ParseTradeList(r io.Reader, name string, window extract.LeadTimeWindow) ([]TradeDay, error) {
	t, err := readTable(r, name, ',',
		colTradeTimestamp, colTradeFrom, colTradeTo, colTradePrice, colTradeVolume, colTradeDuration)
	if err != nil {
		return nil, err
	}

	byDay := make(map[time.Time][]model.Transaction)
	for i := range t.rows {
		ts, ok := parseTradeTime(t.get(i, colTradeTimestamp))
		if !ok {
			continue
		}
		hours, err := t.float(i, colTradeDuration, false)
		if err != nil {
			return nil, err
		}
		inst, err := model.InstrumentFromHours(hours)
		if err != nil {
			return nil, t.errAt(i, colTradeDuration, err)
		}
		dur := inst.Duration()

		from, ok := parseTradeTime(t.get(i, colTradeFrom))
		if !ok {
			to, _ := parseTradeTime(t.get(i, colTradeTo))
			if to.IsZero() {
				return nil, t.errAt(i, colTradeTo, fmt.Errorf("cannot derive delivery start from %q", t.get(i, colTradeTo)))
			}
			from = to.Add(-dur)
		}

		lead := from.Sub(ts)
		if !window.Includes(lead) {
			continue
		}
		price, err := t.float(i, colTradePrice, false)
		if err != nil {
			return nil, err
		}
		volume, err := t.positive(i, colTradeVolume, false)
		if err != nil {
			return nil, err
		}

		day := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
		byDay[day] = append(byDay[day], model.Transaction{
			TransactionTime: ts,
			DeliveryStart:   from,
			Instrument:      inst,
			ExecutionPrice:  price,
			ExecutedVolume:  volume,
			LeadTime:        lead,
			BuyRowID:        i,
			SellRowID:       i,
		})
	}

	out := make([]TradeDay, 0, len(byDay))
	for d, txs := range byDay {
		out = append(out, TradeDay{Date: d, Transactions: txs})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

// parseTradeTime parses a full timestamp. A date-only value is read as
// midnight and reported as not ok, so callers can rebuild it.
func parseTradeTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if ts, err := time.ParseInLocation(tradeListTimeLayout, s, time.UTC); err == nil {
		return ts, true
	}
	if ts, err := time.ParseInLocation(tradeListTimeLayout, s+" 0:0", time.UTC); err == nil {
		return ts, false
	}
	return time.Time{}, false
}

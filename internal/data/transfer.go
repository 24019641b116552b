package data

import (
	"fmt"
	"io"
	"time"

	"intraday-welfare/internal/model"
)

const (
	transferDateLayout = "02.01.2006"
	colTransferDate    = "Date from"
	colTransferFrom    = "Time from"
	colTransferTo      = "Time to"
	colTransferAToB    = "CH to DE_Actual value (MW)"
	colTransferBToA    = "DE to CH_Actual value (MW)"
)

// ReadTransferCapacity loads the yearly cross-border transfer capacity table.
func ReadTransferCapacity(path string) ([]model.TransferRow, error) {
	f, err := OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseTransferCapacity(f, path)
}

// ParseTransferCapacity reads comma separated capacity rows. A slot ending at
// 00:00 ends at midnight of the following day.
func ParseTransferCapacity(r io.Reader, name string) ([]model.TransferRow, error) {
	t, err := readTable(r, name, ',',
		colTransferDate, colTransferFrom, colTransferTo, colTransferAToB, colTransferBToA)
	if err != nil {
		return nil, err
	}
	out := make([]model.TransferRow, 0, len(t.rows))
	for i := range t.rows {
		date, err := t.time(i, colTransferDate, transferDateLayout)
		if err != nil {
			return nil, err
		}
		from, err := parseClock(t.get(i, colTransferFrom))
		if err != nil {
			return nil, t.errAt(i, colTransferFrom, err)
		}
		to, err := parseClock(t.get(i, colTransferTo))
		if err != nil {
			return nil, t.errAt(i, colTransferTo, err)
		}
		if to == 0 {
			to = 24 * time.Hour
		}
		if to <= from {
			return nil, t.errAt(i, colTransferTo, fmt.Errorf("slot ends at %s before it starts at %s", t.get(i, colTransferTo), t.get(i, colTransferFrom)))
		}
		row := model.TransferRow{Start: date.Add(from), End: date.Add(to)}
		if row.AToB, err = t.nonNegative(i, colTransferAToB, false); err != nil {
			return nil, err
		}
		if row.BToA, err = t.nonNegative(i, colTransferBToA, false); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, nil
}

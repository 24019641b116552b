package data

import (
	"fmt"
	"io"
	"time"

	"intraday-welfare/internal/model"
)

const (
	orderBookTimeLayout = "02/01/2006 15:04:05.000"
	orderBookDateLayout = "02/01/2006"
)

const (
	colSide               = "Side"
	colPrice              = "Price"
	colVolume             = "Volume"
	colExecutionPrice     = "Execution Price"
	colExecutedVolume     = "Executed Volume"
	colInstrumentType     = "Instrument Type"
	colIsExecuted         = "Is Executed"
	colStartValidity      = "Start Validity Date"
	colEndValidity        = "End Validity Date"
	colCancellingDate     = "Cancelling Date"
	colDeliveryDate       = "Delivery Date"
	colDeliveryInstrument = "Delivery Instrument"
	colOrderID            = "Order ID"
	colInitialID          = "Initial ID"
	colParentID           = "Parent ID"
	colIsBlock            = "Is block"
)

// ReadOrderBook loads one day of the intraday order book.
func ReadOrderBook(path string) ([]model.OrderEvent, error) {
	f, err := OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseOrderBook(f, path)
}

// ParseOrderBook reads a semicolon separated, decimal comma order book. The
// delivery instrument column holds the product's END time of day; delivery
// start is derived from it and the instrument duration. RowID is the 0-based
// data row index.
func ParseOrderBook(r io.Reader, name string) ([]model.OrderEvent, error) {
	t, err := readTable(r, name, ';',
		colSide, colExecutionPrice, colExecutedVolume, colInstrumentType, colIsExecuted,
		colEndValidity, colDeliveryDate, colDeliveryInstrument)
	if err != nil {
		return nil, err
	}

	out := make([]model.OrderEvent, 0, len(t.rows))
	for i := range t.rows {
		o, err := parseOrderRow(t, i)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, nil
}

func parseOrderRow(t *table, i int) (model.OrderEvent, error) {
	o := model.OrderEvent{
		RowID:     i,
		OrderID:   t.get(i, colOrderID),
		InitialID: t.get(i, colInitialID),
		ParentID:  t.get(i, colParentID),
	}
	var err error

	if o.Side, err = model.ParseSide(t.get(i, colSide)); err != nil {
		return o, t.errAt(i, colSide, err)
	}
	if o.Instrument, err = model.ParseInstrument(t.get(i, colInstrumentType)); err != nil {
		return o, t.errAt(i, colInstrumentType, err)
	}
	if t.get(i, colPrice) != "" {
		if o.Price, err = t.float(i, colPrice, true); err != nil {
			return o, err
		}
	}
	if t.get(i, colVolume) != "" {
		if o.Volume, err = t.float(i, colVolume, true); err != nil {
			return o, err
		}
	}
	// unexecuted rows may leave execution fields blank
	if o.IsExecuted, err = parseFlag(t.get(i, colIsExecuted)); err != nil {
		return o, t.errAt(i, colIsExecuted, err)
	}
	if t.get(i, colExecutionPrice) != "" {
		if o.ExecutionPrice, err = t.float(i, colExecutionPrice, true); err != nil {
			return o, err
		}
	}
	if t.get(i, colExecutedVolume) != "" {
		if o.ExecutedVolume, err = t.float(i, colExecutedVolume, true); err != nil {
			return o, err
		}
	}
	if o.IsBlock, err = parseFlag(t.get(i, colIsBlock)); err != nil {
		return o, t.errAt(i, colIsBlock, err)
	}

	if o.StartValidity, err = t.optionalTime(i, colStartValidity, orderBookTimeLayout); err != nil {
		return o, err
	}
	if o.EndValidity, err = t.time(i, colEndValidity, orderBookTimeLayout); err != nil {
		return o, err
	}
	if o.CancellingDate, err = t.optionalTime(i, colCancellingDate, orderBookTimeLayout); err != nil {
		return o, err
	}

	date, err := t.time(i, colDeliveryDate, orderBookDateLayout)
	if err != nil {
		return o, err
	}
	end, err := parseClock(t.get(i, colDeliveryInstrument))
	if err != nil {
		return o, t.errAt(i, colDeliveryInstrument, err)
	}
	start := end - o.Instrument.Duration()
	if start < 0 {
		return o, t.errAt(i, colDeliveryInstrument, fmt.Errorf("product ending %s starts before midnight", t.get(i, colDeliveryInstrument)))
	}
	o.DeliveryStart = date.Add(start)
	return o, nil
}

// DeliveryDay is the UTC calendar day an order book file covers.
func DeliveryDay(orders []model.OrderEvent) (time.Time, bool) {
	if len(orders) == 0 {
		return time.Time{}, false
	}
	d := orders[0].DeliveryStart.UTC()
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC), true
}

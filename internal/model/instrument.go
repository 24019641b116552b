package model

import (
	"fmt"
	"time"
)

// Instrument is the delivery product granularity.
type Instrument string

const (
	InstrumentQuarterHour Instrument = "Quarter Hour"
	InstrumentHalfHour    Instrument = "Half Hour"
	InstrumentHour        Instrument = "Hour"
)

func ParseInstrument(s string) (Instrument, error) {
	switch Instrument(s) {
	case InstrumentQuarterHour, InstrumentHalfHour, InstrumentHour:
		return Instrument(s), nil
	}
	return "", fmt.Errorf("unknown instrument type %q", s)
}

// InstrumentFromHours maps a product duration in hours (0.25, 0.5, 1) to an instrument.
func InstrumentFromHours(h float64) (Instrument, error) {
	switch h {
	case 0.25:
		return InstrumentQuarterHour, nil
	case 0.5:
		return InstrumentHalfHour, nil
	case 1:
		return InstrumentHour, nil
	}
	return "", fmt.Errorf("unsupported instrument duration %vh", h)
}

// Multiplier is the number of products per hour: 1, 2 or 4.
// It also converts an executed energy volume (MWh) into the power (MW)
// held over the product's delivery period.
func (i Instrument) Multiplier() int {
	switch i {
	case InstrumentHour:
		return 1
	case InstrumentHalfHour:
		return 2
	case InstrumentQuarterHour:
		return 4
	default:
		return 0
	}
}

func (i Instrument) Duration() time.Duration {
	m := i.Multiplier()
	if m == 0 {
		return 0
	}
	return time.Hour / time.Duration(m)
}

// Window is a half-open time interval [Start, End).
type Window struct {
	Start time.Time
	End   time.Time
}

// DeliveryWindow returns the delivery period of a product starting at start.
func DeliveryWindow(start time.Time, inst Instrument) Window {
	return Window{Start: start, End: start.Add(inst.Duration())}
}

// Contains reports whether [start, end) lies fully inside w.
func (w Window) Contains(start, end time.Time) bool {
	return !start.Before(w.Start) && !end.After(w.End)
}

func (w Window) String() string {
	return fmt.Sprintf("[%s, %s)", w.Start.Format(time.RFC3339), w.End.Format(time.RFC3339))
}

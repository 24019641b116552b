package data

import (
	"io"
	"time"

	"intraday-welfare/internal/model"
	"intraday-welfare/internal/pricing"

	"golang.org/x/text/encoding/charmap"
)

const (
	weeklyTimeLayout  = "02/01/2006 15:04"
	colWeekEnd        = "End Date"
	colWeekAverage    = "Average Weekly Price [Euro/MWh]"
	colWeekMaxPumping = "Max Weekly Pumping Price [Euro/MWh]"
)

// ReadWeeklyPrices loads the weekly hydro reference price table. The file is
// ISO-8859-1 encoded.
func ReadWeeklyPrices(path string) ([]model.WeeklyPrice, error) {
	f, err := OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseWeeklyPrices(charmap.ISO8859_1.NewDecoder().Reader(f), path)
}

// ParseWeeklyPrices reads already decoded weekly price rows sorted by end date.
func ParseWeeklyPrices(r io.Reader, name string) ([]model.WeeklyPrice, error) {
	t, err := readTable(r, name, ';', colWeekEnd, colWeekAverage)
	if err != nil {
		return nil, err
	}
	ends := make([]time.Time, len(t.rows))
	avg := make([]float64, len(t.rows))
	maxPumping := make([]float64, len(t.rows))
	for i := range t.rows {
		if ends[i], err = t.time(i, colWeekEnd, weeklyTimeLayout); err != nil {
			return nil, err
		}
		if avg[i], err = t.float(i, colWeekAverage, true); err != nil {
			return nil, err
		}
		if t.get(i, colWeekMaxPumping) != "" {
			if maxPumping[i], err = t.float(i, colWeekMaxPumping, true); err != nil {
				return nil, err
			}
		}
	}
	weeks, err := pricing.WeeksFromEnds(ends, avg, maxPumping)
	if err != nil {
		return nil, &ParseError{File: name, Err: err}
	}
	return weeks, nil
}

// Package pricing resolves the weekly hydro reference prices a transaction is
// judged against and rewrites execution prices once allocation is done.
package pricing

import (
	"fmt"
	"strings"
	"time"

	"intraday-welfare/internal/model"
)

// DefaultPumpingThreshold is the fraction of the weekly average price below
// which pumping is considered worthwhile.
const DefaultPumpingThreshold = 0.7

// Reference holds the two per-day reference prices in EUR/MWh.
type Reference struct {
	Selling float64
	Pumping float64
	Week    model.WeeklyPrice
}

// For returns the reference price of a direction.
func (r Reference) For(dir model.Direction) float64 {
	if dir == model.Pumping {
		return r.Pumping
	}
	return r.Selling
}

// Eligible reports whether price clears the direction's reference:
// selling needs price >= selling reference, pumping needs price <= pumping reference.
func (r Reference) Eligible(dir model.Direction, price float64) bool {
	if dir == model.Pumping {
		return price <= r.Pumping
	}
	return price >= r.Selling
}

// ReferenceNotFoundError is returned when zero or several weeks contain the
// requested instant.
type ReferenceNotFoundError struct {
	At      time.Time
	Matches int
}

func (e *ReferenceNotFoundError) Error() string {
	if e.Matches == 0 {
		return fmt.Sprintf("no weekly reference price covers %s", e.At.Format(time.RFC3339))
	}
	return fmt.Sprintf("%d weekly reference prices cover %s", e.Matches, e.At.Format(time.RFC3339))
}

type Resolver struct {
	Weeks            []model.WeeklyPrice
	PumpingThreshold float64
}

func NewResolver(weeks []model.WeeklyPrice, threshold float64) (*Resolver, error) {
	if err := ValidateThreshold(threshold); err != nil {
		return nil, err
	}
	return &Resolver{Weeks: weeks, PumpingThreshold: threshold}, nil
}

func ValidateThreshold(threshold float64) error {
	if threshold <= 0 || threshold > 1 {
		return fmt.Errorf("pumping threshold must be in (0, 1], got %v", threshold)
	}
	return nil
}

// Resolve finds the single week with Start <= at < End.
func (r *Resolver) Resolve(at time.Time) (Reference, error) {
	if err := ValidateThreshold(r.PumpingThreshold); err != nil {
		return Reference{}, err
	}
	var (
		found   model.WeeklyPrice
		matches int
	)
	for _, w := range r.Weeks {
		if w.Contains(at) {
			found = w
			matches++
		}
	}
	if matches != 1 {
		return Reference{}, &ReferenceNotFoundError{At: at, Matches: matches}
	}
	return Reference{
		Selling: found.AveragePrice,
		Pumping: r.PumpingThreshold * found.AveragePrice,
		Week:    found,
	}, nil
}

// WeeksFromEnds builds week intervals from their end dates. Each week starts
// seven days before its end, except the last one which starts where the
// previous week ended. Rows must be sorted by end.
func WeeksFromEnds(ends []time.Time, avg, maxPumping []float64) ([]model.WeeklyPrice, error) {
	if len(ends) != len(avg) || len(ends) != len(maxPumping) {
		return nil, fmt.Errorf("weekly price columns differ in length: %d/%d/%d", len(ends), len(avg), len(maxPumping))
	}
	out := make([]model.WeeklyPrice, len(ends))
	for i, end := range ends {
		start := end.AddDate(0, 0, -7)
		if i > 0 && i == len(ends)-1 {
			start = ends[i-1]
		}
		if i > 0 && !end.After(ends[i-1]) {
			return nil, fmt.Errorf("weekly price row %d: end %s not after %s", i, end.Format(time.RFC3339), ends[i-1].Format(time.RFC3339))
		}
		out[i] = model.WeeklyPrice{Start: start, End: end, AveragePrice: avg[i], MaxPumpingPrice: maxPumping[i]}
	}
	return out, nil
}

func (r Reference) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "selling %.2f pumping %.2f", r.Selling, r.Pumping)
	if !r.Week.End.IsZero() {
		fmt.Fprintf(&b, " week %s", model.Window{Start: r.Week.Start, End: r.Week.End})
	}
	return b.String()
}

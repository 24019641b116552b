package pricing

import (
	"errors"
	"testing"
	"time"

	"intraday-welfare/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time { return time.Date(y, m, d, 0, 0, 0, 0, time.UTC) }

func testWeeks(t *testing.T) []model.WeeklyPrice {
	t.Helper()
	weeks, err := WeeksFromEnds(
		[]time.Time{day(2019, 9, 23), day(2019, 9, 30), day(2019, 10, 7), day(2019, 10, 10)},
		[]float64{40, 50, 60, 70},
		[]float64{30, 35, 45, 55},
	)
	require.NoError(t, err)
	return weeks
}

func TestWeeksFromEndsShiftsLastRow(t *testing.T) {
	weeks := testWeeks(t)
	assert.Equal(t, day(2019, 9, 16), weeks[0].Start)
	assert.Equal(t, day(2019, 9, 23), weeks[1].Start)
	// the final row starts at the previous end, not seven days back
	assert.Equal(t, day(2019, 10, 7), weeks[3].Start)
	assert.Equal(t, day(2019, 10, 10), weeks[3].End)
}

func TestWeeksFromEndsRejectsUnsorted(t *testing.T) {
	_, err := WeeksFromEnds([]time.Time{day(2019, 9, 30), day(2019, 9, 23)}, []float64{1, 2}, []float64{1, 2})
	assert.Error(t, err)
}

func TestResolveHalfOpenWeek(t *testing.T) {
	r, err := NewResolver(testWeeks(t), 0.7)
	require.NoError(t, err)

	ref, err := r.Resolve(day(2019, 9, 30).Add(14 * time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 60.0, ref.Selling)
	assert.InDelta(t, 42.0, ref.Pumping, 1e-9)

	// the end instant belongs to the following week
	ref, err = r.Resolve(day(2019, 9, 30))
	require.NoError(t, err)
	assert.Equal(t, 60.0, ref.Selling)

	ref, err = r.Resolve(day(2019, 9, 29).Add(23 * time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 50.0, ref.Selling)
}

func TestResolveNotFound(t *testing.T) {
	r, err := NewResolver(testWeeks(t), DefaultPumpingThreshold)
	require.NoError(t, err)

	_, err = r.Resolve(day(2020, 1, 1))
	var nf *ReferenceNotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, 0, nf.Matches)
	assert.Equal(t, day(2020, 1, 1), nf.At)
}

func TestResolveAmbiguous(t *testing.T) {
	weeks := []model.WeeklyPrice{
		{Start: day(2019, 9, 23), End: day(2019, 9, 30), AveragePrice: 50},
		{Start: day(2019, 9, 25), End: day(2019, 10, 2), AveragePrice: 55},
	}
	r := &Resolver{Weeks: weeks, PumpingThreshold: 0.7}

	_, err := r.Resolve(day(2019, 9, 26))
	var nf *ReferenceNotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, 2, nf.Matches)
}

func TestThresholdValidation(t *testing.T) {
	for _, th := range []float64{0, -0.1, 1.01} {
		_, err := NewResolver(nil, th)
		assert.Error(t, err, "threshold %v", th)
	}
	_, err := NewResolver(nil, 1)
	assert.NoError(t, err)
}

func TestReferenceEligibility(t *testing.T) {
	ref := Reference{Selling: 50, Pumping: 35}
	assert.True(t, ref.Eligible(model.Selling, 50))
	assert.False(t, ref.Eligible(model.Selling, 49.99))
	assert.True(t, ref.Eligible(model.Pumping, 35))
	assert.False(t, ref.Eligible(model.Pumping, 35.01))
	// between the two references nothing is eligible
	assert.False(t, ref.Eligible(model.Selling, 40))
	assert.False(t, ref.Eligible(model.Pumping, 40))
}

func TestAPosterioriPrice(t *testing.T) {
	ref := Reference{Selling: 50, Pumping: 35}
	cases := []struct {
		name       string
		sell, pump int
		want       float64
	}{
		{"selling only", 1, 0, 50},
		{"pumping only", 0, 1, 35},
		{"neither", 0, 0, 42},
		{"both", 1, 1, 42},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, APosterioriPrice(tc.sell, tc.pump, ref, 42))
		})
	}
}

func TestAPosterioriPriceIsIdempotent(t *testing.T) {
	ref := Reference{Selling: 50, Pumping: 35}
	for _, flags := range [][2]int{{1, 0}, {0, 1}, {0, 0}, {1, 1}} {
		once := APosterioriPrice(flags[0], flags[1], ref, 42)
		twice := APosterioriPrice(flags[0], flags[1], ref, once)
		assert.Equal(t, once, twice)
	}
}

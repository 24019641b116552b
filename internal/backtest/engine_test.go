package backtest

import (
	"bytes"
	"io/fs"
	"math"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"intraday-welfare/internal/capacity"
	"intraday-welfare/internal/model"
	"intraday-welfare/internal/pricing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2019, 9, 30, 15, 0, 0, 0, time.UTC)

var testRef = pricing.Reference{Selling: 40, Pumping: 28}

// quarterTable builds quarter-hour slots starting at each offset with the same
// value in both directions.
func quarterTable(t *testing.T, name string, value float64, offsets ...time.Duration) *capacity.Table {
	t.Helper()
	var slots []capacity.Slot
	for _, off := range offsets {
		start := t0.Add(off)
		slots = append(slots, capacity.Slot{
			Start:    start,
			End:      start.Add(15 * time.Minute),
			Original: [2]float64{value, value},
		})
	}
	tbl, err := capacity.NewTable(name, slots)
	require.NoError(t, err)
	return tbl
}

func tx(deliveryOffset time.Duration, price, volume float64, at time.Duration) model.Transaction {
	return model.Transaction{
		TransactionTime: t0.Add(at),
		DeliveryStart:   t0.Add(deliveryOffset),
		Instrument:      model.InstrumentQuarterHour,
		ExecutionPrice:  price,
		ExecutedVolume:  volume,
		LeadTime:        deliveryOffset - at,
	}
}

func newDay(t *testing.T, transfer, ramp *capacity.Table, txs ...model.Transaction) Day {
	t.Helper()
	from, to := t0.Add(-15*time.Hour), t0.Add(9*time.Hour)
	return Day{
		Date:         time.Date(2019, 9, 30, 0, 0, 0, 0, time.UTC),
		Transactions: txs,
		Transfer:     transfer.Ledger(from, to),
		Ramp:         ramp.Ledger(from, to),
		Reference:    testRef,
	}
}

func TestRunSellingScenario(t *testing.T) {
	transfer := quarterTable(t, "transfer", 50, 0, time.Hour)
	ramp := quarterTable(t, "ramp", 100, 0, time.Hour)
	day := newDay(t, transfer, ramp,
		tx(time.Hour, 50, 5, 10*time.Minute), // 20 MW at 16:00
		tx(0, 55, 6.25, -40*time.Minute),     // 25 MW at 15:00
		tx(0, 60, 7.5, -45*time.Minute),      // 30 MW at 15:00
	)

	res, err := New().Run(day)
	require.NoError(t, err)
	require.Len(t, res.Rows, 3)

	// rows come back in transaction time order
	first, second, third := res.Rows[0], res.Rows[1], res.Rows[2]
	assert.Equal(t, 60.0, first.Transaction.ExecutionPrice)
	assert.Equal(t, 55.0, second.Transaction.ExecutionPrice)
	assert.Equal(t, 50.0, third.Transaction.ExecutionPrice)

	assert.Equal(t, model.OutcomeMatched, first.Code[model.Selling])
	assert.Equal(t, model.OutcomeTransferShort, second.Code[model.Selling])
	assert.Equal(t, model.OutcomeMatched, third.Code[model.Selling])
	for _, r := range res.Rows {
		assert.Equal(t, model.OutcomeIneligible, r.Code[model.Pumping])
		assert.False(t, r.Possible[model.Pumping])
		assert.True(t, r.Possible[model.Selling])
	}

	// transfer pinned after the shortfall, ramp decremented by both
	assert.Equal(t, 0.0, res.Transfer[0].Remaining[model.Selling])
	assert.Equal(t, 45.0, res.Ramp[0].Remaining[model.Selling])
	assert.Equal(t, 30.0, res.Transfer[1].Remaining[model.Selling])
	assert.Equal(t, 80.0, res.Ramp[1].Remaining[model.Selling])
	// pumping side untouched
	assert.Equal(t, 50.0, res.Transfer[0].Remaining[model.Pumping])

	assert.Equal(t, 40.0, first.APosterioriPrice)
	assert.Equal(t, 55.0, second.APosterioriPrice)
	assert.Equal(t, 40.0, third.APosterioriPrice)

	tot := res.Totals[model.Selling]
	assert.Equal(t, 3, tot.Eligible)
	assert.Equal(t, 2, tot.Matched)
	assert.InDelta(t, 12.5, tot.MatchedVolume, 1e-9)
	assert.Equal(t, 1, tot.ByCode[model.OutcomeTransferShort])
	assert.Equal(t, 3, res.Totals[model.Pumping].ByCode[model.OutcomeIneligible])

	for i, r := range res.Rows {
		assert.Equal(t, i, r.Index)
	}
}

func TestRunPumpingServesCheapestFirst(t *testing.T) {
	transfer := quarterTable(t, "transfer", 30, 0)
	ramp := quarterTable(t, "ramp", 100, 0)
	day := newDay(t, transfer, ramp,
		tx(0, 20, 5, -50*time.Minute),
		tx(0, 10, 5, -40*time.Minute),
	)

	res, err := New().Run(day)
	require.NoError(t, err)

	assert.Equal(t, model.OutcomeTransferShort, res.Rows[0].Code[model.Pumping])
	assert.Equal(t, model.OutcomeMatched, res.Rows[1].Code[model.Pumping])
	assert.Equal(t, 28.0, res.Rows[1].APosterioriPrice)
	assert.Equal(t, 20.0, res.Rows[0].APosterioriPrice)
	assert.Equal(t, 60.0, res.Ramp[0].Remaining[model.Pumping])
}

func TestRunRampAndBothShort(t *testing.T) {
	transfer := quarterTable(t, "transfer", 100, 0, time.Hour)
	ramp := quarterTable(t, "ramp", 10, 0)
	day := newDay(t, transfer, ramp,
		tx(0, 70, 5, -45*time.Minute),         // ramp short
		tx(time.Hour, 70, 30, 15*time.Minute), // transfer short, ramp slot missing
	)

	res, err := New().Run(day)
	require.NoError(t, err)

	assert.Equal(t, model.OutcomeRampShort, res.Rows[0].Code[model.Selling])
	assert.Equal(t, 0.0, res.Ramp[0].Remaining[model.Selling])
	assert.Equal(t, 80.0, res.Transfer[0].Remaining[model.Selling])

	assert.Equal(t, model.OutcomeBothShort, res.Rows[1].Code[model.Selling])
	assert.Equal(t, 0.0, res.Transfer[1].Remaining[model.Selling])
	assert.Equal(t, 0, res.Rows[1].Binary(model.Selling))
}

func TestRunMissingSlotIsNoCapacity(t *testing.T) {
	transfer := quarterTable(t, "transfer", 100, time.Hour)
	ramp := quarterTable(t, "ramp", 100, 0)
	day := newDay(t, transfer, ramp, tx(0, 70, 1, -45*time.Minute))

	res, err := New().Run(day)
	require.NoError(t, err)
	assert.Equal(t, model.OutcomeTransferShort, res.Rows[0].Code[model.Selling])
	assert.Equal(t, 96.0, res.Ramp[0].Remaining[model.Selling])
}

func TestRunOutcomesAreExclusive(t *testing.T) {
	transfer := quarterTable(t, "transfer", 1000, 0)
	ramp := quarterTable(t, "ramp", 1000, 0)
	var txs []model.Transaction
	for p := 0.0; p <= 80; p += 4 {
		txs = append(txs, tx(0, p, 1, -45*time.Minute))
	}
	res, err := New().Run(newDay(t, transfer, ramp, txs...))
	require.NoError(t, err)
	for _, r := range res.Rows {
		both := r.Binary(model.Selling) == 1 && r.Binary(model.Pumping) == 1
		assert.False(t, both, "price %v matched both ways", r.Transaction.ExecutionPrice)
	}
}

func TestRunEmptyDay(t *testing.T) {
	transfer := quarterTable(t, "transfer", 10, 0)
	ramp := quarterTable(t, "ramp", 10, 0)
	res, err := New().Run(newDay(t, transfer, ramp))
	require.NoError(t, err)
	assert.Empty(t, res.Rows)
	assert.Len(t, res.Transfer, 1)
}

func TestRunRejectsMissingLedger(t *testing.T) {
	_, err := New().Run(Day{Reference: testRef})
	assert.Error(t, err)
}

func TestOutcomeFileRoundTrip(t *testing.T) {
	transfer := quarterTable(t, "transfer", 50, 0)
	ramp := quarterTable(t, "ramp", 100, 0)
	res, err := New().Run(newDay(t, transfer, ramp,
		tx(0, 60, 7.5, -45*time.Minute),
		tx(0, 20, 1, -44*time.Minute),
	))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteOutcomes(&buf, res.Rows))
	header := strings.SplitN(buf.String(), "\n", 2)[0]
	assert.Equal(t, strings.Join(OutcomeColumns, ","), header)
	assert.True(t, strings.HasPrefix(header, "End Validity Date,Delivery Start,Instrument Type"))
	assert.True(t, strings.HasSuffix(header, "A posteriori Execution Price"))

	rows, err := ParseOutcomes(&buf, "DE_20190930.csv")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, res.Rows[0].Code, rows[0].Code)
	assert.Equal(t, res.Rows[1].Code, rows[1].Code)
	assert.Equal(t, res.Rows[1].Possible, rows[1].Possible)
	assert.Equal(t, res.Rows[0].APosterioriPrice, rows[0].APosterioriPrice)
	assert.Equal(t, res.Rows[0].Transaction, rows[0].Transaction)
}

func TestRunRejectsNonPositiveVolume(t *testing.T) {
	transfer := quarterTable(t, "transfer", 50, 0)
	ramp := quarterTable(t, "ramp", 100, 0)

	for _, volume := range []float64{-5, 0, math.NaN()} {
		day := newDay(t, transfer, ramp, tx(0, 60, volume, -45*time.Minute))
		_, err := New().Run(day)
		require.Error(t, err, "volume %v", volume)

		// the ledgers are left as loaded
		for _, s := range day.Transfer.Snapshot() {
			assert.Equal(t, s.Original, s.Remaining)
		}
	}
}

func TestReadOutcomeCSVMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "DE_20190930.csv")
	_, err := ReadOutcomeCSV(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, fs.ErrNotExist)
	assert.Contains(t, err.Error(), path)
}

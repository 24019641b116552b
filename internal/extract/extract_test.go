package extract

import (
	"errors"
	"testing"
	"time"

	"intraday-welfare/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var delivery = time.Date(2019, 9, 30, 15, 0, 0, 0, time.UTC)

type orderOpt func(*model.OrderEvent)

func withLead(d time.Duration) orderOpt {
	return func(o *model.OrderEvent) { o.EndValidity = o.DeliveryStart.Add(-d) }
}

func withPrice(p float64) orderOpt { return func(o *model.OrderEvent) { o.ExecutionPrice = p } }

func withVolume(v float64) orderOpt { return func(o *model.OrderEvent) { o.ExecutedVolume = v } }

func unexecuted() orderOpt { return func(o *model.OrderEvent) { o.IsExecuted = false } }

func order(row int, side model.Side, opts ...orderOpt) model.OrderEvent {
	o := model.OrderEvent{
		RowID:          row,
		OrderID:        string(side) + "-" + time.Duration(row).String(),
		Side:           side,
		Instrument:     model.InstrumentQuarterHour,
		ExecutionPrice: 42,
		ExecutedVolume: 5,
		IsExecuted:     true,
		DeliveryStart:  delivery,
		EndValidity:    delivery.Add(-45 * time.Minute),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func TestFilterLeadTimeBoundsAreInclusive(t *testing.T) {
	orders := []model.OrderEvent{
		order(0, model.SideBuy, withLead(30*time.Minute)),
		order(1, model.SideSell, withLead(60*time.Minute)),
		order(2, model.SideBuy, withLead(29*time.Minute)),
		order(3, model.SideSell, withLead(61*time.Minute)),
		order(4, model.SideBuy, unexecuted()),
		order(5, model.SideSell, withVolume(0)),
	}
	eligible, unbounded := FilterLeadTime(orders, DefaultLeadTimeWindow())
	require.Len(t, eligible, 2)
	assert.Equal(t, 0, eligible[0].RowID)
	assert.Equal(t, 1, eligible[1].RowID)
	assert.False(t, unbounded)
}

func TestFilterLeadTimeFlagsUnboundedDay(t *testing.T) {
	orders := []model.OrderEvent{
		order(0, model.SideBuy, withVolume(5)),
		order(1, model.SideSell, withVolume(4)),
	}
	_, unbounded := FilterLeadTime(orders, DefaultLeadTimeWindow())
	assert.True(t, unbounded)
}

func TestExtractPairsBuyAndSell(t *testing.T) {
	orders := []model.OrderEvent{
		order(7, model.SideSell),
		order(3, model.SideBuy),
		order(10, model.SideBuy, withPrice(50), withVolume(2)),
		order(11, model.SideSell, withPrice(50), withVolume(2)),
	}
	txs, rep, err := Extract(orders, false, ModeLenient)
	require.NoError(t, err)
	require.Len(t, txs, 2)

	assert.Equal(t, 3, txs[0].BuyRowID)
	assert.Equal(t, 7, txs[0].SellRowID)
	assert.Equal(t, 42.0, txs[0].ExecutionPrice)
	assert.Equal(t, 45*time.Minute, txs[0].LeadTime)
	assert.Equal(t, delivery.Add(-45*time.Minute), txs[0].TransactionTime)

	assert.Equal(t, 10, txs[1].BuyRowID)
	assert.Equal(t, 11, txs[1].SellRowID)
	assert.Equal(t, 2, rep.PairedGroups)
	assert.Zero(t, rep.DroppedGroups)
}

func TestExtractBoundedDayCountsEveryRow(t *testing.T) {
	// a balanced n-to-n group pairs in row order on a bounded day
	var orders []model.OrderEvent
	for i := 0; i < 3; i++ {
		orders = append(orders, order(i, model.SideBuy), order(10+i, model.SideSell))
	}
	orders = append(orders, order(20, model.SideBuy, withPrice(60)), order(21, model.SideSell, withPrice(60)))

	eligible, unbounded := FilterLeadTime(orders, DefaultLeadTimeWindow())
	require.False(t, unbounded)
	txs, _, err := Extract(eligible, unbounded, ModeStrict)
	require.NoError(t, err)

	assert.Equal(t, len(eligible), 2*len(txs))
	for i, tx := range txs[:3] {
		assert.Equal(t, i, tx.BuyRowID)
		assert.Equal(t, 10+i, tx.SellRowID)
	}
}

func TestExtractUnboundedDayDropsProblematicGroups(t *testing.T) {
	orders := []model.OrderEvent{
		// clean 1:1 group
		order(0, model.SideBuy),
		order(1, model.SideSell),
		// one-sided group
		order(2, model.SideBuy, withPrice(70)),
		// 2:2 group is not exactly one buy and one sell
		order(3, model.SideBuy, withPrice(80)),
		order(4, model.SideBuy, withPrice(80)),
		order(5, model.SideSell, withPrice(80)),
		order(6, model.SideSell, withPrice(80)),
		// 2:1 group
		order(7, model.SideBuy, withPrice(90)),
		order(8, model.SideBuy, withPrice(90)),
		order(9, model.SideSell, withPrice(90)),
	}
	eligible, unbounded := FilterLeadTime(orders, DefaultLeadTimeWindow())
	require.True(t, unbounded)

	txs, rep, err := Extract(eligible, unbounded, ModeLenient)
	require.NoError(t, err)
	require.Len(t, txs, 1)
	assert.Equal(t, 0, txs[0].BuyRowID)
	assert.Equal(t, 1, txs[0].SellRowID)
	assert.Equal(t, 3, rep.DroppedGroups)
	assert.Equal(t, 8, rep.DroppedRows)
}

func TestExtractStrictModeRejectsUnbalancedGroup(t *testing.T) {
	orders := []model.OrderEvent{
		order(0, model.SideBuy),
		order(1, model.SideSell),
		order(2, model.SideBuy, withPrice(70)),
	}
	_, _, err := Extract(orders, true, ModeStrict)
	require.Error(t, err)

	var ue *UnbalancedDayError
	require.True(t, errors.As(err, &ue))
	assert.Equal(t, 1, ue.Buys)
	assert.Equal(t, 0, ue.Sells)
	assert.Equal(t, 70.0, ue.Group.ExecutionPrice)
}

func TestExtractPairsShareSignature(t *testing.T) {
	var orders []model.OrderEvent
	prices := []float64{10, 20, 20, 35.5, 99}
	for i, p := range prices {
		orders = append(orders,
			order(2*i, model.SideBuy, withPrice(p), withVolume(float64(i+1))),
			order(2*i+1, model.SideSell, withPrice(p), withVolume(float64(i+1))),
		)
	}
	txs, _, err := Extract(orders, false, ModeLenient)
	require.NoError(t, err)

	byRow := map[int]model.OrderEvent{}
	for _, o := range orders {
		byRow[o.RowID] = o
	}
	for _, tx := range txs {
		b, s := byRow[tx.BuyRowID], byRow[tx.SellRowID]
		assert.Equal(t, model.SideBuy, b.Side)
		assert.Equal(t, model.SideSell, s.Side)
		assert.Equal(t, b.ExecutedVolume, s.ExecutedVolume)
		assert.Equal(t, b.ExecutionPrice, s.ExecutionPrice)
	}
}

func TestParseMode(t *testing.T) {
	m, err := ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, ModeLenient, m)

	m, err = ParseMode("Strict")
	require.NoError(t, err)
	assert.Equal(t, ModeStrict, m)

	_, err = ParseMode("fuzzy")
	assert.Error(t, err)
}

package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstrumentMultiplierAndDuration(t *testing.T) {
	cases := []struct {
		inst Instrument
		mult int
		dur  time.Duration
	}{
		{InstrumentHour, 1, time.Hour},
		{InstrumentHalfHour, 2, 30 * time.Minute},
		{InstrumentQuarterHour, 4, 15 * time.Minute},
		{Instrument("Block"), 0, 0},
	}
	for _, tc := range cases {
		t.Run(string(tc.inst), func(t *testing.T) {
			assert.Equal(t, tc.mult, tc.inst.Multiplier())
			assert.Equal(t, tc.dur, tc.inst.Duration())
		})
	}
}

func TestInstrumentFromHours(t *testing.T) {
	inst, err := InstrumentFromHours(0.25)
	require.NoError(t, err)
	assert.Equal(t, InstrumentQuarterHour, inst)

	_, err = InstrumentFromHours(2)
	assert.Error(t, err)
}

func TestWindowContains(t *testing.T) {
	t0 := time.Date(2019, 9, 30, 15, 0, 0, 0, time.UTC)
	w := DeliveryWindow(t0, InstrumentHalfHour)

	assert.True(t, w.Contains(t0, t0.Add(15*time.Minute)))
	assert.True(t, w.Contains(t0.Add(15*time.Minute), t0.Add(30*time.Minute)))
	// partial overlap is not containment
	assert.False(t, w.Contains(t0.Add(15*time.Minute), t0.Add(45*time.Minute)))
	assert.False(t, w.Contains(t0.Add(-15*time.Minute), t0.Add(15*time.Minute)))
}

func TestTransactionRequestedMW(t *testing.T) {
	tx := Transaction{ExecutedVolume: 7.5, Instrument: InstrumentQuarterHour}
	assert.InDelta(t, 30.0, tx.RequestedMW(), 1e-9)

	tx.Instrument = InstrumentHour
	assert.InDelta(t, 7.5, tx.RequestedMW(), 1e-9)
}

package model

import "time"

// TransferRow is one slot of the cross-border transfer capacity table.
// Values are MW.
type TransferRow struct {
	Start time.Time
	End   time.Time

	AToB float64 // CH->DE, used by selling
	BToA float64 // DE->CH, used by pumping
}

// RampRow is one sample of the plant's ramp potential at native resolution.
type RampRow struct {
	Time time.Time

	Upscale   float64 // MW, used by selling
	Downscale float64 // MW, used by pumping

	MaxGeneration float64
	MinGeneration float64
}

// WeeklyPrice is one row of the weekly hydro reference price table.
// The week covers [Start, End).
type WeeklyPrice struct {
	Start time.Time
	End   time.Time

	AveragePrice    float64 // EUR/MWh
	MaxPumpingPrice float64 // EUR/MWh
}

func (w WeeklyPrice) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

package model

import "time"

// Transaction is a closed round trip: one buy order matched with one sell order
// sharing delivery start, execution price and executed volume.
type Transaction struct {
	// TransactionTime is the end-of-validity timestamp shared by both sides.
	TransactionTime time.Time
	DeliveryStart   time.Time
	Instrument      Instrument

	ExecutionPrice float64 // EUR/MWh
	ExecutedVolume float64 // MWh

	LeadTime time.Duration

	BuyRowID    int
	SellRowID   int
	BuyOrderID  string
	SellOrderID string
}

func (t Transaction) Window() Window {
	return DeliveryWindow(t.DeliveryStart, t.Instrument)
}

// RequestedMW is the power a transaction needs on every slot of its window.
func (t Transaction) RequestedMW() float64 {
	return t.ExecutedVolume * float64(t.Instrument.Multiplier())
}

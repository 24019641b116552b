package model

import "time"

// OrderEvent is one row of the raw intraday order book.
// Timestamps are UTC. Volumes are MWh, prices EUR/MWh.
type OrderEvent struct {
	// RowID is the 0-based data row position in the source file. It is the
	// stable identity used to refer back to the order from a transaction.
	RowID int

	OrderID   string
	InitialID string
	ParentID  string
	IsBlock   bool

	Side       Side
	Instrument Instrument

	Price  float64
	Volume float64

	ExecutionPrice float64
	ExecutedVolume float64
	IsExecuted     bool

	DeliveryStart  time.Time
	StartValidity  time.Time
	EndValidity    time.Time
	CancellingDate time.Time
}

// LeadTime is the gap between the end of the order's validity and delivery start.
func (o OrderEvent) LeadTime() time.Duration {
	return o.DeliveryStart.Sub(o.EndValidity)
}

package model

import "fmt"

// Side is the order-book side of an order event.
// Keep these values stable; they match the order-book files.
type Side string

const (
	SideBuy  Side = "B"
	SideSell Side = "S"
)

func ParseSide(s string) (Side, error) {
	switch s {
	case "B", "Buy", "BUY":
		return SideBuy, nil
	case "S", "Sell", "SELL":
		return SideSell, nil
	default:
		return "", fmt.Errorf("unknown side %q", s)
	}
}

// Direction is a cross-border flow direction between the two market areas.
// Selling is A->B (CH->DE), backed by the plant's upscale potential.
// Pumping is B->A (DE->CH), backed by the plant's downscale potential.
//
// Direction values index per-direction arrays, so keep them dense.
type Direction int

const (
	Selling Direction = iota
	Pumping
)

// Directions lists flow directions in allocation pass order.
var Directions = [2]Direction{Pumping, Selling}

func (d Direction) String() string {
	switch d {
	case Selling:
		return "selling"
	case Pumping:
		return "pumping"
	default:
		return fmt.Sprintf("direction(%d)", int(d))
	}
}

// Flow returns the area-to-area label used in reports.
func (d Direction) Flow() string {
	if d == Selling {
		return "CH-DE"
	}
	return "DE-CH"
}

package pricing

// APosterioriPrice is the price a transaction settles at once the allocation
// outcome is known. A transaction matched in exactly one direction takes that
// direction's reference; anything else keeps its execution price.
func APosterioriPrice(sellingBinary, pumpingBinary int, ref Reference, executionPrice float64) float64 {
	switch {
	case sellingBinary == 1 && pumpingBinary == 0:
		return ref.Selling
	case pumpingBinary == 1 && sellingBinary == 0:
		return ref.Pumping
	default:
		return executionPrice
	}
}

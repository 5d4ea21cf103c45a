package repository

import "math"

// NormalizeQty brings a requested quantity to the 0.001 resolution the stall
// sells at (weight items are priced per kg). Non-finite input falls back to
// 1, and anything that rounds to zero or below also becomes 1, so a tap on
// "add" always adds something.
func NormalizeQty(qty float64) float64 {
	if math.IsNaN(qty) || math.IsInf(qty, 0) {
		return 1
	}
	fixed := math.Round(qty*1000) / 1000
	if fixed <= 0 {
		return 1
	}
	return fixed
}

// Cents rounds a currency amount to whole cents. Payment splits are compared
// in cents to avoid float drift on the equality check.
func Cents(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

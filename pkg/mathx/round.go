package mathx

import (
	"math"

	"github.com/shopspring/decimal"
)

// Precision of the published figures.
const (
	ExpectedStatPlaces = 2 // xG, xGA, xA
	ExpectedPtsPlaces  = 1 // xPTS
	PercentPlaces      = 2 // probabilities, edge, stake
)

// Round rounds v half away from zero to the given decimal places.
// Decimal arithmetic keeps values such as 1.005 from drifting under float rounding.
func Round(v float64, places int32) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}

// Round2 rounds to two decimal places.
func Round2(v float64) float64 { return Round(v, 2) }

// Round1 rounds to one decimal place.
func Round1(v float64) float64 { return Round(v, 1) }

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Sub returns a-b in decimal arithmetic, so two 2dp operands give an exact 2dp result.
func Sub(a, b float64) float64 {
	if math.IsNaN(a) || math.IsNaN(b) || math.IsInf(a, 0) || math.IsInf(b, 0) {
		return a - b
	}
	return decimal.NewFromFloat(a).Sub(decimal.NewFromFloat(b)).InexactFloat64()
}

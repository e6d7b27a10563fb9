package domain

import (
	"math"

	"github.com/shopspring/decimal"
)

// Round rounds v to places decimal digits, resolving ties to the even neighbour.
// NaN and infinities are returned unchanged.
func Round(v float64, places int32) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	f, _ := decimal.NewFromFloat(v).RoundBank(places).Float64()
	return f
}

// Ratio divides num by den and rounds to places digits. ok is false when den is zero.
func Ratio(num, den float64, places int32) (value float64, ok bool) {
	if den == 0 {
		return 0, false
	}
	return decimal.NewFromFloat(num).DivRound(decimal.NewFromFloat(den), 16).RoundBank(places).InexactFloat64(), true
}

package trade

import (
	"math"

	"github.com/shopspring/decimal"
)

// BuyQty is how many whole units the capital amount buys at the given
// exchange rate.
func BuyQty(amount, rate float64) float64 {
	if rate <= 0 {
		return 0
	}
	return math.Round(amount / rate)
}

// SellQty is the sellable quantity for the capital amount: the bought
// quantity scaled down by the fee factor, rounded to two decimals.
func SellQty(amount, rate, feeFactor float64) float64 {
	if rate <= 0 {
		return 0
	}
	q := decimal.NewFromFloat(amount / rate).Mul(decimal.NewFromFloat(feeFactor))
	return q.Round(2).InexactFloat64()
}

// SellPrice is the reference price scaled by the ROI multiplier, rounded
// to the pair's price precision.
func SellPrice(reference, roi float64, precision int) float64 {
	p := decimal.NewFromFloat(reference).Mul(decimal.NewFromFloat(roi))
	return p.Round(int32(precision)).InexactFloat64()
}

package models

import "github.com/shopspring/decimal"

// DecimalOdds converts an American moneyline to decimal odds.
// A zero (unknown) moneyline yields 1, which has no payout.
func DecimalOdds(moneyline float64) float64 {
	if moneyline >= 0 {
		return moneyline/100 + 1
	}
	return 100/-moneyline + 1
}

// Kelly returns the stake fraction for a side with the given moneyline and win probability p:
// f = (d*p - (1-p)) / (d-1). Unfavorable or undefined stakes are reported as 0.
// The result is rounded to two decimals.
func Kelly(moneyline, p float64) float64 {
	d := DecimalOdds(moneyline)
	if d-1 == 0 {
		return 0
	}
	f := (d*p - (1 - p)) / (d - 1)
	if f <= 0 {
		return 0
	}
	return decimal.NewFromFloat(f).Round(2).InexactFloat64()
}

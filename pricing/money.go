// Package pricing implements the pure price computation engine: cost
// aggregation, channel parameter resolution, freight and fee rule
// evaluation and the fixed-point price solver.
package pricing

import (
	"github.com/shopspring/decimal"
)

var (
	Hundred = decimal.NewFromInt(100)

	halfUnit   = decimal.RequireFromString("0.50")
	tenCents   = decimal.RequireFromString("0.10")
	markupZero = decimal.Zero
)

// Markup returns 100 / (100 - Σ pcts), or zero when the denominator is not positive
func Markup(pcts ...decimal.Decimal) decimal.Decimal {
	denom := Hundred
	for _, p := range pcts {
		denom = denom.Sub(p)
	}
	if !denom.IsPositive() {
		return markupZero
	}
	return Hundred.Div(denom)
}

// CommercialRound applies the retail display convention: cents below 50
// drop to the previous whole unit minus 0.10, otherwise the value rounds to
// the nearest 0.10. The result never goes below zero.
//
//	52.30 -> 51.90, 52.97 -> 53.00, 10.00 -> 9.90, 10.50 -> 10.50, 0.40 -> 0.00
func CommercialRound(v decimal.Decimal) decimal.Decimal {
	whole := v.Floor()
	cents := v.Sub(whole)
	rounded := v.Round(1)
	if cents.LessThan(halfUnit) {
		rounded = whole.Sub(tenCents)
	}
	if rounded.IsNegative() {
		return decimal.Zero.Round(2)
	}
	return rounded.Round(2)
}

// RoundPrice rounds half-up to the given number of decimal places
func RoundPrice(v decimal.Decimal, places int32) decimal.Decimal {
	return v.Round(places)
}

func decOrZero(d *decimal.Decimal) decimal.Decimal {
	if d == nil {
		return decimal.Zero
	}
	return *d
}

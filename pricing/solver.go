package pricing

import (
	"github.com/shopspring/decimal"
)

const (
	// MaxSolverRounds bounds the fixed-point iteration
	MaxSolverRounds = 10

	// PricePrecision is used for stored prices
	PricePrecision int32 = 2
	// ReferencePrecision is used when a price becomes another channel's cost
	ReferencePrecision int32 = 6
)

// QuoteFunc maps a candidate price to a freight or fee amount
type QuoteFunc func(price decimal.Decimal) decimal.Decimal

// SolveInput describes one price equation
//
//	price = (cost + fee(price)) * markupTarget + freight(price) * markupFreight
type SolveInput struct {
	Cost          decimal.Decimal
	MarkupTarget  decimal.Decimal
	MarkupFreight decimal.Decimal
	Freight       QuoteFunc
	Fee           QuoteFunc
	// FixedFreight replaces the freight lookup when set
	FixedFreight *decimal.Decimal
	// Precision is the number of decimal places of every iterate; zero means PricePrecision
	Precision int32
}

// SolveResult is the last iterate of the solver
type SolveResult struct {
	Price     decimal.Decimal `json:"price"`
	Fee       decimal.Decimal `json:"fee"`
	Freight   decimal.Decimal `json:"freight"`
	Rounds    int             `json:"rounds"`
	Converged bool            `json:"converged"`
}

// Solve runs the fixed-point iteration. A round converges when the fee and
// freight recomputed at the new price equal the ones that produced it, so the
// following round would reproduce the same price. When the freight lookup
// falls to zero from a positive value the previous freight is kept. After
// MaxSolverRounds the last price is returned without error.
func Solve(in SolveInput) SolveResult {
	freightOf := in.Freight
	if freightOf == nil {
		freightOf = zeroQuote
	}
	feeOf := in.Fee
	if feeOf == nil {
		feeOf = zeroQuote
	}

	precision := in.Precision
	if precision <= 0 {
		precision = PricePrecision
	}

	fixed := in.FixedFreight != nil
	var freight decimal.Decimal
	if fixed {
		freight = *in.FixedFreight
	} else {
		freight = freightOf(decimal.Zero)
	}
	fee := decimal.Zero

	var price decimal.Decimal
	for round := 1; round <= MaxSolverRounds; round++ {
		price = in.Cost.Add(fee).Mul(in.MarkupTarget).
			Add(freight.Mul(in.MarkupFreight)).
			Round(precision)

		newFee := feeOf(price)
		newFreight := freight
		if !fixed {
			newFreight = freightOf(price)
			if newFreight.IsZero() && freight.IsPositive() {
				newFreight = freight
			}
		}

		if newFee.Equal(fee) && newFreight.Equal(freight) {
			return SolveResult{Price: price, Fee: fee, Freight: freight, Rounds: round, Converged: true}
		}
		fee, freight = newFee, newFreight
	}

	return SolveResult{Price: price, Fee: fee, Freight: freight, Rounds: MaxSolverRounds, Converged: false}
}

func zeroQuote(decimal.Decimal) decimal.Decimal {
	return decimal.Zero
}

package pricing

import (
	"sort"

	"github.com/amirphl/Kusanagi/models"
	"github.com/shopspring/decimal"
)

// FreightInput carries everything a freight table may key on
type FreightInput struct {
	Weight decimal.Decimal
	Price  decimal.Decimal
	Score  *int
	Dims   models.Dimensions
	Rating *int
}

// QuoteFreight evaluates a freight table. Special rules win outright; then the
// oversize or regular rule set is searched, the seller rating discount is
// applied and the add-on is added. A nil table or no matching rule yields zero.
func QuoteFreight(table *models.FreightTable, in FreightInput) decimal.Decimal {
	if table == nil {
		return decimal.Zero
	}

	if amount, ok := matchSpecialRule(table.SpecialRules, in); ok {
		return amount
	}

	oversize := table.OversizeEnabled && in.Dims.ExceedsOversize()

	var amount decimal.Decimal
	if table.Type.IsMatrix() {
		amount = matchMatrixRule(table, in, oversize)
	} else {
		amount = matchSimpleRule(table, in, oversize)
	}

	if table.SupportsRatingDiscount && in.Rating != nil {
		for _, d := range table.RatingDiscounts {
			if d.Rating == *in.Rating {
				amount = amount.Mul(Hundred.Sub(d.DiscountPercent)).Div(Hundred).Round(2)
				break
			}
		}
	}

	if table.AddOnEnabled {
		amount = amount.Add(table.AddOnAmount)
	}
	return amount
}

func matchSpecialRule(rules []models.FreightSpecialRule, in FreightInput) (decimal.Decimal, bool) {
	active := make([]*models.FreightSpecialRule, 0, len(rules))
	for i := range rules {
		if models.IsRowActive(rules[i].Active) {
			active = append(active, &rules[i])
		}
	}
	sort.SliceStable(active, func(i, j int) bool {
		if active[i].Order != active[j].Order {
			return active[i].Order < active[j].Order
		}
		return active[i].ID < active[j].ID
	})

	for _, r := range active {
		if atLeast(in.Dims.Width, r.MinWidth) &&
			atLeast(in.Dims.Height, r.MinHeight) &&
			atLeast(in.Dims.Depth, r.MinDepth) &&
			atLeast(in.Weight, r.MinWeight) {
			return r.Amount, true
		}
	}
	return decimal.Zero, false
}

func matchMatrixRule(table *models.FreightTable, in FreightInput, oversize bool) decimal.Decimal {
	byScore := table.Type == models.FreightTableWeightScore
	score := 0
	if in.Score != nil {
		score = *in.Score
	}

	candidates := make([]*models.FreightMatrixRule, 0, len(table.MatrixRules))
	for i := range table.MatrixRules {
		r := &table.MatrixRules[i]
		if models.IsRowActive(r.Active) && r.Oversize == oversize {
			candidates = append(candidates, r)
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.Order != b.Order {
			return a.Order < b.Order
		}
		if c := decOrZero(a.WeightStart).Cmp(decOrZero(b.WeightStart)); c != 0 {
			return c < 0
		}
		if byScore {
			return intOrZero(a.ScoreStart) < intOrZero(b.ScoreStart)
		}
		return decOrZero(a.PriceStart).LessThan(decOrZero(b.PriceStart))
	})

	for _, r := range candidates {
		if !inHalfOpen(in.Weight, r.WeightStart, r.WeightEnd) {
			continue
		}
		if byScore {
			if !inClosedInt(score, r.ScoreStart, r.ScoreEnd) {
				continue
			}
		} else if !inHalfOpen(in.Price, r.PriceStart, r.PriceEnd) {
			continue
		}
		return r.Amount
	}
	return decimal.Zero
}

func matchSimpleRule(table *models.FreightTable, in FreightInput, oversize bool) decimal.Decimal {
	axis := in.Weight
	if table.Type == models.FreightTableByPrice {
		axis = in.Price
	}

	candidates := make([]*models.FreightSimpleRule, 0, len(table.SimpleRules))
	for i := range table.SimpleRules {
		r := &table.SimpleRules[i]
		if models.IsRowActive(r.Active) && r.Oversize == oversize {
			candidates = append(candidates, r)
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.Order != b.Order {
			return a.Order < b.Order
		}
		return decOrZero(a.Start).LessThan(decOrZero(b.Start))
	})

	for _, r := range candidates {
		if inHalfOpen(axis, r.Start, r.End) {
			return r.Amount
		}
	}
	return decimal.Zero
}

// inHalfOpen tests v in [start, end); nil start is 0 and nil end is unbounded
func inHalfOpen(v decimal.Decimal, start, end *decimal.Decimal) bool {
	if v.LessThan(decOrZero(start)) {
		return false
	}
	if end != nil && v.GreaterThanOrEqual(*end) {
		return false
	}
	return true
}

// inClosedInt tests v in [start, end] on the integer score axis
func inClosedInt(v int, start, end *int) bool {
	if v < intOrZero(start) {
		return false
	}
	if end != nil && v > *end {
		return false
	}
	return true
}

func atLeast(v decimal.Decimal, threshold *decimal.Decimal) bool {
	return threshold == nil || v.GreaterThanOrEqual(*threshold)
}

func intOrZero(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}

package pricing

import (
	"sort"

	"github.com/amirphl/Kusanagi/models"
	"github.com/shopspring/decimal"
)

// QuoteFee returns the flat fee of the first active rule whose [start, end)
// contains price. Rules are tried by ascending start.
func QuoteFee(table *models.FeeTable, price decimal.Decimal) decimal.Decimal {
	if table == nil {
		return decimal.Zero
	}

	rules := make([]*models.FeeRule, 0, len(table.Rules))
	for i := range table.Rules {
		if models.IsRowActive(table.Rules[i].Active) {
			rules = append(rules, &table.Rules[i])
		}
	}
	sort.SliceStable(rules, func(i, j int) bool {
		return decOrZero(rules[i].PriceStart).LessThan(decOrZero(rules[j].PriceStart))
	})

	for _, r := range rules {
		if inHalfOpen(price, r.PriceStart, r.PriceEnd) {
			return r.Amount
		}
	}
	return decimal.Zero
}

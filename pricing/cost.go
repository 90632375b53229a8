package pricing

import (
	"github.com/amirphl/Kusanagi/models"
	"github.com/shopspring/decimal"
)

// ComputeCost sums the bill of materials of a product. Each line total is
// rounded to 3 decimals, the sum to 2. No line items yields zero.
func ComputeCost(product *models.Product) decimal.Decimal {
	if product == nil {
		return decimal.Zero
	}
	return SumLineItems(product.LineItems)
}

// SumLineItems aggregates line totals the same way ComputeCost does
func SumLineItems(items []models.LineItem) decimal.Decimal {
	total := decimal.Zero
	for i := range items {
		total = total.Add(items[i].TotalCost())
	}
	return total.Round(2)
}

// CostByType groups line totals by line item type, rounded to 2 decimals
func CostByType(product *models.Product) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal)
	if product == nil {
		return out
	}
	for i := range product.LineItems {
		li := &product.LineItems[i]
		out[li.Type] = out[li.Type].Add(li.TotalCost())
	}
	for k, v := range out {
		out[k] = v.Round(2)
	}
	return out
}

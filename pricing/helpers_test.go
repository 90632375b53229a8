package pricing

import (
	"testing"
	"time"

	"github.com/amirphl/Kusanagi/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

var testTime = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func dp(s string) *decimal.Decimal {
	v := d(s)
	return &v
}

func ip(v int) *int {
	return &v
}

func bp(v bool) *bool {
	return &v
}

func up(v uint) *uint {
	return &v
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	assert.True(t, d(want).Equal(got), append([]any{"want %s, got %s", want, got.String()}, msgAndArgs...)...)
}

// testProduct has a single line item of the given cost and a small box
func testProduct(cost string) *models.Product {
	return &models.Product{
		ID:             1,
		SKU:            "SKU-1",
		Width:          d("10"),
		Height:         d("10"),
		Depth:          d("10"),
		PhysicalWeight: d("1"),
		LineItems: []models.LineItem{
			{Type: models.LineItemTypeRawMaterial, Quantity: d("1"), UnitCost: d(cost), Multiplier: d("1")},
		},
	}
}

func flatFreightTable(id uint, amount string) *models.FreightTable {
	return &models.FreightTable{
		ID:   id,
		Name: "flat",
		Type: models.FreightTableByWeight,
		SimpleRules: []models.FreightSimpleRule{
			{ID: 1, Amount: d(amount)},
		},
	}
}

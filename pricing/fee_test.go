package pricing

import (
	"testing"

	"github.com/amirphl/Kusanagi/models"
)

func TestQuoteFee(t *testing.T) {
	table := &models.FeeTable{
		Rules: []models.FeeRule{
			{ID: 3, PriceStart: dp("50"), Amount: d("5")},
			{ID: 1, PriceEnd: dp("50"), Amount: d("2")},
			{ID: 2, Amount: d("100"), Active: bp(false)},
		},
	}

	tests := []struct {
		price string
		want  string
	}{
		{"0", "2"},
		{"49.99", "2"},
		{"50", "5"},
		{"1000", "5"},
	}
	for _, tt := range tests {
		t.Run(tt.price, func(t *testing.T) {
			assertDecimal(t, tt.want, QuoteFee(table, d(tt.price)))
		})
	}

	t.Run("NoTable", func(t *testing.T) {
		assertDecimal(t, "0", QuoteFee(nil, d("10")))
	})

	t.Run("NoMatch", func(t *testing.T) {
		gap := &models.FeeTable{Rules: []models.FeeRule{{ID: 1, PriceStart: dp("100"), PriceEnd: dp("200"), Amount: d("9")}}}
		assertDecimal(t, "0", QuoteFee(gap, d("99.99")))
		assertDecimal(t, "0", QuoteFee(gap, d("200")))
	})
}

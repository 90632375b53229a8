package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestMarkup(t *testing.T) {
	tests := []struct {
		name string
		pcts []string
		want string
	}{
		{name: "no percentages", pcts: nil, want: "1"},
		{name: "freight set", pcts: []string{"10", "2", "3"}, want: "1.1764705882352941"},
		{name: "sale set", pcts: []string{"10", "5", "20", "2", "3"}, want: "1.6666666666666667"},
		{name: "sum equal to 100", pcts: []string{"60", "40"}, want: "0"},
		{name: "sum above 100", pcts: []string{"70", "40"}, want: "0"},
		{name: "fractional", pcts: []string{"12.5", "12.5"}, want: "1.3333333333333333"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pcts := make([]decimal.Decimal, 0, len(tt.pcts))
			for _, p := range tt.pcts {
				pcts = append(pcts, d(p))
			}
			assertDecimal(t, tt.want, Markup(pcts...))
		})
	}
}

func TestCommercialRound(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"52.30", "51.90"},
		{"52.97", "53.00"},
		{"10.00", "9.90"},
		{"10.50", "10.50"},
		{"10.49", "9.90"},
		{"10.54", "10.50"},
		{"10.55", "10.60"},
		{"99.96", "100.00"},
		{"1.00", "0.90"},
		{"0.50", "0.50"},
		{"0.40", "0.00"},
		{"0", "0.00"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assertDecimal(t, tt.want, CommercialRound(d(tt.in)))
		})
	}
}

package cart

import "github.com/shopspring/decimal"

// Totals are the derived count and amount of a cart. Total is kept unrounded;
// round only when presenting it.
type Totals struct {
	Count int     `json:"count"`
	Total float64 `json:"total"`
}

// ComputeTotals sums quantities and line prices.
func ComputeTotals(lines []Line) Totals {
	var totals Totals
	for _, line := range lines {
		totals.Count += line.Quantity
		totals.Total += line.LineTotal()
	}
	return totals
}

// DisplayTotal renders the total rounded to cents.
func (t Totals) DisplayTotal() string {
	return FormatAmount(t.Total)
}

// RoundAmount rounds a currency amount half away from zero to two decimals.
func RoundAmount(amount float64) float64 {
	return decimal.NewFromFloat(amount).Round(2).InexactFloat64()
}

// FormatAmount renders a currency amount with exactly two decimals.
func FormatAmount(amount float64) string {
	return decimal.NewFromFloat(amount).StringFixed(2)
}

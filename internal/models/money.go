package models

import "github.com/shopspring/decimal"

func init() {
	// Amounts are serialized as JSON numbers, not strings
	decimal.MarshalJSONWithoutQuotes = true
}

// CentsToDecimal converts a stored cent amount to a decimal
func CentsToDecimal(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}

// DecimalToCents converts a decimal amount to whole cents.
// Callers validate precision first; anything beyond two places is rounded half away from zero.
func DecimalToCents(d decimal.Decimal) int64 {
	return d.Shift(2).Round(0).IntPart()
}

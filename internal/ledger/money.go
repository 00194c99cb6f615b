package ledger

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// Amount converts a float amount to a decimal using its shortest decimal
// representation, so 0.1 becomes exactly 0.1.
func Amount(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v)
}

// Float converts a decimal amount back to the nearest float64.
func Float(d decimal.Decimal) float64 {
	return d.InexactFloat64()
}

// Percent returns part as a percentage of whole, or zero when whole is zero.
func Percent(part, whole decimal.Decimal) decimal.Decimal {
	if whole.IsZero() {
		return decimal.Zero
	}
	return part.Mul(hundred).Div(whole)
}

package bid

import "github.com/shopspring/decimal"

// monetaryPrecision is the number of decimal places prices are compared at.
const monetaryPrecision int32 = 2

func toDecimal(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v).Round(monetaryPrecision)
}

// Exceeds returns true if amount is strictly greater than other at monetary precision
func Exceeds(amount, other float64) bool {
	return toDecimal(amount).GreaterThan(toDecimal(other))
}

// Meets returns true if amount is greater than or equal to floor at monetary precision
func Meets(amount, floor float64) bool {
	return toDecimal(amount).GreaterThanOrEqual(toDecimal(floor))
}

// Equal returns true if both amounts are the same at monetary precision
func Equal(amount, other float64) bool {
	return toDecimal(amount).Equal(toDecimal(other))
}

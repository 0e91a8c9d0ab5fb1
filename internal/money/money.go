// Package money centralizes the rounding policy for monetary results.
// Intermediate arithmetic stays unrounded; every value that leaves a
// computation for storage or display passes through RoundRupees exactly once.
package money

import "github.com/shopspring/decimal"

var Zero = decimal.Zero

// RoundRupees rounds to the nearest whole rupee, half away from zero.
func RoundRupees(d decimal.Decimal) decimal.Decimal {
	return d.Round(0)
}

// ClampNonNegative floors a value at zero. Used where the law treats a
// negative result (loss year, over-credited liability) as zero payable.
func ClampNonNegative(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// Min returns the smaller of two decimals.
func Min(a, b decimal.Decimal) decimal.Decimal {
	if a.LessThan(b) {
		return a
	}
	return b
}

// Percent applies p percent to base (p expressed as 15 for 15%).
func Percent(base, p decimal.Decimal) decimal.Decimal {
	return base.Mul(p).Div(decimal.NewFromInt(100))
}

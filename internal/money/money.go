// Package money holds the decimal helpers every price, fee and area goes
// through. Amounts are never accumulated as float64.
package money

import (
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// Tolerance is the absolute difference accepted between a client-submitted
// amount and the server recomputation.
var Tolerance = decimal.RequireFromString("0.01")

var hundred = decimal.NewFromInt(100)

// Parse converts a textual decimal into a Decimal. NaN, infinities and
// anything that is not a plain number are rejected.
func Parse(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, fmt.Errorf("empty amount")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return d, nil
}

// FromFloat converts a float64, rejecting NaN and infinities.
func FromFloat(f float64) (decimal.Decimal, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Zero, fmt.Errorf("amount is not finite")
	}
	return decimal.NewFromFloat(f), nil
}

// Round2 rounds to cents, half away from zero (0.005 -> 0.01).
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// Area returns width x height, both of which must be positive.
func Area(width, height decimal.Decimal) (decimal.Decimal, error) {
	if !width.IsPositive() || !height.IsPositive() {
		return decimal.Zero, fmt.Errorf("width and height must be positive")
	}
	return width.Mul(height), nil
}

// WithinTolerance reports whether |a - b| <= tol.
func WithinTolerance(a, b, tol decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(tol)
}

// ToCents converts an amount to integer minor units after rounding to cents.
func ToCents(d decimal.Decimal) int64 {
	return Round2(d).Mul(hundred).IntPart()
}

// Sum adds amounts.
func Sum(values ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}

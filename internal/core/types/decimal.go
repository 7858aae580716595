// Package types provides common type aliases and utilities.
package types

import (
	"github.com/shopspring/decimal"
)

// Money represents a monetary value with full precision.
// Uses decimal.Decimal to avoid floating-point errors.
type Money = decimal.Decimal

// NewMoney creates a Money value from a float.
// WARNING: Use NewMoneyFromString for precise values.
func NewMoney(f float64) Money {
	return decimal.NewFromFloat(f)
}

// NewMoneyFromString creates a Money value from a string.
// This is the preferred method for monetary values.
func NewMoneyFromString(s string) (Money, error) {
	return decimal.NewFromString(s)
}

// MustMoney creates a Money value from a string, panics on error.
// Use only for constants and tests.
func MustMoney(s string) Money {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Zero returns zero Money value.
func Zero() Money {
	return decimal.Zero
}

// Quantize rounds m to the given number of currency decimal digits.
// Rounding is half away from zero, matching NUMERIC(16,d) behavior of the
// relational store: Quantize(0.175, 2) == 0.18.
func Quantize(m Money, digits int32) Money {
	return m.Round(digits)
}

// Percentage applies pct percent to base at full precision.
// Callers quantize the result with the currency digits of their company.
func Percentage(base, pct Money) Money {
	return base.Mul(pct).Div(decimal.NewFromInt(100))
}

// Package moneypkg converts between decimal amount strings and fixed-point minor units.
//
// Balances and amounts are stored as int64 minor units (1.00 == 100) and never as floats.
package moneypkg

import (
	"errors"
	"math"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// Currency is the only currency the wallet operates in.
const Currency = "INR"

// Scale is the number of fractional digits of a minor unit.
const Scale = 2

var (
	// ErrMalformed indicates that the amount is not a decimal number.
	ErrMalformed = errors.New("malformed amount")
	// ErrTooPrecise indicates more fractional digits than the currency supports.
	ErrTooPrecise = errors.New("amount has more than 2 decimal places")
	// ErrOutOfRange indicates that the amount does not fit into minor units.
	ErrOutOfRange = errors.New("amount out of range")
	// ErrNotPositive indicates a zero or negative amount.
	ErrNotPositive = errors.New("amount must be positive")
)

var maxMinor = decimal.NewFromInt(math.MaxInt64)

// Parse converts a decimal string such as "200.50" into minor units.
func Parse(s string) (int64, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return 0, ErrMalformed
	}

	minor := d.Shift(Scale)
	if !minor.Equal(minor.Truncate(0)) {
		return 0, ErrTooPrecise
	}

	if minor.Abs().GreaterThan(maxMinor) {
		return 0, ErrOutOfRange
	}

	return minor.IntPart(), nil
}

// ParsePositive is Parse that also rejects zero and negative amounts.
func ParsePositive(s string) (int64, error) {
	minor, err := Parse(s)
	if err != nil {
		return 0, err
	}

	if minor <= 0 {
		return 0, ErrNotPositive
	}

	return minor, nil
}

// Format renders minor units as a fixed two-decimal string.
func Format(minor int64) string {
	return decimal.New(minor, -Scale).StringFixed(Scale)
}

// WithinTolerance reports whether a and b differ by at most one minor unit.
func WithinTolerance(a, b int64) bool {
	diff := a - b
	if diff < 0 {
		diff = -diff
	}

	return diff <= 1
}

// ValidAmount validates that a bound string field is a positive money amount.
var ValidAmount validator.Func = func(fl validator.FieldLevel) bool {
	if s, ok := fl.Field().Interface().(string); ok {
		_, err := ParsePositive(s)
		return err == nil
	}

	return false
}

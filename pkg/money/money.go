// Package money converts between the ledger's int64 minor-unit amounts and
// decimal major-unit strings used at the API boundary. The core never holds
// floating point; any rounding happens here, once, on the way in.
package money

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Scale is the number of decimal places in a major currency unit.
const Scale = 2

var minorFactor = decimal.New(1, Scale)

// ParseMajor parses a major-unit decimal string ("125.50") into minor units
// (12550). Inputs with more than Scale decimal places are rejected rather
// than rounded silently: the ledger invariant folds exact integers, so any
// sub-minor precision must be resolved by the price engine, not absorbed
// here.
func ParseMajor(s string) (int64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("parse amount %q: %w", s, err)
	}
	minor := d.Mul(minorFactor)
	if !minor.IsInteger() {
		return 0, fmt.Errorf("amount %q has more than %d decimal places", s, Scale)
	}
	if !minor.BigInt().IsInt64() {
		return 0, fmt.Errorf("amount %q overflows int64 minor units", s)
	}
	return minor.IntPart(), nil
}

// FormatMajor renders minor units as a fixed-point major-unit string:
// 12550 -> "125.50".
func FormatMajor(minor int64) string {
	return decimal.New(minor, -Scale).StringFixed(Scale)
}

// ToDecimal returns the major-unit decimal value of minor units.
func ToDecimal(minor int64) decimal.Decimal {
	return decimal.New(minor, -Scale)
}

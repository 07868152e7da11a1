// Package core provides the domain model shared by storage, services and
// the HTTP layer.
//
// Money is kept as integer cents everywhere inside the system; decimal
// parsing and rendering happen only at the boundary.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseCents converts a decimal amount string to positive cents.
//
// Half-up rounding is applied beyond the second fractional digit.
// Returns ErrInvalidAmount for malformed input, zero or negative values,
// and values that do not fit in int64 cents.
func ParseCents(s string) (int64, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return 0, ErrInvalidAmount
	}
	if d.Sign() <= 0 {
		return 0, ErrInvalidAmount
	}
	return CentsFromDecimal(d)
}

// CentsFromDecimal converts an exact decimal to cents, rounding half-up
// past two fractional digits.
func CentsFromDecimal(d decimal.Decimal) (int64, error) {
	cents := d.Shift(2).Round(0)
	if !cents.BigInt().IsInt64() {
		return 0, ErrInvalidAmount
	}
	return cents.IntPart(), nil
}

// Decimal returns the exact decimal value of the amount.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Cents, -2)
}

// String renders the amount with exactly two fractional digits ("45.20").
func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}

// Float returns the amount as a float64 for spreadsheet cell values.
// Calculations stay on cents; this is display-only.
func (m Money) Float() float64 {
	return m.Decimal().InexactFloat64()
}

// MarshalJSON renders the amount as a plain JSON number with two
// fractional digits.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalJSON accepts a JSON number or numeric string. Sign is not
// checked here; expense validation rejects non-positive amounts while
// wallet funds may legitimately be any value.
func (m *Money) UnmarshalJSON(b []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(b); err != nil {
		return ErrInvalidAmount
	}
	cents, err := CentsFromDecimal(d)
	if err != nil {
		return err
	}
	m.Cents = cents
	return nil
}

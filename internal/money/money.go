// Package money provides an exact fixed-point amount type for all ledger
// arithmetic. Balances and transaction amounts must never pass through
// binary floating point; every balance-affecting computation routes
// through Amount.
package money

import (
	"database/sql/driver"
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// Scale is the number of fractional digits stored for monetary values.
// It matches the decimal(18,6) columns in the schema.
const Scale = 6

// Amount is an exact base-10 monetary value with a fixed scale.
type Amount struct {
	dec decimal.Decimal
}

// Zero returns the zero amount.
func Zero() Amount {
	return Amount{}
}

// FromString parses a decimal string such as "42.5" or "-0.000001".
// The value is rounded half-up to Scale fractional digits.
func FromString(s string) (Amount, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return Amount{}, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	return Amount{dec: d.Round(Scale)}, nil
}

// FromFloat converts a float64 coming from an external interface into an
// Amount. NaN and infinities are rejected; this is the only place float64
// is allowed to touch monetary values.
func FromFloat(f float64) (Amount, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Amount{}, fmt.Errorf("non-finite amount %v", f)
	}
	return Amount{dec: decimal.NewFromFloat(f).Round(Scale)}, nil
}

// MustParse parses a decimal string and panics on failure. For tests and
// package-level constants only.
func MustParse(s string) Amount {
	a, err := FromString(s)
	if err != nil {
		panic(err)
	}
	return a
}

// Add returns a + b.
func (a Amount) Add(b Amount) Amount {
	return Amount{dec: a.dec.Add(b.dec)}
}

// Sub returns a - b.
func (a Amount) Sub(b Amount) Amount {
	return Amount{dec: a.dec.Sub(b.dec)}
}

// Neg returns -a.
func (a Amount) Neg() Amount {
	return Amount{dec: a.dec.Neg()}
}

// MulInt returns a * n. Used by seeding and schedule math only; general
// multiplication has no place in ledger arithmetic.
func (a Amount) MulInt(n int64) Amount {
	return Amount{dec: a.dec.Mul(decimal.NewFromInt(n))}
}

// Cmp compares a and b: -1 if a < b, 0 if equal, +1 if a > b.
func (a Amount) Cmp(b Amount) int {
	return a.dec.Cmp(b.dec)
}

// Equal reports whether a and b represent the same value.
func (a Amount) Equal(b Amount) bool {
	return a.dec.Equal(b.dec)
}

// IsZero reports whether the amount is exactly zero.
func (a Amount) IsZero() bool {
	return a.dec.IsZero()
}

// IsNegative reports whether the amount is below zero.
func (a Amount) IsNegative() bool {
	return a.dec.IsNegative()
}

// IsPositive reports whether the amount is above zero.
func (a Amount) IsPositive() bool {
	return a.dec.IsPositive()
}

// Decimal exposes the underlying decimal value.
func (a Amount) Decimal() decimal.Decimal {
	return a.dec
}

// String renders the amount with exactly Scale fractional digits.
func (a Amount) String() string {
	return a.dec.StringFixed(Scale)
}

// Value implements driver.Valuer so Amount can be written to decimal
// columns without loss.
func (a Amount) Value() (driver.Value, error) {
	return a.String(), nil
}

// Scan implements sql.Scanner. It accepts the string, byte, integer, and
// float representations drivers produce for numeric columns.
func (a *Amount) Scan(value interface{}) error {
	var d decimal.Decimal
	if err := d.Scan(value); err != nil {
		return err
	}
	a.dec = d.Round(Scale)
	return nil
}

// MarshalJSON renders the amount as a JSON number.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.dec.String()), nil
}

// UnmarshalJSON accepts both JSON numbers and quoted decimal strings.
func (a *Amount) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "null" {
		*a = Amount{}
		return nil
	}
	parsed, err := FromString(s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// Package money provides a fixed-precision amount type for invoice and
// payment arithmetic. All balance math goes through Amount so floating-point
// drift can never leak into a stored balance.
package money

import (
	"database/sql/driver"
	"fmt"

	"github.com/shopspring/decimal"
)

// Amount is a fixed-precision monetary value.
type Amount struct {
	dec decimal.Decimal
}

// Zero is the zero amount.
var Zero = Amount{}

// FromDecimal wraps an existing decimal.
func FromDecimal(d decimal.Decimal) Amount {
	return Amount{dec: d}
}

// FromCents builds an amount from an integer number of cents.
func FromCents(cents int64) Amount {
	return Amount{dec: decimal.New(cents, -2)}
}

// FromFloat builds an amount from a float64, rounding to 2 decimals.
func FromFloat(f float64) Amount {
	return Amount{dec: decimal.NewFromFloat(f).Round(2)}
}

// Parse builds an amount from its string form.
func Parse(s string) (Amount, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Zero, fmt.Errorf("money: parse %q: %w", s, err)
	}
	return Amount{dec: d}, nil
}

// MustParse is Parse for constants in tests and seeds.
func MustParse(s string) Amount {
	a, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return a
}

// Add returns a + b.
func (a Amount) Add(b Amount) Amount { return Amount{dec: a.dec.Add(b.dec)} }

// Sub returns a - b.
func (a Amount) Sub(b Amount) Amount { return Amount{dec: a.dec.Sub(b.dec)} }

// Cmp returns -1, 0 or 1 comparing a against b.
func (a Amount) Cmp(b Amount) int { return a.dec.Cmp(b.dec) }

// Equal reports whether the two amounts are numerically equal.
func (a Amount) Equal(b Amount) bool { return a.dec.Equal(b.dec) }

// GreaterThan reports a > b.
func (a Amount) GreaterThan(b Amount) bool { return a.dec.GreaterThan(b.dec) }

// LessThan reports a < b.
func (a Amount) LessThan(b Amount) bool { return a.dec.LessThan(b.dec) }

// IsZero reports whether the amount is exactly zero.
func (a Amount) IsZero() bool { return a.dec.IsZero() }

// IsPositive reports whether the amount is strictly positive.
func (a Amount) IsPositive() bool { return a.dec.IsPositive() }

// IsNegative reports whether the amount is strictly negative.
func (a Amount) IsNegative() bool { return a.dec.IsNegative() }

// Min returns the smaller of a and b.
func Min(a, b Amount) Amount {
	if a.LessThan(b) {
		return a
	}
	return b
}

// Max returns the larger of a and b.
func Max(a, b Amount) Amount {
	if a.GreaterThan(b) {
		return a
	}
	return b
}

// Round2 rounds to 2 decimal places using banker's rounding. Used for the
// payment fingerprint so both sources agree on the rounded amount.
func (a Amount) Round2() Amount { return Amount{dec: a.dec.RoundBank(2)} }

// Float64 returns the nearest float64, for display math only.
func (a Amount) Float64() float64 {
	f, _ := a.dec.Float64()
	return f
}

// Decimal exposes the underlying decimal for repository scanning.
func (a Amount) Decimal() decimal.Decimal { return a.dec }

// String renders the amount with exactly 2 decimal places.
func (a Amount) String() string { return a.dec.StringFixed(2) }

// MarshalJSON renders the amount as a 2-decimal JSON string.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(`"` + a.String() + `"`), nil
}

// UnmarshalJSON accepts either a JSON string or a bare number.
func (a *Amount) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// Value implements driver.Valuer for pgx.
func (a Amount) Value() (driver.Value, error) {
	return a.dec.Value()
}

// Scan implements sql.Scanner for pgx.
func (a *Amount) Scan(src any) error {
	var d decimal.Decimal
	if err := d.Scan(src); err != nil {
		return err
	}
	a.dec = d
	return nil
}

package model

import (
	"database/sql/driver"
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Money is a currency amount.  It is stored and serialised with exactly two
// fractional digits ("4500.00") and never passes through a binary float.
type Money struct {
	decimal.Decimal
}

// ParseMoney parses a decimal string such as "4500.00".
func ParseMoney(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, err
	}
	return Money{d}, nil
}

// MustMoney is ParseMoney for constants; it panics on malformed input.
func MustMoney(s string) Money {
	m, err := ParseMoney(s)
	if err != nil {
		panic(err)
	}
	return m
}

// MoneyFromInt returns a whole currency amount.
func MoneyFromInt(units int64) Money { return Money{decimal.NewFromInt(units)} }

// Add returns m + o.
func (m Money) Add(o Money) Money { return Money{m.Decimal.Add(o.Decimal)} }

// Equal reports whether both amounts are numerically equal.
func (m Money) Equal(o Money) bool { return m.Decimal.Equal(o.Decimal) }

// String renders the amount with two fractional digits.
func (m Money) String() string { return m.StringFixed(2) }

func (m Money) MarshalJSON() ([]byte, error) { return json.Marshal(m.String()) }

// UnmarshalJSON accepts both "12.50" and 12.50.
func (m *Money) UnmarshalJSON(b []byte) error { return m.Decimal.UnmarshalJSON(b) }

func (m Money) Value() (driver.Value, error) { return m.String(), nil }

func (m *Money) Scan(v any) error { return m.Decimal.Scan(v) }

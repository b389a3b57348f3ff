// Package core provides money parsing and handling utilities.
//
// Amounts are fixed-point decimals with a currency scale of two digits.
// Binary floating point is never used for arithmetic on money.
package core

import (
	"database/sql/driver"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// MoneyScale is the number of fractional digits kept for every amount.
const MoneyScale = 2

// DefaultCurrency is applied to payments created without an explicit currency.
const DefaultCurrency Currency = "CNY"

// Money is a non-negative fixed-point amount.
type Money struct {
	Amount decimal.Decimal
}

// NewMoney builds a Money from an integer number of minor units (cents, fen).
func NewMoney(minor int64) Money {
	return Money{Amount: decimal.New(minor, -MoneyScale)}
}

// MustParseAmount is ParseAmount for literals in tests and fixtures.
func MustParseAmount(s string) Money {
	m, err := ParseAmount(s)
	if err != nil {
		panic(err)
	}
	return m
}

// ParseAmount converts a decimal string to Money with half-up rounding.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators and rounds
// on the third decimal place. Negative values and signs are rejected; zero is
// allowed.
//
// Examples:
//
//	ParseAmount("12.34")  -> 12.34
//	ParseAmount("12,345") -> 12.35
//	ParseAmount("-1")     -> ErrInvalidAmount
func ParseAmount(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return Money{}, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	m := Money{Amount: d.Round(MoneyScale)}
	if err := m.Validate(); err != nil {
		return Money{}, err
	}
	return m, nil
}

// Validate rejects negative amounts.
func (m Money) Validate() error {
	if m.Amount.IsNegative() {
		return ErrInvalidAmount
	}
	return nil
}

// Add returns m + o.
func (m Money) Add(o Money) Money { return Money{Amount: m.Amount.Add(o.Amount)} }

// Sub returns m - o. The result may be negative (balances).
func (m Money) Sub(o Money) Money { return Money{Amount: m.Amount.Sub(o.Amount)} }

// Cmp compares two amounts like decimal.Decimal.Cmp.
func (m Money) Cmp(o Money) int { return m.Amount.Cmp(o.Amount) }

// Equal reports whether both amounts are numerically equal.
func (m Money) Equal(o Money) bool { return m.Amount.Equal(o.Amount) }

// IsZero reports whether the amount is zero.
func (m Money) IsZero() bool { return m.Amount.IsZero() }

// String formats the amount with the currency scale, e.g. "120.00".
func (m Money) String() string {
	return m.Amount.StringFixed(MoneyScale)
}

// MarshalJSON encodes the amount as a quoted fixed-scale decimal string.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(`"` + m.String() + `"`), nil
}

// UnmarshalJSON accepts both quoted strings and bare JSON numbers.
func (m *Money) UnmarshalJSON(data []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(data); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidAmount, err)
	}
	m.Amount = d.Round(MoneyScale)
	return nil
}

// Value stores the amount as text so no backend rounds it through a float.
func (m Money) Value() (driver.Value, error) {
	return m.String(), nil
}

// Scan reads an amount written by Value.
func (m *Money) Scan(src any) error {
	var d decimal.Decimal
	if err := d.Scan(src); err != nil {
		return fmt.Errorf("scan money: %w", err)
	}
	m.Amount = d.Round(MoneyScale)
	return nil
}

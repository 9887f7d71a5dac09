// Package core provides money parsing and handling utilities.
//
// This file contains the decimal money type used for amounts, totals and
// averages, plus parsing from user input and formatting for reports.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Money is an exact decimal currency value.
type Money struct {
	decimal.Decimal
}

// ZeroMoney is the additive identity.
var ZeroMoney = Money{Decimal: decimal.Zero}

// ParseMoney converts a decimal string to Money.
//
// It accepts both dot (12.34) and comma (12,34) decimal separators. Signs,
// exponents and anything other than digits are rejected. Precision beyond two
// decimals is preserved; rounding only happens on display.
//
// Examples:
//
//	ParseMoney("12.34")  -> 12.34, nil
//	ParseMoney("12,345") -> 12.345, nil
//	ParseMoney("-1")     -> error
func ParseMoney(s string) (Money, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Money{}, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.Count(s, ".") > 1 {
		return Money{}, ErrInvalidAmount
	}
	for _, r := range s {
		if r != '.' && (r < '0' || r > '9') {
			return Money{}, ErrInvalidAmount
		}
	}
	if s == "." {
		return Money{}, ErrInvalidAmount
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, ErrInvalidAmount
	}
	m := Money{Decimal: d}
	if err := m.Validate(); err != nil {
		return Money{}, err
	}
	return m, nil
}

// MustMoney parses s and panics on error. Intended for constants and tests.
func MustMoney(s string) Money {
	return Money{Decimal: decimal.RequireFromString(s)}
}

// MoneyFromFloat converts a float amount, e.g. from a JSON number.
func MoneyFromFloat(f float64) Money {
	return Money{Decimal: decimal.NewFromFloat(f)}
}

func (m Money) Validate() error {
	if !m.IsPositive() {
		return ErrInvalidAmount
	}
	return nil
}

func (m Money) Add(other Money) Money {
	return Money{Decimal: m.Decimal.Add(other.Decimal)}
}

func (m Money) Sub(other Money) Money {
	return Money{Decimal: m.Decimal.Sub(other.Decimal)}
}

// DivInt divides by a positive integer count.
func (m Money) DivInt(n int64) Money {
	return Money{Decimal: m.Decimal.Div(decimal.NewFromInt(n))}
}

func (m Money) Cmp(other Money) int {
	return m.Decimal.Cmp(other.Decimal)
}

func (m Money) Equal(other Money) bool {
	return m.Decimal.Equal(other.Decimal)
}

// Format renders the amount with exactly two decimals behind a currency symbol.
func (m Money) Format(symbol string) string {
	return symbol + m.StringFixed(2)
}

// Sum adds up the amounts of the given expenses.
func Sum(expenses []Expense) Money {
	total := ZeroMoney
	for _, e := range expenses {
		total = total.Add(e.Amount)
	}
	return total
}

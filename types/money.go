// Package types provides common value types used across Steward.
package types

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultCurrency is used when no currency is configured.
const DefaultCurrency = "eur"

// minorUnits is the number of minor units per major unit. Steward bills in a
// single configured currency with two decimal places.
var minorUnits = decimal.NewFromInt(100)

// Money is a monetary amount in minor units (cents).
// Stored and summed as int64; multiplication by non-integral factors goes
// through decimal and is rounded half-up exactly once.
type Money struct {
	Amount   int64  `json:"amount"`   // cents
	Currency string `json:"currency"` // ISO 4217 lowercase
}

// New creates a Money value from minor units.
func New(cents int64, currency string) Money {
	return Money{Amount: cents, Currency: normalizeCurrency(currency)}
}

// EUR creates a Money value in euro cents.
func EUR(cents int64) Money { return Money{Amount: cents, Currency: "eur"} }

// USD creates a Money value in US cents.
func USD(cents int64) Money { return Money{Amount: cents, Currency: "usd"} }

// Zero returns a zero Money value in the given currency.
func Zero(currency string) Money { return Money{Currency: normalizeCurrency(currency)} }

// FromDecimal converts an amount in minor units to Money, rounding half-up.
func FromDecimal(cents decimal.Decimal, currency string) Money {
	return Money{Amount: RoundHalfUp(cents).IntPart(), Currency: normalizeCurrency(currency)}
}

// FromMajor parses a major-unit decimal string ("25.00") into Money.
func FromMajor(s, currency string) (Money, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return Money{}, fmt.Errorf("money: parse %q: %w", s, err)
	}
	return FromDecimal(d.Mul(minorUnits), currency), nil
}

// RoundHalfUp rounds d to an integer, halves away from zero.
func RoundHalfUp(d decimal.Decimal) decimal.Decimal {
	return d.Round(0)
}

// Add adds two Money values. Panics if currencies don't match.
func (m Money) Add(other Money) Money {
	m.assertSameCurrency(other)
	return Money{Amount: m.Amount + other.Amount, Currency: m.Currency}
}

// Subtract subtracts another Money value. Panics if currencies don't match.
func (m Money) Subtract(other Money) Money {
	m.assertSameCurrency(other)
	return Money{Amount: m.Amount - other.Amount, Currency: m.Currency}
}

// Cents returns the amount in minor units as a decimal.
func (m Money) Cents() decimal.Decimal { return decimal.NewFromInt(m.Amount) }

// Major returns the amount in major units as a decimal (4900 -> 49.00).
func (m Money) Major() decimal.Decimal { return m.Cents().Div(minorUnits) }

// MulDecimal multiplies by factor and rounds half-up to cents.
func (m Money) MulDecimal(factor decimal.Decimal) Money {
	return FromDecimal(m.Cents().Mul(factor), m.Currency)
}

// Percent returns rate percent of m, rounded half-up (20 -> 20%).
func (m Money) Percent(rate decimal.Decimal) Money {
	return FromDecimal(m.Cents().Mul(rate).Div(decimal.NewFromInt(100)), m.Currency)
}

// IsZero returns true if the amount is zero.
func (m Money) IsZero() bool { return m.Amount == 0 }

// IsPositive returns true if the amount is greater than zero.
func (m Money) IsPositive() bool { return m.Amount > 0 }

// Equal returns true if both Money values are equal (same amount and currency).
func (m Money) Equal(other Money) bool {
	return m.Amount == other.Amount && m.Currency == other.Currency
}

// FormatMajor returns the amount in major units without symbol ("49.00").
func (m Money) FormatMajor() string {
	return m.Major().StringFixed(2)
}

// String returns a human-readable string with currency symbol.
func (m Money) String() string {
	return currencySymbol(m.Currency) + m.FormatMajor()
}

// MarshalJSON implements json.Marshaler.
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Amount   int64  `json:"amount"`
		Currency string `json:"currency"`
		Display  string `json:"display"`
	}{
		Amount:   m.Amount,
		Currency: m.Currency,
		Display:  m.String(),
	})
}

// Sum adds values in the currency of the first element. Empty input yields
// a zero amount in DefaultCurrency.
func Sum(values ...Money) Money {
	if len(values) == 0 {
		return Zero(DefaultCurrency)
	}

	result := values[0]
	for _, v := range values[1:] {
		result = result.Add(v)
	}
	return result
}

func (m Money) assertSameCurrency(other Money) {
	if m.Currency != other.Currency {
		panic(fmt.Sprintf("money: currency mismatch: %s != %s", m.Currency, other.Currency))
	}
}

// NormalizeCurrency returns the canonical lower-case code for c, or
// DefaultCurrency when c is empty.
func NormalizeCurrency(c string) string { return normalizeCurrency(c) }

func normalizeCurrency(c string) string {
	if c == "" {
		return DefaultCurrency
	}
	return strings.ToLower(c)
}

func currencySymbol(currency string) string {
	switch strings.ToLower(currency) {
	case "eur":
		return "€"
	case "usd":
		return "$"
	case "gbp":
		return "£"
	case "chf":
		return "CHF "
	default:
		return strings.ToUpper(currency) + " "
	}
}

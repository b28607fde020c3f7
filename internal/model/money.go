package model

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Money is an amount in major currency units with its ISO currency code.
// The Storefront API returns amounts as decimal strings (e.g., "29.99").
type Money struct {
	Amount       decimal.Decimal `json:"amount"`
	CurrencyCode string          `json:"currency_code"`
}

// ParseMoney builds Money from a decimal string amount.
// Empty or unparseable amounts become zero rather than failing the response.
// Examples: ("29.99", "USD") → 29.99 USD, ("", "JPY") → 0 JPY
func ParseMoney(amount, currencyCode string) Money {
	d, err := decimal.NewFromString(strings.TrimSpace(amount))
	if err != nil {
		d = decimal.Zero
	}
	return Money{Amount: d, CurrencyCode: currencyCode}
}

// Times multiplies the amount by a line quantity.
func (m Money) Times(quantity int) Money {
	return Money{
		Amount:       m.Amount.Mul(decimal.NewFromInt(int64(quantity))),
		CurrencyCode: m.CurrencyCode,
	}
}

// Cents returns the amount in minor units, rounded half away from zero.
func (m Money) Cents() int64 {
	return m.Amount.Shift(2).Round(0).IntPart()
}

// IsZero reports whether the amount is zero.
func (m Money) IsZero() bool {
	return m.Amount.IsZero()
}

// String formats the amount with two decimals followed by the currency code.
func (m Money) String() string {
	if m.CurrencyCode == "" {
		return m.Amount.StringFixed(2)
	}
	return m.Amount.StringFixed(2) + " " + m.CurrencyCode
}

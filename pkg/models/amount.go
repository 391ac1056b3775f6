package models

import (
	"fmt"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Amount represents a monetary amount
type Amount struct {
	Value    string `json:"value"`
	Currency string `json:"currency"`
}

// AmountFromDecimal builds an Amount rounded to the currency's minor unit.
func AmountFromDecimal(d decimal.Decimal, currency string) Amount {
	fraction := int32(2)
	if c := money.GetCurrency(currency); c != nil {
		fraction = int32(c.Fraction)
	}
	return Amount{
		Value:    d.StringFixed(fraction),
		Currency: currency,
	}
}

func (a Amount) IsZero() bool {
	return a.Value == ""
}

// ToMoney converts the decimal string into minor units. Digits past the
// currency's fraction are truncated.
func (a Amount) ToMoney() (*money.Money, error) {
	currency := money.GetCurrency(a.Currency)
	if currency == nil {
		return nil, fmt.Errorf("unknown currency %q", a.Currency)
	}

	value := a.Value
	if value == "" {
		value = "0"
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return nil, fmt.Errorf("failed to parse amount %q: %w", a.Value, err)
	}

	return money.New(d.Shift(int32(currency.Fraction)).IntPart(), currency.Code), nil
}

// Display renders the amount with its currency symbol, falling back to the raw
// value when the currency is unknown.
func (a Amount) Display() string {
	if a.IsZero() {
		return "-"
	}
	m, err := a.ToMoney()
	if err != nil {
		return a.Value + " " + a.Currency
	}
	return m.Display()
}

package models

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Money is a currency-tagged decimal amount in major units.
type Money struct {
	Amount   decimal.Decimal
	Currency string
}

// NewMoney builds a Money from a major-unit amount string, e.g. "5000.00".
func NewMoney(amount, currency string) (Money, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return Money{}, fmt.Errorf("invalid amount %q: %w", amount, err)
	}
	return Money{Amount: d, Currency: currency}, nil
}

// MinorUnits converts the amount to minor currency units (kobo, cents),
// the representation the payment gateway expects.
func (m Money) MinorUnits() int64 {
	return m.Amount.Mul(decimal.NewFromInt(100)).IntPart()
}

// MoneyFromMinorUnits builds a Money from a gateway-reported minor-unit amount.
func MoneyFromMinorUnits(minor int64, currency string) Money {
	return Money{
		Amount:   decimal.NewFromInt(minor).Div(decimal.NewFromInt(100)),
		Currency: currency,
	}
}

// Mul returns the amount multiplied by an integer factor, keeping the currency.
func (m Money) Mul(n int64) Money {
	return Money{Amount: m.Amount.Mul(decimal.NewFromInt(n)), Currency: m.Currency}
}

func (m Money) String() string {
	return fmt.Sprintf("%s %s", m.Amount.StringFixed(2), m.Currency)
}

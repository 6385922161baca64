package valueobject

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Money is a non-negative amount in one currency. Billing never produces a
// negative charge, so construction rejects one. Values are immutable.
type Money struct {
	amount   decimal.Decimal
	currency Currency
}

var (
	errEmptyCurrency  = errors.New("currency cannot be empty")
	errNegativeAmount = errors.New("amount cannot be negative")
)

// NewMoney validates and wraps amount
func NewMoney(amount decimal.Decimal, currency Currency) (Money, error) {
	if currency == "" {
		return Money{}, errEmptyCurrency
	}
	if amount.IsNegative() {
		return Money{}, errNegativeAmount
	}
	return Money{amount: amount, currency: currency}, nil
}

// ParseMoney reads a decimal string such as "47500" or "12.75"
func ParseMoney(amount string, currency Currency) (Money, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return Money{}, fmt.Errorf("invalid amount %q: %w", amount, err)
	}
	return NewMoney(d, currency)
}

// Zero returns nothing owed in currency
func Zero(currency Currency) Money {
	return Money{amount: decimal.Zero, currency: currency}
}

func (m Money) Amount() decimal.Decimal { return m.amount }
func (m Money) Currency() Currency      { return m.currency }
func (m Money) IsZero() bool            { return m.amount.IsZero() }
func (m Money) IsNegative() bool        { return m.amount.IsNegative() }

// Add sums two amounts of the same currency
func (m Money) Add(other Money) (Money, error) {
	if m.currency != other.currency {
		return Money{}, fmt.Errorf("cannot add %s to %s", other.currency, m.currency)
	}
	return Money{amount: m.amount.Add(other.amount), currency: m.currency}, nil
}

// RoundHalfUp rounds to places decimals with ties going up. Money is never
// negative, so decimal's half-away-from-zero rounding is exactly half-up.
func (m Money) RoundHalfUp(places int32) Money {
	return Money{amount: m.amount.Round(places), currency: m.currency}
}

// Equals compares numerically, so 1.50 equals 1.5
func (m Money) Equals(other Money) bool {
	return m.currency == other.currency && m.amount.Equal(other.amount)
}

// String renders "IDR 47500" using the currency's minor units
func (m Money) String() string {
	return fmt.Sprintf("%s %s", m.currency, m.amount.StringFixed(m.currency.MinorUnits()))
}

// Format renders the amount with the currency symbol using locale conventions.
// Float conversion happens here only, at the display boundary.
func (m Money) Format(tag language.Tag) string {
	unit, err := currency.ParseISO(string(m.currency))
	if err != nil {
		return m.String()
	}
	f, _ := m.amount.Float64()
	return message.NewPrinter(tag).Sprint(currency.Symbol(unit.Amount(f)))
}

type moneyJSON struct {
	Amount   string   `json:"amount"`
	Currency Currency `json:"currency"`
}

// MarshalJSON writes the amount as a string so no precision is lost
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(moneyJSON{Amount: m.amount.String(), Currency: m.currency})
}

func (m *Money) UnmarshalJSON(data []byte) error {
	var v moneyJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	parsed, err := ParseMoney(v.Amount, v.Currency)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

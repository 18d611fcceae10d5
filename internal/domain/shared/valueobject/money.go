package valueobject

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shoppos/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Currency is one of the currencies a till accepts
type Currency string

const (
	USD  Currency = "USD"  // US Dollar
	ZIG  Currency = "ZIG"  // Zimbabwe Gold
	RAND Currency = "RAND" // South African Rand
)

// CashPlaces is the number of fractional digits kept for cash amounts
const CashPlaces int32 = 2

// RatePlaces is the number of fractional digits kept for exchange rates
const RatePlaces int32 = 8

// AllCurrencies lists the accepted currencies in display order
func AllCurrencies() []Currency {
	return []Currency{USD, ZIG, RAND}
}

// IsValid checks if the currency is one the till accepts
func (c Currency) IsValid() bool {
	switch c {
	case USD, ZIG, RAND:
		return true
	}
	return false
}

// String returns the currency code
func (c Currency) String() string {
	return string(c)
}

// ParseCurrency parses a currency code case-insensitively. "ZWG" and "ZAR"
// are accepted as aliases for ZIG and RAND.
func ParseCurrency(s string) (Currency, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "USD":
		return USD, nil
	case "ZIG", "ZWG":
		return ZIG, nil
	case "RAND", "ZAR":
		return RAND, nil
	}
	return "", shared.NewDomainError(shared.CodeInvalidInput, fmt.Sprintf("unsupported currency: %q", s))
}

// Money is a value object representing monetary amounts
// It is immutable - all operations return new Money instances
type Money struct {
	amount   decimal.Decimal
	currency Currency
}

// NewMoney creates a new Money with the specified amount and currency
func NewMoney(amount decimal.Decimal, currency Currency) (Money, error) {
	if !currency.IsValid() {
		return Money{}, shared.NewDomainError(shared.CodeInvalidInput, fmt.Sprintf("unsupported currency: %q", currency))
	}
	return Money{
		amount:   amount,
		currency: currency,
	}, nil
}

// NewMoneyFromString creates Money from a string representation
func NewMoneyFromString(amount string, currency Currency) (Money, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return Money{}, shared.NewDomainError(shared.CodeInvalidAmount, fmt.Sprintf("invalid amount string: %q", amount))
	}
	return NewMoney(d, currency)
}

// MustMoney builds Money from a decimal string and panics on bad input.
// Intended for constants and tests.
func MustMoney(amount string, currency Currency) Money {
	m, err := NewMoneyFromString(amount, currency)
	if err != nil {
		panic(err)
	}
	return m
}

// Zero returns a zero-value Money in the specified currency
func Zero(currency Currency) Money {
	return Money{amount: decimal.Zero, currency: currency}
}

// Amount returns the decimal amount
func (m Money) Amount() decimal.Decimal {
	return m.amount
}

// Currency returns the currency code
func (m Money) Currency() Currency {
	return m.currency
}

// IsZero returns true if the amount is zero
func (m Money) IsZero() bool {
	return m.amount.IsZero()
}

// IsPositive returns true if the amount is positive
func (m Money) IsPositive() bool {
	return m.amount.IsPositive()
}

// IsNegative returns true if the amount is negative
func (m Money) IsNegative() bool {
	return m.amount.IsNegative()
}

func mismatch(op string, a, b Currency) error {
	return shared.NewDomainError(shared.CodeCurrencyMismatch,
		fmt.Sprintf("cannot %s money with different currencies: %s and %s", op, a, b))
}

// Add returns a new Money with the sum of both amounts
// Returns CURRENCY_MISMATCH if currencies don't match
func (m Money) Add(other Money) (Money, error) {
	if m.currency != other.currency {
		return Money{}, mismatch("add", m.currency, other.currency)
	}
	return Money{
		amount:   m.amount.Add(other.amount),
		currency: m.currency,
	}, nil
}

// Subtract returns a new Money with the difference
// Returns CURRENCY_MISMATCH if currencies don't match
func (m Money) Subtract(other Money) (Money, error) {
	if m.currency != other.currency {
		return Money{}, mismatch("subtract", m.currency, other.currency)
	}
	return Money{
		amount:   m.amount.Sub(other.amount),
		currency: m.currency,
	}, nil
}

// MustAdd adds two Money values, panics if currencies don't match
func (m Money) MustAdd(other Money) Money {
	result, err := m.Add(other)
	if err != nil {
		panic(err)
	}
	return result
}

// Multiply returns a new Money multiplied by the given factor
func (m Money) Multiply(factor decimal.Decimal) Money {
	return Money{
		amount:   m.amount.Mul(factor),
		currency: m.currency,
	}
}

// Negate returns a new Money with the sign reversed
func (m Money) Negate() Money {
	return Money{
		amount:   m.amount.Neg(),
		currency: m.currency,
	}
}

// Abs returns a new Money with the absolute value
func (m Money) Abs() Money {
	return Money{
		amount:   m.amount.Abs(),
		currency: m.currency,
	}
}

// RoundCash rounds half-even to cash precision
func (m Money) RoundCash() Money {
	return Money{
		amount:   m.amount.RoundBank(CashPlaces),
		currency: m.currency,
	}
}

// Equals returns true if both Money values are equal (same amount and currency)
func (m Money) Equals(other Money) bool {
	return m.currency == other.currency && m.amount.Equal(other.amount)
}

// Cmp compares two amounts of the same currency
func (m Money) Cmp(other Money) (int, error) {
	if m.currency != other.currency {
		return 0, mismatch("compare", m.currency, other.currency)
	}
	return m.amount.Cmp(other.amount), nil
}

// String returns a string representation of the Money
func (m Money) String() string {
	return fmt.Sprintf("%s %s", m.amount.StringFixed(CashPlaces), m.currency)
}

// MarshalJSON implements json.Marshaler
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Amount   string   `json:"amount"`
		Currency Currency `json:"currency"`
	}{
		Amount:   m.amount.StringFixed(CashPlaces),
		Currency: m.currency,
	})
}

// UnmarshalJSON implements json.Unmarshaler and validates the currency.
func (m *Money) UnmarshalJSON(data []byte) error {
	var v struct {
		Amount   string `json:"amount"`
		Currency string `json:"currency"`
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	currency, err := ParseCurrency(v.Currency)
	if err != nil {
		return err
	}
	parsed, err := NewMoneyFromString(v.Amount, currency)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

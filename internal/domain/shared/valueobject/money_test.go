package valueobject

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/shoppos/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMoney(t *testing.T) {
	t.Run("creates money with valid amount and currency", func(t *testing.T) {
		m, err := NewMoney(decimal.RequireFromString("100.50"), USD)
		require.NoError(t, err)
		assert.Equal(t, USD, m.Currency())
		assert.True(t, m.Amount().Equal(decimal.RequireFromString("100.5")))
	})

	t.Run("rejects unknown currency", func(t *testing.T) {
		_, err := NewMoney(decimal.NewFromInt(1), "EUR")
		assert.True(t, errors.Is(err, shared.ErrInvalidInput))
	})

	t.Run("rejects bad amount string", func(t *testing.T) {
		_, err := NewMoneyFromString("12,50", ZIG)
		assert.Equal(t, shared.CodeInvalidAmount, shared.CodeOf(err))
	})
}

func TestParseCurrency(t *testing.T) {
	tests := []struct {
		in   string
		want Currency
	}{
		{"usd", USD},
		{" ZIG ", ZIG},
		{"zwg", ZIG},
		{"rand", RAND},
		{"ZAR", RAND},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseCurrency(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseCurrency("GBP")
	assert.Error(t, err)
}

func TestMoney_AddSubtract(t *testing.T) {
	a := MustMoney("50.00", USD)
	b := MustMoney("25.00", USD)

	sum, err := a.Add(b)
	require.NoError(t, err)
	assert.Equal(t, "75.00 USD", sum.String())

	diff, err := b.Subtract(a)
	require.NoError(t, err)
	assert.True(t, diff.IsNegative())
	assert.Equal(t, "-25.00 USD", diff.String())
}

func TestMoney_CurrencyMismatch(t *testing.T) {
	usd := MustMoney("10", USD)
	zig := MustMoney("10", ZIG)

	_, err := usd.Add(zig)
	assert.True(t, errors.Is(err, shared.ErrCurrencyMismatch))

	_, err = usd.Subtract(zig)
	assert.True(t, errors.Is(err, shared.ErrCurrencyMismatch))

	_, err = usd.Cmp(zig)
	assert.True(t, errors.Is(err, shared.ErrCurrencyMismatch))

	assert.Panics(t, func() { usd.MustAdd(zig) })
}

func TestMoney_RoundCash(t *testing.T) {
	m := MustMoney("10.125", RAND).RoundCash()
	assert.Equal(t, "10.12", m.Amount().StringFixed(2))

	m = MustMoney("10.135", RAND).RoundCash()
	assert.Equal(t, "10.14", m.Amount().StringFixed(2))
}

func TestMoney_JSON(t *testing.T) {
	data, err := json.Marshal(MustMoney("65", USD))
	require.NoError(t, err)
	assert.JSONEq(t, `{"amount":"65.00","currency":"USD"}`, string(data))

	var m Money
	require.NoError(t, json.Unmarshal([]byte(`{"amount":"12.30","currency":"zar"}`), &m))
	assert.True(t, m.Equals(MustMoney("12.3", RAND)))

	err = json.Unmarshal([]byte(`{"amount":"1","currency":"EUR"}`), &m)
	assert.Error(t, err)
}

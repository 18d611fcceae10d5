package sales

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shoppos/backend/internal/domain/shared"
	"github.com/shoppos/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testDay = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

func TestNewSale_SplitPayment(t *testing.T) {
	s, err := NewSale(uuid.New(), uuid.New(), testDay, "R-1001", KindSale, []Payment{
		{Tender: valueobject.TenderCash, Currency: valueobject.USD, Amount: decimal.RequireFromString("10")},
		{Tender: valueobject.TenderEcocash, Currency: valueobject.ZIG, Amount: decimal.RequireFromString("132.50")},
		{Tender: valueobject.TenderCash, Currency: valueobject.USD, Amount: decimal.RequireFromString("2.015")},
	}, testDay)
	require.NoError(t, err)

	totals := s.Totals()
	assert.Equal(t, "12.02", totals.Get(valueobject.TenderCash, valueobject.USD).StringFixed(2))
	assert.Equal(t, "132.50", totals.Get(valueobject.TenderEcocash, valueobject.ZIG).StringFixed(2))
}

func TestSale_RefundTotalsAreNegative(t *testing.T) {
	s, err := NewSale(uuid.New(), uuid.New(), testDay, "R-1002", KindRefund, []Payment{
		{Tender: valueobject.TenderCash, Currency: valueobject.USD, Amount: decimal.NewFromInt(10)},
	}, testDay)
	require.NoError(t, err)

	assert.True(t, s.Totals().Get(valueobject.TenderCash, valueobject.USD).Equal(decimal.NewFromInt(-10)))

	s.Status = StatusVoided
	assert.True(t, s.Totals().IsZero())
}

func TestNewSale_Validation(t *testing.T) {
	shop, cashier := uuid.New(), uuid.New()
	cash := func(amount string) []Payment {
		return []Payment{{Tender: valueobject.TenderCash, Currency: valueobject.USD, Amount: decimal.RequireFromString(amount)}}
	}

	_, err := NewSale(shop, cashier, testDay, "R-1", KindSale, cash("0"), testDay)
	assert.True(t, errors.Is(err, shared.ErrInvalidAmount))

	_, err = NewSale(shop, cashier, testDay, "R-1", KindSale, cash("-1"), testDay)
	assert.True(t, errors.Is(err, shared.ErrInvalidAmount))

	_, err = NewSale(shop, cashier, testDay, " ", KindSale, cash("1"), testDay)
	assert.True(t, errors.Is(err, shared.ErrInvalidInput))

	_, err = NewSale(shop, cashier, testDay, "R-1", KindSale, nil, testDay)
	assert.True(t, errors.Is(err, shared.ErrInvalidInput))

	_, err = NewSale(shop, cashier, testDay, "R-1", KindSale, []Payment{
		{Tender: "cheque", Currency: valueobject.USD, Amount: decimal.NewFromInt(1)},
	}, testDay)
	assert.True(t, errors.Is(err, shared.ErrInvalidInput))
}

func TestNewStaffLunch(t *testing.T) {
	lunch, err := NewStaffLunch(uuid.New(), uuid.New(), testDay, valueobject.MustMoney("4.50", valueobject.USD), "sadza", uuid.New(), testDay)
	require.NoError(t, err)
	assert.Equal(t, "4.50 USD", lunch.Amount.String())

	_, err = NewStaffLunch(uuid.New(), uuid.New(), testDay, valueobject.Zero(valueobject.USD), "", uuid.New(), testDay)
	assert.True(t, errors.Is(err, shared.ErrInvalidAmount))
}

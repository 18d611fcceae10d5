// Package fx holds the exchange-rate table used to present multi-currency
// totals in a single display currency. Rates never take part in comparing an
// expected amount with a counted amount; those are always per currency.
package fx

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shoppos/backend/internal/domain/shared"
	"github.com/shoppos/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// Rate is the number of units of Currency that buy one US dollar, effective
// from EffectiveDate until a later rate replaces it.
type Rate struct {
	shared.BaseEntity
	ShopID        uuid.UUID
	Currency      valueobject.Currency
	PerUSD        decimal.Decimal
	EffectiveDate time.Time
	RecordedBy    *uuid.UUID
}

// NewRate validates and creates a rate
func NewRate(shopID uuid.UUID, currency valueobject.Currency, perUSD decimal.Decimal, effective time.Time) (*Rate, error) {
	if shopID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "shop ID cannot be empty")
	}
	if !currency.IsValid() {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, fmt.Sprintf("unsupported currency: %q", currency))
	}
	if currency == valueobject.USD {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "USD is the base currency and has no rate")
	}
	if !perUSD.IsPositive() {
		return nil, shared.NewDomainError(shared.CodeInvalidAmount, "exchange rate must be positive")
	}
	return &Rate{
		BaseEntity:    shared.NewBaseEntity(),
		ShopID:        shopID,
		Currency:      currency,
		PerUSD:        perUSD.Round(valueobject.RatePlaces),
		EffectiveDate: dateOnly(effective),
	}, nil
}

// Table converts between currencies using USD as the pivot
type Table struct {
	rates map[valueobject.Currency][]Rate
}

// NewTable indexes rates by currency, oldest first
func NewTable(rates []Rate) *Table {
	t := &Table{rates: make(map[valueobject.Currency][]Rate)}
	for _, r := range rates {
		t.rates[r.Currency] = append(t.rates[r.Currency], r)
	}
	for c := range t.rates {
		sort.Slice(t.rates[c], func(i, j int) bool {
			return t.rates[c][i].EffectiveDate.Before(t.rates[c][j].EffectiveDate)
		})
	}
	return t
}

// PerUSD returns the rate for a currency effective on asOf
func (t *Table) PerUSD(c valueobject.Currency, asOf time.Time) (decimal.Decimal, error) {
	if c == valueobject.USD {
		return decimal.NewFromInt(1), nil
	}
	day := dateOnly(asOf)
	series := t.rates[c]
	// latest rate with EffectiveDate <= day
	i := sort.Search(len(series), func(i int) bool {
		return series[i].EffectiveDate.After(day)
	})
	if i == 0 {
		return decimal.Zero, shared.NewDomainError(shared.CodeNotFound,
			fmt.Sprintf("no %s rate effective on %s", c, day.Format(time.DateOnly)))
	}
	return series[i-1].PerUSD, nil
}

// Convert converts amount from one currency to another as of a date. The
// result is rounded to cash precision.
func (t *Table) Convert(amount decimal.Decimal, from, to valueobject.Currency, asOf time.Time) (decimal.Decimal, error) {
	if from == to {
		return amount, nil
	}
	fromRate, err := t.PerUSD(from, asOf)
	if err != nil {
		return decimal.Zero, err
	}
	toRate, err := t.PerUSD(to, asOf)
	if err != nil {
		return decimal.Zero, err
	}
	usd := amount.DivRound(fromRate, valueobject.RatePlaces)
	return usd.Mul(toRate).RoundBank(valueobject.CashPlaces), nil
}

// ConvertMoney converts Money into the target currency
func (t *Table) ConvertMoney(m valueobject.Money, to valueobject.Currency, asOf time.Time) (valueobject.Money, error) {
	amount, err := t.Convert(m.Amount(), m.Currency(), to, asOf)
	if err != nil {
		return valueobject.Money{}, err
	}
	return valueobject.NewMoney(amount, to)
}

// RateRepository persists exchange rates
type RateRepository interface {
	Save(ctx context.Context, rate *Rate) error
	// FindEffective returns, per currency, every rate effective on or before asOf
	FindEffective(ctx context.Context, shopID uuid.UUID, asOf time.Time) ([]Rate, error)
	List(ctx context.Context, shopID uuid.UUID, limit int) ([]Rate, error)
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

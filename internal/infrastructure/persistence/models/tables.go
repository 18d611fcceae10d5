package models

import (
	"github.com/shoppos/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// CurrencyTable is the stored form of valueobject.CurrencyAmounts, keyed by
// currency code
type CurrencyTable map[string]decimal.Decimal

// TenderTable is the stored form of valueobject.TenderTotals, keyed by
// tender then currency. Zero buckets are omitted.
type TenderTable map[string]map[string]decimal.Decimal

// CurrencyTableFrom encodes every currency, zeros included
func CurrencyTableFrom(a valueobject.CurrencyAmounts) CurrencyTable {
	t := make(CurrencyTable, len(valueobject.AllCurrencies()))
	a.Each(func(c valueobject.Currency, v decimal.Decimal) {
		t[c.String()] = v
	})
	return t
}

// ToDomain decodes the table; unknown currency codes are dropped
func (t CurrencyTable) ToDomain() valueobject.CurrencyAmounts {
	var out valueobject.CurrencyAmounts
	for code, v := range t {
		c := valueobject.Currency(code)
		if c.IsValid() {
			out.Set(c, v)
		}
	}
	return out
}

// TenderTableFrom encodes the non-zero buckets
func TenderTableFrom(totals valueobject.TenderTotals) TenderTable {
	t := make(TenderTable)
	for _, line := range totals.NonZero() {
		row, ok := t[line.Tender.String()]
		if !ok {
			row = make(map[string]decimal.Decimal)
			t[line.Tender.String()] = row
		}
		row[line.Currency.String()] = line.Amount
	}
	return t
}

// ToDomain decodes the table; unknown keys are dropped
func (t TenderTable) ToDomain() valueobject.TenderTotals {
	var out valueobject.TenderTotals
	for tenderCode, row := range t {
		tender := valueobject.Tender(tenderCode)
		if !tender.IsValid() {
			continue
		}
		for code, v := range row {
			c := valueobject.Currency(code)
			if c.IsValid() {
				out.Set(tender, c, v)
			}
		}
	}
	return out
}

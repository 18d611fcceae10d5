package valueobject

import (
	"fmt"
	"strings"

	"github.com/shoppos/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Tender is the payment channel of a transaction
type Tender string

const (
	TenderCash     Tender = "cash"
	TenderCard     Tender = "card"
	TenderEcocash  Tender = "ecocash"
	TenderTransfer Tender = "transfer"
)

// AllTenders lists the tenders in display order
func AllTenders() []Tender {
	return []Tender{TenderCash, TenderCard, TenderEcocash, TenderTransfer}
}

// IsValid checks if the tender is known
func (t Tender) IsValid() bool {
	return t.index() >= 0
}

// IsCash reports whether the tender is physical cash
func (t Tender) IsCash() bool {
	return t == TenderCash
}

// String returns the tender name
func (t Tender) String() string {
	return string(t)
}

// ParseTender parses a tender name case-insensitively. "bank_transfer" is
// accepted as an alias for transfer.
func ParseTender(s string) (Tender, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "cash":
		return TenderCash, nil
	case "card":
		return TenderCard, nil
	case "ecocash":
		return TenderEcocash, nil
	case "transfer", "bank_transfer":
		return TenderTransfer, nil
	}
	return "", shared.NewDomainError(shared.CodeInvalidInput, fmt.Sprintf("unsupported tender: %q", s))
}

func (t Tender) index() int {
	switch t {
	case TenderCash:
		return 0
	case TenderCard:
		return 1
	case TenderEcocash:
		return 2
	case TenderTransfer:
		return 3
	}
	return -1
}

func (c Currency) index() int {
	switch c {
	case USD:
		return 0
	case ZIG:
		return 1
	case RAND:
		return 2
	}
	return -1
}

const (
	tenderCount   = 4
	currencyCount = 3
)

// CurrencyAmounts holds one decimal per currency. The zero value is all zeros.
type CurrencyAmounts struct {
	cells [currencyCount]decimal.Decimal
}

// Get returns the amount for a currency; unknown currencies read as zero
func (a CurrencyAmounts) Get(c Currency) decimal.Decimal {
	i := c.index()
	if i < 0 {
		return decimal.Zero
	}
	return a.cells[i]
}

// Money returns the amount for a currency as Money
func (a CurrencyAmounts) Money(c Currency) Money {
	return Money{amount: a.Get(c), currency: c}
}

// Set overwrites the amount for a currency. Panics on an unknown currency;
// callers validate input first.
func (a *CurrencyAmounts) Set(c Currency, v decimal.Decimal) {
	i := c.index()
	if i < 0 {
		panic(fmt.Sprintf("valueobject: unknown currency %q", c))
	}
	a.cells[i] = v
}

// Add adds v to the amount for a currency
func (a *CurrencyAmounts) Add(c Currency, v decimal.Decimal) {
	a.Set(c, a.Get(c).Add(v))
}

// IsZero reports whether every currency is zero
func (a CurrencyAmounts) IsZero() bool {
	for _, v := range a.cells {
		if !v.IsZero() {
			return false
		}
	}
	return true
}

// Each calls fn for every currency in display order
func (a CurrencyAmounts) Each(fn func(c Currency, v decimal.Decimal)) {
	for _, c := range AllCurrencies() {
		fn(c, a.Get(c))
	}
}

// ToMap converts to a map keyed by currency code, for DTOs
func (a CurrencyAmounts) ToMap() map[Currency]decimal.Decimal {
	out := make(map[Currency]decimal.Decimal, currencyCount)
	a.Each(func(c Currency, v decimal.Decimal) { out[c] = v })
	return out
}

// TenderLine is one cell of a TenderTotals table
type TenderLine struct {
	Tender   Tender
	Currency Currency
	Amount   decimal.Decimal
}

// TenderTotals is a lookup table keyed by (tender, currency). It replaces
// per-currency branching: every bucket is addressed the same way.
type TenderTotals struct {
	cells [tenderCount][currencyCount]decimal.Decimal
}

// Get returns the bucket amount; unknown keys read as zero
func (t TenderTotals) Get(tender Tender, c Currency) decimal.Decimal {
	ti, ci := tender.index(), c.index()
	if ti < 0 || ci < 0 {
		return decimal.Zero
	}
	return t.cells[ti][ci]
}

// Set overwrites a bucket. Panics on unknown keys; callers validate input first.
func (t *TenderTotals) Set(tender Tender, c Currency, v decimal.Decimal) {
	ti, ci := tender.index(), c.index()
	if ti < 0 || ci < 0 {
		panic(fmt.Sprintf("valueobject: unknown bucket %q/%q", tender, c))
	}
	t.cells[ti][ci] = v
}

// Add adds v to a bucket
func (t *TenderTotals) Add(tender Tender, c Currency, v decimal.Decimal) {
	t.Set(tender, c, t.Get(tender, c).Add(v))
}

// Cash returns the cash row as CurrencyAmounts
func (t TenderTotals) Cash() CurrencyAmounts {
	var out CurrencyAmounts
	out.cells = t.cells[TenderCash.index()]
	return out
}

// Lines returns every bucket in tender then currency order
func (t TenderTotals) Lines() []TenderLine {
	lines := make([]TenderLine, 0, tenderCount*currencyCount)
	for _, tender := range AllTenders() {
		for _, c := range AllCurrencies() {
			lines = append(lines, TenderLine{Tender: tender, Currency: c, Amount: t.Get(tender, c)})
		}
	}
	return lines
}

// NonZero returns only buckets with a non-zero amount
func (t TenderTotals) NonZero() []TenderLine {
	var lines []TenderLine
	for _, l := range t.Lines() {
		if !l.Amount.IsZero() {
			lines = append(lines, l)
		}
	}
	return lines
}

// IsZero reports whether every bucket is zero
func (t TenderTotals) IsZero() bool {
	return len(t.NonZero()) == 0
}

// Equal compares two tables bucket by bucket
func (t TenderTotals) Equal(other TenderTotals) bool {
	for _, l := range t.Lines() {
		if !l.Amount.Equal(other.Get(l.Tender, l.Currency)) {
			return false
		}
	}
	return true
}

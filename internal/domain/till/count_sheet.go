package till

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shoppos/backend/internal/domain/shared"
	"github.com/shoppos/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// CountStatus represents the state of a cashier's count sheet
type CountStatus string

const (
	CountStatusInProgress CountStatus = "IN_PROGRESS"
	CountStatusCompleted  CountStatus = "COMPLETED"
	CountStatusReviewed   CountStatus = "REVIEWED"
)

// IsValid checks if the status is a valid CountStatus
func (s CountStatus) IsValid() bool {
	switch s {
	case CountStatusInProgress, CountStatusCompleted, CountStatusReviewed:
		return true
	}
	return false
}

// String returns the string representation of CountStatus
func (s CountStatus) String() string {
	return string(s)
}

// CanTransitionTo checks if the status can transition to the target status
func (s CountStatus) CanTransitionTo(target CountStatus) bool {
	switch s {
	case CountStatusInProgress:
		return target == CountStatusCompleted
	case CountStatusCompleted:
		return target == CountStatusReviewed
	}
	return false
}

// IsSubmitted reports whether the sheet counts as a finished submission.
// Non-zero totals on an IN_PROGRESS sheet are never a submission.
func (s CountStatus) IsSubmitted() bool {
	return s == CountStatusCompleted || s == CountStatusReviewed
}

// DenominationCount is the number of notes or coins counted for one
// denomination
type DenominationCount struct {
	Denomination
	Count int
}

// Subtotal is Count × FaceValue
func (c DenominationCount) Subtotal() decimal.Decimal {
	return c.FaceValue.Mul(decimal.NewFromInt(int64(c.Count)))
}

// CountSheet is a cashier's physical end-of-day count. CashTotal is always
// the sum of counted denominations and Variance is always counted minus
// expected; both are recalculated whenever counts or expectations change.
type CountSheet struct {
	shared.ShopAggregateRoot
	CashierID    uuid.UUID
	BusinessDate time.Time
	Status       CountStatus
	Counts       map[string]int
	Electronic   valueobject.TenderTotals
	Expected     valueobject.TenderTotals
	CashTotal    valueobject.CurrencyAmounts
	Variance     valueobject.TenderTotals
	Notes        string
	CompletedAt  *time.Time
	CompletedBy  *uuid.UUID
	ReviewedAt   *time.Time
	ReviewedBy   *uuid.UUID
}

// NewCountSheet creates an empty IN_PROGRESS sheet
func NewCountSheet(shopID, cashierID uuid.UUID, businessDate time.Time) (*CountSheet, error) {
	if shopID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "shop ID cannot be empty")
	}
	if cashierID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "cashier ID cannot be empty")
	}
	return &CountSheet{
		ShopAggregateRoot: shared.NewShopAggregateRoot(shopID),
		CashierID:         cashierID,
		BusinessDate:      DateOf(businessDate),
		Status:            CountStatusInProgress,
		Counts:            make(map[string]int),
	}, nil
}

// RequireEditable fails with INVALID_TRANSITION once the sheet has been
// submitted. Completed and reviewed sheets are frozen.
func (s *CountSheet) RequireEditable() error {
	if s.Status != CountStatusInProgress {
		return shared.NewDomainError(shared.CodeInvalidTransition,
			fmt.Sprintf("count sheet is %s and cannot be edited", s.Status))
	}
	return nil
}

// SetCount records how many of a denomination were counted. A zero count
// removes the entry.
func (s *CountSheet) SetCount(code string, count int) error {
	if err := s.RequireEditable(); err != nil {
		return err
	}
	if _, err := LookupDenomination(code); err != nil {
		return err
	}
	if count < 0 {
		return shared.NewDomainError(shared.CodeInvalidAmount, fmt.Sprintf("count for %s cannot be negative", code))
	}
	if s.Counts == nil {
		s.Counts = make(map[string]int)
	}
	if count == 0 {
		delete(s.Counts, code)
	} else {
		s.Counts[code] = count
	}
	s.Recalculate()
	return nil
}

// SetElectronic records the cashier's total for a non-cash tender, taken
// from card slips or mobile money statements.
func (s *CountSheet) SetElectronic(tender valueobject.Tender, currency valueobject.Currency, amount decimal.Decimal) error {
	if err := s.RequireEditable(); err != nil {
		return err
	}
	if !tender.IsValid() || tender.IsCash() {
		return shared.NewDomainError(shared.CodeInvalidInput, fmt.Sprintf("electronic total requires a non-cash tender, got %q", tender))
	}
	if !currency.IsValid() {
		return shared.NewDomainError(shared.CodeInvalidInput, fmt.Sprintf("unsupported currency: %q", currency))
	}
	if amount.IsNegative() {
		return shared.NewDomainError(shared.CodeInvalidAmount, "electronic total cannot be negative")
	}
	s.Electronic.Set(tender, currency, amount.RoundBank(valueobject.CashPlaces))
	s.Recalculate()
	return nil
}

// ApplyExpected replaces the expected amounts with values derived from the
// sales log: signed sale totals per bucket, minus staff lunch cash, plus the
// drawer float on the cash row. The raw result is kept even when a cash
// bucket goes negative. Nothing is persisted here.
func (s *CountSheet) ApplyExpected(saleTotals valueobject.TenderTotals, lunchCash, float valueobject.CurrencyAmounts) {
	expected := saleTotals
	for _, c := range valueobject.AllCurrencies() {
		expected.Add(valueobject.TenderCash, c, float.Get(c).Sub(lunchCash.Get(c)))
	}
	s.Expected = expected
	s.Recalculate()
}

// Recalculate derives CashTotal from the counted denominations and Variance
// from totals minus expected
func (s *CountSheet) Recalculate() {
	var totals valueobject.CurrencyAmounts
	for _, dc := range s.DenominationCounts() {
		totals.Add(dc.Currency, dc.Subtotal())
	}
	s.CashTotal = totals

	var variance valueobject.TenderTotals
	for _, tender := range valueobject.AllTenders() {
		for _, c := range valueobject.AllCurrencies() {
			actual := s.Electronic.Get(tender, c)
			if tender.IsCash() {
				actual = totals.Get(c)
			}
			variance.Set(tender, c, actual.Sub(s.Expected.Get(tender, c)))
		}
	}
	s.Variance = variance
}

// DenominationCounts returns the non-zero counts ordered by currency then
// face value, largest first
func (s *CountSheet) DenominationCounts() []DenominationCount {
	out := make([]DenominationCount, 0, len(s.Counts))
	for code, n := range s.Counts {
		d, err := LookupDenomination(code)
		if err != nil || n == 0 {
			continue
		}
		out = append(out, DenominationCount{Denomination: d, Count: n})
	}
	order := map[valueobject.Currency]int{valueobject.USD: 0, valueobject.ZIG: 1, valueobject.RAND: 2}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Currency != out[j].Currency {
			return order[out[i].Currency] < order[out[j].Currency]
		}
		if !out[i].FaceValue.Equal(out[j].FaceValue) {
			return out[i].FaceValue.GreaterThan(out[j].FaceValue)
		}
		return out[i].Code < out[j].Code
	})
	return out
}

// HasCounts reports whether any denomination was entered
func (s *CountSheet) HasCounts() bool {
	return len(s.Counts) > 0
}

// Complete freezes the sheet. Only a completed sheet is a submission.
func (s *CountSheet) Complete(by uuid.UUID, now time.Time) error {
	if !s.Status.CanTransitionTo(CountStatusCompleted) {
		return shared.NewDomainError(shared.CodeInvalidTransition,
			fmt.Sprintf("cannot complete count sheet in %s status", s.Status))
	}
	s.Recalculate()
	s.Status = CountStatusCompleted
	s.CompletedAt = &now
	s.CompletedBy = &by
	s.Touch(now)

	s.AddDomainEvent(NewCountSheetCompletedEvent(s))
	return nil
}

// Review marks a completed sheet as checked by the owner
func (s *CountSheet) Review(by uuid.UUID, now time.Time) error {
	if !s.Status.CanTransitionTo(CountStatusReviewed) {
		return shared.NewDomainError(shared.CodeInvalidTransition,
			fmt.Sprintf("cannot review count sheet in %s status", s.Status))
	}
	s.Status = CountStatusReviewed
	s.ReviewedAt = &now
	s.ReviewedBy = &by
	s.Touch(now)
	return nil
}

// CheckInvariant verifies the totals and variance against the counts
func (s *CountSheet) CheckInvariant() error {
	var totals valueobject.CurrencyAmounts
	for _, dc := range s.DenominationCounts() {
		totals.Add(dc.Currency, dc.Subtotal())
	}
	for _, c := range valueobject.AllCurrencies() {
		if !s.CashTotal.Get(c).Equal(totals.Get(c)) {
			return fmt.Errorf("count sheet %s: %s total %s does not match counted denominations %s",
				s.ID, c, s.CashTotal.Get(c).StringFixed(2), totals.Get(c).StringFixed(2))
		}
		want := totals.Get(c).Sub(s.Expected.Get(valueobject.TenderCash, c))
		if !s.Variance.Get(valueobject.TenderCash, c).Equal(want) {
			return fmt.Errorf("count sheet %s: %s variance does not equal total minus expected", s.ID, c)
		}
	}
	return nil
}

package till

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shoppos/backend/internal/domain/shared"
	"github.com/shoppos/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// SessionStatus represents the end-of-day workflow state of a shop
type SessionStatus string

const (
	SessionStatusNotStarted     SessionStatus = "NOT_STARTED"
	SessionStatusInProgress     SessionStatus = "IN_PROGRESS"
	SessionStatusAwaitingCounts SessionStatus = "AWAITING_COUNTS"
	SessionStatusCompleted      SessionStatus = "COMPLETED"
	SessionStatusReconciled     SessionStatus = "RECONCILED"
)

// IsValid checks if the status is a valid SessionStatus
func (s SessionStatus) IsValid() bool {
	switch s {
	case SessionStatusNotStarted, SessionStatusInProgress, SessionStatusAwaitingCounts,
		SessionStatusCompleted, SessionStatusReconciled:
		return true
	}
	return false
}

// String returns the string representation of SessionStatus
func (s SessionStatus) String() string {
	return string(s)
}

// CanTransitionTo checks if the status can transition to the target status
func (s SessionStatus) CanTransitionTo(target SessionStatus) bool {
	switch s {
	case SessionStatusNotStarted:
		return target == SessionStatusInProgress
	case SessionStatusInProgress:
		return target == SessionStatusAwaitingCounts || target == SessionStatusCompleted
	case SessionStatusAwaitingCounts:
		return target == SessionStatusCompleted
	case SessionStatusCompleted:
		return target == SessionStatusReconciled
	}
	return false
}

// CurrencyTotals is the shop-wide cash position of one currency
type CurrencyTotals struct {
	Currency valueobject.Currency
	Expected decimal.Decimal
	Counted  decimal.Decimal
	Variance decimal.Decimal
}

// Summary is the result of aggregating a day's count sheets
type Summary struct {
	ShopID          uuid.UUID
	BusinessDate    time.Time
	Totals          []CurrencyTotals
	TenderVariance  valueobject.TenderTotals
	SubmittedSheets int
	PendingSheets   int
	PendingCashiers []uuid.UUID
}

// Total returns the totals line of a currency
func (s Summary) Total(c valueobject.Currency) CurrencyTotals {
	for _, t := range s.Totals {
		if t.Currency == c {
			return t
		}
	}
	return CurrencyTotals{Currency: c}
}

// Summarize aggregates count sheets into per-currency totals. Only submitted
// sheets contribute; sheets still in progress are listed as pending. Missing
// sheets contribute nothing. The sheets are not modified.
func Summarize(shopID uuid.UUID, date time.Time, sheets []CountSheet) Summary {
	return summarize(shopID, date, sheets, false)
}

// SummarizeAll is Summarize with in-progress sheets also contributing to the
// totals. PendingSheets still counts them. A forced completion freezes these
// totals so that they agree with the archives it writes.
func SummarizeAll(shopID uuid.UUID, date time.Time, sheets []CountSheet) Summary {
	return summarize(shopID, date, sheets, true)
}

func summarize(shopID uuid.UUID, date time.Time, sheets []CountSheet, includePending bool) Summary {
	summary := Summary{ShopID: shopID, BusinessDate: DateOf(date)}
	var expected, counted, variance valueobject.CurrencyAmounts

	for i := range sheets {
		sheet := &sheets[i]
		if sheet.Status.IsSubmitted() {
			summary.SubmittedSheets++
		} else {
			summary.PendingSheets++
			summary.PendingCashiers = append(summary.PendingCashiers, sheet.CashierID)
			if !includePending {
				continue
			}
		}
		for _, c := range valueobject.AllCurrencies() {
			expected.Add(c, sheet.Expected.Get(valueobject.TenderCash, c))
			counted.Add(c, sheet.CashTotal.Get(c))
			variance.Add(c, sheet.Variance.Get(valueobject.TenderCash, c))
		}
		for _, line := range sheet.Variance.Lines() {
			summary.TenderVariance.Add(line.Tender, line.Currency, line.Amount)
		}
	}

	for _, c := range valueobject.AllCurrencies() {
		summary.Totals = append(summary.Totals, CurrencyTotals{
			Currency: c,
			Expected: expected.Get(c),
			Counted:  counted.Get(c),
			Variance: variance.Get(c),
		})
	}
	return summary
}

// ReconciliationSession owns the end-of-day workflow of a shop for one
// business day. Completing it archives every count sheet and closes the day.
type ReconciliationSession struct {
	shared.ShopAggregateRoot
	BusinessDate  time.Time
	Status        SessionStatus
	Totals        []CurrencyTotals
	SheetCount    int
	ArchivedCount int
	Forced        bool
	StartedAt     *time.Time
	StartedBy     *uuid.UUID
	CompletedAt   *time.Time
	CompletedBy   *uuid.UUID
	ReconciledAt  *time.Time
	ReconciledBy  *uuid.UUID
}

// NewReconciliationSession creates a NOT_STARTED session
func NewReconciliationSession(shopID uuid.UUID, businessDate time.Time) (*ReconciliationSession, error) {
	if shopID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "shop ID cannot be empty")
	}
	return &ReconciliationSession{
		ShopAggregateRoot: shared.NewShopAggregateRoot(shopID),
		BusinessDate:      DateOf(businessDate),
		Status:            SessionStatusNotStarted,
	}, nil
}

func (r *ReconciliationSession) transition(target SessionStatus, now time.Time) error {
	if !r.Status.CanTransitionTo(target) {
		return shared.NewDomainError(shared.CodeInvalidTransition,
			fmt.Sprintf("cannot move reconciliation from %s to %s", r.Status, target))
	}
	r.Status = target
	r.Touch(now)
	return nil
}

// Start begins the end-of-day workflow
func (r *ReconciliationSession) Start(by uuid.UUID, now time.Time) error {
	if err := r.transition(SessionStatusInProgress, now); err != nil {
		return err
	}
	r.StartedAt = &now
	r.StartedBy = &by
	return nil
}

// AwaitCounts signals that cashiers have been asked to submit their counts
func (r *ReconciliationSession) AwaitCounts(now time.Time) error {
	return r.transition(SessionStatusAwaitingCounts, now)
}

// CanComplete reports whether Complete is allowed from the current status
func (r *ReconciliationSession) CanComplete() bool {
	return r.Status.CanTransitionTo(SessionStatusCompleted)
}

// Complete freezes the final totals. The caller must already have archived
// every sheet of the day; the number archived is recorded.
func (r *ReconciliationSession) Complete(by uuid.UUID, summary Summary, archived int, forced bool, now time.Time) error {
	if err := r.transition(SessionStatusCompleted, now); err != nil {
		return err
	}
	r.Totals = summary.Totals
	r.SheetCount = summary.SubmittedSheets + summary.PendingSheets
	r.ArchivedCount = archived
	r.Forced = forced
	r.CompletedAt = &now
	r.CompletedBy = &by

	r.AddDomainEvent(NewReconciliationCompletedEvent(r))
	return nil
}

// MarkReconciled records the optional post-hoc audit of a completed day
func (r *ReconciliationSession) MarkReconciled(by uuid.UUID, now time.Time) error {
	if err := r.transition(SessionStatusReconciled, now); err != nil {
		return err
	}
	r.ReconciledAt = &now
	r.ReconciledBy = &by
	return nil
}

// Package sales is the day's transaction log: completed sales, refunds and
// staff lunch deductions. It is the authoritative source the count sheet
// derives expected amounts from, and it is purged when the business day
// closes.
package sales

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shoppos/backend/internal/domain/shared"
	"github.com/shoppos/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// Kind distinguishes sales from refunds
type Kind string

const (
	KindSale   Kind = "SALE"
	KindRefund Kind = "REFUND"
)

// Status of a recorded sale
type Status string

const (
	StatusCompleted Status = "COMPLETED"
	StatusVoided    Status = "VOIDED"
)

// Payment is one tender line of a sale. Split payments produce several lines.
type Payment struct {
	Tender   valueobject.Tender
	Currency valueobject.Currency
	Amount   decimal.Decimal
}

// Sale is a completed till transaction
type Sale struct {
	shared.ShopAggregateRoot
	CashierID    uuid.UUID
	BusinessDate time.Time
	Reference    string
	Kind         Kind
	Status       Status
	Payments     []Payment
	RecordedAt   time.Time
}

// NewSale validates and creates a completed sale or refund
func NewSale(shopID, cashierID uuid.UUID, businessDate time.Time, reference string, kind Kind, payments []Payment, now time.Time) (*Sale, error) {
	if shopID == uuid.Nil || cashierID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "shop ID and cashier ID are required")
	}
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "sale reference cannot be empty")
	}
	if kind != KindSale && kind != KindRefund {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "invalid sale kind")
	}
	if len(payments) == 0 {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "sale must have at least one payment")
	}
	lines := make([]Payment, 0, len(payments))
	for i, p := range payments {
		if !p.Tender.IsValid() {
			return nil, shared.NewDomainError(shared.CodeInvalidInput, fmt.Sprintf("payment %d: unsupported tender %q", i, p.Tender))
		}
		if !p.Currency.IsValid() {
			return nil, shared.NewDomainError(shared.CodeInvalidInput, fmt.Sprintf("payment %d: unsupported currency %q", i, p.Currency))
		}
		if !p.Amount.IsPositive() {
			return nil, shared.NewDomainError(shared.CodeInvalidAmount, fmt.Sprintf("payment %d: amount must be positive", i))
		}
		p.Amount = p.Amount.RoundBank(valueobject.CashPlaces)
		lines = append(lines, p)
	}
	return &Sale{
		ShopAggregateRoot: shared.NewShopAggregateRoot(shopID),
		CashierID:         cashierID,
		BusinessDate:      businessDate,
		Reference:         reference,
		Kind:              kind,
		Status:            StatusCompleted,
		Payments:          lines,
		RecordedAt:        now,
	}, nil
}

// IsRefund reports whether the sale is a refund
func (s *Sale) IsRefund() bool {
	return s.Kind == KindRefund
}

// Totals returns the signed payment totals per (tender, currency). Refunds
// are negative; voided sales contribute nothing.
func (s *Sale) Totals() valueobject.TenderTotals {
	var totals valueobject.TenderTotals
	if s.Status != StatusCompleted {
		return totals
	}
	for _, p := range s.Payments {
		amount := p.Amount
		if s.IsRefund() {
			amount = amount.Neg()
		}
		totals.Add(p.Tender, p.Currency, amount)
	}
	return totals
}

// StaffLunch is cash taken from a cashier's drawer for staff meals. It is
// deducted from the cash bucket of the expected amounts.
type StaffLunch struct {
	shared.ShopAggregateRoot
	CashierID    uuid.UUID
	BusinessDate time.Time
	Amount       valueobject.Money
	Description  string
	RecordedBy   uuid.UUID
	RecordedAt   time.Time
}

// NewStaffLunch validates and creates a staff lunch deduction
func NewStaffLunch(shopID, cashierID uuid.UUID, businessDate time.Time, amount valueobject.Money, description string, recordedBy uuid.UUID, now time.Time) (*StaffLunch, error) {
	if shopID == uuid.Nil || cashierID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "shop ID and cashier ID are required")
	}
	if !amount.IsPositive() {
		return nil, shared.NewDomainError(shared.CodeInvalidAmount, "staff lunch amount must be positive")
	}
	return &StaffLunch{
		ShopAggregateRoot: shared.NewShopAggregateRoot(shopID),
		CashierID:         cashierID,
		BusinessDate:      businessDate,
		Amount:            amount.RoundCash(),
		Description:       strings.TrimSpace(description),
		RecordedBy:        recordedBy,
		RecordedAt:        now,
	}, nil
}

// SaleRepository reads and writes the sales log. Sums are computed by the
// store so that they reflect the committed rows of the current transaction.
type SaleRepository interface {
	Create(ctx context.Context, sale *Sale) error
	FindByReference(ctx context.Context, shopID uuid.UUID, reference string) (*Sale, error)
	ListForDay(ctx context.Context, shopID uuid.UUID, date time.Time) ([]Sale, error)
	CountForDay(ctx context.Context, shopID uuid.UUID, date time.Time) (int64, error)
	// SumForCashier returns signed payment totals of completed sales and refunds
	SumForCashier(ctx context.Context, shopID, cashierID uuid.UUID, date time.Time) (valueobject.TenderTotals, error)
	// DeleteForDay purges the day's sales and their payment lines
	DeleteForDay(ctx context.Context, shopID uuid.UUID, date time.Time) (int64, error)
}

// StaffLunchRepository reads and writes staff lunch deductions
type StaffLunchRepository interface {
	Create(ctx context.Context, lunch *StaffLunch) error
	ListForDay(ctx context.Context, shopID uuid.UUID, date time.Time) ([]StaffLunch, error)
	// SumCashForCashier returns the day's deductions per currency
	SumCashForCashier(ctx context.Context, shopID, cashierID uuid.UUID, date time.Time) (valueobject.CurrencyAmounts, error)
	DeleteForDay(ctx context.Context, shopID uuid.UUID, date time.Time) (int64, error)
}

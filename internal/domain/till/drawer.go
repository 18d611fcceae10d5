package till

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shoppos/backend/internal/domain/shared"
	"github.com/shoppos/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// DrawerStatus represents the state of a cashier's drawer for the day
type DrawerStatus string

const (
	DrawerStatusInactive DrawerStatus = "INACTIVE"
	DrawerStatusActive   DrawerStatus = "ACTIVE"
	DrawerStatusSettled  DrawerStatus = "SETTLED"
)

// IsValid checks if the status is a valid DrawerStatus
func (s DrawerStatus) IsValid() bool {
	switch s {
	case DrawerStatusInactive, DrawerStatusActive, DrawerStatusSettled:
		return true
	}
	return false
}

// String returns the string representation of DrawerStatus
func (s DrawerStatus) String() string {
	return string(s)
}

// Drawer is the running ledger of one cashier's till for one business day.
// ExpectedCash is always Float plus cash session sales; it is recomputed by
// every mutation and never set on its own.
type Drawer struct {
	shared.ShopAggregateRoot
	CashierID    uuid.UUID
	BusinessDate time.Time
	Status       DrawerStatus
	Float        valueobject.CurrencyAmounts
	Current      valueobject.TenderTotals
	SessionSales valueobject.TenderTotals
	ExpectedCash valueobject.CurrencyAmounts
	CountedCash  valueobject.CurrencyAmounts

	// tender- and currency-agnostic aggregates kept for display
	SaleCount      int
	RefundCount    int
	LastActivityAt *time.Time

	FloatSetBy *uuid.UUID
	FloatSetAt *time.Time
	SettledAt  *time.Time
	SettledBy  *uuid.UUID
}

// NewDrawer creates a zeroed, inactive drawer
func NewDrawer(shopID, cashierID uuid.UUID, businessDate time.Time) (*Drawer, error) {
	if shopID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "shop ID cannot be empty")
	}
	if cashierID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "cashier ID cannot be empty")
	}
	return &Drawer{
		ShopAggregateRoot: shared.NewShopAggregateRoot(shopID),
		CashierID:         cashierID,
		BusinessDate:      DateOf(businessDate),
		Status:            DrawerStatusInactive,
	}, nil
}

func validateBucket(tender valueobject.Tender, currency valueobject.Currency, amount decimal.Decimal) error {
	if !tender.IsValid() {
		return shared.NewDomainError(shared.CodeInvalidInput, fmt.Sprintf("unsupported tender: %q", tender))
	}
	if !currency.IsValid() {
		return shared.NewDomainError(shared.CodeInvalidInput, fmt.Sprintf("unsupported currency: %q", currency))
	}
	if !amount.IsPositive() {
		return shared.NewDomainError(shared.CodeInvalidAmount, fmt.Sprintf("amount must be positive, got %s", amount.String()))
	}
	return nil
}

func (d *Drawer) requireMutable() error {
	if d.Status == DrawerStatusSettled {
		return shared.NewDomainError(shared.CodeInvalidTransition, "drawer is already settled")
	}
	return nil
}

// ApplySale adds a sale line to the drawer. The drawer does not deduplicate;
// the sales log guarantees each line is applied once.
func (d *Drawer) ApplySale(tender valueobject.Tender, currency valueobject.Currency, amount decimal.Decimal, now time.Time) error {
	if err := validateBucket(tender, currency, amount); err != nil {
		return err
	}
	if err := d.requireMutable(); err != nil {
		return err
	}
	amount = amount.RoundBank(valueobject.CashPlaces)

	d.Current.Add(tender, currency, amount)
	d.SessionSales.Add(tender, currency, amount)
	d.recomputeExpected()

	d.Status = DrawerStatusActive
	d.SaleCount++
	d.LastActivityAt = &now
	d.Touch(now)
	return nil
}

// ApplyRefund removes a refund line from the drawer. Every touched field is
// floored at zero so the drawer never shows negative holdings.
func (d *Drawer) ApplyRefund(tender valueobject.Tender, currency valueobject.Currency, amount decimal.Decimal, now time.Time) error {
	if err := validateBucket(tender, currency, amount); err != nil {
		return err
	}
	if err := d.requireMutable(); err != nil {
		return err
	}
	amount = amount.RoundBank(valueobject.CashPlaces)

	d.Current.Set(tender, currency, floorZero(d.Current.Get(tender, currency).Sub(amount)))
	d.SessionSales.Set(tender, currency, floorZero(d.SessionSales.Get(tender, currency).Sub(amount)))
	d.recomputeExpected()

	d.Status = DrawerStatusActive
	d.RefundCount++
	d.LastActivityAt = &now
	d.Touch(now)
	return nil
}

// SetFloat overwrites the float of every supplied currency. Past session
// sales are not adjusted. Authorization is checked by the caller.
func (d *Drawer) SetFloat(amounts map[valueobject.Currency]decimal.Decimal, by uuid.UUID, now time.Time) error {
	if len(amounts) == 0 {
		return shared.NewDomainError(shared.CodeInvalidInput, "no float amounts supplied")
	}
	if err := d.requireMutable(); err != nil {
		return err
	}
	for c, v := range amounts {
		if !c.IsValid() {
			return shared.NewDomainError(shared.CodeInvalidInput, fmt.Sprintf("unsupported currency: %q", c))
		}
		if v.IsNegative() {
			return shared.NewDomainError(shared.CodeInvalidAmount, fmt.Sprintf("float for %s cannot be negative", c))
		}
	}
	for c, v := range amounts {
		d.Float.Set(c, v.RoundBank(valueobject.CashPlaces))
	}
	d.recomputeExpected()

	if d.Status == DrawerStatusInactive {
		d.Status = DrawerStatusActive
	}
	d.FloatSetBy = &by
	d.FloatSetAt = &now
	d.Touch(now)

	d.AddDomainEvent(NewDrawerFloatSetEvent(d))
	return nil
}

// SettlementLine is the variance of one currency at settlement
type SettlementLine struct {
	Currency    valueobject.Currency
	Expected    decimal.Decimal
	Actual      decimal.Decimal
	Variance    decimal.Decimal
	VariancePct decimal.Decimal
}

// SettlementReport is returned by Settle
type SettlementReport struct {
	DrawerID  uuid.UUID
	CashierID uuid.UUID
	Lines     []SettlementLine
}

// Settle records the counted cash and freezes the drawer. Currencies not
// supplied are treated as counted at zero. Archiving and purging belong to
// the reconciliation session.
func (d *Drawer) Settle(counted map[valueobject.Currency]decimal.Decimal, by uuid.UUID, now time.Time) (*SettlementReport, error) {
	if err := d.requireMutable(); err != nil {
		return nil, err
	}
	for c, v := range counted {
		if !c.IsValid() {
			return nil, shared.NewDomainError(shared.CodeInvalidInput, fmt.Sprintf("unsupported currency: %q", c))
		}
		if v.IsNegative() {
			return nil, shared.NewDomainError(shared.CodeInvalidAmount, fmt.Sprintf("counted %s cannot be negative", c))
		}
	}

	var actual valueobject.CurrencyAmounts
	for c, v := range counted {
		actual.Set(c, v.RoundBank(valueobject.CashPlaces))
	}
	d.CountedCash = actual
	d.Status = DrawerStatusSettled
	d.SettledAt = &now
	d.SettledBy = &by
	d.Touch(now)

	report := d.settlementReport()
	d.AddDomainEvent(NewDrawerSettledEvent(d, report))
	return report, nil
}

func (d *Drawer) settlementReport() *SettlementReport {
	report := &SettlementReport{DrawerID: d.ID, CashierID: d.CashierID}
	for _, c := range valueobject.AllCurrencies() {
		expected := d.ExpectedCash.Get(c)
		actual := d.CountedCash.Get(c)
		variance := actual.Sub(expected)
		pct := decimal.Zero
		if !expected.IsZero() {
			pct = variance.Div(expected).Mul(decimal.NewFromInt(100)).Round(2)
		}
		report.Lines = append(report.Lines, SettlementLine{
			Currency:    c,
			Expected:    expected,
			Actual:      actual,
			Variance:    variance,
			VariancePct: pct,
		})
	}
	return report
}

// Zero resets every table and returns the drawer to INACTIVE. Used when the
// business day closes; the row is kept.
func (d *Drawer) Zero(now time.Time) {
	d.Float = valueobject.CurrencyAmounts{}
	d.Current = valueobject.TenderTotals{}
	d.SessionSales = valueobject.TenderTotals{}
	d.ExpectedCash = valueobject.CurrencyAmounts{}
	d.CountedCash = valueobject.CurrencyAmounts{}
	d.SaleCount = 0
	d.RefundCount = 0
	d.Status = DrawerStatusInactive
	d.FloatSetBy = nil
	d.FloatSetAt = nil
	d.SettledAt = nil
	d.SettledBy = nil
	d.Touch(now)
}

// CheckInvariant verifies ExpectedCash == Float + cash session sales for
// every currency. Used by repositories after loading and by tests.
func (d *Drawer) CheckInvariant() error {
	for _, c := range valueobject.AllCurrencies() {
		want := d.Float.Get(c).Add(d.SessionSales.Get(valueobject.TenderCash, c))
		if !d.ExpectedCash.Get(c).Equal(want) {
			return fmt.Errorf("drawer %s: expected cash %s %s does not equal float plus cash sales %s",
				d.ID, d.ExpectedCash.Get(c).StringFixed(2), c, want.StringFixed(2))
		}
	}
	return nil
}

func (d *Drawer) recomputeExpected() {
	for _, c := range valueobject.AllCurrencies() {
		d.ExpectedCash.Set(c, d.Float.Get(c).Add(d.SessionSales.Get(valueobject.TenderCash, c)))
	}
}

func floorZero(v decimal.Decimal) decimal.Decimal {
	if v.IsNegative() {
		return decimal.Zero
	}
	return v
}

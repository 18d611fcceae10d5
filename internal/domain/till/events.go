package till

import (
	"time"

	"github.com/google/uuid"
	"github.com/shoppos/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Aggregate type constants
const (
	AggregateTypeBusinessDay    = "BusinessDay"
	AggregateTypeDrawer         = "Drawer"
	AggregateTypeCountSheet     = "CountSheet"
	AggregateTypeReconciliation = "ReconciliationSession"
)

// Event type constants
const (
	EventTypeBusinessDayOpened      = "BusinessDayOpened"
	EventTypeBusinessDayClosed      = "BusinessDayClosed"
	EventTypeBusinessDayRolledOver  = "BusinessDayRolledOver"
	EventTypeDrawerFloatSet         = "DrawerFloatSet"
	EventTypeDrawerSettled          = "DrawerSettled"
	EventTypeCountSheetCompleted    = "CountSheetCompleted"
	EventTypeReconciliationComplete = "ReconciliationCompleted"
)

// BusinessDayOpenedEvent is raised when trading starts
type BusinessDayOpenedEvent struct {
	shared.BaseDomainEvent
	BusinessDate time.Time `json:"business_date"`
	OpenedBy     uuid.UUID `json:"opened_by"`
	Notes        string    `json:"notes,omitempty"`
}

// NewBusinessDayOpenedEvent creates a new BusinessDayOpenedEvent
func NewBusinessDayOpenedEvent(d *BusinessDay) *BusinessDayOpenedEvent {
	e := &BusinessDayOpenedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeBusinessDayOpened, AggregateTypeBusinessDay, d.ID, d.ShopID),
		BusinessDate:    d.Date,
		Notes:           d.OpenNotes,
	}
	if d.OpenedBy != nil {
		e.OpenedBy = *d.OpenedBy
	}
	return e
}

// BusinessDayClosedEvent is raised when trading ends
type BusinessDayClosedEvent struct {
	shared.BaseDomainEvent
	BusinessDate time.Time `json:"business_date"`
	ClosedBy     uuid.UUID `json:"closed_by"`
	Notes        string    `json:"notes,omitempty"`
}

// NewBusinessDayClosedEvent creates a new BusinessDayClosedEvent
func NewBusinessDayClosedEvent(d *BusinessDay) *BusinessDayClosedEvent {
	e := &BusinessDayClosedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeBusinessDayClosed, AggregateTypeBusinessDay, d.ID, d.ShopID),
		BusinessDate:    d.Date,
		Notes:           d.CloseNotes,
	}
	if d.ClosedBy != nil {
		e.ClosedBy = *d.ClosedBy
	}
	return e
}

// BusinessDayRolledOverEvent is raised when an unattended open day is
// carried into the next calendar day
type BusinessDayRolledOverEvent struct {
	shared.BaseDomainEvent
	FromDate time.Time `json:"from_date"`
	ToDate   time.Time `json:"to_date"`
}

// NewBusinessDayRolledOverEvent creates a new BusinessDayRolledOverEvent
func NewBusinessDayRolledOverEvent(previous, next *BusinessDay) *BusinessDayRolledOverEvent {
	return &BusinessDayRolledOverEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeBusinessDayRolledOver, AggregateTypeBusinessDay, next.ID, next.ShopID),
		FromDate:        previous.Date,
		ToDate:          next.Date,
	}
}

// DrawerFloatSetEvent is raised when the owner changes a drawer's float
type DrawerFloatSetEvent struct {
	shared.BaseDomainEvent
	CashierID    uuid.UUID                  `json:"cashier_id"`
	BusinessDate time.Time                  `json:"business_date"`
	Float        map[string]decimal.Decimal `json:"float"`
}

// NewDrawerFloatSetEvent creates a new DrawerFloatSetEvent
func NewDrawerFloatSetEvent(d *Drawer) *DrawerFloatSetEvent {
	float := make(map[string]decimal.Decimal)
	for c, v := range d.Float.ToMap() {
		float[c.String()] = v
	}
	return &DrawerFloatSetEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeDrawerFloatSet, AggregateTypeDrawer, d.ID, d.ShopID),
		CashierID:       d.CashierID,
		BusinessDate:    d.BusinessDate,
		Float:           float,
	}
}

// DrawerSettledEvent is raised when a cashier's drawer is settled
type DrawerSettledEvent struct {
	shared.BaseDomainEvent
	CashierID    uuid.UUID        `json:"cashier_id"`
	BusinessDate time.Time        `json:"business_date"`
	Lines        []SettlementLine `json:"lines"`
}

// NewDrawerSettledEvent creates a new DrawerSettledEvent
func NewDrawerSettledEvent(d *Drawer, report *SettlementReport) *DrawerSettledEvent {
	return &DrawerSettledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeDrawerSettled, AggregateTypeDrawer, d.ID, d.ShopID),
		CashierID:       d.CashierID,
		BusinessDate:    d.BusinessDate,
		Lines:           report.Lines,
	}
}

// CountSheetCompletedEvent is raised when a cashier submits a count
type CountSheetCompletedEvent struct {
	shared.BaseDomainEvent
	CashierID    uuid.UUID                  `json:"cashier_id"`
	BusinessDate time.Time                  `json:"business_date"`
	CashVariance map[string]decimal.Decimal `json:"cash_variance"`
}

// NewCountSheetCompletedEvent creates a new CountSheetCompletedEvent
func NewCountSheetCompletedEvent(s *CountSheet) *CountSheetCompletedEvent {
	variance := make(map[string]decimal.Decimal)
	for _, line := range s.Variance.Lines() {
		if line.Tender.IsCash() {
			variance[line.Currency.String()] = line.Amount
		}
	}
	return &CountSheetCompletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCountSheetCompleted, AggregateTypeCountSheet, s.ID, s.ShopID),
		CashierID:       s.CashierID,
		BusinessDate:    s.BusinessDate,
		CashVariance:    variance,
	}
}

// ReconciliationCompletedEvent is raised once a day's counts are archived
// and the day is closed
type ReconciliationCompletedEvent struct {
	shared.BaseDomainEvent
	BusinessDate  time.Time        `json:"business_date"`
	CompletedBy   uuid.UUID        `json:"completed_by"`
	Forced        bool             `json:"forced"`
	ArchivedCount int              `json:"archived_count"`
	Totals        []CurrencyTotals `json:"totals"`
}

// NewReconciliationCompletedEvent creates a new ReconciliationCompletedEvent
func NewReconciliationCompletedEvent(r *ReconciliationSession) *ReconciliationCompletedEvent {
	e := &ReconciliationCompletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeReconciliationComplete, AggregateTypeReconciliation, r.ID, r.ShopID),
		BusinessDate:    r.BusinessDate,
		Forced:          r.Forced,
		ArchivedCount:   r.ArchivedCount,
		Totals:          r.Totals,
	}
	if r.CompletedBy != nil {
		e.CompletedBy = *r.CompletedBy
	}
	return e
}

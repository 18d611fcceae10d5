package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shoppos/backend/internal/domain/shared/valueobject"
	"github.com/shoppos/backend/internal/domain/till"
	"github.com/shopspring/decimal"
)

// BusinessDayModel is the persistence model for the BusinessDay aggregate root.
type BusinessDayModel struct {
	AggregateModel
	ShopID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_business_day_shop_date,priority:1"`
	Date           time.Time  `gorm:"type:date;not null;uniqueIndex:idx_business_day_shop_date,priority:2"`
	Status         string     `gorm:"type:varchar(10);not null;default:'CLOSED'"`
	OpenedAt       *time.Time
	OpenedBy       *uuid.UUID `gorm:"type:uuid"`
	OpenNotes      string     `gorm:"type:text"`
	ClosedAt       *time.Time
	ClosedBy       *uuid.UUID `gorm:"type:uuid"`
	CloseNotes     string     `gorm:"type:text"`
	CarriedForward bool       `gorm:"not null;default:false"`
	RolledOverTo   *time.Time `gorm:"type:date"`
}

// TableName returns the table name for GORM
func (BusinessDayModel) TableName() string {
	return "business_days"
}

// ToDomain converts the persistence model to a domain BusinessDay
func (m *BusinessDayModel) ToDomain() *till.BusinessDay {
	return &till.BusinessDay{
		ShopAggregateRoot: m.ToDomainShopAggregateRoot(m.ShopID),
		Date:              till.DateOf(m.Date),
		Status:            till.DayStatus(m.Status),
		OpenedAt:          m.OpenedAt,
		OpenedBy:          m.OpenedBy,
		OpenNotes:         m.OpenNotes,
		ClosedAt:          m.ClosedAt,
		ClosedBy:          m.ClosedBy,
		CloseNotes:        m.CloseNotes,
		CarriedForward:    m.CarriedForward,
		RolledOverTo:      m.RolledOverTo,
	}
}

// FromDomain populates the persistence model from a domain BusinessDay
func (m *BusinessDayModel) FromDomain(d *till.BusinessDay) {
	m.FromDomainAggregateRoot(d.BaseAggregateRoot)
	m.ShopID = d.ShopID
	m.Date = d.Date
	m.Status = string(d.Status)
	m.OpenedAt = d.OpenedAt
	m.OpenedBy = d.OpenedBy
	m.OpenNotes = d.OpenNotes
	m.ClosedAt = d.ClosedAt
	m.ClosedBy = d.ClosedBy
	m.CloseNotes = d.CloseNotes
	m.CarriedForward = d.CarriedForward
	m.RolledOverTo = d.RolledOverTo
}

// BusinessDayModelFromDomain creates a new persistence model from a domain BusinessDay
func BusinessDayModelFromDomain(d *till.BusinessDay) *BusinessDayModel {
	m := &BusinessDayModel{}
	m.FromDomain(d)
	return m
}

// DrawerModel is the persistence model for the Drawer aggregate root.
// One row per (shop, cashier, business date).
type DrawerModel struct {
	AggregateModel
	ShopID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_drawer_shop_cashier_date,priority:1"`
	CashierID      uuid.UUID     `gorm:"type:uuid;not null;uniqueIndex:idx_drawer_shop_cashier_date,priority:2"`
	BusinessDate   time.Time     `gorm:"type:date;not null;uniqueIndex:idx_drawer_shop_cashier_date,priority:3;index"`
	Status         string        `gorm:"type:varchar(10);not null;default:'INACTIVE'"`
	Float          CurrencyTable `gorm:"type:jsonb;serializer:json;not null"`
	Current        TenderTable   `gorm:"type:jsonb;serializer:json;not null"`
	SessionSales   TenderTable   `gorm:"type:jsonb;serializer:json;not null"`
	ExpectedCash   CurrencyTable `gorm:"type:jsonb;serializer:json;not null"`
	CountedCash    CurrencyTable `gorm:"type:jsonb;serializer:json;not null"`
	SaleCount      int           `gorm:"not null;default:0"`
	RefundCount    int           `gorm:"not null;default:0"`
	LastActivityAt *time.Time
	FloatSetBy     *uuid.UUID `gorm:"type:uuid"`
	FloatSetAt     *time.Time
	SettledAt      *time.Time
	SettledBy      *uuid.UUID `gorm:"type:uuid"`
}

// TableName returns the table name for GORM
func (DrawerModel) TableName() string {
	return "drawers"
}

// ToDomain converts the persistence model to a domain Drawer
func (m *DrawerModel) ToDomain() *till.Drawer {
	return &till.Drawer{
		ShopAggregateRoot: m.ToDomainShopAggregateRoot(m.ShopID),
		CashierID:         m.CashierID,
		BusinessDate:      till.DateOf(m.BusinessDate),
		Status:            till.DrawerStatus(m.Status),
		Float:             m.Float.ToDomain(),
		Current:           m.Current.ToDomain(),
		SessionSales:      m.SessionSales.ToDomain(),
		ExpectedCash:      m.ExpectedCash.ToDomain(),
		CountedCash:       m.CountedCash.ToDomain(),
		SaleCount:         m.SaleCount,
		RefundCount:       m.RefundCount,
		LastActivityAt:    m.LastActivityAt,
		FloatSetBy:        m.FloatSetBy,
		FloatSetAt:        m.FloatSetAt,
		SettledAt:         m.SettledAt,
		SettledBy:         m.SettledBy,
	}
}

// FromDomain populates the persistence model from a domain Drawer
func (m *DrawerModel) FromDomain(d *till.Drawer) {
	m.FromDomainAggregateRoot(d.BaseAggregateRoot)
	m.ShopID = d.ShopID
	m.CashierID = d.CashierID
	m.BusinessDate = d.BusinessDate
	m.Status = string(d.Status)
	m.Float = CurrencyTableFrom(d.Float)
	m.Current = TenderTableFrom(d.Current)
	m.SessionSales = TenderTableFrom(d.SessionSales)
	m.ExpectedCash = CurrencyTableFrom(d.ExpectedCash)
	m.CountedCash = CurrencyTableFrom(d.CountedCash)
	m.SaleCount = d.SaleCount
	m.RefundCount = d.RefundCount
	m.LastActivityAt = d.LastActivityAt
	m.FloatSetBy = d.FloatSetBy
	m.FloatSetAt = d.FloatSetAt
	m.SettledAt = d.SettledAt
	m.SettledBy = d.SettledBy
}

// DrawerModelFromDomain creates a new persistence model from a domain Drawer
func DrawerModelFromDomain(d *till.Drawer) *DrawerModel {
	m := &DrawerModel{}
	m.FromDomain(d)
	return m
}

// CountSheetModel is the persistence model for the CountSheet aggregate root.
type CountSheetModel struct {
	AggregateModel
	ShopID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_count_sheet_shop_cashier_date,priority:1"`
	CashierID    uuid.UUID     `gorm:"type:uuid;not null;uniqueIndex:idx_count_sheet_shop_cashier_date,priority:2"`
	BusinessDate time.Time     `gorm:"type:date;not null;uniqueIndex:idx_count_sheet_shop_cashier_date,priority:3;index"`
	Status       string        `gorm:"type:varchar(20);not null;default:'IN_PROGRESS'"`
	Electronic   TenderTable   `gorm:"type:jsonb;serializer:json;not null"`
	Expected     TenderTable   `gorm:"type:jsonb;serializer:json;not null"`
	CashTotal    CurrencyTable `gorm:"type:jsonb;serializer:json;not null"`
	Variance     TenderTable   `gorm:"type:jsonb;serializer:json;not null"`
	Notes        string        `gorm:"type:text"`
	CompletedAt  *time.Time
	CompletedBy  *uuid.UUID `gorm:"type:uuid"`
	ReviewedAt   *time.Time
	ReviewedBy   *uuid.UUID `gorm:"type:uuid"`
	// Associations
	Lines []CountSheetLineModel `gorm:"foreignKey:CountSheetID;references:ID"`
}

// TableName returns the table name for GORM
func (CountSheetModel) TableName() string {
	return "count_sheets"
}

// ToDomain converts the persistence model to a domain CountSheet
func (m *CountSheetModel) ToDomain() *till.CountSheet {
	counts := make(map[string]int, len(m.Lines))
	for _, l := range m.Lines {
		counts[l.DenominationCode] = l.Count
	}
	return &till.CountSheet{
		ShopAggregateRoot: m.ToDomainShopAggregateRoot(m.ShopID),
		CashierID:         m.CashierID,
		BusinessDate:      till.DateOf(m.BusinessDate),
		Status:            till.CountStatus(m.Status),
		Counts:            counts,
		Electronic:        m.Electronic.ToDomain(),
		Expected:          m.Expected.ToDomain(),
		CashTotal:         m.CashTotal.ToDomain(),
		Variance:          m.Variance.ToDomain(),
		Notes:             m.Notes,
		CompletedAt:       m.CompletedAt,
		CompletedBy:       m.CompletedBy,
		ReviewedAt:        m.ReviewedAt,
		ReviewedBy:        m.ReviewedBy,
	}
}

// FromDomain populates the persistence model from a domain CountSheet.
// Lines are emitted in denomination table order and zero counts are kept
// so an explicitly entered zero survives a reload.
func (m *CountSheetModel) FromDomain(s *till.CountSheet) {
	m.FromDomainAggregateRoot(s.BaseAggregateRoot)
	m.ShopID = s.ShopID
	m.CashierID = s.CashierID
	m.BusinessDate = s.BusinessDate
	m.Status = string(s.Status)
	m.Electronic = TenderTableFrom(s.Electronic)
	m.Expected = TenderTableFrom(s.Expected)
	m.CashTotal = CurrencyTableFrom(s.CashTotal)
	m.Variance = TenderTableFrom(s.Variance)
	m.Notes = s.Notes
	m.CompletedAt = s.CompletedAt
	m.CompletedBy = s.CompletedBy
	m.ReviewedAt = s.ReviewedAt
	m.ReviewedBy = s.ReviewedBy

	m.Lines = make([]CountSheetLineModel, 0, len(s.Counts))
	for _, c := range valueobject.AllCurrencies() {
		for _, d := range till.Denominations(c) {
			count, ok := s.Counts[d.Code]
			if !ok {
				continue
			}
			m.Lines = append(m.Lines, CountSheetLineModel{
				CountSheetID:     s.ID,
				DenominationCode: d.Code,
				Currency:         string(d.Currency),
				FaceValue:        d.FaceValue,
				Count:            count,
			})
		}
	}
}

// CountSheetModelFromDomain creates a new persistence model from a domain CountSheet
func CountSheetModelFromDomain(s *till.CountSheet) *CountSheetModel {
	m := &CountSheetModel{}
	m.FromDomain(s)
	return m
}

// CountSheetLineModel stores the count of one denomination on a sheet
type CountSheetLineModel struct {
	ID               uint            `gorm:"primaryKey;autoIncrement"`
	CountSheetID     uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_count_sheet_line,priority:1"`
	DenominationCode string          `gorm:"type:varchar(20);not null;uniqueIndex:idx_count_sheet_line,priority:2"`
	Currency         string          `gorm:"type:varchar(5);not null"`
	FaceValue        decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	Count            int             `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (CountSheetLineModel) TableName() string {
	return "count_sheet_lines"
}

// CurrencyTotalsRow is the stored form of till.CurrencyTotals
type CurrencyTotalsRow struct {
	Currency string          `json:"currency"`
	Expected decimal.Decimal `json:"expected"`
	Counted  decimal.Decimal `json:"counted"`
	Variance decimal.Decimal `json:"variance"`
}

// ReconciliationSessionModel is the persistence model for the
// ReconciliationSession aggregate root. One row per shop and day.
type ReconciliationSessionModel struct {
	AggregateModel
	ShopID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_session_shop_date,priority:1"`
	BusinessDate  time.Time           `gorm:"type:date;not null;uniqueIndex:idx_session_shop_date,priority:2"`
	Status        string              `gorm:"type:varchar(20);not null;default:'NOT_STARTED'"`
	Totals        []CurrencyTotalsRow `gorm:"type:jsonb;serializer:json;not null"`
	SheetCount    int                 `gorm:"not null;default:0"`
	ArchivedCount int                 `gorm:"not null;default:0"`
	Forced        bool                `gorm:"not null;default:false"`
	StartedAt     *time.Time
	StartedBy     *uuid.UUID `gorm:"type:uuid"`
	CompletedAt   *time.Time
	CompletedBy   *uuid.UUID `gorm:"type:uuid"`
	ReconciledAt  *time.Time
	ReconciledBy  *uuid.UUID `gorm:"type:uuid"`
}

// TableName returns the table name for GORM
func (ReconciliationSessionModel) TableName() string {
	return "reconciliation_sessions"
}

// ToDomain converts the persistence model to a domain ReconciliationSession
func (m *ReconciliationSessionModel) ToDomain() *till.ReconciliationSession {
	totals := make([]till.CurrencyTotals, len(m.Totals))
	for i, t := range m.Totals {
		totals[i] = till.CurrencyTotals{
			Currency: valueobject.Currency(t.Currency),
			Expected: t.Expected,
			Counted:  t.Counted,
			Variance: t.Variance,
		}
	}
	return &till.ReconciliationSession{
		ShopAggregateRoot: m.ToDomainShopAggregateRoot(m.ShopID),
		BusinessDate:      till.DateOf(m.BusinessDate),
		Status:            till.SessionStatus(m.Status),
		Totals:            totals,
		SheetCount:        m.SheetCount,
		ArchivedCount:     m.ArchivedCount,
		Forced:            m.Forced,
		StartedAt:         m.StartedAt,
		StartedBy:         m.StartedBy,
		CompletedAt:       m.CompletedAt,
		CompletedBy:       m.CompletedBy,
		ReconciledAt:      m.ReconciledAt,
		ReconciledBy:      m.ReconciledBy,
	}
}

// FromDomain populates the persistence model from a domain ReconciliationSession
func (m *ReconciliationSessionModel) FromDomain(r *till.ReconciliationSession) {
	m.FromDomainAggregateRoot(r.BaseAggregateRoot)
	m.ShopID = r.ShopID
	m.BusinessDate = r.BusinessDate
	m.Status = string(r.Status)
	m.Totals = make([]CurrencyTotalsRow, len(r.Totals))
	for i, t := range r.Totals {
		m.Totals[i] = CurrencyTotalsRow{
			Currency: t.Currency.String(),
			Expected: t.Expected,
			Counted:  t.Counted,
			Variance: t.Variance,
		}
	}
	m.SheetCount = r.SheetCount
	m.ArchivedCount = r.ArchivedCount
	m.Forced = r.Forced
	m.StartedAt = r.StartedAt
	m.StartedBy = r.StartedBy
	m.CompletedAt = r.CompletedAt
	m.CompletedBy = r.CompletedBy
	m.ReconciledAt = r.ReconciledAt
	m.ReconciledBy = r.ReconciledBy
}

// ReconciliationSessionModelFromDomain creates a new persistence model from a domain session
func ReconciliationSessionModelFromDomain(r *till.ReconciliationSession) *ReconciliationSessionModel {
	m := &ReconciliationSessionModel{}
	m.FromDomain(r)
	return m
}

// DenominationCountRow is the stored form of one archived denomination count
type DenominationCountRow struct {
	Code  string `json:"code"`
	Count int    `json:"count"`
}

// CountArchiveModel is the persistence model for the append-only CountArchive.
// It has no version column: archive rows are never updated.
type CountArchiveModel struct {
	BaseModel
	ShopID       uuid.UUID              `gorm:"type:uuid;not null;index:idx_archive_shop_date,priority:1;index:idx_archive_shop_cashier,priority:1"`
	SessionID    uuid.UUID              `gorm:"type:uuid;not null;index"`
	CountSheetID uuid.UUID              `gorm:"type:uuid;not null;uniqueIndex"`
	CashierID    uuid.UUID              `gorm:"type:uuid;not null;index:idx_archive_shop_cashier,priority:2"`
	BusinessDate time.Time              `gorm:"type:date;not null;index:idx_archive_shop_date,priority:2"`
	SheetStatus  string                 `gorm:"type:varchar(20);not null"`
	Counts       []DenominationCountRow `gorm:"type:jsonb;serializer:json;not null"`
	Electronic   TenderTable            `gorm:"type:jsonb;serializer:json;not null"`
	Expected     TenderTable            `gorm:"type:jsonb;serializer:json;not null"`
	Variance     TenderTable            `gorm:"type:jsonb;serializer:json;not null"`
	CashTotal    CurrencyTable          `gorm:"type:jsonb;serializer:json;not null"`
	Status       string                 `gorm:"type:varchar(10);not null;index"`
	ArchivedAt   time.Time              `gorm:"not null"`
	ArchivedBy   uuid.UUID              `gorm:"type:uuid;not null"`
	// Associations
	Lines []CountArchiveLineModel `gorm:"foreignKey:ArchiveID;references:ID"`
}

// TableName returns the table name for GORM
func (CountArchiveModel) TableName() string {
	return "count_archives"
}

// ToDomain converts the persistence model to a domain CountArchive
func (m *CountArchiveModel) ToDomain() *till.CountArchive {
	counts := make([]till.DenominationCount, 0, len(m.Counts))
	for _, c := range m.Counts {
		d, err := till.LookupDenomination(c.Code)
		if err != nil {
			continue
		}
		counts = append(counts, till.DenominationCount{Denomination: d, Count: c.Count})
	}
	lines := make([]till.ArchiveLine, len(m.Lines))
	for i, l := range m.Lines {
		lines[i] = till.ArchiveLine{
			Currency: valueobject.Currency(l.Currency),
			Expected: l.Expected,
			Counted:  l.Counted,
			Variance: l.Variance,
			Status:   till.ArchiveStatus(l.Status),
		}
	}
	return &till.CountArchive{
		BaseEntity:   m.BaseModel.ToDomain(),
		ShopID:       m.ShopID,
		SessionID:    m.SessionID,
		CountSheetID: m.CountSheetID,
		CashierID:    m.CashierID,
		BusinessDate: till.DateOf(m.BusinessDate),
		SheetStatus:  till.CountStatus(m.SheetStatus),
		Counts:       counts,
		Electronic:   m.Electronic.ToDomain(),
		Expected:     m.Expected.ToDomain(),
		Variance:     m.Variance.ToDomain(),
		CashTotal:    m.CashTotal.ToDomain(),
		Lines:        lines,
		Status:       till.ArchiveStatus(m.Status),
		ArchivedAt:   m.ArchivedAt,
		ArchivedBy:   m.ArchivedBy,
	}
}

// CountArchiveModelFromDomain creates a new persistence model from a domain CountArchive
func CountArchiveModelFromDomain(a *till.CountArchive) *CountArchiveModel {
	m := &CountArchiveModel{
		ShopID:       a.ShopID,
		SessionID:    a.SessionID,
		CountSheetID: a.CountSheetID,
		CashierID:    a.CashierID,
		BusinessDate: a.BusinessDate,
		SheetStatus:  string(a.SheetStatus),
		Electronic:   TenderTableFrom(a.Electronic),
		Expected:     TenderTableFrom(a.Expected),
		Variance:     TenderTableFrom(a.Variance),
		CashTotal:    CurrencyTableFrom(a.CashTotal),
		Status:       string(a.Status),
		ArchivedAt:   a.ArchivedAt,
		ArchivedBy:   a.ArchivedBy,
	}
	m.FromDomainBaseEntity(a.BaseEntity)
	m.Counts = make([]DenominationCountRow, len(a.Counts))
	for i, c := range a.Counts {
		m.Counts[i] = DenominationCountRow{Code: c.Code, Count: c.Count}
	}
	m.Lines = make([]CountArchiveLineModel, len(a.Lines))
	for i, l := range a.Lines {
		m.Lines[i] = CountArchiveLineModel{
			ArchiveID: a.ID,
			Currency:  l.Currency.String(),
			Expected:  l.Expected,
			Counted:   l.Counted,
			Variance:  l.Variance,
			Status:    string(l.Status),
		}
	}
	return m
}

// CountArchiveLineModel stores the per-currency outcome of an archived sheet
type CountArchiveLineModel struct {
	ID        uint            `gorm:"primaryKey;autoIncrement"`
	ArchiveID uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_archive_line,priority:1"`
	Currency  string          `gorm:"type:varchar(5);not null;uniqueIndex:idx_archive_line,priority:2"`
	Expected  decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	Counted   decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	Variance  decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	Status    string          `gorm:"type:varchar(10);not null"`
}

// TableName returns the table name for GORM
func (CountArchiveLineModel) TableName() string {
	return "count_archive_lines"
}

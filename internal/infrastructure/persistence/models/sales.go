package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shoppos/backend/internal/domain/sales"
	"github.com/shoppos/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// SaleModel is the persistence model for the Sale aggregate root.
type SaleModel struct {
	AggregateModel
	ShopID       uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_sale_shop_reference,priority:1;index:idx_sale_shop_date,priority:1"`
	CashierID    uuid.UUID `gorm:"type:uuid;not null;index"`
	BusinessDate time.Time `gorm:"type:date;not null;index:idx_sale_shop_date,priority:2"`
	Reference    string    `gorm:"type:varchar(100);not null;uniqueIndex:idx_sale_shop_reference,priority:2"`
	Kind         string    `gorm:"type:varchar(10);not null"`
	Status       string    `gorm:"type:varchar(10);not null;default:'COMPLETED'"`
	RecordedAt   time.Time `gorm:"not null"`
	// Associations
	Payments []SalePaymentModel `gorm:"foreignKey:SaleID;references:ID"`
}

// TableName returns the table name for GORM
func (SaleModel) TableName() string {
	return "sales"
}

// ToDomain converts the persistence model to a domain Sale
func (m *SaleModel) ToDomain() *sales.Sale {
	payments := make([]sales.Payment, len(m.Payments))
	for i, p := range m.Payments {
		payments[i] = sales.Payment{
			Tender:   valueobject.Tender(p.Tender),
			Currency: valueobject.Currency(p.Currency),
			Amount:   p.Amount,
		}
	}
	return &sales.Sale{
		ShopAggregateRoot: m.ToDomainShopAggregateRoot(m.ShopID),
		CashierID:         m.CashierID,
		BusinessDate:      dateOnly(m.BusinessDate),
		Reference:         m.Reference,
		Kind:              sales.Kind(m.Kind),
		Status:            sales.Status(m.Status),
		Payments:          payments,
		RecordedAt:        m.RecordedAt,
	}
}

// SaleModelFromDomain creates a new persistence model from a domain Sale
func SaleModelFromDomain(s *sales.Sale) *SaleModel {
	m := &SaleModel{
		ShopID:       s.ShopID,
		CashierID:    s.CashierID,
		BusinessDate: s.BusinessDate,
		Reference:    s.Reference,
		Kind:         string(s.Kind),
		Status:       string(s.Status),
		RecordedAt:   s.RecordedAt,
	}
	m.FromDomainAggregateRoot(s.BaseAggregateRoot)
	m.Payments = make([]SalePaymentModel, len(s.Payments))
	for i, p := range s.Payments {
		m.Payments[i] = SalePaymentModel{
			SaleID:   s.ID,
			Position: i,
			Tender:   p.Tender.String(),
			Currency: p.Currency.String(),
			Amount:   p.Amount,
		}
	}
	return m
}

// SalePaymentModel is one tender line of a sale
type SalePaymentModel struct {
	ID       uint            `gorm:"primaryKey;autoIncrement"`
	SaleID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	Position int             `gorm:"not null;default:0"`
	Tender   string          `gorm:"type:varchar(20);not null"`
	Currency string          `gorm:"type:varchar(5);not null"`
	Amount   decimal.Decimal `gorm:"type:decimal(18,2);not null"`
}

// TableName returns the table name for GORM
func (SalePaymentModel) TableName() string {
	return "sale_payments"
}

// StaffLunchModel is the persistence model for the StaffLunch aggregate root.
type StaffLunchModel struct {
	AggregateModel
	ShopID       uuid.UUID       `gorm:"type:uuid;not null;index:idx_lunch_shop_date,priority:1"`
	CashierID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	BusinessDate time.Time       `gorm:"type:date;not null;index:idx_lunch_shop_date,priority:2"`
	Currency     string          `gorm:"type:varchar(5);not null"`
	Amount       decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	Description  string          `gorm:"type:varchar(255)"`
	RecordedBy   uuid.UUID       `gorm:"type:uuid;not null"`
	RecordedAt   time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (StaffLunchModel) TableName() string {
	return "staff_lunches"
}

// ToDomain converts the persistence model to a domain StaffLunch
func (m *StaffLunchModel) ToDomain() *sales.StaffLunch {
	amount, err := valueobject.NewMoney(m.Amount, valueobject.Currency(m.Currency))
	if err != nil {
		amount = valueobject.Zero(valueobject.USD)
	}
	return &sales.StaffLunch{
		ShopAggregateRoot: m.ToDomainShopAggregateRoot(m.ShopID),
		CashierID:         m.CashierID,
		BusinessDate:      dateOnly(m.BusinessDate),
		Amount:            amount,
		Description:       m.Description,
		RecordedBy:        m.RecordedBy,
		RecordedAt:        m.RecordedAt,
	}
}

// StaffLunchModelFromDomain creates a new persistence model from a domain StaffLunch
func StaffLunchModelFromDomain(l *sales.StaffLunch) *StaffLunchModel {
	m := &StaffLunchModel{
		ShopID:       l.ShopID,
		CashierID:    l.CashierID,
		BusinessDate: l.BusinessDate,
		Currency:     l.Amount.Currency().String(),
		Amount:       l.Amount.Amount(),
		Description:  l.Description,
		RecordedBy:   l.RecordedBy,
		RecordedAt:   l.RecordedAt,
	}
	m.FromDomainAggregateRoot(l.BaseAggregateRoot)
	return m
}

func dateOnly(t time.Time) time.Time {
	y, mo, d := t.Date()
	return time.Date(y, mo, d, 0, 0, 0, 0, time.UTC)
}

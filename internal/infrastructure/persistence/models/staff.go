package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shoppos/backend/internal/domain/staff"
)

// CashierModel is the persistence model for the Cashier roster entry.
type CashierModel struct {
	AggregateModel
	ShopID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_cashier_shop_user,priority:1"`
	UserID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_cashier_shop_user,priority:2"`
	DisplayName string    `gorm:"type:varchar(100);not null"`
	Role        string    `gorm:"type:varchar(20);not null;default:'cashier'"`
	Active      bool      `gorm:"not null"`
}

// TableName returns the table name for GORM
func (CashierModel) TableName() string {
	return "cashiers"
}

// ToDomain converts the persistence model to a domain Cashier
func (m *CashierModel) ToDomain() *staff.Cashier {
	return &staff.Cashier{
		ShopAggregateRoot: m.ToDomainShopAggregateRoot(m.ShopID),
		UserID:            m.UserID,
		DisplayName:       m.DisplayName,
		Role:              staff.Role(m.Role),
		Active:            m.Active,
	}
}

// CashierModelFromDomain creates a new persistence model from a domain Cashier
func CashierModelFromDomain(c *staff.Cashier) *CashierModel {
	m := &CashierModel{
		ShopID:      c.ShopID,
		UserID:      c.UserID,
		DisplayName: c.DisplayName,
		Role:        string(c.Role),
		Active:      c.Active,
	}
	m.FromDomainAggregateRoot(c.BaseAggregateRoot)
	return m
}

// ShiftModel is the persistence model for the Shift aggregate root.
type ShiftModel struct {
	AggregateModel
	ShopID       uuid.UUID `gorm:"type:uuid;not null;index:idx_shift_shop_date,priority:1"`
	CashierID    uuid.UUID `gorm:"type:uuid;not null;index"`
	BusinessDate time.Time `gorm:"type:date;not null;index:idx_shift_shop_date,priority:2"`
	StartedAt    time.Time `gorm:"not null"`
	EndedAt      *time.Time
	EndReason    string `gorm:"type:varchar(100)"`
}

// TableName returns the table name for GORM
func (ShiftModel) TableName() string {
	return "shifts"
}

// ToDomain converts the persistence model to a domain Shift
func (m *ShiftModel) ToDomain() *staff.Shift {
	return &staff.Shift{
		ShopAggregateRoot: m.ToDomainShopAggregateRoot(m.ShopID),
		CashierID:         m.CashierID,
		BusinessDate:      dateOnly(m.BusinessDate),
		StartedAt:         m.StartedAt,
		EndedAt:           m.EndedAt,
		EndReason:         m.EndReason,
	}
}

// ShiftModelFromDomain creates a new persistence model from a domain Shift
func ShiftModelFromDomain(s *staff.Shift) *ShiftModel {
	m := &ShiftModel{
		ShopID:       s.ShopID,
		CashierID:    s.CashierID,
		BusinessDate: s.BusinessDate,
		StartedAt:    s.StartedAt,
		EndedAt:      s.EndedAt,
		EndReason:    s.EndReason,
	}
	m.FromDomainAggregateRoot(s.BaseAggregateRoot)
	return m
}

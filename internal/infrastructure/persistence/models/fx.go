package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shoppos/backend/internal/domain/fx"
	"github.com/shoppos/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// ExchangeRateModel is the persistence model for an exchange rate. A shop
// keeps one rate per currency and effective date.
type ExchangeRateModel struct {
	BaseModel
	ShopID        uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_rate_shop_currency_date,priority:1"`
	Currency      string          `gorm:"type:varchar(5);not null;uniqueIndex:idx_rate_shop_currency_date,priority:2"`
	EffectiveDate time.Time       `gorm:"type:date;not null;uniqueIndex:idx_rate_shop_currency_date,priority:3"`
	PerUSD        decimal.Decimal `gorm:"column:per_usd;type:decimal(24,8);not null"`
	RecordedBy    *uuid.UUID      `gorm:"type:uuid"`
}

// TableName returns the table name for GORM
func (ExchangeRateModel) TableName() string {
	return "exchange_rates"
}

// ToDomain converts the persistence model to a domain Rate
func (m *ExchangeRateModel) ToDomain() *fx.Rate {
	return &fx.Rate{
		BaseEntity:    m.BaseModel.ToDomain(),
		ShopID:        m.ShopID,
		Currency:      valueobject.Currency(m.Currency),
		PerUSD:        m.PerUSD,
		EffectiveDate: dateOnly(m.EffectiveDate),
		RecordedBy:    m.RecordedBy,
	}
}

// ExchangeRateModelFromDomain creates a new persistence model from a domain Rate
func ExchangeRateModelFromDomain(r *fx.Rate) *ExchangeRateModel {
	m := &ExchangeRateModel{
		ShopID:        r.ShopID,
		Currency:      r.Currency.String(),
		EffectiveDate: r.EffectiveDate,
		PerUSD:        r.PerUSD,
		RecordedBy:    r.RecordedBy,
	}
	m.FromDomainBaseEntity(r.BaseEntity)
	return m
}

// TillModels lists every model owned by the cash-drawer ledger, in
// dependency order, for AutoMigrate in tests and local development
func TillModels() []any {
	return []any{
		&BusinessDayModel{},
		&DrawerModel{},
		&CountSheetModel{},
		&CountSheetLineModel{},
		&ReconciliationSessionModel{},
		&CountArchiveModel{},
		&CountArchiveLineModel{},
		&SaleModel{},
		&SalePaymentModel{},
		&StaffLunchModel{},
		&CashierModel{},
		&ShiftModel{},
		&ExchangeRateModel{},
	}
}

package persistence

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shoppos/backend/internal/domain/sales"
	"github.com/shoppos/backend/internal/domain/shared/valueobject"
	"github.com/shoppos/backend/internal/infrastructure/persistence/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormSaleRepository implements sales.SaleRepository using GORM
type GormSaleRepository struct {
	db *gorm.DB
}

// NewGormSaleRepository creates a new GormSaleRepository
func NewGormSaleRepository(db *gorm.DB) *GormSaleRepository {
	return &GormSaleRepository{db: db}
}

// Create inserts a sale with its payment lines
func (r *GormSaleRepository) Create(ctx context.Context, sale *sales.Sale) error {
	return translateError(r.db.WithContext(ctx).Create(models.SaleModelFromDomain(sale)).Error)
}

// FindByReference finds a sale by its till reference
func (r *GormSaleRepository) FindByReference(ctx context.Context, shopID uuid.UUID, reference string) (*sales.Sale, error) {
	var model models.SaleModel
	if err := r.db.WithContext(ctx).
		Preload("Payments", orderByPosition).
		Where("shop_id = ? AND reference = ?", shopID, strings.TrimSpace(reference)).
		First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// ListForDay returns the day's sales in recording order
func (r *GormSaleRepository) ListForDay(ctx context.Context, shopID uuid.UUID, date time.Time) ([]sales.Sale, error) {
	var rows []models.SaleModel
	if err := r.db.WithContext(ctx).
		Preload("Payments", orderByPosition).
		Where("shop_id = ? AND business_date = ?", shopID, dateOnly(date)).
		Order("recorded_at").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]sales.Sale, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out, nil
}

// CountForDay counts the day's sales and refunds
func (r *GormSaleRepository) CountForDay(ctx context.Context, shopID uuid.UUID, date time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.SaleModel{}).
		Where("shop_id = ? AND business_date = ?", shopID, dateOnly(date)).
		Count(&count).Error
	return count, err
}

type tenderSumRow struct {
	Tender   string
	Currency string
	Total    decimal.Decimal
}

// SumForCashier sums completed payment lines per (tender, currency); refunds
// count negative
func (r *GormSaleRepository) SumForCashier(ctx context.Context, shopID, cashierID uuid.UUID, date time.Time) (valueobject.TenderTotals, error) {
	var rows []tenderSumRow
	err := r.db.WithContext(ctx).
		Table("sale_payments AS p").
		Select("p.tender AS tender, p.currency AS currency, "+
			"SUM(CASE WHEN s.kind = ? THEN -p.amount ELSE p.amount END) AS total", string(sales.KindRefund)).
		Joins("JOIN sales AS s ON s.id = p.sale_id").
		Where("s.shop_id = ? AND s.cashier_id = ? AND s.business_date = ? AND s.status = ?",
			shopID, cashierID, dateOnly(date), string(sales.StatusCompleted)).
		Group("p.tender, p.currency").
		Scan(&rows).Error
	if err != nil {
		return valueobject.TenderTotals{}, err
	}

	var totals valueobject.TenderTotals
	for _, row := range rows {
		tender, currency := valueobject.Tender(row.Tender), valueobject.Currency(row.Currency)
		if !tender.IsValid() || !currency.IsValid() {
			continue
		}
		totals.Set(tender, currency, row.Total.Round(valueobject.CashPlaces))
	}
	return totals, nil
}

// DeleteForDay purges the day's sales and their payment lines
func (r *GormSaleRepository) DeleteForDay(ctx context.Context, shopID uuid.UUID, date time.Time) (int64, error) {
	db := r.db.WithContext(ctx)
	day := dateOnly(date)
	saleIDs := db.Model(&models.SaleModel{}).Select("id").Where("shop_id = ? AND business_date = ?", shopID, day)
	if err := db.Where("sale_id IN (?)", saleIDs).Delete(&models.SalePaymentModel{}).Error; err != nil {
		return 0, err
	}
	result := db.Where("shop_id = ? AND business_date = ?", shopID, day).Delete(&models.SaleModel{})
	return result.RowsAffected, result.Error
}

func orderByPosition(db *gorm.DB) *gorm.DB {
	return db.Order("position")
}

// GormStaffLunchRepository implements sales.StaffLunchRepository using GORM
type GormStaffLunchRepository struct {
	db *gorm.DB
}

// NewGormStaffLunchRepository creates a new GormStaffLunchRepository
func NewGormStaffLunchRepository(db *gorm.DB) *GormStaffLunchRepository {
	return &GormStaffLunchRepository{db: db}
}

// Create inserts a staff lunch deduction
func (r *GormStaffLunchRepository) Create(ctx context.Context, lunch *sales.StaffLunch) error {
	return translateError(r.db.WithContext(ctx).Create(models.StaffLunchModelFromDomain(lunch)).Error)
}

// ListForDay returns the day's deductions in recording order
func (r *GormStaffLunchRepository) ListForDay(ctx context.Context, shopID uuid.UUID, date time.Time) ([]sales.StaffLunch, error) {
	var rows []models.StaffLunchModel
	if err := r.db.WithContext(ctx).
		Where("shop_id = ? AND business_date = ?", shopID, dateOnly(date)).
		Order("recorded_at").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]sales.StaffLunch, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out, nil
}

type currencySumRow struct {
	Currency string
	Total    decimal.Decimal
}

// SumCashForCashier sums the cashier's deductions per currency
func (r *GormStaffLunchRepository) SumCashForCashier(ctx context.Context, shopID, cashierID uuid.UUID, date time.Time) (valueobject.CurrencyAmounts, error) {
	var rows []currencySumRow
	err := r.db.WithContext(ctx).
		Model(&models.StaffLunchModel{}).
		Select("currency, SUM(amount) AS total").
		Where("shop_id = ? AND cashier_id = ? AND business_date = ?", shopID, cashierID, dateOnly(date)).
		Group("currency").
		Scan(&rows).Error
	if err != nil {
		return valueobject.CurrencyAmounts{}, err
	}
	var out valueobject.CurrencyAmounts
	for _, row := range rows {
		c := valueobject.Currency(row.Currency)
		if c.IsValid() {
			out.Set(c, row.Total.Round(valueobject.CashPlaces))
		}
	}
	return out, nil
}

// DeleteForDay purges the day's deductions
func (r *GormStaffLunchRepository) DeleteForDay(ctx context.Context, shopID uuid.UUID, date time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("shop_id = ? AND business_date = ?", shopID, dateOnly(date)).
		Delete(&models.StaffLunchModel{})
	return result.RowsAffected, result.Error
}

var (
	_ sales.SaleRepository       = (*GormSaleRepository)(nil)
	_ sales.StaffLunchRepository = (*GormStaffLunchRepository)(nil)
)

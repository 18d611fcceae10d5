package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shoppos/backend/internal/domain/staff"
	"github.com/shoppos/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormCashierRepository implements staff.CashierRepository using GORM
type GormCashierRepository struct {
	db *gorm.DB
}

// NewGormCashierRepository creates a new GormCashierRepository
func NewGormCashierRepository(db *gorm.DB) *GormCashierRepository {
	return &GormCashierRepository{db: db}
}

// Save inserts a new roster entry or updates an existing one with a version check
func (r *GormCashierRepository) Save(ctx context.Context, cashier *staff.Cashier) error {
	model := models.CashierModelFromDomain(cashier)
	found, err := exists(ctx, r.db, &models.CashierModel{}, cashier.ID)
	if err != nil {
		return err
	}
	if !found {
		return translateError(r.db.WithContext(ctx).Create(model).Error)
	}
	return saveVersioned(ctx, r.db, model, cashier, "cashier")
}

// FindByUser finds the roster entry of a user
func (r *GormCashierRepository) FindByUser(ctx context.Context, shopID, userID uuid.UUID) (*staff.Cashier, error) {
	var model models.CashierModel
	if err := r.db.WithContext(ctx).
		Where("shop_id = ? AND user_id = ?", shopID, userID).
		First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// ListActive returns active cashiers ordered by name
func (r *GormCashierRepository) ListActive(ctx context.Context, shopID uuid.UUID) ([]staff.Cashier, error) {
	return r.list(r.db.WithContext(ctx).Where("shop_id = ? AND active = ?", shopID, true))
}

// List returns the whole roster ordered by name
func (r *GormCashierRepository) List(ctx context.Context, shopID uuid.UUID) ([]staff.Cashier, error) {
	return r.list(r.db.WithContext(ctx).Where("shop_id = ?", shopID))
}

func (r *GormCashierRepository) list(query *gorm.DB) ([]staff.Cashier, error) {
	var rows []models.CashierModel
	if err := query.Order("display_name").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]staff.Cashier, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out, nil
}

// ShopIDs returns every shop with at least one active cashier
func (r *GormCashierRepository) ShopIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).
		Model(&models.CashierModel{}).
		Where("active = ?", true).
		Distinct().
		Pluck("shop_id", &ids).Error
	return ids, err
}

// GormShiftRepository implements staff.ShiftRepository using GORM
type GormShiftRepository struct {
	db *gorm.DB
}

// NewGormShiftRepository creates a new GormShiftRepository
func NewGormShiftRepository(db *gorm.DB) *GormShiftRepository {
	return &GormShiftRepository{db: db}
}

// Save inserts a new shift or updates an existing one with a version check
func (r *GormShiftRepository) Save(ctx context.Context, shift *staff.Shift) error {
	model := models.ShiftModelFromDomain(shift)
	found, err := exists(ctx, r.db, &models.ShiftModel{}, shift.ID)
	if err != nil {
		return err
	}
	if !found {
		return translateError(r.db.WithContext(ctx).Create(model).Error)
	}
	return saveVersioned(ctx, r.db, model, shift, "shift")
}

// FindOpen finds the cashier's open shift of a day
func (r *GormShiftRepository) FindOpen(ctx context.Context, shopID, cashierID uuid.UUID, date time.Time) (*staff.Shift, error) {
	var model models.ShiftModel
	if err := r.db.WithContext(ctx).
		Where("shop_id = ? AND cashier_id = ? AND business_date = ? AND ended_at IS NULL", shopID, cashierID, dateOnly(date)).
		Order("started_at DESC").
		First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// ListForDay returns the day's shifts in start order
func (r *GormShiftRepository) ListForDay(ctx context.Context, shopID uuid.UUID, date time.Time) ([]staff.Shift, error) {
	var rows []models.ShiftModel
	if err := r.db.WithContext(ctx).
		Where("shop_id = ? AND business_date = ?", shopID, dateOnly(date)).
		Order("started_at").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]staff.Shift, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out, nil
}

// EndOpenForDay ends every open shift of the day
func (r *GormShiftRepository) EndOpenForDay(ctx context.Context, shopID uuid.UUID, date time.Time, reason string, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.ShiftModel{}).
		Where("shop_id = ? AND business_date = ? AND ended_at IS NULL", shopID, dateOnly(date)).
		Updates(map[string]any{
			"ended_at":   now,
			"end_reason": reason,
			"updated_at": now,
			"version":    gorm.Expr("version + 1"),
		})
	return result.RowsAffected, result.Error
}

var (
	_ staff.CashierRepository = (*GormCashierRepository)(nil)
	_ staff.ShiftRepository   = (*GormShiftRepository)(nil)
)

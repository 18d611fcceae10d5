package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shoppos/backend/internal/domain/till"
	"github.com/shoppos/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormCountSheetRepository implements till.CountSheetRepository using GORM.
// Denomination counts live in count_sheet_lines and are rewritten on save.
type GormCountSheetRepository struct {
	db *gorm.DB
}

// NewGormCountSheetRepository creates a new GormCountSheetRepository
func NewGormCountSheetRepository(db *gorm.DB) *GormCountSheetRepository {
	return &GormCountSheetRepository{db: db}
}

func (r *GormCountSheetRepository) find(db *gorm.DB, shopID, cashierID uuid.UUID, date time.Time) (*till.CountSheet, error) {
	var model models.CountSheetModel
	if err := db.
		Preload("Lines").
		Where("shop_id = ? AND cashier_id = ? AND business_date = ?", shopID, cashierID, dateOnly(date)).
		First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// Find finds the cashier's sheet for a day
func (r *GormCountSheetRepository) Find(ctx context.Context, shopID, cashierID uuid.UUID, date time.Time) (*till.CountSheet, error) {
	return r.find(r.db.WithContext(ctx), shopID, cashierID, date)
}

// FindForUpdate finds the sheet and locks its row
func (r *GormCountSheetRepository) FindForUpdate(ctx context.Context, shopID, cashierID uuid.UUID, date time.Time) (*till.CountSheet, error) {
	return r.find(forUpdate(r.db.WithContext(ctx)), shopID, cashierID, date)
}

// ListForDay returns the day's sheets ordered by cashier
func (r *GormCountSheetRepository) ListForDay(ctx context.Context, shopID uuid.UUID, date time.Time) ([]till.CountSheet, error) {
	var rows []models.CountSheetModel
	if err := r.db.WithContext(ctx).
		Preload("Lines").
		Where("shop_id = ? AND business_date = ?", shopID, dateOnly(date)).
		Order("cashier_id").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	sheets := make([]till.CountSheet, len(rows))
	for i := range rows {
		sheets[i] = *rows[i].ToDomain()
	}
	return sheets, nil
}

// Create inserts a sheet with its counts
func (r *GormCountSheetRepository) Create(ctx context.Context, sheet *till.CountSheet) error {
	return translateError(r.db.WithContext(ctx).Create(models.CountSheetModelFromDomain(sheet)).Error)
}

// Save updates the sheet with an optimistic version check and replaces its counts
func (r *GormCountSheetRepository) Save(ctx context.Context, sheet *till.CountSheet) error {
	model := models.CountSheetModelFromDomain(sheet)
	if err := saveVersioned(ctx, r.db, model, sheet, "count sheet"); err != nil {
		return err
	}
	db := r.db.WithContext(ctx)
	if err := db.Where("count_sheet_id = ?", sheet.ID).Delete(&models.CountSheetLineModel{}).Error; err != nil {
		return err
	}
	if len(model.Lines) == 0 {
		return nil
	}
	return translateError(db.Create(&model.Lines).Error)
}

var _ till.CountSheetRepository = (*GormCountSheetRepository)(nil)

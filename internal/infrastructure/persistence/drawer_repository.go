package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shoppos/backend/internal/domain/till"
	"github.com/shoppos/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormDrawerRepository implements till.DrawerRepository using GORM
type GormDrawerRepository struct {
	db *gorm.DB
}

// NewGormDrawerRepository creates a new GormDrawerRepository
func NewGormDrawerRepository(db *gorm.DB) *GormDrawerRepository {
	return &GormDrawerRepository{db: db}
}

func (r *GormDrawerRepository) find(db *gorm.DB, shopID, cashierID uuid.UUID, date time.Time) (*till.Drawer, error) {
	var model models.DrawerModel
	if err := db.
		Where("shop_id = ? AND cashier_id = ? AND business_date = ?", shopID, cashierID, dateOnly(date)).
		First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// Find finds the cashier's drawer for a day
func (r *GormDrawerRepository) Find(ctx context.Context, shopID, cashierID uuid.UUID, date time.Time) (*till.Drawer, error) {
	return r.find(r.db.WithContext(ctx), shopID, cashierID, date)
}

// FindForUpdate finds the drawer and locks its row
func (r *GormDrawerRepository) FindForUpdate(ctx context.Context, shopID, cashierID uuid.UUID, date time.Time) (*till.Drawer, error) {
	return r.find(forUpdate(r.db.WithContext(ctx)), shopID, cashierID, date)
}

// Ensure inserts the drawer unless its (shop, cashier, date) row exists
func (r *GormDrawerRepository) Ensure(ctx context.Context, drawer *till.Drawer) error {
	model := models.DrawerModelFromDomain(drawer)
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(model).Error
	return translateError(err)
}

// ListForDay returns every drawer of the day ordered by cashier
func (r *GormDrawerRepository) ListForDay(ctx context.Context, shopID uuid.UUID, date time.Time) ([]till.Drawer, error) {
	var rows []models.DrawerModel
	if err := r.db.WithContext(ctx).
		Where("shop_id = ? AND business_date = ?", shopID, dateOnly(date)).
		Order("cashier_id").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	drawers := make([]till.Drawer, len(rows))
	for i := range rows {
		drawers[i] = *rows[i].ToDomain()
	}
	return drawers, nil
}

// Save writes the drawer with an optimistic version check
func (r *GormDrawerRepository) Save(ctx context.Context, drawer *till.Drawer) error {
	return saveVersioned(ctx, r.db, models.DrawerModelFromDomain(drawer), drawer, "drawer")
}

var _ till.DrawerRepository = (*GormDrawerRepository)(nil)

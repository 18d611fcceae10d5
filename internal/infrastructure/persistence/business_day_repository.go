package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shoppos/backend/internal/domain/till"
	"github.com/shoppos/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormBusinessDayRepository implements till.BusinessDayRepository using GORM
type GormBusinessDayRepository struct {
	db *gorm.DB
}

// NewGormBusinessDayRepository creates a new GormBusinessDayRepository
func NewGormBusinessDayRepository(db *gorm.DB) *GormBusinessDayRepository {
	return &GormBusinessDayRepository{db: db}
}

// FindByDate finds the shop's day for a calendar date
func (r *GormBusinessDayRepository) FindByDate(ctx context.Context, shopID uuid.UUID, date time.Time) (*till.BusinessDay, error) {
	var model models.BusinessDayModel
	if err := r.db.WithContext(ctx).
		Where("shop_id = ? AND date = ?", shopID, dateOnly(date)).
		First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindOpenBefore finds the latest OPEN day strictly before date
func (r *GormBusinessDayRepository) FindOpenBefore(ctx context.Context, shopID uuid.UUID, date time.Time) (*till.BusinessDay, error) {
	var model models.BusinessDayModel
	if err := r.db.WithContext(ctx).
		Where("shop_id = ? AND status = ? AND date < ?", shopID, string(till.DayStatusOpen), dateOnly(date)).
		Order("date DESC").
		First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// List returns days between from and to inclusive, newest first
func (r *GormBusinessDayRepository) List(ctx context.Context, shopID uuid.UUID, from, to time.Time) ([]till.BusinessDay, error) {
	var rows []models.BusinessDayModel
	if err := r.db.WithContext(ctx).
		Where("shop_id = ? AND date >= ? AND date <= ?", shopID, dateOnly(from), dateOnly(to)).
		Order("date DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	days := make([]till.BusinessDay, len(rows))
	for i := range rows {
		days[i] = *rows[i].ToDomain()
	}
	return days, nil
}

// Create inserts a new day
func (r *GormBusinessDayRepository) Create(ctx context.Context, day *till.BusinessDay) error {
	return translateError(r.db.WithContext(ctx).Create(models.BusinessDayModelFromDomain(day)).Error)
}

// Save updates the day with an optimistic version check
func (r *GormBusinessDayRepository) Save(ctx context.Context, day *till.BusinessDay) error {
	return saveVersioned(ctx, r.db, models.BusinessDayModelFromDomain(day), day, "business day")
}

var _ till.BusinessDayRepository = (*GormBusinessDayRepository)(nil)

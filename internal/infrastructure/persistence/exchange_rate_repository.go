package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shoppos/backend/internal/domain/fx"
	"github.com/shoppos/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormRateRepository implements fx.RateRepository using GORM
type GormRateRepository struct {
	db *gorm.DB
}

// NewGormRateRepository creates a new GormRateRepository
func NewGormRateRepository(db *gorm.DB) *GormRateRepository {
	return &GormRateRepository{db: db}
}

// Save inserts the rate; a rate already stored for the same currency and
// effective date is overwritten
func (r *GormRateRepository) Save(ctx context.Context, rate *fx.Rate) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "shop_id"}, {Name: "currency"}, {Name: "effective_date"}},
			DoUpdates: clause.AssignmentColumns([]string{"per_usd", "recorded_by", "updated_at"}),
		}).
		Create(models.ExchangeRateModelFromDomain(rate)).Error
	return translateError(err)
}

// FindEffective returns every rate effective on or before asOf
func (r *GormRateRepository) FindEffective(ctx context.Context, shopID uuid.UUID, asOf time.Time) ([]fx.Rate, error) {
	var rows []models.ExchangeRateModel
	if err := r.db.WithContext(ctx).
		Where("shop_id = ? AND effective_date <= ?", shopID, dateOnly(asOf)).
		Order("currency").
		Order("effective_date").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return ratesToDomain(rows), nil
}

// List returns the most recent rates first
func (r *GormRateRepository) List(ctx context.Context, shopID uuid.UUID, limit int) ([]fx.Rate, error) {
	var rows []models.ExchangeRateModel
	if err := r.db.WithContext(ctx).
		Where("shop_id = ?", shopID).
		Order("effective_date DESC").
		Order("currency").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return ratesToDomain(rows), nil
}

func ratesToDomain(rows []models.ExchangeRateModel) []fx.Rate {
	out := make([]fx.Rate, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out
}

var _ fx.RateRepository = (*GormRateRepository)(nil)

package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shoppos/backend/internal/domain/till"
	"github.com/shoppos/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormSessionRepository implements till.SessionRepository using GORM
type GormSessionRepository struct {
	db *gorm.DB
}

// NewGormSessionRepository creates a new GormSessionRepository
func NewGormSessionRepository(db *gorm.DB) *GormSessionRepository {
	return &GormSessionRepository{db: db}
}

func (r *GormSessionRepository) find(db *gorm.DB, shopID uuid.UUID, date time.Time) (*till.ReconciliationSession, error) {
	var model models.ReconciliationSessionModel
	if err := db.
		Where("shop_id = ? AND business_date = ?", shopID, dateOnly(date)).
		First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// Find finds the session of a day
func (r *GormSessionRepository) Find(ctx context.Context, shopID uuid.UUID, date time.Time) (*till.ReconciliationSession, error) {
	return r.find(r.db.WithContext(ctx), shopID, date)
}

// FindForUpdate finds the session and locks its row
func (r *GormSessionRepository) FindForUpdate(ctx context.Context, shopID uuid.UUID, date time.Time) (*till.ReconciliationSession, error) {
	return r.find(forUpdate(r.db.WithContext(ctx)), shopID, date)
}

// Create inserts a session
func (r *GormSessionRepository) Create(ctx context.Context, session *till.ReconciliationSession) error {
	return translateError(r.db.WithContext(ctx).Create(models.ReconciliationSessionModelFromDomain(session)).Error)
}

// Save updates the session with an optimistic version check
func (r *GormSessionRepository) Save(ctx context.Context, session *till.ReconciliationSession) error {
	return saveVersioned(ctx, r.db, models.ReconciliationSessionModelFromDomain(session), session, "reconciliation session")
}

// GormArchiveRepository implements till.ArchiveRepository using GORM. It
// only inserts and reads; archive rows are never updated or deleted.
type GormArchiveRepository struct {
	db *gorm.DB
}

// NewGormArchiveRepository creates a new GormArchiveRepository
func NewGormArchiveRepository(db *gorm.DB) *GormArchiveRepository {
	return &GormArchiveRepository{db: db}
}

// SnapshotAll inserts every archive with its lines in one statement batch.
// It runs inside the caller's transaction, so a failure leaves no rows.
func (r *GormArchiveRepository) SnapshotAll(ctx context.Context, archives []*till.CountArchive) error {
	if len(archives) == 0 {
		return nil
	}
	rows := make([]*models.CountArchiveModel, len(archives))
	for i, a := range archives {
		rows[i] = models.CountArchiveModelFromDomain(a)
	}
	return translateError(r.db.WithContext(ctx).Create(&rows).Error)
}

// ListForDay returns the day's archives ordered by cashier
func (r *GormArchiveRepository) ListForDay(ctx context.Context, shopID uuid.UUID, date time.Time) ([]till.CountArchive, error) {
	var rows []models.CountArchiveModel
	if err := r.db.WithContext(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("currency") }).
		Where("shop_id = ? AND business_date = ?", shopID, dateOnly(date)).
		Order("cashier_id").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return archivesToDomain(rows), nil
}

// Query filters archives across days, newest first, with pagination
func (r *GormArchiveRepository) Query(ctx context.Context, shopID uuid.UUID, q till.ArchiveQuery) ([]till.CountArchive, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.CountArchiveModel{}).Where("shop_id = ?", shopID)
	if q.CashierID != nil {
		query = query.Where("cashier_id = ?", *q.CashierID)
	}
	if q.From != nil {
		query = query.Where("business_date >= ?", dateOnly(*q.From))
	}
	if q.To != nil {
		query = query.Where("business_date <= ?", dateOnly(*q.To))
	}
	if q.Status != nil {
		query = query.Where("status = ?", string(*q.Status))
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page, size := q.Page, q.PageSize
	if page < 1 {
		page = 1
	}
	if size < 1 || size > 200 {
		size = 50
	}

	var rows []models.CountArchiveModel
	if err := query.
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("currency") }).
		Order("business_date DESC").
		Order("cashier_id").
		Offset((page - 1) * size).
		Limit(size).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return archivesToDomain(rows), total, nil
}

func archivesToDomain(rows []models.CountArchiveModel) []till.CountArchive {
	out := make([]till.CountArchive, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out
}

// GormDayMover implements till.DayMover. It re-dates the open records of a
// carried-forward day in place.
type GormDayMover struct {
	db *gorm.DB
}

// NewGormDayMover creates a new GormDayMover
func NewGormDayMover(db *gorm.DB) *GormDayMover {
	return &GormDayMover{db: db}
}

// MoveDay moves drawers, sales, staff lunches, shifts, count sheets and the
// reconciliation session from one business date to another
func (m *GormDayMover) MoveDay(ctx context.Context, shopID uuid.UUID, from, to time.Time) error {
	db := m.db.WithContext(ctx)
	for _, model := range []any{
		&models.DrawerModel{},
		&models.SaleModel{},
		&models.StaffLunchModel{},
		&models.ShiftModel{},
		&models.CountSheetModel{},
		&models.ReconciliationSessionModel{},
	} {
		err := db.Model(model).
			Where("shop_id = ? AND business_date = ?", shopID, dateOnly(from)).
			Update("business_date", dateOnly(to)).Error
		if err != nil {
			return translateError(err)
		}
	}
	return nil
}

var (
	_ till.SessionRepository = (*GormSessionRepository)(nil)
	_ till.ArchiveRepository = (*GormArchiveRepository)(nil)
	_ till.DayMover          = (*GormDayMover)(nil)
)

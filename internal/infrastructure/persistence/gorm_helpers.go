package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shoppos/backend/internal/domain/shared"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PostgreSQL error codes that mean "retry the whole transaction"
const (
	pgLockNotAvailable     = "55P03"
	pgDeadlockDetected     = "40P01"
	pgSerializationFailure = "40001"
	pgUniqueViolation      = "23505"
)

// translateError maps driver errors onto domain errors. Domain errors and
// unknown errors pass through unchanged.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	if shared.CodeOf(err) != "" {
		return err
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return shared.ErrNotFound
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return shared.WrapDomainError(shared.CodeAlreadyExists, "record already exists", err)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgLockNotAvailable, pgDeadlockDetected, pgSerializationFailure:
			return shared.WrapDomainError(shared.CodeConcurrencyConflict, "business day is busy, retry", err)
		case pgUniqueViolation:
			return shared.WrapDomainError(shared.CodeAlreadyExists, "record already exists", err)
		}
	}
	return err
}

func isPostgres(db *gorm.DB) bool {
	return db.Dialector != nil && db.Dialector.Name() == "postgres"
}

// forUpdate adds FOR UPDATE on dialects that support row locks. SQLite
// serializes writers on the database lock instead.
func forUpdate(db *gorm.DB) *gorm.DB {
	if isPostgres(db) {
		return db.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return db
}

// dateOnly normalizes a business date to midnight UTC
func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

type versionedAggregate interface {
	GetVersion() int
	IncrementVersion()
}

type versionedModel interface {
	NextVersion()
}

// saveVersioned writes every column of model when the stored version still
// equals the aggregate's loaded version, then advances the aggregate.
// Associations are left to the caller.
func saveVersioned(ctx context.Context, db *gorm.DB, model versionedModel, agg versionedAggregate, what string) error {
	loaded := agg.GetVersion()
	model.NextVersion()
	result := db.WithContext(ctx).
		Model(model).
		Select("*").
		Omit("ID", "CreatedAt", clause.Associations).
		Where("version = ?", loaded).
		Updates(model)
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.NewDomainError(shared.CodeConcurrencyConflict, what+" was modified by another transaction")
	}
	agg.IncrementVersion()
	return nil
}

// exists reports whether a row with the given id is stored
func exists(ctx context.Context, db *gorm.DB, model any, id any) (bool, error) {
	var count int64
	if err := db.WithContext(ctx).Model(model).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

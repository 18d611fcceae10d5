package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"hash/fnv"
	"time"

	"github.com/google/uuid"
	apptill "github.com/shoppos/backend/internal/application/till"
	"github.com/shoppos/backend/internal/domain/sales"
	"github.com/shoppos/backend/internal/domain/staff"
	"github.com/shoppos/backend/internal/domain/till"
	"gorm.io/gorm"
)

// GormTransactionScope implements TransactionScope using GORM transactions.
// Day locks are PostgreSQL transaction-level advisory locks; on SQLite the
// single writer connection already serializes transactions.
type GormTransactionScope struct {
	db          *gorm.DB
	lockTimeout time.Duration
}

// NewGormTransactionScope creates a new GormTransactionScope.
func NewGormTransactionScope(db *gorm.DB, lockTimeout time.Duration) *GormTransactionScope {
	return &GormTransactionScope{db: db, lockTimeout: lockTimeout}
}

// Execute runs the given function within a database transaction.
// If the function returns an error, the transaction is rolled back.
// If the function succeeds, the transaction is committed.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos apptill.TransactionalRepositories) error) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransactionalRepositories{tx: tx, lockTimeout: s.lockTimeout})
	})
	return translateError(err)
}

// ExecuteReadOnly runs fn in a read-only repeatable-read transaction.
func (s *GormTransactionScope) ExecuteReadOnly(ctx context.Context, fn func(repos apptill.TransactionalRepositories) error) error {
	var opts []*sql.TxOptions
	if isPostgres(s.db) {
		opts = append(opts, &sql.TxOptions{ReadOnly: true, Isolation: sql.LevelRepeatableRead})
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransactionalRepositories{tx: tx, lockTimeout: s.lockTimeout})
	}, opts...)
	return translateError(err)
}

// gormTransactionalRepositories provides access to all repositories within a transaction.
type gormTransactionalRepositories struct {
	tx          *gorm.DB
	lockTimeout time.Duration
}

// DayLockKey maps a (shop, date) pair onto the advisory lock keyspace.
func DayLockKey(shopID uuid.UUID, date time.Time) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(shopID.String() + "|" + date.UTC().Format("2006-01-02")))
	return int64(h.Sum64())
}

// LockDay takes the advisory lock for (shop, date) until the transaction ends.
func (r *gormTransactionalRepositories) LockDay(ctx context.Context, shopID uuid.UUID, date time.Time, mode apptill.LockMode) error {
	if !isPostgres(r.tx) {
		return nil
	}
	db := r.tx.WithContext(ctx)
	if r.lockTimeout > 0 {
		// SET does not accept bind parameters
		stmt := fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", r.lockTimeout.Milliseconds())
		if err := db.Exec(stmt).Error; err != nil {
			return translateError(err)
		}
	}
	fn := "pg_advisory_xact_lock_shared"
	if mode == apptill.LockExclusive {
		fn = "pg_advisory_xact_lock"
	}
	if err := db.Exec("SELECT "+fn+"(?)", DayLockKey(shopID, date)).Error; err != nil {
		return translateError(err)
	}
	return nil
}

func (r *gormTransactionalRepositories) DayRepo() till.BusinessDayRepository {
	return NewGormBusinessDayRepository(r.tx)
}

func (r *gormTransactionalRepositories) DrawerRepo() till.DrawerRepository {
	return NewGormDrawerRepository(r.tx)
}

func (r *gormTransactionalRepositories) CountSheetRepo() till.CountSheetRepository {
	return NewGormCountSheetRepository(r.tx)
}

func (r *gormTransactionalRepositories) SessionRepo() till.SessionRepository {
	return NewGormSessionRepository(r.tx)
}

func (r *gormTransactionalRepositories) ArchiveRepo() till.ArchiveRepository {
	return NewGormArchiveRepository(r.tx)
}

func (r *gormTransactionalRepositories) DayMover() till.DayMover {
	return NewGormDayMover(r.tx)
}

func (r *gormTransactionalRepositories) SaleRepo() sales.SaleRepository {
	return NewGormSaleRepository(r.tx)
}

func (r *gormTransactionalRepositories) LunchRepo() sales.StaffLunchRepository {
	return NewGormStaffLunchRepository(r.tx)
}

func (r *gormTransactionalRepositories) ShiftRepo() staff.ShiftRepository {
	return NewGormShiftRepository(r.tx)
}

func (r *gormTransactionalRepositories) CashierRepo() staff.CashierRepository {
	return NewGormCashierRepository(r.tx)
}

// Ensure GormTransactionScope implements TransactionScope
var _ apptill.TransactionScope = (*GormTransactionScope)(nil)

// Ensure gormTransactionalRepositories implements TransactionalRepositories
var _ apptill.TransactionalRepositories = (*gormTransactionalRepositories)(nil)

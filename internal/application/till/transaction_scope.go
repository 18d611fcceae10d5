package till

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shoppos/backend/internal/domain/sales"
	"github.com/shoppos/backend/internal/domain/staff"
	"github.com/shoppos/backend/internal/domain/till"
)

// LockMode selects how a business-day lock is held
type LockMode int

const (
	// LockShared is held by operations that move money within a day:
	// sales, refunds, float changes and count saves. Shared holders run
	// concurrently with each other.
	LockShared LockMode = iota
	// LockExclusive is held by operations that change the day itself:
	// Open, Close, reconciliation Complete and rollover. It waits for and
	// excludes every other holder.
	LockExclusive
)

// String returns the lock mode name
func (m LockMode) String() string {
	if m == LockExclusive {
		return "exclusive"
	}
	return "shared"
}

// TransactionScope provides transactional access to the till repositories.
// Every repository obtained from the scope shares one database transaction
// that commits when fn returns nil and rolls back otherwise.
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error

	// ExecuteReadOnly runs fn in a read-only transaction with a stable
	// snapshot, for previews that must not write
	ExecuteReadOnly(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to all repositories within a
// transaction
type TransactionalRepositories interface {
	// LockDay takes the (shop, date) lock for the rest of the transaction
	LockDay(ctx context.Context, shopID uuid.UUID, date time.Time, mode LockMode) error

	DayRepo() till.BusinessDayRepository
	DrawerRepo() till.DrawerRepository
	CountSheetRepo() till.CountSheetRepository
	SessionRepo() till.SessionRepository
	ArchiveRepo() till.ArchiveRepository
	DayMover() till.DayMover
	SaleRepo() sales.SaleRepository
	LunchRepo() sales.StaffLunchRepository
	ShiftRepo() staff.ShiftRepository
	CashierRepo() staff.CashierRepository
}

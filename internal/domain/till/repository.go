package till

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// BusinessDayRepository persists business days. A shop has at most one row
// per calendar date.
type BusinessDayRepository interface {
	// FindByDate returns NOT_FOUND when no row exists for the date
	FindByDate(ctx context.Context, shopID uuid.UUID, date time.Time) (*BusinessDay, error)

	// FindOpenBefore returns the most recent OPEN day strictly before date
	FindOpenBefore(ctx context.Context, shopID uuid.UUID, date time.Time) (*BusinessDay, error)

	// List returns the shop's days between from and to inclusive, newest first
	List(ctx context.Context, shopID uuid.UUID, from, to time.Time) ([]BusinessDay, error)

	Create(ctx context.Context, day *BusinessDay) error

	// Save updates the day, failing with CONCURRENCY_CONFLICT when the stored
	// version differs from the one loaded
	Save(ctx context.Context, day *BusinessDay) error
}

// DrawerRepository persists drawers. Drawers are never deleted.
type DrawerRepository interface {
	Find(ctx context.Context, shopID, cashierID uuid.UUID, date time.Time) (*Drawer, error)

	// FindForUpdate loads the drawer and holds its row lock until the
	// enclosing transaction ends
	FindForUpdate(ctx context.Context, shopID, cashierID uuid.UUID, date time.Time) (*Drawer, error)

	// Ensure inserts the drawer unless one already exists for its
	// (shop, cashier, date); an existing row is left untouched
	Ensure(ctx context.Context, drawer *Drawer) error

	ListForDay(ctx context.Context, shopID uuid.UUID, date time.Time) ([]Drawer, error)

	// Save writes the drawer with an optimistic version check
	Save(ctx context.Context, drawer *Drawer) error
}

// CountSheetRepository persists count sheets
type CountSheetRepository interface {
	Find(ctx context.Context, shopID, cashierID uuid.UUID, date time.Time) (*CountSheet, error)
	FindForUpdate(ctx context.Context, shopID, cashierID uuid.UUID, date time.Time) (*CountSheet, error)
	ListForDay(ctx context.Context, shopID uuid.UUID, date time.Time) ([]CountSheet, error)
	Create(ctx context.Context, sheet *CountSheet) error
	Save(ctx context.Context, sheet *CountSheet) error
}

// SessionRepository persists reconciliation sessions, one per shop and day
type SessionRepository interface {
	Find(ctx context.Context, shopID uuid.UUID, date time.Time) (*ReconciliationSession, error)
	FindForUpdate(ctx context.Context, shopID uuid.UUID, date time.Time) (*ReconciliationSession, error)
	Create(ctx context.Context, session *ReconciliationSession) error
	Save(ctx context.Context, session *ReconciliationSession) error
}

// ArchiveQuery filters archive reads
type ArchiveQuery struct {
	CashierID *uuid.UUID
	From      *time.Time
	To        *time.Time
	Status    *ArchiveStatus
	Page      int
	PageSize  int
}

// ArchiveRepository is append-only. It exposes no update or delete.
type ArchiveRepository interface {
	// SnapshotAll writes every snapshot or none
	SnapshotAll(ctx context.Context, archives []*CountArchive) error

	ListForDay(ctx context.Context, shopID uuid.UUID, date time.Time) ([]CountArchive, error)
	Query(ctx context.Context, shopID uuid.UUID, q ArchiveQuery) ([]CountArchive, int64, error)
}

// DayMover re-dates the open records of a rolled-over day onto the day that
// carries it forward
type DayMover interface {
	MoveDay(ctx context.Context, shopID uuid.UUID, from, to time.Time) error
}

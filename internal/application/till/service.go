package till

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shoppos/backend/internal/domain/shared"
	"github.com/shoppos/backend/internal/domain/till"
	"github.com/shoppos/backend/internal/infrastructure/logger"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Config holds the settings shared by the till services
type Config struct {
	// Location decides which calendar date "today" is for a shop
	Location *time.Location
	// BalanceEpsilon is the largest variance archived as BALANCED
	BalanceEpsilon decimal.Decimal
	// Now is the clock; nil means time.Now
	Now func() time.Time
}

// DefaultConfig returns UTC with the default balance epsilon
func DefaultConfig() Config {
	return Config{
		Location:       time.UTC,
		BalanceEpsilon: till.DefaultBalanceEpsilon,
	}
}

func (c Config) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

func (c Config) today() time.Time {
	loc := c.Location
	if loc == nil {
		loc = time.UTC
	}
	return till.DateOf(c.now().In(loc))
}

func (c Config) epsilon() decimal.Decimal {
	if c.BalanceEpsilon.IsPositive() {
		return c.BalanceEpsilon
	}
	return till.DefaultBalanceEpsilon
}

// enterDay takes the day lock and loads the day, failing with
// INVALID_TRANSITION unless it is OPEN
func enterDay(ctx context.Context, repos TransactionalRepositories, shopID uuid.UUID, date time.Time, mode LockMode) (*till.BusinessDay, error) {
	if err := repos.LockDay(ctx, shopID, date, mode); err != nil {
		return nil, err
	}
	day, err := repos.DayRepo().FindByDate(ctx, shopID, date)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError(shared.CodeInvalidTransition,
				fmt.Sprintf("business day %s has not been opened", date.Format(time.DateOnly)))
		}
		return nil, err
	}
	if err := day.RequireOpen(); err != nil {
		return nil, err
	}
	return day, nil
}

// lockDrawer returns the cashier's drawer holding its row lock. With create
// set a missing drawer is inserted first; concurrent creators converge on
// the same row.
func lockDrawer(ctx context.Context, repos TransactionalRepositories, shopID, cashierID uuid.UUID, date time.Time, create bool) (*till.Drawer, error) {
	if create {
		fresh, err := till.NewDrawer(shopID, cashierID, date)
		if err != nil {
			return nil, err
		}
		if err := repos.DrawerRepo().Ensure(ctx, fresh); err != nil {
			return nil, err
		}
	}
	return repos.DrawerRepo().FindForUpdate(ctx, shopID, cashierID, date)
}

// closeDay closes the day and purges its transactional records. It must run
// inside the transaction holding the exclusive day lock; any failure rolls
// the whole close back and the day stays OPEN.
func closeDay(ctx context.Context, repos TransactionalRepositories, day *till.BusinessDay, by uuid.UUID, notes string, now time.Time) error {
	if err := day.Close(by, notes, now); err != nil {
		return err
	}
	if err := repos.DayRepo().Save(ctx, day); err != nil {
		return err
	}

	salesPurged, err := repos.SaleRepo().DeleteForDay(ctx, day.ShopID, day.Date)
	if err != nil {
		return fmt.Errorf("purge sales: %w", err)
	}
	lunchesPurged, err := repos.LunchRepo().DeleteForDay(ctx, day.ShopID, day.Date)
	if err != nil {
		return fmt.Errorf("purge staff lunches: %w", err)
	}

	drawers, err := repos.DrawerRepo().ListForDay(ctx, day.ShopID, day.Date)
	if err != nil {
		return err
	}
	for i := range drawers {
		drawers[i].Zero(now)
		if err := repos.DrawerRepo().Save(ctx, &drawers[i]); err != nil {
			return fmt.Errorf("zero drawer %s: %w", drawers[i].ID, err)
		}
	}

	shifts, err := repos.ShiftRepo().EndOpenForDay(ctx, day.ShopID, day.Date, "business day closed", now)
	if err != nil {
		return fmt.Errorf("end shifts: %w", err)
	}

	logger.L(ctx).Info("business day closed",
		zap.String("shop_id", day.ShopID.String()),
		zap.String("date", day.Date.Format(time.DateOnly)),
		zap.Int64("sales_purged", salesPurged),
		zap.Int64("lunches_purged", lunchesPurged),
		zap.Int("drawers_zeroed", len(drawers)),
		zap.Int64("shifts_ended", shifts),
	)
	return nil
}

type eventSource interface {
	GetDomainEvents() []shared.DomainEvent
	ClearDomainEvents()
}

// drainEvents takes the pending events off the aggregates
func drainEvents(sources ...eventSource) []shared.DomainEvent {
	var events []shared.DomainEvent
	for _, src := range sources {
		if src == nil {
			continue
		}
		events = append(events, src.GetDomainEvents()...)
		src.ClearDomainEvents()
	}
	return events
}

// publish hands committed events to the bus. Failures are logged; the
// state change they describe is already durable.
func publish(ctx context.Context, bus shared.EventPublisher, events []shared.DomainEvent) {
	if bus == nil || len(events) == 0 {
		return
	}
	if err := bus.Publish(ctx, events...); err != nil {
		logger.L(ctx).Warn("failed to publish domain events",
			zap.Int("count", len(events)),
			zap.Error(err),
		)
	}
}

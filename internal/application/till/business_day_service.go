package till

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shoppos/backend/internal/domain/shared"
	"github.com/shoppos/backend/internal/domain/till"
	"github.com/shoppos/backend/internal/infrastructure/logger"
	"github.com/shoppos/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// BusinessDayService manages the trading day of each shop
type BusinessDayService struct {
	scope    TransactionScope
	eventBus shared.EventPublisher
	cfg      Config
}

// NewBusinessDayService creates a new BusinessDayService
func NewBusinessDayService(scope TransactionScope, eventBus shared.EventPublisher, cfg Config) *BusinessDayService {
	return &BusinessDayService{
		scope:    scope,
		eventBus: eventBus,
		cfg:      cfg,
	}
}

// Today returns the calendar date in the shop timezone
func (s *BusinessDayService) Today() time.Time {
	return s.cfg.today()
}

// CurrentFor returns the shop's business day for today, creating it when
// absent. When the most recent earlier day was left OPEN it is carried
// forward: its open records move to today and today starts OPEN.
func (s *BusinessDayService) CurrentFor(ctx context.Context, shopID uuid.UUID) (*BusinessDayResponse, error) {
	day, err := s.current(ctx, shopID)
	if err != nil {
		return nil, err
	}
	resp := ToBusinessDayResponse(day)
	return &resp, nil
}

// OpenDate returns today's date when the shop's day is OPEN and fails with
// INVALID_TRANSITION otherwise
func (s *BusinessDayService) OpenDate(ctx context.Context, shopID uuid.UUID) (time.Time, error) {
	day, err := s.current(ctx, shopID)
	if err != nil {
		return time.Time{}, err
	}
	if err := day.RequireOpen(); err != nil {
		return time.Time{}, err
	}
	return day.Date, nil
}

func (s *BusinessDayService) current(ctx context.Context, shopID uuid.UUID) (*till.BusinessDay, error) {
	if shopID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "shop ID cannot be empty")
	}
	today := s.cfg.today()

	var day *till.BusinessDay
	var events []shared.DomainEvent
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		existing, err := repos.DayRepo().FindByDate(ctx, shopID, today)
		if err == nil {
			day = existing
			return nil
		}
		if !errors.Is(err, shared.ErrNotFound) {
			return err
		}

		if err := repos.LockDay(ctx, shopID, today, LockExclusive); err != nil {
			return err
		}
		// another caller may have created the day while we waited
		existing, err = repos.DayRepo().FindByDate(ctx, shopID, today)
		if err == nil {
			day = existing
			return nil
		}
		if !errors.Is(err, shared.ErrNotFound) {
			return err
		}

		previous, err := repos.DayRepo().FindOpenBefore(ctx, shopID, today)
		switch {
		case err == nil:
			next, err := s.rollOver(ctx, repos, previous, today)
			if err != nil {
				return err
			}
			day = next
			events = drainEvents(previous, next)
			return nil
		case errors.Is(err, shared.ErrNotFound):
			fresh, err := till.NewBusinessDay(shopID, today)
			if err != nil {
				return err
			}
			if err := repos.DayRepo().Create(ctx, fresh); err != nil {
				return err
			}
			day = fresh
			return nil
		default:
			return err
		}
	})
	if err != nil {
		return nil, err
	}

	publish(ctx, s.eventBus, events)
	return day, nil
}

func (s *BusinessDayService) rollOver(ctx context.Context, repos TransactionalRepositories, previous *till.BusinessDay, today time.Time) (*till.BusinessDay, error) {
	if err := repos.LockDay(ctx, previous.ShopID, previous.Date, LockExclusive); err != nil {
		return nil, err
	}
	now := s.cfg.now()
	next, err := till.CarryForwardFrom(previous, today, now)
	if err != nil {
		return nil, err
	}
	if err := repos.DayRepo().Save(ctx, previous); err != nil {
		return nil, err
	}
	if err := repos.DayRepo().Create(ctx, next); err != nil {
		return nil, err
	}
	if err := repos.DayMover().MoveDay(ctx, previous.ShopID, previous.Date, today); err != nil {
		return nil, err
	}

	logger.L(ctx).Info("business day carried forward",
		zap.String("shop_id", previous.ShopID.String()),
		zap.String("from", previous.Date.Format(time.DateOnly)),
		zap.String("to", today.Format(time.DateOnly)),
	)
	return next, nil
}

// Get returns the business day of a date
func (s *BusinessDayService) Get(ctx context.Context, shopID uuid.UUID, date time.Time) (*BusinessDayResponse, error) {
	var resp BusinessDayResponse
	err := s.scope.ExecuteReadOnly(ctx, func(repos TransactionalRepositories) error {
		day, err := repos.DayRepo().FindByDate(ctx, shopID, till.DateOf(date))
		if err != nil {
			return err
		}
		resp = ToBusinessDayResponse(day)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// List returns the shop's days in a date range, newest first
func (s *BusinessDayService) List(ctx context.Context, shopID uuid.UUID, from, to time.Time) ([]BusinessDayResponse, error) {
	var out []BusinessDayResponse
	err := s.scope.ExecuteReadOnly(ctx, func(repos TransactionalRepositories) error {
		days, err := repos.DayRepo().List(ctx, shopID, till.DateOf(from), till.DateOf(to))
		if err != nil {
			return err
		}
		out = make([]BusinessDayResponse, len(days))
		for i := range days {
			out[i] = ToBusinessDayResponse(&days[i])
		}
		return nil
	})
	return out, err
}

// Open starts trading for today and then provisions a zeroed drawer for
// every active cashier. Provisioning is best effort: a drawer that cannot
// be created is logged and will be created on the cashier's first sale.
func (s *BusinessDayService) Open(ctx context.Context, req OpenDayRequest) (*BusinessDayResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "business_day", "open")
	defer span.End()
	telemetry.SetAttribute(span, "shop_id", req.ShopID.String())

	current, err := s.current(ctx, req.ShopID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	var day *till.BusinessDay
	var events []shared.DomainEvent
	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		if err := repos.LockDay(ctx, req.ShopID, current.Date, LockExclusive); err != nil {
			return err
		}
		loaded, err := repos.DayRepo().FindByDate(ctx, req.ShopID, current.Date)
		if err != nil {
			return err
		}
		if err := loaded.Open(req.By, req.Notes, s.cfg.now()); err != nil {
			return err
		}
		if err := repos.DayRepo().Save(ctx, loaded); err != nil {
			return err
		}
		day = loaded
		events = drainEvents(loaded)
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	publish(ctx, s.eventBus, events)

	provisioned := s.provisionDrawers(ctx, day)
	telemetry.SetAttribute(span, "drawers_provisioned", provisioned)

	resp := ToBusinessDayResponse(day)
	return &resp, nil
}

func (s *BusinessDayService) provisionDrawers(ctx context.Context, day *till.BusinessDay) int {
	log := logger.L(ctx).With(
		zap.String("shop_id", day.ShopID.String()),
		zap.String("date", day.Date.Format(time.DateOnly)),
	)

	var cashierIDs []uuid.UUID
	err := s.scope.ExecuteReadOnly(ctx, func(repos TransactionalRepositories) error {
		cashiers, err := repos.CashierRepo().ListActive(ctx, day.ShopID)
		if err != nil {
			return err
		}
		for _, c := range cashiers {
			cashierIDs = append(cashierIDs, c.UserID)
		}
		return nil
	})
	if err != nil {
		log.Warn("could not list cashiers for drawer provisioning", zap.Error(err))
		return 0
	}

	provisioned := 0
	for _, cashierID := range cashierIDs {
		err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
			drawer, err := till.NewDrawer(day.ShopID, cashierID, day.Date)
			if err != nil {
				return err
			}
			return repos.DrawerRepo().Ensure(ctx, drawer)
		})
		if err != nil {
			log.Warn("drawer provisioning failed",
				zap.String("cashier_id", cashierID.String()),
				zap.Error(err),
			)
			continue
		}
		provisioned++
	}
	return provisioned
}

// Close ends trading for today. The day's sales and staff lunches are
// deleted, every drawer is zeroed and open shifts end, all in one
// transaction.
func (s *BusinessDayService) Close(ctx context.Context, req CloseDayRequest) (*BusinessDayResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "business_day", "close")
	defer span.End()
	telemetry.SetAttribute(span, "shop_id", req.ShopID.String())

	current, err := s.current(ctx, req.ShopID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	var day *till.BusinessDay
	var events []shared.DomainEvent
	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		if err := repos.LockDay(ctx, req.ShopID, current.Date, LockExclusive); err != nil {
			return err
		}
		loaded, err := repos.DayRepo().FindByDate(ctx, req.ShopID, current.Date)
		if err != nil {
			return err
		}
		if err := closeDay(ctx, repos, loaded, req.By, req.Notes, s.cfg.now()); err != nil {
			return err
		}
		day = loaded
		events = drainEvents(loaded)
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	publish(ctx, s.eventBus, events)

	resp := ToBusinessDayResponse(day)
	return &resp, nil
}

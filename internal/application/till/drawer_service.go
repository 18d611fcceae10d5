package till

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shoppos/backend/internal/domain/sales"
	"github.com/shoppos/backend/internal/domain/shared"
	"github.com/shoppos/backend/internal/domain/till"
	"github.com/shoppos/backend/internal/infrastructure/telemetry"
)

// DrawerService posts money movements to cashier drawers
type DrawerService struct {
	scope    TransactionScope
	days     *BusinessDayService
	eventBus shared.EventPublisher
	cfg      Config
}

// NewDrawerService creates a new DrawerService
func NewDrawerService(scope TransactionScope, days *BusinessDayService, eventBus shared.EventPublisher, cfg Config) *DrawerService {
	return &DrawerService{
		scope:    scope,
		days:     days,
		eventBus: eventBus,
		cfg:      cfg,
	}
}

// ApplySale adds a tender line to the cashier's drawer for today, creating
// the drawer if the cashier has none yet
func (s *DrawerService) ApplySale(ctx context.Context, req ApplyLineRequest) (*DrawerResponse, error) {
	return s.applyLine(ctx, req, false)
}

// ApplyRefund removes a tender line from the cashier's drawer, flooring
// every touched amount at zero
func (s *DrawerService) ApplyRefund(ctx context.Context, req ApplyLineRequest) (*DrawerResponse, error) {
	return s.applyLine(ctx, req, true)
}

func (s *DrawerService) applyLine(ctx context.Context, req ApplyLineRequest, refund bool) (*DrawerResponse, error) {
	method := "apply_sale"
	if refund {
		method = "apply_refund"
	}
	ctx, span := telemetry.StartServiceSpan(ctx, "drawer", method)
	defer span.End()
	telemetry.SetAttributes(span,
		"shop_id", req.ShopID.String(),
		"tender", req.Tender.String(),
		"currency", req.Currency.String(),
	)

	day, err := s.days.current(ctx, req.ShopID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	var resp DrawerResponse
	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		if _, err := enterDay(ctx, repos, req.ShopID, day.Date, LockShared); err != nil {
			return err
		}
		drawer, err := postPayments(ctx, repos, req.ShopID, req.CashierID, day.Date, []sales.Payment{{
			Tender:   req.Tender,
			Currency: req.Currency,
			Amount:   req.Amount,
		}}, refund, s.cfg.now())
		if err != nil {
			return err
		}
		resp = ToDrawerResponse(drawer)
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	return &resp, nil
}

// postPayments applies every payment line to the cashier's drawer under its
// row lock. The caller holds the shared day lock.
func postPayments(ctx context.Context, repos TransactionalRepositories, shopID, cashierID uuid.UUID, date time.Time, payments []sales.Payment, refund bool, now time.Time) (*till.Drawer, error) {
	drawer, err := lockDrawer(ctx, repos, shopID, cashierID, date, true)
	if err != nil {
		return nil, err
	}
	for _, p := range payments {
		if refund {
			err = drawer.ApplyRefund(p.Tender, p.Currency, p.Amount, now)
		} else {
			err = drawer.ApplySale(p.Tender, p.Currency, p.Amount, now)
		}
		if err != nil {
			return nil, err
		}
	}
	if err := repos.DrawerRepo().Save(ctx, drawer); err != nil {
		return nil, err
	}
	return drawer, nil
}

// SetFloat overwrites the opening float of a drawer. Only owners and admins
// may change floats.
func (s *DrawerService) SetFloat(ctx context.Context, req SetFloatRequest) (*DrawerResponse, error) {
	if !req.Actor.Role.CanManageFloat() {
		return nil, shared.NewDomainError(shared.CodeForbidden, "only the shop owner or an admin may set a drawer float")
	}

	day, err := s.days.current(ctx, req.ShopID)
	if err != nil {
		return nil, err
	}

	var resp DrawerResponse
	var events []shared.DomainEvent
	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		if _, err := enterDay(ctx, repos, req.ShopID, day.Date, LockShared); err != nil {
			return err
		}
		drawer, err := lockDrawer(ctx, repos, req.ShopID, req.CashierID, day.Date, false)
		if err != nil {
			return err
		}
		if err := drawer.SetFloat(req.Amounts, req.Actor.UserID, s.cfg.now()); err != nil {
			return err
		}
		if err := repos.DrawerRepo().Save(ctx, drawer); err != nil {
			return err
		}
		resp = ToDrawerResponse(drawer)
		events = drainEvents(drawer)
		return nil
	})
	if err != nil {
		return nil, err
	}
	publish(ctx, s.eventBus, events)
	return &resp, nil
}

// Settle records the counted cash of a drawer and freezes it. A cashier may
// settle their own drawer; owners and admins may settle any.
func (s *DrawerService) Settle(ctx context.Context, req SettleDrawerRequest) (*SettlementResponse, error) {
	if req.Actor.UserID != req.CashierID && !req.Actor.Role.CanManageFloat() {
		return nil, shared.NewDomainError(shared.CodeForbidden, "cannot settle another cashier's drawer")
	}

	day, err := s.days.current(ctx, req.ShopID)
	if err != nil {
		return nil, err
	}

	var resp SettlementResponse
	var events []shared.DomainEvent
	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		if _, err := enterDay(ctx, repos, req.ShopID, day.Date, LockShared); err != nil {
			return err
		}
		drawer, err := lockDrawer(ctx, repos, req.ShopID, req.CashierID, day.Date, false)
		if err != nil {
			return err
		}
		report, err := drawer.Settle(req.Counted, req.Actor.UserID, s.cfg.now())
		if err != nil {
			return err
		}
		if err := repos.DrawerRepo().Save(ctx, drawer); err != nil {
			return err
		}
		resp = toSettlementResponse(drawer, report)
		events = drainEvents(drawer)
		return nil
	})
	if err != nil {
		return nil, err
	}
	publish(ctx, s.eventBus, events)
	return &resp, nil
}

// Get returns a cashier's drawer. A nil date means today.
func (s *DrawerService) Get(ctx context.Context, shopID, cashierID uuid.UUID, date *time.Time) (*DrawerResponse, error) {
	businessDate := s.resolveDate(date)
	var resp DrawerResponse
	err := s.scope.ExecuteReadOnly(ctx, func(repos TransactionalRepositories) error {
		drawer, err := repos.DrawerRepo().Find(ctx, shopID, cashierID, businessDate)
		if err != nil {
			return err
		}
		resp = ToDrawerResponse(drawer)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// List returns every drawer of a day. A nil date means today.
func (s *DrawerService) List(ctx context.Context, shopID uuid.UUID, date *time.Time) ([]DrawerResponse, error) {
	businessDate := s.resolveDate(date)
	var out []DrawerResponse
	err := s.scope.ExecuteReadOnly(ctx, func(repos TransactionalRepositories) error {
		drawers, err := repos.DrawerRepo().ListForDay(ctx, shopID, businessDate)
		if err != nil {
			return err
		}
		out = ToDrawerResponses(drawers)
		return nil
	})
	return out, err
}

func (s *DrawerService) resolveDate(date *time.Time) time.Time {
	if date != nil {
		return till.DateOf(*date)
	}
	return s.cfg.today()
}

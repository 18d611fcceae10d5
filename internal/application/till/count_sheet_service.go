package till

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shoppos/backend/internal/domain/shared"
	"github.com/shoppos/backend/internal/domain/shared/valueobject"
	"github.com/shoppos/backend/internal/domain/till"
	"github.com/shoppos/backend/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
)

// CountSheetService manages cashiers' end-of-day counts
type CountSheetService struct {
	scope    TransactionScope
	days     *BusinessDayService
	eventBus shared.EventPublisher
	cfg      Config
}

// NewCountSheetService creates a new CountSheetService
func NewCountSheetService(scope TransactionScope, days *BusinessDayService, eventBus shared.EventPublisher, cfg Config) *CountSheetService {
	return &CountSheetService{
		scope:    scope,
		days:     days,
		eventBus: eventBus,
		cfg:      cfg,
	}
}

// DenominationResponse is one entry of a currency's note and coin table
type DenominationResponse struct {
	Code      string          `json:"code"`
	Currency  string          `json:"currency"`
	FaceValue decimal.Decimal `json:"face_value"`
	Kind      string          `json:"kind"`
}

// Denominations returns the note and coin tables of every currency
func (s *CountSheetService) Denominations() map[string][]DenominationResponse {
	out := make(map[string][]DenominationResponse)
	for _, c := range valueobject.AllCurrencies() {
		for _, d := range till.Denominations(c) {
			out[c.String()] = append(out[c.String()], DenominationResponse{
				Code:      d.Code,
				Currency:  c.String(),
				FaceValue: d.FaceValue,
				Kind:      string(d.Kind),
			})
		}
	}
	return out
}

// applyLedgerExpectations recomputes the sheet's expected amounts from the
// sales log, staff lunches and the drawer float. Cached drawer counters are
// never used.
func applyLedgerExpectations(ctx context.Context, repos TransactionalRepositories, sheet *till.CountSheet) error {
	saleTotals, err := repos.SaleRepo().SumForCashier(ctx, sheet.ShopID, sheet.CashierID, sheet.BusinessDate)
	if err != nil {
		return err
	}
	lunchCash, err := repos.LunchRepo().SumCashForCashier(ctx, sheet.ShopID, sheet.CashierID, sheet.BusinessDate)
	if err != nil {
		return err
	}
	var float valueobject.CurrencyAmounts
	drawer, err := repos.DrawerRepo().Find(ctx, sheet.ShopID, sheet.CashierID, sheet.BusinessDate)
	switch {
	case err == nil:
		float = drawer.Float
	case !errors.Is(err, shared.ErrNotFound):
		return err
	}
	sheet.ApplyExpected(saleTotals, lunchCash, float)
	return nil
}

// RecomputeExpected previews the cashier's sheet with expectations freshly
// derived from the ledgers. Nothing is written; calling it twice without
// intervening sales returns the same values.
func (s *CountSheetService) RecomputeExpected(ctx context.Context, shopID, cashierID uuid.UUID) (*CountSheetResponse, error) {
	day, err := s.days.current(ctx, shopID)
	if err != nil {
		return nil, err
	}

	var resp CountSheetResponse
	err = s.scope.ExecuteReadOnly(ctx, func(repos TransactionalRepositories) error {
		persisted := true
		sheet, err := repos.CountSheetRepo().Find(ctx, shopID, cashierID, day.Date)
		if errors.Is(err, shared.ErrNotFound) {
			persisted = false
			sheet, err = till.NewCountSheet(shopID, cashierID, day.Date)
		}
		if err != nil {
			return err
		}
		if err := applyLedgerExpectations(ctx, repos, sheet); err != nil {
			return err
		}
		resp = ToCountSheetResponse(sheet)
		resp.Persisted = persisted
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// Save stores denomination counts and electronic totals, recomputing the
// expected amounts and variance in the same transaction
func (s *CountSheetService) Save(ctx context.Context, req SaveCountSheetRequest) (*CountSheetResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "count_sheet", "save")
	defer span.End()
	telemetry.SetAttribute(span, "shop_id", req.ShopID.String())

	day, err := s.days.current(ctx, req.ShopID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	var resp CountSheetResponse
	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		if _, err := enterDay(ctx, repos, req.ShopID, day.Date, LockShared); err != nil {
			return err
		}
		sheet, created, err := s.loadOrCreate(ctx, repos, req.ShopID, req.CashierID, day.Date)
		if err != nil {
			return err
		}
		if err := sheet.RequireEditable(); err != nil {
			return err
		}

		codes := make([]string, 0, len(req.Counts))
		for code := range req.Counts {
			codes = append(codes, code)
		}
		sort.Strings(codes)
		for _, code := range codes {
			if err := sheet.SetCount(code, req.Counts[code]); err != nil {
				return err
			}
		}
		for _, e := range req.Electronic {
			if err := sheet.SetElectronic(e.Tender, e.Currency, e.Amount); err != nil {
				return err
			}
		}
		if req.Notes != nil {
			sheet.Notes = *req.Notes
		}
		if err := applyLedgerExpectations(ctx, repos, sheet); err != nil {
			return err
		}
		sheet.Touch(s.cfg.now())

		if created {
			err = repos.CountSheetRepo().Create(ctx, sheet)
		} else {
			err = repos.CountSheetRepo().Save(ctx, sheet)
		}
		if err != nil {
			return err
		}
		resp = ToCountSheetResponse(sheet)
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	return &resp, nil
}

func (s *CountSheetService) loadOrCreate(ctx context.Context, repos TransactionalRepositories, shopID, cashierID uuid.UUID, date time.Time) (*till.CountSheet, bool, error) {
	sheet, err := repos.CountSheetRepo().FindForUpdate(ctx, shopID, cashierID, date)
	if err == nil {
		return sheet, false, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, false, err
	}
	sheet, err = till.NewCountSheet(shopID, cashierID, date)
	if err != nil {
		return nil, false, err
	}
	return sheet, true, nil
}

// Complete submits the cashier's count. Only completed sheets are counted
// by the reconciliation.
func (s *CountSheetService) Complete(ctx context.Context, shopID, cashierID uuid.UUID, actor Actor) (*CountSheetResponse, error) {
	if actor.UserID != cashierID && !actor.Role.CanReconcile() {
		return nil, shared.NewDomainError(shared.CodeForbidden, "cannot complete another cashier's count")
	}
	day, err := s.days.current(ctx, shopID)
	if err != nil {
		return nil, err
	}

	var resp CountSheetResponse
	var events []shared.DomainEvent
	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		if _, err := enterDay(ctx, repos, shopID, day.Date, LockShared); err != nil {
			return err
		}
		sheet, err := repos.CountSheetRepo().FindForUpdate(ctx, shopID, cashierID, day.Date)
		if err != nil {
			return err
		}
		if err := applyLedgerExpectations(ctx, repos, sheet); err != nil {
			return err
		}
		if err := sheet.Complete(actor.UserID, s.cfg.now()); err != nil {
			return err
		}
		if err := repos.CountSheetRepo().Save(ctx, sheet); err != nil {
			return err
		}
		resp = ToCountSheetResponse(sheet)
		events = drainEvents(sheet)
		return nil
	})
	if err != nil {
		return nil, err
	}
	publish(ctx, s.eventBus, events)
	return &resp, nil
}

// Review marks a completed sheet as checked by an owner or admin
func (s *CountSheetService) Review(ctx context.Context, shopID, cashierID uuid.UUID, actor Actor) (*CountSheetResponse, error) {
	if !actor.Role.CanReconcile() {
		return nil, shared.NewDomainError(shared.CodeForbidden, "only the shop owner or an admin may review counts")
	}
	day, err := s.days.current(ctx, shopID)
	if err != nil {
		return nil, err
	}

	var resp CountSheetResponse
	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		if _, err := enterDay(ctx, repos, shopID, day.Date, LockShared); err != nil {
			return err
		}
		sheet, err := repos.CountSheetRepo().FindForUpdate(ctx, shopID, cashierID, day.Date)
		if err != nil {
			return err
		}
		if err := sheet.Review(actor.UserID, s.cfg.now()); err != nil {
			return err
		}
		if err := repos.CountSheetRepo().Save(ctx, sheet); err != nil {
			return err
		}
		resp = ToCountSheetResponse(sheet)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// Get returns a cashier's stored sheet. A nil date means today.
func (s *CountSheetService) Get(ctx context.Context, shopID, cashierID uuid.UUID, date *time.Time) (*CountSheetResponse, error) {
	businessDate := s.resolveDate(date)
	var resp CountSheetResponse
	err := s.scope.ExecuteReadOnly(ctx, func(repos TransactionalRepositories) error {
		sheet, err := repos.CountSheetRepo().Find(ctx, shopID, cashierID, businessDate)
		if err != nil {
			return err
		}
		resp = ToCountSheetResponse(sheet)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// List returns every sheet of a day. A nil date means today.
func (s *CountSheetService) List(ctx context.Context, shopID uuid.UUID, date *time.Time) ([]CountSheetResponse, error) {
	businessDate := s.resolveDate(date)
	var out []CountSheetResponse
	err := s.scope.ExecuteReadOnly(ctx, func(repos TransactionalRepositories) error {
		sheets, err := repos.CountSheetRepo().ListForDay(ctx, shopID, businessDate)
		if err != nil {
			return err
		}
		out = ToCountSheetResponses(sheets)
		return nil
	})
	return out, err
}

func (s *CountSheetService) resolveDate(date *time.Time) time.Time {
	if date != nil {
		return till.DateOf(*date)
	}
	return s.cfg.today()
}

package till

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shoppos/backend/internal/domain/sales"
	"github.com/shoppos/backend/internal/domain/shared"
	"github.com/shoppos/backend/internal/domain/shared/valueobject"
	"github.com/shoppos/backend/internal/domain/till"
	"github.com/shoppos/backend/internal/infrastructure/logger"
	"github.com/shoppos/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// SaleService is the sales ledger: it records sales, refunds and staff
// lunches and posts their payment lines to the cashier's drawer in the same
// transaction
type SaleService struct {
	scope       TransactionScope
	days        *BusinessDayService
	idempotency shared.IdempotencyStore
	cfg         Config
}

// NewSaleService creates a new SaleService. idempotency may be nil; the
// unique (shop, reference) key still rejects duplicates.
func NewSaleService(scope TransactionScope, days *BusinessDayService, idempotency shared.IdempotencyStore, cfg Config) *SaleService {
	return &SaleService{
		scope:       scope,
		days:        days,
		idempotency: idempotency,
		cfg:         cfg,
	}
}

// RecordSale records a completed sale. Posting the same reference twice
// returns the first sale with Duplicate set and moves no money.
func (s *SaleService) RecordSale(ctx context.Context, req RecordSaleRequest) (*SaleResponse, error) {
	return s.record(ctx, req, sales.KindSale)
}

// RecordRefund records a refund; its payment lines are taken out of the
// drawer
func (s *SaleService) RecordRefund(ctx context.Context, req RecordSaleRequest) (*SaleResponse, error) {
	return s.record(ctx, req, sales.KindRefund)
}

func (s *SaleService) record(ctx context.Context, req RecordSaleRequest, kind sales.Kind) (*SaleResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "sale", "record")
	defer span.End()
	telemetry.SetAttributes(span,
		"shop_id", req.ShopID.String(),
		"kind", string(kind),
		"payments", len(req.Payments),
	)

	req.Reference = strings.TrimSpace(req.Reference)
	key := idempotencyKey(req.ShopID, req.Reference)
	if s.idempotency != nil {
		seen, err := s.idempotency.IsProcessed(ctx, key)
		if err != nil {
			logger.L(ctx).Warn("idempotency lookup failed", zap.String("reference", req.Reference), zap.Error(err))
		} else if seen {
			existing, err := s.findByReference(ctx, req.ShopID, req.Reference)
			if err == nil {
				existing.Duplicate = true
				return existing, nil
			}
			// the key outlived the purged sale; record it normally
		}
	}

	day, err := s.days.current(ctx, req.ShopID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	var resp SaleResponse
	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		if _, err := enterDay(ctx, repos, req.ShopID, day.Date, LockShared); err != nil {
			return err
		}

		existing, err := repos.SaleRepo().FindByReference(ctx, req.ShopID, req.Reference)
		if err == nil {
			resp = ToSaleResponse(existing)
			resp.Duplicate = true
			return nil
		}
		if !errors.Is(err, shared.ErrNotFound) {
			return err
		}

		now := s.cfg.now()
		sale, err := sales.NewSale(req.ShopID, req.CashierID, day.Date, req.Reference, kind, req.Payments, now)
		if err != nil {
			return err
		}
		if err := repos.SaleRepo().Create(ctx, sale); err != nil {
			return err
		}
		if _, err := postPayments(ctx, repos, req.ShopID, req.CashierID, day.Date, sale.Payments, sale.IsRefund(), now); err != nil {
			return err
		}
		resp = ToSaleResponse(sale)
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if s.idempotency != nil && !resp.Duplicate {
		if _, err := s.idempotency.MarkProcessed(ctx, key, shared.DefaultIdempotencyTTL); err != nil {
			logger.L(ctx).Warn("failed to remember sale reference", zap.String("reference", req.Reference), zap.Error(err))
		}
	}
	return &resp, nil
}

func (s *SaleService) findByReference(ctx context.Context, shopID uuid.UUID, reference string) (*SaleResponse, error) {
	var resp SaleResponse
	err := s.scope.ExecuteReadOnly(ctx, func(repos TransactionalRepositories) error {
		sale, err := repos.SaleRepo().FindByReference(ctx, shopID, reference)
		if err != nil {
			return err
		}
		resp = ToSaleResponse(sale)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// RecordStaffLunch records cash taken from a cashier's drawer for staff
// meals. It lowers the cashier's expected cash at count time.
func (s *SaleService) RecordStaffLunch(ctx context.Context, req RecordStaffLunchRequest) (*StaffLunchResponse, error) {
	amount, err := valueobject.NewMoney(req.Amount, req.Currency)
	if err != nil {
		return nil, err
	}
	day, err := s.days.current(ctx, req.ShopID)
	if err != nil {
		return nil, err
	}

	var resp StaffLunchResponse
	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		if _, err := enterDay(ctx, repos, req.ShopID, day.Date, LockShared); err != nil {
			return err
		}
		lunch, err := sales.NewStaffLunch(req.ShopID, req.CashierID, day.Date, amount, req.Description, req.RecordedBy, s.cfg.now())
		if err != nil {
			return err
		}
		if err := repos.LunchRepo().Create(ctx, lunch); err != nil {
			return err
		}
		resp = ToStaffLunchResponse(lunch)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListSales returns the sales of a day. A nil date means today.
func (s *SaleService) ListSales(ctx context.Context, shopID uuid.UUID, date *time.Time) ([]SaleResponse, error) {
	businessDate := s.cfg.today()
	if date != nil {
		businessDate = till.DateOf(*date)
	}
	var out []SaleResponse
	err := s.scope.ExecuteReadOnly(ctx, func(repos TransactionalRepositories) error {
		list, err := repos.SaleRepo().ListForDay(ctx, shopID, businessDate)
		if err != nil {
			return err
		}
		out = make([]SaleResponse, len(list))
		for i := range list {
			out[i] = ToSaleResponse(&list[i])
		}
		return nil
	})
	return out, err
}

// ListStaffLunches returns the staff lunches of a day. A nil date means today.
func (s *SaleService) ListStaffLunches(ctx context.Context, shopID uuid.UUID, date *time.Time) ([]StaffLunchResponse, error) {
	businessDate := s.cfg.today()
	if date != nil {
		businessDate = till.DateOf(*date)
	}
	var out []StaffLunchResponse
	err := s.scope.ExecuteReadOnly(ctx, func(repos TransactionalRepositories) error {
		list, err := repos.LunchRepo().ListForDay(ctx, shopID, businessDate)
		if err != nil {
			return err
		}
		out = make([]StaffLunchResponse, len(list))
		for i := range list {
			out[i] = ToStaffLunchResponse(&list[i])
		}
		return nil
	})
	return out, err
}

func idempotencyKey(shopID uuid.UUID, reference string) string {
	return "sale:" + shopID.String() + ":" + reference
}

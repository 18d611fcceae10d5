// Package staff administers the till roster and cashier shifts.
package staff

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shoppos/backend/internal/domain/shared"
	"github.com/shoppos/backend/internal/domain/staff"
	"github.com/shoppos/backend/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// CashierService manages the roster of users who work a till
type CashierService struct {
	repo staff.CashierRepository
	now  func() time.Time
}

// NewCashierService creates a new CashierService
func NewCashierService(repo staff.CashierRepository) *CashierService {
	return &CashierService{repo: repo, now: time.Now}
}

// Register adds a user to the roster. A user appears at most once per shop.
func (s *CashierService) Register(ctx context.Context, req RegisterCashierRequest) (*CashierResponse, error) {
	existing, err := s.repo.FindByUser(ctx, req.ShopID, req.UserID)
	if err == nil && existing != nil {
		return nil, shared.NewDomainError(shared.CodeAlreadyExists, "user is already on the roster")
	}
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	cashier, err := staff.NewCashier(req.ShopID, req.UserID, req.DisplayName, req.Role)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, cashier); err != nil {
		return nil, err
	}

	logger.L(ctx).Info("cashier registered",
		zap.String("shop_id", req.ShopID.String()),
		zap.String("user_id", req.UserID.String()),
		zap.String("role", string(req.Role)),
	)
	resp := ToCashierResponse(cashier)
	return &resp, nil
}

// Deactivate stops provisioning drawers for the user
func (s *CashierService) Deactivate(ctx context.Context, shopID, userID uuid.UUID) (*CashierResponse, error) {
	return s.update(ctx, shopID, userID, func(c *staff.Cashier, now time.Time) { c.Deactivate(now) })
}

// Activate puts the user back on the roster
func (s *CashierService) Activate(ctx context.Context, shopID, userID uuid.UUID) (*CashierResponse, error) {
	return s.update(ctx, shopID, userID, func(c *staff.Cashier, now time.Time) { c.Activate(now) })
}

func (s *CashierService) update(ctx context.Context, shopID, userID uuid.UUID, fn func(*staff.Cashier, time.Time)) (*CashierResponse, error) {
	cashier, err := s.repo.FindByUser(ctx, shopID, userID)
	if err != nil {
		return nil, err
	}
	fn(cashier, s.now())
	if err := s.repo.Save(ctx, cashier); err != nil {
		return nil, err
	}
	resp := ToCashierResponse(cashier)
	return &resp, nil
}

// Get returns one roster entry
func (s *CashierService) Get(ctx context.Context, shopID, userID uuid.UUID) (*CashierResponse, error) {
	cashier, err := s.repo.FindByUser(ctx, shopID, userID)
	if err != nil {
		return nil, err
	}
	resp := ToCashierResponse(cashier)
	return &resp, nil
}

// List returns the roster; activeOnly filters out deactivated users
func (s *CashierService) List(ctx context.Context, shopID uuid.UUID, activeOnly bool) ([]CashierResponse, error) {
	var (
		cashiers []staff.Cashier
		err      error
	)
	if activeOnly {
		cashiers, err = s.repo.ListActive(ctx, shopID)
	} else {
		cashiers, err = s.repo.List(ctx, shopID)
	}
	if err != nil {
		return nil, err
	}
	out := make([]CashierResponse, len(cashiers))
	for i := range cashiers {
		out[i] = ToCashierResponse(&cashiers[i])
	}
	return out, nil
}

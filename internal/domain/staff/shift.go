package staff

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shoppos/backend/internal/domain/shared"
)

// Shift is a cashier's working session within a business day
type Shift struct {
	shared.ShopAggregateRoot
	CashierID    uuid.UUID
	BusinessDate time.Time
	StartedAt    time.Time
	EndedAt      *time.Time
	EndReason    string
}

// StartShift opens a shift for a cashier
func StartShift(shopID, cashierID uuid.UUID, businessDate, now time.Time) (*Shift, error) {
	if shopID == uuid.Nil || cashierID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "shop ID and cashier ID are required")
	}
	return &Shift{
		ShopAggregateRoot: shared.NewShopAggregateRoot(shopID),
		CashierID:         cashierID,
		BusinessDate:      businessDate,
		StartedAt:         now,
	}, nil
}

// IsOpen reports whether the shift has not ended
func (s *Shift) IsOpen() bool {
	return s.EndedAt == nil
}

// End closes the shift
func (s *Shift) End(reason string, now time.Time) error {
	if !s.IsOpen() {
		return shared.NewDomainError(shared.CodeInvalidTransition, "shift already ended")
	}
	s.EndedAt = &now
	s.EndReason = reason
	s.Touch(now)
	return nil
}

// ShiftRepository persists shifts
type ShiftRepository interface {
	Save(ctx context.Context, shift *Shift) error
	FindOpen(ctx context.Context, shopID, cashierID uuid.UUID, date time.Time) (*Shift, error)
	ListForDay(ctx context.Context, shopID uuid.UUID, date time.Time) ([]Shift, error)
	// EndOpenForDay ends every open shift of the day and returns how many ended
	EndOpenForDay(ctx context.Context, shopID uuid.UUID, date time.Time, reason string, now time.Time) (int64, error)
}

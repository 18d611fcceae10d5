package staff

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shoppos/backend/internal/domain/shared"
	"github.com/shoppos/backend/internal/domain/staff"
)

// DayResolver reports which business date is open for trading
type DayResolver interface {
	OpenDate(ctx context.Context, shopID uuid.UUID) (time.Time, error)
	Today() time.Time
}

// ShiftService starts and ends cashier shifts within the open business day
type ShiftService struct {
	shifts   staff.ShiftRepository
	cashiers staff.CashierRepository
	days     DayResolver
	now      func() time.Time
}

// NewShiftService creates a new ShiftService
func NewShiftService(shifts staff.ShiftRepository, cashiers staff.CashierRepository, days DayResolver) *ShiftService {
	return &ShiftService{shifts: shifts, cashiers: cashiers, days: days, now: time.Now}
}

// Start opens a shift for the cashier. Only active roster members may work
// and only while the day is OPEN; a second start returns the open shift.
func (s *ShiftService) Start(ctx context.Context, shopID, cashierID uuid.UUID) (*ShiftResponse, error) {
	cashier, err := s.cashiers.FindByUser(ctx, shopID, cashierID)
	if err != nil {
		return nil, err
	}
	if !cashier.Active {
		return nil, shared.NewDomainError(shared.CodeForbidden, "cashier is not active")
	}

	date, err := s.days.OpenDate(ctx, shopID)
	if err != nil {
		return nil, err
	}

	open, err := s.shifts.FindOpen(ctx, shopID, cashierID, date)
	if err == nil {
		resp := ToShiftResponse(open)
		return &resp, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	shift, err := staff.StartShift(shopID, cashierID, date, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.shifts.Save(ctx, shift); err != nil {
		return nil, err
	}
	resp := ToShiftResponse(shift)
	return &resp, nil
}

// End closes the cashier's open shift of today
func (s *ShiftService) End(ctx context.Context, shopID, cashierID uuid.UUID, reason string) (*ShiftResponse, error) {
	shift, err := s.shifts.FindOpen(ctx, shopID, cashierID, s.days.Today())
	if err != nil {
		return nil, err
	}
	if reason == "" {
		reason = "ended by cashier"
	}
	if err := shift.End(reason, s.now()); err != nil {
		return nil, err
	}
	if err := s.shifts.Save(ctx, shift); err != nil {
		return nil, err
	}
	resp := ToShiftResponse(shift)
	return &resp, nil
}

// List returns the shifts of a day; nil date means today
func (s *ShiftService) List(ctx context.Context, shopID uuid.UUID, date *time.Time) ([]ShiftResponse, error) {
	day := s.days.Today()
	if date != nil {
		day = *date
	}
	shifts, err := s.shifts.ListForDay(ctx, shopID, day)
	if err != nil {
		return nil, err
	}
	out := make([]ShiftResponse, len(shifts))
	for i := range shifts {
		out[i] = ToShiftResponse(&shifts[i])
	}
	return out, nil
}

// Package till is the cash-handling context of a shop: the business day that
// gates money movement, the per-cashier drawers, the end-of-day count sheets,
// the reconciliation session and the append-only count archive.
package till

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shoppos/backend/internal/domain/shared"
)

// DayStatus represents the trading state of a business day
type DayStatus string

const (
	DayStatusClosed DayStatus = "CLOSED"
	DayStatusOpen   DayStatus = "OPEN"
	// DayStatusClosing is reserved for reporting; Close is atomic so the
	// status is never persisted.
	DayStatusClosing DayStatus = "CLOSING"
)

// IsValid checks if the status is a valid DayStatus
func (s DayStatus) IsValid() bool {
	switch s {
	case DayStatusClosed, DayStatusOpen, DayStatusClosing:
		return true
	}
	return false
}

// String returns the string representation of DayStatus
func (s DayStatus) String() string {
	return string(s)
}

// CanTransitionTo checks if the status can transition to the target status
func (s DayStatus) CanTransitionTo(target DayStatus) bool {
	switch s {
	case DayStatusClosed:
		return target == DayStatusOpen
	case DayStatusOpen:
		return target == DayStatusClosed
	}
	return false
}

// BusinessDay is a shop's logical trading day. Drawers and sales may only
// be mutated while it is OPEN.
type BusinessDay struct {
	shared.ShopAggregateRoot
	Date           time.Time
	Status         DayStatus
	OpenedAt       *time.Time
	OpenedBy       *uuid.UUID
	OpenNotes      string
	ClosedAt       *time.Time
	ClosedBy       *uuid.UUID
	CloseNotes     string
	CarriedForward bool
	RolledOverTo   *time.Time
}

// NewBusinessDay creates a CLOSED business day for the shop and date
func NewBusinessDay(shopID uuid.UUID, date time.Time) (*BusinessDay, error) {
	if shopID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "shop ID cannot be empty")
	}
	return &BusinessDay{
		ShopAggregateRoot: shared.NewShopAggregateRoot(shopID),
		Date:              DateOf(date),
		Status:            DayStatusClosed,
	}, nil
}

// CarryForwardFrom creates the business day that follows an unattended
// OPEN day. The new day starts OPEN so cashiers are not locked out at
// midnight; the previous day is marked as rolled over.
func CarryForwardFrom(previous *BusinessDay, date time.Time, now time.Time) (*BusinessDay, error) {
	if previous == nil || previous.Status != DayStatusOpen {
		return nil, shared.NewDomainError(shared.CodeInvalidTransition, "only an open business day can be carried forward")
	}
	date = DateOf(date)
	if !date.After(previous.Date) {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "carry-forward date must follow the previous day")
	}

	next, err := NewBusinessDay(previous.ShopID, date)
	if err != nil {
		return nil, err
	}
	next.Status = DayStatusOpen
	next.OpenedAt = previous.OpenedAt
	next.OpenedBy = previous.OpenedBy
	next.OpenNotes = strings.TrimSpace(fmt.Sprintf("carried forward from %s. %s", previous.Date.Format(time.DateOnly), previous.OpenNotes))
	next.CarriedForward = true

	previous.Status = DayStatusClosed
	previous.ClosedAt = &now
	previous.CloseNotes = "rolled over to " + date.Format(time.DateOnly)
	previous.RolledOverTo = &date
	previous.Touch(now)

	next.AddDomainEvent(NewBusinessDayRolledOverEvent(previous, next))
	return next, nil
}

// IsOpen reports whether money may move
func (d *BusinessDay) IsOpen() bool {
	return d.Status == DayStatusOpen
}

// Open starts trading. Fails with INVALID_TRANSITION unless the day is CLOSED.
func (d *BusinessDay) Open(by uuid.UUID, notes string, now time.Time) error {
	if !d.Status.CanTransitionTo(DayStatusOpen) {
		return shared.NewDomainError(shared.CodeInvalidTransition,
			fmt.Sprintf("cannot open business day %s in %s status", d.Date.Format(time.DateOnly), d.Status))
	}
	if d.RolledOverTo != nil {
		return shared.NewDomainError(shared.CodeInvalidTransition,
			fmt.Sprintf("business day %s was rolled over and cannot be reopened", d.Date.Format(time.DateOnly)))
	}

	d.Status = DayStatusOpen
	d.OpenedAt = &now
	d.OpenedBy = &by
	d.OpenNotes = strings.TrimSpace(notes)
	d.Touch(now)

	d.AddDomainEvent(NewBusinessDayOpenedEvent(d))
	return nil
}

// Close ends trading. Fails with INVALID_TRANSITION unless the day is OPEN.
// The caller purges the day's transactional records in the same transaction.
func (d *BusinessDay) Close(by uuid.UUID, notes string, now time.Time) error {
	if !d.Status.CanTransitionTo(DayStatusClosed) {
		return shared.NewDomainError(shared.CodeInvalidTransition,
			fmt.Sprintf("cannot close business day %s in %s status", d.Date.Format(time.DateOnly), d.Status))
	}

	d.Status = DayStatusClosed
	d.ClosedAt = &now
	d.ClosedBy = &by
	d.CloseNotes = strings.TrimSpace(notes)
	d.Touch(now)

	d.AddDomainEvent(NewBusinessDayClosedEvent(d))
	return nil
}

// RequireOpen returns INVALID_TRANSITION when money may not move
func (d *BusinessDay) RequireOpen() error {
	if !d.IsOpen() {
		return shared.NewDomainError(shared.CodeInvalidTransition,
			fmt.Sprintf("business day %s is %s", d.Date.Format(time.DateOnly), d.Status))
	}
	return nil
}

// DateOf truncates a timestamp to its calendar date, expressed as midnight
// UTC, in the timestamp's own location.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

package staff

import (
	"time"

	"github.com/google/uuid"
	"github.com/shoppos/backend/internal/domain/staff"
)

// RegisterCashierRequest adds a user to a shop's till roster
type RegisterCashierRequest struct {
	ShopID      uuid.UUID
	UserID      uuid.UUID
	DisplayName string
	Role        staff.Role
}

// CashierResponse represents a roster entry in API responses
type CashierResponse struct {
	ID          uuid.UUID `json:"id"`
	ShopID      uuid.UUID `json:"shop_id"`
	UserID      uuid.UUID `json:"user_id"`
	DisplayName string    `json:"display_name"`
	Role        string    `json:"role"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ToCashierResponse converts a domain Cashier
func ToCashierResponse(c *staff.Cashier) CashierResponse {
	return CashierResponse{
		ID:          c.ID,
		ShopID:      c.ShopID,
		UserID:      c.UserID,
		DisplayName: c.DisplayName,
		Role:        string(c.Role),
		Active:      c.Active,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
}

// ShiftResponse represents a shift in API responses
type ShiftResponse struct {
	ID           uuid.UUID  `json:"id"`
	ShopID       uuid.UUID  `json:"shop_id"`
	CashierID    uuid.UUID  `json:"cashier_id"`
	BusinessDate string     `json:"business_date"`
	StartedAt    time.Time  `json:"started_at"`
	EndedAt      *time.Time `json:"ended_at,omitempty"`
	EndReason    string     `json:"end_reason,omitempty"`
	Open         bool       `json:"open"`
}

// ToShiftResponse converts a domain Shift
func ToShiftResponse(s *staff.Shift) ShiftResponse {
	return ShiftResponse{
		ID:           s.ID,
		ShopID:       s.ShopID,
		CashierID:    s.CashierID,
		BusinessDate: s.BusinessDate.Format(time.DateOnly),
		StartedAt:    s.StartedAt,
		EndedAt:      s.EndedAt,
		EndReason:    s.EndReason,
		Open:         s.IsOpen(),
	}
}

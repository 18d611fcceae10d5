package staff

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shoppos/backend/internal/domain/shared"
)

// Role is the capability level of a shop user
type Role string

const (
	RoleOwner   Role = "owner"
	RoleAdmin   Role = "admin"
	RoleCashier Role = "cashier"
)

// IsValid checks if the role is known
func (r Role) IsValid() bool {
	switch r {
	case RoleOwner, RoleAdmin, RoleCashier:
		return true
	}
	return false
}

// CanManageFloat reports whether the role may set drawer floats and settle drawers
func (r Role) CanManageFloat() bool {
	return r == RoleOwner || r == RoleAdmin
}

// CanReconcile reports whether the role may run the end-of-day workflow
func (r Role) CanReconcile() bool {
	return r == RoleOwner || r == RoleAdmin
}

// Cashier is a member of a shop's till roster. Active cashiers get a drawer
// when the business day opens.
type Cashier struct {
	shared.ShopAggregateRoot
	UserID      uuid.UUID
	DisplayName string
	Role        Role
	Active      bool
}

// NewCashier creates an active roster entry
func NewCashier(shopID, userID uuid.UUID, displayName string, role Role) (*Cashier, error) {
	if shopID == uuid.Nil || userID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "shop ID and user ID are required")
	}
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "display name cannot be empty")
	}
	if !role.IsValid() {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "invalid role")
	}
	return &Cashier{
		ShopAggregateRoot: shared.NewShopAggregateRoot(shopID),
		UserID:            userID,
		DisplayName:       displayName,
		Role:              role,
		Active:            true,
	}, nil
}

// Deactivate removes the cashier from drawer provisioning
func (c *Cashier) Deactivate(now time.Time) {
	c.Active = false
	c.Touch(now)
}

// Activate puts the cashier back on the roster
func (c *Cashier) Activate(now time.Time) {
	c.Active = true
	c.Touch(now)
}

// CashierRepository persists the roster
type CashierRepository interface {
	Save(ctx context.Context, cashier *Cashier) error
	FindByUser(ctx context.Context, shopID, userID uuid.UUID) (*Cashier, error)
	ListActive(ctx context.Context, shopID uuid.UUID) ([]Cashier, error)
	List(ctx context.Context, shopID uuid.UUID) ([]Cashier, error)
	// ShopIDs returns every shop that has at least one active cashier
	ShopIDs(ctx context.Context) ([]uuid.UUID, error)
}

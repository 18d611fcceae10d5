package staff

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shoppos/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoleCapabilities(t *testing.T) {
	assert.True(t, RoleOwner.CanManageFloat())
	assert.True(t, RoleAdmin.CanReconcile())
	assert.False(t, RoleCashier.CanManageFloat())
	assert.False(t, RoleCashier.CanReconcile())
	assert.False(t, Role("founder").IsValid())
}

func TestNewCashier(t *testing.T) {
	c, err := NewCashier(uuid.New(), uuid.New(), "  Tendai ", RoleCashier)
	require.NoError(t, err)
	assert.Equal(t, "Tendai", c.DisplayName)
	assert.True(t, c.Active)

	later := c.UpdatedAt.Add(time.Minute)
	c.Deactivate(later)
	assert.False(t, c.Active)
	assert.Equal(t, later, c.UpdatedAt)
	// only a versioned save moves the version
	assert.Equal(t, 1, c.Version)

	c.Activate(later)
	assert.True(t, c.Active)

	_, err = NewCashier(uuid.New(), uuid.New(), "", RoleCashier)
	assert.True(t, errors.Is(err, shared.ErrInvalidInput))
}

func TestShift_End(t *testing.T) {
	now := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	s, err := StartShift(uuid.New(), uuid.New(), now, now)
	require.NoError(t, err)
	assert.True(t, s.IsOpen())

	require.NoError(t, s.End("business day closed", now.Add(9*time.Hour)))
	assert.False(t, s.IsOpen())

	err = s.End("again", now.Add(10*time.Hour))
	assert.True(t, errors.Is(err, shared.ErrInvalidTransition))
}

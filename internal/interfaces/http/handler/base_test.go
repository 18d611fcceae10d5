package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	apptill "github.com/shoppos/backend/internal/application/till"
	"github.com/shoppos/backend/internal/domain/shared"
	"github.com/shoppos/backend/internal/domain/staff"
	"github.com/shoppos/backend/internal/interfaces/http/dto"
	"github.com/shoppos/backend/internal/interfaces/http/middleware"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newContext(target string) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, target, nil)
	c.Set(middleware.RequestIDKey, "req-1")
	return c, w
}

func errorInfo(t *testing.T, w *httptest.ResponseRecorder) *dto.ErrorInfo {
	t.Helper()
	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.Error)
	return resp.Error
}

func TestHandleError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		status   int
		wantCode string
	}{
		{"not found", shared.NewDomainError(shared.CodeNotFound, "day not found"), http.StatusNotFound, shared.CodeNotFound},
		{"wrapped transition", fmt.Errorf("close: %w", shared.NewDomainError(shared.CodeInvalidTransition, "day is CLOSED")), http.StatusConflict, shared.CodeInvalidTransition},
		{"counts pending", shared.NewDomainError(shared.CodeCountsPending, "2 sheets pending"), http.StatusConflict, shared.CodeCountsPending},
		{"archive failure", shared.NewDomainError(shared.CodeArchiveFailure, "archive failed"), http.StatusInternalServerError, shared.CodeArchiveFailure},
		{"plain error", errors.New("connection reset"), http.StatusInternalServerError, dto.ErrCodeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &BaseHandler{}
			c, w := newContext("/")
			h.HandleError(c, tt.err)

			assert.Equal(t, tt.status, w.Code)
			info := errorInfo(t, w)
			assert.Equal(t, tt.wantCode, info.Code)
			assert.Equal(t, "req-1", info.RequestID)
			assert.NotContains(t, info.Message, "connection reset")
		})
	}
}

func TestHandleDayError(t *testing.T) {
	h := &BaseHandler{}
	c, w := newContext("/")
	h.handleDayError(c, shared.NewDomainError(shared.CodeInvalidTransition, "day is already closed"), "CLOSED")

	assert.Equal(t, http.StatusConflict, w.Code)
	info := errorInfo(t, w)
	assert.Equal(t, "CLOSED", info.DayStatus)

	c, w = newContext("/")
	h.handleDayError(c, errors.New("boom"), "OPEN")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Empty(t, errorInfo(t, w).DayStatus)
}

func TestDateQuery(t *testing.T) {
	h := &BaseHandler{}

	c, _ := newContext("/?date=2026-05-04")
	d, ok := h.dateQuery(c, "date")
	require.True(t, ok)
	require.NotNil(t, d)
	assert.Equal(t, "2026-05-04", d.Format("2006-01-02"))

	c, _ = newContext("/")
	d, ok = h.dateQuery(c, "date")
	assert.True(t, ok)
	assert.Nil(t, d)

	c, w := newContext("/?date=04/05/2026")
	_, ok = h.dateQuery(c, "date")
	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOwnOrManager(t *testing.T) {
	h := &BaseHandler{}
	self := uuid.New()

	c, _ := newContext("/")
	assert.True(t, h.ownOrManager(c, actorOf(self, staff.RoleCashier), self))

	c, _ = newContext("/")
	assert.True(t, h.ownOrManager(c, actorOf(uuid.New(), staff.RoleAdmin), self))

	c, w := newContext("/")
	assert.False(t, h.ownOrManager(c, actorOf(uuid.New(), staff.RoleCashier), self))
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestCurrencyAmounts(t *testing.T) {
	out, err := currencyAmounts(map[string]decimal.Decimal{"usd": dec("10"), "ZWG": dec("265")})
	require.NoError(t, err)
	assert.Len(t, out, 2)

	_, err = currencyAmounts(map[string]decimal.Decimal{"EUR": dec("1")})
	assert.Equal(t, shared.CodeInvalidInput, shared.CodeOf(err))
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func actorOf(id uuid.UUID, role staff.Role) apptill.Actor {
	return apptill.Actor{UserID: id, Role: role}
}

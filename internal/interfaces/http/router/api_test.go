package router

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	appfx "github.com/shoppos/backend/internal/application/fx"
	appstaff "github.com/shoppos/backend/internal/application/staff"
	apptill "github.com/shoppos/backend/internal/application/till"
	"github.com/shoppos/backend/internal/domain/staff"
	"github.com/shoppos/backend/internal/infrastructure/auth"
	"github.com/shoppos/backend/internal/infrastructure/config"
	"github.com/shoppos/backend/internal/infrastructure/persistence"
	"github.com/shoppos/backend/internal/interfaces/http/handler"
	"github.com/shoppos/backend/internal/interfaces/http/middleware"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// api serves the full till API over an in-memory SQLite ledger
type api struct {
	t      *testing.T
	engine *gin.Engine
	jwt    *auth.JWTService
	shop   uuid.UUID
	owner  uuid.UUID
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code      string `json:"code"`
		DayStatus string `json:"day_status"`
		Details   []struct {
			Field string `json:"field"`
		} `json:"details"`
	} `json:"error"`
}

func newAPI(t *testing.T) *api {
	t.Helper()
	require.NoError(t, middleware.SetupValidator())

	db, err := persistence.NewDatabase(&config.DatabaseConfig{Driver: "sqlite", SQLitePath: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate())
	t.Cleanup(func() { _ = db.Close() })

	now := time.Date(2026, 5, 4, 9, 30, 0, 0, time.UTC)
	cfg := apptill.Config{
		Location:       time.UTC,
		BalanceEpsilon: decimal.RequireFromString("0.005"),
		Now:            func() time.Time { return now },
	}
	scope := persistence.NewGormTransactionScope(db.DB, time.Second)
	days := apptill.NewBusinessDayService(scope, nil, cfg)
	rates := appfx.NewExchangeRateService(persistence.NewGormRateRepository(db.DB))
	cashierRepo := persistence.NewGormCashierRepository(db.DB)

	h := Handlers{
		System:         handler.NewSystemHandler("pos-backend", "test", nil),
		BusinessDay:    handler.NewBusinessDayHandler(days),
		Drawer:         handler.NewDrawerHandler(apptill.NewDrawerService(scope, days, nil, cfg)),
		CountSheet:     handler.NewCountSheetHandler(apptill.NewCountSheetService(scope, days, nil, cfg)),
		Reconciliation: handler.NewReconciliationHandler(apptill.NewReconciliationService(scope, days, rates, nil, cfg), days),
		Sale:           handler.NewSaleHandler(apptill.NewSaleService(scope, days, nil, cfg), nil),
		ExchangeRate:   handler.NewExchangeRateHandler(rates),
		Staff: handler.NewStaffHandler(
			appstaff.NewCashierService(cashierRepo),
			appstaff.NewShiftService(persistence.NewGormShiftRepository(db.DB), cashierRepo, days),
		),
	}

	jwtSvc := auth.NewJWTService(config.JWTConfig{
		Secret:                "test-secret-key-at-least-32-chars",
		AccessTokenExpiration: time.Hour,
		Issuer:                "pos-test",
	})
	engine := gin.New()
	engine.Use(middleware.RequestID())
	Mount(NewRouter(engine, WithShopMiddleware(middleware.JWTAuth(jwtSvc, zap.NewNop()), middleware.ShopScope())), h)

	return &api{t: t, engine: engine, jwt: jwtSvc, shop: uuid.New(), owner: uuid.New()}
}

func (a *api) token(userID uuid.UUID, role staff.Role) string {
	a.t.Helper()
	tok, _, err := a.jwt.GenerateToken(auth.TokenInput{ShopID: a.shop, UserID: userID, Role: role})
	require.NoError(a.t, err)
	return tok
}

func (a *api) call(method, path, token string, body any) (int, envelope) {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, "/api/v1/shops/"+a.shop.String()+path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.engine.ServeHTTP(w, req)

	var env envelope
	require.NoError(a.t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w.Code, env
}

func decode[T any](t *testing.T, env envelope) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(env.Data, &out))
	return out
}

func TestAPI_EndOfDay(t *testing.T) {
	a := newAPI(t)
	owner := a.token(a.owner, staff.RoleOwner)
	cashierID := uuid.New()
	cashier := a.token(cashierID, staff.RoleCashier)

	status, _ := a.call(http.MethodPost, "/cashiers", owner, map[string]any{
		"user_id": cashierID, "display_name": "Tendai", "role": "cashier",
	})
	require.Equal(t, http.StatusCreated, status)

	status, env := a.call(http.MethodPost, "/day/open", owner, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "OPEN", decode[apptill.BusinessDayResponse](t, env).Status)

	status, _ = a.call(http.MethodPut, "/drawers/"+cashierID.String()+"/float", owner, map[string]any{
		"amounts": map[string]string{"USD": "50.00"},
	})
	require.Equal(t, http.StatusOK, status)

	sale := map[string]any{
		"reference": "R-1",
		"payments":  []map[string]string{{"tender": "cash", "currency": "USD", "amount": "25.00"}},
	}
	status, env = a.call(http.MethodPost, "/sales", cashier, sale)
	require.Equal(t, http.StatusCreated, status)
	assert.False(t, decode[apptill.SaleResponse](t, env).Duplicate)

	status, env = a.call(http.MethodPost, "/sales", cashier, sale)
	require.Equal(t, http.StatusOK, status)
	assert.True(t, decode[apptill.SaleResponse](t, env).Duplicate)

	status, _ = a.call(http.MethodPost, "/refunds", cashier, map[string]any{
		"reference": "R-2",
		"payments":  []map[string]string{{"tender": "cash", "currency": "USD", "amount": "10.00"}},
	})
	require.Equal(t, http.StatusCreated, status)

	status, env = a.call(http.MethodGet, "/drawers/"+cashierID.String(), cashier, nil)
	require.Equal(t, http.StatusOK, status)
	drawer := decode[apptill.DrawerResponse](t, env)
	assert.True(t, decimal.RequireFromString("65").Equal(drawer.ExpectedCash["USD"]), drawer.ExpectedCash["USD"].String())

	status, env = a.call(http.MethodPut, "/count-sheets/"+cashierID.String(), cashier, map[string]any{
		"counts": map[string]int{"USD_50": 1, "USD_10": 1, "USD_5": 1},
	})
	require.Equal(t, http.StatusOK, status)
	sheet := decode[apptill.CountSheetResponse](t, env)
	assert.True(t, decimal.RequireFromString("65").Equal(sheet.CashTotal["USD"]))

	status, _ = a.call(http.MethodPost, "/count-sheets/"+cashierID.String()+"/complete", cashier, nil)
	require.Equal(t, http.StatusOK, status)

	status, env = a.call(http.MethodGet, "/reconciliation/summary", owner, nil)
	require.Equal(t, http.StatusOK, status)
	summary := decode[apptill.SummaryResponse](t, env)
	assert.Equal(t, 1, summary.SubmittedSheets)
	assert.Zero(t, summary.PendingSheets)

	status, env = a.call(http.MethodPost, "/reconciliation/complete", owner, nil)
	assert.Equal(t, http.StatusConflict, status)
	require.NotNil(t, env.Error)
	assert.Equal(t, "INVALID_TRANSITION", env.Error.Code)
	assert.Equal(t, "OPEN", env.Error.DayStatus)

	status, env = a.call(http.MethodPost, "/reconciliation/start", owner, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "IN_PROGRESS", decode[apptill.SessionResponse](t, env).Status)

	status, env = a.call(http.MethodPost, "/reconciliation/complete", owner, nil)
	require.Equal(t, http.StatusOK, status)
	done := decode[apptill.CompleteReconciliationResponse](t, env)
	assert.Equal(t, "CLOSED", done.Day.Status)
	assert.Equal(t, "COMPLETED", done.Session.Status)
	require.Len(t, done.Archives, 1)
	assert.Equal(t, "BALANCED", done.Archives[0].Status)

	status, env = a.call(http.MethodPost, "/day/close", owner, nil)
	assert.Equal(t, http.StatusConflict, status)
	require.NotNil(t, env.Error)
	assert.Equal(t, "INVALID_TRANSITION", env.Error.Code)
	assert.Equal(t, "CLOSED", env.Error.DayStatus)

	status, env = a.call(http.MethodGet, "/archives?cashier_id="+cashierID.String(), owner, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, decode[[]apptill.ArchiveResponse](t, env), 1)

	status, env = a.call(http.MethodPost, "/days/2026-05-04/reconciled", owner, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "RECONCILED", decode[apptill.SessionResponse](t, env).Status)
}

func TestAPI_PendingCountsBlockCompletion(t *testing.T) {
	a := newAPI(t)
	owner := a.token(a.owner, staff.RoleOwner)
	cashierID := uuid.New()

	status, _ := a.call(http.MethodPost, "/day/open", owner, nil)
	require.Equal(t, http.StatusOK, status)
	status, _ = a.call(http.MethodPut, "/count-sheets/"+cashierID.String(), a.token(cashierID, staff.RoleCashier), map[string]any{
		"counts": map[string]int{"USD_20": 1},
	})
	require.Equal(t, http.StatusOK, status)
	status, _ = a.call(http.MethodPost, "/reconciliation/start", owner, nil)
	require.Equal(t, http.StatusOK, status)

	status, env := a.call(http.MethodPost, "/reconciliation/complete", owner, nil)
	assert.Equal(t, http.StatusConflict, status)
	require.NotNil(t, env.Error)
	assert.Equal(t, "COUNTS_PENDING", env.Error.Code)
	assert.Equal(t, "OPEN", env.Error.DayStatus)

	status, env = a.call(http.MethodPost, "/reconciliation/complete?force=true", owner, nil)
	require.Equal(t, http.StatusOK, status)
	done := decode[apptill.CompleteReconciliationResponse](t, env)
	assert.True(t, done.Session.Forced)
	assert.Equal(t, "CLOSED", done.Day.Status)
}

func TestAPI_Authorization(t *testing.T) {
	a := newAPI(t)
	cashierID := uuid.New()
	cashier := a.token(cashierID, staff.RoleCashier)

	status, env := a.call(http.MethodPost, "/day/open", cashier, nil)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "FORBIDDEN", env.Error.Code)

	status, _ = a.call(http.MethodGet, "/count-sheets/"+uuid.New().String(), cashier, nil)
	assert.Equal(t, http.StatusForbidden, status, "cashiers only see their own sheet")

	status, _ = a.call(http.MethodGet, "/day", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	other, _, err := a.jwt.GenerateToken(auth.TokenInput{ShopID: uuid.New(), UserID: cashierID, Role: staff.RoleOwner})
	require.NoError(t, err)
	status, _ = a.call(http.MethodGet, "/day", other, nil)
	assert.Equal(t, http.StatusForbidden, status)
}

func TestAPI_Validation(t *testing.T) {
	a := newAPI(t)
	owner := a.token(a.owner, staff.RoleOwner)
	status, _ := a.call(http.MethodPost, "/day/open", owner, nil)
	require.Equal(t, http.StatusOK, status)

	status, env := a.call(http.MethodPost, "/sales", owner, map[string]any{
		"reference": "V-1",
		"payments":  []map[string]string{{"tender": "cheque", "currency": "EUR", "amount": "1"}},
	})
	assert.Equal(t, http.StatusBadRequest, status)
	require.NotNil(t, env.Error)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
	fields := map[string]bool{}
	for _, d := range env.Error.Details {
		fields[d.Field] = true
	}
	assert.True(t, fields["tender"])
	assert.True(t, fields["currency"])

	status, env = a.call(http.MethodPost, "/sales", owner, map[string]any{
		"reference": "V-2",
		"payments":  []map[string]string{{"tender": "cash", "currency": "USD", "amount": "-5"}},
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "INVALID_AMOUNT", env.Error.Code)

	status, _ = a.call(http.MethodGet, "/reconciliation/summary?date=yesterday", owner, nil)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestAPI_ExchangeRatesAndDisplaySummary(t *testing.T) {
	a := newAPI(t)
	owner := a.token(a.owner, staff.RoleOwner)

	status, _ := a.call(http.MethodPost, "/exchange-rates", owner, map[string]any{
		"currency": "ZIG", "per_usd": "26.5", "effective_date": "2026-05-01",
	})
	require.Equal(t, http.StatusCreated, status)

	status, env := a.call(http.MethodGet, "/exchange-rates/convert?amount=10&from=USD&to=ZIG&date=2026-05-04", owner, nil)
	require.Equal(t, http.StatusOK, status)
	quote := decode[appfx.ConversionResponse](t, env)
	assert.True(t, decimal.RequireFromString("265").Equal(quote.Converted), quote.Converted.String())

	cashierID := uuid.New()
	cashier := a.token(cashierID, staff.RoleCashier)
	status, _ = a.call(http.MethodPost, "/day/open", owner, nil)
	require.Equal(t, http.StatusOK, status)
	status, _ = a.call(http.MethodPut, "/count-sheets/"+cashierID.String(), cashier, map[string]any{
		"counts": map[string]int{"USD_20": 1},
	})
	require.Equal(t, http.StatusOK, status)
	status, _ = a.call(http.MethodPost, "/count-sheets/"+cashierID.String()+"/complete", cashier, nil)
	require.Equal(t, http.StatusOK, status)

	status, env = a.call(http.MethodGet, "/reconciliation/summary?display=ZIG", owner, nil)
	require.Equal(t, http.StatusOK, status)
	summary := decode[apptill.SummaryResponse](t, env)
	require.NotNil(t, summary.Display)
	assert.True(t, decimal.RequireFromString("530").Equal(summary.Display.Counted), summary.Display.Counted.String())

	status, env = a.call(http.MethodGet, "/reconciliation/summary?display=RAND", owner, nil)
	require.Equal(t, http.StatusOK, status)
	summary = decode[apptill.SummaryResponse](t, env)
	assert.Nil(t, summary.Display)
	assert.NotEmpty(t, summary.DisplayWarning, "no RAND rate recorded")
}

func TestAPI_SystemRoutesArePublic(t *testing.T) {
	a := newAPI(t)
	w := httptest.NewRecorder()
	a.engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/system/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

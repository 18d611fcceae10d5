package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appfx "github.com/shoppos/backend/internal/application/fx"
	apptill "github.com/shoppos/backend/internal/application/till"
	"github.com/shoppos/backend/internal/domain/shared"
	"github.com/shoppos/backend/internal/domain/staff"
	"github.com/shoppos/backend/internal/infrastructure/auth"
	"github.com/shoppos/backend/internal/infrastructure/config"
	"github.com/shoppos/backend/internal/infrastructure/persistence"
)

type fakeLinker struct {
	keys []string
}

func (f *fakeLinker) DownloadURL(_ context.Context, key string, expiresIn time.Duration) (string, time.Time, error) {
	f.keys = append(f.keys, key)
	return "https://s3.test/" + key + "?ttl=" + expiresIn.String(), time.Time{}, nil
}

type harness struct {
	t     *testing.T
	deps  Deps
	svc   *Services
	shop  uuid.UUID
	user  uuid.UUID
	opens int
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db, err := persistence.NewDatabase(&config.DatabaseConfig{Driver: "sqlite", SQLitePath: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate())
	t.Cleanup(func() { _ = db.Close() })

	now := time.Date(2026, 5, 4, 18, 0, 0, 0, time.UTC)
	cfg := apptill.Config{
		Location:       time.UTC,
		BalanceEpsilon: decimal.RequireFromString("0.005"),
		Now:            func() time.Time { return now },
	}
	scope := persistence.NewGormTransactionScope(db.DB, time.Second)
	days := apptill.NewBusinessDayService(scope, nil, cfg)
	svc := &Services{
		Days:  days,
		Recon: apptill.NewReconciliationService(scope, days, appfx.NewExchangeRateService(persistence.NewGormRateRepository(db.DB)), nil, cfg),
	}

	h := &harness{t: t, svc: svc, shop: uuid.New(), user: uuid.New()}
	h.deps = Deps{
		Open: func(context.Context) (*Services, func(), error) {
			h.opens++
			return svc, func() {}, nil
		},
		Tokens: func() (*auth.JWTService, error) {
			return auth.NewJWTService(config.JWTConfig{
				Secret:                "cli-test-secret-at-least-32-chars",
				AccessTokenExpiration: time.Hour,
				Issuer:                "pos-test",
			}), nil
		},
	}
	return h
}

func (h *harness) run(args ...string) (string, error) {
	h.t.Helper()
	cmd := NewRootCommand(h.deps, "test")
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func (h *harness) as(args ...string) []string {
	return append(args, "--shop", h.shop.String(), "--user", h.user.String())
}

func TestDayCommands(t *testing.T) {
	h := newHarness(t)

	out, err := h.run(h.as("status")...)
	require.NoError(t, err)
	assert.Contains(t, out, "2026-05-04 CLOSED")
	assert.Contains(t, out, "NOT_STARTED")

	out, err = h.run(h.as("open", "--notes", "morning")...)
	require.NoError(t, err)
	assert.Equal(t, "2026-05-04 OPEN\n", out)

	out, err = h.run(h.as("status", "--json")...)
	require.NoError(t, err)
	var status struct {
		Day     apptill.BusinessDayResponse `json:"day"`
		Session apptill.SessionResponse     `json:"session"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &status))
	assert.Equal(t, "OPEN", status.Day.Status)
	assert.Equal(t, "morning", status.Day.OpenNotes)

	_, err = h.run(h.as("complete")...)
	require.Error(t, err)
	assert.Equal(t, shared.CodeInvalidTransition, shared.CodeOf(err))

	out, err = h.run(h.as("start")...)
	require.NoError(t, err)
	assert.Equal(t, "2026-05-04 IN_PROGRESS\n", out)

	out, err = h.run(h.as("complete")...)
	require.NoError(t, err)
	assert.Contains(t, out, "Day        2026-05-04 CLOSED")
	assert.Contains(t, out, "Session    COMPLETED")
	assert.Contains(t, out, "No archives")

	_, err = h.run(h.as("close")...)
	require.Error(t, err)
	assert.Equal(t, shared.CodeInvalidTransition, shared.CodeOf(err))

	out, err = h.run(h.as("archives", "--date", "2026-05-04")...)
	require.NoError(t, err)
	assert.Equal(t, "No archives\n", out)
}

func TestCommandArguments(t *testing.T) {
	h := newHarness(t)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"missing shop", []string{"status"}, "--shop is required"},
		{"bad shop", []string{"status", "--shop", "nope"}, "invalid --shop"},
		{"open needs user", []string{"open", "--shop", h.shop.String()}, "--user is required"},
		{"bad date", []string{"archives", "--shop", h.shop.String(), "--date", "04/05/2026"}, "want YYYY-MM-DD"},
		{"bad role", h.as("token", "--role", "manager"), "invalid --role"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.run(tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
	assert.Zero(t, h.opens, "argument errors must not open the ledger")
}

func TestTokenCommand(t *testing.T) {
	h := newHarness(t)

	out, err := h.run(h.as("token", "--role", "cashier")...)
	require.NoError(t, err)

	tokens, err := h.deps.Tokens()
	require.NoError(t, err)
	claims, err := tokens.ValidateToken(strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, h.shop.String(), claims.ShopID)
	assert.Equal(t, h.user.String(), claims.UserID)
	assert.Equal(t, staff.RoleCashier, claims.StaffRole())
	assert.Zero(t, h.opens)
}

func TestReportCommand(t *testing.T) {
	h := newHarness(t)

	_, err := h.run("report", "--shop", h.shop.String())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "object storage is not enabled")

	links := &fakeLinker{}
	h.svc.Links = links
	out, err := h.run("report", "--shop", h.shop.String(), "--date", "2026-05-03", "--ttl", "5m")
	require.NoError(t, err)

	prefix := "eod/" + h.shop.String() + "/2026-05-03/"
	assert.Equal(t, []string{prefix + "z-report.pdf", prefix + "archive.json"}, links.keys)
	assert.Contains(t, out, "https://s3.test/"+prefix+"z-report.pdf?ttl=5m0s")
}

package till_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	apptill "github.com/shoppos/backend/internal/application/till"
	"github.com/shoppos/backend/internal/domain/sales"
	"github.com/shoppos/backend/internal/domain/shared"
	"github.com/shoppos/backend/internal/domain/shared/valueobject"
	"github.com/shoppos/backend/internal/domain/staff"
	"github.com/shoppos/backend/internal/domain/till"
	"github.com/shoppos/backend/internal/infrastructure/config"
	"github.com/shoppos/backend/internal/infrastructure/persistence"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// workflow wires the till services onto an in-memory SQLite ledger
type workflow struct {
	t       *testing.T
	ctx     context.Context
	db      *persistence.Database
	scope   apptill.TransactionScope
	cfg     apptill.Config
	now     time.Time
	days    *apptill.BusinessDayService
	drawers *apptill.DrawerService
	sales   *apptill.SaleService
	sheets  *apptill.CountSheetService
	recon   *apptill.ReconciliationService

	shop    uuid.UUID
	owner   apptill.Actor
	cashier apptill.Actor
}

func newWorkflow(t *testing.T) *workflow {
	t.Helper()
	db, err := persistence.NewDatabase(&config.DatabaseConfig{Driver: "sqlite", SQLitePath: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate())
	t.Cleanup(func() { _ = db.Close() })

	w := &workflow{
		t:     t,
		ctx:   context.Background(),
		db:    db,
		now:   time.Date(2026, 5, 4, 9, 30, 0, 0, time.UTC),
		shop:  uuid.New(),
		owner: apptill.Actor{UserID: uuid.New(), Role: staff.RoleOwner},
	}
	w.cfg = apptill.Config{
		Location:       time.UTC,
		BalanceEpsilon: decimal.RequireFromString("0.005"),
		Now:            func() time.Time { return w.now },
	}
	w.wire(persistence.NewGormTransactionScope(db.DB, time.Second))

	cashier, err := staff.NewCashier(w.shop, uuid.New(), "Tendai", staff.RoleCashier)
	require.NoError(t, err)
	require.NoError(t, persistence.NewGormCashierRepository(db.DB).Save(w.ctx, cashier))
	w.cashier = apptill.Actor{UserID: cashier.UserID, Role: staff.RoleCashier}
	return w
}

// wire (re)builds the services on top of scope
func (w *workflow) wire(scope apptill.TransactionScope) {
	w.scope = scope
	w.days = apptill.NewBusinessDayService(scope, nil, w.cfg)
	w.drawers = apptill.NewDrawerService(scope, w.days, nil, w.cfg)
	w.sales = apptill.NewSaleService(scope, w.days, nil, w.cfg)
	w.sheets = apptill.NewCountSheetService(scope, w.days, nil, w.cfg)
	w.recon = apptill.NewReconciliationService(scope, w.days, nil, nil, w.cfg)
}

func (w *workflow) openWithFloat(usd string) {
	w.t.Helper()
	_, err := w.days.Open(w.ctx, apptill.OpenDayRequest{ShopID: w.shop, By: w.owner.UserID})
	require.NoError(w.t, err)
	_, err = w.drawers.SetFloat(w.ctx, apptill.SetFloatRequest{
		ShopID:    w.shop,
		CashierID: w.cashier.UserID,
		Actor:     w.owner,
		Amounts:   map[valueobject.Currency]decimal.Decimal{valueobject.USD: dec(usd)},
	})
	require.NoError(w.t, err)
}

func (w *workflow) sell(ref string, kind sales.Kind, usdCash string) *apptill.SaleResponse {
	w.t.Helper()
	req := apptill.RecordSaleRequest{
		ShopID:    w.shop,
		CashierID: w.cashier.UserID,
		Reference: ref,
		Payments: []sales.Payment{
			{Tender: valueobject.TenderCash, Currency: valueobject.USD, Amount: dec(usdCash)},
		},
	}
	var resp *apptill.SaleResponse
	var err error
	if kind == sales.KindRefund {
		resp, err = w.sales.RecordRefund(w.ctx, req)
	} else {
		resp, err = w.sales.RecordSale(w.ctx, req)
	}
	require.NoError(w.t, err)
	return resp
}

func (w *workflow) drawer() *apptill.DrawerResponse {
	w.t.Helper()
	d, err := w.drawers.Get(w.ctx, w.shop, w.cashier.UserID, nil)
	require.NoError(w.t, err)
	return d
}

func (w *workflow) count(counts map[string]int) *apptill.CountSheetResponse {
	w.t.Helper()
	_, err := w.sheets.Save(w.ctx, apptill.SaveCountSheetRequest{
		ShopID:    w.shop,
		CashierID: w.cashier.UserID,
		Counts:    counts,
	})
	require.NoError(w.t, err)
	sheet, err := w.sheets.Complete(w.ctx, w.shop, w.cashier.UserID, w.cashier)
	require.NoError(w.t, err)
	return sheet
}

func (w *workflow) start() {
	w.t.Helper()
	_, err := w.recon.Start(w.ctx, w.shop, w.owner)
	require.NoError(w.t, err)
}

func (w *workflow) dayStatus() string {
	w.t.Helper()
	day, err := w.days.Get(w.ctx, w.shop, w.now)
	require.NoError(w.t, err)
	return day.Status
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertAmount(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...any) {
	t.Helper()
	assert.True(t, dec(want).Equal(got), append([]any{"want %s, got %s", want, got.String()}, msgAndArgs...)...)
}

func TestEndOfDay_SaleUpdatesDrawer(t *testing.T) {
	w := newWorkflow(t)
	w.openWithFloat("50.00")

	w.sell("A-1", sales.KindSale, "25.00")

	d := w.drawer()
	assertAmount(t, "25.00", d.Current["cash"]["USD"])
	assertAmount(t, "25.00", d.SessionSales["cash"]["USD"])
	assertAmount(t, "75.00", d.ExpectedCash["USD"])
	assert.Equal(t, till.DrawerStatusActive.String(), d.Status)
}

func TestEndOfDay_RefundLowersDrawer(t *testing.T) {
	w := newWorkflow(t)
	w.openWithFloat("50.00")
	w.sell("B-1", sales.KindSale, "25.00")

	w.sell("B-2", sales.KindRefund, "10.00")

	d := w.drawer()
	assertAmount(t, "15.00", d.Current["cash"]["USD"])
	assertAmount(t, "65.00", d.ExpectedCash["USD"])
}

func TestEndOfDay_BalancedCountArchivesBalanced(t *testing.T) {
	w := newWorkflow(t)
	w.openWithFloat("50.00")
	w.sell("C-1", sales.KindSale, "25.00")
	w.sell("C-2", sales.KindRefund, "10.00")

	sheet := w.count(map[string]int{"USD_50": 1, "USD_10": 1, "USD_5": 1})
	assertAmount(t, "65.00", sheet.CashTotal["USD"])
	assertAmount(t, "65.00", sheet.Expected["cash"]["USD"])
	assertAmount(t, "0.00", sheet.Variance["cash"]["USD"])

	w.start()
	result, err := w.recon.Complete(w.ctx, apptill.CompleteReconciliationRequest{ShopID: w.shop, Actor: w.owner})
	require.NoError(t, err)
	require.Len(t, result.Archives, 1)
	assert.Equal(t, string(till.ArchiveStatusBalanced), result.Archives[0].Status)
	assert.Equal(t, till.SessionStatusCompleted.String(), result.Session.Status)
	assert.Equal(t, till.DayStatusClosed.String(), result.Day.Status)
}

func TestEndOfDay_ShortCountArchivesShortage(t *testing.T) {
	w := newWorkflow(t)
	w.openWithFloat("50.00")
	w.sell("D-1", sales.KindSale, "25.00")
	w.sell("D-2", sales.KindRefund, "10.00")

	sheet := w.count(map[string]int{"USD_50": 1})
	assertAmount(t, "-15.00", sheet.Variance["cash"]["USD"])

	w.start()
	result, err := w.recon.Complete(w.ctx, apptill.CompleteReconciliationRequest{ShopID: w.shop, Actor: w.owner})
	require.NoError(t, err)
	require.Len(t, result.Archives, 1)
	assert.Equal(t, string(till.ArchiveStatusShortage), result.Archives[0].Status)

	archives, err := w.recon.ArchivesForDay(w.ctx, w.shop, w.now)
	require.NoError(t, err)
	require.Len(t, archives, 1)
	for _, line := range archives[0].Lines {
		if line.Currency == "USD" {
			assertAmount(t, "-15.00", line.Variance)
			assert.Equal(t, string(till.ArchiveStatusShortage), line.Status)
		}
	}
}

func TestEndOfDay_CloseOnClosedDayIsRejected(t *testing.T) {
	w := newWorkflow(t)

	before, err := w.days.CurrentFor(w.ctx, w.shop)
	require.NoError(t, err)
	require.Equal(t, till.DayStatusClosed.String(), before.Status)

	_, err = w.days.Close(w.ctx, apptill.CloseDayRequest{ShopID: w.shop, By: w.owner.UserID})
	require.Error(t, err)
	assert.Equal(t, shared.CodeInvalidTransition, shared.CodeOf(err))

	after, err := w.days.Get(w.ctx, w.shop, w.now)
	require.NoError(t, err)
	assert.Equal(t, before.Status, after.Status)
	assert.Equal(t, before.Version, after.Version)
	assert.Nil(t, after.ClosedAt)
}

// archiveFailingScope delegates to a real scope but fails every archive write
type archiveFailingScope struct {
	inner apptill.TransactionScope
}

func (s archiveFailingScope) Execute(ctx context.Context, fn func(repos apptill.TransactionalRepositories) error) error {
	return s.inner.Execute(ctx, func(repos apptill.TransactionalRepositories) error {
		return fn(archiveFailingRepos{repos})
	})
}

func (s archiveFailingScope) ExecuteReadOnly(ctx context.Context, fn func(repos apptill.TransactionalRepositories) error) error {
	return s.inner.ExecuteReadOnly(ctx, func(repos apptill.TransactionalRepositories) error {
		return fn(archiveFailingRepos{repos})
	})
}

type archiveFailingRepos struct {
	apptill.TransactionalRepositories
}

func (r archiveFailingRepos) ArchiveRepo() till.ArchiveRepository {
	return failingArchives{r.TransactionalRepositories.ArchiveRepo()}
}

type failingArchives struct {
	till.ArchiveRepository
}

func (failingArchives) SnapshotAll(context.Context, []*till.CountArchive) error {
	return errors.New("archive storage unavailable")
}

func TestEndOfDay_ArchiveFailureLeavesDayOpen(t *testing.T) {
	w := newWorkflow(t)
	w.openWithFloat("50.00")
	w.sell("F-1", sales.KindSale, "25.00")
	w.sell("F-2", sales.KindRefund, "10.00")
	w.count(map[string]int{"USD_50": 1, "USD_10": 1, "USD_5": 1})

	w.start()
	w.wire(archiveFailingScope{inner: w.scope})

	_, err := w.recon.Complete(w.ctx, apptill.CompleteReconciliationRequest{ShopID: w.shop, Actor: w.owner})
	require.Error(t, err)
	assert.Equal(t, shared.CodeArchiveFailure, shared.CodeOf(err))

	assert.Equal(t, till.DayStatusOpen.String(), w.dayStatus())

	list, err := w.sales.ListSales(w.ctx, w.shop, nil)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	archives, err := w.recon.ArchivesForDay(w.ctx, w.shop, w.now)
	require.NoError(t, err)
	assert.Empty(t, archives)

	session, err := w.recon.Get(w.ctx, w.shop, nil)
	require.NoError(t, err)
	assert.Equal(t, till.SessionStatusInProgress.String(), session.Status)

	d := w.drawer()
	assertAmount(t, "65.00", d.ExpectedCash["USD"])
}

func TestEndOfDay_CompletePurgesDayButKeepsArchive(t *testing.T) {
	w := newWorkflow(t)
	w.openWithFloat("50.00")
	w.sell("P-1", sales.KindSale, "25.00")
	w.count(map[string]int{"USD_50": 1, "USD_20": 1, "USD_5": 1})
	w.start()

	_, err := w.recon.Complete(w.ctx, apptill.CompleteReconciliationRequest{ShopID: w.shop, Actor: w.owner})
	require.NoError(t, err)

	list, err := w.sales.ListSales(w.ctx, w.shop, nil)
	require.NoError(t, err)
	assert.Empty(t, list)

	d := w.drawer()
	assert.Equal(t, till.DrawerStatusInactive.String(), d.Status)
	assertAmount(t, "0", d.ExpectedCash["USD"])
	assertAmount(t, "0", d.Float["USD"])

	archives, total, err := w.recon.ListArchives(w.ctx, w.shop, apptill.ArchiveListFilter{CashierID: &w.cashier.UserID})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, archives, 1)
	assert.Equal(t, string(till.ArchiveStatusBalanced), archives[0].Status)

	t.Run("completing again is an invalid transition", func(t *testing.T) {
		_, err := w.recon.Complete(w.ctx, apptill.CompleteReconciliationRequest{ShopID: w.shop, Actor: w.owner})
		assert.Equal(t, shared.CodeInvalidTransition, shared.CodeOf(err))
	})

	t.Run("owner marks the day reconciled", func(t *testing.T) {
		session, err := w.recon.MarkReconciled(w.ctx, w.shop, w.now, w.owner)
		require.NoError(t, err)
		assert.Equal(t, till.SessionStatusReconciled.String(), session.Status)
	})
}

func TestEndOfDay_PendingCounts(t *testing.T) {
	w := newWorkflow(t)
	w.openWithFloat("20.00")
	_, err := w.sheets.Save(w.ctx, apptill.SaveCountSheetRequest{
		ShopID:    w.shop,
		CashierID: w.cashier.UserID,
		Counts:    map[string]int{"USD_20": 1},
	})
	require.NoError(t, err)
	w.start()

	_, err = w.recon.Complete(w.ctx, apptill.CompleteReconciliationRequest{ShopID: w.shop, Actor: w.owner})
	assert.Equal(t, shared.CodeCountsPending, shared.CodeOf(err))
	assert.Equal(t, till.DayStatusOpen.String(), w.dayStatus())

	result, err := w.recon.Complete(w.ctx, apptill.CompleteReconciliationRequest{ShopID: w.shop, Actor: w.owner, Force: true})
	require.NoError(t, err)
	assert.True(t, result.Session.Forced)
	require.Len(t, result.Archives, 1)
	assert.Equal(t, till.CountStatusInProgress.String(), result.Archives[0].SheetStatus)
	assert.Equal(t, string(till.ArchiveStatusBalanced), result.Archives[0].Status)

	// the forced sheet is archived, so it is part of the frozen totals
	assert.Equal(t, 1, result.Session.SheetCount)
	assert.Equal(t, 1, result.Session.ArchivedCount)
	for _, total := range result.Session.Totals {
		if total.Currency == "USD" {
			assertAmount(t, "20.00", total.Expected)
			assertAmount(t, "20.00", total.Counted)
		}
	}
}

func TestEndOfDay_CompleteRequiresStartedSession(t *testing.T) {
	w := newWorkflow(t)
	w.openWithFloat("50.00")
	w.sell("N-1", sales.KindSale, "25.00")
	w.count(map[string]int{"USD_50": 1, "USD_20": 1, "USD_5": 1})

	_, err := w.recon.Complete(w.ctx, apptill.CompleteReconciliationRequest{ShopID: w.shop, Actor: w.owner})
	require.Error(t, err)
	assert.Equal(t, shared.CodeInvalidTransition, shared.CodeOf(err))

	assert.Equal(t, till.DayStatusOpen.String(), w.dayStatus())
	session, err := w.recon.Get(w.ctx, w.shop, nil)
	require.NoError(t, err)
	assert.Equal(t, till.SessionStatusNotStarted.String(), session.Status)

	list, err := w.sales.ListSales(w.ctx, w.shop, nil)
	require.NoError(t, err)
	assert.Len(t, list, 1)
	archives, err := w.recon.ArchivesForDay(w.ctx, w.shop, w.now)
	require.NoError(t, err)
	assert.Empty(t, archives)
}

func TestEndOfDay_CashierCannotComplete(t *testing.T) {
	w := newWorkflow(t)
	w.openWithFloat("20.00")

	_, err := w.recon.Complete(w.ctx, apptill.CompleteReconciliationRequest{ShopID: w.shop, Actor: w.cashier})
	assert.Equal(t, shared.CodeForbidden, shared.CodeOf(err))
	assert.Equal(t, till.DayStatusOpen.String(), w.dayStatus())
}

func TestDrawer_FloatRequiresOwnerOrAdmin(t *testing.T) {
	w := newWorkflow(t)
	w.openWithFloat("50.00")

	_, err := w.drawers.SetFloat(w.ctx, apptill.SetFloatRequest{
		ShopID:    w.shop,
		CashierID: w.cashier.UserID,
		Actor:     w.cashier,
		Amounts:   map[valueobject.Currency]decimal.Decimal{valueobject.USD: dec("500")},
	})
	assert.Equal(t, shared.CodeForbidden, shared.CodeOf(err))
	assertAmount(t, "50.00", w.drawer().Float["USD"])
}

func TestDrawer_RefundFloorsAtZero(t *testing.T) {
	w := newWorkflow(t)
	w.openWithFloat("10.00")

	_, err := w.drawers.ApplySale(w.ctx, apptill.ApplyLineRequest{
		ShopID: w.shop, CashierID: w.cashier.UserID,
		Tender: valueobject.TenderEcocash, Currency: valueobject.ZIG, Amount: dec("100"),
	})
	require.NoError(t, err)

	d, err := w.drawers.ApplyRefund(w.ctx, apptill.ApplyLineRequest{
		ShopID: w.shop, CashierID: w.cashier.UserID,
		Tender: valueobject.TenderEcocash, Currency: valueobject.ZIG, Amount: dec("250"),
	})
	require.NoError(t, err)
	assertAmount(t, "0", d.Current["ecocash"]["ZIG"])
	assertAmount(t, "0", d.SessionSales["ecocash"]["ZIG"])
	assertAmount(t, "10.00", d.ExpectedCash["USD"])
}

func TestDrawer_MoneyCannotMoveOnClosedDay(t *testing.T) {
	w := newWorkflow(t)

	_, err := w.drawers.ApplySale(w.ctx, apptill.ApplyLineRequest{
		ShopID: w.shop, CashierID: w.cashier.UserID,
		Tender: valueobject.TenderCash, Currency: valueobject.USD, Amount: dec("5"),
	})
	assert.Equal(t, shared.CodeInvalidTransition, shared.CodeOf(err))
}

func TestSale_DuplicateReferenceMovesNoMoney(t *testing.T) {
	w := newWorkflow(t)
	w.openWithFloat("0")

	first := w.sell("DUP-1", sales.KindSale, "12.00")
	assert.False(t, first.Duplicate)

	second := w.sell("DUP-1", sales.KindSale, "12.00")
	assert.True(t, second.Duplicate)
	assert.Equal(t, first.ID, second.ID)

	assertAmount(t, "12.00", w.drawer().Current["cash"]["USD"])
}

func TestCountSheet_RecomputeIsIdempotent(t *testing.T) {
	w := newWorkflow(t)
	w.openWithFloat("30.00")
	w.sell("R-1", sales.KindSale, "7.25")
	_, err := w.sales.RecordStaffLunch(w.ctx, apptill.RecordStaffLunchRequest{
		ShopID:     w.shop,
		CashierID:  w.cashier.UserID,
		Currency:   valueobject.USD,
		Amount:     dec("2.25"),
		RecordedBy: w.owner.UserID,
	})
	require.NoError(t, err)

	first, err := w.sheets.RecomputeExpected(w.ctx, w.shop, w.cashier.UserID)
	require.NoError(t, err)
	second, err := w.sheets.RecomputeExpected(w.ctx, w.shop, w.cashier.UserID)
	require.NoError(t, err)

	assert.False(t, first.Persisted)
	assertAmount(t, "35.00", first.Expected["cash"]["USD"])
	assert.Equal(t, first.Expected, second.Expected)
	assert.Equal(t, first.Variance, second.Variance)

	_, err = w.sheets.Get(w.ctx, w.shop, w.cashier.UserID, nil)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestCountSheet_CompletedSheetIsFrozen(t *testing.T) {
	w := newWorkflow(t)
	w.openWithFloat("50.00")
	w.sell("Z-1", sales.KindSale, "15.00")
	completed := w.count(map[string]int{"USD_50": 1, "USD_10": 1, "USD_5": 1})
	require.Equal(t, till.CountStatusCompleted.String(), completed.Status)

	// a late sale must not leak into the frozen expectations
	w.sell("Z-2", sales.KindSale, "5.00")

	notes := "edited after completion"
	tests := []struct {
		name string
		req  apptill.SaveCountSheetRequest
	}{
		{"notes only", apptill.SaveCountSheetRequest{Notes: &notes}},
		{"empty body", apptill.SaveCountSheetRequest{}},
		{"counts", apptill.SaveCountSheetRequest{Counts: map[string]int{"USD_1": 3}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.req.ShopID = w.shop
			tt.req.CashierID = w.cashier.UserID
			_, err := w.sheets.Save(w.ctx, tt.req)
			require.Error(t, err)
			assert.Equal(t, shared.CodeInvalidTransition, shared.CodeOf(err))
		})
	}

	stored, err := w.sheets.Get(w.ctx, w.shop, w.cashier.UserID, nil)
	require.NoError(t, err)
	assert.Equal(t, till.CountStatusCompleted.String(), stored.Status)
	assert.Empty(t, stored.Notes)
	assert.Equal(t, completed.Version, stored.Version)
	assertAmount(t, "65.00", stored.Expected["cash"]["USD"])
	assertAmount(t, "0.00", stored.Variance["cash"]["USD"])
}

func TestBusinessDay_CarriesForwardUnclosedDay(t *testing.T) {
	w := newWorkflow(t)
	w.openWithFloat("40.00")
	w.sell("CF-1", sales.KindSale, "10.00")
	w.start()

	w.now = w.now.AddDate(0, 0, 1)

	today, err := w.days.CurrentFor(w.ctx, w.shop)
	require.NoError(t, err)
	assert.Equal(t, "2026-05-05", today.Date)
	assert.Equal(t, till.DayStatusOpen.String(), today.Status)
	assert.True(t, today.CarriedForward)

	yesterday, err := w.days.Get(w.ctx, w.shop, w.now.AddDate(0, 0, -1))
	require.NoError(t, err)
	assert.Equal(t, till.DayStatusClosed.String(), yesterday.Status)
	assert.Equal(t, "2026-05-05", yesterday.RolledOverTo)

	d := w.drawer()
	assert.Equal(t, "2026-05-05", d.BusinessDate)
	assertAmount(t, "50.00", d.ExpectedCash["USD"])

	list, err := w.sales.ListSales(w.ctx, w.shop, nil)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	session, err := w.recon.Get(w.ctx, w.shop, nil)
	require.NoError(t, err)
	assert.Equal(t, till.SessionStatusInProgress.String(), session.Status)
	assert.Equal(t, "2026-05-05", session.BusinessDate)

	previous := w.now.AddDate(0, 0, -1)
	left, err := w.recon.Get(w.ctx, w.shop, &previous)
	require.NoError(t, err)
	assert.Equal(t, till.SessionStatusNotStarted.String(), left.Status)

	t.Run("later calls return the same day", func(t *testing.T) {
		again, err := w.days.CurrentFor(w.ctx, w.shop)
		require.NoError(t, err)
		assert.Equal(t, today.ID, again.ID)
	})
}

func TestBusinessDay_OpenProvisionsDrawers(t *testing.T) {
	w := newWorkflow(t)

	_, err := w.days.Open(w.ctx, apptill.OpenDayRequest{ShopID: w.shop, By: w.owner.UserID, Notes: "morning shift"})
	require.NoError(t, err)

	drawers, err := w.drawers.List(w.ctx, w.shop, nil)
	require.NoError(t, err)
	require.Len(t, drawers, 1)
	assert.Equal(t, w.cashier.UserID, drawers[0].CashierID)
	assert.Equal(t, till.DrawerStatusInactive.String(), drawers[0].Status)

	_, err = w.days.Open(w.ctx, apptill.OpenDayRequest{ShopID: w.shop, By: w.owner.UserID})
	assert.Equal(t, shared.CodeInvalidTransition, shared.CodeOf(err))
}

package till

import (
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shoppos/backend/internal/domain/shared"
	"github.com/shoppos/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testDate = time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	testNow  = time.Date(2026, 3, 2, 14, 30, 0, 0, time.UTC)
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newTestDrawer(t *testing.T) *Drawer {
	t.Helper()
	d, err := NewDrawer(uuid.New(), uuid.New(), testDate)
	require.NoError(t, err)
	return d
}

func TestNewDrawer(t *testing.T) {
	t.Run("creates inactive zeroed drawer", func(t *testing.T) {
		d := newTestDrawer(t)
		assert.Equal(t, DrawerStatusInactive, d.Status)
		assert.True(t, d.Float.IsZero())
		assert.True(t, d.Current.IsZero())
		assert.NoError(t, d.CheckInvariant())
	})

	t.Run("requires shop and cashier", func(t *testing.T) {
		_, err := NewDrawer(uuid.Nil, uuid.New(), testDate)
		assert.True(t, errors.Is(err, shared.ErrInvalidInput))

		_, err = NewDrawer(uuid.New(), uuid.Nil, testDate)
		assert.True(t, errors.Is(err, shared.ErrInvalidInput))
	})
}

// Open day with a USD 50 float, cash sale of 25, cash refund of 10.
func TestDrawer_SaleThenRefund(t *testing.T) {
	d := newTestDrawer(t)
	require.NoError(t, d.SetFloat(map[valueobject.Currency]decimal.Decimal{valueobject.USD: dec("50.00")}, uuid.New(), testNow))

	require.NoError(t, d.ApplySale(valueobject.TenderCash, valueobject.USD, dec("25.00"), testNow))
	assert.Equal(t, "25.00", d.Current.Get(valueobject.TenderCash, valueobject.USD).StringFixed(2))
	assert.Equal(t, "25.00", d.SessionSales.Get(valueobject.TenderCash, valueobject.USD).StringFixed(2))
	assert.Equal(t, "75.00", d.ExpectedCash.Get(valueobject.USD).StringFixed(2))
	require.NoError(t, d.CheckInvariant())

	require.NoError(t, d.ApplyRefund(valueobject.TenderCash, valueobject.USD, dec("10.00"), testNow))
	assert.Equal(t, "15.00", d.Current.Get(valueobject.TenderCash, valueobject.USD).StringFixed(2))
	assert.Equal(t, "65.00", d.ExpectedCash.Get(valueobject.USD).StringFixed(2))
	require.NoError(t, d.CheckInvariant())

	assert.Equal(t, 1, d.SaleCount)
	assert.Equal(t, 1, d.RefundCount)
	assert.Equal(t, DrawerStatusActive, d.Status)
}

func TestDrawer_NonCashSaleLeavesExpectedCash(t *testing.T) {
	d := newTestDrawer(t)
	require.NoError(t, d.ApplySale(valueobject.TenderEcocash, valueobject.ZIG, dec("300"), testNow))

	assert.Equal(t, "300.00", d.SessionSales.Get(valueobject.TenderEcocash, valueobject.ZIG).StringFixed(2))
	assert.True(t, d.ExpectedCash.IsZero())
	assert.NoError(t, d.CheckInvariant())
}

func TestDrawer_RejectsInvalidAmounts(t *testing.T) {
	d := newTestDrawer(t)

	for _, amount := range []string{"0", "-5"} {
		err := d.ApplySale(valueobject.TenderCash, valueobject.USD, dec(amount), testNow)
		assert.True(t, errors.Is(err, shared.ErrInvalidAmount), amount)
		err = d.ApplyRefund(valueobject.TenderCash, valueobject.USD, dec(amount), testNow)
		assert.True(t, errors.Is(err, shared.ErrInvalidAmount), amount)
	}

	err := d.ApplySale(valueobject.Tender("cheque"), valueobject.USD, dec("1"), testNow)
	assert.True(t, errors.Is(err, shared.ErrInvalidInput))

	err = d.SetFloat(map[valueobject.Currency]decimal.Decimal{valueobject.RAND: dec("-1")}, uuid.New(), testNow)
	assert.True(t, errors.Is(err, shared.ErrInvalidAmount))
	assert.True(t, d.Float.IsZero())
}

func TestDrawer_RefundNeverGoesNegative(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	tenders := valueobject.AllTenders()
	currencies := valueobject.AllCurrencies()

	d := newTestDrawer(t)
	for i := 0; i < 500; i++ {
		tender := tenders[rng.Intn(len(tenders))]
		currency := currencies[rng.Intn(len(currencies))]
		amount := decimal.NewFromInt(int64(rng.Intn(10000) + 1)).Div(decimal.NewFromInt(100))

		if rng.Intn(2) == 0 {
			require.NoError(t, d.ApplySale(tender, currency, amount, testNow))
		} else {
			require.NoError(t, d.ApplyRefund(tender, currency, amount, testNow))
			for _, c := range currencies {
				assert.False(t, d.Current.Get(valueobject.TenderCash, c).IsNegative())
			}
		}
		require.NoError(t, d.CheckInvariant())
	}
}

func TestDrawer_SetFloatOverwrites(t *testing.T) {
	d := newTestDrawer(t)
	owner := uuid.New()
	require.NoError(t, d.ApplySale(valueobject.TenderCash, valueobject.RAND, dec("40"), testNow))

	require.NoError(t, d.SetFloat(map[valueobject.Currency]decimal.Decimal{valueobject.RAND: dec("100")}, owner, testNow))
	require.NoError(t, d.SetFloat(map[valueobject.Currency]decimal.Decimal{valueobject.RAND: dec("80")}, owner, testNow))

	assert.Equal(t, "80.00", d.Float.Get(valueobject.RAND).StringFixed(2))
	assert.Equal(t, "120.00", d.ExpectedCash.Get(valueobject.RAND).StringFixed(2))
	assert.Equal(t, owner, *d.FloatSetBy)
	assert.NoError(t, d.CheckInvariant())

	events := d.GetDomainEvents()
	require.Len(t, events, 2)
	assert.Equal(t, EventTypeDrawerFloatSet, events[1].EventType())
}

func TestDrawer_Settle(t *testing.T) {
	d := newTestDrawer(t)
	require.NoError(t, d.SetFloat(map[valueobject.Currency]decimal.Decimal{valueobject.USD: dec("50")}, uuid.New(), testNow))
	require.NoError(t, d.ApplySale(valueobject.TenderCash, valueobject.USD, dec("50"), testNow))

	report, err := d.Settle(map[valueobject.Currency]decimal.Decimal{valueobject.USD: dec("95")}, uuid.New(), testNow)
	require.NoError(t, err)
	assert.Equal(t, DrawerStatusSettled, d.Status)

	require.Len(t, report.Lines, 3)
	usd := report.Lines[0]
	assert.Equal(t, valueobject.USD, usd.Currency)
	assert.Equal(t, "100.00", usd.Expected.StringFixed(2))
	assert.Equal(t, "95.00", usd.Actual.StringFixed(2))
	assert.Equal(t, "-5.00", usd.Variance.StringFixed(2))
	assert.Equal(t, "-5.00", usd.VariancePct.StringFixed(2))

	zig := report.Lines[1]
	assert.True(t, zig.VariancePct.IsZero())

	t.Run("settled drawer rejects trading", func(t *testing.T) {
		err := d.ApplySale(valueobject.TenderCash, valueobject.USD, dec("1"), testNow)
		assert.True(t, errors.Is(err, shared.ErrInvalidTransition))
		_, err = d.Settle(nil, uuid.New(), testNow)
		assert.True(t, errors.Is(err, shared.ErrInvalidTransition))
	})
}

func TestDrawer_Zero(t *testing.T) {
	d := newTestDrawer(t)
	require.NoError(t, d.SetFloat(map[valueobject.Currency]decimal.Decimal{valueobject.ZIG: dec("500")}, uuid.New(), testNow))
	require.NoError(t, d.ApplySale(valueobject.TenderCard, valueobject.USD, dec("12"), testNow))
	id := d.ID

	d.Zero(testNow)

	assert.Equal(t, id, d.ID)
	assert.Equal(t, DrawerStatusInactive, d.Status)
	assert.True(t, d.Float.IsZero())
	assert.True(t, d.SessionSales.IsZero())
	assert.True(t, d.ExpectedCash.IsZero())
	assert.Zero(t, d.SaleCount)
	assert.NoError(t, d.CheckInvariant())
}

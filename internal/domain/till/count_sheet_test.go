package till

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shoppos/backend/internal/domain/shared"
	"github.com/shoppos/backend/internal/domain/shared/valueobject"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDenominationTable(t *testing.T) {
	assert.Len(t, Denominations(valueobject.USD), 13)
	assert.Len(t, Denominations(valueobject.ZIG), 8)
	assert.Len(t, Denominations(valueobject.RAND), 12)

	note, err := LookupDenomination("USD_1")
	require.NoError(t, err)
	coin, err := LookupDenomination("USD_1_COIN")
	require.NoError(t, err)
	assert.True(t, note.FaceValue.Equal(coin.FaceValue))
	assert.NotEqual(t, note.Kind, coin.Kind)

	_, err = LookupDenomination("EUR_5")
	assert.True(t, errors.Is(err, shared.ErrInvalidInput))
}

func newTestSheet(t *testing.T) *CountSheet {
	t.Helper()
	s, err := NewCountSheet(uuid.New(), uuid.New(), testDate)
	require.NoError(t, err)
	return s
}

// expected cash of 65.00 USD: float 50, sales 25, refund 10
func sheetExpecting65(t *testing.T) *CountSheet {
	t.Helper()
	s := newTestSheet(t)
	var sales valueobject.TenderTotals
	sales.Set(valueobject.TenderCash, valueobject.USD, dec("15"))
	var float valueobject.CurrencyAmounts
	float.Set(valueobject.USD, dec("50"))
	s.ApplyExpected(sales, valueobject.CurrencyAmounts{}, float)
	return s
}

func TestCountSheet_BalancedCount(t *testing.T) {
	s := sheetExpecting65(t)
	require.NoError(t, s.SetCount("USD_50", 1))
	require.NoError(t, s.SetCount("USD_10", 1))
	require.NoError(t, s.SetCount("USD_5", 1))
	require.NoError(t, s.Complete(uuid.New(), testNow))

	assert.Equal(t, "65.00", s.CashTotal.Get(valueobject.USD).StringFixed(2))
	assert.Equal(t, "0.00", s.Variance.Get(valueobject.TenderCash, valueobject.USD).StringFixed(2))
	assert.NoError(t, s.CheckInvariant())

	archive := SnapshotSheet(s, uuid.New(), uuid.New(), DefaultBalanceEpsilon, testNow)
	assert.Equal(t, ArchiveStatusBalanced, archive.Status)
	assert.Equal(t, CountStatusCompleted, archive.SheetStatus)
	assert.Len(t, archive.Counts, 3)
}

func TestCountSheet_ShortCount(t *testing.T) {
	s := sheetExpecting65(t)
	require.NoError(t, s.SetCount("USD_50", 1))
	require.NoError(t, s.Complete(uuid.New(), testNow))

	assert.Equal(t, "-15.00", s.Variance.Get(valueobject.TenderCash, valueobject.USD).StringFixed(2))

	archive := SnapshotSheet(s, uuid.New(), uuid.New(), DefaultBalanceEpsilon, testNow)
	assert.Equal(t, ArchiveStatusShortage, archive.Status)
	assert.Equal(t, ArchiveStatusShortage, archive.Line(valueobject.USD).Status)
	assert.Equal(t, ArchiveStatusBalanced, archive.Line(valueobject.ZIG).Status)
}

func TestCountSheet_TotalsFollowCounts(t *testing.T) {
	s := newTestSheet(t)
	require.NoError(t, s.SetCount("USD_1", 3))
	require.NoError(t, s.SetCount("USD_1_COIN", 2))
	require.NoError(t, s.SetCount("USD_0_25", 4))
	require.NoError(t, s.SetCount("ZIG_20", 7))
	require.NoError(t, s.SetCount("RAND_0_05", 9))

	assert.Equal(t, "6.00", s.CashTotal.Get(valueobject.USD).StringFixed(2))
	assert.Equal(t, "140.00", s.CashTotal.Get(valueobject.ZIG).StringFixed(2))
	assert.Equal(t, "0.45", s.CashTotal.Get(valueobject.RAND).StringFixed(2))
	require.NoError(t, s.CheckInvariant())

	require.NoError(t, s.SetCount("ZIG_20", 0))
	assert.True(t, s.CashTotal.Get(valueobject.ZIG).IsZero())
	assert.NoError(t, s.CheckInvariant())

	err := s.SetCount("USD_20", -1)
	assert.True(t, errors.Is(err, shared.ErrInvalidAmount))
}

func TestCountSheet_NegativeExpectedIsKept(t *testing.T) {
	s := newTestSheet(t)
	var lunch valueobject.CurrencyAmounts
	lunch.Set(valueobject.USD, dec("8"))
	var sales valueobject.TenderTotals
	sales.Set(valueobject.TenderCash, valueobject.USD, dec("5"))

	s.ApplyExpected(sales, lunch, valueobject.CurrencyAmounts{})

	assert.Equal(t, "-3.00", s.Expected.Get(valueobject.TenderCash, valueobject.USD).StringFixed(2))
	assert.Equal(t, "3.00", s.Variance.Get(valueobject.TenderCash, valueobject.USD).StringFixed(2))
}

func TestCountSheet_ElectronicVariance(t *testing.T) {
	s := newTestSheet(t)
	var sales valueobject.TenderTotals
	sales.Set(valueobject.TenderCard, valueobject.USD, dec("40"))
	s.ApplyExpected(sales, valueobject.CurrencyAmounts{}, valueobject.CurrencyAmounts{})

	require.NoError(t, s.SetElectronic(valueobject.TenderCard, valueobject.USD, dec("38.50")))
	assert.Equal(t, "-1.50", s.Variance.Get(valueobject.TenderCard, valueobject.USD).StringFixed(2))

	err := s.SetElectronic(valueobject.TenderCash, valueobject.USD, dec("1"))
	assert.True(t, errors.Is(err, shared.ErrInvalidInput))
}

func TestCountSheet_Lifecycle(t *testing.T) {
	s := newTestSheet(t)
	assert.False(t, s.Status.IsSubmitted())
	require.NoError(t, s.RequireEditable())

	// non-zero totals alone are not a submission
	require.NoError(t, s.SetCount("USD_100", 1))
	assert.False(t, s.Status.IsSubmitted())

	require.NoError(t, s.Complete(uuid.New(), testNow))
	assert.True(t, s.Status.IsSubmitted())
	require.Len(t, s.GetDomainEvents(), 1)
	assert.Equal(t, EventTypeCountSheetCompleted, s.GetDomainEvents()[0].EventType())

	assert.True(t, errors.Is(s.RequireEditable(), shared.ErrInvalidTransition))
	err := s.SetCount("USD_100", 2)
	assert.True(t, errors.Is(err, shared.ErrInvalidTransition))
	err = s.Complete(uuid.New(), testNow)
	assert.True(t, errors.Is(err, shared.ErrInvalidTransition))

	require.NoError(t, s.Review(uuid.New(), testNow))
	assert.Equal(t, CountStatusReviewed, s.Status)
	assert.True(t, s.Status.IsSubmitted())
	assert.True(t, errors.Is(s.RequireEditable(), shared.ErrInvalidTransition))
}

func TestClassifyVariance(t *testing.T) {
	eps := DefaultBalanceEpsilon
	tests := []struct {
		variance string
		want     ArchiveStatus
	}{
		{"0", ArchiveStatusBalanced},
		{"0.004", ArchiveStatusBalanced},
		{"-0.004", ArchiveStatusBalanced},
		{"0.005", ArchiveStatusOver},
		{"-0.005", ArchiveStatusShortage},
		{"-15", ArchiveStatusShortage},
		{"2.50", ArchiveStatusOver},
	}
	for _, tt := range tests {
		t.Run(tt.variance, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyVariance(dec(tt.variance), eps))
		})
	}
}

func TestSnapshotSheet_ShortageWinsOverOver(t *testing.T) {
	s := newTestSheet(t)
	require.NoError(t, s.SetCount("ZIG_10", 1))
	var sales valueobject.TenderTotals
	sales.Set(valueobject.TenderCash, valueobject.RAND, dec("20"))
	s.ApplyExpected(sales, valueobject.CurrencyAmounts{}, valueobject.CurrencyAmounts{})

	archive := SnapshotSheet(s, uuid.New(), uuid.New(), DefaultBalanceEpsilon, testNow)

	assert.Equal(t, ArchiveStatusOver, archive.Line(valueobject.ZIG).Status)
	assert.Equal(t, ArchiveStatusShortage, archive.Line(valueobject.RAND).Status)
	assert.Equal(t, ArchiveStatusShortage, archive.Status)
	assert.Equal(t, CountStatusInProgress, archive.SheetStatus)
}

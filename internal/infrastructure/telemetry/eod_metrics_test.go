package telemetry

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shoppos/backend/internal/domain/shared"
	"github.com/shoppos/backend/internal/domain/shared/valueobject"
	"github.com/shoppos/backend/internal/domain/till"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func newTestMetrics(t *testing.T) (*EODMetrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	m, err := NewEODMetrics(provider.Meter("test"))
	require.NoError(t, err)
	return m, reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Aggregation {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	out := map[string]metricdata.Aggregation{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m.Data
		}
	}
	return out
}

func TestEODMetrics_EventTypes(t *testing.T) {
	m, _ := newTestMetrics(t)
	assert.ElementsMatch(t, []string{
		till.EventTypeBusinessDayOpened,
		till.EventTypeBusinessDayClosed,
		till.EventTypeBusinessDayRolledOver,
		till.EventTypeCountSheetCompleted,
		till.EventTypeReconciliationComplete,
	}, m.EventTypes())
}

func TestEODMetrics_ReconciliationCompleted(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	event := &till.ReconciliationCompletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(till.EventTypeReconciliationComplete, till.AggregateTypeReconciliation, uuid.New(), uuid.New()),
		Forced:          true,
		Totals: []till.CurrencyTotals{
			{Currency: valueobject.USD, Variance: decimal.RequireFromString("-15")},
			{Currency: valueobject.RAND, Variance: decimal.Zero},
		},
	}
	require.NoError(t, m.Handle(ctx, event))

	data := collect(t, reader)

	completions := data["pos.eod.completions"].(metricdata.Sum[int64])
	require.Len(t, completions.DataPoints, 1)
	assert.Equal(t, int64(1), completions.DataPoints[0].Value)
	forced, _ := completions.DataPoints[0].Attributes.Value(AttrForced)
	assert.True(t, forced.AsBool())

	variance := data["pos.eod.variance"].(metricdata.Histogram[float64])
	require.Len(t, variance.DataPoints, 2)
	sums := map[string]float64{}
	for _, dp := range variance.DataPoints {
		cur, _ := dp.Attributes.Value(AttrCurrency)
		sums[cur.AsString()] = dp.Sum
	}
	assert.Equal(t, map[string]float64{"USD": 15, "RAND": 0}, sums)
}

func TestEODMetrics_DayTransitionsAndCounts(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()
	shop := uuid.New()
	base := func(typ string) shared.BaseDomainEvent {
		return shared.NewBaseDomainEvent(typ, till.AggregateTypeBusinessDay, uuid.New(), shop)
	}

	require.NoError(t, m.Handle(ctx, &till.BusinessDayOpenedEvent{BaseDomainEvent: base(till.EventTypeBusinessDayOpened)}))
	require.NoError(t, m.Handle(ctx, &till.BusinessDayRolledOverEvent{BaseDomainEvent: base(till.EventTypeBusinessDayRolledOver)}))
	require.NoError(t, m.Handle(ctx, &till.BusinessDayClosedEvent{BaseDomainEvent: base(till.EventTypeBusinessDayClosed)}))
	require.NoError(t, m.Handle(ctx, &till.CountSheetCompletedEvent{
		BaseDomainEvent: base(till.EventTypeCountSheetCompleted),
		CashVariance:    map[string]decimal.Decimal{"ZIG": decimal.RequireFromString("2.5")},
	}))

	data := collect(t, reader)

	transitions := data["pos.business_day.transitions"].(metricdata.Sum[int64])
	assert.Len(t, transitions.DataPoints, 3)
	for _, dp := range transitions.DataPoints {
		assert.Equal(t, int64(1), dp.Value)
	}

	sheet := data["pos.count_sheet.variance"].(metricdata.Histogram[float64])
	require.Len(t, sheet.DataPoints, 1)
	assert.Equal(t, 2.5, sheet.DataPoints[0].Sum)
}

func TestEODMetrics_RecordSale(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordSale(ctx, "sale", "cash", "USD", decimal.RequireFromString("25"))
	m.RecordSale(ctx, "refund", "cash", "USD", decimal.RequireFromString("-10"))
	m.RecordSale(ctx, "sale", "cash", "USD", decimal.RequireFromString("5"))

	data := collect(t, reader)
	posted := data["pos.sales.posted"].(metricdata.Sum[int64])
	amounts := data["pos.sales.amount"].(metricdata.Sum[float64])

	byKind := func(set attribute.Set) string {
		v, _ := set.Value(AttrKind)
		return v.AsString()
	}
	counts := map[string]int64{}
	for _, dp := range posted.DataPoints {
		counts[byKind(dp.Attributes)] = dp.Value
	}
	assert.Equal(t, map[string]int64{"sale": 2, "refund": 1}, counts)

	totals := map[string]float64{}
	for _, dp := range amounts.DataPoints {
		totals[byKind(dp.Attributes)] = dp.Value
	}
	assert.Equal(t, map[string]float64{"sale": 30, "refund": 10}, totals)
}

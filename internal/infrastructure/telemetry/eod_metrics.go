package telemetry

import (
	"context"
	"fmt"

	"github.com/shoppos/backend/internal/domain/shared"
	"github.com/shoppos/backend/internal/domain/till"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Attribute keys shared by the EOD instruments
const (
	AttrCurrency = attribute.Key("pos.currency")
	AttrTender   = attribute.Key("pos.tender")
	AttrKind     = attribute.Key("pos.sale_kind")
	AttrForced   = attribute.Key("pos.forced")
	AttrEvent    = attribute.Key("pos.event")
)

// EODMetrics records till and end-of-day business metrics. It subscribes to
// the day, count and reconciliation events and is called directly for
// posted sales. Instruments carry no shop attribute.
type EODMetrics struct {
	completions   metric.Int64Counter
	variance      metric.Float64Histogram
	sheetVariance metric.Float64Histogram
	dayEvents     metric.Int64Counter
	salesPosted   metric.Int64Counter
	salesAmount   metric.Float64Counter
}

// NewEODMetrics creates the instruments on meter
func NewEODMetrics(meter metric.Meter) (*EODMetrics, error) {
	m := &EODMetrics{}
	var err error
	if m.completions, err = meter.Int64Counter("pos.eod.completions",
		metric.WithDescription("Completed end-of-day reconciliations"),
		metric.WithUnit("{reconciliation}")); err != nil {
		return nil, fmt.Errorf("create completions counter: %w", err)
	}
	if m.variance, err = meter.Float64Histogram("pos.eod.variance",
		metric.WithDescription("Absolute cash variance per currency at reconciliation"),
		metric.WithExplicitBucketBoundaries(0, 0.01, 1, 5, 10, 50, 100, 500, 1000)); err != nil {
		return nil, fmt.Errorf("create variance histogram: %w", err)
	}
	if m.sheetVariance, err = meter.Float64Histogram("pos.count_sheet.variance",
		metric.WithDescription("Absolute cash variance per currency of a submitted count"),
		metric.WithExplicitBucketBoundaries(0, 0.01, 1, 5, 10, 50, 100, 500)); err != nil {
		return nil, fmt.Errorf("create sheet variance histogram: %w", err)
	}
	if m.dayEvents, err = meter.Int64Counter("pos.business_day.transitions",
		metric.WithDescription("Business day opens, closes and rollovers")); err != nil {
		return nil, fmt.Errorf("create day transitions counter: %w", err)
	}
	if m.salesPosted, err = meter.Int64Counter("pos.sales.posted",
		metric.WithDescription("Sales and refunds posted to drawers"),
		metric.WithUnit("{sale}")); err != nil {
		return nil, fmt.Errorf("create sales counter: %w", err)
	}
	if m.salesAmount, err = meter.Float64Counter("pos.sales.amount",
		metric.WithDescription("Absolute amount of posted sales and refunds")); err != nil {
		return nil, fmt.Errorf("create sales amount counter: %w", err)
	}
	return m, nil
}

// RecordSale counts one posted sale or refund line
func (m *EODMetrics) RecordSale(ctx context.Context, kind, tender, currency string, amount decimal.Decimal) {
	attrs := metric.WithAttributes(AttrKind.String(kind), AttrTender.String(tender), AttrCurrency.String(currency))
	m.salesPosted.Add(ctx, 1, attrs)
	m.salesAmount.Add(ctx, amount.Abs().InexactFloat64(), attrs)
}

// EventTypes implements shared.EventHandler
func (m *EODMetrics) EventTypes() []string {
	return []string{
		till.EventTypeBusinessDayOpened,
		till.EventTypeBusinessDayClosed,
		till.EventTypeBusinessDayRolledOver,
		till.EventTypeCountSheetCompleted,
		till.EventTypeReconciliationComplete,
	}
}

// Handle implements shared.EventHandler
func (m *EODMetrics) Handle(ctx context.Context, event shared.DomainEvent) error {
	switch e := event.(type) {
	case *till.BusinessDayOpenedEvent, *till.BusinessDayClosedEvent, *till.BusinessDayRolledOverEvent:
		m.dayEvents.Add(ctx, 1, metric.WithAttributes(AttrEvent.String(event.EventType())))
	case *till.CountSheetCompletedEvent:
		for currency, v := range e.CashVariance {
			m.sheetVariance.Record(ctx, v.Abs().InexactFloat64(), metric.WithAttributes(AttrCurrency.String(currency)))
		}
	case *till.ReconciliationCompletedEvent:
		m.completions.Add(ctx, 1, metric.WithAttributes(AttrForced.Bool(e.Forced)))
		for _, t := range e.Totals {
			m.variance.Record(ctx, t.Variance.Abs().InexactFloat64(), metric.WithAttributes(AttrCurrency.String(t.Currency.String())))
		}
	}
	return nil
}

var _ shared.EventHandler = (*EODMetrics)(nil)

package telemetry

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestStartServiceSpan(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() { otel.SetTracerProvider(prev) })

	shopID := uuid.New()
	_, span := StartServiceSpan(context.Background(), "reconciliation", "complete")
	SetAttributes(span, "shop_id", shopID, "force", true, 42, "skipped", "variance", decimal.RequireFromString("-1.50"))
	SetAttribute(span, "sheets", 3)
	RecordError(span, errors.New("counts pending"))
	span.End()

	ended := recorder.Ended()
	require.Len(t, ended, 1)
	s := ended[0]
	assert.Equal(t, "reconciliation.complete", s.Name())
	assert.Equal(t, codes.Error, s.Status().Code)
	assert.Equal(t, "counts pending", s.Status().Description)

	attrs := map[attribute.Key]attribute.Value{}
	for _, kv := range s.Attributes() {
		attrs[kv.Key] = kv.Value
	}
	assert.Equal(t, shopID.String(), attrs["shop_id"].AsString())
	assert.True(t, attrs["force"].AsBool())
	assert.Equal(t, "-1.5", attrs["variance"].AsString())
	assert.Equal(t, int64(3), attrs["sheets"].AsInt64())
	assert.Len(t, attrs, 4)
}

func TestRecordError_Nil(t *testing.T) {
	assert.NotPanics(t, func() {
		RecordError(nil, errors.New("x"))
		SetAttributes(nil, "a", 1)
		SetAttribute(nil, "a", 1)
	})
}

package printing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	apptill "github.com/shoppos/backend/internal/application/till"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePDF struct {
	got *RenderRequest
	err error
}

func (f *fakePDF) Render(_ context.Context, req *RenderRequest) ([]byte, error) {
	f.got = req
	if f.err != nil {
		return nil, f.err
	}
	return []byte("%PDF-1.7"), nil
}

func (f *fakePDF) Close() error { return nil }

func sampleReport() apptill.ZReport {
	d := decimal.RequireFromString
	return apptill.ZReport{
		ShopID:       uuid.MustParse("6f1c2d3e-0000-4000-8000-000000000001"),
		BusinessDate: "2026-05-04",
		CompletedAt:  time.Date(2026, 5, 4, 18, 45, 0, 0, time.UTC),
		CompletedBy:  uuid.MustParse("a1b2c3d4-0000-4000-8000-000000000002"),
		Totals: []apptill.CurrencyTotalsResponse{
			{Currency: "USD", Expected: d("1250"), Counted: d("1235"), Variance: d("-15")},
			{Currency: "RAND", Expected: d("300"), Counted: d("300"), Variance: d("0")},
		},
		Archives: []apptill.ArchiveResponse{{
			CashierID:   uuid.MustParse("c0ffee00-0000-4000-8000-000000000003"),
			SheetStatus: "COMPLETED",
			Status:      "SHORTAGE",
			Lines: []apptill.ArchiveLineResponse{
				{Currency: "USD", Expected: d("1250"), Counted: d("1235"), Variance: d("-15"), Status: "SHORTAGE"},
			},
			Electronic: map[string]map[string]decimal.Decimal{
				"ecocash": {"USD": d("40.5"), "ZIG": d("0")},
				"card":    {"RAND": d("12")},
			},
		}},
	}
}

func TestZReportRenderer_RenderHTML(t *testing.T) {
	z := NewZReportRenderer(&fakePDF{}, nil)

	doc, err := z.RenderHTML(sampleReport())
	require.NoError(t, err)

	assert.Contains(t, doc, "Business date 2026-05-04")
	assert.Contains(t, doc, "Shop 6f1c2d3e")
	assert.Contains(t, doc, "Closed 2026-05-04 18:45 UTC by a1b2c3d4")
	assert.Contains(t, doc, "1,250.00")
	assert.Contains(t, doc, `<td class="neg">-15.00</td>`)
	assert.Contains(t, doc, "RAND (ZAR)")
	assert.Contains(t, doc, "Cashier c0ffee00 SHORTAGE")
	assert.Contains(t, doc, "Card RAND (ZAR)")
	assert.Contains(t, doc, "Ecocash USD")
	assert.NotContains(t, doc, "FORCED")
	assert.NotContains(t, doc, "Ecocash ZIG", "zero amounts are omitted")
}

func TestZReportRenderer_ForcedAndPendingSheets(t *testing.T) {
	report := sampleReport()
	report.Forced = true
	report.Archives[0].SheetStatus = "IN_PROGRESS"

	doc, err := NewZReportRenderer(&fakePDF{}, nil).RenderHTML(report)
	require.NoError(t, err)
	assert.Contains(t, doc, "FORCED: counts were pending")
	assert.Contains(t, doc, "SHORTAGE (IN_PROGRESS)")
}

func TestZReportRenderer_RenderPDF(t *testing.T) {
	pdf := &fakePDF{}
	out, err := NewZReportRenderer(pdf, nil).RenderPDF(context.Background(), sampleReport())
	require.NoError(t, err)

	assert.Equal(t, []byte("%PDF-1.7"), out)
	require.NotNil(t, pdf.got)
	assert.Equal(t, Receipt80MM, pdf.got.PaperWidthMM)
	assert.Equal(t, "Z-Report 2026-05-04", pdf.got.Title)

	pdf.err = errors.New("chrome gone")
	_, err = NewZReportRenderer(pdf, nil).RenderPDF(context.Background(), sampleReport())
	assert.EqualError(t, err, "chrome gone")
}

func TestFormatMoney(t *testing.T) {
	d := decimal.RequireFromString
	tests := map[string]string{
		"0":          "0.00",
		"7.255":      "7.26",
		"999":        "999.00",
		"1000":       "1,000.00",
		"-1234567.8": "-1,234,567.80",
	}
	for in, want := range tests {
		assert.Equal(t, want, formatMoney(d(in)), in)
	}
}

func TestLabels(t *testing.T) {
	assert.Equal(t, "USD", currencyLabel("USD"))
	assert.Equal(t, "RAND (ZAR)", currencyLabel("RAND"))
	assert.Equal(t, "XYZ", currencyLabel("XYZ"))
	assert.Equal(t, "Bank Transfer", tenderLabel("bank_transfer"))
	assert.Equal(t, "Cash", tenderLabel("cash"))
}

package printing

import (
	"bytes"
	"context"
	"html/template"
	"sort"
	"strings"
	"time"

	apptill "github.com/shoppos/backend/internal/application/till"
	"github.com/shoppos/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
)

// isoCodes maps till currency codes to ISO 4217
var isoCodes = map[string]string{
	string(valueobject.USD):  "USD",
	string(valueobject.ZIG):  "ZWG",
	string(valueobject.RAND): "ZAR",
}

var zReportFuncs = template.FuncMap{
	"money":         formatMoney,
	"currencyLabel": currencyLabel,
	"tenderLabel":   tenderLabel,
	"short":         shortID,
	"datetime":      func(t time.Time) string { return t.UTC().Format("2006-01-02 15:04 UTC") },
	"negative":      func(d decimal.Decimal) bool { return d.IsNegative() },
	"electronic":    electronicRows,
}

var zReportTemplate = template.Must(template.New("z-report").Funcs(zReportFuncs).Parse(`<!DOCTYPE html>
<html><head><meta charset="UTF-8"><title>Z-Report {{.BusinessDate}}</title>
<style>
body{font-family:monospace;font-size:10px;margin:0}
h1{font-size:13px;text-align:center;margin:0 0 4px}
table{width:100%;border-collapse:collapse;margin-bottom:6px}
th,td{text-align:right;padding:1px 2px}
th:first-child,td:first-child{text-align:left}
.neg{font-weight:bold}
.forced{text-align:center;border:1px solid #000;margin:4px 0}
hr{border:0;border-top:1px dashed #000}
</style></head><body>
<h1>Z-REPORT</h1>
<div>Shop {{short .ShopID}}</div>
<div>Business date {{.BusinessDate}}</div>
<div>Closed {{datetime .CompletedAt}} by {{short .CompletedBy}}</div>
{{if .Forced}}<div class="forced">FORCED: counts were pending</div>{{end}}
<hr>
<table>
<tr><th>Cash</th><th>Expected</th><th>Counted</th><th>Variance</th></tr>
{{range .Totals}}<tr><td>{{currencyLabel .Currency}}</td><td>{{money .Expected}}</td><td>{{money .Counted}}</td><td class="{{if negative .Variance}}neg{{end}}">{{money .Variance}}</td></tr>
{{end}}</table>
{{range .Archives}}<hr>
<div>Cashier {{short .CashierID}} {{.Status}}{{if ne .SheetStatus "COMPLETED"}} ({{.SheetStatus}}){{end}}</div>
<table>
{{range .Lines}}<tr><td>{{currencyLabel .Currency}}</td><td>{{money .Expected}}</td><td>{{money .Counted}}</td><td class="{{if negative .Variance}}neg{{end}}">{{money .Variance}}</td></tr>
{{end}}</table>
{{with electronic .Electronic}}<table>
{{range .}}<tr><td>{{tenderLabel .Tender}} {{currencyLabel .Currency}}</td><td>{{money .Amount}}</td></tr>
{{end}}</table>{{end}}
{{end}}</body></html>`))

type electronicRow struct {
	Tender   string
	Currency string
	Amount   decimal.Decimal
}

// ZReportRenderer renders a completed day's Z-report on receipt paper
type ZReportRenderer struct {
	pdf    PDFRenderer
	logger *zap.Logger
}

// NewZReportRenderer creates a ZReportRenderer backed by pdf
func NewZReportRenderer(pdf PDFRenderer, logger *zap.Logger) *ZReportRenderer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ZReportRenderer{pdf: pdf, logger: logger}
}

// RenderHTML lays the report out as an HTML document
func (z *ZReportRenderer) RenderHTML(report apptill.ZReport) (string, error) {
	var buf bytes.Buffer
	if err := zReportTemplate.Execute(&buf, report); err != nil {
		return "", NewRenderError(ErrCodeTemplate, "execute z-report template", err)
	}
	return buf.String(), nil
}

// RenderPDF renders the report to PDF
func (z *ZReportRenderer) RenderPDF(ctx context.Context, report apptill.ZReport) ([]byte, error) {
	doc, err := z.RenderHTML(report)
	if err != nil {
		return nil, err
	}
	pdf, err := z.pdf.Render(ctx, &RenderRequest{
		HTML:         doc,
		Title:        "Z-Report " + report.BusinessDate,
		PaperWidthMM: Receipt80MM,
	})
	if err != nil {
		return nil, err
	}
	z.logger.Debug("z-report rendered",
		zap.String("shop_id", report.ShopID.String()),
		zap.String("business_date", report.BusinessDate),
		zap.Int("bytes", len(pdf)))
	return pdf, nil
}

var _ apptill.ZReportRenderer = (*ZReportRenderer)(nil)

// electronicRows flattens non-zero tender/currency amounts in display order
func electronicRows(m map[string]map[string]decimal.Decimal) []electronicRow {
	var rows []electronicRow
	for _, t := range valueobject.AllTenders() {
		byCurrency, ok := m[t.String()]
		if !ok {
			continue
		}
		codes := make([]string, 0, len(byCurrency))
		for code := range byCurrency {
			codes = append(codes, code)
		}
		sort.Slice(codes, func(i, j int) bool { return currencyOrder(codes[i]) < currencyOrder(codes[j]) })
		for _, code := range codes {
			if amt := byCurrency[code]; !amt.IsZero() {
				rows = append(rows, electronicRow{Tender: t.String(), Currency: code, Amount: amt})
			}
		}
	}
	return rows
}

func currencyOrder(code string) int {
	for i, c := range valueobject.AllCurrencies() {
		if c.String() == code {
			return i
		}
	}
	return len(isoCodes)
}

// currencyLabel shows the till code, with the ISO code when they differ
func currencyLabel(code string) string {
	iso, ok := isoCodes[code]
	if !ok {
		return code
	}
	if unit, err := currency.ParseISO(iso); err == nil {
		iso = unit.String()
	}
	if iso == code {
		return code
	}
	return code + " (" + iso + ")"
}

func tenderLabel(tender string) string {
	return cases.Title(language.English).String(strings.ReplaceAll(tender, "_", " "))
}

// formatMoney prints two decimals with thousands separators
func formatMoney(d decimal.Decimal) string {
	s := d.StringFixed(valueobject.CashPlaces)
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	whole, frac, _ := strings.Cut(s, ".")
	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return sign + b.String() + "." + frac
}

func shortID(id interface{ String() string }) string {
	s := id.String()
	if len(s) > 8 {
		return s[:8]
	}
	return s
}

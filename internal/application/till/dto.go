package till

import (
	"time"

	"github.com/google/uuid"
	"github.com/shoppos/backend/internal/domain/sales"
	"github.com/shoppos/backend/internal/domain/shared/valueobject"
	"github.com/shoppos/backend/internal/domain/staff"
	"github.com/shoppos/backend/internal/domain/till"
	"github.com/shopspring/decimal"
)

// Actor is the authenticated user performing an operation
type Actor struct {
	UserID uuid.UUID
	Role   staff.Role
}

// ===================== Requests =====================

// OpenDayRequest opens the shop's current business day
type OpenDayRequest struct {
	ShopID uuid.UUID
	By     uuid.UUID
	Notes  string
}

// CloseDayRequest closes the shop's current business day
type CloseDayRequest struct {
	ShopID uuid.UUID
	By     uuid.UUID
	Notes  string
}

// ApplyLineRequest posts one tender line to a cashier's drawer
type ApplyLineRequest struct {
	ShopID    uuid.UUID
	CashierID uuid.UUID
	Tender    valueobject.Tender
	Currency  valueobject.Currency
	Amount    decimal.Decimal
}

// SetFloatRequest sets the opening float of a drawer
type SetFloatRequest struct {
	ShopID    uuid.UUID
	CashierID uuid.UUID
	Actor     Actor
	Amounts   map[valueobject.Currency]decimal.Decimal
}

// SettleDrawerRequest records a drawer's counted cash
type SettleDrawerRequest struct {
	ShopID    uuid.UUID
	CashierID uuid.UUID
	Actor     Actor
	Counted   map[valueobject.Currency]decimal.Decimal
}

// RecordSaleRequest records a sale or refund with its payment lines
type RecordSaleRequest struct {
	ShopID    uuid.UUID
	CashierID uuid.UUID
	Reference string
	Payments  []sales.Payment
}

// RecordStaffLunchRequest records cash taken from a drawer for staff meals
type RecordStaffLunchRequest struct {
	ShopID      uuid.UUID
	CashierID   uuid.UUID
	Currency    valueobject.Currency
	Amount      decimal.Decimal
	Description string
	RecordedBy  uuid.UUID
}

// ElectronicInput is a non-cash total entered on a count sheet
type ElectronicInput struct {
	Tender   valueobject.Tender
	Currency valueobject.Currency
	Amount   decimal.Decimal
}

// SaveCountSheetRequest stores denomination counts. Only the denominations
// present in Counts are changed; a zero count clears one.
type SaveCountSheetRequest struct {
	ShopID     uuid.UUID
	CashierID  uuid.UUID
	Counts     map[string]int
	Electronic []ElectronicInput
	Notes      *string
}

// CompleteReconciliationRequest finishes the shop's end of day
type CompleteReconciliationRequest struct {
	ShopID uuid.UUID
	Actor  Actor
	Force  bool
}

// ArchiveListFilter filters archive queries
type ArchiveListFilter struct {
	CashierID *uuid.UUID
	From      *time.Time
	To        *time.Time
	Status    *till.ArchiveStatus
	Page      int
	PageSize  int
}

// ===================== Responses =====================

// BusinessDayResponse represents a business day in API responses
type BusinessDayResponse struct {
	ID             uuid.UUID  `json:"id"`
	ShopID         uuid.UUID  `json:"shop_id"`
	Date           string     `json:"date"`
	Status         string     `json:"status"`
	OpenedAt       *time.Time `json:"opened_at,omitempty"`
	OpenedBy       *uuid.UUID `json:"opened_by,omitempty"`
	OpenNotes      string     `json:"open_notes,omitempty"`
	ClosedAt       *time.Time `json:"closed_at,omitempty"`
	ClosedBy       *uuid.UUID `json:"closed_by,omitempty"`
	CloseNotes     string     `json:"close_notes,omitempty"`
	CarriedForward bool       `json:"carried_forward"`
	RolledOverTo   string     `json:"rolled_over_to,omitempty"`
	Version        int        `json:"version"`
}

// ToBusinessDayResponse converts a domain BusinessDay
func ToBusinessDayResponse(d *till.BusinessDay) BusinessDayResponse {
	resp := BusinessDayResponse{
		ID:             d.ID,
		ShopID:         d.ShopID,
		Date:           formatDate(d.Date),
		Status:         d.Status.String(),
		OpenedAt:       d.OpenedAt,
		OpenedBy:       d.OpenedBy,
		OpenNotes:      d.OpenNotes,
		ClosedAt:       d.ClosedAt,
		ClosedBy:       d.ClosedBy,
		CloseNotes:     d.CloseNotes,
		CarriedForward: d.CarriedForward,
		Version:        d.Version,
	}
	if d.RolledOverTo != nil {
		resp.RolledOverTo = formatDate(*d.RolledOverTo)
	}
	return resp
}

// DrawerResponse represents a drawer in API responses
type DrawerResponse struct {
	ID             uuid.UUID                             `json:"id"`
	ShopID         uuid.UUID                             `json:"shop_id"`
	CashierID      uuid.UUID                             `json:"cashier_id"`
	BusinessDate   string                                `json:"business_date"`
	Status         string                                `json:"status"`
	Float          map[string]decimal.Decimal            `json:"float"`
	Current        map[string]map[string]decimal.Decimal `json:"current"`
	SessionSales   map[string]map[string]decimal.Decimal `json:"session_sales"`
	ExpectedCash   map[string]decimal.Decimal            `json:"expected_cash"`
	CountedCash    map[string]decimal.Decimal            `json:"counted_cash"`
	SaleCount      int                                   `json:"sale_count"`
	RefundCount    int                                   `json:"refund_count"`
	LastActivityAt *time.Time                            `json:"last_activity_at,omitempty"`
	FloatSetBy     *uuid.UUID                            `json:"float_set_by,omitempty"`
	FloatSetAt     *time.Time                            `json:"float_set_at,omitempty"`
	SettledAt      *time.Time                            `json:"settled_at,omitempty"`
	Version        int                                   `json:"version"`
}

// ToDrawerResponse converts a domain Drawer
func ToDrawerResponse(d *till.Drawer) DrawerResponse {
	return DrawerResponse{
		ID:             d.ID,
		ShopID:         d.ShopID,
		CashierID:      d.CashierID,
		BusinessDate:   formatDate(d.BusinessDate),
		Status:         d.Status.String(),
		Float:          currencyTable(d.Float),
		Current:        tenderTable(d.Current),
		SessionSales:   tenderTable(d.SessionSales),
		ExpectedCash:   currencyTable(d.ExpectedCash),
		CountedCash:    currencyTable(d.CountedCash),
		SaleCount:      d.SaleCount,
		RefundCount:    d.RefundCount,
		LastActivityAt: d.LastActivityAt,
		FloatSetBy:     d.FloatSetBy,
		FloatSetAt:     d.FloatSetAt,
		SettledAt:      d.SettledAt,
		Version:        d.Version,
	}
}

// ToDrawerResponses converts a slice of drawers
func ToDrawerResponses(drawers []till.Drawer) []DrawerResponse {
	out := make([]DrawerResponse, len(drawers))
	for i := range drawers {
		out[i] = ToDrawerResponse(&drawers[i])
	}
	return out
}

// SettlementLineResponse is the variance of one currency at settlement
type SettlementLineResponse struct {
	Currency    string          `json:"currency"`
	Expected    decimal.Decimal `json:"expected"`
	Actual      decimal.Decimal `json:"actual"`
	Variance    decimal.Decimal `json:"variance"`
	VariancePct decimal.Decimal `json:"variance_pct"`
}

// SettlementResponse is returned when a drawer is settled
type SettlementResponse struct {
	Drawer DrawerResponse           `json:"drawer"`
	Lines  []SettlementLineResponse `json:"lines"`
}

func toSettlementResponse(d *till.Drawer, report *till.SettlementReport) SettlementResponse {
	resp := SettlementResponse{Drawer: ToDrawerResponse(d)}
	for _, l := range report.Lines {
		resp.Lines = append(resp.Lines, SettlementLineResponse{
			Currency:    l.Currency.String(),
			Expected:    l.Expected,
			Actual:      l.Actual,
			Variance:    l.Variance,
			VariancePct: l.VariancePct,
		})
	}
	return resp
}

// DenominationCountResponse is one counted denomination
type DenominationCountResponse struct {
	Code      string          `json:"code"`
	Currency  string          `json:"currency"`
	FaceValue decimal.Decimal `json:"face_value"`
	Kind      string          `json:"kind"`
	Count     int             `json:"count"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

func toDenominationCounts(counts []till.DenominationCount) []DenominationCountResponse {
	out := make([]DenominationCountResponse, 0, len(counts))
	for _, c := range counts {
		out = append(out, DenominationCountResponse{
			Code:      c.Code,
			Currency:  c.Currency.String(),
			FaceValue: c.FaceValue,
			Kind:      string(c.Kind),
			Count:     c.Count,
			Subtotal:  c.Subtotal(),
		})
	}
	return out
}

// CountSheetResponse represents a count sheet in API responses
type CountSheetResponse struct {
	ID            uuid.UUID                             `json:"id"`
	ShopID        uuid.UUID                             `json:"shop_id"`
	CashierID     uuid.UUID                             `json:"cashier_id"`
	BusinessDate  string                                `json:"business_date"`
	Status        string                                `json:"status"`
	Denominations []DenominationCountResponse           `json:"denominations"`
	Electronic    map[string]map[string]decimal.Decimal `json:"electronic"`
	Expected      map[string]map[string]decimal.Decimal `json:"expected"`
	CashTotal     map[string]decimal.Decimal            `json:"cash_total"`
	Variance      map[string]map[string]decimal.Decimal `json:"variance"`
	Notes         string                                `json:"notes,omitempty"`
	CompletedAt   *time.Time                            `json:"completed_at,omitempty"`
	CompletedBy   *uuid.UUID                            `json:"completed_by,omitempty"`
	ReviewedAt    *time.Time                            `json:"reviewed_at,omitempty"`
	ReviewedBy    *uuid.UUID                            `json:"reviewed_by,omitempty"`
	Persisted     bool                                  `json:"persisted"`
	Version       int                                   `json:"version"`
}

// ToCountSheetResponse converts a domain CountSheet
func ToCountSheetResponse(s *till.CountSheet) CountSheetResponse {
	return CountSheetResponse{
		ID:            s.ID,
		ShopID:        s.ShopID,
		CashierID:     s.CashierID,
		BusinessDate:  formatDate(s.BusinessDate),
		Status:        s.Status.String(),
		Denominations: toDenominationCounts(s.DenominationCounts()),
		Electronic:    tenderTable(s.Electronic),
		Expected:      tenderTable(s.Expected),
		CashTotal:     currencyTable(s.CashTotal),
		Variance:      tenderTable(s.Variance),
		Notes:         s.Notes,
		CompletedAt:   s.CompletedAt,
		CompletedBy:   s.CompletedBy,
		ReviewedAt:    s.ReviewedAt,
		ReviewedBy:    s.ReviewedBy,
		Persisted:     true,
		Version:       s.Version,
	}
}

// ToCountSheetResponses converts a slice of count sheets
func ToCountSheetResponses(sheets []till.CountSheet) []CountSheetResponse {
	out := make([]CountSheetResponse, len(sheets))
	for i := range sheets {
		out[i] = ToCountSheetResponse(&sheets[i])
	}
	return out
}

// CurrencyTotalsResponse is the shop-wide position of one currency
type CurrencyTotalsResponse struct {
	Currency string          `json:"currency"`
	Expected decimal.Decimal `json:"expected"`
	Counted  decimal.Decimal `json:"counted"`
	Variance decimal.Decimal `json:"variance"`
}

func toCurrencyTotals(totals []till.CurrencyTotals) []CurrencyTotalsResponse {
	out := make([]CurrencyTotalsResponse, 0, len(totals))
	for _, t := range totals {
		out = append(out, CurrencyTotalsResponse{
			Currency: t.Currency.String(),
			Expected: t.Expected,
			Counted:  t.Counted,
			Variance: t.Variance,
		})
	}
	return out
}

// SummaryResponse is the live reconciliation aggregate for a day
type SummaryResponse struct {
	ShopID          uuid.UUID                             `json:"shop_id"`
	BusinessDate    string                                `json:"business_date"`
	SessionStatus   string                                `json:"session_status"`
	Totals          []CurrencyTotalsResponse              `json:"totals"`
	TenderVariance  map[string]map[string]decimal.Decimal `json:"tender_variance"`
	SubmittedSheets int                                   `json:"submitted_sheets"`
	PendingSheets   int                                   `json:"pending_sheets"`
	PendingCashiers []uuid.UUID                           `json:"pending_cashiers"`
	Display         *CurrencyTotalsResponse               `json:"display,omitempty"`
	DisplayWarning  string                                `json:"display_warning,omitempty"`
}

func toSummaryResponse(summary till.Summary, status till.SessionStatus) SummaryResponse {
	pending := summary.PendingCashiers
	if pending == nil {
		pending = []uuid.UUID{}
	}
	return SummaryResponse{
		ShopID:          summary.ShopID,
		BusinessDate:    formatDate(summary.BusinessDate),
		SessionStatus:   status.String(),
		Totals:          toCurrencyTotals(summary.Totals),
		TenderVariance:  tenderTable(summary.TenderVariance),
		SubmittedSheets: summary.SubmittedSheets,
		PendingSheets:   summary.PendingSheets,
		PendingCashiers: pending,
	}
}

// SessionResponse represents a reconciliation session
type SessionResponse struct {
	ID            uuid.UUID                `json:"id"`
	ShopID        uuid.UUID                `json:"shop_id"`
	BusinessDate  string                   `json:"business_date"`
	Status        string                   `json:"status"`
	Totals        []CurrencyTotalsResponse `json:"totals,omitempty"`
	SheetCount    int                      `json:"sheet_count"`
	ArchivedCount int                      `json:"archived_count"`
	Forced        bool                     `json:"forced"`
	StartedAt     *time.Time               `json:"started_at,omitempty"`
	StartedBy     *uuid.UUID               `json:"started_by,omitempty"`
	CompletedAt   *time.Time               `json:"completed_at,omitempty"`
	CompletedBy   *uuid.UUID               `json:"completed_by,omitempty"`
	ReconciledAt  *time.Time               `json:"reconciled_at,omitempty"`
	ReconciledBy  *uuid.UUID               `json:"reconciled_by,omitempty"`
	Version       int                      `json:"version"`
}

// ToSessionResponse converts a domain ReconciliationSession
func ToSessionResponse(r *till.ReconciliationSession) SessionResponse {
	return SessionResponse{
		ID:            r.ID,
		ShopID:        r.ShopID,
		BusinessDate:  formatDate(r.BusinessDate),
		Status:        r.Status.String(),
		Totals:        toCurrencyTotals(r.Totals),
		SheetCount:    r.SheetCount,
		ArchivedCount: r.ArchivedCount,
		Forced:        r.Forced,
		StartedAt:     r.StartedAt,
		StartedBy:     r.StartedBy,
		CompletedAt:   r.CompletedAt,
		CompletedBy:   r.CompletedBy,
		ReconciledAt:  r.ReconciledAt,
		ReconciledBy:  r.ReconciledBy,
		Version:       r.Version,
	}
}

// ArchiveLineResponse is the archived cash position of one currency
type ArchiveLineResponse struct {
	Currency string          `json:"currency"`
	Expected decimal.Decimal `json:"expected"`
	Counted  decimal.Decimal `json:"counted"`
	Variance decimal.Decimal `json:"variance"`
	Status   string          `json:"status"`
}

// ArchiveResponse represents an archived count sheet
type ArchiveResponse struct {
	ID            uuid.UUID                             `json:"id"`
	ShopID        uuid.UUID                             `json:"shop_id"`
	SessionID     uuid.UUID                             `json:"session_id"`
	CountSheetID  uuid.UUID                             `json:"count_sheet_id"`
	CashierID     uuid.UUID                             `json:"cashier_id"`
	BusinessDate  string                                `json:"business_date"`
	SheetStatus   string                                `json:"sheet_status"`
	Status        string                                `json:"status"`
	Lines         []ArchiveLineResponse                 `json:"lines"`
	Denominations []DenominationCountResponse           `json:"denominations"`
	Electronic    map[string]map[string]decimal.Decimal `json:"electronic"`
	Expected      map[string]map[string]decimal.Decimal `json:"expected"`
	Variance      map[string]map[string]decimal.Decimal `json:"variance"`
	ArchivedAt    time.Time                             `json:"archived_at"`
	ArchivedBy    uuid.UUID                             `json:"archived_by"`
}

// ToArchiveResponse converts a domain CountArchive
func ToArchiveResponse(a *till.CountArchive) ArchiveResponse {
	resp := ArchiveResponse{
		ID:            a.ID,
		ShopID:        a.ShopID,
		SessionID:     a.SessionID,
		CountSheetID:  a.CountSheetID,
		CashierID:     a.CashierID,
		BusinessDate:  formatDate(a.BusinessDate),
		SheetStatus:   a.SheetStatus.String(),
		Status:        string(a.Status),
		Denominations: toDenominationCounts(a.Counts),
		Electronic:    tenderTable(a.Electronic),
		Expected:      tenderTable(a.Expected),
		Variance:      tenderTable(a.Variance),
		ArchivedAt:    a.ArchivedAt,
		ArchivedBy:    a.ArchivedBy,
	}
	for _, l := range a.Lines {
		resp.Lines = append(resp.Lines, ArchiveLineResponse{
			Currency: l.Currency.String(),
			Expected: l.Expected,
			Counted:  l.Counted,
			Variance: l.Variance,
			Status:   string(l.Status),
		})
	}
	return resp
}

// ToArchiveResponses converts a slice of archives
func ToArchiveResponses(archives []till.CountArchive) []ArchiveResponse {
	out := make([]ArchiveResponse, len(archives))
	for i := range archives {
		out[i] = ToArchiveResponse(&archives[i])
	}
	return out
}

// CompleteReconciliationResponse is returned when the end of day completes
type CompleteReconciliationResponse struct {
	Session  SessionResponse     `json:"session"`
	Day      BusinessDayResponse `json:"day"`
	Archives []ArchiveResponse   `json:"archives"`
}

// PaymentResponse is one payment line of a sale
type PaymentResponse struct {
	Tender   string          `json:"tender"`
	Currency string          `json:"currency"`
	Amount   decimal.Decimal `json:"amount"`
}

// SaleResponse represents a sale or refund
type SaleResponse struct {
	ID           uuid.UUID         `json:"id"`
	ShopID       uuid.UUID         `json:"shop_id"`
	CashierID    uuid.UUID         `json:"cashier_id"`
	BusinessDate string            `json:"business_date"`
	Reference    string            `json:"reference"`
	Kind         string            `json:"kind"`
	Status       string            `json:"status"`
	Payments     []PaymentResponse `json:"payments"`
	RecordedAt   time.Time         `json:"recorded_at"`
	Duplicate    bool              `json:"duplicate"`
}

// ToSaleResponse converts a domain Sale
func ToSaleResponse(s *sales.Sale) SaleResponse {
	resp := SaleResponse{
		ID:           s.ID,
		ShopID:       s.ShopID,
		CashierID:    s.CashierID,
		BusinessDate: formatDate(s.BusinessDate),
		Reference:    s.Reference,
		Kind:         string(s.Kind),
		Status:       string(s.Status),
		RecordedAt:   s.RecordedAt,
	}
	for _, p := range s.Payments {
		resp.Payments = append(resp.Payments, PaymentResponse{
			Tender:   p.Tender.String(),
			Currency: p.Currency.String(),
			Amount:   p.Amount,
		})
	}
	return resp
}

// StaffLunchResponse represents a staff lunch deduction
type StaffLunchResponse struct {
	ID           uuid.UUID       `json:"id"`
	ShopID       uuid.UUID       `json:"shop_id"`
	CashierID    uuid.UUID       `json:"cashier_id"`
	BusinessDate string          `json:"business_date"`
	Currency     string          `json:"currency"`
	Amount       decimal.Decimal `json:"amount"`
	Description  string          `json:"description,omitempty"`
	RecordedBy   uuid.UUID       `json:"recorded_by"`
	RecordedAt   time.Time       `json:"recorded_at"`
}

// ToStaffLunchResponse converts a domain StaffLunch
func ToStaffLunchResponse(l *sales.StaffLunch) StaffLunchResponse {
	return StaffLunchResponse{
		ID:           l.ID,
		ShopID:       l.ShopID,
		CashierID:    l.CashierID,
		BusinessDate: formatDate(l.BusinessDate),
		Currency:     l.Amount.Currency().String(),
		Amount:       l.Amount.Amount(),
		Description:  l.Description,
		RecordedBy:   l.RecordedBy,
		RecordedAt:   l.RecordedAt,
	}
}

func currencyTable(a valueobject.CurrencyAmounts) map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(valueobject.AllCurrencies()))
	for _, c := range valueobject.AllCurrencies() {
		out[c.String()] = a.Get(c)
	}
	return out
}

func tenderTable(t valueobject.TenderTotals) map[string]map[string]decimal.Decimal {
	out := make(map[string]map[string]decimal.Decimal, len(valueobject.AllTenders()))
	for _, tender := range valueobject.AllTenders() {
		row := make(map[string]decimal.Decimal, len(valueobject.AllCurrencies()))
		for _, c := range valueobject.AllCurrencies() {
			row[c.String()] = t.Get(tender, c)
		}
		out[tender.String()] = row
	}
	return out
}

func formatDate(t time.Time) string {
	return t.Format(time.DateOnly)
}

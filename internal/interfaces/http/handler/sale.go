package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	apptill "github.com/shoppos/backend/internal/application/till"
	"github.com/shoppos/backend/internal/domain/sales"
	"github.com/shoppos/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// SaleRecorder observes posted sales
type SaleRecorder interface {
	RecordSale(ctx context.Context, kind, tender, currency string, amount decimal.Decimal)
}

// SaleHandler handles the sales ledger
type SaleHandler struct {
	BaseHandler
	sales   *apptill.SaleService
	metrics SaleRecorder
}

// NewSaleHandler creates a new SaleHandler. metrics may be nil.
func NewSaleHandler(sales *apptill.SaleService, metrics SaleRecorder) *SaleHandler {
	return &SaleHandler{sales: sales, metrics: metrics}
}

// RecordSaleRequest posts a sale or refund. CashierID defaults to the
// caller; only managers may post for another cashier.
type RecordSaleRequest struct {
	Reference string        `json:"reference" binding:"required,max=100"`
	CashierID *uuid.UUID    `json:"cashier_id"`
	Payments  []PaymentLine `json:"payments" binding:"required,min=1,dive"`
}

// StaffLunchRequest records a staff lunch taken out of a drawer
type StaffLunchRequest struct {
	CashierID   *uuid.UUID      `json:"cashier_id"`
	Currency    string          `json:"currency" binding:"required,currency"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description" binding:"max=200"`
}

// RecordSale posts a sale to the cashier's drawer
//
//	@Router	/shops/{shop_id}/sales [post]
func (h *SaleHandler) RecordSale(c *gin.Context) {
	h.record(c, sales.KindSale)
}

// RecordRefund posts a refund out of the cashier's drawer
//
//	@Router	/shops/{shop_id}/refunds [post]
func (h *SaleHandler) RecordRefund(c *gin.Context) {
	h.record(c, sales.KindRefund)
}

func (h *SaleHandler) record(c *gin.Context, kind sales.Kind) {
	shop, a, ok := h.shopAndActor(c)
	if !ok {
		return
	}
	var req RecordSaleRequest
	if !h.bindJSON(c, &req) {
		return
	}
	cashierID := a.UserID
	if req.CashierID != nil {
		cashierID = *req.CashierID
	}
	if !h.ownOrManager(c, a, cashierID) {
		return
	}

	payments := make([]sales.Payment, 0, len(req.Payments))
	for _, line := range req.Payments {
		tender, cur, err := line.parse()
		if err != nil {
			h.HandleError(c, err)
			return
		}
		payments = append(payments, sales.Payment{Tender: tender, Currency: cur, Amount: line.Amount})
	}

	appReq := apptill.RecordSaleRequest{
		ShopID:    shop,
		CashierID: cashierID,
		Reference: req.Reference,
		Payments:  payments,
	}
	var resp *apptill.SaleResponse
	var err error
	if kind == sales.KindRefund {
		resp, err = h.sales.RecordRefund(c.Request.Context(), appReq)
	} else {
		resp, err = h.sales.RecordSale(c.Request.Context(), appReq)
	}
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if resp.Duplicate {
		h.Success(c, resp)
		return
	}
	if h.metrics != nil {
		for _, p := range resp.Payments {
			h.metrics.RecordSale(c.Request.Context(), resp.Kind, p.Tender, p.Currency, p.Amount)
		}
	}
	h.Created(c, resp)
}

// ListSales returns the sales of a day (?date=)
func (h *SaleHandler) ListSales(c *gin.Context) {
	shop, err := shopID(c)
	if err != nil {
		h.BadRequest(c, "Invalid shop ID")
		return
	}
	date, ok := h.dateQuery(c, "date")
	if !ok {
		return
	}
	out, err := h.sales.ListSales(c.Request.Context(), shop, date)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, out)
}

// RecordStaffLunch records a staff lunch deduction
func (h *SaleHandler) RecordStaffLunch(c *gin.Context) {
	shop, a, ok := h.shopAndActor(c)
	if !ok {
		return
	}
	var req StaffLunchRequest
	if !h.bindJSON(c, &req) {
		return
	}
	cashierID := a.UserID
	if req.CashierID != nil {
		cashierID = *req.CashierID
	}
	if !h.ownOrManager(c, a, cashierID) {
		return
	}
	cur, err := valueobject.ParseCurrency(req.Currency)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	lunch, err := h.sales.RecordStaffLunch(c.Request.Context(), apptill.RecordStaffLunchRequest{
		ShopID:      shop,
		CashierID:   cashierID,
		Currency:    cur,
		Amount:      req.Amount,
		Description: req.Description,
		RecordedBy:  a.UserID,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, lunch)
}

// ListStaffLunches returns the staff lunches of a day (?date=)
func (h *SaleHandler) ListStaffLunches(c *gin.Context) {
	shop, err := shopID(c)
	if err != nil {
		h.BadRequest(c, "Invalid shop ID")
		return
	}
	date, ok := h.dateQuery(c, "date")
	if !ok {
		return
	}
	out, err := h.sales.ListStaffLunches(c.Request.Context(), shop, date)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, out)
}

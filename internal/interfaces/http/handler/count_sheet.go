package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	apptill "github.com/shoppos/backend/internal/application/till"
)

// CountSheetHandler handles the cashiers' end-of-day counts
type CountSheetHandler struct {
	BaseHandler
	sheets *apptill.CountSheetService
}

// NewCountSheetHandler creates a new CountSheetHandler
func NewCountSheetHandler(sheets *apptill.CountSheetService) *CountSheetHandler {
	return &CountSheetHandler{sheets: sheets}
}

// SaveCountSheetRequest is a full replacement of a sheet's counts
type SaveCountSheetRequest struct {
	// Counts maps denomination codes ("USD_20") to a number of notes or coins
	Counts     map[string]int `json:"counts" binding:"dive,gte=0"`
	Electronic []PaymentLine  `json:"electronic" binding:"dive"`
	Notes      *string        `json:"notes" binding:"omitempty,max=1000"`
}

// Denominations lists the countable notes and coins per currency
func (h *CountSheetHandler) Denominations(c *gin.Context) {
	h.Success(c, h.sheets.Denominations())
}

// List returns the sheets of a day (?date=, default today)
func (h *CountSheetHandler) List(c *gin.Context) {
	shop, err := shopID(c)
	if err != nil {
		h.BadRequest(c, "Invalid shop ID")
		return
	}
	date, ok := h.dateQuery(c, "date")
	if !ok {
		return
	}
	sheets, err := h.sheets.List(c.Request.Context(), shop, date)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, sheets)
}

// Get returns a cashier's sheet, or a fresh unsaved one
func (h *CountSheetHandler) Get(c *gin.Context) {
	shop, _, cashierID, ok := h.cashierTarget(c)
	if !ok {
		return
	}
	date, ok := h.dateQuery(c, "date")
	if !ok {
		return
	}
	sheet, err := h.sheets.Get(c.Request.Context(), shop, cashierID, date)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, sheet)
}

// Save stores the denomination counts and electronic totals of a sheet
//
//	@Router	/shops/{shop_id}/count-sheets/{cashier_id} [put]
func (h *CountSheetHandler) Save(c *gin.Context) {
	shop, _, cashierID, ok := h.cashierTarget(c)
	if !ok {
		return
	}
	var req SaveCountSheetRequest
	if !h.bindJSON(c, &req) {
		return
	}
	electronic := make([]apptill.ElectronicInput, 0, len(req.Electronic))
	for _, line := range req.Electronic {
		tender, cur, err := line.parse()
		if err != nil {
			h.HandleError(c, err)
			return
		}
		electronic = append(electronic, apptill.ElectronicInput{Tender: tender, Currency: cur, Amount: line.Amount})
	}
	sheet, err := h.sheets.Save(c.Request.Context(), apptill.SaveCountSheetRequest{
		ShopID:     shop,
		CashierID:  cashierID,
		Counts:     req.Counts,
		Electronic: electronic,
		Notes:      req.Notes,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, sheet)
}

// Recompute previews the sheet with expected totals re-derived from the
// sales and staff-lunch ledgers. The drawer counters are not consulted.
func (h *CountSheetHandler) Recompute(c *gin.Context) {
	shop, _, cashierID, ok := h.cashierTarget(c)
	if !ok {
		return
	}
	sheet, err := h.sheets.RecomputeExpected(c.Request.Context(), shop, cashierID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, sheet)
}

// Complete submits a sheet
func (h *CountSheetHandler) Complete(c *gin.Context) {
	shop, a, cashierID, ok := h.cashierTarget(c)
	if !ok {
		return
	}
	sheet, err := h.sheets.Complete(c.Request.Context(), shop, cashierID, a)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, sheet)
}

// Review marks a submitted sheet as reviewed by a manager
func (h *CountSheetHandler) Review(c *gin.Context) {
	shop, a, ok := h.shopAndActor(c)
	if !ok {
		return
	}
	cashierID, ok := h.uuidParam(c, "cashier_id")
	if !ok {
		return
	}
	sheet, err := h.sheets.Review(c.Request.Context(), shop, cashierID, a)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, sheet)
}

func (h *CountSheetHandler) cashierTarget(c *gin.Context) (uuid.UUID, apptill.Actor, uuid.UUID, bool) {
	shop, a, ok := h.shopAndActor(c)
	if !ok {
		return uuid.Nil, a, uuid.Nil, false
	}
	cashierID, ok := h.uuidParam(c, "cashier_id")
	if !ok || !h.ownOrManager(c, a, cashierID) {
		return uuid.Nil, a, uuid.Nil, false
	}
	return shop, a, cashierID, true
}

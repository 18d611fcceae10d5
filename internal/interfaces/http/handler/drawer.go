package handler

import (
	"github.com/gin-gonic/gin"
	apptill "github.com/shoppos/backend/internal/application/till"
	"github.com/shopspring/decimal"
)

// DrawerHandler handles cashier drawers
type DrawerHandler struct {
	BaseHandler
	drawers *apptill.DrawerService
}

// NewDrawerHandler creates a new DrawerHandler
func NewDrawerHandler(drawers *apptill.DrawerService) *DrawerHandler {
	return &DrawerHandler{drawers: drawers}
}

// CurrencyAmountsRequest carries one amount per currency code
type CurrencyAmountsRequest struct {
	Amounts map[string]decimal.Decimal `json:"amounts" binding:"required,min=1"`
}

// List returns every drawer of a day (?date=, default today)
func (h *DrawerHandler) List(c *gin.Context) {
	shop, err := shopID(c)
	if err != nil {
		h.BadRequest(c, "Invalid shop ID")
		return
	}
	date, ok := h.dateQuery(c, "date")
	if !ok {
		return
	}
	drawers, err := h.drawers.List(c.Request.Context(), shop, date)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, drawers)
}

// Get returns one cashier's drawer
func (h *DrawerHandler) Get(c *gin.Context) {
	shop, a, ok := h.shopAndActor(c)
	if !ok {
		return
	}
	cashierID, ok := h.uuidParam(c, "cashier_id")
	if !ok || !h.ownOrManager(c, a, cashierID) {
		return
	}
	date, ok := h.dateQuery(c, "date")
	if !ok {
		return
	}
	drawer, err := h.drawers.Get(c.Request.Context(), shop, cashierID, date)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, drawer)
}

// SetFloat replaces the opening float of a drawer
//
//	@Router	/shops/{shop_id}/drawers/{cashier_id}/float [put]
func (h *DrawerHandler) SetFloat(c *gin.Context) {
	shop, a, ok := h.shopAndActor(c)
	if !ok {
		return
	}
	cashierID, ok := h.uuidParam(c, "cashier_id")
	if !ok {
		return
	}
	var req CurrencyAmountsRequest
	if !h.bindJSON(c, &req) {
		return
	}
	amounts, err := currencyAmounts(req.Amounts)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	drawer, err := h.drawers.SetFloat(c.Request.Context(), apptill.SetFloatRequest{
		ShopID:    shop,
		CashierID: cashierID,
		Actor:     a,
		Amounts:   amounts,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, drawer)
}

// Settle records the counted cash and returns the settlement report
//
//	@Router	/shops/{shop_id}/drawers/{cashier_id}/settle [post]
func (h *DrawerHandler) Settle(c *gin.Context) {
	shop, a, ok := h.shopAndActor(c)
	if !ok {
		return
	}
	cashierID, ok := h.uuidParam(c, "cashier_id")
	if !ok {
		return
	}
	var req CurrencyAmountsRequest
	if !h.bindJSON(c, &req) {
		return
	}
	counted, err := currencyAmounts(req.Amounts)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	report, err := h.drawers.Settle(c.Request.Context(), apptill.SettleDrawerRequest{
		ShopID:    shop,
		CashierID: cashierID,
		Actor:     a,
		Counted:   counted,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, report)
}

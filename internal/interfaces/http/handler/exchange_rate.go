package handler

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	appfx "github.com/shoppos/backend/internal/application/fx"
	"github.com/shoppos/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// ExchangeRateHandler handles exchange rates and conversions
type ExchangeRateHandler struct {
	BaseHandler
	rates *appfx.ExchangeRateService
}

// NewExchangeRateHandler creates a new ExchangeRateHandler
func NewExchangeRateHandler(rates *appfx.ExchangeRateService) *ExchangeRateHandler {
	return &ExchangeRateHandler{rates: rates}
}

// RecordRateRequest records how many units of a currency one USD buys
type RecordRateRequest struct {
	Currency      string          `json:"currency" binding:"required,currency"`
	PerUSD        decimal.Decimal `json:"per_usd"`
	EffectiveDate string          `json:"effective_date" binding:"omitempty,datetime=2006-01-02"`
}

// Record stores a rate, replacing one for the same currency and date
//
//	@Router	/shops/{shop_id}/exchange-rates [post]
func (h *ExchangeRateHandler) Record(c *gin.Context) {
	shop, a, ok := h.shopAndActor(c)
	if !ok {
		return
	}
	var req RecordRateRequest
	if !h.bindJSON(c, &req) {
		return
	}
	cur, err := valueobject.ParseCurrency(req.Currency)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	appReq := appfx.RecordRateRequest{ShopID: shop, Currency: cur, PerUSD: req.PerUSD, RecordedBy: a.UserID}
	if req.EffectiveDate != "" {
		d, _ := time.Parse(time.DateOnly, req.EffectiveDate)
		appReq.EffectiveDate = &d
	}
	rate, err := h.rates.RecordRate(c.Request.Context(), appReq)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, rate)
}

// List returns the latest rates (?limit=, at most 500)
func (h *ExchangeRateHandler) List(c *gin.Context) {
	shop, err := shopID(c)
	if err != nil {
		h.BadRequest(c, "Invalid shop ID")
		return
	}
	limit, _ := strconv.Atoi(c.Query("limit"))
	rates, err := h.rates.List(c.Request.Context(), shop, limit)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, rates)
}

// Convert quotes ?amount= in ?from= as ?to= using the rates effective on
// ?date= (default today)
//
//	@Router	/shops/{shop_id}/exchange-rates/convert [get]
func (h *ExchangeRateHandler) Convert(c *gin.Context) {
	shop, err := shopID(c)
	if err != nil {
		h.BadRequest(c, "Invalid shop ID")
		return
	}
	amount, err := decimal.NewFromString(c.Query("amount"))
	if err != nil {
		h.BadRequest(c, "amount must be a decimal number")
		return
	}
	from, err := valueobject.ParseCurrency(c.Query("from"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	to, err := valueobject.ParseCurrency(c.Query("to"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	date, ok := h.dateQuery(c, "date")
	if !ok {
		return
	}
	asOf := time.Now().UTC()
	if date != nil {
		asOf = *date
	}
	quote, err := h.rates.Quote(c.Request.Context(), shop, amount, from, to, asOf)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, quote)
}

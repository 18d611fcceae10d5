package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	apptill "github.com/shoppos/backend/internal/application/till"
)

// maxDayRange bounds the day history listing
const maxDayRange = 92 * 24 * time.Hour

// BusinessDayHandler handles the business day lifecycle
type BusinessDayHandler struct {
	BaseHandler
	days *apptill.BusinessDayService
}

// NewBusinessDayHandler creates a new BusinessDayHandler
func NewBusinessDayHandler(days *apptill.BusinessDayService) *BusinessDayHandler {
	return &BusinessDayHandler{days: days}
}

// DayNotesRequest is the optional body of open and close
type DayNotesRequest struct {
	Notes string `json:"notes" binding:"max=500"`
}

// Current returns today's business day, carrying an unclosed earlier day
// forward first
//
//	@Router	/shops/{shop_id}/day [get]
func (h *BusinessDayHandler) Current(c *gin.Context) {
	shop, err := shopID(c)
	if err != nil {
		h.BadRequest(c, "Invalid shop ID")
		return
	}
	day, err := h.days.CurrentFor(c.Request.Context(), shop)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, day)
}

// Open opens today's business day
//
//	@Router	/shops/{shop_id}/day/open [post]
func (h *BusinessDayHandler) Open(c *gin.Context) {
	shop, a, ok := h.shopAndActor(c)
	if !ok {
		return
	}
	var req DayNotesRequest
	if c.Request.ContentLength > 0 && !h.bindJSON(c, &req) {
		return
	}
	day, err := h.days.Open(c.Request.Context(), apptill.OpenDayRequest{ShopID: shop, By: a.UserID, Notes: req.Notes})
	if err != nil {
		h.handleDayError(c, err, dayStatus(c.Request.Context(), h.days, shop))
		return
	}
	h.Success(c, day)
}

// Close closes today's business day
//
//	@Router	/shops/{shop_id}/day/close [post]
func (h *BusinessDayHandler) Close(c *gin.Context) {
	shop, a, ok := h.shopAndActor(c)
	if !ok {
		return
	}
	var req DayNotesRequest
	if c.Request.ContentLength > 0 && !h.bindJSON(c, &req) {
		return
	}
	day, err := h.days.Close(c.Request.Context(), apptill.CloseDayRequest{ShopID: shop, By: a.UserID, Notes: req.Notes})
	if err != nil {
		h.handleDayError(c, err, dayStatus(c.Request.Context(), h.days, shop))
		return
	}
	h.Success(c, day)
}

// Get returns the business day of a date
//
//	@Router	/shops/{shop_id}/days/{date} [get]
func (h *BusinessDayHandler) Get(c *gin.Context) {
	shop, err := shopID(c)
	if err != nil {
		h.BadRequest(c, "Invalid shop ID")
		return
	}
	date, ok := h.dateParam(c, "date")
	if !ok {
		return
	}
	day, err := h.days.Get(c.Request.Context(), shop, date)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, day)
}

// List returns the days between from and to, the last 30 days by default
//
//	@Router	/shops/{shop_id}/days [get]
func (h *BusinessDayHandler) List(c *gin.Context) {
	shop, err := shopID(c)
	if err != nil {
		h.BadRequest(c, "Invalid shop ID")
		return
	}
	from, ok := h.dateQuery(c, "from")
	if !ok {
		return
	}
	to, ok := h.dateQuery(c, "to")
	if !ok {
		return
	}
	end := h.days.Today()
	if to != nil {
		end = *to
	}
	start := end.AddDate(0, 0, -30)
	if from != nil {
		start = *from
	}
	if end.Before(start) {
		h.BadRequest(c, "from must not be after to")
		return
	}
	if end.Sub(start) > maxDayRange {
		h.BadRequest(c, "date range is limited to 92 days")
		return
	}
	days, err := h.days.List(c.Request.Context(), shop, start, end)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, days)
}

// dayStatus looks up the current status for an error envelope; "" when the
// lookup itself fails
func dayStatus(ctx context.Context, days *apptill.BusinessDayService, shop uuid.UUID) string {
	day, err := days.CurrentFor(ctx, shop)
	if err != nil {
		return ""
	}
	return day.Status
}

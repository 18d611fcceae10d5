package handler

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	apptill "github.com/shoppos/backend/internal/application/till"
	"github.com/shoppos/backend/internal/domain/shared/valueobject"
	"github.com/shoppos/backend/internal/domain/till"
	"github.com/shoppos/backend/internal/interfaces/http/dto"
	"github.com/shoppos/backend/internal/interfaces/http/middleware"
)

// ReconciliationHandler handles the end-of-day reconciliation and the
// count archive
type ReconciliationHandler struct {
	BaseHandler
	recon *apptill.ReconciliationService
	days  *apptill.BusinessDayService
}

// NewReconciliationHandler creates a new ReconciliationHandler
func NewReconciliationHandler(recon *apptill.ReconciliationService, days *apptill.BusinessDayService) *ReconciliationHandler {
	return &ReconciliationHandler{recon: recon, days: days}
}

// CompleteRequest is the optional body of Complete
type CompleteRequest struct {
	Force bool `json:"force"`
}

// Get returns the reconciliation session of a day (?date=)
func (h *ReconciliationHandler) Get(c *gin.Context) {
	shop, err := shopID(c)
	if err != nil {
		h.BadRequest(c, "Invalid shop ID")
		return
	}
	date, ok := h.dateQuery(c, "date")
	if !ok {
		return
	}
	session, err := h.recon.Get(c.Request.Context(), shop, date)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, session)
}

// Start moves today's session to IN_PROGRESS
func (h *ReconciliationHandler) Start(c *gin.Context) {
	shop, a, ok := h.shopAndActor(c)
	if !ok {
		return
	}
	session, err := h.recon.Start(c.Request.Context(), shop, a)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, session)
}

// AwaitCounts moves today's session to AWAITING_COUNTS
func (h *ReconciliationHandler) AwaitCounts(c *gin.Context) {
	shop, a, ok := h.shopAndActor(c)
	if !ok {
		return
	}
	session, err := h.recon.AwaitCounts(c.Request.Context(), shop, a)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, session)
}

// Summary aggregates the day's count sheets. ?display=ZIG adds the totals
// converted into that currency.
//
//	@Router	/shops/{shop_id}/reconciliation/summary [get]
func (h *ReconciliationHandler) Summary(c *gin.Context) {
	shop, err := shopID(c)
	if err != nil {
		h.BadRequest(c, "Invalid shop ID")
		return
	}
	date, ok := h.dateQuery(c, "date")
	if !ok {
		return
	}
	var display *valueobject.Currency
	if raw := c.Query("display"); raw != "" {
		cur, err := valueobject.ParseCurrency(raw)
		if err != nil {
			h.HandleError(c, err)
			return
		}
		display = &cur
	}
	summary, err := h.recon.Summary(c.Request.Context(), shop, date, display)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, summary)
}

// Complete archives the counts and closes today's business day. Pending
// sheets fail with COUNTS_PENDING unless force is set (?force=true or
// {"force": true}).
//
//	@Router	/shops/{shop_id}/reconciliation/complete [post]
func (h *ReconciliationHandler) Complete(c *gin.Context) {
	shop, a, ok := h.shopAndActor(c)
	if !ok {
		return
	}
	req := CompleteRequest{Force: boolQuery(c, "force")}
	if c.Request.ContentLength > 0 && !h.bindJSON(c, &req) {
		return
	}
	resp, err := h.recon.Complete(c.Request.Context(), apptill.CompleteReconciliationRequest{
		ShopID: shop,
		Actor:  a,
		Force:  req.Force,
	})
	if err != nil {
		h.handleDayError(c, err, dayStatus(c.Request.Context(), h.days, shop))
		return
	}
	h.Success(c, resp)
}

// MarkReconciled records the owner's audit of a completed day
func (h *ReconciliationHandler) MarkReconciled(c *gin.Context) {
	shop, a, ok := h.shopAndActor(c)
	if !ok {
		return
	}
	date, ok := h.dateParam(c, "date")
	if !ok {
		return
	}
	session, err := h.recon.MarkReconciled(c.Request.Context(), shop, date, a)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, session)
}

// ArchivesForDay returns the archived counts of one day
func (h *ReconciliationHandler) ArchivesForDay(c *gin.Context) {
	shop, err := shopID(c)
	if err != nil {
		h.BadRequest(c, "Invalid shop ID")
		return
	}
	date, ok := h.dateParam(c, "date")
	if !ok {
		return
	}
	archives, err := h.recon.ArchivesForDay(c.Request.Context(), shop, date)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, archives)
}

// ListArchives queries the archive by cashier, date range and status
//
//	@Router	/shops/{shop_id}/archives [get]
func (h *ReconciliationHandler) ListArchives(c *gin.Context) {
	shop, err := shopID(c)
	if err != nil {
		h.BadRequest(c, "Invalid shop ID")
		return
	}
	var filter apptill.ArchiveListFilter
	if raw := c.Query("cashier_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			h.BadRequest(c, "Invalid cashier_id")
			return
		}
		filter.CashierID = &id
	}
	var ok bool
	if filter.From, ok = h.dateQuery(c, "from"); !ok {
		return
	}
	if filter.To, ok = h.dateQuery(c, "to"); !ok {
		return
	}
	if raw := c.Query("status"); raw != "" {
		status, ok := parseArchiveStatus(raw)
		if !ok {
			h.BadRequest(c, "status must be one of BALANCED, SHORTAGE, OVER")
			return
		}
		filter.Status = &status
	}

	var page dto.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		h.ValidationError(c, middleware.ValidationDetails(err))
		return
	}
	page.Normalize()
	filter.Page, filter.PageSize = page.Page, page.PageSize

	archives, total, err := h.recon.ListArchives(c.Request.Context(), shop, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, archives, total, page.Page, page.PageSize)
}

func parseArchiveStatus(raw string) (till.ArchiveStatus, bool) {
	switch s := till.ArchiveStatus(strings.ToUpper(raw)); s {
	case till.ArchiveStatusBalanced, till.ArchiveStatusShortage, till.ArchiveStatusOver:
		return s, true
	}
	return "", false
}

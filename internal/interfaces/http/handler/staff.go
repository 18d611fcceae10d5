package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	appstaff "github.com/shoppos/backend/internal/application/staff"
	"github.com/shoppos/backend/internal/domain/staff"
)

// StaffHandler handles the cashier roster and shifts
type StaffHandler struct {
	BaseHandler
	cashiers *appstaff.CashierService
	shifts   *appstaff.ShiftService
}

// NewStaffHandler creates a new StaffHandler
func NewStaffHandler(cashiers *appstaff.CashierService, shifts *appstaff.ShiftService) *StaffHandler {
	return &StaffHandler{cashiers: cashiers, shifts: shifts}
}

// RegisterCashierRequest adds a user to the shop's roster
type RegisterCashierRequest struct {
	UserID      uuid.UUID `json:"user_id" binding:"required"`
	DisplayName string    `json:"display_name" binding:"required,max=100"`
	Role        string    `json:"role" binding:"required,oneof=owner admin cashier"`
}

// EndShiftRequest is the optional body of EndShift
type EndShiftRequest struct {
	Reason string `json:"reason" binding:"max=200"`
}

// RegisterCashier adds a cashier to the roster
//
//	@Router	/shops/{shop_id}/cashiers [post]
func (h *StaffHandler) RegisterCashier(c *gin.Context) {
	shop, err := shopID(c)
	if err != nil {
		h.BadRequest(c, "Invalid shop ID")
		return
	}
	var req RegisterCashierRequest
	if !h.bindJSON(c, &req) {
		return
	}
	cashier, err := h.cashiers.Register(c.Request.Context(), appstaff.RegisterCashierRequest{
		ShopID:      shop,
		UserID:      req.UserID,
		DisplayName: req.DisplayName,
		Role:        staff.Role(req.Role),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, cashier)
}

// ListCashiers returns the roster (?active=true for active cashiers only)
func (h *StaffHandler) ListCashiers(c *gin.Context) {
	shop, err := shopID(c)
	if err != nil {
		h.BadRequest(c, "Invalid shop ID")
		return
	}
	cashiers, err := h.cashiers.List(c.Request.Context(), shop, boolQuery(c, "active"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, cashiers)
}

// GetCashier returns one roster entry
func (h *StaffHandler) GetCashier(c *gin.Context) {
	shop, err := shopID(c)
	if err != nil {
		h.BadRequest(c, "Invalid shop ID")
		return
	}
	userID, ok := h.uuidParam(c, "user_id")
	if !ok {
		return
	}
	cashier, err := h.cashiers.Get(c.Request.Context(), shop, userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, cashier)
}

// DeactivateCashier removes a cashier from drawer provisioning
func (h *StaffHandler) DeactivateCashier(c *gin.Context) {
	h.setActive(c, false)
}

// ActivateCashier puts a cashier back on the roster
func (h *StaffHandler) ActivateCashier(c *gin.Context) {
	h.setActive(c, true)
}

func (h *StaffHandler) setActive(c *gin.Context, active bool) {
	shop, err := shopID(c)
	if err != nil {
		h.BadRequest(c, "Invalid shop ID")
		return
	}
	userID, ok := h.uuidParam(c, "user_id")
	if !ok {
		return
	}
	var cashier *appstaff.CashierResponse
	if active {
		cashier, err = h.cashiers.Activate(c.Request.Context(), shop, userID)
	} else {
		cashier, err = h.cashiers.Deactivate(c.Request.Context(), shop, userID)
	}
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, cashier)
}

// StartShift starts the caller's shift in the open business day
func (h *StaffHandler) StartShift(c *gin.Context) {
	shop, a, ok := h.shopAndActor(c)
	if !ok {
		return
	}
	shift, err := h.shifts.Start(c.Request.Context(), shop, a.UserID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, shift)
}

// EndShift ends the caller's open shift
func (h *StaffHandler) EndShift(c *gin.Context) {
	shop, a, ok := h.shopAndActor(c)
	if !ok {
		return
	}
	var req EndShiftRequest
	if c.Request.ContentLength > 0 && !h.bindJSON(c, &req) {
		return
	}
	shift, err := h.shifts.End(c.Request.Context(), shop, a.UserID, req.Reason)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, shift)
}

// ListShifts returns the shifts of a day (?date=)
func (h *StaffHandler) ListShifts(c *gin.Context) {
	shop, err := shopID(c)
	if err != nil {
		h.BadRequest(c, "Invalid shop ID")
		return
	}
	date, ok := h.dateQuery(c, "date")
	if !ok {
		return
	}
	shifts, err := h.shifts.List(c.Request.Context(), shop, date)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, shifts)
}

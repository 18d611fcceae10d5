// Package handler holds the gin handlers of the till and end-of-day API
package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	apptill "github.com/shoppos/backend/internal/application/till"
	"github.com/shoppos/backend/internal/domain/shared"
	"github.com/shoppos/backend/internal/infrastructure/logger"
	"github.com/shoppos/backend/internal/interfaces/http/dto"
	"github.com/shoppos/backend/internal/interfaces/http/middleware"
	"go.uber.org/zap"
)

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// SuccessWithMeta sends a success response with pagination meta
func (h *BaseHandler) SuccessWithMeta(c *gin.Context, data any, total int64, page, pageSize int) {
	c.JSON(http.StatusOK, dto.NewSuccessResponseWithMeta(data, total, page, pageSize))
}

// Created sends a 201 created response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// Error sends an error response, deriving the status from the code
func (h *BaseHandler) Error(c *gin.Context, code, message string) {
	c.JSON(dto.GetHTTPStatus(code), dto.NewErrorResponse(code, message, middleware.GetRequestID(c)))
}

// BadRequest sends a 400 bad request response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, dto.ErrCodeBadRequest, message)
}

// Forbidden sends a 403 forbidden response
func (h *BaseHandler) Forbidden(c *gin.Context, message string) {
	h.Error(c, shared.CodeForbidden, message)
}

// ValidationError sends a 400 validation error response with details
func (h *BaseHandler) ValidationError(c *gin.Context, details []dto.ValidationDetail) {
	c.JSON(http.StatusBadRequest, dto.NewValidationErrorResponse(
		"Request validation failed",
		middleware.GetRequestID(c),
		details,
	))
}

// HandleError converts domain errors to HTTP responses. Anything else is
// logged and reported as an internal error.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		h.Error(c, domainErr.Code, domainErr.Message)
		return
	}
	logger.GetGinLogger(c).Error("request failed", zap.Error(err))
	_ = c.Error(err)
	h.Error(c, dto.ErrCodeInternal, "An unexpected error occurred")
}

// handleDayError reports a failed day transition with the day's status
func (h *BaseHandler) handleDayError(c *gin.Context, err error, status string) {
	var domainErr *shared.DomainError
	if !errors.As(err, &domainErr) || status == "" {
		h.HandleError(c, err)
		return
	}
	resp := dto.NewErrorResponse(domainErr.Code, domainErr.Message, middleware.GetRequestID(c))
	resp.Error.DayStatus = status
	c.JSON(dto.GetHTTPStatus(domainErr.Code), resp)
}

// bindJSON binds the request body, writing the error response on failure
func (h *BaseHandler) bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		if details := middleware.ValidationDetails(err); details != nil {
			h.ValidationError(c, details)
		} else {
			h.BadRequest(c, "Invalid request body")
		}
		return false
	}
	return true
}

// shopID reads the :shop_id path parameter. ShopScope has already
// validated it on authenticated routes.
func shopID(c *gin.Context) (uuid.UUID, error) {
	return uuid.Parse(c.Param("shop_id"))
}

// actor returns the authenticated user and role
func actor(c *gin.Context) (apptill.Actor, error) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		return apptill.Actor{}, err
	}
	return apptill.Actor{UserID: userID, Role: middleware.GetRole(c)}, nil
}

// shopAndActor resolves both, answering the request on failure
func (h *BaseHandler) shopAndActor(c *gin.Context) (uuid.UUID, apptill.Actor, bool) {
	shop, err := shopID(c)
	if err != nil {
		h.BadRequest(c, "Invalid shop ID")
		return uuid.Nil, apptill.Actor{}, false
	}
	a, err := actor(c)
	if err != nil {
		h.Error(c, shared.CodeUnauthorized, "Missing user")
		return uuid.Nil, apptill.Actor{}, false
	}
	return shop, a, true
}

// uuidParam parses a UUID path parameter
func (h *BaseHandler) uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		h.BadRequest(c, "Invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

// ownOrManager lets cashiers act on their own records and managers on any
func (h *BaseHandler) ownOrManager(c *gin.Context, a apptill.Actor, cashierID uuid.UUID) bool {
	if a.UserID == cashierID || a.Role.CanReconcile() {
		return true
	}
	h.Forbidden(c, "Cashiers may only access their own till")
	return false
}

// dateQuery parses an optional YYYY-MM-DD query parameter
func (h *BaseHandler) dateQuery(c *gin.Context, name string) (*time.Time, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	d, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		h.BadRequest(c, name+" must be a date (YYYY-MM-DD)")
		return nil, false
	}
	return &d, true
}

// dateParam parses a YYYY-MM-DD path parameter
func (h *BaseHandler) dateParam(c *gin.Context, name string) (time.Time, bool) {
	d, err := time.Parse(time.DateOnly, c.Param(name))
	if err != nil {
		h.BadRequest(c, name+" must be a date (YYYY-MM-DD)")
		return time.Time{}, false
	}
	return d, true
}

// boolQuery reads an optional boolean query parameter
func boolQuery(c *gin.Context, name string) bool {
	v, _ := strconv.ParseBool(c.Query(name))
	return v
}

package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/DSM-2025/drivingschool-service/internal/services"
	"github.com/DSM-2025/drivingschool-service/internal/utils"
)

// ErrorResponse is the standard error body.
type ErrorResponse struct {
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// SuccessResponse is the standard body for mutations with no payload.
type SuccessResponse struct {
	Message string `json:"message"`
}

// BaseHandler carries the shared logging helpers every handler embeds.
type BaseHandler struct {
	logger utils.Logger
}

func NewBaseHandler(logger utils.Logger) BaseHandler {
	return BaseHandler{logger: logger}
}

// LogRequest logs at the start of handler processing using the
// request-scoped logger when one is attached.
func (h *BaseHandler) LogRequest(c *gin.Context, msg string) {
	utils.FromContext(c, h.logger).Info(msg,
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
	)
}

func (h *BaseHandler) LogError(c *gin.Context, err error, msg string) {
	utils.FromContext(c, h.logger).Error(msg,
		"error", err,
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
	)
}

// handleServiceError maps service sentinel errors to HTTP status codes.
func (h *BaseHandler) handleServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrValidationFailed):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Validation failed",
			Details: err.Error(),
		})
	case errors.Is(err, services.ErrUnauthorized),
		errors.Is(err, services.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "Unauthorized",
			Details: err.Error(),
		})
	case errors.Is(err, services.ErrForbidden):
		c.JSON(http.StatusForbidden, ErrorResponse{
			Message: "Forbidden",
		})
	case errors.Is(err, services.ErrStudentNotFound),
		errors.Is(err, services.ErrInstructorNotFound),
		errors.Is(err, services.ErrUserNotFound),
		errors.Is(err, services.ErrSchoolNotFound),
		errors.Is(err, services.ErrScheduleNotFound),
		errors.Is(err, services.ErrPaymentNotFound),
		errors.Is(err, services.ErrExamResultNotFound),
		errors.Is(err, services.ErrCourseNotFound),
		errors.Is(err, services.ErrContentNotFound),
		errors.Is(err, services.ErrQuizNotFound),
		errors.Is(err, services.ErrProgressNotFound),
		errors.Is(err, services.ErrNotificationNotFound),
		errors.Is(err, services.ErrTemplateNotFound),
		errors.Is(err, services.ErrRuleNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Message: "Resource not found",
			Details: err.Error(),
		})
	case errors.Is(err, services.ErrEmailTaken),
		errors.Is(err, services.ErrTCNumberTaken),
		errors.Is(err, services.ErrScheduleConflict):
		c.JSON(http.StatusConflict, ErrorResponse{
			Message: "Conflict",
			Details: err.Error(),
		})
	case errors.Is(err, services.ErrInvalidStageTransition),
		errors.Is(err, services.ErrCancellationTooLate),
		errors.Is(err, services.ErrScheduleNotCancelable),
		errors.Is(err, services.ErrNotificationNotDraft):
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Message: "Operation not allowed",
			Details: err.Error(),
		})
	default:
		h.LogError(c, err, "Unhandled service error")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Message: "Internal server error",
		})
	}
}

// schoolID returns the tenant claim set by the auth middleware. A zero value
// means the request was not authenticated; the middleware fails closed
// before handlers run, so this aborts only on wiring mistakes.
func (h *BaseHandler) schoolID(c *gin.Context) (uint, bool) {
	id := c.GetUint("school_id")
	if id == 0 {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "User not authenticated",
		})
		return 0, false
	}
	return id, true
}

func (h *BaseHandler) userID(c *gin.Context) uint {
	return c.GetUint("user_id")
}

// parseIDParam parses a positive uint path parameter.
func (h *BaseHandler) parseIDParam(c *gin.Context, name string) (uint, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid " + name + " parameter",
		})
		return 0, false
	}
	return uint(id), true
}

// parsePagination reads page/size query parameters with sane clamping.
func (h *BaseHandler) parsePagination(c *gin.Context) (int, int) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	size, err := strconv.Atoi(c.DefaultQuery("size", "20"))
	if err != nil || size < 1 {
		size = 20
	}
	if size > 100 {
		size = 100
	}
	return page, size
}

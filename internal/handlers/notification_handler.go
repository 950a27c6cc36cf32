package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/DSM-2025/drivingschool-service/internal/models"
	"github.com/DSM-2025/drivingschool-service/internal/repositories"
	"github.com/DSM-2025/drivingschool-service/internal/services"
	"github.com/DSM-2025/drivingschool-service/internal/utils"
)

type NotificationHandler struct {
	BaseHandler
	service services.NotificationService
}

func NewNotificationHandler(service services.NotificationService, logger utils.Logger) *NotificationHandler {
	return &NotificationHandler{
		BaseHandler: NewBaseHandler(logger),
		service:     service,
	}
}

// CreateNotification creates a campaign draft
// @Summary Create notification
// @Description Create a campaign; recipient type supports all, students, instructors, stage:<stage> and student:<id>
// @Tags notifications
// @Accept json
// @Produce json
// @Param request body services.CreateNotificationRequest true "Notification data"
// @Success 201 {object} models.Notification
// @Router /notifications [post]
func (h *NotificationHandler) CreateNotification(c *gin.Context) {
	h.LogRequest(c, "Creating notification")

	schoolID, ok := h.schoolID(c)
	if !ok {
		return
	}

	var req services.CreateNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request body",
			Details: err.Error(),
		})
		return
	}

	notification, err := h.service.Create(c.Request.Context(), schoolID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, notification)
}

// GetNotification returns one campaign with derived engagement rates
// @Summary Get notification
// @Tags notifications
// @Produce json
// @Param id path int true "Notification ID"
// @Success 200 {object} models.Notification
// @Failure 404 {object} ErrorResponse "Notification not found"
// @Router /notifications/{id} [get]
func (h *NotificationHandler) GetNotification(c *gin.Context) {
	h.LogRequest(c, "Getting notification")

	schoolID, ok := h.schoolID(c)
	if !ok {
		return
	}
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	notification, err := h.service.GetByID(c.Request.Context(), schoolID, id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, notification)
}

// UpdateNotification edits a draft or scheduled campaign
// @Summary Update notification
// @Tags notifications
// @Accept json
// @Produce json
// @Param id path int true "Notification ID"
// @Param request body services.UpdateNotificationRequest true "Fields to update"
// @Success 200 {object} models.Notification
// @Failure 422 {object} ErrorResponse "Campaign already dispatched"
// @Router /notifications/{id} [put]
func (h *NotificationHandler) UpdateNotification(c *gin.Context) {
	h.LogRequest(c, "Updating notification")

	schoolID, ok := h.schoolID(c)
	if !ok {
		return
	}
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	var req services.UpdateNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request body",
			Details: err.Error(),
		})
		return
	}

	notification, err := h.service.Update(c.Request.Context(), schoolID, id, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, notification)
}

// DeleteNotification removes a campaign
// @Summary Delete notification
// @Tags notifications
// @Produce json
// @Param id path int true "Notification ID"
// @Success 200 {object} SuccessResponse
// @Router /notifications/{id} [delete]
func (h *NotificationHandler) DeleteNotification(c *gin.Context) {
	h.LogRequest(c, "Deleting notification")

	schoolID, ok := h.schoolID(c)
	if !ok {
		return
	}
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), schoolID, id); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Notification deleted"})
}

// ListNotifications returns campaigns with optional status filter
// @Summary List notifications
// @Tags notifications
// @Produce json
// @Param page query int false "Page number (default: 1)"
// @Param size query int false "Page size (default: 20, max: 100)"
// @Param status query string false "Filter by status"
// @Success 200 {object} services.NotificationListResponse
// @Router /notifications [get]
func (h *NotificationHandler) ListNotifications(c *gin.Context) {
	h.LogRequest(c, "Listing notifications")

	schoolID, ok := h.schoolID(c)
	if !ok {
		return
	}

	var filters repositories.NotificationFilters
	if statusStr := c.Query("status"); statusStr != "" {
		status := models.NotificationStatus(statusStr)
		filters.Status = &status
	}

	page, size := h.parsePagination(c)
	notifications, err := h.service.List(c.Request.Context(), schoolID, filters, page, size)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, notifications)
}

// SendNotification dispatches a draft or scheduled campaign
// @Summary Send notification
// @Tags notifications
// @Produce json
// @Param id path int true "Notification ID"
// @Success 200 {object} models.Notification
// @Failure 422 {object} ErrorResponse "Campaign not sendable"
// @Router /notifications/{id}/send [post]
func (h *NotificationHandler) SendNotification(c *gin.Context) {
	h.LogRequest(c, "Sending notification")

	schoolID, ok := h.schoolID(c)
	if !ok {
		return
	}
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	notification, err := h.service.Send(c.Request.Context(), schoolID, id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, notification)
}

// ResendNotification re-dispatches a sent campaign
// @Summary Resend notification
// @Tags notifications
// @Produce json
// @Param id path int true "Notification ID"
// @Success 200 {object} models.Notification
// @Router /notifications/{id}/resend [post]
func (h *NotificationHandler) ResendNotification(c *gin.Context) {
	h.LogRequest(c, "Resending notification")

	schoolID, ok := h.schoolID(c)
	if !ok {
		return
	}
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	notification, err := h.service.Resend(c.Request.Context(), schoolID, id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, notification)
}

// CancelNotification cancels a pending campaign
// @Summary Cancel notification
// @Tags notifications
// @Produce json
// @Param id path int true "Notification ID"
// @Success 200 {object} SuccessResponse
// @Router /notifications/{id}/cancel [post]
func (h *NotificationHandler) CancelNotification(c *gin.Context) {
	h.LogRequest(c, "Cancelling notification")

	schoolID, ok := h.schoolID(c)
	if !ok {
		return
	}
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.service.Cancel(c.Request.Context(), schoolID, id); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Notification cancelled"})
}

// MarkRead bumps the opened counter
// @Summary Mark notification read
// @Tags notifications
// @Produce json
// @Param id path int true "Notification ID"
// @Success 200 {object} SuccessResponse
// @Router /notifications/{id}/read [post]
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	schoolID, ok := h.schoolID(c)
	if !ok {
		return
	}
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.service.MarkRead(c.Request.Context(), schoolID, id); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Marked read"})
}

// MarkClicked bumps the clicked counter
// @Summary Mark notification clicked
// @Tags notifications
// @Produce json
// @Param id path int true "Notification ID"
// @Success 200 {object} SuccessResponse
// @Router /notifications/{id}/clicked [post]
func (h *NotificationHandler) MarkClicked(c *gin.Context) {
	schoolID, ok := h.schoolID(c)
	if !ok {
		return
	}
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.service.MarkClicked(c.Request.Context(), schoolID, id); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Marked clicked"})
}

// GetAnalytics returns engagement aggregates across campaigns
// @Summary Get notification analytics
// @Tags notifications
// @Produce json
// @Success 200 {object} services.NotificationAnalyticsResponse
// @Router /notifications/analytics [get]
func (h *NotificationHandler) GetAnalytics(c *gin.Context) {
	h.LogRequest(c, "Getting notification analytics")

	schoolID, ok := h.schoolID(c)
	if !ok {
		return
	}

	analytics, err := h.service.GetAnalytics(c.Request.Context(), schoolID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, analytics)
}

// ===== TEMPLATE ENDPOINTS =====

// CreateTemplate adds a reusable message template
// @Summary Create notification template
// @Tags notifications
// @Accept json
// @Produce json
// @Param request body services.TemplateRequest true "Template data"
// @Success 201 {object} models.NotificationTemplate
// @Router /notifications/templates [post]
func (h *NotificationHandler) CreateTemplate(c *gin.Context) {
	h.LogRequest(c, "Creating notification template")

	schoolID, ok := h.schoolID(c)
	if !ok {
		return
	}

	var req services.TemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request body",
			Details: err.Error(),
		})
		return
	}

	template, err := h.service.CreateTemplate(c.Request.Context(), schoolID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, template)
}

// UpdateTemplate replaces a template
// @Summary Update notification template
// @Tags notifications
// @Accept json
// @Produce json
// @Param id path int true "Template ID"
// @Param request body services.TemplateRequest true "Template data"
// @Success 200 {object} models.NotificationTemplate
// @Router /notifications/templates/{id} [put]
func (h *NotificationHandler) UpdateTemplate(c *gin.Context) {
	h.LogRequest(c, "Updating notification template")

	schoolID, ok := h.schoolID(c)
	if !ok {
		return
	}
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	var req services.TemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request body",
			Details: err.Error(),
		})
		return
	}

	template, err := h.service.UpdateTemplate(c.Request.Context(), schoolID, id, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, template)
}

// DeleteTemplate removes a template
// @Summary Delete notification template
// @Tags notifications
// @Produce json
// @Param id path int true "Template ID"
// @Success 200 {object} SuccessResponse
// @Router /notifications/templates/{id} [delete]
func (h *NotificationHandler) DeleteTemplate(c *gin.Context) {
	h.LogRequest(c, "Deleting notification template")

	schoolID, ok := h.schoolID(c)
	if !ok {
		return
	}
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.service.DeleteTemplate(c.Request.Context(), schoolID, id); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Template deleted"})
}

// ListTemplates returns the tenant's templates
// @Summary List notification templates
// @Tags notifications
// @Produce json
// @Success 200 {array} models.NotificationTemplate
// @Router /notifications/templates [get]
func (h *NotificationHandler) ListTemplates(c *gin.Context) {
	schoolID, ok := h.schoolID(c)
	if !ok {
		return
	}

	templates, err := h.service.ListTemplates(c.Request.Context(), schoolID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, templates)
}

// ===== RULE ENDPOINTS =====

// CreateRule adds an automation rule
// @Summary Create notification rule
// @Tags notifications
// @Accept json
// @Produce json
// @Param request body services.RuleRequest true "Rule data"
// @Success 201 {object} models.NotificationRule
// @Router /notifications/rules [post]
func (h *NotificationHandler) CreateRule(c *gin.Context) {
	h.LogRequest(c, "Creating notification rule")

	schoolID, ok := h.schoolID(c)
	if !ok {
		return
	}

	var req services.RuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request body",
			Details: err.Error(),
		})
		return
	}

	rule, err := h.service.CreateRule(c.Request.Context(), schoolID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, rule)
}

// UpdateRule replaces a rule
// @Summary Update notification rule
// @Tags notifications
// @Accept json
// @Produce json
// @Param id path int true "Rule ID"
// @Param request body services.RuleRequest true "Rule data"
// @Success 200 {object} models.NotificationRule
// @Router /notifications/rules/{id} [put]
func (h *NotificationHandler) UpdateRule(c *gin.Context) {
	h.LogRequest(c, "Updating notification rule")

	schoolID, ok := h.schoolID(c)
	if !ok {
		return
	}
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	var req services.RuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request body",
			Details: err.Error(),
		})
		return
	}

	rule, err := h.service.UpdateRule(c.Request.Context(), schoolID, id, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, rule)
}

// DeleteRule removes a rule
// @Summary Delete notification rule
// @Tags notifications
// @Produce json
// @Param id path int true "Rule ID"
// @Success 200 {object} SuccessResponse
// @Router /notifications/rules/{id} [delete]
func (h *NotificationHandler) DeleteRule(c *gin.Context) {
	h.LogRequest(c, "Deleting notification rule")

	schoolID, ok := h.schoolID(c)
	if !ok {
		return
	}
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.service.DeleteRule(c.Request.Context(), schoolID, id); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Rule deleted"})
}

// ListRules returns the tenant's automation rules
// @Summary List notification rules
// @Tags notifications
// @Produce json
// @Success 200 {array} models.NotificationRule
// @Router /notifications/rules [get]
func (h *NotificationHandler) ListRules(c *gin.Context) {
	schoolID, ok := h.schoolID(c)
	if !ok {
		return
	}

	rules, err := h.service.ListRules(c.Request.Context(), schoolID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, rules)
}

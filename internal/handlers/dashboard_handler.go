package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/DSM-2025/drivingschool-service/internal/services"
	"github.com/DSM-2025/drivingschool-service/internal/utils"
)

// DashboardHandler serves the CRM overview and the lifecycle pipeline.
type DashboardHandler struct {
	BaseHandler
	service services.LifecycleService
}

func NewDashboardHandler(service services.LifecycleService, logger utils.Logger) *DashboardHandler {
	return &DashboardHandler{
		BaseHandler: NewBaseHandler(logger),
		service:     service,
	}
}

// GetOverview returns the tenant's dashboard numbers
// @Summary Get CRM overview
// @Description Totals, stage counts, revenue summary, reminders and recent activity
// @Tags dashboard
// @Produce json
// @Success 200 {object} services.OverviewResponse
// @Failure 401 {object} ErrorResponse "Unauthorized"
// @Router /dashboard/overview [get]
func (h *DashboardHandler) GetOverview(c *gin.Context) {
	h.LogRequest(c, "Getting dashboard overview")

	schoolID, ok := h.schoolID(c)
	if !ok {
		return
	}

	overview, err := h.service.GetOverview(c.Request.Context(), schoolID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, overview)
}

// GetPipeline returns students grouped for the pipeline board
// @Summary Get lifecycle pipeline
// @Tags dashboard
// @Produce json
// @Param page query int false "Page number (default: 1)"
// @Param size query int false "Page size (default: 20, max: 100)"
// @Param stage query string false "Filter by pipeline stage"
// @Param search query string false "Name or email substring"
// @Param has_debt query bool false "Only students with outstanding debt"
// @Success 200 {object} services.PipelineResponse
// @Router /dashboard/pipeline [get]
func (h *DashboardHandler) GetPipeline(c *gin.Context) {
	h.LogRequest(c, "Getting lifecycle pipeline")

	schoolID, ok := h.schoolID(c)
	if !ok {
		return
	}

	pipeline, err := h.service.GetPipeline(c.Request.Context(), schoolID, h.parsePipelineFilters(c))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, pipeline)
}

// UpdateStage moves a student along the pipeline
// @Summary Update student stage
// @Tags dashboard
// @Accept json
// @Produce json
// @Param id path int true "Student ID"
// @Param request body services.UpdateStageRequest true "Target stage"
// @Success 200 {object} SuccessResponse
// @Failure 422 {object} ErrorResponse "Invalid stage transition"
// @Router /students/{id}/stage [put]
func (h *DashboardHandler) UpdateStage(c *gin.Context) {
	h.LogRequest(c, "Updating student stage")

	schoolID, ok := h.schoolID(c)
	if !ok {
		return
	}
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	var req services.UpdateStageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request body",
			Details: err.Error(),
		})
		return
	}

	if err := h.service.UpdateStage(c.Request.Context(), schoolID, id, req.Stage, h.userID(c)); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Stage updated"})
}

// AddTag attaches a manual tag to a student
// @Summary Add student tag
// @Tags dashboard
// @Accept json
// @Produce json
// @Param id path int true "Student ID"
// @Param request body services.TagRequest true "Tag"
// @Success 200 {object} SuccessResponse
// @Router /students/{id}/tags [post]
func (h *DashboardHandler) AddTag(c *gin.Context) {
	h.LogRequest(c, "Adding student tag")

	schoolID, ok := h.schoolID(c)
	if !ok {
		return
	}
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	var req services.TagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request body",
			Details: err.Error(),
		})
		return
	}

	if err := h.service.AddTag(c.Request.Context(), schoolID, id, req.Tag); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Tag added"})
}

// RemoveTag removes a manual tag from a student
// @Summary Remove student tag
// @Tags dashboard
// @Produce json
// @Param id path int true "Student ID"
// @Param tag path string true "Tag"
// @Success 200 {object} SuccessResponse
// @Router /students/{id}/tags/{tag} [delete]
func (h *DashboardHandler) RemoveTag(c *gin.Context) {
	h.LogRequest(c, "Removing student tag")

	schoolID, ok := h.schoolID(c)
	if !ok {
		return
	}
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	tag := c.Param("tag")
	if tag == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Invalid tag parameter"})
		return
	}

	if err := h.service.RemoveTag(c.Request.Context(), schoolID, id, tag); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Tag removed"})
}

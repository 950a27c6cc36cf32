package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/DSM-2025/drivingschool-service/internal/services"
	"github.com/DSM-2025/drivingschool-service/internal/utils"
)

type ProgressHandler struct {
	BaseHandler
	service services.ProgressService
}

func NewProgressHandler(service services.ProgressService, logger utils.Logger) *ProgressHandler {
	return &ProgressHandler{
		BaseHandler: NewBaseHandler(logger),
		service:     service,
	}
}

// GetSummary returns a student's progress through one course
// @Summary Get progress summary
// @Tags progress
// @Produce json
// @Param id path int true "Student ID"
// @Param course_id path int true "Course ID"
// @Success 200 {object} services.ProgressSummaryResponse
// @Failure 404 {object} ErrorResponse "Student or course not found"
// @Router /students/{id}/progress/{course_id} [get]
func (h *ProgressHandler) GetSummary(c *gin.Context) {
	h.LogRequest(c, "Getting progress summary")

	schoolID, ok := h.schoolID(c)
	if !ok {
		return
	}
	studentID, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}
	courseID, ok := h.parseIDParam(c, "course_id")
	if !ok {
		return
	}

	summary, err := h.service.GetSummary(c.Request.Context(), schoolID, studentID, courseID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

// UpdateProgress records time spent and completion percent on a content item
// @Summary Update progress
// @Tags progress
// @Accept json
// @Produce json
// @Param id path int true "Student ID"
// @Param request body services.UpdateProgressRequest true "Progress data"
// @Success 200 {object} models.StudentProgress
// @Failure 404 {object} ErrorResponse "Content not found"
// @Router /students/{id}/progress [post]
func (h *ProgressHandler) UpdateProgress(c *gin.Context) {
	h.LogRequest(c, "Updating progress")

	schoolID, ok := h.schoolID(c)
	if !ok {
		return
	}
	studentID, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	var req services.UpdateProgressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request body",
			Details: err.Error(),
		})
		return
	}

	progress, err := h.service.UpdateProgress(c.Request.Context(), schoolID, studentID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, progress)
}

// CompleteContent marks a content item finished
// @Summary Complete content
// @Tags progress
// @Produce json
// @Param id path int true "Student ID"
// @Param content_id path int true "Content ID"
// @Success 200 {object} models.StudentProgress
// @Router /students/{id}/progress/{content_id}/complete [post]
func (h *ProgressHandler) CompleteContent(c *gin.Context) {
	h.LogRequest(c, "Completing content")

	schoolID, ok := h.schoolID(c)
	if !ok {
		return
	}
	studentID, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}
	contentID, ok := h.parseIDParam(c, "content_id")
	if !ok {
		return
	}

	progress, err := h.service.CompleteContent(c.Request.Context(), schoolID, studentID, contentID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, progress)
}

// GetDailyRollups returns per-day activity counters for charts
// @Summary Get daily progress rollups
// @Tags progress
// @Produce json
// @Param id path int true "Student ID"
// @Param from query string false "From date (YYYY-MM-DD, default 30 days ago)"
// @Param to query string false "To date (YYYY-MM-DD, default today)"
// @Success 200 {array} models.ProgressDailyRollup
// @Router /students/{id}/progress/daily [get]
func (h *ProgressHandler) GetDailyRollups(c *gin.Context) {
	h.LogRequest(c, "Getting daily rollups")

	schoolID, ok := h.schoolID(c)
	if !ok {
		return
	}
	studentID, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	to := time.Now()
	from := to.AddDate(0, 0, -30)
	if v, err := time.Parse("2006-01-02", c.Query("from")); err == nil {
		from = v
	}
	if v, err := time.Parse("2006-01-02", c.Query("to")); err == nil {
		to = v
	}

	rollups, err := h.service.GetDailyRollups(c.Request.Context(), schoolID, studentID, from, to)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, rollups)
}

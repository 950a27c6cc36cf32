package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/DSM-2025/drivingschool-service/internal/models"
	"github.com/DSM-2025/drivingschool-service/internal/repositories"
	"github.com/DSM-2025/drivingschool-service/internal/services"
	"github.com/DSM-2025/drivingschool-service/internal/utils"
)

type CourseHandler struct {
	BaseHandler
	service services.CourseService
}

func NewCourseHandler(service services.CourseService, logger utils.Logger) *CourseHandler {
	return &CourseHandler{
		BaseHandler: NewBaseHandler(logger),
		service:     service,
	}
}

// CreateCourse adds a course
// @Summary Create course
// @Tags courses
// @Accept json
// @Produce json
// @Param request body services.CreateCourseRequest true "Course data"
// @Success 201 {object} models.Course
// @Router /courses [post]
func (h *CourseHandler) CreateCourse(c *gin.Context) {
	h.LogRequest(c, "Creating course")

	schoolID, ok := h.schoolID(c)
	if !ok {
		return
	}

	var req services.CreateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request body",
			Details: err.Error(),
		})
		return
	}

	course, err := h.service.Create(c.Request.Context(), schoolID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, course)
}

// GetCourse returns a course with its contents
// @Summary Get course
// @Tags courses
// @Produce json
// @Param id path int true "Course ID"
// @Success 200 {object} models.Course
// @Failure 404 {object} ErrorResponse "Course not found"
// @Router /courses/{id} [get]
func (h *CourseHandler) GetCourse(c *gin.Context) {
	h.LogRequest(c, "Getting course")

	schoolID, ok := h.schoolID(c)
	if !ok {
		return
	}
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	course, err := h.service.GetByID(c.Request.Context(), schoolID, id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, course)
}

// UpdateCourse applies a partial update
// @Summary Update course
// @Tags courses
// @Accept json
// @Produce json
// @Param id path int true "Course ID"
// @Param request body services.UpdateCourseRequest true "Fields to update"
// @Success 200 {object} models.Course
// @Router /courses/{id} [put]
func (h *CourseHandler) UpdateCourse(c *gin.Context) {
	h.LogRequest(c, "Updating course")

	schoolID, ok := h.schoolID(c)
	if !ok {
		return
	}
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	var req services.UpdateCourseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request body",
			Details: err.Error(),
		})
		return
	}

	course, err := h.service.Update(c.Request.Context(), schoolID, id, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, course)
}

// DeleteCourse soft-deletes a course
// @Summary Delete course
// @Tags courses
// @Produce json
// @Param id path int true "Course ID"
// @Success 200 {object} SuccessResponse
// @Router /courses/{id} [delete]
func (h *CourseHandler) DeleteCourse(c *gin.Context) {
	h.LogRequest(c, "Deleting course")

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

	c.JSON(http.StatusOK, SuccessResponse{Message: "Course deleted"})
}

// ListCourses returns the catalog
// @Summary List courses
// @Tags courses
// @Produce json
// @Param page query int false "Page number (default: 1)"
// @Param size query int false "Page size (default: 20, max: 100)"
// @Param type query string false "Filter by lesson type: theory, practice"
// @Param search query string false "Title substring"
// @Success 200 {object} services.CourseListResponse
// @Router /courses [get]
func (h *CourseHandler) ListCourses(c *gin.Context) {
	h.LogRequest(c, "Listing courses")

	schoolID, ok := h.schoolID(c)
	if !ok {
		return
	}

	filters := repositories.CourseFilters{Search: c.Query("search")}
	if typeStr := c.Query("type"); typeStr != "" {
		lessonType := models.LessonType(typeStr)
		filters.Type = &lessonType
	}

	page, size := h.parsePagination(c)
	courses, err := h.service.List(c.Request.Context(), schoolID, filters, page, size)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, courses)
}

// ===== CONTENT ENDPOINTS =====

// AddContent attaches a content item to a course
// @Summary Add course content
// @Tags courses
// @Accept json
// @Produce json
// @Param id path int true "Course ID"
// @Param request body services.CreateContentRequest true "Content data"
// @Success 201 {object} models.CourseContent
// @Router /courses/{id}/contents [post]
func (h *CourseHandler) AddContent(c *gin.Context) {
	h.LogRequest(c, "Adding course content")

	schoolID, ok := h.schoolID(c)
	if !ok {
		return
	}
	courseID, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	var req services.CreateContentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request body",
			Details: err.Error(),
		})
		return
	}

	content, err := h.service.AddContent(c.Request.Context(), schoolID, courseID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, content)
}

// UpdateContent applies a partial update to a content item
// @Summary Update course content
// @Tags courses
// @Accept json
// @Produce json
// @Param id path int true "Course ID"
// @Param content_id path int true "Content ID"
// @Param request body services.UpdateContentRequest true "Fields to update"
// @Success 200 {object} models.CourseContent
// @Router /courses/{id}/contents/{content_id} [put]
func (h *CourseHandler) UpdateContent(c *gin.Context) {
	h.LogRequest(c, "Updating course content")

	schoolID, ok := h.schoolID(c)
	if !ok {
		return
	}
	contentID, ok := h.parseIDParam(c, "content_id")
	if !ok {
		return
	}

	var req services.UpdateContentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request body",
			Details: err.Error(),
		})
		return
	}

	content, err := h.service.UpdateContent(c.Request.Context(), schoolID, contentID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, content)
}

// DeleteContent removes a content item
// @Summary Delete course content
// @Tags courses
// @Produce json
// @Param id path int true "Course ID"
// @Param content_id path int true "Content ID"
// @Success 200 {object} SuccessResponse
// @Router /courses/{id}/contents/{content_id} [delete]
func (h *CourseHandler) DeleteContent(c *gin.Context) {
	h.LogRequest(c, "Deleting course content")

	schoolID, ok := h.schoolID(c)
	if !ok {
		return
	}
	contentID, ok := h.parseIDParam(c, "content_id")
	if !ok {
		return
	}

	if err := h.service.DeleteContent(c.Request.Context(), schoolID, contentID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Content deleted"})
}

// GetContents lists a course's contents in sort order
// @Summary Get course contents
// @Tags courses
// @Produce json
// @Param id path int true "Course ID"
// @Success 200 {array} models.CourseContent
// @Router /courses/{id}/contents [get]
func (h *CourseHandler) GetContents(c *gin.Context) {
	h.LogRequest(c, "Getting course contents")

	schoolID, ok := h.schoolID(c)
	if !ok {
		return
	}
	courseID, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	contents, err := h.service.GetContents(c.Request.Context(), schoolID, courseID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, contents)
}

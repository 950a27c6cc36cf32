package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/DSM-2025/drivingschool-service/internal/models"
	"github.com/DSM-2025/drivingschool-service/internal/services"
	"github.com/DSM-2025/drivingschool-service/internal/utils"
)

type StudentHandler struct {
	BaseHandler
	service services.StudentService
}

func NewStudentHandler(service services.StudentService, logger utils.Logger) *StudentHandler {
	return &StudentHandler{
		BaseHandler: NewBaseHandler(logger),
		service:     service,
	}
}

// ===== STUDENT ENDPOINTS =====

// CreateStudent enrolls a new student
// @Summary Create student
// @Description Enroll a student with billing setup and a linked login account
// @Tags students
// @Accept json
// @Produce json
// @Param request body services.CreateStudentRequest true "Student data"
// @Success 201 {object} services.StudentResponse
// @Failure 400 {object} ErrorResponse "Validation error"
// @Failure 409 {object} ErrorResponse "Email or TC number taken"
// @Router /students [post]
func (h *StudentHandler) CreateStudent(c *gin.Context) {
	h.LogRequest(c, "Creating student")

	schoolID, ok := h.schoolID(c)
	if !ok {
		return
	}

	var req services.CreateStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request body",
			Details: err.Error(),
		})
		return
	}

	student, err := h.service.Create(c.Request.Context(), schoolID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, student)
}

// GetStudent returns one student with computed tags and progress
// @Summary Get student
// @Tags students
// @Produce json
// @Param id path int true "Student ID"
// @Success 200 {object} services.StudentResponse
// @Failure 404 {object} ErrorResponse "Student not found"
// @Router /students/{id} [get]
func (h *StudentHandler) GetStudent(c *gin.Context) {
	h.LogRequest(c, "Getting student")

	schoolID, ok := h.schoolID(c)
	if !ok {
		return
	}
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	student, err := h.service.GetByID(c.Request.Context(), schoolID, id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, student)
}

// UpdateStudent applies a partial update
// @Summary Update student
// @Tags students
// @Accept json
// @Produce json
// @Param id path int true "Student ID"
// @Param request body services.UpdateStudentRequest true "Fields to update"
// @Success 200 {object} services.StudentResponse
// @Failure 404 {object} ErrorResponse "Student not found"
// @Router /students/{id} [put]
func (h *StudentHandler) UpdateStudent(c *gin.Context) {
	h.LogRequest(c, "Updating student")

	schoolID, ok := h.schoolID(c)
	if !ok {
		return
	}
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	var req services.UpdateStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request body",
			Details: err.Error(),
		})
		return
	}

	student, err := h.service.Update(c.Request.Context(), schoolID, id, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, student)
}

// DeleteStudent soft-deletes a student
// @Summary Delete student
// @Tags students
// @Produce json
// @Param id path int true "Student ID"
// @Success 200 {object} SuccessResponse
// @Failure 404 {object} ErrorResponse "Student not found"
// @Router /students/{id} [delete]
func (h *StudentHandler) DeleteStudent(c *gin.Context) {
	h.LogRequest(c, "Deleting student")

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

	c.JSON(http.StatusOK, SuccessResponse{Message: "Student deleted"})
}

// ListStudents returns the roster with filters
// @Summary List students
// @Tags students
// @Produce json
// @Param page query int false "Page number (default: 1)"
// @Param size query int false "Page size (default: 20, max: 100)"
// @Param stage query string false "Filter by pipeline stage"
// @Param search query string false "Name or email substring"
// @Param has_debt query bool false "Only students with outstanding debt"
// @Success 200 {object} services.StudentListResponse
// @Router /students [get]
func (h *StudentHandler) ListStudents(c *gin.Context) {
	h.LogRequest(c, "Listing students")

	schoolID, ok := h.schoolID(c)
	if !ok {
		return
	}

	filters := h.parsePipelineFilters(c)
	students, err := h.service.List(c.Request.Context(), schoolID, filters)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, students)
}

// ===== INSTRUCTOR ENDPOINTS =====

// CreateInstructor adds an instructor
// @Summary Create instructor
// @Tags instructors
// @Accept json
// @Produce json
// @Param request body services.CreateInstructorRequest true "Instructor data"
// @Success 201 {object} services.InstructorResponse
// @Failure 409 {object} ErrorResponse "Email taken"
// @Router /instructors [post]
func (h *StudentHandler) CreateInstructor(c *gin.Context) {
	h.LogRequest(c, "Creating instructor")

	schoolID, ok := h.schoolID(c)
	if !ok {
		return
	}

	var req services.CreateInstructorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request body",
			Details: err.Error(),
		})
		return
	}

	instructor, err := h.service.CreateInstructor(c.Request.Context(), schoolID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, instructor)
}

// UpdateInstructor applies a partial update
// @Summary Update instructor
// @Tags instructors
// @Accept json
// @Produce json
// @Param id path int true "Instructor ID"
// @Param request body services.UpdateInstructorRequest true "Fields to update"
// @Success 200 {object} services.InstructorResponse
// @Failure 404 {object} ErrorResponse "Instructor not found"
// @Router /instructors/{id} [put]
func (h *StudentHandler) UpdateInstructor(c *gin.Context) {
	h.LogRequest(c, "Updating instructor")

	schoolID, ok := h.schoolID(c)
	if !ok {
		return
	}
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	var req services.UpdateInstructorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request body",
			Details: err.Error(),
		})
		return
	}

	instructor, err := h.service.UpdateInstructor(c.Request.Context(), schoolID, id, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, instructor)
}

// ListInstructors returns the instructor roster
// @Summary List instructors
// @Tags instructors
// @Produce json
// @Param active_only query bool false "Only active instructors"
// @Success 200 {array} services.InstructorResponse
// @Router /instructors [get]
func (h *StudentHandler) ListInstructors(c *gin.Context) {
	h.LogRequest(c, "Listing instructors")

	schoolID, ok := h.schoolID(c)
	if !ok {
		return
	}

	activeOnly, _ := strconv.ParseBool(c.DefaultQuery("active_only", "false"))
	instructors, err := h.service.ListInstructors(c.Request.Context(), schoolID, activeOnly)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, instructors)
}

func (h *BaseHandler) parsePipelineFilters(c *gin.Context) services.PipelineFilters {
	page, size := h.parsePagination(c)
	filters := services.PipelineFilters{
		Search: c.Query("search"),
		Page:   page,
		Size:   size,
	}
	if stageStr := c.Query("stage"); stageStr != "" {
		stage := models.StudentStage(stageStr)
		filters.Stage = &stage
	}
	if debtStr := c.Query("has_debt"); debtStr != "" {
		if hasDebt, err := strconv.ParseBool(debtStr); err == nil {
			filters.HasDebt = &hasDebt
		}
	}
	return filters
}

package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/DSM-2025/drivingschool-service/internal/models"
	"github.com/DSM-2025/drivingschool-service/internal/repositories"
	"github.com/DSM-2025/drivingschool-service/internal/services"
	"github.com/DSM-2025/drivingschool-service/internal/utils"
)

type ScheduleHandler struct {
	BaseHandler
	service services.ScheduleService
}

func NewScheduleHandler(service services.ScheduleService, logger utils.Logger) *ScheduleHandler {
	return &ScheduleHandler{
		BaseHandler: NewBaseHandler(logger),
		service:     service,
	}
}

// BookLesson creates a booking
// @Summary Book a lesson
// @Description Book a student with an instructor; overlapping bookings are rejected
// @Tags schedules
// @Accept json
// @Produce json
// @Param request body services.BookLessonRequest true "Booking data"
// @Success 201 {object} services.ScheduleResponse
// @Failure 409 {object} ErrorResponse "Schedule conflict"
// @Router /schedules [post]
func (h *ScheduleHandler) BookLesson(c *gin.Context) {
	h.LogRequest(c, "Booking lesson")

	schoolID, ok := h.schoolID(c)
	if !ok {
		return
	}

	var req services.BookLessonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request body",
			Details: err.Error(),
		})
		return
	}

	schedule, err := h.service.BookLesson(c.Request.Context(), schoolID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, schedule)
}

// CancelSchedule cancels a booking
// @Summary Cancel a lesson
// @Description Cancel a scheduled lesson; rejected inside the 24-hour window
// @Tags schedules
// @Produce json
// @Param id path int true "Schedule ID"
// @Success 200 {object} SuccessResponse
// @Failure 422 {object} ErrorResponse "Cancellation window closed"
// @Router /schedules/{id}/cancel [post]
func (h *ScheduleHandler) CancelSchedule(c *gin.Context) {
	h.LogRequest(c, "Cancelling schedule")

	schoolID, ok := h.schoolID(c)
	if !ok {
		return
	}
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.service.CancelSchedule(c.Request.Context(), schoolID, id); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Schedule cancelled"})
}

// CompleteLesson marks a lesson as done
// @Summary Complete a lesson
// @Tags schedules
// @Produce json
// @Param id path int true "Schedule ID"
// @Success 200 {object} SuccessResponse
// @Failure 404 {object} ErrorResponse "Schedule not found"
// @Router /schedules/{id}/complete [post]
func (h *ScheduleHandler) CompleteLesson(c *gin.Context) {
	h.LogRequest(c, "Completing lesson")

	schoolID, ok := h.schoolID(c)
	if !ok {
		return
	}
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.service.CompleteLesson(c.Request.Context(), schoolID, id); err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, SuccessResponse{Message: "Lesson completed"})
}

// GetAvailableSlots returns the instructor's free hourly slots for a day
// @Summary Get available slots
// @Tags schedules
// @Produce json
// @Param instructor_id query int true "Instructor ID"
// @Param date query string true "Day (YYYY-MM-DD)"
// @Success 200 {array} services.AvailableSlot
// @Router /schedules/available-slots [get]
func (h *ScheduleHandler) GetAvailableSlots(c *gin.Context) {
	h.LogRequest(c, "Getting available slots")

	schoolID, ok := h.schoolID(c)
	if !ok {
		return
	}

	instructorID, err := strconv.ParseUint(c.Query("instructor_id"), 10, 32)
	if err != nil || instructorID == 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid instructor_id parameter",
		})
		return
	}

	date, err := time.Parse("2006-01-02", c.Query("date"))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid date parameter, expected YYYY-MM-DD",
		})
		return
	}

	slots, err := h.service.GetAvailableSlots(c.Request.Context(), schoolID, uint(instructorID), date)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, slots)
}

// GetStudentSchedules returns one student's bookings
// @Summary Get student schedules
// @Tags schedules
// @Produce json
// @Param id path int true "Student ID"
// @Param page query int false "Page number (default: 1)"
// @Param size query int false "Page size (default: 20, max: 100)"
// @Success 200 {object} services.ScheduleListResponse
// @Router /students/{id}/schedules [get]
func (h *ScheduleHandler) GetStudentSchedules(c *gin.Context) {
	h.LogRequest(c, "Getting student schedules")

	schoolID, ok := h.schoolID(c)
	if !ok {
		return
	}
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	page, size := h.parsePagination(c)
	schedules, err := h.service.GetMySchedules(c.Request.Context(), schoolID, id, page, size)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, schedules)
}

// ListSchedules returns bookings with filters
// @Summary List schedules
// @Tags schedules
// @Produce json
// @Param page query int false "Page number (default: 1)"
// @Param size query int false "Page size (default: 20, max: 100)"
// @Param student_id query int false "Filter by student"
// @Param instructor_id query int false "Filter by instructor"
// @Param status query string false "Filter by status"
// @Param date_from query string false "From date (YYYY-MM-DD)"
// @Param date_to query string false "To date (YYYY-MM-DD)"
// @Success 200 {object} services.ScheduleListResponse
// @Router /schedules [get]
func (h *ScheduleHandler) ListSchedules(c *gin.Context) {
	h.LogRequest(c, "Listing schedules")

	schoolID, ok := h.schoolID(c)
	if !ok {
		return
	}

	var filters repositories.ScheduleFilters
	if v, err := strconv.ParseUint(c.Query("student_id"), 10, 32); err == nil && v > 0 {
		id := uint(v)
		filters.StudentID = &id
	}
	if v, err := strconv.ParseUint(c.Query("instructor_id"), 10, 32); err == nil && v > 0 {
		id := uint(v)
		filters.InstructorID = &id
	}
	if statusStr := c.Query("status"); statusStr != "" {
		status := models.ScheduleStatus(statusStr)
		filters.Status = &status
	}
	if from, err := time.Parse("2006-01-02", c.Query("date_from")); err == nil {
		filters.DateFrom = &from
	}
	if to, err := time.Parse("2006-01-02", c.Query("date_to")); err == nil {
		filters.DateTo = &to
	}

	page, size := h.parsePagination(c)
	schedules, err := h.service.List(c.Request.Context(), schoolID, filters, page, size)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, schedules)
}

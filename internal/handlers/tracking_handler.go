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

const maxPhotoSize = 5 << 20 // 5 MiB

// TrackingHandler covers the billing ledger, exam results and photo uploads.
type TrackingHandler struct {
	BaseHandler
	service services.TrackingService
}

func NewTrackingHandler(service services.TrackingService, logger utils.Logger) *TrackingHandler {
	return &TrackingHandler{
		BaseHandler: NewBaseHandler(logger),
		service:     service,
	}
}

// RecordPayment adds a ledger entry
// @Summary Record payment
// @Description Record a payment and recompute the student's remaining debt
// @Tags tracking
// @Accept json
// @Produce json
// @Param request body services.CreatePaymentRequest true "Payment data"
// @Success 201 {object} services.PaymentResponse
// @Failure 400 {object} ErrorResponse "Validation error"
// @Router /tracking/payments [post]
func (h *TrackingHandler) RecordPayment(c *gin.Context) {
	h.LogRequest(c, "Recording payment")

	schoolID, ok := h.schoolID(c)
	if !ok {
		return
	}

	var req services.CreatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request body",
			Details: err.Error(),
		})
		return
	}

	payment, err := h.service.RecordPayment(c.Request.Context(), schoolID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, payment)
}

// UpdatePayment changes status or notes
// @Summary Update payment
// @Tags tracking
// @Accept json
// @Produce json
// @Param id path int true "Payment ID"
// @Param request body services.UpdatePaymentRequest true "Fields to update"
// @Success 200 {object} services.PaymentResponse
// @Failure 404 {object} ErrorResponse "Payment not found"
// @Router /tracking/payments/{id} [put]
func (h *TrackingHandler) UpdatePayment(c *gin.Context) {
	h.LogRequest(c, "Updating payment")

	schoolID, ok := h.schoolID(c)
	if !ok {
		return
	}
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	var req services.UpdatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request body",
			Details: err.Error(),
		})
		return
	}

	payment, err := h.service.UpdatePayment(c.Request.Context(), schoolID, id, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, payment)
}

// ListPayments returns the ledger with filters
// @Summary List payments
// @Tags tracking
// @Produce json
// @Param page query int false "Page number (default: 1)"
// @Param size query int false "Page size (default: 20, max: 100)"
// @Param student_id query int false "Filter by student"
// @Param status query string false "Filter by status"
// @Param date_from query string false "From date (YYYY-MM-DD)"
// @Param date_to query string false "To date (YYYY-MM-DD)"
// @Success 200 {object} services.PaymentListResponse
// @Router /tracking/payments [get]
func (h *TrackingHandler) ListPayments(c *gin.Context) {
	h.LogRequest(c, "Listing payments")

	schoolID, ok := h.schoolID(c)
	if !ok {
		return
	}

	var filters repositories.PaymentFilters
	if v, err := strconv.ParseUint(c.Query("student_id"), 10, 32); err == nil && v > 0 {
		id := uint(v)
		filters.StudentID = &id
	}
	if statusStr := c.Query("status"); statusStr != "" {
		status := models.PaymentStatus(statusStr)
		filters.Status = &status
	}
	if from, err := time.Parse("2006-01-02", c.Query("date_from")); err == nil {
		filters.DateFrom = &from
	}
	if to, err := time.Parse("2006-01-02", c.Query("date_to")); err == nil {
		filters.DateTo = &to
	}

	page, size := h.parsePagination(c)
	payments, err := h.service.ListPayments(c.Request.Context(), schoolID, filters, page, size)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, payments)
}

// RecordExamResult records an exam outcome
// @Summary Record exam result
// @Description Upsert the latest exam slot and move the student's stage on pass or fail
// @Tags tracking
// @Accept json
// @Produce json
// @Param request body services.ExamResultRequest true "Exam result data"
// @Success 200 {object} models.ExamResult
// @Failure 404 {object} ErrorResponse "Student not found"
// @Router /tracking/exam-results [post]
func (h *TrackingHandler) RecordExamResult(c *gin.Context) {
	h.LogRequest(c, "Recording exam result")

	schoolID, ok := h.schoolID(c)
	if !ok {
		return
	}

	var req services.ExamResultRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request body",
			Details: err.Error(),
		})
		return
	}

	result, err := h.service.RecordExamResult(c.Request.Context(), schoolID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetExamResults lists a student's exam history
// @Summary Get exam results
// @Tags tracking
// @Produce json
// @Param id path int true "Student ID"
// @Success 200 {array} models.ExamResult
// @Router /students/{id}/exam-results [get]
func (h *TrackingHandler) GetExamResults(c *gin.Context) {
	h.LogRequest(c, "Getting exam results")

	schoolID, ok := h.schoolID(c)
	if !ok {
		return
	}
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	results, err := h.service.GetExamResults(c.Request.Context(), schoolID, id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, results)
}

// UploadPhoto stores a student photo
// @Summary Upload student photo
// @Tags tracking
// @Accept multipart/form-data
// @Produce json
// @Param id path int true "Student ID"
// @Param photo formData file true "Photo file (jpg, png or webp, max 5 MiB)"
// @Success 200 {object} map[string]string
// @Failure 400 {object} ErrorResponse "Invalid file"
// @Router /students/{id}/photo [post]
func (h *TrackingHandler) UploadPhoto(c *gin.Context) {
	h.LogRequest(c, "Uploading student photo")

	schoolID, ok := h.schoolID(c)
	if !ok {
		return
	}
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}

	file, err := c.FormFile("photo")
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Missing photo file",
			Details: err.Error(),
		})
		return
	}
	if file.Size > maxPhotoSize {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Photo exceeds the 5 MiB limit",
		})
		return
	}

	path, err := h.service.UploadPhoto(c.Request.Context(), schoolID, id, file)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"photo_path": path})
}

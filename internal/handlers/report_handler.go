package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/DSM-2025/drivingschool-service/internal/services"
	"github.com/DSM-2025/drivingschool-service/internal/utils"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ReportHandler serves XLSX downloads.
type ReportHandler struct {
	BaseHandler
	service services.ExportService
}

func NewReportHandler(service services.ExportService, logger utils.Logger) *ReportHandler {
	return &ReportHandler{
		BaseHandler: NewBaseHandler(logger),
		service:     service,
	}
}

// ExportStudents downloads the roster as a workbook
// @Summary Export students
// @Tags reports
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Success 200 {file} binary
// @Router /reports/students [get]
func (h *ReportHandler) ExportStudents(c *gin.Context) {
	h.LogRequest(c, "Exporting students")

	schoolID, ok := h.schoolID(c)
	if !ok {
		return
	}

	data, filename, err := h.service.ExportStudents(c.Request.Context(), schoolID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, xlsxContentType, data)
}

// ExportPayments downloads the ledger as a workbook
// @Summary Export payments
// @Tags reports
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Success 200 {file} binary
// @Router /reports/payments [get]
func (h *ReportHandler) ExportPayments(c *gin.Context) {
	h.LogRequest(c, "Exporting payments")

	schoolID, ok := h.schoolID(c)
	if !ok {
		return
	}

	data, filename, err := h.service.ExportPayments(c.Request.Context(), schoolID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, xlsxContentType, data)
}

package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/clockwise-hq/timetrack-api/internal/service"
	"github.com/clockwise-hq/timetrack-api/pkg/response"
)

// ReportHandler exposes aggregation and payroll export endpoints.
type ReportHandler struct {
	service *service.ReportService
}

// NewReportHandler constructs a report handler.
func NewReportHandler(svc *service.ReportService) *ReportHandler {
	return &ReportHandler{service: svc}
}

// PeriodReport godoc
// @Summary Pay period report
// @Description Hours summary, breakdowns, and payroll rows for one period
// @Tags Reports
// @Produce json
// @Param id path string true "Pay period ID"
// @Param format query string false "json, csv, xlsx, or pdf" default(json)
// @Success 200 {object} response.Envelope
// @Router /reports/pay-periods/{id} [get]
func (h *ReportHandler) PeriodReport(c *gin.Context) {
	id := c.Param("id")
	format := service.ReportFormat(c.DefaultQuery("format", "json"))

	if format == service.FormatJSON {
		report, err := h.service.PeriodReport(c.Request.Context(), id)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.JSON(c, http.StatusOK, report, nil)
		return
	}

	payload, contentType, err := h.service.Render(c.Request.Context(), id, format)
	if err != nil {
		response.Error(c, err)
		return
	}

	filename := fmt.Sprintf("payroll-%s.%s", id, format)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, contentType, payload)
}

package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/clockwise-hq/timetrack-api/internal/models"
	"github.com/clockwise-hq/timetrack-api/internal/service"
	appErrors "github.com/clockwise-hq/timetrack-api/pkg/errors"
	"github.com/clockwise-hq/timetrack-api/pkg/response"
)

// PayPeriodHandler exposes pay-period endpoints.
type PayPeriodHandler struct {
	service *service.PayPeriodService
}

// NewPayPeriodHandler constructs a pay-period handler.
func NewPayPeriodHandler(svc *service.PayPeriodService) *PayPeriodHandler {
	return &PayPeriodHandler{service: svc}
}

// List godoc
// @Summary List pay periods
// @Description List pay periods with filters
// @Tags PayPeriods
// @Produce json
// @Param group query string false "Filter by pay group (A or B)"
// @Param status query string false "Filter by status"
// @Param limit query int false "Max results"
// @Success 200 {object} response.Envelope
// @Router /pay-periods [get]
func (h *PayPeriodHandler) List(c *gin.Context) {
	var filter models.PayPeriodFilter
	filter.PayGroup = models.PayGroup(c.Query("group"))
	filter.Status = models.PayPeriodStatus(c.Query("status"))
	if limit, err := strconv.Atoi(c.DefaultQuery("limit", "50")); err == nil {
		filter.Limit = limit
	}

	periods, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, periods, nil)
}

// Current godoc
// @Summary Get current pay period
// @Description Open pay period of a group containing the given date
// @Tags PayPeriods
// @Produce json
// @Param group query string true "Pay group (A or B)"
// @Param at query string false "Date (YYYY-MM-DD), defaults to today"
// @Success 200 {object} response.Envelope
// @Router /pay-periods/current [get]
func (h *PayPeriodHandler) Current(c *gin.Context) {
	at := time.Now().UTC()
	if raw := c.Query("at"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "at must be YYYY-MM-DD"))
			return
		}
		at = parsed
	}

	period, err := h.service.Current(c.Request.Context(), models.PayGroup(c.Query("group")), at)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, period, nil)
}

// Get godoc
// @Summary Get pay period
// @Tags PayPeriods
// @Produce json
// @Param id path string true "Pay period ID"
// @Success 200 {object} response.Envelope
// @Router /pay-periods/{id} [get]
func (h *PayPeriodHandler) Get(c *gin.Context) {
	period, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, period, nil)
}

// Create godoc
// @Summary Create pay period
// @Tags PayPeriods
// @Accept json
// @Produce json
// @Param payload body service.CreatePayPeriodRequest true "Pay period payload"
// @Success 201 {object} response.Envelope
// @Router /pay-periods [post]
func (h *PayPeriodHandler) Create(c *gin.Context) {
	var req service.CreatePayPeriodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	period, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, period)
}

// Generate godoc
// @Summary Generate pay period schedule
// @Description Bulk-create a staggered schedule for both groups
// @Tags PayPeriods
// @Accept json
// @Produce json
// @Param payload body service.GenerateScheduleRequest true "Generation payload"
// @Success 201 {object} response.Envelope
// @Router /pay-periods/generate [post]
func (h *PayPeriodHandler) Generate(c *gin.Context) {
	var req service.GenerateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	periods, err := h.service.Generate(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, periods)
}

// Update godoc
// @Summary Update pay period
// @Tags PayPeriods
// @Accept json
// @Produce json
// @Param id path string true "Pay period ID"
// @Param payload body service.UpdatePayPeriodRequest true "Update payload"
// @Success 200 {object} response.Envelope
// @Router /pay-periods/{id} [put]
func (h *PayPeriodHandler) Update(c *gin.Context) {
	var req service.UpdatePayPeriodRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	period, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, period, nil)
}

// Close godoc
// @Summary Close pay period
// @Tags PayPeriods
// @Produce json
// @Param id path string true "Pay period ID"
// @Success 200 {object} response.Envelope
// @Router /pay-periods/{id}/close [post]
func (h *PayPeriodHandler) Close(c *gin.Context) {
	period, err := h.service.Close(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, period, nil)
}

// MarkProcessed godoc
// @Summary Mark pay period processed
// @Tags PayPeriods
// @Produce json
// @Param id path string true "Pay period ID"
// @Success 200 {object} response.Envelope
// @Router /pay-periods/{id}/process [post]
func (h *PayPeriodHandler) MarkProcessed(c *gin.Context) {
	period, err := h.service.MarkProcessed(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, period, nil)
}

package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/clockwise-hq/timetrack-api/internal/models"
	"github.com/clockwise-hq/timetrack-api/internal/service"
	appErrors "github.com/clockwise-hq/timetrack-api/pkg/errors"
	"github.com/clockwise-hq/timetrack-api/pkg/response"
)

// TimesheetHandler exposes timesheet workflow and entry endpoints.
type TimesheetHandler struct {
	sheets  *service.TimesheetService
	entries *service.EntryService
}

// NewTimesheetHandler constructs a timesheet handler.
func NewTimesheetHandler(sheets *service.TimesheetService, entries *service.EntryService) *TimesheetHandler {
	return &TimesheetHandler{sheets: sheets, entries: entries}
}

// Current godoc
// @Summary Get or create the current timesheet
// @Description Returns the caller's timesheet for their group's current pay period, creating a draft if needed
// @Tags Timesheets
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /timesheets/current [get]
func (h *TimesheetHandler) Current(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	sheet, period, err := h.sheets.GetOrCreateCurrent(c.Request.Context(), actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"timesheet": sheet, "pay_period": period}, nil)
}

// List godoc
// @Summary List timesheets
// @Description Reviewers see all; employees see their own
// @Tags Timesheets
// @Produce json
// @Param employeeId query string false "Filter by employee"
// @Param payPeriodId query string false "Filter by pay period"
// @Param status query string false "Filter by status"
// @Success 200 {object} response.Envelope
// @Router /timesheets [get]
func (h *TimesheetHandler) List(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	filter := models.TimesheetFilter{
		EmployeeID:  c.Query("employeeId"),
		PayPeriodID: c.Query("payPeriodId"),
		Status:      models.TimesheetStatus(c.Query("status")),
	}

	sheets, err := h.sheets.List(c.Request.Context(), actor, filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sheets, nil)
}

// Get godoc
// @Summary Get timesheet
// @Tags Timesheets
// @Produce json
// @Param id path string true "Timesheet ID"
// @Success 200 {object} response.Envelope
// @Router /timesheets/{id} [get]
func (h *TimesheetHandler) Get(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	sheet, err := h.sheets.Get(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sheet, nil)
}

// Submit godoc
// @Summary Submit timesheet
// @Tags Timesheets
// @Produce json
// @Param id path string true "Timesheet ID"
// @Success 200 {object} response.Envelope
// @Router /timesheets/{id}/submit [post]
func (h *TimesheetHandler) Submit(c *gin.Context) {
	h.transition(c, h.sheets.Submit)
}

// Approve godoc
// @Summary Approve timesheet
// @Tags Timesheets
// @Produce json
// @Param id path string true "Timesheet ID"
// @Success 200 {object} response.Envelope
// @Router /timesheets/{id}/approve [post]
func (h *TimesheetHandler) Approve(c *gin.Context) {
	h.transition(c, h.sheets.Approve)
}

// Reject godoc
// @Summary Reject timesheet
// @Tags Timesheets
// @Accept json
// @Produce json
// @Param id path string true "Timesheet ID"
// @Param payload body service.RejectTimesheetRequest true "Rejection payload"
// @Success 200 {object} response.Envelope
// @Router /timesheets/{id}/reject [post]
func (h *TimesheetHandler) Reject(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.RejectTimesheetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	sheet, err := h.sheets.Reject(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sheet, nil)
}

// Reopen godoc
// @Summary Reopen timesheet
// @Tags Timesheets
// @Produce json
// @Param id path string true "Timesheet ID"
// @Success 200 {object} response.Envelope
// @Router /timesheets/{id}/reopen [post]
func (h *TimesheetHandler) Reopen(c *gin.Context) {
	h.transition(c, h.sheets.Reopen)
}

// Delete godoc
// @Summary Delete timesheet
// @Tags Timesheets
// @Produce json
// @Param id path string true "Timesheet ID"
// @Success 204
// @Router /timesheets/{id} [delete]
func (h *TimesheetHandler) Delete(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	if err := h.sheets.Delete(c.Request.Context(), actor, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListTimeEntries godoc
// @Summary List time entries
// @Tags Entries
// @Produce json
// @Param id path string true "Timesheet ID"
// @Success 200 {object} response.Envelope
// @Router /timesheets/{id}/entries [get]
func (h *TimesheetHandler) ListTimeEntries(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	entries, err := h.entries.ListTimeEntries(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, nil)
}

// CreateTimeEntry godoc
// @Summary Add time entry
// @Tags Entries
// @Accept json
// @Produce json
// @Param id path string true "Timesheet ID"
// @Param payload body service.TimeEntryRequest true "Entry payload"
// @Success 201 {object} response.Envelope
// @Router /timesheets/{id}/entries [post]
func (h *TimesheetHandler) CreateTimeEntry(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.TimeEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	entry, err := h.entries.CreateTimeEntry(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, entry)
}

// UpdateTimeEntry godoc
// @Summary Update time entry
// @Tags Entries
// @Accept json
// @Produce json
// @Param entryId path string true "Entry ID"
// @Param payload body service.TimeEntryRequest true "Entry payload"
// @Success 200 {object} response.Envelope
// @Router /entries/{entryId} [put]
func (h *TimesheetHandler) UpdateTimeEntry(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.TimeEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	entry, err := h.entries.UpdateTimeEntry(c.Request.Context(), actor, c.Param("entryId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entry, nil)
}

// DeleteTimeEntry godoc
// @Summary Delete time entry
// @Tags Entries
// @Produce json
// @Param entryId path string true "Entry ID"
// @Success 204
// @Router /entries/{entryId} [delete]
func (h *TimesheetHandler) DeleteTimeEntry(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	if err := h.entries.DeleteTimeEntry(c.Request.Context(), actor, c.Param("entryId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListPTOEntries godoc
// @Summary List PTO entries
// @Tags Entries
// @Produce json
// @Param id path string true "Timesheet ID"
// @Success 200 {object} response.Envelope
// @Router /timesheets/{id}/pto [get]
func (h *TimesheetHandler) ListPTOEntries(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	entries, err := h.entries.ListPTOEntries(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, nil)
}

// CreatePTOEntry godoc
// @Summary Add PTO entry
// @Tags Entries
// @Accept json
// @Produce json
// @Param id path string true "Timesheet ID"
// @Param payload body service.PTOEntryRequest true "PTO payload"
// @Success 201 {object} response.Envelope
// @Router /timesheets/{id}/pto [post]
func (h *TimesheetHandler) CreatePTOEntry(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.PTOEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	entry, err := h.entries.CreatePTOEntry(c.Request.Context(), actor, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, entry)
}

// UpdatePTOEntry godoc
// @Summary Update PTO entry
// @Tags Entries
// @Accept json
// @Produce json
// @Param entryId path string true "Entry ID"
// @Param payload body service.PTOEntryRequest true "PTO payload"
// @Success 200 {object} response.Envelope
// @Router /pto/{entryId} [put]
func (h *TimesheetHandler) UpdatePTOEntry(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.PTOEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	entry, err := h.entries.UpdatePTOEntry(c.Request.Context(), actor, c.Param("entryId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entry, nil)
}

// DeletePTOEntry godoc
// @Summary Delete PTO entry
// @Tags Entries
// @Produce json
// @Param entryId path string true "Entry ID"
// @Success 204
// @Router /pto/{entryId} [delete]
func (h *TimesheetHandler) DeletePTOEntry(c *gin.Context) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	if err := h.entries.DeletePTOEntry(c.Request.Context(), actor, c.Param("entryId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

func (h *TimesheetHandler) transition(c *gin.Context, fn func(ctx context.Context, actor service.Actor, id string) (*models.Timesheet, error)) {
	actor, ok := actorFromContext(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	sheet, err := fn(c.Request.Context(), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sheet, nil)
}

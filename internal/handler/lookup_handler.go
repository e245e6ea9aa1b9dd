package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/clockwise-hq/timetrack-api/internal/service"
	appErrors "github.com/clockwise-hq/timetrack-api/pkg/errors"
	"github.com/clockwise-hq/timetrack-api/pkg/response"
)

// LookupHandler exposes reference-data endpoints for clients, locations,
// job codes, and service types.
type LookupHandler struct {
	service *service.LookupService
}

// NewLookupHandler constructs a lookup handler.
func NewLookupHandler(svc *service.LookupService) *LookupHandler {
	return &LookupHandler{service: svc}
}

func activeOnly(c *gin.Context) bool {
	val, err := strconv.ParseBool(c.DefaultQuery("active", "true"))
	if err != nil {
		return true
	}
	return val
}

// ListClients godoc
// @Summary List clients
// @Tags Lookups
// @Produce json
// @Param active query bool false "Only active records" default(true)
// @Success 200 {object} response.Envelope
// @Router /clients [get]
func (h *LookupHandler) ListClients(c *gin.Context) {
	clients, err := h.service.ListClients(c.Request.Context(), activeOnly(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, clients, nil)
}

// CreateClient godoc
// @Summary Create client
// @Tags Lookups
// @Accept json
// @Produce json
// @Param payload body service.ClientRequest true "Client payload"
// @Success 201 {object} response.Envelope
// @Router /clients [post]
func (h *LookupHandler) CreateClient(c *gin.Context) {
	var req service.ClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	client, err := h.service.CreateClient(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, client)
}

// UpdateClient godoc
// @Summary Update client
// @Tags Lookups
// @Accept json
// @Produce json
// @Param id path string true "Client ID"
// @Param payload body service.ClientRequest true "Client payload"
// @Success 200 {object} response.Envelope
// @Router /clients/{id} [put]
func (h *LookupHandler) UpdateClient(c *gin.Context) {
	var req service.ClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	client, err := h.service.UpdateClient(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, client, nil)
}

// ListLocations godoc
// @Summary List locations
// @Tags Lookups
// @Produce json
// @Param active query bool false "Only active records" default(true)
// @Success 200 {object} response.Envelope
// @Router /locations [get]
func (h *LookupHandler) ListLocations(c *gin.Context) {
	locations, err := h.service.ListLocations(c.Request.Context(), activeOnly(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, locations, nil)
}

// CreateLocation godoc
// @Summary Create location
// @Tags Lookups
// @Accept json
// @Produce json
// @Param payload body service.LocationRequest true "Location payload"
// @Success 201 {object} response.Envelope
// @Router /locations [post]
func (h *LookupHandler) CreateLocation(c *gin.Context) {
	var req service.LocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	location, err := h.service.CreateLocation(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, location)
}

// UpdateLocation godoc
// @Summary Update location
// @Tags Lookups
// @Accept json
// @Produce json
// @Param id path string true "Location ID"
// @Param payload body service.LocationRequest true "Location payload"
// @Success 200 {object} response.Envelope
// @Router /locations/{id} [put]
func (h *LookupHandler) UpdateLocation(c *gin.Context) {
	var req service.LocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	location, err := h.service.UpdateLocation(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, location, nil)
}

// ListJobCodes godoc
// @Summary List job codes
// @Tags Lookups
// @Produce json
// @Param active query bool false "Only active records" default(true)
// @Success 200 {object} response.Envelope
// @Router /job-codes [get]
func (h *LookupHandler) ListJobCodes(c *gin.Context) {
	codes, err := h.service.ListJobCodes(c.Request.Context(), activeOnly(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, codes, nil)
}

// CreateJobCode godoc
// @Summary Create job code
// @Tags Lookups
// @Accept json
// @Produce json
// @Param payload body service.JobCodeRequest true "Job code payload"
// @Success 201 {object} response.Envelope
// @Router /job-codes [post]
func (h *LookupHandler) CreateJobCode(c *gin.Context) {
	var req service.JobCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	code, err := h.service.CreateJobCode(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, code)
}

// UpdateJobCode godoc
// @Summary Update job code
// @Tags Lookups
// @Accept json
// @Produce json
// @Param id path string true "Job code ID"
// @Param payload body service.JobCodeRequest true "Job code payload"
// @Success 200 {object} response.Envelope
// @Router /job-codes/{id} [put]
func (h *LookupHandler) UpdateJobCode(c *gin.Context) {
	var req service.JobCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	code, err := h.service.UpdateJobCode(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, code, nil)
}

// ListServiceTypes godoc
// @Summary List service types
// @Tags Lookups
// @Produce json
// @Param active query bool false "Only active records" default(true)
// @Success 200 {object} response.Envelope
// @Router /service-types [get]
func (h *LookupHandler) ListServiceTypes(c *gin.Context) {
	types, err := h.service.ListServiceTypes(c.Request.Context(), activeOnly(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, types, nil)
}

// CreateServiceType godoc
// @Summary Create service type
// @Tags Lookups
// @Accept json
// @Produce json
// @Param payload body service.ServiceTypeRequest true "Service type payload"
// @Success 201 {object} response.Envelope
// @Router /service-types [post]
func (h *LookupHandler) CreateServiceType(c *gin.Context) {
	var req service.ServiceTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	st, err := h.service.CreateServiceType(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, st)
}

// UpdateServiceType godoc
// @Summary Update service type
// @Tags Lookups
// @Accept json
// @Produce json
// @Param id path string true "Service type ID"
// @Param payload body service.ServiceTypeRequest true "Service type payload"
// @Success 200 {object} response.Envelope
// @Router /service-types/{id} [put]
func (h *LookupHandler) UpdateServiceType(c *gin.Context) {
	var req service.ServiceTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	st, err := h.service.UpdateServiceType(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, st, nil)
}

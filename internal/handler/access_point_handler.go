package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/eventmgr/checkin-api/internal/service"
	appErrors "github.com/eventmgr/checkin-api/pkg/errors"
	"github.com/eventmgr/checkin-api/pkg/response"
)

// AccessPointHandler handles checkpoint endpoints.
type AccessPointHandler struct {
	service *service.AccessPointService
}

// NewAccessPointHandler constructs an access point handler.
func NewAccessPointHandler(svc *service.AccessPointService) *AccessPointHandler {
	return &AccessPointHandler{service: svc}
}

// List godoc
// @Summary List access points for an event
// @Tags AccessPoints
// @Produce json
// @Param eventID path int true "Event ID"
// @Success 200 {object} response.Envelope
// @Router /events/{eventID}/access-points [get]
func (h *AccessPointHandler) List(c *gin.Context) {
	eventID, err := pathID(c, "eventID")
	if err != nil {
		response.Error(c, err)
		return
	}
	points, err := h.service.List(c.Request.Context(), eventID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, points, nil)
}

// Get godoc
// @Summary Get access point by id
// @Tags AccessPoints
// @Produce json
// @Param id path int true "Access point ID"
// @Success 200 {object} response.Envelope
// @Router /access-points/{id} [get]
func (h *AccessPointHandler) Get(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	point, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, point, nil)
}

// Create godoc
// @Summary Create an access point
// @Tags AccessPoints
// @Accept json
// @Produce json
// @Param eventID path int true "Event ID"
// @Param payload body service.AccessPointRequest true "Access point payload"
// @Success 201 {object} response.Envelope
// @Router /events/{eventID}/access-points [post]
func (h *AccessPointHandler) Create(c *gin.Context) {
	eventID, err := pathID(c, "eventID")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req service.AccessPointRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	point, err := h.service.Create(c.Request.Context(), eventID, actorFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, point)
}

// Update godoc
// @Summary Update an access point
// @Tags AccessPoints
// @Accept json
// @Produce json
// @Param id path int true "Access point ID"
// @Param payload body service.AccessPointRequest true "Access point payload"
// @Success 200 {object} response.Envelope
// @Router /access-points/{id} [put]
func (h *AccessPointHandler) Update(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req service.AccessPointRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	point, err := h.service.Update(c.Request.Context(), id, actorFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, point, nil)
}

// Deactivate godoc
// @Summary Deactivate an access point
// @Tags AccessPoints
// @Produce json
// @Param id path int true "Access point ID"
// @Success 204
// @Router /access-points/{id} [delete]
func (h *AccessPointHandler) Deactivate(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.service.Deactivate(c.Request.Context(), id, actorFromContext(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

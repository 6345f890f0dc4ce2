package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/eventmgr/checkin-api/internal/service"
	appErrors "github.com/eventmgr/checkin-api/pkg/errors"
	"github.com/eventmgr/checkin-api/pkg/response"
)

// TicketAccessHandler handles ticket-type grant endpoints.
type TicketAccessHandler struct {
	service *service.TicketAccessService
}

// NewTicketAccessHandler constructs a ticket access handler.
func NewTicketAccessHandler(svc *service.TicketAccessService) *TicketAccessHandler {
	return &TicketAccessHandler{service: svc}
}

// ListTicketTypes godoc
// @Summary List ticket types for an event
// @Tags TicketAccess
// @Produce json
// @Param eventID path int true "Event ID"
// @Success 200 {object} response.Envelope
// @Router /events/{eventID}/ticket-types [get]
func (h *TicketAccessHandler) ListTicketTypes(c *gin.Context) {
	eventID, err := pathID(c, "eventID")
	if err != nil {
		response.Error(c, err)
		return
	}
	types, err := h.service.ListTicketTypes(c.Request.Context(), eventID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, types, nil)
}

// Assignments godoc
// @Summary List access point assignments for a ticket type
// @Tags TicketAccess
// @Produce json
// @Param eventID path int true "Event ID"
// @Param ticketTypeID path int true "Ticket type ID"
// @Success 200 {object} response.Envelope
// @Router /events/{eventID}/ticket-types/{ticketTypeID}/access-points [get]
func (h *TicketAccessHandler) Assignments(c *gin.Context) {
	eventID, err := pathID(c, "eventID")
	if err != nil {
		response.Error(c, err)
		return
	}
	ticketTypeID, err := pathID(c, "ticketTypeID")
	if err != nil {
		response.Error(c, err)
		return
	}
	assignments, err := h.service.Assignments(c.Request.Context(), ticketTypeID, eventID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, assignments, nil)
}

// SaveAssignmentsRequest replaces the grant set of a ticket type.
type SaveAssignmentsRequest struct {
	AccessPointIDs []int64 `json:"access_point_ids"`
}

// SaveAssignments godoc
// @Summary Replace access point assignments for a ticket type
// @Tags TicketAccess
// @Accept json
// @Produce json
// @Param eventID path int true "Event ID"
// @Param ticketTypeID path int true "Ticket type ID"
// @Param payload body SaveAssignmentsRequest true "Assignment payload"
// @Success 204
// @Router /events/{eventID}/ticket-types/{ticketTypeID}/access-points [put]
func (h *TicketAccessHandler) SaveAssignments(c *gin.Context) {
	ticketTypeID, err := pathID(c, "ticketTypeID")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req SaveAssignmentsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if err := h.service.SaveAssignments(c.Request.Context(), ticketTypeID, req.AccessPointIDs, actorFromContext(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

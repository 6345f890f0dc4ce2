package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/eventmgr/checkin-api/internal/models"
	"github.com/eventmgr/checkin-api/internal/service"
	appErrors "github.com/eventmgr/checkin-api/pkg/errors"
	"github.com/eventmgr/checkin-api/pkg/response"
)

// ParticipantHandler handles attendee endpoints.
type ParticipantHandler struct {
	participants  *service.ParticipantService
	communication *service.CommunicationService
}

// NewParticipantHandler constructs a participant handler.
func NewParticipantHandler(participants *service.ParticipantService, communication *service.CommunicationService) *ParticipantHandler {
	return &ParticipantHandler{participants: participants, communication: communication}
}

// List godoc
// @Summary List participants for an event
// @Tags Participants
// @Produce json
// @Param eventID path int true "Event ID"
// @Param search query string false "Search keyword"
// @Param active query bool false "Filter by active flag"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /events/{eventID}/participants [get]
func (h *ParticipantHandler) List(c *gin.Context) {
	eventID, err := pathID(c, "eventID")
	if err != nil {
		response.Error(c, err)
		return
	}
	filter := models.ParticipantFilter{
		EventID: eventID,
		Search:  strings.TrimSpace(c.Query("search")),
	}
	if raw := c.Query("active"); raw != "" {
		if active, err := strconv.ParseBool(raw); err == nil {
			filter.Active = &active
		}
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if limit, err := strconv.Atoi(c.DefaultQuery("limit", "50")); err == nil {
		filter.PageSize = limit
	}
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	participants, total, err := h.participants.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	pagination := &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}
	response.JSON(c, http.StatusOK, participants, pagination)
}

// Get godoc
// @Summary Get participant by id
// @Tags Participants
// @Produce json
// @Param id path int true "Participant ID"
// @Success 200 {object} response.Envelope
// @Router /participants/{id} [get]
func (h *ParticipantHandler) Get(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	participant, err := h.participants.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, participant, nil)
}

// Create godoc
// @Summary Register a participant manually
// @Tags Participants
// @Accept json
// @Produce json
// @Param eventID path int true "Event ID"
// @Param payload body service.CreateParticipantRequest true "Participant payload"
// @Success 201 {object} response.Envelope
// @Router /events/{eventID}/participants [post]
func (h *ParticipantHandler) Create(c *gin.Context) {
	eventID, err := pathID(c, "eventID")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req service.CreateParticipantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	participant, err := h.participants.Create(c.Request.Context(), eventID, actorFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, participant)
}

// Update godoc
// @Summary Update participant
// @Tags Participants
// @Accept json
// @Produce json
// @Param id path int true "Participant ID"
// @Param payload body service.UpdateParticipantRequest true "Participant payload"
// @Success 200 {object} response.Envelope
// @Router /participants/{id} [put]
func (h *ParticipantHandler) Update(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req service.UpdateParticipantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	participant, err := h.participants.Update(c.Request.Context(), id, actorFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, participant, nil)
}

// Delete godoc
// @Summary Soft delete participant
// @Tags Participants
// @Produce json
// @Param id path int true "Participant ID"
// @Success 204
// @Router /participants/{id} [delete]
func (h *ParticipantHandler) Delete(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.participants.Delete(c.Request.Context(), id, actorFromContext(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Credential godoc
// @Summary Get the scannable credential token for a participant
// @Tags Participants
// @Produce json
// @Param id path int true "Participant ID"
// @Success 200 {object} response.Envelope
// @Router /participants/{id}/credential [get]
func (h *ParticipantHandler) Credential(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	token, err := h.participants.CredentialToken(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"credential_token": token}, nil)
}

// SendCredential godoc
// @Summary Queue a credential email for a participant
// @Tags Participants
// @Produce json
// @Param id path int true "Participant ID"
// @Success 202 {object} response.Envelope
// @Router /participants/{id}/credential/send [post]
func (h *ParticipantHandler) SendCredential(c *gin.Context) {
	id, err := pathID(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	if h.communication == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "mail delivery not configured"))
		return
	}
	if err := h.communication.EnqueueCredential(c.Request.Context(), id); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to queue email"))
		return
	}
	response.JSON(c, http.StatusAccepted, gin.H{"queued": true}, nil)
}

package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/eventmgr/checkin-api/internal/service"
	appErrors "github.com/eventmgr/checkin-api/pkg/errors"
	"github.com/eventmgr/checkin-api/pkg/response"
)

// ScanHandler handles checkpoint scan endpoints.
type ScanHandler struct {
	scans  *service.ScanService
	badges *service.BadgeService
}

// NewScanHandler constructs a scan handler.
func NewScanHandler(scans *service.ScanService, badges *service.BadgeService) *ScanHandler {
	return &ScanHandler{scans: scans, badges: badges}
}

// Evaluate godoc
// @Summary Evaluate a credential scan
// @Tags Scans
// @Accept json
// @Produce json
// @Param eventID path int true "Event ID"
// @Param payload body service.ScanRequest true "Scan payload"
// @Success 200 {object} response.Envelope
// @Router /events/{eventID}/scans [post]
func (h *ScanHandler) Evaluate(c *gin.Context) {
	eventID, err := pathID(c, "eventID")
	if err != nil {
		response.Error(c, err)
		return
	}
	var req service.ScanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	req.EventID = eventID
	req.ScannerID = actorFromContext(c)

	result, err := h.scans.Evaluate(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Statistics godoc
// @Summary Scan outcome counts for one access point
// @Tags Scans
// @Produce json
// @Param eventID path int true "Event ID"
// @Param accessPointID path int true "Access point ID"
// @Success 200 {object} response.Envelope
// @Router /events/{eventID}/access-points/{accessPointID}/scan-statistics [get]
func (h *ScanHandler) Statistics(c *gin.Context) {
	eventID, err := pathID(c, "eventID")
	if err != nil {
		response.Error(c, err)
		return
	}
	accessPointID, err := pathID(c, "accessPointID")
	if err != nil {
		response.Error(c, err)
		return
	}
	stats, err := h.scans.Statistics(c.Request.Context(), eventID, accessPointID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats, nil)
}

// Recent godoc
// @Summary Latest scans for one access point
// @Tags Scans
// @Produce json
// @Param eventID path int true "Event ID"
// @Param accessPointID path int true "Access point ID"
// @Success 200 {object} response.Envelope
// @Router /events/{eventID}/access-points/{accessPointID}/scans [get]
func (h *ScanHandler) Recent(c *gin.Context) {
	eventID, err := pathID(c, "eventID")
	if err != nil {
		response.Error(c, err)
		return
	}
	accessPointID, err := pathID(c, "accessPointID")
	if err != nil {
		response.Error(c, err)
		return
	}
	entries, err := h.scans.RecentScans(c.Request.Context(), eventID, accessPointID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, nil)
}

// ExportStatistics godoc
// @Summary Download scan outcome counts as CSV or PDF
// @Tags Scans
// @Produce text/csv
// @Produce application/pdf
// @Param eventID path int true "Event ID"
// @Param accessPointID path int true "Access point ID"
// @Param format query string false "Report format (csv or pdf)" Enums(csv, pdf)
// @Success 200 {file} binary
// @Router /events/{eventID}/access-points/{accessPointID}/scan-statistics/export [get]
func (h *ScanHandler) ExportStatistics(c *gin.Context) {
	eventID, err := pathID(c, "eventID")
	if err != nil {
		response.Error(c, err)
		return
	}
	accessPointID, err := pathID(c, "accessPointID")
	if err != nil {
		response.Error(c, err)
		return
	}
	payload, name, contentType, err := h.scans.ExportStatistics(c.Request.Context(), eventID, accessPointID, c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.Data(http.StatusOK, contentType, payload)
}

// Badge godoc
// @Summary Download a generated badge PDF
// @Tags Scans
// @Produce application/pdf
// @Param token query string true "Signed badge token"
// @Success 200 {file} binary
// @Router /scans/badges [get]
func (h *ScanHandler) Badge(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "token is required"))
		return
	}
	file, name, err := h.badges.Open(token)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close() //nolint:errcheck

	info, err := file.Stat()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read badge"))
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.Header("Cache-Control", "no-store")
	c.DataFromReader(http.StatusOK, info.Size(), "application/pdf", file, nil)
}

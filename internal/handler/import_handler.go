package handler

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/eventmgr/checkin-api/internal/service"
	appErrors "github.com/eventmgr/checkin-api/pkg/errors"
	"github.com/eventmgr/checkin-api/pkg/response"
)

// ImportHandler handles roster import endpoints.
type ImportHandler struct {
	service *service.ImportService
}

// NewImportHandler constructs an import handler.
func NewImportHandler(svc *service.ImportService) *ImportHandler {
	return &ImportHandler{service: svc}
}

// Upload godoc
// @Summary Upload and import an attendee roster
// @Tags Imports
// @Accept multipart/form-data
// @Produce json
// @Param eventID path int true "Event ID"
// @Param file formData file true "Roster file (CSV)"
// @Success 200 {object} response.Envelope
// @Router /events/{eventID}/participants/import [post]
func (h *ImportHandler) Upload(c *gin.Context) {
	eventID, err := pathID(c, "eventID")
	if err != nil {
		response.Error(c, err)
		return
	}
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "file is required"))
		return
	}
	src, err := fileHeader.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open file"))
		return
	}
	defer src.Close() //nolint:errcheck

	data, err := io.ReadAll(src)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to buffer file"))
		return
	}

	result, err := h.service.ImportFile(c.Request.Context(), service.ImportFileRequest{
		EventID:   eventID,
		CreatedBy: claims.UserID,
		Filename:  fileHeader.Filename,
		Data:      data,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Errors godoc
// @Summary List validation errors of the staged batch
// @Tags Imports
// @Produce json
// @Param eventID path int true "Event ID"
// @Success 200 {object} response.Envelope
// @Router /events/{eventID}/participants/import/staged-errors [get]
func (h *ImportHandler) Errors(c *gin.Context) {
	eventID, err := pathID(c, "eventID")
	if err != nil {
		response.Error(c, err)
		return
	}
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	rowErrors, err := h.service.Validate(c.Request.Context(), eventID, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rowErrors, nil)
}

// Commit godoc
// @Summary Commit the staged batch into permanent participants
// @Tags Imports
// @Produce json
// @Param eventID path int true "Event ID"
// @Success 200 {object} response.Envelope
// @Router /events/{eventID}/participants/import/commit [post]
func (h *ImportHandler) Commit(c *gin.Context) {
	eventID, err := pathID(c, "eventID")
	if err != nil {
		response.Error(c, err)
		return
	}
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	imported, err := h.service.Commit(c.Request.Context(), eventID, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"imported_rows": imported}, nil)
}

// Discard godoc
// @Summary Discard the staged batch
// @Tags Imports
// @Produce json
// @Param eventID path int true "Event ID"
// @Success 204
// @Router /events/{eventID}/participants/import [delete]
func (h *ImportHandler) Discard(c *gin.Context) {
	eventID, err := pathID(c, "eventID")
	if err != nil {
		response.Error(c, err)
		return
	}
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if err := h.service.Discard(c.Request.Context(), eventID, claims.UserID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ErrorReport godoc
// @Summary Download the validation error report
// @Tags Imports
// @Produce text/csv
// @Param token query string true "Signed report token"
// @Success 200 {file} binary
// @Router /events/{eventID}/participants/import/errors [get]
func (h *ImportHandler) ErrorReport(c *gin.Context) {
	token := strings.TrimSpace(c.Query("token"))
	if token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "token is required"))
		return
	}
	file, name, err := h.service.OpenErrorReport(token)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close() //nolint:errcheck

	info, err := file.Stat()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read report"))
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.Header("Cache-Control", "no-store")
	c.DataFromReader(http.StatusOK, info.Size(), "text/csv", file, nil)
}

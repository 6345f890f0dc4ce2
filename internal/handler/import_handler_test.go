package handler

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/eventmgr/checkin-api/internal/middleware"
	"github.com/eventmgr/checkin-api/internal/models"
)

func organizerClaims() *models.JWTClaims {
	return &models.JWTClaims{UserID: "organizer-1", Role: models.RoleOrganizer}
}

func TestImportHandlerUploadRejectsBadEventID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewImportHandler(nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/events/abc/participants/import", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "eventID", Value: "abc"}}
	c.Set(middleware.ContextUserKey, organizerClaims())

	handler.Upload(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestImportHandlerUploadRequiresAuthentication(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewImportHandler(nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/events/42/participants/import", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "eventID", Value: "42"}}

	handler.Upload(c)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestImportHandlerUploadRequiresFile(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewImportHandler(nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/events/42/participants/import", bytes.NewReader(nil))
	req.Header.Set("Content-Type", "multipart/form-data; boundary=xyz")
	c.Request = req
	c.Params = gin.Params{{Key: "eventID", Value: "42"}}
	c.Set(middleware.ContextUserKey, organizerClaims())

	handler.Upload(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "file is required")
}

func TestImportHandlerCommitRequiresAuthentication(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewImportHandler(nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/events/42/participants/import/commit", nil)
	c.Request = req
	c.Params = gin.Params{{Key: "eventID", Value: "42"}}

	handler.Commit(c)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestImportHandlerErrorReportRequiresToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewImportHandler(nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/events/42/participants/import/errors", nil)
	c.Request = req

	handler.ErrorReport(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "token is required")
}

package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventmgr/checkin-api/internal/credential"
	"github.com/eventmgr/checkin-api/internal/middleware"
	"github.com/eventmgr/checkin-api/internal/models"
	"github.com/eventmgr/checkin-api/internal/service"
)

type ledgerMock struct {
	appended []*models.ScanRecord
}

func (m *ledgerMock) Append(_ context.Context, rec *models.ScanRecord) error {
	m.appended = append(m.appended, rec)
	return nil
}

func (m *ledgerMock) AppendValid(_ context.Context, rec *models.ScanRecord) (bool, error) {
	m.appended = append(m.appended, rec)
	return true, nil
}

func (m *ledgerMock) HasPriorScan(context.Context, int64, int64) (bool, error) {
	return false, nil
}

func (m *ledgerMock) Statistics(context.Context, int64, int64) (*models.ScanStatistics, error) {
	return &models.ScanStatistics{}, nil
}

func (m *ledgerMock) Recent(context.Context, int64, int64, int) ([]models.ScanLogEntry, error) {
	return nil, nil
}

type participantsMock struct{ participant *models.Participant }

func (m *participantsMock) FindByCredential(context.Context, int64, string) (*models.Participant, error) {
	return m.participant, nil
}

type accessPointsMock struct{ point *models.AccessPoint }

func (m *accessPointsMock) FindByID(context.Context, int64) (*models.AccessPoint, error) {
	return m.point, nil
}

type grantsMock struct{}

func (grantsMock) GrantedAccessPoints(context.Context, int64) ([]int64, error) {
	return nil, nil
}

func newScanHandlerFixture() (*ScanHandler, *ledgerMock) {
	ledger := &ledgerMock{}
	participants := &participantsMock{participant: &models.Participant{
		ID:              7,
		EventID:         42,
		FirstName:       "Ada",
		LastName:        "Lovelace",
		ParticipantCode: "CODE7",
		Active:          true,
	}}
	accessPoints := &accessPointsMock{point: &models.AccessPoint{ID: 5, EventID: 42, Active: true}}
	svc := service.NewScanService(ledger, participants, accessPoints, grantsMock{}, nil, nil, nil, nil, 0)
	return NewScanHandler(svc, nil), ledger
}

func TestScanHandlerEvaluateAdmits(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, ledger := newScanHandlerFixture()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	body, _ := json.Marshal(service.ScanRequest{
		CredentialToken: credential.Encode("CODE7", 42),
		AccessPointID:   5,
	})
	req, _ := http.NewRequest(http.MethodPost, "/events/42/scans", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Params = gin.Params{{Key: "eventID", Value: "42"}}
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "scanner-1", Role: models.RoleScanner})

	handler.Evaluate(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"outcome":"VALID"`)
	require.Len(t, ledger.appended, 1)
	assert.Equal(t, "scanner-1", ledger.appended[0].ScannedBy)
}

func TestScanHandlerEvaluateRejectsBadEventID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, _ := newScanHandlerFixture()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/events/abc/scans", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Params = gin.Params{{Key: "eventID", Value: "abc"}}

	handler.Evaluate(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestScanHandlerEvaluateRejectsInvalidBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler, _ := newScanHandlerFixture()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/events/42/scans", bytes.NewReader([]byte(`not-json`)))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Params = gin.Params{{Key: "eventID", Value: "42"}}

	handler.Evaluate(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

package service

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventmgr/checkin-api/internal/credential"
	"github.com/eventmgr/checkin-api/internal/models"
	appErrors "github.com/eventmgr/checkin-api/pkg/errors"
)

type fakeLedger struct {
	appended    []*models.ScanRecord
	prior       bool
	priorErr    error
	insertOK    bool
	appendErr   error
	validErr    error
	stats       *models.ScanStatistics
	recent      []models.ScanLogEntry
	recentLimit int
}

func (f *fakeLedger) Append(_ context.Context, rec *models.ScanRecord) error {
	if f.appendErr != nil {
		return f.appendErr
	}
	f.appended = append(f.appended, rec)
	return nil
}

func (f *fakeLedger) AppendValid(_ context.Context, rec *models.ScanRecord) (bool, error) {
	if f.validErr != nil {
		return false, f.validErr
	}
	if f.insertOK {
		f.appended = append(f.appended, rec)
	}
	return f.insertOK, nil
}

func (f *fakeLedger) HasPriorScan(context.Context, int64, int64) (bool, error) {
	return f.prior, f.priorErr
}

func (f *fakeLedger) Statistics(context.Context, int64, int64) (*models.ScanStatistics, error) {
	return f.stats, nil
}

func (f *fakeLedger) Recent(_ context.Context, _, _ int64, limit int) ([]models.ScanLogEntry, error) {
	f.recentLimit = limit
	return f.recent, nil
}

type fakeParticipants struct {
	participant *models.Participant
	err         error
}

func (f *fakeParticipants) FindByCredential(context.Context, int64, string) (*models.Participant, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.participant, nil
}

type fakeAccessPoints struct {
	point *models.AccessPoint
	err   error
}

func (f *fakeAccessPoints) FindByID(context.Context, int64) (*models.AccessPoint, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.point, nil
}

type fakeGrants struct {
	granted []int64
	err     error
}

func (f *fakeGrants) GrantedAccessPoints(context.Context, int64) ([]int64, error) {
	return f.granted, f.err
}

type fakeBadges struct {
	url    string
	err    error
	issued bool
}

func (f *fakeBadges) Issue(context.Context, *models.Participant) (string, error) {
	f.issued = true
	return f.url, f.err
}

func ticketType(id int64) *int64 { return &id }

func scanFixture() (*fakeLedger, *fakeParticipants, *fakeAccessPoints, *fakeGrants) {
	ledger := &fakeLedger{insertOK: true}
	participants := &fakeParticipants{participant: &models.Participant{
		ID:              7,
		EventID:         42,
		FirstName:       "Ada",
		LastName:        "Lovelace",
		ParticipantCode: "CODE7",
		TicketTypeID:    ticketType(3),
		Active:          true,
	}}
	accessPoints := &fakeAccessPoints{point: &models.AccessPoint{ID: 5, EventID: 42, Name: "Main Gate", Active: true}}
	grants := &fakeGrants{granted: []int64{5, 9}}
	return ledger, participants, accessPoints, grants
}

func scanRequest() ScanRequest {
	return ScanRequest{
		EventID:         42,
		CredentialToken: credential.Encode("CODE7", 42),
		AccessPointID:   5,
		ScannerID:       "user-1",
	}
}

func TestEvaluateAdmitsAuthorizedCredential(t *testing.T) {
	ledger, participants, accessPoints, grants := scanFixture()
	svc := NewScanService(ledger, participants, accessPoints, grants, nil, nil, nil, nil, 0)

	result, err := svc.Evaluate(context.Background(), scanRequest())
	require.NoError(t, err)
	assert.Equal(t, models.ScanOutcomeValid, result.Outcome)
	assert.Equal(t, "Ada Lovelace", result.HolderName)
	assert.Equal(t, "CODE7", result.ParticipantCode)
	require.Len(t, ledger.appended, 1)
	assert.Equal(t, models.ScanOutcomeValid, ledger.appended[0].Outcome)
	assert.Equal(t, "user-1", ledger.appended[0].ScannedBy)
}

func TestEvaluateRejectsMalformedToken(t *testing.T) {
	ledger, participants, accessPoints, grants := scanFixture()
	svc := NewScanService(ledger, participants, accessPoints, grants, nil, nil, nil, nil, 0)

	req := scanRequest()
	req.CredentialToken = "no-separator-here"
	result, err := svc.Evaluate(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, models.ScanOutcomeInvalid, result.Outcome)
	assert.Nil(t, result.ParticipantID)
	require.Len(t, ledger.appended, 1)
	assert.Nil(t, ledger.appended[0].ParticipantID)
}

func TestEvaluateRejectsTokenForAnotherEvent(t *testing.T) {
	ledger, participants, accessPoints, grants := scanFixture()
	svc := NewScanService(ledger, participants, accessPoints, grants, nil, nil, nil, nil, 0)

	req := scanRequest()
	req.CredentialToken = credential.Encode("CODE7", 99)
	result, err := svc.Evaluate(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, models.ScanOutcomeInvalid, result.Outcome)
	assert.Contains(t, result.Message, "different event")
}

func TestEvaluateRejectsUnknownParticipant(t *testing.T) {
	ledger, participants, accessPoints, grants := scanFixture()
	participants.err = sql.ErrNoRows
	svc := NewScanService(ledger, participants, accessPoints, grants, nil, nil, nil, nil, 0)

	result, err := svc.Evaluate(context.Background(), scanRequest())
	require.NoError(t, err)
	assert.Equal(t, models.ScanOutcomeInvalid, result.Outcome)
	require.Len(t, ledger.appended, 1)
	assert.Nil(t, ledger.appended[0].ParticipantID)
}

func TestEvaluateRejectsInactiveAccessPoint(t *testing.T) {
	ledger, participants, accessPoints, grants := scanFixture()
	accessPoints.point.Active = false
	svc := NewScanService(ledger, participants, accessPoints, grants, nil, nil, nil, nil, 0)

	result, err := svc.Evaluate(context.Background(), scanRequest())
	require.NoError(t, err)
	assert.Equal(t, models.ScanOutcomeInvalidAccess, result.Outcome)
	require.Len(t, ledger.appended, 1)
	require.NotNil(t, ledger.appended[0].ParticipantID)
	assert.Equal(t, int64(7), *ledger.appended[0].ParticipantID)
}

func TestEvaluateRejectsAccessPointOfAnotherEvent(t *testing.T) {
	ledger, participants, accessPoints, grants := scanFixture()
	accessPoints.point.EventID = 99
	svc := NewScanService(ledger, participants, accessPoints, grants, nil, nil, nil, nil, 0)

	result, err := svc.Evaluate(context.Background(), scanRequest())
	require.NoError(t, err)
	assert.Equal(t, models.ScanOutcomeInvalidAccess, result.Outcome)
}

func TestEvaluateRejectsUngrantedAccessPoint(t *testing.T) {
	ledger, participants, accessPoints, grants := scanFixture()
	grants.granted = []int64{9}
	svc := NewScanService(ledger, participants, accessPoints, grants, nil, nil, nil, nil, 0)

	result, err := svc.Evaluate(context.Background(), scanRequest())
	require.NoError(t, err)
	assert.Equal(t, models.ScanOutcomeInvalidAccess, result.Outcome)
	assert.Contains(t, result.Message, "not authorized")
}

func TestEvaluateTreatsZeroGrantsAsUnrestricted(t *testing.T) {
	ledger, participants, accessPoints, grants := scanFixture()
	grants.granted = nil
	svc := NewScanService(ledger, participants, accessPoints, grants, nil, nil, nil, nil, 0)

	result, err := svc.Evaluate(context.Background(), scanRequest())
	require.NoError(t, err)
	assert.Equal(t, models.ScanOutcomeValid, result.Outcome)
}

func TestEvaluateTreatsMissingTicketTypeAsUnrestricted(t *testing.T) {
	ledger, participants, accessPoints, grants := scanFixture()
	participants.participant.TicketTypeID = nil
	grants.err = errors.New("should not be called")
	svc := NewScanService(ledger, participants, accessPoints, grants, nil, nil, nil, nil, 0)

	result, err := svc.Evaluate(context.Background(), scanRequest())
	require.NoError(t, err)
	assert.Equal(t, models.ScanOutcomeValid, result.Outcome)
}

type scanKey struct {
	participantID int64
	accessPointID int64
}

// keyedLedger tracks VALID slots per (participant, access point), mirroring
// the partial unique index of the real ledger.
type keyedLedger struct {
	appended []*models.ScanRecord
	valid    map[scanKey]bool
}

func (f *keyedLedger) Append(_ context.Context, rec *models.ScanRecord) error {
	f.appended = append(f.appended, rec)
	return nil
}

func (f *keyedLedger) AppendValid(_ context.Context, rec *models.ScanRecord) (bool, error) {
	key := scanKey{*rec.ParticipantID, rec.AccessPointID}
	if f.valid[key] {
		return false, nil
	}
	if f.valid == nil {
		f.valid = map[scanKey]bool{}
	}
	f.valid[key] = true
	f.appended = append(f.appended, rec)
	return true, nil
}

func (f *keyedLedger) HasPriorScan(_ context.Context, participantID, accessPointID int64) (bool, error) {
	return f.valid[scanKey{participantID, accessPointID}], nil
}

func (f *keyedLedger) Statistics(context.Context, int64, int64) (*models.ScanStatistics, error) {
	return &models.ScanStatistics{}, nil
}

func (f *keyedLedger) Recent(context.Context, int64, int64, int) ([]models.ScanLogEntry, error) {
	return nil, nil
}

func TestEvaluateAdmitsSameCredentialAtDifferentAccessPoints(t *testing.T) {
	_, participants, accessPoints, grants := scanFixture()
	ledger := &keyedLedger{}
	svc := NewScanService(ledger, participants, accessPoints, grants, nil, nil, nil, nil, 0)

	first, err := svc.Evaluate(context.Background(), scanRequest())
	require.NoError(t, err)
	assert.Equal(t, models.ScanOutcomeValid, first.Outcome)

	req := scanRequest()
	req.AccessPointID = 9
	second, err := svc.Evaluate(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, models.ScanOutcomeValid, second.Outcome)

	repeat, err := svc.Evaluate(context.Background(), scanRequest())
	require.NoError(t, err)
	assert.Equal(t, models.ScanOutcomeDuplicate, repeat.Outcome)
	require.Len(t, ledger.appended, 3)
	assert.Equal(t, models.ScanOutcomeDuplicate, ledger.appended[2].Outcome)
}

func TestEvaluateFlagsRepeatScanAsDuplicate(t *testing.T) {
	ledger, participants, accessPoints, grants := scanFixture()
	ledger.prior = true
	svc := NewScanService(ledger, participants, accessPoints, grants, nil, nil, nil, nil, 0)

	result, err := svc.Evaluate(context.Background(), scanRequest())
	require.NoError(t, err)
	assert.Equal(t, models.ScanOutcomeDuplicate, result.Outcome)
	require.Len(t, ledger.appended, 1)
	assert.Equal(t, models.ScanOutcomeDuplicate, ledger.appended[0].Outcome)
}

func TestEvaluateFlagsLostInsertRaceAsDuplicate(t *testing.T) {
	ledger, participants, accessPoints, grants := scanFixture()
	ledger.insertOK = false
	svc := NewScanService(ledger, participants, accessPoints, grants, nil, nil, nil, nil, 0)

	result, err := svc.Evaluate(context.Background(), scanRequest())
	require.NoError(t, err)
	assert.Equal(t, models.ScanOutcomeDuplicate, result.Outcome)
	require.Len(t, ledger.appended, 1)
	assert.Equal(t, models.ScanOutcomeDuplicate, ledger.appended[0].Outcome)
}

func TestEvaluateSurfacesStoreFailure(t *testing.T) {
	ledger, participants, accessPoints, grants := scanFixture()
	ledger.validErr = errors.New("connection refused")
	svc := NewScanService(ledger, participants, accessPoints, grants, nil, nil, nil, nil, 0)

	result, err := svc.Evaluate(context.Background(), scanRequest())
	require.Error(t, err)
	assert.Nil(t, result)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrStoreUnavailable.Code, appErr.Code)
	assert.Empty(t, ledger.appended)
}

func TestEvaluateIssuesBadgeInPrintMode(t *testing.T) {
	ledger, participants, accessPoints, grants := scanFixture()
	badges := &fakeBadges{url: "/api/v1/scans/badges?token=abc"}
	svc := NewScanService(ledger, participants, accessPoints, grants, badges, nil, nil, nil, 0)

	req := scanRequest()
	req.IsPrintMode = true
	result, err := svc.Evaluate(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, badges.issued)
	assert.Equal(t, "/api/v1/scans/badges?token=abc", result.BadgeURL)
}

func TestEvaluateToleratesBadgeFailure(t *testing.T) {
	ledger, participants, accessPoints, grants := scanFixture()
	badges := &fakeBadges{err: errors.New("render failed")}
	svc := NewScanService(ledger, participants, accessPoints, grants, badges, nil, nil, nil, 0)

	req := scanRequest()
	req.IsPrintMode = true
	result, err := svc.Evaluate(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, models.ScanOutcomeValid, result.Outcome)
	assert.Empty(t, result.BadgeURL)
}

func TestExportStatisticsRendersCSV(t *testing.T) {
	ledger, participants, accessPoints, grants := scanFixture()
	ledger.stats = &models.ScanStatistics{Total: 19, Valid: 10, Invalid: 5, Duplicate: 4}
	svc := NewScanService(ledger, participants, accessPoints, grants, nil, nil, nil, nil, 0)

	payload, name, contentType, err := svc.ExportStatistics(context.Background(), 42, 5, "csv")
	require.NoError(t, err)
	assert.Equal(t, "scan_statistics_event42_ap5.csv", name)
	assert.Equal(t, "text/csv", contentType)
	body := string(payload)
	assert.Contains(t, body, "metric,count")
	assert.Contains(t, body, "valid,10")
	assert.Contains(t, body, "total,19")
}

func TestExportStatisticsRendersPDF(t *testing.T) {
	ledger, participants, accessPoints, grants := scanFixture()
	ledger.stats = &models.ScanStatistics{Total: 1, Valid: 1}
	svc := NewScanService(ledger, participants, accessPoints, grants, nil, nil, nil, nil, 0)

	payload, name, contentType, err := svc.ExportStatistics(context.Background(), 42, 5, "pdf")
	require.NoError(t, err)
	assert.Equal(t, "scan_statistics_event42_ap5.pdf", name)
	assert.Equal(t, "application/pdf", contentType)
	assert.True(t, bytes.HasPrefix(payload, []byte("%PDF")))
}

func TestExportStatisticsRejectsUnknownFormat(t *testing.T) {
	ledger, participants, accessPoints, grants := scanFixture()
	ledger.stats = &models.ScanStatistics{}
	svc := NewScanService(ledger, participants, accessPoints, grants, nil, nil, nil, nil, 0)

	_, _, _, err := svc.ExportStatistics(context.Background(), 42, 5, "xlsx")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestRecentScansClampsLimit(t *testing.T) {
	ledger, participants, accessPoints, grants := scanFixture()
	svc := NewScanService(ledger, participants, accessPoints, grants, nil, nil, nil, nil, 25)

	_, err := svc.RecentScans(context.Background(), 42, 5)
	require.NoError(t, err)
	assert.Equal(t, 25, ledger.recentLimit)
}

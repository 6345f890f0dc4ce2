package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/eventmgr/checkin-api/internal/credential"
	"github.com/eventmgr/checkin-api/internal/models"
	appErrors "github.com/eventmgr/checkin-api/pkg/errors"
	"github.com/eventmgr/checkin-api/pkg/export"
)

type scanLedger interface {
	Append(ctx context.Context, rec *models.ScanRecord) error
	AppendValid(ctx context.Context, rec *models.ScanRecord) (bool, error)
	HasPriorScan(ctx context.Context, participantID, accessPointID int64) (bool, error)
	Statistics(ctx context.Context, eventID, accessPointID int64) (*models.ScanStatistics, error)
	Recent(ctx context.Context, eventID, accessPointID int64, limit int) ([]models.ScanLogEntry, error)
}

type credentialResolver interface {
	FindByCredential(ctx context.Context, eventID int64, code string) (*models.Participant, error)
}

type accessPointReader interface {
	FindByID(ctx context.Context, id int64) (*models.AccessPoint, error)
}

type grantReader interface {
	GrantedAccessPoints(ctx context.Context, ticketTypeID int64) ([]int64, error)
}

type badgeIssuer interface {
	Issue(ctx context.Context, participant *models.Participant) (string, error)
}

type scanMetrics interface {
	ObserveScan(outcome models.ScanOutcome, duration time.Duration)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ScanService is the admission validator: it decides admit/deny for each
// credential scan and keeps the append-only ledger that backs duplicate
// detection, the live feed and the checkpoint dashboards.
type ScanService struct {
	ledger       scanLedger
	participants credentialResolver
	accessPoints accessPointReader
	grants       grantReader
	badges       badgeIssuer
	metrics      scanMetrics
	validator    *validator.Validate
	logger       *zap.Logger
	recentLimit  int
	csv          csvRenderer
	pdf          pdfRenderer
}

// NewScanService constructs the scan service. badges and metrics may be nil.
func NewScanService(ledger scanLedger, participants credentialResolver, accessPoints accessPointReader, grants grantReader, badges badgeIssuer, metrics scanMetrics, validate *validator.Validate, logger *zap.Logger, recentLimit int) *ScanService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if recentLimit <= 0 {
		recentLimit = 50
	}
	return &ScanService{
		ledger:       ledger,
		participants: participants,
		accessPoints: accessPoints,
		grants:       grants,
		badges:       badges,
		metrics:      metrics,
		validator:    validate,
		logger:       logger,
		recentLimit:  recentLimit,
		csv:          export.NewCSVExporter(),
		pdf:          export.NewPDFExporter(),
	}
}

// ScanRequest is one inbound scan from a checkpoint client.
type ScanRequest struct {
	EventID         int64  `json:"-"`
	CredentialToken string `json:"credential_token" validate:"required"`
	AccessPointID   int64  `json:"access_point_id" validate:"required"`
	IsPrintMode     bool   `json:"is_print_mode"`
	ScannerID       string `json:"-"`
}

// ScanResult is the definitive answer for one scan attempt.
type ScanResult struct {
	Outcome         models.ScanOutcome `json:"outcome"`
	Message         string             `json:"message"`
	ParticipantID   *int64             `json:"participant_id,omitempty"`
	ParticipantCode string             `json:"participant_code,omitempty"`
	HolderName      string             `json:"holder_name,omitempty"`
	AccessPointID   int64              `json:"access_point_id"`
	ScannedAt       time.Time          `json:"scanned_at"`
	BadgeURL        string             `json:"badge_url,omitempty"`
}

// Evaluate runs the admission algorithm. Every branch appends exactly one
// ledger entry before returning, so statistics reflect failed attempts too.
// Only a store failure escapes as an error; the scan is then unrecorded and
// the caller is told the result is indeterminate.
func (s *ScanService) Evaluate(ctx context.Context, req ScanRequest) (*ScanResult, error) {
	started := time.Now()
	result, err := s.evaluate(ctx, req)
	if s.metrics != nil {
		outcome := models.ScanOutcomeError
		if result != nil {
			outcome = result.Outcome
		}
		s.metrics.ObserveScan(outcome, time.Since(started))
	}
	return result, err
}

func (s *ScanService) evaluate(ctx context.Context, req ScanRequest) (*ScanResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid scan payload")
	}

	code, tokenEventID, err := credential.Decode(req.CredentialToken)
	if err != nil {
		return s.deny(ctx, req, nil, models.ScanOutcomeInvalid, "malformed credential")
	}
	if tokenEventID != req.EventID {
		return s.deny(ctx, req, nil, models.ScanOutcomeInvalid, "credential issued for a different event")
	}

	participant, err := s.participants.FindByCredential(ctx, req.EventID, code)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return s.deny(ctx, req, nil, models.ScanOutcomeInvalid, "unknown participant")
		}
		return nil, storeFailure(err, "participant lookup failed")
	}

	accessPoint, err := s.accessPoints.FindByID(ctx, req.AccessPointID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, storeFailure(err, "access point lookup failed")
	}
	if accessPoint == nil || errors.Is(err, sql.ErrNoRows) || !accessPoint.Active || accessPoint.EventID != req.EventID {
		return s.deny(ctx, req, participant, models.ScanOutcomeInvalidAccess, "access point not available")
	}

	authorized, err := s.authorized(ctx, participant, req.AccessPointID)
	if err != nil {
		return nil, storeFailure(err, "grant lookup failed")
	}
	if !authorized {
		return s.deny(ctx, req, participant, models.ScanOutcomeInvalidAccess, "not authorized for this access point")
	}

	prior, err := s.ledger.HasPriorScan(ctx, participant.ID, req.AccessPointID)
	if err != nil {
		return nil, storeFailure(err, "duplicate check failed")
	}
	if prior {
		return s.deny(ctx, req, participant, models.ScanOutcomeDuplicate, "already scanned at this access point")
	}

	rec := s.newRecord(req, participant, models.ScanOutcomeValid, "admitted")
	inserted, err := s.ledger.AppendValid(ctx, rec)
	if err != nil {
		return nil, storeFailure(err, "ledger append failed")
	}
	if !inserted {
		// A concurrent scan of the same credential won the slot between our
		// duplicate check and the append.
		return s.deny(ctx, req, participant, models.ScanOutcomeDuplicate, "already scanned at this access point")
	}

	result := s.newResult(rec, participant)
	if req.IsPrintMode && s.badges != nil {
		badgeURL, err := s.badges.Issue(ctx, participant)
		if err != nil {
			s.logger.Warn("badge generation failed",
				zap.Int64("participant_id", participant.ID), zap.Error(err))
		} else {
			result.BadgeURL = badgeURL
		}
	}
	return result, nil
}

// authorized applies the grant policy: a ticket type with one or more grants
// admits only at granted access points; zero grants (or no ticket type at
// all) means unrestricted.
func (s *ScanService) authorized(ctx context.Context, participant *models.Participant, accessPointID int64) (bool, error) {
	if participant.TicketTypeID == nil {
		return true, nil
	}
	granted, err := s.grants.GrantedAccessPoints(ctx, *participant.TicketTypeID)
	if err != nil {
		return false, err
	}
	if len(granted) == 0 {
		return true, nil
	}
	for _, id := range granted {
		if id == accessPointID {
			return true, nil
		}
	}
	return false, nil
}

func (s *ScanService) deny(ctx context.Context, req ScanRequest, participant *models.Participant, outcome models.ScanOutcome, message string) (*ScanResult, error) {
	rec := s.newRecord(req, participant, outcome, message)
	if err := s.ledger.Append(ctx, rec); err != nil {
		return nil, storeFailure(err, "ledger append failed")
	}
	return s.newResult(rec, participant), nil
}

func (s *ScanService) newRecord(req ScanRequest, participant *models.Participant, outcome models.ScanOutcome, message string) *models.ScanRecord {
	rec := &models.ScanRecord{
		EventID:       req.EventID,
		AccessPointID: req.AccessPointID,
		Outcome:       outcome,
		Message:       message,
		ScannedBy:     req.ScannerID,
		ScannedAt:     time.Now().UTC(),
	}
	if participant != nil {
		rec.ParticipantID = &participant.ID
	}
	return rec
}

func (s *ScanService) newResult(rec *models.ScanRecord, participant *models.Participant) *ScanResult {
	result := &ScanResult{
		Outcome:       rec.Outcome,
		Message:       rec.Message,
		AccessPointID: rec.AccessPointID,
		ScannedAt:     rec.ScannedAt,
	}
	if participant != nil {
		result.ParticipantID = &participant.ID
		result.ParticipantCode = participant.ParticipantCode
		result.HolderName = participant.FullName()
	}
	return result
}

// Statistics returns exact outcome counts for a checkpoint dashboard.
func (s *ScanService) Statistics(ctx context.Context, eventID, accessPointID int64) (*models.ScanStatistics, error) {
	stats, err := s.ledger.Statistics(ctx, eventID, accessPointID)
	if err != nil {
		return nil, storeFailure(err, "statistics query failed")
	}
	return stats, nil
}

// ExportStatistics renders the outcome counts of one access point as a
// downloadable report. Supported formats: csv (default) and pdf.
func (s *ScanService) ExportStatistics(ctx context.Context, eventID, accessPointID int64, format string) ([]byte, string, string, error) {
	stats, err := s.Statistics(ctx, eventID, accessPointID)
	if err != nil {
		return nil, "", "", err
	}
	dataset := export.Dataset{
		Headers: []string{"metric", "count"},
		Rows: []map[string]string{
			{"metric": "valid", "count": strconv.Itoa(stats.Valid)},
			{"metric": "invalid", "count": strconv.Itoa(stats.Invalid)},
			{"metric": "duplicate", "count": strconv.Itoa(stats.Duplicate)},
			{"metric": "total", "count": strconv.Itoa(stats.Total)},
		},
	}
	name := fmt.Sprintf("scan_statistics_event%d_ap%d", eventID, accessPointID)

	switch format {
	case "", "csv":
		payload, err := s.csv.Render(dataset)
		if err != nil {
			return nil, "", "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render statistics report")
		}
		return payload, name + ".csv", "text/csv", nil
	case "pdf":
		payload, err := s.pdf.Render(dataset, "Scan Statistics")
		if err != nil {
			return nil, "", "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render statistics report")
		}
		return payload, name + ".pdf", "application/pdf", nil
	default:
		return nil, "", "", appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
}

// RecentScans returns the latest ledger entries, most recent first.
func (s *ScanService) RecentScans(ctx context.Context, eventID, accessPointID int64) ([]models.ScanLogEntry, error) {
	entries, err := s.ledger.Recent(ctx, eventID, accessPointID, s.recentLimit)
	if err != nil {
		return nil, storeFailure(err, "recent scans query failed")
	}
	return entries, nil
}

// storeFailure marks an operation that could not reach or mutate the
// persistent store. Callers treat the outcome as indeterminate.
func storeFailure(err error, message string) error {
	return appErrors.Wrap(fmt.Errorf("%s: %w", message, err),
		appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, message)
}

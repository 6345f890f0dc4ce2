package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/eventmgr/checkin-api/internal/models"
	"github.com/eventmgr/checkin-api/internal/repository"
	appErrors "github.com/eventmgr/checkin-api/pkg/errors"
	"github.com/eventmgr/checkin-api/pkg/export"
	"github.com/eventmgr/checkin-api/pkg/storage"
)

type stagingStore interface {
	Clear(ctx context.Context, eventID int64, createdBy string) error
	StageAll(ctx context.Context, rows []models.StagedRow) error
	Fetch(ctx context.Context, eventID int64, createdBy string) ([]models.StagedRow, error)
	AnnotateErrors(ctx context.Context, updates map[int64]string) error
	ErrorCount(ctx context.Context, eventID int64, createdBy string) (int, error)
	CommitBatch(ctx context.Context, eventID int64, createdBy string, newCode func() (string, string)) (int, error)
}

type committedEmailChecker interface {
	EmailExists(ctx context.Context, eventID int64, email string) (bool, error)
}

type importStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type credentialNotifier interface {
	EnqueueBatch(ctx context.Context, eventID int64, createdBy string) error
}

type importMetrics interface {
	ObserveImportRows(result string, count int)
	ObserveImportBatch(state string)
}

// ImportConfig tunes upload handling.
type ImportConfig struct {
	APIPrefix         string
	MaxFileSizeBytes  int64
	AllowedExtensions []string
}

// ImportService runs the staged roster import pipeline: upload, staging,
// validation and the all-or-nothing commit into permanent participants.
type ImportService struct {
	staging      stagingStore
	participants committedEmailChecker
	storage      importStorage
	reports      csvRenderer
	signer       *storage.SignedURLSigner
	notifier     credentialNotifier
	metrics      importMetrics
	validator    *validator.Validate
	logger       *zap.Logger
	cfg          ImportConfig
}

// NewImportService constructs the service. notifier and metrics may be nil.
func NewImportService(staging stagingStore, participants committedEmailChecker, store importStorage, reports csvRenderer, signer *storage.SignedURLSigner, notifier credentialNotifier, metrics importMetrics, cfg ImportConfig, validate *validator.Validate, logger *zap.Logger) *ImportService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if reports == nil {
		reports = export.NewCSVExporter()
	}
	if cfg.MaxFileSizeBytes <= 0 {
		cfg.MaxFileSizeBytes = 10 * 1024 * 1024
	}
	if len(cfg.AllowedExtensions) == 0 {
		cfg.AllowedExtensions = []string{".csv"}
	}
	return &ImportService{
		staging:      staging,
		participants: participants,
		storage:      store,
		reports:      reports,
		signer:       signer,
		notifier:     notifier,
		metrics:      metrics,
		validator:    validate,
		logger:       logger,
		cfg:          cfg,
	}
}

// NormalizeColumnName maps a spreadsheet header to its canonical form:
// lower-case, spaces/dots/dashes/slashes become underscores, parentheses are
// dropped. Every input maps to exactly one name; empty input maps to
// "column".
func NormalizeColumnName(name string) string {
	if name == "" {
		return "column"
	}
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch r {
		case ' ', '.', '-', '/':
			b.WriteRune('_')
		case '(', ')':
		default:
			b.WriteRune(r)
		}
	}
	normalized := b.String()
	if normalized == "" {
		return "column"
	}
	return normalized
}

// columnAliases folds common spreadsheet spellings of the staged columns into
// their canonical names after normalization, so files exported from mail or
// HR tools still land in the typed fields.
var columnAliases = map[string]string{
	"e_mail":         "email",
	"e_mail_address": "email",
	"email_address":  "email",
	"mail":           "email",
	"firstname":      "first_name",
	"given_name":     "first_name",
	"lastname":       "last_name",
	"surname":        "last_name",
	"family_name":    "last_name",
	"phone_number":   "phone",
	"telephone":      "phone",
	"mobile":         "phone",
	"organization":   "company",
	"organisation":   "company",
	"dept":           "department",
	"note":           "notes",
	"comment":        "notes",
	"comments":       "notes",
}

func canonicalColumnName(name string) string {
	normalized := NormalizeColumnName(name)
	if canonical, ok := columnAliases[normalized]; ok {
		return canonical
	}
	return normalized
}

// ImportFileRequest carries one uploaded roster file.
type ImportFileRequest struct {
	EventID   int64
	CreatedBy string
	Filename  string
	Data      []byte
}

// ImportFile runs the full pipeline for one upload: any previous batch for
// the same owner is discarded first (last write wins), rows are staged and
// validated, and a clean batch is committed in one transaction. A batch with
// errors stays staged and an error report download link is returned.
func (s *ImportService) ImportFile(ctx context.Context, req ImportFileRequest) (*models.ImportResult, error) {
	if err := s.checkUpload(req); err != nil {
		return nil, err
	}

	uploadName := filepath.Join("imports", uuid.NewString()+"_"+filepath.Base(req.Filename))
	if _, err := s.storage.Save(uploadName, req.Data); err != nil {
		s.logger.Warn("failed to persist uploaded roster", zap.Error(err))
	}

	rows, err := s.parse(req)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, appErrors.Clone(appErrors.ErrInvalidUpload, "roster file has no data rows")
	}

	if err := s.staging.Clear(ctx, req.EventID, req.CreatedBy); err != nil {
		return nil, storeFailure(err, "clear previous batch failed")
	}
	if err := s.staging.StageAll(ctx, rows); err != nil {
		return nil, storeFailure(err, "stage batch failed")
	}

	rowErrors, err := s.Validate(ctx, req.EventID, req.CreatedBy)
	if err != nil {
		return nil, err
	}

	result := &models.ImportResult{TotalRows: len(rows)}
	if len(rowErrors) == 0 {
		imported, err := s.Commit(ctx, req.EventID, req.CreatedBy)
		if err != nil {
			return nil, err
		}
		result.Success = true
		result.ImportedRows = imported
		result.Message = fmt.Sprintf("successfully imported %d of %d participants", imported, len(rows))
		if s.metrics != nil {
			s.metrics.ObserveImportRows("imported", imported)
			s.metrics.ObserveImportBatch("committed")
		}
		if s.notifier != nil {
			if err := s.notifier.EnqueueBatch(ctx, req.EventID, req.CreatedBy); err != nil {
				s.logger.Warn("failed to enqueue credential delivery", zap.Error(err))
			}
		}
		return result, nil
	}

	reportURL, err := s.writeErrorReport(req.EventID, rowErrors)
	if err != nil {
		s.logger.Warn("failed to write error report", zap.Error(err))
	}
	result.Success = false
	result.FailedRows = len(rowErrors)
	result.ErrorReportURL = reportURL
	result.Message = fmt.Sprintf("%d validation errors found; batch kept staged for review", len(rowErrors))
	if s.metrics != nil {
		s.metrics.ObserveImportRows("rejected", len(rowErrors))
		s.metrics.ObserveImportBatch("validation_failed")
	}
	return result, nil
}

func (s *ImportService) checkUpload(req ImportFileRequest) error {
	if req.CreatedBy == "" || req.EventID <= 0 {
		return appErrors.Clone(appErrors.ErrValidation, "event and uploader are required")
	}
	if int64(len(req.Data)) > s.cfg.MaxFileSizeBytes {
		return appErrors.Clone(appErrors.ErrInvalidUpload, "roster file exceeds the size limit")
	}
	ext := strings.ToLower(filepath.Ext(req.Filename))
	for _, allowed := range s.cfg.AllowedExtensions {
		if ext == strings.ToLower(allowed) {
			return nil
		}
	}
	return appErrors.Clone(appErrors.ErrInvalidUpload,
		fmt.Sprintf("unsupported file type %q, allowed: %s", ext, strings.Join(s.cfg.AllowedExtensions, ", ")))
}

// parse reads the CSV payload into staged rows, normalizing headers and
// injecting the batch owner into every row.
func (s *ImportService) parse(req ImportFileRequest) ([]models.StagedRow, error) {
	reader := csv.NewReader(bytes.NewReader(req.Data))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, appErrors.Clone(appErrors.ErrInvalidUpload, "roster file is empty")
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInvalidUpload.Code, appErrors.ErrInvalidUpload.Status, "roster file is not valid CSV")
	}

	columns := make([]string, len(header))
	for i, name := range header {
		columns[i] = canonicalColumnName(name)
	}

	var rows []models.StagedRow
	position := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInvalidUpload.Code, appErrors.ErrInvalidUpload.Status,
				fmt.Sprintf("roster row %d is not valid CSV", position+2))
		}
		fields := make(map[string]string, len(columns))
		empty := true
		for i, value := range record {
			if i >= len(columns) {
				break
			}
			value = strings.TrimSpace(value)
			if value != "" {
				empty = false
			}
			fields[columns[i]] = value
		}
		if empty {
			continue
		}
		position++
		rows = append(rows, models.StagedRow{
			EventID:    req.EventID,
			CreatedBy:  req.CreatedBy,
			Position:   position,
			FirstName:  fields["first_name"],
			LastName:   fields["last_name"],
			Email:      optional(fields["email"]),
			Phone:      optional(fields["phone"]),
			Company:    optional(fields["company"]),
			Department: optional(fields["department"]),
			Notes:      optional(fields["notes"]),
		})
	}
	return rows, nil
}

// Validate applies row-level and cross-row checks to the owner's staged
// batch and attaches one combined message per failing row. Rows are returned
// in original staging order; participant records are never touched.
func (s *ImportService) Validate(ctx context.Context, eventID int64, createdBy string) ([]models.StagedRowError, error) {
	rows, err := s.staging.Fetch(ctx, eventID, createdBy)
	if err != nil {
		return nil, storeFailure(err, "fetch staged batch failed")
	}

	messages := make([][]string, len(rows))

	for i, row := range rows {
		if strings.TrimSpace(row.FirstName) == "" {
			messages[i] = append(messages[i], "first name is required")
		}
		if strings.TrimSpace(row.LastName) == "" {
			messages[i] = append(messages[i], "last name is required")
		}
		if row.Email != nil && *row.Email != "" {
			if err := s.validator.Var(*row.Email, "email"); err != nil {
				messages[i] = append(messages[i], "invalid email format")
			}
		}
	}

	// Cross-row checks run for every row, including ones that already failed
	// above, so a single message captures everything wrong with a row.
	seen := make(map[string]bool, len(rows))
	registered := make(map[string]bool, len(rows))
	for i, row := range rows {
		email := normalizedEmail(row.Email)
		if email == "" {
			continue
		}
		if seen[email] {
			messages[i] = append(messages[i], "duplicate email in batch")
		}
		exists, checked := registered[email]
		if !checked {
			exists, err = s.participants.EmailExists(ctx, eventID, email)
			if err != nil {
				return nil, storeFailure(err, "committed email check failed")
			}
			registered[email] = exists
		}
		if exists {
			messages[i] = append(messages[i], "email already registered for this event")
		}
		seen[email] = true
	}

	updates := make(map[int64]string)
	var rowErrors []models.StagedRowError
	for i, row := range rows {
		if len(messages[i]) == 0 {
			continue
		}
		message := strings.Join(messages[i], "; ")
		updates[row.ID] = message
		annotated := row
		annotated.ErrorMessage = &message
		rowErrors = append(rowErrors, models.StagedRowError{Row: annotated, Message: message})
	}
	if err := s.staging.AnnotateErrors(ctx, updates); err != nil {
		return nil, storeFailure(err, "annotate staged batch failed")
	}
	return rowErrors, nil
}

// Commit promotes the owner's validated batch into permanent participants.
// It fails with PRECONDITION_FAILED, without touching anything, when the
// batch still carries validation errors.
func (s *ImportService) Commit(ctx context.Context, eventID int64, createdBy string) (int, error) {
	imported, err := s.staging.CommitBatch(ctx, eventID, createdBy, repository.DefaultCodeGenerator)
	if err != nil {
		if errors.Is(err, repository.ErrBatchHasErrors) {
			return 0, appErrors.Clone(appErrors.ErrPreconditionFailed, "staged batch has outstanding validation errors")
		}
		return 0, storeFailure(err, "commit batch failed")
	}
	return imported, nil
}

// Discard drops the owner's staged batch. Safe to call at any point,
// including after a cancelled upload.
func (s *ImportService) Discard(ctx context.Context, eventID int64, createdBy string) error {
	if err := s.staging.Clear(ctx, eventID, createdBy); err != nil {
		return storeFailure(err, "discard batch failed")
	}
	return nil
}

func (s *ImportService) writeErrorReport(eventID int64, rowErrors []models.StagedRowError) (string, error) {
	headers := []string{"row", "first_name", "last_name", "email", "phone", "company", "department", "notes", "error_message"}
	dataset := export.Dataset{Headers: headers}
	for _, rowErr := range rowErrors {
		row := rowErr.Row
		dataset.Rows = append(dataset.Rows, map[string]string{
			"row":           strconv.Itoa(row.Position),
			"first_name":    row.FirstName,
			"last_name":     row.LastName,
			"email":         deref(row.Email),
			"phone":         deref(row.Phone),
			"company":       deref(row.Company),
			"department":    deref(row.Department),
			"notes":         deref(row.Notes),
			"error_message": rowErr.Message,
		})
	}

	payload, err := s.reports.Render(dataset)
	if err != nil {
		return "", fmt.Errorf("render error report: %w", err)
	}
	reportID := uuid.NewString()
	relPath := filepath.Join("reports", "import_errors_"+reportID+".csv")
	if _, err := s.storage.Save(relPath, payload); err != nil {
		return "", fmt.Errorf("store error report: %w", err)
	}
	if s.signer == nil {
		return "", nil
	}
	token, _, err := s.signer.Generate(reportID, relPath)
	if err != nil {
		return "", fmt.Errorf("sign error report url: %w", err)
	}
	return fmt.Sprintf("%s/events/%d/participants/import/errors?token=%s", s.cfg.APIPrefix, eventID, token), nil
}

// OpenErrorReport validates a signed token and opens the stored report.
func (s *ImportService) OpenErrorReport(token string) (*os.File, string, error) {
	if s.signer == nil {
		return nil, "", appErrors.Clone(appErrors.ErrNotFound, "error reports are not enabled")
	}
	_, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrForbidden.Code, appErrors.ErrForbidden.Status, "invalid or expired report link")
	}
	file, err := s.storage.Open(relPath)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "report no longer available")
	}
	return file, filepath.Base(relPath), nil
}

func optional(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

func deref(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

func normalizedEmail(email *string) string {
	if email == nil {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(*email))
}

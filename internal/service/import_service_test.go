package service

import (
	"context"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventmgr/checkin-api/internal/models"
	"github.com/eventmgr/checkin-api/internal/repository"
	appErrors "github.com/eventmgr/checkin-api/pkg/errors"
)

type fakeStaging struct {
	rows      []models.StagedRow
	nextID    int64
	clears    int
	committed int
}

func (f *fakeStaging) Clear(context.Context, int64, string) error {
	f.clears++
	f.rows = nil
	return nil
}

func (f *fakeStaging) StageAll(_ context.Context, rows []models.StagedRow) error {
	for _, row := range rows {
		f.nextID++
		row.ID = f.nextID
		f.rows = append(f.rows, row)
	}
	return nil
}

func (f *fakeStaging) Fetch(context.Context, int64, string) ([]models.StagedRow, error) {
	out := make([]models.StagedRow, len(f.rows))
	copy(out, f.rows)
	return out, nil
}

func (f *fakeStaging) AnnotateErrors(_ context.Context, updates map[int64]string) error {
	for i := range f.rows {
		if message, ok := updates[f.rows[i].ID]; ok {
			f.rows[i].ErrorMessage = &message
		}
	}
	return nil
}

func (f *fakeStaging) ErrorCount(context.Context, int64, string) (int, error) {
	count := 0
	for _, row := range f.rows {
		if row.ErrorMessage != nil {
			count++
		}
	}
	return count, nil
}

func (f *fakeStaging) CommitBatch(_ context.Context, _ int64, _ string, newCode func() (string, string)) (int, error) {
	for _, row := range f.rows {
		if row.ErrorMessage != nil {
			return 0, repository.ErrBatchHasErrors
		}
	}
	imported := len(f.rows)
	for range f.rows {
		newCode()
	}
	f.rows = nil
	f.committed += imported
	return imported, nil
}

type fakeEmailChecker struct {
	existing map[string]bool
}

func (f *fakeEmailChecker) EmailExists(_ context.Context, _ int64, email string) (bool, error) {
	return f.existing[strings.ToLower(email)], nil
}

type fakeUploadStore struct {
	saved map[string][]byte
}

func (f *fakeUploadStore) Save(filename string, data []byte) (string, error) {
	if f.saved == nil {
		f.saved = map[string][]byte{}
	}
	f.saved[filename] = data
	return filename, nil
}

func (f *fakeUploadStore) Open(string) (*os.File, error) {
	return nil, os.ErrNotExist
}

func newImportFixture() (*ImportService, *fakeStaging, *fakeEmailChecker, *fakeUploadStore) {
	staging := &fakeStaging{}
	emails := &fakeEmailChecker{existing: map[string]bool{}}
	store := &fakeUploadStore{}
	svc := NewImportService(staging, emails, store, nil, nil, nil, nil,
		ImportConfig{APIPrefix: "/api/v1"}, nil, nil)
	return svc, staging, emails, store
}

func TestNormalizeColumnName(t *testing.T) {
	cases := map[string]string{
		"First Name":    "first_name",
		"first.name":    "first_name",
		"E-mail (work)": "e_mail_work",
		"A/B":           "a_b",
		"NOTES":         "notes",
		"":              "column",
		"()":            "column",
		"  Department ": "department",
	}
	for input, want := range cases {
		assert.Equal(t, want, NormalizeColumnName(input), "input %q", input)
	}
}

func buildCSV(rows ...string) []byte {
	header := "First Name,Last Name,E-mail,Phone,Company"
	return []byte(header + "\n" + strings.Join(rows, "\n") + "\n")
}

func TestImportFileRejectsUnsupportedExtension(t *testing.T) {
	svc, _, _, _ := newImportFixture()

	_, err := svc.ImportFile(context.Background(), ImportFileRequest{
		EventID:   42,
		CreatedBy: "user-1",
		Filename:  "roster.xlsx",
		Data:      buildCSV("Ada,Lovelace,ada@example.com,,"),
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidUpload.Code, appErrors.FromError(err).Code)
}

func TestImportFileRejectsOversizedUpload(t *testing.T) {
	staging := &fakeStaging{}
	svc := NewImportService(staging, &fakeEmailChecker{}, &fakeUploadStore{}, nil, nil, nil, nil,
		ImportConfig{MaxFileSizeBytes: 10}, nil, nil)

	_, err := svc.ImportFile(context.Background(), ImportFileRequest{
		EventID:   42,
		CreatedBy: "user-1",
		Filename:  "roster.csv",
		Data:      buildCSV("Ada,Lovelace,ada@example.com,,"),
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidUpload.Code, appErrors.FromError(err).Code)
}

func TestImportFileCommitsCleanBatch(t *testing.T) {
	svc, staging, _, _ := newImportFixture()

	rows := make([]string, 0, 5)
	for i := 0; i < 5; i++ {
		rows = append(rows, fmt.Sprintf("Person%d,Example,person%d@example.com,,Acme", i, i))
	}
	result, err := svc.ImportFile(context.Background(), ImportFileRequest{
		EventID:   42,
		CreatedBy: "user-1",
		Filename:  "roster.csv",
		Data:      buildCSV(rows...),
	})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 5, result.TotalRows)
	assert.Equal(t, 5, result.ImportedRows)
	assert.Equal(t, 5, staging.committed)
	assert.Empty(t, staging.rows)
}

func TestImportFileKeepsFlaggedBatchStaged(t *testing.T) {
	svc, staging, _, _ := newImportFixture()

	rows := []string{
		"Ada,Lovelace,ada@example.com,,",
		"Grace,Hopper,grace@example.com,,",
		"Alan,,alan@example.com,,",
		"Edsger,,edsger@example.com,,",
		"Donald,Knuth,ada@example.com,,",
		"Barbara,Liskov,barbara@example.com,,",
		"Tony,Hoare,tony@example.com,,",
		"John,Backus,john@example.com,,",
		"Frances,Allen,frances@example.com,,",
		"Ken,Thompson,ken@example.com,,",
	}
	result, err := svc.ImportFile(context.Background(), ImportFileRequest{
		EventID:   42,
		CreatedBy: "user-1",
		Filename:  "roster.csv",
		Data:      buildCSV(rows...),
	})
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, 10, result.TotalRows)
	assert.Equal(t, 3, result.FailedRows)
	assert.Zero(t, staging.committed)
	assert.Len(t, staging.rows, 10)

	flagged := 0
	for _, row := range staging.rows {
		if row.ErrorMessage != nil {
			flagged++
		}
	}
	assert.Equal(t, 3, flagged)
}

func TestImportFileMapsHeaderAliases(t *testing.T) {
	svc, staging, emails, _ := newImportFixture()
	emails.existing["ada@example.com"] = true

	data := []byte("Given Name,Surname,E-mail,Phone Number,Organisation\n" +
		"Ada,Lovelace,ada@example.com,555-0100,Analytical Engines\n")
	result, err := svc.ImportFile(context.Background(), ImportFileRequest{
		EventID:   42,
		CreatedBy: "user-1",
		Filename:  "roster.csv",
		Data:      data,
	})
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, 1, result.FailedRows)

	require.Len(t, staging.rows, 1)
	row := staging.rows[0]
	assert.Equal(t, "Ada", row.FirstName)
	assert.Equal(t, "Lovelace", row.LastName)
	require.NotNil(t, row.Email)
	assert.Equal(t, "ada@example.com", *row.Email)
	require.NotNil(t, row.Phone)
	assert.Equal(t, "555-0100", *row.Phone)
	require.NotNil(t, row.Company)
	assert.Equal(t, "Analytical Engines", *row.Company)
	require.NotNil(t, row.ErrorMessage)
	assert.Contains(t, *row.ErrorMessage, "already registered")
}

func TestValidateReportsBatchAndCommittedDuplicateTogether(t *testing.T) {
	svc, staging, emails, _ := newImportFixture()
	emails.existing["ada@example.com"] = true

	require.NoError(t, staging.StageAll(context.Background(), []models.StagedRow{
		{EventID: 42, CreatedBy: "user-1", Position: 1, FirstName: "Ada", LastName: "Lovelace", Email: strptr("ada@example.com")},
		{EventID: 42, CreatedBy: "user-1", Position: 2, FirstName: "Countess", LastName: "Lovelace", Email: strptr("ADA@example.com")},
	}))
	rowErrors, err := svc.Validate(context.Background(), 42, "user-1")
	require.NoError(t, err)
	require.Len(t, rowErrors, 2)
	assert.Contains(t, rowErrors[0].Message, "already registered")
	assert.NotContains(t, rowErrors[0].Message, "duplicate email in batch")
	assert.Contains(t, rowErrors[1].Message, "duplicate email in batch")
	assert.Contains(t, rowErrors[1].Message, "already registered")
}

func TestValidateFlagsCommittedDuplicateEmail(t *testing.T) {
	svc, staging, emails, _ := newImportFixture()
	emails.existing["ada@example.com"] = true

	require.NoError(t, staging.StageAll(context.Background(), []models.StagedRow{
		{EventID: 42, CreatedBy: "user-1", Position: 1, FirstName: "Ada", LastName: "Lovelace", Email: strptr("ada@example.com")},
	}))
	rowErrors, err := svc.Validate(context.Background(), 42, "user-1")
	require.NoError(t, err)
	require.Len(t, rowErrors, 1)
	assert.Contains(t, rowErrors[0].Message, "already registered")
}

func TestValidateJoinsMultipleMessages(t *testing.T) {
	svc, staging, _, _ := newImportFixture()

	require.NoError(t, staging.StageAll(context.Background(), []models.StagedRow{
		{EventID: 42, CreatedBy: "user-1", Position: 1, FirstName: "", LastName: "Lovelace", Email: strptr("not-an-email")},
	}))
	rowErrors, err := svc.Validate(context.Background(), 42, "user-1")
	require.NoError(t, err)
	require.Len(t, rowErrors, 1)
	assert.Contains(t, rowErrors[0].Message, "first name is required")
	assert.Contains(t, rowErrors[0].Message, "invalid email format")
	assert.Contains(t, rowErrors[0].Message, "; ")
}

func TestValidatePreservesStagingOrder(t *testing.T) {
	svc, staging, _, _ := newImportFixture()

	require.NoError(t, staging.StageAll(context.Background(), []models.StagedRow{
		{EventID: 42, CreatedBy: "user-1", Position: 1, FirstName: "", LastName: "One"},
		{EventID: 42, CreatedBy: "user-1", Position: 2, FirstName: "Two", LastName: "Two"},
		{EventID: 42, CreatedBy: "user-1", Position: 3, FirstName: "", LastName: "Three"},
	}))
	rowErrors, err := svc.Validate(context.Background(), 42, "user-1")
	require.NoError(t, err)
	require.Len(t, rowErrors, 2)
	assert.Equal(t, 1, rowErrors[0].Row.Position)
	assert.Equal(t, 3, rowErrors[1].Row.Position)
}

func TestCommitRefusesDirtyBatch(t *testing.T) {
	svc, staging, _, _ := newImportFixture()

	message := "last name is required"
	staging.rows = []models.StagedRow{
		{ID: 1, EventID: 42, CreatedBy: "user-1", Position: 1, FirstName: "Ada", ErrorMessage: &message},
	}
	_, err := svc.Commit(context.Background(), 42, "user-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)
	assert.Len(t, staging.rows, 1)
}

func TestImportFileReplacesPreviousBatch(t *testing.T) {
	svc, staging, _, _ := newImportFixture()

	_, err := svc.ImportFile(context.Background(), ImportFileRequest{
		EventID:   42,
		CreatedBy: "user-1",
		Filename:  "roster.csv",
		Data:      buildCSV("Ada,Lovelace,ada@example.com,,"),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, staging.clears)
}

func TestImportFileRejectsEmptyFile(t *testing.T) {
	svc, _, _, _ := newImportFixture()

	_, err := svc.ImportFile(context.Background(), ImportFileRequest{
		EventID:   42,
		CreatedBy: "user-1",
		Filename:  "roster.csv",
		Data:      []byte(""),
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidUpload.Code, appErrors.FromError(err).Code)
}

func strptr(s string) *string { return &s }

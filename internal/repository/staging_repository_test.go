package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/eventmgr/checkin-api/internal/models"
)

func TestStagingRepositoryStageAllPreservesOrder(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewStagingRepository(db)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO staged_participants")).
		WithArgs(int64(42), "user-1", 1, "Ada", "Lovelace", nil, nil, nil, nil, nil, nil, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO staged_participants")).
		WithArgs(int64(42), "user-1", 2, "Grace", "Hopper", nil, nil, nil, nil, nil, nil, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectCommit()

	err := repo.StageAll(context.Background(), []models.StagedRow{
		{EventID: 42, CreatedBy: "user-1", Position: 1, FirstName: "Ada", LastName: "Lovelace"},
		{EventID: 42, CreatedBy: "user-1", Position: 2, FirstName: "Grace", LastName: "Hopper"},
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStagingRepositoryClearIsIdempotent(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewStagingRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM staged_participants")).
		WithArgs(int64(42), "user-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.Clear(context.Background(), 42, "user-1"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStagingRepositoryCommitBatchRefusesDirtyRows(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewStagingRepository(db)
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("error_message IS NOT NULL")).
		WithArgs(int64(42), "user-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectRollback()

	_, err := repo.CommitBatch(context.Background(), 42, "user-1", DefaultCodeGenerator)
	require.ErrorIs(t, err, ErrBatchHasErrors)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStagingRepositoryCommitBatchPromotesRows(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewStagingRepository(db)
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("error_message IS NOT NULL")).
		WithArgs(int64(42), "user-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	staged := sqlmock.NewRows([]string{"id", "event_id", "created_by", "position", "first_name", "last_name", "email", "phone", "company", "department", "notes", "error_message", "created_at"}).
		AddRow(1, 42, "user-1", 1, "Ada", "Lovelace", "ada@example.com", nil, nil, nil, nil, nil, time.Now()).
		AddRow(2, 42, "user-1", 2, "Grace", "Hopper", nil, nil, nil, nil, nil, nil, time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("FROM staged_participants WHERE event_id = $1 AND created_by = $2 ORDER BY position ASC")).
		WithArgs(int64(42), "user-1").
		WillReturnRows(staged)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO participants")).
		WillReturnResult(sqlmock.NewResult(100, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO participants")).
		WillReturnResult(sqlmock.NewResult(101, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM staged_participants")).
		WithArgs(int64(42), "user-1").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	imported, err := repo.CommitBatch(context.Background(), 42, "user-1", DefaultCodeGenerator)
	require.NoError(t, err)
	require.Equal(t, 2, imported)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStagingRepositoryAnnotateErrors(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewStagingRepository(db)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE staged_participants SET error_message")).
		WithArgs(int64(3), "last name is required").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.AnnotateErrors(context.Background(), map[int64]string{3: "last name is required"})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

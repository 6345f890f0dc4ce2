package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/eventmgr/checkin-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func participantID(id int64) *int64 { return &id }

func TestScanRepositoryAppend(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewScanRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO scan_records")).
		WithArgs(int64(42), participantID(7), int64(5), models.ScanOutcomeInvalid, "malformed credential", "user-1", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(11))

	rec := &models.ScanRecord{
		EventID:       42,
		ParticipantID: participantID(7),
		AccessPointID: 5,
		Outcome:       models.ScanOutcomeInvalid,
		Message:       "malformed credential",
		ScannedBy:     "user-1",
	}
	require.NoError(t, repo.Append(context.Background(), rec))
	require.Equal(t, int64(11), rec.ID)
	require.False(t, rec.ScannedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestScanRepositoryAppendValidInserted(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewScanRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("ON CONFLICT (participant_id, access_point_id) WHERE outcome = 'VALID' DO NOTHING")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(12))

	rec := &models.ScanRecord{
		EventID:       42,
		ParticipantID: participantID(7),
		AccessPointID: 5,
		Outcome:       models.ScanOutcomeValid,
		Message:       "admitted",
		ScannedAt:     time.Now().UTC(),
	}
	inserted, err := repo.AppendValid(context.Background(), rec)
	require.NoError(t, err)
	require.True(t, inserted)
	require.Equal(t, int64(12), rec.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestScanRepositoryAppendValidLosesRace(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewScanRepository(db)
	// Conflict target held by a concurrent winner: no row comes back.
	mock.ExpectQuery(regexp.QuoteMeta("ON CONFLICT (participant_id, access_point_id) WHERE outcome = 'VALID' DO NOTHING")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	rec := &models.ScanRecord{
		EventID:       42,
		ParticipantID: participantID(7),
		AccessPointID: 5,
		Outcome:       models.ScanOutcomeValid,
		ScannedAt:     time.Now().UTC(),
	}
	inserted, err := repo.AppendValid(context.Background(), rec)
	require.NoError(t, err)
	require.False(t, inserted)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestScanRepositoryHasPriorScan(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewScanRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS")).
		WithArgs(int64(7), int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	prior, err := repo.HasPriorScan(context.Background(), 7, 5)
	require.NoError(t, err)
	require.True(t, prior)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestScanRepositoryStatisticsFoldsInvalidBuckets(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewScanRepository(db)
	rows := sqlmock.NewRows([]string{"outcome", "cnt"}).
		AddRow("VALID", 10).
		AddRow("INVALID", 2).
		AddRow("INVALID_ACCESS", 3).
		AddRow("DUPLICATE", 4)
	mock.ExpectQuery(regexp.QuoteMeta("GROUP BY outcome")).
		WithArgs(int64(42), int64(5)).
		WillReturnRows(rows)

	stats, err := repo.Statistics(context.Background(), 42, 5)
	require.NoError(t, err)
	require.Equal(t, 19, stats.Total)
	require.Equal(t, 10, stats.Valid)
	require.Equal(t, 5, stats.Invalid)
	require.Equal(t, 4, stats.Duplicate)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestScanRepositoryRecentClampsLimit(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewScanRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("LIMIT 50")).
		WithArgs(int64(42), int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "participant_name", "participant_code", "access_point_name", "outcome", "message", "scanned_by", "scanned_at"}))

	_, err := repo.Recent(context.Background(), 42, 5, 1000)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

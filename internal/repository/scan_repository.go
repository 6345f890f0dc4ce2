package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/eventmgr/checkin-api/internal/models"
)

// ScanRepository is the append-only ledger of scan attempts. Rows are never
// updated or deleted; duplicate detection and statistics read from it alone.
type ScanRepository struct {
	db *sqlx.DB
}

// NewScanRepository constructs the repository.
func NewScanRepository(db *sqlx.DB) *ScanRepository {
	return &ScanRepository{db: db}
}

// Append inserts one ledger entry. Used for every non-VALID outcome.
func (r *ScanRepository) Append(ctx context.Context, rec *models.ScanRecord) error {
	if rec.ScannedAt.IsZero() {
		rec.ScannedAt = time.Now().UTC()
	}
	const query = `INSERT INTO scan_records (event_id, participant_id, access_point_id, outcome, message, scanned_by, scanned_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id`
	if err := r.db.GetContext(ctx, &rec.ID, query,
		rec.EventID, rec.ParticipantID, rec.AccessPointID, rec.Outcome, rec.Message, rec.ScannedBy, rec.ScannedAt); err != nil {
		return fmt.Errorf("append scan record: %w", err)
	}
	return nil
}

// AppendValid inserts a VALID entry guarded by the partial unique index on
// (participant_id, access_point_id) WHERE outcome = 'VALID'. When a
// concurrent or earlier valid scan already holds the slot, no row is inserted
// and false is returned so the caller can record a DUPLICATE instead. This is
// the serialization point that keeps two simultaneous scans of one credential
// from both succeeding.
func (r *ScanRepository) AppendValid(ctx context.Context, rec *models.ScanRecord) (bool, error) {
	if rec.ScannedAt.IsZero() {
		rec.ScannedAt = time.Now().UTC()
	}
	const query = `INSERT INTO scan_records (event_id, participant_id, access_point_id, outcome, message, scanned_by, scanned_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (participant_id, access_point_id) WHERE outcome = 'VALID' DO NOTHING
RETURNING id`
	err := r.db.GetContext(ctx, &rec.ID, query,
		rec.EventID, rec.ParticipantID, rec.AccessPointID, rec.Outcome, rec.Message, rec.ScannedBy, rec.ScannedAt)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("append valid scan record: %w", err)
	}
	return true, nil
}

// HasPriorScan reports whether any attempt for this participant was already
// recorded at the given access point, regardless of its outcome.
func (r *ScanRepository) HasPriorScan(ctx context.Context, participantID, accessPointID int64) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM scan_records WHERE participant_id = $1 AND access_point_id = $2)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, participantID, accessPointID); err != nil {
		return false, fmt.Errorf("check prior scan: %w", err)
	}
	return exists, nil
}

// Statistics returns exact outcome counts for one access point. INVALID and
// INVALID_ACCESS are folded into the invalid bucket.
func (r *ScanRepository) Statistics(ctx context.Context, eventID, accessPointID int64) (*models.ScanStatistics, error) {
	const query = `SELECT outcome, COUNT(*) AS cnt
FROM scan_records
WHERE event_id = $1 AND access_point_id = $2
GROUP BY outcome`
	rows := []struct {
		Outcome string `db:"outcome"`
		Count   int    `db:"cnt"`
	}{}
	if err := r.db.SelectContext(ctx, &rows, query, eventID, accessPointID); err != nil {
		return nil, fmt.Errorf("scan statistics: %w", err)
	}
	stats := &models.ScanStatistics{}
	for _, row := range rows {
		switch models.ScanOutcome(row.Outcome) {
		case models.ScanOutcomeValid:
			stats.Valid += row.Count
		case models.ScanOutcomeInvalid, models.ScanOutcomeInvalidAccess:
			stats.Invalid += row.Count
		case models.ScanOutcomeDuplicate:
			stats.Duplicate += row.Count
		}
		stats.Total += row.Count
	}
	return stats, nil
}

// Recent returns the latest ledger entries for an access point, most recent
// first, joined with participant and access point names for the live feed.
func (r *ScanRepository) Recent(ctx context.Context, eventID, accessPointID int64, limit int) ([]models.ScanLogEntry, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	query := fmt.Sprintf(`SELECT sr.id, p.first_name || ' ' || p.last_name AS participant_name, p.participant_code,
        ap.name AS access_point_name, sr.outcome, sr.message, sr.scanned_by, sr.scanned_at
        FROM scan_records sr
        LEFT JOIN participants p ON p.id = sr.participant_id
        JOIN access_points ap ON ap.id = sr.access_point_id
        WHERE sr.event_id = $1 AND sr.access_point_id = $2
        ORDER BY sr.scanned_at DESC, sr.id DESC
        LIMIT %d`, limit)
	var entries []models.ScanLogEntry
	if err := r.db.SelectContext(ctx, &entries, query, eventID, accessPointID); err != nil {
		return nil, fmt.Errorf("recent scans: %w", err)
	}
	return entries, nil
}

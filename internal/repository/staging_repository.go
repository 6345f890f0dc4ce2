package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/eventmgr/checkin-api/internal/credential"
	"github.com/eventmgr/checkin-api/internal/models"
)

// ErrBatchHasErrors is returned by CommitBatch when any staged row still
// carries a validation message. Nothing is mutated in that case.
var ErrBatchHasErrors = errors.New("staged batch has validation errors")

// StagingRepository holds uncommitted import batches. A batch is keyed by
// (event_id, created_by); rows carry their original spreadsheet position so
// error reports stay traceable to the source file.
type StagingRepository struct {
	db *sqlx.DB
}

// NewStagingRepository constructs the repository.
func NewStagingRepository(db *sqlx.DB) *StagingRepository {
	return &StagingRepository{db: db}
}

// Clear removes the owner's staged batch. Clearing an empty batch is not an
// error; callers rely on this after cancelled or superseded uploads.
func (r *StagingRepository) Clear(ctx context.Context, eventID int64, createdBy string) error {
	const query = `DELETE FROM staged_participants WHERE event_id = $1 AND created_by = $2`
	if _, err := r.db.ExecContext(ctx, query, eventID, createdBy); err != nil {
		return fmt.Errorf("clear staged batch: %w", err)
	}
	return nil
}

// StageAll inserts a batch of rows in one transaction, preserving order.
func (r *StagingRepository) StageAll(ctx context.Context, rows []models.StagedRow) error {
	if len(rows) == 0 {
		return nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin stage batch: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			tx.Rollback() //nolint:errcheck
		}
	}()
	const query = `INSERT INTO staged_participants (event_id, created_by, position, first_name, last_name, email, phone, company, department, notes, error_message, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	now := time.Now().UTC()
	for i := range rows {
		row := &rows[i]
		if row.CreatedAt.IsZero() {
			row.CreatedAt = now
		}
		if _, err := tx.ExecContext(ctx, query,
			row.EventID, row.CreatedBy, row.Position, row.FirstName, row.LastName,
			row.Email, row.Phone, row.Company, row.Department, row.Notes, row.ErrorMessage, row.CreatedAt); err != nil {
			return fmt.Errorf("stage row %d: %w", row.Position, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit stage batch: %w", err)
	}
	committed = true
	return nil
}

// Fetch returns the owner's staged rows in original staging order.
func (r *StagingRepository) Fetch(ctx context.Context, eventID int64, createdBy string) ([]models.StagedRow, error) {
	const query = `SELECT id, event_id, created_by, position, first_name, last_name, email, phone, company, department, notes, error_message, created_at
FROM staged_participants
WHERE event_id = $1 AND created_by = $2
ORDER BY position ASC`
	var rows []models.StagedRow
	if err := r.db.SelectContext(ctx, &rows, query, eventID, createdBy); err != nil {
		return nil, fmt.Errorf("fetch staged batch: %w", err)
	}
	return rows, nil
}

// AnnotateErrors attaches validation messages to staged rows. This is the
// single permitted mutation of a staged row.
func (r *StagingRepository) AnnotateErrors(ctx context.Context, updates map[int64]string) error {
	if len(updates) == 0 {
		return nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin annotate errors: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			tx.Rollback() //nolint:errcheck
		}
	}()
	const query = `UPDATE staged_participants SET error_message = $2 WHERE id = $1`
	for id, message := range updates {
		if _, err := tx.ExecContext(ctx, query, id, message); err != nil {
			return fmt.Errorf("annotate staged row %d: %w", id, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit annotate errors: %w", err)
	}
	committed = true
	return nil
}

// ErrorCount returns how many rows in the batch carry an error message.
func (r *StagingRepository) ErrorCount(ctx context.Context, eventID int64, createdBy string) (int, error) {
	const query = `SELECT COUNT(*) FROM staged_participants WHERE event_id = $1 AND created_by = $2 AND error_message IS NOT NULL`
	var count int
	if err := r.db.GetContext(ctx, &count, query, eventID, createdBy); err != nil {
		return 0, fmt.Errorf("count staged errors: %w", err)
	}
	return count, nil
}

// CommitBatch promotes every staged row of the batch into a permanent
// participant and deletes the staging rows, all inside one transaction.
// It refuses to run while any row still carries an error message, so a
// partial commit is never observable. Each new participant receives a fresh
// credential code and QR hash.
func (r *StagingRepository) CommitBatch(ctx context.Context, eventID int64, createdBy string, newCode func() (code, qrHash string)) (int, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin commit batch: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			tx.Rollback() //nolint:errcheck
		}
	}()

	var dirty int
	if err := tx.GetContext(ctx, &dirty,
		`SELECT COUNT(*) FROM staged_participants WHERE event_id = $1 AND created_by = $2 AND error_message IS NOT NULL`,
		eventID, createdBy); err != nil {
		return 0, fmt.Errorf("check staged errors: %w", err)
	}
	if dirty > 0 {
		return 0, ErrBatchHasErrors
	}

	var rows []models.StagedRow
	if err := tx.SelectContext(ctx, &rows,
		`SELECT id, event_id, created_by, position, first_name, last_name, email, phone, company, department, notes, error_message, created_at
FROM staged_participants WHERE event_id = $1 AND created_by = $2 ORDER BY position ASC`,
		eventID, createdBy); err != nil {
		return 0, fmt.Errorf("load staged batch: %w", err)
	}

	const insert = `INSERT INTO participants (event_id, first_name, last_name, email, phone, company, department, notes,
participant_code, qr_code_hash, active, created_at, created_by, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, TRUE, $11, $12, $11)`
	now := time.Now().UTC()
	for _, row := range rows {
		code, qrHash := newCode()
		if _, err := tx.ExecContext(ctx, insert,
			row.EventID, row.FirstName, row.LastName, row.Email, row.Phone, row.Company, row.Department, row.Notes,
			code, qrHash, now, row.CreatedBy); err != nil {
			return 0, fmt.Errorf("promote staged row %d: %w", row.Position, err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM staged_participants WHERE event_id = $1 AND created_by = $2`, eventID, createdBy); err != nil {
		return 0, fmt.Errorf("drop committed batch: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit batch: %w", err)
	}
	committed = true
	return len(rows), nil
}

// DefaultCodeGenerator issues a credential code plus QR hash pair.
func DefaultCodeGenerator() (string, string) {
	return credential.GenerateCode(), credential.NewQRHash()
}

package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/eventmgr/checkin-api/internal/models"
)

// AccessPointRepository handles persistence for event checkpoints.
type AccessPointRepository struct {
	db *sqlx.DB
}

// NewAccessPointRepository constructs the repository.
func NewAccessPointRepository(db *sqlx.DB) *AccessPointRepository {
	return &AccessPointRepository{db: db}
}

// ListByEvent returns every access point for an event, inactive ones included.
func (r *AccessPointRepository) ListByEvent(ctx context.Context, eventID int64) ([]models.AccessPoint, error) {
	const query = `SELECT id, event_id, name, description, active, created_at, created_by, updated_at, updated_by
FROM access_points WHERE event_id = $1 ORDER BY name ASC`
	var points []models.AccessPoint
	if err := r.db.SelectContext(ctx, &points, query, eventID); err != nil {
		return nil, fmt.Errorf("list access points: %w", err)
	}
	return points, nil
}

// FindByID returns one access point.
func (r *AccessPointRepository) FindByID(ctx context.Context, id int64) (*models.AccessPoint, error) {
	const query = `SELECT id, event_id, name, description, active, created_at, created_by, updated_at, updated_by
FROM access_points WHERE id = $1 LIMIT 1`
	var point models.AccessPoint
	if err := r.db.GetContext(ctx, &point, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find access point: %w", err)
	}
	return &point, nil
}

// Create inserts a new access point.
func (r *AccessPointRepository) Create(ctx context.Context, point *models.AccessPoint) error {
	if point.CreatedAt.IsZero() {
		point.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO access_points (event_id, name, description, active, created_at, created_by)
VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`
	if err := r.db.GetContext(ctx, &point.ID, query,
		point.EventID, point.Name, point.Description, point.Active, point.CreatedAt, point.CreatedBy); err != nil {
		return fmt.Errorf("create access point: %w", err)
	}
	return nil
}

// Update overwrites name, description and active state.
func (r *AccessPointRepository) Update(ctx context.Context, point *models.AccessPoint) error {
	now := time.Now().UTC()
	point.UpdatedAt = &now
	const query = `UPDATE access_points SET name = $2, description = $3, active = $4, updated_at = $5, updated_by = $6 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query,
		point.ID, point.Name, point.Description, point.Active, point.UpdatedAt, point.UpdatedBy)
	if err != nil {
		return fmt.Errorf("update access point: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Deactivate soft-deletes an access point. The row stays so historical scan
// records keep their reference.
func (r *AccessPointRepository) Deactivate(ctx context.Context, id int64, updatedBy string) error {
	const query = `UPDATE access_points SET active = FALSE, updated_at = $2, updated_by = $3 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, time.Now().UTC(), updatedBy)
	if err != nil {
		return fmt.Errorf("deactivate access point: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

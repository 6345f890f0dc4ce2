package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/eventmgr/checkin-api/internal/models"
)

const participantColumns = `id, event_id, first_name, last_name, email, phone, company, department, notes,
participant_code, qr_code_hash, ticket_type_id, active, created_at, created_by, updated_at, updated_by, deleted_at`

// ParticipantRepository handles persistence for permanent participant records.
type ParticipantRepository struct {
	db *sqlx.DB
}

// NewParticipantRepository constructs the repository.
func NewParticipantRepository(db *sqlx.DB) *ParticipantRepository {
	return &ParticipantRepository{db: db}
}

// List returns participants for an event matching the provided filter.
func (r *ParticipantRepository) List(ctx context.Context, filter models.ParticipantFilter) ([]models.Participant, int, error) {
	where := []string{"event_id = $1", "deleted_at IS NULL"}
	args := []interface{}{filter.EventID}
	if filter.Search != "" {
		where = append(where, fmt.Sprintf("(first_name ILIKE $%d OR last_name ILIKE $%d OR email ILIKE $%d OR participant_code ILIKE $%d)",
			len(args)+1, len(args)+1, len(args)+1, len(args)+1))
		args = append(args, "%"+filter.Search+"%")
	}
	if filter.CreatedBy != "" {
		where = append(where, fmt.Sprintf("created_by = $%d", len(args)+1))
		args = append(args, filter.CreatedBy)
	}
	if filter.Active != nil {
		where = append(where, fmt.Sprintf("active = $%d", len(args)+1))
		args = append(args, *filter.Active)
	}
	whereClause := strings.Join(where, " AND ")

	allowedSort := map[string]string{
		"last_name":  "last_name",
		"email":      "email",
		"created_at": "created_at",
	}
	sortColumn, ok := allowedSort[filter.SortBy]
	if !ok {
		sortColumn = "created_at"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 200 {
		size = 50
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT %s FROM participants WHERE %s ORDER BY %s %s LIMIT %d OFFSET %d`,
		participantColumns, whereClause, sortColumn, order, size, offset)
	var participants []models.Participant
	if err := r.db.SelectContext(ctx, &participants, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list participants: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM participants WHERE %s", whereClause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count participants: %w", err)
	}
	return participants, total, nil
}

// FindByID returns a single participant.
func (r *ParticipantRepository) FindByID(ctx context.Context, id int64) (*models.Participant, error) {
	query := fmt.Sprintf(`SELECT %s FROM participants WHERE id = $1 AND deleted_at IS NULL LIMIT 1`, participantColumns)
	var p models.Participant
	if err := r.db.GetContext(ctx, &p, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find participant by id: %w", err)
	}
	return &p, nil
}

// FindByCredential resolves a participant from the decoded token pair.
func (r *ParticipantRepository) FindByCredential(ctx context.Context, eventID int64, code string) (*models.Participant, error) {
	query := fmt.Sprintf(`SELECT %s FROM participants WHERE event_id = $1 AND participant_code = $2 AND deleted_at IS NULL LIMIT 1`, participantColumns)
	var p models.Participant
	if err := r.db.GetContext(ctx, &p, query, eventID, code); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find participant by credential: %w", err)
	}
	return &p, nil
}

// EmailExists reports whether a committed participant with this email already
// exists for the event. The comparison is case-insensitive.
func (r *ParticipantRepository) EmailExists(ctx context.Context, eventID int64, email string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM participants WHERE event_id = $1 AND LOWER(email) = LOWER($2) AND deleted_at IS NULL)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, eventID, email); err != nil {
		return false, fmt.Errorf("check participant email: %w", err)
	}
	return exists, nil
}

// Create inserts a new participant record.
func (r *ParticipantRepository) Create(ctx context.Context, p *models.Participant) error {
	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	const query = `INSERT INTO participants (event_id, first_name, last_name, email, phone, company, department, notes,
participant_code, qr_code_hash, ticket_type_id, active, created_at, created_by, updated_at, updated_by)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
RETURNING id`
	if err := r.db.GetContext(ctx, &p.ID, query,
		p.EventID, p.FirstName, p.LastName, p.Email, p.Phone, p.Company, p.Department, p.Notes,
		p.ParticipantCode, p.QRCodeHash, p.TicketTypeID, p.Active, p.CreatedAt, p.CreatedBy, p.UpdatedAt, p.UpdatedBy); err != nil {
		return fmt.Errorf("create participant: %w", err)
	}
	return nil
}

// Update overwrites the mutable fields of an existing participant. The
// credential pair is immutable once issued and is deliberately not touched.
func (r *ParticipantRepository) Update(ctx context.Context, p *models.Participant) error {
	p.UpdatedAt = time.Now().UTC()
	const query = `UPDATE participants SET first_name = $2, last_name = $3, email = $4, phone = $5, company = $6,
department = $7, notes = $8, ticket_type_id = $9, active = $10, updated_at = $11, updated_by = $12
WHERE id = $1 AND deleted_at IS NULL`
	res, err := r.db.ExecContext(ctx, query,
		p.ID, p.FirstName, p.LastName, p.Email, p.Phone, p.Company, p.Department, p.Notes,
		p.TicketTypeID, p.Active, p.UpdatedAt, p.UpdatedBy)
	if err != nil {
		return fmt.Errorf("update participant: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// SoftDelete marks a participant removed without losing its scan history.
func (r *ParticipantRepository) SoftDelete(ctx context.Context, id int64, deletedBy string) error {
	const query = `UPDATE participants SET deleted_at = $2, updated_at = $2, updated_by = $3 WHERE id = $1 AND deleted_at IS NULL`
	res, err := r.db.ExecContext(ctx, query, id, time.Now().UTC(), deletedBy)
	if err != nil {
		return fmt.Errorf("delete participant: %w", err)
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

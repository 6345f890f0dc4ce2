package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/eventmgr/checkin-api/internal/models"
)

// TicketAccessRepository manages ticket types and their authorization grants
// to access points.
type TicketAccessRepository struct {
	db *sqlx.DB
}

// NewTicketAccessRepository constructs the repository.
func NewTicketAccessRepository(db *sqlx.DB) *TicketAccessRepository {
	return &TicketAccessRepository{db: db}
}

// ListTicketTypes returns the ticket types defined for an event.
func (r *TicketAccessRepository) ListTicketTypes(ctx context.Context, eventID int64) ([]models.TicketType, error) {
	const query = `SELECT id, event_id, name, description, price, is_free, is_capacity_unlimited, min_capacity, max_capacity, sales_end_date, created_at, updated_at
FROM ticket_types WHERE event_id = $1 ORDER BY name ASC`
	var types []models.TicketType
	if err := r.db.SelectContext(ctx, &types, query, eventID); err != nil {
		return nil, fmt.Errorf("list ticket types: %w", err)
	}
	return types, nil
}

// Grants returns the authorization grants held by a ticket type.
func (r *TicketAccessRepository) Grants(ctx context.Context, ticketTypeID int64) ([]models.AuthorizationGrant, error) {
	const query = `SELECT ticket_type_id, access_point_id, created_at, created_by
FROM ticket_access_grants WHERE ticket_type_id = $1`
	var grants []models.AuthorizationGrant
	if err := r.db.SelectContext(ctx, &grants, query, ticketTypeID); err != nil {
		return nil, fmt.Errorf("list grants: %w", err)
	}
	return grants, nil
}

// Assignments lists every access point of the event with a flag marking
// whether the ticket type holds a grant for it.
func (r *TicketAccessRepository) Assignments(ctx context.Context, ticketTypeID, eventID int64) ([]models.AccessPointAssignment, error) {
	const query = `SELECT ap.id AS access_point_id, ap.name, ap.description, ap.active,
        (g.access_point_id IS NOT NULL) AS is_assigned
FROM access_points ap
LEFT JOIN ticket_access_grants g ON g.access_point_id = ap.id AND g.ticket_type_id = $1
WHERE ap.event_id = $2
ORDER BY ap.name ASC`
	var assignments []models.AccessPointAssignment
	if err := r.db.SelectContext(ctx, &assignments, query, ticketTypeID, eventID); err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	return assignments, nil
}

// ReplaceGrants swaps the full grant set of a ticket type in one transaction.
func (r *TicketAccessRepository) ReplaceGrants(ctx context.Context, ticketTypeID int64, accessPointIDs []int64, createdBy string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace grants: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			tx.Rollback() //nolint:errcheck
		}
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM ticket_access_grants WHERE ticket_type_id = $1`, ticketTypeID); err != nil {
		return fmt.Errorf("drop grants: %w", err)
	}
	const insert = `INSERT INTO ticket_access_grants (ticket_type_id, access_point_id, created_at, created_by) VALUES ($1, $2, $3, $4)`
	now := time.Now().UTC()
	for _, accessPointID := range accessPointIDs {
		if _, err := tx.ExecContext(ctx, insert, ticketTypeID, accessPointID, now, createdBy); err != nil {
			return fmt.Errorf("insert grant for access point %d: %w", accessPointID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace grants: %w", err)
	}
	committed = true
	return nil
}

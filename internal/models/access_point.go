package models

import "time"

// AccessPoint is a physical checkpoint where credentials are scanned.
// Access points are soft-deleted by flipping Active; rows are never removed
// so historical scan records keep a valid reference.
type AccessPoint struct {
	ID          int64      `db:"id" json:"id"`
	EventID     int64      `db:"event_id" json:"event_id"`
	Name        string     `db:"name" json:"name"`
	Description *string    `db:"description" json:"description,omitempty"`
	Active      bool       `db:"active" json:"active"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	CreatedBy   *string    `db:"created_by" json:"created_by,omitempty"`
	UpdatedAt   *time.Time `db:"updated_at" json:"updated_at,omitempty"`
	UpdatedBy   *string    `db:"updated_by" json:"updated_by,omitempty"`
}

// AccessPointAssignment decorates an access point with its grant status for
// a particular ticket type.
type AccessPointAssignment struct {
	AccessPointID int64   `db:"access_point_id" json:"access_point_id"`
	Name          string  `db:"name" json:"name"`
	Description   *string `db:"description" json:"description,omitempty"`
	Active        bool    `db:"active" json:"active"`
	IsAssigned    bool    `db:"is_assigned" json:"is_assigned"`
}

package models

import "time"

// Participant represents a permanent attendee record for an event.
type Participant struct {
	ID              int64      `db:"id" json:"id"`
	EventID         int64      `db:"event_id" json:"event_id"`
	FirstName       string     `db:"first_name" json:"first_name"`
	LastName        string     `db:"last_name" json:"last_name"`
	Email           *string    `db:"email" json:"email,omitempty"`
	Phone           *string    `db:"phone" json:"phone,omitempty"`
	Company         *string    `db:"company" json:"company,omitempty"`
	Department      *string    `db:"department" json:"department,omitempty"`
	Notes           *string    `db:"notes" json:"notes,omitempty"`
	ParticipantCode string     `db:"participant_code" json:"participant_code"`
	QRCodeHash      string     `db:"qr_code_hash" json:"-"`
	TicketTypeID    *int64     `db:"ticket_type_id" json:"ticket_type_id,omitempty"`
	Active          bool       `db:"active" json:"active"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	CreatedBy       string     `db:"created_by" json:"created_by"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updated_at"`
	UpdatedBy       *string    `db:"updated_by" json:"updated_by,omitempty"`
	DeletedAt       *time.Time `db:"deleted_at" json:"-"`
}

// FullName joins the name parts for display.
func (p Participant) FullName() string {
	if p.FirstName == "" {
		return p.LastName
	}
	if p.LastName == "" {
		return p.FirstName
	}
	return p.FirstName + " " + p.LastName
}

// ParticipantFilter captures filtering criteria for listing participants.
type ParticipantFilter struct {
	EventID   int64
	Search    string
	CreatedBy string
	Active    *bool
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

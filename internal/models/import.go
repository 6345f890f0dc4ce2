package models

import "time"

// StagedRow is an uncommitted imported record held in the staging table.
// Fields carry the normalized spreadsheet cells; ErrorMessage is attached
// once by the validator and stays nil for clean rows.
type StagedRow struct {
	ID           int64     `db:"id" json:"id"`
	EventID      int64     `db:"event_id" json:"event_id"`
	CreatedBy    string    `db:"created_by" json:"created_by"`
	Position     int       `db:"position" json:"position"`
	FirstName    string    `db:"first_name" json:"first_name"`
	LastName     string    `db:"last_name" json:"last_name"`
	Email        *string   `db:"email" json:"email,omitempty"`
	Phone        *string   `db:"phone" json:"phone,omitempty"`
	Company      *string   `db:"company" json:"company,omitempty"`
	Department   *string   `db:"department" json:"department,omitempty"`
	Notes        *string   `db:"notes" json:"notes,omitempty"`
	ErrorMessage *string   `db:"error_message" json:"error_message,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// StagedRowError pairs a staged row with the validation message attached to it.
type StagedRowError struct {
	Row     StagedRow `json:"row"`
	Message string    `json:"message"`
}

// ImportResult summarises one upload-stage-validate-commit run.
type ImportResult struct {
	Success        bool   `json:"success"`
	Message        string `json:"message"`
	TotalRows      int    `json:"total_rows"`
	ImportedRows   int    `json:"imported_rows"`
	FailedRows     int    `json:"failed_rows"`
	ErrorReportURL string `json:"error_report_url,omitempty"`
}

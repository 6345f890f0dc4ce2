package models

import "time"

// ScanOutcome classifies a single scan attempt.
type ScanOutcome string

const (
	ScanOutcomeValid         ScanOutcome = "VALID"
	ScanOutcomeInvalid       ScanOutcome = "INVALID"
	ScanOutcomeInvalidAccess ScanOutcome = "INVALID_ACCESS"
	ScanOutcomeDuplicate     ScanOutcome = "DUPLICATE"
	ScanOutcomeError         ScanOutcome = "ERROR"
)

// Valid returns true when the outcome is a supported value.
func (o ScanOutcome) Valid() bool {
	switch o {
	case ScanOutcomeValid, ScanOutcomeInvalid, ScanOutcomeInvalidAccess, ScanOutcomeDuplicate, ScanOutcomeError:
		return true
	default:
		return false
	}
}

// ScanRecord is one append-only ledger entry. ParticipantID is nil when the
// credential never resolved to a participant (malformed token, unknown code).
type ScanRecord struct {
	ID            int64       `db:"id" json:"id"`
	EventID       int64       `db:"event_id" json:"event_id"`
	ParticipantID *int64      `db:"participant_id" json:"participant_id,omitempty"`
	AccessPointID int64       `db:"access_point_id" json:"access_point_id"`
	Outcome       ScanOutcome `db:"outcome" json:"outcome"`
	Message       string      `db:"message" json:"message"`
	ScannedBy     string      `db:"scanned_by" json:"scanned_by"`
	ScannedAt     time.Time   `db:"scanned_at" json:"scanned_at"`
}

// ScanLogEntry joins ledger rows with display metadata for the live feed.
type ScanLogEntry struct {
	ID              int64       `db:"id" json:"id"`
	ParticipantName *string     `db:"participant_name" json:"participant_name,omitempty"`
	ParticipantCode *string     `db:"participant_code" json:"participant_code,omitempty"`
	AccessPointName string      `db:"access_point_name" json:"access_point_name"`
	Outcome         ScanOutcome `db:"outcome" json:"outcome"`
	Message         string      `db:"message" json:"message"`
	ScannedBy       string      `db:"scanned_by" json:"scanned_by"`
	ScannedAt       time.Time   `db:"scanned_at" json:"scanned_at"`
}

// ScanStatistics aggregates exact outcome counts for one access point.
// Invalid covers both INVALID and INVALID_ACCESS.
type ScanStatistics struct {
	Total     int `json:"total"`
	Valid     int `json:"valid"`
	Invalid   int `json:"invalid"`
	Duplicate int `json:"duplicate"`
}

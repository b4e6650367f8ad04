package models

import "time"

// AuditEvent is the DB representation of one transaction_audit row.
type AuditEvent struct {
	EventID       string    `db:"event_id"`
	TransactionID int64     `db:"transaction_id"`
	Action        string    `db:"action"`
	PerformedBy   string    `db:"performed_by"`
	Details       *string   `db:"details"`
	CreatedAt     time.Time `db:"created_at"`
}

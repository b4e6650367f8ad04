package domain

import "time"

// AuditAction names the engine event an audit row records.
type AuditAction string

const (
	AuditCreate   AuditAction = "create"
	AuditComplete AuditAction = "complete"
	AuditVoid     AuditAction = "void"
	AuditRollback AuditAction = "rollback"
)

// AuditEvent is one immutable row in the transaction action log, keyed by
// the ledger entry it concerns. The recorder is an optional side-channel;
// the engine functions without it.
type AuditEvent struct {
	EventID       string      `json:"eventID"`
	TransactionID int64       `json:"transactionID"`
	Action        AuditAction `json:"action"`
	PerformedBy   string      `json:"performedBy"`
	Details       string      `json:"details,omitempty"`
	CreatedAt     time.Time   `json:"createdAt"`
}

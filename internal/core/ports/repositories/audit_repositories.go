package repositories

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/corebank/ledger-service/internal/core/domain"
)

// AuditRecorder appends immutable action-log rows inside the engine's atomic
// unit. The engine tolerates a nil recorder; the log is an optional
// side-channel, not a dependency of correctness.
type AuditRecorder interface {
	// RecordActionInTx appends one audit event within the transaction.
	RecordActionInTx(ctx context.Context, tx pgx.Tx, event domain.AuditEvent) error

	// FindActionsByTransactionID lists the recorded actions for a ledger
	// entry, oldest first.
	FindActionsByTransactionID(ctx context.Context, transactionID int64) ([]domain.AuditEvent, error)
}

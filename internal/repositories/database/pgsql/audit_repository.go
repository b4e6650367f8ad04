package pgsql

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/corebank/ledger-service/internal/core/domain"
	portsrepo "github.com/corebank/ledger-service/internal/core/ports/repositories"
	"github.com/corebank/ledger-service/internal/models"
	"github.com/corebank/ledger-service/internal/utils/mapping"
)

type PgxAuditRepository struct {
	pool *pgxpool.Pool
}

// newPgxAuditRepository creates a new repository for the transaction action log.
func newPgxAuditRepository(pool *pgxpool.Pool) portsrepo.AuditRecorder {
	return &PgxAuditRepository{pool: pool}
}

var _ portsrepo.AuditRecorder = (*PgxAuditRepository)(nil)

// RecordActionInTx appends one audit event within the transaction.
func (r *PgxAuditRepository) RecordActionInTx(ctx context.Context, tx pgx.Tx, event domain.AuditEvent) error {
	m := mapping.ToModelAuditEvent(event)

	query := `
		INSERT INTO transaction_audit (event_id, transaction_id, action, performed_by, details, created_at)
		VALUES ($1, $2, $3, $4, $5, $6);
	`
	_, err := tx.Exec(ctx, query,
		m.EventID,
		m.TransactionID,
		m.Action,
		m.PerformedBy,
		m.Details,
		m.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record audit event for entry %d: %w", m.TransactionID, err)
	}
	return nil
}

// FindActionsByTransactionID lists the recorded actions for a ledger entry,
// oldest first.
func (r *PgxAuditRepository) FindActionsByTransactionID(ctx context.Context, transactionID int64) ([]domain.AuditEvent, error) {
	query := `
		SELECT event_id, transaction_id, action, performed_by, details, created_at
		FROM transaction_audit
		WHERE transaction_id = $1
		ORDER BY created_at ASC, event_id ASC;
	`
	rows, err := r.pool.Query(ctx, query, transactionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit events for entry %d: %w", transactionID, err)
	}

	modelEvents, err := pgx.CollectRows(rows, pgx.RowToStructByName[models.AuditEvent])
	if err != nil {
		return nil, fmt.Errorf("failed to scan audit event rows: %w", err)
	}

	events := make([]domain.AuditEvent, len(modelEvents))
	for i, m := range modelEvents {
		events[i] = mapping.ToDomainAuditEvent(m)
	}
	return events, nil
}

package pgsql

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/corebank/ledger-service/internal/apperrors"
	"github.com/corebank/ledger-service/internal/core/domain"
	portsrepo "github.com/corebank/ledger-service/internal/core/ports/repositories"
	"github.com/corebank/ledger-service/internal/models"
	"github.com/corebank/ledger-service/internal/utils/mapping"
)

type PgxLedgerRepository struct {
	BaseRepository
}

// newPgxLedgerRepository creates a new repository for ledger entries.
func newPgxLedgerRepository(pool *pgxpool.Pool) portsrepo.LedgerRepositoryWithTx {
	return &PgxLedgerRepository{BaseRepository: BaseRepository{Pool: pool}}
}

var _ portsrepo.LedgerRepositoryWithTx = (*PgxLedgerRepository)(nil)

const transactionColumns = `id, type, status, account_number, target_account, amount, fee, note,
	created_by, created_at, completed_at, voided_at,
	source_balance_before, source_balance_after, target_balance_before, target_balance_after,
	reversal_of, reversed_by`

// InsertTransactionInTx inserts one ledger entry and returns it with its
// assigned id.
func (r *PgxLedgerRepository) InsertTransactionInTx(ctx context.Context, tx pgx.Tx, txn domain.Transaction) (*domain.Transaction, error) {
	m := mapping.ToModelTransaction(txn)

	query := `
		INSERT INTO transactions (type, status, account_number, target_account, amount, fee, note,
			created_by, created_at, completed_at, voided_at,
			source_balance_before, source_balance_after, target_balance_before, target_balance_after,
			reversal_of, reversed_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		RETURNING id;
	`
	err := tx.QueryRow(ctx, query,
		m.Type,
		m.Status,
		m.AccountNumber,
		m.TargetAccount,
		m.Amount,
		m.Fee,
		m.Note,
		m.CreatedBy,
		m.CreatedAt,
		m.CompletedAt,
		m.VoidedAt,
		m.SourceBalanceBefore,
		m.SourceBalanceAfter,
		m.TargetBalanceBefore,
		m.TargetBalanceAfter,
		m.ReversalOf,
		m.ReversedBy,
	).Scan(&txn.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to insert ledger entry: %w", err)
	}
	return &txn, nil
}

// FindTransactionByID retrieves a single ledger entry.
func (r *PgxLedgerRepository) FindTransactionByID(ctx context.Context, id int64) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1;`

	rows, err := r.Pool.Query(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query ledger entry %d: %w", id, err)
	}
	return collectOneTransaction(rows, id)
}

// FindTransactionByIDForUpdate retrieves a ledger entry and locks its row for
// the duration of the transaction.
func (r *PgxLedgerRepository) FindTransactionByIDForUpdate(ctx context.Context, tx pgx.Tx, id int64) (*domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1 FOR UPDATE;`

	rows, err := tx.Query(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query ledger entry %d for update: %w", id, err)
	}
	return collectOneTransaction(rows, id)
}

func collectOneTransaction(rows pgx.Rows, id int64) (*domain.Transaction, error) {
	m, err := pgx.CollectOneRow(rows, pgx.RowToStructByName[models.Transaction])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: ledger entry %d", apperrors.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to scan ledger entry %d: %w", id, err)
	}
	txn := mapping.ToDomainTransaction(m)
	return &txn, nil
}

// FindTransactions retrieves ledger entries matching the filter, newest
// first. Account matches source or target.
func (r *PgxLedgerRepository) FindTransactions(ctx context.Context, filter domain.TransactionFilter) ([]domain.Transaction, error) {
	var (
		conditions []string
		args       []interface{}
	)
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.Account != "" {
		p := arg(filter.Account)
		conditions = append(conditions, fmt.Sprintf("(account_number = %s OR target_account = %s)", p, p))
	}
	if filter.Type != "" {
		conditions = append(conditions, "type = "+arg(string(filter.Type)))
	}
	if filter.Status != "" {
		conditions = append(conditions, "status = "+arg(string(filter.Status)))
	}
	if filter.From != nil {
		conditions = append(conditions, "created_at >= "+arg(*filter.From))
	}
	if filter.To != nil {
		conditions = append(conditions, "created_at <= "+arg(*filter.To))
	}
	if filter.NoteContains != "" {
		conditions = append(conditions, "note ILIKE "+arg("%"+filter.NoteContains+"%"))
	}

	query := `SELECT ` + transactionColumns + ` FROM transactions`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC, id DESC LIMIT " + arg(filter.EffectiveLimit())

	rows, err := r.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query ledger entries: %w", err)
	}

	modelTxns, err := pgx.CollectRows(rows, pgx.RowToStructByName[models.Transaction])
	if err != nil {
		return nil, fmt.Errorf("failed to scan ledger entry rows: %w", err)
	}
	return mapping.ToDomainTransactionSlice(modelTxns), nil
}

// SettleTransactionInTx moves a Pending entry to Completed and replaces its
// balance snapshots with the values captured at settlement. The status guard
// in the WHERE clause makes the update a no-op if the entry has already left
// Pending.
func (r *PgxLedgerRepository) SettleTransactionInTx(ctx context.Context, tx pgx.Tx, id int64, snapshots domain.BalanceSnapshots, completedAt time.Time) error {
	query := `
		UPDATE transactions
		SET status = $2, completed_at = $3,
			source_balance_before = $4, source_balance_after = $5,
			target_balance_before = $6, target_balance_after = $7
		WHERE id = $1 AND status = $8;
	`
	ct, err := tx.Exec(ctx, query,
		id,
		string(domain.StatusCompleted),
		completedAt,
		snapshots.SourceBefore,
		snapshots.SourceAfter,
		snapshots.TargetBefore,
		snapshots.TargetAfter,
		string(domain.StatusPending),
	)
	if err != nil {
		return fmt.Errorf("failed to settle ledger entry %d: %w", id, err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("%w: ledger entry %d is not pending", apperrors.ErrInvalidState, id)
	}
	return nil
}

// VoidTransactionInTx moves a Pending entry to Voided.
func (r *PgxLedgerRepository) VoidTransactionInTx(ctx context.Context, tx pgx.Tx, id int64, voidedAt time.Time) error {
	query := `
		UPDATE transactions
		SET status = $2, voided_at = $3
		WHERE id = $1 AND status = $4;
	`
	ct, err := tx.Exec(ctx, query, id, string(domain.StatusVoided), voidedAt, string(domain.StatusPending))
	if err != nil {
		return fmt.Errorf("failed to void ledger entry %d: %w", id, err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("%w: ledger entry %d is not pending", apperrors.ErrInvalidState, id)
	}
	return nil
}

// MarkRolledBackInTx moves a Completed entry to RolledBack and links it to
// its compensating entry.
func (r *PgxLedgerRepository) MarkRolledBackInTx(ctx context.Context, tx pgx.Tx, id int64, reversedBy int64) error {
	query := `
		UPDATE transactions
		SET status = $2, reversed_by = $3
		WHERE id = $1 AND status = $4 AND reversed_by IS NULL;
	`
	ct, err := tx.Exec(ctx, query, id, string(domain.StatusRolledBack), reversedBy, string(domain.StatusCompleted))
	if err != nil {
		return fmt.Errorf("failed to mark ledger entry %d rolled back: %w", id, err)
	}
	if ct.RowsAffected() == 0 {
		return fmt.Errorf("%w: ledger entry %d is not completed or already reversed", apperrors.ErrInvalidState, id)
	}
	return nil
}

package repositories

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/corebank/ledger-service/internal/core/domain"
)

// LedgerReader defines read operations over ledger entries.
type LedgerReader interface {
	// FindTransactionByID retrieves a single ledger entry.
	FindTransactionByID(ctx context.Context, id int64) (*domain.Transaction, error)

	// FindTransactionByIDForUpdate retrieves a ledger entry and locks its row
	// for the duration of the transaction. Used by lifecycle transitions.
	FindTransactionByIDForUpdate(ctx context.Context, tx pgx.Tx, id int64) (*domain.Transaction, error)

	// FindTransactions retrieves ledger entries matching the filter, ordered
	// by creation time descending (id descending as tiebreak), capped at the
	// filter's effective limit.
	FindTransactions(ctx context.Context, filter domain.TransactionFilter) ([]domain.Transaction, error)
}

// LedgerWriter defines write operations over ledger entries. All writers run
// inside the engine's atomic unit.
type LedgerWriter interface {
	// InsertTransactionInTx inserts one ledger entry and returns it with its
	// assigned id and creation time.
	InsertTransactionInTx(ctx context.Context, tx pgx.Tx, txn domain.Transaction) (*domain.Transaction, error)

	// SettleTransactionInTx moves a Pending entry to Completed, replacing its
	// balance snapshots with the values captured at settlement.
	SettleTransactionInTx(ctx context.Context, tx pgx.Tx, id int64, snapshots domain.BalanceSnapshots, completedAt time.Time) error

	// VoidTransactionInTx moves a Pending entry to Voided and stamps voided_at.
	VoidTransactionInTx(ctx context.Context, tx pgx.Tx, id int64, voidedAt time.Time) error

	// MarkRolledBackInTx moves a Completed entry to RolledBack and links it to
	// the compensating entry that reversed it.
	MarkRolledBackInTx(ctx context.Context, tx pgx.Tx, id int64, reversedBy int64) error
}

// LedgerRepositoryFacade combines all ledger-related repository interfaces.
type LedgerRepositoryFacade interface {
	LedgerReader
	LedgerWriter
}

// LedgerRepositoryWithTx extends LedgerRepositoryFacade with transaction
// management; the engine begins its atomic unit here.
type LedgerRepositoryWithTx interface {
	LedgerRepositoryFacade
	TransactionManager
}

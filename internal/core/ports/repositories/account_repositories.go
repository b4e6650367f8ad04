package repositories

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/corebank/ledger-service/internal/core/domain"
)

// AccountReader defines read operations for account data.
type AccountReader interface {
	// FindAccountByNumber retrieves a specific account by its account number.
	FindAccountByNumber(ctx context.Context, accountNumber string) (*domain.Account, error)

	// ListAccounts retrieves a paginated list of accounts ordered by account number.
	ListAccounts(ctx context.Context, limit int, offset int) ([]domain.Account, error)
}

// AccountWriter defines write operations for account data.
type AccountWriter interface {
	// SaveAccount persists a new account.
	SaveAccount(ctx context.Context, account domain.Account) error

	// UpdateAccount updates an existing account's name and status.
	UpdateAccount(ctx context.Context, account domain.Account) error
}

// AccountTransactionSupport defines the in-transaction operations the engine
// uses inside one atomic unit.
type AccountTransactionSupport interface {
	// FindAccountsForUpdate selects the named accounts and locks their rows
	// FOR UPDATE, in ascending account-number order so that two units
	// touching the same pair always acquire locks in the same order.
	// Returns ErrNotFound if any requested account is absent.
	FindAccountsForUpdate(ctx context.Context, tx pgx.Tx, accountNumbers []string) (map[string]domain.Account, error)

	// ApplyBalanceChangesInTx applies the given deltas to account balances
	// within the transaction. This is the only path that writes balances.
	ApplyBalanceChangesInTx(ctx context.Context, tx pgx.Tx, changes map[string]decimal.Decimal, userID string, now time.Time) error
}

// AccountRepositoryFacade combines all account-related repository interfaces.
type AccountRepositoryFacade interface {
	AccountReader
	AccountWriter
	AccountTransactionSupport
}

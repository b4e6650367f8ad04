package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType mirrors domain.TransactionType at the storage layer.
type TransactionType string

// TransactionStatus mirrors domain.TransactionStatus at the storage layer.
type TransactionStatus string

// Transaction is the DB representation of a ledger entry. Nullable columns
// use pointer types so that pgx scans NULL cleanly.
type Transaction struct {
	ID            int64             `db:"id"`
	Type          TransactionType   `db:"type"`
	Status        TransactionStatus `db:"status"`
	AccountNumber string            `db:"account_number"`
	TargetAccount *string           `db:"target_account"`
	Amount        decimal.Decimal   `db:"amount"`
	Fee           decimal.Decimal   `db:"fee"`
	Note          *string           `db:"note"`
	CreatedBy     string            `db:"created_by"`
	CreatedAt     time.Time         `db:"created_at"`
	CompletedAt   *time.Time        `db:"completed_at"`
	VoidedAt      *time.Time        `db:"voided_at"`

	SourceBalanceBefore decimal.Decimal  `db:"source_balance_before"`
	SourceBalanceAfter  decimal.Decimal  `db:"source_balance_after"`
	TargetBalanceBefore *decimal.Decimal `db:"target_balance_before"`
	TargetBalanceAfter  *decimal.Decimal `db:"target_balance_after"`

	ReversalOf *int64 `db:"reversal_of"`
	ReversedBy *int64 `db:"reversed_by"`
}

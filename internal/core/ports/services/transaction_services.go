package services

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/corebank/ledger-service/internal/core/domain"
)

// CreateTransactionInput carries everything the engine needs to record
// one ledger operation.
type CreateTransactionInput struct {
	Type          domain.TransactionType
	SourceAccount string
	TargetAccount *string
	Amount        decimal.Decimal
	Note          *string
	// Deferred leaves the entry Pending instead of settling it immediately.
	Deferred bool
}

// TransactionCreator records new ledger operations.
type TransactionCreator interface {
	CreateTransaction(ctx context.Context, principal domain.Principal, input CreateTransactionInput) (*domain.Transaction, error)
}

// TransactionTransitioner drives the entry lifecycle.
type TransactionTransitioner interface {
	CompleteTransaction(ctx context.Context, principal domain.Principal, transactionID int64) (*domain.Transaction, error)
	VoidTransaction(ctx context.Context, principal domain.Principal, transactionID int64, reason string) (*domain.Transaction, error)
	RollbackTransaction(ctx context.Context, principal domain.Principal, transactionID int64, reason string) (*domain.Transaction, error)
}

// TransactionSvcFacade combines all transaction service capabilities.
type TransactionSvcFacade interface {
	TransactionCreator
	TransactionTransitioner
}

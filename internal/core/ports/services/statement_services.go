package services

import (
	"context"

	"github.com/corebank/ledger-service/internal/core/domain"
)

// StatementReader answers statement and audit-trail queries.
type StatementReader interface {
	GetTransactionByID(ctx context.Context, principal domain.Principal, transactionID int64) (*domain.Transaction, error)
	FindTransactions(ctx context.Context, principal domain.Principal, filter domain.TransactionFilter) ([]domain.Transaction, error)
	GetAuditTrail(ctx context.Context, principal domain.Principal, transactionID int64) ([]domain.AuditEvent, error)
}

// StatementSvcFacade is the statement query surface.
type StatementSvcFacade interface {
	StatementReader
}

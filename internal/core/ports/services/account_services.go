package services

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/corebank/ledger-service/internal/core/domain"
)

// AccountCreator opens new accounts.
type AccountCreator interface {
	CreateAccount(ctx context.Context, principal domain.Principal, name string, accountNumber *string, openingBalance *decimal.Decimal) (*domain.Account, error)
}

// AccountReader retrieves account state.
type AccountReader interface {
	GetAccountByNumber(ctx context.Context, principal domain.Principal, accountNumber string) (*domain.Account, error)
	ListAccounts(ctx context.Context, principal domain.Principal, limit, offset int) ([]domain.Account, error)
}

// AccountUpdater changes account metadata and status.
type AccountUpdater interface {
	UpdateAccount(ctx context.Context, principal domain.Principal, accountNumber string, name *string, status *domain.AccountStatus) (*domain.Account, error)
}

// AccountSvcFacade combines all account service capabilities.
type AccountSvcFacade interface {
	AccountCreator
	AccountReader
	AccountUpdater
}

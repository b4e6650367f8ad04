package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/corebank/ledger-service/internal/apperrors"
	"github.com/corebank/ledger-service/internal/core/domain"
	portsrepo "github.com/corebank/ledger-service/internal/core/ports/repositories"
	portssvc "github.com/corebank/ledger-service/internal/core/ports/services"
	"github.com/corebank/ledger-service/internal/middleware"
	"github.com/corebank/ledger-service/internal/utils"
)

const (
	accountNumberDigits = 10
	// generateAttempts bounds retries when a generated number collides.
	generateAttempts = 5
)

// accountService provides account lifecycle operations.
type accountService struct {
	accountRepo portsrepo.AccountRepositoryFacade
}

// NewAccountService creates a new account service.
func NewAccountService(accountRepo portsrepo.AccountRepositoryFacade) portssvc.AccountSvcFacade {
	return &accountService{accountRepo: accountRepo}
}

var _ portssvc.AccountSvcFacade = (*accountService)(nil)

// CreateAccount opens a new account. Only admins open accounts; a caller may
// supply an explicit account number, otherwise one is generated.
func (s *accountService) CreateAccount(ctx context.Context, principal domain.Principal, name string, accountNumber *string, openingBalance *decimal.Decimal) (*domain.Account, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if !principal.Admin {
		return nil, fmt.Errorf("%w: only admins can open accounts", apperrors.ErrForbidden)
	}
	if name == "" {
		return nil, fmt.Errorf("%w: account name is required", apperrors.ErrValidation)
	}

	balance := decimal.Zero
	if openingBalance != nil {
		if openingBalance.IsNegative() {
			return nil, fmt.Errorf("%w: opening balance cannot be negative", apperrors.ErrInvalidAmount)
		}
		balance = *openingBalance
	}

	now := time.Now().UTC()
	account := domain.Account{
		Name:    name,
		Balance: balance,
		Status:  domain.AccountActive,
		AuditFields: domain.AuditFields{
			CreatedAt:     now,
			CreatedBy:     principal.Identifier(),
			LastUpdatedAt: now,
			LastUpdatedBy: principal.Identifier(),
		},
	}

	if accountNumber != nil && *accountNumber != "" {
		account.AccountNumber = *accountNumber
		if err := s.accountRepo.SaveAccount(ctx, account); err != nil {
			if errors.Is(err, apperrors.ErrDuplicate) {
				return nil, fmt.Errorf("%w: account number %s already exists", apperrors.ErrDuplicate, account.AccountNumber)
			}
			logger.Error("Failed to save account", slog.String("error", err.Error()))
			return nil, fmt.Errorf("failed to save account: %w", err)
		}
		return &account, nil
	}

	// Generated numbers can collide; retry a bounded number of times.
	var lastErr error
	for i := 0; i < generateAttempts; i++ {
		number, err := utils.GenerateAccountNumber(accountNumberDigits)
		if err != nil {
			return nil, fmt.Errorf("failed to generate account number: %w", err)
		}
		account.AccountNumber = number

		err = s.accountRepo.SaveAccount(ctx, account)
		if err == nil {
			logger.Info("Account created", slog.String("account_number", account.AccountNumber))
			return &account, nil
		}
		if !errors.Is(err, apperrors.ErrDuplicate) {
			logger.Error("Failed to save account", slog.String("error", err.Error()))
			return nil, fmt.Errorf("failed to save account: %w", err)
		}
		lastErr = err
	}
	return nil, fmt.Errorf("failed to allocate a unique account number: %w", lastErr)
}

// GetAccountByNumber retrieves an account. Non-admin callers may only read
// their own account.
func (s *accountService) GetAccountByNumber(ctx context.Context, principal domain.Principal, accountNumber string) (*domain.Account, error) {
	if !principal.CanActOn(accountNumber) {
		return nil, fmt.Errorf("%w: cannot read account %s", apperrors.ErrForbidden, accountNumber)
	}
	account, err := s.accountRepo.FindAccountByNumber(ctx, accountNumber)
	if err != nil {
		return nil, err
	}
	return account, nil
}

// ListAccounts retrieves a page of accounts. Admin only.
func (s *accountService) ListAccounts(ctx context.Context, principal domain.Principal, limit, offset int) ([]domain.Account, error) {
	if !principal.Admin {
		return nil, fmt.Errorf("%w: only admins can list accounts", apperrors.ErrForbidden)
	}
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.accountRepo.ListAccounts(ctx, limit, offset)
}

// UpdateAccount changes an account's name or status. Admin only. Archiving
// requires a zero balance; archived accounts cannot be revived.
func (s *accountService) UpdateAccount(ctx context.Context, principal domain.Principal, accountNumber string, name *string, status *domain.AccountStatus) (*domain.Account, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if !principal.Admin {
		return nil, fmt.Errorf("%w: only admins can update accounts", apperrors.ErrForbidden)
	}

	account, err := s.accountRepo.FindAccountByNumber(ctx, accountNumber)
	if err != nil {
		return nil, err
	}

	if name != nil {
		if *name == "" {
			return nil, fmt.Errorf("%w: account name cannot be empty", apperrors.ErrValidation)
		}
		account.Name = *name
	}

	if status != nil {
		if !status.IsValid() {
			return nil, fmt.Errorf("%w: unknown account status %q", apperrors.ErrValidation, *status)
		}
		if account.Status == domain.AccountArchived && *status != domain.AccountArchived {
			return nil, fmt.Errorf("%w: archived accounts cannot be reactivated", apperrors.ErrInvalidState)
		}
		if *status == domain.AccountArchived && !account.Balance.IsZero() {
			return nil, fmt.Errorf("%w: cannot archive account %s with balance %s", apperrors.ErrInvalidState, accountNumber, account.Balance)
		}
		account.Status = *status
	}

	now := time.Now().UTC()
	account.LastUpdatedAt = now
	account.LastUpdatedBy = principal.Identifier()

	if err := s.accountRepo.UpdateAccount(ctx, *account); err != nil {
		logger.Error("Failed to update account", slog.String("account_number", accountNumber), slog.String("error", err.Error()))
		return nil, err
	}

	logger.Info("Account updated", slog.String("account_number", accountNumber), slog.String("status", string(account.Status)))
	return account, nil
}

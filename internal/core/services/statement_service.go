package services

import (
	"context"
	"fmt"

	"github.com/corebank/ledger-service/internal/apperrors"
	"github.com/corebank/ledger-service/internal/core/domain"
	portsrepo "github.com/corebank/ledger-service/internal/core/ports/repositories"
	portssvc "github.com/corebank/ledger-service/internal/core/ports/services"
)

// statementService answers read-only statement and audit-trail queries.
type statementService struct {
	ledgerRepo portsrepo.LedgerRepositoryFacade
	auditRepo  portsrepo.AuditRecorder
}

// NewStatementService creates a new statement service. auditRepo may be nil;
// audit-trail queries then return empty results.
func NewStatementService(ledgerRepo portsrepo.LedgerRepositoryFacade, auditRepo portsrepo.AuditRecorder) portssvc.StatementSvcFacade {
	return &statementService{ledgerRepo: ledgerRepo, auditRepo: auditRepo}
}

var _ portssvc.StatementSvcFacade = (*statementService)(nil)

// GetTransactionByID retrieves one ledger entry. Non-admin callers may only
// read entries that touch their own account.
func (s *statementService) GetTransactionByID(ctx context.Context, principal domain.Principal, transactionID int64) (*domain.Transaction, error) {
	entry, err := s.ledgerRepo.FindTransactionByID(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if !s.canRead(principal, entry) {
		return nil, fmt.Errorf("%w: cannot read entry %d", apperrors.ErrForbidden, transactionID)
	}
	return entry, nil
}

// FindTransactions answers a statement query. Non-admin callers are pinned
// to their own account regardless of the requested filter.
func (s *statementService) FindTransactions(ctx context.Context, principal domain.Principal, filter domain.TransactionFilter) ([]domain.Transaction, error) {
	if !principal.Admin {
		if filter.Account != "" && filter.Account != principal.AccountNumber {
			return nil, fmt.Errorf("%w: cannot query account %s", apperrors.ErrForbidden, filter.Account)
		}
		filter.Account = principal.AccountNumber
	}

	if filter.Type != "" && !filter.Type.IsMoneyMoving() && filter.Type != domain.Fee {
		return nil, fmt.Errorf("%w: unknown transaction type %q", apperrors.ErrValidation, filter.Type)
	}
	if filter.From != nil && filter.To != nil && filter.To.Before(*filter.From) {
		return nil, fmt.Errorf("%w: time range end precedes start", apperrors.ErrValidation)
	}

	return s.ledgerRepo.FindTransactions(ctx, filter)
}

// GetAuditTrail lists the recorded actions for a ledger entry, oldest first.
func (s *statementService) GetAuditTrail(ctx context.Context, principal domain.Principal, transactionID int64) ([]domain.AuditEvent, error) {
	entry, err := s.ledgerRepo.FindTransactionByID(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if !s.canRead(principal, entry) {
		return nil, fmt.Errorf("%w: cannot read entry %d", apperrors.ErrForbidden, transactionID)
	}
	if s.auditRepo == nil {
		return []domain.AuditEvent{}, nil
	}
	return s.auditRepo.FindActionsByTransactionID(ctx, transactionID)
}

func (s *statementService) canRead(principal domain.Principal, entry *domain.Transaction) bool {
	if principal.Admin {
		return true
	}
	if entry.AccountNumber == principal.AccountNumber {
		return true
	}
	return entry.TargetAccount != nil && *entry.TargetAccount == principal.AccountNumber
}

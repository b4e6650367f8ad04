package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/shopspring/decimal"

	"github.com/corebank/ledger-service/internal/apperrors"
	"github.com/corebank/ledger-service/internal/core/domain"
	portsrepo "github.com/corebank/ledger-service/internal/core/ports/repositories"
	portssvc "github.com/corebank/ledger-service/internal/core/ports/services"
	"github.com/corebank/ledger-service/internal/middleware"
)

var (
	transactionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_transactions_total",
		Help: "Ledger operations processed, labeled by type and outcome",
	}, []string{"type", "outcome"})

	transactionsRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_transactions_rejected_total",
		Help: "Ledger operations rejected before any balance effect, labeled by reason",
	}, []string{"reason"})
)

// transactionService is the ledger engine: it validates operation requests,
// applies their balance effects inside one atomic unit, and drives the entry
// lifecycle.
type transactionService struct {
	ledgerRepo  portsrepo.LedgerRepositoryWithTx
	accountRepo portsrepo.AccountRepositoryFacade
	auditRepo   portsrepo.AuditRecorder
}

// NewTransactionService creates a new transaction service. auditRepo may be
// nil; the action log is a side-channel, not a dependency of correctness.
func NewTransactionService(ledgerRepo portsrepo.LedgerRepositoryWithTx, accountRepo portsrepo.AccountRepositoryFacade, auditRepo portsrepo.AuditRecorder) portssvc.TransactionSvcFacade {
	return &transactionService{
		ledgerRepo:  ledgerRepo,
		accountRepo: accountRepo,
		auditRepo:   auditRepo,
	}
}

var _ portssvc.TransactionSvcFacade = (*transactionService)(nil)

// runInTx brackets fn in one database transaction. fn's error aborts the
// unit; nothing it did survives.
func (s *transactionService) runInTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := s.ledgerRepo.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := s.ledgerRepo.Rollback(ctx, tx); rbErr != nil {
			middleware.GetLoggerFromCtx(ctx).Error("Failed to rollback transaction", slog.String("error", rbErr.Error()))
		}
		return err
	}

	if err := s.ledgerRepo.Commit(ctx, tx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// recordAudit appends one action-log row if a recorder is configured.
func (s *transactionService) recordAudit(ctx context.Context, tx pgx.Tx, transactionID int64, action domain.AuditAction, performedBy string, details string, now time.Time) error {
	if s.auditRepo == nil {
		return nil
	}
	return s.auditRepo.RecordActionInTx(ctx, tx, domain.AuditEvent{
		EventID:       uuid.NewString(),
		TransactionID: transactionID,
		Action:        action,
		PerformedBy:   performedBy,
		Details:       details,
		CreatedAt:     now,
	})
}

// validateCreateInput runs the request-shape checks that need no database
// state. First failure wins; callers rely on the order: type, amount,
// participants, authorization.
func (s *transactionService) validateCreateInput(principal domain.Principal, input portssvc.CreateTransactionInput) error {
	if !input.Type.IsMoneyMoving() {
		return fmt.Errorf("%w: %q", apperrors.ErrInvalidType, input.Type)
	}

	if input.Amount.LessThanOrEqual(decimal.Zero) {
		return fmt.Errorf("%w: amount must be positive, got %s", apperrors.ErrInvalidAmount, input.Amount)
	}

	if input.SourceAccount == "" {
		return fmt.Errorf("%w: source account is required", apperrors.ErrMissingAccount)
	}
	if input.Type == domain.Transfer {
		if input.TargetAccount == nil || *input.TargetAccount == "" {
			return fmt.Errorf("%w: transfer requires a target account", apperrors.ErrMissingAccount)
		}
		if *input.TargetAccount == input.SourceAccount {
			return fmt.Errorf("%w: transfer target must differ from source", apperrors.ErrValidation)
		}
	} else if input.TargetAccount != nil {
		return fmt.Errorf("%w: %s does not take a target account", apperrors.ErrInvalidType, input.Type)
	}

	if !principal.CanActOn(input.SourceAccount) {
		return fmt.Errorf("%w: cannot operate on account %s", apperrors.ErrForbidden, input.SourceAccount)
	}

	return nil
}

// lockParticipants locks every account the operation touches. A participant
// that does not exist is unavailable, the same as one that is not Active;
// NotFound is reserved for unknown ledger ids.
func (s *transactionService) lockParticipants(ctx context.Context, tx pgx.Tx, numbers []string) (map[string]domain.Account, error) {
	accounts, err := s.accountRepo.FindAccountsForUpdate(ctx, tx, numbers)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: %v", apperrors.ErrAccountUnavailable, err)
		}
		return nil, err
	}
	return accounts, nil
}

// balanceChanges returns the per-account deltas the operation applies when it
// settles.
func balanceChanges(txnType domain.TransactionType, source string, target *string, amount decimal.Decimal) map[string]decimal.Decimal {
	changes := make(map[string]decimal.Decimal, 2)
	switch txnType {
	case domain.Deposit:
		changes[source] = amount
	case domain.Withdraw:
		changes[source] = amount.Neg()
	case domain.Transfer:
		changes[source] = amount.Neg()
		changes[*target] = amount
	}
	return changes
}

// participantNumbers lists the accounts the operation touches.
func participantNumbers(source string, target *string) []string {
	if target != nil {
		return []string{source, *target}
	}
	return []string{source}
}

// checkEligibility verifies that every locked participant is Active and that
// no delta would drive a balance negative. Accounts come from the
// FOR UPDATE read, so the answer holds until commit.
func checkEligibility(accounts map[string]domain.Account, changes map[string]decimal.Decimal) error {
	for number, acc := range accounts {
		if acc.Status != domain.AccountActive {
			return fmt.Errorf("%w: account %s is %s", apperrors.ErrAccountUnavailable, number, acc.Status)
		}
	}
	for number, delta := range changes {
		if delta.IsNegative() && accounts[number].Balance.Add(delta).IsNegative() {
			return fmt.Errorf("%w: account %s balance %s cannot cover %s", apperrors.ErrInsufficientFunds, number, accounts[number].Balance, delta.Abs())
		}
	}
	return nil
}

// snapshotsFor captures before/after balances for the entry given the locked
// account states and the deltas. For entries with no balance effect the
// deltas map is empty and before equals after.
func snapshotsFor(source string, target *string, accounts map[string]domain.Account, changes map[string]decimal.Decimal) domain.BalanceSnapshots {
	snap := domain.BalanceSnapshots{
		SourceBefore: accounts[source].Balance,
		SourceAfter:  accounts[source].Balance.Add(changes[source]),
	}
	if target != nil {
		before := accounts[*target].Balance
		after := before.Add(changes[*target])
		snap.TargetBefore = &before
		snap.TargetAfter = &after
	}
	return snap
}

// CreateTransaction records one ledger operation. Immediate operations
// settle inside the same atomic unit that created them; deferred operations
// are recorded Pending with no balance effect until completed.
func (s *transactionService) CreateTransaction(ctx context.Context, principal domain.Principal, input portssvc.CreateTransactionInput) (*domain.Transaction, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	if err := s.validateCreateInput(principal, input); err != nil {
		transactionsRejected.WithLabelValues(rejectionReason(err)).Inc()
		return nil, err
	}

	now := time.Now().UTC()
	var created *domain.Transaction

	err := s.runInTx(ctx, func(tx pgx.Tx) error {
		accounts, err := s.lockParticipants(ctx, tx, participantNumbers(input.SourceAccount, input.TargetAccount))
		if err != nil {
			return err
		}

		changes := balanceChanges(input.Type, input.SourceAccount, input.TargetAccount, input.Amount)
		if err := checkEligibility(accounts, changes); err != nil {
			return err
		}

		entry := domain.Transaction{
			Type:          input.Type,
			AccountNumber: input.SourceAccount,
			TargetAccount: input.TargetAccount,
			Amount:        input.Amount,
			Fee:           decimal.Zero,
			Note:          input.Note,
			CreatedBy:     principal.Identifier(),
			CreatedAt:     now,
		}

		if input.Deferred {
			// Pending entries record current balances as both snapshots;
			// the real values are captured at settlement.
			entry.Status = domain.StatusPending
			snap := snapshotsFor(input.SourceAccount, input.TargetAccount, accounts, nil)
			applySnapshots(&entry, snap)
		} else {
			entry.Status = domain.StatusCompleted
			entry.CompletedAt = &now
			snap := snapshotsFor(input.SourceAccount, input.TargetAccount, accounts, changes)
			applySnapshots(&entry, snap)

			if err := s.accountRepo.ApplyBalanceChangesInTx(ctx, tx, changes, principal.Identifier(), now); err != nil {
				return fmt.Errorf("failed to apply balance changes: %w", err)
			}
		}

		created, err = s.ledgerRepo.InsertTransactionInTx(ctx, tx, entry)
		if err != nil {
			return fmt.Errorf("failed to insert ledger entry: %w", err)
		}

		if err := s.recordAudit(ctx, tx, created.ID, domain.AuditCreate, principal.Identifier(), "", now); err != nil {
			return fmt.Errorf("failed to record audit event: %w", err)
		}
		if !input.Deferred {
			if err := s.recordAudit(ctx, tx, created.ID, domain.AuditComplete, principal.Identifier(), "settled on create", now); err != nil {
				return fmt.Errorf("failed to record audit event: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		transactionsTotal.WithLabelValues(string(input.Type), "failed").Inc()
		return nil, err
	}

	transactionsTotal.WithLabelValues(string(input.Type), string(created.Status)).Inc()
	logger.Info("Transaction created",
		slog.Int64("transaction_id", created.ID),
		slog.String("type", string(created.Type)),
		slog.String("status", string(created.Status)),
	)
	return created, nil
}

// CompleteTransaction settles a Pending entry. Eligibility is re-checked
// under fresh locks: balances may have moved since the entry was created.
func (s *transactionService) CompleteTransaction(ctx context.Context, principal domain.Principal, transactionID int64) (*domain.Transaction, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	var settled *domain.Transaction
	err := s.runInTx(ctx, func(tx pgx.Tx) error {
		entry, err := s.ledgerRepo.FindTransactionByIDForUpdate(ctx, tx, transactionID)
		if err != nil {
			return err
		}
		if err := s.authorizeTransition(principal, entry); err != nil {
			return err
		}
		if !entry.Status.CanTransitionTo(domain.StatusCompleted) {
			return fmt.Errorf("%w: cannot complete a %s entry", apperrors.ErrInvalidState, entry.Status)
		}

		accounts, err := s.lockParticipants(ctx, tx, participantNumbers(entry.AccountNumber, entry.TargetAccount))
		if err != nil {
			return err
		}

		changes := balanceChanges(entry.Type, entry.AccountNumber, entry.TargetAccount, entry.Amount)
		if err := checkEligibility(accounts, changes); err != nil {
			return err
		}

		now := time.Now().UTC()
		snap := snapshotsFor(entry.AccountNumber, entry.TargetAccount, accounts, changes)

		if err := s.accountRepo.ApplyBalanceChangesInTx(ctx, tx, changes, principal.Identifier(), now); err != nil {
			return fmt.Errorf("failed to apply balance changes: %w", err)
		}
		if err := s.ledgerRepo.SettleTransactionInTx(ctx, tx, entry.ID, snap, now); err != nil {
			return fmt.Errorf("failed to settle ledger entry: %w", err)
		}
		if err := s.recordAudit(ctx, tx, entry.ID, domain.AuditComplete, principal.Identifier(), "", now); err != nil {
			return fmt.Errorf("failed to record audit event: %w", err)
		}

		entry.Status = domain.StatusCompleted
		entry.CompletedAt = &now
		applySnapshots(entry, snap)
		settled = entry
		return nil
	})
	if err != nil {
		transactionsTotal.WithLabelValues("complete", "failed").Inc()
		return nil, err
	}

	transactionsTotal.WithLabelValues(string(settled.Type), string(settled.Status)).Inc()
	logger.Info("Transaction completed", slog.Int64("transaction_id", settled.ID))
	return settled, nil
}

// VoidTransaction cancels a Pending entry. Voiding touches no balances.
func (s *transactionService) VoidTransaction(ctx context.Context, principal domain.Principal, transactionID int64, reason string) (*domain.Transaction, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	var voided *domain.Transaction
	err := s.runInTx(ctx, func(tx pgx.Tx) error {
		entry, err := s.ledgerRepo.FindTransactionByIDForUpdate(ctx, tx, transactionID)
		if err != nil {
			return err
		}
		if err := s.authorizeTransition(principal, entry); err != nil {
			return err
		}
		if !entry.Status.CanTransitionTo(domain.StatusVoided) {
			return fmt.Errorf("%w: cannot void a %s entry", apperrors.ErrInvalidState, entry.Status)
		}

		now := time.Now().UTC()
		if err := s.ledgerRepo.VoidTransactionInTx(ctx, tx, entry.ID, now); err != nil {
			return fmt.Errorf("failed to void ledger entry: %w", err)
		}
		if err := s.recordAudit(ctx, tx, entry.ID, domain.AuditVoid, principal.Identifier(), reason, now); err != nil {
			return fmt.Errorf("failed to record audit event: %w", err)
		}

		entry.Status = domain.StatusVoided
		entry.VoidedAt = &now
		voided = entry
		return nil
	})
	if err != nil {
		return nil, err
	}

	transactionsTotal.WithLabelValues(string(voided.Type), string(voided.Status)).Inc()
	logger.Info("Transaction voided", slog.Int64("transaction_id", voided.ID))
	return voided, nil
}

// RollbackTransaction undoes an entry. A Pending entry is simply voided. A
// Completed entry is reversed by a compensating entry with the opposite
// balance effect, applied under the same no-overdraft rule as any other
// operation; the original is marked RolledBack and linked to its reversal.
func (s *transactionService) RollbackTransaction(ctx context.Context, principal domain.Principal, transactionID int64, reason string) (*domain.Transaction, error) {
	logger := middleware.GetLoggerFromCtx(ctx)

	var result *domain.Transaction
	err := s.runInTx(ctx, func(tx pgx.Tx) error {
		entry, err := s.ledgerRepo.FindTransactionByIDForUpdate(ctx, tx, transactionID)
		if err != nil {
			return err
		}
		if err := s.authorizeTransition(principal, entry); err != nil {
			return err
		}

		now := time.Now().UTC()

		// A Pending entry never applied an effect; rolling it back is a void.
		if entry.Status == domain.StatusPending {
			if err := s.ledgerRepo.VoidTransactionInTx(ctx, tx, entry.ID, now); err != nil {
				return fmt.Errorf("failed to void ledger entry: %w", err)
			}
			if err := s.recordAudit(ctx, tx, entry.ID, domain.AuditRollback, principal.Identifier(), reason, now); err != nil {
				return fmt.Errorf("failed to record audit event: %w", err)
			}
			entry.Status = domain.StatusVoided
			entry.VoidedAt = &now
			result = entry
			return nil
		}

		if !entry.Status.CanTransitionTo(domain.StatusRolledBack) {
			return fmt.Errorf("%w: cannot roll back a %s entry", apperrors.ErrInvalidState, entry.Status)
		}
		if entry.ReversalOf != nil {
			return fmt.Errorf("%w: compensating entries cannot be rolled back", apperrors.ErrInvalidState)
		}

		reversal := reversalOf(entry, principal.Identifier(), now)

		accounts, err := s.lockParticipants(ctx, tx, participantNumbers(reversal.AccountNumber, reversal.TargetAccount))
		if err != nil {
			return err
		}

		changes := balanceChanges(reversal.Type, reversal.AccountNumber, reversal.TargetAccount, reversal.Amount)
		if err := checkEligibility(accounts, changes); err != nil {
			return err
		}

		snap := snapshotsFor(reversal.AccountNumber, reversal.TargetAccount, accounts, changes)
		applySnapshots(&reversal, snap)

		if err := s.accountRepo.ApplyBalanceChangesInTx(ctx, tx, changes, principal.Identifier(), now); err != nil {
			return fmt.Errorf("failed to apply balance changes: %w", err)
		}

		created, err := s.ledgerRepo.InsertTransactionInTx(ctx, tx, reversal)
		if err != nil {
			return fmt.Errorf("failed to insert compensating entry: %w", err)
		}
		if err := s.ledgerRepo.MarkRolledBackInTx(ctx, tx, entry.ID, created.ID); err != nil {
			return fmt.Errorf("failed to mark entry rolled back: %w", err)
		}
		if err := s.recordAudit(ctx, tx, entry.ID, domain.AuditRollback, principal.Identifier(), fmt.Sprintf("reversed by entry %d: %s", created.ID, reason), now); err != nil {
			return fmt.Errorf("failed to record audit event: %w", err)
		}
		if err := s.recordAudit(ctx, tx, created.ID, domain.AuditCreate, principal.Identifier(), fmt.Sprintf("compensating entry for %d", entry.ID), now); err != nil {
			return fmt.Errorf("failed to record audit event: %w", err)
		}

		result = created
		return nil
	})
	if err != nil {
		transactionsTotal.WithLabelValues("rollback", "failed").Inc()
		return nil, err
	}

	transactionsTotal.WithLabelValues("rollback", string(result.Status)).Inc()
	logger.Info("Transaction rolled back", slog.Int64("transaction_id", transactionID), slog.Int64("result_id", result.ID))
	return result, nil
}

// authorizeTransition allows the entry's creator, the source account holder,
// or an admin to drive the lifecycle.
func (s *transactionService) authorizeTransition(principal domain.Principal, entry *domain.Transaction) error {
	if principal.Admin || principal.AccountNumber == entry.CreatedBy || principal.CanActOn(entry.AccountNumber) {
		return nil
	}
	return fmt.Errorf("%w: cannot transition entry %d", apperrors.ErrForbidden, entry.ID)
}

// reversalOf builds the compensating entry for a Completed original:
// a deposit is undone by a withdrawal, a withdrawal by a deposit, and a
// transfer by a transfer from target back to source.
func reversalOf(entry *domain.Transaction, createdBy string, now time.Time) domain.Transaction {
	note := fmt.Sprintf("Reversal of transaction %d", entry.ID)
	reversal := domain.Transaction{
		Status:      domain.StatusCompleted,
		Amount:      entry.Amount,
		Fee:         decimal.Zero,
		Note:        &note,
		CreatedBy:   createdBy,
		CreatedAt:   now,
		CompletedAt: &now,
		ReversalOf:  &entry.ID,
	}

	switch entry.Type {
	case domain.Deposit:
		reversal.Type = domain.Withdraw
		reversal.AccountNumber = entry.AccountNumber
	case domain.Withdraw:
		reversal.Type = domain.Deposit
		reversal.AccountNumber = entry.AccountNumber
	case domain.Transfer:
		reversal.Type = domain.Transfer
		reversal.AccountNumber = *entry.TargetAccount
		source := entry.AccountNumber
		reversal.TargetAccount = &source
	}
	return reversal
}

// applySnapshots copies snapshot values onto the entry.
func applySnapshots(entry *domain.Transaction, snap domain.BalanceSnapshots) {
	entry.SourceBalanceBefore = snap.SourceBefore
	entry.SourceBalanceAfter = snap.SourceAfter
	entry.TargetBalanceBefore = snap.TargetBefore
	entry.TargetBalanceAfter = snap.TargetAfter
}

// rejectionReason maps a validation error to its metric label.
func rejectionReason(err error) string {
	switch {
	case errors.Is(err, apperrors.ErrInvalidType):
		return "invalid_type"
	case errors.Is(err, apperrors.ErrInvalidAmount):
		return "invalid_amount"
	case errors.Is(err, apperrors.ErrMissingAccount):
		return "missing_account"
	case errors.Is(err, apperrors.ErrValidation):
		return "validation"
	case errors.Is(err, apperrors.ErrForbidden):
		return "forbidden"
	}
	return "other"
}

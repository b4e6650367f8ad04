package services_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/corebank/ledger-service/internal/apperrors"
	"github.com/corebank/ledger-service/internal/core/domain"
	portsrepo "github.com/corebank/ledger-service/internal/core/ports/repositories"
	portssvc "github.com/corebank/ledger-service/internal/core/ports/services"
	"github.com/corebank/ledger-service/internal/core/services"
)

// --- Mock LedgerRepository ---

type MockLedgerRepository struct {
	mock.Mock
}

var _ portsrepo.LedgerRepositoryWithTx = (*MockLedgerRepository)(nil)

func (m *MockLedgerRepository) Begin(ctx context.Context) (pgx.Tx, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(pgx.Tx), args.Error(1)
}

func (m *MockLedgerRepository) Commit(ctx context.Context, tx pgx.Tx) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *MockLedgerRepository) Rollback(ctx context.Context, tx pgx.Tx) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *MockLedgerRepository) FindTransactionByID(ctx context.Context, id int64) (*domain.Transaction, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

func (m *MockLedgerRepository) FindTransactionByIDForUpdate(ctx context.Context, tx pgx.Tx, id int64) (*domain.Transaction, error) {
	args := m.Called(ctx, tx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

func (m *MockLedgerRepository) FindTransactions(ctx context.Context, filter domain.TransactionFilter) ([]domain.Transaction, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Transaction), args.Error(1)
}

func (m *MockLedgerRepository) InsertTransactionInTx(ctx context.Context, tx pgx.Tx, txn domain.Transaction) (*domain.Transaction, error) {
	args := m.Called(ctx, tx, txn)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Transaction), args.Error(1)
}

func (m *MockLedgerRepository) SettleTransactionInTx(ctx context.Context, tx pgx.Tx, id int64, snapshots domain.BalanceSnapshots, completedAt time.Time) error {
	args := m.Called(ctx, tx, id, snapshots, completedAt)
	return args.Error(0)
}

func (m *MockLedgerRepository) VoidTransactionInTx(ctx context.Context, tx pgx.Tx, id int64, voidedAt time.Time) error {
	args := m.Called(ctx, tx, id, voidedAt)
	return args.Error(0)
}

func (m *MockLedgerRepository) MarkRolledBackInTx(ctx context.Context, tx pgx.Tx, id int64, reversedBy int64) error {
	args := m.Called(ctx, tx, id, reversedBy)
	return args.Error(0)
}

// --- Mock AccountRepository ---

type MockAccountRepository struct {
	mock.Mock
}

var _ portsrepo.AccountRepositoryFacade = (*MockAccountRepository)(nil)

func (m *MockAccountRepository) FindAccountByNumber(ctx context.Context, accountNumber string) (*domain.Account, error) {
	args := m.Called(ctx, accountNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Account), args.Error(1)
}

func (m *MockAccountRepository) ListAccounts(ctx context.Context, limit int, offset int) ([]domain.Account, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Account), args.Error(1)
}

func (m *MockAccountRepository) SaveAccount(ctx context.Context, account domain.Account) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

func (m *MockAccountRepository) UpdateAccount(ctx context.Context, account domain.Account) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

func (m *MockAccountRepository) FindAccountsForUpdate(ctx context.Context, tx pgx.Tx, accountNumbers []string) (map[string]domain.Account, error) {
	args := m.Called(ctx, tx, accountNumbers)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]domain.Account), args.Error(1)
}

func (m *MockAccountRepository) ApplyBalanceChangesInTx(ctx context.Context, tx pgx.Tx, changes map[string]decimal.Decimal, userID string, now time.Time) error {
	args := m.Called(ctx, tx, changes, userID, now)
	return args.Error(0)
}

// --- Mock AuditRecorder ---

type MockAuditRecorder struct {
	mock.Mock
}

var _ portsrepo.AuditRecorder = (*MockAuditRecorder)(nil)

func (m *MockAuditRecorder) RecordActionInTx(ctx context.Context, tx pgx.Tx, event domain.AuditEvent) error {
	args := m.Called(ctx, tx, event)
	return args.Error(0)
}

func (m *MockAuditRecorder) FindActionsByTransactionID(ctx context.Context, transactionID int64) ([]domain.AuditEvent, error) {
	args := m.Called(ctx, transactionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.AuditEvent), args.Error(1)
}

// --- Test Suite ---

type TransactionServiceTestSuite struct {
	suite.Suite
	mockLedgerRepo  *MockLedgerRepository
	mockAccountRepo *MockAccountRepository
	mockAuditRepo   *MockAuditRecorder
	service         portssvc.TransactionSvcFacade

	admin  domain.Principal
	holder domain.Principal

	sourceNumber string
	targetNumber string
}

func (s *TransactionServiceTestSuite) SetupTest() {
	s.mockLedgerRepo = new(MockLedgerRepository)
	s.mockAccountRepo = new(MockAccountRepository)
	s.mockAuditRepo = new(MockAuditRecorder)
	s.service = services.NewTransactionService(s.mockLedgerRepo, s.mockAccountRepo, s.mockAuditRepo)

	s.sourceNumber = "1000000001"
	s.targetNumber = "1000000002"
	s.admin = domain.Principal{AccountNumber: "0000", Admin: true}
	s.holder = domain.Principal{AccountNumber: s.sourceNumber}
}

func (s *TransactionServiceTestSuite) account(number string, balance int64, status domain.AccountStatus) domain.Account {
	return domain.Account{
		AccountNumber: number,
		Name:          "account " + number,
		Balance:       decimal.NewFromInt(balance),
		Status:        status,
	}
}

func (s *TransactionServiceTestSuite) expectAtomicUnit() {
	s.mockLedgerRepo.On("Begin", mock.Anything).Return(nil, nil).Once()
	s.mockLedgerRepo.On("Commit", mock.Anything, mock.Anything).Return(nil).Once()
}

func (s *TransactionServiceTestSuite) expectAbortedUnit() {
	s.mockLedgerRepo.On("Begin", mock.Anything).Return(nil, nil).Once()
	s.mockLedgerRepo.On("Rollback", mock.Anything, mock.Anything).Return(nil).Once()
}

func (s *TransactionServiceTestSuite) TestCreateDeposit_SettlesWithSnapshots() {
	ctx := context.Background()
	s.expectAtomicUnit()

	accounts := map[string]domain.Account{
		s.sourceNumber: s.account(s.sourceNumber, 100, domain.AccountActive),
	}
	s.mockAccountRepo.On("FindAccountsForUpdate", mock.Anything, mock.Anything, []string{s.sourceNumber}).Return(accounts, nil).Once()

	var appliedChanges map[string]decimal.Decimal
	s.mockAccountRepo.On("ApplyBalanceChangesInTx", mock.Anything, mock.Anything, mock.AnythingOfType("map[string]decimal.Decimal"), s.holder.AccountNumber, mock.AnythingOfType("time.Time")).
		Run(func(args mock.Arguments) {
			appliedChanges = args.Get(2).(map[string]decimal.Decimal)
		}).Return(nil).Once()

	var inserted domain.Transaction
	s.mockLedgerRepo.On("InsertTransactionInTx", mock.Anything, mock.Anything, mock.AnythingOfType("domain.Transaction")).
		Run(func(args mock.Arguments) {
			inserted = args.Get(2).(domain.Transaction)
		}).
		Return(&domain.Transaction{ID: 1, Status: domain.StatusCompleted, Type: domain.Deposit}, nil).Once()

	s.mockAuditRepo.On("RecordActionInTx", mock.Anything, mock.Anything, mock.AnythingOfType("domain.AuditEvent")).Return(nil).Twice()

	created, err := s.service.CreateTransaction(ctx, s.holder, portssvc.CreateTransactionInput{
		Type:          domain.Deposit,
		SourceAccount: s.sourceNumber,
		Amount:        decimal.NewFromInt(40),
	})

	s.Require().NoError(err)
	s.Require().NotNil(created)
	s.Equal(domain.StatusCompleted, created.Status)

	s.True(appliedChanges[s.sourceNumber].Equal(decimal.NewFromInt(40)))
	s.Equal(domain.StatusCompleted, inserted.Status)
	s.True(inserted.SourceBalanceBefore.Equal(decimal.NewFromInt(100)))
	s.True(inserted.SourceBalanceAfter.Equal(decimal.NewFromInt(140)))
	s.NotNil(inserted.CompletedAt)

	s.mockLedgerRepo.AssertExpectations(s.T())
	s.mockAccountRepo.AssertExpectations(s.T())
	s.mockAuditRepo.AssertExpectations(s.T())
}

func (s *TransactionServiceTestSuite) TestCreateWithdraw_InsufficientFundsAborts() {
	ctx := context.Background()
	s.expectAbortedUnit()

	accounts := map[string]domain.Account{
		s.sourceNumber: s.account(s.sourceNumber, 30, domain.AccountActive),
	}
	s.mockAccountRepo.On("FindAccountsForUpdate", mock.Anything, mock.Anything, []string{s.sourceNumber}).Return(accounts, nil).Once()

	created, err := s.service.CreateTransaction(ctx, s.holder, portssvc.CreateTransactionInput{
		Type:          domain.Withdraw,
		SourceAccount: s.sourceNumber,
		Amount:        decimal.NewFromInt(50),
	})

	s.Require().Error(err)
	s.ErrorIs(err, apperrors.ErrInsufficientFunds)
	s.Nil(created)

	// No side of the unit may survive: no balance write, no ledger insert.
	s.mockAccountRepo.AssertNotCalled(s.T(), "ApplyBalanceChangesInTx", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	s.mockLedgerRepo.AssertNotCalled(s.T(), "InsertTransactionInTx", mock.Anything, mock.Anything, mock.Anything)
	s.mockLedgerRepo.AssertExpectations(s.T())
}

func (s *TransactionServiceTestSuite) TestCreateTransfer_ConservesTotal() {
	ctx := context.Background()
	s.expectAtomicUnit()

	accounts := map[string]domain.Account{
		s.sourceNumber: s.account(s.sourceNumber, 100, domain.AccountActive),
		s.targetNumber: s.account(s.targetNumber, 10, domain.AccountActive),
	}
	s.mockAccountRepo.On("FindAccountsForUpdate", mock.Anything, mock.Anything, []string{s.sourceNumber, s.targetNumber}).Return(accounts, nil).Once()

	var appliedChanges map[string]decimal.Decimal
	s.mockAccountRepo.On("ApplyBalanceChangesInTx", mock.Anything, mock.Anything, mock.AnythingOfType("map[string]decimal.Decimal"), s.holder.AccountNumber, mock.AnythingOfType("time.Time")).
		Run(func(args mock.Arguments) {
			appliedChanges = args.Get(2).(map[string]decimal.Decimal)
		}).Return(nil).Once()

	var inserted domain.Transaction
	s.mockLedgerRepo.On("InsertTransactionInTx", mock.Anything, mock.Anything, mock.AnythingOfType("domain.Transaction")).
		Run(func(args mock.Arguments) {
			inserted = args.Get(2).(domain.Transaction)
		}).
		Return(&domain.Transaction{ID: 7, Status: domain.StatusCompleted, Type: domain.Transfer}, nil).Once()

	s.mockAuditRepo.On("RecordActionInTx", mock.Anything, mock.Anything, mock.AnythingOfType("domain.AuditEvent")).Return(nil).Twice()

	target := s.targetNumber
	_, err := s.service.CreateTransaction(ctx, s.holder, portssvc.CreateTransactionInput{
		Type:          domain.Transfer,
		SourceAccount: s.sourceNumber,
		TargetAccount: &target,
		Amount:        decimal.NewFromInt(25),
	})

	s.Require().NoError(err)

	// The two deltas must sum to zero.
	s.True(appliedChanges[s.sourceNumber].Add(appliedChanges[s.targetNumber]).IsZero())
	s.True(appliedChanges[s.sourceNumber].Equal(decimal.NewFromInt(-25)))

	s.True(inserted.SourceBalanceBefore.Equal(decimal.NewFromInt(100)))
	s.True(inserted.SourceBalanceAfter.Equal(decimal.NewFromInt(75)))
	s.Require().NotNil(inserted.TargetBalanceBefore)
	s.Require().NotNil(inserted.TargetBalanceAfter)
	s.True(inserted.TargetBalanceBefore.Equal(decimal.NewFromInt(10)))
	s.True(inserted.TargetBalanceAfter.Equal(decimal.NewFromInt(35)))
}

func (s *TransactionServiceTestSuite) TestCreateDeferred_RecordsPendingWithoutBalanceEffect() {
	ctx := context.Background()
	s.expectAtomicUnit()

	accounts := map[string]domain.Account{
		s.sourceNumber: s.account(s.sourceNumber, 100, domain.AccountActive),
	}
	s.mockAccountRepo.On("FindAccountsForUpdate", mock.Anything, mock.Anything, []string{s.sourceNumber}).Return(accounts, nil).Once()

	var inserted domain.Transaction
	s.mockLedgerRepo.On("InsertTransactionInTx", mock.Anything, mock.Anything, mock.AnythingOfType("domain.Transaction")).
		Run(func(args mock.Arguments) {
			inserted = args.Get(2).(domain.Transaction)
		}).
		Return(&domain.Transaction{ID: 2, Status: domain.StatusPending, Type: domain.Withdraw}, nil).Once()

	s.mockAuditRepo.On("RecordActionInTx", mock.Anything, mock.Anything, mock.AnythingOfType("domain.AuditEvent")).Return(nil).Once()

	created, err := s.service.CreateTransaction(ctx, s.holder, portssvc.CreateTransactionInput{
		Type:          domain.Withdraw,
		SourceAccount: s.sourceNumber,
		Amount:        decimal.NewFromInt(50),
		Deferred:      true,
	})

	s.Require().NoError(err)
	s.Equal(domain.StatusPending, created.Status)

	// Pending entries capture current balances as both snapshots.
	s.Equal(domain.StatusPending, inserted.Status)
	s.True(inserted.SourceBalanceBefore.Equal(decimal.NewFromInt(100)))
	s.True(inserted.SourceBalanceAfter.Equal(decimal.NewFromInt(100)))
	s.Nil(inserted.CompletedAt)

	s.mockAccountRepo.AssertNotCalled(s.T(), "ApplyBalanceChangesInTx", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (s *TransactionServiceTestSuite) TestCreate_ValidationOrder() {
	ctx := context.Background()
	target := s.targetNumber

	cases := []struct {
		name  string
		input portssvc.CreateTransactionInput
		want  error
	}{
		{
			name:  "unknown type",
			input: portssvc.CreateTransactionInput{Type: "refund", SourceAccount: s.sourceNumber, Amount: decimal.NewFromInt(10)},
			want:  apperrors.ErrInvalidType,
		},
		{
			name:  "bad type wins over bad amount",
			input: portssvc.CreateTransactionInput{Type: "refund", SourceAccount: s.sourceNumber, Amount: decimal.NewFromInt(-10)},
			want:  apperrors.ErrInvalidType,
		},
		{
			name:  "zero amount",
			input: portssvc.CreateTransactionInput{Type: domain.Deposit, SourceAccount: s.sourceNumber, Amount: decimal.Zero},
			want:  apperrors.ErrInvalidAmount,
		},
		{
			name:  "negative amount",
			input: portssvc.CreateTransactionInput{Type: domain.Withdraw, SourceAccount: s.sourceNumber, Amount: decimal.NewFromInt(-5)},
			want:  apperrors.ErrInvalidAmount,
		},
		{
			name:  "missing source",
			input: portssvc.CreateTransactionInput{Type: domain.Deposit, Amount: decimal.NewFromInt(5)},
			want:  apperrors.ErrMissingAccount,
		},
		{
			name:  "transfer missing target",
			input: portssvc.CreateTransactionInput{Type: domain.Transfer, SourceAccount: s.sourceNumber, Amount: decimal.NewFromInt(5)},
			want:  apperrors.ErrMissingAccount,
		},
		{
			name: "transfer to self",
			input: func() portssvc.CreateTransactionInput {
				self := s.sourceNumber
				return portssvc.CreateTransactionInput{Type: domain.Transfer, SourceAccount: s.sourceNumber, TargetAccount: &self, Amount: decimal.NewFromInt(5)}
			}(),
			want: apperrors.ErrValidation,
		},
		{
			name:  "deposit with target",
			input: portssvc.CreateTransactionInput{Type: domain.Deposit, SourceAccount: s.sourceNumber, TargetAccount: &target, Amount: decimal.NewFromInt(5)},
			want:  apperrors.ErrInvalidType,
		},
		{
			name:  "other holder's account",
			input: portssvc.CreateTransactionInput{Type: domain.Deposit, SourceAccount: s.targetNumber, Amount: decimal.NewFromInt(5)},
			want:  apperrors.ErrForbidden,
		},
	}

	for _, tc := range cases {
		s.Run(tc.name, func() {
			created, err := s.service.CreateTransaction(ctx, s.holder, tc.input)
			s.Require().Error(err)
			s.ErrorIs(err, tc.want)
			s.Nil(created)
		})
	}

	// Request-shape failures never reach the database.
	s.mockLedgerRepo.AssertNotCalled(s.T(), "Begin", mock.Anything)
}

func (s *TransactionServiceTestSuite) TestCreate_AdminMayActOnAnyAccount() {
	ctx := context.Background()
	s.expectAtomicUnit()

	accounts := map[string]domain.Account{
		s.sourceNumber: s.account(s.sourceNumber, 100, domain.AccountActive),
	}
	s.mockAccountRepo.On("FindAccountsForUpdate", mock.Anything, mock.Anything, []string{s.sourceNumber}).Return(accounts, nil).Once()
	s.mockAccountRepo.On("ApplyBalanceChangesInTx", mock.Anything, mock.Anything, mock.Anything, s.admin.AccountNumber, mock.Anything).Return(nil).Once()
	s.mockLedgerRepo.On("InsertTransactionInTx", mock.Anything, mock.Anything, mock.Anything).
		Return(&domain.Transaction{ID: 3, Status: domain.StatusCompleted, Type: domain.Deposit}, nil).Once()
	s.mockAuditRepo.On("RecordActionInTx", mock.Anything, mock.Anything, mock.Anything).Return(nil).Twice()

	_, err := s.service.CreateTransaction(ctx, s.admin, portssvc.CreateTransactionInput{
		Type:          domain.Deposit,
		SourceAccount: s.sourceNumber,
		Amount:        decimal.NewFromInt(10),
	})
	s.Require().NoError(err)
}

func (s *TransactionServiceTestSuite) TestCreate_LockedAccountUnavailable() {
	ctx := context.Background()
	s.expectAbortedUnit()

	accounts := map[string]domain.Account{
		s.sourceNumber: s.account(s.sourceNumber, 100, domain.AccountLocked),
	}
	s.mockAccountRepo.On("FindAccountsForUpdate", mock.Anything, mock.Anything, []string{s.sourceNumber}).Return(accounts, nil).Once()

	_, err := s.service.CreateTransaction(ctx, s.holder, portssvc.CreateTransactionInput{
		Type:          domain.Deposit,
		SourceAccount: s.sourceNumber,
		Amount:        decimal.NewFromInt(10),
	})
	s.Require().Error(err)
	s.ErrorIs(err, apperrors.ErrAccountUnavailable)
}

func (s *TransactionServiceTestSuite) TestCreate_UnknownAccountUnavailable() {
	ctx := context.Background()
	s.expectAbortedUnit()

	s.mockAccountRepo.On("FindAccountsForUpdate", mock.Anything, mock.Anything, []string{"9999999999"}).
		Return(nil, fmt.Errorf("%w: could not find or lock accounts: [9999999999]", apperrors.ErrNotFound)).Once()

	created, err := s.service.CreateTransaction(ctx, s.admin, portssvc.CreateTransactionInput{
		Type:          domain.Deposit,
		SourceAccount: "9999999999",
		Amount:        decimal.NewFromInt(10),
	})

	// A missing participant is an unavailable account; NotFound stays
	// reserved for unknown ledger ids.
	s.Require().Error(err)
	s.ErrorIs(err, apperrors.ErrAccountUnavailable)
	s.NotErrorIs(err, apperrors.ErrNotFound)
	s.Nil(created)
	s.mockLedgerRepo.AssertNotCalled(s.T(), "InsertTransactionInTx", mock.Anything, mock.Anything, mock.Anything)
}

func (s *TransactionServiceTestSuite) TestCreate_SecondWithdrawalSeesDebitedBalance() {
	ctx := context.Background()

	// Two withdrawals of the full balance. The second locked read returns
	// the post-debit state, so exactly one succeeds.
	s.mockLedgerRepo.On("Begin", mock.Anything).Return(nil, nil).Twice()
	s.mockLedgerRepo.On("Commit", mock.Anything, mock.Anything).Return(nil).Once()
	s.mockLedgerRepo.On("Rollback", mock.Anything, mock.Anything).Return(nil).Once()

	s.mockAccountRepo.On("FindAccountsForUpdate", mock.Anything, mock.Anything, []string{s.sourceNumber}).
		Return(map[string]domain.Account{s.sourceNumber: s.account(s.sourceNumber, 100, domain.AccountActive)}, nil).Once()
	s.mockAccountRepo.On("FindAccountsForUpdate", mock.Anything, mock.Anything, []string{s.sourceNumber}).
		Return(map[string]domain.Account{s.sourceNumber: s.account(s.sourceNumber, 0, domain.AccountActive)}, nil).Once()

	s.mockAccountRepo.On("ApplyBalanceChangesInTx", mock.Anything, mock.Anything, mock.Anything, s.holder.AccountNumber, mock.Anything).Return(nil).Once()
	s.mockLedgerRepo.On("InsertTransactionInTx", mock.Anything, mock.Anything, mock.Anything).
		Return(&domain.Transaction{ID: 30, Status: domain.StatusCompleted, Type: domain.Withdraw}, nil).Once()
	s.mockAuditRepo.On("RecordActionInTx", mock.Anything, mock.Anything, mock.Anything).Return(nil).Twice()

	input := portssvc.CreateTransactionInput{
		Type:          domain.Withdraw,
		SourceAccount: s.sourceNumber,
		Amount:        decimal.NewFromInt(100),
	}

	first, err := s.service.CreateTransaction(ctx, s.holder, input)
	s.Require().NoError(err)
	s.Equal(domain.StatusCompleted, first.Status)

	second, err := s.service.CreateTransaction(ctx, s.holder, input)
	s.Require().Error(err)
	s.ErrorIs(err, apperrors.ErrInsufficientFunds)
	s.Nil(second)

	// Only the first withdrawal moved money.
	s.mockAccountRepo.AssertNumberOfCalls(s.T(), "ApplyBalanceChangesInTx", 1)
	s.mockLedgerRepo.AssertExpectations(s.T())
}

func (s *TransactionServiceTestSuite) TestCreateTransfer_LocksBothParticipantsInOneCall() {
	ctx := context.Background()
	s.expectAtomicUnit()

	accounts := map[string]domain.Account{
		s.sourceNumber: s.account(s.sourceNumber, 100, domain.AccountActive),
		s.targetNumber: s.account(s.targetNumber, 10, domain.AccountActive),
	}

	var lockedNumbers []string
	s.mockAccountRepo.On("FindAccountsForUpdate", mock.Anything, mock.Anything, mock.AnythingOfType("[]string")).
		Run(func(args mock.Arguments) {
			lockedNumbers = args.Get(2).([]string)
		}).Return(accounts, nil).Once()

	s.mockAccountRepo.On("ApplyBalanceChangesInTx", mock.Anything, mock.Anything, mock.Anything, s.holder.AccountNumber, mock.Anything).Return(nil).Once()
	s.mockLedgerRepo.On("InsertTransactionInTx", mock.Anything, mock.Anything, mock.Anything).
		Return(&domain.Transaction{ID: 31, Status: domain.StatusCompleted, Type: domain.Transfer}, nil).Once()
	s.mockAuditRepo.On("RecordActionInTx", mock.Anything, mock.Anything, mock.Anything).Return(nil).Twice()

	target := s.targetNumber
	_, err := s.service.CreateTransaction(ctx, s.holder, portssvc.CreateTransactionInput{
		Type:          domain.Transfer,
		SourceAccount: s.sourceNumber,
		TargetAccount: &target,
		Amount:        decimal.NewFromInt(25),
	})
	s.Require().NoError(err)

	// Both participants are acquired in a single locked read; the store
	// orders the row locks by account number, so opposing transfers
	// acquire them in the same order.
	s.mockAccountRepo.AssertNumberOfCalls(s.T(), "FindAccountsForUpdate", 1)
	s.ElementsMatch([]string{s.sourceNumber, s.targetNumber}, lockedNumbers)
}

func (s *TransactionServiceTestSuite) TestComplete_SettlesPendingWithFreshSnapshots() {
	ctx := context.Background()
	s.expectAtomicUnit()

	pending := &domain.Transaction{
		ID:            10,
		Type:          domain.Withdraw,
		Status:        domain.StatusPending,
		AccountNumber: s.sourceNumber,
		Amount:        decimal.NewFromInt(50),
		CreatedBy:     s.sourceNumber,
	}
	s.mockLedgerRepo.On("FindTransactionByIDForUpdate", mock.Anything, mock.Anything, int64(10)).Return(pending, nil).Once()

	// Balance moved since the entry was created; settlement snapshots the
	// fresh value.
	accounts := map[string]domain.Account{
		s.sourceNumber: s.account(s.sourceNumber, 80, domain.AccountActive),
	}
	s.mockAccountRepo.On("FindAccountsForUpdate", mock.Anything, mock.Anything, []string{s.sourceNumber}).Return(accounts, nil).Once()
	s.mockAccountRepo.On("ApplyBalanceChangesInTx", mock.Anything, mock.Anything, mock.Anything, s.holder.AccountNumber, mock.Anything).Return(nil).Once()

	var settledSnap domain.BalanceSnapshots
	s.mockLedgerRepo.On("SettleTransactionInTx", mock.Anything, mock.Anything, int64(10), mock.AnythingOfType("domain.BalanceSnapshots"), mock.AnythingOfType("time.Time")).
		Run(func(args mock.Arguments) {
			settledSnap = args.Get(3).(domain.BalanceSnapshots)
		}).Return(nil).Once()

	s.mockAuditRepo.On("RecordActionInTx", mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()

	settled, err := s.service.CompleteTransaction(ctx, s.holder, 10)

	s.Require().NoError(err)
	s.Equal(domain.StatusCompleted, settled.Status)
	s.NotNil(settled.CompletedAt)
	s.True(settledSnap.SourceBefore.Equal(decimal.NewFromInt(80)))
	s.True(settledSnap.SourceAfter.Equal(decimal.NewFromInt(30)))
}

func (s *TransactionServiceTestSuite) TestComplete_RejectsNonPending() {
	ctx := context.Background()
	s.expectAbortedUnit()

	done := &domain.Transaction{
		ID:            11,
		Type:          domain.Deposit,
		Status:        domain.StatusCompleted,
		AccountNumber: s.sourceNumber,
		Amount:        decimal.NewFromInt(5),
		CreatedBy:     s.sourceNumber,
	}
	s.mockLedgerRepo.On("FindTransactionByIDForUpdate", mock.Anything, mock.Anything, int64(11)).Return(done, nil).Once()

	_, err := s.service.CompleteTransaction(ctx, s.holder, 11)
	s.Require().Error(err)
	s.ErrorIs(err, apperrors.ErrInvalidState)
}

func (s *TransactionServiceTestSuite) TestComplete_InsufficientFundsLeavesPending() {
	ctx := context.Background()
	s.expectAbortedUnit()

	pending := &domain.Transaction{
		ID:            12,
		Type:          domain.Withdraw,
		Status:        domain.StatusPending,
		AccountNumber: s.sourceNumber,
		Amount:        decimal.NewFromInt(500),
		CreatedBy:     s.sourceNumber,
	}
	s.mockLedgerRepo.On("FindTransactionByIDForUpdate", mock.Anything, mock.Anything, int64(12)).Return(pending, nil).Once()

	accounts := map[string]domain.Account{
		s.sourceNumber: s.account(s.sourceNumber, 80, domain.AccountActive),
	}
	s.mockAccountRepo.On("FindAccountsForUpdate", mock.Anything, mock.Anything, []string{s.sourceNumber}).Return(accounts, nil).Once()

	_, err := s.service.CompleteTransaction(ctx, s.holder, 12)
	s.Require().Error(err)
	s.ErrorIs(err, apperrors.ErrInsufficientFunds)
	s.mockLedgerRepo.AssertNotCalled(s.T(), "SettleTransactionInTx", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (s *TransactionServiceTestSuite) TestVoid_CancelsPending() {
	ctx := context.Background()
	s.expectAtomicUnit()

	pending := &domain.Transaction{
		ID:            13,
		Type:          domain.Transfer,
		Status:        domain.StatusPending,
		AccountNumber: s.sourceNumber,
		TargetAccount: &s.targetNumber,
		Amount:        decimal.NewFromInt(10),
		CreatedBy:     s.sourceNumber,
	}
	s.mockLedgerRepo.On("FindTransactionByIDForUpdate", mock.Anything, mock.Anything, int64(13)).Return(pending, nil).Once()
	s.mockLedgerRepo.On("VoidTransactionInTx", mock.Anything, mock.Anything, int64(13), mock.AnythingOfType("time.Time")).Return(nil).Once()

	var event domain.AuditEvent
	s.mockAuditRepo.On("RecordActionInTx", mock.Anything, mock.Anything, mock.AnythingOfType("domain.AuditEvent")).
		Run(func(args mock.Arguments) {
			event = args.Get(2).(domain.AuditEvent)
		}).Return(nil).Once()

	voided, err := s.service.VoidTransaction(ctx, s.holder, 13, "customer request")

	s.Require().NoError(err)
	s.Equal(domain.StatusVoided, voided.Status)
	s.NotNil(voided.VoidedAt)
	s.Equal(domain.AuditVoid, event.Action)
	s.Equal("customer request", event.Details)

	s.mockAccountRepo.AssertNotCalled(s.T(), "ApplyBalanceChangesInTx", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (s *TransactionServiceTestSuite) TestVoid_RejectsCompleted() {
	ctx := context.Background()
	s.expectAbortedUnit()

	done := &domain.Transaction{
		ID:            14,
		Type:          domain.Deposit,
		Status:        domain.StatusCompleted,
		AccountNumber: s.sourceNumber,
		Amount:        decimal.NewFromInt(5),
		CreatedBy:     s.sourceNumber,
	}
	s.mockLedgerRepo.On("FindTransactionByIDForUpdate", mock.Anything, mock.Anything, int64(14)).Return(done, nil).Once()

	_, err := s.service.VoidTransaction(ctx, s.holder, 14, "")
	s.Require().Error(err)
	s.ErrorIs(err, apperrors.ErrInvalidState)
}

func (s *TransactionServiceTestSuite) TestRollback_PendingIsVoided() {
	ctx := context.Background()
	s.expectAtomicUnit()

	pending := &domain.Transaction{
		ID:            20,
		Type:          domain.Withdraw,
		Status:        domain.StatusPending,
		AccountNumber: s.sourceNumber,
		Amount:        decimal.NewFromInt(10),
		CreatedBy:     s.sourceNumber,
	}
	s.mockLedgerRepo.On("FindTransactionByIDForUpdate", mock.Anything, mock.Anything, int64(20)).Return(pending, nil).Once()
	s.mockLedgerRepo.On("VoidTransactionInTx", mock.Anything, mock.Anything, int64(20), mock.AnythingOfType("time.Time")).Return(nil).Once()

	var event domain.AuditEvent
	s.mockAuditRepo.On("RecordActionInTx", mock.Anything, mock.Anything, mock.AnythingOfType("domain.AuditEvent")).
		Run(func(args mock.Arguments) {
			event = args.Get(2).(domain.AuditEvent)
		}).Return(nil).Once()

	result, err := s.service.RollbackTransaction(ctx, s.holder, 20, "mistake")

	s.Require().NoError(err)
	s.Equal(domain.StatusVoided, result.Status)
	s.Equal(domain.AuditRollback, event.Action)
	s.mockLedgerRepo.AssertNotCalled(s.T(), "InsertTransactionInTx", mock.Anything, mock.Anything, mock.Anything)
}

func (s *TransactionServiceTestSuite) TestRollback_CompletedTransferCompensates() {
	ctx := context.Background()
	s.expectAtomicUnit()

	original := &domain.Transaction{
		ID:            21,
		Type:          domain.Transfer,
		Status:        domain.StatusCompleted,
		AccountNumber: s.sourceNumber,
		TargetAccount: &s.targetNumber,
		Amount:        decimal.NewFromInt(25),
		CreatedBy:     s.sourceNumber,
	}
	s.mockLedgerRepo.On("FindTransactionByIDForUpdate", mock.Anything, mock.Anything, int64(21)).Return(original, nil).Once()

	// The compensating transfer runs target -> source; lock request reflects that.
	accounts := map[string]domain.Account{
		s.sourceNumber: s.account(s.sourceNumber, 75, domain.AccountActive),
		s.targetNumber: s.account(s.targetNumber, 35, domain.AccountActive),
	}
	s.mockAccountRepo.On("FindAccountsForUpdate", mock.Anything, mock.Anything, []string{s.targetNumber, s.sourceNumber}).Return(accounts, nil).Once()

	var appliedChanges map[string]decimal.Decimal
	s.mockAccountRepo.On("ApplyBalanceChangesInTx", mock.Anything, mock.Anything, mock.AnythingOfType("map[string]decimal.Decimal"), s.admin.AccountNumber, mock.Anything).
		Run(func(args mock.Arguments) {
			appliedChanges = args.Get(2).(map[string]decimal.Decimal)
		}).Return(nil).Once()

	var inserted domain.Transaction
	s.mockLedgerRepo.On("InsertTransactionInTx", mock.Anything, mock.Anything, mock.AnythingOfType("domain.Transaction")).
		Run(func(args mock.Arguments) {
			inserted = args.Get(2).(domain.Transaction)
		}).
		Return(&domain.Transaction{ID: 22, Status: domain.StatusCompleted, Type: domain.Transfer}, nil).Once()

	s.mockLedgerRepo.On("MarkRolledBackInTx", mock.Anything, mock.Anything, int64(21), int64(22)).Return(nil).Once()
	s.mockAuditRepo.On("RecordActionInTx", mock.Anything, mock.Anything, mock.Anything).Return(nil).Twice()

	result, err := s.service.RollbackTransaction(ctx, s.admin, 21, "dispute")

	s.Require().NoError(err)
	s.Equal(int64(22), result.ID)

	// Reversal flows target back to source.
	s.Equal(domain.Transfer, inserted.Type)
	s.Equal(s.targetNumber, inserted.AccountNumber)
	s.Require().NotNil(inserted.TargetAccount)
	s.Equal(s.sourceNumber, *inserted.TargetAccount)
	s.Require().NotNil(inserted.ReversalOf)
	s.Equal(int64(21), *inserted.ReversalOf)

	s.True(appliedChanges[s.targetNumber].Equal(decimal.NewFromInt(-25)))
	s.True(appliedChanges[s.sourceNumber].Equal(decimal.NewFromInt(25)))
}

func (s *TransactionServiceTestSuite) TestRollback_DepositReversalNeedsFunds() {
	ctx := context.Background()
	s.expectAbortedUnit()

	original := &domain.Transaction{
		ID:            23,
		Type:          domain.Deposit,
		Status:        domain.StatusCompleted,
		AccountNumber: s.sourceNumber,
		Amount:        decimal.NewFromInt(100),
		CreatedBy:     s.sourceNumber,
	}
	s.mockLedgerRepo.On("FindTransactionByIDForUpdate", mock.Anything, mock.Anything, int64(23)).Return(original, nil).Once()

	// The deposited funds are already gone; the reversal would overdraw.
	accounts := map[string]domain.Account{
		s.sourceNumber: s.account(s.sourceNumber, 40, domain.AccountActive),
	}
	s.mockAccountRepo.On("FindAccountsForUpdate", mock.Anything, mock.Anything, []string{s.sourceNumber}).Return(accounts, nil).Once()

	_, err := s.service.RollbackTransaction(ctx, s.admin, 23, "")
	s.Require().Error(err)
	s.ErrorIs(err, apperrors.ErrInsufficientFunds)
	s.mockLedgerRepo.AssertNotCalled(s.T(), "MarkRolledBackInTx", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (s *TransactionServiceTestSuite) TestRollback_RejectsVoidedAndReversals() {
	ctx := context.Background()

	s.Run("voided entry", func() {
		s.SetupTest()
		s.expectAbortedUnit()
		voided := &domain.Transaction{
			ID:            24,
			Type:          domain.Deposit,
			Status:        domain.StatusVoided,
			AccountNumber: s.sourceNumber,
			Amount:        decimal.NewFromInt(10),
			CreatedBy:     s.sourceNumber,
		}
		s.mockLedgerRepo.On("FindTransactionByIDForUpdate", mock.Anything, mock.Anything, int64(24)).Return(voided, nil).Once()

		_, err := s.service.RollbackTransaction(ctx, s.admin, 24, "")
		s.Require().Error(err)
		s.ErrorIs(err, apperrors.ErrInvalidState)
	})

	s.Run("compensating entry", func() {
		s.SetupTest()
		s.expectAbortedUnit()
		origID := int64(21)
		reversal := &domain.Transaction{
			ID:            25,
			Type:          domain.Transfer,
			Status:        domain.StatusCompleted,
			AccountNumber: s.targetNumber,
			TargetAccount: &s.sourceNumber,
			Amount:        decimal.NewFromInt(25),
			CreatedBy:     s.admin.AccountNumber,
			ReversalOf:    &origID,
		}
		s.mockLedgerRepo.On("FindTransactionByIDForUpdate", mock.Anything, mock.Anything, int64(25)).Return(reversal, nil).Once()

		_, err := s.service.RollbackTransaction(ctx, s.admin, 25, "")
		s.Require().Error(err)
		s.ErrorIs(err, apperrors.ErrInvalidState)
	})
}

func (s *TransactionServiceTestSuite) TestTransition_ForbiddenForUnrelatedCaller() {
	ctx := context.Background()
	s.expectAbortedUnit()

	entry := &domain.Transaction{
		ID:            30,
		Type:          domain.Withdraw,
		Status:        domain.StatusPending,
		AccountNumber: s.targetNumber,
		Amount:        decimal.NewFromInt(10),
		CreatedBy:     s.targetNumber,
	}
	s.mockLedgerRepo.On("FindTransactionByIDForUpdate", mock.Anything, mock.Anything, int64(30)).Return(entry, nil).Once()

	_, err := s.service.VoidTransaction(ctx, s.holder, 30, "")
	s.Require().Error(err)
	s.ErrorIs(err, apperrors.ErrForbidden)
}

func TestTransactionServiceTestSuite(t *testing.T) {
	suite.Run(t, new(TransactionServiceTestSuite))
}

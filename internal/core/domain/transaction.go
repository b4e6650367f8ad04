package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType is the kind of money movement a ledger entry records.
type TransactionType string

const (
	Deposit  TransactionType = "deposit"
	Withdraw TransactionType = "withdraw"
	Transfer TransactionType = "transfer"
	// Fee is reserved in the schema but never produced by the engine's flows.
	Fee TransactionType = "fee"
)

// IsMoneyMoving reports whether t is one of the operation types the engine
// accepts from callers.
func (t TransactionType) IsMoneyMoving() bool {
	switch t {
	case Deposit, Withdraw, Transfer:
		return true
	}
	return false
}

// TransactionStatus is the lifecycle state of a ledger entry.
//
// Pending entries have not applied any balance effect. Completed entries
// have. Voided entries never applied an effect and never will. RolledBack
// entries were Completed and have since been reversed by a compensating
// entry. Status only moves forward; no entry re-enters Pending.
type TransactionStatus string

const (
	StatusPending    TransactionStatus = "Pending"
	StatusCompleted  TransactionStatus = "Completed"
	StatusVoided     TransactionStatus = "Voided"
	StatusRolledBack TransactionStatus = "RolledBack"
)

// CanTransitionTo reports whether the state machine allows moving from s to
// next. Pending may complete or void; Completed may only roll back.
func (s TransactionStatus) CanTransitionTo(next TransactionStatus) bool {
	switch s {
	case StatusPending:
		return next == StatusCompleted || next == StatusVoided
	case StatusCompleted:
		return next == StatusRolledBack
	}
	return false
}

// IsTerminal reports whether no further transitions are allowed from s.
func (s TransactionStatus) IsTerminal() bool {
	return s == StatusVoided || s == StatusRolledBack
}

// BalanceSnapshots carries the point-in-time balances captured atomically
// with a balance mutation. Target values are nil for non-transfer entries.
type BalanceSnapshots struct {
	SourceBefore decimal.Decimal
	SourceAfter  decimal.Decimal
	TargetBefore *decimal.Decimal
	TargetAfter  *decimal.Decimal
}

// Transaction is one immutable ledger entry: a requested money movement,
// its participants, and the balance snapshots captured when its effect was
// applied. Apart from lifecycle fields (status, timestamps, snapshots on
// settlement, rollback links) an entry never changes after creation.
type Transaction struct {
	ID            int64             `json:"id"`
	Type          TransactionType   `json:"type"`
	Status        TransactionStatus `json:"status"`
	AccountNumber string            `json:"accountNumber"`
	TargetAccount *string           `json:"targetAccount,omitempty"`
	Amount        decimal.Decimal   `json:"amount"`
	Fee           decimal.Decimal   `json:"fee"`
	Note          *string           `json:"note,omitempty"`
	CreatedBy     string            `json:"createdBy"`
	CreatedAt     time.Time         `json:"createdAt"`
	CompletedAt   *time.Time        `json:"completedAt,omitempty"`
	VoidedAt      *time.Time        `json:"voidedAt,omitempty"`

	SourceBalanceBefore decimal.Decimal  `json:"sourceBalanceBefore"`
	SourceBalanceAfter  decimal.Decimal  `json:"sourceBalanceAfter"`
	TargetBalanceBefore *decimal.Decimal `json:"targetBalanceBefore,omitempty"`
	TargetBalanceAfter  *decimal.Decimal `json:"targetBalanceAfter,omitempty"`

	// ReversalOf is set on a compensating entry and points at the entry it
	// reverses. ReversedBy is set on a rolled-back entry and points at its
	// compensating entry.
	ReversalOf *int64 `json:"reversalOf,omitempty"`
	ReversedBy *int64 `json:"reversedBy,omitempty"`
}

// Snapshots returns the entry's balance snapshots as one value.
func (t Transaction) Snapshots() BalanceSnapshots {
	return BalanceSnapshots{
		SourceBefore: t.SourceBalanceBefore,
		SourceAfter:  t.SourceBalanceAfter,
		TargetBefore: t.TargetBalanceBefore,
		TargetAfter:  t.TargetBalanceAfter,
	}
}

// TransactionFilter is the read-side filter over the ledger. Account matches
// source OR target. Limit defaults to DefaultQueryLimit and is capped at
// MaxQueryLimit; results are ordered by creation time descending.
type TransactionFilter struct {
	Account      string
	Type         TransactionType
	Status       TransactionStatus
	From         *time.Time
	To           *time.Time
	NoteContains string
	Limit        int
}

const (
	DefaultQueryLimit = 100
	MaxQueryLimit     = 500
)

// EffectiveLimit normalizes the requested limit to the default/cap rules.
func (f TransactionFilter) EffectiveLimit() int {
	if f.Limit <= 0 {
		return DefaultQueryLimit
	}
	if f.Limit > MaxQueryLimit {
		return MaxQueryLimit
	}
	return f.Limit
}

package domain

import (
	"github.com/shopspring/decimal"
)

// AccountStatus is the lifecycle state of an account. Only Active accounts
// may be the source or target of a money-moving operation.
type AccountStatus string

const (
	AccountActive   AccountStatus = "Active"
	AccountLocked   AccountStatus = "Locked"
	AccountArchived AccountStatus = "Archived"
)

// IsValid reports whether s is one of the known account statuses.
func (s AccountStatus) IsValid() bool {
	switch s {
	case AccountActive, AccountLocked, AccountArchived:
		return true
	}
	return false
}

// Account represents a customer account holding a balance.
// Balance is mutated exclusively by the transaction engine's balance-effect
// step; accounts are never deleted, only transitioned to Archived.
type Account struct {
	AccountNumber string          `json:"accountNumber"`
	Name          string          `json:"name"`
	Balance       decimal.Decimal `json:"balance"`
	Status        AccountStatus   `json:"status"`
	AuditFields
}

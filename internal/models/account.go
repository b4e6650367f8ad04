package models

import "github.com/shopspring/decimal"

// AccountStatus mirrors domain.AccountStatus at the storage layer.
type AccountStatus string

// Account is the DB representation of a customer account, keyed by
// account_number.
type Account struct {
	AccountNumber string          `db:"account_number"`
	Name          string          `db:"name"`
	Balance       decimal.Decimal `db:"balance"`
	Status        AccountStatus   `db:"status"`
	AuditFields
}

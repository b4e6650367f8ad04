package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/corebank/ledger-service/internal/core/domain"
)

// CreateAccountRequest defines the data needed to open a new account.
// AccountNumber is optional; one is generated when absent.
type CreateAccountRequest struct {
	Name           string           `json:"name" binding:"required"`
	AccountNumber  *string          `json:"account_number"`
	OpeningBalance *decimal.Decimal `json:"opening_balance"`
}

// UpdateAccountRequest defines the data allowed for updating an account.
// Pointers distinguish zero-value updates from fields not provided.
type UpdateAccountRequest struct {
	Name   *string               `json:"name"`
	Status *domain.AccountStatus `json:"status"`
}

// AccountResponse defines the data returned for an account.
type AccountResponse struct {
	AccountNumber string               `json:"account_number"`
	Name          string               `json:"name"`
	Balance       decimal.Decimal      `json:"balance"`
	Status        domain.AccountStatus `json:"status"`
	CreatedAt     time.Time            `json:"created_at"`
	LastUpdatedAt time.Time            `json:"last_updated_at"`
}

// ToAccountResponse converts a domain.Account to its response DTO.
func ToAccountResponse(acc *domain.Account) AccountResponse {
	return AccountResponse{
		AccountNumber: acc.AccountNumber,
		Name:          acc.Name,
		Balance:       acc.Balance,
		Status:        acc.Status,
		CreatedAt:     acc.CreatedAt,
		LastUpdatedAt: acc.LastUpdatedAt,
	}
}

// ToListAccountResponse converts a slice of domain accounts.
func ToListAccountResponse(accounts []domain.Account) []AccountResponse {
	res := make([]AccountResponse, len(accounts))
	for i, acc := range accounts {
		res[i] = ToAccountResponse(&acc)
	}
	return res
}

// ListAccountsParams defines query parameters for listing accounts.
type ListAccountsParams struct {
	Limit  int `form:"limit,default=20"`
	Offset int `form:"offset,default=0"`
}

// ListAccountsResponse wraps the list of accounts.
type ListAccountsResponse struct {
	Accounts []AccountResponse `json:"accounts"`
}

package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/corebank/ledger-service/internal/core/domain"
)

// CreateTransactionRequest is an operation request submitted to the engine.
// Binding stays deliberately loose here; the engine owns the validation
// order so that each failure surfaces its specific error kind.
type CreateTransactionRequest struct {
	Type          string          `json:"type" binding:"required"`
	SourceAccount string          `json:"source_account" binding:"required"`
	TargetAccount *string         `json:"target_account"`
	Amount        decimal.Decimal `json:"amount"`
	Note          *string         `json:"note"`
	Deferred      bool            `json:"deferred"`
}

// TransitionRequest asks for a lifecycle transition on an existing entry.
type TransitionRequest struct {
	Action string `json:"action" binding:"required,oneof=complete void rollback"`
	Reason string `json:"reason"`
}

// ListTransactionsParams defines the statement/audit query filters.
// From/To accept RFC 3339 timestamps.
type ListTransactionsParams struct {
	Account string     `form:"account"`
	Type    string     `form:"type"`
	Status  string     `form:"status"`
	From    *time.Time `form:"from" time_format:"2006-01-02T15:04:05Z07:00"`
	To      *time.Time `form:"to" time_format:"2006-01-02T15:04:05Z07:00"`
	Q       string     `form:"q"`
	Limit   int        `form:"limit"`
}

// ToFilter converts the query params to the domain filter.
func (p ListTransactionsParams) ToFilter() domain.TransactionFilter {
	return domain.TransactionFilter{
		Account:      p.Account,
		Type:         domain.TransactionType(p.Type),
		Status:       domain.TransactionStatus(p.Status),
		From:         p.From,
		To:           p.To,
		NoteContains: p.Q,
		Limit:        p.Limit,
	}
}

// TransactionResponse is the wire form of one ledger entry.
type TransactionResponse struct {
	ID            int64                    `json:"id"`
	Type          domain.TransactionType   `json:"type"`
	Status        domain.TransactionStatus `json:"status"`
	AccountNumber string                   `json:"account_number"`
	TargetAccount *string                  `json:"target_account,omitempty"`
	Amount        decimal.Decimal          `json:"amount"`
	Fee           decimal.Decimal          `json:"fee"`
	Note          *string                  `json:"note,omitempty"`
	CreatedBy     string                   `json:"created_by"`
	CreatedAt     time.Time                `json:"created_at"`
	CompletedAt   *time.Time               `json:"completed_at,omitempty"`
	VoidedAt      *time.Time               `json:"voided_at,omitempty"`

	SourceBalanceBefore decimal.Decimal  `json:"source_balance_before"`
	SourceBalanceAfter  decimal.Decimal  `json:"source_balance_after"`
	TargetBalanceBefore *decimal.Decimal `json:"target_balance_before,omitempty"`
	TargetBalanceAfter  *decimal.Decimal `json:"target_balance_after,omitempty"`

	ReversalOf *int64 `json:"reversal_of,omitempty"`
	ReversedBy *int64 `json:"reversed_by,omitempty"`
}

// ToTransactionResponse converts a domain ledger entry to its response DTO.
func ToTransactionResponse(t *domain.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:                  t.ID,
		Type:                t.Type,
		Status:              t.Status,
		AccountNumber:       t.AccountNumber,
		TargetAccount:       t.TargetAccount,
		Amount:              t.Amount,
		Fee:                 t.Fee,
		Note:                t.Note,
		CreatedBy:           t.CreatedBy,
		CreatedAt:           t.CreatedAt,
		CompletedAt:         t.CompletedAt,
		VoidedAt:            t.VoidedAt,
		SourceBalanceBefore: t.SourceBalanceBefore,
		SourceBalanceAfter:  t.SourceBalanceAfter,
		TargetBalanceBefore: t.TargetBalanceBefore,
		TargetBalanceAfter:  t.TargetBalanceAfter,
		ReversalOf:          t.ReversalOf,
		ReversedBy:          t.ReversedBy,
	}
}

// ToTransactionResponses converts a slice of domain ledger entries.
func ToTransactionResponses(txns []domain.Transaction) []TransactionResponse {
	res := make([]TransactionResponse, len(txns))
	for i := range txns {
		res[i] = ToTransactionResponse(&txns[i])
	}
	return res
}

// ListTransactionsResponse wraps a statement query result.
type ListTransactionsResponse struct {
	Transactions []TransactionResponse `json:"transactions"`
}

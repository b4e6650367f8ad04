package mapping

import (
	"github.com/corebank/ledger-service/internal/core/domain"
	"github.com/corebank/ledger-service/internal/models"
)

// ToModelTransaction converts a domain ledger entry to its DB representation.
func ToModelTransaction(d domain.Transaction) models.Transaction {
	return models.Transaction{
		ID:                  d.ID,
		Type:                models.TransactionType(d.Type),
		Status:              models.TransactionStatus(d.Status),
		AccountNumber:       d.AccountNumber,
		TargetAccount:       d.TargetAccount,
		Amount:              d.Amount,
		Fee:                 d.Fee,
		Note:                d.Note,
		CreatedBy:           d.CreatedBy,
		CreatedAt:           d.CreatedAt,
		CompletedAt:         d.CompletedAt,
		VoidedAt:            d.VoidedAt,
		SourceBalanceBefore: d.SourceBalanceBefore,
		SourceBalanceAfter:  d.SourceBalanceAfter,
		TargetBalanceBefore: d.TargetBalanceBefore,
		TargetBalanceAfter:  d.TargetBalanceAfter,
		ReversalOf:          d.ReversalOf,
		ReversedBy:          d.ReversedBy,
	}
}

// ToDomainTransaction converts a DB ledger row to the domain type.
func ToDomainTransaction(m models.Transaction) domain.Transaction {
	return domain.Transaction{
		ID:                  m.ID,
		Type:                domain.TransactionType(m.Type),
		Status:              domain.TransactionStatus(m.Status),
		AccountNumber:       m.AccountNumber,
		TargetAccount:       m.TargetAccount,
		Amount:              m.Amount,
		Fee:                 m.Fee,
		Note:                m.Note,
		CreatedBy:           m.CreatedBy,
		CreatedAt:           m.CreatedAt,
		CompletedAt:         m.CompletedAt,
		VoidedAt:            m.VoidedAt,
		SourceBalanceBefore: m.SourceBalanceBefore,
		SourceBalanceAfter:  m.SourceBalanceAfter,
		TargetBalanceBefore: m.TargetBalanceBefore,
		TargetBalanceAfter:  m.TargetBalanceAfter,
		ReversalOf:          m.ReversalOf,
		ReversedBy:          m.ReversedBy,
	}
}

// ToDomainTransactionSlice converts a slice of DB ledger rows.
func ToDomainTransactionSlice(ms []models.Transaction) []domain.Transaction {
	ds := make([]domain.Transaction, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainTransaction(m)
	}
	return ds
}

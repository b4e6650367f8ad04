package mapping

import (
	"github.com/corebank/ledger-service/internal/core/domain"
	"github.com/corebank/ledger-service/internal/models"
)

// ToModelAuditEvent converts a domain audit event to its DB representation.
func ToModelAuditEvent(d domain.AuditEvent) models.AuditEvent {
	m := models.AuditEvent{
		EventID:       d.EventID,
		TransactionID: d.TransactionID,
		Action:        string(d.Action),
		PerformedBy:   d.PerformedBy,
		CreatedAt:     d.CreatedAt,
	}
	if d.Details != "" {
		details := d.Details
		m.Details = &details
	}
	return m
}

// ToDomainAuditEvent converts a DB audit row to the domain type.
func ToDomainAuditEvent(m models.AuditEvent) domain.AuditEvent {
	d := domain.AuditEvent{
		EventID:       m.EventID,
		TransactionID: m.TransactionID,
		Action:        domain.AuditAction(m.Action),
		PerformedBy:   m.PerformedBy,
		CreatedAt:     m.CreatedAt,
	}
	if m.Details != nil {
		d.Details = *m.Details
	}
	return d
}

package domain

import "time"

// AuditFields holds standard audit information for domain entities.
type AuditFields struct {
	CreatedAt     time.Time `json:"createdAt"`
	CreatedBy     string    `json:"createdBy"`
	LastUpdatedAt time.Time `json:"lastUpdatedAt"`
	LastUpdatedBy string    `json:"lastUpdatedBy"`
}

// Principal identifies the authenticated caller of an engine operation.
// AccountNumber is the caller's own account number; Admin marks an
// administrative identity that may act on any account.
type Principal struct {
	AccountNumber string
	Admin         bool
}

// Identifier returns the value recorded in created_by / performed_by columns.
func (p Principal) Identifier() string {
	return p.AccountNumber
}

// CanActOn reports whether the principal may initiate a money-moving
// operation against the given source account.
func (p Principal) CanActOn(accountNumber string) bool {
	return p.Admin || p.AccountNumber == accountNumber
}

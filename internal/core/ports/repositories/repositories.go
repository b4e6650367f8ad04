package repositories

// RepositoryProvider bundles the concrete repositories handed to the service
// layer at startup. AuditRepo may be nil when the action log is disabled.
type RepositoryProvider struct {
	AccountRepo AccountRepositoryFacade
	LedgerRepo  LedgerRepositoryWithTx
	AuditRepo   AuditRecorder
}

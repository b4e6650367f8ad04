package services

import (
	portsrepo "github.com/corebank/ledger-service/internal/core/ports/repositories"
	portssvc "github.com/corebank/ledger-service/internal/core/ports/services"
)

// NewServiceContainer creates a new service container with properly
// initialized dependencies.
func NewServiceContainer(repos portsrepo.RepositoryProvider) *portssvc.ServiceContainer {
	container := &portssvc.ServiceContainer{}

	container.Account = NewAccountService(repos.AccountRepo)
	container.Transaction = NewTransactionService(repos.LedgerRepo, repos.AccountRepo, repos.AuditRepo)
	container.Statement = NewStatementService(repos.LedgerRepo, repos.AuditRepo)

	return container
}

package services

// ServiceContainer holds all service facades used by the handler layer.
type ServiceContainer struct {
	Account     AccountSvcFacade
	Transaction TransactionSvcFacade
	Statement   StatementSvcFacade
}

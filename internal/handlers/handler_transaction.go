package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/corebank/ledger-service/internal/core/domain"
	portssvc "github.com/corebank/ledger-service/internal/core/ports/services"
	"github.com/corebank/ledger-service/internal/dto"
	"github.com/corebank/ledger-service/internal/middleware"
)

// transactionHandler handles HTTP requests related to ledger entries.
type transactionHandler struct {
	transactionService portssvc.TransactionSvcFacade
	statementService   portssvc.StatementSvcFacade
}

// newTransactionHandler creates a new transactionHandler.
func newTransactionHandler(transactionService portssvc.TransactionSvcFacade, statementService portssvc.StatementSvcFacade) *transactionHandler {
	return &transactionHandler{
		transactionService: transactionService,
		statementService:   statementService,
	}
}

// RegisterTransactionRoutes wires the transaction routes into the v1 group.
func RegisterTransactionRoutes(v1 *gin.RouterGroup, transactionService portssvc.TransactionSvcFacade, statementService portssvc.StatementSvcFacade) {
	h := newTransactionHandler(transactionService, statementService)
	transactions := v1.Group("/transactions")
	{
		transactions.POST("", h.createTransaction)
		transactions.GET("", h.listTransactions)
		transactions.GET("/:transactionID", h.getTransaction)
		transactions.GET("/:transactionID/audit", h.getAuditTrail)
		transactions.PATCH("/:transactionID", h.transitionTransaction)
	}
}

// createTransaction godoc
// @Summary Record a ledger operation
// @Description Records a deposit, withdrawal, or transfer. Immediate operations settle atomically; deferred operations stay pending until completed.
// @Tags transactions
// @Accept  json
// @Produce  json
// @Param   transaction body dto.CreateTransactionRequest true "Operation details"
// @Success 201 {object} dto.TransactionResponse
// @Failure 400 {object} map[string]string "Invalid operation"
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 404 {object} map[string]string "Account not found"
// @Failure 422 {object} map[string]string "Insufficient funds or account unavailable"
// @Router /transactions [post]
func (h *transactionHandler) createTransaction(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var req dto.CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Error("Failed to bind JSON for createTransaction", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	principal, ok := middleware.GetPrincipalFromCtx(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	input := portssvc.CreateTransactionInput{
		Type:          domain.TransactionType(req.Type),
		SourceAccount: req.SourceAccount,
		TargetAccount: req.TargetAccount,
		Amount:        req.Amount,
		Note:          req.Note,
		Deferred:      req.Deferred,
	}

	txn, err := h.transactionService.CreateTransaction(c.Request.Context(), principal, input)
	if err != nil {
		respondError(c, logger, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToTransactionResponse(txn))
}

// transitionTransaction godoc
// @Summary Transition a ledger entry
// @Description Completes, voids, or rolls back an entry. Rolling back a completed entry creates a compensating entry.
// @Tags transactions
// @Accept  json
// @Produce  json
// @Param   transactionID path int true "Transaction ID"
// @Param   transition body dto.TransitionRequest true "Transition action"
// @Success 200 {object} dto.TransactionResponse
// @Failure 400 {object} map[string]string "Invalid request format"
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 404 {object} map[string]string "Entry not found"
// @Failure 409 {object} map[string]string "Invalid lifecycle transition"
// @Failure 422 {object} map[string]string "Insufficient funds or account unavailable"
// @Router /transactions/{transactionID} [patch]
func (h *transactionHandler) transitionTransaction(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	transactionID, err := strconv.ParseInt(c.Param("transactionID"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid transaction ID"})
		return
	}

	var req dto.TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Error("Failed to bind JSON for transitionTransaction", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	principal, ok := middleware.GetPrincipalFromCtx(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var txn *domain.Transaction
	switch req.Action {
	case "complete":
		txn, err = h.transactionService.CompleteTransaction(c.Request.Context(), principal, transactionID)
	case "void":
		txn, err = h.transactionService.VoidTransaction(c.Request.Context(), principal, transactionID, req.Reason)
	case "rollback":
		txn, err = h.transactionService.RollbackTransaction(c.Request.Context(), principal, transactionID, req.Reason)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown transition action"})
		return
	}
	if err != nil {
		respondError(c, logger, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTransactionResponse(txn))
}

// getTransaction godoc
// @Summary Get a ledger entry
// @Description Retrieves one entry by ID. Non-admin callers may only read entries touching their own account.
// @Tags transactions
// @Produce  json
// @Param   transactionID path int true "Transaction ID"
// @Success 200 {object} dto.TransactionResponse
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 404 {object} map[string]string "Entry not found"
// @Router /transactions/{transactionID} [get]
func (h *transactionHandler) getTransaction(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	transactionID, err := strconv.ParseInt(c.Param("transactionID"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid transaction ID"})
		return
	}

	principal, ok := middleware.GetPrincipalFromCtx(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	txn, err := h.statementService.GetTransactionByID(c.Request.Context(), principal, transactionID)
	if err != nil {
		respondError(c, logger, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTransactionResponse(txn))
}

// listTransactions godoc
// @Summary Query ledger entries
// @Description Retrieves entries matching the filters, newest first. Non-admin callers see only their own account's entries.
// @Tags transactions
// @Produce  json
// @Param   account query string false "Account number (source or target)"
// @Param   type query string false "Transaction type"
// @Param   status query string false "Transaction status"
// @Param   from query string false "Created at or after (RFC 3339)"
// @Param   to query string false "Created at or before (RFC 3339)"
// @Param   q query string false "Note substring"
// @Param   limit query int false "Max results" default(100)
// @Success 200 {object} dto.ListTransactionsResponse
// @Failure 400 {object} map[string]string "Invalid query parameters"
// @Failure 403 {object} map[string]string "Forbidden"
// @Router /transactions [get]
func (h *transactionHandler) listTransactions(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var params dto.ListTransactionsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters"})
		return
	}

	principal, ok := middleware.GetPrincipalFromCtx(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	txns, err := h.statementService.FindTransactions(c.Request.Context(), principal, params.ToFilter())
	if err != nil {
		respondError(c, logger, err)
		return
	}

	c.JSON(http.StatusOK, dto.ListTransactionsResponse{Transactions: dto.ToTransactionResponses(txns)})
}

// getAuditTrail godoc
// @Summary Get the action log for a ledger entry
// @Description Lists the recorded actions for an entry, oldest first.
// @Tags transactions
// @Produce  json
// @Param   transactionID path int true "Transaction ID"
// @Success 200 {array} domain.AuditEvent
// @Failure 403 {object} map[string]string "Forbidden"
// @Failure 404 {object} map[string]string "Entry not found"
// @Router /transactions/{transactionID}/audit [get]
func (h *transactionHandler) getAuditTrail(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	transactionID, err := strconv.ParseInt(c.Param("transactionID"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid transaction ID"})
		return
	}

	principal, ok := middleware.GetPrincipalFromCtx(c.Request.Context())
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	events, err := h.statementService.GetAuditTrail(c.Request.Context(), principal, transactionID)
	if err != nil {
		respondError(c, logger, err)
		return
	}

	c.JSON(http.StatusOK, events)
}

package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "wealth/internal/errors"
	"wealth/internal/models"
	"wealth/internal/money"
	"wealth/internal/pagination"
	"wealth/internal/services"
)

// TransactionHandler handles transaction-related requests.
type TransactionHandler struct {
	transactionService services.TransactionServicer
	auditService       services.AuditServicer
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(transactionService services.TransactionServicer, auditService services.AuditServicer) *TransactionHandler {
	return &TransactionHandler{transactionService: transactionService, auditService: auditService}
}

// CreateTransactionRequest represents the request payload for creating a transaction
type CreateTransactionRequest struct {
	AccountID         string       `json:"account_id" binding:"required,uuid"`
	Type              string       `json:"type" binding:"required,transaction_type"`
	Amount            money.Amount `json:"amount"`
	Description       string       `json:"description" binding:"max=500"`
	Category          string       `json:"category" binding:"required,max=100"`
	Date              time.Time    `json:"date" binding:"required"`
	Status            string       `json:"status" binding:"omitempty,transaction_status"`
	ReceiptURL        string       `json:"receipt_url" binding:"omitempty,url,max=2048"`
	IsRecurring       bool         `json:"is_recurring"`
	RecurringInterval *string      `json:"recurring_interval" binding:"omitempty,recurring_interval"`
}

// UpdateTransactionRequest represents the request payload for updating a
// transaction. Absent fields are left unchanged.
type UpdateTransactionRequest struct {
	AccountID         *string       `json:"account_id" binding:"omitempty,uuid"`
	Type              *string       `json:"type" binding:"omitempty,transaction_type"`
	Amount            *money.Amount `json:"amount"`
	Description       *string       `json:"description" binding:"omitempty,max=500"`
	Category          *string       `json:"category" binding:"omitempty,max=100"`
	Date              *time.Time    `json:"date"`
	Status            *string       `json:"status" binding:"omitempty,transaction_status"`
	ReceiptURL        *string       `json:"receipt_url" binding:"omitempty,max=2048"`
	IsRecurring       *bool         `json:"is_recurring"`
	RecurringInterval *string       `json:"recurring_interval" binding:"omitempty,recurring_interval"`
}

// BulkDeleteRequest represents the request payload for bulk deletion
type BulkDeleteRequest struct {
	TransactionIDs []string `json:"transaction_ids" binding:"required,min=1,max=500,dive,uuid"`
}

// ListTransactionsQuery represents query parameters for listing transactions.
type ListTransactionsQuery struct {
	pagination.PageRequest
	AccountID *string `form:"account_id" binding:"omitempty,uuid"`
	Type      *string `form:"type" binding:"omitempty,transaction_type"`
	Status    *string `form:"status" binding:"omitempty,transaction_status"`
	Category  *string `form:"category"`
	From      *string `form:"from"`
	To        *string `form:"to"`
}

// parseFilterDate accepts RFC3339 or plain dates in filters.
func parseFilterDate(value string) (time.Time, error) {
	parsed, err := time.Parse(time.RFC3339, value)
	if err != nil {
		parsed, err = time.Parse("2006-01-02", value)
	}
	return parsed, err
}

// CreateTransaction records a new transaction
// @Summary     Create a transaction
// @Description Record a new transaction and update the account balance
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateTransactionRequest true "Transaction details"
// @Success     201 {object} models.Transaction "Transaction created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Account not found"
// @Failure     422 {object} ErrorResponse "Invalid recurring interval"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions [post]
func (h *TransactionHandler) CreateTransaction(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	input := services.TransactionInput{
		AccountID:   req.AccountID,
		Type:        models.TransactionType(req.Type),
		Amount:      req.Amount,
		Description: req.Description,
		Category:    req.Category,
		Date:        req.Date,
		Status:      models.TransactionStatus(req.Status),
		ReceiptURL:  req.ReceiptURL,
		IsRecurring: req.IsRecurring,
	}
	if req.RecurringInterval != nil {
		interval := models.RecurringInterval(*req.RecurringInterval)
		input.RecurringInterval = &interval
	}

	txn, err := h.transactionService.CreateTransaction(userID, input)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "CREATE_TRANSACTION", "transaction", txn.ID, c.ClientIP(),
		map[string]interface{}{"account_id": req.AccountID, "type": req.Type, "amount": req.Amount.String()})

	c.JSON(http.StatusCreated, gin.H{"transaction": txn})
}

// GetTransactions lists the user's transactions
// @Summary     List transactions
// @Description Get a filtered, paginated list of the user's transactions, newest first
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       page query int false "Page number" default(1)
// @Param       page_size query int false "Page size" default(20)
// @Param       account_id query string false "Filter by account"
// @Param       type query string false "Filter by type (income|expense)"
// @Param       status query string false "Filter by status (pending|completed)"
// @Param       category query string false "Filter by category"
// @Param       from query string false "Earliest date (RFC3339 or YYYY-MM-DD)"
// @Param       to query string false "Latest date (RFC3339 or YYYY-MM-DD)"
// @Success     200 {object} pagination.PageResponse[models.Transaction] "Transactions"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions [get]
func (h *TransactionHandler) GetTransactions(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var query ListTransactionsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	filter := services.TransactionFilter{
		AccountID: query.AccountID,
		Category:  query.Category,
	}
	if query.Type != nil {
		t := models.TransactionType(*query.Type)
		filter.Type = &t
	}
	if query.Status != nil {
		st := models.TransactionStatus(*query.Status)
		filter.Status = &st
	}
	if query.From != nil {
		from, err := parseFilterDate(*query.From)
		if err != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid from date"))
			return
		}
		filter.FromDate = &from
	}
	if query.To != nil {
		to, err := parseFilterDate(*query.To)
		if err != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid to date"))
			return
		}
		filter.ToDate = &to
	}

	transactions, err := h.transactionService.GetUserTransactions(userID, query.PageRequest, filter)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, transactions)
}

// GetTransaction retrieves a single transaction
// @Summary     Get a transaction
// @Description Get one of the user's transactions by ID
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Transaction ID"
// @Success     200 {object} models.Transaction "Transaction"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions/{id} [get]
func (h *TransactionHandler) GetTransaction(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	transactionID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	txn, err := h.transactionService.GetTransactionByID(userID, transactionID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"transaction": txn})
}

// UpdateTransaction edits a transaction
// @Summary     Update a transaction
// @Description Edit a transaction and reconcile account balances
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Transaction ID"
// @Param       request body UpdateTransactionRequest true "Fields to update"
// @Success     200 {object} models.Transaction "Updated transaction"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Transaction or account not found"
// @Failure     422 {object} ErrorResponse "Invalid recurring interval"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions/{id} [put]
func (h *TransactionHandler) UpdateTransaction(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	transactionID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	update := services.TransactionUpdate{
		AccountID:   req.AccountID,
		Amount:      req.Amount,
		Description: req.Description,
		Category:    req.Category,
		Date:        req.Date,
		ReceiptURL:  req.ReceiptURL,
		IsRecurring: req.IsRecurring,
	}
	if req.Type != nil {
		t := models.TransactionType(*req.Type)
		update.Type = &t
	}
	if req.Status != nil {
		st := models.TransactionStatus(*req.Status)
		update.Status = &st
	}
	if req.RecurringInterval != nil {
		interval := models.RecurringInterval(*req.RecurringInterval)
		update.RecurringInterval = &interval
	}

	txn, err := h.transactionService.UpdateTransaction(userID, transactionID, update)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "UPDATE_TRANSACTION", "transaction", transactionID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"transaction": txn})
}

// DeleteTransaction removes a transaction
// @Summary     Delete a transaction
// @Description Delete a transaction and reverse its balance effect
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Transaction ID"
// @Success     200 {object} MessageResponse "Transaction deleted"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions/{id} [delete]
func (h *TransactionHandler) DeleteTransaction(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	transactionID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.transactionService.DeleteTransaction(userID, transactionID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "DELETE_TRANSACTION", "transaction", transactionID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"message": "Transaction deleted"})
}

// BulkDeleteTransactions removes a batch of transactions
// @Summary     Bulk delete transactions
// @Description Delete several transactions at once with one net balance reversal per account
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body BulkDeleteRequest true "Transaction IDs"
// @Success     200 {object} MessageResponse "Transactions deleted"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions/bulk-delete [post]
func (h *TransactionHandler) BulkDeleteTransactions(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req BulkDeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	deleted, err := h.transactionService.BulkDeleteTransactions(userID, req.TransactionIDs)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, "BULK_DELETE_TRANSACTIONS", "transaction", "", c.ClientIP(),
		map[string]interface{}{"requested": len(req.TransactionIDs), "deleted": deleted})

	c.JSON(http.StatusOK, gin.H{"message": "Transactions deleted", "deleted": deleted})
}

// MessageResponse represents a simple message response.
type MessageResponse struct {
	Message string `json:"message"`
}

package services

import (
	"context"
	"time"

	"wealth/internal/models"
	"wealth/internal/money"
	"wealth/internal/pagination"
)

// UserServicer defines the contract for user-related business logic.
type UserServicer interface {
	CreateUser(email, password, firstName, lastName string) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	GetUserByID(id string) (*models.User, error)
	VerifyPassword(user *models.User, password string) bool
	AttemptLogin(email, password string) (*models.User, error)
	StoreRefreshTokenHash(userID string, tokenHash string) error
	GetRefreshTokenHash(userID string) (string, error)
}

// AccountServicer defines the contract for account-related business logic.
type AccountServicer interface {
	CreateAccount(userID, name string, kind models.AccountKind, initialBalance money.Amount, isDefault bool) (*models.Account, error)
	GetUserAccounts(userID string, page pagination.PageRequest) (*pagination.PageResponse[models.Account], error)
	GetAccountByID(userID, accountID string) (*models.Account, error)
	SetDefaultAccount(userID, accountID string) (*models.Account, error)
}

// TransactionInput holds the fields for creating a transaction.
type TransactionInput struct {
	AccountID         string
	Type              models.TransactionType
	Amount            money.Amount
	Description       string
	Category          string
	Date              time.Time
	Status            models.TransactionStatus
	ReceiptURL        string
	IsRecurring       bool
	RecurringInterval *models.RecurringInterval
}

// TransactionUpdate holds optional fields for updating a transaction.
// Nil fields are left unchanged.
type TransactionUpdate struct {
	AccountID         *string
	Type              *models.TransactionType
	Amount            *money.Amount
	Description       *string
	Category          *string
	Date              *time.Time
	Status            *models.TransactionStatus
	ReceiptURL        *string
	IsRecurring       *bool
	RecurringInterval *models.RecurringInterval
}

// TransactionFilter holds optional filter parameters for listing transactions.
type TransactionFilter struct {
	AccountID *string
	Type      *models.TransactionType
	Status    *models.TransactionStatus
	Category  *string
	FromDate  *time.Time
	ToDate    *time.Time
}

// TransactionServicer defines the contract for transaction-related business logic.
type TransactionServicer interface {
	CreateTransaction(userID string, input TransactionInput) (*models.Transaction, error)
	GetTransactionByID(userID, transactionID string) (*models.Transaction, error)
	GetUserTransactions(userID string, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error)
	UpdateTransaction(userID, transactionID string, update TransactionUpdate) (*models.Transaction, error)
	DeleteTransaction(userID, transactionID string) error
	BulkDeleteTransactions(userID string, transactionIDs []string) (int64, error)
}

// TemplateFailure records why a single recurring template was skipped
// during a scheduler run.
type TemplateFailure struct {
	TemplateID string `json:"template_id"`
	Code       string `json:"code"`
	Reason     string `json:"reason"`
}

// RecurringRunReport summarizes one scheduler run.
type RecurringRunReport struct {
	TemplatesDue       int               `json:"templates_due"`
	TemplatesProcessed int               `json:"templates_processed"`
	OccurrencesCreated int               `json:"occurrences_created"`
	Failures           []TemplateFailure `json:"failures,omitempty"`
}

// RecurringServicer defines the contract for the recurrence scheduler.
type RecurringServicer interface {
	ProcessDueTransactions(now time.Time) (*RecurringRunReport, error)
}

// BudgetStatus contains a user's budget together with derived
// month-to-date consumption.
type BudgetStatus struct {
	Budget          *models.Budget `json:"budget"`
	CurrentExpenses money.Amount   `json:"current_expenses"`
}

// BudgetServicer defines the contract for budget-related business logic.
type BudgetServicer interface {
	GetCurrentBudget(userID, accountID string) (*BudgetStatus, error)
	UpdateBudget(userID string, amount money.Amount) (*models.Budget, error)
}

// SeedSummary reports what a demo-data seed run produced.
type SeedSummary struct {
	TransactionsCreated int          `json:"transactions_created"`
	FinalBalance        money.Amount `json:"final_balance"`
}

// SeedServicer defines the contract for demo-data seeding.
type SeedServicer interface {
	SeedTransactions(userID, accountID string, days int) (*SeedSummary, error)
}

// ReceiptData is the structured result of scanning a receipt.
type ReceiptData struct {
	Amount       money.Amount `json:"amount"`
	Date         time.Time    `json:"date"`
	Description  string       `json:"description"`
	MerchantName string       `json:"merchant_name"`
	Category     string       `json:"category"`
}

// ReceiptServicer defines the contract for receipt scanning.
type ReceiptServicer interface {
	ScanReceipt(ctx context.Context, data []byte, mimeType string) (*ReceiptData, error)
}

// AuditServicer defines the contract for audit logging.
type AuditServicer interface {
	Log(userID string, action, resourceType, resourceID string, ipAddress string, changes map[string]interface{})
}

package models

import (
	"time"

	"wealth/internal/money"
)

// TransactionType represents the type of transaction
type TransactionType string

const (
	TransactionTypeIncome  TransactionType = "income"
	TransactionTypeExpense TransactionType = "expense"
)

// TransactionStatus represents the processing status of a transaction
type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusCompleted TransactionStatus = "completed"
)

// RecurringInterval represents how often a recurring transaction repeats
type RecurringInterval string

const (
	RecurringIntervalDaily   RecurringInterval = "daily"
	RecurringIntervalWeekly  RecurringInterval = "weekly"
	RecurringIntervalMonthly RecurringInterval = "monthly"
	RecurringIntervalYearly  RecurringInterval = "yearly"
)

// Transaction represents a financial transaction in the system.
//
// Amount is always the non-negative magnitude; the sign applied to the
// owning account's balance is derived from Type. A recurring transaction
// acts as a template: the scheduler spawns dated occurrence rows from it
// and only advances its NextRecurringDate/LastProcessed cursor.
type Transaction struct {
	Base
	UserID      string            `gorm:"type:uuid;not null;index:idx_transactions_user_date" json:"user_id"`
	AccountID   string            `gorm:"type:uuid;not null;index" json:"account_id"`
	Type        TransactionType   `gorm:"not null" json:"type"`
	Amount      money.Amount      `gorm:"type:decimal(18,6);not null" json:"amount"`
	Description string            `json:"description"`
	Category    string            `gorm:"not null" json:"category"`
	Date        time.Time         `gorm:"not null;index:idx_transactions_user_date" json:"date"`
	Status      TransactionStatus `gorm:"not null;default:'completed'" json:"status"`
	ReceiptURL  string            `json:"receipt_url,omitempty"`

	// Recurrence fields. RecurringInterval is set iff IsRecurring;
	// NextRecurringDate is the schedule cursor for active templates.
	IsRecurring       bool               `gorm:"not null;default:false" json:"is_recurring"`
	RecurringInterval *RecurringInterval `json:"recurring_interval,omitempty"`
	NextRecurringDate *time.Time         `json:"next_recurring_date,omitempty"`
	LastProcessed     *time.Time         `json:"last_processed,omitempty"`

	// Relationships
	Account Account `gorm:"foreignKey:AccountID" json:"account,omitempty"`
}

// SignedAmount returns the transaction's contribution to its account
// balance: +Amount for income, -Amount for expense.
func (t *Transaction) SignedAmount() money.Amount {
	if t.Type == TransactionTypeExpense {
		return t.Amount.Neg()
	}
	return t.Amount
}

package models

import (
	"wealth/internal/money"
)

// AccountKind represents the kind of account
type AccountKind string

const (
	AccountKindCurrent AccountKind = "current"
	AccountKindSavings AccountKind = "savings"
)

// Account represents a financial account in the system.
//
// Balance is a cached value kept equal to the signed sum of the account's
// transactions. It is only ever mutated through atomic increments tied to
// transaction lifecycle events; the seed/reset flow is the single
// exception and recomputes it explicitly after clearing the ledger.
type Account struct {
	Base
	UserID    string       `gorm:"type:uuid;not null;index" json:"user_id"`
	Name      string       `gorm:"not null" json:"name"`
	Kind      AccountKind  `gorm:"not null" json:"kind"`
	Balance   money.Amount `gorm:"type:decimal(18,6);not null;default:0" json:"balance"`
	IsDefault bool         `gorm:"not null;default:false" json:"is_default"`

	// Relationships
	Transactions []Transaction `gorm:"foreignKey:AccountID" json:"transactions,omitempty"`
}

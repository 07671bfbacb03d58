package models

import (
	"time"

	"wealth/internal/money"
)

// Budget represents a user's monthly spending target. Each user has at
// most one. Current-period consumption is derived from expense
// transactions at read time, never stored.
type Budget struct {
	Base
	UserID        string       `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
	Amount        money.Amount `gorm:"type:decimal(18,6);not null" json:"amount"`
	LastAlertSent *time.Time   `json:"last_alert_sent,omitempty"`
}

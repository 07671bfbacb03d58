package services

import (
	"errors"
	"time"

	"gorm.io/gorm"

	apperrors "wealth/internal/errors"
	"wealth/internal/models"
	"wealth/internal/money"
)

// budgetService handles budget-related business logic.
type budgetService struct {
	db *gorm.DB
}

// NewBudgetService creates a new BudgetServicer.
func NewBudgetService(db *gorm.DB) BudgetServicer {
	return &budgetService{db: db}
}

// monthWindow returns the half-open [first of month, first of next month)
// range containing t, in t's location.
func monthWindow(t time.Time) (time.Time, time.Time) {
	first := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	return first, first.AddDate(0, 1, 0)
}

// GetCurrentBudget returns the user's budget, if any, together with the
// month-to-date expense total for the given account. Consumption is
// always derived from the transaction rows, never stored.
func (s *budgetService) GetCurrentBudget(userID, accountID string) (*BudgetStatus, error) {
	status := &BudgetStatus{CurrentExpenses: money.Zero()}

	var budget models.Budget
	err := s.db.Where("user_id = ?", userID).First(&budget).Error
	switch {
	case err == nil:
		status.Budget = &budget
	case errors.Is(err, gorm.ErrRecordNotFound):
		// No budget set yet. Expenses are still reported.
	default:
		return nil, wrapStoreErr(err)
	}

	from, to := monthWindow(time.Now())

	// Summed in decimal arithmetic rather than SQL SUM so sqlite's float
	// affinity cannot leak rounding error into the result.
	var amounts []money.Amount
	err = s.db.Model(&models.Transaction{}).
		Where("user_id = ? AND account_id = ? AND type = ?", userID, accountID, models.TransactionTypeExpense).
		Where("date >= ? AND date < ?", from, to).
		Pluck("amount", &amounts).Error
	if err != nil {
		return nil, wrapStoreErr(err)
	}

	total := money.Zero()
	for _, a := range amounts {
		total = total.Add(a)
	}
	status.CurrentExpenses = total

	return status, nil
}

// UpdateBudget sets the user's single budget amount, creating the row on
// first use.
func (s *budgetService) UpdateBudget(userID string, amount money.Amount) (*models.Budget, error) {
	if !amount.IsPositive() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "budget amount must be greater than zero")
	}

	var budget models.Budget
	err := s.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Where("user_id = ?", userID).First(&budget).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			budget = models.Budget{UserID: userID, Amount: amount}
			if err := tx.Create(&budget).Error; err != nil {
				return wrapStoreErr(err)
			}
			return nil
		}
		if err != nil {
			return wrapStoreErr(err)
		}

		if err := tx.Model(&budget).UpdateColumn("amount", amount).Error; err != nil {
			return wrapStoreErr(err)
		}
		budget.Amount = amount
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &budget, nil
}

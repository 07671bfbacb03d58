package services

import (
	"errors"
	"sort"

	"gorm.io/gorm"

	apperrors "wealth/internal/errors"
	"wealth/internal/models"
	"wealth/internal/money"
	"wealth/internal/pagination"
	"wealth/internal/revalidate"
)

// transactionService handles transaction-related business logic.
type transactionService struct {
	db       *gorm.DB
	notifier revalidate.Notifier
}

// NewTransactionService creates a new TransactionServicer.
func NewTransactionService(db *gorm.DB, notifier revalidate.Notifier) TransactionServicer {
	return &transactionService{db: db, notifier: notifier}
}

func validTransactionType(t models.TransactionType) bool {
	return t == models.TransactionTypeIncome || t == models.TransactionTypeExpense
}

func validTransactionStatus(st models.TransactionStatus) bool {
	return st == models.TransactionStatusPending || st == models.TransactionStatusCompleted
}

// CreateTransaction records a new transaction and applies its signed
// amount to the owning account's balance, both in one transaction.
func (s *transactionService) CreateTransaction(userID string, input TransactionInput) (*models.Transaction, error) {
	if !validTransactionType(input.Type) {
		return nil, apperrors.ErrInvalidTransactionType
	}
	if !input.Amount.IsPositive() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than zero")
	}
	if input.Status == "" {
		input.Status = models.TransactionStatusCompleted
	}
	if !validTransactionStatus(input.Status) {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "status must be pending or completed")
	}

	txn := &models.Transaction{
		UserID:      userID,
		AccountID:   input.AccountID,
		Type:        input.Type,
		Amount:      input.Amount,
		Description: input.Description,
		Category:    input.Category,
		Date:        input.Date,
		Status:      input.Status,
		ReceiptURL:  input.ReceiptURL,
		IsRecurring: input.IsRecurring,
	}

	if input.IsRecurring {
		if input.RecurringInterval == nil {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInterval, "recurring transactions require an interval")
		}
		next, err := nextDate(input.Date, *input.RecurringInterval)
		if err != nil {
			return nil, err
		}
		txn.RecurringInterval = input.RecurringInterval
		txn.NextRecurringDate = &next
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var account models.Account
		if err := tx.Where("id = ? AND user_id = ?", input.AccountID, userID).First(&account).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrAccountNotFound
			}
			return wrapStoreErr(err)
		}

		if err := tx.Create(txn).Error; err != nil {
			return wrapStoreErr(err)
		}

		return incrementBalance(tx, userID, input.AccountID, txn.SignedAmount())
	})
	if err != nil {
		return nil, err
	}

	s.notifier.ViewsStale(revalidate.ViewDashboard, revalidate.AccountView(input.AccountID))
	return txn, nil
}

// GetTransactionByID retrieves a transaction by ID for a specific user
func (s *transactionService) GetTransactionByID(userID, transactionID string) (*models.Transaction, error) {
	var txn models.Transaction
	if err := s.db.Where("id = ? AND user_id = ?", transactionID, userID).First(&txn).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTransactionNotFound
		}
		return nil, wrapStoreErr(err)
	}
	return &txn, nil
}

// GetUserTransactions retrieves a filtered, paginated list of the user's
// transactions, newest first. Ordering includes the ID as a tiebreaker so
// pages are stable when many transactions share a date.
func (s *transactionService) GetUserTransactions(userID string, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error) {
	page.Defaults()

	base := s.db.Model(&models.Transaction{}).Where("user_id = ?", userID)
	if filter.AccountID != nil {
		base = base.Where("account_id = ?", *filter.AccountID)
	}
	if filter.Type != nil {
		base = base.Where("type = ?", *filter.Type)
	}
	if filter.Status != nil {
		base = base.Where("status = ?", *filter.Status)
	}
	if filter.Category != nil {
		base = base.Where("category = ?", *filter.Category)
	}
	if filter.FromDate != nil {
		base = base.Where("date >= ?", *filter.FromDate)
	}
	if filter.ToDate != nil {
		base = base.Where("date <= ?", *filter.ToDate)
	}

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, wrapStoreErr(err)
	}

	var transactions []models.Transaction
	if err := base.Order("date DESC, id DESC").
		Scopes(pagination.Paginate(page)).
		Find(&transactions).Error; err != nil {
		return nil, wrapStoreErr(err)
	}

	result := pagination.NewPageResponse(transactions, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// UpdateTransaction edits a transaction and reconciles account balances.
// Staying on the same account applies only the signed difference between
// the new and old amounts; moving accounts reverses the full old amount
// on the source and applies the full new amount on the destination.
func (s *transactionService) UpdateTransaction(userID, transactionID string, update TransactionUpdate) (*models.Transaction, error) {
	var updated models.Transaction

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var original models.Transaction
		if err := tx.Where("id = ? AND user_id = ?", transactionID, userID).First(&original).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrTransactionNotFound
			}
			return wrapStoreErr(err)
		}

		updated = original
		if update.AccountID != nil {
			updated.AccountID = *update.AccountID
		}
		if update.Type != nil {
			updated.Type = *update.Type
		}
		if update.Amount != nil {
			updated.Amount = *update.Amount
		}
		if update.Description != nil {
			updated.Description = *update.Description
		}
		if update.Category != nil {
			updated.Category = *update.Category
		}
		if update.Date != nil {
			updated.Date = *update.Date
		}
		if update.Status != nil {
			updated.Status = *update.Status
		}
		if update.ReceiptURL != nil {
			updated.ReceiptURL = *update.ReceiptURL
		}
		if update.IsRecurring != nil {
			updated.IsRecurring = *update.IsRecurring
		}
		if update.RecurringInterval != nil {
			updated.RecurringInterval = update.RecurringInterval
		}

		if !validTransactionType(updated.Type) {
			return apperrors.ErrInvalidTransactionType
		}
		if !updated.Amount.IsPositive() {
			return apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than zero")
		}
		if !validTransactionStatus(updated.Status) {
			return apperrors.WithMessage(apperrors.ErrInvalidInput, "status must be pending or completed")
		}

		if updated.IsRecurring {
			if updated.RecurringInterval == nil {
				return apperrors.WithMessage(apperrors.ErrInvalidInterval, "recurring transactions require an interval")
			}
			next, err := nextDate(updated.Date, *updated.RecurringInterval)
			if err != nil {
				return err
			}
			updated.NextRecurringDate = &next
		} else {
			updated.RecurringInterval = nil
			updated.NextRecurringDate = nil
		}

		oldSigned := original.SignedAmount()
		newSigned := updated.SignedAmount()

		if updated.AccountID != original.AccountID {
			var account models.Account
			if err := tx.Where("id = ? AND user_id = ?", updated.AccountID, userID).First(&account).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return apperrors.ErrAccountNotFound
				}
				return wrapStoreErr(err)
			}
			if err := incrementBalance(tx, userID, original.AccountID, oldSigned.Neg()); err != nil {
				return err
			}
			if err := incrementBalance(tx, userID, updated.AccountID, newSigned); err != nil {
				return err
			}
		} else {
			// Same account: apply only the net difference. A no-op edit
			// (description only, say) touches the balance not at all.
			if err := incrementBalance(tx, userID, original.AccountID, newSigned.Sub(oldSigned)); err != nil {
				return err
			}
		}

		if err := tx.Save(&updated).Error; err != nil {
			return wrapStoreErr(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	views := []string{revalidate.ViewDashboard, revalidate.AccountView(updated.AccountID)}
	s.notifier.ViewsStale(views...)
	return &updated, nil
}

// DeleteTransaction removes a transaction and reverses its effect on the
// account balance in one transaction.
func (s *transactionService) DeleteTransaction(userID, transactionID string) error {
	var accountID string

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var txn models.Transaction
		if err := tx.Where("id = ? AND user_id = ?", transactionID, userID).First(&txn).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrTransactionNotFound
			}
			return wrapStoreErr(err)
		}
		accountID = txn.AccountID

		if err := tx.Delete(&txn).Error; err != nil {
			return wrapStoreErr(err)
		}

		return incrementBalance(tx, userID, txn.AccountID, txn.SignedAmount().Neg())
	})
	if err != nil {
		return err
	}

	s.notifier.ViewsStale(revalidate.ViewDashboard, revalidate.AccountView(accountID))
	return nil
}

// BulkDeleteTransactions removes a batch of the user's transactions and
// applies one net reversal per affected account. IDs the user does not
// own are silently skipped. Returns the number of rows deleted.
func (s *transactionService) BulkDeleteTransactions(userID string, transactionIDs []string) (int64, error) {
	if len(transactionIDs) == 0 {
		return 0, nil
	}

	var deleted int64
	affected := make(map[string]money.Amount)

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var transactions []models.Transaction
		if err := tx.Where("id IN ? AND user_id = ?", transactionIDs, userID).Find(&transactions).Error; err != nil {
			return wrapStoreErr(err)
		}
		if len(transactions) == 0 {
			return nil
		}

		for _, txn := range transactions {
			affected[txn.AccountID] = affected[txn.AccountID].Add(txn.SignedAmount())
		}

		result := tx.Where("id IN ? AND user_id = ?", transactionIDs, userID).Delete(&models.Transaction{})
		if result.Error != nil {
			return wrapStoreErr(result.Error)
		}
		deleted = result.RowsAffected

		// Deterministic account order keeps concurrent bulk deletes from
		// acquiring row locks in conflicting orders.
		accountIDs := make([]string, 0, len(affected))
		for id := range affected {
			accountIDs = append(accountIDs, id)
		}
		sort.Strings(accountIDs)

		for _, accountID := range accountIDs {
			if err := incrementBalance(tx, userID, accountID, affected[accountID].Neg()); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	if deleted > 0 {
		views := []string{revalidate.ViewDashboard}
		for accountID := range affected {
			views = append(views, revalidate.AccountView(accountID))
		}
		s.notifier.ViewsStale(views...)
	}
	return deleted, nil
}

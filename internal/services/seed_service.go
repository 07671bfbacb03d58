package services

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"gorm.io/gorm"

	apperrors "wealth/internal/errors"
	"wealth/internal/models"
	"wealth/internal/money"
	"wealth/internal/revalidate"
)

const defaultSeedDays = 90

// seedCategory describes one demo category and its plausible amount range.
type seedCategory struct {
	name     string
	txType   models.TransactionType
	min, max float64
}

var seedCategories = []seedCategory{
	{"salary", models.TransactionTypeIncome, 5000, 8000},
	{"freelance", models.TransactionTypeIncome, 1000, 3000},
	{"investments", models.TransactionTypeIncome, 500, 2000},
	{"housing", models.TransactionTypeExpense, 1000, 2000},
	{"transportation", models.TransactionTypeExpense, 100, 500},
	{"groceries", models.TransactionTypeExpense, 200, 600},
	{"utilities", models.TransactionTypeExpense, 100, 300},
	{"entertainment", models.TransactionTypeExpense, 50, 200},
	{"food", models.TransactionTypeExpense, 50, 150},
	{"shopping", models.TransactionTypeExpense, 100, 500},
	{"healthcare", models.TransactionTypeExpense, 100, 1000},
	{"education", models.TransactionTypeExpense, 200, 1000},
	{"travel", models.TransactionTypeExpense, 500, 2000},
}

// seedService generates demo ledger data.
type seedService struct {
	db       *gorm.DB
	notifier revalidate.Notifier
	rng      *rand.Rand
}

// NewSeedService creates a new SeedServicer.
func NewSeedService(db *gorm.DB, notifier revalidate.Notifier) SeedServicer {
	return &seedService{
		db:       db,
		notifier: notifier,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// SeedTransactions replaces the account's ledger with randomized demo
// transactions covering the past `days` days (default 90). This is the
// one flow allowed to write a balance absolutely: the same transaction
// first clears every row the balance summarizes, then sets it to the
// recomputed signed sum of the new rows.
func (s *seedService) SeedTransactions(userID, accountID string, days int) (*SeedSummary, error) {
	if days <= 0 {
		days = defaultSeedDays
	}

	var account models.Account
	if err := s.db.Where("id = ? AND user_id = ?", accountID, userID).First(&account).Error; err != nil {
		return nil, apperrors.ErrAccountNotFound
	}

	transactions := s.generate(userID, accountID, days)

	total := money.Zero()
	for i := range transactions {
		total = total.Add(transactions[i].SignedAmount())
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("account_id = ? AND user_id = ?", accountID, userID).
			Delete(&models.Transaction{}).Error; err != nil {
			return wrapStoreErr(err)
		}

		if err := tx.CreateInBatches(transactions, 100).Error; err != nil {
			return wrapStoreErr(err)
		}

		if err := tx.Model(&models.Account{}).
			Where("id = ? AND user_id = ?", accountID, userID).
			UpdateColumn("balance", total).Error; err != nil {
			return wrapStoreErr(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifier.ViewsStale(revalidate.ViewDashboard, revalidate.AccountView(accountID))
	return &SeedSummary{TransactionsCreated: len(transactions), FinalBalance: total}, nil
}

// generate builds 1-3 random transactions per day, newest day last.
func (s *seedService) generate(userID, accountID string, days int) []models.Transaction {
	var transactions []models.Transaction
	now := time.Now()

	for day := days - 1; day >= 0; day-- {
		date := now.AddDate(0, 0, -day)
		perDay := 1 + s.rng.Intn(3)

		for i := 0; i < perDay; i++ {
			// Roughly 40% income keeps demo balances positive.
			var candidates []seedCategory
			if s.rng.Float64() < 0.4 {
				candidates = incomeCategories()
			} else {
				candidates = expenseCategories()
			}
			cat := candidates[s.rng.Intn(len(candidates))]

			raw := cat.min + s.rng.Float64()*(cat.max-cat.min)
			amount, err := money.FromFloat(math.Round(raw*100) / 100)
			if err != nil {
				continue
			}

			transactions = append(transactions, models.Transaction{
				UserID:      userID,
				AccountID:   accountID,
				Type:        cat.txType,
				Amount:      amount,
				Description: fmt.Sprintf("%s %s", seedVerb(cat.txType), cat.name),
				Category:    cat.name,
				Date:        date,
				Status:      models.TransactionStatusCompleted,
			})
		}
	}
	return transactions
}

func incomeCategories() []seedCategory {
	var out []seedCategory
	for _, c := range seedCategories {
		if c.txType == models.TransactionTypeIncome {
			out = append(out, c)
		}
	}
	return out
}

func expenseCategories() []seedCategory {
	var out []seedCategory
	for _, c := range seedCategories {
		if c.txType == models.TransactionTypeExpense {
			out = append(out, c)
		}
	}
	return out
}

func seedVerb(t models.TransactionType) string {
	if t == models.TransactionTypeIncome {
		return "Received"
	}
	return "Paid for"
}

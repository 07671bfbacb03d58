package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"wealth/internal/models"
	"wealth/internal/money"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// Amount parses a decimal string into a money.Amount, failing the test
// on garbage input.
func Amount(t *testing.T, s string) money.Amount {
	t.Helper()

	a, err := money.FromString(s)
	if err != nil {
		t.Fatalf("bad test amount %q: %v", s, err)
	}
	return a
}

// CreateTestUser creates a user with a hashed password and unique email.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	email := fmt.Sprintf("user%d@test.com", nextID())
	return CreateTestUserWithEmail(t, db, email)
}

// CreateTestUserWithEmail creates a user with the given email.
func CreateTestUserWithEmail(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Email:    email,
		Password: string(hash),
		IsActive: true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTestAccount creates a current account with zero balance.
func CreateTestAccount(t *testing.T, db *gorm.DB, userID string) *models.Account {
	t.Helper()
	return CreateTestAccountWithBalance(t, db, userID, money.Zero())
}

// CreateTestAccountWithBalance creates a current account with the given balance.
func CreateTestAccountWithBalance(t *testing.T, db *gorm.DB, userID string, balance money.Amount) *models.Account {
	t.Helper()

	account := &models.Account{
		UserID:  userID,
		Name:    fmt.Sprintf("Test Account %d", nextID()),
		Kind:    models.AccountKindCurrent,
		Balance: balance,
	}
	if err := db.Create(account).Error; err != nil {
		t.Fatalf("failed to create test account: %v", err)
	}
	return account
}

// CreateTestTransaction creates a completed transaction of the given type
// and amount. The account balance is not touched; use the service layer
// when the balance matters.
func CreateTestTransaction(t *testing.T, db *gorm.DB, userID, accountID string, txType models.TransactionType, amount money.Amount) *models.Transaction {
	t.Helper()

	txn := &models.Transaction{
		UserID:    userID,
		AccountID: accountID,
		Type:      txType,
		Amount:    amount,
		Category:  "groceries",
		Date:      time.Now(),
		Status:    models.TransactionStatusCompleted,
	}
	if err := db.Create(txn).Error; err != nil {
		t.Fatalf("failed to create test transaction: %v", err)
	}
	return txn
}

// CreateTestRecurringTemplate creates a recurring transaction template
// with the given interval and schedule cursor.
func CreateTestRecurringTemplate(t *testing.T, db *gorm.DB, userID, accountID string, txType models.TransactionType, amount money.Amount, interval models.RecurringInterval, next time.Time) *models.Transaction {
	t.Helper()

	txn := &models.Transaction{
		UserID:            userID,
		AccountID:         accountID,
		Type:              txType,
		Amount:            amount,
		Description:       "Subscription",
		Category:          "entertainment",
		Date:              next,
		Status:            models.TransactionStatusCompleted,
		IsRecurring:       true,
		RecurringInterval: &interval,
		NextRecurringDate: &next,
	}
	if err := db.Create(txn).Error; err != nil {
		t.Fatalf("failed to create test recurring template: %v", err)
	}
	return txn
}

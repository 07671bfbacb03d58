package services

import (
	"testing"
	"time"

	"wealth/internal/models"
	"wealth/internal/money"
	"wealth/internal/testutil"
)

func TestUpdateBudget(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewBudgetService(db)

	user := testutil.CreateTestUser(t, db)

	t.Run("creates_on_first_use", func(t *testing.T) {
		budget, err := svc.UpdateBudget(user.ID, testutil.Amount(t, "2000"))
		testutil.AssertNoError(t, err)
		testutil.AssertAmount(t, budget.Amount, "2000")
	})

	t.Run("upserts_existing", func(t *testing.T) {
		budget, err := svc.UpdateBudget(user.ID, testutil.Amount(t, "2500.50"))
		testutil.AssertNoError(t, err)
		testutil.AssertAmount(t, budget.Amount, "2500.50")

		// Still exactly one budget row for the user.
		var count int64
		testutil.AssertNoError(t, db.Model(&models.Budget{}).Where("user_id = ?", user.ID).Count(&count).Error)
		if count != 1 {
			t.Errorf("expected 1 budget row, got %d", count)
		}
	})

	t.Run("rejects_non_positive", func(t *testing.T) {
		_, err := svc.UpdateBudget(user.ID, money.Zero())
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})
}

func TestGetCurrentBudget(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewBudgetService(db)

	user := testutil.CreateTestUser(t, db)
	account := testutil.CreateTestAccount(t, db, user.ID)

	t.Run("no_budget_still_reports_expenses", func(t *testing.T) {
		status, err := svc.GetCurrentBudget(user.ID, account.ID)
		testutil.AssertNoError(t, err)
		if status.Budget != nil {
			t.Error("expected nil budget before one is set")
		}
		testutil.AssertAmount(t, status.CurrentExpenses, "0")
	})

	t.Run("sums_current_month_expenses_only", func(t *testing.T) {
		now := time.Now()

		inMonth := testutil.CreateTestTransaction(t, db, user.ID, account.ID,
			models.TransactionTypeExpense, testutil.Amount(t, "120.25"))
		testutil.AssertNoError(t, db.Model(inMonth).UpdateColumn("date", now).Error)

		alsoInMonth := testutil.CreateTestTransaction(t, db, user.ID, account.ID,
			models.TransactionTypeExpense, testutil.Amount(t, "30"))
		testutil.AssertNoError(t, db.Model(alsoInMonth).UpdateColumn("date", now).Error)

		// Income and out-of-month expenses must not count.
		income := testutil.CreateTestTransaction(t, db, user.ID, account.ID,
			models.TransactionTypeIncome, testutil.Amount(t, "999"))
		testutil.AssertNoError(t, db.Model(income).UpdateColumn("date", now).Error)
		lastMonth := testutil.CreateTestTransaction(t, db, user.ID, account.ID,
			models.TransactionTypeExpense, testutil.Amount(t, "77"))
		testutil.AssertNoError(t, db.Model(lastMonth).UpdateColumn("date", now.AddDate(0, -2, 0)).Error)

		_, err := svc.UpdateBudget(user.ID, testutil.Amount(t, "500"))
		testutil.AssertNoError(t, err)

		status, err := svc.GetCurrentBudget(user.ID, account.ID)
		testutil.AssertNoError(t, err)
		if status.Budget == nil {
			t.Fatal("expected budget to be present")
		}
		testutil.AssertAmount(t, status.Budget.Amount, "500")
		testutil.AssertAmount(t, status.CurrentExpenses, "150.25")
	})

	t.Run("scoped_to_account", func(t *testing.T) {
		otherAccount := testutil.CreateTestAccount(t, db, user.ID)
		status, err := svc.GetCurrentBudget(user.ID, otherAccount.ID)
		testutil.AssertNoError(t, err)
		testutil.AssertAmount(t, status.CurrentExpenses, "0")
	})
}

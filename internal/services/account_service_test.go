package services

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"wealth/internal/models"
	"wealth/internal/money"
	"wealth/internal/pagination"
	"wealth/internal/revalidate"
	"wealth/internal/testutil"
)

func TestCreateAccount(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewAccountService(db, revalidate.NewNoop())

	t.Run("first_account_is_forced_default", func(t *testing.T) {
		user := testutil.CreateTestUser(t, db)

		account, err := svc.CreateAccount(user.ID, "Everyday", models.AccountKindCurrent, money.Zero(), false)
		testutil.AssertNoError(t, err)

		if !account.IsDefault {
			t.Error("expected first account to be default even when not requested")
		}
	})

	t.Run("second_default_unsets_first", func(t *testing.T) {
		user := testutil.CreateTestUser(t, db)

		first, err := svc.CreateAccount(user.ID, "Everyday", models.AccountKindCurrent, money.Zero(), true)
		testutil.AssertNoError(t, err)

		second, err := svc.CreateAccount(user.ID, "Savings", models.AccountKindSavings, money.Zero(), true)
		testutil.AssertNoError(t, err)
		if !second.IsDefault {
			t.Error("expected second account to be default")
		}

		reloaded, err := svc.GetAccountByID(user.ID, first.ID)
		testutil.AssertNoError(t, err)
		if reloaded.IsDefault {
			t.Error("expected first account to lose default status")
		}

		assertSingleDefault(t, db, user.ID)
	})

	t.Run("initial_balance_is_stored", func(t *testing.T) {
		user := testutil.CreateTestUser(t, db)

		account, err := svc.CreateAccount(user.ID, "Funded", models.AccountKindSavings, testutil.Amount(t, "250.50"), false)
		testutil.AssertNoError(t, err)
		testutil.AssertAmount(t, account.Balance, "250.50")
	})

	t.Run("name_required", func(t *testing.T) {
		user := testutil.CreateTestUser(t, db)

		_, err := svc.CreateAccount(user.ID, "", models.AccountKindCurrent, money.Zero(), false)
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("unknown_kind_rejected", func(t *testing.T) {
		user := testutil.CreateTestUser(t, db)

		_, err := svc.CreateAccount(user.ID, "Weird", models.AccountKind("offshore"), money.Zero(), false)
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})
}

func TestGetAccountByID_OwnershipScoped(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewAccountService(db, revalidate.NewNoop())

	owner := testutil.CreateTestUser(t, db)
	other := testutil.CreateTestUser(t, db)
	account := testutil.CreateTestAccount(t, db, owner.ID)

	_, err := svc.GetAccountByID(owner.ID, account.ID)
	testutil.AssertNoError(t, err)

	// Someone else's account must look exactly like a missing one.
	_, err = svc.GetAccountByID(other.ID, account.ID)
	testutil.AssertAppError(t, err, "ACCOUNT_NOT_FOUND")
}

func TestSetDefaultAccount(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewAccountService(db, revalidate.NewNoop())

	t.Run("switches_default", func(t *testing.T) {
		user := testutil.CreateTestUser(t, db)

		first, err := svc.CreateAccount(user.ID, "Everyday", models.AccountKindCurrent, money.Zero(), false)
		testutil.AssertNoError(t, err)
		second, err := svc.CreateAccount(user.ID, "Savings", models.AccountKindSavings, money.Zero(), false)
		testutil.AssertNoError(t, err)

		updated, err := svc.SetDefaultAccount(user.ID, second.ID)
		testutil.AssertNoError(t, err)
		if !updated.IsDefault {
			t.Error("expected account to become default")
		}

		reloaded, err := svc.GetAccountByID(user.ID, first.ID)
		testutil.AssertNoError(t, err)
		if reloaded.IsDefault {
			t.Error("expected previous default to be unset")
		}

		assertSingleDefault(t, db, user.ID)
	})

	t.Run("unknown_account", func(t *testing.T) {
		user := testutil.CreateTestUser(t, db)
		testutil.CreateTestAccount(t, db, user.ID)

		_, err := svc.SetDefaultAccount(user.ID, "9f4f9f4e-0000-7000-8000-000000000000")
		testutil.AssertAppError(t, err, "ACCOUNT_NOT_FOUND")
	})

	t.Run("other_users_account", func(t *testing.T) {
		owner := testutil.CreateTestUser(t, db)
		other := testutil.CreateTestUser(t, db)
		account := testutil.CreateTestAccount(t, db, owner.ID)

		_, err := svc.SetDefaultAccount(other.ID, account.ID)
		testutil.AssertAppError(t, err, "ACCOUNT_NOT_FOUND")
	})
}

func TestGetUserAccounts_Pagination(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewAccountService(db, revalidate.NewNoop())

	user := testutil.CreateTestUser(t, db)
	for i := 0; i < 5; i++ {
		testutil.CreateTestAccount(t, db, user.ID)
	}

	page, err := svc.GetUserAccounts(user.ID, pagination.PageRequest{Page: 1, PageSize: 3})
	testutil.AssertNoError(t, err)

	if len(page.Data) != 3 {
		t.Errorf("expected 3 accounts on page, got %d", len(page.Data))
	}
	if page.TotalItems != 5 {
		t.Errorf("expected 5 total items, got %d", page.TotalItems)
	}
	if page.TotalPages != 2 {
		t.Errorf("expected 2 total pages, got %d", page.TotalPages)
	}
}

// assertSingleDefault verifies the per-user default invariant directly
// against the store.
func assertSingleDefault(t *testing.T, db *gorm.DB, userID string) {
	t.Helper()

	var count int64
	if err := db.Model(&models.Account{}).
		Where("user_id = ? AND is_default = ?", userID, true).
		Count(&count).Error; err != nil {
		t.Fatalf("failed to count default accounts: %v", err)
	}
	if count != 1 {
		t.Errorf("expected exactly 1 default account, got %d", count)
	}
}

func TestWrapStoreErr(t *testing.T) {
	t.Run("postgres_serialization_failure", func(t *testing.T) {
		pgErr := &pgconn.PgError{Code: "40001", Message: "could not serialize access"}
		testutil.AssertAppError(t, wrapStoreErr(fmt.Errorf("update failed: %w", pgErr)), "CONFLICT")
	})

	t.Run("sqlite_lock_contention", func(t *testing.T) {
		testutil.AssertAppError(t, wrapStoreErr(errors.New("database is locked (5) (SQLITE_BUSY)")), "CONFLICT")
	})

	t.Run("other_errors_are_internal", func(t *testing.T) {
		testutil.AssertAppError(t, wrapStoreErr(errors.New("connection refused")), "INTERNAL_ERROR")
	})
}

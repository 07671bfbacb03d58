package services

import (
	"testing"

	"wealth/internal/testutil"
)

func TestCreateUser(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewUserService(db)

	t.Run("success", func(t *testing.T) {
		user, err := svc.CreateUser("alice@example.com", "supersecret", "Alice", "Smith")
		testutil.AssertNoError(t, err)
		if user.ID == "" {
			t.Error("expected generated user ID")
		}
		if user.Password == "supersecret" {
			t.Error("expected password to be hashed")
		}
	})

	t.Run("duplicate_email", func(t *testing.T) {
		_, err := svc.CreateUser("alice@example.com", "anothersecret", "", "")
		testutil.AssertAppError(t, err, "DUPLICATE_EMAIL")
	})

	t.Run("email_lowercased", func(t *testing.T) {
		user, err := svc.CreateUser("Bob@Example.COM", "supersecret", "", "")
		testutil.AssertNoError(t, err)
		if user.Email != "bob@example.com" {
			t.Errorf("expected lowercased email, got %q", user.Email)
		}
	})

	t.Run("missing_fields", func(t *testing.T) {
		_, err := svc.CreateUser("", "", "", "")
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})
}

func TestAttemptLogin(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewUserService(db)

	_, err := svc.CreateUser("carol@example.com", "correcthorse", "Carol", "")
	testutil.AssertNoError(t, err)

	t.Run("success", func(t *testing.T) {
		user, err := svc.AttemptLogin("carol@example.com", "correcthorse")
		testutil.AssertNoError(t, err)
		if user.LastLoginAt == nil {
			t.Error("expected LastLoginAt to be stamped")
		}
	})

	t.Run("wrong_password", func(t *testing.T) {
		_, err := svc.AttemptLogin("carol@example.com", "wrong")
		testutil.AssertAppError(t, err, "INVALID_CREDENTIALS")
	})

	t.Run("unknown_email_indistinguishable", func(t *testing.T) {
		_, err := svc.AttemptLogin("nobody@example.com", "whatever")
		testutil.AssertAppError(t, err, "INVALID_CREDENTIALS")
	})

	t.Run("locks_after_repeated_failures", func(t *testing.T) {
		_, err := svc.CreateUser("dave@example.com", "correcthorse", "", "")
		testutil.AssertNoError(t, err)

		for i := 0; i < maxFailedLoginAttempts; i++ {
			_, err := svc.AttemptLogin("dave@example.com", "wrong")
			testutil.AssertAppError(t, err, "INVALID_CREDENTIALS")
		}

		// Even the correct password bounces while locked.
		_, err = svc.AttemptLogin("dave@example.com", "correcthorse")
		testutil.AssertAppError(t, err, "ACCOUNT_LOCKED")
	})
}

func TestRefreshTokenHash(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewUserService(db)

	user, err := svc.CreateUser("erin@example.com", "supersecret", "", "")
	testutil.AssertNoError(t, err)

	testutil.AssertNoError(t, svc.StoreRefreshTokenHash(user.ID, "abc123"))

	hash, err := svc.GetRefreshTokenHash(user.ID)
	testutil.AssertNoError(t, err)
	if hash != "abc123" {
		t.Errorf("expected stored hash, got %q", hash)
	}

	err = svc.StoreRefreshTokenHash("9f4f9f4e-0000-7000-8000-000000000003", "x")
	testutil.AssertAppError(t, err, "USER_NOT_FOUND")
}

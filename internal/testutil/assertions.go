package testutil

import (
	"errors"
	"testing"

	apperrors "wealth/internal/errors"
	"wealth/internal/money"
)

// AssertAppError checks that err is an *AppError with the expected error code.
func AssertAppError(t *testing.T, err error, expectedCode string) {
	t.Helper()

	if err == nil {
		t.Fatalf("expected AppError with code %q, got nil", expectedCode)
	}

	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected *AppError, got %T: %v", err, err)
	}

	if appErr.Code != expectedCode {
		t.Errorf("expected error code %q, got %q (message: %s)", expectedCode, appErr.Code, appErr.Message)
	}
}

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertAmount fails the test if got is not numerically equal to the
// expected decimal string.
func AssertAmount(t *testing.T, got money.Amount, expected string) {
	t.Helper()

	want, err := money.FromString(expected)
	if err != nil {
		t.Fatalf("bad expected amount %q: %v", expected, err)
	}
	if !got.Equal(want) {
		t.Errorf("expected amount %s, got %s", want, got)
	}
}

package testutil

import (
	"errors"
	"testing"

	apperrors "finjournal/internal/errors"
)

// AssertAppError fails unless err carries the expected AppError code, e.g.
// "ACCOUNT_NOT_FOUND" or "LEDGER_INCONSISTENT".
func AssertAppError(t *testing.T, err error, expectedCode string) {
	t.Helper()

	if err == nil {
		t.Fatalf("expected %s, got nil", expectedCode)
	}
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected %s, got foreign error %T: %v", expectedCode, err, err)
	}
	if appErr.Code != expectedCode {
		t.Errorf("expected %s, got %s (%s)", expectedCode, appErr.Code, appErr.Message)
	}
}

// AssertCause fails unless the error chain below err's AppError still holds
// cause. Integrity failures must keep the condition that triggered them.
func AssertCause(t *testing.T, err error, cause error) {
	t.Helper()

	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) || appErr.Internal == nil {
		t.Fatalf("expected an AppError wrapping %v, got %v", cause, err)
	}
	if !errors.Is(appErr.Internal, cause) {
		t.Errorf("expected cause %v, got %v", cause, appErr.Internal)
	}
}

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// Package errors provides custom error types for the finjournal API.
// All service-layer errors should use AppError to ensure consistent,
// secure error responses that never leak internal details to clients.
package errors

import (
	"context"
	"database/sql/driver"
	stderrors "errors"
	"net/http"
)

// AppError represents a structured application error with an error code,
// human-readable message, HTTP status code, and optional internal error.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Internal   error  `json:"-"`
}

// Error implements the error interface.
func (e *AppError) Error() string { return e.Message }

// Unwrap returns the internal error for use with errors.Is/As.
func (e *AppError) Unwrap() error { return e.Internal }

// Is reports whether target is an AppError with the same code, so that
// errors.Is(err, ErrAccountNotFound) holds for wrapped copies of a sentinel.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// Wrap creates a new AppError with the same code/message/status but wraps an internal error.
func Wrap(sentinel *AppError, internal error) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    sentinel.Message,
		StatusCode: sentinel.StatusCode,
		Internal:   internal,
	}
}

// WithMessage creates a new AppError with a custom message.
func WithMessage(sentinel *AppError, message string) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    message,
		StatusCode: sentinel.StatusCode,
		Internal:   sentinel.Internal,
	}
}

// FromStorage classifies an error returned by the database layer. Errors that
// are already AppErrors pass through untouched; deadline, cancellation and
// broken-connection errors become ErrTransient; anything else is internal.
func FromStorage(err error) error {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return err
	}
	if stderrors.Is(err, context.DeadlineExceeded) ||
		stderrors.Is(err, context.Canceled) ||
		stderrors.Is(err, driver.ErrBadConn) {
		return Wrap(ErrTransient, err)
	}
	return Wrap(ErrInternalServer, err)
}

// IsTransient reports whether err is safe to retry after a backoff.
func IsTransient(err error) bool {
	return stderrors.Is(err, ErrTransient)
}

// Code returns the AppError code carried by err, or "" for foreign errors.
func Code(err error) string {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// Authentication & authorization errors.
var (
	ErrUnauthorized = &AppError{Code: "UNAUTHORIZED", Message: "Authentication required", StatusCode: http.StatusUnauthorized}
	ErrForbidden    = &AppError{Code: "FORBIDDEN", Message: "Access denied", StatusCode: http.StatusForbidden}
)

// General errors.
var (
	ErrInvalidInput   = &AppError{Code: "INVALID_INPUT", Message: "Invalid input", StatusCode: http.StatusBadRequest}
	ErrNotFound       = &AppError{Code: "NOT_FOUND", Message: "Resource not found", StatusCode: http.StatusNotFound}
	ErrInternalServer = &AppError{Code: "INTERNAL_ERROR", Message: "An internal error occurred", StatusCode: http.StatusInternalServerError}
	ErrTransient      = &AppError{Code: "TEMPORARILY_UNAVAILABLE", Message: "Storage is temporarily unavailable, please retry", StatusCode: http.StatusServiceUnavailable}
)

// Money errors.
var (
	ErrInvalidAmount = &AppError{Code: "INVALID_AMOUNT", Message: "Invalid amount", StatusCode: http.StatusBadRequest}
)

// Account errors.
var (
	ErrAccountNotFound  = &AppError{Code: "ACCOUNT_NOT_FOUND", Message: "Account not found", StatusCode: http.StatusNotFound}
	ErrNoDefaultAccount = &AppError{Code: "NO_DEFAULT_ACCOUNT", Message: "No default account is set", StatusCode: http.StatusConflict}
)

// Transaction errors.
var (
	ErrTransactionNotFound    = &AppError{Code: "TRANSACTION_NOT_FOUND", Message: "Transaction not found", StatusCode: http.StatusNotFound}
	ErrInvalidTransactionType = &AppError{Code: "INVALID_TRANSACTION_TYPE", Message: "Transaction type must be credit or debit", StatusCode: http.StatusBadRequest}
	ErrLedgerInconsistent     = &AppError{Code: "LEDGER_INCONSISTENT", Message: "The ledger could not be updated consistently", StatusCode: http.StatusInternalServerError}
)

// Month errors.
var (
	ErrMonthNotFound     = &AppError{Code: "MONTH_NOT_FOUND", Message: "Month not found", StatusCode: http.StatusNotFound}
	ErrNoActiveMonth     = &AppError{Code: "NO_ACTIVE_MONTH", Message: "No active month found", StatusCode: http.StatusNotFound}
	ErrActiveMonthExists = &AppError{Code: "ACTIVE_MONTH_EXISTS", Message: "An active month already exists", StatusCode: http.StatusConflict}
)

// Migration errors.
var (
	ErrAlreadyMigrated = &AppError{Code: "ALREADY_MIGRATED", Message: "Migration already done or accounts exist", StatusCode: http.StatusConflict}
)

// Assistant errors.
var (
	ErrAssistantFailed = &AppError{Code: "ASSISTANT_UNAVAILABLE", Message: "Failed to generate report. Please try again later.", StatusCode: http.StatusBadGateway}
)

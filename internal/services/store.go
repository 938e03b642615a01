package services

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"finjournal/internal/events"
	apperrors "finjournal/internal/errors"
	"finjournal/internal/logger"
	"finjournal/internal/metrics"
)

// DefaultStorageTimeout bounds ledger operations when no timeout is configured.
const DefaultStorageTimeout = 5 * time.Second

// Options carries the collaborators shared by the ledger services.
type Options struct {
	// Timeout bounds every operation's storage round trips.
	Timeout time.Duration
	// Publisher receives a LedgerStale signal after each committed mutation.
	Publisher events.Publisher
}

// store bundles the database handle with the per-operation timeout and the
// invalidation hook.
type store struct {
	db        *gorm.DB
	timeout   time.Duration
	publisher events.Publisher
}

func newStore(db *gorm.DB, opts Options) store {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultStorageTimeout
	}
	if opts.Publisher == nil {
		opts.Publisher = events.Nop()
	}
	return store{db: db, timeout: opts.Timeout, publisher: opts.Publisher}
}

// read runs fn against a session bounded by the storage timeout.
func (s store) read(ctx context.Context, fn func(db *gorm.DB) error) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return classify(ctx, fn(s.db.WithContext(ctx)))
}

// atomic runs fn in a single database transaction bounded by the storage
// timeout, records the outcome under op, and on success signals that the
// owner's ledger view is stale.
func (s store) atomic(ctx context.Context, op, userID, reason string, fn func(tx *gorm.DB) error) error {
	tctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	err := classify(tctx, s.db.WithContext(tctx).Transaction(fn))
	observe(op, userID, err)
	if err != nil {
		return err
	}

	if reason != "" {
		events.Notify(ctx, s.publisher, userID, reason)
	}
	return nil
}

// classify turns raw storage errors into AppErrors. A failure after the
// deadline passed is transient regardless of how the driver reported it.
func classify(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.Wrap(apperrors.ErrNotFound, err)
	}
	if apperrors.Code(err) != "" {
		return err
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// A concurrent writer won a unique-index race; nothing was committed.
		return apperrors.Wrap(apperrors.ErrTransient, err)
	}
	if ctx.Err() != nil {
		err = apperrors.Wrap(apperrors.ErrTransient, err)
	} else {
		err = apperrors.FromStorage(err)
	}
	if apperrors.IsTransient(err) {
		metrics.StorageTimeouts.Inc()
	}
	return err
}

// observe records metrics for a finished mutation and raises an integrity
// incident for ErrLedgerInconsistent.
func observe(op, userID string, err error) {
	switch {
	case err == nil:
		metrics.ObserveOperation(op, metrics.ResultOK)
	case errors.Is(err, apperrors.ErrLedgerInconsistent):
		metrics.ObserveOperation(op, metrics.ResultError)
		metrics.LedgerInconsistencies.Inc()
		logger.Named("ledger").Errorw("ledger integrity incident",
			"incident", "ledger_integrity",
			"op", op,
			"user_id", userID,
			"error", err,
			"cause", errors.Unwrap(err),
		)
	case isServerFault(err):
		metrics.ObserveOperation(op, metrics.ResultError)
		logger.Named("ledger").Errorw("ledger operation failed", "op", op, "user_id", userID, "error", errors.Unwrap(err))
	default:
		metrics.ObserveOperation(op, metrics.ResultRejected)
	}
}

func isServerFault(err error) bool {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode >= 500
	}
	return true
}

// notFound maps gorm.ErrRecordNotFound to the given sentinel and passes
// anything else through for classification.
func notFound(err error, sentinel *apperrors.AppError) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return sentinel
	}
	return err
}

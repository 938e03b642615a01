package events

import (
	"context"
	"time"

	"finjournal/internal/logger"
)

// Notify sends a LedgerStale signal after a committed mutation. Delivery
// failures are logged and otherwise ignored: the mutation has already
// succeeded and must not be reported as failed.
func Notify(ctx context.Context, p Publisher, userID, reason string) {
	if p == nil {
		return
	}
	// The request context may be cancelled as soon as the response is written.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if err := p.LedgerStale(ctx, userID, reason); err != nil {
		logger.Named("events").Warnw("failed to publish ledger stale signal",
			"error", err,
			"user_id", userID,
			"reason", reason,
			"at", time.Now().UTC(),
		)
	}
}

// Package events signals that an owner's cached ledger views are stale.
package events

import (
	"context"
	"encoding/json"
	"time"
)

// Reasons carried by LedgerStale messages.
const (
	ReasonAccountCreated     = "account.created"
	ReasonAccountUpdated     = "account.updated"
	ReasonAccountDeleted     = "account.deleted"
	ReasonTransactionAdded   = "transaction.added"
	ReasonTransactionUpdated = "transaction.updated"
	ReasonTransactionDeleted = "transaction.deleted"
	ReasonMigrated           = "migration.completed"
	ReasonMonthOnboarded     = "month.onboarded"
	ReasonMonthUpdated       = "month.updated"
)

// Publisher delivers invalidation signals. Implementations must be safe for
// concurrent use.
type Publisher interface {
	LedgerStale(ctx context.Context, userID, reason string) error
	Close() error
}

// StaleMessage is the wire body of a LedgerStale signal.
type StaleMessage struct {
	UserID string    `json:"owner"`
	Reason string    `json:"reason"`
	At     time.Time `json:"at"`
}

// NewStaleMessage stamps a message with the current time.
func NewStaleMessage(userID, reason string) *StaleMessage {
	return &StaleMessage{UserID: userID, Reason: reason, At: time.Now().UTC()}
}

// ToJSON converts the message to JSON bytes
func (m *StaleMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// StaleMessageFromJSON decodes a message body.
func StaleMessageFromJSON(data []byte) (*StaleMessage, error) {
	var msg StaleMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

type nopPublisher struct{}

// Nop returns a Publisher that drops every signal.
func Nop() Publisher { return nopPublisher{} }

func (nopPublisher) LedgerStale(context.Context, string, string) error { return nil }
func (nopPublisher) Close() error                                       { return nil }

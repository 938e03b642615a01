package models

import (
	"time"

	"finjournal/internal/money"
)

// TransactionType represents the direction of a transaction
type TransactionType string

const (
	TransactionTypeCredit TransactionType = "credit"
	TransactionTypeDebit  TransactionType = "debit"
)

// Valid reports whether t is credit or debit.
func (t TransactionType) Valid() bool {
	return t == TransactionTypeCredit || t == TransactionTypeDebit
}

// DefaultCategory is used when a transaction is entered without one.
const DefaultCategory = "Misc"

// Transaction is a single income or expense entry. Amount is always strictly
// positive; direction is carried by Type. A nil AccountID means the
// transaction is detached and contributes to no balance.
type Transaction struct {
	Base
	UserID         string          `gorm:"type:varchar(64);not null;index;uniqueIndex:idx_transactions_idempotency" json:"user_id"`
	MonthID        string          `gorm:"type:uuid;not null;index" json:"month_id"`
	AccountID      *string         `gorm:"type:uuid;index" json:"account_id"`
	Type           TransactionType `gorm:"type:varchar(10);not null" json:"type"`
	Amount         money.Money     `gorm:"type:bigint;not null" json:"amount"`
	Description    string          `json:"description"`
	Category       string          `gorm:"not null;default:'Misc'" json:"category"`
	Date           time.Time       `gorm:"column:transaction_date;not null;index" json:"date"`
	IdempotencyKey *string         `gorm:"size:128;uniqueIndex:idx_transactions_idempotency" json:"-"`
}

// SignedDelta returns the balance effect of a transaction of the given type
// and amount: +amount for credit, -amount for debit.
func SignedDelta(t TransactionType, amount money.Money) money.Money {
	if t == TransactionTypeDebit {
		return amount.Neg()
	}
	return amount
}

// SignedDelta returns the balance effect of this transaction.
func (t *Transaction) SignedDelta() money.Money {
	return SignedDelta(t.Type, t.Amount)
}

// IsDetached reports whether the transaction is linked to no account.
func (t *Transaction) IsDetached() bool {
	return t.AccountID == nil || *t.AccountID == ""
}

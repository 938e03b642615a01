package models

import (
	"finjournal/internal/money"
)

// AccountType represents the kind of cash-holding account
type AccountType string

const (
	AccountTypeBank        AccountType = "bank"
	AccountTypeMobileMoney AccountType = "mobile_money"
	AccountTypeCash        AccountType = "cash"
	AccountTypeSavings     AccountType = "savings"
	AccountTypeOther       AccountType = "other"
)

// Valid reports whether t is one of the known account types.
func (t AccountType) Valid() bool {
	switch t {
	case AccountTypeBank, AccountTypeMobileMoney, AccountTypeCash, AccountTypeSavings, AccountTypeOther:
		return true
	}
	return false
}

// Account is a wallet whose Balance is kept equal to its opening (or manually
// overridden) value plus the signed amounts of its linked transactions.
//
// The partial unique index allows at most one default account per user.
type Account struct {
	Base
	UserID    string      `gorm:"type:varchar(64);not null;index;uniqueIndex:idx_accounts_single_default,where:is_default = true" json:"user_id"`
	Name      string      `gorm:"not null" json:"name"`
	Type      AccountType `gorm:"type:varchar(20);not null" json:"type"`
	Balance   money.Money `gorm:"type:bigint;not null;default:0" json:"balance"`
	IsDefault bool        `gorm:"not null;default:false" json:"is_default"`
	Color     *string     `gorm:"size:50" json:"color,omitempty"`
}

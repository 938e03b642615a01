package models

import "finjournal/internal/money"

// MonthStatus represents the lifecycle state of an accounting period
type MonthStatus string

const (
	MonthStatusActive MonthStatus = "active"
	MonthStatusClosed MonthStatus = "closed"
)

// Month is an accounting period. A user has at most one active month.
type Month struct {
	Base
	UserID         string      `gorm:"type:varchar(64);not null;index;uniqueIndex:idx_months_single_active,where:status = 'active'" json:"user_id"`
	Name           string      `gorm:"not null" json:"name"`
	OpeningBalance money.Money `gorm:"type:bigint;not null;default:0" json:"opening_balance"`
	ClosingBalance money.Money `gorm:"type:bigint;not null;default:0" json:"closing_balance"`
	Status         MonthStatus `gorm:"type:varchar(10);not null;default:'active'" json:"status"`
}

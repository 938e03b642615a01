package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	apperrors "finjournal/internal/errors"
	"finjournal/internal/events"
	"finjournal/internal/models"
	"finjournal/internal/money"
)

// monthService handles accounting periods.
type monthService struct {
	store
}

// NewMonthService creates a new MonthServicer.
func NewMonthService(db *gorm.DB, opts Options) MonthServicer {
	return &monthService{store: newStore(db, opts)}
}

// Onboard opens the user's first active month. monthRef is "YYYY-MM"; the
// month is named after it, e.g. "December 2025".
func (s *monthService) Onboard(ctx context.Context, userID, monthRef string, openingBalance money.Money) (*models.Month, error) {
	start, err := time.Parse("2006-01", strings.TrimSpace(monthRef))
	if err != nil {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "month must be in YYYY-MM format")
	}

	month := &models.Month{
		UserID:         userID,
		Name:           start.Format("January 2006"),
		OpeningBalance: openingBalance,
		ClosingBalance: openingBalance,
		Status:         models.MonthStatusActive,
	}

	err = s.atomic(ctx, "month.onboard", userID, events.ReasonMonthOnboarded, func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Month{}).
			Where("user_id = ? AND status = ?", userID, models.MonthStatusActive).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return apperrors.ErrActiveMonthExists
		}
		return tx.Create(month).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.ErrActiveMonthExists
		}
		return nil, err
	}

	return month, nil
}

// GetActiveMonth returns the month currently accepting transactions.
func (s *monthService) GetActiveMonth(ctx context.Context, userID string) (*models.Month, error) {
	var month *models.Month
	err := s.read(ctx, func(db *gorm.DB) error {
		var err error
		month, err = findActiveMonth(db, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return month, nil
}

// UpdateOpeningBalance sets the balance carried into the month.
func (s *monthService) UpdateOpeningBalance(ctx context.Context, userID, monthID string, openingBalance money.Money) (*models.Month, error) {
	var month models.Month
	err := s.atomic(ctx, "month.opening_balance", userID, events.ReasonMonthUpdated, func(tx *gorm.DB) error {
		result := tx.Model(&models.Month{}).
			Where("id = ? AND user_id = ?", monthID, userID).
			Update("opening_balance", openingBalance)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return apperrors.ErrMonthNotFound
		}
		return tx.Where("id = ?", monthID).First(&month).Error
	})
	if err != nil {
		return nil, err
	}
	return &month, nil
}

// GetMonthSummary returns the month's transactions in date order together
// with its credit and debit totals.
func (s *monthService) GetMonthSummary(ctx context.Context, userID, monthID string) (*MonthSummary, error) {
	summary := &MonthSummary{Transactions: []models.Transaction{}}
	err := s.read(ctx, func(db *gorm.DB) error {
		if err := db.Where("id = ? AND user_id = ?", monthID, userID).First(&summary.Month).Error; err != nil {
			return notFound(err, apperrors.ErrMonthNotFound)
		}
		return db.Where("month_id = ? AND user_id = ?", monthID, userID).
			Order("transaction_date ASC").
			Order("created_at ASC").
			Find(&summary.Transactions).Error
	})
	if err != nil {
		return nil, err
	}

	for _, t := range summary.Transactions {
		switch t.Type {
		case models.TransactionTypeCredit:
			summary.TotalCredits = summary.TotalCredits.Add(t.Amount)
		case models.TransactionTypeDebit:
			summary.TotalDebits = summary.TotalDebits.Add(t.Amount)
		}
	}
	summary.NetFlow = summary.TotalCredits.Sub(summary.TotalDebits)
	summary.CurrentBalance = summary.Month.OpeningBalance.Add(summary.NetFlow)
	return summary, nil
}

// findActiveMonth returns the user's active month or ErrNoActiveMonth.
func findActiveMonth(db *gorm.DB, userID string) (*models.Month, error) {
	var month models.Month
	err := db.Where("user_id = ? AND status = ?", userID, models.MonthStatusActive).First(&month).Error
	if err != nil {
		return nil, notFound(err, apperrors.ErrNoActiveMonth)
	}
	return &month, nil
}

// resolveMonthID returns monthID after checking ownership, or the active
// month's id when monthID is empty.
func resolveMonthID(db *gorm.DB, userID, monthID string) (string, error) {
	if monthID == "" {
		month, err := findActiveMonth(db, userID)
		if err != nil {
			return "", err
		}
		return month.ID, nil
	}

	var count int64
	if err := db.Model(&models.Month{}).Where("id = ? AND user_id = ?", monthID, userID).Count(&count).Error; err != nil {
		return "", err
	}
	if count == 0 {
		return "", apperrors.ErrMonthNotFound
	}
	return monthID, nil
}

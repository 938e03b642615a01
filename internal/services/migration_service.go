package services

import (
	"context"
	"errors"

	"gorm.io/gorm"

	apperrors "finjournal/internal/errors"
	"finjournal/internal/events"
	"finjournal/internal/models"
	"finjournal/internal/money"
)

const (
	mainAccountName  = "Main Account"
	mainAccountColor = "bg-indigo-600"
)

// migrationService bootstraps per-account balances for users of the
// single-balance model.
type migrationService struct {
	store
}

// NewMigrationService creates a new MigrationServicer.
func NewMigrationService(db *gorm.DB, opts Options) MigrationServicer {
	return &migrationService{store: newStore(db, opts)}
}

// MigrateToAccounts creates the user's default "Main Account" with the
// active month's running balance (opening + credits - debits) and links the
// month's unlinked transactions to it. The guard, the account insert and the
// backfill run in one database transaction, so an existing account always
// means the migration completed. Only the active month is backfilled.
func (s *migrationService) MigrateToAccounts(ctx context.Context, userID string) (*MigrationResult, error) {
	result := &MigrationResult{}

	err := s.atomic(ctx, "migration.bootstrap", userID, events.ReasonMigrated, func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Account{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return apperrors.ErrAlreadyMigrated
		}

		month, err := findActiveMonth(tx, userID)
		if errors.Is(err, apperrors.ErrNoActiveMonth) {
			// Nothing to migrate; start the user with an empty default account.
			result.Account = models.Account{
				UserID:    userID,
				Name:      mainAccountName,
				Type:      models.AccountTypeBank,
				Balance:   money.Zero,
				IsDefault: true,
			}
			return tx.Create(&result.Account).Error
		}
		if err != nil {
			return err
		}
		result.ActiveMonth = month

		credits, debits, err := monthTotals(tx, userID, month.ID)
		if err != nil {
			return err
		}
		result.TotalCredits = credits
		result.TotalDebits = debits

		balance := month.OpeningBalance.Add(credits).Sub(debits)
		if !balance.InRange() {
			return apperrors.WithMessage(apperrors.ErrInvalidAmount, "running balance is out of range")
		}

		color := mainAccountColor
		result.Account = models.Account{
			UserID:    userID,
			Name:      mainAccountName,
			Type:      models.AccountTypeBank,
			Balance:   balance,
			IsDefault: true,
			Color:     &color,
		}
		if err := tx.Create(&result.Account).Error; err != nil {
			return err
		}

		// Bulk link, bypassing the ledger: the balance above already counts
		// these transactions.
		linked := tx.Model(&models.Transaction{}).
			Where("user_id = ? AND month_id = ? AND account_id IS NULL", userID, month.ID).
			Update("account_id", result.Account.ID)
		if linked.Error != nil {
			return linked.Error
		}
		result.LinkedCount = linked.RowsAffected
		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// A concurrent run created the default account first.
			return nil, apperrors.ErrAlreadyMigrated
		}
		return nil, err
	}

	return result, nil
}

// PendingUsers lists owners that have at least one month but no accounts.
func (s *migrationService) PendingUsers(ctx context.Context) ([]string, error) {
	var userIDs []string
	err := s.read(ctx, func(db *gorm.DB) error {
		migrated := db.Model(&models.Account{}).Select("user_id")
		return db.Model(&models.Month{}).
			Distinct("user_id").
			Where("user_id NOT IN (?)", migrated).
			Order("user_id").
			Pluck("user_id", &userIDs).Error
	})
	if err != nil {
		return nil, err
	}
	return userIDs, nil
}

// monthTotals sums credit and debit amounts of a month's transactions in SQL,
// regardless of which account they are linked to.
func monthTotals(db *gorm.DB, userID, monthID string) (credits, debits money.Money, err error) {
	var row struct {
		Credits int64
		Debits  int64
	}
	err = db.Model(&models.Transaction{}).
		Select("CAST(COALESCE(SUM(CASE WHEN type = ? THEN amount ELSE 0 END), 0) AS BIGINT) AS credits, "+
			"CAST(COALESCE(SUM(CASE WHEN type = ? THEN amount ELSE 0 END), 0) AS BIGINT) AS debits",
			models.TransactionTypeCredit, models.TransactionTypeDebit).
		Where("user_id = ? AND month_id = ?", userID, monthID).
		Scan(&row).Error
	if err != nil {
		return money.Zero, money.Zero, err
	}
	return money.FromMinor(row.Credits), money.FromMinor(row.Debits), nil
}

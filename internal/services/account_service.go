package services

import (
	"context"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	apperrors "finjournal/internal/errors"
	"finjournal/internal/events"
	"finjournal/internal/metrics"
	"finjournal/internal/models"
	"finjournal/internal/money"
)

// accountService handles account-related business logic.
type accountService struct {
	store
}

// NewAccountService creates a new AccountServicer.
func NewAccountService(db *gorm.DB, opts Options) AccountServicer {
	return &accountService{store: newStore(db, opts)}
}

// CreateAccount creates a new account for a user. When isDefault is set, the
// previous default is cleared in the same database transaction.
func (s *accountService) CreateAccount(ctx context.Context, userID, name string, accountType models.AccountType, initialBalance money.Money, isDefault bool, color *string) (*models.Account, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "account name is required")
	}
	if accountType == "" {
		accountType = models.AccountTypeBank
	}
	if !accountType.Valid() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid account type")
	}
	if !initialBalance.InRange() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidAmount, "initial balance is out of range")
	}

	account := &models.Account{
		UserID:    userID,
		Name:      name,
		Type:      accountType,
		Balance:   initialBalance,
		IsDefault: isDefault,
		Color:     color,
	}

	err := s.atomic(ctx, "account.create", userID, events.ReasonAccountCreated, func(tx *gorm.DB) error {
		if isDefault {
			if err := clearDefault(tx, userID, ""); err != nil {
				return err
			}
		}
		return tx.Create(account).Error
	})
	if err != nil {
		return nil, err
	}

	return account, nil
}

// GetUserAccounts returns the user's accounts, default first, then oldest first.
func (s *accountService) GetUserAccounts(ctx context.Context, userID string) ([]models.Account, error) {
	accounts := []models.Account{}
	err := s.read(ctx, func(db *gorm.DB) error {
		return db.Where("user_id = ?", userID).
			Order("is_default DESC").
			Order("created_at ASC").
			Order("id ASC").
			Find(&accounts).Error
	})
	if err != nil {
		return nil, err
	}
	return accounts, nil
}

// GetAccountByID retrieves an account by ID for a specific user
func (s *accountService) GetAccountByID(ctx context.Context, userID, accountID string) (*models.Account, error) {
	var account models.Account
	err := s.read(ctx, func(db *gorm.DB) error {
		err := db.Where("id = ? AND user_id = ?", accountID, userID).First(&account).Error
		return notFound(err, apperrors.ErrAccountNotFound)
	})
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// GetDefaultAccount returns the account used when a transaction names none.
func (s *accountService) GetDefaultAccount(ctx context.Context, userID string) (*models.Account, error) {
	var account *models.Account
	err := s.read(ctx, func(db *gorm.DB) error {
		var err error
		account, err = findDefault(db, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return account, nil
}

// UpdateAccount applies the given fields. Setting IsDefault clears the flag on
// the user's other accounts within the same database transaction. Clearing it
// on the current default is refused; the owner moves it by making another
// account the default.
func (s *accountService) UpdateAccount(ctx context.Context, userID, accountID string, fields AccountUpdateFields) (*models.Account, error) {
	updates := make(map[string]interface{})

	if fields.Name != nil {
		name := strings.TrimSpace(*fields.Name)
		if name == "" {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "account name is required")
		}
		updates["name"] = name
	}
	if fields.Type != nil {
		if !fields.Type.Valid() {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid account type")
		}
		updates["type"] = *fields.Type
	}
	if fields.Balance != nil {
		updates["balance"] = *fields.Balance
	}
	if fields.Color != nil {
		updates["color"] = *fields.Color
	}
	if fields.IsDefault != nil {
		updates["is_default"] = *fields.IsDefault
	}

	var account models.Account
	err := s.atomic(ctx, "account.update", userID, events.ReasonAccountUpdated, func(tx *gorm.DB) error {
		if err := lockForUpdate(tx).Where("id = ? AND user_id = ?", accountID, userID).First(&account).Error; err != nil {
			return notFound(err, apperrors.ErrAccountNotFound)
		}
		if len(updates) == 0 {
			return nil
		}

		if fields.IsDefault != nil && !*fields.IsDefault && account.IsDefault {
			return apperrors.WithMessage(apperrors.ErrInvalidInput,
				"the default account cannot be unset; choose another default account instead")
		}
		if fields.IsDefault != nil && *fields.IsDefault {
			if err := clearDefault(tx, userID, accountID); err != nil {
				return err
			}
		}
		if err := tx.Model(&account).Where("user_id = ?", userID).Updates(updates).Error; err != nil {
			return err
		}
		// Reload to get fresh data
		return tx.Where("id = ?", accountID).First(&account).Error
	})
	if err != nil {
		return nil, err
	}

	return &account, nil
}

// DeleteAccount detaches the account's transactions, keeping their history,
// and then removes the account.
func (s *accountService) DeleteAccount(ctx context.Context, userID, accountID string) error {
	return s.atomic(ctx, "account.delete", userID, events.ReasonAccountDeleted, func(tx *gorm.DB) error {
		var account models.Account
		if err := lockForUpdate(tx).Where("id = ? AND user_id = ?", accountID, userID).First(&account).Error; err != nil {
			return notFound(err, apperrors.ErrAccountNotFound)
		}

		if err := tx.Model(&models.Transaction{}).
			Where("user_id = ? AND account_id = ?", userID, accountID).
			Update("account_id", nil).Error; err != nil {
			return err
		}

		result := tx.Where("id = ? AND user_id = ?", accountID, userID).Delete(&models.Account{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return apperrors.ErrAccountNotFound
		}
		return nil
	})
}

// AdjustBalance adds delta to the stored balance with a single
// "balance = balance + ?" statement, so concurrent deltas never overwrite
// each other. A result outside ±money.MaxMinor is refused with
// ErrInvalidAmount. It must run inside the caller's transaction.
func (s *accountService) AdjustBalance(tx *gorm.DB, userID, accountID string, delta money.Money) error {
	if !delta.InRange() {
		return apperrors.WithMessage(apperrors.ErrInvalidAmount, "amount is out of range")
	}
	minor := delta.Minor()
	result := tx.Model(&models.Account{}).
		Where("id = ? AND user_id = ?", accountID, userID).
		Where("balance + ? BETWEEN ? AND ?", minor, -money.MaxMinor, money.MaxMinor).
		Update("balance", gorm.Expr("balance + ?", minor))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		var count int64
		if err := tx.Model(&models.Account{}).Where("id = ? AND user_id = ?", accountID, userID).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return apperrors.WithMessage(apperrors.ErrInvalidAmount, "balance would leave the supported range")
		}
		return apperrors.ErrAccountNotFound
	}

	metrics.BalanceDelta.Observe(float64(delta.Abs().Minor()))
	return nil
}

// clearDefault unsets the default flag on the user's accounts, except keepID.
func clearDefault(tx *gorm.DB, userID, keepID string) error {
	q := tx.Model(&models.Account{}).Where("user_id = ? AND is_default = ?", userID, true)
	if keepID != "" {
		q = q.Where("id <> ?", keepID)
	}
	return q.Update("is_default", false).Error
}

// findDefault returns the user's default account or ErrNoDefaultAccount.
func findDefault(db *gorm.DB, userID string) (*models.Account, error) {
	var account models.Account
	if err := db.Where("user_id = ? AND is_default = ?", userID, true).First(&account).Error; err != nil {
		return nil, notFound(err, apperrors.ErrNoDefaultAccount)
	}
	return &account, nil
}

// lockForUpdate takes row locks on dialects that support SELECT ... FOR UPDATE.
// SQLite serializes writers at the database level instead.
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "postgres" {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}

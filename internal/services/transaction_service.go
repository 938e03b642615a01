package services

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"

	apperrors "finjournal/internal/errors"
	"finjournal/internal/events"
	"finjournal/internal/models"
	"finjournal/internal/money"
	"finjournal/internal/pagination"
)

// transactionService handles transaction-related business logic. Every
// mutation writes the transaction row and the balance deltas it implies in
// one database transaction.
type transactionService struct {
	store
	accountService AccountServicer
}

// NewTransactionService creates a new TransactionServicer.
func NewTransactionService(db *gorm.DB, accountService AccountServicer, opts Options) TransactionServicer {
	return &transactionService{
		store:          newStore(db, opts),
		accountService: accountService,
	}
}

// CreateTransaction records a transaction and credits or debits its account.
// A repeated call with the same idempotency key returns the original
// transaction without applying its delta again.
func (s *transactionService) CreateTransaction(ctx context.Context, userID string, input TransactionInput) (*models.Transaction, error) {
	if !input.Type.Valid() {
		return nil, apperrors.ErrInvalidTransactionType
	}
	if !input.Amount.IsPositive() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidAmount, "amount must be greater than zero")
	}

	category := strings.TrimSpace(input.Category)
	if category == "" {
		category = models.DefaultCategory
	}
	date := input.Date
	if date.IsZero() {
		date = today()
	}

	transaction := &models.Transaction{
		UserID:      userID,
		Type:        input.Type,
		Amount:      input.Amount,
		Description: strings.TrimSpace(input.Description),
		Category:    category,
		Date:        date,
	}
	if input.IdempotencyKey != "" {
		key := input.IdempotencyKey
		transaction.IdempotencyKey = &key
	}

	var replayed *models.Transaction
	err := s.atomic(ctx, "transaction.add", userID, events.ReasonTransactionAdded, func(tx *gorm.DB) error {
		if transaction.IdempotencyKey != nil {
			existing, err := findByIdempotencyKey(tx, userID, *transaction.IdempotencyKey)
			if err != nil {
				return err
			}
			if existing != nil {
				if !matchesInput(existing, input) {
					return errIdempotencyMismatch
				}
				replayed = existing
				return nil
			}
		}

		monthID, err := resolveMonthID(tx, userID, input.MonthID)
		if err != nil {
			return err
		}
		transaction.MonthID = monthID

		accountID := input.AccountID
		if accountID == "" {
			account, err := findDefault(tx, userID)
			if err != nil {
				return err
			}
			accountID = account.ID
		}
		transaction.AccountID = &accountID

		// The increment doubles as the ownership check: it matches no row
		// unless the account exists and belongs to userID.
		if err := s.accountService.AdjustBalance(tx, userID, accountID, transaction.SignedDelta()); err != nil {
			return err
		}

		return tx.Create(transaction).Error
	})
	if err != nil {
		if transaction.IdempotencyKey != nil && errors.Is(err, gorm.ErrDuplicatedKey) {
			// A concurrent request with the same key won the race.
			return s.replay(ctx, userID, input)
		}
		return nil, err
	}

	if replayed != nil {
		return replayed, nil
	}
	return transaction, nil
}

func (s *transactionService) replay(ctx context.Context, userID string, input TransactionInput) (*models.Transaction, error) {
	var existing *models.Transaction
	err := s.read(ctx, func(db *gorm.DB) error {
		var err error
		existing, err = findByIdempotencyKey(db, userID, input.IdempotencyKey)
		if err == nil && existing == nil {
			err = apperrors.ErrTransactionNotFound
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	if !matchesInput(existing, input) {
		return nil, errIdempotencyMismatch
	}
	return existing, nil
}

var errIdempotencyMismatch = apperrors.WithMessage(apperrors.ErrInvalidInput,
	"idempotency key reused with a different payload")

// matchesInput reports whether a retried add describes the stored
// transaction. Account and month are compared only when the retry names them.
func matchesInput(existing *models.Transaction, input TransactionInput) bool {
	if existing.Type != input.Type || !existing.Amount.Equal(input.Amount) {
		return false
	}
	if input.AccountID != "" && (existing.AccountID == nil || *existing.AccountID != input.AccountID) {
		return false
	}
	if input.MonthID != "" && existing.MonthID != input.MonthID {
		return false
	}
	return true
}

// GetUserTransactions retrieves a paginated, filtered list of the user's
// transactions, newest first.
func (s *transactionService) GetUserTransactions(ctx context.Context, userID string, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error) {
	page.Normalize()

	var totalItems int64
	var transactions []models.Transaction
	err := s.read(ctx, func(db *gorm.DB) error {
		base := db.Model(&models.Transaction{}).Where("user_id = ?", userID)
		base = applyTransactionFilters(base, filter)

		if err := base.Count(&totalItems).Error; err != nil {
			return err
		}
		return base.Scopes(pagination.Scope(page, "transaction_date DESC", "created_at DESC")).
			Find(&transactions).Error
	})
	if err != nil {
		return nil, err
	}

	result := pagination.NewPageResponse(transactions, page.Page, page.PageSize, totalItems)
	return &result, nil
}

func applyTransactionFilters(q *gorm.DB, f TransactionFilter) *gorm.DB {
	if f.MonthID != nil {
		q = q.Where("month_id = ?", *f.MonthID)
	}
	if f.AccountID != nil {
		q = q.Where("account_id = ?", *f.AccountID)
	}
	if f.Type != nil {
		q = q.Where("type = ?", *f.Type)
	}
	if f.FromDate != nil {
		q = q.Where("transaction_date >= ?", *f.FromDate)
	}
	if f.ToDate != nil {
		q = q.Where("transaction_date <= ?", *f.ToDate)
	}
	return q
}

// GetTransactionByID retrieves a transaction by ID for a specific user
func (s *transactionService) GetTransactionByID(ctx context.Context, userID, transactionID string) (*models.Transaction, error) {
	var transaction models.Transaction
	err := s.read(ctx, func(db *gorm.DB) error {
		err := db.Where("id = ? AND user_id = ?", transactionID, userID).First(&transaction).Error
		return notFound(err, apperrors.ErrTransactionNotFound)
	})
	if err != nil {
		return nil, err
	}
	return &transaction, nil
}

// UpdateTransaction rewrites a transaction in place. The old state's delta is
// reversed on the old account and the new state's delta applied to the new
// account; when both are the same account only the net delta is applied.
func (s *transactionService) UpdateTransaction(ctx context.Context, userID, transactionID string, fields TransactionUpdateFields) (*models.Transaction, error) {
	if fields.Type != nil && !fields.Type.Valid() {
		return nil, apperrors.ErrInvalidTransactionType
	}
	if fields.Amount != nil && !fields.Amount.IsPositive() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidAmount, "amount must be greater than zero")
	}

	var transaction models.Transaction
	err := s.atomic(ctx, "transaction.update", userID, events.ReasonTransactionUpdated, func(tx *gorm.DB) error {
		if err := lockForUpdate(tx).Where("id = ? AND user_id = ?", transactionID, userID).First(&transaction).Error; err != nil {
			return notFound(err, apperrors.ErrTransactionNotFound)
		}

		old := transaction
		next := transaction
		if fields.AccountID != nil {
			if *fields.AccountID == "" {
				next.AccountID = nil
			} else {
				id := *fields.AccountID
				next.AccountID = &id
			}
		}
		if fields.Type != nil {
			next.Type = *fields.Type
		}
		if fields.Amount != nil {
			next.Amount = *fields.Amount
		}
		if fields.Description != nil {
			next.Description = strings.TrimSpace(*fields.Description)
		}
		if fields.Category != nil {
			next.Category = strings.TrimSpace(*fields.Category)
			if next.Category == "" {
				next.Category = models.DefaultCategory
			}
		}
		if fields.Date != nil && !fields.Date.IsZero() {
			next.Date = *fields.Date
		}

		plan := newDeltaPlan()
		if !old.IsDetached() {
			plan.reverse(*old.AccountID, old.SignedDelta())
		}
		if !next.IsDetached() {
			plan.forward(*next.AccountID, next.SignedDelta())
		}
		if err := plan.apply(tx, s.accountService, userID); err != nil {
			return err
		}

		updates := map[string]interface{}{
			"account_id":       next.AccountID,
			"type":             next.Type,
			"amount":           next.Amount,
			"description":      next.Description,
			"category":         next.Category,
			"transaction_date": next.Date,
		}
		if err := tx.Model(&transaction).Where("user_id = ?", userID).Updates(updates).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", transactionID).First(&transaction).Error
	})
	if err != nil {
		return nil, err
	}

	return &transaction, nil
}

// DeleteTransaction removes a transaction and reverses its balance effect.
func (s *transactionService) DeleteTransaction(ctx context.Context, userID, transactionID string) error {
	return s.atomic(ctx, "transaction.delete", userID, events.ReasonTransactionDeleted, func(tx *gorm.DB) error {
		var transaction models.Transaction
		if err := lockForUpdate(tx).Where("id = ? AND user_id = ?", transactionID, userID).First(&transaction).Error; err != nil {
			return notFound(err, apperrors.ErrTransactionNotFound)
		}

		if !transaction.IsDetached() {
			plan := newDeltaPlan()
			plan.reverse(*transaction.AccountID, transaction.SignedDelta())
			if err := plan.apply(tx, s.accountService, userID); err != nil {
				return err
			}
		}

		result := tx.Where("id = ? AND user_id = ?", transactionID, userID).Delete(&models.Transaction{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return apperrors.ErrTransactionNotFound
		}
		return nil
	})
}

// deltaPlan collects the per-account balance changes of one ledger mutation.
// Reversals target accounts the transaction is currently linked to, so a
// missing account there means the ledger was already inconsistent.
type deltaPlan struct {
	deltas   map[string]money.Money
	reversed map[string]bool
}

func newDeltaPlan() *deltaPlan {
	return &deltaPlan{deltas: map[string]money.Money{}, reversed: map[string]bool{}}
}

func (p *deltaPlan) reverse(accountID string, signed money.Money) {
	p.deltas[accountID] = p.deltas[accountID].Sub(signed)
	p.reversed[accountID] = true
}

func (p *deltaPlan) forward(accountID string, signed money.Money) {
	p.deltas[accountID] = p.deltas[accountID].Add(signed)
}

// apply adjusts balances in account-id order so that concurrent mutations
// touching the same pair of accounts take row locks in the same order.
func (p *deltaPlan) apply(tx *gorm.DB, accounts AccountServicer, userID string) error {
	ids := make([]string, 0, len(p.deltas))
	for id := range p.deltas {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		delta := p.deltas[id]
		if delta.IsZero() {
			continue
		}
		err := accounts.AdjustBalance(tx, userID, id, delta)
		if err == nil {
			continue
		}
		if p.reversed[id] && errors.Is(err, apperrors.ErrAccountNotFound) {
			return apperrors.Wrap(apperrors.ErrLedgerInconsistent, err)
		}
		return err
	}
	return nil
}

// findByIdempotencyKey returns nil, nil when no transaction carries the key.
func findByIdempotencyKey(db *gorm.DB, userID, key string) (*models.Transaction, error) {
	var existing models.Transaction
	err := db.Where("user_id = ? AND idempotency_key = ?", userID, key).Limit(1).Find(&existing).Error
	if err != nil {
		return nil, err
	}
	if existing.ID == "" {
		return nil, nil
	}
	return &existing, nil
}

// today returns the current UTC date at midnight.
func today() time.Time {
	return time.Now().UTC().Truncate(24 * time.Hour)
}

package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"finjournal/internal/models"
	"finjournal/internal/money"

	"gorm.io/gorm"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// NewUserID returns a unique owner id shaped like an identity-provider subject.
func NewUserID() string {
	return fmt.Sprintf("user-%d", nextID())
}

// CreateTestMonth creates an active month with the given opening balance.
func CreateTestMonth(t *testing.T, db *gorm.DB, userID string, opening money.Money) *models.Month {
	t.Helper()
	return CreateTestMonthWithStatus(t, db, userID, opening, models.MonthStatusActive)
}

// CreateTestMonthWithStatus creates a month in the given lifecycle state.
func CreateTestMonthWithStatus(t *testing.T, db *gorm.DB, userID string, opening money.Money, status models.MonthStatus) *models.Month {
	t.Helper()

	month := &models.Month{
		UserID:         userID,
		Name:           time.Now().Format("2006-01"),
		OpeningBalance: opening,
		ClosingBalance: opening,
		Status:         status,
	}
	if err := db.Create(month).Error; err != nil {
		t.Fatalf("failed to create test month: %v", err)
	}
	return month
}

// CreateTestAccount creates a bank account with zero balance.
func CreateTestAccount(t *testing.T, db *gorm.DB, userID string) *models.Account {
	t.Helper()
	return CreateTestAccountWithBalance(t, db, userID, money.Zero)
}

// CreateTestAccountWithBalance creates a non-default bank account with the given balance.
func CreateTestAccountWithBalance(t *testing.T, db *gorm.DB, userID string, balance money.Money) *models.Account {
	t.Helper()

	account := &models.Account{
		UserID:  userID,
		Name:    fmt.Sprintf("Test Account %d", nextID()),
		Type:    models.AccountTypeBank,
		Balance: balance,
	}
	if err := db.Create(account).Error; err != nil {
		t.Fatalf("failed to create test account: %v", err)
	}
	return account
}

// CreateTestDefaultAccount creates the user's default account.
func CreateTestDefaultAccount(t *testing.T, db *gorm.DB, userID string, balance money.Money) *models.Account {
	t.Helper()

	account := &models.Account{
		UserID:    userID,
		Name:      "Main Account",
		Type:      models.AccountTypeBank,
		Balance:   balance,
		IsDefault: true,
	}
	if err := db.Create(account).Error; err != nil {
		t.Fatalf("failed to create default test account: %v", err)
	}
	return account
}

// CreateTestTransaction inserts a transaction row directly, without touching
// any balance. Pass an empty accountID for a detached transaction.
func CreateTestTransaction(t *testing.T, db *gorm.DB, userID, monthID, accountID string, txType models.TransactionType, amount money.Money) *models.Transaction {
	t.Helper()

	tx := &models.Transaction{
		UserID:   userID,
		MonthID:  monthID,
		Type:     txType,
		Amount:   amount,
		Category: models.DefaultCategory,
		Date:     time.Now().UTC().Truncate(24 * time.Hour),
	}
	if accountID != "" {
		tx.AccountID = &accountID
	}
	if err := db.Create(tx).Error; err != nil {
		t.Fatalf("failed to create test transaction: %v", err)
	}
	return tx
}

// ReloadAccount fetches the current persisted state of an account.
func ReloadAccount(t *testing.T, db *gorm.DB, id string) *models.Account {
	t.Helper()

	var account models.Account
	if err := db.First(&account, "id = ?", id).Error; err != nil {
		t.Fatalf("failed to reload account %s: %v", id, err)
	}
	return &account
}

// AssertBalance fails the test unless the persisted balance of the account
// equals want (e.g. "2800.00").
func AssertBalance(t *testing.T, db *gorm.DB, accountID string, want string) {
	t.Helper()

	got := ReloadAccount(t, db, accountID).Balance
	if !got.Equal(money.MustParse(want)) {
		t.Errorf("account %s: expected balance %s, got %s", accountID, want, got)
	}
}

package services

import (
	"context"
	"time"

	"gorm.io/gorm"

	"finjournal/internal/models"
	"finjournal/internal/money"
	"finjournal/internal/pagination"
)

// AccountUpdateFields holds optional fields for updating an account.
// Nil pointers mean "leave unchanged".
type AccountUpdateFields struct {
	Name *string
	Type *models.AccountType
	// Balance is a manual override of the stored balance.
	Balance   *money.Money
	IsDefault *bool
	Color     *string
}

// AccountServicer defines the contract for account-related business logic.
type AccountServicer interface {
	CreateAccount(ctx context.Context, userID, name string, accountType models.AccountType, initialBalance money.Money, isDefault bool, color *string) (*models.Account, error)
	GetUserAccounts(ctx context.Context, userID string) ([]models.Account, error)
	GetAccountByID(ctx context.Context, userID, accountID string) (*models.Account, error)
	GetDefaultAccount(ctx context.Context, userID string) (*models.Account, error)
	UpdateAccount(ctx context.Context, userID, accountID string, fields AccountUpdateFields) (*models.Account, error)
	DeleteAccount(ctx context.Context, userID, accountID string) error
	// AdjustBalance atomically adds delta to the stored balance inside tx.
	AdjustBalance(tx *gorm.DB, userID, accountID string, delta money.Money) error
}

// TransactionInput holds the fields of a new transaction. Empty MonthID and
// AccountID select the active month and the default account.
type TransactionInput struct {
	MonthID        string
	AccountID      string
	Type           models.TransactionType
	Amount         money.Money
	Description    string
	Category       string
	Date           time.Time
	IdempotencyKey string
}

// TransactionUpdateFields holds optional fields for updating a transaction.
// A non-nil AccountID pointing at "" detaches the transaction.
type TransactionUpdateFields struct {
	AccountID   *string
	Type        *models.TransactionType
	Amount      *money.Money
	Description *string
	Category    *string
	Date        *time.Time
}

// TransactionFilter holds optional filter parameters for listing transactions.
type TransactionFilter struct {
	MonthID   *string
	AccountID *string
	Type      *models.TransactionType
	FromDate  *time.Time
	ToDate    *time.Time
}

// TransactionServicer defines the contract for transaction-related business logic.
type TransactionServicer interface {
	CreateTransaction(ctx context.Context, userID string, input TransactionInput) (*models.Transaction, error)
	GetUserTransactions(ctx context.Context, userID string, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error)
	GetTransactionByID(ctx context.Context, userID, transactionID string) (*models.Transaction, error)
	UpdateTransaction(ctx context.Context, userID, transactionID string, fields TransactionUpdateFields) (*models.Transaction, error)
	DeleteTransaction(ctx context.Context, userID, transactionID string) error
}

// MonthSummary aggregates a month's transactions for display and reports.
type MonthSummary struct {
	Month          models.Month         `json:"month"`
	Transactions   []models.Transaction `json:"transactions"`
	TotalCredits   money.Money          `json:"total_credits"`
	TotalDebits    money.Money          `json:"total_debits"`
	NetFlow        money.Money          `json:"net_flow"`
	CurrentBalance money.Money          `json:"current_balance"`
}

// MonthServicer defines the contract for accounting-period logic.
type MonthServicer interface {
	Onboard(ctx context.Context, userID, monthRef string, openingBalance money.Money) (*models.Month, error)
	GetActiveMonth(ctx context.Context, userID string) (*models.Month, error)
	UpdateOpeningBalance(ctx context.Context, userID, monthID string, openingBalance money.Money) (*models.Month, error)
	GetMonthSummary(ctx context.Context, userID, monthID string) (*MonthSummary, error)
}

// MigrationResult describes the account created by a bootstrap run.
type MigrationResult struct {
	Account      models.Account `json:"account"`
	LinkedCount  int64          `json:"linked_transactions"`
	ActiveMonth  *models.Month  `json:"active_month,omitempty"`
	TotalCredits money.Money    `json:"total_credits"`
	TotalDebits  money.Money    `json:"total_debits"`
}

// MigrationServicer bootstraps per-account balances from the single-balance model.
type MigrationServicer interface {
	MigrateToAccounts(ctx context.Context, userID string) (*MigrationResult, error)
	// PendingUsers lists owners that have months but no accounts yet.
	PendingUsers(ctx context.Context) ([]string, error)
}

// Report is a generated narrative for one month.
type Report struct {
	MonthID  string `json:"month_id"`
	Month    string `json:"month"`
	Markdown string `json:"markdown"`
}

// ReportServicer produces narrative month reports.
type ReportServicer interface {
	GenerateReport(ctx context.Context, userID, monthID string) (*Report, error)
}

// AuditServicer defines the contract for audit logging.
type AuditServicer interface {
	Log(ctx context.Context, entry AuditEntry)
}

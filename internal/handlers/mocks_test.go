package handlers

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"finjournal/internal/assistant"
	"finjournal/internal/models"
	"finjournal/internal/money"
	"finjournal/internal/pagination"
	"finjournal/internal/services"
	"finjournal/internal/validator"
)

const (
	testUserID    = "user-1"
	testAccountID = "0190f5b2-7c1e-7000-8000-0000000000a1"
	testTxID      = "0190f5b2-7c1e-7000-8000-0000000000b1"
	testMonthID   = "0190f5b2-7c1e-7000-8000-0000000000c1"
)

// --- mock services ---

type mockAccountService struct {
	createAccountFn   func(userID, name string, accountType models.AccountType, initialBalance money.Money, isDefault bool, color *string) (*models.Account, error)
	getUserAccountsFn func(userID string) ([]models.Account, error)
	getAccountByIDFn  func(userID, accountID string) (*models.Account, error)
	updateAccountFn   func(userID, accountID string, fields services.AccountUpdateFields) (*models.Account, error)
	deleteAccountFn   func(userID, accountID string) error
}

func (m *mockAccountService) CreateAccount(_ context.Context, userID, name string, accountType models.AccountType, initialBalance money.Money, isDefault bool, color *string) (*models.Account, error) {
	if m.createAccountFn != nil {
		return m.createAccountFn(userID, name, accountType, initialBalance, isDefault, color)
	}
	return &models.Account{}, nil
}

func (m *mockAccountService) GetUserAccounts(_ context.Context, userID string) ([]models.Account, error) {
	if m.getUserAccountsFn != nil {
		return m.getUserAccountsFn(userID)
	}
	return []models.Account{}, nil
}

func (m *mockAccountService) GetAccountByID(_ context.Context, userID, accountID string) (*models.Account, error) {
	if m.getAccountByIDFn != nil {
		return m.getAccountByIDFn(userID, accountID)
	}
	return &models.Account{}, nil
}

func (m *mockAccountService) GetDefaultAccount(context.Context, string) (*models.Account, error) {
	return &models.Account{}, nil
}

func (m *mockAccountService) UpdateAccount(_ context.Context, userID, accountID string, fields services.AccountUpdateFields) (*models.Account, error) {
	if m.updateAccountFn != nil {
		return m.updateAccountFn(userID, accountID, fields)
	}
	return &models.Account{}, nil
}

func (m *mockAccountService) DeleteAccount(_ context.Context, userID, accountID string) error {
	if m.deleteAccountFn != nil {
		return m.deleteAccountFn(userID, accountID)
	}
	return nil
}

func (m *mockAccountService) AdjustBalance(*gorm.DB, string, string, money.Money) error {
	return nil
}

type mockTransactionService struct {
	createTransactionFn   func(userID string, input services.TransactionInput) (*models.Transaction, error)
	getUserTransactionsFn func(userID string, page pagination.PageRequest, filter services.TransactionFilter) (*pagination.PageResponse[models.Transaction], error)
	getTransactionByIDFn  func(userID, transactionID string) (*models.Transaction, error)
	updateTransactionFn   func(userID, transactionID string, fields services.TransactionUpdateFields) (*models.Transaction, error)
	deleteTransactionFn   func(userID, transactionID string) error
}

func (m *mockTransactionService) CreateTransaction(_ context.Context, userID string, input services.TransactionInput) (*models.Transaction, error) {
	if m.createTransactionFn != nil {
		return m.createTransactionFn(userID, input)
	}
	return &models.Transaction{}, nil
}

func (m *mockTransactionService) GetUserTransactions(_ context.Context, userID string, page pagination.PageRequest, filter services.TransactionFilter) (*pagination.PageResponse[models.Transaction], error) {
	if m.getUserTransactionsFn != nil {
		return m.getUserTransactionsFn(userID, page, filter)
	}
	resp := pagination.NewPageResponse([]models.Transaction{}, 1, 20, 0)
	return &resp, nil
}

func (m *mockTransactionService) GetTransactionByID(_ context.Context, userID, transactionID string) (*models.Transaction, error) {
	if m.getTransactionByIDFn != nil {
		return m.getTransactionByIDFn(userID, transactionID)
	}
	return &models.Transaction{}, nil
}

func (m *mockTransactionService) UpdateTransaction(_ context.Context, userID, transactionID string, fields services.TransactionUpdateFields) (*models.Transaction, error) {
	if m.updateTransactionFn != nil {
		return m.updateTransactionFn(userID, transactionID, fields)
	}
	return &models.Transaction{}, nil
}

func (m *mockTransactionService) DeleteTransaction(_ context.Context, userID, transactionID string) error {
	if m.deleteTransactionFn != nil {
		return m.deleteTransactionFn(userID, transactionID)
	}
	return nil
}

type mockMonthService struct {
	onboardFn              func(userID, monthRef string, openingBalance money.Money) (*models.Month, error)
	getActiveMonthFn       func(userID string) (*models.Month, error)
	updateOpeningBalanceFn func(userID, monthID string, openingBalance money.Money) (*models.Month, error)
	getMonthSummaryFn      func(userID, monthID string) (*services.MonthSummary, error)
}

func (m *mockMonthService) Onboard(_ context.Context, userID, monthRef string, openingBalance money.Money) (*models.Month, error) {
	if m.onboardFn != nil {
		return m.onboardFn(userID, monthRef, openingBalance)
	}
	return &models.Month{}, nil
}

func (m *mockMonthService) GetActiveMonth(_ context.Context, userID string) (*models.Month, error) {
	if m.getActiveMonthFn != nil {
		return m.getActiveMonthFn(userID)
	}
	return &models.Month{}, nil
}

func (m *mockMonthService) UpdateOpeningBalance(_ context.Context, userID, monthID string, openingBalance money.Money) (*models.Month, error) {
	if m.updateOpeningBalanceFn != nil {
		return m.updateOpeningBalanceFn(userID, monthID, openingBalance)
	}
	return &models.Month{}, nil
}

func (m *mockMonthService) GetMonthSummary(_ context.Context, userID, monthID string) (*services.MonthSummary, error) {
	if m.getMonthSummaryFn != nil {
		return m.getMonthSummaryFn(userID, monthID)
	}
	return &services.MonthSummary{Transactions: []models.Transaction{}}, nil
}

type mockReportService struct {
	generateReportFn func(userID, monthID string) (*services.Report, error)
}

func (m *mockReportService) GenerateReport(_ context.Context, userID, monthID string) (*services.Report, error) {
	if m.generateReportFn != nil {
		return m.generateReportFn(userID, monthID)
	}
	return &services.Report{}, nil
}

type mockMigrationService struct {
	migrateFn func(userID string) (*services.MigrationResult, error)
}

func (m *mockMigrationService) MigrateToAccounts(_ context.Context, userID string) (*services.MigrationResult, error) {
	if m.migrateFn != nil {
		return m.migrateFn(userID)
	}
	return &services.MigrationResult{}, nil
}

func (m *mockMigrationService) PendingUsers(context.Context) ([]string, error) {
	return nil, nil
}

type mockAuditService struct {
	mu      sync.Mutex
	entries []services.AuditEntry
}

func (m *mockAuditService) Log(_ context.Context, entry services.AuditEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, entry)
}

func (m *mockAuditService) actions() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for _, e := range m.entries {
		out = append(out, e.Action)
	}
	return out
}

type stubParser struct {
	draft *assistant.Draft
}

func (p *stubParser) Parse(_ context.Context, text string) (*assistant.Draft, error) {
	if p.draft != nil {
		return p.draft, nil
	}
	return &assistant.Draft{Type: models.TransactionTypeDebit, Description: text, Category: models.DefaultCategory}, nil
}

// verify interface compliance
var (
	_ services.AccountServicer     = (*mockAccountService)(nil)
	_ services.TransactionServicer = (*mockTransactionService)(nil)
	_ services.MonthServicer       = (*mockMonthService)(nil)
	_ services.ReportServicer      = (*mockReportService)(nil)
	_ services.MigrationServicer   = (*mockMigrationService)(nil)
	_ services.AuditServicer       = (*mockAuditService)(nil)
	_ assistant.Parser             = (*stubParser)(nil)
)

// --- test helpers ---

func init() {
	gin.SetMode(gin.TestMode)
	validator.Register()
}

func injectUserID(uid string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("userID", uid)
		c.Next()
	}
}

func doRequest(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	return doRequestWithHeaders(r, method, path, body, nil)
}

func doRequestWithHeaders(r *gin.Engine, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON response: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

func assertErrorCode(t *testing.T, result map[string]interface{}, code string) {
	t.Helper()
	errObj, ok := result["error"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected error object in response, got: %v", result)
	}
	if errObj["code"] != code {
		t.Errorf("expected error code %q, got %q", code, errObj["code"])
	}
}

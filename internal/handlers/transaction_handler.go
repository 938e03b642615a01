package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"finjournal/internal/assistant"
	apperrors "finjournal/internal/errors"
	"finjournal/internal/models"
	"finjournal/internal/money"
	"finjournal/internal/pagination"
	"finjournal/internal/services"
)

const (
	idempotencyHeader    = "Idempotency-Key"
	maxIdempotencyKeyLen = 128
)

// TransactionHandler handles transaction-related requests.
type TransactionHandler struct {
	transactionService services.TransactionServicer
	auditService       services.AuditServicer
	parser             assistant.Parser
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(transactionService services.TransactionServicer, auditService services.AuditServicer, parser assistant.Parser) *TransactionHandler {
	return &TransactionHandler{transactionService: transactionService, auditService: auditService, parser: parser}
}

// CreateTransactionRequest represents the request payload for creating a transaction.
// Empty month_id and account_id select the active month and the default account.
type CreateTransactionRequest struct {
	MonthID     string                 `json:"month_id"`
	AccountID   string                 `json:"account_id"`
	Type        models.TransactionType `json:"type" binding:"required,transaction_type"`
	Amount      *money.Money           `json:"amount" binding:"required" swaggertype:"number"`
	Description string                 `json:"description" binding:"max=500"`
	Category    string                 `json:"category" binding:"max=50"`
	Date        *string                `json:"date"`
}

// UpdateTransactionRequest represents the request payload for updating a transaction.
// An empty account_id detaches the transaction from its account.
type UpdateTransactionRequest struct {
	AccountID   *string                 `json:"account_id"`
	Type        *models.TransactionType `json:"type" binding:"omitempty,transaction_type"`
	Amount      *money.Money            `json:"amount" swaggertype:"number"`
	Description *string                 `json:"description" binding:"omitempty,max=500"`
	Category    *string                 `json:"category" binding:"omitempty,max=50"`
	Date        *string                 `json:"date"`
}

// ParseTransactionRequest carries free text such as "spent 4,500 on lunch".
type ParseTransactionRequest struct {
	Text string `json:"text" binding:"required,min=1,max=500"`
}

// TransactionEnvelope wraps a single transaction.
type TransactionEnvelope struct {
	Transaction models.Transaction `json:"transaction"`
}

// DraftResponse wraps a parsed, unconfirmed transaction.
type DraftResponse struct {
	Draft assistant.Draft `json:"draft"`
}

// CreateTransaction handles the creation of a new transaction
// @Summary     Create a transaction
// @Description Record a credit or debit and apply it to the account balance in the same database transaction. Repeating a request with the same Idempotency-Key returns the original transaction.
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       Idempotency-Key header string                   false "Client-chosen key, unique per user"
// @Param       request         body   CreateTransactionRequest true  "Transaction details"
// @Success     201 {object} TransactionEnvelope "Transaction created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Account or month not found"
// @Failure     409 {object} ErrorResponse "No default account"
// @Failure     503 {object} ErrorResponse "Storage temporarily unavailable"
// @Router      /transactions [post]
func (h *TransactionHandler) CreateTransaction(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	input := services.TransactionInput{
		Type:        req.Type,
		Amount:      *req.Amount,
		Description: req.Description,
		Category:    req.Category,
	}
	if input.MonthID, err = parseOptionalID("month_id", req.MonthID); err != nil {
		respondWithError(c, err)
		return
	}
	if input.AccountID, err = parseOptionalID("account_id", req.AccountID); err != nil {
		respondWithError(c, err)
		return
	}
	if req.Date != nil && *req.Date != "" {
		parsed, parseErr := parseFlexibleTime(*req.Date)
		if parseErr != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, parseErr.Error()))
			return
		}
		input.Date = parsed
	}

	key := strings.TrimSpace(c.GetHeader(idempotencyHeader))
	if len(key) > maxIdempotencyKeyLen {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "Idempotency-Key is too long"))
		return
	}
	input.IdempotencyKey = key

	transaction, err := h.transactionService.CreateTransaction(c.Request.Context(), userID, input)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(c.Request.Context(), services.AuditEntry{
		UserID:       userID,
		Action:       "CREATE_TRANSACTION",
		ResourceType: "transaction",
		ResourceID:   transaction.ID,
		IPAddress:    c.ClientIP(),
		Changes:      map[string]any{"type": transaction.Type, "amount": transaction.Amount.String(), "account_id": transaction.AccountID},
	})

	c.JSON(http.StatusCreated, TransactionEnvelope{Transaction: *transaction})
}

// ParseTransaction handles turning free text into a draft transaction
// @Summary     Parse free text
// @Description Extract a draft transaction from free text. The draft is not recorded; the client confirms it through POST /transactions.
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body ParseTransactionRequest true "Free text"
// @Success     200 {object} DraftResponse "Draft transaction"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /transactions/parse [post]
func (h *TransactionHandler) ParseTransaction(c *gin.Context) {
	if _, err := getUserID(c); err != nil {
		respondWithError(c, err)
		return
	}

	var req ParseTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	draft, err := h.parser.Parse(c.Request.Context(), req.Text)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, DraftResponse{Draft: *draft})
}

// GetUserTransactions handles the retrieval of all transactions for the authenticated user
// @Summary     Get user transactions
// @Description Get a paginated list of the user's transactions, newest first, with optional filters
// @Tags        transactions
// @Produce     json
// @Security    BearerAuth
// @Param       page       query int    false "Page number (default 1)"
// @Param       page_size  query int    false "Items per page (default 20, max 100)"
// @Param       month_id   query string false "Filter by month ID"
// @Param       account_id query string false "Filter by account ID"
// @Param       type       query string false "Filter by transaction type (credit, debit)"
// @Param       from_date  query string false "Filter by start date (RFC3339 e.g. 2024-01-01T00:00:00Z, or YYYY-MM-DD)"
// @Param       to_date    query string false "Filter by end date (RFC3339 or YYYY-MM-DD)"
// @Success     200 {object} pagination.PageResponse[models.Transaction] "Paginated transactions"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Router      /transactions [get]
func (h *TransactionHandler) GetUserTransactions(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	filter, err := parseTransactionFilter(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.transactionService.GetUserTransactions(c.Request.Context(), userID, page, filter)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func parseTransactionFilter(c *gin.Context) (services.TransactionFilter, error) {
	var filter services.TransactionFilter

	for _, param := range []struct {
		name string
		dst  **string
	}{
		{"month_id", &filter.MonthID},
		{"account_id", &filter.AccountID},
	} {
		id, err := parseOptionalID(param.name, c.Query(param.name))
		if err != nil {
			return filter, err
		}
		if id != "" {
			*param.dst = &id
		}
	}

	if v := c.Query("from_date"); v != "" {
		t, err := parseFlexibleTime(v)
		if err != nil {
			return filter, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid from_date format, use RFC3339 or YYYY-MM-DD")
		}
		filter.FromDate = &t
	}

	if v := c.Query("to_date"); v != "" {
		t, err := parseFlexibleTime(v)
		if err != nil {
			return filter, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid to_date format, use RFC3339 or YYYY-MM-DD")
		}
		filter.ToDate = &t
	}

	if v := c.Query("type"); v != "" {
		txType := models.TransactionType(v)
		if !txType.Valid() {
			return filter, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid type, must be credit or debit")
		}
		filter.Type = &txType
	}

	return filter, nil
}

// GetTransactionByID handles the retrieval of a specific transaction
// @Summary     Get transaction by ID
// @Tags        transactions
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Transaction ID"
// @Success     200 {object} TransactionEnvelope "Transaction details"
// @Failure     400 {object} ErrorResponse "Invalid transaction ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Router      /transactions/{id} [get]
func (h *TransactionHandler) GetTransactionByID(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	transactionID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	transaction, err := h.transactionService.GetTransactionByID(c.Request.Context(), userID, transactionID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, TransactionEnvelope{Transaction: *transaction})
}

// UpdateTransaction handles updating an existing transaction
// @Summary     Update transaction
// @Description Update a transaction. The old balance effect is reversed and the new one applied atomically; moving between accounts adjusts both.
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string                   true "Transaction ID"
// @Param       request body UpdateTransactionRequest true "Fields to update"
// @Success     200 {object} TransactionEnvelope "Updated transaction"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Transaction or account not found"
// @Failure     500 {object} ErrorResponse "Ledger inconsistent"
// @Router      /transactions/{id} [put]
func (h *TransactionHandler) UpdateTransaction(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	txID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	updateFields := services.TransactionUpdateFields{
		Type:        req.Type,
		Amount:      req.Amount,
		Description: req.Description,
		Category:    req.Category,
	}

	if req.AccountID != nil {
		id, idErr := parseOptionalID("account_id", *req.AccountID)
		if idErr != nil {
			respondWithError(c, idErr)
			return
		}
		updateFields.AccountID = &id
	}

	if req.Date != nil && *req.Date != "" {
		parsed, parseErr := parseFlexibleTime(*req.Date)
		if parseErr != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, parseErr.Error()))
			return
		}
		updateFields.Date = &parsed
	}

	transaction, err := h.transactionService.UpdateTransaction(c.Request.Context(), userID, txID, updateFields)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(c.Request.Context(), services.AuditEntry{
		UserID:       userID,
		Action:       "UPDATE_TRANSACTION",
		ResourceType: "transaction",
		ResourceID:   txID,
		IPAddress:    c.ClientIP(),
	})

	c.JSON(http.StatusOK, TransactionEnvelope{Transaction: *transaction})
}

// DeleteTransaction handles the deletion of a transaction
// @Summary     Delete transaction
// @Description Delete a transaction and reverse its effect on the account balance
// @Tags        transactions
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Transaction ID"
// @Success     200 {object} MessageResponse "Transaction deleted"
// @Failure     400 {object} ErrorResponse "Invalid transaction ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Failure     500 {object} ErrorResponse "Ledger inconsistent"
// @Router      /transactions/{id} [delete]
func (h *TransactionHandler) DeleteTransaction(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	transactionID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.transactionService.DeleteTransaction(c.Request.Context(), userID, transactionID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(c.Request.Context(), services.AuditEntry{
		UserID:       userID,
		Action:       "DELETE_TRANSACTION",
		ResourceType: "transaction",
		ResourceID:   transactionID,
		IPAddress:    c.ClientIP(),
	})

	c.JSON(http.StatusOK, MessageResponse{Message: "Transaction deleted successfully"})
}

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"finjournal/internal/models"
	"finjournal/internal/money"
	"finjournal/internal/services"
)

// AccountHandler handles account-related requests.
type AccountHandler struct {
	accountService services.AccountServicer
	auditService   services.AuditServicer
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(accountService services.AccountServicer, auditService services.AuditServicer) *AccountHandler {
	return &AccountHandler{accountService: accountService, auditService: auditService}
}

// CreateAccountRequest represents the request payload for creating an account
type CreateAccountRequest struct {
	Name           string             `json:"name" binding:"required,min=1,max=100"`
	Type           models.AccountType `json:"type" binding:"omitempty,account_type"`
	InitialBalance money.Money        `json:"initial_balance" swaggertype:"number"`
	IsDefault      bool               `json:"is_default"`
	Color          *string            `json:"color" binding:"omitempty,max=50"`
}

// UpdateAccountRequest represents the request payload for updating an account.
// Omitted fields are left unchanged; balance overrides the stored balance.
type UpdateAccountRequest struct {
	Name      *string             `json:"name" binding:"omitempty,min=1,max=100"`
	Type      *models.AccountType `json:"type" binding:"omitempty,account_type"`
	Balance   *money.Money        `json:"balance" swaggertype:"number"`
	IsDefault *bool               `json:"is_default"`
	Color     *string             `json:"color" binding:"omitempty,max=50"`
}

// AccountEnvelope wraps a single account.
type AccountEnvelope struct {
	Account models.Account `json:"account"`
}

// AccountListResponse wraps the user's accounts.
type AccountListResponse struct {
	Accounts []models.Account `json:"accounts"`
}

// CreateAccount handles the creation of a new account
// @Summary     Create an account
// @Description Create a cash-holding account. Setting is_default moves the default flag from the previous default account.
// @Tags        accounts
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateAccountRequest true "Account details"
// @Success     201 {object} AccountEnvelope "Account created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     503 {object} ErrorResponse "Storage temporarily unavailable"
// @Router      /accounts [post]
func (h *AccountHandler) CreateAccount(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	account, err := h.accountService.CreateAccount(c.Request.Context(), userID,
		req.Name, req.Type, req.InitialBalance, req.IsDefault, req.Color)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(c.Request.Context(), services.AuditEntry{
		UserID:       userID,
		Action:       "CREATE_ACCOUNT",
		ResourceType: "account",
		ResourceID:   account.ID,
		IPAddress:    c.ClientIP(),
		Changes:      map[string]any{"name": account.Name, "balance": account.Balance.String(), "is_default": account.IsDefault},
	})

	c.JSON(http.StatusCreated, AccountEnvelope{Account: *account})
}

// GetUserAccounts handles listing the user's accounts
// @Summary     List accounts
// @Description List the authenticated user's accounts, default account first, then oldest first
// @Tags        accounts
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} AccountListResponse "Accounts"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     503 {object} ErrorResponse "Storage temporarily unavailable"
// @Router      /accounts [get]
func (h *AccountHandler) GetUserAccounts(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	accounts, err := h.accountService.GetUserAccounts(c.Request.Context(), userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, AccountListResponse{Accounts: accounts})
}

// GetAccountByID handles the retrieval of a specific account
// @Summary     Get account by ID
// @Tags        accounts
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Account ID"
// @Success     200 {object} AccountEnvelope "Account details"
// @Failure     400 {object} ErrorResponse "Invalid account ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Account not found"
// @Router      /accounts/{id} [get]
func (h *AccountHandler) GetAccountByID(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	accountID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	account, err := h.accountService.GetAccountByID(c.Request.Context(), userID, accountID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, AccountEnvelope{Account: *account})
}

// UpdateAccount handles updating an account
// @Summary     Update account
// @Description Update name, type, color or default flag, or override the stored balance
// @Tags        accounts
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string               true "Account ID"
// @Param       request body UpdateAccountRequest true "Fields to update"
// @Success     200 {object} AccountEnvelope "Updated account"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Account not found"
// @Router      /accounts/{id} [put]
func (h *AccountHandler) UpdateAccount(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	accountID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	account, err := h.accountService.UpdateAccount(c.Request.Context(), userID, accountID, services.AccountUpdateFields{
		Name:      req.Name,
		Type:      req.Type,
		Balance:   req.Balance,
		IsDefault: req.IsDefault,
		Color:     req.Color,
	})
	if err != nil {
		respondWithError(c, err)
		return
	}

	changes := map[string]any{}
	if req.Balance != nil {
		changes["balance"] = req.Balance.String()
	}
	if req.IsDefault != nil {
		changes["is_default"] = *req.IsDefault
	}
	h.auditService.Log(c.Request.Context(), services.AuditEntry{
		UserID:       userID,
		Action:       "UPDATE_ACCOUNT",
		ResourceType: "account",
		ResourceID:   accountID,
		IPAddress:    c.ClientIP(),
		Changes:      changes,
	})

	c.JSON(http.StatusOK, AccountEnvelope{Account: *account})
}

// DeleteAccount handles deleting an account
// @Summary     Delete account
// @Description Delete an account. Its transactions are kept and detached.
// @Tags        accounts
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Account ID"
// @Success     200 {object} MessageResponse "Account deleted"
// @Failure     400 {object} ErrorResponse "Invalid account ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Account not found"
// @Router      /accounts/{id} [delete]
func (h *AccountHandler) DeleteAccount(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	accountID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.accountService.DeleteAccount(c.Request.Context(), userID, accountID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(c.Request.Context(), services.AuditEntry{
		UserID:       userID,
		Action:       "DELETE_ACCOUNT",
		ResourceType: "account",
		ResourceID:   accountID,
		IPAddress:    c.ClientIP(),
	})

	c.JSON(http.StatusOK, MessageResponse{Message: "Account deleted successfully"})
}

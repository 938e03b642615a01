package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"finjournal/internal/models"
	"finjournal/internal/money"
	"finjournal/internal/services"
)

// MigrationHandler exposes the one-time bootstrap to per-account balances.
type MigrationHandler struct {
	migrationService services.MigrationServicer
	auditService     services.AuditServicer
}

// NewMigrationHandler creates a new MigrationHandler.
func NewMigrationHandler(migrationService services.MigrationServicer, auditService services.AuditServicer) *MigrationHandler {
	return &MigrationHandler{migrationService: migrationService, auditService: auditService}
}

// MigrationResponse describes the default account created by the bootstrap.
type MigrationResponse struct {
	Message      string         `json:"message"`
	Account      models.Account `json:"account"`
	LinkedCount  int64          `json:"linked_transactions"`
	TotalCredits money.Money    `json:"total_credits" swaggertype:"number"`
	TotalDebits  money.Money    `json:"total_debits" swaggertype:"number"`
}

// MigrateToAccounts handles bootstrapping the user's default account
// @Summary     Migrate to accounts
// @Description Create the default "Main Account" holding the active month's running balance and link the month's transactions to it. Runs at most once per user.
// @Tags        migration
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} MigrationResponse "Migration completed"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     409 {object} ErrorResponse "Already migrated"
// @Failure     503 {object} ErrorResponse "Storage temporarily unavailable"
// @Router      /migrate/accounts [post]
func (h *MigrationHandler) MigrateToAccounts(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.migrationService.MigrateToAccounts(c.Request.Context(), userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(c.Request.Context(), services.AuditEntry{
		UserID:       userID,
		Action:       "MIGRATE_TO_ACCOUNTS",
		ResourceType: "account",
		ResourceID:   result.Account.ID,
		IPAddress:    c.ClientIP(),
		Changes:      map[string]any{"balance": result.Account.Balance.String(), "linked": result.LinkedCount},
	})

	c.JSON(http.StatusOK, MigrationResponse{
		Message:      "Migration successful",
		Account:      result.Account,
		LinkedCount:  result.LinkedCount,
		TotalCredits: result.TotalCredits,
		TotalDebits:  result.TotalDebits,
	})
}

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"finjournal/internal/assistant"
	"finjournal/internal/models"
	"finjournal/internal/money"
	"finjournal/internal/services"
)

// MonthHandler handles accounting periods and their reports.
type MonthHandler struct {
	monthService  services.MonthServicer
	reportService services.ReportServicer
	auditService  services.AuditServicer
}

// NewMonthHandler creates a new MonthHandler.
func NewMonthHandler(monthService services.MonthServicer, reportService services.ReportServicer, auditService services.AuditServicer) *MonthHandler {
	return &MonthHandler{monthService: monthService, reportService: reportService, auditService: auditService}
}

// OnboardRequest opens the user's first month.
type OnboardRequest struct {
	Month          string       `json:"month" binding:"required,month_ref" example:"2025-12"`
	OpeningBalance *money.Money `json:"opening_balance" binding:"required" swaggertype:"number"`
}

// OpeningBalanceRequest sets the balance carried into a month.
type OpeningBalanceRequest struct {
	OpeningBalance *money.Money `json:"opening_balance" binding:"required" swaggertype:"number"`
}

// MonthEnvelope wraps a single month.
type MonthEnvelope struct {
	Month models.Month `json:"month"`
}

// SummaryResponse is a month with its transactions and totals.
type SummaryResponse struct {
	Month          models.Month         `json:"month"`
	Transactions   []models.Transaction `json:"transactions"`
	TotalCredits   money.Money          `json:"total_credits" swaggertype:"number"`
	TotalDebits    money.Money          `json:"total_debits" swaggertype:"number"`
	NetFlow        money.Money          `json:"net_flow" swaggertype:"number"`
	CurrentBalance money.Money          `json:"current_balance" swaggertype:"number"`
}

// ReportResponse carries a generated report as markdown and rendered HTML.
type ReportResponse struct {
	MonthID  string `json:"month_id"`
	Month    string `json:"month"`
	Markdown string `json:"markdown"`
	HTML     string `json:"html"`
}

// Onboard handles opening the first active month
// @Summary     Onboard
// @Description Open the user's first active month with an opening balance
// @Tags        months
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body OnboardRequest true "Month (YYYY-MM) and opening balance"
// @Success     201 {object} MonthEnvelope "Month created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     409 {object} ErrorResponse "An active month already exists"
// @Router      /months/onboard [post]
func (h *MonthHandler) Onboard(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req OnboardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	month, err := h.monthService.Onboard(c.Request.Context(), userID, req.Month, *req.OpeningBalance)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(c.Request.Context(), services.AuditEntry{
		UserID:       userID,
		Action:       "ONBOARD",
		ResourceType: "month",
		ResourceID:   month.ID,
		IPAddress:    c.ClientIP(),
		Changes:      map[string]any{"opening_balance": month.OpeningBalance.String()},
	})

	c.JSON(http.StatusCreated, MonthEnvelope{Month: *month})
}

// GetActiveMonth handles retrieving the month accepting transactions
// @Summary     Active month
// @Tags        months
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} MonthEnvelope "Active month"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "No active month"
// @Router      /months/active [get]
func (h *MonthHandler) GetActiveMonth(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	month, err := h.monthService.GetActiveMonth(c.Request.Context(), userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, MonthEnvelope{Month: *month})
}

// UpdateOpeningBalance handles changing a month's opening balance
// @Summary     Update opening balance
// @Description Set the balance carried into the month. Account balances are not changed.
// @Tags        months
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string                true "Month ID"
// @Param       request body OpeningBalanceRequest true "Opening balance"
// @Success     200 {object} MonthEnvelope "Updated month"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Month not found"
// @Router      /months/{id}/opening-balance [put]
func (h *MonthHandler) UpdateOpeningBalance(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	monthID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req OpeningBalanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, bindError(err))
		return
	}

	month, err := h.monthService.UpdateOpeningBalance(c.Request.Context(), userID, monthID, *req.OpeningBalance)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(c.Request.Context(), services.AuditEntry{
		UserID:       userID,
		Action:       "UPDATE_OPENING_BALANCE",
		ResourceType: "month",
		ResourceID:   monthID,
		IPAddress:    c.ClientIP(),
		Changes:      map[string]any{"opening_balance": month.OpeningBalance.String()},
	})

	c.JSON(http.StatusOK, MonthEnvelope{Month: *month})
}

// GetMonthSummary handles retrieving a month's transactions and totals
// @Summary     Month summary
// @Tags        months
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Month ID"
// @Success     200 {object} SummaryResponse "Month summary"
// @Failure     400 {object} ErrorResponse "Invalid month ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Month not found"
// @Router      /months/{id}/summary [get]
func (h *MonthHandler) GetMonthSummary(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	monthID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	summary, err := h.monthService.GetMonthSummary(c.Request.Context(), userID, monthID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, SummaryResponse{
		Month:          summary.Month,
		Transactions:   summary.Transactions,
		TotalCredits:   summary.TotalCredits,
		TotalDebits:    summary.TotalDebits,
		NetFlow:        summary.NetFlow,
		CurrentBalance: summary.CurrentBalance,
	})
}

// GenerateReport handles narrating a month
// @Summary     Generate report
// @Description Generate a narrative report for the month as markdown and HTML
// @Tags        months
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Month ID"
// @Success     200 {object} ReportResponse "Report"
// @Failure     400 {object} ErrorResponse "Invalid month ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Month not found"
// @Failure     502 {object} ErrorResponse "Report generation failed"
// @Router      /months/{id}/report [post]
func (h *MonthHandler) GenerateReport(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	monthID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	report, err := h.reportService.GenerateReport(c.Request.Context(), userID, monthID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	html, err := assistant.RenderHTML(report.Markdown)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, ReportResponse{
		MonthID:  report.MonthID,
		Month:    report.Month,
		Markdown: report.Markdown,
		HTML:     html,
	})
}

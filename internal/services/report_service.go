package services

import (
	"context"

	"finjournal/internal/assistant"
)

// reportService feeds month summaries to the narrative reporter.
type reportService struct {
	monthService MonthServicer
	reporter     assistant.Reporter
}

// NewReportService creates a new ReportServicer.
func NewReportService(monthService MonthServicer, reporter assistant.Reporter) ReportServicer {
	return &reportService{monthService: monthService, reporter: reporter}
}

// GenerateReport narrates one of the user's months.
func (s *reportService) GenerateReport(ctx context.Context, userID, monthID string) (*Report, error) {
	summary, err := s.monthService.GetMonthSummary(ctx, userID, monthID)
	if err != nil {
		return nil, err
	}

	markdown, err := s.reporter.Report(ctx, assistant.ReportInput{
		MonthName:      summary.Month.Name,
		OpeningBalance: summary.Month.OpeningBalance,
		Transactions:   summary.Transactions,
		TotalCredits:   summary.TotalCredits,
		TotalDebits:    summary.TotalDebits,
	})
	if err != nil {
		return nil, err
	}

	return &Report{MonthID: summary.Month.ID, Month: summary.Month.Name, Markdown: markdown}, nil
}

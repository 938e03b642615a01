package assistant

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"

	apperrors "finjournal/internal/errors"
	"finjournal/internal/models"
	"finjournal/internal/money"
)

// EmptyReport is returned for a month without transactions.
const EmptyReport = "No transactions found for this month yet. Start spending (or saving) to see insights!"

// ReportInput is the read-only view of a month handed to the reporter.
// Transactions must be in date order.
type ReportInput struct {
	MonthName      string
	OpeningBalance money.Money
	Transactions   []models.Transaction
	TotalCredits   money.Money
	TotalDebits    money.Money
}

// Reporter writes a narrative Markdown report for a month.
type Reporter interface {
	Report(ctx context.Context, in ReportInput) (string, error)
}

type reporter struct {
	gen      Generator
	currency string
}

// NewReporter returns a Reporter backed by gen, formatting amounts in the
// given ISO currency.
func NewReporter(gen Generator, currency string) Reporter {
	return &reporter{gen: gen, currency: currency}
}

func (r *reporter) Report(ctx context.Context, in ReportInput) (string, error) {
	if len(in.Transactions) == 0 {
		return EmptyReport, nil
	}
	if r.gen == nil {
		return "", apperrors.WithMessage(apperrors.ErrAssistantFailed, "report generation is not configured")
	}

	out, err := r.gen.Generate(ctx, r.prompt(in), false)
	if err != nil {
		return "", apperrors.Wrap(apperrors.ErrAssistantFailed, err)
	}
	return out, nil
}

func (r *reporter) prompt(in ReportInput) string {
	var lines strings.Builder
	for _, t := range in.Transactions {
		fmt.Fprintf(&lines, "- %s: %s %s for %s (%s)\n",
			t.Date.Format(dateLayout),
			strings.ToUpper(string(t.Type)),
			t.Amount.Format(r.currency),
			t.Description,
			t.Category,
		)
	}

	return fmt.Sprintf(`Analyze the following financial transactions for the month of %q.
Opening Balance: %s
Total Income: %s
Total Spent: %s

Transactions:
%s
Please provide a concise but insightful financial report in Markdown format.
Include:
1. **Overview**: Total spent vs Total income (Net flow).
2. **Spending Habits**: What are the top 2-3 categories taking the most money?
3. **Observations**: Any unusual or large expenses? Recurring patterns?
4. **Recommendation**: One actionable tip for next month based on this data.

Keep the tone friendly, encouraging, but professional. Use emojis sparingly.
Currency: %s.
`,
		in.MonthName,
		in.OpeningBalance.Format(r.currency),
		in.TotalCredits.Format(r.currency),
		in.TotalDebits.Format(r.currency),
		lines.String(),
		r.currency,
	)
}

// RenderHTML converts a Markdown report to HTML.
func RenderHTML(markdown string) (string, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(markdown), &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return buf.String(), nil
}

package assistant

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"finjournal/internal/models"
	"finjournal/internal/money"
	"finjournal/internal/testutil"
)

type fakeGenerator struct {
	out      string
	err      error
	prompts  []string
	jsonMode bool
}

func (f *fakeGenerator) Generate(_ context.Context, prompt string, jsonMode bool) (string, error) {
	f.prompts = append(f.prompts, prompt)
	f.jsonMode = jsonMode
	return f.out, f.err
}

func fixedParser(gen Generator) *parser {
	return &parser{gen: gen, now: func() time.Time {
		return time.Date(2025, 12, 14, 9, 0, 0, 0, time.UTC)
	}}
}

func TestParse(t *testing.T) {
	t.Run("model_output", func(t *testing.T) {
		gen := &fakeGenerator{out: `{"type":"debit","amount":4500,"description":"Bolt Ride","category":"Transport","date":"2025-12-13"}`}
		draft, err := fixedParser(gen).Parse(context.Background(), "Paid 4500 for bolt")
		testutil.AssertNoError(t, err)

		if !gen.jsonMode {
			t.Error("expected JSON mode")
		}
		if !strings.Contains(gen.prompts[0], `"Paid 4500 for bolt"`) {
			t.Error("expected prompt to quote the input text")
		}
		if draft.Type != models.TransactionTypeDebit || !draft.Amount.Equal(money.New(4500)) {
			t.Errorf("unexpected draft %+v", draft)
		}
		if draft.Description != "Bolt Ride" || draft.Category != "Transport" || draft.Date != "2025-12-13" {
			t.Errorf("unexpected draft %+v", draft)
		}
	})

	t.Run("fenced_output_and_defaults", func(t *testing.T) {
		gen := &fakeGenerator{out: "```json\n{\"type\":\"income\",\"amount\":\"50000\"}\n```"}
		draft, err := fixedParser(gen).Parse(context.Background(), "Received 50k from Ubong")
		testutil.AssertNoError(t, err)

		if draft.Type != models.TransactionTypeDebit {
			t.Errorf("expected unknown type to default to debit, got %s", draft.Type)
		}
		if !draft.Amount.Equal(money.New(50000)) {
			t.Errorf("expected 50000, got %s", draft.Amount)
		}
		if draft.Description != "Unknown transaction" || draft.Category != models.DefaultCategory {
			t.Errorf("unexpected defaults %+v", draft)
		}
		if draft.Date != "2025-12-14" {
			t.Errorf("expected today's date, got %s", draft.Date)
		}
	})

	t.Run("negative_amount_dropped", func(t *testing.T) {
		gen := &fakeGenerator{out: `{"type":"credit","amount":-300}`}
		draft, err := fixedParser(gen).Parse(context.Background(), "refund")
		testutil.AssertNoError(t, err)
		if !draft.Amount.IsZero() {
			t.Errorf("expected negative amount to be discarded, got %s", draft.Amount)
		}
	})

	t.Run("model_error_falls_back", func(t *testing.T) {
		gen := &fakeGenerator{err: errors.New("quota exceeded")}
		draft, err := fixedParser(gen).Parse(context.Background(), "Bought airtime for 2,000.50 naira today")
		testutil.AssertNoError(t, err)

		if !draft.Amount.Equal(money.MustParse("2000.50")) {
			t.Errorf("expected 2000.50, got %s", draft.Amount)
		}
		if draft.Description != "Bought airtime for 2" {
			t.Errorf("expected first 20 characters, got %q", draft.Description)
		}
		if draft.Type != models.TransactionTypeDebit || draft.Category != models.DefaultCategory {
			t.Errorf("unexpected fallback draft %+v", draft)
		}
	})

	t.Run("invalid_json_falls_back", func(t *testing.T) {
		gen := &fakeGenerator{out: "sure! here you go"}
		draft, err := fixedParser(gen).Parse(context.Background(), "lunch 1500")
		testutil.AssertNoError(t, err)
		if !draft.Amount.Equal(money.New(1500)) {
			t.Errorf("expected 1500, got %s", draft.Amount)
		}
	})

	t.Run("no_generator", func(t *testing.T) {
		draft, err := NewParser(nil).Parse(context.Background(), "no numbers here")
		testutil.AssertNoError(t, err)
		if !draft.Amount.IsZero() {
			t.Errorf("expected zero amount, got %s", draft.Amount)
		}
	})

	t.Run("fallback_rounds_extra_decimals", func(t *testing.T) {
		draft := fallbackDraft("paid 10.456", "2025-12-14")
		if !draft.Amount.Equal(money.MustParse("10.46")) {
			t.Errorf("expected 10.46, got %s", draft.Amount)
		}
	})
}

func TestReport(t *testing.T) {
	t.Run("empty_month_skips_model", func(t *testing.T) {
		gen := &fakeGenerator{out: "should not be used"}
		out, err := NewReporter(gen, "NGN").Report(context.Background(), ReportInput{MonthName: "December 2025"})
		testutil.AssertNoError(t, err)
		if out != EmptyReport {
			t.Errorf("unexpected report %q", out)
		}
		if len(gen.prompts) != 0 {
			t.Error("expected no model call for an empty month")
		}
	})

	t.Run("prompt_contains_figures", func(t *testing.T) {
		gen := &fakeGenerator{out: "## Overview\nAll good."}
		in := ReportInput{
			MonthName:      "December 2025",
			OpeningBalance: money.New(10000),
			TotalCredits:   money.New(5000),
			TotalDebits:    money.New(2500),
			Transactions: []models.Transaction{
				{Type: models.TransactionTypeCredit, Amount: money.New(5000), Description: "Salary", Category: "Salary",
					Date: time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC)},
				{Type: models.TransactionTypeDebit, Amount: money.New(2500), Description: "Bolt", Category: "Transport",
					Date: time.Date(2025, 12, 2, 0, 0, 0, 0, time.UTC)},
			},
		}

		out, err := NewReporter(gen, "NGN").Report(context.Background(), in)
		testutil.AssertNoError(t, err)
		if out != "## Overview\nAll good." {
			t.Errorf("unexpected report %q", out)
		}
		if gen.jsonMode {
			t.Error("reports are free text, not JSON")
		}

		prompt := gen.prompts[0]
		for _, want := range []string{
			`"December 2025"`,
			"Opening Balance: ₦10,000.00",
			"- 2025-12-01: CREDIT ₦5,000.00 for Salary (Salary)",
			"- 2025-12-02: DEBIT ₦2,500.00 for Bolt (Transport)",
		} {
			if !strings.Contains(prompt, want) {
				t.Errorf("prompt missing %q:\n%s", want, prompt)
			}
		}
	})

	t.Run("model_failure", func(t *testing.T) {
		gen := &fakeGenerator{err: errors.New("timeout")}
		in := ReportInput{Transactions: []models.Transaction{{Type: models.TransactionTypeDebit, Amount: money.New(1)}}}
		_, err := NewReporter(gen, "NGN").Report(context.Background(), in)
		testutil.AssertAppError(t, err, "ASSISTANT_UNAVAILABLE")
	})

	t.Run("not_configured", func(t *testing.T) {
		in := ReportInput{Transactions: []models.Transaction{{Type: models.TransactionTypeDebit, Amount: money.New(1)}}}
		_, err := NewReporter(nil, "NGN").Report(context.Background(), in)
		testutil.AssertAppError(t, err, "ASSISTANT_UNAVAILABLE")
	})
}

func TestRenderHTML(t *testing.T) {
	html, err := RenderHTML("## Overview\n\n**Net flow** is positive.")
	testutil.AssertNoError(t, err)
	if !strings.Contains(html, "<h2>Overview</h2>") || !strings.Contains(html, "<strong>Net flow</strong>") {
		t.Errorf("unexpected HTML %q", html)
	}
}

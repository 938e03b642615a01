package assistant

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"finjournal/internal/logger"
	"finjournal/internal/models"
	"finjournal/internal/money"
)

// Draft is a best-effort reading of free text. It is untrusted: callers
// must validate it like any manually entered transaction.
type Draft struct {
	Type        models.TransactionType `json:"type"`
	Amount      money.Money            `json:"amount"`
	Description string                 `json:"description"`
	Category    string                 `json:"category"`
	Date        string                 `json:"date"`
}

// Parser turns free text such as "Paid 4500 for bolt" into a Draft.
type Parser interface {
	Parse(ctx context.Context, text string) (*Draft, error)
}

const dateLayout = "2006-01-02"

var amountPattern = regexp.MustCompile(`(\d+(?:,\d{3})*(?:\.\d+)?)`)

type parser struct {
	gen Generator
	now func() time.Time
}

// NewParser returns a Parser backed by gen. A nil gen, or any model failure,
// falls back to extracting the first number in the text as a debit.
func NewParser(gen Generator) Parser {
	return &parser{gen: gen, now: time.Now}
}

func (p *parser) Parse(ctx context.Context, text string) (*Draft, error) {
	text = strings.TrimSpace(text)
	today := p.now().Format(dateLayout)

	if p.gen != nil {
		draft, err := p.parseWithModel(ctx, text, today)
		if err == nil {
			return draft, nil
		}
		logger.Named("assistant").Warnw("model parsing failed, using fallback", "error", err)
	}

	return fallbackDraft(text, today), nil
}

func (p *parser) parseWithModel(ctx context.Context, text, today string) (*Draft, error) {
	out, err := p.gen.Generate(ctx, parsePrompt(text, today), true)
	if err != nil {
		return nil, err
	}

	var raw struct {
		Type        string      `json:"type"`
		Amount      json.Number `json:"amount"`
		Description string      `json:"description"`
		Category    string      `json:"category"`
		Date        string      `json:"date"`
	}
	if err := json.Unmarshal([]byte(stripFence(out)), &raw); err != nil {
		return nil, fmt.Errorf("decode model output: %w", err)
	}

	draft := &Draft{
		Type:        models.TransactionType(strings.ToLower(raw.Type)),
		Description: strings.TrimSpace(raw.Description),
		Category:    strings.TrimSpace(raw.Category),
		Date:        raw.Date,
	}
	if !draft.Type.Valid() {
		draft.Type = models.TransactionTypeDebit
	}
	if f, err := raw.Amount.Float64(); err == nil {
		if m, err := money.FromFloat(f); err == nil && !m.IsNegative() {
			draft.Amount = m
		}
	}
	if draft.Description == "" {
		draft.Description = "Unknown transaction"
	}
	if draft.Category == "" {
		draft.Category = models.DefaultCategory
	}
	if _, err := time.Parse(dateLayout, draft.Date); err != nil {
		draft.Date = today
	}
	return draft, nil
}

// fallbackDraft reads the first number in text as a debit amount.
func fallbackDraft(text, today string) *Draft {
	draft := &Draft{
		Type:        models.TransactionTypeDebit,
		Description: truncate(text, 20),
		Category:    models.DefaultCategory,
		Date:        today,
	}
	if match := amountPattern.FindString(text); match != "" {
		if m, err := money.Parse(match); err == nil {
			draft.Amount = m
		} else if f, ok := parseLoose(match); ok {
			draft.Amount = f
		}
	}
	return draft
}

// parseLoose handles matches with more than two decimals by rounding.
func parseLoose(s string) (money.Money, bool) {
	d, err := decimal.NewFromString(strings.ReplaceAll(s, ",", ""))
	if err != nil {
		return money.Zero, false
	}
	m, err := money.FromDecimal(d.Round(money.Scale))
	return m, err == nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// stripFence removes a ```json fence some models wrap around JSON output.
func stripFence(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func parsePrompt(text, today string) string {
	return fmt.Sprintf(`You are a financial assistant parsing transaction texts for a user in Nigeria.
Extract transaction details from the following text: %q

Return a JSON object with:
- type: "credit" (income/deposit) or "debit" (expense/withdrawal).
- amount: number (numeric value only, no currency symbols).
- description: string. Extract the VENDOR (e.g., Spotify, Uber, Bolt) or the PURPOSE (e.g., Airtime, Food). Do NOT include generic phrases like "debited for", "paid to". Keep it short and title case.
- category: string (one of: Food, Transport, Subscriptions, Family, Data/Airtime, Salary, Business, Shopping. Use "Misc" if none fit).
- date: string (YYYY-MM-DD format). Default to %q if no specific date is mentioned.

Examples:
- "Paid 4500 for bolt" -> {"type": "debit", "amount": 4500, "description": "Bolt Ride", "category": "Transport"}
- "got debited 800 for my spotify sub" -> {"type": "debit", "amount": 800, "description": "Spotify Subscription", "category": "Subscriptions"}
- "Received 50k from Ubong" -> {"type": "credit", "amount": 50000, "description": "From Ubong", "category": "Salary"}
- "Bought airtime 2k" -> {"type": "debit", "amount": 2000, "description": "Airtime Purchase", "category": "Data/Airtime"}
`, text, today)
}

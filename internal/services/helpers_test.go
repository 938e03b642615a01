package services

import (
	"context"
	"sync"
	"testing"

	"gorm.io/gorm"

	"finjournal/internal/models"
	"finjournal/internal/money"
)

// recordingPublisher captures LedgerStale signals.
type recordingPublisher struct {
	mu      sync.Mutex
	signals []recordedSignal
}

type recordedSignal struct {
	userID string
	reason string
}

func (p *recordingPublisher) LedgerStale(_ context.Context, userID, reason string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.signals = append(p.signals, recordedSignal{userID: userID, reason: reason})
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) reasonsFor(userID string) []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var reasons []string
	for _, s := range p.signals {
		if s.userID == userID {
			reasons = append(reasons, s.reason)
		}
	}
	return reasons
}

// assertLedgerConsistent checks that every account of the user holds its
// starting balance plus the signed amounts of its linked transactions.
func assertLedgerConsistent(t *testing.T, db *gorm.DB, userID string, starting map[string]money.Money) {
	t.Helper()

	var accounts []models.Account
	if err := db.Where("user_id = ?", userID).Find(&accounts).Error; err != nil {
		t.Fatalf("load accounts: %v", err)
	}

	for _, account := range accounts {
		var linked []models.Transaction
		if err := db.Where("user_id = ? AND account_id = ?", userID, account.ID).Find(&linked).Error; err != nil {
			t.Fatalf("load transactions: %v", err)
		}

		want := starting[account.ID]
		for i := range linked {
			want = want.Add(linked[i].SignedDelta())
		}
		if !account.Balance.Equal(want) {
			t.Errorf("account %s: balance %s does not match ledger %s", account.Name, account.Balance, want)
		}
	}
}

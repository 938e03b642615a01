package services

import (
	"context"
	"testing"

	"finjournal/internal/models"
	"finjournal/internal/money"
	"finjournal/internal/testutil"
)

func TestOnboard(t *testing.T) {
	ctx := context.Background()

	t.Run("opens_active_month", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := NewMonthService(db, Options{})

		month, err := svc.Onboard(ctx, testutil.NewUserID(), "2025-12", money.New(10000))
		testutil.AssertNoError(t, err)

		if month.Name != "December 2025" {
			t.Errorf("expected December 2025, got %q", month.Name)
		}
		if month.Status != models.MonthStatusActive {
			t.Errorf("expected active, got %s", month.Status)
		}
		if !month.ClosingBalance.Equal(month.OpeningBalance) {
			t.Errorf("expected closing to start at opening, got %s", month.ClosingBalance)
		}
	})

	t.Run("bad_month_ref", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := NewMonthService(db, Options{})

		_, err := svc.Onboard(ctx, testutil.NewUserID(), "12/2025", money.Zero)
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("second_active_month_rejected", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := NewMonthService(db, Options{})
		userID := testutil.NewUserID()

		_, err := svc.Onboard(ctx, userID, "2025-11", money.Zero)
		testutil.AssertNoError(t, err)
		_, err = svc.Onboard(ctx, userID, "2025-12", money.Zero)
		testutil.AssertAppError(t, err, "ACTIVE_MONTH_EXISTS")
	})

	t.Run("closed_month_does_not_block", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := NewMonthService(db, Options{})
		userID := testutil.NewUserID()
		testutil.CreateTestMonthWithStatus(t, db, userID, money.Zero, models.MonthStatusClosed)

		_, err := svc.Onboard(ctx, userID, "2025-12", money.Zero)
		testutil.AssertNoError(t, err)
	})
}

func TestGetActiveMonth(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	svc := NewMonthService(db, Options{})
	userID := testutil.NewUserID()

	_, err := svc.GetActiveMonth(ctx, userID)
	testutil.AssertAppError(t, err, "NO_ACTIVE_MONTH")

	testutil.CreateTestMonthWithStatus(t, db, userID, money.Zero, models.MonthStatusClosed)
	active := testutil.CreateTestMonth(t, db, userID, money.New(50))

	found, err := svc.GetActiveMonth(ctx, userID)
	testutil.AssertNoError(t, err)
	if found.ID != active.ID {
		t.Errorf("expected %s, got %s", active.ID, found.ID)
	}
}

func TestUpdateOpeningBalance(t *testing.T) {
	ctx := context.Background()

	t.Run("updates_without_touching_accounts", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := NewMonthService(db, Options{})
		userID := testutil.NewUserID()
		month := testutil.CreateTestMonth(t, db, userID, money.Zero)
		account := testutil.CreateTestDefaultAccount(t, db, userID, money.New(300))

		updated, err := svc.UpdateOpeningBalance(ctx, userID, month.ID, money.MustParse("1250.50"))
		testutil.AssertNoError(t, err)

		if updated.OpeningBalance.String() != "1250.50" {
			t.Errorf("expected 1250.50, got %s", updated.OpeningBalance)
		}
		testutil.AssertBalance(t, db, account.ID, "300.00")
	})

	t.Run("wrong_user", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := NewMonthService(db, Options{})
		month := testutil.CreateTestMonth(t, db, testutil.NewUserID(), money.Zero)

		_, err := svc.UpdateOpeningBalance(ctx, testutil.NewUserID(), month.ID, money.New(1))
		testutil.AssertAppError(t, err, "MONTH_NOT_FOUND")
	})
}

func TestGetMonthSummary(t *testing.T) {
	ctx := context.Background()

	t.Run("totals_include_detached", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := NewMonthService(db, Options{})
		userID := testutil.NewUserID()
		month := testutil.CreateTestMonth(t, db, userID, money.New(1000))
		account := testutil.CreateTestAccount(t, db, userID)

		testutil.CreateTestTransaction(t, db, userID, month.ID, account.ID, models.TransactionTypeCredit, money.New(500))
		testutil.CreateTestTransaction(t, db, userID, month.ID, "", models.TransactionTypeDebit, money.MustParse("120.25"))
		testutil.CreateTestTransaction(t, db, userID, month.ID, account.ID, models.TransactionTypeDebit, money.New(80))

		summary, err := svc.GetMonthSummary(ctx, userID, month.ID)
		testutil.AssertNoError(t, err)

		if len(summary.Transactions) != 3 {
			t.Fatalf("expected 3 transactions, got %d", len(summary.Transactions))
		}
		checks := map[string]struct{ got, want money.Money }{
			"credits": {summary.TotalCredits, money.New(500)},
			"debits":  {summary.TotalDebits, money.MustParse("200.25")},
			"net":     {summary.NetFlow, money.MustParse("299.75")},
			"current": {summary.CurrentBalance, money.MustParse("1299.75")},
		}
		for name, c := range checks {
			if !c.got.Equal(c.want) {
				t.Errorf("%s: expected %s, got %s", name, c.want, c.got)
			}
		}
	})

	t.Run("empty_month", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := NewMonthService(db, Options{})
		userID := testutil.NewUserID()
		month := testutil.CreateTestMonth(t, db, userID, money.New(40))

		summary, err := svc.GetMonthSummary(ctx, userID, month.ID)
		testutil.AssertNoError(t, err)
		if summary.Transactions == nil || len(summary.Transactions) != 0 {
			t.Errorf("expected empty transaction list, got %v", summary.Transactions)
		}
		if !summary.CurrentBalance.Equal(money.New(40)) {
			t.Errorf("expected 40.00, got %s", summary.CurrentBalance)
		}
	})

	t.Run("wrong_user", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := NewMonthService(db, Options{})
		month := testutil.CreateTestMonth(t, db, testutil.NewUserID(), money.Zero)

		_, err := svc.GetMonthSummary(ctx, testutil.NewUserID(), month.ID)
		testutil.AssertAppError(t, err, "MONTH_NOT_FOUND")
	})
}

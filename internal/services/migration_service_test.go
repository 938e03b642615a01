package services

import (
	"context"
	"errors"
	"testing"

	"gorm.io/gorm"

	"finjournal/internal/models"
	"finjournal/internal/money"
	"finjournal/internal/testutil"
)

func TestMigrateToAccounts(t *testing.T) {
	ctx := context.Background()

	t.Run("balance_from_active_month", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		pub := &recordingPublisher{}
		svc := NewMigrationService(db, Options{Publisher: pub})
		userID := testutil.NewUserID()
		month := testutil.CreateTestMonth(t, db, userID, money.New(10000))

		testutil.CreateTestTransaction(t, db, userID, month.ID, "", models.TransactionTypeCredit, money.New(5000))
		testutil.CreateTestTransaction(t, db, userID, month.ID, "", models.TransactionTypeDebit, money.New(2000))
		testutil.CreateTestTransaction(t, db, userID, month.ID, "", models.TransactionTypeDebit, money.New(500))

		result, err := svc.MigrateToAccounts(ctx, userID)
		testutil.AssertNoError(t, err)

		if !result.Account.IsDefault || result.Account.Name != "Main Account" {
			t.Errorf("unexpected account %+v", result.Account)
		}
		if result.Account.Color == nil || *result.Account.Color != "bg-indigo-600" {
			t.Errorf("expected main account color, got %v", result.Account.Color)
		}
		testutil.AssertBalance(t, db, result.Account.ID, "12500.00")
		if result.LinkedCount != 3 {
			t.Errorf("expected 3 linked transactions, got %d", result.LinkedCount)
		}
		if !result.TotalCredits.Equal(money.New(5000)) || !result.TotalDebits.Equal(money.New(2500)) {
			t.Errorf("unexpected totals %s/%s", result.TotalCredits, result.TotalDebits)
		}
		if result.ActiveMonth == nil || result.ActiveMonth.ID != month.ID {
			t.Error("expected the active month in the result")
		}
		if got := pub.reasonsFor(userID); len(got) != 1 || got[0] != "migration.completed" {
			t.Errorf("expected migration.completed signal, got %v", got)
		}

		assertLedgerConsistent(t, db, userID, map[string]money.Money{result.Account.ID: money.New(10000)})
	})

	t.Run("second_run_rejected", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := NewMigrationService(db, Options{})
		userID := testutil.NewUserID()
		month := testutil.CreateTestMonth(t, db, userID, money.New(100))
		testutil.CreateTestTransaction(t, db, userID, month.ID, "", models.TransactionTypeCredit, money.New(50))

		first, err := svc.MigrateToAccounts(ctx, userID)
		testutil.AssertNoError(t, err)

		_, err = svc.MigrateToAccounts(ctx, userID)
		testutil.AssertAppError(t, err, "ALREADY_MIGRATED")

		var count int64
		db.Model(&models.Account{}).Where("user_id = ?", userID).Count(&count)
		if count != 1 {
			t.Errorf("expected a single account, got %d", count)
		}
		testutil.AssertBalance(t, db, first.Account.ID, "150.00")
	})

	t.Run("existing_account_blocks", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := NewMigrationService(db, Options{})
		userID := testutil.NewUserID()
		testutil.CreateTestMonth(t, db, userID, money.Zero)
		testutil.CreateTestAccount(t, db, userID)

		_, err := svc.MigrateToAccounts(ctx, userID)
		testutil.AssertAppError(t, err, "ALREADY_MIGRATED")
	})

	t.Run("no_active_month", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := NewMigrationService(db, Options{})
		userID := testutil.NewUserID()

		result, err := svc.MigrateToAccounts(ctx, userID)
		testutil.AssertNoError(t, err)

		testutil.AssertBalance(t, db, result.Account.ID, "0.00")
		if !result.Account.IsDefault {
			t.Error("expected a default account")
		}
		if result.ActiveMonth != nil || result.LinkedCount != 0 {
			t.Errorf("expected nothing migrated, got %+v", result)
		}
	})

	t.Run("only_active_month_backfilled", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := NewMigrationService(db, Options{})
		userID := testutil.NewUserID()
		closed := testutil.CreateTestMonthWithStatus(t, db, userID, money.Zero, models.MonthStatusClosed)
		active := testutil.CreateTestMonth(t, db, userID, money.New(20))

		old := testutil.CreateTestTransaction(t, db, userID, closed.ID, "", models.TransactionTypeCredit, money.New(999))
		testutil.CreateTestTransaction(t, db, userID, active.ID, "", models.TransactionTypeDebit, money.New(5))

		result, err := svc.MigrateToAccounts(ctx, userID)
		testutil.AssertNoError(t, err)

		testutil.AssertBalance(t, db, result.Account.ID, "15.00")
		if result.LinkedCount != 1 {
			t.Errorf("expected 1 linked transaction, got %d", result.LinkedCount)
		}

		var reloaded models.Transaction
		testutil.AssertNoError(t, db.First(&reloaded, "id = ?", old.ID).Error)
		if !reloaded.IsDetached() {
			t.Error("closed-month transactions must stay detached")
		}
	})

	t.Run("other_users_untouched", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := NewMigrationService(db, Options{})
		userID, other := testutil.NewUserID(), testutil.NewUserID()
		month := testutil.CreateTestMonth(t, db, userID, money.Zero)
		otherMonth := testutil.CreateTestMonth(t, db, other, money.Zero)
		foreign := testutil.CreateTestTransaction(t, db, other, otherMonth.ID, "", models.TransactionTypeCredit, money.New(1))
		testutil.CreateTestTransaction(t, db, userID, month.ID, "", models.TransactionTypeCredit, money.New(1))

		_, err := svc.MigrateToAccounts(ctx, userID)
		testutil.AssertNoError(t, err)

		var reloaded models.Transaction
		testutil.AssertNoError(t, db.First(&reloaded, "id = ?", foreign.ID).Error)
		if !reloaded.IsDetached() {
			t.Error("another user's transactions must not be linked")
		}
	})
}

func TestMigrateToAccountsFailedBackfillRollsBack(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	pub := &recordingPublisher{}
	svc := NewMigrationService(db, Options{Publisher: pub})
	userID := testutil.NewUserID()
	month := testutil.CreateTestMonth(t, db, userID, money.New(1000))
	testutil.CreateTestTransaction(t, db, userID, month.ID, "", models.TransactionTypeCredit, money.New(200))
	testutil.CreateTestTransaction(t, db, userID, month.ID, "", models.TransactionTypeDebit, money.New(50))

	failLink := true
	err := db.Callback().Update().Before("gorm:update").Register("test:fail_link", func(tx *gorm.DB) {
		if failLink && tx.Statement.Table == "transactions" {
			_ = tx.AddError(errors.New("link failed"))
		}
	})
	testutil.AssertNoError(t, err)

	_, err = svc.MigrateToAccounts(ctx, userID)
	testutil.AssertAppError(t, err, "INTERNAL_ERROR")

	var accounts int64
	testutil.AssertNoError(t, db.Model(&models.Account{}).Where("user_id = ?", userID).Count(&accounts).Error)
	if accounts != 0 {
		t.Fatalf("expected the account insert to roll back, found %d accounts", accounts)
	}
	var linked int64
	testutil.AssertNoError(t, db.Model(&models.Transaction{}).
		Where("user_id = ? AND account_id IS NOT NULL", userID).Count(&linked).Error)
	if linked != 0 {
		t.Errorf("expected no linked transactions, got %d", linked)
	}
	if got := pub.reasonsFor(userID); len(got) != 0 {
		t.Errorf("expected no stale signal for a failed run, got %v", got)
	}

	failLink = false
	result, err := svc.MigrateToAccounts(ctx, userID)
	testutil.AssertNoError(t, err)
	if result.LinkedCount != 2 {
		t.Errorf("expected 2 linked transactions on retry, got %d", result.LinkedCount)
	}
	testutil.AssertBalance(t, db, result.Account.ID, "1150.00")
}

func TestPendingUsers(t *testing.T) {
	ctx := context.Background()
	db := testutil.SetupTestDB(t)
	svc := NewMigrationService(db, Options{})

	pending := testutil.NewUserID()
	testutil.CreateTestMonth(t, db, pending, money.Zero)
	testutil.CreateTestMonthWithStatus(t, db, pending, money.Zero, models.MonthStatusClosed)

	done := testutil.NewUserID()
	testutil.CreateTestMonth(t, db, done, money.Zero)
	testutil.CreateTestDefaultAccount(t, db, done, money.Zero)

	testutil.CreateTestAccount(t, db, testutil.NewUserID())

	users, err := svc.PendingUsers(ctx)
	testutil.AssertNoError(t, err)

	if len(users) != 1 || users[0] != pending {
		t.Errorf("expected [%s], got %v", pending, users)
	}

	_, err = svc.MigrateToAccounts(ctx, pending)
	testutil.AssertNoError(t, err)

	users, err = svc.PendingUsers(ctx)
	testutil.AssertNoError(t, err)
	if len(users) != 0 {
		t.Errorf("expected no pending users, got %v", users)
	}
}

package services

import (
	"testing"

	"haushalt/internal/dates"
	"haushalt/internal/models"
	"haushalt/internal/testutil"
)

func TestMonthlySnapshots(t *testing.T) {
	t.Run("snapshot_is_the_last_running_balance_of_the_month", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		txSvc, _, _ := newLedger(db)
		monthly := NewMonthlyBalanceService(db)
		user := testutil.CreateTestUser(t, db)
		account := testutil.CreateTestAccount(t, db, user.ID)

		seed := []struct {
			txType models.TransactionType
			amount int64
			date   string
		}{
			{models.TransactionTypeIncome, 10000, "2024-01-05"},
			{models.TransactionTypeExpense, 3000, "2024-01-20"},
			{models.TransactionTypeExpense, 2000, "2024-03-10"},
		}
		for _, item := range seed {
			_, err := txSvc.CreateTransaction(user.ID, TransactionInput{
				AccountID: &account.ID,
				Type:      item.txType,
				Amount:    item.amount,
				Date:      dates.MustParse(item.date),
			})
			testutil.AssertNoError(t, err)
		}

		balances, err := monthly.GetAccountMonthlyBalances(user.ID, account.ID)
		testutil.AssertNoError(t, err)

		// January closes at 7000, February has no transactions and no
		// row, March closes at 5000.
		if len(balances) != 2 {
			t.Fatalf("expected 2 snapshots, got %d", len(balances))
		}
		if balances[0].Year != 2024 || balances[0].Month != 1 || balances[0].Balance != 7000 {
			t.Errorf("unexpected January snapshot: %+v", balances[0])
		}
		if balances[1].Year != 2024 || balances[1].Month != 3 || balances[1].Balance != 5000 {
			t.Errorf("unexpected March snapshot: %+v", balances[1])
		}
	})

	t.Run("backdated_edit_replaces_the_whole_set", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		txSvc, _, _ := newLedger(db)
		monthly := NewMonthlyBalanceService(db)
		user := testutil.CreateTestUser(t, db)
		account := testutil.CreateTestAccount(t, db, user.ID)

		_, err := txSvc.CreateTransaction(user.ID, TransactionInput{
			AccountID: &account.ID,
			Type:      models.TransactionTypeExpense,
			Amount:    2000,
			Date:      dates.MustParse("2024-03-10"),
		})
		testutil.AssertNoError(t, err)

		// A backdated income changes both the new January row and the
		// already-snapshotted March balance.
		_, err = txSvc.CreateTransaction(user.ID, TransactionInput{
			AccountID: &account.ID,
			Type:      models.TransactionTypeIncome,
			Amount:    10000,
			Date:      dates.MustParse("2024-01-05"),
		})
		testutil.AssertNoError(t, err)

		balances, err := monthly.GetAccountMonthlyBalances(user.ID, account.ID)
		testutil.AssertNoError(t, err)
		if len(balances) != 2 {
			t.Fatalf("expected 2 snapshots, got %d", len(balances))
		}
		if balances[0].Month != 1 || balances[0].Balance != 10000 {
			t.Errorf("unexpected January snapshot: %+v", balances[0])
		}
		if balances[1].Month != 3 || balances[1].Balance != 8000 {
			t.Errorf("unexpected March snapshot: %+v", balances[1])
		}
	})

	t.Run("category_transfers_leave_no_snapshot", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		txSvc, _, _ := newLedger(db)
		monthly := NewMonthlyBalanceService(db)
		user := testutil.CreateTestUser(t, db)
		a := testutil.CreateTestCategory(t, db, user.ID)
		b := testutil.CreateTestCategory(t, db, user.ID)

		_, err := txSvc.CreateCategoryTransfer(user.ID, a.ID, b.ID, 1000, dates.MustParse("2024-01-10"), "")
		testutil.AssertNoError(t, err)

		balances, err := monthly.GetUserMonthlyBalances(user.ID)
		testutil.AssertNoError(t, err)
		if len(balances) != 0 {
			t.Errorf("expected no snapshots for account-less rows, got %d", len(balances))
		}
	})

	t.Run("per_account_snapshots", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		txSvc, _, _ := newLedger(db)
		monthly := NewMonthlyBalanceService(db)
		user := testutil.CreateTestUser(t, db)
		from := testutil.CreateTestAccount(t, db, user.ID)
		to := testutil.CreateTestAccount(t, db, user.ID)

		_, err := txSvc.CreateAccountTransfer(user.ID, from.ID, to.ID, 2500, dates.MustParse("2024-01-10"), "")
		testutil.AssertNoError(t, err)

		fromBalances, err := monthly.GetAccountMonthlyBalances(user.ID, from.ID)
		testutil.AssertNoError(t, err)
		toBalances, err := monthly.GetAccountMonthlyBalances(user.ID, to.ID)
		testutil.AssertNoError(t, err)

		if len(fromBalances) != 1 || fromBalances[0].Balance != -2500 {
			t.Errorf("unexpected source snapshots: %+v", fromBalances)
		}
		if len(toBalances) != 1 || toBalances[0].Balance != 2500 {
			t.Errorf("unexpected destination snapshots: %+v", toBalances)
		}
	})
}

package services

import (
	"testing"

	"haushalt/internal/dates"
	"haushalt/internal/pagination"
	"haushalt/internal/testutil"
)

func TestCreateAccount(t *testing.T) {
	t.Run("valid_account", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewAccountService(db)
		user := testutil.CreateTestUser(t, db)
		group := testutil.CreateTestGroup(t, db, user.ID)

		account, err := svc.CreateAccount(user.ID, group.ID, "Giro", 150000)
		testutil.AssertNoError(t, err)

		if account.StartBalance != 150000 {
			t.Errorf("expected start balance 150000, got %d", account.StartBalance)
		}
		if account.Balance != 0 {
			t.Errorf("expected ledger balance 0 on a fresh account, got %d", account.Balance)
		}
		if !account.IsActive || account.IsClosed {
			t.Error("expected a fresh open account")
		}
	})

	t.Run("unknown_group", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewAccountService(db)
		user := testutil.CreateTestUser(t, db)

		_, err := svc.CreateAccount(user.ID, "00000000-0000-0000-0000-000000000000", "Giro", 0)
		testutil.AssertAppError(t, err, "ACCOUNT_GROUP_NOT_FOUND")
	})

	t.Run("other_users_group", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewAccountService(db)
		owner := testutil.CreateTestUser(t, db)
		intruder := testutil.CreateTestUser(t, db)
		group := testutil.CreateTestGroup(t, db, owner.ID)

		_, err := svc.CreateAccount(intruder.ID, group.ID, "Giro", 0)
		testutil.AssertAppError(t, err, "ACCOUNT_GROUP_NOT_FOUND")
	})

	t.Run("empty_name", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewAccountService(db)
		user := testutil.CreateTestUser(t, db)
		group := testutil.CreateTestGroup(t, db, user.ID)

		_, err := svc.CreateAccount(user.ID, group.ID, "", 0)
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})
}

func TestGetUserAccounts(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewAccountService(db)
	user := testutil.CreateTestUser(t, db)
	group := testutil.CreateTestGroup(t, db, user.ID)

	_, err := svc.CreateAccount(user.ID, group.ID, "Giro", 0)
	testutil.AssertNoError(t, err)
	hidden, err := svc.CreateAccount(user.ID, group.ID, "Old", 0)
	testutil.AssertNoError(t, err)

	inactive := false
	_, err = svc.UpdateAccount(user.ID, hidden.ID, AccountUpdateFields{IsActive: &inactive})
	testutil.AssertNoError(t, err)

	page, err := svc.GetUserAccounts(user.ID, pagination.PageRequest{})
	testutil.AssertNoError(t, err)
	if page.TotalItems != 1 {
		t.Errorf("expected only active accounts listed, got %d", page.TotalItems)
	}
}

func TestUpdateAccount(t *testing.T) {
	t.Run("moves_between_groups", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewAccountService(db)
		user := testutil.CreateTestUser(t, db)
		account := testutil.CreateTestAccount(t, db, user.ID)
		target := testutil.CreateTestGroup(t, db, user.ID)

		updated, err := svc.UpdateAccount(user.ID, account.ID, AccountUpdateFields{GroupID: &target.ID})
		testutil.AssertNoError(t, err)
		if updated.GroupID != target.ID {
			t.Errorf("expected account moved to new group, got %s", updated.GroupID)
		}
	})

	t.Run("unknown_target_group", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewAccountService(db)
		user := testutil.CreateTestUser(t, db)
		account := testutil.CreateTestAccount(t, db, user.ID)

		_, err := svc.UpdateAccount(user.ID, account.ID, AccountUpdateFields{GroupID: strPtr("00000000-0000-0000-0000-000000000000")})
		testutil.AssertAppError(t, err, "ACCOUNT_GROUP_NOT_FOUND")
	})
}

func TestDeleteAccount(t *testing.T) {
	t.Run("empty_account", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewAccountService(db)
		user := testutil.CreateTestUser(t, db)
		account := testutil.CreateTestAccount(t, db, user.ID)

		testutil.AssertNoError(t, svc.DeleteAccount(user.ID, account.ID))

		_, err := svc.GetAccountByID(user.ID, account.ID)
		testutil.AssertAppError(t, err, "ACCOUNT_NOT_FOUND")
	})

	t.Run("account_with_transactions", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewAccountService(db)
		user := testutil.CreateTestUser(t, db)
		account := testutil.CreateTestAccount(t, db, user.ID)
		testutil.CreateTestTransaction(t, db, user.ID, account.ID, -100, dates.MustParse("2024-01-10"))

		err := svc.DeleteAccount(user.ID, account.ID)
		testutil.AssertAppError(t, err, "ACCOUNT_HAS_TRANSACTIONS")
	})
}

func TestAccountGroups(t *testing.T) {
	t.Run("crud", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewAccountGroupService(db)
		user := testutil.CreateTestUser(t, db)

		group, err := svc.CreateGroup(user.ID, "Cash", 1)
		testutil.AssertNoError(t, err)

		name := "Cash & Cards"
		updated, err := svc.UpdateGroup(user.ID, group.ID, &name, nil)
		testutil.AssertNoError(t, err)
		if updated.Name != name {
			t.Errorf("expected renamed group, got %q", updated.Name)
		}

		testutil.AssertNoError(t, svc.DeleteGroup(user.ID, group.ID))

		_, err = svc.GetGroupByID(user.ID, group.ID)
		testutil.AssertAppError(t, err, "ACCOUNT_GROUP_NOT_FOUND")
	})

	t.Run("sort_order_listing", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewAccountGroupService(db)
		user := testutil.CreateTestUser(t, db)

		_, err := svc.CreateGroup(user.ID, "Later", 2)
		testutil.AssertNoError(t, err)
		_, err = svc.CreateGroup(user.ID, "First", 1)
		testutil.AssertNoError(t, err)

		groups, err := svc.GetUserGroups(user.ID)
		testutil.AssertNoError(t, err)
		if len(groups) != 2 || groups[0].Name != "First" {
			t.Errorf("expected sort order listing, got %+v", groups)
		}
	})

	t.Run("group_in_use", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		groupSvc := NewAccountGroupService(db)
		accountSvc := NewAccountService(db)
		user := testutil.CreateTestUser(t, db)

		group, err := groupSvc.CreateGroup(user.ID, "Cash", 1)
		testutil.AssertNoError(t, err)
		_, err = accountSvc.CreateAccount(user.ID, group.ID, "Wallet", 0)
		testutil.AssertNoError(t, err)

		err = groupSvc.DeleteGroup(user.ID, group.ID)
		testutil.AssertAppError(t, err, "ACCOUNT_GROUP_IN_USE")
	})
}

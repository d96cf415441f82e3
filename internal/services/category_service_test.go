package services

import (
	"testing"

	"gorm.io/gorm"

	"haushalt/internal/dates"
	"haushalt/internal/models"
	"haushalt/internal/testutil"
)

// seedCategoryRow inserts a raw transaction on a category, bypassing the
// ledger store so saldo tests control type and date exactly.
func seedCategoryRow(t *testing.T, db *gorm.DB, userID, categoryID string, txType models.TransactionType, amount int64, date string) {
	t.Helper()

	row := &models.Transaction{
		UserID:     userID,
		CategoryID: &categoryID,
		Type:       txType,
		Amount:     amount,
		Date:       dates.MustParse(date),
		ValueDate:  dates.MustParse(date),
	}
	if err := db.Create(row).Error; err != nil {
		t.Fatalf("failed to seed transaction: %v", err)
	}
}

func TestEnsureDefaults(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewCategoryService(db)
	user := testutil.CreateTestUser(t, db)

	testutil.AssertNoError(t, svc.EnsureDefaults(user.ID))

	available, err := svc.AvailableFunds(user.ID)
	testutil.AssertNoError(t, err)
	if !available.IsIncome || !available.IsActive {
		t.Error("expected Available Funds to be an active income category")
	}

	// Running it again must not create a second envelope.
	testutil.AssertNoError(t, svc.EnsureDefaults(user.ID))

	var count int64
	db.Model(&models.Category{}).
		Where("user_id = ? AND name = ?", user.ID, models.AvailableFundsName).
		Count(&count)
	if count != 1 {
		t.Errorf("expected exactly one Available Funds envelope, got %d", count)
	}
}

func TestAvailableFundsMissing(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewCategoryService(db)
	user := testutil.CreateTestUser(t, db)

	_, err := svc.AvailableFunds(user.ID)
	testutil.AssertAppError(t, err, "AVAILABLE_FUNDS_MISSING")
}

func TestCreateCategory(t *testing.T) {
	t.Run("start_balance_seeds_the_envelope", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCategoryService(db)
		user := testutil.CreateTestUser(t, db)

		category, err := svc.CreateCategory(user.ID, CategoryInput{Name: "Groceries", StartBalance: 5000})
		testutil.AssertNoError(t, err)
		if category.Balance != 5000 {
			t.Errorf("expected balance seeded to 5000, got %d", category.Balance)
		}
		if !category.IsActive {
			t.Error("expected new category to be active")
		}
	})

	t.Run("duplicate_name", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCategoryService(db)
		user := testutil.CreateTestUser(t, db)

		_, err := svc.CreateCategory(user.ID, CategoryInput{Name: "Groceries"})
		testutil.AssertNoError(t, err)
		_, err = svc.CreateCategory(user.ID, CategoryInput{Name: "Groceries"})
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("unknown_parent", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCategoryService(db)
		user := testutil.CreateTestUser(t, db)

		_, err := svc.CreateCategory(user.ID, CategoryInput{Name: "Child", ParentID: strPtr("00000000-0000-0000-0000-000000000000")})
		testutil.AssertAppError(t, err, "CATEGORY_NOT_FOUND")
	})

	t.Run("empty_name", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCategoryService(db)
		user := testutil.CreateTestUser(t, db)

		_, err := svc.CreateCategory(user.ID, CategoryInput{})
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})
}

func TestUpdateCategory(t *testing.T) {
	t.Run("self_parent", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCategoryService(db)
		user := testutil.CreateTestUser(t, db)
		category := testutil.CreateTestCategory(t, db, user.ID)

		_, err := svc.UpdateCategory(user.ID, category.ID, CategoryUpdateFields{ParentID: &category.ID})
		testutil.AssertAppError(t, err, "SELF_PARENT_CATEGORY")
	})

	t.Run("unknown_parent", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCategoryService(db)
		user := testutil.CreateTestUser(t, db)
		category := testutil.CreateTestCategory(t, db, user.ID)

		_, err := svc.UpdateCategory(user.ID, category.ID, CategoryUpdateFields{ParentID: strPtr("00000000-0000-0000-0000-000000000000")})
		testutil.AssertAppError(t, err, "CATEGORY_NOT_FOUND")
	})

	t.Run("empty_parent_detaches_the_child", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCategoryService(db)
		user := testutil.CreateTestUser(t, db)
		parent := testutil.CreateTestCategory(t, db, user.ID)

		child, err := svc.CreateCategory(user.ID, CategoryInput{Name: "Child", ParentID: &parent.ID})
		testutil.AssertNoError(t, err)

		_, err = svc.UpdateCategory(user.ID, child.ID, CategoryUpdateFields{ParentID: strPtr("")})
		testutil.AssertNoError(t, err)

		reloaded, err := svc.GetCategoryByID(user.ID, child.ID)
		testutil.AssertNoError(t, err)
		if reloaded.ParentID != nil {
			t.Errorf("expected parent cleared to NULL, got %q", *reloaded.ParentID)
		}

		// With the reference gone the former parent is deletable again.
		testutil.AssertNoError(t, svc.DeleteCategory(user.ID, parent.ID))
	})
}

func TestDeleteCategory(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewCategoryService(db)
	user := testutil.CreateTestUser(t, db)
	parent := testutil.CreateTestCategory(t, db, user.ID)

	child, err := svc.CreateCategory(user.ID, CategoryInput{Name: "Child", ParentID: &parent.ID})
	testutil.AssertNoError(t, err)

	err = svc.DeleteCategory(user.ID, parent.ID)
	testutil.AssertAppError(t, err, "CATEGORY_HAS_CHILDREN")

	testutil.AssertNoError(t, svc.DeleteCategory(user.ID, child.ID))
	testutil.AssertNoError(t, svc.DeleteCategory(user.ID, parent.ID))
}

func TestApplyBalanceDelta(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc := NewCategoryService(db)
	user := testutil.CreateTestUser(t, db)
	category := testutil.CreateTestCategory(t, db, user.ID)

	testutil.AssertNoError(t, svc.ApplyBalanceDelta(db, user.ID, category.ID, -3000, 1))
	testutil.AssertNoError(t, svc.ApplyBalanceDelta(db, user.ID, category.ID, -1000, 1))

	reloaded, err := svc.GetCategoryByID(user.ID, category.ID)
	testutil.AssertNoError(t, err)
	if reloaded.Balance != -4000 {
		t.Errorf("expected balance -4000, got %d", reloaded.Balance)
	}
	if reloaded.TransactionCount != 2 {
		t.Errorf("expected count 2, got %d", reloaded.TransactionCount)
	}
	if reloaded.AverageAmount != -2000 {
		t.Errorf("expected average -2000, got %d", reloaded.AverageAmount)
	}

	// Reversing more than was applied clamps the count and zeroes the
	// average rather than dividing by a bogus count.
	testutil.AssertNoError(t, svc.ApplyBalanceDelta(db, user.ID, category.ID, 4000, -3))

	reloaded, err = svc.GetCategoryByID(user.ID, category.ID)
	testutil.AssertNoError(t, err)
	if reloaded.TransactionCount != 0 {
		t.Errorf("expected count clamped to 0, got %d", reloaded.TransactionCount)
	}
	if reloaded.AverageAmount != 0 {
		t.Errorf("expected average reset to 0, got %d", reloaded.AverageAmount)
	}
}

func TestCalculateSaldo(t *testing.T) {
	from := dates.MustParse("2024-01-01")
	to := dates.MustParse("2024-01-31")

	t.Run("saldo_anchors_at_start_balance", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCategoryService(db)
		user := testutil.CreateTestUser(t, db)

		category, err := svc.CreateCategory(user.ID, CategoryInput{Name: "Groceries", StartBalance: 10000})
		testutil.AssertNoError(t, err)

		seedCategoryRow(t, db, user.ID, category.ID, models.TransactionTypeExpense, -3000, "2024-01-10")
		seedCategoryRow(t, db, user.ID, category.ID, models.TransactionTypeCategoryTransfer, 2000, "2024-01-15")

		saldo, err := svc.CalculateSaldo(user.ID, category.ID, from, to)
		testutil.AssertNoError(t, err)
		if saldo.Saldo != 9000 {
			t.Errorf("expected saldo 9000, got %d", saldo.Saldo)
		}
		if saldo.Spent != -3000 {
			t.Errorf("expected spent -3000, got %d", saldo.Spent)
		}
		if saldo.Budgeted != 0 {
			t.Errorf("expected budgeted 0, got %d", saldo.Budgeted)
		}
	})

	t.Run("window_excludes_outside_rows", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCategoryService(db)
		user := testutil.CreateTestUser(t, db)
		category := testutil.CreateTestCategory(t, db, user.ID)

		seedCategoryRow(t, db, user.ID, category.ID, models.TransactionTypeExpense, -3000, "2024-01-10")
		seedCategoryRow(t, db, user.ID, category.ID, models.TransactionTypeExpense, -9999, "2024-02-10")

		saldo, err := svc.CalculateSaldo(user.ID, category.ID, from, to)
		testutil.AssertNoError(t, err)
		if saldo.Saldo != -3000 {
			t.Errorf("expected only the January row, got saldo %d", saldo.Saldo)
		}
		if saldo.Spent != -3000 {
			t.Errorf("expected spent -3000, got %d", saldo.Spent)
		}
	})

	t.Run("income_category_spent_counts_income_rows", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCategoryService(db)
		user := testutil.CreateTestUser(t, db)
		salary := testutil.CreateTestCategoryNamed(t, db, user.ID, "Salary", true)

		seedCategoryRow(t, db, user.ID, salary.ID, models.TransactionTypeIncome, 50000, "2024-01-05")
		seedCategoryRow(t, db, user.ID, salary.ID, models.TransactionTypeCategoryTransfer, -50000, "2024-01-05")

		saldo, err := svc.CalculateSaldo(user.ID, salary.ID, from, to)
		testutil.AssertNoError(t, err)
		if saldo.Spent != 50000 {
			t.Errorf("expected spent to track income rows, got %d", saldo.Spent)
		}
		if saldo.Saldo != 0 {
			t.Errorf("expected allocated-away income to net to 0, got %d", saldo.Saldo)
		}
	})

	t.Run("parent_rolls_up_active_direct_children", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCategoryService(db)
		user := testutil.CreateTestUser(t, db)

		parent, err := svc.CreateCategory(user.ID, CategoryInput{Name: "Household"})
		testutil.AssertNoError(t, err)
		active, err := svc.CreateCategory(user.ID, CategoryInput{Name: "Cleaning", ParentID: &parent.ID})
		testutil.AssertNoError(t, err)
		inactive, err := svc.CreateCategory(user.ID, CategoryInput{Name: "Dormant", ParentID: &parent.ID})
		testutil.AssertNoError(t, err)
		isActive := false
		_, err = svc.UpdateCategory(user.ID, inactive.ID, CategoryUpdateFields{IsActive: &isActive})
		testutil.AssertNoError(t, err)

		seedCategoryRow(t, db, user.ID, parent.ID, models.TransactionTypeExpense, -1000, "2024-01-10")
		seedCategoryRow(t, db, user.ID, active.ID, models.TransactionTypeExpense, -500, "2024-01-12")
		seedCategoryRow(t, db, user.ID, inactive.ID, models.TransactionTypeExpense, -9999, "2024-01-12")

		saldo, err := svc.CalculateSaldo(user.ID, parent.ID, from, to)
		testutil.AssertNoError(t, err)
		if saldo.Saldo != -1500 {
			t.Errorf("expected parent plus active child only, got %d", saldo.Saldo)
		}
		if saldo.Spent != -1500 {
			t.Errorf("expected spent -1500, got %d", saldo.Spent)
		}
	})

	t.Run("unknown_category", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc := NewCategoryService(db)
		user := testutil.CreateTestUser(t, db)

		_, err := svc.CalculateSaldo(user.ID, "00000000-0000-0000-0000-000000000000", from, to)
		testutil.AssertAppError(t, err, "CATEGORY_NOT_FOUND")
	})
}

package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"haushalt/internal/dates"
	"haushalt/internal/models"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// CreateTestUser creates a user with a hashed password and unique email.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	email := fmt.Sprintf("user%d@test.com", nextID())
	return CreateTestUserWithEmail(t, db, email)
}

// CreateTestUserWithEmail creates a user with the given email.
func CreateTestUserWithEmail(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Email:    email,
		Password: string(hash),
		IsActive: true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTestGroup creates an account group.
func CreateTestGroup(t *testing.T, db *gorm.DB, userID string) *models.AccountGroup {
	t.Helper()

	group := &models.AccountGroup{
		UserID: userID,
		Name:   fmt.Sprintf("Test Group %d", nextID()),
	}
	if err := db.Create(group).Error; err != nil {
		t.Fatalf("failed to create test group: %v", err)
	}
	return group
}

// CreateTestAccount creates an account inside a fresh group.
func CreateTestAccount(t *testing.T, db *gorm.DB, userID string) *models.Account {
	t.Helper()

	group := CreateTestGroup(t, db, userID)
	account := &models.Account{
		UserID:   userID,
		GroupID:  group.ID,
		Name:     fmt.Sprintf("Test Account %d", nextID()),
		IsActive: true,
	}
	if err := db.Create(account).Error; err != nil {
		t.Fatalf("failed to create test account: %v", err)
	}
	return account
}

// CreateTestCategory creates an expense category.
func CreateTestCategory(t *testing.T, db *gorm.DB, userID string) *models.Category {
	t.Helper()
	return CreateTestCategoryNamed(t, db, userID, fmt.Sprintf("Test Category %d", nextID()), false)
}

// CreateTestCategoryNamed creates a category with the given name and income flag.
func CreateTestCategoryNamed(t *testing.T, db *gorm.DB, userID, name string, isIncome bool) *models.Category {
	t.Helper()

	category := &models.Category{
		UserID:   userID,
		Name:     name,
		IsIncome: isIncome,
		IsActive: true,
	}
	if err := db.Create(category).Error; err != nil {
		t.Fatalf("failed to create test category: %v", err)
	}
	return category
}

// CreateAvailableFunds creates the Available Funds envelope for a user.
func CreateAvailableFunds(t *testing.T, db *gorm.DB, userID string) *models.Category {
	t.Helper()
	return CreateTestCategoryNamed(t, db, userID, models.AvailableFundsName, true)
}

// CreateTestTransaction inserts a raw transaction row without going through
// the ledger store; useful for seeding read-path tests.
func CreateTestTransaction(t *testing.T, db *gorm.DB, userID, accountID string, amount int64, date dates.Date) *models.Transaction {
	t.Helper()

	transactionType := models.TransactionTypeIncome
	if amount < 0 {
		transactionType = models.TransactionTypeExpense
	}

	transaction := &models.Transaction{
		UserID:    userID,
		AccountID: &accountID,
		Type:      transactionType,
		Amount:    amount,
		Date:      date,
		ValueDate: date,
	}
	if err := db.Create(transaction).Error; err != nil {
		t.Fatalf("failed to create test transaction: %v", err)
	}
	return transaction
}

// CreateTestPlanning creates an active planning template with the given
// pattern starting on startDate.
func CreateTestPlanning(t *testing.T, db *gorm.DB, userID string, pattern models.RecurrencePattern, startDate dates.Date, amount int64) *models.PlanningTransaction {
	t.Helper()

	planning := &models.PlanningTransaction{
		UserID:    userID,
		Amount:    amount,
		Note:      fmt.Sprintf("Test Planning %d", nextID()),
		StartDate: startDate,
		Pattern:   pattern,
		EndType:   models.RecurrenceEndNever,
		Weekend:   models.WeekendNone,
		IsActive:  true,
	}
	if err := db.Create(planning).Error; err != nil {
		t.Fatalf("failed to create test planning: %v", err)
	}
	return planning
}

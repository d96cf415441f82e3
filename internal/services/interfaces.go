package services

import (
	"gorm.io/gorm"

	"haushalt/internal/dates"
	"haushalt/internal/models"
	"haushalt/internal/pagination"
)

// UserServicer defines the contract for user-related business logic.
type UserServicer interface {
	CreateUser(email, password, firstName, lastName string) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	GetUserByID(id string) (*models.User, error)
	VerifyPassword(user *models.User, password string) bool
	AttemptLogin(email, password string) (*models.User, error)
	StoreRefreshTokenHash(userID, tokenHash string) error
	GetRefreshTokenHash(userID string) (string, error)
}

// AccountGroupServicer defines the contract for account group business logic.
type AccountGroupServicer interface {
	CreateGroup(userID, name string, sortOrder int) (*models.AccountGroup, error)
	GetUserGroups(userID string) ([]models.AccountGroup, error)
	GetGroupByID(userID, groupID string) (*models.AccountGroup, error)
	UpdateGroup(userID, groupID string, name *string, sortOrder *int) (*models.AccountGroup, error)
	DeleteGroup(userID, groupID string) error
}

// AccountUpdateFields holds optional fields for updating an account.
type AccountUpdateFields struct {
	Name         *string
	GroupID      *string
	StartBalance *int64
	IsActive     *bool
	IsClosed     *bool
}

// AccountServicer defines the contract for account-related business logic.
type AccountServicer interface {
	CreateAccount(userID, groupID, name string, startBalance int64) (*models.Account, error)
	GetUserAccounts(userID string, page pagination.PageRequest) (*pagination.PageResponse[models.Account], error)
	GetAccountByID(userID, accountID string) (*models.Account, error)
	UpdateAccount(userID, accountID string, fields AccountUpdateFields) (*models.Account, error)
	DeleteAccount(userID, accountID string) error
}

// CategoryInput holds the fields for creating a category.
type CategoryInput struct {
	Name          string
	ParentID      *string
	IsIncome      bool
	IsSavingsGoal bool
	StartBalance  int64
	SortOrder     int
}

// CategoryUpdateFields holds optional fields for updating a category.
type CategoryUpdateFields struct {
	Name          *string
	ParentID      *string
	IsSavingsGoal *bool
	IsActive      *bool
	SortOrder     *int
}

// CategoryServicer defines the contract for category/envelope business logic.
type CategoryServicer interface {
	EnsureDefaults(userID string) error
	CreateCategory(userID string, input CategoryInput) (*models.Category, error)
	GetUserCategories(userID string, page pagination.PageRequest) (*pagination.PageResponse[models.Category], error)
	GetCategoryByID(userID, categoryID string) (*models.Category, error)
	UpdateCategory(userID, categoryID string, fields CategoryUpdateFields) (*models.Category, error)
	DeleteCategory(userID, categoryID string) error
	AvailableFunds(userID string) (*models.Category, error)
	CalculateSaldo(userID, categoryID string, from, to dates.Date) (*models.CategorySaldo, error)

	// Transaction-scoped helpers used by the ledger while a gorm
	// transaction is open.
	AvailableFundsTx(tx *gorm.DB, userID string) (*models.Category, error)
	ApplyBalanceDelta(tx *gorm.DB, userID, categoryID string, amountDelta, countDelta int64) error
}

// TransactionInput holds the fields for creating a transaction.
type TransactionInput struct {
	AccountID   *string
	CategoryID  *string
	Type        models.TransactionType
	Amount      int64
	Date        dates.Date
	ValueDate   *dates.Date
	Note        string
	RecipientID *string
	TagIDs      []string
	PlanningID  *string
}

// TransactionUpdateFields holds optional fields for updating a transaction.
// CategoryID and RecipientID use the empty string to clear the reference.
type TransactionUpdateFields struct {
	Amount      *int64
	Date        *dates.Date
	ValueDate   *dates.Date
	Note        *string
	CategoryID  *string
	RecipientID *string
	Reconciled  *bool
	TagIDs      []string
}

// TransactionFilter holds optional filter parameters for listing transactions.
type TransactionFilter struct {
	FromDate   *dates.Date
	ToDate     *dates.Date
	Type       *models.TransactionType
	CategoryID *string
	AccountID  *string
}

// TransactionServicer defines the contract for the ledger store and the
// transfer engine. Paired operations (transfers, reconciliation, income
// auto-allocation) are atomic: either both legs and all balance updates are
// persisted, or nothing is.
type TransactionServicer interface {
	CreateTransaction(userID string, input TransactionInput) (*models.Transaction, error)
	UpdateTransaction(userID, transactionID string, fields TransactionUpdateFields) (*models.Transaction, error)
	DeleteTransaction(userID, transactionID string) error
	GetTransactionByID(userID, transactionID string) (*models.Transaction, error)
	GetAccountTransactions(userID, accountID string, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error)
	GetCategoryTransactions(userID, categoryID string, page pagination.PageRequest) (*pagination.PageResponse[models.Transaction], error)
	GetUserTransactions(userID string, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error)

	CreateAccountTransfer(userID, fromAccountID, toAccountID string, amount int64, date dates.Date, note string) (*models.Transaction, error)
	CreateCategoryTransfer(userID, fromCategoryID, toCategoryID string, amount int64, date dates.Date, note string) (*models.Transaction, error)
	CreateReconciliation(userID, accountID string, date dates.Date, statedBalance int64) (*models.Transaction, error)
}

// MonthlyBalanceServicer defines the contract for the monthly snapshot
// aggregator.
type MonthlyBalanceServicer interface {
	// Recompute replaces the user's whole snapshot set from the current
	// transaction table. It runs inside the caller's gorm transaction.
	Recompute(tx *gorm.DB, userID string) error
	GetAccountMonthlyBalances(userID, accountID string) ([]models.MonthlyBalance, error)
	GetUserMonthlyBalances(userID string) ([]models.MonthlyBalance, error)
}

// RuleInput holds the fields for creating or updating an automation rule.
type RuleInput struct {
	Name           string
	MatchRecipient string
	MatchNote      string
	SetCategoryID  *string
	SetNote        *string
	TagIDs         []string
	SortOrder      int
	IsActive       bool
}

// RuleServicer defines the contract for automation rules.
type RuleServicer interface {
	CreateRule(userID string, input RuleInput) (*models.Rule, error)
	GetUserRules(userID string) ([]models.Rule, error)
	GetRuleByID(userID, ruleID string) (*models.Rule, error)
	UpdateRule(userID, ruleID string, input RuleInput) (*models.Rule, error)
	DeleteRule(userID, ruleID string) error

	// ApplyToDraft rewrites category, note and tags on a draft transaction
	// input before it is persisted.
	ApplyToDraft(userID string, draft *TransactionInput, stage models.RuleStage) error
}

// PlanningInput holds the fields for creating a planning transaction.
type PlanningInput struct {
	AccountID       *string
	ToAccountID     *string
	CategoryID      *string
	RecipientID     *string
	Amount          int64
	Note            string
	StartDate       dates.Date
	EndDate         *dates.Date
	Pattern         models.RecurrencePattern
	EndType         models.RecurrenceEndType
	RecurrenceCount *int
	ExecutionDay    *int
	Weekend         models.WeekendHandling
	ForecastOnly    bool
}

// PlanningUpdateFields holds optional fields for updating a planning
// transaction.
type PlanningUpdateFields struct {
	CategoryID      *string
	RecipientID     *string
	Amount          *int64
	Note            *string
	StartDate       *dates.Date
	EndDate         *dates.Date
	Pattern         *models.RecurrencePattern
	EndType         *models.RecurrenceEndType
	RecurrenceCount *int
	ExecutionDay    *int
	Weekend         *models.WeekendHandling
	ForecastOnly    *bool
	IsActive        *bool
}

// PlanningServicer defines the contract for recurring transaction templates.
type PlanningServicer interface {
	CreatePlanning(userID string, input PlanningInput) (*models.PlanningTransaction, error)
	GetUserPlannings(userID string, page pagination.PageRequest) (*pagination.PageResponse[models.PlanningTransaction], error)
	GetPlanningByID(userID, planningID string) (*models.PlanningTransaction, error)
	UpdatePlanning(userID, planningID string, fields PlanningUpdateFields) (*models.PlanningTransaction, error)
	DeletePlanning(userID, planningID string) error
	PreviewOccurrences(userID, planningID string, from, to dates.Date) ([]dates.Date, error)

	// ExecuteDue materializes every overdue occurrence of the user's active
	// templates up to and including today, then advances each template's
	// start date past the executed occurrences. Returns the number of
	// materialized transactions. Re-running it is a no-op.
	ExecuteDue(userID string, today dates.Date) (int, error)
}

// TagServicer defines the contract for tag CRUD.
type TagServicer interface {
	CreateTag(userID, name string) (*models.Tag, error)
	GetUserTags(userID string) ([]models.Tag, error)
	UpdateTag(userID, tagID, name string) (*models.Tag, error)
	DeleteTag(userID, tagID string) error
}

// RecipientServicer defines the contract for recipient CRUD.
type RecipientServicer interface {
	CreateRecipient(userID, name string) (*models.Recipient, error)
	GetUserRecipients(userID string) ([]models.Recipient, error)
	UpdateRecipient(userID, recipientID, name string) (*models.Recipient, error)
	DeleteRecipient(userID, recipientID string) error
}

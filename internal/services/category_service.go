package services

import (
	"errors"

	"gorm.io/gorm"

	"haushalt/internal/dates"
	apperrors "haushalt/internal/errors"
	"haushalt/internal/models"
	"haushalt/internal/pagination"
)

// categoryService handles category/envelope business logic.
type categoryService struct {
	db *gorm.DB
}

// NewCategoryService creates a new CategoryServicer.
func NewCategoryService(db *gorm.DB) CategoryServicer {
	return &categoryService{db: db}
}

// EnsureDefaults creates the Available Funds envelope for a user if it does
// not exist yet. Called during ledger bootstrap; idempotent.
func (s *categoryService) EnsureDefaults(userID string) error {
	var count int64
	if err := s.db.Model(&models.Category{}).
		Where("user_id = ? AND name = ?", userID, models.AvailableFundsName).
		Count(&count).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return nil
	}

	available := &models.Category{
		UserID:   userID,
		Name:     models.AvailableFundsName,
		IsIncome: true,
		IsActive: true,
	}
	if err := s.db.Create(available).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// CreateCategory creates a new category
func (s *categoryService) CreateCategory(userID string, input CategoryInput) (*models.Category, error) {
	if input.Name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "category name is required")
	}

	var count int64
	if err := s.db.Model(&models.Category{}).
		Where("user_id = ? AND name = ?", userID, input.Name).
		Count(&count).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "category with this name already exists")
	}

	if input.ParentID != nil {
		if _, err := s.GetCategoryByID(userID, *input.ParentID); err != nil {
			return nil, err
		}
	}

	category := &models.Category{
		UserID:        userID,
		Name:          input.Name,
		ParentID:      input.ParentID,
		IsIncome:      input.IsIncome,
		IsSavingsGoal: input.IsSavingsGoal,
		IsActive:      true,
		StartBalance:  input.StartBalance,
		Balance:       input.StartBalance,
		SortOrder:     input.SortOrder,
	}

	if err := s.db.Create(category).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return category, nil
}

// GetUserCategories retrieves a paginated list of categories for a user.
func (s *categoryService) GetUserCategories(userID string, page pagination.PageRequest) (*pagination.PageResponse[models.Category], error) {
	page.Defaults()

	base := s.db.Model(&models.Category{}).Where("user_id = ?", userID)

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var categories []models.Category
	if err := base.Scopes(pagination.Paginate(page)).
		Order("sort_order ASC, name ASC").
		Find(&categories).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(categories, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetCategoryByID retrieves a category by ID for a specific user
func (s *categoryService) GetCategoryByID(userID, categoryID string) (*models.Category, error) {
	var category models.Category
	if err := s.db.Where("id = ? AND user_id = ?", categoryID, userID).First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCategoryNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &category, nil
}

// UpdateCategory updates an existing category. Envelope balances are derived
// state and cannot be set here.
func (s *categoryService) UpdateCategory(userID, categoryID string, fields CategoryUpdateFields) (*models.Category, error) {
	category, err := s.GetCategoryByID(userID, categoryID)
	if err != nil {
		return nil, err
	}

	if fields.ParentID != nil && *fields.ParentID != "" {
		if *fields.ParentID == categoryID {
			return nil, apperrors.ErrSelfParentCategory
		}
		if _, err := s.GetCategoryByID(userID, *fields.ParentID); err != nil {
			return nil, apperrors.WithMessage(apperrors.ErrCategoryNotFound, "parent category not found")
		}
	}

	updates := make(map[string]interface{})
	if fields.Name != nil && *fields.Name != "" {
		updates["name"] = *fields.Name
	}
	if fields.ParentID != nil {
		updates["parent_id"] = normalizeRef(fields.ParentID)
	}
	if fields.IsSavingsGoal != nil {
		updates["is_savings_goal"] = *fields.IsSavingsGoal
	}
	if fields.IsActive != nil {
		updates["is_active"] = *fields.IsActive
	}
	if fields.SortOrder != nil {
		updates["sort_order"] = *fields.SortOrder
	}

	if len(updates) > 0 {
		if err := s.db.Model(category).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}

	return category, nil
}

// DeleteCategory deletes a category. Categories with children cannot be
// deleted.
func (s *categoryService) DeleteCategory(userID, categoryID string) error {
	category, err := s.GetCategoryByID(userID, categoryID)
	if err != nil {
		return err
	}

	var childCount int64
	if err := s.db.Model(&models.Category{}).Where("parent_id = ?", categoryID).Count(&childCount).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if childCount > 0 {
		return apperrors.ErrCategoryHasChildren
	}

	if err := s.db.Delete(category).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// AvailableFunds returns the user's Available Funds envelope. Its absence
// is a broken bootstrap, not a normal not-found.
func (s *categoryService) AvailableFunds(userID string) (*models.Category, error) {
	return s.AvailableFundsTx(s.db, userID)
}

// AvailableFundsTx is AvailableFunds inside an open gorm transaction.
func (s *categoryService) AvailableFundsTx(tx *gorm.DB, userID string) (*models.Category, error) {
	var category models.Category
	if err := tx.Where("user_id = ? AND name = ?", userID, models.AvailableFundsName).
		First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrAvailableFundsMissing
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &category, nil
}

// ApplyBalanceDelta adjusts a category's running envelope state: balance by
// amountDelta, transaction count by countDelta, and the derived average.
func (s *categoryService) ApplyBalanceDelta(tx *gorm.DB, userID, categoryID string, amountDelta, countDelta int64) error {
	var category models.Category
	if err := tx.Where("id = ? AND user_id = ?", categoryID, userID).First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrCategoryNotFound
		}
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	category.Balance += amountDelta
	category.TransactionCount += countDelta
	if category.TransactionCount < 0 {
		category.TransactionCount = 0
	}
	if category.TransactionCount > 0 {
		category.AverageAmount = category.Balance / category.TransactionCount
	} else {
		category.AverageAmount = 0
	}

	if err := tx.Model(&category).Updates(map[string]interface{}{
		"balance":           category.Balance,
		"transaction_count": category.TransactionCount,
		"average_amount":    category.AverageAmount,
	}).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// CalculateSaldo aggregates a category over a date window. Parent categories
// roll up themselves plus their active direct children; the rollup does not
// recurse further.
//
// Saldo anchors at the category's start balance and includes every row on
// the category (expense, income, reconcile and both category-transfer legs)
// up to the window end. Spent only counts expense rows (income rows for
// income categories) strictly inside the window. Budgeted is a pass-through
// field, always 0 pending a budgeting input model.
func (s *categoryService) CalculateSaldo(userID, categoryID string, from, to dates.Date) (*models.CategorySaldo, error) {
	category, err := s.GetCategoryByID(userID, categoryID)
	if err != nil {
		return nil, err
	}

	result, err := s.saldoForOne(userID, category, from, to)
	if err != nil {
		return nil, err
	}

	var children []models.Category
	if err := s.db.Where("parent_id = ? AND user_id = ? AND is_active = ?", categoryID, userID, true).
		Find(&children).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	for i := range children {
		child, err := s.saldoForOne(userID, &children[i], from, to)
		if err != nil {
			return nil, err
		}
		result.Saldo += child.Saldo
		result.Spent += child.Spent
		result.Budgeted += child.Budgeted
	}

	return result, nil
}

func (s *categoryService) saldoForOne(userID string, category *models.Category, from, to dates.Date) (*models.CategorySaldo, error) {
	// Category-transfer legs carry their own category reference, so a plain
	// category_id match covers the category both as source and destination.
	var sum int64
	if err := s.db.Model(&models.Transaction{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("user_id = ? AND category_id = ? AND date >= ? AND date <= ?",
			userID, category.ID, from.String(), to.String()).
		Scan(&sum).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	spentType := models.TransactionTypeExpense
	if category.IsIncome {
		spentType = models.TransactionTypeIncome
	}

	var spent int64
	if err := s.db.Model(&models.Transaction{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("user_id = ? AND category_id = ? AND type = ? AND date >= ? AND date <= ?",
			userID, category.ID, spentType, from.String(), to.String()).
		Scan(&spent).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return &models.CategorySaldo{
		CategoryID: category.ID,
		Saldo:      category.StartBalance + sum,
		Spent:      spent,
		Budgeted:   0,
	}, nil
}

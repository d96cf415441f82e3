package services

import (
	"errors"

	"gorm.io/gorm"

	apperrors "haushalt/internal/errors"
	"haushalt/internal/models"
)

// accountGroupService handles account group business logic.
type accountGroupService struct {
	db *gorm.DB
}

// NewAccountGroupService creates a new AccountGroupServicer.
func NewAccountGroupService(db *gorm.DB) AccountGroupServicer {
	return &accountGroupService{db: db}
}

// CreateGroup creates a new account group
func (s *accountGroupService) CreateGroup(userID, name string, sortOrder int) (*models.AccountGroup, error) {
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "group name is required")
	}

	group := &models.AccountGroup{
		UserID:    userID,
		Name:      name,
		SortOrder: sortOrder,
	}

	if err := s.db.Create(group).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return group, nil
}

// GetUserGroups retrieves all account groups for a user in sort order.
func (s *accountGroupService) GetUserGroups(userID string) ([]models.AccountGroup, error) {
	var groups []models.AccountGroup
	if err := s.db.Where("user_id = ?", userID).
		Order("sort_order ASC, name ASC").
		Find(&groups).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return groups, nil
}

// GetGroupByID retrieves an account group by ID for a specific user
func (s *accountGroupService) GetGroupByID(userID, groupID string) (*models.AccountGroup, error) {
	var group models.AccountGroup
	if err := s.db.Where("id = ? AND user_id = ?", groupID, userID).First(&group).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrAccountGroupNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &group, nil
}

// UpdateGroup updates an existing account group
func (s *accountGroupService) UpdateGroup(userID, groupID string, name *string, sortOrder *int) (*models.AccountGroup, error) {
	group, err := s.GetGroupByID(userID, groupID)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if name != nil && *name != "" {
		updates["name"] = *name
	}
	if sortOrder != nil {
		updates["sort_order"] = *sortOrder
	}

	if len(updates) > 0 {
		if err := s.db.Model(group).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}

	return group, nil
}

// DeleteGroup deletes an account group. Groups that still have accounts
// cannot be deleted.
func (s *accountGroupService) DeleteGroup(userID, groupID string) error {
	group, err := s.GetGroupByID(userID, groupID)
	if err != nil {
		return err
	}

	var accountCount int64
	if err := s.db.Model(&models.Account{}).Where("group_id = ?", groupID).Count(&accountCount).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if accountCount > 0 {
		return apperrors.ErrAccountGroupInUse
	}

	if err := s.db.Delete(group).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

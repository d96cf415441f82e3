package services

import (
	"errors"

	"gorm.io/gorm"

	apperrors "haushalt/internal/errors"
	"haushalt/internal/models"
)

// recipientService handles recipient CRUD.
type recipientService struct {
	db *gorm.DB
}

// NewRecipientService creates a new RecipientServicer.
func NewRecipientService(db *gorm.DB) RecipientServicer {
	return &recipientService{db: db}
}

// CreateRecipient creates a new recipient
func (s *recipientService) CreateRecipient(userID, name string) (*models.Recipient, error) {
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "recipient name is required")
	}

	var count int64
	if err := s.db.Model(&models.Recipient{}).Where("user_id = ? AND name = ?", userID, name).
		Count(&count).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "recipient with this name already exists")
	}

	recipient := &models.Recipient{UserID: userID, Name: name}
	if err := s.db.Create(recipient).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return recipient, nil
}

// GetUserRecipients retrieves all recipients for a user in name order.
func (s *recipientService) GetUserRecipients(userID string) ([]models.Recipient, error) {
	var recipients []models.Recipient
	if err := s.db.Where("user_id = ?", userID).Order("name ASC").Find(&recipients).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return recipients, nil
}

// UpdateRecipient renames a recipient.
func (s *recipientService) UpdateRecipient(userID, recipientID, name string) (*models.Recipient, error) {
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "recipient name is required")
	}

	var recipient models.Recipient
	if err := s.db.Where("id = ? AND user_id = ?", recipientID, userID).First(&recipient).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrRecipientNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if err := s.db.Model(&recipient).Update("name", name).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &recipient, nil
}

// DeleteRecipient deletes a recipient. Transactions keep working; their
// recipient reference is detached.
func (s *recipientService) DeleteRecipient(userID, recipientID string) error {
	var recipient models.Recipient
	if err := s.db.Where("id = ? AND user_id = ?", recipientID, userID).First(&recipient).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrRecipientNotFound
		}
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Transaction{}).
			Where("recipient_id = ?", recipient.ID).
			Update("recipient_id", nil).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := tx.Model(&models.PlanningTransaction{}).
			Where("recipient_id = ?", recipient.ID).
			Update("recipient_id", nil).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if err := tx.Delete(&recipient).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	})
}

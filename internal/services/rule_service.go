package services

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	apperrors "haushalt/internal/errors"
	"haushalt/internal/models"
)

// ruleService manages automation rules and applies them to draft
// transactions before they reach the ledger.
type ruleService struct {
	db *gorm.DB
}

// NewRuleService creates a new RuleServicer.
func NewRuleService(db *gorm.DB) RuleServicer {
	return &ruleService{db: db}
}

// CreateRule creates an automation rule.
func (s *ruleService) CreateRule(userID string, input RuleInput) (*models.Rule, error) {
	if input.Name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "rule name is required")
	}
	if input.MatchRecipient == "" && input.MatchNote == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "rule needs at least one match criterion")
	}

	rule := &models.Rule{
		UserID:         userID,
		Name:           input.Name,
		Stage:          models.RuleStagePlanning,
		IsActive:       input.IsActive,
		SortOrder:      input.SortOrder,
		MatchRecipient: input.MatchRecipient,
		MatchNote:      input.MatchNote,
		SetCategoryID:  normalizeRef(input.SetCategoryID),
		SetNote:        input.SetNote,
	}

	if len(input.TagIDs) > 0 {
		var tags []models.Tag
		if err := s.db.Where("user_id = ? AND id IN ?", userID, input.TagIDs).Find(&tags).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if len(tags) != len(input.TagIDs) {
			return nil, apperrors.ErrTagNotFound
		}
		rule.Tags = tags
	}

	if err := s.db.Create(rule).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return rule, nil
}

// GetUserRules retrieves all rules for a user in evaluation order.
func (s *ruleService) GetUserRules(userID string) ([]models.Rule, error) {
	var rules []models.Rule
	if err := s.db.Preload("Tags").
		Where("user_id = ?", userID).
		Order("sort_order ASC, created_at ASC").
		Find(&rules).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return rules, nil
}

// GetRuleByID retrieves a rule by ID for a specific user
func (s *ruleService) GetRuleByID(userID, ruleID string) (*models.Rule, error) {
	var rule models.Rule
	if err := s.db.Preload("Tags").
		Where("id = ? AND user_id = ?", ruleID, userID).
		First(&rule).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrRuleNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &rule, nil
}

// UpdateRule replaces a rule's definition.
func (s *ruleService) UpdateRule(userID, ruleID string, input RuleInput) (*models.Rule, error) {
	rule, err := s.GetRuleByID(userID, ruleID)
	if err != nil {
		return nil, err
	}
	if input.Name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "rule name is required")
	}
	if input.MatchRecipient == "" && input.MatchNote == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "rule needs at least one match criterion")
	}

	updates := map[string]interface{}{
		"name":            input.Name,
		"is_active":       input.IsActive,
		"sort_order":      input.SortOrder,
		"match_recipient": input.MatchRecipient,
		"match_note":      input.MatchNote,
		"set_category_id": normalizeRef(input.SetCategoryID),
		"set_note":        input.SetNote,
	}
	if err := s.db.Model(rule).Updates(updates).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if input.TagIDs != nil {
		var tags []models.Tag
		if err := s.db.Where("user_id = ? AND id IN ?", userID, input.TagIDs).Find(&tags).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		if len(tags) != len(input.TagIDs) {
			return nil, apperrors.ErrTagNotFound
		}
		if err := s.db.Model(rule).Association("Tags").Replace(&tags); err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}

	return s.GetRuleByID(userID, ruleID)
}

// DeleteRule deletes a rule.
func (s *ruleService) DeleteRule(userID, ruleID string) error {
	rule, err := s.GetRuleByID(userID, ruleID)
	if err != nil {
		return err
	}
	if err := s.db.Delete(rule).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// ApplyToDraft runs the user's active rules for a stage over a draft
// transaction input, in sort order. Matching is case-insensitive substring
// matching on the recipient name and the note; a rule with both criteria
// set requires both to match. Every matching rule applies, so later rules
// can override earlier ones.
func (s *ruleService) ApplyToDraft(userID string, draft *TransactionInput, stage models.RuleStage) error {
	var rules []models.Rule
	if err := s.db.Preload("Tags").
		Where("user_id = ? AND stage = ? AND is_active = ?", userID, stage, true).
		Order("sort_order ASC, created_at ASC").
		Find(&rules).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if len(rules) == 0 {
		return nil
	}

	recipientName := ""
	if draft.RecipientID != nil && *draft.RecipientID != "" {
		var recipient models.Recipient
		err := s.db.Where("id = ? AND user_id = ?", *draft.RecipientID, userID).
			First(&recipient).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		recipientName = recipient.Name
	}

	for i := range rules {
		rule := &rules[i]
		if !ruleMatches(rule, recipientName, draft.Note) {
			continue
		}
		if rule.SetCategoryID != nil {
			draft.CategoryID = rule.SetCategoryID
		}
		if rule.SetNote != nil {
			draft.Note = *rule.SetNote
		}
		for _, tag := range rule.Tags {
			draft.TagIDs = appendUniqueID(draft.TagIDs, tag.ID)
		}
	}
	return nil
}

func ruleMatches(rule *models.Rule, recipientName, note string) bool {
	if rule.MatchRecipient != "" {
		if recipientName == "" || !strings.Contains(strings.ToLower(recipientName), strings.ToLower(rule.MatchRecipient)) {
			return false
		}
	}
	if rule.MatchNote != "" {
		if !strings.Contains(strings.ToLower(note), strings.ToLower(rule.MatchNote)) {
			return false
		}
	}
	return true
}

func appendUniqueID(ids []string, id string) []string {
	for _, existing := range ids {
		if existing == id {
			return ids
		}
	}
	return append(ids, id)
}

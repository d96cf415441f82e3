package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "haushalt/internal/errors"
	"haushalt/internal/services"
)

// RuleHandler handles automation rule requests.
type RuleHandler struct {
	ruleService services.RuleServicer
}

// NewRuleHandler creates a new RuleHandler.
func NewRuleHandler(ruleService services.RuleServicer) *RuleHandler {
	return &RuleHandler{ruleService: ruleService}
}

// RuleRequest represents the request payload for creating or updating a rule.
type RuleRequest struct {
	Name           string   `json:"name" binding:"required,min=1,max=100"`
	MatchRecipient string   `json:"match_recipient" binding:"max=200"`
	MatchNote      string   `json:"match_note" binding:"max=500"`
	SetCategoryID  *string  `json:"set_category_id" binding:"omitempty,uuid"`
	SetNote        *string  `json:"set_note" binding:"omitempty,max=500"`
	TagIDs         []string `json:"tag_ids" binding:"omitempty,dive,uuid"`
	SortOrder      int      `json:"sort_order" binding:"gte=0"`
	IsActive       bool     `json:"is_active"`
}

func (r *RuleRequest) toInput() services.RuleInput {
	return services.RuleInput{
		Name:           r.Name,
		MatchRecipient: r.MatchRecipient,
		MatchNote:      r.MatchNote,
		SetCategoryID:  r.SetCategoryID,
		SetNote:        r.SetNote,
		TagIDs:         r.TagIDs,
		SortOrder:      r.SortOrder,
		IsActive:       r.IsActive,
	}
}

// CreateRule handles the creation of a new rule
// @Summary     Create a rule
// @Description Create an automation rule that rewrites materialized planning transactions
// @Tags        rules
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body RuleRequest true "Rule details"
// @Success     201 {object} models.Rule "Rule created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /rules [post]
func (h *RuleHandler) CreateRule(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req RuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	rule, err := h.ruleService.CreateRule(userID, req.toInput())
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"rule": rule})
}

// GetUserRules handles listing a user's rules
// @Summary     Get rules
// @Description Get all automation rules for the authenticated user in evaluation order
// @Tags        rules
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Success     200 {array} models.Rule "Rules"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /rules [get]
func (h *RuleHandler) GetUserRules(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	rules, err := h.ruleService.GetUserRules(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"rules": rules})
}

// GetRuleByID handles the retrieval of a specific rule
// @Summary     Get rule by ID
// @Description Get a specific rule by ID for the authenticated user
// @Tags        rules
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Rule ID"
// @Success     200 {object} models.Rule "Rule details"
// @Failure     400 {object} ErrorResponse "Invalid rule ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Rule not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /rules/{id} [get]
func (h *RuleHandler) GetRuleByID(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	ruleID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	rule, err := h.ruleService.GetRuleByID(userID, ruleID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"rule": rule})
}

// UpdateRule handles updating a rule
// @Summary     Update rule
// @Description Replace an existing rule's definition
// @Tags        rules
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Rule ID"
// @Param       request body RuleRequest true "Updated rule details"
// @Success     200 {object} models.Rule "Updated rule"
// @Failure     400 {object} ErrorResponse "Invalid input or rule ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Rule not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /rules/{id} [put]
func (h *RuleHandler) UpdateRule(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	ruleID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req RuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	rule, err := h.ruleService.UpdateRule(userID, ruleID, req.toInput())
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"rule": rule})
}

// DeleteRule handles deleting a rule
// @Summary     Delete rule
// @Description Delete an automation rule
// @Tags        rules
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Rule ID"
// @Success     204 "Rule deleted"
// @Failure     400 {object} ErrorResponse "Invalid rule ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Rule not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /rules/{id} [delete]
func (h *RuleHandler) DeleteRule(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	ruleID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.ruleService.DeleteRule(userID, ruleID); err != nil {
		respondWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

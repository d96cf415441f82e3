package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "haushalt/internal/errors"
	"haushalt/internal/services"
)

// AccountGroupHandler handles account group requests.
type AccountGroupHandler struct {
	groupService services.AccountGroupServicer
}

// NewAccountGroupHandler creates a new AccountGroupHandler.
func NewAccountGroupHandler(groupService services.AccountGroupServicer) *AccountGroupHandler {
	return &AccountGroupHandler{groupService: groupService}
}

// CreateGroupRequest represents the request payload for creating an account group
type CreateGroupRequest struct {
	Name      string `json:"name" binding:"required,min=1,max=100"`
	SortOrder int    `json:"sort_order" binding:"gte=0"`
}

// UpdateGroupRequest represents the request payload for updating an account group.
type UpdateGroupRequest struct {
	Name      *string `json:"name" binding:"omitempty,min=1,max=100"`
	SortOrder *int    `json:"sort_order" binding:"omitempty,gte=0"`
}

// CreateGroup handles the creation of a new account group
// @Summary     Create an account group
// @Description Create a new account group for the authenticated user
// @Tags        account-groups
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateGroupRequest true "Account group details"
// @Success     201 {object} models.AccountGroup "Group created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /account-groups [post]
func (h *AccountGroupHandler) CreateGroup(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	group, err := h.groupService.CreateGroup(userID, req.Name, req.SortOrder)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"group": group})
}

// GetUserGroups handles the retrieval of account groups for a user
// @Summary     Get account groups
// @Description Get all account groups for the authenticated user
// @Tags        account-groups
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Success     200 {array} models.AccountGroup "Account groups"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /account-groups [get]
func (h *AccountGroupHandler) GetUserGroups(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	groups, err := h.groupService.GetUserGroups(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"groups": groups})
}

// UpdateGroup handles updating an account group
// @Summary     Update account group
// @Description Update an existing account group for the authenticated user
// @Tags        account-groups
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Group ID"
// @Param       request body UpdateGroupRequest true "Updated group details"
// @Success     200 {object} models.AccountGroup "Updated group"
// @Failure     400 {object} ErrorResponse "Invalid input or group ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Group not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /account-groups/{id} [put]
func (h *AccountGroupHandler) UpdateGroup(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	groupID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	group, err := h.groupService.UpdateGroup(userID, groupID, req.Name, req.SortOrder)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"group": group})
}

// DeleteGroup handles deleting an account group
// @Summary     Delete account group
// @Description Delete an account group that has no accounts
// @Tags        account-groups
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Group ID"
// @Success     204 "Group deleted"
// @Failure     400 {object} ErrorResponse "Invalid group ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Group not found"
// @Failure     409 {object} ErrorResponse "Group still has accounts"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /account-groups/{id} [delete]
func (h *AccountGroupHandler) DeleteGroup(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	groupID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.groupService.DeleteGroup(userID, groupID); err != nil {
		respondWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

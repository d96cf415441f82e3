package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "haushalt/internal/errors"
	"haushalt/internal/services"
)

// RecipientHandler handles recipient requests.
type RecipientHandler struct {
	recipientService services.RecipientServicer
}

// NewRecipientHandler creates a new RecipientHandler.
func NewRecipientHandler(recipientService services.RecipientServicer) *RecipientHandler {
	return &RecipientHandler{recipientService: recipientService}
}

// RecipientRequest represents the request payload for creating or renaming a recipient.
type RecipientRequest struct {
	Name string `json:"name" binding:"required,min=1,max=200"`
}

// CreateRecipient handles the creation of a new recipient
// @Summary     Create a recipient
// @Description Create a new recipient for the authenticated user
// @Tags        recipients
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body RecipientRequest true "Recipient details"
// @Success     201 {object} models.Recipient "Recipient created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /recipients [post]
func (h *RecipientHandler) CreateRecipient(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req RecipientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	recipient, err := h.recipientService.CreateRecipient(userID, req.Name)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"recipient": recipient})
}

// GetUserRecipients handles listing a user's recipients
// @Summary     Get recipients
// @Description Get all recipients for the authenticated user
// @Tags        recipients
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Success     200 {array} models.Recipient "Recipients"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /recipients [get]
func (h *RecipientHandler) GetUserRecipients(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	recipients, err := h.recipientService.GetUserRecipients(userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"recipients": recipients})
}

// UpdateRecipient handles renaming a recipient
// @Summary     Update recipient
// @Description Rename an existing recipient
// @Tags        recipients
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Recipient ID"
// @Param       request body RecipientRequest true "Updated recipient details"
// @Success     200 {object} models.Recipient "Updated recipient"
// @Failure     400 {object} ErrorResponse "Invalid input or recipient ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Recipient not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /recipients/{id} [put]
func (h *RecipientHandler) UpdateRecipient(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	recipientID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req RecipientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	recipient, err := h.recipientService.UpdateRecipient(userID, recipientID, req.Name)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"recipient": recipient})
}

// DeleteRecipient handles deleting a recipient
// @Summary     Delete recipient
// @Description Delete a recipient and detach it from transactions and templates
// @Tags        recipients
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Recipient ID"
// @Success     204 "Recipient deleted"
// @Failure     400 {object} ErrorResponse "Invalid recipient ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Recipient not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /recipients/{id} [delete]
func (h *RecipientHandler) DeleteRecipient(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	recipientID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.recipientService.DeleteRecipient(userID, recipientID); err != nil {
		respondWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

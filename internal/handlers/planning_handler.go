package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"haushalt/internal/dates"
	apperrors "haushalt/internal/errors"
	"haushalt/internal/models"
	"haushalt/internal/pagination"
	"haushalt/internal/services"
)

// PlanningHandler handles recurring transaction template requests.
type PlanningHandler struct {
	planningService services.PlanningServicer
}

// NewPlanningHandler creates a new PlanningHandler.
func NewPlanningHandler(planningService services.PlanningServicer) *PlanningHandler {
	return &PlanningHandler{planningService: planningService}
}

// CreatePlanningRequest represents the request payload for creating a planning template
type CreatePlanningRequest struct {
	AccountID       *string `json:"account_id" binding:"omitempty,uuid"`
	ToAccountID     *string `json:"to_account_id" binding:"omitempty,uuid"`
	CategoryID      *string `json:"category_id" binding:"omitempty,uuid"`
	RecipientID     *string `json:"recipient_id" binding:"omitempty,uuid"`
	Amount          int64   `json:"amount" binding:"required"`
	Note            string  `json:"note" binding:"max=500"`
	StartDate       string  `json:"start_date" binding:"required"`
	EndDate         *string `json:"end_date"`
	Pattern         string  `json:"pattern" binding:"required,recurrence_pattern"`
	EndType         string  `json:"end_type" binding:"omitempty,recurrence_end"`
	RecurrenceCount *int    `json:"recurrence_count" binding:"omitempty,min=1"`
	ExecutionDay    *int    `json:"execution_day" binding:"omitempty,min=1,max=31"`
	Weekend         string  `json:"weekend" binding:"omitempty,weekend_handling"`
	ForecastOnly    bool    `json:"forecast_only"`
}

// UpdatePlanningRequest represents the request payload for updating a planning template.
type UpdatePlanningRequest struct {
	CategoryID      *string `json:"category_id" binding:"omitempty,uuid"`
	RecipientID     *string `json:"recipient_id"`
	Amount          *int64  `json:"amount"`
	Note            *string `json:"note" binding:"omitempty,max=500"`
	StartDate       *string `json:"start_date"`
	EndDate         *string `json:"end_date"`
	Pattern         *string `json:"pattern" binding:"omitempty,recurrence_pattern"`
	EndType         *string `json:"end_type" binding:"omitempty,recurrence_end"`
	RecurrenceCount *int    `json:"recurrence_count" binding:"omitempty,min=1"`
	ExecutionDay    *int    `json:"execution_day" binding:"omitempty,min=1,max=31"`
	Weekend         *string `json:"weekend" binding:"omitempty,weekend_handling"`
	ForecastOnly    *bool   `json:"forecast_only"`
	IsActive        *bool   `json:"is_active"`
}

// ExecuteDueResponse reports how many transactions due execution created.
type ExecuteDueResponse struct {
	Executed int `json:"executed"`
}

// CreatePlanning handles the creation of a new planning template
// @Summary     Create a planning template
// @Description Create a recurring transaction template
// @Tags        plannings
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreatePlanningRequest true "Planning template details"
// @Success     201 {object} models.PlanningTransaction "Template created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Account or category not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /plannings [post]
func (h *PlanningHandler) CreatePlanning(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreatePlanningRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	startDate, err := parseDateField(req.StartDate, "start_date")
	if err != nil {
		respondWithError(c, err)
		return
	}

	input := services.PlanningInput{
		AccountID:       req.AccountID,
		ToAccountID:     req.ToAccountID,
		CategoryID:      req.CategoryID,
		RecipientID:     req.RecipientID,
		Amount:          req.Amount,
		Note:            req.Note,
		StartDate:       startDate,
		Pattern:         models.RecurrencePattern(req.Pattern),
		EndType:         models.RecurrenceEndType(req.EndType),
		RecurrenceCount: req.RecurrenceCount,
		ExecutionDay:    req.ExecutionDay,
		Weekend:         models.WeekendHandling(req.Weekend),
		ForecastOnly:    req.ForecastOnly,
	}
	if req.EndDate != nil && *req.EndDate != "" {
		endDate, err := parseDateField(*req.EndDate, "end_date")
		if err != nil {
			respondWithError(c, err)
			return
		}
		input.EndDate = &endDate
	}

	planning, err := h.planningService.CreatePlanning(userID, input)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"planning": planning})
}

// GetUserPlannings handles listing a user's planning templates
// @Summary     Get planning templates
// @Description Get a paginated list of planning templates for the authenticated user
// @Tags        plannings
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       page      query int false "Page number (default 1)"
// @Param       page_size query int false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.PlanningTransaction] "Paginated templates"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /plannings [get]
func (h *PlanningHandler) GetUserPlannings(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	result, err := h.planningService.GetUserPlannings(userID, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetPlanningByID handles the retrieval of a specific planning template
// @Summary     Get planning template by ID
// @Description Get a specific planning template by ID for the authenticated user
// @Tags        plannings
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Planning ID"
// @Success     200 {object} models.PlanningTransaction "Template details"
// @Failure     400 {object} ErrorResponse "Invalid planning ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Template not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /plannings/{id} [get]
func (h *PlanningHandler) GetPlanningByID(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	planningID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	planning, err := h.planningService.GetPlanningByID(userID, planningID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"planning": planning})
}

// UpdatePlanning handles updating a planning template
// @Summary     Update planning template
// @Description Update an existing planning template for the authenticated user
// @Tags        plannings
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Planning ID"
// @Param       request body UpdatePlanningRequest true "Updated template details"
// @Success     200 {object} models.PlanningTransaction "Updated template"
// @Failure     400 {object} ErrorResponse "Invalid input or planning ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Template not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /plannings/{id} [put]
func (h *PlanningHandler) UpdatePlanning(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	planningID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdatePlanningRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	fields := services.PlanningUpdateFields{
		CategoryID:      req.CategoryID,
		RecipientID:     req.RecipientID,
		Amount:          req.Amount,
		Note:            req.Note,
		RecurrenceCount: req.RecurrenceCount,
		ExecutionDay:    req.ExecutionDay,
		ForecastOnly:    req.ForecastOnly,
		IsActive:        req.IsActive,
	}
	if req.StartDate != nil && *req.StartDate != "" {
		startDate, err := parseDateField(*req.StartDate, "start_date")
		if err != nil {
			respondWithError(c, err)
			return
		}
		fields.StartDate = &startDate
	}
	if req.EndDate != nil && *req.EndDate != "" {
		endDate, err := parseDateField(*req.EndDate, "end_date")
		if err != nil {
			respondWithError(c, err)
			return
		}
		fields.EndDate = &endDate
	}
	if req.Pattern != nil {
		pattern := models.RecurrencePattern(*req.Pattern)
		fields.Pattern = &pattern
	}
	if req.EndType != nil {
		endType := models.RecurrenceEndType(*req.EndType)
		fields.EndType = &endType
	}
	if req.Weekend != nil {
		weekend := models.WeekendHandling(*req.Weekend)
		fields.Weekend = &weekend
	}

	planning, err := h.planningService.UpdatePlanning(userID, planningID, fields)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"planning": planning})
}

// DeletePlanning handles deleting a planning template
// @Summary     Delete planning template
// @Description Delete a planning template. Transactions already materialized from it are kept.
// @Tags        plannings
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Planning ID"
// @Success     204 "Template deleted"
// @Failure     400 {object} ErrorResponse "Invalid planning ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Template not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /plannings/{id} [delete]
func (h *PlanningHandler) DeletePlanning(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	planningID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.planningService.DeletePlanning(userID, planningID); err != nil {
		respondWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// GetOccurrences handles previewing a template's occurrence dates
// @Summary     Preview occurrences
// @Description Expand a planning template's occurrence dates inside a window without creating transactions
// @Tags        plannings
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id   path  string true "Planning ID"
// @Param       from query string true "Window start (YYYY-MM-DD)"
// @Param       to   query string true "Window end (YYYY-MM-DD)"
// @Success     200 {array} string "Occurrence dates"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Template not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /plannings/{id}/occurrences [get]
func (h *PlanningHandler) GetOccurrences(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	planningID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	from, err := parseDateField(c.Query("from"), "from")
	if err != nil {
		respondWithError(c, err)
		return
	}
	to, err := parseDateField(c.Query("to"), "to")
	if err != nil {
		respondWithError(c, err)
		return
	}

	occurrences, err := h.planningService.PreviewOccurrences(userID, planningID, from, to)
	if err != nil {
		respondWithError(c, err)
		return
	}
	if occurrences == nil {
		occurrences = []dates.Date{}
	}

	c.JSON(http.StatusOK, gin.H{"occurrences": occurrences})
}

// ExecuteDue handles materializing all due planning occurrences
// @Summary     Execute due plannings
// @Description Materialize every occurrence due on or before today across the user's active templates. Idempotent per day.
// @Tags        plannings
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} ExecuteDueResponse "Number of transactions created"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /plannings/execute-due [post]
func (h *PlanningHandler) ExecuteDue(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	executed, err := h.planningService.ExecuteDue(userID, dates.Today())
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"executed": executed})
}

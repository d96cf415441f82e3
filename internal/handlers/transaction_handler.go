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

// TransactionHandler handles ledger transaction requests.
type TransactionHandler struct {
	transactionService services.TransactionServicer
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(transactionService services.TransactionServicer) *TransactionHandler {
	return &TransactionHandler{transactionService: transactionService}
}

// CreateTransactionRequest represents the request payload for creating a transaction
type CreateTransactionRequest struct {
	AccountID   string   `json:"account_id" binding:"required,uuid"`
	CategoryID  *string  `json:"category_id" binding:"omitempty,uuid"`
	Type        string   `json:"type" binding:"required,oneof=expense income"`
	Amount      int64    `json:"amount" binding:"required"`
	Date        string   `json:"date" binding:"required"`
	ValueDate   *string  `json:"value_date"`
	Note        string   `json:"note" binding:"max=500"`
	RecipientID *string  `json:"recipient_id" binding:"omitempty,uuid"`
	TagIDs      []string `json:"tag_ids" binding:"omitempty,dive,uuid"`
}

// UpdateTransactionRequest represents the request payload for updating a transaction.
// category_id and recipient_id accept the empty string to clear the reference.
type UpdateTransactionRequest struct {
	Amount      *int64   `json:"amount"`
	Date        *string  `json:"date"`
	ValueDate   *string  `json:"value_date"`
	Note        *string  `json:"note" binding:"omitempty,max=500"`
	CategoryID  *string  `json:"category_id"`
	RecipientID *string  `json:"recipient_id"`
	Reconciled  *bool    `json:"reconciled"`
	TagIDs      []string `json:"tag_ids" binding:"omitempty,dive,uuid"`
}

// TransferRequest represents the request payload for an account transfer.
type TransferRequest struct {
	FromAccountID string `json:"from_account_id" binding:"required,uuid"`
	ToAccountID   string `json:"to_account_id" binding:"required,uuid"`
	Amount        int64  `json:"amount" binding:"required"`
	Date          string `json:"date" binding:"required"`
	Note          string `json:"note" binding:"max=500"`
}

// CategoryTransferRequest represents the request payload for a category transfer.
type CategoryTransferRequest struct {
	FromCategoryID string `json:"from_category_id" binding:"required,uuid"`
	ToCategoryID   string `json:"to_category_id" binding:"required,uuid"`
	Amount         int64  `json:"amount" binding:"required"`
	Date           string `json:"date" binding:"required"`
	Note           string `json:"note" binding:"max=500"`
}

// ReconcileRequest represents the request payload for an account reconciliation.
type ReconcileRequest struct {
	AccountID     string `json:"account_id" binding:"required,uuid"`
	Date          string `json:"date" binding:"required"`
	StatedBalance int64  `json:"stated_balance"`
}

func parseDateField(value, field string) (dates.Date, error) {
	d, err := dates.Parse(value)
	if err != nil {
		return dates.Date{}, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid "+field)
	}
	return d, nil
}

// CreateTransaction handles the creation of a new transaction
// @Summary     Create a transaction
// @Description Create a new expense or income transaction
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CreateTransactionRequest true "Transaction details"
// @Success     201 {object} models.Transaction "Transaction created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Account or category not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions [post]
func (h *TransactionHandler) CreateTransaction(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	date, err := parseDateField(req.Date, "date")
	if err != nil {
		respondWithError(c, err)
		return
	}

	input := services.TransactionInput{
		AccountID:   &req.AccountID,
		CategoryID:  req.CategoryID,
		Type:        models.TransactionType(req.Type),
		Amount:      req.Amount,
		Date:        date,
		Note:        req.Note,
		RecipientID: req.RecipientID,
		TagIDs:      req.TagIDs,
	}
	if req.ValueDate != nil && *req.ValueDate != "" {
		valueDate, err := parseDateField(*req.ValueDate, "value_date")
		if err != nil {
			respondWithError(c, err)
			return
		}
		input.ValueDate = &valueDate
	}

	transaction, err := h.transactionService.CreateTransaction(userID, input)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"transaction": transaction})
}

// GetUserTransactions handles listing a user's transactions
// @Summary     Get user transactions
// @Description Get a paginated list of transactions for the authenticated user, newest first
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       page        query int    false "Page number (default 1)"
// @Param       page_size   query int    false "Items per page (default 20, max 100)"
// @Param       from        query string false "Filter start date (YYYY-MM-DD)"
// @Param       to          query string false "Filter end date (YYYY-MM-DD)"
// @Param       type        query string false "Transaction type filter"
// @Param       account_id  query string false "Account filter"
// @Param       category_id query string false "Category filter"
// @Success     200 {object} pagination.PageResponse[models.Transaction] "Paginated transactions"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions [get]
func (h *TransactionHandler) GetUserTransactions(c *gin.Context) {
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

	filter, err := parseTransactionFilter(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.transactionService.GetUserTransactions(userID, page, filter)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func parseTransactionFilter(c *gin.Context) (services.TransactionFilter, error) {
	var filter services.TransactionFilter

	if v := c.Query("from"); v != "" {
		d, err := parseDateField(v, "from")
		if err != nil {
			return filter, err
		}
		filter.FromDate = &d
	}
	if v := c.Query("to"); v != "" {
		d, err := parseDateField(v, "to")
		if err != nil {
			return filter, err
		}
		filter.ToDate = &d
	}
	if v := c.Query("type"); v != "" {
		t := models.TransactionType(v)
		filter.Type = &t
	}
	if v := c.Query("account_id"); v != "" {
		filter.AccountID = &v
	}
	if v := c.Query("category_id"); v != "" {
		filter.CategoryID = &v
	}
	return filter, nil
}

// GetAccountTransactions handles listing an account's transactions
// @Summary     Get account transactions
// @Description Get a paginated list of an account's transactions, newest first
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id        path  string true  "Account ID"
// @Param       page      query int    false "Page number (default 1)"
// @Param       page_size query int    false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.Transaction] "Paginated transactions"
// @Failure     400 {object} ErrorResponse "Invalid account ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Account not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /accounts/{id}/transactions [get]
func (h *TransactionHandler) GetAccountTransactions(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	accountID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	filter, err := parseTransactionFilter(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.transactionService.GetAccountTransactions(userID, accountID, page, filter)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetCategoryTransactions handles listing a category's transactions
// @Summary     Get category transactions
// @Description Get a paginated list of a category's transactions, newest first
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id        path  string true  "Category ID"
// @Param       page      query int    false "Page number (default 1)"
// @Param       page_size query int    false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.Transaction] "Paginated transactions"
// @Failure     400 {object} ErrorResponse "Invalid category ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Category not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /categories/{id}/transactions [get]
func (h *TransactionHandler) GetCategoryTransactions(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	categoryID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	result, err := h.transactionService.GetCategoryTransactions(userID, categoryID, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetTransactionByID handles the retrieval of a specific transaction
// @Summary     Get transaction by ID
// @Description Get a specific transaction by ID for the authenticated user
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Transaction ID"
// @Success     200 {object} models.Transaction "Transaction details"
// @Failure     400 {object} ErrorResponse "Invalid transaction ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions/{id} [get]
func (h *TransactionHandler) GetTransactionByID(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	transactionID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	transaction, err := h.transactionService.GetTransactionByID(userID, transactionID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"transaction": transaction})
}

// UpdateTransaction handles updating a transaction
// @Summary     Update transaction
// @Description Update an existing transaction. Changes to transfer legs are mirrored to the counter leg.
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Transaction ID"
// @Param       request body UpdateTransactionRequest true "Updated transaction details"
// @Success     200 {object} models.Transaction "Updated transaction"
// @Failure     400 {object} ErrorResponse "Invalid input or transaction ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions/{id} [put]
func (h *TransactionHandler) UpdateTransaction(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	transactionID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	fields := services.TransactionUpdateFields{
		Amount:      req.Amount,
		Note:        req.Note,
		CategoryID:  req.CategoryID,
		RecipientID: req.RecipientID,
		Reconciled:  req.Reconciled,
		TagIDs:      req.TagIDs,
	}
	if req.Date != nil && *req.Date != "" {
		date, err := parseDateField(*req.Date, "date")
		if err != nil {
			respondWithError(c, err)
			return
		}
		fields.Date = &date
	}
	if req.ValueDate != nil && *req.ValueDate != "" {
		valueDate, err := parseDateField(*req.ValueDate, "value_date")
		if err != nil {
			respondWithError(c, err)
			return
		}
		fields.ValueDate = &valueDate
	}

	transaction, err := h.transactionService.UpdateTransaction(userID, transactionID, fields)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"transaction": transaction})
}

// DeleteTransaction handles deleting a transaction
// @Summary     Delete transaction
// @Description Delete a transaction. Deleting one leg of a transfer deletes both legs.
// @Tags        transactions
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Transaction ID"
// @Success     204 "Transaction deleted"
// @Failure     400 {object} ErrorResponse "Invalid transaction ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Transaction not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions/{id} [delete]
func (h *TransactionHandler) DeleteTransaction(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	transactionID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.transactionService.DeleteTransaction(userID, transactionID); err != nil {
		respondWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// CreateTransfer handles creating an account transfer
// @Summary     Create an account transfer
// @Description Move money between two accounts as a linked pair of transactions
// @Tags        transfers
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body TransferRequest true "Transfer details"
// @Success     201 {object} models.Transaction "Outgoing transfer leg"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Account not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transfers [post]
func (h *TransactionHandler) CreateTransfer(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	date, err := parseDateField(req.Date, "date")
	if err != nil {
		respondWithError(c, err)
		return
	}

	transfer, err := h.transactionService.CreateAccountTransfer(userID, req.FromAccountID, req.ToAccountID, req.Amount, date, req.Note)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"transaction": transfer})
}

// CreateCategoryTransfer handles creating a category transfer
// @Summary     Create a category transfer
// @Description Move budget between two categories as a linked pair of transactions
// @Tags        transfers
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body CategoryTransferRequest true "Category transfer details"
// @Success     201 {object} models.Transaction "Outgoing transfer leg"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Category not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transfers/categories [post]
func (h *TransactionHandler) CreateCategoryTransfer(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req CategoryTransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	date, err := parseDateField(req.Date, "date")
	if err != nil {
		respondWithError(c, err)
		return
	}

	transfer, err := h.transactionService.CreateCategoryTransfer(userID, req.FromCategoryID, req.ToCategoryID, req.Amount, date, req.Note)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"transaction": transfer})
}

// ReconcileAccount handles reconciling an account against a stated balance
// @Summary     Reconcile account
// @Description Force an account's ledger balance to a stated real-world balance by inserting a correction transaction for the difference
// @Tags        transfers
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body ReconcileRequest true "Reconciliation details"
// @Success     200 {object} models.Transaction "Correction transaction, null when no correction was needed"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Account not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /transactions/reconcile [post]
func (h *TransactionHandler) ReconcileAccount(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req ReconcileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	date, err := parseDateField(req.Date, "date")
	if err != nil {
		respondWithError(c, err)
		return
	}

	correction, err := h.transactionService.CreateReconciliation(userID, req.AccountID, date, req.StatedBalance)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"transaction": correction})
}

package handlers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"

	"haushalt/internal/dates"
	apperrors "haushalt/internal/errors"
	"haushalt/internal/models"
	"haushalt/internal/pagination"
	"haushalt/internal/services"
)

// --- mock transaction service ---

type mockTransactionService struct {
	createTransactionFn       func(userID string, input services.TransactionInput) (*models.Transaction, error)
	updateTransactionFn       func(userID, transactionID string, fields services.TransactionUpdateFields) (*models.Transaction, error)
	deleteTransactionFn       func(userID, transactionID string) error
	getTransactionByIDFn      func(userID, transactionID string) (*models.Transaction, error)
	getAccountTransactionsFn  func(userID, accountID string, page pagination.PageRequest, filter services.TransactionFilter) (*pagination.PageResponse[models.Transaction], error)
	getCategoryTransactionsFn func(userID, categoryID string, page pagination.PageRequest) (*pagination.PageResponse[models.Transaction], error)
	getUserTransactionsFn     func(userID string, page pagination.PageRequest, filter services.TransactionFilter) (*pagination.PageResponse[models.Transaction], error)
	createAccountTransferFn   func(userID, fromAccountID, toAccountID string, amount int64, date dates.Date, note string) (*models.Transaction, error)
	createCategoryTransferFn  func(userID, fromCategoryID, toCategoryID string, amount int64, date dates.Date, note string) (*models.Transaction, error)
	createReconciliationFn    func(userID, accountID string, date dates.Date, statedBalance int64) (*models.Transaction, error)
}

func (m *mockTransactionService) CreateTransaction(userID string, input services.TransactionInput) (*models.Transaction, error) {
	if m.createTransactionFn != nil {
		return m.createTransactionFn(userID, input)
	}
	return &models.Transaction{}, nil
}

func (m *mockTransactionService) UpdateTransaction(userID, transactionID string, fields services.TransactionUpdateFields) (*models.Transaction, error) {
	if m.updateTransactionFn != nil {
		return m.updateTransactionFn(userID, transactionID, fields)
	}
	return &models.Transaction{}, nil
}

func (m *mockTransactionService) DeleteTransaction(userID, transactionID string) error {
	if m.deleteTransactionFn != nil {
		return m.deleteTransactionFn(userID, transactionID)
	}
	return nil
}

func (m *mockTransactionService) GetTransactionByID(userID, transactionID string) (*models.Transaction, error) {
	if m.getTransactionByIDFn != nil {
		return m.getTransactionByIDFn(userID, transactionID)
	}
	return &models.Transaction{}, nil
}

func (m *mockTransactionService) GetAccountTransactions(userID, accountID string, page pagination.PageRequest, filter services.TransactionFilter) (*pagination.PageResponse[models.Transaction], error) {
	if m.getAccountTransactionsFn != nil {
		return m.getAccountTransactionsFn(userID, accountID, page, filter)
	}
	resp := pagination.NewPageResponse([]models.Transaction{}, 1, 20, 0)
	return &resp, nil
}

func (m *mockTransactionService) GetCategoryTransactions(userID, categoryID string, page pagination.PageRequest) (*pagination.PageResponse[models.Transaction], error) {
	if m.getCategoryTransactionsFn != nil {
		return m.getCategoryTransactionsFn(userID, categoryID, page)
	}
	resp := pagination.NewPageResponse([]models.Transaction{}, 1, 20, 0)
	return &resp, nil
}

func (m *mockTransactionService) GetUserTransactions(userID string, page pagination.PageRequest, filter services.TransactionFilter) (*pagination.PageResponse[models.Transaction], error) {
	if m.getUserTransactionsFn != nil {
		return m.getUserTransactionsFn(userID, page, filter)
	}
	resp := pagination.NewPageResponse([]models.Transaction{}, 1, 20, 0)
	return &resp, nil
}

func (m *mockTransactionService) CreateAccountTransfer(userID, fromAccountID, toAccountID string, amount int64, date dates.Date, note string) (*models.Transaction, error) {
	if m.createAccountTransferFn != nil {
		return m.createAccountTransferFn(userID, fromAccountID, toAccountID, amount, date, note)
	}
	return &models.Transaction{}, nil
}

func (m *mockTransactionService) CreateCategoryTransfer(userID, fromCategoryID, toCategoryID string, amount int64, date dates.Date, note string) (*models.Transaction, error) {
	if m.createCategoryTransferFn != nil {
		return m.createCategoryTransferFn(userID, fromCategoryID, toCategoryID, amount, date, note)
	}
	return &models.Transaction{}, nil
}

func (m *mockTransactionService) CreateReconciliation(userID, accountID string, date dates.Date, statedBalance int64) (*models.Transaction, error) {
	if m.createReconciliationFn != nil {
		return m.createReconciliationFn(userID, accountID, date, statedBalance)
	}
	return &models.Transaction{}, nil
}

// verify interface compliance
var _ services.TransactionServicer = (*mockTransactionService)(nil)

const (
	testAccountID     = "018f3c2a-0000-7000-8000-0000000000aa"
	testTransactionID = "018f3c2a-0000-7000-8000-0000000000bb"
)

func setupTransactionRouter(handler *TransactionHandler) *gin.Engine {
	r := gin.New()
	auth := r.Group("", injectUserID(testUserID))
	auth.POST("/transactions", handler.CreateTransaction)
	auth.GET("/transactions", handler.GetUserTransactions)
	auth.GET("/transactions/:id", handler.GetTransactionByID)
	auth.PUT("/transactions/:id", handler.UpdateTransaction)
	auth.DELETE("/transactions/:id", handler.DeleteTransaction)
	auth.POST("/transactions/reconcile", handler.ReconcileAccount)
	auth.POST("/transfers", handler.CreateTransfer)
	auth.POST("/transfers/categories", handler.CreateCategoryTransfer)
	return r
}

func TestTransactionHandler_CreateTransaction(t *testing.T) {
	t.Run("returns 201 on success", func(t *testing.T) {
		txSvc := &mockTransactionService{
			createTransactionFn: func(userID string, input services.TransactionInput) (*models.Transaction, error) {
				if userID != testUserID {
					t.Errorf("expected user %s, got %s", testUserID, userID)
				}
				return &models.Transaction{
					Base:      models.Base{ID: testTransactionID},
					UserID:    userID,
					AccountID: input.AccountID,
					Type:      input.Type,
					Amount:    -input.Amount,
					Date:      input.Date,
					Note:      input.Note,
				}, nil
			},
		}
		handler := NewTransactionHandler(txSvc)
		r := setupTransactionRouter(handler)

		rec := doRequest(r, "POST", "/transactions",
			`{"account_id":"`+testAccountID+`","type":"expense","amount":2500,"date":"2024-03-10","note":"Groceries"}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		result := parseJSON(t, rec)
		tx := result["transaction"].(map[string]interface{})
		if tx["note"] != "Groceries" {
			t.Errorf("expected note Groceries, got %v", tx["note"])
		}
	})

	t.Run("returns 400 on transfer type", func(t *testing.T) {
		handler := NewTransactionHandler(&mockTransactionService{})
		r := setupTransactionRouter(handler)

		rec := doRequest(r, "POST", "/transactions",
			`{"account_id":"`+testAccountID+`","type":"transfer","amount":2500,"date":"2024-03-10"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
	})

	t.Run("returns 400 on malformed date", func(t *testing.T) {
		handler := NewTransactionHandler(&mockTransactionService{})
		r := setupTransactionRouter(handler)

		rec := doRequest(r, "POST", "/transactions",
			`{"account_id":"`+testAccountID+`","type":"expense","amount":2500,"date":"10.03.2024"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("returns 404 on unknown account", func(t *testing.T) {
		txSvc := &mockTransactionService{
			createTransactionFn: func(_ string, _ services.TransactionInput) (*models.Transaction, error) {
				return nil, apperrors.ErrAccountNotFound
			},
		}
		handler := NewTransactionHandler(txSvc)
		r := setupTransactionRouter(handler)

		rec := doRequest(r, "POST", "/transactions",
			`{"account_id":"`+testAccountID+`","type":"expense","amount":2500,"date":"2024-03-10"}`)

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "ACCOUNT_NOT_FOUND")
	})
}

func TestTransactionHandler_GetUserTransactions(t *testing.T) {
	t.Run("passes filters through", func(t *testing.T) {
		var gotFilter services.TransactionFilter
		txSvc := &mockTransactionService{
			getUserTransactionsFn: func(_ string, _ pagination.PageRequest, filter services.TransactionFilter) (*pagination.PageResponse[models.Transaction], error) {
				gotFilter = filter
				resp := pagination.NewPageResponse([]models.Transaction{}, 1, 20, 0)
				return &resp, nil
			},
		}
		handler := NewTransactionHandler(txSvc)
		r := setupTransactionRouter(handler)

		rec := doRequest(r, "GET", "/transactions?from=2024-01-01&to=2024-01-31&type=expense", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if gotFilter.FromDate == nil || gotFilter.FromDate.String() != "2024-01-01" {
			t.Errorf("expected from filter, got %v", gotFilter.FromDate)
		}
		if gotFilter.Type == nil || *gotFilter.Type != models.TransactionTypeExpense {
			t.Errorf("expected type filter, got %v", gotFilter.Type)
		}
	})

	t.Run("returns 400 on oversized page", func(t *testing.T) {
		handler := NewTransactionHandler(&mockTransactionService{})
		r := setupTransactionRouter(handler)

		rec := doRequest(r, "GET", "/transactions?page_size=500", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestTransactionHandler_DeleteTransaction(t *testing.T) {
	t.Run("returns 204 on success", func(t *testing.T) {
		handler := NewTransactionHandler(&mockTransactionService{})
		r := setupTransactionRouter(handler)

		rec := doRequest(r, "DELETE", "/transactions/"+testTransactionID, "")

		if rec.Code != http.StatusNoContent {
			t.Fatalf("expected 204, got %d", rec.Code)
		}
	})

	t.Run("returns 400 on malformed id", func(t *testing.T) {
		handler := NewTransactionHandler(&mockTransactionService{})
		r := setupTransactionRouter(handler)

		rec := doRequest(r, "DELETE", "/transactions/not-a-uuid", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("returns 404 when not found", func(t *testing.T) {
		txSvc := &mockTransactionService{
			deleteTransactionFn: func(_, _ string) error {
				return apperrors.ErrTransactionNotFound
			},
		}
		handler := NewTransactionHandler(txSvc)
		r := setupTransactionRouter(handler)

		rec := doRequest(r, "DELETE", "/transactions/"+testTransactionID, "")

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
	})
}

func TestTransactionHandler_CreateTransfer(t *testing.T) {
	fromID := testAccountID
	toID := "018f3c2a-0000-7000-8000-0000000000cc"

	t.Run("returns 201 with the outgoing leg", func(t *testing.T) {
		txSvc := &mockTransactionService{
			createAccountTransferFn: func(_, from, to string, amount int64, date dates.Date, note string) (*models.Transaction, error) {
				if from != fromID || to != toID {
					t.Errorf("unexpected accounts %s -> %s", from, to)
				}
				return &models.Transaction{
					Base:      models.Base{ID: testTransactionID},
					AccountID: &from,
					Type:      models.TransactionTypeTransfer,
					Amount:    -amount,
					Date:      date,
					Note:      note,
				}, nil
			},
		}
		handler := NewTransactionHandler(txSvc)
		r := setupTransactionRouter(handler)

		rec := doRequest(r, "POST", "/transfers",
			`{"from_account_id":"`+fromID+`","to_account_id":"`+toID+`","amount":2500,"date":"2024-03-10"}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		result := parseJSON(t, rec)
		tx := result["transaction"].(map[string]interface{})
		if tx["amount"].(float64) != -2500 {
			t.Errorf("expected outgoing leg amount -2500, got %v", tx["amount"])
		}
	})

	t.Run("returns 400 on same account", func(t *testing.T) {
		txSvc := &mockTransactionService{
			createAccountTransferFn: func(_, _, _ string, _ int64, _ dates.Date, _ string) (*models.Transaction, error) {
				return nil, apperrors.ErrSameAccountTransfer
			},
		}
		handler := NewTransactionHandler(txSvc)
		r := setupTransactionRouter(handler)

		rec := doRequest(r, "POST", "/transfers",
			`{"from_account_id":"`+fromID+`","to_account_id":"`+fromID+`","amount":2500,"date":"2024-03-10"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "SAME_ACCOUNT_TRANSFER")
	})

	t.Run("returns 400 on missing destination", func(t *testing.T) {
		handler := NewTransactionHandler(&mockTransactionService{})
		r := setupTransactionRouter(handler)

		rec := doRequest(r, "POST", "/transfers",
			`{"from_account_id":"`+fromID+`","amount":2500,"date":"2024-03-10"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestTransactionHandler_ReconcileAccount(t *testing.T) {
	t.Run("returns the correction transaction", func(t *testing.T) {
		txSvc := &mockTransactionService{
			createReconciliationFn: func(_, accountID string, date dates.Date, statedBalance int64) (*models.Transaction, error) {
				return &models.Transaction{
					Base:             models.Base{ID: testTransactionID},
					AccountID:        &accountID,
					Type:             models.TransactionTypeReconcile,
					Amount:           -2000,
					Date:             date,
					IsReconciliation: true,
					Reconciled:       true,
				}, nil
			},
		}
		handler := NewTransactionHandler(txSvc)
		r := setupTransactionRouter(handler)

		rec := doRequest(r, "POST", "/transactions/reconcile",
			`{"account_id":"`+testAccountID+`","date":"2024-03-31","stated_balance":8000}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		result := parseJSON(t, rec)
		tx := result["transaction"].(map[string]interface{})
		if tx["amount"].(float64) != -2000 {
			t.Errorf("expected correction of -2000, got %v", tx["amount"])
		}
	})

	t.Run("returns null when no correction was needed", func(t *testing.T) {
		txSvc := &mockTransactionService{
			createReconciliationFn: func(_, _ string, _ dates.Date, _ int64) (*models.Transaction, error) {
				return nil, nil
			},
		}
		handler := NewTransactionHandler(txSvc)
		r := setupTransactionRouter(handler)

		rec := doRequest(r, "POST", "/transactions/reconcile",
			`{"account_id":"`+testAccountID+`","date":"2024-03-31","stated_balance":8000}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		result := parseJSON(t, rec)
		if result["transaction"] != nil {
			t.Errorf("expected null transaction, got %v", result["transaction"])
		}
	})

	t.Run("a zero stated balance is a valid target", func(t *testing.T) {
		var gotBalance int64 = -1
		txSvc := &mockTransactionService{
			createReconciliationFn: func(_, _ string, _ dates.Date, statedBalance int64) (*models.Transaction, error) {
				gotBalance = statedBalance
				return nil, nil
			},
		}
		handler := NewTransactionHandler(txSvc)
		r := setupTransactionRouter(handler)

		rec := doRequest(r, "POST", "/transactions/reconcile",
			`{"account_id":"`+testAccountID+`","date":"2024-03-31","stated_balance":0}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if gotBalance != 0 {
			t.Errorf("expected stated balance 0 passed through, got %d", gotBalance)
		}
	})
}

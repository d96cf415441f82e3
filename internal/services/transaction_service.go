package services

import (
	"errors"

	"gorm.io/gorm"

	"haushalt/internal/dates"
	apperrors "haushalt/internal/errors"
	"haushalt/internal/models"
	"haushalt/internal/pagination"
)

// transactionService is the ledger store. Every mutation runs inside a
// single gorm transaction that also recomputes the affected accounts'
// running balances and the user's monthly snapshots, so readers never see
// a ledger whose derived state lags its rows.
type transactionService struct {
	db         *gorm.DB
	accounts   AccountServicer
	categories CategoryServicer
	monthly    MonthlyBalanceServicer
}

// NewTransactionService creates a new TransactionServicer.
func NewTransactionService(db *gorm.DB, accounts AccountServicer, categories CategoryServicer, monthly MonthlyBalanceServicer) TransactionServicer {
	return &transactionService{
		db:         db,
		accounts:   accounts,
		categories: categories,
		monthly:    monthly,
	}
}

// CreateTransaction creates a plain expense or income transaction. Transfers
// and reconciliations have their own entry points.
//
// Amounts are normalized to the sign the type implies: expenses are stored
// negative, income positive. Income posted to a category is immediately
// moved on to Available Funds by a paired category transfer, so envelope
// funding always flows through the allocation step.
func (s *transactionService) CreateTransaction(userID string, input TransactionInput) (*models.Transaction, error) {
	if input.Type != models.TransactionTypeExpense && input.Type != models.TransactionTypeIncome {
		return nil, apperrors.ErrInvalidTransactionType
	}
	if input.AccountID == nil || *input.AccountID == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "account is required")
	}
	if input.Date.IsZero() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "date is required")
	}

	if _, err := s.accounts.GetAccountByID(userID, *input.AccountID); err != nil {
		return nil, err
	}
	if input.CategoryID != nil && *input.CategoryID != "" {
		if _, err := s.categories.GetCategoryByID(userID, *input.CategoryID); err != nil {
			return nil, err
		}
	}

	amount := input.Amount
	if amount < 0 {
		amount = -amount
	}
	if input.Type == models.TransactionTypeExpense {
		amount = -amount
	}

	valueDate := input.Date
	if input.ValueDate != nil && !input.ValueDate.IsZero() {
		valueDate = *input.ValueDate
	}

	transaction := &models.Transaction{
		UserID:      userID,
		AccountID:   input.AccountID,
		CategoryID:  normalizeRef(input.CategoryID),
		Type:        input.Type,
		Amount:      amount,
		Date:        input.Date,
		ValueDate:   valueDate,
		Note:        input.Note,
		RecipientID: normalizeRef(input.RecipientID),
		PlanningID:  normalizeRef(input.PlanningID),
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if len(input.TagIDs) > 0 {
			tags, err := s.loadTags(tx, userID, input.TagIDs)
			if err != nil {
				return err
			}
			transaction.Tags = tags
		}

		if err := tx.Create(transaction).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		if err := s.applyCategoryEffect(tx, userID, transaction, 1); err != nil {
			return err
		}

		if alloc := allocationAmount(transaction); alloc > 0 {
			if err := s.allocateIncome(tx, userID, *transaction.CategoryID, alloc, transaction.Date); err != nil {
				return err
			}
		}

		if err := s.recomputeAccountTx(tx, userID, *transaction.AccountID); err != nil {
			return err
		}
		return s.monthly.Recompute(tx, userID)
	})
	if err != nil {
		return nil, err
	}

	return transaction, nil
}

// UpdateTransaction updates an existing transaction. The account reference
// is immutable; moving money to another account means deleting and
// recreating the transaction.
//
// Transfer legs stay symmetric: date, value date and note are mirrored to
// the counter leg and the counter amount is kept as the exact negation.
// Retargeting a transfer leg's category or recipient is rejected.
func (s *transactionService) UpdateTransaction(userID, transactionID string, fields TransactionUpdateFields) (*models.Transaction, error) {
	transaction, err := s.GetTransactionByID(userID, transactionID)
	if err != nil {
		return nil, err
	}

	isPairLeg := transaction.CounterTransactionID != nil &&
		(transaction.Type == models.TransactionTypeTransfer || transaction.Type == models.TransactionTypeCategoryTransfer)
	if isPairLeg && (fields.CategoryID != nil || fields.RecipientID != nil) {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "transfer legs cannot be retargeted")
	}
	if transaction.IsReconciliation && fields.Amount != nil {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "reconciliation amounts are derived and cannot be edited")
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		oldAlloc := allocationAmount(transaction)
		oldAllocCategory := transaction.CategoryID

		if err := s.applyCategoryEffect(tx, userID, transaction, -1); err != nil {
			return err
		}

		updates := make(map[string]interface{})
		if fields.Amount != nil {
			amount := *fields.Amount
			switch transaction.Type {
			case models.TransactionTypeExpense:
				if amount > 0 {
					amount = -amount
				}
			case models.TransactionTypeIncome:
				if amount < 0 {
					amount = -amount
				}
			}
			updates["amount"] = amount
			transaction.Amount = amount
		}
		if fields.Date != nil && !fields.Date.IsZero() {
			updates["date"] = *fields.Date
			transaction.Date = *fields.Date
		}
		if fields.ValueDate != nil && !fields.ValueDate.IsZero() {
			updates["value_date"] = *fields.ValueDate
			transaction.ValueDate = *fields.ValueDate
		}
		if fields.Note != nil {
			updates["note"] = *fields.Note
			transaction.Note = *fields.Note
		}
		if fields.CategoryID != nil {
			ref := normalizeRef(fields.CategoryID)
			if ref != nil {
				if _, err := s.categories.GetCategoryByID(userID, *ref); err != nil {
					return err
				}
			}
			updates["category_id"] = ref
			transaction.CategoryID = ref
		}
		if fields.RecipientID != nil {
			updates["recipient_id"] = normalizeRef(fields.RecipientID)
			transaction.RecipientID = normalizeRef(fields.RecipientID)
		}
		if fields.Reconciled != nil {
			updates["reconciled"] = *fields.Reconciled
			transaction.Reconciled = *fields.Reconciled
		}

		if len(updates) > 0 {
			if err := tx.Model(&models.Transaction{}).Where("id = ?", transaction.ID).
				Updates(updates).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
		}

		if fields.TagIDs != nil {
			tags, err := s.loadTags(tx, userID, fields.TagIDs)
			if err != nil {
				return err
			}
			if err := tx.Model(transaction).Association("Tags").Replace(&tags); err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
		}

		if err := s.applyCategoryEffect(tx, userID, transaction, 1); err != nil {
			return err
		}

		if isPairLeg {
			if err := s.mirrorToCounter(tx, userID, transaction); err != nil {
				return err
			}
		}

		newAlloc := allocationAmount(transaction)
		allocMoved := oldAlloc != newAlloc ||
			(oldAllocCategory != nil && transaction.CategoryID != nil && *oldAllocCategory != *transaction.CategoryID) ||
			(oldAllocCategory == nil) != (transaction.CategoryID == nil)
		if allocMoved {
			if oldAlloc > 0 && oldAllocCategory != nil {
				if err := s.reverseAllocation(tx, userID, *oldAllocCategory, oldAlloc, transaction.Date); err != nil {
					return err
				}
			}
			if newAlloc > 0 {
				if err := s.allocateIncome(tx, userID, *transaction.CategoryID, newAlloc, transaction.Date); err != nil {
					return err
				}
			}
		}

		if err := s.recomputeAffectedAccounts(tx, userID, transaction); err != nil {
			return err
		}
		return s.monthly.Recompute(tx, userID)
	})
	if err != nil {
		return nil, err
	}

	return s.GetTransactionByID(userID, transactionID)
}

// DeleteTransaction deletes a transaction. Deleting either leg of a pair
// cascades to its counter leg, so a half-deleted transfer can never exist.
func (s *transactionService) DeleteTransaction(userID, transactionID string) error {
	transaction, err := s.GetTransactionByID(userID, transactionID)
	if err != nil {
		return err
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		legs := []*models.Transaction{transaction}

		if transaction.CounterTransactionID != nil {
			var counter models.Transaction
			err := tx.Where("id = ? AND user_id = ?", *transaction.CounterTransactionID, userID).
				First(&counter).Error
			if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			if err == nil {
				legs = append(legs, &counter)
			}
		}

		for _, leg := range legs {
			if err := s.applyCategoryEffect(tx, userID, leg, -1); err != nil {
				return err
			}
			if err := tx.Delete(leg).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
		}

		if alloc := allocationAmount(transaction); alloc > 0 {
			if err := s.reverseAllocation(tx, userID, *transaction.CategoryID, alloc, transaction.Date); err != nil {
				return err
			}
		}

		recomputed := make(map[string]bool)
		for _, leg := range legs {
			if leg.AccountID != nil && !recomputed[*leg.AccountID] {
				recomputed[*leg.AccountID] = true
				if err := s.recomputeAccountTx(tx, userID, *leg.AccountID); err != nil {
					return err
				}
			}
		}
		return s.monthly.Recompute(tx, userID)
	})
}

// GetTransactionByID retrieves a transaction by ID for a specific user
func (s *transactionService) GetTransactionByID(userID, transactionID string) (*models.Transaction, error) {
	var transaction models.Transaction
	if err := s.db.Preload("Tags").
		Where("id = ? AND user_id = ?", transactionID, userID).
		First(&transaction).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTransactionNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &transaction, nil
}

// GetAccountTransactions lists an account's transactions newest first.
func (s *transactionService) GetAccountTransactions(userID, accountID string, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error) {
	if _, err := s.accounts.GetAccountByID(userID, accountID); err != nil {
		return nil, err
	}
	filter.AccountID = &accountID
	return s.listTransactions(userID, page, filter)
}

// GetCategoryTransactions lists a category's transactions newest first.
func (s *transactionService) GetCategoryTransactions(userID, categoryID string, page pagination.PageRequest) (*pagination.PageResponse[models.Transaction], error) {
	if _, err := s.categories.GetCategoryByID(userID, categoryID); err != nil {
		return nil, err
	}
	return s.listTransactions(userID, page, TransactionFilter{CategoryID: &categoryID})
}

// GetUserTransactions lists all of a user's transactions newest first.
func (s *transactionService) GetUserTransactions(userID string, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error) {
	return s.listTransactions(userID, page, filter)
}

func (s *transactionService) listTransactions(userID string, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error) {
	page.Defaults()

	base := s.db.Model(&models.Transaction{}).Where("user_id = ?", userID)
	if filter.AccountID != nil {
		base = base.Where("account_id = ?", *filter.AccountID)
	}
	if filter.CategoryID != nil {
		base = base.Where("category_id = ?", *filter.CategoryID)
	}
	if filter.Type != nil {
		base = base.Where("type = ?", *filter.Type)
	}
	if filter.FromDate != nil && !filter.FromDate.IsZero() {
		base = base.Where("date >= ?", filter.FromDate.String())
	}
	if filter.ToDate != nil && !filter.ToDate.IsZero() {
		base = base.Where("date <= ?", filter.ToDate.String())
	}

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var transactions []models.Transaction
	if err := base.Scopes(pagination.Paginate(page)).
		Preload("Tags").
		Order("date DESC, created_at DESC, id DESC").
		Find(&transactions).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(transactions, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// recomputeAccountTx rebuilds the account's running balances as a prefix sum
// over its transactions in chronological order and caches the final sum on
// the account. Ties on the same date resolve by insertion order.
//
// The account's configured start balance is presentation metadata and does
// not feed the ledger.
func (s *transactionService) recomputeAccountTx(tx *gorm.DB, userID, accountID string) error {
	var transactions []models.Transaction
	if err := tx.Where("user_id = ? AND account_id = ?", userID, accountID).
		Order("date ASC, created_at ASC, id ASC").
		Find(&transactions).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var sum int64
	for i := range transactions {
		sum += transactions[i].Amount
		if transactions[i].RunningBalance == sum {
			continue
		}
		if err := tx.Model(&models.Transaction{}).
			Where("id = ?", transactions[i].ID).
			Update("running_balance", sum).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}

	if err := tx.Model(&models.Account{}).
		Where("id = ? AND user_id = ?", accountID, userID).
		Update("balance", sum).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// recomputeAffectedAccounts recomputes the transaction's account and, for
// account transfer legs, the counter leg's account.
func (s *transactionService) recomputeAffectedAccounts(tx *gorm.DB, userID string, transaction *models.Transaction) error {
	recomputed := make(map[string]bool)
	if transaction.AccountID != nil {
		recomputed[*transaction.AccountID] = true
		if err := s.recomputeAccountTx(tx, userID, *transaction.AccountID); err != nil {
			return err
		}
	}
	if transaction.Type == models.TransactionTypeTransfer && transaction.ToAccountID != nil && !recomputed[*transaction.ToAccountID] {
		if err := s.recomputeAccountTx(tx, userID, *transaction.ToAccountID); err != nil {
			return err
		}
	}
	return nil
}

// applyCategoryEffect applies (direction 1) or reverses (direction -1) a
// transaction's contribution to its category's cached envelope state.
// Reconciliation corrections count toward a category's saldo only through
// aggregation and never touch the cached balance.
func (s *transactionService) applyCategoryEffect(tx *gorm.DB, userID string, transaction *models.Transaction, direction int64) error {
	if transaction.CategoryID == nil || transaction.IsReconciliation {
		return nil
	}
	return s.categories.ApplyBalanceDelta(tx, userID, *transaction.CategoryID,
		direction*transaction.Amount, direction)
}

// mirrorToCounter copies the shared fields of a pair leg onto its counter
// leg, negating the amount, and reconciles the counter's category cache when
// the amount changed.
func (s *transactionService) mirrorToCounter(tx *gorm.DB, userID string, transaction *models.Transaction) error {
	var counter models.Transaction
	if err := tx.Where("id = ? AND user_id = ?", *transaction.CounterTransactionID, userID).
		First(&counter).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	newAmount := -transaction.Amount
	if counter.Type == models.TransactionTypeCategoryTransfer && counter.CategoryID != nil && newAmount != counter.Amount {
		if err := s.categories.ApplyBalanceDelta(tx, userID, *counter.CategoryID, newAmount-counter.Amount, 0); err != nil {
			return err
		}
	}

	if err := tx.Model(&models.Transaction{}).Where("id = ?", counter.ID).
		Updates(map[string]interface{}{
			"amount":     newAmount,
			"date":       transaction.Date,
			"value_date": transaction.ValueDate,
			"note":       transaction.Note,
		}).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if counter.Type == models.TransactionTypeTransfer && counter.AccountID != nil {
		return s.recomputeAccountTx(tx, userID, *counter.AccountID)
	}
	return nil
}

// allocateIncome moves freshly posted income from its category on to the
// Available Funds envelope.
func (s *transactionService) allocateIncome(tx *gorm.DB, userID, categoryID string, amount int64, date dates.Date) error {
	available, err := s.categories.AvailableFundsTx(tx, userID)
	if err != nil {
		return err
	}
	if available.ID == categoryID {
		return nil
	}
	_, err = s.categoryPairTx(tx, userID, categoryID, available.ID, amount, date, "Income allocation")
	return err
}

// reverseAllocation undoes an income allocation by moving the amount from
// Available Funds back to the income category.
func (s *transactionService) reverseAllocation(tx *gorm.DB, userID, categoryID string, amount int64, date dates.Date) error {
	available, err := s.categories.AvailableFundsTx(tx, userID)
	if err != nil {
		return err
	}
	if available.ID == categoryID {
		return nil
	}
	_, err = s.categoryPairTx(tx, userID, available.ID, categoryID, amount, date, "Income allocation reversal")
	return err
}

// allocationAmount returns the amount an income transaction routes to
// Available Funds, or 0 when the transaction allocates nothing.
func allocationAmount(transaction *models.Transaction) int64 {
	if transaction.Type == models.TransactionTypeIncome &&
		transaction.Amount > 0 &&
		transaction.CategoryID != nil {
		return transaction.Amount
	}
	return 0
}

func (s *transactionService) loadTags(tx *gorm.DB, userID string, tagIDs []string) ([]models.Tag, error) {
	var tags []models.Tag
	if len(tagIDs) == 0 {
		return tags, nil
	}
	if err := tx.Where("user_id = ? AND id IN ?", userID, tagIDs).Find(&tags).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if len(tags) != len(tagIDs) {
		return nil, apperrors.ErrTagNotFound
	}
	return tags, nil
}

// normalizeRef treats the empty string as an absent reference.
func normalizeRef(ref *string) *string {
	if ref == nil || *ref == "" {
		return nil
	}
	return ref
}

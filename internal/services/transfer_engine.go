package services

import (
	"errors"

	"gorm.io/gorm"

	"haushalt/internal/dates"
	apperrors "haushalt/internal/errors"
	"haushalt/internal/models"
)

// The transfer engine builds the paired side of the ledger: account
// transfers, category (envelope) transfers, income allocation pairs and
// reconciliation corrections. Pairs are written as two rows whose
// counter_transaction_id references point at each other; the outgoing leg
// is always the one returned to the caller.

// CreateAccountTransfer moves money between two of the user's accounts.
func (s *transactionService) CreateAccountTransfer(userID, fromAccountID, toAccountID string, amount int64, date dates.Date, note string) (*models.Transaction, error) {
	if fromAccountID == toAccountID {
		return nil, apperrors.ErrSameAccountTransfer
	}
	if amount == 0 {
		return nil, apperrors.ErrZeroAmountTransfer
	}
	if amount < 0 {
		amount = -amount
	}
	if date.IsZero() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "date is required")
	}

	from, err := s.accounts.GetAccountByID(userID, fromAccountID)
	if err != nil {
		return nil, err
	}
	to, err := s.accounts.GetAccountByID(userID, toAccountID)
	if err != nil {
		return nil, err
	}

	var legOut *models.Transaction
	err = s.db.Transaction(func(tx *gorm.DB) error {
		legOut, err = s.accountPairTx(tx, userID, from, to, amount, date, note)
		if err != nil {
			return err
		}
		if err := s.recomputeAccountTx(tx, userID, from.ID); err != nil {
			return err
		}
		if err := s.recomputeAccountTx(tx, userID, to.ID); err != nil {
			return err
		}
		return s.monthly.Recompute(tx, userID)
	})
	if err != nil {
		return nil, err
	}
	return legOut, nil
}

// CreateCategoryTransfer moves budget between two of the user's envelopes.
// No account is touched; only category balances change.
func (s *transactionService) CreateCategoryTransfer(userID, fromCategoryID, toCategoryID string, amount int64, date dates.Date, note string) (*models.Transaction, error) {
	if fromCategoryID == toCategoryID {
		return nil, apperrors.ErrSameCategoryTransfer
	}
	if amount == 0 {
		return nil, apperrors.ErrZeroAmountTransfer
	}
	if amount < 0 {
		amount = -amount
	}
	if date.IsZero() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "date is required")
	}

	if _, err := s.categories.GetCategoryByID(userID, fromCategoryID); err != nil {
		return nil, err
	}
	if _, err := s.categories.GetCategoryByID(userID, toCategoryID); err != nil {
		return nil, err
	}

	var legOut *models.Transaction
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		legOut, err = s.categoryPairTx(tx, userID, fromCategoryID, toCategoryID, amount, date, note)
		if err != nil {
			return err
		}
		return s.monthly.Recompute(tx, userID)
	})
	if err != nil {
		return nil, err
	}
	return legOut, nil
}

// CreateReconciliation forces an account's ledger balance to the stated
// real-world balance by inserting a correction transaction for the
// difference. When the ledger already matches, only the account's reconcile
// snapshot is refreshed and no transaction is written.
func (s *transactionService) CreateReconciliation(userID, accountID string, date dates.Date, statedBalance int64) (*models.Transaction, error) {
	if date.IsZero() {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "date is required")
	}

	account, err := s.accounts.GetAccountByID(userID, accountID)
	if err != nil {
		return nil, err
	}

	delta := statedBalance - account.Balance

	var correction *models.Transaction
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if delta != 0 {
			correction = &models.Transaction{
				UserID:           userID,
				AccountID:        &account.ID,
				Type:             models.TransactionTypeReconcile,
				Amount:           delta,
				Date:             date,
				ValueDate:        date,
				Note:             "Reconciliation",
				Reconciled:       true,
				IsReconciliation: true,
			}

			// Corrections book against the dedicated correction envelope
			// when the user has one.
			var category models.Category
			err := tx.Where("user_id = ? AND name = ?", userID, models.ReconciliationCategoryName).
				First(&category).Error
			if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			if err == nil {
				correction.CategoryID = &category.ID
			}

			if err := tx.Create(correction).Error; err != nil {
				return apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			if err := s.recomputeAccountTx(tx, userID, account.ID); err != nil {
				return err
			}
		}

		if err := tx.Model(&models.Account{}).
			Where("id = ? AND user_id = ?", account.ID, userID).
			Updates(map[string]interface{}{
				"reconcile_date":    date,
				"reconcile_balance": statedBalance,
			}).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		// Everything on the account up to the reconcile date is confirmed.
		if err := tx.Model(&models.Transaction{}).
			Where("user_id = ? AND account_id = ? AND date <= ?", userID, account.ID, date.String()).
			Update("reconciled", true).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}

		return s.monthly.Recompute(tx, userID)
	})
	if err != nil {
		return nil, err
	}

	return correction, nil
}

// accountPairTx inserts a cross-linked account transfer pair. amount is the
// positive magnitude moved from one account to the other.
func (s *transactionService) accountPairTx(tx *gorm.DB, userID string, from, to *models.Account, amount int64, date dates.Date, note string) (*models.Transaction, error) {
	noteOut, noteIn := note, note
	if note == "" {
		noteOut = "Transfer to " + to.Name
		noteIn = "Transfer from " + from.Name
	}

	legOut := &models.Transaction{
		UserID:      userID,
		AccountID:   &from.ID,
		ToAccountID: &to.ID,
		Type:        models.TransactionTypeTransfer,
		Amount:      -amount,
		Date:        date,
		ValueDate:   date,
		Note:        noteOut,
	}
	legIn := &models.Transaction{
		UserID:      userID,
		AccountID:   &to.ID,
		ToAccountID: &from.ID,
		Type:        models.TransactionTypeTransfer,
		Amount:      amount,
		Date:        date,
		ValueDate:   date,
		Note:        noteIn,
	}

	return s.linkPair(tx, legOut, legIn)
}

// categoryPairTx inserts a cross-linked category transfer pair and applies
// both envelope deltas. amount is the positive magnitude moved.
func (s *transactionService) categoryPairTx(tx *gorm.DB, userID, fromCategoryID, toCategoryID string, amount int64, date dates.Date, note string) (*models.Transaction, error) {
	legOut := &models.Transaction{
		UserID:       userID,
		CategoryID:   &fromCategoryID,
		ToCategoryID: &toCategoryID,
		Type:         models.TransactionTypeCategoryTransfer,
		Amount:       -amount,
		Date:         date,
		ValueDate:    date,
		Note:         note,
	}
	legIn := &models.Transaction{
		UserID:       userID,
		CategoryID:   &toCategoryID,
		ToCategoryID: &fromCategoryID,
		Type:         models.TransactionTypeCategoryTransfer,
		Amount:       amount,
		Date:         date,
		ValueDate:    date,
		Note:         note,
	}

	out, err := s.linkPair(tx, legOut, legIn)
	if err != nil {
		return nil, err
	}

	if err := s.categories.ApplyBalanceDelta(tx, userID, fromCategoryID, -amount, 1); err != nil {
		return nil, err
	}
	if err := s.categories.ApplyBalanceDelta(tx, userID, toCategoryID, amount, 1); err != nil {
		return nil, err
	}
	return out, nil
}

// linkPair persists both legs and makes their counter references point at
// each other.
func (s *transactionService) linkPair(tx *gorm.DB, legOut, legIn *models.Transaction) (*models.Transaction, error) {
	if err := tx.Create(legOut).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if err := tx.Create(legIn).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if err := tx.Model(&models.Transaction{}).Where("id = ?", legOut.ID).
		Update("counter_transaction_id", legIn.ID).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if err := tx.Model(&models.Transaction{}).Where("id = ?", legIn.ID).
		Update("counter_transaction_id", legOut.ID).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	legOut.CounterTransactionID = &legIn.ID
	legIn.CounterTransactionID = &legOut.ID
	return legOut, nil
}

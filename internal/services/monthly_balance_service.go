package services

import (
	"gorm.io/gorm"

	apperrors "haushalt/internal/errors"
	"haushalt/internal/models"
)

// monthlyBalanceService maintains per-account end-of-month balance
// snapshots derived from the transaction table.
type monthlyBalanceService struct {
	db *gorm.DB
}

// NewMonthlyBalanceService creates a new MonthlyBalanceServicer.
func NewMonthlyBalanceService(db *gorm.DB) MonthlyBalanceServicer {
	return &monthlyBalanceService{db: db}
}

// Recompute replaces the user's entire snapshot set from scratch. A month's
// snapshot is the running balance of the account's last transaction in that
// month; months without transactions get no row. Full replacement keeps the
// table correct under backdated edits without any dirty-month bookkeeping.
func (s *monthlyBalanceService) Recompute(tx *gorm.DB, userID string) error {
	if err := tx.Unscoped().
		Where("user_id = ?", userID).
		Delete(&models.MonthlyBalance{}).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var transactions []models.Transaction
	if err := tx.Where("user_id = ? AND account_id IS NOT NULL", userID).
		Order("account_id ASC, date ASC, created_at ASC, id ASC").
		Find(&transactions).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if len(transactions) == 0 {
		return nil
	}

	type monthKey struct {
		accountID string
		year      int
		month     int
	}

	// Later rows overwrite earlier ones, so each key ends up holding the
	// month's final running balance.
	latest := make(map[monthKey]int64)
	var order []monthKey
	for i := range transactions {
		t := &transactions[i]
		key := monthKey{
			accountID: *t.AccountID,
			year:      t.Date.Year(),
			month:     int(t.Date.Month()),
		}
		if _, seen := latest[key]; !seen {
			order = append(order, key)
		}
		latest[key] = t.RunningBalance
	}

	snapshots := make([]models.MonthlyBalance, 0, len(order))
	for _, key := range order {
		snapshots = append(snapshots, models.MonthlyBalance{
			UserID:    userID,
			AccountID: key.accountID,
			Year:      key.year,
			Month:     key.month,
			Balance:   latest[key],
		})
	}

	if err := tx.Create(&snapshots).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// GetAccountMonthlyBalances returns one account's snapshots in calendar order.
func (s *monthlyBalanceService) GetAccountMonthlyBalances(userID, accountID string) ([]models.MonthlyBalance, error) {
	var balances []models.MonthlyBalance
	if err := s.db.Where("user_id = ? AND account_id = ?", userID, accountID).
		Order("year ASC, month ASC").
		Find(&balances).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return balances, nil
}

// GetUserMonthlyBalances returns all of a user's snapshots in calendar order.
func (s *monthlyBalanceService) GetUserMonthlyBalances(userID string) ([]models.MonthlyBalance, error) {
	var balances []models.MonthlyBalance
	if err := s.db.Where("user_id = ?", userID).
		Order("account_id ASC, year ASC, month ASC").
		Find(&balances).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return balances, nil
}

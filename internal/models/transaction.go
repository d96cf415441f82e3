package models

import "haushalt/internal/dates"

// TransactionType represents the type of transaction
type TransactionType string

const (
	TransactionTypeExpense          TransactionType = "expense"
	TransactionTypeIncome           TransactionType = "income"
	TransactionTypeTransfer         TransactionType = "transfer"
	TransactionTypeCategoryTransfer TransactionType = "category_transfer"
	TransactionTypeReconcile        TransactionType = "reconcile"
)

// AccountBound reports whether transactions of this type must reference an
// account. Category transfers are the only pure-category movements.
func (t TransactionType) AccountBound() bool {
	return t != TransactionTypeCategoryTransfer
}

// Transaction represents a single ledger entry.
//
// Amount is signed (cents): positive for inflows, negative for outflows.
// RunningBalance is derived — the prefix sum of amounts over the account's
// transactions in date order — and is recomputed for the whole account
// whenever any transaction on it changes.
//
// CounterTransactionID links the two legs of a pair (account transfer,
// category transfer, income auto-allocation). The reference is symmetric
// and both legs are always deleted together.
type Transaction struct {
	Base
	UserID     string          `gorm:"type:uuid;not null;index" json:"user_id"`
	AccountID  *string         `gorm:"type:uuid;index" json:"account_id,omitempty"`
	CategoryID *string         `gorm:"type:uuid;index" json:"category_id,omitempty"`
	Type       TransactionType `gorm:"not null" json:"type"`
	Amount     int64           `gorm:"type:bigint;not null" json:"amount"`
	Date       dates.Date      `gorm:"type:date;not null;index" json:"date"`
	ValueDate  dates.Date      `gorm:"type:date;not null" json:"value_date"`
	Note       string          `json:"note"`

	RecipientID    *string `gorm:"type:uuid" json:"recipient_id,omitempty"`
	RunningBalance int64   `gorm:"not null;default:0" json:"running_balance"`

	// Pairing and provenance.
	CounterTransactionID *string `gorm:"type:uuid" json:"counter_transaction_id,omitempty"`
	PlanningID           *string `gorm:"type:uuid" json:"planning_id,omitempty"`
	ToAccountID          *string `gorm:"type:uuid" json:"to_account_id,omitempty"`
	ToCategoryID         *string `gorm:"type:uuid" json:"to_category_id,omitempty"`

	Reconciled       bool `gorm:"default:false" json:"reconciled"`
	IsReconciliation bool `gorm:"default:false" json:"is_reconciliation"`

	Account   *Account  `gorm:"foreignKey:AccountID" json:"account,omitempty"`
	Category  *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	Recipient *Recipient `gorm:"foreignKey:RecipientID" json:"recipient,omitempty"`
	Tags      []Tag     `gorm:"many2many:transaction_tags" json:"tags,omitempty"`
}

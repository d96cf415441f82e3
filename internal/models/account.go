package models

import "haushalt/internal/dates"

// AccountGroup is a named, ordered grouping of accounts. A group cannot be
// deleted while any account still references it.
type AccountGroup struct {
	Base
	UserID    string `gorm:"type:uuid;not null;index" json:"user_id"`
	Name      string `gorm:"not null" json:"name"`
	SortOrder int    `gorm:"default:0" json:"sort_order"`

	Accounts []Account `gorm:"foreignKey:GroupID" json:"accounts,omitempty"`
}

// Account represents a financial account in the ledger.
//
// Balance is a cache: it always equals the running balance of the
// chronologically last transaction on the account and is rewritten by the
// ledger service on every transaction mutation.
type Account struct {
	Base
	UserID       string `gorm:"type:uuid;not null;index" json:"user_id"`
	GroupID      string `gorm:"type:uuid;not null" json:"group_id"`
	Name         string `gorm:"not null" json:"name"`
	StartBalance int64  `gorm:"not null;default:0" json:"start_balance"`
	Balance      int64  `gorm:"not null;default:0" json:"balance"`
	IsActive     bool   `gorm:"default:true" json:"is_active"`
	IsClosed     bool   `gorm:"default:false" json:"is_closed"`

	// Last reconciliation snapshot, if the account was ever reconciled.
	ReconcileDate    *dates.Date `gorm:"type:date" json:"reconcile_date,omitempty"`
	ReconcileBalance *int64      `json:"reconcile_balance,omitempty"`

	Group        AccountGroup  `gorm:"foreignKey:GroupID" json:"group,omitempty"`
	Transactions []Transaction `gorm:"foreignKey:AccountID" json:"transactions,omitempty"`
}

package models

// AvailableFundsName is the name of the distinguished income category that
// receives automatically allocated income. It is created once per user
// during ledger bootstrap and must always exist.
const AvailableFundsName = "Available Funds"

// ReconciliationCategoryName is the category reconciliation corrections are
// booked against when it exists.
const ReconciliationCategoryName = "Ausgleichskorrekturen"

// Category represents a budget envelope. Balance, TransactionCount and
// AverageAmount are derived running totals maintained alongside every
// transaction mutation; they are never written by handlers directly.
type Category struct {
	Base
	UserID        string  `gorm:"type:uuid;not null;index" json:"user_id"`
	Name          string  `gorm:"not null" json:"name"`
	ParentID      *string `gorm:"type:uuid" json:"parent_id,omitempty"`
	IsIncome      bool    `gorm:"default:false" json:"is_income"`
	IsSavingsGoal bool    `gorm:"default:false" json:"is_savings_goal"`
	IsActive      bool    `gorm:"default:true" json:"is_active"`
	SortOrder     int     `gorm:"default:0" json:"sort_order"`

	Balance          int64 `gorm:"not null;default:0" json:"balance"`
	StartBalance     int64 `gorm:"not null;default:0" json:"start_balance"`
	TransactionCount int64 `gorm:"not null;default:0" json:"transaction_count"`
	AverageAmount    int64 `gorm:"not null;default:0" json:"average_amount"`

	Parent   *Category  `gorm:"foreignKey:ParentID" json:"parent,omitempty"`
	Children []Category `gorm:"foreignKey:ParentID" json:"children,omitempty"`
}

// CategorySaldo is the aggregated view of a category over a date window.
type CategorySaldo struct {
	CategoryID string `json:"category_id"`
	Saldo      int64  `json:"saldo"`
	Spent      int64  `json:"spent"`
	Budgeted   int64  `json:"budgeted"`
}

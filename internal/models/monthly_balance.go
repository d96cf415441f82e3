package models

// MonthlyBalance is a derived closing-balance snapshot for one account and
// month. The whole set is recomputed from the transaction table after every
// ledger mutation; it is never authoritative.
type MonthlyBalance struct {
	Base
	UserID    string `gorm:"type:uuid;not null;index" json:"user_id"`
	AccountID string `gorm:"type:uuid;not null;index" json:"account_id"`
	Year      int    `gorm:"not null" json:"year"`
	Month     int    `gorm:"not null" json:"month"`
	Balance   int64  `gorm:"not null" json:"balance"`
}

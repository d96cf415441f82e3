package models

// Tag is a free-form label attached to transactions.
type Tag struct {
	Base
	UserID string `gorm:"type:uuid;not null;index" json:"user_id"`
	Name   string `gorm:"not null" json:"name"`
}

// Recipient is a payee/payer referenced by transactions.
type Recipient struct {
	Base
	UserID string `gorm:"type:uuid;not null;index" json:"user_id"`
	Name   string `gorm:"not null" json:"name"`
}

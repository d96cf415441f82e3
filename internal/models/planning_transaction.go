package models

import "haushalt/internal/dates"

// RecurrencePattern represents how often a planned transaction repeats.
type RecurrencePattern string

const (
	PatternOnce      RecurrencePattern = "once"
	PatternDaily     RecurrencePattern = "daily"
	PatternWeekly    RecurrencePattern = "weekly"
	PatternBiweekly  RecurrencePattern = "biweekly"
	PatternMonthly   RecurrencePattern = "monthly"
	PatternQuarterly RecurrencePattern = "quarterly"
	PatternYearly    RecurrencePattern = "yearly"
)

// RecurrenceEndType represents how a recurrence terminates.
type RecurrenceEndType string

const (
	RecurrenceEndNever RecurrenceEndType = "never"
	RecurrenceEndDate  RecurrenceEndType = "date"
	RecurrenceEndCount RecurrenceEndType = "count"
)

// WeekendHandling controls how occurrences falling on weekends are shifted.
type WeekendHandling string

const (
	WeekendNone   WeekendHandling = "none"
	WeekendBefore WeekendHandling = "before"
	WeekendAfter  WeekendHandling = "after"
)

// PlanningTransaction is a recurring transaction template.
//
// StartDate always points at the next occurrence that has not been
// materialized yet: due execution advances it in place instead of tracking
// executed occurrences separately. For COUNT-terminated templates,
// RecurrenceCount is the number of occurrences still remaining and is
// decremented as occurrences are materialized.
type PlanningTransaction struct {
	Base
	UserID      string  `gorm:"type:uuid;not null;index" json:"user_id"`
	AccountID   *string `gorm:"type:uuid" json:"account_id,omitempty"`
	CategoryID  *string `gorm:"type:uuid" json:"category_id,omitempty"`
	ToAccountID *string `gorm:"type:uuid" json:"to_account_id,omitempty"`
	RecipientID *string `gorm:"type:uuid" json:"recipient_id,omitempty"`
	Amount      int64   `gorm:"type:bigint;not null" json:"amount"`
	Note        string  `json:"note"`

	StartDate dates.Date        `gorm:"type:date;not null" json:"start_date"`
	EndDate   *dates.Date       `gorm:"type:date" json:"end_date,omitempty"`
	Pattern   RecurrencePattern `gorm:"not null" json:"pattern"`
	EndType   RecurrenceEndType `gorm:"not null;default:'never'" json:"end_type"`

	RecurrenceCount *int            `json:"recurrence_count,omitempty"`
	ExecutionDay    *int            `json:"execution_day,omitempty"`
	Weekend         WeekendHandling `gorm:"not null;default:'none'" json:"weekend"`

	ForecastOnly bool `gorm:"default:false" json:"forecast_only"`
	IsActive     bool `gorm:"default:true" json:"is_active"`

	Account  *Account  `gorm:"foreignKey:AccountID" json:"account,omitempty"`
	Category *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
}

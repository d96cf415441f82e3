package models

// RuleStage identifies when an automation rule runs.
type RuleStage string

// RuleStagePlanning rules run on transactions freshly materialized from a
// planning template.
const RuleStagePlanning RuleStage = "planning"

// Rule is an automation rule that rewrites category, note or tags on a
// transaction when its match criteria apply. Matching is case-insensitive
// substring matching on the recipient name and note.
type Rule struct {
	Base
	UserID    string    `gorm:"type:uuid;not null;index" json:"user_id"`
	Name      string    `gorm:"not null" json:"name"`
	Stage     RuleStage `gorm:"not null;default:'planning'" json:"stage"`
	// No column default: gorm drops zero-value fields with one from the
	// INSERT, which would store a rule created inactive as active.
	IsActive  bool `json:"is_active"`
	SortOrder int  `gorm:"default:0" json:"sort_order"`

	MatchRecipient string `json:"match_recipient"`
	MatchNote      string `json:"match_note"`

	SetCategoryID *string `gorm:"type:uuid" json:"set_category_id,omitempty"`
	SetNote       *string `json:"set_note,omitempty"`
	Tags          []Tag   `gorm:"many2many:rule_tags" json:"tags,omitempty"`
}

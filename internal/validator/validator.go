// Package validator provides custom validation functions for Gin's binding engine.
package validator

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"haushalt/internal/dates"
)

// Register registers all custom validators with the Gin binding engine.
func Register() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("transaction_type", validateTransactionType)
		_ = v.RegisterValidation("recurrence_pattern", validateRecurrencePattern)
		_ = v.RegisterValidation("recurrence_end", validateRecurrenceEnd)
		_ = v.RegisterValidation("weekend_handling", validateWeekendHandling)
		_ = v.RegisterValidation("calendar_day", validateCalendarDay)
	}
}

func validateTransactionType(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "income", "expense", "transfer", "category_transfer", "reconcile":
		return true
	}
	return false
}

func validateRecurrencePattern(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "once", "daily", "weekly", "biweekly", "monthly", "quarterly", "yearly":
		return true
	}
	return false
}

func validateRecurrenceEnd(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "never", "date", "count":
		return true
	}
	return false
}

func validateWeekendHandling(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "none", "before", "after":
		return true
	}
	return false
}

// validateCalendarDay accepts ISO calendar-day strings ("2024-01-31").
func validateCalendarDay(fl validator.FieldLevel) bool {
	_, err := dates.Parse(fl.Field().String())
	return err == nil
}

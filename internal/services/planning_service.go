package services

import (
	"errors"

	"gorm.io/gorm"

	"haushalt/internal/dates"
	apperrors "haushalt/internal/errors"
	"haushalt/internal/logger"
	"haushalt/internal/models"
	"haushalt/internal/pagination"
)

// planningService manages recurring transaction templates and drives due
// execution through the ledger store.
type planningService struct {
	db           *gorm.DB
	accounts     AccountServicer
	categories   CategoryServicer
	transactions TransactionServicer
	rules        RuleServicer
}

// NewPlanningService creates a new PlanningServicer.
func NewPlanningService(db *gorm.DB, accounts AccountServicer, categories CategoryServicer, transactions TransactionServicer, rules RuleServicer) PlanningServicer {
	return &planningService{
		db:           db,
		accounts:     accounts,
		categories:   categories,
		transactions: transactions,
		rules:        rules,
	}
}

// CreatePlanning creates a recurring transaction template.
func (s *planningService) CreatePlanning(userID string, input PlanningInput) (*models.PlanningTransaction, error) {
	if err := s.validateSchedule(input.Pattern, input.EndType, input.Weekend,
		input.StartDate, input.EndDate, input.RecurrenceCount, input.ExecutionDay); err != nil {
		return nil, err
	}
	if input.Amount == 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must not be zero")
	}

	if input.AccountID != nil && *input.AccountID != "" {
		if _, err := s.accounts.GetAccountByID(userID, *input.AccountID); err != nil {
			return nil, err
		}
	}
	if input.ToAccountID != nil && *input.ToAccountID != "" {
		if input.AccountID == nil || *input.AccountID == "" {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "transfer templates need a source account")
		}
		if *input.ToAccountID == *input.AccountID {
			return nil, apperrors.ErrSameAccountTransfer
		}
		if _, err := s.accounts.GetAccountByID(userID, *input.ToAccountID); err != nil {
			return nil, err
		}
	}
	if input.CategoryID != nil && *input.CategoryID != "" {
		if _, err := s.categories.GetCategoryByID(userID, *input.CategoryID); err != nil {
			return nil, err
		}
	}

	planning := &models.PlanningTransaction{
		UserID:          userID,
		AccountID:       normalizeRef(input.AccountID),
		ToAccountID:     normalizeRef(input.ToAccountID),
		CategoryID:      normalizeRef(input.CategoryID),
		RecipientID:     normalizeRef(input.RecipientID),
		Amount:          input.Amount,
		Note:            input.Note,
		StartDate:       input.StartDate,
		EndDate:         input.EndDate,
		Pattern:         input.Pattern,
		EndType:         input.EndType,
		RecurrenceCount: input.RecurrenceCount,
		ExecutionDay:    input.ExecutionDay,
		Weekend:         input.Weekend,
		ForecastOnly:    input.ForecastOnly,
		IsActive:        true,
	}
	if planning.EndType == "" {
		planning.EndType = models.RecurrenceEndNever
	}
	if planning.Weekend == "" {
		planning.Weekend = models.WeekendNone
	}

	if err := s.db.Create(planning).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return planning, nil
}

// GetUserPlannings retrieves a paginated list of planning templates.
func (s *planningService) GetUserPlannings(userID string, page pagination.PageRequest) (*pagination.PageResponse[models.PlanningTransaction], error) {
	page.Defaults()

	base := s.db.Model(&models.PlanningTransaction{}).Where("user_id = ?", userID)

	var totalItems int64
	if err := base.Count(&totalItems).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	var plannings []models.PlanningTransaction
	if err := base.Scopes(pagination.Paginate(page)).
		Order("start_date ASC, created_at ASC").
		Find(&plannings).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	result := pagination.NewPageResponse(plannings, page.Page, page.PageSize, totalItems)
	return &result, nil
}

// GetPlanningByID retrieves a planning template by ID for a specific user
func (s *planningService) GetPlanningByID(userID, planningID string) (*models.PlanningTransaction, error) {
	var planning models.PlanningTransaction
	if err := s.db.Where("id = ? AND user_id = ?", planningID, userID).First(&planning).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrPlanningNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &planning, nil
}

// UpdatePlanning updates an existing planning template.
func (s *planningService) UpdatePlanning(userID, planningID string, fields PlanningUpdateFields) (*models.PlanningTransaction, error) {
	planning, err := s.GetPlanningByID(userID, planningID)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})
	if fields.Amount != nil {
		if *fields.Amount == 0 {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must not be zero")
		}
		updates["amount"] = *fields.Amount
		planning.Amount = *fields.Amount
	}
	if fields.Note != nil {
		updates["note"] = *fields.Note
		planning.Note = *fields.Note
	}
	if fields.CategoryID != nil {
		ref := normalizeRef(fields.CategoryID)
		if ref != nil {
			if _, err := s.categories.GetCategoryByID(userID, *ref); err != nil {
				return nil, err
			}
		}
		updates["category_id"] = ref
		planning.CategoryID = ref
	}
	if fields.RecipientID != nil {
		updates["recipient_id"] = normalizeRef(fields.RecipientID)
		planning.RecipientID = normalizeRef(fields.RecipientID)
	}
	if fields.StartDate != nil && !fields.StartDate.IsZero() {
		updates["start_date"] = *fields.StartDate
		planning.StartDate = *fields.StartDate
	}
	if fields.EndDate != nil {
		updates["end_date"] = fields.EndDate
		planning.EndDate = fields.EndDate
	}
	if fields.Pattern != nil {
		updates["pattern"] = *fields.Pattern
		planning.Pattern = *fields.Pattern
	}
	if fields.EndType != nil {
		updates["end_type"] = *fields.EndType
		planning.EndType = *fields.EndType
	}
	if fields.RecurrenceCount != nil {
		updates["recurrence_count"] = fields.RecurrenceCount
		planning.RecurrenceCount = fields.RecurrenceCount
	}
	if fields.ExecutionDay != nil {
		updates["execution_day"] = fields.ExecutionDay
		planning.ExecutionDay = fields.ExecutionDay
	}
	if fields.Weekend != nil {
		updates["weekend"] = *fields.Weekend
		planning.Weekend = *fields.Weekend
	}
	if fields.ForecastOnly != nil {
		updates["forecast_only"] = *fields.ForecastOnly
		planning.ForecastOnly = *fields.ForecastOnly
	}
	if fields.IsActive != nil {
		updates["is_active"] = *fields.IsActive
		planning.IsActive = *fields.IsActive
	}

	if err := s.validateSchedule(planning.Pattern, planning.EndType, planning.Weekend,
		planning.StartDate, planning.EndDate, planning.RecurrenceCount, planning.ExecutionDay); err != nil {
		return nil, err
	}

	if len(updates) > 0 {
		if err := s.db.Model(&models.PlanningTransaction{}).Where("id = ?", planning.ID).
			Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}

	return planning, nil
}

// DeletePlanning deletes a planning template. Transactions already
// materialized from it stay in the ledger.
func (s *planningService) DeletePlanning(userID, planningID string) error {
	planning, err := s.GetPlanningByID(userID, planningID)
	if err != nil {
		return err
	}
	if err := s.db.Delete(planning).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

// PreviewOccurrences expands a template's occurrence dates inside a window
// without touching the ledger.
func (s *planningService) PreviewOccurrences(userID, planningID string, from, to dates.Date) ([]dates.Date, error) {
	planning, err := s.GetPlanningByID(userID, planningID)
	if err != nil {
		return nil, err
	}
	if to.Before(from) {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "window end before window start")
	}
	return Occurrences(planning, from, to), nil
}

// ExecuteDue materializes every occurrence of the user's active templates
// that is due on or before today, then advances each template's start date
// past what was executed. Because the start date moves, re-running against
// the same day finds nothing due and produces no duplicates.
func (s *planningService) ExecuteDue(userID string, today dates.Date) (int, error) {
	var plannings []models.PlanningTransaction
	if err := s.db.Where("user_id = ? AND is_active = ?", userID, true).
		Find(&plannings).Error; err != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	log := logger.Get()
	executed := 0
	for i := range plannings {
		p := &plannings[i]

		// The window reaches slightly before the start date so occurrences
		// shifted backwards off a weekend are still caught.
		due := Occurrences(p, p.StartDate.AddDays(-weekendShiftSlack), today)
		if len(due) == 0 {
			continue
		}

		if !p.ForecastOnly {
			for _, date := range due {
				if err := s.materialize(userID, p, date); err != nil {
					return executed, err
				}
				executed++
			}
		}

		if err := s.advance(p, len(due), today); err != nil {
			return executed, err
		}

		log.Debugw("planning executed",
			"planning_id", p.ID,
			"occurrences", len(due),
			"forecast_only", p.ForecastOnly)
	}

	return executed, nil
}

// materialize turns one occurrence into a real ledger entry: an account
// transfer when the template names a destination account, a plain
// expense/income otherwise. Planning-stage automation rules rewrite the
// draft before it is persisted.
func (s *planningService) materialize(userID string, p *models.PlanningTransaction, date dates.Date) error {
	if p.ToAccountID != nil {
		amount := p.Amount
		if amount < 0 {
			amount = -amount
		}
		legOut, err := s.transactions.CreateAccountTransfer(userID, *p.AccountID, *p.ToAccountID, amount, date, p.Note)
		if err != nil {
			return err
		}

		// Both legs carry the template reference.
		legIDs := []string{legOut.ID}
		if legOut.CounterTransactionID != nil {
			legIDs = append(legIDs, *legOut.CounterTransactionID)
		}
		if err := s.db.Model(&models.Transaction{}).Where("user_id = ? AND id IN ?", userID, legIDs).
			Update("planning_id", p.ID).Error; err != nil {
			return apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return nil
	}

	transactionType := models.TransactionTypeIncome
	if p.Amount < 0 {
		transactionType = models.TransactionTypeExpense
	}

	draft := TransactionInput{
		AccountID:   p.AccountID,
		CategoryID:  p.CategoryID,
		Type:        transactionType,
		Amount:      p.Amount,
		Date:        date,
		Note:        p.Note,
		RecipientID: p.RecipientID,
		PlanningID:  &p.ID,
	}
	if err := s.rules.ApplyToDraft(userID, &draft, models.RuleStagePlanning); err != nil {
		return err
	}

	_, err := s.transactions.CreateTransaction(userID, draft)
	return err
}

// advance moves a template's schedule past the occurrences just executed,
// deactivating it when the schedule is exhausted.
func (s *planningService) advance(p *models.PlanningTransaction, executedCount int, today dates.Date) error {
	updates := make(map[string]interface{})

	if p.EndType == models.RecurrenceEndCount && p.RecurrenceCount != nil {
		remaining := *p.RecurrenceCount - executedCount
		if remaining < 0 {
			remaining = 0
		}
		updates["recurrence_count"] = remaining
		p.RecurrenceCount = &remaining
		if remaining == 0 {
			updates["is_active"] = false
			p.IsActive = false
		}
	}

	if p.IsActive {
		if next, ok := nextStartAfter(p, today); ok {
			updates["start_date"] = next
			p.StartDate = next
		} else {
			updates["is_active"] = false
			p.IsActive = false
		}
	}

	if err := s.db.Model(&models.PlanningTransaction{}).Where("id = ?", p.ID).
		Updates(updates).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return nil
}

func (s *planningService) validateSchedule(pattern models.RecurrencePattern, endType models.RecurrenceEndType, weekend models.WeekendHandling, startDate dates.Date, endDate *dates.Date, recurrenceCount, executionDay *int) error {
	switch pattern {
	case models.PatternOnce, models.PatternDaily, models.PatternWeekly, models.PatternBiweekly,
		models.PatternMonthly, models.PatternQuarterly, models.PatternYearly:
	default:
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid recurrence pattern")
	}

	switch endType {
	case "", models.RecurrenceEndNever:
	case models.RecurrenceEndDate:
		if endDate == nil || endDate.IsZero() {
			return apperrors.WithMessage(apperrors.ErrInvalidInput, "end date is required for date-terminated recurrence")
		}
		if endDate.Before(startDate) {
			return apperrors.WithMessage(apperrors.ErrInvalidInput, "end date before start date")
		}
	case models.RecurrenceEndCount:
		if recurrenceCount == nil || *recurrenceCount < 1 {
			return apperrors.WithMessage(apperrors.ErrInvalidInput, "recurrence count must be at least 1")
		}
	default:
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid recurrence end type")
	}

	switch weekend {
	case "", models.WeekendNone, models.WeekendBefore, models.WeekendAfter:
	default:
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid weekend handling")
	}

	if startDate.IsZero() {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "start date is required")
	}
	if executionDay != nil && (*executionDay < 1 || *executionDay > 31) {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "execution day must be between 1 and 31")
	}
	return nil
}

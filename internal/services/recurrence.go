package services

import (
	"haushalt/internal/dates"
	"haushalt/internal/models"
)

// occurrenceIterationCap bounds every recurrence scan so pathological
// templates (daily, never-ending, huge windows) always terminate.
const occurrenceIterationCap = 1000

// weekendShiftSlack is how many days a weekend shift can move an occurrence,
// so raw-cursor scans must overshoot window edges by this much.
const weekendShiftSlack = 2

// Occurrences expands a recurring template into the concrete occurrence
// dates falling inside [windowStart, windowEnd], both inclusive. It is a
// pure function of the template; expanding never mutates it.
//
// The raw schedule starts at the template's start date and steps by its
// pattern; weekend handling then shifts each raw date, and the shifted date
// decides window membership. End conditions apply to the raw schedule:
// COUNT caps the number of occurrences generated since the start date and
// DATE cuts the schedule once the raw cursor passes the end date.
func Occurrences(p *models.PlanningTransaction, windowStart, windowEnd dates.Date) []dates.Date {
	if !p.IsActive || windowEnd.Before(windowStart) {
		return nil
	}

	execDay := effectiveExecutionDay(p)
	cursor := p.StartDate
	generated := 0

	var result []dates.Date
	for i := 0; i < occurrenceIterationCap; i++ {
		if p.EndType == models.RecurrenceEndCount &&
			p.RecurrenceCount != nil && generated >= *p.RecurrenceCount {
			break
		}
		if p.EndType == models.RecurrenceEndDate &&
			p.EndDate != nil && cursor.After(*p.EndDate) {
			break
		}
		// A raw date just past the window can still shift back into it.
		if cursor.After(windowEnd.AddDays(weekendShiftSlack)) {
			break
		}

		adjusted := shiftForWeekend(cursor, p.Weekend)
		if !adjusted.Before(windowStart) && !adjusted.After(windowEnd) {
			result = append(result, adjusted)
		}
		generated++

		if p.Pattern == models.PatternOnce {
			break
		}
		cursor = nextOccurrence(cursor, p.Pattern, execDay)
	}

	return result
}

// nextOccurrence advances a raw schedule cursor by one pattern step.
// Month-based patterns re-anchor on the execution day each step, so a
// clamped February date does not permanently drag the schedule off its day
// of month.
func nextOccurrence(cursor dates.Date, pattern models.RecurrencePattern, execDay int) dates.Date {
	switch pattern {
	case models.PatternDaily:
		return cursor.AddDays(1)
	case models.PatternWeekly:
		return cursor.AddDays(7)
	case models.PatternBiweekly:
		return cursor.AddDays(14)
	case models.PatternMonthly:
		return cursor.AddMonths(1, execDay)
	case models.PatternQuarterly:
		return cursor.AddMonths(3, execDay)
	case models.PatternYearly:
		return cursor.AddYears(1)
	default:
		return cursor.AddDays(1)
	}
}

func shiftForWeekend(d dates.Date, handling models.WeekendHandling) dates.Date {
	switch handling {
	case models.WeekendBefore:
		return d.ShiftBeforeWeekend()
	case models.WeekendAfter:
		return d.ShiftAfterWeekend()
	default:
		return d
	}
}

// effectiveExecutionDay is the day of month monthly-style patterns anchor
// on: the configured execution day, or the template's own start day.
func effectiveExecutionDay(p *models.PlanningTransaction) int {
	if p.ExecutionDay != nil && *p.ExecutionDay >= 1 && *p.ExecutionDay <= 31 {
		return *p.ExecutionDay
	}
	return p.StartDate.Day()
}

// nextStartAfter finds the first raw schedule date whose weekend-adjusted
// occurrence falls after the given day. It is how due execution advances a
// template past everything it just materialized. The second return is false
// when the schedule is exhausted before reaching such a date.
func nextStartAfter(p *models.PlanningTransaction, after dates.Date) (dates.Date, bool) {
	execDay := effectiveExecutionDay(p)
	cursor := p.StartDate

	for i := 0; i < occurrenceIterationCap; i++ {
		if p.EndType == models.RecurrenceEndDate &&
			p.EndDate != nil && cursor.After(*p.EndDate) {
			return dates.Date{}, false
		}
		if shiftForWeekend(cursor, p.Weekend).After(after) {
			return cursor, true
		}
		if p.Pattern == models.PatternOnce {
			return dates.Date{}, false
		}
		cursor = nextOccurrence(cursor, p.Pattern, execDay)
	}
	return dates.Date{}, false
}

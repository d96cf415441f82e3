package dates

import "time"

// IsWeekend reports whether the date falls on a Saturday or Sunday.
func (d Date) IsWeekend() bool {
	wd := d.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// ShiftBeforeWeekend moves a weekend date back to the preceding Friday.
// Weekday dates are returned unchanged.
func (d Date) ShiftBeforeWeekend() Date {
	switch d.Weekday() {
	case time.Saturday:
		return d.AddDays(-1)
	case time.Sunday:
		return d.AddDays(-2)
	}
	return d
}

// ShiftAfterWeekend moves a weekend date forward to the following Monday.
// Weekday dates are returned unchanged.
func (d Date) ShiftAfterWeekend() Date {
	switch d.Weekday() {
	case time.Saturday:
		return d.AddDays(2)
	case time.Sunday:
		return d.AddDays(1)
	}
	return d
}

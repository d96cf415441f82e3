// Package dates provides day-granularity date values and the calendar
// arithmetic used by the ledger: month stepping clamped to real month
// lengths and weekend shifting for planned transactions.
package dates

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Format is the wire and storage format for dates, ISO-8601 calendar days.
const Format = "2006-01-02"

// Date represents a calendar day with no time-of-day component.
type Date struct {
	y int
	m time.Month
	d int
}

// New returns a normalized Date for the given year, month and day.
// Out-of-range values are normalized the way time.Date does.
func New(year int, month time.Month, day int) Date {
	d := Date{year, month, day}
	d.y, d.m, d.d = d.time().Date()
	return d
}

// FromTime truncates a time.Time to its calendar day.
func FromTime(t time.Time) Date { return New(t.Date()) }

// Today returns the current calendar day.
func Today() Date { return New(time.Now().Date()) }

// Parse parses an ISO calendar-day string ("2024-01-31").
func Parse(s string) (Date, error) {
	t, err := time.Parse(Format, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q, want format %q: %w", s, Format, err)
	}
	return New(t.Date()), nil
}

// MustParse is like Parse but panics on error. Intended for tests and
// compile-time constants.
func MustParse(s string) Date {
	d, err := Parse(s)
	if err != nil {
		panic(err.Error())
	}
	return d
}

// time returns the canonical representation of the day, midnight UTC.
func (d Date) time() time.Time { return time.Date(d.y, d.m, d.d, 0, 0, 0, 0, time.UTC) }

// Year returns the year.
func (d Date) Year() int { return d.y }

// Month returns the month.
func (d Date) Month() time.Month { return d.m }

// Day returns the day of the month.
func (d Date) Day() int { return d.d }

// Weekday returns the day of the week.
func (d Date) Weekday() time.Weekday { return d.time().Weekday() }

// IsZero reports whether d is the zero Date.
func (d Date) IsZero() bool { return d == Date{} }

// Before reports whether d is before x.
func (d Date) Before(x Date) bool { return d.time().Before(x.time()) }

// After reports whether d is after x.
func (d Date) After(x Date) bool { return d.time().After(x.time()) }

// AddDays returns d shifted by the given number of days.
func (d Date) AddDays(n int) Date { return New(d.y, d.m, d.d+n) }

// AddYears returns d shifted by the given number of years, with the day
// clamped to the length of the target month (Feb 29 -> Feb 28).
func (d Date) AddYears(n int) Date { return d.AddMonths(12*n, 0) }

// AddMonths returns d shifted by the given number of months. The day of
// month is executionDay when it is in [1,31], otherwise d's own day, and is
// always clamped to the length of the target month so stepping from Jan 31
// yields Feb 29 in a leap year rather than rolling into March.
func (d Date) AddMonths(n int, executionDay int) Date {
	day := d.d
	if executionDay >= 1 && executionDay <= 31 {
		day = executionDay
	}
	first := New(d.y, d.m+time.Month(n), 1)
	if last := DaysIn(first.y, first.m); day > last {
		day = last
	}
	return New(first.y, first.m, day)
}

// DaysIn returns the number of days in the given month.
func DaysIn(year int, month time.Month) int {
	return New(year, month+1, 0).Day()
}

// String formats the date as an ISO calendar-day string.
func (d Date) String() string { return d.time().Format(Format) }

// MarshalJSON encodes the date as an ISO string.
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON decodes the date from an ISO string.
func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Value implements driver.Valuer so Date columns are stored as ISO strings,
// which sort chronologically under plain string ordering.
func (d Date) Value() (driver.Value, error) { return d.String(), nil }

// Scan implements sql.Scanner for string, byte slice and time values.
func (d *Date) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*d = Date{}
		return nil
	case string:
		parsed, err := Parse(v)
		if err != nil {
			return err
		}
		*d = parsed
		return nil
	case []byte:
		return d.Scan(string(v))
	case time.Time:
		*d = FromTime(v)
		return nil
	default:
		return fmt.Errorf("cannot scan %T into dates.Date", src)
	}
}

var _ json.Marshaler = (*Date)(nil)
var _ json.Unmarshaler = (*Date)(nil)

// Package dateutil provides calendar-day arithmetic for the ledger.
//
// All dates are calendar days without a time component, represented as
// time.Time values at midnight UTC. Persisted dates use the YYYY-MM-DD
// layout and months use YYYY-MM.
package dateutil

import (
	"fmt"
	"time"
)

// DateLayout is the storage layout for calendar days.
const DateLayout = "2006-01-02"

// MonthLayout is the storage layout for months.
const MonthLayout = "2006-01"

// Date constructs a calendar day.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// Today returns the current calendar day.
func Today() time.Time {
	now := time.Now().UTC()
	return Date(now.Year(), now.Month(), now.Day())
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (time.Time, error) {
	d, err := time.ParseInLocation(DateLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return d, nil
}

// FormatDate renders a calendar day as YYYY-MM-DD.
func FormatDate(d time.Time) string {
	return d.Format(DateLayout)
}

// ParseMonth parses a YYYY-MM string, returning the first day of that month.
func ParseMonth(s string) (time.Time, error) {
	d, err := time.ParseInLocation(MonthLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid month %q: %w", s, err)
	}
	return d, nil
}

// FormatMonth renders a date's month as YYYY-MM.
func FormatMonth(d time.Time) string {
	return d.Format(MonthLayout)
}

// CurrentMonth returns the current month as YYYY-MM.
func CurrentMonth() string {
	return FormatMonth(Today())
}

// DaysInMonth returns the number of days in the given month.
func DaysInMonth(year int, month time.Month) int {
	return Date(year, month+1, 0).Day()
}

// ResolveDayOfMonth resolves a target day to a concrete day of the given
// month. A target of 0 means the last day; otherwise the target is clamped
// to the month's length, so "pay on the 31st" degrades to the 28th/29th/30th
// in short months.
func ResolveDayOfMonth(targetDay, year int, month time.Month) int {
	last := DaysInMonth(year, month)
	if targetDay == 0 || targetDay > last {
		return last
	}
	return targetDay
}

// AdvanceOneMonth moves to the target day in the month following d,
// re-resolving the day against the new month's length.
func AdvanceOneMonth(d time.Time, targetDay int) time.Time {
	year, month := d.Year(), d.Month()+1
	if month > time.December {
		year, month = year+1, time.January
	}
	return Date(year, month, ResolveDayOfMonth(targetDay, year, month))
}

// AdvanceOneYear moves to the target month and day in the year following d,
// re-resolving the day against that month's length.
func AdvanceOneYear(d time.Time, targetMonth time.Month, targetDay int) time.Time {
	year := d.Year() + 1
	return Date(year, targetMonth, ResolveDayOfMonth(targetDay, year, targetMonth))
}

// FirstNWeeklyOnOrAfter returns the smallest anchor + k*interval days that is
// on or after from. A from at or before the anchor returns the anchor.
func FirstNWeeklyOnOrAfter(anchor time.Time, intervalDays int, from time.Time) time.Time {
	if !from.After(anchor) {
		return anchor
	}
	daysSince := int(from.Sub(anchor).Hours() / 24)
	n := daysSince / intervalDays
	candidate := anchor.AddDate(0, 0, n*intervalDays)
	if candidate.Before(from) {
		candidate = candidate.AddDate(0, 0, intervalDays)
	}
	return candidate
}

// FirstMonthlyOnOrAfter returns the first date on or after from whose day
// resolves to targetDay in its month.
func FirstMonthlyOnOrAfter(targetDay int, from time.Time) time.Time {
	year, month := from.Year(), from.Month()
	effective := ResolveDayOfMonth(targetDay, year, month)
	if effective >= from.Day() {
		return Date(year, month, effective)
	}
	month++
	if month > time.December {
		year, month = year+1, time.January
	}
	return Date(year, month, ResolveDayOfMonth(targetDay, year, month))
}

// FirstYearlyOnOrAfter returns the first date on or after from that falls in
// targetMonth on the resolved target day.
func FirstYearlyOnOrAfter(targetMonth time.Month, targetDay int, from time.Time) time.Time {
	year := from.Year()
	candidate := Date(year, targetMonth, ResolveDayOfMonth(targetDay, year, targetMonth))
	if candidate.Before(from) {
		year++
		candidate = Date(year, targetMonth, ResolveDayOfMonth(targetDay, year, targetMonth))
	}
	return candidate
}

// Weekday returns the day of week with 0=Monday .. 6=Sunday.
func Weekday(d time.Time) int {
	return (int(d.Weekday()) + 6) % 7
}

// MonthRange returns the first and last calendar day of a YYYY-MM month.
func MonthRange(month string) (time.Time, time.Time, error) {
	first, err := ParseMonth(month)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	last := Date(first.Year(), first.Month(), DaysInMonth(first.Year(), first.Month()))
	return first, last, nil
}

// PrevMonth returns the YYYY-MM month preceding the given one.
func PrevMonth(month string) (string, error) {
	d, err := ParseMonth(month)
	if err != nil {
		return "", err
	}
	return FormatMonth(d.AddDate(0, -1, 0)), nil
}

// NextMonth returns the YYYY-MM month following the given one.
func NextMonth(month string) (string, error) {
	d, err := ParseMonth(month)
	if err != nil {
		return "", err
	}
	return FormatMonth(d.AddDate(0, 1, 0)), nil
}

// AddMonths adds n months to d, clamping the day to the target month's end.
func AddMonths(d time.Time, n int) time.Time {
	months := int(d.Month()) - 1 + n
	year := d.Year() + months/12
	month := time.Month(months%12 + 1)
	if months < 0 && months%12 != 0 {
		year--
		month = time.Month(months%12 + 13)
	}
	day := d.Day()
	if last := DaysInMonth(year, month); day > last {
		day = last
	}
	return Date(year, month, day)
}

// FriendlyMonth converts YYYY-MM to a display form like "February 2026".
func FriendlyMonth(month string) string {
	d, err := ParseMonth(month)
	if err != nil {
		return month
	}
	return d.Format("January 2006")
}

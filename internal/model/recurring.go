package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Frequency describes how often a recurring rule fires.
type Frequency string

const (
	// FrequencyMonthly fires once a month on a target day.
	FrequencyMonthly Frequency = "monthly"
	// FrequencyWeekly fires every 7 days.
	FrequencyWeekly Frequency = "weekly"
	// FrequencyBiweekly fires every 14 days.
	FrequencyBiweekly Frequency = "every 2 weeks"
	// FrequencyTriweekly fires every 21 days.
	FrequencyTriweekly Frequency = "every 3 weeks"
	// FrequencyFourWeekly fires every 28 days.
	FrequencyFourWeekly Frequency = "every 4 weeks"
	// FrequencyYearly fires once a year on a target month and day.
	FrequencyYearly Frequency = "yearly"
)

// WeekIntervals maps the week-based frequencies to their interval in days.
var WeekIntervals = map[Frequency]int{
	FrequencyWeekly:     7,
	FrequencyBiweekly:   14,
	FrequencyTriweekly:  21,
	FrequencyFourWeekly: 28,
}

// ValidFrequency reports whether f is a known frequency.
func ValidFrequency(f Frequency) bool {
	if f == FrequencyMonthly || f == FrequencyYearly {
		return true
	}
	_, ok := WeekIntervals[f]
	return ok
}

// RecurringRule defines a repeating income or expense.
//
// DayOfMonth uses 1-28, or 0 meaning the last day of the month.
// DayOfWeek uses 0=Monday .. 6=Sunday. MonthOfYear is 1-12 (yearly only).
// LastApplied is the watermark date through which occurrences have been
// materialized as transactions; it is advanced only by catch-up application.
type RecurringRule struct {
	StartDate    time.Time
	Name         string
	Type         TransactionType
	Description  string
	Frequency    Frequency
	AccountName  string // joined display column, empty when not loaded
	CategoryName string // joined display column, empty when not loaded
	Amount       decimal.Decimal
	ID           int64
	AccountID    int64
	CategoryID   int64
	EndDate      *time.Time
	LastApplied  *time.Time
	DayOfMonth   *int
	DayOfWeek    *int
	MonthOfYear  *int
	IsActive     bool
}

package model

// ReminderType identifies what a reminder is about.
type ReminderType string

const (
	// ReminderUpcomingRecurring flags a rule due within the upcoming horizon.
	ReminderUpcomingRecurring ReminderType = "upcoming_recurring"
	// ReminderOverdueRecurring flags an inactive rule whose due date passed.
	ReminderOverdueRecurring ReminderType = "overdue_recurring"
	// ReminderOverBudget flags a category at or past its monthly limit.
	ReminderOverBudget ReminderType = "over_budget"
	// ReminderNearBudget flags a category past the alert threshold.
	ReminderNearBudget ReminderType = "near_budget"
)

// Severity orders reminders by urgency.
type Severity string

const (
	// SeverityError is the most urgent level.
	SeverityError Severity = "error"
	// SeverityWarning is mid urgency.
	SeverityWarning Severity = "warning"
	// SeverityInfo is informational.
	SeverityInfo Severity = "info"
)

// SeverityRank returns a sort rank for a severity, error first.
func SeverityRank(s Severity) int {
	switch s {
	case SeverityError:
		return 0
	case SeverityWarning:
		return 1
	default:
		return 2
	}
}

// Reminder is a derived, ephemeral alert. Key is the stable dismissal key
// (for example "budget:3" or "recurring:5"); an empty key means the reminder
// cannot be dismissed.
type Reminder struct {
	Type     ReminderType
	Severity Severity
	Title    string
	Detail   string
	Key      string
}

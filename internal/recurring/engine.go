// Package recurring generates due dates for recurring rules and materializes
// them as ledger transactions.
package recurring

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pennybank/pennybank/internal/dateutil"
	"github.com/pennybank/pennybank/internal/model"
	"github.com/pennybank/pennybank/internal/service"
)

// CatchupWindowDays bounds how far back catch-up application backfills missed
// occurrences when the ledger has not been opened for a while.
const CatchupWindowDays = 90

// Occurrence is one projected firing of a rule.
type Occurrence struct {
	Date   time.Time
	Type   model.TransactionType
	Amount decimal.Decimal
}

// Engine applies and projects recurring rules against the store.
type Engine struct {
	store service.Storage
}

// NewEngine creates a recurring rule engine.
func NewEngine(store service.Storage) *Engine {
	return &Engine{store: store}
}

// weeklyAnchor returns the first date on or after the rule's start whose
// weekday matches the rule's target day of week. The target defaults to the
// start date's own weekday.
func weeklyAnchor(rule *model.RecurringRule) time.Time {
	targetDow := dateutil.Weekday(rule.StartDate)
	if rule.DayOfWeek != nil {
		targetDow = *rule.DayOfWeek
	}
	offset := (targetDow - dateutil.Weekday(rule.StartDate) + 7) % 7
	return rule.StartDate.AddDate(0, 0, offset)
}

func monthlyTargetDay(rule *model.RecurringRule) int {
	if rule.DayOfMonth != nil {
		return *rule.DayOfMonth
	}
	return rule.StartDate.Day()
}

func yearlyTarget(rule *model.RecurringRule) (time.Month, int) {
	month := rule.StartDate.Month()
	if rule.MonthOfYear != nil {
		month = time.Month(*rule.MonthOfYear)
	}
	return month, monthlyTargetDay(rule)
}

// DueDates returns the rule's due dates within [windowStart, windowEnd] in
// ascending order. No date precedes the rule's start date; the rule's end
// date is not consulted here, callers clip against it.
func DueDates(rule *model.RecurringRule, windowStart, windowEnd time.Time) []time.Time {
	var dates []time.Time

	switch {
	case model.WeekIntervals[rule.Frequency] != 0:
		interval := model.WeekIntervals[rule.Frequency]
		anchor := weeklyAnchor(rule)
		current := dateutil.FirstNWeeklyOnOrAfter(anchor, interval, windowStart)
		for !current.After(windowEnd) {
			if !current.Before(rule.StartDate) {
				dates = append(dates, current)
			}
			current = current.AddDate(0, 0, interval)
		}

	case rule.Frequency == model.FrequencyMonthly:
		targetDay := monthlyTargetDay(rule)
		current := dateutil.FirstMonthlyOnOrAfter(targetDay, windowStart)
		for !current.After(windowEnd) {
			if !current.Before(rule.StartDate) {
				dates = append(dates, current)
			}
			current = dateutil.AdvanceOneMonth(current, targetDay)
		}

	case rule.Frequency == model.FrequencyYearly:
		targetMonth, targetDay := yearlyTarget(rule)
		current := dateutil.FirstYearlyOnOrAfter(targetMonth, targetDay, windowStart)
		for !current.After(windowEnd) {
			if !current.Before(rule.StartDate) {
				dates = append(dates, current)
			}
			current = dateutil.AdvanceOneYear(current, targetMonth, targetDay)
		}
	}

	return dates
}

// NextDueDate returns the rule's first due date strictly after the latest of
// its start date, the given reference date, and its last-applied watermark.
// Returns nil when the candidate falls beyond the rule's end date or the
// frequency is unknown.
func NextDueDate(rule *model.RecurringRule, after time.Time) *time.Time {
	searchFrom := after.AddDate(0, 0, 1)
	if rule.StartDate.After(searchFrom) {
		searchFrom = rule.StartDate
	}
	if rule.LastApplied != nil {
		next := rule.LastApplied.AddDate(0, 0, 1)
		if next.After(searchFrom) {
			searchFrom = next
		}
	}

	var candidate time.Time
	switch {
	case model.WeekIntervals[rule.Frequency] != 0:
		interval := model.WeekIntervals[rule.Frequency]
		candidate = dateutil.FirstNWeeklyOnOrAfter(weeklyAnchor(rule), interval, searchFrom)
	case rule.Frequency == model.FrequencyMonthly:
		candidate = dateutil.FirstMonthlyOnOrAfter(monthlyTargetDay(rule), searchFrom)
	case rule.Frequency == model.FrequencyYearly:
		targetMonth, targetDay := yearlyTarget(rule)
		candidate = dateutil.FirstYearlyOnOrAfter(targetMonth, targetDay, searchFrom)
	default:
		return nil
	}

	if rule.EndDate != nil && candidate.After(*rule.EndDate) {
		return nil
	}
	return &candidate
}

// IsDueOn reports whether the rule fires on the given day.
func IsDueOn(rule *model.RecurringRule, d time.Time) bool {
	if d.Before(rule.StartDate) {
		return false
	}

	switch {
	case rule.Frequency == model.FrequencyMonthly:
		resolved := dateutil.ResolveDayOfMonth(monthlyTargetDay(rule), d.Year(), d.Month())
		return d.Day() == resolved

	case model.WeekIntervals[rule.Frequency] != 0:
		interval := model.WeekIntervals[rule.Frequency]
		targetDow := dateutil.Weekday(rule.StartDate)
		if rule.DayOfWeek != nil {
			targetDow = *rule.DayOfWeek
		}
		if dateutil.Weekday(d) != targetDow {
			return false
		}
		days := int(d.Sub(weeklyAnchor(rule)).Hours() / 24)
		return days >= 0 && days%interval == 0

	case rule.Frequency == model.FrequencyYearly:
		targetMonth, targetDay := yearlyTarget(rule)
		if d.Month() != targetMonth {
			return false
		}
		return d.Day() == dateutil.ResolveDayOfMonth(targetDay, d.Year(), d.Month())
	}

	return false
}

// ApplyDueRules materializes every active rule's due dates up to ref as
// transactions, bounded by the catch-up window. Each rule's inserts and its
// watermark advance commit atomically, so a rerun with the same reference
// date creates nothing new.
func (e *Engine) ApplyDueRules(ctx context.Context, ref time.Time) ([]model.Transaction, error) {
	rules, err := e.store.GetActiveRecurringRules(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load active rules: %w", err)
	}

	cutoff := ref.AddDate(0, 0, -CatchupWindowDays)
	var created []model.Transaction

	for i := range rules {
		rule := &rules[i]

		windowStart := rule.StartDate
		if cutoff.After(windowStart) {
			windowStart = cutoff
		}
		if rule.LastApplied != nil {
			next := rule.LastApplied.AddDate(0, 0, 1)
			if next.After(windowStart) {
				windowStart = next
			}
		}
		if windowStart.After(ref) {
			continue
		}

		windowEnd := ref
		if rule.EndDate != nil && rule.EndDate.Before(windowEnd) {
			windowEnd = *rule.EndDate
		}

		dueDates := DueDates(rule, windowStart, windowEnd)
		if len(dueDates) == 0 {
			continue
		}

		txns, err := e.applyRule(ctx, rule, dueDates)
		if err != nil {
			return created, err
		}
		created = append(created, txns...)

		last := dueDates[len(dueDates)-1]
		rule.LastApplied = &last
		slog.Info("applied recurring rule",
			"rule", rule.Name, "count", len(txns), "through", dateutil.FormatDate(last))
	}

	return created, nil
}

func (e *Engine) applyRule(ctx context.Context, rule *model.RecurringRule, dueDates []time.Time) ([]model.Transaction, error) {
	tx, err := e.store.BeginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin catch-up for rule %d: %w", rule.ID, err)
	}

	txns := make([]model.Transaction, 0, len(dueDates))
	for _, due := range dueDates {
		txn := model.Transaction{
			AccountID:       rule.AccountID,
			Type:            rule.Type,
			Amount:          rule.Amount,
			CategoryID:      &rule.CategoryID,
			Description:     rule.Description,
			Date:            due,
			RecurringRuleID: &rule.ID,
		}
		if err := tx.CreateTransaction(ctx, &txn); err != nil {
			_ = tx.Rollback()
			return nil, fmt.Errorf("failed to create transaction for rule %d: %w", rule.ID, err)
		}
		txns = append(txns, txn)
	}

	if err := tx.UpdateRuleLastApplied(ctx, rule.ID, dueDates[len(dueDates)-1]); err != nil {
		_ = tx.Rollback()
		return nil, fmt.Errorf("failed to advance watermark for rule %d: %w", rule.ID, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit catch-up for rule %d: %w", rule.ID, err)
	}
	return txns, nil
}

// ProjectForPeriod enumerates the due dates of every active rule intersecting
// [periodStart, periodEnd], optionally restricted to one account. Used by
// forecasting; nothing is written.
func (e *Engine) ProjectForPeriod(ctx context.Context, accountID *int64, periodStart, periodEnd time.Time) ([]Occurrence, error) {
	rules, err := e.store.GetActiveRecurringRules(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load active rules: %w", err)
	}

	var occurrences []Occurrence
	for i := range rules {
		rule := &rules[i]
		if accountID != nil && rule.AccountID != *accountID {
			continue
		}
		if rule.EndDate != nil && rule.EndDate.Before(periodStart) {
			continue
		}

		start := periodStart
		if rule.StartDate.After(start) {
			start = rule.StartDate
		}
		end := periodEnd
		if rule.EndDate != nil && rule.EndDate.Before(end) {
			end = *rule.EndDate
		}
		if start.After(end) {
			continue
		}

		for _, due := range DueDates(rule, start, end) {
			occurrences = append(occurrences, Occurrence{
				Date:   due,
				Type:   rule.Type,
				Amount: rule.Amount,
			})
		}
	}

	return occurrences, nil
}

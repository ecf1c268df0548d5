// Package reminder derives an ephemeral alert feed from recurring rules and
// budget status.
package reminder

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/pennybank/pennybank/internal/budget"
	"github.com/pennybank/pennybank/internal/dateutil"
	"github.com/pennybank/pennybank/internal/model"
	"github.com/pennybank/pennybank/internal/recurring"
	"github.com/pennybank/pennybank/internal/service"
)

const (
	// DefaultUpcomingDays is the horizon for upcoming recurring reminders.
	DefaultUpcomingDays = 7
	// DefaultAlertThreshold is the spend fraction that triggers a near-budget
	// warning.
	DefaultAlertThreshold = 0.80
	// dismissFallbackDays is the dismissal TTL when a rule has no computable
	// next due date.
	dismissFallbackDays = 30
)

// Service builds and dismisses reminders.
type Service struct {
	store   service.Storage
	budgets *budget.Service
}

// NewService creates a reminder service.
func NewService(store service.Storage, budgets *budget.Service) *Service {
	return &Service{store: store, budgets: budgets}
}

// Options tunes reminder generation. Zero values fall back to the defaults.
type Options struct {
	UpcomingDays   int
	AlertThreshold float64
}

func (o Options) withDefaults() Options {
	if o.UpcomingDays <= 0 {
		o.UpcomingDays = DefaultUpcomingDays
	}
	if o.AlertThreshold <= 0 {
		o.AlertThreshold = DefaultAlertThreshold
	}
	return o
}

// Reminders returns the active feed for ref, sorted by severity and filtered
// against persisted dismissals. Expired dismissals are purged along the way,
// so a dismissed reminder resurfaces once its expiry passes.
func (s *Service) Reminders(ctx context.Context, ref time.Time, opts Options) ([]model.Reminder, error) {
	opts = opts.withDefaults()

	var reminders []model.Reminder
	fromRules, err := s.checkRecurring(ctx, ref, opts.UpcomingDays)
	if err != nil {
		return nil, err
	}
	reminders = append(reminders, fromRules...)

	fromBudgets, err := s.checkBudgets(ctx, ref, opts.AlertThreshold)
	if err != nil {
		return nil, err
	}
	reminders = append(reminders, fromBudgets...)

	sort.SliceStable(reminders, func(i, j int) bool {
		return model.SeverityRank(reminders[i].Severity) < model.SeverityRank(reminders[j].Severity)
	})

	dismissed, err := s.store.ActiveDismissedKeys(ctx, ref)
	if err != nil {
		return nil, err
	}
	kept := reminders[:0]
	for _, r := range reminders {
		if _, ok := dismissed[r.Key]; !ok {
			kept = append(kept, r)
		}
	}
	return kept, nil
}

// Dismiss suppresses a reminder until its computed expiry.
func (s *Service) Dismiss(ctx context.Context, reminder model.Reminder, ref time.Time) error {
	if reminder.Key == "" {
		return nil
	}
	expiry, err := s.computeExpiry(ctx, reminder, ref)
	if err != nil {
		return err
	}
	return s.store.DismissReminder(ctx, reminder.Key, expiry)
}

// computeExpiry picks when a dismissal lapses: budget alerts at the first of
// the next month, recurring reminders at the rule's next due date with a
// 30-day fallback.
func (s *Service) computeExpiry(ctx context.Context, reminder model.Reminder, ref time.Time) (time.Time, error) {
	switch reminder.Type {
	case model.ReminderOverBudget, model.ReminderNearBudget:
		next, err := dateutil.NextMonth(dateutil.FormatMonth(ref))
		if err != nil {
			return time.Time{}, err
		}
		first, err := dateutil.ParseMonth(next)
		if err != nil {
			return time.Time{}, err
		}
		return first, nil

	case model.ReminderOverdueRecurring, model.ReminderUpcomingRecurring:
		if id, ok := ruleIDFromKey(reminder.Key); ok {
			rule, err := s.store.GetRecurringRuleByID(ctx, id)
			if err == nil {
				if next := recurring.NextDueDate(rule, ref); next != nil {
					return *next, nil
				}
			}
		}
	}

	return ref.AddDate(0, 0, dismissFallbackDays), nil
}

func ruleIDFromKey(key string) (int64, bool) {
	rest, ok := strings.CutPrefix(key, "recurring:")
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseInt(rest, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

func (s *Service) checkRecurring(ctx context.Context, ref time.Time, upcomingDays int) ([]model.Reminder, error) {
	rules, err := s.store.GetRecurringRules(ctx)
	if err != nil {
		return nil, err
	}

	horizon := ref.AddDate(0, 0, upcomingDays)
	var reminders []model.Reminder

	for i := range rules {
		rule := &rules[i]
		// Anchor one day back so something due exactly on ref still counts.
		nextDue := recurring.NextDueDate(rule, ref.AddDate(0, 0, -1))
		if nextDue == nil {
			continue
		}

		switch {
		case !nextDue.After(ref):
			if rule.IsActive {
				continue
			}
			reminders = append(reminders, model.Reminder{
				Type:     model.ReminderOverdueRecurring,
				Severity: model.SeverityWarning,
				Title:    fmt.Sprintf("%s is overdue", rule.Name),
				Detail: fmt.Sprintf("Was due on %s · $%s · %s · Rule is inactive",
					nextDue.Format("Jan 02"), rule.Amount.StringFixed(2), rule.CategoryName),
				Key: fmt.Sprintf("recurring:%d", rule.ID),
			})

		case rule.IsActive && !nextDue.After(horizon):
			daysAway := int(nextDue.Sub(ref).Hours() / 24)
			label := fmt.Sprintf("in %d days", daysAway)
			if daysAway == 0 {
				label = "today"
			} else if daysAway == 1 {
				label = "tomorrow"
			}
			reminders = append(reminders, model.Reminder{
				Type:     model.ReminderUpcomingRecurring,
				Severity: model.SeverityInfo,
				Title:    fmt.Sprintf("%s due %s", rule.Name, label),
				Detail: fmt.Sprintf("Due on %s · $%s · %s · Account: %s",
					nextDue.Format("Jan 02"), rule.Amount.StringFixed(2),
					rule.CategoryName, rule.AccountName),
				Key: fmt.Sprintf("recurring:%d", rule.ID),
			})
		}
	}
	return reminders, nil
}

func (s *Service) checkBudgets(ctx context.Context, ref time.Time, threshold float64) ([]model.Reminder, error) {
	budgets, err := s.budgets.Status(ctx, dateutil.FormatMonth(ref))
	if err != nil {
		return nil, err
	}

	var reminders []model.Reminder
	for i := range budgets {
		b := &budgets[i]
		if !b.LimitAmount.IsPositive() {
			continue
		}

		pct := b.Percentage()
		detail := fmt.Sprintf("Spent $%s of $%s limit (%.0f%%)",
			b.SpentAmount.StringFixed(2), b.LimitAmount.StringFixed(2), pct*100)

		switch {
		case pct >= 1.0:
			reminders = append(reminders, model.Reminder{
				Type:     model.ReminderOverBudget,
				Severity: model.SeverityError,
				Title:    fmt.Sprintf("%s is over budget", b.CategoryName),
				Detail:   detail,
				Key:      fmt.Sprintf("budget:%d", b.CategoryID),
			})
		case pct >= threshold:
			reminders = append(reminders, model.Reminder{
				Type:     model.ReminderNearBudget,
				Severity: model.SeverityWarning,
				Title:    fmt.Sprintf("%s near budget limit", b.CategoryName),
				Detail:   detail,
				Key:      fmt.Sprintf("budget:%d", b.CategoryID),
			})
		}
	}
	return reminders, nil
}

package reminder

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pennybank/pennybank/internal/budget"
	"github.com/pennybank/pennybank/internal/dateutil"
	"github.com/pennybank/pennybank/internal/model"
	"github.com/pennybank/pennybank/internal/storage"
)

type fixture struct {
	store    *storage.SQLiteStorage
	svc      *Service
	account  *model.Account
	category *model.Category
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	store, err := storage.NewSQLiteStorage(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, store.Migrate(ctx))
	t.Cleanup(func() { _ = store.Close() })

	f := &fixture{store: store, svc: NewService(store, budget.NewService(store))}

	f.account = &model.Account{Name: "Checking", Type: model.AccountTypeChecking}
	require.NoError(t, store.CreateAccount(ctx, f.account))
	f.category = &model.Category{Name: "Bills", Type: model.CategoryTypeExpense, ColorHex: "#333333"}
	require.NoError(t, store.CreateCategory(ctx, f.category))

	return f
}

func (f *fixture) addRule(t *testing.T, name string, startDate time.Time, dayOfMonth int, active bool) *model.RecurringRule {
	t.Helper()
	rule := &model.RecurringRule{
		Name:       name,
		Type:       model.TransactionTypeExpense,
		Amount:     decimal.NewFromInt(100),
		AccountID:  f.account.ID,
		CategoryID: f.category.ID,
		Frequency:  model.FrequencyMonthly,
		DayOfMonth: &dayOfMonth,
		StartDate:  startDate,
		IsActive:   true,
	}
	require.NoError(t, f.store.CreateRecurringRule(context.Background(), rule))
	if !active {
		require.NoError(t, f.store.SetRecurringRuleActive(context.Background(), rule.ID, false))
	}
	return rule
}

func TestReminders(t *testing.T) {
	ctx := context.Background()

	t.Run("upcoming recurring within horizon", func(t *testing.T) {
		f := newFixture(t)
		f.addRule(t, "Rent", dateutil.Date(2025, time.January, 1), 15, true)

		ref := dateutil.Date(2025, time.June, 10)
		reminders, err := f.svc.Reminders(ctx, ref, Options{})
		require.NoError(t, err)
		require.Len(t, reminders, 1)
		assert.Equal(t, model.ReminderUpcomingRecurring, reminders[0].Type)
		assert.Equal(t, model.SeverityInfo, reminders[0].Severity)
		assert.Contains(t, reminders[0].Title, "Rent due in 5 days")
	})

	t.Run("due exactly today", func(t *testing.T) {
		// An active rule due today is left to catch-up application; an
		// inactive one surfaces as overdue.
		f := newFixture(t)
		f.addRule(t, "Rent", dateutil.Date(2025, time.January, 1), 15, true)

		reminders, err := f.svc.Reminders(ctx, dateutil.Date(2025, time.June, 15), Options{})
		require.NoError(t, err)
		require.Len(t, reminders, 0)

		f2 := newFixture(t)
		f2.addRule(t, "Old bill", dateutil.Date(2025, time.January, 1), 15, false)
		reminders, err = f2.svc.Reminders(ctx, dateutil.Date(2025, time.June, 15), Options{})
		require.NoError(t, err)
		require.Len(t, reminders, 1)
		assert.Equal(t, model.ReminderOverdueRecurring, reminders[0].Type)
		assert.Equal(t, model.SeverityWarning, reminders[0].Severity)
	})

	t.Run("outside horizon produces nothing", func(t *testing.T) {
		f := newFixture(t)
		f.addRule(t, "Rent", dateutil.Date(2025, time.January, 1), 28, true)

		reminders, err := f.svc.Reminders(ctx, dateutil.Date(2025, time.June, 1), Options{})
		require.NoError(t, err)
		assert.Empty(t, reminders)
	})

	t.Run("budget thresholds", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.store.UpsertBudget(ctx, f.category.ID, "2025-06", decimal.NewFromInt(100))
		require.NoError(t, err)
		require.NoError(t, f.store.CreateTransaction(ctx, &model.Transaction{
			AccountID:  f.account.ID,
			Type:       model.TransactionTypeExpense,
			Amount:     decimal.NewFromInt(85),
			CategoryID: &f.category.ID,
			Date:       dateutil.Date(2025, time.June, 5),
		}))

		ref := dateutil.Date(2025, time.June, 20)
		reminders, err := f.svc.Reminders(ctx, ref, Options{})
		require.NoError(t, err)
		require.Len(t, reminders, 1)
		assert.Equal(t, model.ReminderNearBudget, reminders[0].Type)
		assert.Equal(t, model.SeverityWarning, reminders[0].Severity)

		// Push over the limit: escalates to error.
		require.NoError(t, f.store.CreateTransaction(ctx, &model.Transaction{
			AccountID:  f.account.ID,
			Type:       model.TransactionTypeExpense,
			Amount:     decimal.NewFromInt(20),
			CategoryID: &f.category.ID,
			Date:       dateutil.Date(2025, time.June, 6),
		}))
		reminders, err = f.svc.Reminders(ctx, ref, Options{})
		require.NoError(t, err)
		require.Len(t, reminders, 1)
		assert.Equal(t, model.ReminderOverBudget, reminders[0].Type)
		assert.Equal(t, model.SeverityError, reminders[0].Severity)
	})

	t.Run("sorted by severity", func(t *testing.T) {
		f := newFixture(t)
		f.addRule(t, "Rent", dateutil.Date(2025, time.January, 1), 22, true)
		_, err := f.store.UpsertBudget(ctx, f.category.ID, "2025-06", decimal.NewFromInt(10))
		require.NoError(t, err)
		require.NoError(t, f.store.CreateTransaction(ctx, &model.Transaction{
			AccountID:  f.account.ID,
			Type:       model.TransactionTypeExpense,
			Amount:     decimal.NewFromInt(50),
			CategoryID: &f.category.ID,
			Date:       dateutil.Date(2025, time.June, 1),
		}))

		reminders, err := f.svc.Reminders(ctx, dateutil.Date(2025, time.June, 20), Options{})
		require.NoError(t, err)
		require.Len(t, reminders, 2)
		assert.Equal(t, model.SeverityError, reminders[0].Severity)
		assert.Equal(t, model.SeverityInfo, reminders[1].Severity)
	})
}

func TestDismissal(t *testing.T) {
	ctx := context.Background()

	t.Run("budget dismissal expires at next month", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.store.UpsertBudget(ctx, f.category.ID, "2025-06", decimal.NewFromInt(10))
		require.NoError(t, err)
		require.NoError(t, f.store.CreateTransaction(ctx, &model.Transaction{
			AccountID:  f.account.ID,
			Type:       model.TransactionTypeExpense,
			Amount:     decimal.NewFromInt(50),
			CategoryID: &f.category.ID,
			Date:       dateutil.Date(2025, time.June, 1),
		}))

		ref := dateutil.Date(2025, time.June, 20)
		reminders, err := f.svc.Reminders(ctx, ref, Options{})
		require.NoError(t, err)
		require.Len(t, reminders, 1)

		require.NoError(t, f.svc.Dismiss(ctx, reminders[0], ref))

		// Suppressed for the rest of the month.
		reminders, err = f.svc.Reminders(ctx, ref, Options{})
		require.NoError(t, err)
		assert.Empty(t, reminders)

		// Resurfaces in July: the June spend no longer matters, but check the
		// key expired by looking at the dismissal set directly.
		keys, err := f.store.ActiveDismissedKeys(ctx, dateutil.Date(2025, time.July, 1))
		require.NoError(t, err)
		assert.Empty(t, keys)
	})

	t.Run("recurring dismissal expires at next due date", func(t *testing.T) {
		f := newFixture(t)
		f.addRule(t, "Rent", dateutil.Date(2025, time.January, 1), 15, true)

		ref := dateutil.Date(2025, time.June, 10)
		reminders, err := f.svc.Reminders(ctx, ref, Options{})
		require.NoError(t, err)
		require.Len(t, reminders, 1)

		require.NoError(t, f.svc.Dismiss(ctx, reminders[0], ref))

		keys, err := f.store.ActiveDismissedKeys(ctx, ref)
		require.NoError(t, err)
		assert.Contains(t, keys, reminders[0].Key)

		// Gone once the due date arrives.
		keys, err = f.store.ActiveDismissedKeys(ctx, dateutil.Date(2025, time.June, 15))
		require.NoError(t, err)
		assert.Empty(t, keys)
	})
}

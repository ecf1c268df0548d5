package forecast

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pennybank/pennybank/internal/dateutil"
	"github.com/pennybank/pennybank/internal/model"
	"github.com/pennybank/pennybank/internal/recurring"
	"github.com/pennybank/pennybank/internal/storage"
)

type fixture struct {
	store   *storage.SQLiteStorage
	svc     *Service
	account *model.Account
	income  *model.Category
	expense *model.Category
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	store, err := storage.NewSQLiteStorage(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, store.Migrate(ctx))
	t.Cleanup(func() { _ = store.Close() })

	f := &fixture{store: store, svc: NewService(store, recurring.NewEngine(store))}

	f.account = &model.Account{Name: "Checking", Type: model.AccountTypeChecking}
	require.NoError(t, store.CreateAccount(ctx, f.account))
	f.income = &model.Category{Name: "Wages", Type: model.CategoryTypeIncome, ColorHex: "#00AA00"}
	require.NoError(t, store.CreateCategory(ctx, f.income))
	f.expense = &model.Category{Name: "Bills", Type: model.CategoryTypeExpense, ColorHex: "#AA0000"}
	require.NoError(t, store.CreateCategory(ctx, f.expense))

	return f
}

func (f *fixture) addMonthlyRule(t *testing.T, name string, txType model.TransactionType, amount int64, day int) {
	t.Helper()
	categoryID := f.expense.ID
	if txType == model.TransactionTypeIncome {
		categoryID = f.income.ID
	}
	rule := &model.RecurringRule{
		Name:       name,
		Type:       txType,
		Amount:     decimal.NewFromInt(amount),
		AccountID:  f.account.ID,
		CategoryID: categoryID,
		Frequency:  model.FrequencyMonthly,
		DayOfMonth: &day,
		StartDate:  dateutil.Date(2025, time.January, 1),
		IsActive:   true,
	}
	require.NoError(t, f.store.CreateRecurringRule(context.Background(), rule))
}

func TestMonthlyPeriods(t *testing.T) {
	months := monthlyPeriods(dateutil.Date(2025, time.June, 15))
	require.Len(t, months, 19)
	assert.Equal(t, "2025-06", months[0])
	assert.Equal(t, "2026-12", months[len(months)-1])

	months = monthlyPeriods(dateutil.Date(2025, time.December, 31))
	require.Len(t, months, 13)
	assert.Equal(t, "2025-12", months[0])
}

func TestMonthlyForecast(t *testing.T) {
	ctx := context.Background()
	now := dateutil.Date(2025, time.June, 15)

	t.Run("recurring source", func(t *testing.T) {
		f := newFixture(t)
		f.addMonthlyRule(t, "Paycheck", model.TransactionTypeIncome, 3000, 1)
		f.addMonthlyRule(t, "Rent", model.TransactionTypeExpense, 1200, 1)

		rows, err := f.svc.Monthly(ctx, nil, SourceRecurring, now)
		require.NoError(t, err)
		require.Len(t, rows, 19)
		for _, row := range rows {
			assert.True(t, row.Income.Equal(decimal.NewFromInt(3000)), row.Month)
			assert.True(t, row.Expense.Equal(decimal.NewFromInt(1200)), row.Month)
			assert.True(t, row.Net().Equal(decimal.NewFromInt(1800)), row.Month)
		}
	})

	t.Run("budget source overrides expense where budgets exist", func(t *testing.T) {
		f := newFixture(t)
		f.addMonthlyRule(t, "Paycheck", model.TransactionTypeIncome, 3000, 1)
		f.addMonthlyRule(t, "Rent", model.TransactionTypeExpense, 1200, 1)
		_, err := f.store.UpsertBudget(ctx, f.expense.ID, "2025-07", decimal.NewFromInt(2000))
		require.NoError(t, err)

		rows, err := f.svc.Monthly(ctx, nil, SourceBudgets, now)
		require.NoError(t, err)

		byMonth := map[string]MonthRow{}
		for _, row := range rows {
			byMonth[row.Month] = row
		}
		assert.True(t, byMonth["2025-07"].Expense.Equal(decimal.NewFromInt(2000)))
		// Unbudgeted months fall back to recurring expense.
		assert.True(t, byMonth["2025-08"].Expense.Equal(decimal.NewFromInt(1200)))
	})

	t.Run("history source adds non-recurring average", func(t *testing.T) {
		f := newFixture(t)
		f.addMonthlyRule(t, "Rent", model.TransactionTypeExpense, 1200, 1)

		// Two months of non-recurring spending: average 150.
		for i, amount := range []int64{100, 200} {
			require.NoError(t, f.store.CreateTransaction(ctx, &model.Transaction{
				AccountID:  f.account.ID,
				Type:       model.TransactionTypeExpense,
				Amount:     decimal.NewFromInt(amount),
				CategoryID: &f.expense.ID,
				Date:       dateutil.Date(2025, time.Month(4+i), 10),
			}))
		}

		rows, err := f.svc.Monthly(ctx, nil, SourceHistory, now)
		require.NoError(t, err)
		assert.True(t, rows[0].Expense.Equal(decimal.NewFromInt(1350)),
			"got %s", rows[0].Expense)
	})

	t.Run("rule end date stops projection", func(t *testing.T) {
		f := newFixture(t)
		end := dateutil.Date(2025, time.August, 31)
		day := 1
		rule := &model.RecurringRule{
			Name:       "Ending",
			Type:       model.TransactionTypeExpense,
			Amount:     decimal.NewFromInt(100),
			AccountID:  f.account.ID,
			CategoryID: f.expense.ID,
			Frequency:  model.FrequencyMonthly,
			DayOfMonth: &day,
			StartDate:  dateutil.Date(2025, time.January, 1),
			EndDate:    &end,
			IsActive:   true,
		}
		require.NoError(t, f.store.CreateRecurringRule(ctx, rule))

		rows, err := f.svc.Monthly(ctx, nil, SourceRecurring, now)
		require.NoError(t, err)
		byMonth := map[string]MonthRow{}
		for _, row := range rows {
			byMonth[row.Month] = row
		}
		assert.True(t, byMonth["2025-08"].Expense.Equal(decimal.NewFromInt(100)))
		assert.True(t, byMonth["2025-09"].Expense.IsZero())
	})
}

func TestAnnualForecast(t *testing.T) {
	ctx := context.Background()
	now := dateutil.Date(2025, time.June, 15)

	f := newFixture(t)
	f.addMonthlyRule(t, "Paycheck", model.TransactionTypeIncome, 1000, 1)

	rows, err := f.svc.Annual(ctx, nil, SourceRecurring, now)
	require.NoError(t, err)
	require.Len(t, rows, 10)

	// 2025 has seven projected months (June through December).
	assert.Equal(t, 2025, rows[0].Year)
	assert.True(t, rows[0].Income.Equal(decimal.NewFromInt(7000)))

	// 2026 is fully covered by the monthly horizon.
	assert.Equal(t, 2026, rows[1].Year)
	assert.True(t, rows[1].Income.Equal(decimal.NewFromInt(12000)))

	// Beyond the horizon: steady state from the last 12 projected months.
	for _, row := range rows[2:] {
		assert.True(t, row.Income.Equal(decimal.NewFromInt(12000)), row.Year)
		assert.True(t, row.Expense.IsZero())
	}
}

package storage

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pennybank/pennybank/internal/dateutil"
	"github.com/pennybank/pennybank/internal/model"
)

func findCategory(t *testing.T, store *SQLiteStorage, name string) *model.Category {
	t.Helper()
	categories, err := store.GetCategories(context.Background())
	require.NoError(t, err)
	for _, cat := range categories {
		if cat.Name == name {
			return &cat
		}
	}
	t.Fatalf("category %q not found", name)
	return nil
}

func TestOpenForCurrentYear(t *testing.T) {
	ctx := context.Background()
	now := dateutil.Date(2025, time.June, 1)

	t.Run("creates year-keyed file", func(t *testing.T) {
		dir := t.TempDir()

		store, err := OpenForCurrentYear(ctx, dir, now)
		require.NoError(t, err)
		defer func() { _ = store.Close() }()

		_, err = os.Stat(DBFileForYear(dir, 2025))
		assert.NoError(t, err)
	})

	t.Run("renames legacy file", func(t *testing.T) {
		dir := t.TempDir()

		// Seed a legacy database whose newest transaction is from 2024.
		legacy, err := NewSQLiteStorage(dir + "/pennybank.db")
		require.NoError(t, err)
		require.NoError(t, legacy.Migrate(ctx))
		account := createTestAccount(t, legacy, "Checking")
		category := createTestCategory(t, legacy, "Coffee", model.CategoryTypeExpense)
		createTestTransaction(t, legacy, account.ID, model.TransactionTypeExpense,
			"5.00", &category.ID, dateutil.Date(2024, time.November, 3))
		require.NoError(t, legacy.Close())

		store, err := OpenForCurrentYear(ctx, dir, now)
		require.NoError(t, err)
		defer func() { _ = store.Close() }()

		_, err = os.Stat(DBFileForYear(dir, 2024))
		assert.NoError(t, err)
		_, err = os.Stat(dir + "/pennybank.db")
		assert.True(t, os.IsNotExist(err))
	})

	t.Run("carries over budgets from previous year", func(t *testing.T) {
		dir := t.TempDir()

		prev, err := NewSQLiteStorage(DBFileForYear(dir, 2024))
		require.NoError(t, err)
		require.NoError(t, prev.Migrate(ctx))
		category := findCategory(t, prev, "Food & Dining")
		_, err = prev.UpsertBudget(ctx, category.ID, "2024-12", decimal.NewFromInt(400))
		require.NoError(t, err)
		require.NoError(t, prev.Close())

		store, err := OpenForCurrentYear(ctx, dir, now)
		require.NoError(t, err)
		defer func() { _ = store.Close() }()

		// Same seeded category ids in both databases, so the copied row
		// resolves to the matching category.
		months, err := store.CountBudgetMonths(ctx)
		require.NoError(t, err)
		assert.Equal(t, 12, months)

		budgets, err := store.GetBudgetsByMonth(ctx, "2025-07")
		require.NoError(t, err)
		require.Len(t, budgets, 1)
		assert.True(t, budgets[0].LimitAmount.Equal(decimal.NewFromInt(400)))
	})

	t.Run("no previous year is fine", func(t *testing.T) {
		dir := t.TempDir()

		store, err := OpenForCurrentYear(ctx, dir, now)
		require.NoError(t, err)
		defer func() { _ = store.Close() }()

		months, err := store.CountBudgetMonths(ctx)
		require.NoError(t, err)
		assert.Equal(t, 0, months)
	})
}

package storage

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pennybank/pennybank/internal/model"
)

func TestBudgetUpsert(t *testing.T) {
	ctx := context.Background()
	store, cleanup := createTestStorage(t)
	defer cleanup()

	category := createTestCategory(t, store, "Groceries", model.CategoryTypeExpense)

	budget, err := store.UpsertBudget(ctx, category.ID, "2025-04", decimal.NewFromInt(400))
	require.NoError(t, err)
	assert.True(t, budget.LimitAmount.Equal(decimal.NewFromInt(400)))
	assert.Equal(t, "Groceries", budget.CategoryName)

	// Second upsert overwrites, same row.
	updated, err := store.UpsertBudget(ctx, category.ID, "2025-04", decimal.NewFromInt(450))
	require.NoError(t, err)
	assert.Equal(t, budget.ID, updated.ID)
	assert.True(t, updated.LimitAmount.Equal(decimal.NewFromInt(450)))

	// Zero limit is allowed, negative is not.
	_, err = store.UpsertBudget(ctx, category.ID, "2025-05", decimal.Zero)
	require.NoError(t, err)
	_, err = store.UpsertBudget(ctx, category.ID, "2025-05", decimal.NewFromInt(-1))
	assert.ErrorIs(t, err, ErrInvalidBudget)
}

func TestBudgetQueries(t *testing.T) {
	ctx := context.Background()
	store, cleanup := createTestStorage(t)
	defer cleanup()

	groceries := createTestCategory(t, store, "Groceries", model.CategoryTypeExpense)
	fun := createTestCategory(t, store, "Fun", model.CategoryTypeExpense)

	_, err := store.UpsertBudget(ctx, groceries.ID, "2025-04", decimal.NewFromInt(400))
	require.NoError(t, err)
	_, err = store.UpsertBudget(ctx, fun.ID, "2025-04", decimal.NewFromInt(100))
	require.NoError(t, err)
	_, err = store.UpsertBudget(ctx, groceries.ID, "2025-05", decimal.NewFromInt(420))
	require.NoError(t, err)

	byMonth, err := store.GetBudgetsByMonth(ctx, "2025-04")
	require.NoError(t, err)
	assert.Len(t, byMonth, 2)

	missing, err := store.GetBudgetByCategoryMonth(ctx, fun.ID, "2025-06")
	require.NoError(t, err)
	assert.Nil(t, missing)

	months, err := store.CountBudgetMonths(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, months)
}

func TestCopyBudgetMonth(t *testing.T) {
	ctx := context.Background()
	store, cleanup := createTestStorage(t)
	defer cleanup()

	groceries := createTestCategory(t, store, "Groceries", model.CategoryTypeExpense)
	fun := createTestCategory(t, store, "Fun", model.CategoryTypeExpense)

	_, err := store.UpsertBudget(ctx, groceries.ID, "2025-04", decimal.NewFromInt(400))
	require.NoError(t, err)
	_, err = store.UpsertBudget(ctx, fun.ID, "2025-04", decimal.NewFromInt(100))
	require.NoError(t, err)

	// Target month already budgets Fun; copy must not overwrite it.
	_, err = store.UpsertBudget(ctx, fun.ID, "2025-05", decimal.NewFromInt(150))
	require.NoError(t, err)

	copied, err := store.CopyBudgetMonth(ctx, "2025-04", "2025-05")
	require.NoError(t, err)
	assert.Equal(t, 1, copied)

	funMay, err := store.GetBudgetByCategoryMonth(ctx, fun.ID, "2025-05")
	require.NoError(t, err)
	require.NotNil(t, funMay)
	assert.True(t, funMay.LimitAmount.Equal(decimal.NewFromInt(150)))

	groceriesMay, err := store.GetBudgetByCategoryMonth(ctx, groceries.ID, "2025-05")
	require.NoError(t, err)
	require.NotNil(t, groceriesMay)
	assert.True(t, groceriesMay.LimitAmount.Equal(decimal.NewFromInt(400)))
}

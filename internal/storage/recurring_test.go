package storage

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pennybank/pennybank/internal/common"
	"github.com/pennybank/pennybank/internal/dateutil"
	"github.com/pennybank/pennybank/internal/model"
	"github.com/pennybank/pennybank/internal/service"
)

func createTestRule(t *testing.T, store *SQLiteStorage, name string, accountID, categoryID int64) *model.RecurringRule {
	t.Helper()
	day := 15
	rule := &model.RecurringRule{
		Name:       name,
		Type:       model.TransactionTypeExpense,
		Amount:     decimal.NewFromInt(50),
		AccountID:  accountID,
		CategoryID: categoryID,
		Frequency:  model.FrequencyMonthly,
		DayOfMonth: &day,
		StartDate:  dateutil.Date(2025, time.January, 1),
		IsActive:   true,
	}
	require.NoError(t, store.CreateRecurringRule(context.Background(), rule))
	return rule
}

func TestRecurringRuleCRUD(t *testing.T) {
	ctx := context.Background()
	store, cleanup := createTestStorage(t)
	defer cleanup()

	account := createTestAccount(t, store, "Checking")
	category := createTestCategory(t, store, "Subscriptions", model.CategoryTypeExpense)

	rule := createTestRule(t, store, "Streaming", account.ID, category.ID)
	assert.NotZero(t, rule.ID)

	got, err := store.GetRecurringRuleByID(ctx, rule.ID)
	require.NoError(t, err)
	assert.Equal(t, "Streaming", got.Name)
	assert.Equal(t, "Checking", got.AccountName)
	assert.Equal(t, "Subscriptions", got.CategoryName)
	require.NotNil(t, got.DayOfMonth)
	assert.Equal(t, 15, *got.DayOfMonth)
	assert.Nil(t, got.LastApplied)

	got.Amount = decimal.NewFromInt(60)
	require.NoError(t, store.UpdateRecurringRule(ctx, got))

	updated, err := store.GetRecurringRuleByID(ctx, rule.ID)
	require.NoError(t, err)
	assert.True(t, updated.Amount.Equal(decimal.NewFromInt(60)))

	require.NoError(t, store.DeleteRecurringRule(ctx, rule.ID))
	_, err = store.GetRecurringRuleByID(ctx, rule.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestRecurringRuleActiveFilter(t *testing.T) {
	ctx := context.Background()
	store, cleanup := createTestStorage(t)
	defer cleanup()

	account := createTestAccount(t, store, "Checking")
	category := createTestCategory(t, store, "Subscriptions", model.CategoryTypeExpense)

	active := createTestRule(t, store, "Active", account.ID, category.ID)
	paused := createTestRule(t, store, "Paused", account.ID, category.ID)
	require.NoError(t, store.SetRecurringRuleActive(ctx, paused.ID, false))

	all, err := store.GetRecurringRules(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	rules, err := store.GetActiveRecurringRules(ctx)
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, active.ID, rules[0].ID)
}

func TestRuleValidation(t *testing.T) {
	ctx := context.Background()
	store, cleanup := createTestStorage(t)
	defer cleanup()

	account := createTestAccount(t, store, "Checking")
	category := createTestCategory(t, store, "Subscriptions", model.CategoryTypeExpense)

	base := func() *model.RecurringRule {
		return &model.RecurringRule{
			Name:       "Rule",
			Type:       model.TransactionTypeExpense,
			Amount:     decimal.NewFromInt(10),
			AccountID:  account.ID,
			CategoryID: category.ID,
			Frequency:  model.FrequencyMonthly,
			StartDate:  dateutil.Date(2025, time.January, 1),
			IsActive:   true,
		}
	}

	tests := []struct {
		mutate func(*model.RecurringRule)
		name   string
	}{
		{name: "transfer type rejected", mutate: func(r *model.RecurringRule) { r.Type = model.TransactionTypeTransfer }},
		{name: "zero amount", mutate: func(r *model.RecurringRule) { r.Amount = decimal.Zero }},
		{name: "unknown frequency", mutate: func(r *model.RecurringRule) { r.Frequency = "fortnightly" }},
		{name: "day of month too large", mutate: func(r *model.RecurringRule) { d := 29; r.DayOfMonth = &d }},
		{name: "day of week out of range", mutate: func(r *model.RecurringRule) { d := 7; r.DayOfWeek = &d }},
		{name: "month of year out of range", mutate: func(r *model.RecurringRule) { m := 13; r.MonthOfYear = &m }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule := base()
			tt.mutate(rule)
			err := store.CreateRecurringRule(ctx, rule)
			assert.ErrorIs(t, err, ErrInvalidRule)
		})
	}
}

func TestUpdateRuleLastAppliedInTx(t *testing.T) {
	ctx := context.Background()
	store, cleanup := createTestStorage(t)
	defer cleanup()

	account := createTestAccount(t, store, "Checking")
	category := createTestCategory(t, store, "Subscriptions", model.CategoryTypeExpense)
	rule := createTestRule(t, store, "Streaming", account.ID, category.ID)

	applied := dateutil.Date(2025, time.February, 15)
	tx, err := store.BeginTx(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.CreateTransaction(ctx, &model.Transaction{
		AccountID:       account.ID,
		Type:            model.TransactionTypeExpense,
		Amount:          decimal.NewFromInt(50),
		CategoryID:      &category.ID,
		Date:            applied,
		RecurringRuleID: &rule.ID,
	}))
	require.NoError(t, tx.UpdateRuleLastApplied(ctx, rule.ID, applied))
	require.NoError(t, tx.Commit())

	got, err := store.GetRecurringRuleByID(ctx, rule.ID)
	require.NoError(t, err)
	require.NotNil(t, got.LastApplied)
	assert.Equal(t, applied, *got.LastApplied)

	txns, err := store.GetTransactionsByAccount(ctx, account.ID, service.TransactionFilter{})
	require.NoError(t, err)
	require.Len(t, txns, 1)
	require.NotNil(t, txns[0].RecurringRuleID)
	assert.Equal(t, rule.ID, *txns[0].RecurringRuleID)
}

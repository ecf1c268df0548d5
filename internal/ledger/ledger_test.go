package ledger

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pennybank/pennybank/internal/common"
	"github.com/pennybank/pennybank/internal/dateutil"
	"github.com/pennybank/pennybank/internal/model"
	"github.com/pennybank/pennybank/internal/service"
	"github.com/pennybank/pennybank/internal/storage"
)

type fixture struct {
	store   *storage.SQLiteStorage
	svc     *Service
	salary  *model.Category
	coffee  *model.Category
	account *model.Account
	other   *model.Account
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	store, err := storage.NewSQLiteStorage(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, store.Migrate(ctx))
	t.Cleanup(func() { _ = store.Close() })

	f := &fixture{store: store, svc: NewService(store)}

	f.account = &model.Account{Name: "Checking", Type: model.AccountTypeChecking}
	require.NoError(t, store.CreateAccount(ctx, f.account))
	f.other = &model.Account{Name: "Savings", Type: model.AccountTypeSavings}
	require.NoError(t, store.CreateAccount(ctx, f.other))

	f.salary = &model.Category{Name: "Wages", Type: model.CategoryTypeIncome, ColorHex: "#00FF00"}
	require.NoError(t, store.CreateCategory(ctx, f.salary))
	f.coffee = &model.Category{Name: "Coffee", Type: model.CategoryTypeExpense, ColorHex: "#AA5500"}
	require.NoError(t, store.CreateCategory(ctx, f.coffee))

	return f
}

func (f *fixture) addIncome(t *testing.T, amount string, date time.Time) *model.Transaction {
	t.Helper()
	txn := &model.Transaction{
		AccountID:  f.account.ID,
		Type:       model.TransactionTypeIncome,
		Amount:     decimal.RequireFromString(amount),
		CategoryID: &f.salary.ID,
		Date:       date,
	}
	require.NoError(t, f.svc.CreateTransaction(context.Background(), txn))
	return txn
}

func (f *fixture) addExpense(t *testing.T, amount string, date time.Time) *model.Transaction {
	t.Helper()
	txn := &model.Transaction{
		AccountID:  f.account.ID,
		Type:       model.TransactionTypeExpense,
		Amount:     decimal.RequireFromString(amount),
		CategoryID: &f.coffee.ID,
		Date:       date,
	}
	require.NoError(t, f.svc.CreateTransaction(context.Background(), txn))
	return txn
}

func TestWithRunningBalance(t *testing.T) {
	ctx := context.Background()

	t.Run("accumulates signed amounts in order", func(t *testing.T) {
		f := newFixture(t)
		f.addIncome(t, "1000.00", dateutil.Date(2025, time.January, 1))
		f.addExpense(t, "250.50", dateutil.Date(2025, time.January, 5))
		f.addExpense(t, "100.00", dateutil.Date(2025, time.January, 10))

		entries, err := f.svc.WithRunningBalance(ctx, f.account.ID, service.TransactionFilter{})
		require.NoError(t, err)
		require.Len(t, entries, 3)
		assert.True(t, entries[0].BalanceAfter.Equal(decimal.NewFromInt(1000)))
		assert.True(t, entries[1].BalanceAfter.Equal(decimal.RequireFromString("749.50")))
		assert.True(t, entries[2].BalanceAfter.Equal(decimal.RequireFromString("649.50")))
	})

	t.Run("filter narrows display but not balances", func(t *testing.T) {
		f := newFixture(t)
		f.addIncome(t, "1000.00", dateutil.Date(2025, time.January, 1))
		f.addExpense(t, "250.00", dateutil.Date(2025, time.February, 5))

		entries, err := f.svc.WithRunningBalance(ctx, f.account.ID,
			service.TransactionFilter{Month: "2025-02"})
		require.NoError(t, err)
		require.Len(t, entries, 1)
		// Balance reflects the January income even though it is filtered out.
		assert.True(t, entries[0].BalanceAfter.Equal(decimal.NewFromInt(750)))
	})

	t.Run("transfer legs signed by pair convention", func(t *testing.T) {
		f := newFixture(t)
		f.addIncome(t, "500.00", dateutil.Date(2024, time.April, 1))

		_, _, err := f.svc.CreateTransfer(ctx, f.account.ID, f.other.ID,
			decimal.NewFromInt(100), dateutil.Date(2024, time.May, 1), "move")
		require.NoError(t, err)

		fromEntries, err := f.svc.WithRunningBalance(ctx, f.account.ID, service.TransactionFilter{})
		require.NoError(t, err)
		require.Len(t, fromEntries, 2)
		assert.True(t, fromEntries[1].BalanceAfter.Equal(decimal.NewFromInt(400)))

		toEntries, err := f.svc.WithRunningBalance(ctx, f.other.ID, service.TransactionFilter{})
		require.NoError(t, err)
		require.Len(t, toEntries, 1)
		assert.True(t, toEntries[0].BalanceAfter.Equal(decimal.NewFromInt(100)))
	})

	t.Run("empty account", func(t *testing.T) {
		f := newFixture(t)
		entries, err := f.svc.WithRunningBalance(ctx, f.account.ID, service.TransactionFilter{})
		require.NoError(t, err)
		assert.Empty(t, entries)
	})
}

func TestBalancesMatchRunningBalance(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	f.addIncome(t, "1000.00", dateutil.Date(2025, time.January, 1))
	f.addExpense(t, "123.45", dateutil.Date(2025, time.January, 15))
	_, _, err := f.svc.CreateTransfer(ctx, f.account.ID, f.other.ID,
		decimal.NewFromInt(200), dateutil.Date(2025, time.February, 1), "")
	require.NoError(t, err)
	f.addExpense(t, "50.00", dateutil.Date(2025, time.March, 1))

	cutoffs := []time.Time{
		dateutil.Date(2025, time.January, 1),
		dateutil.Date(2025, time.January, 31),
		dateutil.Date(2025, time.February, 1),
		dateutil.Date(2025, time.December, 31),
	}

	for _, cutoff := range cutoffs {
		balances, err := f.svc.Balances(ctx, &cutoff)
		require.NoError(t, err)

		for _, accountID := range []int64{f.account.ID, f.other.ID} {
			entries, err := f.svc.WithRunningBalance(ctx, accountID, service.TransactionFilter{})
			require.NoError(t, err)

			expected := decimal.Zero
			for _, entry := range entries {
				if entry.Transaction.Date.After(cutoff) {
					break
				}
				expected = entry.BalanceAfter
			}
			assert.True(t, balances[accountID].Equal(expected),
				"account %d as of %s: aggregate %s, running %s",
				accountID, dateutil.FormatDate(cutoff), balances[accountID], expected)
		}
	}
}

func TestCreateTransfer(t *testing.T) {
	ctx := context.Background()

	t.Run("two legs, lower id is debit", func(t *testing.T) {
		f := newFixture(t)
		debit, credit, err := f.svc.CreateTransfer(ctx, f.account.ID, f.other.ID,
			decimal.NewFromInt(100), dateutil.Date(2024, time.May, 1), "")
		require.NoError(t, err)
		assert.Less(t, debit.ID, credit.ID)
		assert.Equal(t, f.account.ID, debit.AccountID)
		assert.Equal(t, f.other.ID, credit.AccountID)
		require.NotNil(t, debit.TransferPairID)
		assert.Equal(t, *debit.TransferPairID, *credit.TransferPairID)
	})

	t.Run("same account rejected", func(t *testing.T) {
		f := newFixture(t)
		_, _, err := f.svc.CreateTransfer(ctx, f.account.ID, f.account.ID,
			decimal.NewFromInt(100), dateutil.Date(2024, time.May, 1), "")
		var userErr *common.UserError
		assert.ErrorAs(t, err, &userErr)
	})

	t.Run("non-positive amount rejected", func(t *testing.T) {
		f := newFixture(t)
		_, _, err := f.svc.CreateTransfer(ctx, f.account.ID, f.other.ID,
			decimal.Zero, dateutil.Date(2024, time.May, 1), "")
		assert.ErrorIs(t, err, common.ErrInvalidAmount)
	})

	t.Run("unknown account rejected before any insert", func(t *testing.T) {
		f := newFixture(t)
		_, _, err := f.svc.CreateTransfer(ctx, f.account.ID, 999,
			decimal.NewFromInt(100), dateutil.Date(2024, time.May, 1), "")
		assert.ErrorIs(t, err, common.ErrNotFound)

		entries, err := f.svc.WithRunningBalance(ctx, f.account.ID, service.TransactionFilter{})
		require.NoError(t, err)
		assert.Empty(t, entries)
	})
}

func TestDeleteTransferLegRemovesPair(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	debit, credit, err := f.svc.CreateTransfer(ctx, f.account.ID, f.other.ID,
		decimal.NewFromInt(100), dateutil.Date(2024, time.May, 1), "")
	require.NoError(t, err)

	require.NoError(t, f.svc.Delete(ctx, credit.ID))

	_, err = f.store.GetTransactionByID(ctx, debit.ID)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestCategoryTypeEnforcement(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	// Expense category on an income transaction is rejected.
	txn := &model.Transaction{
		AccountID:  f.account.ID,
		Type:       model.TransactionTypeIncome,
		Amount:     decimal.NewFromInt(10),
		CategoryID: &f.coffee.ID,
		Date:       dateutil.Date(2025, time.January, 1),
	}
	err := f.svc.CreateTransaction(ctx, txn)
	var userErr *common.UserError
	assert.ErrorAs(t, err, &userErr)
}

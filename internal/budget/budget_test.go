package budget

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
	"github.com/pennybank/pennybank/internal/storage"
)

type fixture struct {
	store     *storage.SQLiteStorage
	svc       *Service
	account   *model.Account
	groceries *model.Category
	fun       *model.Category
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
	f.groceries = &model.Category{Name: "Groceries", Type: model.CategoryTypeExpense, ColorHex: "#111111"}
	require.NoError(t, store.CreateCategory(ctx, f.groceries))
	f.fun = &model.Category{Name: "Fun", Type: model.CategoryTypeExpense, ColorHex: "#222222"}
	require.NoError(t, store.CreateCategory(ctx, f.fun))

	return f
}

func (f *fixture) spend(t *testing.T, category *model.Category, amount string, date time.Time) {
	t.Helper()
	require.NoError(t, f.store.CreateTransaction(context.Background(), &model.Transaction{
		AccountID:  f.account.ID,
		Type:       model.TransactionTypeExpense,
		Amount:     decimal.RequireFromString(amount),
		CategoryID: &category.ID,
		Date:       date,
	}))
}

func TestStatus(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.svc.Set(ctx, f.groceries.ID, "2025-04", decimal.NewFromInt(400))
	require.NoError(t, err)
	_, err = f.svc.Set(ctx, f.fun.ID, "2025-04", decimal.NewFromInt(100))
	require.NoError(t, err)

	f.spend(t, f.groceries, "150.25", dateutil.Date(2025, time.April, 5))
	f.spend(t, f.groceries, "80.00", dateutil.Date(2025, time.April, 20))
	// Outside the month, must not count.
	f.spend(t, f.groceries, "999.00", dateutil.Date(2025, time.March, 31))
	// Over budget in Fun.
	f.spend(t, f.fun, "120.00", dateutil.Date(2025, time.April, 10))

	budgets, err := f.svc.Status(ctx, "2025-04")
	require.NoError(t, err)
	require.Len(t, budgets, 2)

	byName := map[string]*model.Budget{}
	for i := range budgets {
		byName[budgets[i].CategoryName] = &budgets[i]
	}

	groceries := byName["Groceries"]
	require.NotNil(t, groceries)
	assert.True(t, groceries.SpentAmount.Equal(decimal.RequireFromString("230.25")))
	assert.InDelta(t, 230.25/400.0, groceries.Percentage(), 1e-9)
	assert.True(t, groceries.Remaining().Equal(decimal.RequireFromString("169.75")))

	fun := byName["Fun"]
	require.NotNil(t, fun)
	assert.True(t, fun.SpentAmount.Equal(decimal.NewFromInt(120)))
	assert.InDelta(t, 1.2, fun.Percentage(), 1e-9)
	assert.True(t, fun.Remaining().Equal(decimal.Zero))
}

func TestBudgetMath(t *testing.T) {
	tests := []struct {
		name          string
		limit         string
		spent         string
		wantPct       float64
		wantRemaining string
	}{
		{name: "under limit", limit: "100", spent: "40", wantPct: 0.4, wantRemaining: "60"},
		{name: "at limit", limit: "100", spent: "100", wantPct: 1.0, wantRemaining: "0"},
		{name: "over limit clamps remaining", limit: "100", spent: "150", wantPct: 1.5, wantRemaining: "0"},
		{name: "zero limit", limit: "0", spent: "50", wantPct: 0, wantRemaining: "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := model.Budget{
				LimitAmount: decimal.RequireFromString(tt.limit),
				SpentAmount: decimal.RequireFromString(tt.spent),
			}
			assert.InDelta(t, tt.wantPct, b.Percentage(), 1e-9)
			assert.True(t, b.Remaining().Equal(decimal.RequireFromString(tt.wantRemaining)))
		})
	}
}

func TestSetValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.svc.Set(ctx, f.groceries.ID, "2025-04", decimal.NewFromInt(-1))
	assert.ErrorIs(t, err, common.ErrInvalidAmount)

	_, err = f.svc.Set(ctx, f.groceries.ID, "April 2025", decimal.NewFromInt(100))
	var userErr *common.UserError
	assert.ErrorAs(t, err, &userErr)
}

func TestCopyFromPreviousMonth(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.svc.Set(ctx, f.groceries.ID, "2025-03", decimal.NewFromInt(400))
	require.NoError(t, err)

	copied, err := f.svc.CopyFromPreviousMonth(ctx, "2025-04")
	require.NoError(t, err)
	assert.Equal(t, 1, copied)

	budgets, err := f.svc.Status(ctx, "2025-04")
	require.NoError(t, err)
	require.Len(t, budgets, 1)
	assert.True(t, budgets[0].LimitAmount.Equal(decimal.NewFromInt(400)))

	// Year boundary.
	_, err = f.svc.Set(ctx, f.fun.ID, "2024-12", decimal.NewFromInt(50))
	require.NoError(t, err)
	copied, err = f.svc.CopyFromPreviousMonth(ctx, "2025-01")
	require.NoError(t, err)
	assert.Equal(t, 1, copied)
}

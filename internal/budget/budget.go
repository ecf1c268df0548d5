// Package budget computes spend-vs-limit status for monthly category budgets.
package budget

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/pennybank/pennybank/internal/common"
	"github.com/pennybank/pennybank/internal/dateutil"
	"github.com/pennybank/pennybank/internal/model"
	"github.com/pennybank/pennybank/internal/service"
)

// Service owns budget reads and writes.
type Service struct {
	store service.Storage
}

// NewService creates a budget service.
func NewService(store service.Storage) *Service {
	return &Service{store: store}
}

// Status returns the month's budgets with spent amounts recomputed from the
// ledger. Spending is account-agnostic; budgets apply across all accounts.
func (s *Service) Status(ctx context.Context, month string) ([]model.Budget, error) {
	if month == "" {
		month = dateutil.CurrentMonth()
	}

	budgets, err := s.store.GetBudgetsByMonth(ctx, month)
	if err != nil {
		return nil, err
	}
	if len(budgets) == 0 {
		return budgets, nil
	}

	spending, err := s.store.SpendingByCategory(ctx, month)
	if err != nil {
		return nil, err
	}
	for i := range budgets {
		budgets[i].SpentAmount = spending[budgets[i].CategoryID]
	}
	return budgets, nil
}

// Set creates or replaces the limit for a category and month.
func (s *Service) Set(ctx context.Context, categoryID int64, month string, limit decimal.Decimal) (*model.Budget, error) {
	if limit.IsNegative() {
		return nil, common.NewUserError("budget limit must be non-negative", common.ErrInvalidAmount)
	}
	if _, err := dateutil.ParseMonth(month); err != nil {
		return nil, common.NewUserError("month must look like 2025-04", err)
	}
	return s.store.UpsertBudget(ctx, categoryID, month, limit)
}

// Delete removes one budget row.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.store.DeleteBudget(ctx, id)
}

// CopyFromPreviousMonth copies the previous month's budgets into toMonth,
// leaving categories already budgeted there untouched. Returns the number of
// budgets copied.
func (s *Service) CopyFromPreviousMonth(ctx context.Context, toMonth string) (int, error) {
	fromMonth, err := dateutil.PrevMonth(toMonth)
	if err != nil {
		return 0, common.NewUserError("month must look like 2025-04", err)
	}
	return s.store.CopyBudgetMonth(ctx, fromMonth, toMonth)
}

// ExpenseCategories returns the categories valid for budgeting.
func (s *Service) ExpenseCategories(ctx context.Context) ([]model.Category, error) {
	return s.store.GetCategoriesForTransactionType(ctx, model.TransactionTypeExpense)
}

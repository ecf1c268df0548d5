// Package report aggregates ledger data for charts and summaries.
package report

import (
	"context"

	"github.com/pennybank/pennybank/internal/dateutil"
	"github.com/pennybank/pennybank/internal/service"
)

// Service computes reporting aggregates.
type Service struct {
	store service.Storage
}

// NewService creates a report service.
func NewService(store service.Storage) *Service {
	return &Service{store: store}
}

// MonthlyChart returns income/expense totals for the last N months that have
// transactions, oldest first.
func (s *Service) MonthlyChart(ctx context.Context, accountID *int64, months int) ([]service.MonthlyTotal, error) {
	return s.store.MonthlyTotals(ctx, accountID, months)
}

// CategoryBreakdown returns one month's expenses per category, largest first.
// An empty month defaults to the current one.
func (s *Service) CategoryBreakdown(ctx context.Context, month string, accountID *int64) ([]service.CategoryExpense, error) {
	if month == "" {
		month = dateutil.CurrentMonth()
	}
	return s.store.ExpenseByCategory(ctx, month, accountID)
}

// Summary returns one month's totals, across all accounts or one.
func (s *Service) Summary(ctx context.Context, month string, accountID *int64) (service.MonthlyTotal, error) {
	if month == "" {
		month = dateutil.CurrentMonth()
	}
	if accountID != nil {
		return s.store.TotalsByAccount(ctx, *accountID, month)
	}
	return s.store.TotalsForMonth(ctx, month)
}

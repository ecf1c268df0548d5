package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/pennybank/pennybank/internal/common"
	"github.com/pennybank/pennybank/internal/model"
)

const budgetSelect = `
	SELECT b.id, b.category_id, b.month, b.limit_amount,
	       c.name AS category_name, c.color_hex
	FROM budgets b
	JOIN categories c ON b.category_id = c.id`

func scanBudget(row interface{ Scan(...any) error }) (*model.Budget, error) {
	var (
		budget model.Budget
		limit  int64
	)
	if err := row.Scan(
		&budget.ID, &budget.CategoryID, &budget.Month, &limit,
		&budget.CategoryName, &budget.ColorHex,
	); err != nil {
		return nil, err
	}
	budget.LimitAmount = centsToDecimal(limit)
	return &budget, nil
}

func (s *SQLiteStorage) queryBudgets(ctx context.Context, query string, args ...any) ([]model.Budget, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query budgets: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var budgets []model.Budget
	for rows.Next() {
		budget, err := scanBudget(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan budget: %w", err)
		}
		budgets = append(budgets, *budget)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating budgets: %w", err)
	}
	return budgets, nil
}

// GetBudgets returns all budgets across all months, newest month first.
func (s *SQLiteStorage) GetBudgets(ctx context.Context) ([]model.Budget, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.queryBudgets(ctx, budgetSelect+" ORDER BY b.month DESC, c.name")
}

// GetBudgetsByMonth returns the budgets set for one month.
func (s *SQLiteStorage) GetBudgetsByMonth(ctx context.Context, month string) ([]model.Budget, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(month, "month"); err != nil {
		return nil, err
	}
	return s.queryBudgets(ctx, budgetSelect+" WHERE b.month = ? ORDER BY c.name", month)
}

// GetBudgetByCategoryMonth returns the budget for one category and month, or
// nil when no budget is set.
func (s *SQLiteStorage) GetBudgetByCategoryMonth(ctx context.Context, categoryID int64, month string) (*model.Budget, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(month, "month"); err != nil {
		return nil, err
	}

	budget, err := scanBudget(s.db.QueryRowContext(ctx,
		budgetSelect+" WHERE b.category_id = ? AND b.month = ?", categoryID, month))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query budget: %w", err)
	}
	return budget, nil
}

// UpsertBudget sets the limit for a category and month, creating the row or
// overwriting an existing one.
func (s *SQLiteStorage) UpsertBudget(ctx context.Context, categoryID int64, month string, limit decimal.Decimal) (*model.Budget, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(month, "month"); err != nil {
		return nil, err
	}
	if limit.IsNegative() {
		return nil, fmt.Errorf("%w: negative limit", ErrInvalidBudget)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO budgets (category_id, month, limit_amount)
		VALUES (?, ?, ?)
		ON CONFLICT(category_id, month) DO UPDATE SET limit_amount = excluded.limit_amount`,
		categoryID, month, decimalToCents(limit))
	if err != nil {
		return nil, fmt.Errorf("failed to upsert budget: %w", err)
	}

	budget, err := s.GetBudgetByCategoryMonth(ctx, categoryID, month)
	if err != nil {
		return nil, err
	}
	if budget == nil {
		return nil, fmt.Errorf("budget for category %d in %s: %w", categoryID, month, common.ErrNotFound)
	}

	slog.Info("set budget", "category_id", categoryID, "month", month, "limit", limit.StringFixed(2))
	return budget, nil
}

// DeleteBudget removes one budget row.
func (s *SQLiteStorage) DeleteBudget(ctx context.Context, id int64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM budgets WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete budget: %w", err)
	}
	return nil
}

// CopyBudgetMonth copies every budget from one month into another, skipping
// categories that already have a budget in the target month. Returns the
// number of budgets copied.
func (s *SQLiteStorage) CopyBudgetMonth(ctx context.Context, fromMonth, toMonth string) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	if err := validateString(fromMonth, "fromMonth"); err != nil {
		return 0, err
	}
	if err := validateString(toMonth, "toMonth"); err != nil {
		return 0, err
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO budgets (category_id, month, limit_amount)
		SELECT category_id, ?, limit_amount
		FROM budgets
		WHERE month = ?`, toMonth, fromMonth)
	if err != nil {
		return 0, fmt.Errorf("failed to copy budgets from %s to %s: %w", fromMonth, toMonth, err)
	}

	copied, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count copied budgets: %w", err)
	}
	return int(copied), nil
}

// CountBudgetMonths returns how many distinct months have budgets.
func (s *SQLiteStorage) CountBudgetMonths(ctx context.Context) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}

	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(DISTINCT month) FROM budgets`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count budget months: %w", err)
	}
	return count, nil
}

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/pennybank/pennybank/internal/common"
	"github.com/pennybank/pennybank/internal/dateutil"
	"github.com/pennybank/pennybank/internal/model"
)

const recurringSelect = `
	SELECT r.id, r.name, r.type, r.amount, r.account_id, r.category_id,
	       r.description, r.frequency, r.day_of_month, r.day_of_week,
	       r.month_of_year, r.start_date, r.end_date, r.is_active, r.last_applied,
	       a.name AS account_name, c.name AS category_name
	FROM recurring_rules r
	JOIN accounts a ON r.account_id = a.id
	JOIN categories c ON r.category_id = c.id`

func scanRecurringRule(row interface{ Scan(...any) error }) (*model.RecurringRule, error) {
	var (
		rule        model.RecurringRule
		amount      int64
		dayOfMonth  sql.NullInt64
		dayOfWeek   sql.NullInt64
		monthOfYear sql.NullInt64
		startDate   string
		endDate     sql.NullString
		lastApplied sql.NullString
	)
	if err := row.Scan(
		&rule.ID, &rule.Name, &rule.Type, &amount, &rule.AccountID,
		&rule.CategoryID, &rule.Description, &rule.Frequency,
		&dayOfMonth, &dayOfWeek, &monthOfYear,
		&startDate, &endDate, &rule.IsActive, &lastApplied,
		&rule.AccountName, &rule.CategoryName,
	); err != nil {
		return nil, err
	}

	rule.Amount = centsToDecimal(amount)
	rule.DayOfMonth = nullableInt(dayOfMonth)
	rule.DayOfWeek = nullableInt(dayOfWeek)
	rule.MonthOfYear = nullableInt(monthOfYear)

	var err error
	if rule.StartDate, err = parseDay(startDate); err != nil {
		return nil, err
	}
	if rule.EndDate, err = parseNullableDay(endDate); err != nil {
		return nil, err
	}
	if rule.LastApplied, err = parseNullableDay(lastApplied); err != nil {
		return nil, err
	}
	return &rule, nil
}

func (s *SQLiteStorage) queryRecurringRules(ctx context.Context, query string, args ...any) ([]model.RecurringRule, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query recurring rules: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var rules []model.RecurringRule
	for rows.Next() {
		rule, err := scanRecurringRule(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan recurring rule: %w", err)
		}
		rules = append(rules, *rule)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating recurring rules: %w", err)
	}
	return rules, nil
}

// GetRecurringRules returns all rules ordered by name.
func (s *SQLiteStorage) GetRecurringRules(ctx context.Context) ([]model.RecurringRule, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.queryRecurringRules(ctx, recurringSelect+" ORDER BY r.name, r.id")
}

// GetActiveRecurringRules returns only rules with is_active set.
func (s *SQLiteStorage) GetActiveRecurringRules(ctx context.Context) ([]model.RecurringRule, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.queryRecurringRules(ctx, recurringSelect+" WHERE r.is_active = 1 ORDER BY r.name, r.id")
}

// GetRecurringRuleByID returns one rule, or common.ErrNotFound.
func (s *SQLiteStorage) GetRecurringRuleByID(ctx context.Context, id int64) (*model.RecurringRule, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rule, err := scanRecurringRule(s.db.QueryRowContext(ctx, recurringSelect+" WHERE r.id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("recurring rule %d: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query recurring rule: %w", err)
	}
	return rule, nil
}

// CreateRecurringRule inserts a new rule and fills in its ID.
func (s *SQLiteStorage) CreateRecurringRule(ctx context.Context, rule *model.RecurringRule) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateRule(rule); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO recurring_rules
			(name, type, amount, account_id, category_id, description,
			 frequency, day_of_month, day_of_week, month_of_year,
			 start_date, end_date, is_active, last_applied)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rule.Name, rule.Type, decimalToCents(rule.Amount), rule.AccountID,
		rule.CategoryID, rule.Description, rule.Frequency,
		intArg(rule.DayOfMonth), intArg(rule.DayOfWeek), intArg(rule.MonthOfYear),
		dateutil.FormatDate(rule.StartDate), nullableDay(rule.EndDate),
		rule.IsActive, nullableDay(rule.LastApplied))
	if err != nil {
		return fmt.Errorf("failed to create recurring rule: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get recurring rule ID: %w", err)
	}
	rule.ID = id

	slog.Info("created recurring rule", "name", rule.Name, "id", id, "frequency", rule.Frequency)
	return nil
}

// UpdateRecurringRule persists changes to an existing rule. The last-applied
// watermark is not touched here; it only moves through catch-up application.
func (s *SQLiteStorage) UpdateRecurringRule(ctx context.Context, rule *model.RecurringRule) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateRule(rule); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		UPDATE recurring_rules
		SET name = ?, type = ?, amount = ?, account_id = ?, category_id = ?,
		    description = ?, frequency = ?, day_of_month = ?, day_of_week = ?,
		    month_of_year = ?, start_date = ?, end_date = ?, is_active = ?
		WHERE id = ?`,
		rule.Name, rule.Type, decimalToCents(rule.Amount), rule.AccountID,
		rule.CategoryID, rule.Description, rule.Frequency,
		intArg(rule.DayOfMonth), intArg(rule.DayOfWeek), intArg(rule.MonthOfYear),
		dateutil.FormatDate(rule.StartDate), nullableDay(rule.EndDate),
		rule.IsActive, rule.ID)
	if err != nil {
		return fmt.Errorf("failed to update recurring rule: %w", err)
	}
	return nil
}

// SetRecurringRuleActive pauses or resumes a rule.
func (s *SQLiteStorage) SetRecurringRuleActive(ctx context.Context, id int64, active bool) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx,
		`UPDATE recurring_rules SET is_active = ? WHERE id = ?`, active, id)
	if err != nil {
		return fmt.Errorf("failed to set recurring rule active flag: %w", err)
	}
	return nil
}

// DeleteRecurringRule removes a rule. Transactions it created keep their rows;
// their rule reference is cleared by the schema's ON DELETE SET NULL.
func (s *SQLiteStorage) DeleteRecurringRule(ctx context.Context, id int64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM recurring_rules WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete recurring rule: %w", err)
	}
	return nil
}

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pennybank/pennybank/internal/common"
	"github.com/pennybank/pennybank/internal/dateutil"
	"github.com/pennybank/pennybank/internal/model"
	"github.com/pennybank/pennybank/internal/service"
)

const transactionSelect = `
	SELECT t.id, t.account_id, t.type, t.amount, t.category_id, t.description,
	       t.date, t.cleared, t.transfer_pair_id, t.recurring_rule_id,
	       t.created_at, t.updated_at,
	       COALESCE(c.name, '') AS category_name
	FROM transactions t
	LEFT JOIN categories c ON t.category_id = c.id`

func scanTransaction(row interface{ Scan(...any) error }) (*model.Transaction, error) {
	var (
		txn        model.Transaction
		amount     int64
		categoryID sql.NullInt64
		date       string
		pairID     sql.NullInt64
		ruleID     sql.NullInt64
		createdAt  string
		updatedAt  string
	)
	if err := row.Scan(
		&txn.ID, &txn.AccountID, &txn.Type, &amount, &categoryID,
		&txn.Description, &date, &txn.Cleared, &pairID, &ruleID,
		&createdAt, &updatedAt, &txn.CategoryName,
	); err != nil {
		return nil, err
	}

	txn.Amount = centsToDecimal(amount)
	txn.CategoryID = nullableInt64(categoryID)
	txn.TransferPairID = nullableInt64(pairID)
	txn.RecurringRuleID = nullableInt64(ruleID)

	var err error
	if txn.Date, err = parseDay(date); err != nil {
		return nil, err
	}
	if txn.CreatedAt, err = parseTimestamp(createdAt); err != nil {
		return nil, err
	}
	if txn.UpdatedAt, err = parseTimestamp(updatedAt); err != nil {
		return nil, err
	}
	return &txn, nil
}

func (s *SQLiteStorage) queryTransactions(ctx context.Context, query string, args ...any) ([]model.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var transactions []model.Transaction
	for rows.Next() {
		txn, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		transactions = append(transactions, *txn)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}
	return transactions, nil
}

// GetTransactionsByAccount returns the account's transactions in ascending
// (date, id) order, narrowed by the display filter.
func (s *SQLiteStorage) GetTransactionsByAccount(ctx context.Context, accountID int64, filter service.TransactionFilter) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	var sb strings.Builder
	sb.WriteString(transactionSelect)
	sb.WriteString(" WHERE t.account_id = ?")
	args := []any{accountID}

	if filter.Month != "" {
		sb.WriteString(" AND strftime('%Y-%m', t.date) = ?")
		args = append(args, filter.Month)
	}
	if filter.Type != "" {
		sb.WriteString(" AND t.type = ?")
		args = append(args, filter.Type)
	}
	if filter.Cleared != nil {
		sb.WriteString(" AND t.cleared = ?")
		args = append(args, *filter.Cleared)
	}
	if filter.Search != "" {
		sb.WriteString(" AND (t.description LIKE ? OR COALESCE(c.name,'') LIKE ?)")
		pattern := "%" + filter.Search + "%"
		args = append(args, pattern, pattern)
	}

	sb.WriteString(" ORDER BY t.date ASC, t.id ASC")
	return s.queryTransactions(ctx, sb.String(), args...)
}

// GetTransactionByID returns one transaction, or common.ErrNotFound.
func (s *SQLiteStorage) GetTransactionByID(ctx context.Context, id int64) (*model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	txn, err := scanTransaction(s.db.QueryRowContext(ctx, transactionSelect+" WHERE t.id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("transaction %d: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query transaction: %w", err)
	}
	return txn, nil
}

// GetTransferPair returns both legs of a transfer pair.
func (s *SQLiteStorage) GetTransferPair(ctx context.Context, pairID int64) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	return s.queryTransactions(ctx,
		transactionSelect+" WHERE t.transfer_pair_id = ? ORDER BY t.id ASC", pairID)
}

// GetTransactionsByTransferPairIDs fetches all legs for the given pair ids in
// one batch, keyed by pair id.
func (s *SQLiteStorage) GetTransactionsByTransferPairIDs(ctx context.Context, pairIDs []int64) (map[int64][]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	result := make(map[int64][]model.Transaction)
	if len(pairIDs) == 0 {
		return result, nil
	}

	placeholders := strings.Repeat("?,", len(pairIDs))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]any, len(pairIDs))
	for i, id := range pairIDs {
		args[i] = id
	}

	transactions, err := s.queryTransactions(ctx,
		transactionSelect+" WHERE t.transfer_pair_id IN ("+placeholders+") ORDER BY t.id ASC",
		args...)
	if err != nil {
		return nil, err
	}

	for _, txn := range transactions {
		result[*txn.TransferPairID] = append(result[*txn.TransferPairID], txn)
	}
	return result, nil
}

// CreateTransaction inserts a new transaction and fills in its ID.
func (s *SQLiteStorage) CreateTransaction(ctx context.Context, txn *model.Transaction) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateTransaction(txn); err != nil {
		return err
	}
	return s.createTransactionTx(ctx, s.db, txn)
}

func (s *SQLiteStorage) createTransactionTx(ctx context.Context, q queryable, txn *model.Transaction) error {
	result, err := q.ExecContext(ctx, `
		INSERT INTO transactions
			(account_id, type, amount, category_id, description, date,
			 cleared, transfer_pair_id, recurring_rule_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		txn.AccountID, txn.Type, decimalToCents(txn.Amount),
		int64Arg(txn.CategoryID), txn.Description, dateutil.FormatDate(txn.Date),
		txn.Cleared, int64Arg(txn.TransferPairID), int64Arg(txn.RecurringRuleID))
	if err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get transaction ID: %w", err)
	}
	txn.ID = id
	return nil
}

// UpdateTransaction persists edits to type, amount, category, description,
// date and cleared flag.
func (s *SQLiteStorage) UpdateTransaction(ctx context.Context, txn *model.Transaction) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateTransaction(txn); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		UPDATE transactions
		SET type = ?, amount = ?, category_id = ?, description = ?, date = ?,
		    cleared = ?, updated_at = datetime('now')
		WHERE id = ?`,
		txn.Type, decimalToCents(txn.Amount), int64Arg(txn.CategoryID),
		txn.Description, dateutil.FormatDate(txn.Date), txn.Cleared, txn.ID)
	if err != nil {
		return fmt.Errorf("failed to update transaction: %w", err)
	}
	return nil
}

// SetTransactionCleared toggles the cleared flag.
func (s *SQLiteStorage) SetTransactionCleared(ctx context.Context, id int64, cleared bool) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		UPDATE transactions
		SET cleared = ?, updated_at = datetime('now')
		WHERE id = ?`, cleared, id)
	if err != nil {
		return fmt.Errorf("failed to set cleared flag: %w", err)
	}
	return nil
}

// DeleteTransaction removes one transaction.
func (s *SQLiteStorage) DeleteTransaction(ctx context.Context, id int64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}
	return nil
}

// DeleteTransferPair removes both legs of a transfer.
func (s *SQLiteStorage) DeleteTransferPair(ctx context.Context, pairID int64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM transactions WHERE transfer_pair_id = ?`, pairID); err != nil {
		return fmt.Errorf("failed to delete transfer pair: %w", err)
	}
	return nil
}

func (s *SQLiteStorage) nextTransferPairIDTx(ctx context.Context, q queryable) (int64, error) {
	var next int64
	err := q.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(transfer_pair_id), 0) + 1 FROM transactions`).Scan(&next)
	if err != nil {
		return 0, fmt.Errorf("failed to allocate transfer pair id: %w", err)
	}
	return next, nil
}

func (s *SQLiteStorage) updateRuleLastAppliedTx(ctx context.Context, q queryable, ruleID int64, lastApplied time.Time) error {
	_, err := q.ExecContext(ctx,
		`UPDATE recurring_rules SET last_applied = ? WHERE id = ?`,
		dateutil.FormatDate(lastApplied), ruleID)
	if err != nil {
		return fmt.Errorf("failed to update last applied for rule %d: %w", ruleID, err)
	}
	return nil
}

// BalancesAsOf computes every account's balance in a single aggregate pass.
// Transfer legs are signed by the pair convention: the leg with the lowest id
// is the debit. A lone leg (mid-deletion) gets debit treatment because
// MIN(id) over one row is that row.
func (s *SQLiteStorage) BalancesAsOf(ctx context.Context, asOf *time.Time) (map[int64]decimal.Decimal, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := `
		WITH transfer_debit AS (
			SELECT MIN(id) AS debit_id, transfer_pair_id
			FROM transactions
			WHERE type = 'transfer'
			GROUP BY transfer_pair_id
		)
		SELECT t.account_id,
		       SUM(CASE t.type
		               WHEN 'income'  THEN t.amount
		               WHEN 'expense' THEN -t.amount
		               WHEN 'transfer' THEN
		                   CASE WHEN t.id = td.debit_id THEN -t.amount ELSE t.amount END
		               ELSE 0
		           END) AS balance
		FROM transactions t
		LEFT JOIN transfer_debit td ON t.transfer_pair_id = td.transfer_pair_id`

	var args []any
	if asOf != nil {
		query += " WHERE t.date <= ?"
		args = append(args, dateutil.FormatDate(*asOf))
	}
	query += " GROUP BY t.account_id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query balances: %w", err)
	}
	defer func() { _ = rows.Close() }()

	balances := make(map[int64]decimal.Decimal)
	for rows.Next() {
		var (
			accountID int64
			cents     int64
		)
		if err := rows.Scan(&accountID, &cents); err != nil {
			return nil, fmt.Errorf("failed to scan balance: %w", err)
		}
		balances[accountID] = centsToDecimal(cents)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating balances: %w", err)
	}
	return balances, nil
}

// SpendingByCategory sums expense amounts per category for one month across
// all accounts.
func (s *SQLiteStorage) SpendingByCategory(ctx context.Context, month string) (map[int64]decimal.Decimal, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(month, "month"); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT category_id, SUM(amount)
		FROM transactions
		WHERE type = 'expense'
		  AND strftime('%Y-%m', date) = ?
		  AND category_id IS NOT NULL
		GROUP BY category_id`, month)
	if err != nil {
		return nil, fmt.Errorf("failed to query spending: %w", err)
	}
	defer func() { _ = rows.Close() }()

	spending := make(map[int64]decimal.Decimal)
	for rows.Next() {
		var (
			categoryID int64
			cents      int64
		)
		if err := rows.Scan(&categoryID, &cents); err != nil {
			return nil, fmt.Errorf("failed to scan spending: %w", err)
		}
		spending[categoryID] = centsToDecimal(cents)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating spending: %w", err)
	}
	return spending, nil
}

// TotalsForMonth returns income and expense totals across all accounts.
func (s *SQLiteStorage) TotalsForMonth(ctx context.Context, month string) (service.MonthlyTotal, error) {
	return s.monthTotals(ctx, month, nil)
}

// TotalsByAccount returns income and expense totals for one account.
func (s *SQLiteStorage) TotalsByAccount(ctx context.Context, accountID int64, month string) (service.MonthlyTotal, error) {
	return s.monthTotals(ctx, month, &accountID)
}

func (s *SQLiteStorage) monthTotals(ctx context.Context, month string, accountID *int64) (service.MonthlyTotal, error) {
	total := service.MonthlyTotal{Month: month, Income: decimal.Zero, Expense: decimal.Zero}
	if err := validateContext(ctx); err != nil {
		return total, err
	}
	if err := validateString(month, "month"); err != nil {
		return total, err
	}

	query := `
		SELECT COALESCE(SUM(CASE WHEN type='income'  THEN amount ELSE 0 END), 0),
		       COALESCE(SUM(CASE WHEN type='expense' THEN amount ELSE 0 END), 0)
		FROM transactions
		WHERE strftime('%Y-%m', date) = ?`
	args := []any{month}
	if accountID != nil {
		query += " AND account_id = ?"
		args = append(args, *accountID)
	}

	var incomeCents, expenseCents int64
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&incomeCents, &expenseCents); err != nil {
		return total, fmt.Errorf("failed to query month totals: %w", err)
	}

	total.Income = centsToDecimal(incomeCents)
	total.Expense = centsToDecimal(expenseCents)
	return total, nil
}

// MonthlyTotals returns income/expense per month for the last N months that
// have transactions, oldest first.
func (s *SQLiteStorage) MonthlyTotals(ctx context.Context, accountID *int64, months int) ([]service.MonthlyTotal, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query := `
		SELECT strftime('%Y-%m', date) AS month,
		       SUM(CASE WHEN type='income'  THEN amount ELSE 0 END),
		       SUM(CASE WHEN type='expense' THEN amount ELSE 0 END)
		FROM transactions`
	var args []any
	if accountID != nil {
		query += " WHERE account_id = ?"
		args = append(args, *accountID)
	}
	query += `
		GROUP BY month
		ORDER BY month DESC
		LIMIT ?`
	args = append(args, months)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query monthly totals: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var totals []service.MonthlyTotal
	for rows.Next() {
		var (
			total                     service.MonthlyTotal
			incomeCents, expenseCents int64
		)
		if err := rows.Scan(&total.Month, &incomeCents, &expenseCents); err != nil {
			return nil, fmt.Errorf("failed to scan monthly total: %w", err)
		}
		total.Income = centsToDecimal(incomeCents)
		total.Expense = centsToDecimal(expenseCents)
		totals = append(totals, total)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating monthly totals: %w", err)
	}

	// Flip newest-first into chronological order.
	for i, j := 0, len(totals)-1; i < j; i, j = i+1, j-1 {
		totals[i], totals[j] = totals[j], totals[i]
	}
	return totals, nil
}

// AvgMonthlyNonRecurring averages income/expense of transactions not created
// by a recurring rule, over the last N months that have such transactions.
func (s *SQLiteStorage) AvgMonthlyNonRecurring(ctx context.Context, accountID *int64, months int) (service.MonthlyTotal, error) {
	avg := service.MonthlyTotal{Income: decimal.Zero, Expense: decimal.Zero}
	if err := validateContext(ctx); err != nil {
		return avg, err
	}

	query := `
		SELECT SUM(CASE WHEN type='income'  THEN amount ELSE 0 END),
		       SUM(CASE WHEN type='expense' THEN amount ELSE 0 END)
		FROM transactions
		WHERE recurring_rule_id IS NULL`
	var args []any
	if accountID != nil {
		query += " AND account_id = ?"
		args = append(args, *accountID)
	}
	query += `
		GROUP BY strftime('%Y-%m', date)
		ORDER BY strftime('%Y-%m', date) DESC
		LIMIT ?`
	args = append(args, months)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return avg, fmt.Errorf("failed to query non-recurring averages: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var (
		incomeSum, expenseSum decimal.Decimal
		count                 int64
	)
	for rows.Next() {
		var incomeCents, expenseCents int64
		if err := rows.Scan(&incomeCents, &expenseCents); err != nil {
			return avg, fmt.Errorf("failed to scan non-recurring average: %w", err)
		}
		incomeSum = incomeSum.Add(centsToDecimal(incomeCents))
		expenseSum = expenseSum.Add(centsToDecimal(expenseCents))
		count++
	}

	if err := rows.Err(); err != nil {
		return avg, fmt.Errorf("error iterating non-recurring averages: %w", err)
	}

	if count == 0 {
		return avg, nil
	}
	divisor := decimal.NewFromInt(count)
	avg.Income = incomeSum.Div(divisor).Round(2)
	avg.Expense = expenseSum.Div(divisor).Round(2)
	return avg, nil
}

// ExpenseByCategory breaks one month's expenses down per category, largest
// first.
func (s *SQLiteStorage) ExpenseByCategory(ctx context.Context, month string, accountID *int64) ([]service.CategoryExpense, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(month, "month"); err != nil {
		return nil, err
	}

	query := `
		SELECT COALESCE(c.name, 'Uncategorized'),
		       COALESCE(c.color_hex, '#888888'),
		       SUM(t.amount) AS total
		FROM transactions t
		LEFT JOIN categories c ON t.category_id = c.id
		WHERE t.type = 'expense'
		  AND strftime('%Y-%m', t.date) = ?`
	args := []any{month}
	if accountID != nil {
		query += " AND t.account_id = ?"
		args = append(args, *accountID)
	}
	query += `
		GROUP BY t.category_id
		ORDER BY total DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query expense breakdown: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var breakdown []service.CategoryExpense
	for rows.Next() {
		var (
			entry service.CategoryExpense
			cents int64
		)
		if err := rows.Scan(&entry.Category, &entry.ColorHex, &cents); err != nil {
			return nil, fmt.Errorf("failed to scan expense breakdown: %w", err)
		}
		entry.Total = centsToDecimal(cents)
		breakdown = append(breakdown, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating expense breakdown: %w", err)
	}
	return breakdown, nil
}

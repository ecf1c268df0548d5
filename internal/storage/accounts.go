package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/pennybank/pennybank/internal/common"
	"github.com/pennybank/pennybank/internal/model"
)

func scanAccount(row interface{ Scan(...any) error }) (*model.Account, error) {
	var (
		account   model.Account
		balance   int64
		createdAt string
	)
	if err := row.Scan(
		&account.ID, &account.Name, &account.Description,
		&account.Type, &balance, &createdAt,
	); err != nil {
		return nil, err
	}

	account.OpeningBalance = centsToDecimal(balance)
	var err error
	if account.CreatedAt, err = parseTimestamp(createdAt); err != nil {
		return nil, err
	}
	return &account, nil
}

// GetAccounts returns all accounts ordered by name.
func (s *SQLiteStorage) GetAccounts(ctx context.Context) ([]model.Account, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, description, account_type, opening_balance, created_at
		FROM accounts
		ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query accounts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var accounts []model.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan account: %w", err)
		}
		accounts = append(accounts, *account)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating accounts: %w", err)
	}
	return accounts, nil
}

// GetAccountByID returns one account, or common.ErrNotFound.
func (s *SQLiteStorage) GetAccountByID(ctx context.Context, id int64) (*model.Account, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	account, err := scanAccount(s.db.QueryRowContext(ctx, `
		SELECT id, name, description, account_type, opening_balance, created_at
		FROM accounts
		WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("account %d: %w", id, common.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query account: %w", err)
	}
	return account, nil
}

// GetAccountByName returns the account with the given name, or nil when no
// such account exists.
func (s *SQLiteStorage) GetAccountByName(ctx context.Context, name string) (*model.Account, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(name, "name"); err != nil {
		return nil, err
	}

	account, err := scanAccount(s.db.QueryRowContext(ctx, `
		SELECT id, name, description, account_type, opening_balance, created_at
		FROM accounts
		WHERE name = ?`, name))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query account by name: %w", err)
	}
	return account, nil
}

// sanitizeOpeningBalance zeroes the opening balance for non-debt accounts.
// Only loans and credit cards carry a starting amount owed; a checking or
// savings balance is always derived from its transactions.
func sanitizeOpeningBalance(account *model.Account) {
	if !account.IsDebt() {
		account.OpeningBalance = decimal.Zero
	}
}

// CreateAccount inserts a new account and fills in its ID and timestamp.
func (s *SQLiteStorage) CreateAccount(ctx context.Context, account *model.Account) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateAccount(account); err != nil {
		return err
	}
	sanitizeOpeningBalance(account)

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO accounts (name, description, account_type, opening_balance)
		VALUES (?, ?, ?, ?)`,
		account.Name, account.Description, account.Type, decimalToCents(account.OpeningBalance))
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("account %q: %w", account.Name, common.ErrDuplicateName)
		}
		return fmt.Errorf("failed to create account: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get account ID: %w", err)
	}
	account.ID = id

	created, err := s.GetAccountByID(ctx, id)
	if err != nil {
		return err
	}
	*account = *created

	slog.Info("created account", "name", account.Name, "id", id, "type", account.Type)
	return nil
}

// UpdateAccount persists changes to an existing account. Changing the account
// type is rejected once any transaction references the account, since the type
// decides how its balance is interpreted.
func (s *SQLiteStorage) UpdateAccount(ctx context.Context, account *model.Account) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateAccount(account); err != nil {
		return err
	}

	stored, err := s.GetAccountByID(ctx, account.ID)
	if err != nil {
		return err
	}
	if stored.Type != account.Type {
		has, err := s.AccountHasTransactions(ctx, account.ID)
		if err != nil {
			return err
		}
		if has {
			return fmt.Errorf("cannot change type of account %d: %w", account.ID, common.ErrAccountHasTransactions)
		}
	}
	sanitizeOpeningBalance(account)

	_, err = s.db.ExecContext(ctx, `
		UPDATE accounts
		SET name = ?, description = ?, account_type = ?, opening_balance = ?
		WHERE id = ?`,
		account.Name, account.Description, account.Type,
		decimalToCents(account.OpeningBalance), account.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("account %q: %w", account.Name, common.ErrDuplicateName)
		}
		return fmt.Errorf("failed to update account: %w", err)
	}
	return nil
}

// DeleteAccount removes an account. Accounts with any transaction history are
// refused with common.ErrAccountHasTransactions; deleting them would cascade
// away their ledger rows.
func (s *SQLiteStorage) DeleteAccount(ctx context.Context, id int64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	has, err := s.AccountHasTransactions(ctx, id)
	if err != nil {
		return err
	}
	if has {
		return fmt.Errorf("account %d: %w", id, common.ErrAccountHasTransactions)
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM accounts WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}
	return nil
}

// AccountHasTransactions reports whether any transaction references the account.
func (s *SQLiteStorage) AccountHasTransactions(ctx context.Context, id int64) (bool, error) {
	if err := validateContext(ctx); err != nil {
		return false, err
	}

	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM transactions WHERE account_id = ?`, id).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to count account transactions: %w", err)
	}
	return count > 0, nil
}

// isUniqueViolation reports whether err is a SQLite unique-constraint failure.
func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}

package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// ExpectedSchemaVersion is the latest schema version that the application
// expects. If the database cannot be migrated to this version, it's a fatal
// error.
const ExpectedSchemaVersion = 3

// Migration represents a database schema migration.
type Migration struct {
	Up          func(*sql.Tx) error
	Description string
	Version     int
}

var migrations = []Migration{
	{
		Version:     1,
		Description: "Initial schema",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS accounts (
					id              INTEGER PRIMARY KEY AUTOINCREMENT,
					name            TEXT NOT NULL UNIQUE,
					description     TEXT NOT NULL DEFAULT '',
					account_type    TEXT NOT NULL DEFAULT 'checking',
					opening_balance INTEGER NOT NULL DEFAULT 0,
					created_at      TEXT NOT NULL DEFAULT (datetime('now'))
				)`,

				`CREATE TABLE IF NOT EXISTS categories (
					id        INTEGER PRIMARY KEY AUTOINCREMENT,
					name      TEXT NOT NULL UNIQUE,
					type      TEXT NOT NULL CHECK(type IN ('income','expense','both')),
					color_hex TEXT NOT NULL DEFAULT '#888888',
					is_system INTEGER NOT NULL DEFAULT 0
				)`,

				`CREATE TABLE IF NOT EXISTS recurring_rules (
					id            INTEGER PRIMARY KEY AUTOINCREMENT,
					name          TEXT NOT NULL,
					type          TEXT NOT NULL CHECK(type IN ('income','expense')),
					amount        INTEGER NOT NULL CHECK(amount > 0),
					account_id    INTEGER NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
					category_id   INTEGER NOT NULL REFERENCES categories(id),
					description   TEXT NOT NULL DEFAULT '',
					frequency     TEXT NOT NULL,
					day_of_month  INTEGER,
					day_of_week   INTEGER,
					month_of_year INTEGER,
					start_date    TEXT NOT NULL,
					end_date      TEXT,
					is_active     INTEGER NOT NULL DEFAULT 1,
					last_applied  TEXT
				)`,

				`CREATE TABLE IF NOT EXISTS transactions (
					id                INTEGER PRIMARY KEY AUTOINCREMENT,
					account_id        INTEGER NOT NULL REFERENCES accounts(id) ON DELETE CASCADE,
					type              TEXT NOT NULL CHECK(type IN ('income','expense','transfer')),
					amount            INTEGER NOT NULL CHECK(amount > 0),
					category_id       INTEGER REFERENCES categories(id) ON DELETE RESTRICT,
					description       TEXT NOT NULL DEFAULT '',
					date              TEXT NOT NULL,
					cleared           INTEGER NOT NULL DEFAULT 0,
					transfer_pair_id  INTEGER,
					recurring_rule_id INTEGER REFERENCES recurring_rules(id) ON DELETE SET NULL,
					created_at        TEXT NOT NULL DEFAULT (datetime('now')),
					updated_at        TEXT NOT NULL DEFAULT (datetime('now'))
				)`,
				`CREATE INDEX IF NOT EXISTS idx_transactions_account_id ON transactions(account_id)`,
				`CREATE INDEX IF NOT EXISTS idx_transactions_date ON transactions(date)`,
				`CREATE INDEX IF NOT EXISTS idx_transactions_category_id ON transactions(category_id)`,
				`CREATE INDEX IF NOT EXISTS idx_transactions_transfer_pair ON transactions(transfer_pair_id)`,

				`CREATE TABLE IF NOT EXISTS budgets (
					id           INTEGER PRIMARY KEY AUTOINCREMENT,
					category_id  INTEGER NOT NULL REFERENCES categories(id) ON DELETE CASCADE,
					month        TEXT NOT NULL,
					limit_amount INTEGER NOT NULL CHECK(limit_amount >= 0),
					UNIQUE(category_id, month)
				)`,
				`CREATE INDEX IF NOT EXISTS idx_budgets_month ON budgets(month)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
	{
		Version:     2,
		Description: "Add app settings and dismissed reminders",
		Up: func(tx *sql.Tx) error {
			queries := []string{
				`CREATE TABLE IF NOT EXISTS app_settings (
					key   TEXT PRIMARY KEY,
					value TEXT NOT NULL
				)`,
				`CREATE TABLE IF NOT EXISTS dismissed_reminders (
					key     TEXT PRIMARY KEY,
					expires TEXT NOT NULL
				)`,
			}

			for _, query := range queries {
				if _, err := tx.Exec(query); err != nil {
					return fmt.Errorf("failed to execute query: %w", err)
				}
			}
			return nil
		},
	},
	{
		Version:     3,
		Description: "Seed default settings and system categories",
		Up: func(tx *sql.Tx) error {
			settings := [][2]string{
				{"currency_symbol", "$"},
				{"budget_alert_threshold", "0.80"},
				{"last_account_id", ""},
			}
			for _, kv := range settings {
				if _, err := tx.Exec(
					`INSERT OR IGNORE INTO app_settings(key, value) VALUES (?, ?)`,
					kv[0], kv[1],
				); err != nil {
					return fmt.Errorf("failed to seed setting %s: %w", kv[0], err)
				}
			}

			for _, cat := range defaultCategories {
				if _, err := tx.Exec(
					`INSERT OR IGNORE INTO categories(name, type, color_hex, is_system)
					 VALUES (?, ?, ?, 1)`,
					cat.name, cat.categoryType, cat.colorHex,
				); err != nil {
					return fmt.Errorf("failed to seed category %s: %w", cat.name, err)
				}
			}
			return nil
		},
	},
}

// defaultCategories are seeded once and flagged as system categories.
var defaultCategories = []struct {
	name         string
	categoryType string
	colorHex     string
}{
	{"Salary", "income", "#4CAF50"},
	{"Freelance", "income", "#8BC34A"},
	{"Food & Dining", "expense", "#FF9800"},
	{"Rent/Mortgage", "expense", "#F44336"},
	{"Utilities", "expense", "#9C27B0"},
	{"Transport", "expense", "#2196F3"},
	{"Healthcare", "expense", "#00BCD4"},
	{"Entertainment", "expense", "#FF5722"},
	{"Savings", "both", "#009688"},
	{"Other", "both", "#888888"},
}

// Migrate applies any pending schema migrations.
func (s *SQLiteStorage) Migrate(ctx context.Context) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	var currentVersion int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&currentVersion); err != nil {
		return fmt.Errorf("failed to get schema version: %w", err)
	}

	for _, migration := range migrations {
		if migration.Version <= currentVersion {
			continue
		}

		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to begin migration transaction: %w", err)
		}

		if err := migration.Up(tx); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migration %d (%s) failed: %w", migration.Version, migration.Description, err)
		}

		if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", migration.Version)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to set schema version %d: %w", migration.Version, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit migration %d: %w", migration.Version, err)
		}

		slog.Info("applied migration", "version", migration.Version, "description", migration.Description)
	}

	return nil
}

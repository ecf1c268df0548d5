package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// DBFileForYear returns the year-keyed database filename inside dir.
func DBFileForYear(dir string, year int) string {
	return filepath.Join(dir, fmt.Sprintf("pennybank_%d.db", year))
}

// OpenForCurrentYear opens (creating and migrating if needed) the database for
// the year containing now.
//
// Two best-effort startup chores run along the way and never fail the open:
// a one-time rename of a legacy un-keyed pennybank.db into its year-keyed
// name, and a budget carryover from the previous year's database when the
// current one has budgets for fewer than 12 months.
func OpenForCurrentYear(ctx context.Context, dir string, now time.Time) (*SQLiteStorage, error) {
	year := now.Year()
	currentPath := DBFileForYear(dir, year)
	prevPath := DBFileForYear(dir, year-1)
	legacyPath := filepath.Join(dir, "pennybank.db")

	if _, err := os.Stat(legacyPath); err == nil {
		if _, err := os.Stat(currentPath); os.IsNotExist(err) {
			if dest := migrateLegacyFile(legacyPath, dir, year); dest == prevPath {
				prevPath = dest
			}
		}
	}

	store, err := NewSQLiteStorage(currentPath)
	if err != nil {
		return nil, err
	}
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, err
	}

	if _, err := os.Stat(prevPath); err == nil {
		if err := store.carryOverBudgets(ctx, prevPath, year); err != nil {
			slog.Warn("budget carryover skipped", "error", err)
		}
	}

	return store, nil
}

// migrateLegacyFile renames an un-keyed database file into its year-keyed
// name, using MAX(date) in its transactions to pick the year. Returns the
// destination path, or "" when nothing moved.
func migrateLegacyFile(legacyPath, dir string, currentYear int) string {
	year := detectLegacyYear(legacyPath, currentYear)
	dest := DBFileForYear(dir, year)
	if _, err := os.Stat(dest); err == nil {
		return ""
	}
	if err := os.Rename(legacyPath, dest); err != nil {
		slog.Warn("legacy database rename skipped", "error", err)
		return ""
	}
	slog.Info("renamed legacy database", "from", legacyPath, "to", dest)
	return dest
}

func detectLegacyYear(legacyPath string, currentYear int) int {
	fallback := currentYear - 1

	db, err := sql.Open("sqlite3", legacyPath+"?mode=ro")
	if err != nil {
		return fallback
	}
	defer func() { _ = db.Close() }()

	var maxDate sql.NullString
	if err := db.QueryRow(`SELECT MAX(date) FROM transactions`).Scan(&maxDate); err != nil {
		return fallback
	}
	if !maxDate.Valid || len(maxDate.String) < 4 {
		return fallback
	}

	d, err := time.Parse("2006-01-02", maxDate.String)
	if err != nil {
		return fallback
	}
	return d.Year()
}

// carryOverBudgets copies budget limits from the previous year's database into
// all 12 months of currentYear. December of the previous year is the source
// month; when it has no budgets the latest budgeted month is used instead.
// Existing rows in the current database are overwritten.
func (s *SQLiteStorage) carryOverBudgets(ctx context.Context, prevPath string, currentYear int) error {
	prev, err := sql.Open("sqlite3", prevPath+"?mode=ro")
	if err != nil {
		return fmt.Errorf("failed to open previous year database: %w", err)
	}
	defer func() { _ = prev.Close() }()

	var monthCount int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(DISTINCT month) FROM budgets`).Scan(&monthCount); err != nil {
		return fmt.Errorf("failed to count budgeted months: %w", err)
	}
	if monthCount >= 12 {
		return nil
	}

	sourceMonth := fmt.Sprintf("%d-12", currentYear-1)
	limits, err := readBudgetLimits(ctx, prev, sourceMonth)
	if err != nil {
		return err
	}
	if len(limits) == 0 {
		var latest sql.NullString
		err := prev.QueryRowContext(ctx,
			`SELECT month FROM budgets ORDER BY month DESC LIMIT 1`).Scan(&latest)
		if err != nil || !latest.Valid {
			return nil
		}
		sourceMonth = latest.String
		if limits, err = readBudgetLimits(ctx, prev, sourceMonth); err != nil {
			return err
		}
	}
	if len(limits) == 0 {
		return nil
	}

	// Category ids are only stable across years for seeded categories; drop
	// rows whose category does not exist here so one stray id cannot abort
	// the whole copy.
	limits, err = s.filterKnownCategories(ctx, limits)
	if err != nil {
		return err
	}
	if len(limits) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin carryover transaction: %w", err)
	}
	for month := 1; month <= 12; month++ {
		monthStr := fmt.Sprintf("%d-%02d", currentYear, month)
		for _, limit := range limits {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO budgets (category_id, month, limit_amount)
				VALUES (?, ?, ?)
				ON CONFLICT(category_id, month)
				DO UPDATE SET limit_amount = excluded.limit_amount`,
				limit.categoryID, monthStr, limit.cents); err != nil {
				_ = tx.Rollback()
				return fmt.Errorf("failed to copy budget: %w", err)
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit carryover: %w", err)
	}

	slog.Info("carried over budgets",
		"source_month", sourceMonth, "categories", len(limits), "year", currentYear)
	return nil
}

func (s *SQLiteStorage) filterKnownCategories(ctx context.Context, limits []budgetLimit) ([]budgetLimit, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM categories`)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer func() { _ = rows.Close() }()

	known := make(map[int64]struct{})
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan category id: %w", err)
		}
		known[id] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	kept := limits[:0]
	for _, limit := range limits {
		if _, ok := known[limit.categoryID]; ok {
			kept = append(kept, limit)
		}
	}
	return kept, nil
}

type budgetLimit struct {
	categoryID int64
	cents      int64
}

func readBudgetLimits(ctx context.Context, db *sql.DB, month string) ([]budgetLimit, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT category_id, limit_amount FROM budgets WHERE month = ?`, month)
	if err != nil {
		return nil, fmt.Errorf("failed to read previous year budgets: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var limits []budgetLimit
	for rows.Next() {
		var limit budgetLimit
		if err := rows.Scan(&limit.categoryID, &limit.cents); err != nil {
			return nil, fmt.Errorf("failed to scan previous year budget: %w", err)
		}
		limits = append(limits, limit)
	}
	return limits, rows.Err()
}

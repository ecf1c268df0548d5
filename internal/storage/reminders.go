package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/pennybank/pennybank/internal/dateutil"
)

// DismissReminder records a dismissal key with its expiry date. A second
// dismissal of the same key replaces the old expiry.
func (s *SQLiteStorage) DismissReminder(ctx context.Context, key string, expires time.Time) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(key, "key"); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO dismissed_reminders (key, expires)
		VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET expires = excluded.expires`,
		key, dateutil.FormatDate(expires))
	if err != nil {
		return fmt.Errorf("failed to dismiss reminder: %w", err)
	}
	return nil
}

// ActiveDismissedKeys returns the dismissal keys still in force at ref.
// Expired rows are purged as a side effect so the table never accumulates.
func (s *SQLiteStorage) ActiveDismissedKeys(ctx context.Context, ref time.Time) (map[string]struct{}, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	refDay := dateutil.FormatDate(ref)
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM dismissed_reminders WHERE expires <= ?`, refDay); err != nil {
		return nil, fmt.Errorf("failed to purge expired dismissals: %w", err)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT key FROM dismissed_reminders WHERE expires > ?`, refDay)
	if err != nil {
		return nil, fmt.Errorf("failed to query dismissed reminders: %w", err)
	}
	defer func() { _ = rows.Close() }()

	keys := make(map[string]struct{})
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("failed to scan dismissal key: %w", err)
		}
		keys[key] = struct{}{}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating dismissal keys: %w", err)
	}
	return keys, nil
}

// UndismissReminder clears a dismissal so the reminder surfaces again.
func (s *SQLiteStorage) UndismissReminder(ctx context.Context, key string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(key, "key"); err != nil {
		return err
	}

	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM dismissed_reminders WHERE key = ?`, key); err != nil {
		return fmt.Errorf("failed to undismiss reminder: %w", err)
	}
	return nil
}

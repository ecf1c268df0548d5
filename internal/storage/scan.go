package storage

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pennybank/pennybank/internal/dateutil"
)

const timestampLayout = "2006-01-02 15:04:05"

// Amounts are persisted as integer cents so SQL aggregates stay exact and
// never drift through binary floats.

// centsToDecimal converts a stored cents column into a currency decimal.
func centsToDecimal(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}

// decimalToCents converts a currency decimal for storage, rounding to the
// nearest cent.
func decimalToCents(d decimal.Decimal) int64 {
	return d.Shift(2).Round(0).IntPart()
}

// parseTimestamp parses a datetime('now') column value.
func parseTimestamp(s string) (time.Time, error) {
	t, err := time.ParseInLocation(timestampLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse timestamp %q: %w", s, err)
	}
	return t, nil
}

// parseDay parses a stored YYYY-MM-DD calendar day.
func parseDay(s string) (time.Time, error) {
	return dateutil.ParseDate(s)
}

// parseNullableDay parses an optional calendar day column.
func parseNullableDay(s sql.NullString) (*time.Time, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	d, err := parseDay(s.String)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// nullableDay renders an optional calendar day for storage.
func nullableDay(d *time.Time) any {
	if d == nil {
		return nil
	}
	return dateutil.FormatDate(*d)
}

// nullableInt64 converts sql.NullInt64 to a pointer.
func nullableInt64(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	v := n.Int64
	return &v
}

// nullableInt converts sql.NullInt64 to an int pointer.
func nullableInt(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}

// int64Arg converts an optional id to a driver argument.
func int64Arg(v *int64) any {
	if v == nil {
		return nil
	}
	return *v
}

// intArg converts an optional int to a driver argument.
func intArg(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}

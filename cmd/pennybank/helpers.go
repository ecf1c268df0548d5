package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pennybank/pennybank/internal/config"
	"github.com/pennybank/pennybank/internal/dateutil"
	"github.com/pennybank/pennybank/internal/model"
	"github.com/pennybank/pennybank/internal/storage"
)

// initStorage opens this year's database, migrating and carrying over budgets
// as needed.
func initStorage(ctx context.Context) (*storage.SQLiteStorage, error) {
	settings, err := config.LoadSettings()
	if err != nil {
		return nil, err
	}
	return storage.OpenForCurrentYear(ctx, settings.DataDir, time.Now())
}

// parseID parses a positional ID argument.
func parseID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid ID %q", arg)
	}
	return id, nil
}

// parseAmount parses a positive dollar amount like "12.50".
func parseAmount(arg string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(strings.TrimPrefix(arg, "$"))
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid amount %q", arg)
	}
	if !amount.IsPositive() {
		return decimal.Zero, fmt.Errorf("amount must be positive, got %q", arg)
	}
	return amount, nil
}

// parseDateFlag parses a YYYY-MM-DD flag, defaulting to today when empty.
func parseDateFlag(arg string) (time.Time, error) {
	if arg == "" {
		return dateutil.Today(), nil
	}
	return dateutil.ParseDate(arg)
}

// resolveAccount looks an account up by numeric ID or by name.
func resolveAccount(ctx context.Context, store *storage.SQLiteStorage, arg string) (*model.Account, error) {
	if id, err := strconv.ParseInt(arg, 10, 64); err == nil {
		return store.GetAccountByID(ctx, id)
	}
	account, err := store.GetAccountByName(ctx, arg)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, fmt.Errorf("account %q not found", arg)
	}
	return account, nil
}

// resolveCategory looks a category up by numeric ID or by name.
func resolveCategory(ctx context.Context, store *storage.SQLiteStorage, arg string) (*model.Category, error) {
	if id, err := strconv.ParseInt(arg, 10, 64); err == nil {
		return store.GetCategoryByID(ctx, id)
	}
	categories, err := store.GetCategories(ctx)
	if err != nil {
		return nil, err
	}
	for i := range categories {
		if strings.EqualFold(categories[i].Name, arg) {
			return &categories[i], nil
		}
	}
	return nil, fmt.Errorf("category %q not found", arg)
}

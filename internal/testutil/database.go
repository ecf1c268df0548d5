// Package testutil provides shared test fixtures for packages that need a
// migrated database with a few accounts and categories already in place.
package testutil

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pennybank/pennybank/internal/dateutil"
	"github.com/pennybank/pennybank/internal/model"
	"github.com/pennybank/pennybank/internal/storage"
)

// TestDB is a migrated database seeded with one checking account and one
// income and expense category.
type TestDB struct {
	Storage  *storage.SQLiteStorage
	Checking *model.Account
	Income   *model.Category
	Expense  *model.Category
	t        *testing.T
}

// SetupTestDB creates a migrated test database with standard seed data.
// Cleanup is registered automatically.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()
	ctx := context.Background()

	store, err := storage.NewSQLiteStorage(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})

	db := &TestDB{Storage: store, t: t}

	db.Checking = &model.Account{Name: "Checking", Type: model.AccountTypeChecking}
	if err := store.CreateAccount(ctx, db.Checking); err != nil {
		t.Fatalf("failed to seed account: %v", err)
	}

	db.Income = &model.Category{Name: "Salary", Type: model.CategoryTypeIncome, ColorHex: "#00AA00"}
	if err := store.CreateCategory(ctx, db.Income); err != nil {
		t.Fatalf("failed to seed income category: %v", err)
	}

	db.Expense = &model.Category{Name: "Household", Type: model.CategoryTypeExpense, ColorHex: "#AA0000"}
	if err := store.CreateCategory(ctx, db.Expense); err != nil {
		t.Fatalf("failed to seed expense category: %v", err)
	}

	return db
}

// AddIncome records an income transaction on the seeded checking account.
func (db *TestDB) AddIncome(amount int64, date time.Time) *model.Transaction {
	return db.addTransaction(model.TransactionTypeIncome, db.Income.ID, amount, date)
}

// AddExpense records an expense transaction on the seeded checking account.
func (db *TestDB) AddExpense(amount int64, date time.Time) *model.Transaction {
	return db.addTransaction(model.TransactionTypeExpense, db.Expense.ID, amount, date)
}

func (db *TestDB) addTransaction(txType model.TransactionType, categoryID, amount int64, date time.Time) *model.Transaction {
	db.t.Helper()
	txn := &model.Transaction{
		AccountID:  db.Checking.ID,
		Type:       txType,
		Amount:     decimal.NewFromInt(amount),
		CategoryID: &categoryID,
		Date:       date,
	}
	if err := db.Storage.CreateTransaction(context.Background(), txn); err != nil {
		db.t.Fatalf("failed to seed transaction: %v", err)
	}
	return txn
}

// Day is a convenience wrapper over dateutil.Date.
func Day(year int, month time.Month, day int) time.Time {
	return dateutil.Date(year, month, day)
}

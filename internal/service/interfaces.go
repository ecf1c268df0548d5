// Package service defines the contracts between the core engines and the
// persistence layer.
package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pennybank/pennybank/internal/model"
)

// TransactionFilter narrows register queries for display. Filters never feed
// balance computation; running balances are always taken over full history.
type TransactionFilter struct {
	Month   string // YYYY-MM, empty for all months
	Type    model.TransactionType
	Cleared *bool
	Search  string
}

// MonthlyTotal is an income/expense aggregate for one month.
type MonthlyTotal struct {
	Month   string
	Income  decimal.Decimal
	Expense decimal.Decimal
}

// Net returns income minus expense.
func (t MonthlyTotal) Net() decimal.Decimal {
	return t.Income.Sub(t.Expense)
}

// CategoryExpense is one slice of an expense breakdown.
type CategoryExpense struct {
	Category string
	ColorHex string
	Total    decimal.Decimal
}

// Storage defines the contract for the persistence layer.
type Storage interface {
	// Account operations.
	GetAccounts(ctx context.Context) ([]model.Account, error)
	GetAccountByID(ctx context.Context, id int64) (*model.Account, error)
	GetAccountByName(ctx context.Context, name string) (*model.Account, error)
	CreateAccount(ctx context.Context, account *model.Account) error
	UpdateAccount(ctx context.Context, account *model.Account) error
	DeleteAccount(ctx context.Context, id int64) error
	AccountHasTransactions(ctx context.Context, id int64) (bool, error)

	// Category operations.
	GetCategories(ctx context.Context) ([]model.Category, error)
	GetCategoryByID(ctx context.Context, id int64) (*model.Category, error)
	GetCategoriesForTransactionType(ctx context.Context, txType model.TransactionType) ([]model.Category, error)
	CreateCategory(ctx context.Context, category *model.Category) error
	UpdateCategory(ctx context.Context, category *model.Category) error
	DeleteCategory(ctx context.Context, id int64) error

	// Transaction operations. Retrieval is ordered by (date, id) ascending.
	GetTransactionsByAccount(ctx context.Context, accountID int64, filter TransactionFilter) ([]model.Transaction, error)
	GetTransactionByID(ctx context.Context, id int64) (*model.Transaction, error)
	GetTransactionsByTransferPairIDs(ctx context.Context, pairIDs []int64) (map[int64][]model.Transaction, error)
	GetTransferPair(ctx context.Context, pairID int64) ([]model.Transaction, error)
	CreateTransaction(ctx context.Context, txn *model.Transaction) error
	UpdateTransaction(ctx context.Context, txn *model.Transaction) error
	SetTransactionCleared(ctx context.Context, id int64, cleared bool) error
	DeleteTransaction(ctx context.Context, id int64) error
	DeleteTransferPair(ctx context.Context, pairID int64) error

	// Transaction aggregates.
	BalancesAsOf(ctx context.Context, asOf *time.Time) (map[int64]decimal.Decimal, error)
	SpendingByCategory(ctx context.Context, month string) (map[int64]decimal.Decimal, error)
	TotalsForMonth(ctx context.Context, month string) (MonthlyTotal, error)
	TotalsByAccount(ctx context.Context, accountID int64, month string) (MonthlyTotal, error)
	MonthlyTotals(ctx context.Context, accountID *int64, months int) ([]MonthlyTotal, error)
	AvgMonthlyNonRecurring(ctx context.Context, accountID *int64, months int) (MonthlyTotal, error)
	ExpenseByCategory(ctx context.Context, month string, accountID *int64) ([]CategoryExpense, error)

	// Recurring rule operations.
	GetRecurringRules(ctx context.Context) ([]model.RecurringRule, error)
	GetActiveRecurringRules(ctx context.Context) ([]model.RecurringRule, error)
	GetRecurringRuleByID(ctx context.Context, id int64) (*model.RecurringRule, error)
	CreateRecurringRule(ctx context.Context, rule *model.RecurringRule) error
	UpdateRecurringRule(ctx context.Context, rule *model.RecurringRule) error
	SetRecurringRuleActive(ctx context.Context, id int64, active bool) error
	DeleteRecurringRule(ctx context.Context, id int64) error

	// Budget operations.
	GetBudgets(ctx context.Context) ([]model.Budget, error)
	GetBudgetsByMonth(ctx context.Context, month string) ([]model.Budget, error)
	GetBudgetByCategoryMonth(ctx context.Context, categoryID int64, month string) (*model.Budget, error)
	UpsertBudget(ctx context.Context, categoryID int64, month string, limit decimal.Decimal) (*model.Budget, error)
	DeleteBudget(ctx context.Context, id int64) error
	CopyBudgetMonth(ctx context.Context, fromMonth, toMonth string) (int, error)
	CountBudgetMonths(ctx context.Context) (int, error)

	// Dismissed reminder operations.
	DismissReminder(ctx context.Context, key string, expires time.Time) error
	ActiveDismissedKeys(ctx context.Context, ref time.Time) (map[string]struct{}, error)
	UndismissReminder(ctx context.Context, key string) error

	// Settings.
	GetSetting(ctx context.Context, key, fallback string) (string, error)
	SetSetting(ctx context.Context, key, value string) error

	// Database management.
	Migrate(ctx context.Context) error
	BeginTx(ctx context.Context) (Transaction, error)
	Close() error
}

// Transaction is an atomic write scope. Multi-statement mutations (transfer
// creation, catch-up application) run inside one so either all rows exist or
// none do.
type Transaction interface {
	Commit() error
	Rollback() error

	CreateTransaction(ctx context.Context, txn *model.Transaction) error
	UpdateRuleLastApplied(ctx context.Context, ruleID int64, lastApplied time.Time) error
	NextTransferPairID(ctx context.Context) (int64, error)
}

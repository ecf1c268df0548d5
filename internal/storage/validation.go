// Package storage provides the SQLite persistence layer for the ledger.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/pennybank/pennybank/internal/model"
)

// Validation errors.
var (
	ErrNilContext         = errors.New("context cannot be nil")
	ErrEmptyString        = errors.New("string parameter cannot be empty")
	ErrNilParameter       = errors.New("parameter cannot be nil")
	ErrInvalidAccount     = errors.New("invalid account")
	ErrInvalidCategory    = errors.New("invalid category")
	ErrInvalidTransaction = errors.New("invalid transaction")
	ErrInvalidRule        = errors.New("invalid recurring rule")
	ErrInvalidBudget      = errors.New("invalid budget")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateAccount validates a single account.
func validateAccount(account *model.Account) error {
	if account == nil {
		return fmt.Errorf("%w: account", ErrNilParameter)
	}
	if strings.TrimSpace(account.Name) == "" {
		return fmt.Errorf("%w: missing name", ErrInvalidAccount)
	}
	if !model.ValidAccountType(account.Type) {
		return fmt.Errorf("%w: unknown type %q", ErrInvalidAccount, account.Type)
	}
	if account.OpeningBalance.IsNegative() {
		return fmt.Errorf("%w: negative opening balance", ErrInvalidAccount)
	}
	return nil
}

// validateCategory validates a single category.
func validateCategory(category *model.Category) error {
	if category == nil {
		return fmt.Errorf("%w: category", ErrNilParameter)
	}
	if strings.TrimSpace(category.Name) == "" {
		return fmt.Errorf("%w: missing name", ErrInvalidCategory)
	}
	if !model.ValidCategoryType(category.Type) {
		return fmt.Errorf("%w: unknown type %q", ErrInvalidCategory, category.Type)
	}
	return nil
}

// validateTransaction validates a single transaction.
func validateTransaction(txn *model.Transaction) error {
	if txn == nil {
		return fmt.Errorf("%w: transaction", ErrNilParameter)
	}
	if txn.AccountID == 0 {
		return fmt.Errorf("%w: missing account ID", ErrInvalidTransaction)
	}
	if !model.ValidTransactionType(txn.Type) {
		return fmt.Errorf("%w: unknown type %q", ErrInvalidTransaction, txn.Type)
	}
	if !txn.Amount.IsPositive() {
		return fmt.Errorf("%w: amount must be positive", ErrInvalidTransaction)
	}
	if txn.Date.IsZero() {
		return fmt.Errorf("%w: missing date", ErrInvalidTransaction)
	}
	if txn.Type != model.TransactionTypeTransfer && txn.CategoryID == nil {
		return fmt.Errorf("%w: category required for %s", ErrInvalidTransaction, txn.Type)
	}
	return nil
}

// validateRule validates a single recurring rule.
func validateRule(rule *model.RecurringRule) error {
	if rule == nil {
		return fmt.Errorf("%w: rule", ErrNilParameter)
	}
	if strings.TrimSpace(rule.Name) == "" {
		return fmt.Errorf("%w: missing name", ErrInvalidRule)
	}
	if rule.Type != model.TransactionTypeIncome && rule.Type != model.TransactionTypeExpense {
		return fmt.Errorf("%w: type must be income or expense", ErrInvalidRule)
	}
	if !rule.Amount.IsPositive() {
		return fmt.Errorf("%w: amount must be positive", ErrInvalidRule)
	}
	if !model.ValidFrequency(rule.Frequency) {
		return fmt.Errorf("%w: unknown frequency %q", ErrInvalidRule, rule.Frequency)
	}
	if rule.StartDate.IsZero() {
		return fmt.Errorf("%w: missing start date", ErrInvalidRule)
	}
	if rule.DayOfMonth != nil && (*rule.DayOfMonth < 0 || *rule.DayOfMonth > 28) {
		return fmt.Errorf("%w: day of month must be 0-28", ErrInvalidRule)
	}
	if rule.DayOfWeek != nil && (*rule.DayOfWeek < 0 || *rule.DayOfWeek > 6) {
		return fmt.Errorf("%w: day of week must be 0-6", ErrInvalidRule)
	}
	if rule.MonthOfYear != nil && (*rule.MonthOfYear < 1 || *rule.MonthOfYear > 12) {
		return fmt.Errorf("%w: month of year must be 1-12", ErrInvalidRule)
	}
	return nil
}

package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType distinguishes the three kinds of ledger entries.
type TransactionType string

const (
	// TransactionTypeIncome credits the owning account.
	TransactionTypeIncome TransactionType = "income"
	// TransactionTypeExpense debits the owning account.
	TransactionTypeExpense TransactionType = "expense"
	// TransactionTypeTransfer is one leg of an inter-account movement.
	TransactionTypeTransfer TransactionType = "transfer"
)

// Transaction represents a single ledger row. A transfer between two accounts
// is stored as two rows sharing a TransferPairID; the row with the lower ID is
// the debit (outflow) leg.
type Transaction struct {
	CreatedAt       time.Time
	UpdatedAt       time.Time
	Date            time.Time
	Type            TransactionType
	Description     string
	CategoryName    string // joined display column, empty when not loaded
	Amount          decimal.Decimal
	ID              int64
	AccountID       int64
	CategoryID      *int64
	TransferPairID  *int64
	RecurringRuleID *int64
	Cleared         bool
}

// IsTransferLeg reports whether the transaction belongs to a transfer pair.
func (t *Transaction) IsTransferLeg() bool {
	return t.Type == TransactionTypeTransfer && t.TransferPairID != nil
}

// ValidTransactionType reports whether t is a known transaction type.
func ValidTransactionType(t TransactionType) bool {
	return t == TransactionTypeIncome || t == TransactionTypeExpense || t == TransactionTypeTransfer
}

package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountType classifies an account for balance and net-worth purposes.
type AccountType string

const (
	// AccountTypeChecking is a standard asset account.
	AccountTypeChecking AccountType = "checking"
	// AccountTypeSavings is a savings asset account.
	AccountTypeSavings AccountType = "savings"
	// AccountTypeLoan is a debt account tracking an amount owed.
	AccountTypeLoan AccountType = "loan"
	// AccountTypeCreditCard is a revolving debt account.
	AccountTypeCreditCard AccountType = "credit_card"
)

// AccountTypes lists every valid account type.
var AccountTypes = []AccountType{
	AccountTypeChecking,
	AccountTypeSavings,
	AccountTypeLoan,
	AccountTypeCreditCard,
}

// Account represents a ledger account.
type Account struct {
	CreatedAt      time.Time
	Name           string
	Description    string
	Type           AccountType
	OpeningBalance decimal.Decimal
	ID             int64
}

// IsDebt reports whether the account tracks an amount owed rather than
// an asset balance. Opening balance is only meaningful for debt accounts.
func (a *Account) IsDebt() bool {
	return a.Type == AccountTypeLoan || a.Type == AccountTypeCreditCard
}

// AmountOwed returns opening_balance minus the ledger balance, clamped to
// zero. The ledger balance of a debt account is payments minus charges.
func (a *Account) AmountOwed(balance decimal.Decimal) decimal.Decimal {
	owed := a.OpeningBalance.Sub(balance)
	if owed.IsNegative() {
		return decimal.Zero
	}
	return owed
}

// ValidAccountType reports whether t is one of the known account types.
func ValidAccountType(t AccountType) bool {
	for _, v := range AccountTypes {
		if t == v {
			return true
		}
	}
	return false
}

package model

// CategoryType indicates which transaction types a category may be used with.
type CategoryType string

const (
	// CategoryTypeIncome restricts a category to income transactions.
	CategoryTypeIncome CategoryType = "income"
	// CategoryTypeExpense restricts a category to expense transactions.
	CategoryTypeExpense CategoryType = "expense"
	// CategoryTypeBoth allows a category in either context.
	CategoryTypeBoth CategoryType = "both"
)

// Category represents a transaction category.
// System categories are seeded at first run and cannot be deleted.
type Category struct {
	Name     string
	Type     CategoryType
	ColorHex string
	ID       int64
	IsSystem bool
}

// AllowsTransactionType reports whether the category is valid for the given
// income or expense transaction type.
func (c *Category) AllowsTransactionType(t TransactionType) bool {
	switch t {
	case TransactionTypeIncome:
		return c.Type == CategoryTypeIncome || c.Type == CategoryTypeBoth
	case TransactionTypeExpense:
		return c.Type == CategoryTypeExpense || c.Type == CategoryTypeBoth
	default:
		return false
	}
}

// ValidCategoryType reports whether t is a known category type.
func ValidCategoryType(t CategoryType) bool {
	return t == CategoryTypeIncome || t == CategoryTypeExpense || t == CategoryTypeBoth
}

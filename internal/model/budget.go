package model

import "github.com/shopspring/decimal"

// Budget is a monthly spending limit for one category. Month is a YYYY-MM
// string; the pair (CategoryID, Month) is unique. SpentAmount is never stored,
// it is recomputed from the transaction ledger on read.
type Budget struct {
	Month        string
	CategoryName string // joined display column, empty when not loaded
	ColorHex     string
	LimitAmount  decimal.Decimal
	SpentAmount  decimal.Decimal
	ID           int64
	CategoryID   int64
}

// Percentage returns spent/limit, or 0 when the limit is not positive.
func (b *Budget) Percentage() float64 {
	if !b.LimitAmount.IsPositive() {
		return 0
	}
	pct, _ := b.SpentAmount.Div(b.LimitAmount).Float64()
	return pct
}

// Remaining returns limit minus spent, clamped to zero.
func (b *Budget) Remaining() decimal.Decimal {
	rem := b.LimitAmount.Sub(b.SpentAmount)
	if rem.IsNegative() {
		return decimal.Zero
	}
	return rem
}

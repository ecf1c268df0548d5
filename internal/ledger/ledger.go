// Package ledger computes running balances and manages transaction mutations,
// including atomic two-leg transfers.
package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pennybank/pennybank/internal/common"
	"github.com/pennybank/pennybank/internal/model"
	"github.com/pennybank/pennybank/internal/service"
)

// Entry pairs a transaction with the account balance after it posts.
type Entry struct {
	Transaction  model.Transaction
	BalanceAfter decimal.Decimal
}

// Service owns ledger reads and writes.
type Service struct {
	store service.Storage
}

// NewService creates a ledger service.
func NewService(store service.Storage) *Service {
	return &Service{store: store}
}

// isDebitLeg resolves a transfer leg's direction from its pair. The leg with
// the lower id is the debit; a lone leg (mid-deletion) is treated as debit.
// This is the single place the convention lives.
func isDebitLeg(txn *model.Transaction, pairs map[int64][]model.Transaction) bool {
	if txn.TransferPairID == nil {
		return true
	}
	legs := pairs[*txn.TransferPairID]
	if len(legs) != 2 {
		return true
	}
	debitID := legs[0].ID
	if legs[1].ID < debitID {
		debitID = legs[1].ID
	}
	return txn.ID == debitID
}

// signedAmount returns the balance contribution of one transaction.
func signedAmount(txn *model.Transaction, pairs map[int64][]model.Transaction) decimal.Decimal {
	switch txn.Type {
	case model.TransactionTypeIncome:
		return txn.Amount
	case model.TransactionTypeExpense:
		return txn.Amount.Neg()
	case model.TransactionTypeTransfer:
		if isDebitLeg(txn, pairs) {
			return txn.Amount.Neg()
		}
		return txn.Amount
	default:
		return decimal.Zero
	}
}

// WithRunningBalance returns the account's transactions matching filter, each
// paired with the running balance after it. The balance pass always covers
// the full unfiltered history so filtered views never show discontinuous
// totals.
func (s *Service) WithRunningBalance(ctx context.Context, accountID int64, filter service.TransactionFilter) ([]Entry, error) {
	all, err := s.store.GetTransactionsByAccount(ctx, accountID, service.TransactionFilter{})
	if err != nil {
		return nil, err
	}

	pairIDs := make(map[int64]struct{})
	for i := range all {
		if all[i].IsTransferLeg() {
			pairIDs[*all[i].TransferPairID] = struct{}{}
		}
	}
	ids := make([]int64, 0, len(pairIDs))
	for id := range pairIDs {
		ids = append(ids, id)
	}
	pairs, err := s.store.GetTransactionsByTransferPairIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	balance := decimal.Zero
	balanceAfter := make(map[int64]decimal.Decimal, len(all))
	for i := range all {
		balance = balance.Add(signedAmount(&all[i], pairs))
		balanceAfter[all[i].ID] = balance
	}

	filtered := all
	if filter != (service.TransactionFilter{}) {
		if filtered, err = s.store.GetTransactionsByAccount(ctx, accountID, filter); err != nil {
			return nil, err
		}
	}

	entries := make([]Entry, len(filtered))
	for i := range filtered {
		entries[i] = Entry{
			Transaction:  filtered[i],
			BalanceAfter: balanceAfter[filtered[i].ID],
		}
	}
	return entries, nil
}

// Balances returns every account's ledger balance, optionally restricted to
// transactions on or before asOf. Accounts without transactions are absent.
func (s *Service) Balances(ctx context.Context, asOf *time.Time) (map[int64]decimal.Decimal, error) {
	return s.store.BalancesAsOf(ctx, asOf)
}

// CreateTransaction records one income or expense entry after checking the
// category fits the transaction type.
func (s *Service) CreateTransaction(ctx context.Context, txn *model.Transaction) error {
	if txn.Type == model.TransactionTypeTransfer {
		return fmt.Errorf("%w: use CreateTransfer for transfers", common.ErrInvalidType)
	}
	if err := s.checkCategory(ctx, txn); err != nil {
		return err
	}
	return s.store.CreateTransaction(ctx, txn)
}

// UpdateTransaction persists edits to an income or expense entry.
func (s *Service) UpdateTransaction(ctx context.Context, txn *model.Transaction) error {
	if txn.Type == model.TransactionTypeTransfer {
		return fmt.Errorf("%w: transfer legs cannot be edited", common.ErrInvalidType)
	}
	if err := s.checkCategory(ctx, txn); err != nil {
		return err
	}
	return s.store.UpdateTransaction(ctx, txn)
}

func (s *Service) checkCategory(ctx context.Context, txn *model.Transaction) error {
	if txn.CategoryID == nil {
		return fmt.Errorf("%w: category required", common.ErrInvalidType)
	}
	category, err := s.store.GetCategoryByID(ctx, *txn.CategoryID)
	if err != nil {
		return err
	}
	if !category.AllowsTransactionType(txn.Type) {
		return common.NewUserError(
			fmt.Sprintf("category %q cannot be used for %s transactions", category.Name, txn.Type), nil)
	}
	return nil
}

// SetCleared toggles a transaction's cleared flag.
func (s *Service) SetCleared(ctx context.Context, id int64, cleared bool) error {
	return s.store.SetTransactionCleared(ctx, id, cleared)
}

// Delete removes a transaction. A transfer leg takes its partner with it so
// no dangling half-transfer persists.
func (s *Service) Delete(ctx context.Context, id int64) error {
	txn, err := s.store.GetTransactionByID(ctx, id)
	if err != nil {
		return err
	}
	if txn.IsTransferLeg() {
		return s.store.DeleteTransferPair(ctx, *txn.TransferPairID)
	}
	return s.store.DeleteTransaction(ctx, id)
}

// CreateTransfer atomically records both legs of a transfer from one account
// to another. The debit leg is inserted first so it takes the lower id.
func (s *Service) CreateTransfer(ctx context.Context, fromAccountID, toAccountID int64, amount decimal.Decimal, date time.Time, description string) (debit, credit *model.Transaction, err error) {
	if fromAccountID == toAccountID {
		return nil, nil, common.NewUserError("cannot transfer to the same account", nil)
	}
	if !amount.IsPositive() {
		return nil, nil, fmt.Errorf("%w: transfer amount must be positive", common.ErrInvalidAmount)
	}
	if date.IsZero() {
		return nil, nil, common.ErrInvalidDate
	}
	if _, err := s.store.GetAccountByID(ctx, fromAccountID); err != nil {
		return nil, nil, err
	}
	if _, err := s.store.GetAccountByID(ctx, toAccountID); err != nil {
		return nil, nil, err
	}

	tx, err := s.store.BeginTx(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to begin transfer: %w", err)
	}

	pairID, err := tx.NextTransferPairID(ctx)
	if err != nil {
		_ = tx.Rollback()
		return nil, nil, err
	}

	debit = &model.Transaction{
		AccountID:      fromAccountID,
		Type:           model.TransactionTypeTransfer,
		Amount:         amount,
		Description:    description,
		Date:           date,
		TransferPairID: &pairID,
	}
	credit = &model.Transaction{
		AccountID:      toAccountID,
		Type:           model.TransactionTypeTransfer,
		Amount:         amount,
		Description:    description,
		Date:           date,
		TransferPairID: &pairID,
	}

	if err := tx.CreateTransaction(ctx, debit); err != nil {
		_ = tx.Rollback()
		return nil, nil, fmt.Errorf("failed to create debit leg: %w", err)
	}
	if err := tx.CreateTransaction(ctx, credit); err != nil {
		_ = tx.Rollback()
		return nil, nil, fmt.Errorf("failed to create credit leg: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("failed to commit transfer: %w", err)
	}

	slog.Info("created transfer",
		"from", fromAccountID, "to", toAccountID,
		"amount", amount.StringFixed(2), "pair_id", pairID)
	return debit, credit, nil
}

// MonthTotals returns one account's income/expense/net for a month.
func (s *Service) MonthTotals(ctx context.Context, accountID int64, month string) (service.MonthlyTotal, error) {
	return s.store.TotalsByAccount(ctx, accountID, month)
}

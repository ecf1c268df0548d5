// Package networth aggregates account balances into asset/liability
// breakdowns and a monthly history.
package networth

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pennybank/pennybank/internal/dateutil"
	"github.com/pennybank/pennybank/internal/service"
)

// AssetLine is one asset account's contribution.
type AssetLine struct {
	Name    string
	Balance decimal.Decimal
}

// LiabilityLine is one debt account's contribution.
type LiabilityLine struct {
	Name       string
	AmountOwed decimal.Decimal
}

// Breakdown is a point-in-time net worth statement.
type Breakdown struct {
	AsOfMonth        string
	Assets           []AssetLine
	Liabilities      []LiabilityLine
	TotalAssets      decimal.Decimal
	TotalLiabilities decimal.Decimal
	NetWorth         decimal.Decimal
}

// HistoryPoint is net worth at the end of one month.
type HistoryPoint struct {
	Month    string
	NetWorth decimal.Decimal
}

// Service computes net worth figures.
type Service struct {
	store service.Storage
}

// NewService creates a net worth service.
func NewService(store service.Storage) *Service {
	return &Service{store: store}
}

// CurrentBreakdown returns the present split of assets and liabilities.
// Debt accounts contribute their amount owed (opening balance minus ledger
// balance, clamped to zero) as liabilities; everything else contributes its
// ledger balance as an asset.
func (s *Service) CurrentBreakdown(ctx context.Context) (*Breakdown, error) {
	accounts, err := s.store.GetAccounts(ctx)
	if err != nil {
		return nil, err
	}
	balances, err := s.store.BalancesAsOf(ctx, nil)
	if err != nil {
		return nil, err
	}

	breakdown := &Breakdown{
		AsOfMonth:        dateutil.FriendlyMonth(dateutil.CurrentMonth()),
		TotalAssets:      decimal.Zero,
		TotalLiabilities: decimal.Zero,
	}

	for i := range accounts {
		account := &accounts[i]
		balance := balances[account.ID]

		if account.IsDebt() {
			owed := account.AmountOwed(balance)
			breakdown.Liabilities = append(breakdown.Liabilities, LiabilityLine{
				Name:       account.Name,
				AmountOwed: owed,
			})
			breakdown.TotalLiabilities = breakdown.TotalLiabilities.Add(owed)
		} else {
			breakdown.Assets = append(breakdown.Assets, AssetLine{
				Name:    account.Name,
				Balance: balance,
			})
			breakdown.TotalAssets = breakdown.TotalAssets.Add(balance)
		}
	}

	breakdown.NetWorth = breakdown.TotalAssets.Sub(breakdown.TotalLiabilities)
	return breakdown, nil
}

// MonthlyHistory returns end-of-month net worth for the past months, oldest
// first, ending with the month containing now.
func (s *Service) MonthlyHistory(ctx context.Context, now time.Time, months int) ([]HistoryPoint, error) {
	accounts, err := s.store.GetAccounts(ctx)
	if err != nil {
		return nil, err
	}

	monthStart := dateutil.Date(now.Year(), now.Month(), 1)
	points := make([]HistoryPoint, 0, months)

	for i := months - 1; i >= 0; i-- {
		month := dateutil.FormatMonth(dateutil.AddMonths(monthStart, -i))
		_, monthEnd, err := dateutil.MonthRange(month)
		if err != nil {
			return nil, err
		}

		balances, err := s.store.BalancesAsOf(ctx, &monthEnd)
		if err != nil {
			return nil, err
		}

		net := decimal.Zero
		for j := range accounts {
			account := &accounts[j]
			balance := balances[account.ID]
			if account.IsDebt() {
				net = net.Sub(account.AmountOwed(balance))
			} else {
				net = net.Add(balance)
			}
		}

		points = append(points, HistoryPoint{Month: month, NetWorth: net})
	}
	return points, nil
}

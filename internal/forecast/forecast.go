// Package forecast projects future income and expense from recurring rules,
// budgets, and spending history.
package forecast

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pennybank/pennybank/internal/dateutil"
	"github.com/pennybank/pennybank/internal/model"
	"github.com/pennybank/pennybank/internal/recurring"
	"github.com/pennybank/pennybank/internal/service"
)

// Source selects what feeds the expense side of a forecast.
type Source int

const (
	// SourceRecurring projects from recurring rules alone.
	SourceRecurring Source = 1
	// SourceBudgets projects income from recurring rules and expenses from
	// budget limits, falling back to recurring expenses for unbudgeted months.
	SourceBudgets Source = 2
	// SourceHistory adds a 6-month trailing average of non-recurring
	// transactions on top of the recurring expenses.
	SourceHistory Source = 3
)

// historyMonths is the trailing window feeding SourceHistory.
const historyMonths = 6

// annualYears is how far the annual forecast extrapolates.
const annualYears = 10

// MonthRow is one month of projection.
type MonthRow struct {
	Month   string
	Income  decimal.Decimal
	Expense decimal.Decimal
}

// Net returns income minus expense.
func (r MonthRow) Net() decimal.Decimal {
	return r.Income.Sub(r.Expense)
}

// YearRow is one year of projection.
type YearRow struct {
	Income  decimal.Decimal
	Expense decimal.Decimal
	Year    int
}

// Net returns income minus expense.
func (r YearRow) Net() decimal.Decimal {
	return r.Income.Sub(r.Expense)
}

// Service computes forecasts.
type Service struct {
	store  service.Storage
	engine *recurring.Engine
}

// NewService creates a forecast service.
func NewService(store service.Storage, engine *recurring.Engine) *Service {
	return &Service{store: store, engine: engine}
}

// monthlyPeriods returns every month from the one containing now through
// December of next year.
func monthlyPeriods(now time.Time) []string {
	var months []string
	current := dateutil.Date(now.Year(), now.Month(), 1)
	last := dateutil.Date(now.Year()+1, time.December, 1)
	for !current.After(last) {
		months = append(months, dateutil.FormatMonth(current))
		current = current.AddDate(0, 1, 0)
	}
	return months
}

// Monthly projects each month from now through December of next year.
func (s *Service) Monthly(ctx context.Context, accountID *int64, source Source, now time.Time) ([]MonthRow, error) {
	var avgNonRecurring service.MonthlyTotal
	if source == SourceHistory {
		var err error
		avgNonRecurring, err = s.store.AvgMonthlyNonRecurring(ctx, accountID, historyMonths)
		if err != nil {
			return nil, err
		}
	}

	var rows []MonthRow
	for _, month := range monthlyPeriods(now) {
		start, end, err := dateutil.MonthRange(month)
		if err != nil {
			return nil, err
		}

		projected, err := s.engine.ProjectForPeriod(ctx, accountID, start, end)
		if err != nil {
			return nil, err
		}

		recIncome, recExpense := decimal.Zero, decimal.Zero
		for _, occ := range projected {
			switch occ.Type {
			case model.TransactionTypeIncome:
				recIncome = recIncome.Add(occ.Amount)
			case model.TransactionTypeExpense:
				recExpense = recExpense.Add(occ.Amount)
			}
		}

		row := MonthRow{Month: month, Income: recIncome, Expense: recExpense}
		switch source {
		case SourceBudgets:
			budgets, err := s.store.GetBudgetsByMonth(ctx, month)
			if err != nil {
				return nil, err
			}
			if len(budgets) > 0 {
				total := decimal.Zero
				for _, b := range budgets {
					total = total.Add(b.LimitAmount)
				}
				row.Expense = total
			}
		case SourceHistory:
			row.Expense = row.Expense.Add(avgNonRecurring.Expense)
		case SourceRecurring:
			// Recurring figures stand as computed.
		default:
			return nil, fmt.Errorf("unknown forecast source %d", source)
		}

		rows = append(rows, row)
	}
	return rows, nil
}

// Annual aggregates the monthly projection by calendar year and extrapolates
// a steady-state figure, scaled from the last 12 projected months, for years
// beyond the monthly horizon.
func (s *Service) Annual(ctx context.Context, accountID *int64, source Source, now time.Time) ([]YearRow, error) {
	monthly, err := s.Monthly(ctx, accountID, source, now)
	if err != nil {
		return nil, err
	}

	type totals struct{ income, expense decimal.Decimal }
	byYear := make(map[int]*totals)
	for _, row := range monthly {
		month, err := dateutil.ParseMonth(row.Month)
		if err != nil {
			return nil, err
		}
		year := month.Year()
		if byYear[year] == nil {
			byYear[year] = &totals{income: decimal.Zero, expense: decimal.Zero}
		}
		byYear[year].income = byYear[year].income.Add(row.Income)
		byYear[year].expense = byYear[year].expense.Add(row.Expense)
	}

	last12 := monthly
	if len(last12) > 12 {
		last12 = last12[len(last12)-12:]
	}
	steadyIncome, steadyExpense := decimal.Zero, decimal.Zero
	for _, row := range last12 {
		steadyIncome = steadyIncome.Add(row.Income)
		steadyExpense = steadyExpense.Add(row.Expense)
	}
	if n := len(last12); n > 0 && n < 12 {
		scale := decimal.NewFromInt(12).Div(decimal.NewFromInt(int64(n)))
		steadyIncome = steadyIncome.Mul(scale).Round(2)
		steadyExpense = steadyExpense.Mul(scale).Round(2)
	}

	rows := make([]YearRow, 0, annualYears)
	for i := 0; i < annualYears; i++ {
		year := now.Year() + i
		row := YearRow{Year: year, Income: steadyIncome, Expense: steadyExpense}
		if computed, ok := byYear[year]; ok {
			row.Income = computed.income
			row.Expense = computed.expense
		}
		rows = append(rows, row)
	}
	return rows, nil
}

package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/pennybank/pennybank/internal/cli"
	"github.com/pennybank/pennybank/internal/dateutil"
	"github.com/pennybank/pennybank/internal/report"
)

func reportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Summarize spending",
	}

	cmd.AddCommand(reportSummaryCmd())
	cmd.AddCommand(reportChartCmd())
	cmd.AddCommand(reportCategoriesCmd())

	return cmd
}

func reportSummaryCmd() *cobra.Command {
	var (
		month   string
		account string
	)

	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Show one month's income, expense, and net",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			var accountID *int64
			if account != "" {
				acct, err := resolveAccount(ctx, store, account)
				if err != nil {
					return fmt.Errorf("failed to find account %q: %w", account, err)
				}
				accountID = &acct.ID
			}

			total, err := report.NewService(store).Summary(ctx, month, accountID)
			if err != nil {
				return fmt.Errorf("failed to compute summary: %w", err)
			}

			fmt.Println(cli.FormatTitle("Summary for " + dateutil.FriendlyMonth(total.Month)))
			fmt.Printf("  Income:  %s\n", cli.FormatPlainAmount(total.Income))
			fmt.Printf("  Expense: %s\n", cli.FormatPlainAmount(total.Expense))
			fmt.Printf("  Net:     %s\n", cli.FormatAmount(total.Net()))
			return nil
		},
	}

	cmd.Flags().StringVar(&month, "month", "", "month as YYYY-MM (default: current month)")
	cmd.Flags().StringVar(&account, "account", "", "limit to one account by name or ID")

	return cmd
}

func reportChartCmd() *cobra.Command {
	var (
		months  int
		account string
	)

	cmd := &cobra.Command{
		Use:   "chart",
		Short: "Show income vs expense over recent months",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			var accountID *int64
			if account != "" {
				acct, err := resolveAccount(ctx, store, account)
				if err != nil {
					return fmt.Errorf("failed to find account %q: %w", account, err)
				}
				accountID = &acct.ID
			}

			rows, err := report.NewService(store).MonthlyChart(ctx, accountID, months)
			if err != nil {
				return fmt.Errorf("failed to compute chart: %w", err)
			}
			if len(rows) == 0 {
				fmt.Println(cli.InfoStyle.Render("No transactions yet."))
				return nil
			}

			// Scale bars against the largest monthly figure.
			max := decimal.Zero
			for _, row := range rows {
				if row.Income.GreaterThan(max) {
					max = row.Income
				}
				if row.Expense.GreaterThan(max) {
					max = row.Expense
				}
			}

			fmt.Println(cli.FormatTitle("Income vs expense"))
			for _, row := range rows {
				fmt.Printf("%s\n", cli.BoldStyle.Render(dateutil.FriendlyMonth(row.Month)))
				fmt.Printf("  %s %s\n", bar(row.Income, max, cli.PositiveStyle), cli.FormatPlainAmount(row.Income))
				fmt.Printf("  %s %s\n", bar(row.Expense, max, cli.NegativeStyle), cli.FormatPlainAmount(row.Expense))
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&months, "months", 6, "how many months back to chart")
	cmd.Flags().StringVar(&account, "account", "", "limit to one account by name or ID")

	return cmd
}

// bar renders a proportional bar up to 40 characters wide.
func bar(value, max decimal.Decimal, style lipgloss.Style) string {
	const width = 40
	if max.IsZero() || !value.IsPositive() {
		return style.Render("·")
	}
	n := int(value.Div(max).Mul(decimal.NewFromInt(width)).IntPart())
	if n < 1 {
		n = 1
	}
	return style.Render(strings.Repeat("█", n))
}

func reportCategoriesCmd() *cobra.Command {
	var (
		month   string
		account string
	)

	cmd := &cobra.Command{
		Use:   "categories",
		Short: "Break one month's expenses down by category",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			var accountID *int64
			if account != "" {
				acct, err := resolveAccount(ctx, store, account)
				if err != nil {
					return fmt.Errorf("failed to find account %q: %w", account, err)
				}
				accountID = &acct.ID
			}

			rows, err := report.NewService(store).CategoryBreakdown(ctx, month, accountID)
			if err != nil {
				return fmt.Errorf("failed to compute breakdown: %w", err)
			}
			if len(rows) == 0 {
				fmt.Println(cli.InfoStyle.Render("No expenses in that month."))
				return nil
			}

			shown := month
			if shown == "" {
				shown = dateutil.CurrentMonth()
			}
			fmt.Println(cli.FormatTitle("Expenses for " + dateutil.FriendlyMonth(shown)))

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			defer func() { _ = w.Flush() }()

			total := decimal.Zero
			for _, row := range rows {
				total = total.Add(row.Total)
			}
			for _, row := range rows {
				swatch := lipgloss.NewStyle().Foreground(lipgloss.Color(row.ColorHex)).Render("■")
				pct := decimal.Zero
				if total.IsPositive() {
					pct = row.Total.Div(total).Mul(decimal.NewFromInt(100)).Round(0)
				}
				fmt.Fprintf(w, "%s %s\t%s\t%s%%\n",
					swatch, row.Category, cli.FormatPlainAmount(row.Total), pct)
			}
			fmt.Fprintf(w, "  %s\t%s\t\n", cli.BoldStyle.Render("Total"), cli.FormatPlainAmount(total))
			return nil
		},
	}

	cmd.Flags().StringVar(&month, "month", "", "month as YYYY-MM (default: current month)")
	cmd.Flags().StringVar(&account, "account", "", "limit to one account by name or ID")

	return cmd
}

package main

import (
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/pennybank/pennybank/internal/cli"
	"github.com/pennybank/pennybank/internal/dateutil"
	"github.com/pennybank/pennybank/internal/forecast"
	"github.com/pennybank/pennybank/internal/recurring"
)

func forecastCmd() *cobra.Command {
	var (
		source  int
		account string
		annual  bool
	)

	cmd := &cobra.Command{
		Use:   "forecast",
		Short: "Project future income and expenses",
		Long: `Project cash flow from now through December of next year, or per year for
the next decade with --annual.

Sources:
  1  recurring rules only
  2  recurring income, budget limits for expenses
  3  recurring rules plus a trailing average of non-recurring spending`,
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

			svc := forecast.NewService(store, recurring.NewEngine(store))
			now := dateutil.Today()

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			defer func() { _ = w.Flush() }()

			headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))

			if annual {
				rows, err := svc.Annual(ctx, accountID, forecast.Source(source), now)
				if err != nil {
					return fmt.Errorf("failed to compute forecast: %w", err)
				}

				fmt.Println(cli.FormatTitle("Annual forecast"))
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
					headerStyle.Render("Year"),
					headerStyle.Render("Income"),
					headerStyle.Render("Expense"),
					headerStyle.Render("Net"))
				for _, row := range rows {
					fmt.Fprintf(w, "%d\t%s\t%s\t%s\n",
						row.Year,
						cli.FormatPlainAmount(row.Income),
						cli.FormatPlainAmount(row.Expense),
						cli.FormatAmount(row.Net()))
				}
				return nil
			}

			rows, err := svc.Monthly(ctx, accountID, forecast.Source(source), now)
			if err != nil {
				return fmt.Errorf("failed to compute forecast: %w", err)
			}

			fmt.Println(cli.FormatTitle("Monthly forecast"))
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
				headerStyle.Render("Month"),
				headerStyle.Render("Income"),
				headerStyle.Render("Expense"),
				headerStyle.Render("Net"))
			for _, row := range rows {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
					dateutil.FriendlyMonth(row.Month),
					cli.FormatPlainAmount(row.Income),
					cli.FormatPlainAmount(row.Expense),
					cli.FormatAmount(row.Net()))
			}

			return nil
		},
	}

	cmd.Flags().IntVar(&source, "source", int(forecast.SourceRecurring), "forecast source ("+
		strconv.Itoa(int(forecast.SourceRecurring))+"-"+strconv.Itoa(int(forecast.SourceHistory))+")")
	cmd.Flags().StringVar(&account, "account", "", "limit to one account by name or ID")
	cmd.Flags().BoolVar(&annual, "annual", false, "show a 10-year annual projection")

	return cmd
}

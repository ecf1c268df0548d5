package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/pennybank/pennybank/internal/cli"
	"github.com/pennybank/pennybank/internal/dateutil"
	"github.com/pennybank/pennybank/internal/networth"
)

func networthCmd() *cobra.Command {
	var history int

	cmd := &cobra.Command{
		Use:   "networth",
		Short: "Show assets, liabilities, and net worth",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			svc := networth.NewService(store)

			if history > 0 {
				points, err := svc.MonthlyHistory(ctx, dateutil.Today(), history)
				if err != nil {
					return fmt.Errorf("failed to compute history: %w", err)
				}

				fmt.Println(cli.FormatTitle("Net worth history"))
				w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
				defer func() { _ = w.Flush() }()
				for _, point := range points {
					fmt.Fprintf(w, "%s\t%s\n",
						dateutil.FriendlyMonth(point.Month),
						cli.FormatAmount(point.NetWorth))
				}
				return nil
			}

			breakdown, err := svc.CurrentBreakdown(ctx)
			if err != nil {
				return fmt.Errorf("failed to compute net worth: %w", err)
			}

			fmt.Println(cli.FormatTitle("Net worth as of " + breakdown.AsOfMonth))

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			defer func() { _ = w.Flush() }()

			headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))

			if len(breakdown.Assets) > 0 {
				fmt.Fprintln(w, headerStyle.Render("Assets"))
				for _, line := range breakdown.Assets {
					fmt.Fprintf(w, "  %s\t%s\n", line.Name, cli.FormatPlainAmount(line.Balance))
				}
				fmt.Fprintf(w, "  %s\t%s\n", cli.BoldStyle.Render("Total"), cli.FormatPlainAmount(breakdown.TotalAssets))
			}
			if len(breakdown.Liabilities) > 0 {
				fmt.Fprintln(w, headerStyle.Render("Liabilities"))
				for _, line := range breakdown.Liabilities {
					fmt.Fprintf(w, "  %s\t%s\n", line.Name, cli.FormatPlainAmount(line.AmountOwed))
				}
				fmt.Fprintf(w, "  %s\t%s\n", cli.BoldStyle.Render("Total"), cli.FormatPlainAmount(breakdown.TotalLiabilities))
			}

			fmt.Fprintf(w, "%s\t%s\n", cli.BoldStyle.Render("Net worth"), cli.FormatAmount(breakdown.NetWorth))
			return nil
		},
	}

	cmd.Flags().IntVar(&history, "history", 0, "show end-of-month net worth for the past N months instead")

	return cmd
}

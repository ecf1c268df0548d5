package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/pennybank/pennybank/internal/budget"
	"github.com/pennybank/pennybank/internal/cli"
	"github.com/pennybank/pennybank/internal/dateutil"
)

func budgetsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "budgets",
		Short: "Manage monthly budgets",
		Long:  `Set spending limits per category and track how much of each is used.`,
	}

	cmd.AddCommand(budgetStatusCmd())
	cmd.AddCommand(budgetSetCmd())
	cmd.AddCommand(budgetCopyCmd())
	cmd.AddCommand(budgetDeleteCmd())

	return cmd
}

func budgetStatusCmd() *cobra.Command {
	var month string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show budget usage for a month",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			budgets, err := budget.NewService(store).Status(ctx, month)
			if err != nil {
				return fmt.Errorf("failed to get budget status: %w", err)
			}
			if len(budgets) == 0 {
				fmt.Println(cli.InfoStyle.Render("No budgets set. Use 'pennybank budgets set' to create one."))
				return nil
			}

			shown := month
			if shown == "" {
				shown = dateutil.CurrentMonth()
			}
			fmt.Println(cli.FormatTitle("Budgets for " + dateutil.FriendlyMonth(shown)))

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			defer func() { _ = w.Flush() }()

			headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
				headerStyle.Render("Category"),
				headerStyle.Render("Limit"),
				headerStyle.Render("Spent"),
				headerStyle.Render("Remaining"),
				headerStyle.Render("Used"))

			for _, b := range budgets {
				used := fmt.Sprintf("%.0f%%", b.Percentage()*100)
				switch {
				case b.Percentage() >= 1.0:
					used = cli.ErrorStyle.Render(used)
				case b.Percentage() >= 0.8:
					used = cli.WarningStyle.Render(used)
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					b.CategoryName,
					cli.FormatPlainAmount(b.LimitAmount),
					cli.FormatPlainAmount(b.SpentAmount),
					cli.FormatPlainAmount(b.Remaining()),
					used)
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&month, "month", "", "month as YYYY-MM (default: current month)")

	return cmd
}

func budgetSetCmd() *cobra.Command {
	var month string

	cmd := &cobra.Command{
		Use:   "set <category> <limit>",
		Short: "Set a category's monthly limit",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			category, err := resolveCategory(ctx, store, args[0])
			if err != nil {
				return err
			}
			limit, err := parseAmount(args[1])
			if err != nil {
				return err
			}
			if month == "" {
				month = dateutil.CurrentMonth()
			}

			b, err := budget.NewService(store).Set(ctx, category.ID, month, limit)
			if err != nil {
				return fmt.Errorf("failed to set budget: %w", err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Budget for %q in %s set to %s",
				category.Name, month, cli.FormatPlainAmount(b.LimitAmount))))
			return nil
		},
	}

	cmd.Flags().StringVar(&month, "month", "", "month as YYYY-MM (default: current month)")

	return cmd
}

func budgetCopyCmd() *cobra.Command {
	var month string

	cmd := &cobra.Command{
		Use:   "copy",
		Short: "Copy the previous month's budgets forward",
		Long:  `Copy every budget from the previous month into the target month. Categories already budgeted in the target month are left alone.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if month == "" {
				month = dateutil.CurrentMonth()
			}

			copied, err := budget.NewService(store).CopyFromPreviousMonth(ctx, month)
			if err != nil {
				return fmt.Errorf("failed to copy budgets: %w", err)
			}
			if copied == 0 {
				fmt.Println(cli.InfoStyle.Render("Nothing to copy."))
				return nil
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Copied %d budget(s) into %s", copied, month)))
			return nil
		},
	}

	cmd.Flags().StringVar(&month, "month", "", "target month as YYYY-MM (default: current month)")

	return cmd
}

func budgetDeleteCmd() *cobra.Command {
	var month string

	cmd := &cobra.Command{
		Use:   "delete <category>",
		Short: "Remove a category's budget for a month",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			category, err := resolveCategory(ctx, store, args[0])
			if err != nil {
				return err
			}
			if month == "" {
				month = dateutil.CurrentMonth()
			}

			b, err := store.GetBudgetByCategoryMonth(ctx, category.ID, month)
			if err != nil {
				return fmt.Errorf("failed to look up budget: %w", err)
			}
			if b == nil {
				return fmt.Errorf("no budget for %q in %s", category.Name, month)
			}

			if err := budget.NewService(store).Delete(ctx, b.ID); err != nil {
				return fmt.Errorf("failed to delete budget: %w", err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Deleted budget for %q in %s", category.Name, month)))
			return nil
		},
	}

	cmd.Flags().StringVar(&month, "month", "", "month as YYYY-MM (default: current month)")

	return cmd
}

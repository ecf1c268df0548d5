package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/pennybank/pennybank/internal/cli"
	"github.com/pennybank/pennybank/internal/dateutil"
	"github.com/pennybank/pennybank/internal/model"
	"github.com/pennybank/pennybank/internal/recurring"
)

func recurringCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recurring",
		Short: "Manage recurring rules",
		Long:  `Define repeating bills and paychecks, and apply the transactions they generate.`,
	}

	cmd.AddCommand(listRecurringCmd())
	cmd.AddCommand(addRecurringCmd())
	cmd.AddCommand(applyRecurringCmd())
	cmd.AddCommand(nextRecurringCmd())
	cmd.AddCommand(setRecurringActiveCmd("enable", true))
	cmd.AddCommand(setRecurringActiveCmd("disable", false))
	cmd.AddCommand(deleteRecurringCmd())

	return cmd
}

func listRecurringCmd() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recurring rules with their next due dates",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			var rules []model.RecurringRule
			if all {
				rules, err = store.GetRecurringRules(ctx)
			} else {
				rules, err = store.GetActiveRecurringRules(ctx)
			}
			if err != nil {
				return fmt.Errorf("failed to get recurring rules: %w", err)
			}
			if len(rules) == 0 {
				fmt.Println(cli.InfoStyle.Render("No recurring rules found. Use 'pennybank recurring add' to create one."))
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			defer func() { _ = w.Flush() }()

			headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
				headerStyle.Render("ID"),
				headerStyle.Render("Name"),
				headerStyle.Render("Type"),
				headerStyle.Render("Amount"),
				headerStyle.Render("Frequency"),
				headerStyle.Render("Account"),
				headerStyle.Render("Next due"))

			today := dateutil.Today()
			for i := range rules {
				rule := &rules[i]
				nextDue := "-"
				if rule.IsActive {
					if due := recurring.NextDueDate(rule, today.AddDate(0, 0, -1)); due != nil {
						nextDue = dateutil.FormatDate(*due)
					}
				} else {
					nextDue = cli.SubtleStyle.Render("(disabled)")
				}
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
					rule.ID, rule.Name, rule.Type,
					cli.FormatPlainAmount(rule.Amount),
					rule.Frequency, rule.AccountName, nextDue)
			}

			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "include disabled rules")

	return cmd
}

func addRecurringCmd() *cobra.Command {
	var (
		txType      string
		account     string
		category    string
		frequency   string
		start       string
		end         string
		dayOfMonth  int
		dayOfWeek   int
		monthOfYear int
	)

	cmd := &cobra.Command{
		Use:   "add <name> <amount>",
		Short: "Add a recurring rule",
		Long: `Create a repeating income or expense. Monthly rules take --day (1-28, or 0
for the last day of the month); week-based rules take --weekday (0=Monday);
yearly rules take --month and --day.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			amount, err := parseAmount(args[1])
			if err != nil {
				return err
			}
			acct, err := resolveAccount(ctx, store, account)
			if err != nil {
				return fmt.Errorf("failed to find account %q: %w", account, err)
			}
			cat, err := resolveCategory(ctx, store, category)
			if err != nil {
				return err
			}
			startDate, err := parseDateFlag(start)
			if err != nil {
				return err
			}

			rule := &model.RecurringRule{
				Name:       args[0],
				Type:       model.TransactionType(txType),
				Amount:     amount,
				AccountID:  acct.ID,
				CategoryID: cat.ID,
				Frequency:  model.Frequency(frequency),
				StartDate:  startDate,
				IsActive:   true,
			}
			if end != "" {
				endDate, err := dateutil.ParseDate(end)
				if err != nil {
					return err
				}
				rule.EndDate = &endDate
			}
			if cmd.Flags().Changed("day") {
				rule.DayOfMonth = &dayOfMonth
			}
			if cmd.Flags().Changed("weekday") {
				rule.DayOfWeek = &dayOfWeek
			}
			if cmd.Flags().Changed("month") {
				rule.MonthOfYear = &monthOfYear
			}

			if err := store.CreateRecurringRule(ctx, rule); err != nil {
				return fmt.Errorf("failed to create recurring rule: %w", err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Created recurring rule %q (ID: %d)", rule.Name, rule.ID)))
			return nil
		},
	}

	cmd.Flags().StringVar(&txType, "type", "expense", "rule type (income, expense)")
	cmd.Flags().StringVar(&account, "account", "", "account name or ID (required)")
	cmd.Flags().StringVar(&category, "category", "", "category name or ID (required)")
	cmd.Flags().StringVar(&frequency, "frequency", "monthly", `frequency (monthly, weekly, "every 2 weeks", "every 3 weeks", "every 4 weeks", yearly)`)
	cmd.Flags().StringVar(&start, "start", "", "first date the rule applies (default: today)")
	cmd.Flags().StringVar(&end, "end", "", "last date the rule applies")
	cmd.Flags().IntVar(&dayOfMonth, "day", 1, "day of month (0 = last day)")
	cmd.Flags().IntVar(&dayOfWeek, "weekday", 0, "day of week (0=Monday .. 6=Sunday)")
	cmd.Flags().IntVar(&monthOfYear, "month", 1, "month of year for yearly rules (1-12)")
	_ = cmd.MarkFlagRequired("account")
	_ = cmd.MarkFlagRequired("category")

	return cmd
}

func applyRecurringCmd() *cobra.Command {
	var asOf string

	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Generate transactions for rules that have come due",
		Long: `Catch up every active rule: occurrences due within the last 90 days that
have not yet been materialized become real transactions. Running apply twice
is safe; already-applied occurrences never repeat.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			handler := cli.NewInterruptHandler(nil)
			ctx := handler.HandleInterrupts(cmd.Context(), true)

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			ref, err := parseDateFlag(asOf)
			if err != nil {
				return err
			}

			created, err := recurring.NewEngine(store).ApplyDueRules(ctx, ref)
			if err != nil {
				return fmt.Errorf("failed to apply recurring rules: %w", err)
			}
			if len(created) == 0 {
				fmt.Println(cli.InfoStyle.Render("Everything is up to date."))
				return nil
			}

			for _, txn := range created {
				fmt.Printf("  %s %s %s %s\n",
					cli.SuccessIcon,
					dateutil.FormatDate(txn.Date),
					cli.FormatPlainAmount(txn.Amount),
					txn.Description)
			}
			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Applied %d transaction(s)", len(created))))
			return nil
		},
	}

	cmd.Flags().StringVar(&asOf, "as-of", "", "apply as of this date instead of today")

	return cmd
}

func nextRecurringCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "next <id>",
		Short: "Show when a rule fires next",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			rule, err := store.GetRecurringRuleByID(ctx, id)
			if err != nil {
				return fmt.Errorf("failed to get rule: %w", err)
			}

			due := recurring.NextDueDate(rule, dateutil.Today().AddDate(0, 0, -1))
			if due == nil {
				fmt.Println(cli.InfoStyle.Render(fmt.Sprintf("%q has no upcoming occurrences.", rule.Name)))
				return nil
			}

			fmt.Printf("%s %s is next due on %s\n",
				cli.CalendarIcon, rule.Name, cli.BoldStyle.Render(dateutil.FormatDate(*due)))
			return nil
		},
	}
}

func setRecurringActiveCmd(verb string, active bool) *cobra.Command {
	return &cobra.Command{
		Use:   verb + " <id>",
		Short: strings.ToUpper(verb[:1]) + verb[1:] + " a recurring rule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.SetRecurringRuleActive(ctx, id, active); err != nil {
				return fmt.Errorf("failed to %s rule: %w", verb, err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Rule %d %sd", id, verb)))
			return nil
		},
	}
}

func deleteRecurringCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a recurring rule",
		Long:  `Delete a rule. Transactions it already generated are kept.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if !force {
				ok, err := cli.NewPrompter(nil, nil).Confirm(ctx, fmt.Sprintf("Are you sure you want to delete rule %d?", id))
				if err != nil {
					return err
				}
				if !ok {
					fmt.Println("Deletion cancelled.")
					return nil
				}
			}

			if err := store.DeleteRecurringRule(ctx, id); err != nil {
				return fmt.Errorf("failed to delete rule: %w", err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Deleted rule %d", id)))
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "skip confirmation prompt")

	return cmd
}

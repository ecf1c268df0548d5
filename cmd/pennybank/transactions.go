package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/pennybank/pennybank/internal/cli"
	"github.com/pennybank/pennybank/internal/dateutil"
	"github.com/pennybank/pennybank/internal/ledger"
	"github.com/pennybank/pennybank/internal/model"
	"github.com/pennybank/pennybank/internal/service"
)

func transactionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "transactions",
		Aliases: []string{"tx"},
		Short:   "Manage transactions",
		Long:    `Record, list, edit, and delete the transactions in an account's register.`,
	}

	cmd.AddCommand(listTransactionsCmd())
	cmd.AddCommand(addTransactionCmd())
	cmd.AddCommand(editTransactionCmd())
	cmd.AddCommand(clearTransactionCmd())
	cmd.AddCommand(deleteTransactionCmd())

	return cmd
}

func listTransactionsCmd() *cobra.Command {
	var (
		month   string
		txType  string
		search  string
		cleared string
	)

	cmd := &cobra.Command{
		Use:   "list <account>",
		Short: "Show an account's register with running balances",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			account, err := resolveAccount(ctx, store, args[0])
			if err != nil {
				return fmt.Errorf("failed to find account %q: %w", args[0], err)
			}

			filter := service.TransactionFilter{
				Month:  month,
				Type:   model.TransactionType(txType),
				Search: search,
			}
			switch cleared {
			case "":
			case "yes":
				v := true
				filter.Cleared = &v
			case "no":
				v := false
				filter.Cleared = &v
			default:
				return fmt.Errorf("--cleared must be yes or no, got %q", cleared)
			}

			entries, err := ledger.NewService(store).WithRunningBalance(ctx, account.ID, filter)
			if err != nil {
				return fmt.Errorf("failed to load register: %w", err)
			}
			if len(entries) == 0 {
				fmt.Println(cli.InfoStyle.Render("No transactions found."))
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			defer func() { _ = w.Flush() }()

			headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
				headerStyle.Render("ID"),
				headerStyle.Render("Date"),
				headerStyle.Render("Type"),
				headerStyle.Render("Category"),
				headerStyle.Render("Description"),
				headerStyle.Render("Amount"),
				headerStyle.Render("Balance"))

			for _, entry := range entries {
				txn := entry.Transaction
				category := txn.CategoryName
				if category == "" {
					category = "-"
				}
				marker := " "
				if txn.Cleared {
					marker = cli.SuccessIcon
				}
				fmt.Fprintf(w, "%d\t%s %s\t%s\t%s\t%s\t%s\t%s\n",
					txn.ID,
					dateutil.FormatDate(txn.Date),
					marker,
					txn.Type,
					category,
					txn.Description,
					cli.FormatPlainAmount(txn.Amount),
					cli.FormatPlainAmount(entry.BalanceAfter))
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&month, "month", "", "only show transactions in YYYY-MM")
	cmd.Flags().StringVar(&txType, "type", "", "only show one type (income, expense, transfer)")
	cmd.Flags().StringVar(&search, "search", "", "match against description and category name")
	cmd.Flags().StringVar(&cleared, "cleared", "", "only cleared (yes) or uncleared (no) transactions")

	return cmd
}

func addTransactionCmd() *cobra.Command {
	var (
		txType      string
		category    string
		date        string
		description string
	)

	cmd := &cobra.Command{
		Use:   "add <account> <amount>",
		Short: "Record a transaction",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			account, err := resolveAccount(ctx, store, args[0])
			if err != nil {
				return fmt.Errorf("failed to find account %q: %w", args[0], err)
			}
			amount, err := parseAmount(args[1])
			if err != nil {
				return err
			}
			when, err := parseDateFlag(date)
			if err != nil {
				return err
			}

			txn := &model.Transaction{
				AccountID:   account.ID,
				Type:        model.TransactionType(txType),
				Amount:      amount,
				Date:        when,
				Description: description,
			}
			if category != "" {
				cat, err := resolveCategory(ctx, store, category)
				if err != nil {
					return err
				}
				txn.CategoryID = &cat.ID
			}

			if err := ledger.NewService(store).CreateTransaction(ctx, txn); err != nil {
				return fmt.Errorf("failed to record transaction: %w", err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Recorded %s of %s on %q (ID: %d)",
				txn.Type, cli.FormatPlainAmount(amount), account.Name, txn.ID)))
			return nil
		},
	}

	cmd.Flags().StringVar(&txType, "type", "expense", "transaction type (income, expense)")
	cmd.Flags().StringVar(&category, "category", "", "category name or ID")
	cmd.Flags().StringVar(&date, "date", "", "transaction date as YYYY-MM-DD (default: today)")
	cmd.Flags().StringVar(&description, "description", "", "free-form description")

	return cmd
}

func editTransactionCmd() *cobra.Command {
	var (
		amount      string
		category    string
		date        string
		description string
	)

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit a transaction",
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

			txn, err := store.GetTransactionByID(ctx, id)
			if err != nil {
				return fmt.Errorf("failed to get transaction: %w", err)
			}

			if amount != "" {
				parsed, err := parseAmount(amount)
				if err != nil {
					return err
				}
				txn.Amount = parsed
			}
			if date != "" {
				when, err := dateutil.ParseDate(date)
				if err != nil {
					return err
				}
				txn.Date = when
			}
			if description != "" {
				txn.Description = description
			}
			if category != "" {
				cat, err := resolveCategory(ctx, store, category)
				if err != nil {
					return err
				}
				txn.CategoryID = &cat.ID
			}

			if err := ledger.NewService(store).UpdateTransaction(ctx, txn); err != nil {
				return fmt.Errorf("failed to update transaction: %w", err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Updated transaction %d", id)))
			return nil
		},
	}

	cmd.Flags().StringVar(&amount, "amount", "", "new amount")
	cmd.Flags().StringVar(&category, "category", "", "new category name or ID")
	cmd.Flags().StringVar(&date, "date", "", "new date as YYYY-MM-DD")
	cmd.Flags().StringVar(&description, "description", "", "new description")

	return cmd
}

func clearTransactionCmd() *cobra.Command {
	var uncleared bool

	cmd := &cobra.Command{
		Use:   "clear <id>",
		Short: "Mark a transaction cleared or uncleared",
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

			if err := ledger.NewService(store).SetCleared(ctx, id, !uncleared); err != nil {
				return fmt.Errorf("failed to update cleared flag: %w", err)
			}

			state := "cleared"
			if uncleared {
				state = "uncleared"
			}
			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Marked transaction %d %s", id, state)))
			return nil
		},
	}

	cmd.Flags().BoolVar(&uncleared, "undo", false, "mark uncleared instead")

	return cmd
}

func deleteTransactionCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a transaction",
		Long:  `Delete a transaction. Deleting one leg of a transfer removes both legs.`,
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
				ok, err := cli.NewPrompter(nil, nil).Confirm(ctx, fmt.Sprintf("Are you sure you want to delete transaction %d?", id))
				if err != nil {
					return err
				}
				if !ok {
					fmt.Println("Deletion cancelled.")
					return nil
				}
			}

			if err := ledger.NewService(store).Delete(ctx, id); err != nil {
				return fmt.Errorf("failed to delete transaction: %w", err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Deleted transaction %d", id)))
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "skip confirmation prompt")

	return cmd
}

func transferCmd() *cobra.Command {
	var (
		date        string
		description string
	)

	cmd := &cobra.Command{
		Use:   "transfer <from-account> <to-account> <amount>",
		Short: "Move money between two accounts",
		Long:  `Record a transfer as a paired debit and credit that cancel out in aggregate totals.`,
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			from, err := resolveAccount(ctx, store, args[0])
			if err != nil {
				return fmt.Errorf("failed to find account %q: %w", args[0], err)
			}
			to, err := resolveAccount(ctx, store, args[1])
			if err != nil {
				return fmt.Errorf("failed to find account %q: %w", args[1], err)
			}
			amount, err := parseAmount(args[2])
			if err != nil {
				return err
			}
			when, err := parseDateFlag(date)
			if err != nil {
				return err
			}

			debit, _, err := ledger.NewService(store).CreateTransfer(ctx, from.ID, to.ID, amount, when, description)
			if err != nil {
				return fmt.Errorf("failed to create transfer: %w", err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Transferred %s from %q to %q (pair: %d)",
				cli.FormatPlainAmount(amount), from.Name, to.Name, *debit.TransferPairID)))
			return nil
		},
	}

	cmd.Flags().StringVar(&date, "date", "", "transfer date as YYYY-MM-DD (default: today)")
	cmd.Flags().StringVar(&description, "description", "", "free-form description")

	return cmd
}

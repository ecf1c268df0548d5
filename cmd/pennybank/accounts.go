package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/pennybank/pennybank/internal/cli"
	"github.com/pennybank/pennybank/internal/common"
	"github.com/pennybank/pennybank/internal/ledger"
	"github.com/pennybank/pennybank/internal/model"
)

func accountsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "Manage accounts",
		Long:  `List, add, update, and delete the accounts money moves through.`,
	}

	cmd.AddCommand(listAccountsCmd())
	cmd.AddCommand(addAccountCmd())
	cmd.AddCommand(updateAccountCmd())
	cmd.AddCommand(deleteAccountCmd())

	return cmd
}

func listAccountsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all accounts with balances",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			accounts, err := store.GetAccounts(ctx)
			if err != nil {
				return fmt.Errorf("failed to get accounts: %w", err)
			}
			if len(accounts) == 0 {
				fmt.Println(cli.InfoStyle.Render("No accounts found. Use 'pennybank accounts add' to create one."))
				return nil
			}

			balances, err := ledger.NewService(store).Balances(ctx, nil)
			if err != nil {
				return fmt.Errorf("failed to compute balances: %w", err)
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			defer func() { _ = w.Flush() }()

			headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
				headerStyle.Render("ID"),
				headerStyle.Render("Name"),
				headerStyle.Render("Type"),
				headerStyle.Render("Balance"))
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
				strings.Repeat("-", 4),
				strings.Repeat("-", 20),
				strings.Repeat("-", 12),
				strings.Repeat("-", 12))

			for i := range accounts {
				account := &accounts[i]
				balance := balances[account.ID]
				display := balance
				if account.IsDebt() {
					display = account.AmountOwed(balance).Neg()
				}
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\n",
					account.ID, account.Name, account.Type, cli.FormatPlainAmount(display))
			}

			return nil
		},
	}
}

func addAccountCmd() *cobra.Command {
	var (
		accountType    string
		description    string
		openingBalance string
	)

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a new account",
		Long:  `Create an account. Debt accounts (loan, credit_card) take an opening balance for the amount owed.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			account := &model.Account{
				Name:        args[0],
				Type:        model.AccountType(accountType),
				Description: description,
			}
			if openingBalance != "" {
				opening, err := parseAmount(openingBalance)
				if err != nil {
					return err
				}
				account.OpeningBalance = opening
			} else {
				account.OpeningBalance = decimal.Zero
			}

			if err := store.CreateAccount(ctx, account); err != nil {
				return fmt.Errorf("failed to create account: %w", err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Created account %q (ID: %d)", account.Name, account.ID)))
			return nil
		},
	}

	cmd.Flags().StringVar(&accountType, "type", "checking", "account type (checking, savings, loan, credit_card)")
	cmd.Flags().StringVar(&description, "description", "", "account description")
	cmd.Flags().StringVar(&openingBalance, "opening-balance", "", "opening amount owed for debt accounts")

	return cmd
}

func updateAccountCmd() *cobra.Command {
	var (
		name        string
		description string
	)

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if name == "" && description == "" {
				return fmt.Errorf("must specify --name or --description to update")
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			account, err := store.GetAccountByID(ctx, id)
			if err != nil {
				return fmt.Errorf("failed to get account: %w", err)
			}
			if name != "" {
				account.Name = name
			}
			if description != "" {
				account.Description = description
			}

			if err := store.UpdateAccount(ctx, account); err != nil {
				return fmt.Errorf("failed to update account: %w", err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Updated account %d", id)))
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "new account name")
	cmd.Flags().StringVar(&description, "description", "", "new account description")

	return cmd
}

func deleteAccountCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an account",
		Long:  `Delete an account. This fails if the account still has transactions.`,
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
				ok, err := cli.NewPrompter(nil, nil).Confirm(ctx, fmt.Sprintf("Are you sure you want to delete account %d?", id))
				if err != nil {
					return err
				}
				if !ok {
					fmt.Println("Deletion cancelled.")
					return nil
				}
			}

			if err := store.DeleteAccount(ctx, id); err != nil {
				if errors.Is(err, common.ErrAccountHasTransactions) {
					return fmt.Errorf("account %d still has transactions; delete or move them first", id)
				}
				return fmt.Errorf("failed to delete account: %w", err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Deleted account %d", id)))
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "skip confirmation prompt")

	return cmd
}

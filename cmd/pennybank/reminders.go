package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pennybank/pennybank/internal/budget"
	"github.com/pennybank/pennybank/internal/cli"
	"github.com/pennybank/pennybank/internal/config"
	"github.com/pennybank/pennybank/internal/dateutil"
	"github.com/pennybank/pennybank/internal/model"
	"github.com/pennybank/pennybank/internal/reminder"
	"github.com/pennybank/pennybank/internal/service"
)

func remindersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reminders",
		Short: "Review upcoming bills and budget alerts",
	}

	cmd.AddCommand(listRemindersCmd())
	cmd.AddCommand(dismissReminderCmd())

	return cmd
}

func reminderService(store service.Storage) *reminder.Service {
	return reminder.NewService(store, budget.NewService(store))
}

func reminderOptions() reminder.Options {
	settings, err := config.LoadSettings()
	if err != nil {
		return reminder.Options{}
	}
	return reminder.Options{
		UpcomingDays:   settings.UpcomingDays,
		AlertThreshold: settings.AlertThreshold,
	}
}

func listRemindersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List active reminders, most urgent first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			reminders, err := reminderService(store).Reminders(ctx, dateutil.Today(), reminderOptions())
			if err != nil {
				return fmt.Errorf("failed to get reminders: %w", err)
			}
			if len(reminders) == 0 {
				fmt.Println(cli.FormatSuccess("Nothing needs your attention."))
				return nil
			}

			fmt.Println(cli.TitleStyle.Render(cli.BellIcon + " Reminders"))
			for i, r := range reminders {
				line := fmt.Sprintf("%d. %s", i+1, r.Title)
				switch r.Severity {
				case model.SeverityError:
					line = cli.FormatError(line)
				case model.SeverityWarning:
					line = cli.FormatWarning(line)
				default:
					line = cli.FormatInfo(line)
				}
				fmt.Println(line)
				if r.Detail != "" {
					fmt.Println("   " + cli.SubtleStyle.Render(r.Detail))
				}
			}

			return nil
		},
	}
}

func dismissReminderCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dismiss <number>",
		Short: "Dismiss a reminder until it becomes relevant again",
		Long: `Dismiss the Nth reminder from 'pennybank reminders list'. Budget reminders
stay dismissed for the rest of the month; recurring reminders until their
next due date.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			n, err := parseID(args[0])
			if err != nil {
				return err
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			svc := reminderService(store)
			today := dateutil.Today()

			reminders, err := svc.Reminders(ctx, today, reminderOptions())
			if err != nil {
				return fmt.Errorf("failed to get reminders: %w", err)
			}
			if n > int64(len(reminders)) {
				return fmt.Errorf("no reminder number %d; only %d active", n, len(reminders))
			}

			target := reminders[n-1]
			if err := svc.Dismiss(ctx, target, today); err != nil {
				return fmt.Errorf("failed to dismiss reminder: %w", err)
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Dismissed %q", target.Title)))
			return nil
		},
	}
}

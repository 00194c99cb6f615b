package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Veraticus/spice-dashboard/internal/cli"
	"github.com/Veraticus/spice-dashboard/internal/common"
	"github.com/Veraticus/spice-dashboard/internal/engine"
	"github.com/Veraticus/spice-dashboard/internal/export"
	"github.com/Veraticus/spice-dashboard/internal/model"
	"github.com/Veraticus/spice-dashboard/internal/storage"
)

func limitsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "limits",
		Short: "Manage spending limits",
		Long: `Spending limits cap debits per day, per month, per tag, or per merchant.
Tag and merchant limits measure the current calendar month.`,
	}

	cmd.AddCommand(limitsAddCmd())
	cmd.AddCommand(limitsListCmd())
	cmd.AddCommand(limitsToggleCmd("enable", true))
	cmd.AddCommand(limitsToggleCmd("disable", false))
	cmd.AddCommand(limitsDeleteCmd())
	cmd.AddCommand(limitsStatusCmd())
	cmd.AddCommand(limitsCheckCmd())

	return cmd
}

func limitsAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <amount>",
		Short: "Add a spending limit",
		Example: `  spice limits add 2000 --type daily
  spice limits add 1000 --type merchant --target swiggy
  spice limits add 8000 --type category --target food`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := strconv.ParseFloat(args[0], 64)
			if err != nil {
				return fmt.Errorf("invalid amount %q: %w", args[0], err)
			}
			rawType, _ := cmd.Flags().GetString("type")
			target, _ := cmd.Flags().GetString("target")
			inactive, _ := cmd.Flags().GetBool("inactive")

			limitType := model.LimitType(rawType)
			if !limitType.Valid() {
				return common.NewUserError("Type must be one of daily, monthly, category, merchant", fmt.Errorf("unknown limit type %q", rawType))
			}

			limit := model.SpendingLimit{Type: limitType, TargetID: target, Limit: amount, IsActive: !inactive}
			return withStorage(cmd, func(ctx context.Context, store *storage.SQLiteStorage) error {
				if err := store.SaveSpendingLimit(ctx, &limit); err != nil {
					return fmt.Errorf("failed to save spending limit: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Added %s limit %s of %.2f", limit.Type, limit.ID, limit.Limit)))
				return nil
			})
		},
	}
	cmd.Flags().String("type", string(model.LimitMonthly), "limit type (daily, monthly, category, merchant)")
	cmd.Flags().String("target", "", "tag id for category limits, merchant for merchant limits")
	cmd.Flags().Bool("inactive", false, "create the limit disabled")
	return cmd
}

func limitsListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List spending limits",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withStorage(cmd, func(ctx context.Context, store *storage.SQLiteStorage) error {
				limits, err := store.GetSpendingLimits(ctx)
				if err != nil {
					return err
				}
				sec := export.Section{Header: []string{"ID", "Type", "Target", "Limit", "Active"}}
				for _, l := range limits {
					sec.Rows = append(sec.Rows, []string{
						l.ID, string(l.Type), l.TargetID, strconv.FormatFloat(l.Limit, 'f', 2, 64), strconv.FormatBool(l.IsActive),
					})
				}
				return writeOutput(cmd, export.Table{Title: "Spending Limits", Sections: []export.Section{sec}}, limits)
			})
		},
	}
	addOutputFlags(cmd)
	return cmd
}

func limitsToggleCmd(use string, active bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <limit-id>",
		Short: "Turn a spending limit on or off",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStorage(cmd, func(ctx context.Context, store *storage.SQLiteStorage) error {
				if err := store.SetSpendingLimitActive(ctx, args[0], active); err != nil {
					return fmt.Errorf("failed to update spending limit: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Limit %s %sd", args[0], use)))
				return nil
			})
		},
	}
}

func limitsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <limit-id>",
		Short: "Delete a spending limit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStorage(cmd, func(ctx context.Context, store *storage.SQLiteStorage) error {
				if err := store.DeleteSpendingLimit(ctx, args[0]); err != nil {
					return fmt.Errorf("failed to delete spending limit: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Deleted limit "+args[0]))
				return nil
			})
		},
	}
}

func limitsStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show spending against every limit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withEngine(cmd, func(ctx context.Context, e *engine.Engine) error {
				statuses, err := e.Limits(ctx)
				if err != nil {
					return err
				}
				return writeOutput(cmd, export.LimitsTable(statuses), statuses)
			})
		},
	}
	addOutputFlags(cmd)
	return cmd
}

func limitsCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check <amount>",
		Short: "Check whether a prospective debit would exceed any active limit",
		Example: `  spice limits check 250 --details "SWIGGY dinner" --tag food`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			amount, err := strconv.ParseFloat(args[0], 64)
			if err != nil || amount <= 0 {
				return common.NewUserError("Amount must be a positive number", fmt.Errorf("invalid amount %q", args[0]))
			}
			details, _ := cmd.Flags().GetString("details")
			tags, _ := cmd.Flags().GetStringSlice("tag")
			date, _ := cmd.Flags().GetString("date")

			return withEngine(cmd, func(ctx context.Context, e *engine.Engine) error {
				candidate := model.Transaction{
					Type:    model.TypeDebit,
					Details: details,
					Debit:   amount,
					Amount:  amount,
					TagIDs:  tags,
				}
				if date != "" {
					day, err := parseDate(date, e.Settings().Location)
					if err != nil {
						return err
					}
					candidate.Date = day
				}

				breaches, err := e.CheckTransaction(ctx, candidate)
				if err != nil {
					return err
				}
				if len(breaches) == 0 {
					fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Within all active limits"))
					return nil
				}
				return writeOutput(cmd, export.BreachesTable(breaches), breaches)
			})
		},
	}
	cmd.Flags().String("details", "", "transaction description, used for merchant limits")
	cmd.Flags().StringSlice("tag", nil, "tag id carried by the transaction (repeatable)")
	cmd.Flags().String("date", "", "transaction date as YYYY-MM-DD (default: now)")
	addOutputFlags(cmd)
	return cmd
}

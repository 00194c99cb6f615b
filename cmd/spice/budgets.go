package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Veraticus/spice-dashboard/internal/cli"
	"github.com/Veraticus/spice-dashboard/internal/engine"
	"github.com/Veraticus/spice-dashboard/internal/export"
	"github.com/Veraticus/spice-dashboard/internal/model"
	"github.com/Veraticus/spice-dashboard/internal/storage"
)

func budgetsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "budgets",
		Short: "Manage monthly budgets per tag",
	}

	cmd.AddCommand(budgetsSetCmd())
	cmd.AddCommand(budgetsListCmd())
	cmd.AddCommand(budgetsStatusCmd())
	cmd.AddCommand(budgetsDeleteCmd())

	return cmd
}

func budgetsSetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "set <tag-id> <limit>",
		Short:   "Set a tag's budget for a month",
		Example: `  spice budgets set food 6000 --month 2024-03`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("invalid limit %q: %w", args[1], err)
			}
			month, _ := cmd.Flags().GetString("month")

			now, err := localNow()
			if err != nil {
				return err
			}
			year, m, err := parseMonth(month, now)
			if err != nil {
				return err
			}

			return withStorage(cmd, func(ctx context.Context, store *storage.SQLiteStorage) error {
				b := model.Budget{TagID: args[0], Period: model.FormatPeriod(year, m), MonthlyLimit: limit}
				if err := store.SaveBudget(ctx, &b); err != nil {
					return fmt.Errorf("failed to save budget: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Budget for %s in %s set to %.2f", b.TagID, b.Period, b.MonthlyLimit)))
				return nil
			})
		},
	}
	cmd.Flags().String("month", "", "month as YYYY-MM (default: current month)")
	return cmd
}

func budgetsListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List every budget",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withStorage(cmd, func(ctx context.Context, store *storage.SQLiteStorage) error {
				budgets, err := store.GetBudgets(ctx)
				if err != nil {
					return err
				}
				sec := export.Section{Header: []string{"ID", "Tag", "Period", "Limit"}}
				for _, b := range budgets {
					sec.Rows = append(sec.Rows, []string{b.ID, b.TagID, b.Period, strconv.FormatFloat(b.MonthlyLimit, 'f', 2, 64)})
				}
				return writeOutput(cmd, export.Table{Title: "Budgets", Sections: []export.Section{sec}}, budgets)
			})
		},
	}
	addOutputFlags(cmd)
	return cmd
}

func budgetsStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show spending against each budget for a month",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			month, _ := cmd.Flags().GetString("month")
			return withEngine(cmd, func(ctx context.Context, e *engine.Engine) error {
				year, m, err := parseMonth(month, e.Now())
				if err != nil {
					return err
				}
				statuses, err := e.Budgets(ctx, year, m)
				if err != nil {
					return err
				}
				return writeOutput(cmd, export.BudgetsTable(model.FormatPeriod(year, m), statuses), statuses)
			})
		},
	}
	cmd.Flags().String("month", "", "month as YYYY-MM (default: current month)")
	addOutputFlags(cmd)
	return cmd
}

func budgetsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <budget-id>",
		Short: "Delete a budget",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStorage(cmd, func(ctx context.Context, store *storage.SQLiteStorage) error {
				if err := store.DeleteBudget(ctx, args[0]); err != nil {
					return fmt.Errorf("failed to delete budget: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Deleted budget "+args[0]))
				return nil
			})
		},
	}
}

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

func goalsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "goals",
		Short: "Manage savings goals",
		Long:  `Savings goals track net savings from the day a goal is created toward a target amount.`,
	}

	cmd.AddCommand(goalsAddCmd())
	cmd.AddCommand(goalsListCmd())
	cmd.AddCommand(goalsWhatIfCmd())
	cmd.AddCommand(goalsDeleteCmd())

	return cmd
}

func goalsAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "add <name> <target>",
		Short:   "Add a savings goal",
		Example: `  spice goals add "Emergency fund" 300000 --deadline 2025-06-30`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := strconv.ParseFloat(args[1], 64)
			if err != nil {
				return fmt.Errorf("invalid target %q: %w", args[1], err)
			}
			rawDeadline, _ := cmd.Flags().GetString("deadline")
			if rawDeadline == "" {
				return common.NewUserError("A --deadline is required", common.ErrMissingConfig)
			}
			now, err := localNow()
			if err != nil {
				return err
			}
			deadline, err := parseDate(rawDeadline, now.Location())
			if err != nil {
				return err
			}

			goal := model.SavingsGoal{Name: args[0], TargetAmount: target, Deadline: deadline, CreatedAt: now}
			return withStorage(cmd, func(ctx context.Context, store *storage.SQLiteStorage) error {
				if err := store.SaveSavingsGoal(ctx, &goal); err != nil {
					return fmt.Errorf("failed to save savings goal: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Added goal %s (%s) of %.2f by %s",
					goal.ID, goal.Name, goal.TargetAmount, goal.Deadline.Format("2006-01-02"))))
				return nil
			})
		},
	}
	cmd.Flags().String("deadline", "", "deadline as YYYY-MM-DD")
	return cmd
}

func goalsListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"progress"},
		Short:   "Show progress on every savings goal",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withEngine(cmd, func(ctx context.Context, e *engine.Engine) error {
				progress, err := e.Goals(ctx)
				if err != nil {
					return err
				}
				return writeOutput(cmd, export.GoalsTable(progress), progress)
			})
		},
	}
	addOutputFlags(cmd)
	return cmd
}

func goalsWhatIfCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "whatif <goal-id> <savings-rate>",
		Short:   "Project a goal's completion if a percentage of income were saved",
		Example: `  spice goals whatif 3f1c... 30`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			rate, err := strconv.ParseFloat(args[1], 64)
			if err != nil || rate < 0 || rate > 100 {
				return common.NewUserError("Savings rate must be a percentage between 0 and 100", fmt.Errorf("invalid rate %q", args[1]))
			}

			ctx := cmd.Context()
			e, store, err := initEngine(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			proj, err := e.WhatIf(ctx, args[0], rate)
			if err != nil {
				return err
			}
			goal, err := store.GetSavingsGoal(ctx, args[0])
			if err != nil {
				return err
			}
			return writeOutput(cmd, export.WhatIfTable(*goal, proj), proj)
		},
	}
	addOutputFlags(cmd)
	return cmd
}

func goalsDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <goal-id>",
		Short: "Delete a savings goal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStorage(cmd, func(ctx context.Context, store *storage.SQLiteStorage) error {
				if err := store.DeleteSavingsGoal(ctx, args[0]); err != nil {
					return fmt.Errorf("failed to delete savings goal: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Deleted goal "+args[0]))
				return nil
			})
		},
	}
}

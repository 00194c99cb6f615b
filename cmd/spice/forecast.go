package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/Veraticus/spice-dashboard/internal/engine"
	"github.com/Veraticus/spice-dashboard/internal/export"
)

func forecastCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "forecast",
		Short: "Forecast the account balance",
		Long: `Project the balance from today through the end of the month, or through
--until, using recent spending trends and detected recurring payments.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			until, _ := cmd.Flags().GetString("until")
			return withEngine(cmd, func(ctx context.Context, e *engine.Engine) error {
				var periodEnd time.Time
				if until != "" {
					day, err := parseDate(until, e.Settings().Location)
					if err != nil {
						return err
					}
					periodEnd = day.AddDate(0, 0, 1)
				}
				f, err := e.Forecast(ctx, periodEnd)
				if err != nil {
					return err
				}
				return writeOutput(cmd, export.ForecastTable(f), f)
			})
		},
	}
	cmd.Flags().String("until", "", "last forecast day as YYYY-MM-DD (default: end of this month)")
	addOutputFlags(cmd)
	return cmd
}

func cashflowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cashflow",
		Short: "Project monthly cash flow",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			days, _ := cmd.Flags().GetInt("days")
			return withEngine(cmd, func(ctx context.Context, e *engine.Engine) error {
				p, err := e.CashFlow(ctx, days)
				if err != nil {
					return err
				}
				return writeOutput(cmd, export.CashFlowTable(p), p)
			})
		},
	}
	cmd.Flags().Int("days", 0, "projection horizon in days (default: analytics.horizon_days)")
	addOutputFlags(cmd)
	return cmd
}

func recurringCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recurring",
		Short: "List detected recurring payments",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withEngine(cmd, func(ctx context.Context, e *engine.Engine) error {
				payments, err := e.Recurring(ctx)
				if err != nil {
					return err
				}
				return writeOutput(cmd, export.RecurringTable(payments), payments)
			})
		},
	}
	addOutputFlags(cmd)
	return cmd
}

package main

import (
	"context"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Veraticus/spice-dashboard/internal/common"
	"github.com/Veraticus/spice-dashboard/internal/engine"
	"github.com/Veraticus/spice-dashboard/internal/export"
)

func reportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Generate monthly and yearly reports",
	}

	cmd.AddCommand(reportMonthlyCmd())
	cmd.AddCommand(reportYearlyCmd())

	return cmd
}

func addSheetsFlag(cmd *cobra.Command) {
	cmd.Flags().Bool("sheets", false, "also export the report to Google Sheets")
}

// finishReport writes the report locally and, with --sheets, to Google Sheets.
func finishReport(ctx context.Context, cmd *cobra.Command, table export.Table, v any) error {
	if err := writeOutput(cmd, table, v); err != nil {
		return err
	}
	if toSheets, _ := cmd.Flags().GetBool("sheets"); toSheets {
		return exportToSheets(ctx, cmd.OutOrStdout(), table)
	}
	return nil
}

func reportMonthlyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "monthly",
		Short: "Report on one calendar month",
		Example: `  spice report monthly --month 2024-03
  spice report monthly --format csv --output march.csv
  spice report monthly --format json --encrypt-to age1... --output march.json.age`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			month, _ := cmd.Flags().GetString("month")
			return withEngine(cmd, func(ctx context.Context, e *engine.Engine) error {
				year, m, err := parseMonth(month, e.Now())
				if err != nil {
					return err
				}
				r, err := e.MonthlyReport(ctx, year, m)
				if err != nil {
					return err
				}
				return finishReport(ctx, cmd, export.MonthlyTable(r), r)
			})
		},
	}
	cmd.Flags().String("month", "", "month as YYYY-MM (default: current month)")
	addOutputFlags(cmd)
	addSheetsFlag(cmd)
	return cmd
}

func reportYearlyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "yearly [year]",
		Short: "Report on one calendar year",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd, func(ctx context.Context, e *engine.Engine) error {
				year := e.Now().Year()
				if len(args) == 1 {
					y, err := strconv.Atoi(args[0])
					if err != nil {
						return common.NewUserError("Year must be a number", err)
					}
					year = y
				}
				r, err := e.YearlyReport(ctx, year)
				if err != nil {
					return err
				}
				return finishReport(ctx, cmd, export.YearlyTable(r), r)
			})
		},
	}
	addOutputFlags(cmd)
	addSheetsFlag(cmd)
	return cmd
}

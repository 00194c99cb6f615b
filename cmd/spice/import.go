package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Veraticus/spice-dashboard/internal/cli"
	"github.com/Veraticus/spice-dashboard/internal/common"
	"github.com/Veraticus/spice-dashboard/internal/ledger"
	"github.com/Veraticus/spice-dashboard/internal/merchant"
	"github.com/Veraticus/spice-dashboard/internal/model"
	"github.com/Veraticus/spice-dashboard/internal/ofx"
	"github.com/Veraticus/spice-dashboard/internal/service"
)

const importBatchSize = 100

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import [files...]",
		Short: "Import transactions from OFX/QFX files",
		Long: `Import financial transactions from OFX or QFX (Quicken) files exported from your bank.

Transactions already in the database are skipped, so re-importing an
overlapping statement is safe.

Examples:
  # Import single file
  spice import ~/Downloads/hdfc_jan_2024.qfx

  # Import all QFX files in a directory
  spice import ~/Downloads/*.qfx

  # Preview without saving
  spice import --dry-run ~/Downloads/*.ofx`,
		Args: cobra.MinimumNArgs(1),
		RunE: runImport,
	}

	cmd.Flags().BoolP("dry-run", "d", false, "Preview import without saving")

	return cmd
}

func runImport(cmd *cobra.Command, args []string) error {
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	out := cmd.OutOrStdout()

	files, err := expandFiles(args)
	if err != nil {
		return err
	}

	handler := cli.NewInterruptHandler(out, "Import").
		WithHint("Transactions saved so far are kept. Run the same import again to continue.")
	ctx := handler.HandleInterrupts(cmd.Context())

	txns, err := parseFiles(ctx, files)
	if err != nil {
		return err
	}
	if len(txns) == 0 {
		fmt.Fprintln(out, cli.FormatWarning("No transactions found in any file"))
		return nil
	}

	summarizeImport(out, txns)

	if dryRun {
		fmt.Fprintln(out, cli.FormatInfo("Dry run complete - no data saved"))
		return nil
	}

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	inserted, err := saveInBatches(ctx, store, txns, cli.NewProgressBar(out, len(txns), "Importing transactions..."))
	if err != nil {
		if handler.WasInterrupted() || errors.Is(err, context.Canceled) {
			fmt.Fprintln(out, cli.FormatWarning(fmt.Sprintf("Import stopped after saving %d new transactions", inserted)))
			return nil
		}
		return err
	}

	fmt.Fprintln(out, cli.FormatSuccess(fmt.Sprintf("Imported %d new transactions (%d already present)", inserted, len(txns)-inserted)))
	return nil
}

// expandFiles resolves glob patterns, keeping literal paths that exist.
func expandFiles(patterns []string) ([]string, error) {
	var files []string
	for _, pattern := range patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %s: %w", pattern, err)
		}
		if len(matches) == 0 {
			if _, err := os.Stat(pattern); err == nil {
				files = append(files, pattern)
			} else {
				slog.Warn("No files found matching pattern", "pattern", pattern)
			}
			continue
		}
		files = append(files, matches...)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no files found to import")
	}
	return files, nil
}

// parseFiles parses every file, skipping unreadable ones and transactions
// repeated across files.
func parseFiles(ctx context.Context, files []string) ([]model.Transaction, error) {
	parser := ofx.NewParser()
	seen := make(map[string]bool)
	var all []model.Transaction

	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		f, err := os.Open(path)
		if err != nil {
			common.LogError(err, "Failed to open file", common.Fields{"file": path})
			continue
		}
		txns, err := parser.ParseFile(ctx, f)
		_ = f.Close()
		if err != nil {
			common.LogError(err, "Failed to parse OFX file", common.Fields{"file": path})
			continue
		}

		added := 0
		for _, txn := range txns {
			if seen[txn.Hash] {
				continue
			}
			seen[txn.Hash] = true
			all = append(all, txn)
			added++
		}
		slog.Info("Processed file",
			"file", filepath.Base(path),
			"transactions_found", len(txns),
			"added", added,
			"duplicates", len(txns)-added)
	}
	return all, nil
}

type progress interface {
	Add(n int) error
}

// saveInBatches stores txns a batch at a time so an interrupt loses at most
// one batch. It returns how many rows were new.
func saveInBatches(ctx context.Context, store service.Storage, txns []model.Transaction, bar progress) (int, error) {
	inserted := 0
	for start := 0; start < len(txns); start += importBatchSize {
		if err := ctx.Err(); err != nil {
			return inserted, err
		}
		end := min(start+importBatchSize, len(txns))
		n, err := store.SaveTransactions(ctx, txns[start:end])
		if err != nil {
			return inserted, fmt.Errorf("failed to save transactions: %w", err)
		}
		inserted += n
		if bar != nil {
			_ = bar.Add(end - start)
		}
	}
	return inserted, nil
}

func summarizeImport(out io.Writer, txns []model.Transaction) {
	sorted := ledger.SortByDate(txns)
	oldest, newest := sorted[0].Date, sorted[len(sorted)-1].Date
	inflow, outflow := ledger.Totals(txns)

	accounts := ledger.NewAccumulator()
	merchants := ledger.NewAccumulator()
	for i := range txns {
		accounts.Add(txns[i].AccountID, 0)
		if txns[i].IsDebit() {
			merchants.Add(merchant.Extract(txns[i].Details), txns[i].DebitAmount())
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Date range: %s to %s (%d days)\n",
		oldest.Format("2006-01-02"),
		newest.Format("2006-01-02"),
		ledger.DaysBetween(oldest, newest))
	fmt.Fprintf(&b, "Inflow: %.2f\nOutflow: %.2f\n", inflow, outflow)

	fmt.Fprintln(&b, "\nAccounts:")
	ids := accounts.Breakdown(nil)
	sort.Slice(ids, func(i, j int) bool { return ids[i].Key < ids[j].Key })
	for _, acct := range ids {
		fmt.Fprintf(&b, "  - %s (%d transactions)\n", acct.Key, acct.Count)
	}

	if top := merchants.Breakdown(nil).Top(5); len(top) > 0 {
		fmt.Fprintln(&b, "\nTop merchants:")
		for i, m := range top {
			fmt.Fprintf(&b, "%d. %s (%.2f)\n", i+1, m.Key, m.Amount)
		}
	}

	fmt.Fprintln(out, cli.RenderBox("Import Summary", strings.TrimRight(b.String(), "\n")))
}

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/Veraticus/spice-dashboard/internal/cli"
	"github.com/Veraticus/spice-dashboard/internal/common"
	"github.com/Veraticus/spice-dashboard/internal/config"
	"github.com/Veraticus/spice-dashboard/internal/engine"
	"github.com/Veraticus/spice-dashboard/internal/export"
	"github.com/Veraticus/spice-dashboard/internal/model"
	"github.com/Veraticus/spice-dashboard/internal/sheets"
	"github.com/Veraticus/spice-dashboard/internal/storage"
)

// databasePath returns the configured database path with ~ and environment
// variables expanded.
func databasePath() string {
	return config.PathSetting("database.path", config.DefaultDatabasePath)
}

// openStorage opens the database, creating its directory when needed.
func openStorage(dbPath string) (*storage.SQLiteStorage, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	return storage.NewSQLiteStorage(dbPath)
}

// initStorage opens the database and brings the schema up to date.
func initStorage(ctx context.Context) (*storage.SQLiteStorage, error) {
	store, err := openStorage(databasePath())
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// initEngine opens storage and wraps it in an analytics engine. The caller
// closes the returned storage.
func initEngine(ctx context.Context) (*engine.Engine, *storage.SQLiteStorage, error) {
	settings, err := config.LoadAnalytics()
	if err != nil {
		return nil, nil, common.NewUserError("Invalid analytics settings in config", err)
	}
	store, err := initStorage(ctx)
	if err != nil {
		return nil, nil, err
	}
	return engine.New(store, settings), store, nil
}

// localNow returns the current time in the configured analytics timezone.
func localNow() (time.Time, error) {
	settings, err := config.LoadAnalytics()
	if err != nil {
		return time.Time{}, common.NewUserError("Invalid analytics settings in config", err)
	}
	return time.Now().In(settings.Location), nil
}

// withEngine runs fn with an engine and closes storage afterwards.
func withEngine(cmd *cobra.Command, fn func(ctx context.Context, e *engine.Engine) error) error {
	ctx := cmd.Context()
	e, store, err := initEngine(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()
	return fn(ctx, e)
}

// withStorage runs fn with storage and closes it afterwards.
func withStorage(cmd *cobra.Command, fn func(ctx context.Context, store *storage.SQLiteStorage) error) error {
	ctx := cmd.Context()
	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()
	return fn(ctx, store)
}

// parseMonth parses a YYYY-MM flag value, defaulting to now's month.
func parseMonth(value string, now time.Time) (int, time.Month, error) {
	if value == "" {
		return now.Year(), now.Month(), nil
	}
	start, err := model.ParsePeriod(value, now.Location())
	if err != nil {
		return 0, 0, common.NewUserError("Month must be in YYYY-MM format", err)
	}
	return start.Year(), start.Month(), nil
}

// parseDate parses a YYYY-MM-DD flag value in loc.
func parseDate(value string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation("2006-01-02", value, loc)
	if err != nil {
		return time.Time{}, common.NewUserError(fmt.Sprintf("Date %q must be in YYYY-MM-DD format", value), err)
	}
	return t, nil
}

func addOutputFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("format", "f", string(export.FormatTable), "output format (table, json, csv)")
	cmd.Flags().StringP("output", "o", "", "write to this file instead of stdout")
	cmd.Flags().StringSlice("encrypt-to", nil, "age recipient to encrypt json or csv output to (repeatable)")
}

// writeOutput renders table, or v as JSON, according to the output flags.
func writeOutput(cmd *cobra.Command, table export.Table, v any) error {
	rawFormat, _ := cmd.Flags().GetString("format")
	path, _ := cmd.Flags().GetString("output")
	recipients, _ := cmd.Flags().GetStringSlice("encrypt-to")

	format, err := export.ParseFormat(rawFormat)
	if err != nil {
		return common.NewUserError("Format must be one of table, json, csv", err)
	}
	if len(recipients) > 0 && format == export.FormatTable {
		return common.NewUserError("Encrypted output requires --format json or csv", common.ErrUnsupportedFormat)
	}

	var w io.Writer = cmd.OutOrStdout()
	if path != "" {
		f, err := os.Create(config.ExpandPath(path))
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer func() { _ = f.Close() }()
		w = f
	}

	if len(recipients) > 0 {
		ew, err := export.Encrypt(w, recipients)
		if err != nil {
			return common.NewUserError("Could not encrypt output", err)
		}
		if err := render(ew, format, table, v); err != nil {
			_ = ew.Close()
			return err
		}
		if err := ew.Close(); err != nil {
			return fmt.Errorf("failed to finish encryption: %w", err)
		}
	} else if err := render(w, format, table, v); err != nil {
		return err
	}

	if path != "" {
		slog.Info("Wrote output", "path", path, "format", format, "encrypted", len(recipients) > 0)
	}
	return nil
}

func render(w io.Writer, format export.Format, table export.Table, v any) error {
	switch format {
	case export.FormatJSON:
		return export.WriteJSON(w, v)
	case export.FormatCSV:
		return export.WriteCSV(w, table)
	default:
		return cli.PrintTable(w, table)
	}
}

// newSheetsWriter is replaced in tests.
var newSheetsWriter = func(ctx context.Context) (sheets.TableWriter, error) {
	cfg, err := config.LoadSheetsConfig()
	if err != nil {
		return nil, common.NewUserError("Google Sheets is not configured", err)
	}
	writer, err := sheets.NewWriter(ctx, *cfg, slog.Default())
	if err != nil {
		return nil, err
	}
	return writer, nil
}

// exportToSheets writes table to its own tab of the configured spreadsheet.
func exportToSheets(ctx context.Context, out io.Writer, table export.Table) error {
	writer, err := newSheetsWriter(ctx)
	if err != nil {
		return err
	}
	if err := writer.Write(ctx, table); err != nil {
		return fmt.Errorf("failed to export to Google Sheets: %w", err)
	}
	fmt.Fprintln(out, cli.FormatSuccess("Exported "+table.Title+" to Google Sheets"))
	return nil
}

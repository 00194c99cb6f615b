package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Veraticus/spice-dashboard/internal/cli"
	"github.com/Veraticus/spice-dashboard/internal/export"
	"github.com/Veraticus/spice-dashboard/internal/model"
	"github.com/Veraticus/spice-dashboard/internal/storage"
)

func tagsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tags",
		Short: "Manage spending tags",
		Long:  `Tags group transactions into spending categories for budgets, limits, and reports.`,
	}

	cmd.AddCommand(tagsListCmd())
	cmd.AddCommand(tagsAddCmd())
	cmd.AddCommand(tagsAssignCmd())
	cmd.AddCommand(tagsUnassignCmd())

	return cmd
}

func tagsListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all tags",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withStorage(cmd, func(ctx context.Context, store *storage.SQLiteStorage) error {
				tags, err := store.GetTags(ctx)
				if err != nil {
					return err
				}
				sec := export.Section{Header: []string{"ID", "Name", "Color", "Icon"}}
				for _, tag := range tags {
					sec.Rows = append(sec.Rows, []string{tag.ID, tag.Name, tag.Color, tag.Icon})
				}
				return writeOutput(cmd, export.Table{Title: "Tags", Sections: []export.Section{sec}}, tags)
			})
		},
	}
	addOutputFlags(cmd)
	return cmd
}

func tagsAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <id> <name>",
		Short: "Create or rename a tag",
		Example: `  spice tags add food "Food & Dining" --color "#FF6B6B"
  spice tags add sip "Mutual Fund SIP"`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			color, _ := cmd.Flags().GetString("color")
			icon, _ := cmd.Flags().GetString("icon")
			tag := model.Tag{ID: args[0], Name: args[1], Color: color, Icon: icon}

			return withStorage(cmd, func(ctx context.Context, store *storage.SQLiteStorage) error {
				if err := store.SaveTag(ctx, &tag); err != nil {
					return fmt.Errorf("failed to save tag: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Saved tag %s (%s)", tag.ID, tag.Name)))
				return nil
			})
		},
	}
	cmd.Flags().String("color", "", "display color")
	cmd.Flags().String("icon", "", "display icon")
	return cmd
}

func tagsAssignCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "assign <transaction-id> <tag-id>",
		Short: "Tag a transaction",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStorage(cmd, func(ctx context.Context, store *storage.SQLiteStorage) error {
				if err := store.AddTransactionTag(ctx, args[0], args[1]); err != nil {
					return fmt.Errorf("failed to tag transaction: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Tagged %s with %s", args[0], args[1])))
				return nil
			})
		},
	}
}

func tagsUnassignCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unassign <transaction-id> <tag-id>",
		Short: "Remove a tag from a transaction",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStorage(cmd, func(ctx context.Context, store *storage.SQLiteStorage) error {
				if err := store.RemoveTransactionTag(ctx, args[0], args[1]); err != nil {
					return fmt.Errorf("failed to untag transaction: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(fmt.Sprintf("Removed %s from %s", args[1], args[0])))
				return nil
			})
		},
	}
}

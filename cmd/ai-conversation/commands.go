package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mikey/llm-spam-scorer/internal/di"
)

func newListCommand(flags *di.CLIFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all conversations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, flags, false, func(ctx context.Context, a *app) error {
				out := cmd.OutOrStdout()
				convs := a.manager.ListConversations()
				if len(convs) == 0 {
					fmt.Fprintln(out, "No conversations found.")
					return nil
				}
				fmt.Fprintf(out, "Found %d conversations:\n", len(convs))
				for i, conv := range convs {
					fmt.Fprintf(out, "%d. %s (ID: %s) - %d messages\n", i+1, displayTitle(conv), conv.ID(), conv.Len())
				}
				return nil
			})
		},
	}
}

func newExportCommand(flags *di.CLIFlags) *cobra.Command {
	var format, output string

	cmd := &cobra.Command{
		Use:   "export <conversation-id>",
		Short: "Export a conversation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, flags, false, func(ctx context.Context, a *app) error {
				rendered, err := a.manager.Export(args[0], format)
				if err != nil {
					return err
				}
				if err := writeOutput(cmd.OutOrStdout(), output, rendered); err != nil {
					return err
				}
				if output != "" {
					fmt.Fprintf(cmd.OutOrStdout(), "Exported conversation to %s\n", output)
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "text", "Export format (json, text)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file path")
	return cmd
}

func newLoadCommand(flags *di.CLIFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "load <file>",
		Short: "Load conversations from a file into the store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, flags, false, func(ctx context.Context, a *app) error {
				if _, err := os.Stat(args[0]); err != nil {
					return fmt.Errorf("error loading conversations: %w", err)
				}
				records, err := a.storeFactory.CreateJSONStore(args[0]).Load(ctx)
				if err != nil {
					return fmt.Errorf("error loading conversations: %w", err)
				}
				if err := a.manager.Import(records); err != nil {
					return err
				}
				if err := a.manager.Save(ctx, a.store); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Loaded %d conversations from %s\n", len(records), args[0])
				return nil
			})
		},
	}
}

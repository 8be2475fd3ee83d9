package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mikey/llm-spam-scorer/internal/analysis"
	"github.com/mikey/llm-spam-scorer/internal/config"
	"github.com/mikey/llm-spam-scorer/internal/di"
	"github.com/mikey/llm-spam-scorer/internal/factory"
	"github.com/mikey/llm-spam-scorer/internal/ports"
)

func newAnalyzeCommand(flags *di.CLIFlags) *cobra.Command {
	var limit int
	var populate bool

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Score a mailbox folder and write the results to CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, flags, nil, func(
				cfg *config.Config,
				logger *zap.Logger,
				inboxFactory *factory.InboxFactory,
				source ports.InboxSource,
				sink ports.ScoreSink,
				analyzer *analysis.BatchAnalyzer,
			) error {
				inboxCfg := cfg.GetInbox()
				if populate && inboxCfg.Type == "mock" {
					inboxFactory.Populate(inboxCfg.Folder, inboxCfg.EmailCount)
				}

				scores, err := analyzer.AnalyzeAndSave(cmd.Context(), source, inboxCfg.Folder, limit, sink)
				if err != nil {
					return err
				}

				logger.Info("Wrote spam scores",
					zap.Int("rows", len(scores)),
					zap.String("output", cfg.GetOutput().Path))
				fmt.Fprintf(cmd.OutOrStdout(), "Analysis complete. Results saved to: %s\n", cfg.GetOutput().Path)
				return nil
			})
		},
	}

	f := cmd.Flags()
	f.StringP("output", "o", "", "CSV file for the results")
	f.String("unknown-marker", "", "Value written instead of 0.0 for rows without a model score")
	f.Bool("append", false, "Append to the results file instead of replacing it")
	f.String("inbox", "", "Inbox source (mock, mailbox, directory)")
	f.String("directory", "", "Root directory of the directory inbox")
	f.String("folder", "", "Mailbox folder to analyze")
	f.IntVar(&limit, "limit", 0, "Maximum number of emails to analyze (0 for all)")
	f.BoolVar(&populate, "populate", true, "Fill the mock inbox with generated emails first")
	f.Int("email-count", 0, "Number of emails the mock inbox generates")
	f.Int("concurrency", 0, "Emails scored in parallel in isolated mode")
	f.String("mode", "", "Scoring conversation mode (shared, isolated)")
	f.String("timeout", "", "Per-email model call timeout")
	f.Float64("rps", 0, "Maximum model requests per second (0 for unlimited)")
	return cmd
}

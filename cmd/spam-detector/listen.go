package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mikey/llm-spam-scorer/internal/adapters/inbox"
	"github.com/mikey/llm-spam-scorer/internal/analysis"
	"github.com/mikey/llm-spam-scorer/internal/config"
	"github.com/mikey/llm-spam-scorer/internal/core"
	"github.com/mikey/llm-spam-scorer/internal/di"
	"github.com/mikey/llm-spam-scorer/internal/factory"
	"github.com/mikey/llm-spam-scorer/internal/ports"
)

func newListenCommand(flags *di.CLIFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "listen",
		Short: "Accept mail over SMTP and score every delivered message",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Rows accumulate across deliveries
			extra := map[string]interface{}{"output.append": true}

			return run(cmd, flags, extra, func(
				cfg *config.Config,
				logger *zap.Logger,
				inboxFactory *factory.InboxFactory,
				sink ports.ScoreSink,
				analyzer *analysis.BatchAnalyzer,
			) error {
				receiver := inboxFactory.CreateSMTPReceiver(cfg.GetInbox().Folder)
				receiver.OnDeliver(scoreDelivered(analyzer, sink, logger))

				fmt.Fprintf(cmd.OutOrStdout(), "Listening for mail on %s, results in %s\n",
					cfg.GetSMTP().ListenAddress, cfg.GetOutput().Path)
				return receiver.ListenAndServe(cmd.Context())
			})
		},
	}

	cmd.Flags().String("listen", "", "SMTP listen address")
	cmd.Flags().String("folder", "", "Mailbox folder delivered messages are filed under")
	cmd.Flags().StringP("output", "o", "", "CSV file for the results")
	cmd.Flags().String("unknown-marker", "", "Value written instead of 0.0 for rows without a model score")
	return cmd
}

// scoreDelivered scores each delivered email and appends its row to sink
func scoreDelivered(analyzer *analysis.BatchAnalyzer, sink ports.ScoreSink, logger *zap.Logger) inbox.DeliverFunc {
	return func(ctx context.Context, email core.Email) {
		score := analyzer.AnalyzeOne(ctx, email)
		if err := sink.Write(ctx, []core.Score{score}); err != nil {
			logger.Error("Failed to write spam score",
				zap.String("mail_id", email.ID),
				zap.Error(err))
			return
		}
		logger.Info("Scored delivered email",
			zap.String("mail_id", email.ID),
			zap.String("from", email.From),
			zap.Float64("pct_spam", score.Value),
			zap.String("status", string(score.Status)))
	}
}

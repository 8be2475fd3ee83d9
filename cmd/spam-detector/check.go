package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mikey/llm-spam-scorer/internal/adapters/inbox"
	"github.com/mikey/llm-spam-scorer/internal/adapters/sink"
	"github.com/mikey/llm-spam-scorer/internal/analysis"
	"github.com/mikey/llm-spam-scorer/internal/config"
	"github.com/mikey/llm-spam-scorer/internal/di"
)

func newCheckCommand(flags *di.CLIFlags) *cobra.Command {
	var inputFile string

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Score a single RFC 822 email read from a file or stdin",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, flags, nil, func(
				cfg *config.Config,
				logger *zap.Logger,
				analyzer *analysis.BatchAnalyzer,
			) error {
				var reader io.Reader = cmd.InOrStdin()
				id := "stdin"
				if inputFile != "" {
					file, err := os.Open(inputFile)
					if err != nil {
						return fmt.Errorf("failed to open input file: %w", err)
					}
					defer file.Close()
					reader = file
					id = strings.TrimSuffix(filepath.Base(inputFile), ".eml")
					logger.Info("Reading email from file", zap.String("file", inputFile))
				}

				raw, err := io.ReadAll(reader)
				if err != nil {
					return fmt.Errorf("failed to read email: %w", err)
				}
				email, err := inbox.ParseMessage(id, raw)
				if err != nil {
					return fmt.Errorf("failed to parse email: %w", err)
				}

				startTime := time.Now()
				score := analyzer.AnalyzeOne(cmd.Context(), email)

				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "\n=== Email Summary ===\n")
				fmt.Fprintf(out, "From: %s\n", email.From)
				fmt.Fprintf(out, "To: %s\n", strings.Join(email.To, ", "))
				fmt.Fprintf(out, "Subject: %s\n", email.Subject)
				fmt.Fprintf(out, "Body length: %d bytes\n", len(email.Body))

				fmt.Fprintf(out, "\n=== Results ===\n")
				fmt.Fprintf(out, "Provider: %s\n", cfg.GetLLM().Provider)
				fmt.Fprintf(out, "Pct_spam: %s\n", sink.FormatPercent(score.Value))
				fmt.Fprintf(out, "Status: %s\n", score.Status)
				if score.Err != nil {
					fmt.Fprintf(out, "Error: %v\n", score.Err)
				}
				fmt.Fprintf(out, "Processing time: %v\n", time.Since(startTime))
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&inputFile, "file", "f", "", "Input email file (stdin if not specified)")
	return cmd
}

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mikey/llm-spam-scorer/internal/core"
	"github.com/mikey/llm-spam-scorer/internal/di"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	flags := &di.CLIFlags{}

	root := &cobra.Command{
		Use:           "spam-detector",
		Short:         "Score emails for spam probability with a generative model",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.ConfigFile, "config", "", "Path to config file")
	pf.BoolVar(&flags.Verbose, "verbose", false, "Enable verbose logging")
	pf.BoolVar(&flags.JSONLog, "json-log", false, "Output logs in JSON format")
	pf.StringVar(&flags.Model, "model", "", "Model of the selected provider")
	pf.String("provider", "", "LLM provider (openai, gemini, bedrock, echo)")
	pf.StringSlice("whitelist", nil, "Comma-separated list of whitelisted sender domains")
	pf.Int("max-body-size", 0, "Maximum email body size sent to the model")

	root.AddCommand(
		newAnalyzeCommand(flags),
		newListenCommand(flags),
		newCheckCommand(flags),
	)
	return root
}

// flagKeys maps command line flags onto configuration keys
var flagKeys = map[string]string{
	"provider":       "llm.provider",
	"whitelist":      "spam.whitelisted_domains",
	"max-body-size":  "analysis.max_body_size",
	"output":         "output.path",
	"unknown-marker": "output.unknown_marker",
	"append":         "output.append",
	"folder":         "inbox.folder",
	"inbox":          "inbox.type",
	"directory":      "inbox.directory",
	"email-count":    "inbox.email_count",
	"concurrency":    "analysis.concurrency",
	"mode":           "analysis.mode",
	"timeout":        "analysis.timeout",
	"rps":            "analysis.requests_per_second",
	"listen":         "smtp.listen_address",
}

// run builds the container with the flags the user set and invokes fn against it
func run(cmd *cobra.Command, flags *di.CLIFlags, extra map[string]interface{}, fn interface{}) error {
	overrides := make(map[string]interface{})
	for flag, key := range flagKeys {
		f := cmd.Flags().Lookup(flag)
		if f == nil || !f.Changed {
			continue
		}
		if sv, ok := f.Value.(interface{ GetSlice() []string }); ok {
			overrides[key] = sv.GetSlice()
			continue
		}
		overrides[key] = f.Value.String()
	}
	for key, value := range extra {
		overrides[key] = value
	}
	flags.Overrides = overrides

	container, err := di.BuildCLIContainer(flags)
	if err != nil {
		return fmt.Errorf("failed to build dependency container: %w", err)
	}

	defer func() {
		_ = container.Invoke(func(logger *zap.Logger) {
			_ = logger.Sync()
		})
	}()
	defer func() {
		// Fails when the backend was never built, leaving nothing to close
		_ = container.Invoke(func(logger *zap.Logger, backend core.Backend) {
			if closer, ok := backend.(io.Closer); ok {
				if err := closer.Close(); err != nil {
					logger.Error("Failed to close LLM client", zap.Error(err))
				}
			}
		})
	}()

	return container.Invoke(fn)
}

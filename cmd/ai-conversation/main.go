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

	"github.com/mikey/llm-spam-scorer/internal/config"
	"github.com/mikey/llm-spam-scorer/internal/core"
	"github.com/mikey/llm-spam-scorer/internal/di"
	"github.com/mikey/llm-spam-scorer/internal/factory"
)

// app holds the dependencies every subcommand needs
type app struct {
	cfg          *config.Config
	logger       *zap.Logger
	manager      *core.ConversationManager
	store        core.ConversationStore
	storeFactory *factory.StoreFactory
}

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
		Use:           "ai-conversation",
		Short:         "Hold multi-turn conversations with a generative model",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.ConfigFile, "config", "", "Path to config file")
	pf.BoolVar(&flags.Verbose, "verbose", false, "Enable verbose logging")
	pf.BoolVar(&flags.JSONLog, "json-log", false, "Output logs in JSON format")
	pf.StringVar(&flags.Model, "model", "", "Model of the selected provider")
	pf.String("provider", "", "LLM provider (openai, gemini, bedrock, echo)")
	pf.String("store", "", "Conversation store (json, sqlite, mysql, memory)")
	pf.String("store-path", "", "Conversation file for the json store")

	root.AddCommand(
		newChatCommand(flags),
		newListCommand(flags),
		newExportCommand(flags),
		newLoadCommand(flags),
	)
	return root
}

// withApp builds the container, loads stored conversations and runs fn.
// The backend is only built when needBackend is set.
func withApp(cmd *cobra.Command, flags *di.CLIFlags, needBackend bool, fn func(ctx context.Context, a *app) error) error {
	flags.Overrides = overridesFromFlags(cmd)

	container, err := di.BuildCLIContainer(flags)
	if err != nil {
		return fmt.Errorf("failed to build dependency container: %w", err)
	}

	return container.Invoke(func(
		cfg *config.Config,
		logger *zap.Logger,
		store core.ConversationStore,
		storeFactory *factory.StoreFactory,
	) error {
		defer logger.Sync()
		defer closeAll(logger, store)

		manager := core.NewConversationManager(nil, logger)
		if needBackend {
			var backend core.Backend
			err := container.Invoke(func(b core.Backend, m *core.ConversationManager) {
				backend, manager = b, m
			})
			if err != nil {
				return err
			}
			defer closeAll(logger, backend)
		}

		ctx := cmd.Context()
		if err := manager.Load(ctx, store); err != nil {
			return err
		}
		return fn(ctx, &app{
			cfg:          cfg,
			logger:       logger,
			manager:      manager,
			store:        store,
			storeFactory: storeFactory,
		})
	})
}

func overridesFromFlags(cmd *cobra.Command) map[string]interface{} {
	overrides := make(map[string]interface{})
	for flag, key := range map[string]string{
		"provider":   "llm.provider",
		"store":      "store.type",
		"store-path": "store.json_path",
	} {
		if f := cmd.Flags().Lookup(flag); f != nil && f.Changed {
			overrides[key] = f.Value.String()
		}
	}
	return overrides
}

// closeAll releases clients and stores that hold connections
func closeAll(logger *zap.Logger, resources ...interface{}) {
	for _, r := range resources {
		if closer, ok := r.(io.Closer); ok {
			if err := closer.Close(); err != nil {
				logger.Error("Failed to close resource", zap.Error(err))
			}
		}
	}
}

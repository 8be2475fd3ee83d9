package di

import (
	"context"

	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/llm-spam-scorer/internal/adapters/inbox"
	"github.com/mikey/llm-spam-scorer/internal/analysis"
	"github.com/mikey/llm-spam-scorer/internal/config"
	"github.com/mikey/llm-spam-scorer/internal/core"
	"github.com/mikey/llm-spam-scorer/internal/factory"
	"github.com/mikey/llm-spam-scorer/internal/ports"
	"github.com/mikey/llm-spam-scorer/internal/utils"
	"github.com/mikey/llm-spam-scorer/internal/whitelist"
)

// BuildContainer creates and configures a dependency injection container.
// Constructors run lazily, so a command only opens the stores and clients it asks for.
func BuildContainer(cfg *config.Config, logger *zap.Logger) (*dig.Container, error) {
	container := dig.New()

	// Register configuration and logger
	if err := container.Provide(func() *config.Config { return cfg }); err != nil {
		return nil, err
	}
	if err := container.Provide(func() *zap.Logger { return logger }); err != nil {
		return nil, err
	}

	// Register factories
	for _, constructor := range []interface{}{
		factory.NewLLMFactory,
		factory.NewStoreFactory,
		factory.NewInboxFactory,
		factory.NewSinkFactory,
		factory.NewAnalyzerFactory,
	} {
		if err := container.Provide(constructor); err != nil {
			return nil, err
		}
	}

	// Register the process mailbox shared by the mock source and the SMTP receiver
	if err := container.Provide(inbox.NewMailbox); err != nil {
		return nil, err
	}

	// Register backend
	if err := container.Provide(func(f *factory.LLMFactory) (core.Backend, error) {
		return f.CreateBackend(context.Background())
	}); err != nil {
		return nil, err
	}

	// Register conversation manager
	if err := container.Provide(core.NewConversationManager); err != nil {
		return nil, err
	}

	// Register conversation store
	if err := container.Provide(func(f *factory.StoreFactory) (core.ConversationStore, error) {
		return f.CreateStore(context.Background())
	}); err != nil {
		return nil, err
	}

	// Register text processor
	if err := container.Provide(func(f *factory.AnalyzerFactory) *utils.TextProcessor {
		return f.CreateTextProcessor()
	}); err != nil {
		return nil, err
	}

	// Register whitelist
	if err := container.Provide(func(f *factory.AnalyzerFactory) *whitelist.Checker {
		return f.CreateWhitelist()
	}); err != nil {
		return nil, err
	}

	// Register batch analyzer
	if err := container.Provide(func(
		f *factory.AnalyzerFactory,
		manager *core.ConversationManager,
		processor *utils.TextProcessor,
		checker *whitelist.Checker,
	) *analysis.BatchAnalyzer {
		return f.CreateAnalyzer(manager, processor, checker)
	}); err != nil {
		return nil, err
	}

	// Register inbox source
	if err := container.Provide(func(f *factory.InboxFactory) (ports.InboxSource, error) {
		return f.CreateSource()
	}); err != nil {
		return nil, err
	}

	// Register result sink
	if err := container.Provide(func(f *factory.SinkFactory) ports.ScoreSink {
		return f.CreateCSVSink()
	}); err != nil {
		return nil, err
	}

	return container, nil
}

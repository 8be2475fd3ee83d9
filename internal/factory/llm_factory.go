package factory

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/mikey/llm-spam-scorer/internal/adapters/bedrock"
	"github.com/mikey/llm-spam-scorer/internal/adapters/echo"
	"github.com/mikey/llm-spam-scorer/internal/adapters/gemini"
	"github.com/mikey/llm-spam-scorer/internal/adapters/openai"
	"github.com/mikey/llm-spam-scorer/internal/config"
	"github.com/mikey/llm-spam-scorer/internal/core"
)

// LLMFactory creates conversation backends
type LLMFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewLLMFactory creates a new LLM factory
func NewLLMFactory(cfg *config.Config, logger *zap.Logger) *LLMFactory {
	return &LLMFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateBackend creates a new backend based on the configured provider
func (f *LLMFactory) CreateBackend(ctx context.Context) (core.Backend, error) {
	llmConfig := f.cfg.GetLLM()
	logger := f.logger.With(zap.String("provider", llmConfig.Provider))

	switch llmConfig.Provider {
	case "openai":
		client, err := openai.NewFactory(f.cfg.GetOpenAI(), logger).CreateClient()
		if err != nil {
			return nil, err
		}
		return client, nil
	case "gemini":
		client, err := gemini.NewFactory(f.cfg.GetGemini(), logger).CreateClient(ctx)
		if err != nil {
			return nil, err
		}
		return client, nil
	case "bedrock":
		client, err := bedrock.NewFactory(f.cfg.GetBedrock(), logger).CreateClient(ctx)
		if err != nil {
			return nil, err
		}
		return client, nil
	case "echo":
		return echo.NewEchoClient(f.cfg.GetEcho().Reply, logger), nil
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", llmConfig.Provider)
	}
}

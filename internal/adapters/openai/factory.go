package openai

import (
	"fmt"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/mikey/llm-spam-scorer/internal/config"
)

// Factory creates new instances of OpenAIClient
type Factory struct {
	cfg    config.OpenAIConfig
	logger *zap.Logger
}

// NewFactory creates a new factory for OpenAIClient instances
func NewFactory(cfg config.OpenAIConfig, logger *zap.Logger) *Factory {
	return &Factory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateClient creates a new OpenAIClient
func (f *Factory) CreateClient() (*OpenAIClient, error) {
	if f.cfg.APIKey == "" {
		return nil, fmt.Errorf("openai API key is required, set openai.api_key or OPENAI_API_KEY")
	}

	clientCfg := openai.DefaultConfig(f.cfg.APIKey)
	if f.cfg.BaseURL != "" {
		clientCfg.BaseURL = f.cfg.BaseURL
	}

	return NewOpenAIClient(
		openai.NewClientWithConfig(clientCfg),
		f.cfg.ModelName,
		f.cfg.MaxTokens,
		f.cfg.Temperature,
		f.cfg.TopP,
		f.logger,
	), nil
}

package gemini

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/mikey/llm-spam-scorer/internal/config"
)

// Factory creates new instances of GeminiClient
type Factory struct {
	cfg    config.GeminiConfig
	logger *zap.Logger
}

// NewFactory creates a new factory for GeminiClient instances
func NewFactory(cfg config.GeminiConfig, logger *zap.Logger) *Factory {
	return &Factory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateClient creates a new GeminiClient
func (f *Factory) CreateClient(ctx context.Context) (*GeminiClient, error) {
	if f.cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required, set gemini.api_key or GEMINI_API_KEY")
	}
	return NewGeminiClient(
		ctx,
		f.cfg.APIKey,
		f.cfg.ModelName,
		f.cfg.MaxTokens,
		f.cfg.Temperature,
		f.cfg.TopP,
		f.logger,
	)
}

package factory

import (
	"go.uber.org/zap"

	"github.com/mikey/llm-spam-scorer/internal/analysis"
	"github.com/mikey/llm-spam-scorer/internal/config"
	"github.com/mikey/llm-spam-scorer/internal/core"
	"github.com/mikey/llm-spam-scorer/internal/utils"
	"github.com/mikey/llm-spam-scorer/internal/whitelist"
)

// AnalyzerFactory creates batch analyzers
type AnalyzerFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewAnalyzerFactory creates a new AnalyzerFactory
func NewAnalyzerFactory(cfg *config.Config, logger *zap.Logger) *AnalyzerFactory {
	return &AnalyzerFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// Options maps the analysis configuration onto analyzer options
func (f *AnalyzerFactory) Options() analysis.Options {
	a := f.cfg.GetAnalysis()
	return analysis.Options{
		Mode:              analysis.Mode(a.Mode),
		Concurrency:       a.Concurrency,
		Timeout:           a.Timeout,
		MaxBodySize:       a.MaxBodySize,
		RequestsPerSecond: a.RequestsPerSecond,
		SystemPrompt:      a.SystemPrompt,
	}
}

// CreateTextProcessor creates a new TextProcessor
func (f *AnalyzerFactory) CreateTextProcessor() *utils.TextProcessor {
	return utils.NewTextProcessor(f.logger)
}

// CreateWhitelist creates the sender whitelist
func (f *AnalyzerFactory) CreateWhitelist() *whitelist.Checker {
	return whitelist.NewChecker(f.cfg.GetAnalysis().WhitelistedDomains, f.logger)
}

// CreateAnalyzer creates a batch analyzer over manager
func (f *AnalyzerFactory) CreateAnalyzer(manager *core.ConversationManager, processor *utils.TextProcessor, checker *whitelist.Checker) *analysis.BatchAnalyzer {
	return analysis.NewBatchAnalyzer(
		manager,
		analysis.NewScoreExtractor(),
		processor,
		checker,
		f.logger,
		f.Options(),
	)
}

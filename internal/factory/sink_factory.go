package factory

import (
	"go.uber.org/zap"

	"github.com/mikey/llm-spam-scorer/internal/adapters/sink"
	"github.com/mikey/llm-spam-scorer/internal/config"
)

// SinkFactory creates result sinks based on configuration
type SinkFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewSinkFactory creates a new sink factory
func NewSinkFactory(cfg *config.Config, logger *zap.Logger) *SinkFactory {
	return &SinkFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateCSVSink creates the CSV sink for the configured output file
func (f *SinkFactory) CreateCSVSink() *sink.CSVSink {
	out := f.cfg.GetOutput()
	return sink.NewCSVSink(out.Path, out.UnknownMarker, out.Append, f.logger)
}

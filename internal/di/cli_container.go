package di

import (
	"fmt"

	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/mikey/llm-spam-scorer/internal/config"
	"github.com/mikey/llm-spam-scorer/internal/logging"
)

// CLIFlags contains the command line settings shared by the CLI applications
type CLIFlags struct {
	ConfigFile string
	Verbose    bool
	JSONLog    bool

	// Model, when set, replaces the model of whichever provider is active
	Model string

	// Overrides maps config keys to values of flags the user set explicitly
	Overrides map[string]interface{}
}

// BuildCLIContainer loads configuration, applies flag overrides and builds the container
func BuildCLIContainer(flags *CLIFlags) (*dig.Container, error) {
	logger, err := logging.InitConsoleLogger(flags.Verbose, flags.JSONLog)
	if err != nil {
		return nil, err
	}

	cfg, err := LoadCLIConfig(flags)
	if err != nil {
		return nil, err
	}
	if used := cfg.GetViper().ConfigFileUsed(); used != "" {
		logger.Info("Loaded configuration from file", zap.String("file", used))
	}

	return BuildContainer(cfg, logger)
}

// LoadCLIConfig reads the configuration and layers the flag overrides on top
func LoadCLIConfig(flags *CLIFlags) (*config.Config, error) {
	cfg, err := config.NewWithFile(flags.ConfigFile)
	if err != nil {
		return nil, err
	}
	for key, value := range flags.Overrides {
		cfg.Set(key, value)
	}
	if key := modelKey(cfg.GetLLM().Provider); flags.Model != "" && key != "" {
		cfg.Set(key, flags.Model)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func modelKey(provider string) string {
	switch provider {
	case "bedrock":
		return "bedrock.model_id"
	case "gemini":
		return "gemini.model_name"
	case "echo":
		return ""
	default:
		return "openai.model_name"
	}
}

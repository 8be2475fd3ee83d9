package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every configuration key looked up in the environment
const EnvPrefix = "SPAM_SCORER"

// Config represents the application configuration
type Config struct {
	v *viper.Viper
}

// New creates a new configuration instance from the default search paths
func New() (*Config, error) {
	return NewWithFile("")
}

// NewWithFile creates a new configuration instance. An empty path searches the default locations.
func NewWithFile(path string) (*Config, error) {
	// A missing .env is not an error, variables already set in the environment win
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("/etc/llm-spam-scorer/")
		v.AddConfigPath("$HOME/.llm-spam-scorer")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	// Set defaults
	setDefaults(v)

	// Environment variables
	v.AutomaticEnv()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	if err := bindWellKnownEnv(v); err != nil {
		return nil, err
	}

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found, using defaults
	}

	return &Config{v: v}, nil
}

// NewFromViper creates a new configuration instance from an existing Viper instance
func NewFromViper(v *viper.Viper) *Config {
	return &Config{v: v}
}

// NewEmptyViper creates a new Viper instance with defaults
func NewEmptyViper() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	return v
}

// bindWellKnownEnv maps the unprefixed variables used by provider tooling onto config keys
func bindWellKnownEnv(v *viper.Viper) error {
	bindings := map[string][]string{
		"openai.api_key":     {"OPENAI_API_KEY"},
		"openai.base_url":    {"OPENAI_BASE_URL"},
		"openai.model_name":  {"MODEL"},
		"openai.temperature": {"TEMPERATURE"},
		"openai.max_tokens":  {"MAX_TOKENS"},
		"gemini.api_key":     {"GEMINI_API_KEY"},
	}
	for key, names := range bindings {
		prefixed := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		args := append([]string{key, prefixed}, names...)
		if err := v.BindEnv(args...); err != nil {
			return fmt.Errorf("failed to bind environment for %s: %w", key, err)
		}
	}
	return nil
}

// setDefaults sets the default configuration values
func setDefaults(v *viper.Viper) {
	// LLM provider defaults
	v.SetDefault("llm.provider", "openai")

	// OpenAI defaults
	v.SetDefault("openai.api_key", "")
	v.SetDefault("openai.base_url", "")
	v.SetDefault("openai.model_name", "gpt-3.5-turbo")
	v.SetDefault("openai.max_tokens", 1000)
	v.SetDefault("openai.temperature", 0.7)
	v.SetDefault("openai.top_p", 1.0)

	// Gemini defaults
	v.SetDefault("gemini.api_key", "")
	v.SetDefault("gemini.model_name", "gemini-1.5-flash")
	v.SetDefault("gemini.max_tokens", 1000)
	v.SetDefault("gemini.temperature", 0.7)
	v.SetDefault("gemini.top_p", 0.9)

	// Bedrock defaults
	v.SetDefault("bedrock.region", "us-east-1")
	v.SetDefault("bedrock.model_id", "anthropic.claude-3-haiku-20240307-v1:0")
	v.SetDefault("bedrock.max_tokens", 1000)
	v.SetDefault("bedrock.temperature", 0.7)
	v.SetDefault("bedrock.top_p", 0.9)

	// Echo defaults
	v.SetDefault("echo.reply", "")

	// Analysis defaults
	v.SetDefault("analysis.mode", "isolated")
	v.SetDefault("analysis.concurrency", 4)
	v.SetDefault("analysis.timeout", "60s")
	v.SetDefault("analysis.max_body_size", 4096)
	v.SetDefault("analysis.requests_per_second", 0.0)
	v.SetDefault("analysis.system_prompt", "")

	// Spam defaults
	v.SetDefault("spam.whitelisted_domains", []string{})

	// Store defaults
	v.SetDefault("store.type", "json")
	v.SetDefault("store.json_path", "conversations.json")
	v.SetDefault("store.sqlite_path", "conversations.db")
	v.SetDefault("store.mysql_dsn", "user:password@tcp(localhost:3306)/conversations")

	// Inbox defaults
	v.SetDefault("inbox.type", "mock")
	v.SetDefault("inbox.folder", "INBOX")
	v.SetDefault("inbox.directory", "./mail")
	v.SetDefault("inbox.email_count", 15)

	// Output defaults
	v.SetDefault("output.path", "spam_results.csv")
	v.SetDefault("output.unknown_marker", "")
	v.SetDefault("output.append", false)

	// SMTP receiver defaults
	v.SetDefault("smtp.listen_address", "0.0.0.0:10025")
	v.SetDefault("smtp.domain", "localhost")
	v.SetDefault("smtp.max_message_bytes", 10*1024*1024)
	v.SetDefault("smtp.max_recipients", 50)
	v.SetDefault("smtp.read_timeout", "30s")
	v.SetDefault("smtp.write_timeout", "30s")

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}

// Validate checks the values that would otherwise only fail deep inside a command
func (c *Config) Validate() error {
	switch p := c.GetString("llm.provider"); p {
	case "openai", "gemini", "bedrock", "echo":
	default:
		return fmt.Errorf("unsupported LLM provider: %s", p)
	}
	switch m := c.GetString("analysis.mode"); m {
	case "shared", "isolated":
	default:
		return fmt.Errorf("unsupported analysis mode: %s", m)
	}
	for _, key := range []string{"analysis.timeout", "smtp.read_timeout", "smtp.write_timeout"} {
		if _, err := c.GetDuration(key); err != nil {
			return fmt.Errorf("invalid duration for %s: %w", key, err)
		}
	}
	return nil
}

// Set overrides a configuration value, used for command-line flags
func (c *Config) Set(key string, value interface{}) {
	c.v.Set(key, value)
}

// GetString gets a string value from the configuration
func (c *Config) GetString(key string) string {
	return c.v.GetString(key)
}

// GetInt gets an integer value from the configuration
func (c *Config) GetInt(key string) int {
	return c.v.GetInt(key)
}

// GetFloat64 gets a float64 value from the configuration
func (c *Config) GetFloat64(key string) float64 {
	return c.v.GetFloat64(key)
}

// GetBool gets a boolean value from the configuration
func (c *Config) GetBool(key string) bool {
	return c.v.GetBool(key)
}

// GetStringSlice gets a string slice value from the configuration
func (c *Config) GetStringSlice(key string) []string {
	return c.v.GetStringSlice(key)
}

// GetDuration gets a duration value from the configuration
func (c *Config) GetDuration(key string) (time.Duration, error) {
	return time.ParseDuration(c.GetString(key))
}

// GetViper returns the underlying Viper instance
func (c *Config) GetViper() *viper.Viper {
	return c.v
}

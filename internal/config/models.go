package config

import "time"

// LLMConfig represents the configuration for the LLM provider
type LLMConfig struct {
	Provider string
}

// OpenAIConfig represents the configuration for OpenAI
type OpenAIConfig struct {
	APIKey      string
	BaseURL     string
	ModelName   string
	MaxTokens   int
	Temperature float32
	TopP        float32
}

// GeminiConfig represents the configuration for Google Gemini
type GeminiConfig struct {
	APIKey      string
	ModelName   string
	MaxTokens   int
	Temperature float32
	TopP        float32
}

// BedrockConfig represents the configuration for Amazon Bedrock
type BedrockConfig struct {
	Region      string
	ModelID     string
	MaxTokens   int
	Temperature float32
	TopP        float32
}

// EchoConfig represents the configuration for the offline echo backend
type EchoConfig struct {
	Reply string
}

// AnalysisConfig represents the configuration for batch spam scoring
type AnalysisConfig struct {
	Mode               string
	Concurrency        int
	Timeout            time.Duration
	MaxBodySize        int
	RequestsPerSecond  float64
	SystemPrompt       string
	WhitelistedDomains []string
}

// StoreConfig represents the configuration for conversation persistence
type StoreConfig struct {
	Type       string
	JSONPath   string
	SQLitePath string
	MySQLDSN   string
}

// InboxConfig represents the configuration for the email source
type InboxConfig struct {
	Type       string
	Folder     string
	Directory  string
	EmailCount int
}

// OutputConfig represents the configuration for the results file
type OutputConfig struct {
	Path          string
	UnknownMarker string
	Append        bool
}

// SMTPConfig represents the configuration for the SMTP receiver
type SMTPConfig struct {
	ListenAddress   string
	Domain          string
	MaxMessageBytes int64
	MaxRecipients   int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
}

// LoggingConfig represents the logging configuration
type LoggingConfig struct {
	Level  string
	Format string
}

// GetLLM returns the LLM configuration
func (c *Config) GetLLM() LLMConfig {
	return LLMConfig{
		Provider: c.GetString("llm.provider"),
	}
}

// GetOpenAI returns the OpenAI configuration
func (c *Config) GetOpenAI() OpenAIConfig {
	return OpenAIConfig{
		APIKey:      c.GetString("openai.api_key"),
		BaseURL:     c.GetString("openai.base_url"),
		ModelName:   c.GetString("openai.model_name"),
		MaxTokens:   c.GetInt("openai.max_tokens"),
		Temperature: float32(c.GetFloat64("openai.temperature")),
		TopP:        float32(c.GetFloat64("openai.top_p")),
	}
}

// GetGemini returns the Gemini configuration
func (c *Config) GetGemini() GeminiConfig {
	return GeminiConfig{
		APIKey:      c.GetString("gemini.api_key"),
		ModelName:   c.GetString("gemini.model_name"),
		MaxTokens:   c.GetInt("gemini.max_tokens"),
		Temperature: float32(c.GetFloat64("gemini.temperature")),
		TopP:        float32(c.GetFloat64("gemini.top_p")),
	}
}

// GetBedrock returns the Bedrock configuration
func (c *Config) GetBedrock() BedrockConfig {
	return BedrockConfig{
		Region:      c.GetString("bedrock.region"),
		ModelID:     c.GetString("bedrock.model_id"),
		MaxTokens:   c.GetInt("bedrock.max_tokens"),
		Temperature: float32(c.GetFloat64("bedrock.temperature")),
		TopP:        float32(c.GetFloat64("bedrock.top_p")),
	}
}

// GetEcho returns the echo backend configuration
func (c *Config) GetEcho() EchoConfig {
	return EchoConfig{
		Reply: c.GetString("echo.reply"),
	}
}

// GetAnalysis returns the analysis configuration. Call Validate first to reject malformed durations.
func (c *Config) GetAnalysis() AnalysisConfig {
	timeout, _ := c.GetDuration("analysis.timeout")
	return AnalysisConfig{
		Mode:               c.GetString("analysis.mode"),
		Concurrency:        c.GetInt("analysis.concurrency"),
		Timeout:            timeout,
		MaxBodySize:        c.GetInt("analysis.max_body_size"),
		RequestsPerSecond:  c.GetFloat64("analysis.requests_per_second"),
		SystemPrompt:       c.GetString("analysis.system_prompt"),
		WhitelistedDomains: c.GetStringSlice("spam.whitelisted_domains"),
	}
}

// GetStore returns the conversation store configuration
func (c *Config) GetStore() StoreConfig {
	return StoreConfig{
		Type:       c.GetString("store.type"),
		JSONPath:   c.GetString("store.json_path"),
		SQLitePath: c.GetString("store.sqlite_path"),
		MySQLDSN:   c.GetString("store.mysql_dsn"),
	}
}

// GetInbox returns the inbox configuration
func (c *Config) GetInbox() InboxConfig {
	return InboxConfig{
		Type:       c.GetString("inbox.type"),
		Folder:     c.GetString("inbox.folder"),
		Directory:  c.GetString("inbox.directory"),
		EmailCount: c.GetInt("inbox.email_count"),
	}
}

// GetOutput returns the results file configuration
func (c *Config) GetOutput() OutputConfig {
	return OutputConfig{
		Path:          c.GetString("output.path"),
		UnknownMarker: c.GetString("output.unknown_marker"),
		Append:        c.GetBool("output.append"),
	}
}

// GetSMTP returns the SMTP receiver configuration
func (c *Config) GetSMTP() SMTPConfig {
	readTimeout, _ := c.GetDuration("smtp.read_timeout")
	writeTimeout, _ := c.GetDuration("smtp.write_timeout")
	return SMTPConfig{
		ListenAddress:   c.GetString("smtp.listen_address"),
		Domain:          c.GetString("smtp.domain"),
		MaxMessageBytes: int64(c.GetInt("smtp.max_message_bytes")),
		MaxRecipients:   c.GetInt("smtp.max_recipients"),
		ReadTimeout:     readTimeout,
		WriteTimeout:    writeTimeout,
	}
}

// GetLogging returns the logging configuration
func (c *Config) GetLogging() LoggingConfig {
	return LoggingConfig{
		Level:  c.GetString("logging.level"),
		Format: c.GetString("logging.format"),
	}
}

package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/tieubaoca/docqa/apperror"
)

const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
	ProviderOllama = "ollama"

	FailureModeAbort   = "abort"
	FailureModePartial = "partial"
)

type Config struct {
	Server ServerConfig `mapstructure:"server"`
	LLM    LLMConfig    `mapstructure:"llm"`
	Fetch  FetchConfig  `mapstructure:"fetch"`
	QA     QAConfig     `mapstructure:"qa"`
	Log    LogConfig    `mapstructure:"log"`
}

type ServerConfig struct {
	Port            string        `mapstructure:"port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type LLMConfig struct {
	Provider    string        `mapstructure:"provider"`
	BaseURL     string        `mapstructure:"base_url"`
	APIKey      string        `mapstructure:"api_key"`
	Model       string        `mapstructure:"model"`
	Temperature float32       `mapstructure:"temperature"`
	TopP        float32       `mapstructure:"top_p"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

type FetchConfig struct {
	Timeout      time.Duration `mapstructure:"timeout"`
	Retries      int           `mapstructure:"retries"`
	RetryBackoff time.Duration `mapstructure:"retry_backoff"`
	MaxBytes     int64         `mapstructure:"max_bytes"`
}

type QAConfig struct {
	Concurrency  int    `mapstructure:"concurrency"`
	FailureMode  string `mapstructure:"failure_mode"`
	DebugPreview bool   `mapstructure:"debug_preview"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// providerDefaults holds the base URL and model used when none is configured.
var providerDefaults = map[string]struct{ baseURL, model string }{
	ProviderOpenAI: {"https://integrate.api.nvidia.com/v1", "nvidia/llama-3.3-nemotron-super-49b-v1.5"},
	ProviderGemini: {"", "gemini-1.5-flash"},
	ProviderOllama: {"http://localhost:11434", "llama3.1"},
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8000")
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("llm.provider", ProviderOpenAI)
	v.SetDefault("llm.base_url", "")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.model", "")
	v.SetDefault("llm.temperature", 0.6)
	v.SetDefault("llm.top_p", 0.95)
	v.SetDefault("llm.max_tokens", 2048)
	v.SetDefault("llm.timeout", 120*time.Second)

	v.SetDefault("fetch.timeout", 30*time.Second)
	v.SetDefault("fetch.retries", 1)
	v.SetDefault("fetch.retry_backoff", 500*time.Millisecond)
	v.SetDefault("fetch.max_bytes", int64(25<<20))

	v.SetDefault("qa.concurrency", 1)
	v.SetDefault("qa.failure_mode", FailureModeAbort)
	v.SetDefault("qa.debug_preview", false)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// New returns a viper instance with defaults and environment bindings
// applied. Callers may bind flags to it before calling Load.
func New() *viper.Viper {
	v := viper.New()
	setDefaults(v)

	// Set up Viper to read from environment variables: llm.api_key -> LLM_API_KEY
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Provider specific credentials, checked in order
	v.BindEnv("llm.api_key", "LLM_API_KEY", "OPENAI_API_KEY", "NVIDIA_API_KEY", "GEMINI_API_KEY")
	v.BindEnv("server.port", "SERVER_PORT", "PORT")
	return v
}

// LoadConfig reads configPath (optional) on top of defaults and the
// environment, and validates the result.
func LoadConfig(configPath string) (*Config, error) {
	return Load(New(), configPath)
}

// Load reads configPath into v and unmarshals and validates the result.
func Load(v *viper.Viper, configPath string) (*Config, error) {
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, apperror.New(apperror.Config, "error reading config file", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, apperror.New(apperror.Config, "error unmarshaling config", err)
	}
	config.applyProviderDefaults()

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *Config) applyProviderDefaults() {
	c.LLM.Provider = strings.ToLower(strings.TrimSpace(c.LLM.Provider))
	c.QA.FailureMode = strings.ToLower(strings.TrimSpace(c.QA.FailureMode))
	d, ok := providerDefaults[c.LLM.Provider]
	if !ok {
		return
	}
	if c.LLM.BaseURL == "" {
		c.LLM.BaseURL = d.baseURL
	}
	if c.LLM.Model == "" {
		c.LLM.Model = d.model
	}
}

// Validate reports every configuration problem at once.
func (c *Config) Validate() error {
	var errs []error

	switch c.LLM.Provider {
	case ProviderOpenAI, ProviderGemini:
		if strings.TrimSpace(c.LLM.APIKey) == "" {
			errs = append(errs, fmt.Errorf("llm.api_key is required for provider %q (set LLM_API_KEY)", c.LLM.Provider))
		}
	case ProviderOllama:
	default:
		errs = append(errs, fmt.Errorf("unknown llm.provider %q", c.LLM.Provider))
	}
	if c.LLM.Provider != ProviderGemini && c.LLM.BaseURL == "" {
		errs = append(errs, errors.New("llm.base_url is required"))
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		errs = append(errs, fmt.Errorf("llm.temperature must be between 0 and 2, got %v", c.LLM.Temperature))
	}
	if c.LLM.TopP <= 0 || c.LLM.TopP > 1 {
		errs = append(errs, fmt.Errorf("llm.top_p must be in (0, 1], got %v", c.LLM.TopP))
	}
	if c.LLM.MaxTokens <= 0 {
		errs = append(errs, fmt.Errorf("llm.max_tokens must be positive, got %d", c.LLM.MaxTokens))
	}
	if c.Fetch.Retries < 0 {
		errs = append(errs, fmt.Errorf("fetch.retries cannot be negative, got %d", c.Fetch.Retries))
	}
	if c.Fetch.MaxBytes <= 0 {
		errs = append(errs, fmt.Errorf("fetch.max_bytes must be positive, got %d", c.Fetch.MaxBytes))
	}
	if c.QA.Concurrency < 1 {
		errs = append(errs, fmt.Errorf("qa.concurrency must be at least 1, got %d", c.QA.Concurrency))
	}
	if c.QA.FailureMode != FailureModeAbort && c.QA.FailureMode != FailureModePartial {
		errs = append(errs, fmt.Errorf("qa.failure_mode must be %q or %q, got %q", FailureModeAbort, FailureModePartial, c.QA.FailureMode))
	}

	if len(errs) > 0 {
		return apperror.New(apperror.Config, "invalid configuration", errors.Join(errs...))
	}
	return nil
}

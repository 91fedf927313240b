package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/santiagomed/devspark/internal/llm"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
)

// Config stores all configuration of the application.
type Config struct {
	Provider        string        `mapstructure:"provider"`
	GeminiModel     string        `mapstructure:"gemini_model"`
	OpenAIModel     string        `mapstructure:"openai_model"`
	GoogleAPIKey    string        `mapstructure:"google_api_key"`
	OpenAIAPIKey    string        `mapstructure:"openai_api_key"`
	OpenAIBaseURL   string        `mapstructure:"openai_base_url"`
	Temperature     float32       `mapstructure:"temperature"`
	MaxOutputTokens int           `mapstructure:"max_output_tokens"`
	RequestTimeout  time.Duration `mapstructure:"request_timeout"`
	TemplatesDir    string        `mapstructure:"templates_dir"`
	OutputDir       string        `mapstructure:"output_dir"`
	CacheTTL        time.Duration `mapstructure:"cache_ttl"`
	MaxRetries      int           `mapstructure:"max_retries"`
	RetryBaseDelay  time.Duration `mapstructure:"retry_base_delay"`
	LogLevel        string        `mapstructure:"log_level"`
	LogDir          string        `mapstructure:"log_dir"`
	TellmURL        string        `mapstructure:"tellm_url"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("provider", string(llm.ProviderGemini))
	v.SetDefault("gemini_model", "gemini-1.5-flash-latest")
	v.SetDefault("openai_model", "gpt-4o-mini")
	v.SetDefault("temperature", 0.2)
	v.SetDefault("max_output_tokens", 8192)
	v.SetDefault("request_timeout", "2m")
	v.SetDefault("templates_dir", "templates")
	v.SetDefault("output_dir", ".")
	v.SetDefault("cache_ttl", "1h")
	v.SetDefault("max_retries", 3)
	v.SetDefault("retry_base_delay", "1s")
	v.SetDefault("log_level", "debug")
	v.SetDefault("log_dir", "")
	v.SetDefault("tellm_url", "")
	v.SetDefault("openai_base_url", "")
	v.SetDefault("google_api_key", "")
	v.SetDefault("openai_api_key", "")
}

// DefaultConfig returns the configuration used when no file or environment
// overrides are present.
func DefaultConfig() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("invalid default configuration: %v", err))
	}
	return &cfg
}

// Load reads configuration from the OS filesystem and environment.
func Load(configPath string) (*Config, error) {
	return LoadFs(afero.NewOsFs(), configPath)
}

// LoadFs reads config.yaml from configPath, the working directory or
// ~/.devspark on fs, then applies DEVSPARK_* and provider key environment
// variables on top.
func LoadFs(fs afero.Fs, configPath string) (*Config, error) {
	v := viper.New()
	v.SetFs(fs)
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if configPath != "" {
		v.AddConfigPath(configPath)
	}
	v.AddConfigPath(".")
	if dir, err := Dir(); err == nil {
		v.AddConfigPath(dir)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix("devspark")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("google_api_key", "GOOGLE_API_KEY", "DEVSPARK_GOOGLE_API_KEY")
	_ = v.BindEnv("openai_api_key", "OPENAI_API_KEY", "DEVSPARK_OPENAI_API_KEY")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks value ranges. Provider names are checked later, when a
// client is configured.
func (c *Config) Validate() error {
	if c.MaxRetries < 0 {
		return fmt.Errorf("max_retries must not be negative, got %d", c.MaxRetries)
	}
	if c.CacheTTL < 0 {
		return fmt.Errorf("cache_ttl must not be negative, got %s", c.CacheTTL)
	}
	if c.RetryBaseDelay < 0 {
		return fmt.Errorf("retry_base_delay must not be negative, got %s", c.RetryBaseDelay)
	}
	return nil
}

// APIKey returns the credential configured for p.
func (c *Config) APIKey(p llm.Provider) string {
	switch p {
	case llm.ProviderGemini:
		return c.GoogleAPIKey
	case llm.ProviderOpenAI:
		return c.OpenAIAPIKey
	}
	return ""
}

// Model returns the model configured for p.
func (c *Config) Model(p llm.Provider) string {
	switch p {
	case llm.ProviderOpenAI:
		return c.OpenAIModel
	default:
		return c.GeminiModel
	}
}

// ClientConfig derives the gateway settings for p.
func (c *Config) ClientConfig(p llm.Provider) llm.ClientConfig {
	cc := llm.ClientConfig{
		Model:           c.Model(p),
		Temperature:     c.Temperature,
		MaxOutputTokens: c.MaxOutputTokens,
		Timeout:         c.RequestTimeout,
	}
	if p == llm.ProviderOpenAI {
		cc.BaseURL = c.OpenAIBaseURL
	}
	return cc
}

// Dir returns ~/.devspark.
func Dir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("unable to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".devspark"), nil
}

const defaultConfigFile = `# devspark configuration

# LLM provider: gemini (alias google) or openai
provider: gemini

# Credentials are usually taken from GOOGLE_API_KEY / OPENAI_API_KEY
# google_api_key: "your-api-key-here"
# openai_api_key: "your-api-key-here"

gemini_model: gemini-1.5-flash-latest
openai_model: gpt-4o-mini

# Directory holding <name>.json project templates
templates_dir: templates

# Response cache lifetime and retry policy
cache_ttl: 1h
max_retries: 3
retry_base_delay: 1s

log_level: debug
`

// WriteDefault writes a commented config.yaml into dir on fs and returns its
// path. An existing file is left untouched.
func WriteDefault(fs afero.Fs, dir string) (string, error) {
	if err := fs.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("unable to create config directory: %w", err)
	}
	configPath := filepath.Join(dir, "config.yaml")
	exists, err := afero.Exists(fs, configPath)
	if err != nil {
		return "", fmt.Errorf("unable to stat config file: %w", err)
	}
	if exists {
		return configPath, nil
	}
	if err := afero.WriteFile(fs, configPath, []byte(defaultConfigFile), 0644); err != nil {
		return "", fmt.Errorf("unable to write default config file: %w", err)
	}
	return configPath, nil
}

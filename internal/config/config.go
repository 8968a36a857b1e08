// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/apex/log"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	ProviderOpenAI = "openai"
	ProviderStub   = "stub"
)

type Config struct {
	// Vision model
	Provider    string  `yaml:"provider"`
	APIKey      string  `yaml:"api_key"`
	BaseURL     string  `yaml:"base_url"`
	Model       string  `yaml:"model"`
	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float64 `yaml:"temperature"`
	ImageDetail string  `yaml:"image_detail"`

	// Request policy
	RequestTimeout time.Duration `yaml:"request_timeout"`
	MaxRetries     int           `yaml:"max_retries"`
	RetryBackoff   time.Duration `yaml:"retry_backoff"`

	// Analysis
	MaxImageBytes int64 `yaml:"max_image_bytes"`
	StrictRanges  bool  `yaml:"strict_ranges"`

	// Server
	Host string `yaml:"host"`
	Port int    `yaml:"port"`

	// Logging
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

func Default() *Config {
	return &Config{
		Provider:       ProviderOpenAI,
		BaseURL:        "https://api.openai.com/v1",
		Model:          "gpt-4o",
		MaxTokens:      500,
		Temperature:    0.1,
		ImageDetail:    "high",
		RequestTimeout: 60 * time.Second,
		MaxRetries:     2,
		RetryBackoff:   500 * time.Millisecond,
		MaxImageBytes:  20 << 20,
		Host:           "0.0.0.0",
		Port:           8012,
		LogLevel:       "info",
		LogFormat:      "text",
	}
}

// Load builds the configuration from defaults, the optional YAML file at path,
// a .env file in the working directory and finally the process environment.
// A missing API key is not an error: the analysis client reports it per call.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.WithError(err).Warn("Ignoring unreadable .env file")
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Provider = getEnv("MEAL_SCAN_PROVIDER", c.Provider)
	c.APIKey = getEnv("OPENAI_API_KEY", getEnv("EXPO_PUBLIC_OPENAI_API_KEY", c.APIKey))
	c.BaseURL = getEnv("OPENAI_BASE_URL", c.BaseURL)
	c.Model = getEnv("OPENAI_MODEL", c.Model)
	c.MaxTokens = getIntEnv("OPENAI_MAX_TOKENS", c.MaxTokens)
	c.Temperature = getFloatEnv("OPENAI_TEMPERATURE", c.Temperature)
	c.ImageDetail = getEnv("OPENAI_IMAGE_DETAIL", c.ImageDetail)
	c.RequestTimeout = getDurationEnv("REQUEST_TIMEOUT", c.RequestTimeout)
	c.MaxRetries = getIntEnv("MAX_RETRIES", c.MaxRetries)
	c.RetryBackoff = getDurationEnv("RETRY_BACKOFF", c.RetryBackoff)
	c.MaxImageBytes = int64(getIntEnv("MAX_IMAGE_BYTES", int(c.MaxImageBytes)))
	c.StrictRanges = getBoolEnv("STRICT_RANGES", c.StrictRanges)
	c.Host = getEnv("HOST", c.Host)
	c.Port = getIntEnv("PORT", c.Port)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.LogFormat = getEnv("LOG_FORMAT", c.LogFormat)
}

func (c *Config) Validate() error {
	switch c.Provider {
	case ProviderOpenAI, ProviderStub:
	default:
		return fmt.Errorf("unknown provider %q", c.Provider)
	}
	if c.MaxTokens <= 0 {
		return fmt.Errorf("max_tokens must be positive, got %d", c.MaxTokens)
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max_retries must not be negative, got %d", c.MaxRetries)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be positive, got %v", c.RequestTimeout)
	}
	if c.MaxImageBytes <= 0 {
		return fmt.Errorf("max_image_bytes must be positive, got %d", c.MaxImageBytes)
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log_level %q: %w", c.LogLevel, err)
	}
	return nil
}

// CredentialConfigured reports whether a model API key is available.
func (c *Config) CredentialConfigured() bool {
	return strings.TrimSpace(c.APIKey) != ""
}

// CredentialRequired is false for the offline stub provider.
func (c *Config) CredentialRequired() bool {
	return c.Provider != ProviderStub
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

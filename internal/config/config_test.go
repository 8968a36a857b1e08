package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/apex/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"MEAL_SCAN_PROVIDER", "OPENAI_API_KEY", "EXPO_PUBLIC_OPENAI_API_KEY", "OPENAI_BASE_URL",
		"OPENAI_MODEL", "OPENAI_MAX_TOKENS", "OPENAI_TEMPERATURE", "OPENAI_IMAGE_DETAIL",
		"REQUEST_TIMEOUT", "MAX_RETRIES", "RETRY_BACKOFF", "MAX_IMAGE_BYTES", "STRICT_RANGES",
		"HOST", "PORT", "LOG_LEVEL", "LOG_FORMAT",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ProviderOpenAI, cfg.Provider)
	assert.Equal(t, "gpt-4o", cfg.Model)
	assert.Equal(t, 500, cfg.MaxTokens)
	assert.Equal(t, 0.1, cfg.Temperature)
	assert.Equal(t, "high", cfg.ImageDetail)
	assert.Equal(t, 60*time.Second, cfg.RequestTimeout)
	assert.False(t, cfg.CredentialConfigured())
}

func TestCredentialRequired(t *testing.T) {
	cfg := Default()
	assert.True(t, cfg.CredentialRequired())

	cfg.Provider = ProviderStub
	assert.False(t, cfg.CredentialRequired())
}

func TestLoad_FileThenEnvironment(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "meal-scan.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
model: gpt-4o-mini
max_tokens: 800
request_timeout: 15s
retry_backoff: 250ms
strict_ranges: true
port: 9000
`), 0o644))

	t.Setenv("EXPO_PUBLIC_OPENAI_API_KEY", "sk-from-expo")
	t.Setenv("OPENAI_MODEL", "gpt-4.1")
	t.Setenv("MAX_RETRIES", "4")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "gpt-4.1", cfg.Model)
	assert.Equal(t, 800, cfg.MaxTokens)
	assert.Equal(t, 15*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 250*time.Millisecond, cfg.RetryBackoff)
	assert.Equal(t, 4, cfg.MaxRetries)
	assert.True(t, cfg.StrictRanges)
	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, "sk-from-expo", cfg.APIKey)
	assert.True(t, cfg.CredentialConfigured())
}

func TestLoad_OpenAIKeyWinsOverExpoKey(t *testing.T) {
	clearEnv(t)
	t.Setenv("EXPO_PUBLIC_OPENAI_API_KEY", "sk-expo")
	t.Setenv("OPENAI_API_KEY", "sk-openai")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "sk-openai", cfg.APIKey)
}

func TestLoad_Errors(t *testing.T) {
	clearEnv(t)

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	t.Setenv("MEAL_SCAN_PROVIDER", "gemini")
	_, err = Load("")
	assert.ErrorContains(t, err, "unknown provider")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"zero max tokens", func(c *Config) { c.MaxTokens = 0 }, "max_tokens"},
		{"negative retries", func(c *Config) { c.MaxRetries = -1 }, "max_retries"},
		{"zero timeout", func(c *Config) { c.RequestTimeout = 0 }, "request_timeout"},
		{"zero image limit", func(c *Config) { c.MaxImageBytes = 0 }, "max_image_bytes"},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }, "log_level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.ErrorContains(t, cfg.Validate(), tt.want)
		})
	}
}

func TestCredentialConfigured_IgnoresWhitespace(t *testing.T) {
	cfg := Default()
	cfg.APIKey = "   "
	assert.False(t, cfg.CredentialConfigured())
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	cfg := Default()
	cfg.LogFormat = "json"
	cfg.LogLevel = "warn"

	logger := cfg.NewLogger(&buf)
	assert.Equal(t, log.WarnLevel, logger.Level)

	logger.Info("hidden")
	logger.WithField("kind", "format").Warn("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"kind":"format"`)
}

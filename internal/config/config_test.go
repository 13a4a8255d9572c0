package config

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tusharkanta407/HoneyPot/internal/policy"
)

func resetViper(t *testing.T) {
	t.Helper()
	t.Setenv("HONEYPOT_DATA_DIR", "")
	t.Setenv("HONEYPOT_PORT", "")
	t.Setenv("HONEYPOT_CALLBACK_URL", "")
	t.Setenv("HONEYPOT_CALLBACK_RETRIES", "")
	t.Setenv("HONEYPOT_MAX_MESSAGES", "")
	t.Setenv("HONEYPOT_MIN_ACCOUNT_DIGITS", "")
	t.Setenv("HONEYPOT_PATTERN_FILE", "")
	t.Setenv("HONEYPOT_LLM_PROVIDER", "")
	t.Setenv("HONEYPOT_LLM_MODEL", "")
	t.Setenv("HONEYPOT_LLM_API_KEY", "")
	t.Setenv("HONEYPOT_LLM_BASE_URL", "")
	t.Setenv("HONEYPOT_API_KEYS", "")
	viper.Reset()
	viper.SetEnvPrefix("HONEYPOT")
	viper.AutomaticEnv()
	viper.SetDefault(KeyPort, DefaultPort)
	viper.SetDefault(KeyCallbackURL, DefaultCallbackURL)
	viper.SetDefault(KeyCallbackRetries, DefaultCallbackRetries)
	viper.SetDefault(KeyMaxMessages, policy.DefaultMaxMessages)
	viper.SetDefault(KeyMinAccountLen, DefaultMinAccountLen)
}

func TestLoad_Defaults(t *testing.T) {
	resetViper(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DefaultPort, cfg.Port)
	assert.Equal(t, DefaultCallbackURL, cfg.CallbackURL)
	assert.Equal(t, DefaultCallbackRetries, cfg.CallbackRetries)
	assert.Equal(t, policy.DefaultMaxMessages, cfg.MaxMessages)
	assert.Equal(t, DefaultMinAccountLen, cfg.MinAccountLen)
	assert.Empty(t, cfg.LLMProvider)
	assert.Empty(t, cfg.APIKeys)
	assert.NotEmpty(t, cfg.DataDir)
}

func TestLoad_Overrides(t *testing.T) {
	resetViper(t)
	t.Setenv("HONEYPOT_PORT", "9090")
	t.Setenv("HONEYPOT_CALLBACK_URL", "https://example.com/report")
	t.Setenv("HONEYPOT_MAX_MESSAGES", "30")
	t.Setenv("HONEYPOT_DATA_DIR", "/tmp/hp-test")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "https://example.com/report", cfg.CallbackURL)
	assert.Equal(t, 30, cfg.MaxMessages)
	assert.Equal(t, "/tmp/hp-test", cfg.DataDir)
	assert.Equal(t, "/tmp/hp-test/reports.db", cfg.ReportsDBPath())
}

func TestLoad_APIKeys(t *testing.T) {
	resetViper(t)
	t.Setenv("HONEYPOT_API_KEYS", "abc123:guvi, zzz999:dev ,bare-key")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, map[string]string{
		"abc123":   "guvi",
		"zzz999":   "dev",
		"bare-key": "default",
	}, cfg.APIKeys)
}

func TestLoad_InvalidPort(t *testing.T) {
	resetViper(t)
	t.Setenv("HONEYPOT_PORT", "70000")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "port must be between")
}

func TestLoad_OpenAIRequiresKey(t *testing.T) {
	resetViper(t)
	t.Setenv("HONEYPOT_LLM_PROVIDER", "openai")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "llm_api_key is required")
}

func TestLoad_UnknownProvider(t *testing.T) {
	resetViper(t)
	t.Setenv("HONEYPOT_LLM_PROVIDER", "claude")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown llm_provider")
}

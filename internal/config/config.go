// Package config holds operator-level configuration for a honeypot
// deployment: listen port, callback endpoint, LLM provider wiring, and
// engagement limits. Everything is set via env vars with the HONEYPOT_
// prefix (e.g. "callback_url" → HONEYPOT_CALLBACK_URL) or a config file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/Tusharkanta407/HoneyPot/internal/policy"
)

// Viper keys. Each maps to an env var with the HONEYPOT_ prefix.
const (
	KeyDataDir         = "data_dir"
	KeyPort            = "port"
	KeyCallbackURL     = "callback_url"
	KeyCallbackRetries = "callback_retries"
	KeyMaxMessages     = "max_messages"
	KeyMinAccountLen   = "min_account_digits"
	KeyPatternFile     = "pattern_file"
	KeyLLMProvider     = "llm_provider"
	KeyLLMModel        = "llm_model"
	KeyLLMAPIKey       = "llm_api_key"
	KeyLLMBaseURL      = "llm_base_url"
	KeyAPIKeys         = "api_keys"
)

// Defaults.
const (
	DefaultPort            = 8080
	DefaultCallbackURL     = "https://hackathon.guvi.in/api/updateHoneyPotFinalResult"
	DefaultCallbackRetries = 3
	DefaultMinAccountLen   = 11
)

// Config holds resolved configuration for a honeypot process.
type Config struct {
	DataDir         string // Base directory for all state (~/.honeypot)
	Port            int    // HTTP listen port
	CallbackURL     string // Final-report endpoint
	CallbackRetries int    // Max delivery attempts per report
	MaxMessages     int    // Per-session engagement cap
	MinAccountLen   int    // Minimum digits treated as a bank account
	PatternFile     string // Optional operator recognizer overrides (YAML)
	LLMProvider     string // "openai", "ollama", or "" for rule-based only
	LLMModel        string
	LLMAPIKey       string
	LLMBaseURL      string
	APIKeys         map[string]string // API key -> caller name; empty disables auth
}

// ReportsDBPath returns the full path to the report SQLite database.
func (c *Config) ReportsDBPath() string {
	return filepath.Join(c.DataDir, "reports.db")
}

// EnsureDataDir creates the data directory if it doesn't exist.
func (c *Config) EnsureDataDir() error {
	return os.MkdirAll(c.DataDir, 0o700)
}

func init() {
	viper.SetEnvPrefix("HONEYPOT")
	viper.AutomaticEnv()
	viper.SetDefault(KeyPort, DefaultPort)
	viper.SetDefault(KeyCallbackURL, DefaultCallbackURL)
	viper.SetDefault(KeyCallbackRetries, DefaultCallbackRetries)
	viper.SetDefault(KeyMaxMessages, policy.DefaultMaxMessages)
	viper.SetDefault(KeyMinAccountLen, DefaultMinAccountLen)
}

// Load reads configuration from Viper (which merges env vars, config
// file, and defaults) and returns a validated Config.
func Load() (*Config, error) {
	cfg := &Config{
		DataDir:         resolveDataDir(),
		Port:            viper.GetInt(KeyPort),
		CallbackURL:     viper.GetString(KeyCallbackURL),
		CallbackRetries: viper.GetInt(KeyCallbackRetries),
		MaxMessages:     viper.GetInt(KeyMaxMessages),
		MinAccountLen:   viper.GetInt(KeyMinAccountLen),
		PatternFile:     viper.GetString(KeyPatternFile),
		LLMProvider:     viper.GetString(KeyLLMProvider),
		LLMModel:        viper.GetString(KeyLLMModel),
		LLMAPIKey:       viper.GetString(KeyLLMAPIKey),
		LLMBaseURL:      viper.GetString(KeyLLMBaseURL),
		APIKeys:         parseAPIKeys(viper.GetString(KeyAPIKeys)),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func resolveDataDir() string {
	if dir := viper.GetString(KeyDataDir); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".honeypot"
	}
	return filepath.Join(home, ".honeypot")
}

// parseAPIKeys parses "key:caller,key2:caller2". A bare key gets the
// caller name "default".
func parseAPIKeys(raw string) map[string]string {
	keys := make(map[string]string)
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		if k, caller, ok := strings.Cut(pair, ":"); ok && k != "" {
			keys[k] = caller
		} else {
			keys[pair] = "default"
		}
	}
	return keys
}

func (c *Config) validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535 (got %d)", c.Port)
	}
	if c.CallbackURL == "" {
		return fmt.Errorf("callback_url must not be empty; set HONEYPOT_CALLBACK_URL")
	}
	if c.CallbackRetries <= 0 {
		return fmt.Errorf("callback_retries must be positive")
	}
	if c.MaxMessages <= 0 {
		return fmt.Errorf("max_messages must be positive")
	}
	if c.MinAccountLen < 6 {
		return fmt.Errorf("min_account_digits must be at least 6")
	}
	switch c.LLMProvider {
	case "", "ollama":
	case "openai":
		if c.LLMAPIKey == "" {
			return fmt.Errorf("llm_api_key is required when llm_provider is openai")
		}
	default:
		return fmt.Errorf("unknown llm_provider %q (want openai, ollama, or empty)", c.LLMProvider)
	}
	return nil
}

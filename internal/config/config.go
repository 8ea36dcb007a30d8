// Package config provides application configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// PlaceholderAPIKey is the value shipped in .env.example; a key that still
// holds it is treated the same as a missing key.
const PlaceholderAPIKey = "your_api_key_here"

// GeneratorMode selects how assistant diagrams are produced.
type GeneratorMode string

const (
	// GeneratorLLM calls the hosted completion backend.
	GeneratorLLM GeneratorMode = "llm"
	// GeneratorTemplate answers from local keyword-matched templates and
	// never touches the network.
	GeneratorTemplate GeneratorMode = "template"
)

// Config holds all application configuration.
type Config struct {
	Port        string
	FrontendURL string
	DBPath      string
	Generator   GeneratorMode
	Completion  CompletionConfig
	Chat        ChatConfig
}

// CompletionConfig configures the hosted completion backend.
type CompletionConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
	MaxTokens   int
}

// ChatConfig controls chat session behavior and cosmetic status timers.
type ChatConfig struct {
	Streaming       bool
	StreamChunkSize int
	// ConnectionResetDelay is how long the connection indicator stays on
	// "error" after a failed turn before reverting to "connected".
	ConnectionResetDelay time.Duration
	// ApplyBannerDelay is how long the last-apply banner stays visible.
	ApplyBannerDelay time.Duration
	// SessionIdleTTL evicts in-memory chat sessions after inactivity.
	SessionIdleTTL time.Duration
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		FrontendURL: getEnv("FRONTEND_URL", ""),
		DBPath:      getEnv("DB_PATH", "./data/fluxo.db"),
		Generator:   GeneratorMode(getEnv("GENERATOR_MODE", string(GeneratorLLM))),
		Completion: CompletionConfig{
			APIKey:      getEnv("COMPLETION_API_KEY", ""),
			BaseURL:     getEnv("COMPLETION_BASE_URL", "https://api.deepseek.com"),
			Model:       getEnv("COMPLETION_MODEL", "deepseek-chat"),
			Temperature: 0.7,
			MaxTokens:   4000,
		},
		Chat: ChatConfig{
			Streaming:            getEnvBool("CHAT_STREAMING", false),
			StreamChunkSize:      getEnvInt("CHAT_STREAM_CHUNK_SIZE", 64),
			ConnectionResetDelay: getEnvDuration("CHAT_CONNECTION_RESET_DELAY", 10*time.Second),
			ApplyBannerDelay:     getEnvDuration("CHAT_APPLY_BANNER_DELAY", 5*time.Second),
			SessionIdleTTL:       getEnvDuration("CHAT_SESSION_IDLE_TTL", 60*time.Minute),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	if c.DBPath == "" {
		return fmt.Errorf("DB_PATH cannot be empty")
	}
	if c.Generator != GeneratorLLM && c.Generator != GeneratorTemplate {
		return fmt.Errorf("GENERATOR_MODE must be %q or %q", GeneratorLLM, GeneratorTemplate)
	}
	if c.Completion.BaseURL == "" {
		return fmt.Errorf("COMPLETION_BASE_URL cannot be empty")
	}
	if c.Completion.Model == "" {
		return fmt.Errorf("COMPLETION_MODEL cannot be empty")
	}
	if c.Chat.StreamChunkSize <= 0 {
		return fmt.Errorf("CHAT_STREAM_CHUNK_SIZE must be > 0")
	}
	return nil
}

// CompletionConfigured returns true if a usable backend credential is set.
// A placeholder key counts as unconfigured.
func (c *Config) CompletionConfigured() bool {
	return c.Completion.APIKey != "" && c.Completion.APIKey != PlaceholderAPIKey
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.FrontendURL == "" ||
		strings.Contains(c.FrontendURL, "localhost") ||
		strings.Contains(c.FrontendURL, "127.0.0.1")
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

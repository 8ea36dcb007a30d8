package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Port != "8080" {
		t.Errorf("Expected default port 8080, got %q", cfg.Port)
	}
	if cfg.Generator != GeneratorLLM {
		t.Errorf("Expected llm generator, got %q", cfg.Generator)
	}
	if cfg.Completion.Model != "deepseek-chat" {
		t.Errorf("Unexpected default model: %q", cfg.Completion.Model)
	}
	if cfg.Completion.Temperature != 0.7 || cfg.Completion.MaxTokens != 4000 {
		t.Errorf("Unexpected sampling defaults: %+v", cfg.Completion)
	}
	if cfg.Chat.ConnectionResetDelay != 10*time.Second {
		t.Errorf("Unexpected reset delay: %v", cfg.Chat.ConnectionResetDelay)
	}
	if cfg.Chat.ApplyBannerDelay != 5*time.Second {
		t.Errorf("Unexpected banner delay: %v", cfg.Chat.ApplyBannerDelay)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("GENERATOR_MODE", "template")
	t.Setenv("CHAT_STREAMING", "true")
	t.Setenv("CHAT_SESSION_IDLE_TTL", "5m")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Port != "9090" {
		t.Errorf("Port override ignored: %q", cfg.Port)
	}
	if cfg.Generator != GeneratorTemplate {
		t.Errorf("Generator override ignored: %q", cfg.Generator)
	}
	if !cfg.Chat.Streaming {
		t.Error("Streaming override ignored")
	}
	if cfg.Chat.SessionIdleTTL != 5*time.Minute {
		t.Errorf("TTL override ignored: %v", cfg.Chat.SessionIdleTTL)
	}
}

func TestLoadRejectsBadGeneratorMode(t *testing.T) {
	t.Setenv("GENERATOR_MODE", "quantum")

	if _, err := Load(); err == nil {
		t.Fatal("Expected an error for unknown generator mode")
	}
}

func TestCompletionConfigured(t *testing.T) {
	tests := []struct {
		key  string
		want bool
	}{
		{"", false},
		{PlaceholderAPIKey, false},
		{"sk-real", true},
	}
	for _, tt := range tests {
		cfg := &Config{}
		cfg.Completion.APIKey = tt.key
		if got := cfg.CompletionConfigured(); got != tt.want {
			t.Errorf("CompletionConfigured with key %q = %v, want %v", tt.key, got, tt.want)
		}
	}
}

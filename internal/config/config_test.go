package config

import (
	"testing"

	"github.com/reframe-labs/reframe/internal/domain"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Port != "8080" {
		t.Errorf("Expected default port 8080, got %s", cfg.Port)
	}
	if cfg.Provider != string(domain.ProviderGemini) {
		t.Errorf("Expected default provider gemini, got %s", cfg.Provider)
	}
	if !cfg.ProxyFallback {
		t.Error("Expected proxy fallback enabled by default")
	}
	if cfg.CompatBaseURL == "" {
		t.Error("Expected a default compatible base URL")
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("PROVIDER", "compatible")
	t.Setenv("COMPAT_BASE_URL", "https://llm.example.com/v1")
	t.Setenv("PROXY_FALLBACK", "false")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Port != "9000" {
		t.Errorf("Expected port 9000, got %s", cfg.Port)
	}
	if cfg.Provider != string(domain.ProviderCompatible) {
		t.Errorf("Expected provider compatible, got %s", cfg.Provider)
	}
	if cfg.CompatBaseURL != "https://llm.example.com/v1" {
		t.Errorf("Unexpected base URL %s", cfg.CompatBaseURL)
	}
	if cfg.ProxyFallback {
		t.Error("Expected proxy fallback disabled")
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "https://b.example" {
		t.Errorf("Unexpected origins %v", cfg.AllowedOrigins)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"empty port", func(c *Config) { c.Port = "" }, true},
		{"empty db path", func(c *Config) { c.DBPath = "" }, true},
		{"unknown provider", func(c *Config) { c.Provider = "claude" }, true},
		{"empty compat base url", func(c *Config) { c.CompatBaseURL = "" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				Port:          "8080",
				DBPath:        "./data/test.db",
				Provider:      string(domain.ProviderGemini),
				CompatBaseURL: "https://api.openai.com/v1",
			}
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr && err == nil {
				t.Error("Expected validation error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("Unexpected validation error: %v", err)
			}
		})
	}
}

func TestDefaultSettings(t *testing.T) {
	cfg := &Config{
		Provider:      string(domain.ProviderCompatible),
		GeminiKey:     "server-level-key",
		CompatBaseURL: "https://llm.example.com/v1",
		ModelName:     "test-model",
	}

	s := cfg.DefaultSettings()
	if s.Provider != domain.ProviderCompatible {
		t.Errorf("Expected provider compatible, got %s", s.Provider)
	}
	if s.GeminiKey != "" {
		t.Error("Server-level key must not leak into user settings")
	}
	if s.ModelName != "test-model" {
		t.Errorf("Expected model test-model, got %s", s.ModelName)
	}
}

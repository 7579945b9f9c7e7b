// Package config provides application configuration.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/reframe-labs/reframe/internal/domain"
)

// Config holds boot-time server configuration read from the environment.
// Runtime, user-editable settings live in domain.Settings and are seeded
// from these values on first start.
type Config struct {
	Port          string
	DBPath        string
	Provider      string // "gemini" or "compatible"
	GeminiKey     string
	CompatKey     string
	CompatBaseURL string
	ModelName     string
	// ProxyFallback enables the cross-provider fallback on the /api/chat
	// proxy: when the compatible backend fails and a server-level Gemini
	// key exists, retry the request against Gemini.
	ProxyFallback  bool
	AllowedOrigins []string
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Port:           getEnv("PORT", "8080"),
		DBPath:         getEnv("DB_PATH", "./data/reframe.db"),
		Provider:       getEnv("PROVIDER", string(domain.ProviderGemini)),
		GeminiKey:      getEnv("GEMINI_API_KEY", ""),
		CompatKey:      getEnv("COMPAT_API_KEY", ""),
		CompatBaseURL:  getEnv("COMPAT_BASE_URL", "https://api.openai.com/v1"),
		ModelName:      getEnv("MODEL_NAME", ""),
		ProxyFallback:  getEnvBool("PROXY_FALLBACK", true),
		AllowedOrigins: splitList(getEnv("ALLOWED_ORIGINS", "*")),
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
	switch domain.ProviderKind(c.Provider) {
	case domain.ProviderGemini, domain.ProviderCompatible:
	default:
		return fmt.Errorf("PROVIDER must be %q or %q, got %q",
			domain.ProviderGemini, domain.ProviderCompatible, c.Provider)
	}
	if c.CompatBaseURL == "" {
		return fmt.Errorf("COMPAT_BASE_URL cannot be empty")
	}
	return nil
}

// DefaultSettings derives the initial user settings from the server
// configuration. Used on first start, before any settings record exists.
func (c *Config) DefaultSettings() domain.Settings {
	return domain.Settings{
		Provider:      domain.ProviderKind(c.Provider),
		CompatBaseURL: c.CompatBaseURL,
		ModelName:     c.ModelName,
	}
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

func splitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

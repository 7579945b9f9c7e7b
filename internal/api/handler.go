// Package api provides HTTP handlers for the reframe API.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/reframe-labs/reframe/internal/chat"
	"github.com/reframe-labs/reframe/internal/config"
	"github.com/reframe-labs/reframe/internal/provider"
)

// Handler provides the API handlers and their shared dependencies.
type Handler struct {
	svc *chat.Service
	cfg *config.Config

	// proxy backends, chosen by server-side credential presence.
	proxyPrimary  provider.Provider
	proxyFallback provider.Provider
}

// NewHandler creates a new Handler. Proxy backends are derived from the
// server configuration: the compatible backend is primary when a server
// key exists; Gemini serves as primary otherwise, or as the
// fallback-on-failure when enabled.
func NewHandler(svc *chat.Service, cfg *config.Config) *Handler {
	h := &Handler{svc: svc, cfg: cfg}

	var gemini provider.Provider
	if cfg.GeminiKey != "" {
		gemini = provider.NewGemini(cfg.GeminiKey, cfg.ModelName)
	}
	if cfg.CompatKey != "" {
		h.proxyPrimary = provider.NewCompatible(cfg.CompatKey, cfg.CompatBaseURL, cfg.ModelName)
		if cfg.ProxyFallback {
			h.proxyFallback = gemini
		}
	} else {
		h.proxyPrimary = gemini
	}
	return h
}

// WithProxyBackends overrides the proxy providers.
func (h *Handler) WithProxyBackends(primary, fallback provider.Provider) *Handler {
	h.proxyPrimary = primary
	h.proxyFallback = fallback
	return h
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

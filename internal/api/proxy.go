package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/reframe-labs/reframe/internal/domain"
	"github.com/reframe-labs/reframe/internal/provider"
)

// proxyRequest is the legacy proxy surface: bare role/content pairs.
type proxyRequest struct {
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

// ProxyChat accepts {messages:[{role,content}]} and returns {content} or
// {error}. The backend is chosen by server-side credential presence; when
// the primary fails and a fallback is configured, the request is retried
// there once.
func (h *Handler) ProxyChat(w http.ResponseWriter, r *http.Request) {
	var req proxyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Messages) == 0 {
		Error(w, http.StatusBadRequest, "messages cannot be empty")
		return
	}

	messages := make([]domain.Message, 0, len(req.Messages))
	for _, m := range req.Messages {
		messages = append(messages, domain.Message{
			Role:    domain.Role(m.Role),
			Content: m.Content,
		})
	}

	if h.proxyPrimary == nil {
		Error(w, http.StatusInternalServerError, "no API key configured")
		return
	}

	reply, err := h.proxyPrimary.Dispatch(r.Context(), messages, provider.NopSink{})
	if err != nil && h.proxyFallback != nil {
		slog.Warn("Proxy primary backend failed, trying fallback", "error", err)
		reply, err = h.proxyFallback.Dispatch(r.Context(), messages, provider.NopSink{})
	}
	if err != nil {
		Error(w, http.StatusInternalServerError, err.Error())
		return
	}

	JSON(w, http.StatusOK, map[string]string{"content": reply.Content})
}

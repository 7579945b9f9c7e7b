package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/reframe-labs/reframe/internal/chat"
	"github.com/reframe-labs/reframe/internal/domain"
	"github.com/reframe-labs/reframe/internal/provider"
)

// RegisterRoutes mounts all API routes on the router.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Post("/messages", h.SendMessage)
		r.Get("/conversation", h.GetConversation)

		r.Post("/sessions/new", h.NewSession)
		r.Get("/sessions", h.ListSessions)
		r.Post("/sessions/{id}/select", h.SelectSession)
		r.Delete("/sessions/{id}", h.DeleteSession)

		r.Get("/settings", h.GetSettings)
		r.Put("/settings", h.UpdateSettings)

		r.Get("/status", h.GetStatus)
		r.Post("/test", h.TestConnection)
		r.Post("/checklist", h.SetChecklist)

		r.Post("/chat", h.ProxyChat)
	})
	r.Get("/ws/status", h.StatusFeed)
}

type conversationResponse struct {
	Messages         []domain.Message `json:"messages"`
	CurrentSessionID string           `json:"currentSessionId"`
	Status           domain.Status    `json:"status"`
}

func (h *Handler) conversation() conversationResponse {
	return conversationResponse{
		Messages:         h.svc.Conversation(),
		CurrentSessionID: h.svc.CurrentSessionID(),
		Status:           h.svc.Status(),
	}
}

// SendMessage runs the send pipeline: append the user turn, dispatch,
// append the assistant reply. Refusals return without touching state.
func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	_, err := h.svc.SendUserMessage(r.Context(), req.Text)
	switch {
	case err == nil:
		JSON(w, http.StatusOK, h.conversation())
	case errors.Is(err, chat.ErrEmptyInput):
		Error(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, chat.ErrBusy):
		Error(w, http.StatusConflict, err.Error())
	case errors.Is(err, chat.ErrTurnLimit):
		Error(w, http.StatusTooManyRequests, err.Error())
	case errors.Is(err, provider.ErrMissingCredential):
		// The client redirects to the settings form on this one.
		Error(w, http.StatusUnauthorized, err.Error())
	default:
		Error(w, http.StatusBadGateway, err.Error())
	}
}

// GetConversation returns the active conversation and current status.
func (h *Handler) GetConversation(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, h.conversation())
}

// NewSession saves the active conversation and starts a fresh one.
func (h *Handler) NewSession(w http.ResponseWriter, r *http.Request) {
	h.svc.NewSession(r.Context())
	JSON(w, http.StatusOK, h.conversation())
}

// ListSessions returns the saved-sessions collection, newest first.
func (h *Handler) ListSessions(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, map[string]interface{}{
		"sessions": h.svc.Sessions(),
	})
}

// SelectSession makes a saved session the active conversation.
func (h *Handler) SelectSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if !h.svc.SelectSession(id) {
		Error(w, http.StatusNotFound, "session not found")
		return
	}
	JSON(w, http.StatusOK, h.conversation())
}

// DeleteSession removes a saved session, clearing the active conversation
// if it was the one deleted.
func (h *Handler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	h.svc.DeleteSession(r.Context(), chi.URLParam(r, "id"))
	JSON(w, http.StatusOK, h.conversation())
}

// GetSettings returns the current settings. This is a local single-user
// server, so credentials round-trip to the settings form the same way
// browser storage used to.
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, h.svc.Settings())
}

// UpdateSettings applies a settings patch: fields absent from the body
// keep their current values.
func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	settings := h.svc.Settings()
	if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	switch settings.Provider {
	case domain.ProviderGemini, domain.ProviderCompatible:
	default:
		Error(w, http.StatusBadRequest, "unknown provider")
		return
	}
	h.svc.UpdateSettings(r.Context(), settings)
	JSON(w, http.StatusOK, h.svc.Settings())
}

// GetStatus returns the latest dispatch status.
func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, h.svc.Status())
}

// TestConnection runs a minimal exchange against the active provider.
func (h *Handler) TestConnection(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, map[string]bool{"ok": h.svc.TestConnection(r.Context())})
}

// SetChecklist toggles one slot of a card's completion vector.
func (h *Handler) SetChecklist(w http.ResponseWriter, r *http.Request) {
	var req struct {
		MessageIndex int  `json:"messageIndex"`
		Slot         int  `json:"slot"`
		Done         bool `json:"done"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.svc.SetChecklistItem(req.MessageIndex, req.Slot, req.Done); err != nil {
		Error(w, http.StatusBadRequest, err.Error())
		return
	}
	JSON(w, http.StatusOK, map[string]interface{}{
		"messageIndex": req.MessageIndex,
		"checklist":    h.svc.ChecklistState(req.MessageIndex),
	})
}

// Package chat owns the conversation state: the active message log, the
// saved-sessions collection, user settings, dispatch status and the send
// pipeline that ties them to a provider.
package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/reframe-labs/reframe/internal/config"
	"github.com/reframe-labs/reframe/internal/domain"
	"github.com/reframe-labs/reframe/internal/provider"
	"github.com/reframe-labs/reframe/internal/store"
)

// Refusal errors for SendUserMessage. None of them mutate state.
var (
	// ErrEmptyInput indicates a blank message.
	ErrEmptyInput = errors.New("message is empty")

	// ErrBusy indicates a dispatch is already outstanding. Sends are
	// rejected, not queued.
	ErrBusy = errors.New("a request is already in flight")

	// ErrTurnLimit indicates the per-conversation user turn cap was hit.
	ErrTurnLimit = errors.New("conversation turn limit reached")
)

// ProviderFactory builds the provider for the given settings. Injected so
// tests can substitute a fake backend.
type ProviderFactory func(domain.Settings) provider.Provider

// Service is the single owner of all mutable conversation state. All
// operations are serialized; the provider dispatch is the only suspension
// point and runs outside the lock, guarded by the loading flag.
type Service struct {
	repo    store.Repository
	factory ProviderFactory
	tracker *StatusTracker

	mu        sync.Mutex
	settings  domain.Settings
	messages  []domain.Message
	currentID string
	sessions  []domain.ChatSession
	loading   bool

	// checklist completion vectors, keyed by message position in the
	// active conversation. Ephemeral: reset whenever the positional keys
	// change meaning (session switch, new session).
	checklist map[int][3]bool
}

// NewService creates the chat service, re-reading the two durable records
// (settings, saved sessions) from the repository.
func NewService(ctx context.Context, repo store.Repository, cfg *config.Config) (*Service, error) {
	s := &Service{
		repo:     repo,
		tracker:  NewStatusTracker(),
		settings: cfg.DefaultSettings(),
		factory: func(st domain.Settings) provider.Provider {
			return provider.ForSettings(st, cfg.GeminiKey)
		},
		checklist: make(map[int][3]bool),
	}

	if err := s.loadState(ctx); err != nil {
		return nil, fmt.Errorf("load persisted state: %w", err)
	}
	return s, nil
}

// WithProviderFactory overrides how providers are constructed.
func (s *Service) WithProviderFactory(f ProviderFactory) *Service {
	s.factory = f
	return s
}

func (s *Service) loadState(ctx context.Context) error {
	if blob, err := s.repo.GetRecord(ctx, store.RecordSettings); err != nil {
		return err
	} else if blob != nil {
		if err := json.Unmarshal(blob, &s.settings); err != nil {
			slog.Warn("Discarding unreadable settings record", "error", err)
		}
	}

	if blob, err := s.repo.GetRecord(ctx, store.RecordSessions); err != nil {
		return err
	} else if blob != nil {
		if err := json.Unmarshal(blob, &s.sessions); err != nil {
			slog.Warn("Discarding unreadable sessions record", "error", err)
		}
	}
	return nil
}

// SendUserMessage appends a user turn, dispatches the bounded payload to
// the active provider and appends the assistant reply (parsed or raw).
// Refusals and dispatch failures leave the conversation without an
// assistant turn; on dispatch failure the user turn remains so the user
// may edit and resend.
func (s *Service) SendUserMessage(ctx context.Context, text string) ([]domain.Message, error) {
	text = strings.TrimSpace(text)

	s.mu.Lock()
	if text == "" {
		s.mu.Unlock()
		return nil, ErrEmptyInput
	}
	if s.loading {
		s.mu.Unlock()
		return nil, ErrBusy
	}
	if domain.UserTurnCount(s.messages) >= config.MaxUserTurns {
		s.mu.Unlock()
		return nil, ErrTurnLimit
	}

	s.messages = append(s.messages, domain.Message{
		Role:      domain.RoleUser,
		Content:   text,
		Timestamp: nowMillis(),
	})
	conversation := snapshot(s.messages)
	payload := buildPayload(conversation)
	p := s.factory(s.settings)
	s.loading = true
	s.mu.Unlock()

	reply, err := p.Dispatch(ctx, payload, s.tracker)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false

	if err != nil {
		return snapshot(s.messages), err
	}

	assistant := domain.Message{
		Role:      domain.RoleAssistant,
		Content:   reply.Content,
		Timestamp: nowMillis(),
	}
	if card, ok := ParseCard(reply.Content); ok {
		assistant.ParsedContent = card
	}

	s.messages = append(conversation, assistant)
	s.upsertCurrentLocked()
	s.persistSessions(ctx)
	return snapshot(s.messages), nil
}

// NewSession snapshots a non-empty active conversation into the saved
// collection, then clears the active conversation and its id.
func (s *Service) NewSession(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.messages) > 0 {
		s.upsertCurrentLocked()
		s.persistSessions(ctx)
	}
	s.messages = nil
	s.currentID = ""
	s.checklist = make(map[int][3]bool)
}

// SelectSession replaces the active conversation with the saved session's
// messages. Unknown ids are a no-op. Idempotent.
func (s *Service) SelectSession(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, sess := range s.sessions {
		if sess.ID == id {
			s.messages = snapshot(sess.Messages)
			s.currentID = id
			s.checklist = make(map[int][3]bool)
			return true
		}
	}
	return false
}

// DeleteSession removes a saved session. If it is the active conversation
// the active state is cleared in the same step.
func (s *Service) DeleteSession(ctx context.Context, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.sessions[:0]
	for _, sess := range s.sessions {
		if sess.ID != id {
			kept = append(kept, sess)
		}
	}
	s.sessions = kept

	if s.currentID == id {
		s.messages = nil
		s.currentID = ""
		s.checklist = make(map[int][3]bool)
	}
	s.persistSessions(ctx)
}

// Conversation returns a copy of the active message log.
func (s *Service) Conversation() []domain.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return snapshot(s.messages)
}

// CurrentSessionID returns the active session id, empty if unsaved.
func (s *Service) CurrentSessionID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentID
}

// Sessions returns a copy of the saved-sessions collection, newest first.
func (s *Service) Sessions() []domain.ChatSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.ChatSession, len(s.sessions))
	copy(out, s.sessions)
	return out
}

// Settings returns the current settings.
func (s *Service) Settings() domain.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

// UpdateSettings replaces the settings and persists them.
func (s *Service) UpdateSettings(ctx context.Context, settings domain.Settings) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = settings
	blob, err := json.Marshal(s.settings)
	if err != nil {
		slog.Warn("Failed to encode settings", "error", err)
		return
	}
	if err := s.repo.PutRecord(ctx, store.RecordSettings, blob); err != nil {
		slog.Warn("Failed to persist settings", "error", err)
	}
}

// Status returns the latest dispatch status.
func (s *Service) Status() domain.Status {
	return s.tracker.Current()
}

// StatusFeed exposes the tracker for the websocket feed.
func (s *Service) StatusFeed() *StatusTracker {
	return s.tracker
}

// TestConnection runs a minimal exchange against the provider selected by
// the current settings. It never mutates conversation state.
func (s *Service) TestConnection(ctx context.Context) bool {
	s.mu.Lock()
	p := s.factory(s.settings)
	s.mu.Unlock()
	return p.TestConnection(ctx)
}

// SetChecklistItem toggles one slot of the completion vector for the card
// at the given message position.
func (s *Service) SetChecklistItem(msgIndex, slot int, done bool) error {
	if slot < 0 || slot > 2 {
		return fmt.Errorf("checklist slot out of range: %d", slot)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	v := s.checklist[msgIndex]
	v[slot] = done
	s.checklist[msgIndex] = v
	return nil
}

// ChecklistState returns the completion vector for a message position.
func (s *Service) ChecklistState(msgIndex int) [3]bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.checklist[msgIndex]
}

// upsertCurrentLocked saves the active conversation into the collection:
// remove any entry with the same id, prepend the fresh snapshot, cap the
// collection. Assigns a new id on first save. Caller holds the lock.
func (s *Service) upsertCurrentLocked() {
	if len(s.messages) == 0 {
		return
	}
	id := s.currentID
	if id == "" {
		id = uuid.NewString()
	}
	sess := domain.ChatSession{
		ID:        id,
		Title:     deriveTitle(s.messages),
		Messages:  snapshot(s.messages),
		CreatedAt: nowMillis(),
	}

	kept := make([]domain.ChatSession, 0, len(s.sessions)+1)
	kept = append(kept, sess)
	for _, existing := range s.sessions {
		if existing.ID != id {
			kept = append(kept, existing)
		}
	}
	if len(kept) > config.MaxSavedSessions {
		kept = kept[:config.MaxSavedSessions]
	}
	s.sessions = kept
	s.currentID = id
}

// persistSessions writes the full collection as a complete-overwrite
// blob. Persistence failures are logged; in-memory state stays
// authoritative. Caller holds the lock.
func (s *Service) persistSessions(ctx context.Context) {
	blob, err := json.Marshal(s.sessions)
	if err != nil {
		slog.Warn("Failed to encode sessions", "error", err)
		return
	}
	if err := s.repo.PutRecord(ctx, store.RecordSessions, blob); err != nil {
		slog.Warn("Failed to persist sessions", "error", err)
	}
}

// buildPayload bounds the outgoing request to the system prompt plus the
// last MaxContextMessages turns of the conversation.
func buildPayload(conversation []domain.Message) []domain.Message {
	window := conversation
	if len(window) > config.MaxContextMessages {
		window = window[len(window)-config.MaxContextMessages:]
	}
	payload := make([]domain.Message, 0, len(window)+1)
	payload = append(payload, domain.Message{Role: domain.RoleSystem, Content: config.SystemPrompt})
	payload = append(payload, window...)
	return payload
}

// deriveTitle picks the first parsed card title, falling back to the
// first characters of the opening message.
func deriveTitle(messages []domain.Message) string {
	for _, m := range messages {
		if m.ParsedContent != nil && m.ParsedContent.Title != "" {
			return m.ParsedContent.Title
		}
	}
	runes := []rune(messages[0].Content)
	if len(runes) > config.SessionTitleLen {
		runes = runes[:config.SessionTitleLen]
	}
	return string(runes)
}

func snapshot(messages []domain.Message) []domain.Message {
	out := make([]domain.Message, len(messages))
	copy(out, messages)
	return out
}

func nowMillis() int64 {
	return time.Now().UnixMilli()
}

// Package provider implements the LLM backend clients.
//
// Two backend shapes exist: the Gemini generateContent API with a native
// response schema, and any OpenAI-compatible chat-completions endpoint that
// is prompt-engineered into returning JSON. Both sit behind the same
// Provider interface so the rest of the app never branches on provider
// kind.
package provider

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/reframe-labs/reframe/internal/config"
	"github.com/reframe-labs/reframe/internal/domain"
)

// Reply is the raw outcome of a successful dispatch.
type Reply struct {
	Content    string
	LatencySec float64
}

// StatusSink receives status transitions during a dispatch. It is invoked
// exactly twice per dispatch: once with Requesting at the start, once with
// Success or Error at the end.
type StatusSink interface {
	OnStatusChanged(domain.Status)
}

// Provider is one LLM backend. Implementations emit status transitions
// through the sink and never mutate anything beyond it.
type Provider interface {
	// Dispatch sends the message window to the backend and returns the
	// raw text content. The passed messages are sent as-is; the caller
	// owns windowing and the system prompt.
	Dispatch(ctx context.Context, messages []domain.Message, sink StatusSink) (*Reply, error)

	// TestConnection performs a minimal one-message exchange and reports
	// whether the backend is reachable and authorized. It never panics
	// and never propagates an error.
	TestConnection(ctx context.Context) bool
}

// ForSettings selects and configures the provider named by the settings.
// Credential resolution for the Gemini backend is explicit-first: the
// settings value wins, then the server-level GEMINI_API_KEY environment
// fallback. The compatible backend has no environment fallback.
func ForSettings(s domain.Settings, serverGeminiKey string) Provider {
	if s.Provider == domain.ProviderCompatible {
		return NewCompatible(s.CompatKey, s.CompatBaseURL, s.ModelName)
	}
	key := s.GeminiKey
	if key == "" {
		key = serverGeminiKey
	}
	if key == "" {
		key = os.Getenv("GEMINI_API_KEY")
	}
	return NewGemini(key, s.ModelName)
}

// NopSink discards status transitions. Used by connection tests and the
// server-side proxy, which report outcomes directly instead of driving
// the status panel.
type NopSink struct{}

// OnStatusChanged implements StatusSink.
func (NopSink) OnStatusChanged(domain.Status) {}

// sharedHTTPClient is used by all providers. The timeout closes the
// no-deadline gap left by the transport default.
var sharedHTTPClient = &http.Client{Timeout: config.RequestTimeout}

// dispatch wraps a backend call with the status protocol: Requesting at
// entry, Success or Error with elapsed seconds at exit. Errors are
// returned to the caller after the Error emit so session state is never
// mutated with a phantom reply.
func dispatch(sink StatusSink, call func() (string, error)) (*Reply, error) {
	start := time.Now()
	sink.OnStatusChanged(domain.Status{State: domain.StateRequesting})

	content, err := call()
	latency := time.Since(start).Seconds()

	if err == nil && content == "" {
		err = ErrEmptyResponse
	}
	if err != nil {
		sink.OnStatusChanged(domain.Status{
			State:      domain.StateError,
			LatencySec: latency,
			ErrorMsg:   err.Error(),
		})
		return nil, err
	}

	sink.OnStatusChanged(domain.Status{
		State:      domain.StateSuccess,
		LatencySec: latency,
	})
	return &Reply{Content: content, LatencySec: latency}, nil
}

// pingMessages is the minimal exchange used by connection tests.
func pingMessages() []domain.Message {
	return []domain.Message{{Role: domain.RoleUser, Content: "Ping"}}
}

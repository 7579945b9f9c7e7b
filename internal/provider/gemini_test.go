package provider

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/reframe-labs/reframe/internal/config"
	"github.com/reframe-labs/reframe/internal/domain"
)

// recordSink captures every status transition in order.
type recordSink struct {
	statuses []domain.Status
}

func (r *recordSink) OnStatusChanged(s domain.Status) {
	r.statuses = append(r.statuses, s)
}

func geminiReplyBody(text string) string {
	body := map[string]any{
		"candidates": []map[string]any{
			{"content": map[string]any{"parts": []map[string]string{{"text": text}}}},
		},
	}
	encoded, _ := json.Marshal(body)
	return string(encoded)
}

func conversation() []domain.Message {
	return []domain.Message{
		{Role: domain.RoleSystem, Content: "你是一个测试助手"},
		{Role: domain.RoleUser, Content: "第一问"},
		{Role: domain.RoleAssistant, Content: "第一答"},
		{Role: domain.RoleUser, Content: "第二问"},
	}
}

func TestGeminiDispatchRequestShape(t *testing.T) {
	var captured geminiRequest
	var gotPath, gotKey string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("x-goog-api-key")
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("Failed to decode request: %v", err)
		}
		w.Write([]byte(geminiReplyBody(`{"title":"好"}`)))
	}))
	defer srv.Close()

	g := NewGemini("test-key", "gemini-2.5-flash").WithBaseURL(srv.URL)
	sink := &recordSink{}
	reply, err := g.Dispatch(context.Background(), conversation(), sink)
	if err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}
	if reply.Content != `{"title":"好"}` {
		t.Errorf("Unexpected reply content %q", reply.Content)
	}

	if gotPath != "/models/gemini-2.5-flash:generateContent" {
		t.Errorf("Unexpected path %q", gotPath)
	}
	if gotKey != "test-key" {
		t.Errorf("Expected api key header, got %q", gotKey)
	}

	// The system message rides out of band; only user/model turns remain.
	if captured.SystemInstruction == nil || captured.SystemInstruction.Parts[0].Text != "你是一个测试助手" {
		t.Error("System message must become systemInstruction")
	}
	if len(captured.Contents) != 3 {
		t.Fatalf("Expected 3 content turns, got %d", len(captured.Contents))
	}
	wantRoles := []string{"user", "model", "user"}
	for i, c := range captured.Contents {
		if c.Role != wantRoles[i] {
			t.Errorf("Turn %d: expected role %q, got %q", i, wantRoles[i], c.Role)
		}
	}

	gc := captured.GenerationConfig
	if gc.Temperature != config.Temperature {
		t.Errorf("Expected temperature %v, got %v", config.Temperature, gc.Temperature)
	}
	if gc.ResponseMimeType != "application/json" {
		t.Errorf("Expected JSON mime type, got %q", gc.ResponseMimeType)
	}
	if gc.ResponseSchema == nil || gc.ResponseSchema.Type != "OBJECT" {
		t.Fatal("Expected an object response schema")
	}
	if len(gc.ResponseSchema.Required) != 7 {
		t.Errorf("Expected 7 required schema fields, got %d", len(gc.ResponseSchema.Required))
	}
	diff := gc.ResponseSchema.Properties["checklist"].Items.Properties["difficulty"]
	if len(diff.Enum) != 3 || diff.Enum[0] != "S" {
		t.Errorf("Expected S/M/L difficulty enum, got %v", diff.Enum)
	}

	wantStates := []domain.State{domain.StateRequesting, domain.StateSuccess}
	if len(sink.statuses) != 2 {
		t.Fatalf("Expected 2 status emits, got %d", len(sink.statuses))
	}
	for i, st := range sink.statuses {
		if st.State != wantStates[i] {
			t.Errorf("Status %d: expected %s, got %s", i, wantStates[i], st.State)
		}
	}
}

func TestGeminiDispatchAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"error":{"code":403,"message":"API key not valid"}}`))
	}))
	defer srv.Close()

	g := NewGemini("bad-key", "").WithBaseURL(srv.URL)
	sink := &recordSink{}
	_, err := g.Dispatch(context.Background(), conversation(), sink)

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Expected APIError, got %v", err)
	}
	if apiErr.Status != http.StatusForbidden || apiErr.Message != "API key not valid" {
		t.Errorf("Unexpected APIError %+v", apiErr)
	}
	if last := sink.statuses[len(sink.statuses)-1]; last.State != domain.StateError || last.ErrorMsg == "" {
		t.Errorf("Expected Error status with message, got %+v", last)
	}
}

func TestGeminiDispatchEmptyCandidates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candidates":[]}`))
	}))
	defer srv.Close()

	g := NewGemini("k", "").WithBaseURL(srv.URL)
	_, err := g.Dispatch(context.Background(), conversation(), &recordSink{})
	if !errors.Is(err, ErrEmptyResponse) {
		t.Errorf("Expected ErrEmptyResponse, got %v", err)
	}
}

func TestGeminiDispatchMissingKeySkipsHTTP(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	g := NewGemini("", "").WithBaseURL(srv.URL)
	sink := &recordSink{}
	_, err := g.Dispatch(context.Background(), conversation(), sink)
	if !errors.Is(err, ErrMissingCredential) {
		t.Fatalf("Expected ErrMissingCredential, got %v", err)
	}
	if called {
		t.Error("No HTTP request may be made without a credential")
	}
	if len(sink.statuses) != 2 || sink.statuses[1].State != domain.StateError {
		t.Errorf("Expected Requesting then Error, got %+v", sink.statuses)
	}
}

func TestGeminiTestConnection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(geminiReplyBody("pong")))
	}))
	defer srv.Close()

	if !NewGemini("k", "").WithBaseURL(srv.URL).TestConnection(context.Background()) {
		t.Error("Expected connection test to pass")
	}
	if NewGemini("", "").WithBaseURL(srv.URL).TestConnection(context.Background()) {
		t.Error("Expected connection test to fail without a key")
	}
}

func TestGeminiJoinsMultipleParts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"{\"a\":"},{"text":"1}"}]}}]}`))
	}))
	defer srv.Close()

	g := NewGemini("k", "").WithBaseURL(srv.URL)
	reply, err := g.Dispatch(context.Background(), conversation(), &recordSink{})
	if err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}
	if reply.Content != `{"a":1}` {
		t.Errorf("Expected joined parts, got %q", reply.Content)
	}
}

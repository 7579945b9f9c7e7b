package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/reframe-labs/reframe/internal/config"
	"github.com/reframe-labs/reframe/internal/domain"
)

// Compatible is the OpenAI-shape backend: an arbitrary chat-completions
// endpoint instructed by the system prompt to return a JSON object.
type Compatible struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
}

// NewCompatible creates a client for an OpenAI-compatible endpoint.
// Trailing slashes on the base URL are stripped; an empty model falls
// back to the default.
func NewCompatible(apiKey, baseURL, model string) *Compatible {
	if model == "" {
		model = config.DefaultCompatModel
	}
	return &Compatible{
		apiKey:     strings.TrimSpace(apiKey),
		baseURL:    strings.TrimRight(baseURL, "/"),
		model:      model,
		httpClient: sharedHTTPClient,
	}
}

// WithHTTPClient sets a custom HTTP client.
func (c *Compatible) WithHTTPClient(hc *http.Client) *Compatible {
	c.httpClient = hc
	return c
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	ResponseFormat struct {
		Type string `json:"type"`
	} `json:"response_format"`
	Temperature float64 `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type chatErrorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Dispatch posts the conversation to {base}/chat/completions. Messages go
// verbatim, system first; the JSON shape directive is appended to the
// system content since this backend has no native schema enforcement.
func (c *Compatible) Dispatch(ctx context.Context, messages []domain.Message, sink StatusSink) (*Reply, error) {
	return dispatch(sink, func() (string, error) {
		if c.apiKey == "" {
			return "", ErrMissingCredential
		}
		return c.complete(ctx, messages)
	})
}

// TestConnection performs a minimal one-message exchange.
func (c *Compatible) TestConnection(ctx context.Context) bool {
	_, err := c.Dispatch(ctx, pingMessages(), NopSink{})
	return err == nil
}

func (c *Compatible) complete(ctx context.Context, messages []domain.Message) (string, error) {
	out := make([]chatMessage, 0, len(messages)+1)
	hasSystem := false
	for _, m := range messages {
		cm := chatMessage{Role: string(m.Role), Content: m.Content}
		if m.Role == domain.RoleSystem {
			cm.Content += config.JSONFormatInstruction
			hasSystem = true
		}
		out = append(out, cm)
	}
	if !hasSystem {
		out = append([]chatMessage{{
			Role:    string(domain.RoleSystem),
			Content: config.SystemPrompt + config.JSONFormatInstruction,
		}}, out...)
	}

	reqBody := chatRequest{
		Model:       c.model,
		Messages:    out,
		Temperature: config.Temperature,
	}
	reqBody.ResponseFormat.Type = "json_object"

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("chat request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr chatErrorResponse
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error.Message != "" {
			return "", &APIError{Provider: "compatible", Status: resp.StatusCode, Message: apiErr.Error.Message}
		}
		return "", &APIError{Provider: "compatible", Status: resp.StatusCode, Message: string(body)}
	}

	var chatResp chatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return "", fmt.Errorf("parse response: %w", err)
	}

	if len(chatResp.Choices) == 0 {
		return "", nil
	}
	return chatResp.Choices[0].Message.Content, nil
}

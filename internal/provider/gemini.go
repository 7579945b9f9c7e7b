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

// DefaultGeminiURL is the base URL for the generateContent API.
const DefaultGeminiURL = "https://generativelanguage.googleapis.com/v1beta"

// Gemini is the schema backend: it declares the ReframeCard shape as a
// response schema so the model is constrained to structured output.
type Gemini struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
}

// NewGemini creates a Gemini client. An empty model falls back to the
// default. An empty key is allowed at construction time; Dispatch fails
// with ErrMissingCredential.
func NewGemini(apiKey, model string) *Gemini {
	if model == "" {
		model = config.DefaultGeminiModel
	}
	return &Gemini{
		apiKey:     strings.TrimSpace(apiKey),
		baseURL:    DefaultGeminiURL,
		model:      model,
		httpClient: sharedHTTPClient,
	}
}

// WithBaseURL sets a custom base URL for the API.
func (g *Gemini) WithBaseURL(url string) *Gemini {
	g.baseURL = strings.TrimSuffix(url, "/")
	return g
}

// WithHTTPClient sets a custom HTTP client.
func (g *Gemini) WithHTTPClient(c *http.Client) *Gemini {
	g.httpClient = c
	return g
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

// geminiSchema mirrors the generateContent responseSchema declaration.
type geminiSchema struct {
	Type       string                   `json:"type"`
	Properties map[string]*geminiSchema `json:"properties,omitempty"`
	Items      *geminiSchema            `json:"items,omitempty"`
	Enum       []string                 `json:"enum,omitempty"`
	Required   []string                 `json:"required,omitempty"`
}

type geminiGenerationConfig struct {
	ResponseMimeType string        `json:"responseMimeType,omitempty"`
	ResponseSchema   *geminiSchema `json:"responseSchema,omitempty"`
	Temperature      float64       `json:"temperature"`
}

type geminiRequest struct {
	Contents          []geminiContent        `json:"contents"`
	SystemInstruction *geminiContent         `json:"systemInstruction,omitempty"`
	GenerationConfig  geminiGenerationConfig `json:"generationConfig"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

type geminiErrorResponse struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// cardSchema declares the ReframeCard shape: seven required top-level
// fields, checklist items with an S/M/L difficulty enum.
func cardSchema() *geminiSchema {
	str := &geminiSchema{Type: "STRING"}
	strArray := &geminiSchema{Type: "ARRAY", Items: str}
	return &geminiSchema{
		Type: "OBJECT",
		Properties: map[string]*geminiSchema{
			"title":             str,
			"reframe":           str,
			"bright_spots":      strArray,
			"effort_directions": strArray,
			"checklist": {
				Type: "ARRAY",
				Items: &geminiSchema{
					Type: "OBJECT",
					Properties: map[string]*geminiSchema{
						"task":       str,
						"why":        str,
						"timebox":    str,
						"difficulty": {Type: "STRING", Enum: []string{"S", "M", "L"}},
					},
					Required: []string{"task", "why", "timebox", "difficulty"},
				},
			},
			"encouragement": str,
			"next_question": str,
		},
		Required: []string{
			"title", "reframe", "bright_spots", "effort_directions",
			"checklist", "encouragement", "next_question",
		},
	}
}

// Dispatch sends the conversation to the generateContent API. The system
// message is lifted into the out-of-band systemInstruction; assistant
// turns map to the "model" role.
func (g *Gemini) Dispatch(ctx context.Context, messages []domain.Message, sink StatusSink) (*Reply, error) {
	return dispatch(sink, func() (string, error) {
		if g.apiKey == "" {
			return "", ErrMissingCredential
		}
		return g.generate(ctx, messages)
	})
}

// TestConnection performs a minimal one-message exchange.
func (g *Gemini) TestConnection(ctx context.Context) bool {
	_, err := g.Dispatch(ctx, pingMessages(), NopSink{})
	return err == nil
}

func (g *Gemini) generate(ctx context.Context, messages []domain.Message) (string, error) {
	reqBody := geminiRequest{
		SystemInstruction: &geminiContent{Parts: []geminiPart{{Text: config.SystemPrompt}}},
		GenerationConfig: geminiGenerationConfig{
			ResponseMimeType: "application/json",
			ResponseSchema:   cardSchema(),
			Temperature:      config.Temperature,
		},
	}

	for _, m := range messages {
		switch m.Role {
		case domain.RoleSystem:
			reqBody.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: m.Content}}}
		case domain.RoleAssistant:
			reqBody.Contents = append(reqBody.Contents, geminiContent{
				Role:  "model",
				Parts: []geminiPart{{Text: m.Content}},
			})
		default:
			reqBody.Contents = append(reqBody.Contents, geminiContent{
				Role:  "user",
				Parts: []geminiPart{{Text: m.Content}},
			})
		}
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", g.baseURL, g.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", g.apiKey)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("gemini request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr geminiErrorResponse
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error.Message != "" {
			return "", &APIError{Provider: "gemini", Status: resp.StatusCode, Message: apiErr.Error.Message}
		}
		return "", &APIError{Provider: "gemini", Status: resp.StatusCode, Message: string(body)}
	}

	var genResp geminiResponse
	if err := json.Unmarshal(body, &genResp); err != nil {
		return "", fmt.Errorf("parse response: %w", err)
	}

	if len(genResp.Candidates) == 0 {
		return "", nil
	}
	var sb strings.Builder
	for _, p := range genResp.Candidates[0].Content.Parts {
		sb.WriteString(p.Text)
	}
	return sb.String(), nil
}

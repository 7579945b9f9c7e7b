package chat

import (
	"encoding/json"
	"strings"

	"github.com/reframe-labs/reframe/internal/domain"
)

// ParseCard extracts a ReframeCard from free-form model text. Models
// sometimes wrap the JSON in prose or code fences, so the first '{' to
// the last '}' span is decoded. Any failure returns (nil, false) — a
// missing card is a normal outcome, rendered as a raw-text fallback, not
// an error.
func ParseCard(raw string) (*domain.ReframeCard, bool) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start == -1 || end == -1 || end < start {
		return nil, false
	}

	var card domain.ReframeCard
	if err := json.Unmarshal([]byte(raw[start:end+1]), &card); err != nil {
		return nil, false
	}

	// JSON that decodes but carries none of the expected fields is not a
	// card (e.g. a bare "{}" inside an apology).
	if card.Title == "" && card.Reframe == "" {
		return nil, false
	}
	return &card, true
}

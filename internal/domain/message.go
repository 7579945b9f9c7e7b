// Package domain defines the core data model for the reframing chat.
package domain

// Role identifies the author of a conversation message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// Message is a single conversation turn. Messages are immutable once
// appended; ordering is insertion order.
type Message struct {
	Role          Role         `json:"role"`
	Content       string       `json:"content"`
	ParsedContent *ReframeCard `json:"parsedContent,omitempty"`
	Timestamp     int64        `json:"timestamp"` // unix milliseconds
}

// UserTurnCount returns the number of user messages in the conversation.
func UserTurnCount(messages []Message) int {
	n := 0
	for _, m := range messages {
		if m.Role == RoleUser {
			n++
		}
	}
	return n
}

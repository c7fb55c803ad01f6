package types

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ChatRole tags a chat turn.
type ChatRole string

const (
	RoleUser      ChatRole = "user"
	RoleAssistant ChatRole = "assistant"
)

// ChatTurn is one message in a conversation.
type ChatTurn struct {
	Role    ChatRole `json:"role" validate:"required,oneof=user assistant"`
	Content string   `json:"content"`
}

// ChatHistory is an ordered conversation owned by a single chat session.
// It is not safe for concurrent use.
type ChatHistory struct {
	turns []ChatTurn
}

// NewChatHistory creates a history seeded with turns.
func NewChatHistory(turns ...ChatTurn) *ChatHistory {
	h := &ChatHistory{}
	h.turns = append(h.turns, turns...)
	return h
}

// Append adds a turn at the end.
func (h *ChatHistory) Append(role ChatRole, content string) {
	h.turns = append(h.turns, ChatTurn{Role: role, Content: content})
}

// Rollback removes the last turn if it has the given role, reporting whether it did.
// A failed exchange rolls back the user turn so the conversation stays consistent.
func (h *ChatHistory) Rollback(role ChatRole) bool {
	if len(h.turns) == 0 || h.turns[len(h.turns)-1].Role != role {
		return false
	}
	h.turns = h.turns[:len(h.turns)-1]
	return true
}

// Turns returns a copy of the turns.
func (h *ChatHistory) Turns() []ChatTurn {
	out := make([]ChatTurn, len(h.turns))
	copy(out, h.turns)
	return out
}

// Len returns the number of turns.
func (h *ChatHistory) Len() int {
	return len(h.turns)
}

// RenderTurns formats turns as "role: content" lines in order.
func RenderTurns(turns []ChatTurn) string {
	var sb strings.Builder
	for i, t := range turns {
		if i > 0 {
			sb.WriteString("\n")
		}
		fmt.Fprintf(&sb, "%s: %s", t.Role, t.Content)
	}
	return sb.String()
}

// ChatMessage is a persisted chat exchange.
type ChatMessage struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Message   string    `json:"message"`
	Response  string    `json:"response"`
	Timestamp time.Time `json:"timestamp"`
}

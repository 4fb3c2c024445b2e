package models

import "time"

// ChatRole identifies who wrote a chat message
type ChatRole string

const (
	RoleUser      ChatRole = "user"
	RoleAssistant ChatRole = "assistant"
)

// ChatMessage is one append-only entry of a chat session
type ChatMessage struct {
	ID        int64
	UserID    string
	SessionID string
	Role      ChatRole
	Content   string
	Metadata  Metadata
	CreatedAt time.Time
}

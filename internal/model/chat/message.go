package chat

import "time"

// Role identifies who authored a message.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// Message is one immutable turn inside a conversation. Image holds a
// marker ("Image uploaded"), not the bytes; uploads are never persisted.
type Message struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"-"`
	Role           Role      `json:"role"`
	Content        string    `json:"content"`
	Image          string    `json:"image,omitempty"`
	CreatedAt      time.Time `json:"timestamp"`
}

package chat

import "time"

// Conversation is a single chat thread owned by exactly one user.
// Its message sequence is append-only; the title is derived from the
// first message at creation time and never changes afterwards.
type Conversation struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"-"`
	Title     string    `json:"title"`
	Messages  []Message `json:"messages,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Summary is the sidebar listing shape: no messages, just metadata.
type Summary struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	UpdatedAt time.Time `json:"updatedAt"`
}

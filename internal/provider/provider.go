// Package provider defines the uniform contract every completion backend
// must satisfy. The orchestrator depends only on this interface; adding a
// backend means implementing it, never touching the orchestrator.
package provider

import (
	"context"
	"fmt"
)

// Role is the provider-neutral author of a history turn.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// Turn is one prior exchange passed as conversation history. Adapters
// translate Role into whatever the underlying wire format expects.
type Turn struct {
	Role    Role
	Content string
}

// Request carries everything a single completion call needs. Image and
// MimeType are empty for text-only requests; History holds the bounded
// short-term context, oldest first, excluding the new prompt.
type Request struct {
	Prompt   string
	Image    []byte
	MimeType string
	History  []Turn
}

// Provider is implemented once per completion backend.
type Provider interface {
	// Name returns the stable identifier used for provenance reporting.
	Name() string

	// Respond sends the request and returns the completion text. Any
	// transport, auth, or malformed-response failure comes back as a
	// *provider.Error; backend-specific shapes never escape the adapter.
	Respond(ctx context.Context, req Request) (string, error)
}

// Error is the single failure shape adapters surface to the orchestrator.
type Error struct {
	Provider string
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s provider: %v", e.Provider, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// NewError wraps err with the provider's name.
func NewError(name string, err error) *Error {
	return &Error{Provider: name, Err: err}
}

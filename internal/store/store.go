// Package store holds the sentinel errors shared by persistence
// implementations and their consumers.
package store

import "errors"

var (
	ErrConversationNotFound = errors.New("conversation not found")
	ErrUserNotFound         = errors.New("user not found")
	ErrEmailTaken           = errors.New("email already registered")
)

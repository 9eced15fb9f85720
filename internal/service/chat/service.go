// Package chat owns the conversation lifecycle: resolving or creating a
// thread, assembling the prompt context, invoking generation, and
// persisting the resulting message pair atomically.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/vraj62023/MultimodalChatbot/internal/model/chat"
	"github.com/vraj62023/MultimodalChatbot/internal/service/ai"
	"github.com/vraj62023/MultimodalChatbot/internal/store"
)

var (
	// ErrEmptyMessage rejects requests with neither text nor image before
	// any provider call happens.
	ErrEmptyMessage = errors.New("message or image is required")

	// ErrResponseNotSaved means generation succeeded but persisting the
	// message pair failed. Kept distinct from generation errors so the
	// caller can report "answer generated but not saved".
	ErrResponseNotSaved = errors.New("response generated but not saved")
)

const (
	titleLimit      = 30
	imageChatTitle  = "Image Chat"
	imageUploadText = "[Image Upload]"
	imageMarker     = "Image uploaded"
)

// ConversationStore is the persistence boundary this service consumes.
type ConversationStore interface {
	Create(ctx context.Context, ownerID, title string) (chat.Conversation, error)
	FindByIDForOwner(ctx context.Context, id, ownerID string) (chat.Conversation, error)
	RecentByOwnerExcluding(ctx context.Context, ownerID, excludeID string, limit int) ([]chat.Conversation, error)
	AppendMessages(ctx context.Context, conversationID string, msgs []chat.Message) error
	ListByOwner(ctx context.Context, ownerID string) ([]chat.Summary, error)
	Delete(ctx context.Context, id, ownerID string) error
}

// Generator dispatches an assembled request to the AI providers.
type Generator interface {
	Generate(ctx context.Context, req ai.Request) (ai.Result, error)
}

// Options are the context-window tuning knobs. Zero values fall back to
// the defaults below.
type Options struct {
	// ShortTermLimit bounds how many of the active conversation's
	// messages are replayed to the provider.
	ShortTermLimit int

	// RecentConversations bounds how many other conversations feed the
	// long-term context block.
	RecentConversations int

	// MessagesPerConversation bounds how many user messages each of
	// those conversations contributes.
	MessagesPerConversation int
}

func (o Options) withDefaults() Options {
	if o.ShortTermLimit <= 0 {
		o.ShortTermLimit = 6
	}
	if o.RecentConversations <= 0 {
		o.RecentConversations = 4
	}
	if o.MessagesPerConversation <= 0 {
		o.MessagesPerConversation = 2
	}
	return o
}

// Service coordinates stores and the generation orchestrator.
type Service struct {
	convs  ConversationStore
	gen    Generator
	opts   Options
	logger *slog.Logger

	// active tracks the in-flight generation per owner so a stop request
	// can cancel it. Entries are removed when the call returns.
	mu     sync.Mutex
	active map[string]*activeCall
}

type activeCall struct {
	cancel context.CancelFunc
}

// NewService wires the chat service. logger may be nil.
func NewService(convs ConversationStore, gen Generator, opts Options, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		convs:  convs,
		gen:    gen,
		opts:   opts.withDefaults(),
		logger: logger,
		active: make(map[string]*activeCall),
	}
}

// SendMessageInput is one inbound completion request.
type SendMessageInput struct {
	OwnerID        string
	ConversationID string
	Prompt         string
	Image          []byte
	MimeType       string
	Provider       string
}

// SendMessageOutput is the stable response shape the presentation layer
// renders. Provider names the adapter that actually answered.
type SendMessageOutput struct {
	Text           string
	Provider       string
	ConversationID string
	Title          string
}

// SendMessage runs the full flow: validate, resolve the conversation,
// assemble context, generate, persist. The user/model pair is appended
// only after generation succeeds, so a failed call never leaves a
// dangling user turn in history.
func (s *Service) SendMessage(ctx context.Context, in SendMessageInput) (SendMessageOutput, error) {
	if in.Prompt == "" && len(in.Image) == 0 {
		return SendMessageOutput{}, ErrEmptyMessage
	}

	ctx, release := s.track(ctx, in.OwnerID)
	defer release()

	conv, err := s.resolveConversation(ctx, in)
	if err != nil {
		return SendMessageOutput{}, err
	}

	assembled, err := s.assemble(ctx, conv, in.Prompt)
	if err != nil {
		return SendMessageOutput{}, err
	}

	result, err := s.gen.Generate(ctx, ai.Request{
		Prompt:   assembled.Prompt,
		Image:    in.Image,
		MimeType: in.MimeType,
		Provider: in.Provider,
		History:  assembled.History,
	})
	if err != nil {
		return SendMessageOutput{}, err
	}

	userContent := in.Prompt
	if userContent == "" {
		userContent = imageUploadText
	}
	userMsg := chat.Message{Role: chat.RoleUser, Content: userContent}
	if len(in.Image) > 0 {
		userMsg.Image = imageMarker
	}
	modelMsg := chat.Message{Role: chat.RoleModel, Content: result.Text}

	out := SendMessageOutput{
		Text:           result.Text,
		Provider:       result.Provider,
		ConversationID: conv.ID,
		Title:          conv.Title,
	}

	if err := s.convs.AppendMessages(ctx, conv.ID, []chat.Message{userMsg, modelMsg}); err != nil {
		s.logger.Error("failed to persist message pair",
			"conversation_id", conv.ID, "error", err)
		return out, fmt.Errorf("%w: %w", ErrResponseNotSaved, err)
	}

	s.logger.Info("completion persisted",
		"conversation_id", conv.ID,
		"provider", result.Provider,
		"response_length", len(result.Text))
	return out, nil
}

// resolveConversation reuses the supplied conversation when it resolves
// under the caller's ownership, and silently starts a new one otherwise.
// The unresolved-id case is deliberate leniency, not an error.
func (s *Service) resolveConversation(ctx context.Context, in SendMessageInput) (chat.Conversation, error) {
	if in.ConversationID != "" {
		conv, err := s.convs.FindByIDForOwner(ctx, in.ConversationID, in.OwnerID)
		if err == nil {
			return conv, nil
		}
		if !errors.Is(err, store.ErrConversationNotFound) {
			return chat.Conversation{}, err
		}
	}

	conv, err := s.convs.Create(ctx, in.OwnerID, deriveTitle(in.Prompt))
	if err != nil {
		return chat.Conversation{}, err
	}
	return conv, nil
}

// ListConversations returns the owner's conversations, newest first.
func (s *Service) ListConversations(ctx context.Context, ownerID string) ([]chat.Summary, error) {
	return s.convs.ListByOwner(ctx, ownerID)
}

// GetConversation returns one conversation with its transcript.
func (s *Service) GetConversation(ctx context.Context, id, ownerID string) (chat.Conversation, error) {
	return s.convs.FindByIDForOwner(ctx, id, ownerID)
}

// DeleteConversation removes a conversation the owner no longer wants.
func (s *Service) DeleteConversation(ctx context.Context, id, ownerID string) error {
	return s.convs.Delete(ctx, id, ownerID)
}

// StopGeneration cancels the owner's in-flight generation, if any, and
// reports whether one was running. The aborted call persists nothing.
func (s *Service) StopGeneration(ownerID string) bool {
	s.mu.Lock()
	call, ok := s.active[ownerID]
	s.mu.Unlock()
	if ok {
		call.cancel()
	}
	return ok
}

// track registers a cancellable context for the owner's request. A newer
// request from the same owner replaces the registration but does not
// cancel the older call; on release only our own entry is removed.
func (s *Service) track(ctx context.Context, ownerID string) (context.Context, func()) {
	ctx, cancel := context.WithCancel(ctx)
	call := &activeCall{cancel: cancel}

	s.mu.Lock()
	s.active[ownerID] = call
	s.mu.Unlock()

	return ctx, func() {
		s.mu.Lock()
		if s.active[ownerID] == call {
			delete(s.active, ownerID)
		}
		s.mu.Unlock()
		cancel()
	}
}

// deriveTitle builds the permanent conversation title from the first
// prompt: its first 30 characters plus an ellipsis, or a fixed label for
// image-only openings.
func deriveTitle(prompt string) string {
	if prompt == "" {
		return imageChatTitle
	}
	runes := []rune(prompt)
	if len(runes) > titleLimit {
		runes = runes[:titleLimit]
	}
	return string(runes) + "..."
}

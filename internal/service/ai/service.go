// Package ai orchestrates completion calls across the configured
// providers: dispatch to the requested one, fall back once from primary
// to secondary, and report which provider actually answered.
package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/vraj62023/MultimodalChatbot/internal/provider"
)

var (
	// ErrInvalidProvider means the caller named a provider this service
	// does not know. No adapter is called.
	ErrInvalidProvider = errors.New("invalid provider requested")

	// ErrGenerationFailed means every eligible provider failed.
	ErrGenerationFailed = errors.New("generation failed")
)

// Request carries one generation call. Provider may be empty, meaning
// the primary provider.
type Request struct {
	Prompt   string
	Image    []byte
	MimeType string
	Provider string
	History  []provider.Turn
}

// Result is the normalized outcome. Provider is the adapter that actually
// produced Text, which differs from the requested one after a fallback.
type Result struct {
	Text     string
	Provider string
}

// Service routes generation requests between a primary and a secondary
// provider. Fallback is one-directional: a failing primary retries once
// against the secondary, an explicitly requested secondary does not
// retry against the primary.
type Service struct {
	primary   provider.Provider
	secondary provider.Provider
	logger    *slog.Logger
}

// NewService wires the two adapters. logger may be nil.
func NewService(primary, secondary provider.Provider, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{primary: primary, secondary: secondary, logger: logger}
}

// Generate runs the two-step dispatch state machine. The returned Result
// always names the provider whose call succeeded; failure reasons from a
// recovered primary attempt stay in the logs and are never surfaced.
func (s *Service) Generate(ctx context.Context, req Request) (Result, error) {
	chosen, err := s.resolve(req.Provider)
	if err != nil {
		return Result{}, err
	}

	payload := provider.Request{
		Prompt:   req.Prompt,
		Image:    req.Image,
		MimeType: req.MimeType,
		History:  req.History,
	}

	text, err := chosen.Respond(ctx, payload)
	if err == nil {
		return Result{Text: text, Provider: chosen.Name()}, nil
	}

	if chosen != s.primary {
		// Secondary was requested explicitly; no route left to try.
		return Result{}, fmt.Errorf("%w: %w", ErrGenerationFailed, err)
	}
	if ctx.Err() != nil {
		// The caller is gone or asked to stop; retrying is pointless.
		return Result{}, fmt.Errorf("%w: %w", ErrGenerationFailed, err)
	}

	s.logger.Warn("primary provider failed, falling back",
		"primary", s.primary.Name(),
		"secondary", s.secondary.Name(),
		"error", err)

	text, err = s.secondary.Respond(ctx, payload)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrGenerationFailed, err)
	}
	return Result{Text: text, Provider: s.secondary.Name()}, nil
}

// resolve maps the requested name to an adapter. Empty means primary;
// anything unrecognized is rejected before any call is made.
func (s *Service) resolve(name string) (provider.Provider, error) {
	switch name {
	case "", s.primary.Name():
		return s.primary, nil
	case s.secondary.Name():
		return s.secondary, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidProvider, name)
	}
}

package chat

import (
	"context"
	"fmt"
	"strings"

	"github.com/vraj62023/MultimodalChatbot/internal/model/chat"
	"github.com/vraj62023/MultimodalChatbot/internal/provider"
)

const pastChatAttribution = "(In a past chat, User said): "

// assembly is the outgoing generation payload: the final prompt with any
// long-term context folded in, plus the bounded short-term history.
type assembly struct {
	Prompt  string
	History []provider.Turn
}

// assemble builds the payload for one generation call. Long-term context
// comes only from the owner's other conversations; the active thread
// contributes the short-term history.
func (s *Service) assemble(ctx context.Context, conv chat.Conversation, prompt string) (assembly, error) {
	longTerm, err := s.longTermContext(ctx, conv)
	if err != nil {
		return assembly{}, err
	}

	out := assembly{
		Prompt:  prompt,
		History: shortTermHistory(conv.Messages, s.opts.ShortTermLimit),
	}
	if longTerm != "" {
		out.Prompt = fmt.Sprintf(
			"[System Note: Context from past chats. Use this if relevant.]\n%s\n\n[Current Message]: %s",
			longTerm, prompt)
	}
	return out, nil
}

// longTermContext concatenates the last user-authored messages of the
// owner's most recently updated other conversations, one attributed line
// per message. Returns "" when there is nothing to carry over.
func (s *Service) longTermContext(ctx context.Context, conv chat.Conversation) (string, error) {
	recent, err := s.convs.RecentByOwnerExcluding(ctx, conv.OwnerID, conv.ID, s.opts.RecentConversations)
	if err != nil {
		return "", fmt.Errorf("failed to load recent conversations: %w", err)
	}

	var sb strings.Builder
	for _, prev := range recent {
		for _, msg := range lastUserMessages(prev.Messages, s.opts.MessagesPerConversation) {
			sb.WriteString(pastChatAttribution)
			sb.WriteString(msg.Content)
			sb.WriteString("\n")
		}
	}
	return sb.String(), nil
}

// lastUserMessages returns the trailing user-role messages, at most limit
// of them, preserving their original order.
func lastUserMessages(msgs []chat.Message, limit int) []chat.Message {
	var userMsgs []chat.Message
	for _, msg := range msgs {
		if msg.Role == chat.RoleUser {
			userMsgs = append(userMsgs, msg)
		}
	}
	if len(userMsgs) > limit {
		userMsgs = userMsgs[len(userMsgs)-limit:]
	}
	return userMsgs
}

// shortTermHistory maps the conversation's trailing messages, both roles,
// into provider turns.
func shortTermHistory(msgs []chat.Message, limit int) []provider.Turn {
	if len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}

	turns := make([]provider.Turn, 0, len(msgs))
	for _, msg := range msgs {
		role := provider.RoleUser
		if msg.Role == chat.RoleModel {
			role = provider.RoleModel
		}
		turns = append(turns, provider.Turn{Role: role, Content: msg.Content})
	}
	return turns
}

package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vraj62023/MultimodalChatbot/internal/model/chat"
	"github.com/vraj62023/MultimodalChatbot/internal/store"
)

// Conversations provides owner-scoped conversation persistence. Every
// query filters by owner id, so one user can never read another's chats.
type Conversations struct {
	db *sql.DB
}

// NewConversations wraps db with the conversation store.
func NewConversations(db *sql.DB) *Conversations {
	return &Conversations{db: db}
}

// Create inserts an empty conversation for the owner.
func (c *Conversations) Create(ctx context.Context, ownerID, title string) (chat.Conversation, error) {
	now := time.Now().UTC()
	conv := chat.Conversation{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err := c.db.ExecContext(ctx,
		`INSERT INTO conversations (id, owner_id, title, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		conv.ID, conv.OwnerID, conv.Title, now.Unix(), now.Unix())
	if err != nil {
		return chat.Conversation{}, fmt.Errorf("failed to create conversation: %w", err)
	}
	return conv, nil
}

// FindByIDForOwner loads one conversation with its full message sequence.
// Returns store.ErrConversationNotFound when the id does not resolve under
// the given owner.
func (c *Conversations) FindByIDForOwner(ctx context.Context, id, ownerID string) (chat.Conversation, error) {
	row := c.db.QueryRowContext(ctx,
		`SELECT id, owner_id, title, created_at, updated_at FROM conversations WHERE id = ? AND owner_id = ?`,
		id, ownerID)

	conv, err := scanConversation(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return chat.Conversation{}, store.ErrConversationNotFound
		}
		return chat.Conversation{}, fmt.Errorf("failed to load conversation: %w", err)
	}

	conv.Messages, err = c.loadMessages(ctx, conv.ID)
	if err != nil {
		return chat.Conversation{}, err
	}
	return conv, nil
}

// RecentByOwnerExcluding returns up to limit conversations owned by
// ownerID, most recently updated first, skipping excludeID. Messages are
// loaded so callers can slice out long-term context.
func (c *Conversations) RecentByOwnerExcluding(ctx context.Context, ownerID, excludeID string, limit int) ([]chat.Conversation, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT id, owner_id, title, created_at, updated_at FROM conversations
		 WHERE owner_id = ? AND id != ? ORDER BY updated_at DESC, rowid DESC LIMIT ?`,
		ownerID, excludeID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent conversations: %w", err)
	}
	defer rows.Close()

	var convs []chat.Conversation
	for rows.Next() {
		conv, err := scanConversation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan conversation: %w", err)
		}
		convs = append(convs, conv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate conversations: %w", err)
	}

	for i := range convs {
		convs[i].Messages, err = c.loadMessages(ctx, convs[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return convs, nil
}

// AppendMessages inserts msgs into the conversation and bumps updated_at,
// all inside one transaction. Either the whole batch lands or none of it.
func (c *Conversations) AppendMessages(ctx context.Context, conversationID string, msgs []chat.Message) error {
	if len(msgs) == 0 {
		return nil
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin append: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	for _, msg := range msgs {
		if msg.ID == "" {
			msg.ID = uuid.NewString()
		}
		if msg.CreatedAt.IsZero() {
			msg.CreatedAt = now
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO messages (id, conversation_id, role, content, image, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
			msg.ID, conversationID, string(msg.Role), msg.Content, msg.Image, msg.CreatedAt.Unix())
		if err != nil {
			return fmt.Errorf("failed to append message: %w", err)
		}
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE conversations SET updated_at = ? WHERE id = ?`, now.Unix(), conversationID)
	if err != nil {
		return fmt.Errorf("failed to touch conversation: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return store.ErrConversationNotFound
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit append: %w", err)
	}
	return nil
}

// ListByOwner returns conversation metadata for the owner, most recently
// updated first.
func (c *Conversations) ListByOwner(ctx context.Context, ownerID string) ([]chat.Summary, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT id, title, updated_at FROM conversations WHERE owner_id = ? ORDER BY updated_at DESC, rowid DESC`,
		ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	defer rows.Close()

	summaries := make([]chat.Summary, 0, 8)
	for rows.Next() {
		var s chat.Summary
		var updated int64
		if err := rows.Scan(&s.ID, &s.Title, &updated); err != nil {
			return nil, fmt.Errorf("failed to scan summary: %w", err)
		}
		s.UpdatedAt = time.Unix(updated, 0).UTC()
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate summaries: %w", err)
	}
	return summaries, nil
}

// Delete removes the conversation and, via cascade, its messages.
func (c *Conversations) Delete(ctx context.Context, id, ownerID string) error {
	res, err := c.db.ExecContext(ctx,
		`DELETE FROM conversations WHERE id = ? AND owner_id = ?`, id, ownerID)
	if err != nil {
		return fmt.Errorf("failed to delete conversation: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return store.ErrConversationNotFound
	}
	return nil
}

// loadMessages returns the conversation's messages in insertion order.
func (c *Conversations) loadMessages(ctx context.Context, conversationID string) ([]chat.Message, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT id, conversation_id, role, content, image, created_at FROM messages
		 WHERE conversation_id = ? ORDER BY rowid ASC`,
		conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to load messages: %w", err)
	}
	defer rows.Close()

	var msgs []chat.Message
	for rows.Next() {
		var msg chat.Message
		var role string
		var created int64
		if err := rows.Scan(&msg.ID, &msg.ConversationID, &role, &msg.Content, &msg.Image, &created); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		msg.Role = chat.Role(role)
		msg.CreatedAt = time.Unix(created, 0).UTC()
		msgs = append(msgs, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate messages: %w", err)
	}
	return msgs, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanConversation(row rowScanner) (chat.Conversation, error) {
	var conv chat.Conversation
	var created, updated int64
	if err := row.Scan(&conv.ID, &conv.OwnerID, &conv.Title, &created, &updated); err != nil {
		return chat.Conversation{}, err
	}
	conv.CreatedAt = time.Unix(created, 0).UTC()
	conv.UpdatedAt = time.Unix(updated, 0).UTC()
	return conv, nil
}

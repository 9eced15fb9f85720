package sqlite_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vraj62023/MultimodalChatbot/internal/model/chat"
	"github.com/vraj62023/MultimodalChatbot/internal/store"
	"github.com/vraj62023/MultimodalChatbot/internal/store/sqlite"
)

func openTestStore(t *testing.T) (*sqlite.Conversations, *sqlite.Users) {
	t.Helper()
	db, err := sqlite.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sqlite.NewConversations(db), sqlite.NewUsers(db)
}

func createOwner(t *testing.T, users *sqlite.Users, email string) string {
	t.Helper()
	usr, err := users.Create(context.Background(), email, "hash")
	require.NoError(t, err)
	return usr.ID
}

func TestCreateAndFind(t *testing.T) {
	convs, users := openTestStore(t)
	ctx := context.Background()
	owner := createOwner(t, users, "a@example.com")

	created, err := convs.Create(ctx, owner, "Explain quantum computing in s...")
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)

	found, err := convs.FindByIDForOwner(ctx, created.ID, owner)
	require.NoError(t, err)
	require.Equal(t, created.Title, found.Title)
	require.Empty(t, found.Messages)
}

func TestFindEnforcesOwnership(t *testing.T) {
	convs, users := openTestStore(t)
	ctx := context.Background()
	owner := createOwner(t, users, "a@example.com")
	other := createOwner(t, users, "b@example.com")

	created, err := convs.Create(ctx, owner, "mine")
	require.NoError(t, err)

	_, err = convs.FindByIDForOwner(ctx, created.ID, other)
	require.ErrorIs(t, err, store.ErrConversationNotFound)
}

func TestAppendMessagesPreservesOrder(t *testing.T) {
	convs, users := openTestStore(t)
	ctx := context.Background()
	owner := createOwner(t, users, "a@example.com")

	conv, err := convs.Create(ctx, owner, "ordered")
	require.NoError(t, err)

	err = convs.AppendMessages(ctx, conv.ID, []chat.Message{
		{Role: chat.RoleUser, Content: "first"},
		{Role: chat.RoleModel, Content: "second"},
	})
	require.NoError(t, err)
	err = convs.AppendMessages(ctx, conv.ID, []chat.Message{
		{Role: chat.RoleUser, Content: "third", Image: "Image uploaded"},
		{Role: chat.RoleModel, Content: "fourth"},
	})
	require.NoError(t, err)

	found, err := convs.FindByIDForOwner(ctx, conv.ID, owner)
	require.NoError(t, err)
	require.Len(t, found.Messages, 4)
	require.Equal(t, "first", found.Messages[0].Content)
	require.Equal(t, chat.RoleModel, found.Messages[1].Role)
	require.Equal(t, "Image uploaded", found.Messages[2].Image)
	require.Equal(t, "fourth", found.Messages[3].Content)

	// Appending bumps updated_at so the conversation sorts first.
	require.False(t, found.UpdatedAt.Before(conv.UpdatedAt))
}

func TestAppendToMissingConversation(t *testing.T) {
	convs, users := openTestStore(t)
	_ = users
	err := convs.AppendMessages(context.Background(), "no-such-id", []chat.Message{
		{Role: chat.RoleUser, Content: "hello"},
	})
	require.ErrorIs(t, err, store.ErrConversationNotFound)
}

func TestRecentByOwnerExcluding(t *testing.T) {
	convs, users := openTestStore(t)
	ctx := context.Background()
	owner := createOwner(t, users, "a@example.com")
	other := createOwner(t, users, "b@example.com")

	var ids []string
	for i := 0; i < 3; i++ {
		conv, err := convs.Create(ctx, owner, "chat")
		require.NoError(t, err)
		ids = append(ids, conv.ID)
	}
	foreign, err := convs.Create(ctx, other, "theirs")
	require.NoError(t, err)

	// Touch the first conversation so it becomes the most recent.
	err = convs.AppendMessages(ctx, ids[0], []chat.Message{
		{Role: chat.RoleUser, Content: "bump"},
	})
	require.NoError(t, err)

	recent, err := convs.RecentByOwnerExcluding(ctx, owner, ids[1], 10)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	gotIDs := []string{recent[0].ID, recent[1].ID}
	require.ElementsMatch(t, []string{ids[0], ids[2]}, gotIDs)
	require.NotContains(t, gotIDs, foreign.ID)
	require.False(t, recent[0].UpdatedAt.Before(recent[1].UpdatedAt))
	for _, conv := range recent {
		if conv.ID == ids[0] {
			require.Len(t, conv.Messages, 1)
		}
	}

	limited, err := convs.RecentByOwnerExcluding(ctx, owner, "", 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
}

func TestListByOwner(t *testing.T) {
	convs, users := openTestStore(t)
	ctx := context.Background()
	owner := createOwner(t, users, "a@example.com")
	other := createOwner(t, users, "b@example.com")

	first, err := convs.Create(ctx, owner, "first")
	require.NoError(t, err)
	second, err := convs.Create(ctx, owner, "second")
	require.NoError(t, err)
	_, err = convs.Create(ctx, other, "theirs")
	require.NoError(t, err)

	err = convs.AppendMessages(ctx, first.ID, []chat.Message{
		{Role: chat.RoleUser, Content: "bump"},
	})
	require.NoError(t, err)

	summaries, err := convs.ListByOwner(ctx, owner)
	require.NoError(t, err)
	require.Len(t, summaries, 2)
	require.ElementsMatch(t, []string{first.ID, second.ID},
		[]string{summaries[0].ID, summaries[1].ID})
	require.False(t, summaries[0].UpdatedAt.Before(summaries[1].UpdatedAt))
}

func TestDeleteCascadesMessages(t *testing.T) {
	convs, users := openTestStore(t)
	ctx := context.Background()
	owner := createOwner(t, users, "a@example.com")

	conv, err := convs.Create(ctx, owner, "doomed")
	require.NoError(t, err)
	err = convs.AppendMessages(ctx, conv.ID, []chat.Message{
		{Role: chat.RoleUser, Content: "hello"},
		{Role: chat.RoleModel, Content: "hi"},
	})
	require.NoError(t, err)

	require.NoError(t, convs.Delete(ctx, conv.ID, owner))
	_, err = convs.FindByIDForOwner(ctx, conv.ID, owner)
	require.ErrorIs(t, err, store.ErrConversationNotFound)

	err = convs.Delete(ctx, conv.ID, owner)
	require.ErrorIs(t, err, store.ErrConversationNotFound)
}

func TestDeleteEnforcesOwnership(t *testing.T) {
	convs, users := openTestStore(t)
	ctx := context.Background()
	owner := createOwner(t, users, "a@example.com")
	other := createOwner(t, users, "b@example.com")

	conv, err := convs.Create(ctx, owner, "mine")
	require.NoError(t, err)

	err = convs.Delete(ctx, conv.ID, other)
	require.True(t, errors.Is(err, store.ErrConversationNotFound))

	_, err = convs.FindByIDForOwner(ctx, conv.ID, owner)
	require.NoError(t, err)
}

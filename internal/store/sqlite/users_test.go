package sqlite_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vraj62023/MultimodalChatbot/internal/store"
)

func TestUserCreateAndLookup(t *testing.T) {
	_, users := openTestStore(t)
	ctx := context.Background()

	created, err := users.Create(ctx, "alice@example.com", "bcrypt-hash")
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)

	byEmail, err := users.FindByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	require.Equal(t, created.ID, byEmail.ID)
	require.Equal(t, "bcrypt-hash", byEmail.PasswordHash)

	byID, err := users.FindByID(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, "alice@example.com", byID.Email)
}

func TestUserDuplicateEmail(t *testing.T) {
	_, users := openTestStore(t)
	ctx := context.Background()

	_, err := users.Create(ctx, "alice@example.com", "h1")
	require.NoError(t, err)

	_, err = users.Create(ctx, "alice@example.com", "h2")
	require.ErrorIs(t, err, store.ErrEmailTaken)
}

func TestUserNotFound(t *testing.T) {
	_, users := openTestStore(t)
	ctx := context.Background()

	_, err := users.FindByEmail(ctx, "ghost@example.com")
	require.ErrorIs(t, err, store.ErrUserNotFound)

	_, err = users.FindByID(ctx, "no-such-id")
	require.ErrorIs(t, err, store.ErrUserNotFound)
}

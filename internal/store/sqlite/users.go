package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vraj62023/MultimodalChatbot/internal/model/user"
	"github.com/vraj62023/MultimodalChatbot/internal/store"
)

// Users provides account persistence keyed by email.
type Users struct {
	db *sql.DB
}

// NewUsers wraps db with the user store.
func NewUsers(db *sql.DB) *Users {
	return &Users{db: db}
}

// Create inserts a new account. Returns store.ErrEmailTaken when the
// email is already registered.
func (u *Users) Create(ctx context.Context, email, passwordHash string) (user.User, error) {
	now := time.Now().UTC()
	usr := user.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    now,
	}

	_, err := u.db.ExecContext(ctx,
		`INSERT INTO users (id, email, password_hash, created_at) VALUES (?, ?, ?, ?)`,
		usr.ID, usr.Email, usr.PasswordHash, now.Unix())
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return user.User{}, store.ErrEmailTaken
		}
		return user.User{}, fmt.Errorf("failed to create user: %w", err)
	}
	return usr, nil
}

// FindByEmail looks an account up by email.
func (u *Users) FindByEmail(ctx context.Context, email string) (user.User, error) {
	return u.findOne(ctx, `SELECT id, email, password_hash, created_at FROM users WHERE email = ?`, email)
}

// FindByID looks an account up by id.
func (u *Users) FindByID(ctx context.Context, id string) (user.User, error) {
	return u.findOne(ctx, `SELECT id, email, password_hash, created_at FROM users WHERE id = ?`, id)
}

func (u *Users) findOne(ctx context.Context, query string, arg any) (user.User, error) {
	var usr user.User
	var created int64
	err := u.db.QueryRowContext(ctx, query, arg).Scan(&usr.ID, &usr.Email, &usr.PasswordHash, &created)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return user.User{}, store.ErrUserNotFound
		}
		return user.User{}, fmt.Errorf("failed to load user: %w", err)
	}
	usr.CreatedAt = time.Unix(created, 0).UTC()
	return usr, nil
}

// Package auth issues and verifies the credential pair the HTTP layer
// relies on: a short-lived access token and a long-lived refresh token,
// both HMAC-signed, over bcrypt-hashed passwords.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/vraj62023/MultimodalChatbot/internal/model/user"
	"github.com/vraj62023/MultimodalChatbot/internal/store"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid token")
	ErrMissingFields      = errors.New("email and password are required")
	ErrPasswordTooShort   = errors.New("password must be at least 6 characters")
)

const minPasswordLength = 6

// UserStore is the account persistence boundary this service consumes.
type UserStore interface {
	Create(ctx context.Context, email, passwordHash string) (user.User, error)
	FindByEmail(ctx context.Context, email string) (user.User, error)
	FindByID(ctx context.Context, id string) (user.User, error)
}

// Config carries the signing secrets and token lifetimes.
type Config struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
}

// TokenPair is what a successful register/login hands back.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// Service implements registration, login, and token refresh.
type Service struct {
	users UserStore
	cfg   Config
}

// NewService wires the auth service, defaulting token lifetimes to
// 15 minutes (access) and 7 days (refresh).
func NewService(users UserStore, cfg Config) *Service {
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = 15 * time.Minute
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = 7 * 24 * time.Hour
	}
	return &Service{users: users, cfg: cfg}
}

// Register creates an account and returns it with a fresh token pair.
// A duplicate email surfaces as store.ErrEmailTaken.
func (s *Service) Register(ctx context.Context, email, password string) (user.User, TokenPair, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return user.User{}, TokenPair{}, ErrMissingFields
	}
	if len(password) < minPasswordLength {
		return user.User{}, TokenPair{}, ErrPasswordTooShort
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return user.User{}, TokenPair{}, fmt.Errorf("failed to hash password: %w", err)
	}

	usr, err := s.users.Create(ctx, email, string(hash))
	if err != nil {
		return user.User{}, TokenPair{}, err
	}

	tokens, err := s.issueTokens(usr.ID)
	if err != nil {
		return user.User{}, TokenPair{}, err
	}
	return usr, tokens, nil
}

// Login checks the credential against the stored hash and returns a fresh
// token pair. Unknown emails and wrong passwords are indistinguishable.
func (s *Service) Login(ctx context.Context, email, password string) (user.User, TokenPair, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	usr, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return user.User{}, TokenPair{}, ErrInvalidCredentials
		}
		return user.User{}, TokenPair{}, err
	}

	if bcrypt.CompareHashAndPassword([]byte(usr.PasswordHash), []byte(password)) != nil {
		return user.User{}, TokenPair{}, ErrInvalidCredentials
	}

	tokens, err := s.issueTokens(usr.ID)
	if err != nil {
		return user.User{}, TokenPair{}, err
	}
	return usr, tokens, nil
}

// Refresh exchanges a valid refresh token for a new access token.
func (s *Service) Refresh(refreshToken string) (string, error) {
	userID, err := s.verify(refreshToken, s.cfg.RefreshSecret)
	if err != nil {
		return "", err
	}
	return s.sign(userID, s.cfg.AccessSecret, s.cfg.AccessTTL)
}

// VerifyAccess validates an access token and returns the owner id it was
// issued for.
func (s *Service) VerifyAccess(accessToken string) (string, error) {
	return s.verify(accessToken, s.cfg.AccessSecret)
}

func (s *Service) issueTokens(userID string) (TokenPair, error) {
	access, err := s.sign(userID, s.cfg.AccessSecret, s.cfg.AccessTTL)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := s.sign(userID, s.cfg.RefreshSecret, s.cfg.RefreshTTL)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (s *Service) sign(userID, secret string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return token, nil
}

func (s *Service) verify(tokenString, secret string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return "", ErrInvalidToken
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}

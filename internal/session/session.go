// Package session implements cookie-token authentication: account
// registration, credential checks, and token issuance with TTL expiry.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"fintrack/internal/core"
	"fintrack/internal/store"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidSession     = errors.New("invalid or expired session")
	ErrWeakPassword       = errors.New("password must be at least 6 characters")
	ErrInvalidEmail       = errors.New("invalid email address")
)

// TokenStore persists session tokens. Implementations expire tokens after
// the TTL passed to Save.
type TokenStore interface {
	Save(ctx context.Context, token, userID string, ttl time.Duration) error
	// Lookup returns the user ID bound to a live token, or
	// ErrInvalidSession for unknown or expired tokens.
	Lookup(ctx context.Context, token string) (string, error)
	Revoke(ctx context.Context, token string) error
}

// Manager handles the account lifecycle on top of a profile store and a
// token store.
type Manager struct {
	profiles store.ProfileStore
	tokens   TokenStore
	ttl      time.Duration

	now func() time.Time
}

func NewManager(profiles store.ProfileStore, tokens TokenStore, ttl time.Duration) *Manager {
	return &Manager{
		profiles: profiles,
		tokens:   tokens,
		ttl:      ttl,
		now:      time.Now,
	}
}

// TTL returns the configured session lifetime.
func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// Register creates an account and opens a session for it.
func (m *Manager) Register(ctx context.Context, email, name, password string) (core.Profile, string, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	name = strings.TrimSpace(name)

	if !validEmail(email) {
		return core.Profile{}, "", ErrInvalidEmail
	}
	if name == "" {
		return core.Profile{}, "", core.ErrEmptyName
	}
	if len(password) < 6 {
		return core.Profile{}, "", ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return core.Profile{}, "", fmt.Errorf("hash password: %w", err)
	}

	profile := core.Profile{
		ID:           uuid.NewString(),
		Email:        email,
		Name:         name,
		PasswordHash: string(hash),
		CreatedAt:    m.now().UTC(),
	}
	if err := m.profiles.CreateProfile(ctx, profile); err != nil {
		return core.Profile{}, "", err
	}

	token, err := m.openSession(ctx, profile.ID)
	if err != nil {
		return core.Profile{}, "", err
	}
	return profile, token, nil
}

// Login verifies credentials and opens a session. Unknown emails and wrong
// passwords produce the same error.
func (m *Manager) Login(ctx context.Context, email, password string) (core.Profile, string, error) {
	email = strings.TrimSpace(strings.ToLower(email))

	profile, err := m.profiles.GetProfileByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return core.Profile{}, "", ErrInvalidCredentials
		}
		return core.Profile{}, "", fmt.Errorf("lookup profile: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(profile.PasswordHash), []byte(password)); err != nil {
		return core.Profile{}, "", ErrInvalidCredentials
	}

	token, err := m.openSession(ctx, profile.ID)
	if err != nil {
		return core.Profile{}, "", err
	}
	return profile, token, nil
}

// Logout revokes a session token. Revoking an unknown token is not an
// error.
func (m *Manager) Logout(ctx context.Context, token string) error {
	return m.tokens.Revoke(ctx, token)
}

// Authenticate resolves a session token to the owning user ID.
func (m *Manager) Authenticate(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", ErrInvalidSession
	}
	return m.tokens.Lookup(ctx, token)
}

// ChangePassword re-hashes and stores a new password for the user.
func (m *Manager) ChangePassword(ctx context.Context, userID, password string) error {
	if len(password) < 6 {
		return ErrWeakPassword
	}
	profile, err := m.profiles.GetProfile(ctx, userID)
	if err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	profile.PasswordHash = string(hash)
	return m.profiles.UpdateProfile(ctx, profile)
}

func (m *Manager) openSession(ctx context.Context, userID string) (string, error) {
	token := uuid.NewString()
	if err := m.tokens.Save(ctx, token, userID, m.ttl); err != nil {
		return "", fmt.Errorf("save session: %w", err)
	}
	return token, nil
}

// validEmail is deliberately loose: one @ with something on both sides and
// a dot in the domain.
func validEmail(email string) bool {
	at := strings.Index(email, "@")
	if at <= 0 || at == len(email)-1 {
		return false
	}
	domain := email[at+1:]
	if strings.Contains(domain, "@") {
		return false
	}
	dot := strings.Index(domain, ".")
	return dot > 0 && dot < len(domain)-1
}

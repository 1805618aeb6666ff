package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"fintrack/internal/store"
	"fintrack/internal/store/memory"
)

func newTestManager(t *testing.T) (*Manager, *MemoryTokenStore) {
	t.Helper()
	tokens := NewMemoryTokenStore()
	t.Cleanup(tokens.Stop)
	return NewManager(memory.New(), tokens, time.Hour), tokens
}

func TestRegisterAndAuthenticate(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	profile, token, err := m.Register(ctx, "Alice@Example.com", "Alice", "secret1")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if profile.Email != "alice@example.com" {
		t.Errorf("Register() email = %v, want lowercased", profile.Email)
	}
	if profile.PasswordHash == "secret1" || profile.PasswordHash == "" {
		t.Errorf("Register() must store a hash, got %q", profile.PasswordHash)
	}
	if token == "" {
		t.Fatal("Register() returned empty token")
	}

	userID, err := m.Authenticate(ctx, token)
	if err != nil {
		t.Fatalf("Authenticate() error = %v", err)
	}
	if userID != profile.ID {
		t.Errorf("Authenticate() userID = %v, want %v", userID, profile.ID)
	}
}

func TestRegisterValidation(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		email    string
		userName string
		password string
		wantErr  error
	}{
		{"bad email no at", "alice.example.com", "Alice", "secret1", ErrInvalidEmail},
		{"bad email no domain dot", "alice@example", "Alice", "secret1", ErrInvalidEmail},
		{"empty name", "alice@example.com", "  ", "secret1", nil},
		{"short password", "alice@example.com", "Alice", "12345", ErrWeakPassword},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := m.Register(ctx, tt.email, tt.userName, tt.password)
			if err == nil {
				t.Fatal("Register() error = nil, want error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("Register() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	if _, _, err := m.Register(ctx, "alice@example.com", "Alice", "secret1"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	_, _, err := m.Register(ctx, "ALICE@example.com", "Other", "secret2")
	if !errors.Is(err, store.ErrEmailTaken) {
		t.Errorf("Register() duplicate error = %v, want ErrEmailTaken", err)
	}
}

func TestLogin(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	registered, _, err := m.Register(ctx, "alice@example.com", "Alice", "secret1")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	profile, token, err := m.Login(ctx, "alice@example.com", "secret1")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if profile.ID != registered.ID {
		t.Errorf("Login() profile ID = %v, want %v", profile.ID, registered.ID)
	}

	userID, err := m.Authenticate(ctx, token)
	if err != nil || userID != registered.ID {
		t.Errorf("Authenticate() = %v, %v", userID, err)
	}

	if _, _, err := m.Login(ctx, "alice@example.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("Login() wrong password error = %v, want ErrInvalidCredentials", err)
	}
	if _, _, err := m.Login(ctx, "nobody@example.com", "secret1"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("Login() unknown email error = %v, want ErrInvalidCredentials", err)
	}
}

func TestLogoutRevokesToken(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	_, token, err := m.Register(ctx, "alice@example.com", "Alice", "secret1")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	if err := m.Logout(ctx, token); err != nil {
		t.Fatalf("Logout() error = %v", err)
	}
	if _, err := m.Authenticate(ctx, token); !errors.Is(err, ErrInvalidSession) {
		t.Errorf("Authenticate() after logout error = %v, want ErrInvalidSession", err)
	}

	// Unknown tokens revoke silently.
	if err := m.Logout(ctx, "not-a-token"); err != nil {
		t.Errorf("Logout(unknown) error = %v", err)
	}
}

func TestTokenExpiry(t *testing.T) {
	tokens := NewMemoryTokenStore()
	t.Cleanup(tokens.Stop)
	ctx := context.Background()

	if err := tokens.Save(ctx, "tok", "user-1", 10*time.Millisecond); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if _, err := tokens.Lookup(ctx, "tok"); err != nil {
		t.Fatalf("Lookup() before expiry error = %v", err)
	}

	time.Sleep(20 * time.Millisecond)

	if _, err := tokens.Lookup(ctx, "tok"); !errors.Is(err, ErrInvalidSession) {
		t.Errorf("Lookup() after expiry error = %v, want ErrInvalidSession", err)
	}
}

func TestSweepExpired(t *testing.T) {
	tokens := NewMemoryTokenStore()
	t.Cleanup(tokens.Stop)
	ctx := context.Background()

	tokens.Save(ctx, "live", "user-1", time.Hour)
	tokens.Save(ctx, "dead", "user-1", -time.Minute)

	tokens.sweepExpired()

	if n := tokens.ActiveSessions(); n != 1 {
		t.Errorf("ActiveSessions() after sweep = %d, want 1", n)
	}
	if _, err := tokens.Lookup(ctx, "live"); err != nil {
		t.Errorf("Lookup(live) error = %v", err)
	}
}

func TestChangePassword(t *testing.T) {
	m, _ := newTestManager(t)
	ctx := context.Background()

	profile, _, err := m.Register(ctx, "alice@example.com", "Alice", "secret1")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	if err := m.ChangePassword(ctx, profile.ID, "short"); !errors.Is(err, ErrWeakPassword) {
		t.Errorf("ChangePassword(short) error = %v, want ErrWeakPassword", err)
	}
	if err := m.ChangePassword(ctx, profile.ID, "newsecret"); err != nil {
		t.Fatalf("ChangePassword() error = %v", err)
	}

	if _, _, err := m.Login(ctx, "alice@example.com", "secret1"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("Login() with old password error = %v, want ErrInvalidCredentials", err)
	}
	if _, _, err := m.Login(ctx, "alice@example.com", "newsecret"); err != nil {
		t.Errorf("Login() with new password error = %v", err)
	}
}

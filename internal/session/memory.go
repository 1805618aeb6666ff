package session

import (
	"context"
	"sync"
	"time"
)

// MemoryTokenStore keeps session tokens in process memory. A background
// goroutine sweeps expired tokens so the map does not grow without bound.
type MemoryTokenStore struct {
	mu           sync.RWMutex
	tokens       map[string]tokenEntry
	stopCleanup  chan struct{}
	shutdownOnce sync.Once

	sweepInterval time.Duration
}

type tokenEntry struct {
	userID    string
	expiresAt time.Time
}

func NewMemoryTokenStore() *MemoryTokenStore {
	s := &MemoryTokenStore{
		tokens:        make(map[string]tokenEntry),
		stopCleanup:   make(chan struct{}),
		sweepInterval: 5 * time.Minute,
	}
	go s.startCleanup()
	return s
}

func (s *MemoryTokenStore) Save(ctx context.Context, token, userID string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[token] = tokenEntry{
		userID:    userID,
		expiresAt: time.Now().Add(ttl),
	}
	return nil
}

func (s *MemoryTokenStore) Lookup(ctx context.Context, token string) (string, error) {
	s.mu.RLock()
	entry, ok := s.tokens[token]
	s.mu.RUnlock()

	if !ok || time.Now().After(entry.expiresAt) {
		return "", ErrInvalidSession
	}
	return entry.userID, nil
}

func (s *MemoryTokenStore) Revoke(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tokens, token)
	return nil
}

// ActiveSessions returns the number of unexpired tokens.
func (s *MemoryTokenStore) ActiveSessions() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := time.Now()
	n := 0
	for _, entry := range s.tokens {
		if entry.expiresAt.After(now) {
			n++
		}
	}
	return n
}

func (s *MemoryTokenStore) startCleanup() {
	ticker := time.NewTicker(s.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sweepExpired()
		case <-s.stopCleanup:
			return
		}
	}
}

func (s *MemoryTokenStore) sweepExpired() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for token, entry := range s.tokens {
		if entry.expiresAt.Before(now) {
			delete(s.tokens, token)
		}
	}
}

// Stop shuts down the sweep goroutine.
func (s *MemoryTokenStore) Stop() {
	s.shutdownOnce.Do(func() {
		close(s.stopCleanup)
	})
}

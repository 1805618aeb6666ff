// Package memory provides an in-process store backend. It is the default
// backend for local development and the fixture used by handler tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"fintrack/internal/core"
	"fintrack/internal/store"
)

type Store struct {
	mu           sync.RWMutex
	transactions map[string]core.Transaction
	budgets      map[string]core.Budget
	goals        map[string]core.Goal
	profiles     map[string]core.Profile
}

func New() *Store {
	return &Store{
		transactions: make(map[string]core.Transaction),
		budgets:      make(map[string]core.Budget),
		goals:        make(map[string]core.Goal),
		profiles:     make(map[string]core.Profile),
	}
}

func (s *Store) CreateTransaction(ctx context.Context, tx core.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transactions[tx.ID] = tx
	return nil
}

func (s *Store) GetTransaction(ctx context.Context, userID, id string) (core.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tx, ok := s.transactions[id]
	if !ok || tx.UserID != userID {
		return core.Transaction{}, store.ErrNotFound
	}
	return tx, nil
}

func (s *Store) ListTransactions(ctx context.Context, userID string, f core.TransactionFilter) ([]core.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]core.Transaction, 0)
	for _, tx := range s.transactions {
		if tx.UserID != userID {
			continue
		}
		if !f.Matches(tx) {
			continue
		}
		out = append(out, tx)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Time.Equal(out[j].Date.Time) {
			return out[i].Date.Time.After(out[j].Date.Time)
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *Store) UpdateTransaction(ctx context.Context, tx core.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.transactions[tx.ID]
	if !ok || existing.UserID != tx.UserID {
		return store.ErrNotFound
	}
	tx.CreatedAt = existing.CreatedAt
	s.transactions[tx.ID] = tx
	return nil
}

func (s *Store) DeleteTransaction(ctx context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	tx, ok := s.transactions[id]
	if !ok || tx.UserID != userID {
		return store.ErrNotFound
	}
	delete(s.transactions, id)
	return nil
}

func (s *Store) CreateBudget(ctx context.Context, b core.Budget) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.budgets[b.ID] = b
	return nil
}

func (s *Store) GetBudget(ctx context.Context, userID, id string) (core.Budget, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.budgets[id]
	if !ok || b.UserID != userID {
		return core.Budget{}, store.ErrNotFound
	}
	return b, nil
}

func (s *Store) ListBudgets(ctx context.Context, userID string) ([]core.Budget, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]core.Budget, 0)
	for _, b := range s.budgets {
		if b.UserID == userID {
			out = append(out, b)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Period.Time.Equal(out[j].Period.Time) {
			return out[i].Period.Time.After(out[j].Period.Time)
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *Store) UpdateBudget(ctx context.Context, b core.Budget) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.budgets[b.ID]
	if !ok || existing.UserID != b.UserID {
		return store.ErrNotFound
	}
	b.CreatedAt = existing.CreatedAt
	s.budgets[b.ID] = b
	return nil
}

func (s *Store) DeleteBudget(ctx context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.budgets[id]
	if !ok || b.UserID != userID {
		return store.ErrNotFound
	}
	delete(s.budgets, id)
	return nil
}

func (s *Store) CreateGoal(ctx context.Context, g core.Goal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.goals[g.ID] = g
	return nil
}

func (s *Store) GetGoal(ctx context.Context, userID, id string) (core.Goal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.goals[id]
	if !ok || g.UserID != userID {
		return core.Goal{}, store.ErrNotFound
	}
	return g, nil
}

func (s *Store) ListGoals(ctx context.Context, userID string) ([]core.Goal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]core.Goal, 0)
	for _, g := range s.goals {
		if g.UserID == userID {
			out = append(out, g)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) UpdateGoal(ctx context.Context, g core.Goal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.goals[g.ID]
	if !ok || existing.UserID != g.UserID {
		return store.ErrNotFound
	}
	g.CreatedAt = existing.CreatedAt
	s.goals[g.ID] = g
	return nil
}

func (s *Store) DeleteGoal(ctx context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.goals[id]
	if !ok || g.UserID != userID {
		return store.ErrNotFound
	}
	delete(s.goals, id)
	return nil
}

func (s *Store) CreateProfile(ctx context.Context, p core.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.profiles {
		if strings.EqualFold(existing.Email, p.Email) {
			return store.ErrEmailTaken
		}
	}
	s.profiles[p.ID] = p
	return nil
}

func (s *Store) GetProfile(ctx context.Context, id string) (core.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[id]
	if !ok {
		return core.Profile{}, store.ErrNotFound
	}
	return p, nil
}

func (s *Store) GetProfileByEmail(ctx context.Context, email string) (core.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.profiles {
		if strings.EqualFold(p.Email, email) {
			return p, nil
		}
	}
	return core.Profile{}, store.ErrNotFound
}

func (s *Store) UpdateProfile(ctx context.Context, p core.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.profiles[p.ID]
	if !ok {
		return store.ErrNotFound
	}
	p.CreatedAt = existing.CreatedAt
	s.profiles[p.ID] = p
	return nil
}

func (s *Store) Ping(ctx context.Context) error { return nil }

func (s *Store) Close() error { return nil }

// Package store defines the persistence ports for the finance tracker and
// the sentinel errors shared by every backend.
package store

import (
	"context"
	"errors"

	"fintrack/internal/core"
)

var (
	// ErrNotFound is returned when a record does not exist or belongs to
	// another user. Backends never distinguish the two cases.
	ErrNotFound = errors.New("record not found")

	// ErrEmailTaken is returned by profile creation when the email is
	// already registered.
	ErrEmailTaken = errors.New("email already registered")
)

// TransactionStore persists transactions. All reads and writes are scoped
// to the owning user.
type TransactionStore interface {
	CreateTransaction(ctx context.Context, tx core.Transaction) error
	GetTransaction(ctx context.Context, userID, id string) (core.Transaction, error)
	// ListTransactions returns the user's transactions matching the
	// filter, ordered by date descending then created_at descending.
	ListTransactions(ctx context.Context, userID string, f core.TransactionFilter) ([]core.Transaction, error)
	UpdateTransaction(ctx context.Context, tx core.Transaction) error
	DeleteTransaction(ctx context.Context, userID, id string) error
}

// BudgetStore persists monthly category budgets.
type BudgetStore interface {
	CreateBudget(ctx context.Context, b core.Budget) error
	GetBudget(ctx context.Context, userID, id string) (core.Budget, error)
	// ListBudgets returns the user's budgets ordered by period descending.
	ListBudgets(ctx context.Context, userID string) ([]core.Budget, error)
	UpdateBudget(ctx context.Context, b core.Budget) error
	DeleteBudget(ctx context.Context, userID, id string) error
}

// GoalStore persists savings goals.
type GoalStore interface {
	CreateGoal(ctx context.Context, g core.Goal) error
	GetGoal(ctx context.Context, userID, id string) (core.Goal, error)
	// ListGoals returns the user's goals ordered by created_at descending.
	ListGoals(ctx context.Context, userID string) ([]core.Goal, error)
	UpdateGoal(ctx context.Context, g core.Goal) error
	DeleteGoal(ctx context.Context, userID, id string) error
}

// ProfileStore persists user accounts.
type ProfileStore interface {
	CreateProfile(ctx context.Context, p core.Profile) error
	GetProfile(ctx context.Context, id string) (core.Profile, error)
	GetProfileByEmail(ctx context.Context, email string) (core.Profile, error)
	UpdateProfile(ctx context.Context, p core.Profile) error
}

// Store bundles all persistence ports behind a single backend.
type Store interface {
	TransactionStore
	BudgetStore
	GoalStore
	ProfileStore

	// Ping reports whether the backend is reachable.
	Ping(ctx context.Context) error
	Close() error
}

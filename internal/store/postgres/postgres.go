// Package postgres provides the shared-database store backend.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"fintrack/internal/core"
	"fintrack/internal/store"
)

type Store struct {
	pool *pgxpool.Pool
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	if err := runMigrations(databaseURL); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Store{pool: pool}, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func (s *Store) CreateTransaction(ctx context.Context, tx core.Transaction) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO transactions (id, user_id, description, amount_cents, tx_date, category, tx_type, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		tx.ID, tx.UserID, tx.Description, tx.Amount.Cents, tx.Date.Time, tx.Category, string(tx.Type), tx.CreatedAt)
	if err != nil {
		return fmt.Errorf("create transaction: %w", err)
	}
	return nil
}

func (s *Store) GetTransaction(ctx context.Context, userID, id string) (core.Transaction, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, user_id, description, amount_cents, tx_date, category, tx_type, created_at
		 FROM transactions WHERE id = $1 AND user_id = $2`, id, userID)
	tx, err := scanTransaction(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return core.Transaction{}, store.ErrNotFound
		}
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	return tx, nil
}

func (s *Store) ListTransactions(ctx context.Context, userID string, f core.TransactionFilter) ([]core.Transaction, error) {
	query := strings.Builder{}
	query.WriteString(
		`SELECT id, user_id, description, amount_cents, tx_date, category, tx_type, created_at
		 FROM transactions WHERE user_id = $1`)
	args := []any{userID}

	if f.Type != "" {
		args = append(args, string(f.Type))
		fmt.Fprintf(&query, " AND tx_type = $%d", len(args))
	}
	if f.Category != "" {
		args = append(args, f.Category)
		fmt.Fprintf(&query, " AND category = $%d", len(args))
	}
	if f.From != nil {
		args = append(args, f.From.Time)
		fmt.Fprintf(&query, " AND tx_date >= $%d", len(args))
	}
	if f.To != nil {
		args = append(args, f.To.Time)
		fmt.Fprintf(&query, " AND tx_date <= $%d", len(args))
	}
	query.WriteString(" ORDER BY tx_date DESC, created_at DESC")

	rows, err := s.pool.Query(ctx, query.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	out := make([]core.Transaction, 0)
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, nil
}

func (s *Store) UpdateTransaction(ctx context.Context, tx core.Transaction) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE transactions
		 SET description = $1, amount_cents = $2, tx_date = $3, category = $4, tx_type = $5
		 WHERE id = $6 AND user_id = $7`,
		tx.Description, tx.Amount.Cents, tx.Date.Time, tx.Category, string(tx.Type), tx.ID, tx.UserID)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	return requireRow(tag)
}

func (s *Store) DeleteTransaction(ctx context.Context, userID, id string) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM transactions WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	return requireRow(tag)
}

func (s *Store) CreateBudget(ctx context.Context, b core.Budget) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO budgets (id, user_id, category, amount_cents, period, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		b.ID, b.UserID, b.Category, b.Amount.Cents, b.Period.Time, b.CreatedAt)
	if err != nil {
		return fmt.Errorf("create budget: %w", err)
	}
	return nil
}

func (s *Store) GetBudget(ctx context.Context, userID, id string) (core.Budget, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, user_id, category, amount_cents, period, created_at
		 FROM budgets WHERE id = $1 AND user_id = $2`, id, userID)
	b, err := scanBudget(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return core.Budget{}, store.ErrNotFound
		}
		return core.Budget{}, fmt.Errorf("get budget: %w", err)
	}
	return b, nil
}

func (s *Store) ListBudgets(ctx context.Context, userID string) ([]core.Budget, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, user_id, category, amount_cents, period, created_at
		 FROM budgets WHERE user_id = $1
		 ORDER BY period DESC, created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	defer rows.Close()

	out := make([]core.Budget, 0)
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate budgets: %w", err)
	}
	return out, nil
}

func (s *Store) UpdateBudget(ctx context.Context, b core.Budget) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE budgets
		 SET category = $1, amount_cents = $2, period = $3
		 WHERE id = $4 AND user_id = $5`,
		b.Category, b.Amount.Cents, b.Period.Time, b.ID, b.UserID)
	if err != nil {
		return fmt.Errorf("update budget: %w", err)
	}
	return requireRow(tag)
}

func (s *Store) DeleteBudget(ctx context.Context, userID, id string) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM budgets WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}
	return requireRow(tag)
}

func (s *Store) CreateGoal(ctx context.Context, g core.Goal) error {
	var target *time.Time
	if g.TargetDate != nil {
		target = &g.TargetDate.Time
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO goals (id, user_id, name, target_cents, current_cents, target_date, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		g.ID, g.UserID, g.Name, g.TargetAmount.Cents, g.CurrentAmount.Cents, target, g.CreatedAt)
	if err != nil {
		return fmt.Errorf("create goal: %w", err)
	}
	return nil
}

func (s *Store) GetGoal(ctx context.Context, userID, id string) (core.Goal, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, user_id, name, target_cents, current_cents, target_date, created_at
		 FROM goals WHERE id = $1 AND user_id = $2`, id, userID)
	g, err := scanGoal(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return core.Goal{}, store.ErrNotFound
		}
		return core.Goal{}, fmt.Errorf("get goal: %w", err)
	}
	return g, nil
}

func (s *Store) ListGoals(ctx context.Context, userID string) ([]core.Goal, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, user_id, name, target_cents, current_cents, target_date, created_at
		 FROM goals WHERE user_id = $1
		 ORDER BY created_at DESC, id ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	defer rows.Close()

	out := make([]core.Goal, 0)
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan goal: %w", err)
		}
		out = append(out, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate goals: %w", err)
	}
	return out, nil
}

func (s *Store) UpdateGoal(ctx context.Context, g core.Goal) error {
	var target *time.Time
	if g.TargetDate != nil {
		target = &g.TargetDate.Time
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE goals
		 SET name = $1, target_cents = $2, current_cents = $3, target_date = $4
		 WHERE id = $5 AND user_id = $6`,
		g.Name, g.TargetAmount.Cents, g.CurrentAmount.Cents, target, g.ID, g.UserID)
	if err != nil {
		return fmt.Errorf("update goal: %w", err)
	}
	return requireRow(tag)
}

func (s *Store) DeleteGoal(ctx context.Context, userID, id string) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM goals WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete goal: %w", err)
	}
	return requireRow(tag)
}

func (s *Store) CreateProfile(ctx context.Context, p core.Profile) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO profiles (id, email, name, password_hash, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		p.ID, p.Email, p.Name, p.PasswordHash, p.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return store.ErrEmailTaken
		}
		return fmt.Errorf("create profile: %w", err)
	}
	return nil
}

func (s *Store) GetProfile(ctx context.Context, id string) (core.Profile, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, email, name, password_hash, created_at
		 FROM profiles WHERE id = $1`, id)
	p, err := scanProfile(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return core.Profile{}, store.ErrNotFound
		}
		return core.Profile{}, fmt.Errorf("get profile: %w", err)
	}
	return p, nil
}

func (s *Store) GetProfileByEmail(ctx context.Context, email string) (core.Profile, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, email, name, password_hash, created_at
		 FROM profiles WHERE LOWER(email) = LOWER($1)`, email)
	p, err := scanProfile(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return core.Profile{}, store.ErrNotFound
		}
		return core.Profile{}, fmt.Errorf("get profile by email: %w", err)
	}
	return p, nil
}

func (s *Store) UpdateProfile(ctx context.Context, p core.Profile) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE profiles SET name = $1, password_hash = $2 WHERE id = $3`,
		p.Name, p.PasswordHash, p.ID)
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	return requireRow(tag)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row scanner) (core.Transaction, error) {
	var (
		tx     core.Transaction
		date   time.Time
		txType string
	)
	if err := row.Scan(&tx.ID, &tx.UserID, &tx.Description, &tx.Amount.Cents, &date, &tx.Category, &txType, &tx.CreatedAt); err != nil {
		return core.Transaction{}, err
	}
	tx.Date = core.DateOf(date)
	tx.Type = core.TransactionType(txType)
	return tx, nil
}

func scanBudget(row scanner) (core.Budget, error) {
	var (
		b      core.Budget
		period time.Time
	)
	if err := row.Scan(&b.ID, &b.UserID, &b.Category, &b.Amount.Cents, &period, &b.CreatedAt); err != nil {
		return core.Budget{}, err
	}
	b.Period = core.DateOf(period)
	return b, nil
}

func scanGoal(row scanner) (core.Goal, error) {
	var (
		g      core.Goal
		target *time.Time
	)
	if err := row.Scan(&g.ID, &g.UserID, &g.Name, &g.TargetAmount.Cents, &g.CurrentAmount.Cents, &target, &g.CreatedAt); err != nil {
		return core.Goal{}, err
	}
	if target != nil {
		d := core.DateOf(*target)
		g.TargetDate = &d
	}
	return g, nil
}

func scanProfile(row scanner) (core.Profile, error) {
	var p core.Profile
	if err := row.Scan(&p.ID, &p.Email, &p.Name, &p.PasswordHash, &p.CreatedAt); err != nil {
		return core.Profile{}, err
	}
	return p, nil
}

func requireRow(tag pgconn.CommandTag) error {
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

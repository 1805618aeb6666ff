// Package sqlite provides the embedded single-file store backend.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/store"

	_ "modernc.org/sqlite"
)

type Store struct {
	db *sql.DB
}

func New(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	// The pragma goes in the DSN so every pooled connection enforces
	// foreign keys, not just the first one.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := runMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Store) CreateTransaction(ctx context.Context, tx core.Transaction) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO transactions (id, user_id, description, amount_cents, tx_date, category, tx_type, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		tx.ID, tx.UserID, tx.Description, tx.Amount.Cents, tx.Date.String(), tx.Category, string(tx.Type), tx.CreatedAt)
	if err != nil {
		return fmt.Errorf("create transaction: %w", err)
	}
	return nil
}

func (s *Store) GetTransaction(ctx context.Context, userID, id string) (core.Transaction, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, description, amount_cents, tx_date, category, tx_type, created_at
		 FROM transactions WHERE id = ? AND user_id = ?`, id, userID)
	tx, err := scanTransaction(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
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
		 FROM transactions WHERE user_id = ?`)
	args := []any{userID}

	if f.Type != "" {
		query.WriteString(" AND tx_type = ?")
		args = append(args, string(f.Type))
	}
	if f.Category != "" {
		query.WriteString(" AND category = ?")
		args = append(args, f.Category)
	}
	if f.From != nil {
		query.WriteString(" AND tx_date >= ?")
		args = append(args, f.From.String())
	}
	if f.To != nil {
		query.WriteString(" AND tx_date <= ?")
		args = append(args, f.To.String())
	}
	query.WriteString(" ORDER BY tx_date DESC, created_at DESC")

	rows, err := s.db.QueryContext(ctx, query.String(), args...)
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
	res, err := s.db.ExecContext(ctx,
		`UPDATE transactions
		 SET description = ?, amount_cents = ?, tx_date = ?, category = ?, tx_type = ?
		 WHERE id = ? AND user_id = ?`,
		tx.Description, tx.Amount.Cents, tx.Date.String(), tx.Category, string(tx.Type), tx.ID, tx.UserID)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	return requireRow(res)
}

func (s *Store) DeleteTransaction(ctx context.Context, userID, id string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM transactions WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	return requireRow(res)
}

func (s *Store) CreateBudget(ctx context.Context, b core.Budget) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO budgets (id, user_id, category, amount_cents, period, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		b.ID, b.UserID, b.Category, b.Amount.Cents, b.Period.String(), b.CreatedAt)
	if err != nil {
		return fmt.Errorf("create budget: %w", err)
	}
	return nil
}

func (s *Store) GetBudget(ctx context.Context, userID, id string) (core.Budget, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, category, amount_cents, period, created_at
		 FROM budgets WHERE id = ? AND user_id = ?`, id, userID)
	b, err := scanBudget(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Budget{}, store.ErrNotFound
		}
		return core.Budget{}, fmt.Errorf("get budget: %w", err)
	}
	return b, nil
}

func (s *Store) ListBudgets(ctx context.Context, userID string) ([]core.Budget, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, category, amount_cents, period, created_at
		 FROM budgets WHERE user_id = ?
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
	res, err := s.db.ExecContext(ctx,
		`UPDATE budgets
		 SET category = ?, amount_cents = ?, period = ?
		 WHERE id = ? AND user_id = ?`,
		b.Category, b.Amount.Cents, b.Period.String(), b.ID, b.UserID)
	if err != nil {
		return fmt.Errorf("update budget: %w", err)
	}
	return requireRow(res)
}

func (s *Store) DeleteBudget(ctx context.Context, userID, id string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM budgets WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}
	return requireRow(res)
}

func (s *Store) CreateGoal(ctx context.Context, g core.Goal) error {
	var target sql.NullString
	if g.TargetDate != nil {
		target = sql.NullString{String: g.TargetDate.String(), Valid: true}
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO goals (id, user_id, name, target_cents, current_cents, target_date, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		g.ID, g.UserID, g.Name, g.TargetAmount.Cents, g.CurrentAmount.Cents, target, g.CreatedAt)
	if err != nil {
		return fmt.Errorf("create goal: %w", err)
	}
	return nil
}

func (s *Store) GetGoal(ctx context.Context, userID, id string) (core.Goal, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, name, target_cents, current_cents, target_date, created_at
		 FROM goals WHERE id = ? AND user_id = ?`, id, userID)
	g, err := scanGoal(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Goal{}, store.ErrNotFound
		}
		return core.Goal{}, fmt.Errorf("get goal: %w", err)
	}
	return g, nil
}

func (s *Store) ListGoals(ctx context.Context, userID string) ([]core.Goal, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, name, target_cents, current_cents, target_date, created_at
		 FROM goals WHERE user_id = ?
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
	var target sql.NullString
	if g.TargetDate != nil {
		target = sql.NullString{String: g.TargetDate.String(), Valid: true}
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE goals
		 SET name = ?, target_cents = ?, current_cents = ?, target_date = ?
		 WHERE id = ? AND user_id = ?`,
		g.Name, g.TargetAmount.Cents, g.CurrentAmount.Cents, target, g.ID, g.UserID)
	if err != nil {
		return fmt.Errorf("update goal: %w", err)
	}
	return requireRow(res)
}

func (s *Store) DeleteGoal(ctx context.Context, userID, id string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM goals WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete goal: %w", err)
	}
	return requireRow(res)
}

func (s *Store) CreateProfile(ctx context.Context, p core.Profile) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO profiles (id, email, name, password_hash, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		p.ID, p.Email, p.Name, p.PasswordHash, p.CreatedAt)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return store.ErrEmailTaken
		}
		return fmt.Errorf("create profile: %w", err)
	}
	return nil
}

func (s *Store) GetProfile(ctx context.Context, id string) (core.Profile, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, email, name, password_hash, created_at
		 FROM profiles WHERE id = ?`, id)
	p, err := scanProfile(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Profile{}, store.ErrNotFound
		}
		return core.Profile{}, fmt.Errorf("get profile: %w", err)
	}
	return p, nil
}

func (s *Store) GetProfileByEmail(ctx context.Context, email string) (core.Profile, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, email, name, password_hash, created_at
		 FROM profiles WHERE email = ?`, email)
	p, err := scanProfile(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Profile{}, store.ErrNotFound
		}
		return core.Profile{}, fmt.Errorf("get profile by email: %w", err)
	}
	return p, nil
}

func (s *Store) UpdateProfile(ctx context.Context, p core.Profile) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE profiles SET name = ?, password_hash = ? WHERE id = ?`,
		p.Name, p.PasswordHash, p.ID)
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	return requireRow(res)
}

// scanner covers both sql.Row and sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row scanner) (core.Transaction, error) {
	var (
		tx      core.Transaction
		dateStr string
		txType  string
		created time.Time
	)
	if err := row.Scan(&tx.ID, &tx.UserID, &tx.Description, &tx.Amount.Cents, &dateStr, &tx.Category, &txType, &created); err != nil {
		return core.Transaction{}, err
	}
	d, err := core.ParseDate(dateStr)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("parse stored date %q: %w", dateStr, err)
	}
	tx.Date = d
	tx.Type = core.TransactionType(txType)
	tx.CreatedAt = created
	return tx, nil
}

func scanBudget(row scanner) (core.Budget, error) {
	var (
		b         core.Budget
		periodStr string
		created   time.Time
	)
	if err := row.Scan(&b.ID, &b.UserID, &b.Category, &b.Amount.Cents, &periodStr, &created); err != nil {
		return core.Budget{}, err
	}
	p, err := core.ParseDate(periodStr)
	if err != nil {
		return core.Budget{}, fmt.Errorf("parse stored period %q: %w", periodStr, err)
	}
	b.Period = p
	b.CreatedAt = created
	return b, nil
}

func scanGoal(row scanner) (core.Goal, error) {
	var (
		g       core.Goal
		target  sql.NullString
		created time.Time
	)
	if err := row.Scan(&g.ID, &g.UserID, &g.Name, &g.TargetAmount.Cents, &g.CurrentAmount.Cents, &target, &created); err != nil {
		return core.Goal{}, err
	}
	if target.Valid {
		d, err := core.ParseDate(target.String)
		if err != nil {
			return core.Goal{}, fmt.Errorf("parse stored target date %q: %w", target.String, err)
		}
		g.TargetDate = &d
	}
	g.CreatedAt = created
	return g, nil
}

func scanProfile(row scanner) (core.Profile, error) {
	var p core.Profile
	if err := row.Scan(&p.ID, &p.Email, &p.Name, &p.PasswordHash, &p.CreatedAt); err != nil {
		return core.Profile{}, err
	}
	return p, nil
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

type (
	TransactionType string

	// Date is a calendar date at day granularity. The time-of-day component
	// is always truncated so range comparisons never exclude a boundary day.
	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// Transaction is a single income or expense record. Amount sign encodes
	// direction: negative for expenses, positive for income. The sign/type
	// agreement is enforced by Normalize at write time, not by the record.
	Transaction struct {
		ID          string          `json:"id"`
		UserID      string          `json:"user_id"`
		Description string          `json:"description"`
		Amount      Money           `json:"amount"`
		Date        Date            `json:"date"`
		Category    string          `json:"category"`
		Type        TransactionType `json:"type"`
		CreatedAt   time.Time       `json:"created_at"`
	}

	// Budget is a monthly spending ceiling for one category. Period is
	// normalized to the first day of its month.
	Budget struct {
		ID        string    `json:"id"`
		UserID    string    `json:"user_id"`
		Category  string    `json:"category"`
		Amount    Money     `json:"amount"`
		Period    Date      `json:"period"`
		CreatedAt time.Time `json:"created_at"`
	}

	// Goal is a savings target. CurrentAmount is set directly by the user
	// and is not derived from transactions; it may exceed TargetAmount.
	Goal struct {
		ID            string    `json:"id"`
		UserID        string    `json:"user_id"`
		Name          string    `json:"name"`
		TargetAmount  Money     `json:"target_amount"`
		CurrentAmount Money     `json:"current_amount"`
		TargetDate    *Date     `json:"target_date"`
		CreatedAt     time.Time `json:"created_at"`
	}

	// Profile is the account record behind a session.
	Profile struct {
		ID           string    `json:"id"`
		Email        string    `json:"email"`
		Name         string    `json:"name"`
		PasswordHash string    `json:"-"`
		CreatedAt    time.Time `json:"created_at"`
	}
)

var (
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidType      = errors.New("invalid transaction type")
	ErrInvalidDate      = errors.New("invalid date")
	ErrSignMismatch     = errors.New("amount sign does not match transaction type")
	ErrEmptyDescription = errors.New("empty description")
	ErrEmptyCategory    = errors.New("empty category")
	ErrEmptyName        = errors.New("empty name")
)

// IsValid reports whether the type is one of the two known values.
func (t TransactionType) IsValid() bool {
	return t == Income || t == Expense
}

// NewDate creates a Date from year, month, day in UTC.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to day granularity.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// FirstOfMonth returns the same month with the day set to 1.
func (d Date) FirstOfMonth() Date {
	return NewDate(d.Year(), int(d.Month()), 1)
}

// SameMonth reports whether both dates fall in the same calendar month.
func (d Date) SameMonth(o Date) bool {
	return d.Year() == o.Year() && d.Month() == o.Month()
}

// YearMonth returns the YYYY-MM grouping key for trend reports.
func (d Date) YearMonth() string {
	return d.Format("2006-01")
}

// OnOrAfter compares at day granularity, inclusive.
func (d Date) OnOrAfter(o Date) bool {
	return !DateOf(d.Time).Time.Before(DateOf(o.Time).Time)
}

// OnOrBefore compares at day granularity, inclusive.
func (d Date) OnOrBefore(o Date) bool {
	return !DateOf(d.Time).Time.After(DateOf(o.Time).Time)
}

func (d Date) String() string {
	return d.Format("2006-01-02")
}

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Format("2006-01-02") + `"`), nil
}

func (d *Date) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Normalize forces the amount sign to agree with the transaction type:
// expenses are stored negative, income positive.
func (t *Transaction) Normalize() {
	abs := t.Amount.Abs()
	if t.Type == Expense {
		t.Amount = Money{Cents: -abs.Cents}
	} else {
		t.Amount = abs
	}
}

func (t Transaction) Validate() error {
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if len(strings.TrimSpace(t.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(t.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	if strings.TrimSpace(t.Category) == "" {
		return ErrEmptyCategory
	}
	if !t.Type.IsValid() {
		return ErrInvalidType
	}
	if t.Amount.Cents == 0 {
		return ErrInvalidAmount
	}
	if t.Type == Expense && t.Amount.Cents > 0 {
		return ErrSignMismatch
	}
	if t.Type == Income && t.Amount.Cents < 0 {
		return ErrSignMismatch
	}
	return nil
}

// Normalize snaps the period to the first day of its month.
func (b *Budget) Normalize() {
	if !b.Period.IsZero() {
		b.Period = b.Period.FirstOfMonth()
	}
}

func (b Budget) Validate() error {
	if strings.TrimSpace(b.Category) == "" {
		return ErrEmptyCategory
	}
	if b.Amount.Cents <= 0 {
		return ErrInvalidAmount
	}
	if err := b.Period.Validate(); err != nil {
		return err
	}
	if b.Period.Day() != 1 {
		return errors.New("budget period must be the first day of a month")
	}
	return nil
}

func (g Goal) Validate() error {
	if len(strings.TrimSpace(g.Name)) == 0 {
		return ErrEmptyName
	}
	if g.TargetAmount.Cents <= 0 {
		return ErrInvalidAmount
	}
	if g.CurrentAmount.Cents < 0 {
		return ErrInvalidAmount
	}
	if g.TargetDate != nil {
		if err := g.TargetDate.Validate(); err != nil {
			return err
		}
	}
	return nil
}

package core

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestDateValidate(t *testing.T) {
	cases := []struct {
		d  Date
		ok bool
	}{
		{NewDate(2025, 1, 1), true},
		{NewDate(2025, 12, 31), true},
		{Date{Time: time.Time{}}, false}, // zero time
	}
	for i, tc := range cases {
		err := tc.d.Validate()
		if tc.ok && err != nil {
			t.Fatalf("case %d expected ok, got %v", i, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-07-26")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if d.Year() != 2024 || int(d.Month()) != 7 || d.Day() != 26 {
		t.Fatalf("unexpected date %v", d)
	}
	if _, err := ParseDate("26/07/2024"); !errors.Is(err, ErrInvalidDate) {
		t.Fatalf("expected ErrInvalidDate, got %v", err)
	}
}

func TestDateDayGranularityComparison(t *testing.T) {
	// A date built from a timestamp late in the day must still compare equal
	// to its midnight form, or range boundaries would drop records.
	late := DateOf(time.Date(2024, 7, 26, 23, 59, 59, 0, time.UTC))
	midnight := NewDate(2024, 7, 26)
	if !late.OnOrAfter(midnight) || !late.OnOrBefore(midnight) {
		t.Fatalf("expected %v to equal %v at day granularity", late, midnight)
	}
}

func TestDateJSONRoundTrip(t *testing.T) {
	d := NewDate(2024, 7, 1)
	data, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `"2024-07-01"` {
		t.Fatalf("unexpected encoding %s", data)
	}
	var back Date
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !back.Equal(d.Time) {
		t.Fatalf("round trip mismatch: %v vs %v", back, d)
	}
}

func TestTransactionNormalize(t *testing.T) {
	cases := []struct {
		typ   TransactionType
		in    int64
		wants int64
	}{
		{Expense, 1000, -1000},
		{Expense, -1000, -1000},
		{Income, -500, 500},
		{Income, 500, 500},
	}
	for i, tc := range cases {
		tx := Transaction{Type: tc.typ, Amount: Money{Cents: tc.in}}
		tx.Normalize()
		if tx.Amount.Cents != tc.wants {
			t.Fatalf("case %d: got %d, want %d", i, tx.Amount.Cents, tc.wants)
		}
	}
}

func TestTransactionValidate(t *testing.T) {
	good := Transaction{
		Description: "groceries",
		Amount:      Money{Cents: -1250},
		Date:        NewDate(2024, 7, 5),
		Category:    "Food",
		Type:        Expense,
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*Transaction)
		want   error
	}{
		{"empty description", func(tx *Transaction) { tx.Description = "  " }, ErrEmptyDescription},
		{"empty category", func(tx *Transaction) { tx.Category = "" }, ErrEmptyCategory},
		{"bad type", func(tx *Transaction) { tx.Type = "transfer" }, ErrInvalidType},
		{"zero amount", func(tx *Transaction) { tx.Amount = Money{} }, ErrInvalidAmount},
		{"zero date", func(tx *Transaction) { tx.Date = Date{} }, ErrInvalidDate},
		{"positive expense", func(tx *Transaction) { tx.Amount = Money{Cents: 1250} }, ErrSignMismatch},
		{"negative income", func(tx *Transaction) { tx.Type = Income }, ErrSignMismatch},
	}
	for _, tc := range cases {
		tx := good
		tc.mutate(&tx)
		if err := tx.Validate(); !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}
}

func TestBudgetNormalizeAndValidate(t *testing.T) {
	b := Budget{
		Category: "Food",
		Amount:   Money{Cents: 30000},
		Period:   NewDate(2024, 7, 19),
	}
	b.Normalize()
	if b.Period.Day() != 1 {
		t.Fatalf("expected period on first of month, got day %d", b.Period.Day())
	}
	if err := b.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	b.Amount = Money{Cents: 0}
	if err := b.Validate(); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}

func TestGoalValidate(t *testing.T) {
	target := NewDate(2025, 6, 1)
	g := Goal{
		Name:          "Emergency fund",
		TargetAmount:  Money{Cents: 100000},
		CurrentAmount: Money{Cents: 25000},
		TargetDate:    &target,
	}
	if err := g.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	g.TargetDate = nil // optional
	if err := g.Validate(); err != nil {
		t.Fatalf("expected ok without target date, got %v", err)
	}

	g.Name = ""
	if err := g.Validate(); !errors.Is(err, ErrEmptyName) {
		t.Fatalf("expected ErrEmptyName, got %v", err)
	}
}

func TestGoalTargetDateJSONNull(t *testing.T) {
	g := Goal{Name: "n", TargetAmount: Money{Cents: 100}}
	data, err := json.Marshal(g)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if v, ok := decoded["target_date"]; !ok || v != nil {
		t.Fatalf("expected target_date null, got %v", v)
	}
}

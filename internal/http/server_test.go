package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/events"
	"fintrack/internal/session"
	"fintrack/internal/store/memory"
)

type recordingBus struct {
	mu     sync.Mutex
	events []events.TransactionEvent
}

func (b *recordingBus) PublishTransactionEvent(_ context.Context, e *events.TransactionEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, *e)
	return nil
}

func (b *recordingBus) published() []events.TransactionEvent {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]events.TransactionEvent(nil), b.events...)
}

func newTestServer(t *testing.T, bus EventPublisher) *Server {
	t.Helper()
	tokens := session.NewMemoryTokenStore()
	t.Cleanup(tokens.Stop)

	st := memory.New()
	sessions := session.NewManager(st, tokens, time.Hour)
	srv := NewServer(":0", st, sessions, Options{Bus: bus})
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	})
	return srv
}

func doJSON(t *testing.T, srv *Server, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = strings.NewReader(string(raw))
	} else {
		reader = strings.NewReader("")
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	srv.Server.Handler.ServeHTTP(rr, req)
	return rr
}

func registerUser(t *testing.T, srv *Server, email string) (string, string) {
	t.Helper()
	rr := doJSON(t, srv, http.MethodPost, "/api/register", "", map[string]string{
		"email":    email,
		"name":     "Test User",
		"password": "secret1",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("register status=%d body=%s", rr.Code, rr.Body.String())
	}
	var resp authResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode register response: %v", err)
	}
	return resp.Token, resp.Profile.ID
}

func createTransaction(t *testing.T, srv *Server, token string, body map[string]any) core.Transaction {
	t.Helper()
	rr := doJSON(t, srv, http.MethodPost, "/api/transactions", token, body)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create transaction status=%d body=%s", rr.Code, rr.Body.String())
	}
	var tx core.Transaction
	if err := json.Unmarshal(rr.Body.Bytes(), &tx); err != nil {
		t.Fatalf("decode transaction: %v", err)
	}
	return tx
}

func TestHealthAndReady(t *testing.T) {
	srv := newTestServer(t, nil)

	for _, path := range []string{"/healthz", "/readyz"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rr := httptest.NewRecorder()
		srv.Server.Handler.ServeHTTP(rr, req)
		if rr.Code != http.StatusOK {
			t.Fatalf("%s status=%d", path, rr.Code)
		}
	}
}

func TestAuthRequired(t *testing.T) {
	srv := newTestServer(t, nil)

	paths := []string{
		"/api/me",
		"/api/transactions",
		"/api/budgets",
		"/api/goals",
		"/api/dashboard",
	}
	for _, path := range paths {
		rr := doJSON(t, srv, http.MethodGet, path, "", nil)
		if rr.Code != http.StatusUnauthorized {
			t.Errorf("%s without token: status=%d, want 401", path, rr.Code)
		}
	}

	rr := doJSON(t, srv, http.MethodGet, "/api/me", "bogus-token", nil)
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("bogus token: status=%d, want 401", rr.Code)
	}
}

func TestRegisterLoginLogout(t *testing.T) {
	srv := newTestServer(t, nil)
	token, _ := registerUser(t, srv, "ada@example.com")

	// Duplicate email is rejected.
	rr := doJSON(t, srv, http.MethodPost, "/api/register", "", map[string]string{
		"email": "ADA@example.com", "name": "Other", "password": "secret1",
	})
	if rr.Code != http.StatusConflict {
		t.Fatalf("duplicate register status=%d, want 409", rr.Code)
	}

	rr = doJSON(t, srv, http.MethodGet, "/api/me", token, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("me status=%d", rr.Code)
	}

	rr = doJSON(t, srv, http.MethodPost, "/api/login", "", map[string]string{
		"email": "ada@example.com", "password": "wrong",
	})
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("bad login status=%d, want 401", rr.Code)
	}

	rr = doJSON(t, srv, http.MethodPost, "/api/login", "", map[string]string{
		"email": "ada@example.com", "password": "secret1",
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("login status=%d body=%s", rr.Code, rr.Body.String())
	}

	rr = doJSON(t, srv, http.MethodPost, "/api/logout", token, nil)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("logout status=%d", rr.Code)
	}
	rr = doJSON(t, srv, http.MethodGet, "/api/me", token, nil)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("me after logout status=%d, want 401", rr.Code)
	}
}

func TestRegisterValidation(t *testing.T) {
	srv := newTestServer(t, nil)

	tests := []struct {
		name string
		body map[string]string
	}{
		{"bad email", map[string]string{"email": "nope", "name": "A", "password": "secret1"}},
		{"short password", map[string]string{"email": "a@b.com", "name": "A", "password": "abc"}},
		{"empty name", map[string]string{"email": "a@b.com", "name": "", "password": "secret1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := doJSON(t, srv, http.MethodPost, "/api/register", "", tt.body)
			if rr.Code != http.StatusUnprocessableEntity {
				t.Fatalf("status=%d, want 422", rr.Code)
			}
		})
	}
}

func TestTransactionLifecycle(t *testing.T) {
	bus := &recordingBus{}
	srv := newTestServer(t, bus)
	token, userID := registerUser(t, srv, "ada@example.com")

	tx := createTransaction(t, srv, token, map[string]any{
		"description": "Groceries",
		"amount":      42.50,
		"date":        "2026-08-10",
		"category":    "Food",
		"type":        "expense",
	})
	if tx.Amount.Cents != -4250 {
		t.Errorf("expense amount not normalized negative: %d", tx.Amount.Cents)
	}
	if tx.UserID != userID {
		t.Errorf("transaction owner = %q, want %q", tx.UserID, userID)
	}

	// Update flips it to income; sign follows the type.
	rr := doJSON(t, srv, http.MethodPut, "/api/transactions/"+tx.ID, token, map[string]any{
		"description": "Refund",
		"amount":      42.50,
		"date":        "2026-08-11",
		"category":    "Food",
		"type":        "income",
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("update status=%d body=%s", rr.Code, rr.Body.String())
	}
	var updated core.Transaction
	if err := json.Unmarshal(rr.Body.Bytes(), &updated); err != nil {
		t.Fatalf("decode updated: %v", err)
	}
	if updated.Amount.Cents != 4250 {
		t.Errorf("income amount = %d, want 4250", updated.Amount.Cents)
	}
	if updated.CreatedAt.IsZero() {
		t.Error("update lost creation timestamp")
	}

	rr = doJSON(t, srv, http.MethodDelete, "/api/transactions/"+tx.ID, token, nil)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("delete status=%d", rr.Code)
	}
	rr = doJSON(t, srv, http.MethodDelete, "/api/transactions/"+tx.ID, token, nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("second delete status=%d, want 404", rr.Code)
	}

	published := bus.published()
	if len(published) != 3 {
		t.Fatalf("published %d events, want 3", len(published))
	}
	wantActions := []events.Action{events.ActionCreated, events.ActionUpdated, events.ActionDeleted}
	for i, evt := range published {
		if evt.Action != wantActions[i] {
			t.Errorf("event %d action = %q, want %q", i, evt.Action, wantActions[i])
		}
		if evt.TransactionID != tx.ID || evt.UserID != userID {
			t.Errorf("event %d refs = (%q,%q), want (%q,%q)",
				i, evt.TransactionID, evt.UserID, tx.ID, userID)
		}
	}
}

func TestTransactionValidationRejected(t *testing.T) {
	srv := newTestServer(t, nil)
	token, _ := registerUser(t, srv, "ada@example.com")

	tests := []struct {
		name string
		body map[string]any
	}{
		{"zero amount", map[string]any{
			"description": "x", "amount": 0, "date": "2026-08-10",
			"category": "Food", "type": "expense"}},
		{"bad type", map[string]any{
			"description": "x", "amount": 10, "date": "2026-08-10",
			"category": "Food", "type": "transfer"}},
		{"empty description", map[string]any{
			"description": "", "amount": 10, "date": "2026-08-10",
			"category": "Food", "type": "expense"}},
		{"empty category", map[string]any{
			"description": "x", "amount": 10, "date": "2026-08-10",
			"category": "", "type": "expense"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := doJSON(t, srv, http.MethodPost, "/api/transactions", token, tt.body)
			if rr.Code != http.StatusUnprocessableEntity {
				t.Fatalf("status=%d body=%s, want 422", rr.Code, rr.Body.String())
			}
		})
	}
}

func TestTransactionOwnerIsolation(t *testing.T) {
	srv := newTestServer(t, nil)
	tokenA, _ := registerUser(t, srv, "ada@example.com")
	tokenB, _ := registerUser(t, srv, "bob@example.com")

	tx := createTransaction(t, srv, tokenA, map[string]any{
		"description": "Groceries", "amount": 10, "date": "2026-08-10",
		"category": "Food", "type": "expense",
	})

	rr := doJSON(t, srv, http.MethodDelete, "/api/transactions/"+tx.ID, tokenB, nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("cross-user delete status=%d, want 404", rr.Code)
	}

	rr = doJSON(t, srv, http.MethodGet, "/api/transactions", tokenB, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("list status=%d", rr.Code)
	}
	if body := strings.TrimSpace(rr.Body.String()); body != "[]" {
		t.Fatalf("other user's list = %s, want []", body)
	}
}

func TestTransactionFilterParams(t *testing.T) {
	srv := newTestServer(t, nil)
	token, _ := registerUser(t, srv, "ada@example.com")

	seed := []map[string]any{
		{"description": "Groceries", "amount": 10, "date": "2026-07-05", "category": "Food", "type": "expense"},
		{"description": "Salary", "amount": 2000, "date": "2026-07-25", "category": "Work", "type": "income"},
		{"description": "Dinner", "amount": 30, "date": "2026-08-02", "category": "Food", "type": "expense"},
	}
	for _, body := range seed {
		createTransaction(t, srv, token, body)
	}

	tests := []struct {
		name  string
		query string
		want  int
	}{
		{"all", "", 3},
		{"by type", "?type=expense", 2},
		{"by category", "?category=Work", 1},
		{"date range", "?start_date=2026-07-01&end_date=2026-07-31", 2},
		{"combined", "?type=expense&start_date=2026-08-01", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := doJSON(t, srv, http.MethodGet, "/api/transactions"+tt.query, token, nil)
			if rr.Code != http.StatusOK {
				t.Fatalf("status=%d", rr.Code)
			}
			var txs []core.Transaction
			if err := json.Unmarshal(rr.Body.Bytes(), &txs); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if len(txs) != tt.want {
				t.Fatalf("got %d transactions, want %d", len(txs), tt.want)
			}
		})
	}

	rr := doJSON(t, srv, http.MethodGet, "/api/transactions?type=transfer", token, nil)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("invalid type filter status=%d, want 422", rr.Code)
	}
}

func TestCategories(t *testing.T) {
	srv := newTestServer(t, nil)
	token, _ := registerUser(t, srv, "ada@example.com")

	for _, body := range []map[string]any{
		{"description": "a", "amount": 10, "date": "2026-08-01", "category": "Food", "type": "expense"},
		{"description": "b", "amount": 20, "date": "2026-08-02", "category": "Transport", "type": "expense"},
		{"description": "c", "amount": 30, "date": "2026-08-03", "category": "Food", "type": "expense"},
	} {
		createTransaction(t, srv, token, body)
	}

	rr := doJSON(t, srv, http.MethodGet, "/api/categories", token, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d", rr.Code)
	}
	var categories []string
	if err := json.Unmarshal(rr.Body.Bytes(), &categories); err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := []string{"Food", "Transport"}
	if len(categories) != len(want) {
		t.Fatalf("categories = %v, want %v", categories, want)
	}
	for i := range want {
		if categories[i] != want[i] {
			t.Fatalf("categories = %v, want %v", categories, want)
		}
	}
}

func TestExportCSV(t *testing.T) {
	srv := newTestServer(t, nil)
	token, _ := registerUser(t, srv, "ada@example.com")

	// No data yet: export is a 204 with an empty body.
	rr := doJSON(t, srv, http.MethodGet, "/api/transactions/export", token, nil)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("empty export status=%d, want 204", rr.Code)
	}
	if rr.Body.Len() != 0 {
		t.Fatalf("empty export body = %q, want empty", rr.Body.String())
	}

	createTransaction(t, srv, token, map[string]any{
		"description": "Groceries", "amount": 12.30, "date": "2026-08-10",
		"category": "Food", "type": "expense",
	})

	rr = doJSON(t, srv, http.MethodGet, "/api/transactions/export", token, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("export status=%d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("Content-Type = %q, want text/csv", ct)
	}
	if cd := rr.Header().Get("Content-Disposition"); !strings.Contains(cd, "attachment") ||
		!strings.Contains(cd, "transactions-") {
		t.Errorf("Content-Disposition = %q", cd)
	}
	lines := strings.Split(rr.Body.String(), "\n")
	if lines[0] != core.ExportHeader {
		t.Errorf("header = %q, want %q", lines[0], core.ExportHeader)
	}
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	if !strings.Contains(lines[1], `"Groceries"`) || !strings.Contains(lines[1], "-12.3") {
		t.Errorf("row = %q", lines[1])
	}
}

func TestBudgetLifecycleAndProgress(t *testing.T) {
	srv := newTestServer(t, nil)
	token, _ := registerUser(t, srv, "ada@example.com")

	rr := doJSON(t, srv, http.MethodPost, "/api/budgets", token, map[string]any{
		"category": "Food",
		"amount":   200,
		"period":   "2026-08-15",
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("create budget status=%d body=%s", rr.Code, rr.Body.String())
	}
	var budget core.Budget
	if err := json.Unmarshal(rr.Body.Bytes(), &budget); err != nil {
		t.Fatalf("decode budget: %v", err)
	}
	if budget.Period.String() != "2026-08-01" {
		t.Errorf("period = %s, want normalized to 2026-08-01", budget.Period)
	}

	createTransaction(t, srv, token, map[string]any{
		"description": "Groceries", "amount": 50, "date": "2026-08-10",
		"category": "Food", "type": "expense",
	})

	rr = doJSON(t, srv, http.MethodGet, "/api/budgets/progress", token, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("progress status=%d", rr.Code)
	}
	var reports []core.BudgetReport
	if err := json.Unmarshal(rr.Body.Bytes(), &reports); err != nil {
		t.Fatalf("decode reports: %v", err)
	}
	if len(reports) != 1 {
		t.Fatalf("got %d reports, want 1", len(reports))
	}
	if reports[0].Spent.Cents != 5000 {
		t.Errorf("spent = %d, want 5000", reports[0].Spent.Cents)
	}
	if reports[0].Percent != 25 {
		t.Errorf("percent = %v, want 25", reports[0].Percent)
	}

	rr = doJSON(t, srv, http.MethodDelete, "/api/budgets/"+budget.ID, token, nil)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("delete budget status=%d", rr.Code)
	}
}

func TestGoalLifecycleAndProgress(t *testing.T) {
	srv := newTestServer(t, nil)
	token, _ := registerUser(t, srv, "ada@example.com")

	rr := doJSON(t, srv, http.MethodPost, "/api/goals", token, map[string]any{
		"name":           "Vacation",
		"target_amount":  1000,
		"current_amount": 0,
	})
	if rr.Code != http.StatusCreated {
		t.Fatalf("create goal status=%d body=%s", rr.Code, rr.Body.String())
	}
	var goal core.Goal
	if err := json.Unmarshal(rr.Body.Bytes(), &goal); err != nil {
		t.Fatalf("decode goal: %v", err)
	}

	rr = doJSON(t, srv, http.MethodPatch, "/api/goals/"+goal.ID+"/progress", token, map[string]any{
		"current_amount": 250,
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("patch progress status=%d body=%s", rr.Code, rr.Body.String())
	}
	var patched core.Goal
	if err := json.Unmarshal(rr.Body.Bytes(), &patched); err != nil {
		t.Fatalf("decode patched goal: %v", err)
	}
	if patched.CurrentAmount.Cents != 25000 {
		t.Errorf("current = %d, want 25000", patched.CurrentAmount.Cents)
	}

	rr = doJSON(t, srv, http.MethodGet, "/api/goals/progress", token, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("progress status=%d", rr.Code)
	}
	var reports []core.GoalReport
	if err := json.Unmarshal(rr.Body.Bytes(), &reports); err != nil {
		t.Fatalf("decode reports: %v", err)
	}
	if len(reports) != 1 {
		t.Fatalf("got %d reports, want 1", len(reports))
	}
	if reports[0].Percent != 25 {
		t.Errorf("percent = %v, want 25", reports[0].Percent)
	}
	if reports[0].DaysLeft != nil {
		t.Errorf("days_left = %v, want null without target date", *reports[0].DaysLeft)
	}
}

func TestDashboardReflectsMutations(t *testing.T) {
	srv := newTestServer(t, nil)
	token, _ := registerUser(t, srv, "ada@example.com")

	rr := doJSON(t, srv, http.MethodGet, "/api/dashboard", token, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("dashboard status=%d", rr.Code)
	}
	var dash dashboardResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &dash); err != nil {
		t.Fatalf("decode dashboard: %v", err)
	}
	if dash.TransactionCount != 0 || dash.TotalBalance.Cents != 0 {
		t.Fatalf("fresh dashboard = %+v", dash)
	}

	today := time.Now()
	createTransaction(t, srv, token, map[string]any{
		"description": "Salary", "amount": 1000,
		"date":     fmt.Sprintf("%04d-%02d-%02d", today.Year(), today.Month(), today.Day()),
		"category": "Work", "type": "income",
	})

	// The cached view must be invalidated by the mutation.
	rr = doJSON(t, srv, http.MethodGet, "/api/dashboard", token, nil)
	if err := json.Unmarshal(rr.Body.Bytes(), &dash); err != nil {
		t.Fatalf("decode dashboard: %v", err)
	}
	if dash.TransactionCount != 1 {
		t.Errorf("count = %d, want 1", dash.TransactionCount)
	}
	if dash.TotalBalance.Cents != 100000 {
		t.Errorf("balance = %d, want 100000", dash.TotalBalance.Cents)
	}
}

func TestSpendingReportWithRangePreset(t *testing.T) {
	srv := newTestServer(t, nil)
	token, _ := registerUser(t, srv, "ada@example.com")

	today := time.Now()
	thisMonth := fmt.Sprintf("%04d-%02d-05", today.Year(), today.Month())
	createTransaction(t, srv, token, map[string]any{
		"description": "Groceries", "amount": 40, "date": thisMonth,
		"category": "Food", "type": "expense",
	})
	createTransaction(t, srv, token, map[string]any{
		"description": "Old rent", "amount": 500, "date": "2020-01-10",
		"category": "Housing", "type": "expense",
	})

	rr := doJSON(t, srv, http.MethodGet, "/api/reports/spending?range=this_month", token, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("spending status=%d", rr.Code)
	}
	var report spendingReport
	if err := json.Unmarshal(rr.Body.Bytes(), &report); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if len(report.Categories) != 1 || report.Categories[0].Category != "Food" {
		t.Fatalf("categories = %+v, want only Food", report.Categories)
	}
	if report.Total.Cents != 4000 {
		t.Errorf("total = %d, want 4000", report.Total.Cents)
	}

	rr = doJSON(t, srv, http.MethodGet, "/api/reports/spending?range=all_time", token, nil)
	if err := json.Unmarshal(rr.Body.Bytes(), &report); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if len(report.Categories) != 2 {
		t.Fatalf("all_time categories = %+v, want 2", report.Categories)
	}

	rr = doJSON(t, srv, http.MethodGet, "/api/reports/spending?range=bogus", token, nil)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("bogus range status=%d, want 422", rr.Code)
	}
}

func TestTrendReport(t *testing.T) {
	srv := newTestServer(t, nil)
	token, _ := registerUser(t, srv, "ada@example.com")

	for _, body := range []map[string]any{
		{"description": "a", "amount": 10, "date": "2026-06-05", "category": "Food", "type": "expense"},
		{"description": "b", "amount": 100, "date": "2026-06-20", "category": "Work", "type": "income"},
		{"description": "c", "amount": 20, "date": "2026-08-02", "category": "Food", "type": "expense"},
	} {
		createTransaction(t, srv, token, body)
	}

	rr := doJSON(t, srv, http.MethodGet, "/api/reports/trend", token, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("trend status=%d", rr.Code)
	}
	var trend []core.MonthFlow
	if err := json.Unmarshal(rr.Body.Bytes(), &trend); err != nil {
		t.Fatalf("decode trend: %v", err)
	}
	if len(trend) != 2 {
		t.Fatalf("got %d months, want 2 (no zero-filling)", len(trend))
	}
	if trend[0].Month != "2026-06" || trend[1].Month != "2026-08" {
		t.Errorf("months = %q,%q", trend[0].Month, trend[1].Month)
	}
	if trend[0].Income.Cents != 10000 || trend[0].Expense.Cents != 1000 {
		t.Errorf("june flow = %+v", trend[0])
	}
}

func TestProfileUpdate(t *testing.T) {
	srv := newTestServer(t, nil)
	token, _ := registerUser(t, srv, "ada@example.com")

	rr := doJSON(t, srv, http.MethodPut, "/api/profile", token, map[string]string{
		"name": "Ada L.",
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("update profile status=%d body=%s", rr.Code, rr.Body.String())
	}
	var profile core.Profile
	if err := json.Unmarshal(rr.Body.Bytes(), &profile); err != nil {
		t.Fatalf("decode profile: %v", err)
	}
	if profile.Name != "Ada L." {
		t.Errorf("name = %q", profile.Name)
	}

	// Weak replacement password is rejected.
	rr = doJSON(t, srv, http.MethodPut, "/api/profile", token, map[string]string{
		"password": "abc",
	})
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("weak password status=%d, want 422", rr.Code)
	}

	// Password change invalidates nothing but future logins use it.
	rr = doJSON(t, srv, http.MethodPut, "/api/profile", token, map[string]string{
		"password": "newsecret",
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("change password status=%d", rr.Code)
	}
	rr = doJSON(t, srv, http.MethodPost, "/api/login", "", map[string]string{
		"email": "ada@example.com", "password": "newsecret",
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("login with new password status=%d", rr.Code)
	}
}

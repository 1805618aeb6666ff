package http

import (
	"fmt"
	"net/http"
	"time"

	"fintrack/internal/core"
)

type dashboardResponse struct {
	TotalBalance     core.Money `json:"total_balance"`
	MonthlySpending  core.Money `json:"monthly_spending"`
	TransactionCount int        `json:"transaction_count"`
}

type spendingReport struct {
	Total      core.Money           `json:"total"`
	Categories []core.CategoryTotal `json:"categories"`
}

// applyRangePreset fills the filter's lower bound from the range query
// parameter. Explicitly supplied date bounds take precedence.
func applyRangePreset(f *core.TransactionFilter, preset string, now time.Time) error {
	if f.From != nil {
		return nil
	}
	var from core.Date
	switch preset {
	case "", "all_time":
		return nil
	case "this_month":
		from = core.NewDate(now.Year(), int(now.Month()), 1)
	case "last_3_months":
		start := now.AddDate(0, -2, 0)
		from = core.NewDate(start.Year(), int(start.Month()), 1)
	case "this_year":
		from = core.NewDate(now.Year(), 1, 1)
	default:
		return fmt.Errorf("invalid range %q", preset)
	}
	f.From = &from
	return nil
}

// filterKey canonicalizes a filter for use in cache keys.
func filterKey(f core.TransactionFilter) string {
	from, to := "", ""
	if f.From != nil {
		from = f.From.String()
	}
	if f.To != nil {
		to = f.To.String()
	}
	return fmt.Sprintf("%s|%s|%s|%s", f.Type, f.Category, from, to)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request, userID string) {
	key := userID + "|dashboard"
	if cached, ok := s.dashboardCache.Get(key); ok {
		respondJSON(w, http.StatusOK, cached)
		return
	}

	txs, err := s.store.ListTransactions(r.Context(), userID, core.TransactionFilter{})
	if err != nil {
		s.respondStoreError(w, r, err, "list transactions")
		return
	}

	resp := dashboardResponse{
		TotalBalance:     core.TotalBalance(txs),
		MonthlySpending:  core.MonthlySpending(txs, time.Now()),
		TransactionCount: len(txs),
	}
	s.dashboardCache.Set(key, resp)
	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSpendingReport(w http.ResponseWriter, r *http.Request, userID string) {
	filter, err := parseTransactionFilter(r.URL.Query())
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if err := applyRangePreset(&filter, r.URL.Query().Get("range"), time.Now()); err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	key := userID + "|spending|" + filterKey(filter)
	if cached, ok := s.spendingCache.Get(key); ok {
		respondJSON(w, http.StatusOK, cached)
		return
	}

	txs, err := s.store.ListTransactions(r.Context(), userID, filter)
	if err != nil {
		s.respondStoreError(w, r, err, "list transactions")
		return
	}

	categories := core.SpendingByCategory(txs)
	if categories == nil {
		categories = []core.CategoryTotal{}
	}
	var total core.Money
	for _, c := range categories {
		total = total.Add(c.Total)
	}

	report := spendingReport{Total: total, Categories: categories}
	s.spendingCache.Set(key, report)
	respondJSON(w, http.StatusOK, report)
}

func (s *Server) handleTrendReport(w http.ResponseWriter, r *http.Request, userID string) {
	filter, err := parseTransactionFilter(r.URL.Query())
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if err := applyRangePreset(&filter, r.URL.Query().Get("range"), time.Now()); err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	key := userID + "|trend|" + filterKey(filter)
	if cached, ok := s.trendCache.Get(key); ok {
		respondJSON(w, http.StatusOK, cached)
		return
	}

	txs, err := s.store.ListTransactions(r.Context(), userID, filter)
	if err != nil {
		s.respondStoreError(w, r, err, "list transactions")
		return
	}

	trend := core.MonthlyTrend(txs)
	if trend == nil {
		trend = []core.MonthFlow{}
	}
	s.trendCache.Set(key, trend)
	respondJSON(w, http.StatusOK, trend)
}

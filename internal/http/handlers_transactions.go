package http

import (
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"fintrack/internal/core"
	"fintrack/internal/events"
	applog "fintrack/internal/log"
)

type transactionRequest struct {
	Description string               `json:"description"`
	Amount      core.Money           `json:"amount"`
	Date        core.Date            `json:"date"`
	Category    string               `json:"category"`
	Type        core.TransactionType `json:"type"`
}

// parseTransactionFilter reads the optional type, category, start_date and
// end_date query parameters. Absent parameters leave the filter open.
func parseTransactionFilter(q url.Values) (core.TransactionFilter, error) {
	var f core.TransactionFilter

	if v := strings.TrimSpace(q.Get("type")); v != "" {
		t := core.TransactionType(v)
		if !t.IsValid() {
			return f, fmt.Errorf("invalid type %q", v)
		}
		f.Type = t
	}
	f.Category = strings.TrimSpace(q.Get("category"))
	if v := strings.TrimSpace(q.Get("start_date")); v != "" {
		d, err := core.ParseDate(v)
		if err != nil {
			return f, fmt.Errorf("invalid start_date %q", v)
		}
		f.From = &d
	}
	if v := strings.TrimSpace(q.Get("end_date")); v != "" {
		d, err := core.ParseDate(v)
		if err != nil {
			return f, fmt.Errorf("invalid end_date %q", v)
		}
		f.To = &d
	}
	return f, nil
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request, userID string) {
	filter, err := parseTransactionFilter(r.URL.Query())
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	txs, err := s.store.ListTransactions(r.Context(), userID, filter)
	if err != nil {
		s.respondStoreError(w, r, err, "list transactions")
		return
	}
	if txs == nil {
		txs = []core.Transaction{}
	}
	respondJSON(w, http.StatusOK, txs)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request, userID string) {
	var req transactionRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	tx := core.Transaction{
		ID:          uuid.NewString(),
		UserID:      userID,
		Description: strings.TrimSpace(req.Description),
		Amount:      req.Amount,
		Date:        req.Date,
		Category:    strings.TrimSpace(req.Category),
		Type:        req.Type,
		CreatedAt:   time.Now().UTC(),
	}
	tx.Normalize()
	if err := tx.Validate(); err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	if err := s.store.CreateTransaction(r.Context(), tx); err != nil {
		s.respondStoreError(w, r, err, "create transaction")
		return
	}

	s.audit.LogTransactionMutation(r.Context(), applog.OpCreate,
		userID, tx.ID, tx.Amount.Cents, tx.Category, string(tx.Type))
	s.invalidateViews(userID)
	s.publishTransactionEvent(r, events.ActionCreated, tx.ID, userID)

	respondJSON(w, http.StatusCreated, tx)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request, userID string) {
	var req transactionRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	tx := core.Transaction{
		ID:          r.PathValue("id"),
		UserID:      userID,
		Description: strings.TrimSpace(req.Description),
		Amount:      req.Amount,
		Date:        req.Date,
		Category:    strings.TrimSpace(req.Category),
		Type:        req.Type,
	}
	tx.Normalize()
	if err := tx.Validate(); err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	if err := s.store.UpdateTransaction(r.Context(), tx); err != nil {
		s.respondStoreError(w, r, err, "update transaction")
		return
	}

	// Re-read so the response carries the preserved creation timestamp.
	stored, err := s.store.GetTransaction(r.Context(), userID, tx.ID)
	if err != nil {
		s.respondStoreError(w, r, err, "load transaction")
		return
	}

	s.audit.LogTransactionMutation(r.Context(), applog.OpUpdate,
		userID, stored.ID, stored.Amount.Cents, stored.Category, string(stored.Type))
	s.invalidateViews(userID)
	s.publishTransactionEvent(r, events.ActionUpdated, stored.ID, userID)

	respondJSON(w, http.StatusOK, stored)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request, userID string) {
	id := r.PathValue("id")
	if err := s.store.DeleteTransaction(r.Context(), userID, id); err != nil {
		s.respondStoreError(w, r, err, "delete transaction")
		return
	}

	s.audit.LogTransactionMutation(r.Context(), applog.OpDelete, userID, id, 0, "", "")
	s.invalidateViews(userID)
	s.publishTransactionEvent(r, events.ActionDeleted, id, userID)

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request, userID string) {
	txs, err := s.store.ListTransactions(r.Context(), userID, core.TransactionFilter{})
	if err != nil {
		s.respondStoreError(w, r, err, "list transactions")
		return
	}

	seen := make(map[string]struct{}, len(txs))
	categories := []string{}
	for _, tx := range txs {
		if _, ok := seen[tx.Category]; ok {
			continue
		}
		seen[tx.Category] = struct{}{}
		categories = append(categories, tx.Category)
	}
	sort.Strings(categories)

	respondJSON(w, http.StatusOK, categories)
}

func (s *Server) handleExportTransactions(w http.ResponseWriter, r *http.Request, userID string) {
	filter, err := parseTransactionFilter(r.URL.Query())
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	txs, err := s.store.ListTransactions(r.Context(), userID, filter)
	if err != nil {
		s.respondStoreError(w, r, err, "export transactions")
		return
	}
	if len(txs) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	s.logger.InfoContext(r.Context(), "Transactions exported",
		applog.FieldOperation, applog.OpExport,
		applog.FieldUserID, userID,
		"count", len(txs))

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", core.ExportFilename(time.Now())))
	_, _ = w.Write([]byte(core.ExportCSV(txs)))
}

// publishTransactionEvent pushes a mutation event to the bus when one is
// configured. The mutation is already committed, so a publish failure is
// logged and the response stays successful; the worker converges on the
// next event for the same transaction.
func (s *Server) publishTransactionEvent(r *http.Request, action events.Action, txID, userID string) {
	if s.bus == nil {
		return
	}
	evt := events.NewTransactionEvent(action, txID, userID)
	if err := s.bus.PublishTransactionEvent(r.Context(), evt); err != nil {
		s.logger.WarnContext(r.Context(), "Event publish failed",
			applog.FieldTransactionID, txID,
			applog.FieldError, err)
	}
}

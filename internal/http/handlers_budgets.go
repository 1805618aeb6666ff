package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"fintrack/internal/core"
	applog "fintrack/internal/log"
)

type budgetRequest struct {
	Category string     `json:"category"`
	Amount   core.Money `json:"amount"`
	Period   core.Date  `json:"period"`
}

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request, userID string) {
	budgets, err := s.store.ListBudgets(r.Context(), userID)
	if err != nil {
		s.respondStoreError(w, r, err, "list budgets")
		return
	}
	if budgets == nil {
		budgets = []core.Budget{}
	}
	respondJSON(w, http.StatusOK, budgets)
}

func (s *Server) handleCreateBudget(w http.ResponseWriter, r *http.Request, userID string) {
	var req budgetRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	b := core.Budget{
		ID:        uuid.NewString(),
		UserID:    userID,
		Category:  strings.TrimSpace(req.Category),
		Amount:    req.Amount,
		Period:    req.Period,
		CreatedAt: time.Now().UTC(),
	}
	b.Normalize()
	if err := b.Validate(); err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	if err := s.store.CreateBudget(r.Context(), b); err != nil {
		s.respondStoreError(w, r, err, "create budget")
		return
	}

	s.logger.InfoContext(r.Context(), "Budget created",
		applog.FieldOperation, applog.OpCreate,
		applog.FieldUserID, userID,
		applog.FieldBudgetID, b.ID,
		applog.FieldCategory, b.Category,
		applog.FieldMonth, b.Period.YearMonth())

	respondJSON(w, http.StatusCreated, b)
}

func (s *Server) handleGetBudget(w http.ResponseWriter, r *http.Request, userID string) {
	b, err := s.store.GetBudget(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		s.respondStoreError(w, r, err, "load budget")
		return
	}
	respondJSON(w, http.StatusOK, b)
}

func (s *Server) handleUpdateBudget(w http.ResponseWriter, r *http.Request, userID string) {
	var req budgetRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	b := core.Budget{
		ID:       r.PathValue("id"),
		UserID:   userID,
		Category: strings.TrimSpace(req.Category),
		Amount:   req.Amount,
		Period:   req.Period,
	}
	b.Normalize()
	if err := b.Validate(); err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	if err := s.store.UpdateBudget(r.Context(), b); err != nil {
		s.respondStoreError(w, r, err, "update budget")
		return
	}

	stored, err := s.store.GetBudget(r.Context(), userID, b.ID)
	if err != nil {
		s.respondStoreError(w, r, err, "load budget")
		return
	}
	respondJSON(w, http.StatusOK, stored)
}

func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request, userID string) {
	if err := s.store.DeleteBudget(r.Context(), userID, r.PathValue("id")); err != nil {
		s.respondStoreError(w, r, err, "delete budget")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleBudgetProgress(w http.ResponseWriter, r *http.Request, userID string) {
	budgets, err := s.store.ListBudgets(r.Context(), userID)
	if err != nil {
		s.respondStoreError(w, r, err, "list budgets")
		return
	}
	txs, err := s.store.ListTransactions(r.Context(), userID, core.TransactionFilter{})
	if err != nil {
		s.respondStoreError(w, r, err, "list transactions")
		return
	}

	reports := core.BudgetProgressAll(budgets, txs)
	if reports == nil {
		reports = []core.BudgetReport{}
	}
	respondJSON(w, http.StatusOK, reports)
}

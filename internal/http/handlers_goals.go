package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"fintrack/internal/core"
	applog "fintrack/internal/log"
)

type goalRequest struct {
	Name          string     `json:"name"`
	TargetAmount  core.Money `json:"target_amount"`
	CurrentAmount core.Money `json:"current_amount"`
	TargetDate    *core.Date `json:"target_date"`
}

type goalProgressRequest struct {
	CurrentAmount core.Money `json:"current_amount"`
}

func (s *Server) handleListGoals(w http.ResponseWriter, r *http.Request, userID string) {
	goals, err := s.store.ListGoals(r.Context(), userID)
	if err != nil {
		s.respondStoreError(w, r, err, "list goals")
		return
	}
	if goals == nil {
		goals = []core.Goal{}
	}
	respondJSON(w, http.StatusOK, goals)
}

func (s *Server) handleCreateGoal(w http.ResponseWriter, r *http.Request, userID string) {
	var req goalRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	g := core.Goal{
		ID:            uuid.NewString(),
		UserID:        userID,
		Name:          strings.TrimSpace(req.Name),
		TargetAmount:  req.TargetAmount,
		CurrentAmount: req.CurrentAmount,
		TargetDate:    req.TargetDate,
		CreatedAt:     time.Now().UTC(),
	}
	if err := g.Validate(); err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	if err := s.store.CreateGoal(r.Context(), g); err != nil {
		s.respondStoreError(w, r, err, "create goal")
		return
	}

	s.logger.InfoContext(r.Context(), "Goal created",
		applog.FieldOperation, applog.OpCreate,
		applog.FieldUserID, userID,
		applog.FieldGoalID, g.ID)

	respondJSON(w, http.StatusCreated, g)
}

func (s *Server) handleGetGoal(w http.ResponseWriter, r *http.Request, userID string) {
	g, err := s.store.GetGoal(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		s.respondStoreError(w, r, err, "load goal")
		return
	}
	respondJSON(w, http.StatusOK, g)
}

func (s *Server) handleUpdateGoal(w http.ResponseWriter, r *http.Request, userID string) {
	var req goalRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	g := core.Goal{
		ID:            r.PathValue("id"),
		UserID:        userID,
		Name:          strings.TrimSpace(req.Name),
		TargetAmount:  req.TargetAmount,
		CurrentAmount: req.CurrentAmount,
		TargetDate:    req.TargetDate,
	}
	if err := g.Validate(); err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	if err := s.store.UpdateGoal(r.Context(), g); err != nil {
		s.respondStoreError(w, r, err, "update goal")
		return
	}

	stored, err := s.store.GetGoal(r.Context(), userID, g.ID)
	if err != nil {
		s.respondStoreError(w, r, err, "load goal")
		return
	}
	respondJSON(w, http.StatusOK, stored)
}

func (s *Server) handleDeleteGoal(w http.ResponseWriter, r *http.Request, userID string) {
	if err := s.store.DeleteGoal(r.Context(), userID, r.PathValue("id")); err != nil {
		s.respondStoreError(w, r, err, "delete goal")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleSetGoalProgress overwrites the goal's current amount with the
// value in the request. The amount is absolute, not a delta.
func (s *Server) handleSetGoalProgress(w http.ResponseWriter, r *http.Request, userID string) {
	var req goalProgressRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if req.CurrentAmount.Cents < 0 {
		respondError(w, http.StatusUnprocessableEntity, "current amount cannot be negative")
		return
	}

	g, err := s.store.GetGoal(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		s.respondStoreError(w, r, err, "load goal")
		return
	}

	g.CurrentAmount = req.CurrentAmount
	if err := s.store.UpdateGoal(r.Context(), g); err != nil {
		s.respondStoreError(w, r, err, "update goal")
		return
	}

	s.logger.InfoContext(r.Context(), "Goal progress updated",
		applog.FieldOperation, applog.OpUpdate,
		applog.FieldUserID, userID,
		applog.FieldGoalID, g.ID,
		applog.FieldAmountCents, g.CurrentAmount.Cents)

	respondJSON(w, http.StatusOK, g)
}

func (s *Server) handleGoalProgress(w http.ResponseWriter, r *http.Request, userID string) {
	goals, err := s.store.ListGoals(r.Context(), userID)
	if err != nil {
		s.respondStoreError(w, r, err, "list goals")
		return
	}

	reports := core.GoalProgressAll(goals, time.Now())
	if reports == nil {
		reports = []core.GoalReport{}
	}
	respondJSON(w, http.StatusOK, reports)
}

package http

import (
	"errors"
	"net/http"

	"fintrack/internal/core"
	applog "fintrack/internal/log"
	"fintrack/internal/session"
	"fintrack/internal/store"
)

type registerRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Token   string       `json:"token"`
	Profile core.Profile `json:"profile"`
}

type updateProfileRequest struct {
	Name     string `json:"name"`
	Password string `json:"password,omitempty"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	profile, token, err := s.sessions.Register(r.Context(), req.Email, req.Name, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrEmailTaken):
			respondError(w, http.StatusConflict, "email already registered")
		case errors.Is(err, session.ErrInvalidEmail),
			errors.Is(err, session.ErrWeakPassword),
			errors.Is(err, core.ErrEmptyName):
			respondError(w, http.StatusUnprocessableEntity, err.Error())
		default:
			s.logger.ErrorContext(r.Context(), "Registration failed",
				applog.FieldOperation, applog.OpRegister,
				applog.FieldError, err)
			respondError(w, http.StatusInternalServerError, "registration failed")
		}
		return
	}

	s.logger.InfoContext(r.Context(), "Account registered",
		applog.FieldOperation, applog.OpRegister,
		applog.FieldUserID, profile.ID)
	s.setSessionCookie(w, token)
	respondJSON(w, http.StatusCreated, authResponse{Token: token, Profile: profile})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	profile, token, err := s.sessions.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, session.ErrInvalidCredentials) {
			respondError(w, http.StatusUnauthorized, "invalid email or password")
			return
		}
		s.logger.ErrorContext(r.Context(), "Login failed",
			applog.FieldOperation, applog.OpLogin,
			applog.FieldError, err)
		respondError(w, http.StatusInternalServerError, "login failed")
		return
	}

	s.logger.InfoContext(r.Context(), "Session opened",
		applog.FieldOperation, applog.OpLogin,
		applog.FieldUserID, profile.ID)
	s.setSessionCookie(w, token)
	respondJSON(w, http.StatusOK, authResponse{Token: token, Profile: profile})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	token := sessionToken(r)
	if token != "" {
		if err := s.sessions.Logout(r.Context(), token); err != nil {
			s.logger.ErrorContext(r.Context(), "Logout failed",
				applog.FieldOperation, applog.OpLogout,
				applog.FieldError, err)
			respondError(w, http.StatusInternalServerError, "logout failed")
			return
		}
	}

	s.clearSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request, userID string) {
	profile, err := s.store.GetProfile(r.Context(), userID)
	if err != nil {
		s.respondStoreError(w, r, err, "load profile")
		return
	}
	respondJSON(w, http.StatusOK, profile)
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request, userID string) {
	s.handleMe(w, r, userID)
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request, userID string) {
	var req updateProfileRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	profile, err := s.store.GetProfile(r.Context(), userID)
	if err != nil {
		s.respondStoreError(w, r, err, "load profile")
		return
	}

	if req.Name != "" {
		profile.Name = req.Name
		if err := s.store.UpdateProfile(r.Context(), profile); err != nil {
			s.respondStoreError(w, r, err, "update profile")
			return
		}
	}

	if req.Password != "" {
		if err := s.sessions.ChangePassword(r.Context(), userID, req.Password); err != nil {
			if errors.Is(err, session.ErrWeakPassword) {
				respondError(w, http.StatusUnprocessableEntity, err.Error())
				return
			}
			s.respondStoreError(w, r, err, "change password")
			return
		}
	}

	respondJSON(w, http.StatusOK, profile)
}

func (s *Server) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(s.sessions.TTL().Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}

func (s *Server) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
	})
}

// respondStoreError maps persistence failures to the right status code and
// logs the ones worth paging about.
func (s *Server) respondStoreError(w http.ResponseWriter, r *http.Request, err error, action string) {
	if errors.Is(err, store.ErrNotFound) {
		respondError(w, http.StatusNotFound, "not found")
		return
	}
	s.audit.LogError(r.Context(), "Store operation failed", err,
		applog.ComponentStore, action, applog.NewFields())
	respondError(w, http.StatusInternalServerError, "internal error")
}

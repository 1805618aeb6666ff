package http

import (
	"net/http"
	"strings"
)

// sessionCookie lets browser clients carry the token without a header.
const sessionCookie = "session_token"

// authHandler is a handler that runs with a resolved user identity.
type authHandler func(w http.ResponseWriter, r *http.Request, userID string)

// withAuth resolves the session token and rejects the request with 401
// when it is missing, unknown, or expired.
func (s *Server) withAuth(next authHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := sessionToken(r)
		if token == "" {
			respondError(w, http.StatusUnauthorized, "missing session token")
			return
		}

		userID, err := s.sessions.Authenticate(r.Context(), token)
		if err != nil {
			respondError(w, http.StatusUnauthorized, "invalid or expired session")
			return
		}

		next(w, r, userID)
	}
}

// sessionToken extracts the token from the Authorization header or, as a
// fallback, the session cookie.
func sessionToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); h != "" {
		if token, ok := strings.CutPrefix(h, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
		return ""
	}
	if c, err := r.Cookie(sessionCookie); err == nil {
		return c.Value
	}
	return ""
}

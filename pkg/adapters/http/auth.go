package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

var errMissingToken = errors.New("missing bearer token")

// TokenAuthority issues and checks session-bound bearer tokens.
type TokenAuthority interface {
	Issue(sessionID string) (string, error)
	Authorize(raw, sessionID string) error
}

func bearer(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if token, ok := strings.CutPrefix(h, "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	// EventSource cannot set headers.
	return r.URL.Query().Get("access_token")
}

// requireSession rejects requests whose token is not bound to {id}.
func (s *Server) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.tokens == nil {
			next.ServeHTTP(w, r)
			return
		}
		raw := bearer(r)
		if raw == "" {
			s.writeError(w, r, errMissingToken)
			return
		}
		if err := s.tokens.Authorize(raw, chi.URLParam(r, "id")); err != nil {
			s.writeError(w, r, err)
			return
		}
		next.ServeHTTP(w, r)
	})
}

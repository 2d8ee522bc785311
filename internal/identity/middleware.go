package identity

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/tiered-events/app/internal/apperrors"
)

// DefaultProtectedPrefixes are the routes that require a signed-in caller.
var DefaultProtectedPrefixes = []string{"/events", "/profile", "/api/events", "/api/me"}

// Resolve attaches the caller to the request context when the request
// carries a valid token. Requests without one pass through unchanged so
// public pages can still tell signed-in visitors apart.
func (v *Verifier) Resolve(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := TokenFromRequest(r)
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}
		caller, err := v.Verify(token)
		if err != nil {
			log.Debug().Err(err).Str("path", r.URL.Path).Msg("Ignoring invalid session token")
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithCaller(r.Context(), caller)))
	})
}

// Protect refuses requests under any of prefixes that have no caller in
// context. API paths get a 401 JSON body; pages redirect to the welcome
// page. It must run after Resolve.
func Protect(prefixes []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !IsProtected(prefixes, r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}
			if _, ok := CallerFromContext(r.Context()); ok {
				next.ServeHTTP(w, r)
				return
			}
			if strings.HasPrefix(r.URL.Path, "/api/") {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_ = json.NewEncoder(w).Encode(map[string]string{
					"error": apperrors.ErrAuthenticationRequired.Message,
				})
				return
			}
			http.Redirect(w, r, "/", http.StatusSeeOther)
		})
	}
}

// IsProtected reports whether path is one of prefixes or below one.
func IsProtected(prefixes []string, path string) bool {
	for _, p := range prefixes {
		p = strings.TrimSuffix(p, "/")
		if p == "" {
			continue
		}
		if path == p || strings.HasPrefix(path, p+"/") {
			return true
		}
	}
	return false
}

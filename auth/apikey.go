package auth

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"

	"skypanel/store"
)

// userIDHeader names the acting user for instance-scoped requests so
// the guard can evaluate per-instance access. API keys themselves are
// panel-level credentials, not user identities.
const userIDHeader = "x-user-id"

// ActingUserID extracts the acting user from a request. Empty when
// the caller did not identify one; gated handlers deny in that case.
func ActingUserID(r *http.Request) string {
	return r.Header.Get(userIDHeader)
}

// APIKeyMiddleware rejects requests whose x-api-key header does not
// match a stored key. The console websocket route is exempt: browsers
// cannot set headers on websocket dials, so it carries a short-lived
// token instead.
func APIKeyMiddleware(s *store.Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.HasPrefix(r.URL.Path, "/api/instance/console/") || r.URL.Path == "/api/health" {
				next.ServeHTTP(w, r)
				return
			}

			key := r.Header.Get("x-api-key")
			if key == "" {
				denyJSON(w, http.StatusUnauthorized, "API key is required")
				return
			}

			keys, err := s.APIKeys(r.Context())
			if err != nil {
				denyJSON(w, http.StatusInternalServerError, "Failed to validate API key")
				return
			}

			for _, k := range keys {
				if subtle.ConstantTimeCompare([]byte(k.Key), []byte(key)) == 1 {
					next.ServeHTTP(w, r)
					return
				}
			}
			denyJSON(w, http.StatusUnauthorized, "Invalid Key")
		})
	}
}

func denyJSON(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

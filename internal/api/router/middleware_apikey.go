package router

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

const apiKeyHeader = "X-API-Key"

// requireAPIKey gates the analysis routes behind a shared key.
// When expected is empty, the middleware is a no-op.
func requireAPIKey(expected string) func(http.Handler) http.Handler {
	expected = strings.TrimSpace(expected)
	return func(next http.Handler) http.Handler {
		if expected == "" {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := strings.TrimSpace(r.Header.Get(apiKeyHeader))
			if key == "" {
				if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
					key = strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
				}
			}
			if key == "" || subtle.ConstantTimeCompare([]byte(key), []byte(expected)) != 1 {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"detail":"invalid api key"}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

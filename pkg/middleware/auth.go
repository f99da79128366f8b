package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// APIKeyHeader carries the operator API key
const APIKeyHeader = "X-API-Key"

// APIKey requires the configured key in X-API-Key or as a Bearer token.
// An empty key disables the check for local development.
func APIKey(key string, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if key == "" {
			logger.Warn("API key authentication disabled")
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			supplied := r.Header.Get(APIKeyHeader)
			if supplied == "" {
				supplied = strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
			}

			if supplied == "" {
				writeError(w, http.StatusUnauthorized, "AUTH_MISSING", "authentication required")
				return
			}
			if subtle.ConstantTimeCompare([]byte(supplied), []byte(key)) != 1 {
				logger.Warn("Invalid API key", zap.String("remote_addr", r.RemoteAddr))
				writeError(w, http.StatusUnauthorized, "AUTH_INVALID", "invalid authentication")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// SecurityHeaders sets conservative browser security headers
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")
		h.Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}

package middleware

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
)

// AgentAuthMiddleware guards the agent endpoints with a shared static
// token. The token arrives as "Authorization: Bearer ..." or in the
// X-Agent-Token header; comparison is constant time.
func AgentAuthMiddleware(token string, logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token == "" {
				logger.Error().Msg("Agent token is not configured, rejecting agent request")
				writeAuthError(w, http.StatusServiceUnavailable, "agent access is not configured")
				return
			}

			presented := bearerToken(r)
			if presented == "" {
				presented = r.Header.Get("X-Agent-Token")
			}
			if presented == "" {
				writeAuthError(w, http.StatusUnauthorized, "agent token required")
				return
			}
			if subtle.ConstantTimeCompare([]byte(presented), []byte(token)) != 1 {
				logger.Warn().Str("remote", r.RemoteAddr).Msg("Agent token rejected")
				writeAuthError(w, http.StatusUnauthorized, "invalid agent token")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// AdminAuthMiddleware guards the admin endpoints with an HS256 session
// token carrying a role claim. Non-admin sessions are authenticated but
// forbidden.
func AdminAuthMiddleware(secret string, logger zerolog.Logger) func(http.Handler) http.Handler {
	keyFunc := func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return []byte(secret), nil
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secret == "" {
				logger.Error().Msg("Admin session secret is not configured, rejecting admin request")
				writeAuthError(w, http.StatusServiceUnavailable, "admin access is not configured")
				return
			}

			raw := bearerToken(r)
			if raw == "" {
				if c, err := r.Cookie("session"); err == nil {
					raw = c.Value
				}
			}
			if raw == "" {
				writeAuthError(w, http.StatusUnauthorized, "authentication required")
				return
			}

			claims := jwt.MapClaims{}
			if _, err := jwt.ParseWithClaims(raw, claims, keyFunc); err != nil {
				logger.Warn().Err(err).Str("remote", r.RemoteAddr).Msg("Admin session rejected")
				writeAuthError(w, http.StatusUnauthorized, "invalid session")
				return
			}
			if role, _ := claims["role"].(string); role != "admin" {
				writeAuthError(w, http.StatusForbidden, "admin role required")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "Bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

func writeAuthError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

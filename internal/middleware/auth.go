package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"challenge-hub/internal/metrics"
	"challenge-hub/internal/model"
)

// RefreshCookieName is the http-only cookie carrying the refresh token.
const RefreshCookieName = "refresh_token"

// renewedTokenHeader surfaces a silently renewed access token to the client.
const renewedTokenHeader = "X-Access-Token"

type sessionAuthenticator interface {
	// Authenticate validates the access token and, when it is invalid,
	// attempts a refresh-token renewal. A non-empty second return is a
	// freshly minted access token to hand back to the client.
	Authenticate(ctx context.Context, accessToken string, refreshToken string) (*model.AuthClaims, string, error)
}

type contextKey string

const authClaimsContextKey contextKey = "auth_claims"

type AuthMiddleware struct {
	sessions sessionAuthenticator
	metrics  *metrics.Metrics
}

func NewAuthMiddleware(sessions sessionAuthenticator, m *metrics.Metrics) *AuthMiddleware {
	return &AuthMiddleware{sessions: sessions, metrics: m}
}

// RequireAuth authenticates the request: bearer access token first, silent
// refresh-cookie renewal second. Terminal outcomes are the handler chain
// (authorized), 401, or a generic 500 -- the response never says which
// internal step failed.
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		accessToken := bearerToken(r)
		refreshToken := ""
		if cookie, err := r.Cookie(RefreshCookieName); err == nil {
			refreshToken = cookie.Value
		}

		claims, renewed, err := m.sessions.Authenticate(r.Context(), accessToken, refreshToken)
		if err != nil {
			if errors.Is(err, model.ErrUnauthorized) {
				m.metrics.AuthFailures.WithLabelValues("unauthenticated").Inc()
				writeAuthError(w, "UNAUTHORIZED", "authentication required")
				return
			}
			m.metrics.AuthFailures.WithLabelValues("internal").Inc()
			slog.Error("authentication failed", "error", err)
			writeAuthError(w, "INTERNAL_ERROR", "Unexpected server error")
			return
		}

		if renewed != "" {
			m.metrics.SilentRenewals.Inc()
			w.Header().Set(renewedTokenHeader, renewed)
			w.Header().Set("Authorization", "Bearer "+renewed)
		}

		ctx := context.WithValue(r.Context(), authClaimsContextKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRoles gates an already-authenticated request on role membership.
func (m *AuthMiddleware) RequireRoles(allowedRoles ...string) func(http.Handler) http.Handler {
	roleSet := map[string]struct{}{}
	for _, role := range allowedRoles {
		roleSet[strings.ToLower(strings.TrimSpace(role))] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFromContext(r.Context())
			if !ok {
				writeAuthError(w, "UNAUTHORIZED", "authentication required")
				return
			}

			if _, exists := roleSet[strings.ToLower(claims.Role)]; !exists {
				m.metrics.AuthFailures.WithLabelValues("forbidden").Inc()
				writeAuthError(w, "FORBIDDEN", "insufficient permissions")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func ClaimsFromContext(ctx context.Context) (*model.AuthClaims, bool) {
	claims, ok := ctx.Value(authClaimsContextKey).(*model.AuthClaims)
	return claims, ok
}

func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" || !strings.HasPrefix(strings.ToLower(header), "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}

func writeAuthError(w http.ResponseWriter, code string, message string) {
	w.Header().Set("Content-Type", "application/json")
	switch code {
	case "FORBIDDEN":
		w.WriteHeader(http.StatusForbidden)
	case "INTERNAL_ERROR":
		w.WriteHeader(http.StatusInternalServerError)
	default:
		w.WriteHeader(http.StatusUnauthorized)
	}

	_ = json.NewEncoder(w).Encode(model.APIResponse{
		Success: false,
		Error: &model.APIError{
			Code:    code,
			Message: message,
		},
	})
}

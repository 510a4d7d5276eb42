package middleware

import (
	"net/http"
	"strings"

	"github.com/tallerhub/tallerhub/internal/api/response"
	"github.com/tallerhub/tallerhub/internal/auth"
)

// Auth provides bearer-token authentication middleware.
type Auth struct {
	tokens *auth.TokenIssuer
}

// NewAuth creates a new Auth middleware.
func NewAuth(tokens *auth.TokenIssuer) *Auth {
	return &Auth{tokens: tokens}
}

// Authenticate verifies the Bearer token and sets the session claims in the
// request context. Missing, malformed, and expired tokens all fail with the
// same 401.
func (a *Auth) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := extractBearerToken(r)
		if token == "" {
			response.Error(w, http.StatusUnauthorized,
				"INVALID_TOKEN", "Missing or invalid Authorization header", nil)
			return
		}

		claims, err := a.tokens.Verify(token)
		if err != nil {
			response.Error(w, http.StatusUnauthorized,
				"INVALID_TOKEN", "Invalid or expired token", nil)
			return
		}

		next.ServeHTTP(w, r.WithContext(SetClaims(r.Context(), claims)))
	})
}

func extractBearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

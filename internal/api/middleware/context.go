package middleware

import (
	"context"
	"net/http"

	"github.com/tallerhub/tallerhub/internal/auth"
)

type contextKey string

const claimsKey contextKey = "session_claims"

// SetClaims stores verified session claims in the context.
func SetClaims(ctx context.Context, claims *auth.Claims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

// GetClaims retrieves the verified session claims set by the auth middleware.
func GetClaims(r *http.Request) (*auth.Claims, bool) {
	claims, ok := r.Context().Value(claimsKey).(*auth.Claims)
	return claims, ok
}

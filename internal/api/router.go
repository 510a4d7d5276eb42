package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	mw "github.com/tallerhub/tallerhub/internal/api/middleware"
	"github.com/tallerhub/tallerhub/internal/api/response"
)

// Dependencies holds all handler and middleware dependencies for the router.
type Dependencies struct {
	Auth      *mw.Auth
	RateLimit *mw.RateLimit

	HealthHandler http.HandlerFunc

	RegisterTenantHandler   http.HandlerFunc
	LoginHandler            http.HandlerFunc
	ChangePasswordHandler   http.HandlerFunc
	CreateInvitationHandler http.HandlerFunc
	ActivateHandler         http.HandlerFunc

	CreateClientHandler http.HandlerFunc
	ListClientsHandler  http.HandlerFunc
	GetClientHandler    http.HandlerFunc
	UpdateClientHandler http.HandlerFunc
}

// NewRouter builds the Chi router with middleware stack and all routes.
func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(mw.Logger)
	r.Use(mw.Recovery)

	// Public health check
	r.Get("/api/v1/health", orNotImplemented(deps.HealthHandler))

	// Public auth routes, rate limited by remote IP
	r.Group(func(r chi.Router) {
		r.Use(deps.RateLimit.Limit)

		r.Post("/api/v1/auth/register-tenant", orNotImplemented(deps.RegisterTenantHandler))
		r.Post("/api/v1/auth/login", orNotImplemented(deps.LoginHandler))
		r.Post("/api/v1/auth/activate", orNotImplemented(deps.ActivateHandler))
	})

	// Protected routes, rate limited by subject
	r.Group(func(r chi.Router) {
		r.Use(deps.Auth.Authenticate)
		r.Use(deps.RateLimit.Limit)

		r.Post("/api/v1/auth/change-password", orNotImplemented(deps.ChangePasswordHandler))
		r.Post("/api/v1/auth/invitations", orNotImplemented(deps.CreateInvitationHandler))

		r.Post("/api/v1/clients", orNotImplemented(deps.CreateClientHandler))
		r.Get("/api/v1/clients", orNotImplemented(deps.ListClientsHandler))
		r.Get("/api/v1/clients/{clientID}", orNotImplemented(deps.GetClientHandler))
		r.Patch("/api/v1/clients/{clientID}", orNotImplemented(deps.UpdateClientHandler))
	})

	return r
}

// orNotImplemented returns the handler if non-nil, or a 501 placeholder.
func orNotImplemented(h http.HandlerFunc) http.HandlerFunc {
	if h != nil {
		return h
	}
	return func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, http.StatusNotImplemented, "NOT_IMPLEMENTED", "Endpoint not yet implemented", nil)
	}
}

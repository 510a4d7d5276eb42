package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/mail"
	"strings"

	"github.com/google/uuid"
	mw "github.com/tallerhub/tallerhub/internal/api/middleware"
	"github.com/tallerhub/tallerhub/internal/api/response"
	"github.com/tallerhub/tallerhub/internal/auth"
	"github.com/tallerhub/tallerhub/internal/store"
	"github.com/tallerhub/tallerhub/pkg/models"
)

const (
	minPasswordLen    = 8
	minNameLen        = 3
	minAdminNameParts = 3
)

// AuthService defines the interface the auth handlers depend on.
type AuthService interface {
	RegisterTenant(ctx context.Context, in auth.RegisterTenantInput) (*auth.RegisterTenantResult, error)
	Login(ctx context.Context, email, password string) (*auth.SessionResult, error)
	ChangePassword(ctx context.Context, userID uuid.UUID, currentPassword, newPassword string) error
	CreateInvitation(ctx context.Context, ownerID uuid.UUID, in auth.CreateInvitationInput) (*auth.InvitationResult, error)
	ActivateAccount(ctx context.Context, token, password string) (*auth.SessionResult, error)
}

type garagePayload struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	FiscalID string    `json:"fiscalId"`
}

type userPayload struct {
	ID    uuid.UUID       `json:"id"`
	Name  string          `json:"name"`
	Email string          `json:"email"`
	Rol   models.UserRole `json:"rol"`
}

type sessionUserPayload struct {
	ID       uuid.UUID       `json:"id"`
	Name     string          `json:"name"`
	Email    string          `json:"email"`
	Rol      models.UserRole `json:"rol"`
	GarageID uuid.UUID       `json:"garageId"`
}

// NewRegisterTenantHandler returns an http.HandlerFunc for
// POST /api/v1/auth/register-tenant.
func NewRegisterTenantHandler(svc AuthService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			GarageName string `json:"garageName"`
			AdminName  string `json:"adminName"`
			FiscalID   string `json:"fiscalId"`
			AdminEmail string `json:"adminEmail"`
			Password   string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}

		if len(req.GarageName) < minNameLen {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "garageName must be at least 3 characters", nil)
			return
		}
		if len(strings.Fields(req.AdminName)) < minAdminNameParts {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "adminName must contain a first name and two surnames", nil)
			return
		}
		if req.FiscalID == "" {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "fiscalId is required", nil)
			return
		}
		if !validEmail(req.AdminEmail) {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "adminEmail must be a valid email address", nil)
			return
		}
		if len(req.Password) < minPasswordLen {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "password must be at least 8 characters", nil)
			return
		}

		result, err := svc.RegisterTenant(r.Context(), auth.RegisterTenantInput{
			GarageName: req.GarageName,
			AdminName:  req.AdminName,
			FiscalID:   req.FiscalID,
			AdminEmail: req.AdminEmail,
			Password:   req.Password,
		})
		if err != nil {
			writeAuthError(w, err)
			return
		}

		response.Created(w, map[string]any{
			"garage": garagePayload{
				ID:       result.Garage.ID,
				Name:     result.Garage.Name,
				FiscalID: result.Garage.FiscalID,
			},
			"user": userPayload{
				ID:    result.User.ID,
				Name:  result.User.Name,
				Email: result.User.Email,
				Rol:   result.User.Rol,
			},
		})
	}
}

// NewLoginHandler returns an http.HandlerFunc for POST /api/v1/auth/login.
func NewLoginHandler(svc AuthService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}

		if !validEmail(req.Email) {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "email must be a valid email address", nil)
			return
		}
		if req.Password == "" {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "password is required", nil)
			return
		}

		result, err := svc.Login(r.Context(), req.Email, req.Password)
		if err != nil {
			writeAuthError(w, err)
			return
		}

		response.JSON(w, map[string]any{
			"access_token": result.AccessToken,
			"user": sessionUserPayload{
				ID:       result.User.ID,
				Name:     result.User.Name,
				Email:    result.User.Email,
				Rol:      result.User.Rol,
				GarageID: result.User.GarageID,
			},
		})
	}
}

// NewChangePasswordHandler returns an http.HandlerFunc for
// POST /api/v1/auth/change-password. Requires authentication.
func NewChangePasswordHandler(svc AuthService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := mw.GetClaims(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized, "INVALID_TOKEN", "Missing session", nil)
			return
		}
		userID, err := claims.UserID()
		if err != nil {
			response.Error(w, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid subject", nil)
			return
		}

		var req struct {
			CurrentPassword string `json:"currentPassword"`
			NewPassword     string `json:"newPassword"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}

		if len(req.CurrentPassword) < minNameLen {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "currentPassword must be at least 3 characters", nil)
			return
		}
		if len(req.NewPassword) < minNameLen {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "newPassword must be at least 3 characters", nil)
			return
		}

		if err := svc.ChangePassword(r.Context(), userID, req.CurrentPassword, req.NewPassword); err != nil {
			writeAuthError(w, err)
			return
		}

		response.JSON(w, map[string]string{"message": "Password updated successfully"})
	}
}

// NewCreateInvitationHandler returns an http.HandlerFunc for
// POST /api/v1/auth/invitations. Requires authentication; the service rejects
// callers that are not the owner. When includeToken is set (non-production),
// the raw invitation token is echoed in the response for manual delivery.
func NewCreateInvitationHandler(svc AuthService, includeToken bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := mw.GetClaims(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized, "INVALID_TOKEN", "Missing session", nil)
			return
		}
		ownerID, err := claims.UserID()
		if err != nil {
			response.Error(w, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid subject", nil)
			return
		}

		var req struct {
			Name  string `json:"name"`
			Email string `json:"email"`
			Rol   string `json:"rol"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}

		if req.Name == "" {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "name is required", nil)
			return
		}
		if !validEmail(req.Email) {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "email must be a valid email address", nil)
			return
		}
		rol, err := models.ParseRole(req.Rol)
		if err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "rol must be one of OWNER, MECHANIC", nil)
			return
		}

		result, err := svc.CreateInvitation(r.Context(), ownerID, auth.CreateInvitationInput{
			Name:  req.Name,
			Email: req.Email,
			Rol:   rol,
		})
		if err != nil {
			writeAuthError(w, err)
			return
		}

		body := map[string]any{
			"message": "Invitation created successfully",
			"user": userPayload{
				ID:    result.User.ID,
				Name:  result.User.Name,
				Email: result.User.Email,
				Rol:   result.User.Rol,
			},
		}
		if includeToken {
			body["invitationToken"] = result.Token
		}
		response.Created(w, body)
	}
}

// NewActivateHandler returns an http.HandlerFunc for POST /api/v1/auth/activate.
func NewActivateHandler(svc AuthService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			InvitationToken string `json:"invitationToken"`
			Password        string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}

		if req.InvitationToken == "" {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "invitationToken is required", nil)
			return
		}
		if len(req.Password) < minPasswordLen {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "password must be at least 8 characters", nil)
			return
		}

		result, err := svc.ActivateAccount(r.Context(), req.InvitationToken, req.Password)
		if err != nil {
			writeAuthError(w, err)
			return
		}

		response.JSON(w, map[string]any{"access_token": result.AccessToken})
	}
}

// writeAuthError maps domain errors to HTTP responses.
func writeAuthError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		response.Error(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", auth.ErrInvalidCredentials.Error(), nil)
	case errors.Is(err, auth.ErrNoCredential):
		response.Error(w, http.StatusUnauthorized, "NO_CREDENTIAL", "Password has not been set for this account", nil)
	case errors.Is(err, auth.ErrNotOwner):
		response.Error(w, http.StatusUnauthorized, "OWNER_REQUIRED", "Only the owner can create users", nil)
	case errors.Is(err, auth.ErrUserNotFound):
		response.Error(w, http.StatusNotFound, "NOT_FOUND", "User does not exist", nil)
	case errors.Is(err, auth.ErrOwnerRoleReserved):
		response.Error(w, http.StatusConflict, "OWNER_ROLE_RESERVED", "Another owner account cannot be created", nil)
	case errors.Is(err, auth.ErrInvitationNotFound):
		response.Error(w, http.StatusNotFound, "INVITATION_NOT_FOUND", "Invitation does not exist", nil)
	case errors.Is(err, auth.ErrInvitationExpired):
		response.Error(w, http.StatusUnauthorized, "INVITATION_EXPIRED", "Invitation has expired", nil)
	case errors.Is(err, auth.ErrAlreadyActivated):
		response.Error(w, http.StatusConflict, "ALREADY_ACTIVATED", "Account has already been activated", nil)
	case errors.Is(err, store.ErrDuplicateFiscalID):
		response.Error(w, http.StatusConflict, "DUPLICATE_FISCAL_ID", "Fiscal id is already registered", nil)
	case errors.Is(err, store.ErrDuplicateEmail):
		response.Error(w, http.StatusConflict, "DUPLICATE_EMAIL", "Email is already registered", nil)
	case errors.Is(err, store.ErrDuplicateOwner), errors.Is(err, store.ErrDuplicateKey):
		response.Error(w, http.StatusConflict, "CONFLICT", "A record with these values already exists", nil)
	default:
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred", nil)
	}
}

func validEmail(s string) bool {
	if s == "" {
		return false
	}
	addr, err := mail.ParseAddress(s)
	return err == nil && addr.Address == s
}

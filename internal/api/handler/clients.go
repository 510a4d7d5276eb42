package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	mw "github.com/tallerhub/tallerhub/internal/api/middleware"
	"github.com/tallerhub/tallerhub/internal/api/response"
	"github.com/tallerhub/tallerhub/internal/store"
	"github.com/tallerhub/tallerhub/pkg/models"
)

// ClientStore defines the store operations the client handlers depend on.
// Every operation is scoped by the garage id taken from the session claims.
type ClientStore interface {
	CreateClient(ctx context.Context, client *models.Client) error
	ListClients(ctx context.Context, garageID uuid.UUID) ([]*models.Client, error)
	GetClient(ctx context.Context, id uuid.UUID, garageID uuid.UUID) (*models.Client, error)
	UpdateClient(ctx context.Context, client *models.Client) error
}

// NewCreateClientHandler returns an http.HandlerFunc for POST /api/v1/clients.
func NewCreateClientHandler(s ClientStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := mw.GetClaims(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized, "INVALID_TOKEN", "Missing session", nil)
			return
		}

		var req struct {
			Name  string `json:"name"`
			Email string `json:"email"`
			Phone string `json:"phone"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}

		if len(req.Name) < minNameLen {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "name must be at least 3 characters", nil)
			return
		}
		if !validEmail(req.Email) {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "email must be a valid email address", nil)
			return
		}
		if req.Phone == "" {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "phone is required", nil)
			return
		}

		now := time.Now().UTC()
		client := &models.Client{
			ID:        uuid.New(),
			GarageID:  claims.GarageID,
			Name:      req.Name,
			Email:     req.Email,
			Phone:     req.Phone,
			CreatedAt: now,
			UpdatedAt: now,
		}

		if err := s.CreateClient(r.Context(), client); err != nil {
			writeClientError(w, err)
			return
		}
		response.Created(w, client)
	}
}

// NewListClientsHandler returns an http.HandlerFunc for GET /api/v1/clients.
func NewListClientsHandler(s ClientStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := mw.GetClaims(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized, "INVALID_TOKEN", "Missing session", nil)
			return
		}

		clients, err := s.ListClients(r.Context(), claims.GarageID)
		if err != nil {
			writeClientError(w, err)
			return
		}
		if clients == nil {
			clients = []*models.Client{}
		}
		response.JSON(w, clients)
	}
}

// NewGetClientHandler returns an http.HandlerFunc for GET /api/v1/clients/{clientID}.
func NewGetClientHandler(s ClientStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := mw.GetClaims(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized, "INVALID_TOKEN", "Missing session", nil)
			return
		}

		id, err := uuid.Parse(chi.URLParam(r, "clientID"))
		if err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "clientID must be a valid UUID", nil)
			return
		}

		client, err := s.GetClient(r.Context(), id, claims.GarageID)
		if err != nil {
			writeClientError(w, err)
			return
		}
		response.JSON(w, client)
	}
}

// NewUpdateClientHandler returns an http.HandlerFunc for PATCH /api/v1/clients/{clientID}.
// Absent fields are left unchanged.
func NewUpdateClientHandler(s ClientStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := mw.GetClaims(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized, "INVALID_TOKEN", "Missing session", nil)
			return
		}

		id, err := uuid.Parse(chi.URLParam(r, "clientID"))
		if err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "clientID must be a valid UUID", nil)
			return
		}

		var req struct {
			Name  *string `json:"name"`
			Email *string `json:"email"`
			Phone *string `json:"phone"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}

		client, err := s.GetClient(r.Context(), id, claims.GarageID)
		if err != nil {
			writeClientError(w, err)
			return
		}

		if req.Name != nil {
			if len(*req.Name) < minNameLen {
				response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "name must be at least 3 characters", nil)
				return
			}
			client.Name = *req.Name
		}
		if req.Email != nil {
			if !validEmail(*req.Email) {
				response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "email must be a valid email address", nil)
				return
			}
			client.Email = *req.Email
		}
		if req.Phone != nil {
			if *req.Phone == "" {
				response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "phone cannot be empty", nil)
				return
			}
			client.Phone = *req.Phone
		}

		if err := s.UpdateClient(r.Context(), client); err != nil {
			writeClientError(w, err)
			return
		}
		response.JSON(w, client)
	}
}

func writeClientError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		response.Error(w, http.StatusNotFound, "NOT_FOUND", "Client not found", nil)
	case errors.Is(err, store.ErrDuplicateKey):
		response.Error(w, http.StatusConflict, "DUPLICATE_EMAIL", "A client with this email already exists in this garage", nil)
	default:
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred", nil)
	}
}

package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/tallerhub/tallerhub/internal/store"
	"github.com/tallerhub/tallerhub/pkg/models"
)

// Service implements the tenant-scoped authentication and invitation
// lifecycle: tenant registration, login, password rotation, invitations, and
// account activation. Uniqueness is enforced by the store's constraints, not
// by pre-checks, so concurrent conflicting writes resolve to exactly one
// success.
type Service struct {
	store  store.Store
	hasher Hasher
	tokens *TokenIssuer
	now    func() time.Time
}

func NewService(s store.Store, hasher Hasher, tokens *TokenIssuer) *Service {
	return &Service{store: s, hasher: hasher, tokens: tokens, now: time.Now}
}

type RegisterTenantInput struct {
	GarageName string
	AdminName  string
	FiscalID   string
	AdminEmail string
	Password   string
}

type RegisterTenantResult struct {
	Garage *models.Garage
	User   *models.User
}

// RegisterTenant atomically creates a garage and its owner account, then
// attaches the owner as the garage's admin user. The owner is credentialed
// immediately; no invitation step exists for owners.
func (s *Service) RegisterTenant(ctx context.Context, in RegisterTenantInput) (*RegisterTenantResult, error) {
	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	garage := &models.Garage{
		ID:        uuid.New(),
		Name:      in.GarageName,
		FiscalID:  in.FiscalID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	owner := &models.User{
		ID:            uuid.New(),
		GarageID:      garage.ID,
		Name:          in.AdminName,
		Email:         in.AdminEmail,
		Rol:           models.RoleOwner,
		Status:        models.StatusActive,
		PasswordHash:  &hash,
		EmailVerified: false,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.store.CreateGarageWithOwner(ctx, garage, owner); err != nil {
		return nil, err
	}

	return &RegisterTenantResult{Garage: garage, User: owner}, nil
}

type SessionResult struct {
	AccessToken string
	User        *models.User
}

// Login verifies an email/password pair and mints a session token. Unknown
// email, an uncredentialed (invited) account, and a wrong password all fail
// with the same ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, email, password string) (*SessionResult, error) {
	user, err := s.store.GetUserByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("look up user: %w", err)
	}

	if user.PasswordHash == nil || !s.hasher.Verify(*user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}
	return &SessionResult{AccessToken: token, User: user}, nil
}

// ChangePassword verifies the current credential and replaces it. Sessions
// minted before the change stay valid until expiry; tokens are stateless.
func (s *Service) ChangePassword(ctx context.Context, userID uuid.UUID, currentPassword, newPassword string) error {
	user, err := s.store.GetUser(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return ErrUserNotFound
	}
	if err != nil {
		return fmt.Errorf("look up user: %w", err)
	}

	if user.PasswordHash == nil {
		return ErrNoCredential
	}
	if !s.hasher.Verify(*user.PasswordHash, currentPassword) {
		return ErrInvalidCredentials
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return err
	}
	return s.store.UpdateUserPassword(ctx, userID, hash)
}

type CreateInvitationInput struct {
	Name  string
	Email string
	Rol   models.UserRole
}

type InvitationResult struct {
	User *models.User
	// Token is the raw invitation token, intended for out-of-band delivery.
	Token string
}

// CreateInvitation creates a pending (uncredentialed) account in the caller's
// garage. Only owners may invite, and OWNER itself can never be requested:
// the single owner exists from registration.
func (s *Service) CreateInvitation(ctx context.Context, ownerID uuid.UUID, in CreateInvitationInput) (*InvitationResult, error) {
	owner, err := s.store.GetUser(ctx, ownerID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("look up owner: %w", err)
	}

	if owner.Rol != models.RoleOwner {
		return nil, ErrNotOwner
	}
	if in.Rol == models.RoleOwner {
		return nil, ErrOwnerRoleReserved
	}

	token, err := NewInvitationToken(in.Email)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	expiresAt := now.Add(InvitationTTL)
	user := &models.User{
		ID:                  uuid.New(),
		GarageID:            owner.GarageID,
		Name:                in.Name,
		Email:               in.Email,
		Rol:                 in.Rol,
		Status:              models.StatusInvited,
		EmailVerified:       false,
		InvitationToken:     &token,
		InvitationExpiresAt: &expiresAt,
		CreatedAt:           now,
		UpdatedAt:           now,
	}

	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	return &InvitationResult{User: user, Token: token}, nil
}

// ActivateAccount consumes an invitation token: it sets the first credential,
// marks the email verified, clears the token, and mints a session so the new
// account is usable immediately. A token works exactly once.
func (s *Service) ActivateAccount(ctx context.Context, token, password string) (*SessionResult, error) {
	user, err := s.store.GetUserByInvitationToken(ctx, token)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrInvitationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("look up invitation: %w", err)
	}

	if user.InvitationExpiresAt == nil || user.InvitationExpiresAt.Before(s.now()) {
		return nil, ErrInvitationExpired
	}
	if user.PasswordHash != nil {
		return nil, ErrAlreadyActivated
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	err = s.store.ActivateUser(ctx, user.ID, hash)
	if errors.Is(err, store.ErrNotFound) {
		// Lost a race against a concurrent activation of the same token.
		return nil, ErrAlreadyActivated
	}
	if err != nil {
		return nil, err
	}

	user.Status = models.StatusActive
	user.PasswordHash = &hash
	user.EmailVerified = true
	user.InvitationToken = nil
	user.InvitationExpiresAt = nil

	accessToken, err := s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}
	return &SessionResult{AccessToken: accessToken, User: user}, nil
}

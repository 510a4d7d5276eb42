package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/tallerhub/tallerhub/pkg/models"
)

var ErrNotFound = errors.New("resource not found")

// Duplicate-key sentinels. These are derived from the constraint that fired,
// never from a pre-check, so concurrent writers racing on the same fiscal id
// or email get exactly one success.
var (
	ErrDuplicateKey      = errors.New("duplicate key violation")
	ErrDuplicateFiscalID = errors.New("fiscal id already registered")
	ErrDuplicateEmail    = errors.New("email already registered")
	ErrDuplicateOwner    = errors.New("garage already has an owner")
)

// Store is the data access interface. All database operations go through here.
type Store interface {
	Ping(ctx context.Context) error

	// CreateGarageWithOwner persists a garage, its owner account, and the
	// garage's admin_user_id reference as a single transaction. On failure
	// nothing is written.
	CreateGarageWithOwner(ctx context.Context, garage *models.Garage, owner *models.User) error
	GetGarage(ctx context.Context, id uuid.UUID) (*models.Garage, error)

	CreateUser(ctx context.Context, user *models.User) error
	GetUser(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByInvitationToken(ctx context.Context, token string) (*models.User, error)
	UpdateUserPassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	// ActivateUser sets the first credential, marks the email verified, and
	// clears the invitation token. Only rows still in the invited state match;
	// ErrNotFound signals the account was already activated concurrently.
	ActivateUser(ctx context.Context, id uuid.UUID, passwordHash string) error

	CreateClient(ctx context.Context, client *models.Client) error
	ListClients(ctx context.Context, garageID uuid.UUID) ([]*models.Client, error)
	GetClient(ctx context.Context, id uuid.UUID, garageID uuid.UUID) (*models.Client, error)
	UpdateClient(ctx context.Context, client *models.Client) error
}

package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tallerhub/tallerhub/pkg/models"
)

const userColumns = `id, garage_id, name, email, rol, status, password_hash,
	email_verified, invitation_token, invitation_expires_at, created_at, updated_at`

// PostgresStore implements the Store interface using pgx/v5.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgresStore.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Ping checks database connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// --- Garages ---

func (s *PostgresStore) CreateGarageWithOwner(ctx context.Context, garage *models.Garage, owner *models.User) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin registration: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO garages (id, name, fiscal_id, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		garage.ID, garage.Name, garage.FiscalID, garage.CreatedAt, garage.UpdatedAt)
	if err != nil {
		return duplicateOr(err, "create garage")
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO users (id, garage_id, name, email, rol, status, password_hash, email_verified, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		owner.ID, garage.ID, owner.Name, owner.Email, owner.Rol, owner.Status,
		owner.PasswordHash, owner.EmailVerified, owner.CreatedAt, owner.UpdatedAt)
	if err != nil {
		return duplicateOr(err, "create owner")
	}

	_, err = tx.Exec(ctx,
		`UPDATE garages SET admin_user_id = $2, updated_at = $3 WHERE id = $1`,
		garage.ID, owner.ID, garage.UpdatedAt)
	if err != nil {
		return fmt.Errorf("attach owner: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit registration: %w", err)
	}

	garage.AdminUserID = &owner.ID
	return nil
}

func (s *PostgresStore) GetGarage(ctx context.Context, id uuid.UUID) (*models.Garage, error) {
	var g models.Garage
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, fiscal_id, admin_user_id, created_at, updated_at
		 FROM garages WHERE id = $1`, id,
	).Scan(&g.ID, &g.Name, &g.FiscalID, &g.AdminUserID, &g.CreatedAt, &g.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get garage: %w", err)
	}
	return &g, nil
}

// --- Users ---

func (s *PostgresStore) CreateUser(ctx context.Context, user *models.User) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO users (id, garage_id, name, email, rol, status, password_hash,
		   email_verified, invitation_token, invitation_expires_at, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		user.ID, user.GarageID, user.Name, user.Email, user.Rol, user.Status,
		user.PasswordHash, user.EmailVerified, user.InvitationToken,
		user.InvitationExpiresAt, user.CreatedAt, user.UpdatedAt)
	if err != nil {
		return duplicateOr(err, "create user")
	}
	return nil
}

func (s *PostgresStore) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return s.getUser(ctx, `WHERE id = $1`, id)
}

func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getUser(ctx, `WHERE email = $1`, email)
}

func (s *PostgresStore) GetUserByInvitationToken(ctx context.Context, token string) (*models.User, error) {
	return s.getUser(ctx, `WHERE invitation_token = $1`, token)
}

func (s *PostgresStore) getUser(ctx context.Context, where string, arg any) (*models.User, error) {
	var u models.User
	err := s.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users `+where, arg,
	).Scan(&u.ID, &u.GarageID, &u.Name, &u.Email, &u.Rol, &u.Status, &u.PasswordHash,
		&u.EmailVerified, &u.InvitationToken, &u.InvitationExpiresAt, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

func (s *PostgresStore) UpdateUserPassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE users SET password_hash = $2, updated_at = NOW() WHERE id = $1`,
		id, passwordHash)
	if err != nil {
		return fmt.Errorf("update user password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) ActivateUser(ctx context.Context, id uuid.UUID, passwordHash string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE users SET status = $2, password_hash = $3, email_verified = TRUE,
		   invitation_token = NULL, invitation_expires_at = NULL, updated_at = NOW()
		 WHERE id = $1 AND status = $4`,
		id, models.StatusActive, passwordHash, models.StatusInvited)
	if err != nil {
		return fmt.Errorf("activate user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Clients ---

func (s *PostgresStore) CreateClient(ctx context.Context, client *models.Client) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO clients (id, garage_id, name, email, phone, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		client.ID, client.GarageID, client.Name, client.Email, client.Phone,
		client.CreatedAt, client.UpdatedAt)
	if err != nil {
		return duplicateOr(err, "create client")
	}
	return nil
}

func (s *PostgresStore) ListClients(ctx context.Context, garageID uuid.UUID) ([]*models.Client, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, garage_id, name, email, phone, created_at, updated_at
		 FROM clients WHERE garage_id = $1 ORDER BY created_at DESC`, garageID)
	if err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	defer rows.Close()

	var clients []*models.Client
	for rows.Next() {
		var c models.Client
		if err := rows.Scan(&c.ID, &c.GarageID, &c.Name, &c.Email, &c.Phone,
			&c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan client: %w", err)
		}
		clients = append(clients, &c)
	}
	return clients, rows.Err()
}

func (s *PostgresStore) GetClient(ctx context.Context, id uuid.UUID, garageID uuid.UUID) (*models.Client, error) {
	var c models.Client
	err := s.pool.QueryRow(ctx,
		`SELECT id, garage_id, name, email, phone, created_at, updated_at
		 FROM clients WHERE id = $1 AND garage_id = $2`, id, garageID,
	).Scan(&c.ID, &c.GarageID, &c.Name, &c.Email, &c.Phone, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get client: %w", err)
	}
	return &c, nil
}

func (s *PostgresStore) UpdateClient(ctx context.Context, client *models.Client) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE clients SET name = $3, email = $4, phone = $5, updated_at = NOW()
		 WHERE id = $1 AND garage_id = $2`,
		client.ID, client.GarageID, client.Name, client.Email, client.Phone)
	if err != nil {
		return duplicateOr(err, "update client")
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// duplicateOr maps unique-constraint violations to the sentinel for the
// constraint that fired, and wraps everything else.
func duplicateOr(err error, op string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation
		switch pgErr.ConstraintName {
		case "garages_fiscal_id_key":
			return ErrDuplicateFiscalID
		case "users_email_key":
			return ErrDuplicateEmail
		case "users_owner_per_garage":
			return ErrDuplicateOwner
		default:
			return ErrDuplicateKey
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

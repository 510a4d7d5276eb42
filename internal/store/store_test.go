package store_test

import (
	"context"
	"path/filepath"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tallerhub/tallerhub/internal/store"
	"github.com/tallerhub/tallerhub/pkg/models"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// migrationsDir returns the absolute path to the migrations directory.
func migrationsDir() string {
	_, filename, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(filename), "..", "..", "migrations")
}

// setupTestDB spins up a Postgres container, runs migrations, and returns a pool + cleanup.
func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("tallerhub_test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		require.NoError(t, pgContainer.Terminate(ctx))
	})

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	// Run migrations
	err = store.RunMigrations(connStr, migrationsDir())
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)
	t.Cleanup(func() { pool.Close() })

	return pool
}

func newGarage(fiscalID string) *models.Garage {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &models.Garage{
		ID:        uuid.New(),
		Name:      "Taller test",
		FiscalID:  fiscalID,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func newOwner(garageID uuid.UUID, email string) *models.User {
	now := time.Now().UTC().Truncate(time.Microsecond)
	hash := "$2a$10$fakehashfakehashfakehas.fakehashfakehashfakehashfakeha"
	return &models.User{
		ID:           uuid.New(),
		GarageID:     garageID,
		Name:         "Juan Pérez García",
		Email:        email,
		Rol:          models.RoleOwner,
		Status:       models.StatusActive,
		PasswordHash: &hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func newInvitee(garageID uuid.UUID, email, token string) *models.User {
	now := time.Now().UTC().Truncate(time.Microsecond)
	expires := now.Add(7 * 24 * time.Hour)
	return &models.User{
		ID:                  uuid.New(),
		GarageID:            garageID,
		Name:                "Ana López Ruiz",
		Email:               email,
		Rol:                 models.RoleMechanic,
		Status:              models.StatusInvited,
		InvitationToken:     &token,
		InvitationExpiresAt: &expires,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
}

func registerGarage(t *testing.T, s store.Store, fiscalID, email string) (*models.Garage, *models.User) {
	t.Helper()
	garage := newGarage(fiscalID)
	owner := newOwner(garage.ID, email)
	require.NoError(t, s.CreateGarageWithOwner(context.Background(), garage, owner))
	return garage, owner
}

// --- Registration ---

func TestCreateGarageWithOwner(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	ctx := context.Background()

	garage, owner := registerGarage(t, s, "B12345678", "test@test.com")

	got, err := s.GetGarage(ctx, garage.ID)
	require.NoError(t, err)
	assert.Equal(t, "B12345678", got.FiscalID)
	require.NotNil(t, got.AdminUserID)
	assert.Equal(t, owner.ID, *got.AdminUserID)

	gotUser, err := s.GetUserByEmail(ctx, "test@test.com")
	require.NoError(t, err)
	assert.Equal(t, owner.ID, gotUser.ID)
	assert.Equal(t, models.RoleOwner, gotUser.Rol)
	assert.Equal(t, models.StatusActive, gotUser.Status)
}

func TestCreateGarageWithOwner_DuplicateFiscalID(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	ctx := context.Background()

	registerGarage(t, s, "B12345678", "first@test.com")

	garage := newGarage("B12345678")
	owner := newOwner(garage.ID, "second@test.com")
	err := s.CreateGarageWithOwner(ctx, garage, owner)
	assert.ErrorIs(t, err, store.ErrDuplicateFiscalID)

	// Nothing from the failed registration survives.
	_, err = s.GetUserByEmail(ctx, "second@test.com")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestCreateGarageWithOwner_DuplicateEmailRollsBack(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	ctx := context.Background()

	registerGarage(t, s, "B12345678", "test@test.com")

	// Owner insert fails on the email constraint; the garage insert from the
	// same transaction must be rolled back.
	garage := newGarage("B87654321")
	owner := newOwner(garage.ID, "test@test.com")
	err := s.CreateGarageWithOwner(ctx, garage, owner)
	assert.ErrorIs(t, err, store.ErrDuplicateEmail)

	_, err = s.GetGarage(ctx, garage.ID)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestCreateGarageWithOwner_ConcurrentSameFiscalID(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	ctx := context.Background()

	const attempts = 8
	errs := make([]error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			garage := newGarage("B99999999")
			owner := newOwner(garage.ID, uuid.NewString()+"@test.com")
			errs[i] = s.CreateGarageWithOwner(ctx, garage, owner)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			assert.ErrorIs(t, err, store.ErrDuplicateFiscalID)
		}
	}
	assert.Equal(t, 1, succeeded, "exactly one concurrent registration must win")
}

// --- Users ---

func TestCreateUser_DuplicateEmail(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	ctx := context.Background()

	garage, _ := registerGarage(t, s, "B12345678", "test@test.com")

	first := newInvitee(garage.ID, "ana@test.com", "token-one")
	require.NoError(t, s.CreateUser(ctx, first))

	second := newInvitee(garage.ID, "ana@test.com", "token-two")
	err := s.CreateUser(ctx, second)
	assert.ErrorIs(t, err, store.ErrDuplicateEmail)
}

func TestCreateUser_SecondOwnerRejected(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	ctx := context.Background()

	garage, _ := registerGarage(t, s, "B12345678", "test@test.com")

	intruder := newOwner(garage.ID, "second-owner@test.com")
	err := s.CreateUser(ctx, intruder)
	assert.ErrorIs(t, err, store.ErrDuplicateOwner)
}

func TestGetUserByInvitationToken(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	ctx := context.Background()

	garage, _ := registerGarage(t, s, "B12345678", "test@test.com")
	invitee := newInvitee(garage.ID, "ana@test.com", "the-token")
	require.NoError(t, s.CreateUser(ctx, invitee))

	got, err := s.GetUserByInvitationToken(ctx, "the-token")
	require.NoError(t, err)
	assert.Equal(t, invitee.ID, got.ID)
	assert.Equal(t, models.StatusInvited, got.Status)
	assert.Nil(t, got.PasswordHash)

	_, err = s.GetUserByInvitationToken(ctx, "no-such-token")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestActivateUser(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	ctx := context.Background()

	garage, _ := registerGarage(t, s, "B12345678", "test@test.com")
	invitee := newInvitee(garage.ID, "ana@test.com", "the-token")
	require.NoError(t, s.CreateUser(ctx, invitee))

	hash := "$2a$10$fakehashfakehashfakehas.fakehashfakehashfakehashfakeha"
	require.NoError(t, s.ActivateUser(ctx, invitee.ID, hash))

	got, err := s.GetUser(ctx, invitee.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusActive, got.Status)
	assert.True(t, got.EmailVerified)
	assert.Nil(t, got.InvitationToken)
	assert.Nil(t, got.InvitationExpiresAt)
	require.NotNil(t, got.PasswordHash)
	assert.Equal(t, hash, *got.PasswordHash)

	// Already active: the conditional update matches no rows.
	err = s.ActivateUser(ctx, invitee.ID, hash)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestUpdateUserPassword(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	ctx := context.Background()

	_, owner := registerGarage(t, s, "B12345678", "test@test.com")

	newHash := "$2a$10$otherhashotherhashother.hashotherhashotherhashotherha"
	require.NoError(t, s.UpdateUserPassword(ctx, owner.ID, newHash))

	got, err := s.GetUser(ctx, owner.ID)
	require.NoError(t, err)
	require.NotNil(t, got.PasswordHash)
	assert.Equal(t, newHash, *got.PasswordHash)

	err = s.UpdateUserPassword(ctx, uuid.New(), newHash)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

// --- Clients ---

func newClient(garageID uuid.UUID, email string) *models.Client {
	now := time.Now().UTC().Truncate(time.Microsecond)
	return &models.Client{
		ID:        uuid.New(),
		GarageID:  garageID,
		Name:      "Carlos Ruiz",
		Email:     email,
		Phone:     "600123456",
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestClient_CreateAndGet(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	ctx := context.Background()

	garage, _ := registerGarage(t, s, "B12345678", "test@test.com")
	client := newClient(garage.ID, "carlos@test.com")
	require.NoError(t, s.CreateClient(ctx, client))

	got, err := s.GetClient(ctx, client.ID, garage.ID)
	require.NoError(t, err)
	assert.Equal(t, "carlos@test.com", got.Email)

	// Scoped lookup: another garage cannot see it.
	_, err = s.GetClient(ctx, client.ID, uuid.New())
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestClient_DuplicateEmailScopedToGarage(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	ctx := context.Background()

	garageA, _ := registerGarage(t, s, "B12345678", "a@test.com")
	garageB, _ := registerGarage(t, s, "B87654321", "b@test.com")

	require.NoError(t, s.CreateClient(ctx, newClient(garageA.ID, "carlos@test.com")))

	// Same email in the same garage conflicts...
	err := s.CreateClient(ctx, newClient(garageA.ID, "carlos@test.com"))
	assert.ErrorIs(t, err, store.ErrDuplicateKey)

	// ...but a different garage may reuse it.
	assert.NoError(t, s.CreateClient(ctx, newClient(garageB.ID, "carlos@test.com")))
}

func TestClient_ListAndUpdate(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	ctx := context.Background()

	garage, _ := registerGarage(t, s, "B12345678", "test@test.com")
	for i := 0; i < 3; i++ {
		require.NoError(t, s.CreateClient(ctx, newClient(garage.ID, uuid.NewString()+"@test.com")))
	}

	clients, err := s.ListClients(ctx, garage.ID)
	require.NoError(t, err)
	require.Len(t, clients, 3)

	upd := clients[0]
	upd.Phone = "699999999"
	require.NoError(t, s.UpdateClient(ctx, upd))

	got, err := s.GetClient(ctx, upd.ID, garage.ID)
	require.NoError(t, err)
	assert.Equal(t, "699999999", got.Phone)
}

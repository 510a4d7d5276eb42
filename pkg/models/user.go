package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// UserRole is the closed set of roles an account can hold. OWNER exists only
// once per garage and is created at tenant registration; every other account
// is invited by the owner.
type UserRole string

const (
	RoleOwner    UserRole = "OWNER"
	RoleMechanic UserRole = "MECHANIC"
)

// ParseRole validates a role string against the closed set.
func ParseRole(s string) (UserRole, error) {
	switch UserRole(s) {
	case RoleOwner, RoleMechanic:
		return UserRole(s), nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// UserStatus is the account lifecycle state. Invited accounts carry an
// invitation token and no credential; active accounts are the reverse. The
// only transition is invited -> active, via activation.
type UserStatus string

const (
	StatusInvited UserStatus = "invited"
	StatusActive  UserStatus = "active"
)

// User is an account scoped to a garage. PasswordHash and InvitationToken are
// never serialized; raw values leave the service only through the dedicated
// auth flows.
type User struct {
	ID                  uuid.UUID  `db:"id"                    json:"id"`
	GarageID            uuid.UUID  `db:"garage_id"             json:"garageId"`
	Name                string     `db:"name"                  json:"name"`
	Email               string     `db:"email"                 json:"email"`
	Rol                 UserRole   `db:"rol"                   json:"rol"`
	Status              UserStatus `db:"status"                json:"status"`
	PasswordHash        *string    `db:"password_hash"         json:"-"`
	EmailVerified       bool       `db:"email_verified"        json:"emailVerified"`
	InvitationToken     *string    `db:"invitation_token"      json:"-"`
	InvitationExpiresAt *time.Time `db:"invitation_expires_at" json:"-"`
	CreatedAt           time.Time  `db:"created_at"            json:"created_at"`
	UpdatedAt           time.Time  `db:"updated_at"            json:"updated_at"`
}

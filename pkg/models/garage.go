package models

import (
	"time"

	"github.com/google/uuid"
)

// Garage is a tenant. Every user and client belongs to exactly one garage.
type Garage struct {
	ID          uuid.UUID  `db:"id"            json:"id"`
	Name        string     `db:"name"          json:"name"`
	FiscalID    string     `db:"fiscal_id"     json:"fiscalId"`
	AdminUserID *uuid.UUID `db:"admin_user_id" json:"adminUserId,omitempty"`
	CreatedAt   time.Time  `db:"created_at"    json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at"    json:"updated_at"`
}

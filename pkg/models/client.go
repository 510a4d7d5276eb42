package models

import (
	"time"

	"github.com/google/uuid"
)

// Client is a garage customer. Email is unique within a garage, not globally.
type Client struct {
	ID        uuid.UUID `db:"id"         json:"id"`
	GarageID  uuid.UUID `db:"garage_id"  json:"garageId"`
	Name      string    `db:"name"       json:"name"`
	Email     string    `db:"email"      json:"email"`
	Phone     string    `db:"phone"      json:"phone"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

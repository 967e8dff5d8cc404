package types

import (
	"time"

	"github.com/google/uuid"
)

// User represents a registered account.
// Accounts own referrals and authenticate with email and password.
type User struct {
	// ID is the unique identifier of the account.
	ID uuid.UUID `json:"id" db:"id"`

	// Email is the unique login address, stored as provided.
	Email string `json:"email" db:"email"`

	// PasswordHash stores the bcrypt hash of the user's password.
	// This field is never exposed in API responses.
	PasswordHash string `json:"-" db:"password_hash"`

	// CreatedAt is the timestamp when the account was created.
	CreatedAt time.Time `json:"createdAt" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update to the account.
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

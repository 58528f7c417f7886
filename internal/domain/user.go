package domain

import (
	"context"
	"time"
)

// User represents a registered account.
type User struct {
	ID                string    `db:"id"`
	Username          string    `db:"username"`
	Email             string    `db:"email"`
	PasswordHash      string    `db:"password_hash"`
	FullName          string    `db:"full_name"`
	Bio               string    `db:"bio"`
	ProfilePictureURL string    `db:"profile_picture_url"`
	IsPrivate         bool      `db:"is_private"`
	CreatedAt         time.Time `db:"created_at"`
	UpdatedAt         time.Time `db:"updated_at"`
}

// Identity is the authenticated caller attached to a request. It is
// rebuilt from access-token claims without touching storage.
type Identity struct {
	UserID            string
	Username          string
	Email             string
	FullName          string
	ProfilePictureURL string
}

// UserRepository defines persistence operations for users.
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	// Update overwrites every mutable column of the user identified by user.ID.
	Update(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
}

package domain

import (
	"context"
	"time"
)

// RefreshToken is a persisted refresh session. Only the SHA-256 digest
// of the token string is stored.
type RefreshToken struct {
	ID        string    `db:"id"`
	UserID    string    `db:"user_id"`
	TokenHash string    `db:"token_hash"`
	CreatedAt time.Time `db:"created_at"`
	ExpiresAt time.Time `db:"expires_at"`
}

type RefreshTokenRepository interface {
	Create(ctx context.Context, token *RefreshToken) error
	GetByHash(ctx context.Context, hash string) (*RefreshToken, error)
	Delete(ctx context.Context, id string) error
	DeleteByHash(ctx context.Context, hash string) error
	DeleteAllForUser(ctx context.Context, userID string) error
	// Rotate deletes the token oldID and inserts next in one transaction.
	// It returns ErrNotFound when oldID no longer exists, in which case
	// next is not stored.
	Rotate(ctx context.Context, oldID string, next *RefreshToken) error
}

package domain

import (
	"context"
	"time"
)

type Post struct {
	ID        string    `db:"id"`
	UserID    string    `db:"user_id"`
	Content   string    `db:"content"`
	MediaURL  string    `db:"media_url"`
	Latitude  float64   `db:"latitude"`
	Longitude float64   `db:"longitude"`
	Hidden    bool      `db:"hidden"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// Window bounds post creation times. From is inclusive, To exclusive.
// A zero To leaves the window open-ended.
type Window struct {
	From time.Time
	To   time.Time
}

type PostRepository interface {
	Create(ctx context.Context, post *Post) error
	Update(ctx context.Context, post *Post) error
	GetByID(ctx context.Context, id string) (*Post, error)
	// ListByFollowedAuthors returns non-hidden posts inside the window
	// written by users that userID follows, newest first.
	ListByFollowedAuthors(ctx context.Context, userID string, window Window) ([]Post, error)
	// ListByOwner returns every post of userID inside the window, hidden
	// ones included, newest first.
	ListByOwner(ctx context.Context, userID string, window Window) ([]Post, error)
}

package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/msomdec/murmur/internal/domain"
)

const postColumns = `p.id, p.user_id, p.content, p.media_url, p.latitude, p.longitude, p.hidden, p.created_at, p.updated_at`

// postRepo implements domain.PostRepository using SQLite.
type postRepo struct {
	db *sqlx.DB
}

func (r *postRepo) Create(ctx context.Context, post *domain.Post) error {
	now := time.Now().UTC()
	createdAt := now
	if !post.CreatedAt.IsZero() {
		createdAt = post.CreatedAt.UTC()
	}
	id := uuid.NewString()
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO posts (id, user_id, content, media_url, latitude, longitude, hidden, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, post.UserID, post.Content, post.MediaURL, post.Latitude, post.Longitude,
		post.Hidden, createdAt, now,
	)
	if err != nil {
		return fmt.Errorf("insert post: %w", err)
	}

	post.ID = id
	post.CreatedAt = createdAt
	post.UpdatedAt = now
	return nil
}

func (r *postRepo) Update(ctx context.Context, post *domain.Post) error {
	now := time.Now().UTC()
	result, err := r.db.ExecContext(ctx,
		`UPDATE posts SET content = ?, media_url = ?, latitude = ?, longitude = ?, hidden = ?, updated_at = ?
		 WHERE id = ?`,
		post.Content, post.MediaURL, post.Latitude, post.Longitude, post.Hidden, now, post.ID,
	)
	if err != nil {
		return fmt.Errorf("update post: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if rows == 0 {
		return domain.ErrNotFound
	}
	post.UpdatedAt = now
	return nil
}

func (r *postRepo) GetByID(ctx context.Context, id string) (*domain.Post, error) {
	var post domain.Post
	err := r.db.GetContext(ctx, &post, `SELECT `+postColumns+` FROM posts p WHERE p.id = ?`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get post: %w", err)
	}
	return &post, nil
}

func (r *postRepo) ListByFollowedAuthors(ctx context.Context, userID string, window domain.Window) ([]domain.Post, error) {
	query := `SELECT ` + postColumns + `
		FROM posts p
		JOIN follows f ON p.user_id = f.followed_id
		WHERE f.follower_id = ? AND p.hidden = 0`
	query, args := withWindow(query, []any{userID}, window)

	posts := []domain.Post{}
	if err := r.db.SelectContext(ctx, &posts, query, args...); err != nil {
		return nil, fmt.Errorf("list followed posts: %w", err)
	}
	return posts, nil
}

func (r *postRepo) ListByOwner(ctx context.Context, userID string, window domain.Window) ([]domain.Post, error) {
	query, args := withWindow(`SELECT `+postColumns+` FROM posts p WHERE p.user_id = ?`, []any{userID}, window)

	posts := []domain.Post{}
	if err := r.db.SelectContext(ctx, &posts, query, args...); err != nil {
		return nil, fmt.Errorf("list own posts: %w", err)
	}
	return posts, nil
}

// withWindow appends the created_at bounds and ordering. Timestamps are
// stored in UTC, so bounds are normalized before comparison.
func withWindow(query string, args []any, window domain.Window) (string, []any) {
	query += ` AND p.created_at >= ?`
	args = append(args, window.From.UTC())
	if !window.To.IsZero() {
		query += ` AND p.created_at < ?`
		args = append(args, window.To.UTC())
	}
	return query + ` ORDER BY p.created_at DESC`, args
}

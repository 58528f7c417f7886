package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/msomdec/murmur/internal/domain"
)

const postColumns = `p.id, p.user_id, p.content, p.media_url, p.latitude, p.longitude, p.hidden, p.created_at, p.updated_at`

type postRepo struct {
	pool *pgxpool.Pool
}

func (r *postRepo) Create(ctx context.Context, post *domain.Post) error {
	now := time.Now().UTC()
	createdAt := now
	if !post.CreatedAt.IsZero() {
		createdAt = post.CreatedAt.UTC()
	}
	id := uuid.NewString()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO posts (id, user_id, content, media_url, latitude, longitude, hidden, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, id, post.UserID, post.Content, post.MediaURL, post.Latitude, post.Longitude, post.Hidden, createdAt, now)
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
	tag, err := r.pool.Exec(ctx, `
		UPDATE posts SET content = $1, media_url = $2, latitude = $3, longitude = $4, hidden = $5, updated_at = $6
		WHERE id = $7
	`, post.Content, post.MediaURL, post.Latitude, post.Longitude, post.Hidden, now, post.ID)
	if err != nil {
		return fmt.Errorf("update post: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	post.UpdatedAt = now
	return nil
}

func (r *postRepo) GetByID(ctx context.Context, id string) (*domain.Post, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+postColumns+` FROM posts p WHERE p.id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("get post: %w", err)
	}
	post, err := pgx.CollectExactlyOneRow(rows, pgx.RowToAddrOfStructByName[domain.Post])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scan post: %w", err)
	}
	return post, nil
}

func (r *postRepo) ListByFollowedAuthors(ctx context.Context, userID string, window domain.Window) ([]domain.Post, error) {
	query, args := withWindow(`SELECT `+postColumns+`
		FROM posts p
		JOIN follows f ON p.user_id = f.followed_id
		WHERE f.follower_id = $1 AND NOT p.hidden`, []any{userID}, window)
	return r.list(ctx, query, args)
}

func (r *postRepo) ListByOwner(ctx context.Context, userID string, window domain.Window) ([]domain.Post, error) {
	query, args := withWindow(`SELECT `+postColumns+` FROM posts p WHERE p.user_id = $1`, []any{userID}, window)
	return r.list(ctx, query, args)
}

func (r *postRepo) list(ctx context.Context, query string, args []any) ([]domain.Post, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	posts, err := pgx.CollectRows(rows, pgx.RowToStructByName[domain.Post])
	if err != nil {
		return nil, fmt.Errorf("scan posts: %w", err)
	}
	return posts, nil
}

func withWindow(query string, args []any, window domain.Window) (string, []any) {
	args = append(args, window.From.UTC())
	query += ` AND p.created_at >= $` + strconv.Itoa(len(args))
	if !window.To.IsZero() {
		args = append(args, window.To.UTC())
		query += ` AND p.created_at < $` + strconv.Itoa(len(args))
	}
	return query + ` ORDER BY p.created_at DESC`, args
}

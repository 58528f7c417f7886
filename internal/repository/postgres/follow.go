package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type followRepo struct {
	pool *pgxpool.Pool
}

func (r *followRepo) Create(ctx context.Context, followerID, followedID string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO follows (follower_id, followed_id, created_at) VALUES ($1, $2, $3)
		ON CONFLICT (follower_id, followed_id) DO NOTHING
	`, followerID, followedID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("insert follow: %w", err)
	}
	return nil
}

func (r *followRepo) Delete(ctx context.Context, followerID, followedID string) error {
	_, err := r.pool.Exec(ctx,
		`DELETE FROM follows WHERE follower_id = $1 AND followed_id = $2`, followerID, followedID)
	if err != nil {
		return fmt.Errorf("delete follow: %w", err)
	}
	return nil
}

func (r *followRepo) Exists(ctx context.Context, followerID, followedID string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM follows WHERE follower_id = $1 AND followed_id = $2)`,
		followerID, followedID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check follow: %w", err)
	}
	return exists, nil
}

func (r *followRepo) ListFollowers(ctx context.Context, userID string) ([]string, error) {
	return r.listIDs(ctx,
		`SELECT follower_id FROM follows WHERE followed_id = $1 ORDER BY created_at`, userID)
}

func (r *followRepo) ListFollowings(ctx context.Context, userID string) ([]string, error) {
	return r.listIDs(ctx,
		`SELECT followed_id FROM follows WHERE follower_id = $1 ORDER BY created_at`, userID)
}

func (r *followRepo) listIDs(ctx context.Context, query, userID string) ([]string, error) {
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list follows: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scan follows: %w", err)
	}
	return ids, nil
}

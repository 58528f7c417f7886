package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/msomdec/murmur/internal/domain"
)

// fileStore implements domain.FileStore using a BYTEA column.
type fileStore struct {
	pool *pgxpool.Pool
}

func (s *fileStore) Save(ctx context.Context, key, contentType string, data []byte) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO media_blobs (storage_key, content_type, data, created_at) VALUES ($1, $2, $3, $4)`,
		key, contentType, data, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("save media blob: %w", err)
	}
	return nil
}

func (s *fileStore) Get(ctx context.Context, key string) ([]byte, string, error) {
	var (
		data        []byte
		contentType string
	)
	err := s.pool.QueryRow(ctx,
		`SELECT content_type, data FROM media_blobs WHERE storage_key = $1`, key,
	).Scan(&contentType, &data)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, "", domain.ErrNotFound
		}
		return nil, "", fmt.Errorf("get media blob: %w", err)
	}
	return data, contentType, nil
}

func (s *fileStore) Delete(ctx context.Context, key string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM media_blobs WHERE storage_key = $1`, key); err != nil {
		return fmt.Errorf("delete media blob: %w", err)
	}
	return nil
}
